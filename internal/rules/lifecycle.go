package rules

import (
	"fmt"
	"regexp"

	"github.com/telhawk-systems/telhawk-analyzer/internal/models"
)

// PermissionChangeRule flags operations that mutate permissions.
type PermissionChangeRule struct{}

var permissionChangePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(update|change|modify|set).{0,20}permission`),
	regexp.MustCompile(`(?i)(update|modify).{0,20}role`),
	regexp.MustCompile(`(?i)remove.{0,20}(permission|delegation)`),
}

func NewPermissionChangeRule() *PermissionChangeRule { return &PermissionChangeRule{} }

func (r *PermissionChangeRule) Name() string { return "permission_change" }

func (r *PermissionChangeRule) Evaluate(ctx *EvalContext) {
	ev := ctx.Event
	for _, re := range permissionChangePatterns {
		if re.MatchString(ev.Operation) {
			ctx.Recorder.Add(models.Finding{
				Type:             models.DetectionPermissionChange,
				Title:            "Permission change",
				Severity:         models.SeverityHigh,
				Description:      fmt.Sprintf("Operation %q modified permissions", ev.Operation),
				Timestamp:        ev.Timestamp,
				AffectedEntities: entitiesFor(ev),
				Evidence:         withEvidence(ev, "pattern", re.String()),
			})
			return
		}
	}
}

type lifecyclePattern struct {
	re       *regexp.Regexp
	severity models.Severity
	action   string
}

var accountLifecyclePatterns = []lifecyclePattern{
	{regexp.MustCompile(`(?i)(add|create)e?d? (new )?user`), models.SeverityLow, "created"},
	{regexp.MustCompile(`(?i)(delete|remove)d? user`), models.SeverityHigh, "deleted"},
	{regexp.MustCompile(`(?i)(disable|block)e?d? (user|account)`), models.SeverityMedium, "disabled"},
	{regexp.MustCompile(`(?i)(enable|unblock)e?d? (user|account)`), models.SeverityLow, "enabled"},
	{regexp.MustCompile(`(?i)(change|update)d? (user )?password`), models.SeverityMedium, "password changed"},
}

// AccountLifecycleRule flags account create/delete/disable/enable and
// password-change operations.
type AccountLifecycleRule struct{}

func NewAccountLifecycleRule() *AccountLifecycleRule { return &AccountLifecycleRule{} }

func (r *AccountLifecycleRule) Name() string { return "account_lifecycle" }

func (r *AccountLifecycleRule) Evaluate(ctx *EvalContext) {
	ev := ctx.Event
	for _, p := range accountLifecyclePatterns {
		if p.re.MatchString(ev.Operation) {
			ctx.Recorder.Add(models.Finding{
				Type:             models.DetectionAccountLifecycle,
				Title:            fmt.Sprintf("Account %s", p.action),
				Severity:         p.severity,
				Description:      fmt.Sprintf("Operation %q: account %s", ev.Operation, p.action),
				Timestamp:        ev.Timestamp,
				AffectedEntities: entitiesFor(ev),
				Evidence:         withEvidence(ev, "action", p.action),
			})
			return
		}
	}
}

var appLifecyclePatterns = []lifecyclePattern{
	{regexp.MustCompile(`(?i)(add|create|register)e?d? (new )?application`), models.SeverityMedium, "application created"},
	{regexp.MustCompile(`(?i)(delete|remove)d? application`), models.SeverityHigh, "application deleted"},
	{regexp.MustCompile(`(?i)(add|create)d? service principal`), models.SeverityMedium, "service principal created"},
	{regexp.MustCompile(`(?i)(remove|delete)d? service principal`), models.SeverityHigh, "service principal deleted"},
	{regexp.MustCompile(`(?i)oauth2?.{0,15}(grant|consent)`), models.SeverityHigh, "oauth consent"},
}

// AppLifecycleRule flags application and service-principal lifecycle
// operations including OAuth consent grants.
type AppLifecycleRule struct{}

func NewAppLifecycleRule() *AppLifecycleRule { return &AppLifecycleRule{} }

func (r *AppLifecycleRule) Name() string { return "application_lifecycle" }

func (r *AppLifecycleRule) Evaluate(ctx *EvalContext) {
	ev := ctx.Event
	for _, p := range appLifecyclePatterns {
		if p.re.MatchString(ev.Operation) {
			ctx.Recorder.Add(models.Finding{
				Type:             models.DetectionAppLifecycle,
				Title:            fmt.Sprintf("Application lifecycle: %s", p.action),
				Severity:         p.severity,
				Description:      fmt.Sprintf("Operation %q: %s", ev.Operation, p.action),
				Timestamp:        ev.Timestamp,
				AffectedEntities: entitiesFor(ev),
				Evidence:         withEvidence(ev, "action", p.action),
			})
			return
		}
	}
}
