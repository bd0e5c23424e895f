package rules

import (
	"fmt"
	"regexp"

	"github.com/telhawk-systems/telhawk-analyzer/internal/models"
)

type operationPattern struct {
	re       *regexp.Regexp
	detType  models.DetectionType
	severity models.Severity
	title    string
}

// suspiciousPatterns is a fixed ordered list; the first matching pattern
// wins for a given operation.
var suspiciousPatterns = []operationPattern{
	{
		re:       regexp.MustCompile(`(?i)disable.{0,10}(mfa|multi.?factor|strong authentication)`),
		detType:  models.DetectionMFADisable,
		severity: models.SeverityCritical,
		title:    "Multi-factor authentication disabled",
	},
	{
		re:       regexp.MustCompile(`(?i)conditional access`),
		detType:  models.DetectionConditionalAccess,
		severity: models.SeverityCritical,
		title:    "Conditional access policy changed",
	},
	{
		re:       regexp.MustCompile(`(?i)(admin.{0,10}consent|consent to application)`),
		detType:  models.DetectionAdminConsent,
		severity: models.SeverityHigh,
		title:    "Admin consent granted",
	},
	{
		re:       regexp.MustCompile(`(?i)(delete|remove)d? user`),
		detType:  models.DetectionUserDeletion,
		severity: models.SeverityHigh,
		title:    "User deleted",
	},
	{
		re:       regexp.MustCompile(`(?i)(add|assign).{0,20}role`),
		detType:  models.DetectionRoleAssignment,
		severity: models.SeverityHigh,
		title:    "Role assignment",
	},
	{
		re:       regexp.MustCompile(`(?i)(grant|add).{0,20}(permission|delegation)`),
		detType:  models.DetectionPermissionGrant,
		severity: models.SeverityHigh,
		title:    "Permission granted",
	},
	{
		re:       regexp.MustCompile(`(?i)(reset|change).{0,10}password|password.{0,10}reset`),
		detType:  models.DetectionPasswordReset,
		severity: models.SeverityMedium,
		title:    "Password reset",
	},
}

// SuspiciousOperationRule matches operation names against the fixed
// pattern table.
type SuspiciousOperationRule struct{}

func NewSuspiciousOperationRule() *SuspiciousOperationRule { return &SuspiciousOperationRule{} }

func (r *SuspiciousOperationRule) Name() string { return "suspicious_operation" }

func (r *SuspiciousOperationRule) Evaluate(ctx *EvalContext) {
	ev := ctx.Event
	if ev.Operation == "" {
		return
	}
	for _, p := range suspiciousPatterns {
		if p.re.MatchString(ev.Operation) {
			ctx.Recorder.Add(models.Finding{
				Type:             p.detType,
				Title:            p.title,
				Severity:         p.severity,
				Description:      fmt.Sprintf("Operation %q matched suspicious pattern (%s)", ev.Operation, p.detType),
				Timestamp:        ev.Timestamp,
				AffectedEntities: entitiesFor(ev),
				Evidence:         withEvidence(ev, "pattern", p.re.String()),
			})
			return
		}
	}
}
