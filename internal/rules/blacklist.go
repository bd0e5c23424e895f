package rules

import (
	"fmt"
	"strings"

	"github.com/telhawk-systems/telhawk-analyzer/internal/models"
)

// BlacklistRule matches normalized application, location and user-agent
// values against the configured denylists with case-insensitive substring
// matching.
type BlacklistRule struct {
	applications []string
	countries    []string
	userAgents   []string
}

// NewBlacklistRule compiles the denylists into lowercase form once.
func NewBlacklistRule(bl Blacklist) *BlacklistRule {
	return &BlacklistRule{
		applications: lowerAll(bl.Applications),
		countries:    lowerAll(bl.Countries),
		userAgents:   lowerAll(bl.UserAgents),
	}
}

func (r *BlacklistRule) Name() string { return "blacklist" }

func (r *BlacklistRule) Evaluate(ctx *EvalContext) {
	ev := ctx.Event

	if entry := matchEntry(ev.Application, r.applications); entry != "" {
		ctx.Stats.BlacklistedApplications.Add(ev.Application)
		ctx.Recorder.Add(models.Finding{
			Type:             models.DetectionBlacklistedApp,
			Title:            "Blacklisted application used",
			Severity:         models.SeverityHigh,
			Description:      fmt.Sprintf("Application %q matched denylist entry %q", ev.Application, entry),
			Timestamp:        ev.Timestamp,
			AffectedEntities: entitiesFor(ev),
			Evidence:         withEvidence(ev, "matched_entry", entry),
		})
	}

	if entry := matchEntry(ev.Location, r.countries); entry != "" {
		ctx.Stats.BlacklistedCountries.Add(ev.Location)
		ctx.Recorder.Add(models.Finding{
			Type:             models.DetectionBlacklistedCountry,
			Title:            "Activity from blacklisted country",
			Severity:         models.SeverityHigh,
			Description:      fmt.Sprintf("Location %q matched denylist entry %q", ev.Location, entry),
			Timestamp:        ev.Timestamp,
			AffectedEntities: entitiesFor(ev),
			Evidence:         withEvidence(ev, "matched_entry", entry),
		})
	}

	if entry := matchEntry(ev.UserAgent, r.userAgents); entry != "" {
		ctx.Stats.BlacklistedUserAgents.Add(ev.UserAgent)
		ctx.Recorder.Add(models.Finding{
			Type:             models.DetectionBlacklistedUserAgent,
			Title:            "Blacklisted user agent observed",
			Severity:         models.SeverityMedium,
			Description:      fmt.Sprintf("User agent %q matched denylist entry %q", ev.UserAgent, entry),
			Timestamp:        ev.Timestamp,
			AffectedEntities: entitiesFor(ev),
			Evidence:         withEvidence(ev, "matched_entry", entry),
		})
	}
}

func matchEntry(value string, entries []string) string {
	if value == "" {
		return ""
	}
	lower := strings.ToLower(value)
	for _, entry := range entries {
		if entry != "" && strings.Contains(lower, entry) {
			return entry
		}
	}
	return ""
}

func lowerAll(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		out = append(out, strings.ToLower(strings.TrimSpace(v)))
	}
	return out
}

func withEvidence(ev *models.NormalizedEvent, key string, value interface{}) map[string]interface{} {
	evidence := baseEvidence(ev)
	evidence[key] = value
	return evidence
}
