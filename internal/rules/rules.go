// Package rules implements the detection rule set. Rules are a static,
// ordered list of objects evaluated once per normalized event; each rule
// appends zero or more findings to the run recorder.
package rules

import (
	"time"

	"github.com/telhawk-systems/telhawk-analyzer/internal/models"
)

// EvalContext carries everything a rule may consult for one event.
// Window holds up to the 100 events preceding Event in batch order; only
// the brute-force rule reads it.
type EvalContext struct {
	Event    *models.NormalizedEvent
	Window   []*models.NormalizedEvent
	Recorder *Recorder
	Stats    *models.RunStatistics
}

// Rule is one independent detection check.
type Rule interface {
	Name() string
	Evaluate(ctx *EvalContext)
}

// Blacklist holds the configured denylists. Loaded once at startup and
// never mutated afterwards.
type Blacklist struct {
	Applications []string `mapstructure:"applications" yaml:"applications"`
	Countries    []string `mapstructure:"countries" yaml:"countries"`
	UserAgents   []string `mapstructure:"user_agents" yaml:"user_agents"`
}

// Default returns the rule set in evaluation order.
func Default(bl Blacklist) []Rule {
	return []Rule{
		NewBlacklistRule(bl),
		NewSuspiciousOperationRule(),
		NewTimeAnomalyRule(),
		NewPermissionChangeRule(),
		NewAccountLifecycleRule(),
		NewAppLifecycleRule(),
		NewBruteForceRule(),
	}
}

// Recorder collects findings for one run, assigning sequential IDs and
// keeping the suspicious-activity and severity counters in step.
// Findings are append-only; nothing is mutated after Add returns.
type Recorder struct {
	findings []models.Finding
	stats    *models.RunStatistics
	nextID   int
}

// NewRecorder returns a recorder bound to the run statistics.
func NewRecorder(stats *models.RunStatistics) *Recorder {
	return &Recorder{stats: stats, nextID: 1}
}

// Add appends a finding, stamping its sequential ID and filling the MITRE
// mapping and recommendations from the static lookup tables.
func (r *Recorder) Add(f models.Finding) {
	f.ID = r.nextID
	r.nextID++
	if f.Timestamp.IsZero() {
		f.Timestamp = time.Now().UTC()
	}
	if len(f.Mitre.Tactics) == 0 && len(f.Mitre.Techniques) == 0 {
		f.Mitre = MitreFor(f.Type)
	}
	if len(f.Recommendations) == 0 {
		f.Recommendations = RecommendationsFor(f.Type)
	}
	r.findings = append(r.findings, f)

	if r.stats != nil {
		r.stats.SuspiciousActivities++
		r.stats.EventsBySeverity[f.Severity]++
	}
}

// Findings returns the findings recorded so far, in append order.
func (r *Recorder) Findings() []models.Finding {
	return r.findings
}

func entitiesFor(ev *models.NormalizedEvent) models.AffectedEntities {
	entities := models.AffectedEntities{}
	if ev.User.Name != "" {
		entities.Users = []string{ev.User.Name}
	}
	if ev.Application != "" {
		entities.Applications = []string{ev.Application}
	}
	if ev.IPAddress != "" && ev.IPAddress != models.UnknownIP {
		entities.IPAddresses = []string{ev.IPAddress}
	}
	if ev.Location != "" {
		entities.Locations = []string{ev.Location}
	}
	return entities
}

func baseEvidence(ev *models.NormalizedEvent) map[string]interface{} {
	return map[string]interface{}{
		"event_id":  ev.ID,
		"operation": ev.Operation,
		"result":    ev.Result,
		"timestamp": ev.Timestamp,
	}
}
