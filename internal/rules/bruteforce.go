package rules

import (
	"fmt"
	"time"

	"github.com/telhawk-systems/telhawk-analyzer/internal/models"
)

// bruteForceWindow is the trailing span counted for repeated failures.
const bruteForceWindow = time.Hour

// bruteForceThreshold is exclusive: a finding requires strictly more than
// this many in-window failures (current event included).
const bruteForceThreshold = 3

// BruteForceRule flags a user accumulating repeated failures inside the
// trailing one-hour window. The context window holds up to the 100 events
// preceding the current one.
type BruteForceRule struct{}

func NewBruteForceRule() *BruteForceRule { return &BruteForceRule{} }

func (r *BruteForceRule) Name() string { return "brute_force" }

func (r *BruteForceRule) Evaluate(ctx *EvalContext) {
	ev := ctx.Event
	if !models.IsFailureResult(ev.Result) {
		return
	}

	failures := 1 // current event
	for _, prior := range ctx.Window {
		if prior.User.Name != ev.User.Name {
			continue
		}
		if !models.IsFailureResult(prior.Result) {
			continue
		}
		if age := ev.Timestamp.Sub(prior.Timestamp); age >= 0 && age <= bruteForceWindow {
			failures++
		}
	}

	if failures <= bruteForceThreshold {
		return
	}

	ctx.Recorder.Add(models.Finding{
		Type:             models.DetectionBruteForce,
		Title:            "Possible brute-force attempt",
		Severity:         models.SeverityHigh,
		Description:      fmt.Sprintf("User %q had %d failed operations within %s", ev.User.Name, failures, bruteForceWindow),
		Timestamp:        ev.Timestamp,
		AffectedEntities: entitiesFor(ev),
		Evidence: map[string]interface{}{
			"event_id":      ev.ID,
			"failure_count": failures,
			"window":        bruteForceWindow.String(),
		},
	})
}
