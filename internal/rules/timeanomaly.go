package rules

import (
	"fmt"
	"time"

	"github.com/telhawk-systems/telhawk-analyzer/internal/models"
)

// TimeAnomalyRule flags activity outside business hours and on weekends.
// Hours are taken in the analysis host's local time zone, matching the
// behavior of the upstream collector.
type TimeAnomalyRule struct{}

func NewTimeAnomalyRule() *TimeAnomalyRule { return &TimeAnomalyRule{} }

func (r *TimeAnomalyRule) Name() string { return "time_anomaly" }

func (r *TimeAnomalyRule) Evaluate(ctx *EvalContext) {
	ev := ctx.Event
	if ev.Timestamp.IsZero() {
		return
	}
	local := ev.Timestamp.Local()

	if hour := local.Hour(); hour < 6 || hour > 22 {
		ctx.Recorder.Add(models.Finding{
			Type:             models.DetectionAfterHours,
			Title:            "After-hours activity",
			Severity:         models.SeverityMedium,
			Description:      fmt.Sprintf("Operation %q performed at %02d:%02d local time", ev.Operation, hour, local.Minute()),
			Timestamp:        ev.Timestamp,
			AffectedEntities: entitiesFor(ev),
			Evidence:         withEvidence(ev, "local_hour", hour),
		})
	}

	if day := local.Weekday(); day == time.Saturday || day == time.Sunday {
		ctx.Recorder.Add(models.Finding{
			Type:             models.DetectionWeekend,
			Title:            "Weekend activity",
			Severity:         models.SeverityLow,
			Description:      fmt.Sprintf("Operation %q performed on %s", ev.Operation, day),
			Timestamp:        ev.Timestamp,
			AffectedEntities: entitiesFor(ev),
			Evidence:         withEvidence(ev, "weekday", day.String()),
		})
	}
}
