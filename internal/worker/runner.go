// Package worker implements the task runner executed inside a scheduler
// worker: fetch the extraction data, run the analysis pipeline, emit
// alerts, and shape the persisted result payload.
package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/telhawk-systems/telhawk-analyzer/internal/alerting"
	"github.com/telhawk-systems/telhawk-analyzer/internal/datasource"
	"github.com/telhawk-systems/telhawk-analyzer/internal/models"
	"github.com/telhawk-systems/telhawk-analyzer/internal/pipeline"
)

// AnalysisRunner runs analysis tasks end to end.
type AnalysisRunner struct {
	source   datasource.Source
	pipeline *pipeline.Pipeline
	emitter  *alerting.Emitter
	logger   *slog.Logger
}

// NewAnalysisRunner wires the runner. emitter may be nil when no alert
// sink is configured.
func NewAnalysisRunner(source datasource.Source, p *pipeline.Pipeline, emitter *alerting.Emitter, logger *slog.Logger) *AnalysisRunner {
	if logger == nil {
		logger = slog.Default()
	}
	return &AnalysisRunner{source: source, pipeline: p, emitter: emitter, logger: logger}
}

// Run executes one task. Progress percentages are reported in
// non-decreasing order.
func (r *AnalysisRunner) Run(ctx context.Context, task *models.Task, report func(percent int, message string)) (map[string]interface{}, error) {
	if task.Kind != models.TaskKindAnalysis {
		return nil, fmt.Errorf("unsupported task kind %q", task.Kind)
	}

	extractionID := payloadString(task.Payload, "extraction_id")
	if extractionID == "" {
		return nil, fmt.Errorf("task payload missing extraction_id")
	}
	orgID := payloadString(task.Payload, "organization_id")

	report(5, "fetching audit data")
	records, err := r.source.Fetch(ctx, extractionID)
	if err != nil {
		return nil, fmt.Errorf("fetch extraction %s: %w", extractionID, err)
	}

	rep, err := r.pipeline.Analyze(ctx, records, func(percent int, message string) {
		// Pipeline progress spans 10-85; leave headroom for alerting.
		report(percent, message)
	})
	if err != nil {
		return nil, fmt.Errorf("analyze extraction %s: %w", extractionID, err)
	}

	report(90, "emitting alerts")
	delivered := 0
	if r.emitter != nil {
		delivered = r.emitter.Emit(ctx, rep.RunID, task.ID, orgID, rep.Findings)
	}

	report(100, "completed")

	result, err := reportPayload(rep, delivered)
	if err != nil {
		return nil, err
	}
	return result, nil
}

// reportPayload flattens the pipeline report into the generic result map
// the job store persists.
func reportPayload(rep *pipeline.Report, alertsDelivered int) (map[string]interface{}, error) {
	data, err := json.Marshal(rep)
	if err != nil {
		return nil, fmt.Errorf("encode analysis report: %w", err)
	}
	var out map[string]interface{}
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("decode analysis report: %w", err)
	}
	out["alerts_delivered"] = alertsDelivered
	return out, nil
}

func payloadString(payload map[string]interface{}, key string) string {
	if payload == nil {
		return ""
	}
	if v, ok := payload[key].(string); ok {
		return v
	}
	return ""
}
