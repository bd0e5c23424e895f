// Package pipeline orchestrates one analysis run: normalization, the
// per-event detection rules, the cross-event correlation pass, and the
// final scoring summary.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/telhawk-systems/telhawk-analyzer/internal/correlation"
	"github.com/telhawk-systems/telhawk-analyzer/internal/metrics"
	"github.com/telhawk-systems/telhawk-analyzer/internal/models"
	"github.com/telhawk-systems/telhawk-analyzer/internal/normalizer"
	"github.com/telhawk-systems/telhawk-analyzer/internal/rules"
	"github.com/telhawk-systems/telhawk-analyzer/internal/scoring"
)

// trailingWindow caps how many preceding events a rule may inspect.
const trailingWindow = 100

// Report is the full result of one analysis run.
type Report struct {
	RunID      string                    `json:"run_id"`
	Findings   []models.Finding          `json:"findings"`
	Statistics models.StatisticsSnapshot `json:"statistics"`
	Summary    models.RunSummary         `json:"summary"`
	StartedAt  time.Time                 `json:"started_at"`
	FinishedAt time.Time                 `json:"finished_at"`
}

// ProgressFunc receives progress callbacks during a run. Percent values
// are emitted in non-decreasing order.
type ProgressFunc func(percent int, message string)

// Pipeline wires the analysis stages together. Safe for concurrent use;
// each run keeps its own state.
type Pipeline struct {
	normalizer *normalizer.Normalizer
	ruleSet    []rules.Rule
	correlator *correlation.Correlator
	logger     *slog.Logger
}

// New builds a pipeline with the given rule set.
func New(ruleSet []rules.Rule, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		normalizer: normalizer.New(),
		ruleSet:    ruleSet,
		correlator: correlation.New(),
		logger:     logger,
	}
}

// Analyze runs the full pipeline over an ordered batch of raw records.
func (p *Pipeline) Analyze(ctx context.Context, records []models.RawRecord, progress ProgressFunc) (*Report, error) {
	if progress == nil {
		progress = func(int, string) {}
	}

	started := time.Now().UTC()
	timer := time.Now()
	stats := models.NewRunStatistics()
	recorder := rules.NewRecorder(stats)

	progress(10, "normalizing events")

	events := make([]*models.NormalizedEvent, 0, len(records))
	for _, record := range records {
		events = append(events, p.normalizer.Normalize(record))
	}

	progress(30, "running detection rules")

	for i, ev := range events {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("analysis canceled: %w", err)
		}

		stats.Observe(ev)

		windowStart := 0
		if i > trailingWindow {
			windowStart = i - trailingWindow
		}
		evalCtx := &rules.EvalContext{
			Event:    ev,
			Window:   events[windowStart:i],
			Recorder: recorder,
			Stats:    stats,
		}
		for _, rule := range p.ruleSet {
			rule.Evaluate(evalCtx)
		}
	}

	progress(70, "correlating events")
	p.correlator.Run(events, recorder)

	progress(85, "computing risk score")
	findings := recorder.Findings()
	snapshot := stats.Snapshot()
	summary := scoring.Summarize(findings, snapshot)

	report := &Report{
		RunID:      uuid.NewString(),
		Findings:   findings,
		Statistics: snapshot,
		Summary:    summary,
		StartedAt:  started,
		FinishedAt: time.Now().UTC(),
	}

	metrics.AnalysisDuration.Observe(time.Since(timer).Seconds())
	metrics.EventsAnalyzed.Add(float64(len(events)))
	for _, f := range findings {
		metrics.FindingsTotal.WithLabelValues(string(f.Severity)).Inc()
	}

	p.logger.Info("analysis run finished",
		"run_id", report.RunID,
		"events", len(events),
		"findings", len(findings),
		"risk_score", summary.RiskScore,
		"duration", time.Since(timer).String(),
	)

	return report, nil
}
