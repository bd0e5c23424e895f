// Package alerting turns high-severity findings into alert records and
// delivers them to an external sink.
package alerting

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/telhawk-systems/telhawk-analyzer/internal/metrics"
	"github.com/telhawk-systems/telhawk-analyzer/internal/models"
)

// Sink delivers one alert to the external alerting collaborator.
type Sink interface {
	PostAlert(ctx context.Context, alert *models.Alert) error
}

// Emitter filters findings by severity and posts one alert per
// qualifying finding. A failed delivery is logged and does not abort
// emission of the remaining alerts.
type Emitter struct {
	sink   Sink
	source string
	logger *slog.Logger
}

// NewEmitter creates an emitter writing to sink. source labels the alert
// origin, e.g. "telhawk-analyzer".
func NewEmitter(sink Sink, source string, logger *slog.Logger) *Emitter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Emitter{sink: sink, source: source, logger: logger}
}

// Emit posts alerts for every high or critical finding in the run.
// It returns the number of alerts successfully delivered.
func (e *Emitter) Emit(ctx context.Context, runID, taskID, orgID string, findings []models.Finding) int {
	if e.sink == nil {
		return 0
	}

	delivered := 0
	for _, f := range findings {
		if f.Severity != models.SeverityHigh && f.Severity != models.SeverityCritical {
			continue
		}

		alert := &models.Alert{
			ID:             uuid.NewString(),
			OrganizationID: orgID,
			RunID:          runID,
			TaskID:         taskID,
			Title:          f.Title,
			Description:    f.Description,
			Severity:       f.Severity,
			Source:         e.source,
			DetectionType:  f.Type,
			Entities:       f.AffectedEntities,
			Evidence:       f.Evidence,
			Mitre:          f.Mitre,
			CreatedAt:      time.Now().UTC(),
		}

		metrics.AlertsEmitted.Inc()
		if err := e.sink.PostAlert(ctx, alert); err != nil {
			metrics.AlertDeliveryErrors.Inc()
			e.logger.Error("alert delivery failed",
				"alert_id", alert.ID,
				"finding_id", f.ID,
				"type", f.Type,
				"error", err,
			)
			continue
		}
		delivered++
	}
	return delivered
}
