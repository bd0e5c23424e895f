package alerting

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/telhawk-systems/telhawk-analyzer/internal/models"
)

type mockSink struct {
	mu      sync.Mutex
	alerts  []*models.Alert
	failOn  models.DetectionType
	failAll bool
}

func (m *mockSink) PostAlert(ctx context.Context, alert *models.Alert) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failAll || (m.failOn != "" && alert.DetectionType == m.failOn) {
		return errors.New("sink unavailable")
	}
	m.alerts = append(m.alerts, alert)
	return nil
}

func sampleFindings() []models.Finding {
	return []models.Finding{
		{ID: 1, Type: models.DetectionWeekend, Title: "Weekend activity", Severity: models.SeverityLow},
		{ID: 2, Type: models.DetectionAfterHours, Title: "After-hours activity", Severity: models.SeverityMedium},
		{ID: 3, Type: models.DetectionBruteForce, Title: "Possible brute-force attempt", Severity: models.SeverityHigh},
		{ID: 4, Type: models.DetectionMFADisable, Title: "Multi-factor authentication disabled", Severity: models.SeverityCritical},
	}
}

func TestEmitFiltersBySeverity(t *testing.T) {
	sink := &mockSink{}
	e := NewEmitter(sink, "telhawk-analyzer", nil)

	delivered := e.Emit(context.Background(), "run-1", "task-1", "org-1", sampleFindings())

	assert.Equal(t, 2, delivered)
	require.Len(t, sink.alerts, 2)
	assert.Equal(t, models.DetectionBruteForce, sink.alerts[0].DetectionType)
	assert.Equal(t, models.DetectionMFADisable, sink.alerts[1].DetectionType)
}

func TestEmitOneAlertPerFinding(t *testing.T) {
	sink := &mockSink{}
	e := NewEmitter(sink, "telhawk-analyzer", nil)

	findings := []models.Finding{
		{ID: 1, Type: models.DetectionBruteForce, Severity: models.SeverityHigh},
		{ID: 2, Type: models.DetectionBruteForce, Severity: models.SeverityHigh},
		{ID: 3, Type: models.DetectionBruteForce, Severity: models.SeverityHigh},
	}
	delivered := e.Emit(context.Background(), "run-1", "task-1", "", findings)

	assert.Equal(t, 3, delivered)
	assert.Len(t, sink.alerts, 3)
}

func TestEmitAlertCarriesFindingFields(t *testing.T) {
	sink := &mockSink{}
	e := NewEmitter(sink, "telhawk-analyzer", nil)

	finding := models.Finding{
		ID:          7,
		Type:        models.DetectionMFADisable,
		Title:       "Multi-factor authentication disabled",
		Severity:    models.SeverityCritical,
		Description: "Operation matched suspicious pattern",
		AffectedEntities: models.AffectedEntities{
			Users: []string{"admin@example.com"},
		},
		Mitre: models.MitreMapping{Tactics: []string{"Defense Evasion"}},
	}
	e.Emit(context.Background(), "run-9", "task-9", "org-9", []models.Finding{finding})

	require.Len(t, sink.alerts, 1)
	alert := sink.alerts[0]
	assert.NotEmpty(t, alert.ID)
	assert.Equal(t, "run-9", alert.RunID)
	assert.Equal(t, "task-9", alert.TaskID)
	assert.Equal(t, "org-9", alert.OrganizationID)
	assert.Equal(t, "telhawk-analyzer", alert.Source)
	assert.Equal(t, finding.Title, alert.Title)
	assert.Equal(t, finding.Severity, alert.Severity)
	assert.Equal(t, finding.AffectedEntities, alert.Entities)
	assert.Equal(t, finding.Mitre, alert.Mitre)
	assert.False(t, alert.CreatedAt.IsZero())
}

func TestEmitContinuesAfterDeliveryFailure(t *testing.T) {
	sink := &mockSink{failOn: models.DetectionBruteForce}
	e := NewEmitter(sink, "telhawk-analyzer", nil)

	delivered := e.Emit(context.Background(), "run-1", "task-1", "", sampleFindings())

	// The brute-force alert fails; the critical one still goes out.
	assert.Equal(t, 1, delivered)
	require.Len(t, sink.alerts, 1)
	assert.Equal(t, models.DetectionMFADisable, sink.alerts[0].DetectionType)
}

func TestEmitAllFailuresReturnsZero(t *testing.T) {
	sink := &mockSink{failAll: true}
	e := NewEmitter(sink, "telhawk-analyzer", nil)

	delivered := e.Emit(context.Background(), "run-1", "task-1", "", sampleFindings())
	assert.Equal(t, 0, delivered)
}

func TestEmitNilSink(t *testing.T) {
	e := NewEmitter(nil, "telhawk-analyzer", nil)
	assert.Equal(t, 0, e.Emit(context.Background(), "run-1", "task-1", "", sampleFindings()))
}
