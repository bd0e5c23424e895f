package worker

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/telhawk-systems/telhawk-analyzer/internal/datasource"
	"github.com/telhawk-systems/telhawk-analyzer/internal/models"
	"github.com/telhawk-systems/telhawk-analyzer/internal/pipeline"
	"github.com/telhawk-systems/telhawk-analyzer/internal/rules"
)

type stubSource struct {
	records []models.RawRecord
	err     error
	lastID  string
}

func (s *stubSource) Fetch(ctx context.Context, extractionID string) ([]models.RawRecord, error) {
	s.lastID = extractionID
	if s.err != nil {
		return nil, s.err
	}
	return s.records, nil
}

func analysisTask(payload map[string]interface{}) *models.Task {
	return &models.Task{
		ID:       "task-1",
		Kind:     models.TaskKindAnalysis,
		Priority: models.PriorityHigh,
		Payload:  payload,
	}
}

func TestRunnerEndToEnd(t *testing.T) {
	source := &stubSource{records: []models.RawRecord{
		{"Id": "evt-1", "UserId": "alice@example.com", "Operation": "UserLoggedIn", "ResultStatus": "Success"},
		{"Id": "evt-2", "UserId": "admin@example.com", "Operation": "Disable MFA for user", "ResultStatus": "Success"},
	}}
	p := pipeline.New(rules.Default(rules.Blacklist{}), nil)
	r := NewAnalysisRunner(source, p, nil, nil)

	var percents []int
	result, err := r.Run(context.Background(), analysisTask(map[string]interface{}{
		"extraction_id": "ext-7",
	}), func(percent int, message string) {
		percents = append(percents, percent)
	})
	require.NoError(t, err)

	assert.Equal(t, "ext-7", source.lastID)
	assert.NotEmpty(t, result["run_id"])
	assert.Equal(t, 0, result["alerts_delivered"])

	summary, ok := result["summary"].(map[string]interface{})
	require.True(t, ok, "summary should survive the round trip")
	assert.EqualValues(t, 1, summary["total_findings"])

	require.NotEmpty(t, percents)
	assert.Equal(t, 100, percents[len(percents)-1])
	for i := 1; i < len(percents); i++ {
		assert.GreaterOrEqual(t, percents[i], percents[i-1])
	}
}

func TestRunnerRejectsWrongKind(t *testing.T) {
	r := NewAnalysisRunner(&stubSource{}, pipeline.New(nil, nil), nil, nil)

	task := analysisTask(map[string]interface{}{"extraction_id": "ext-1"})
	task.Kind = models.TaskKindExtraction

	_, err := r.Run(context.Background(), task, func(int, string) {})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported task kind")
}

func TestRunnerRequiresExtractionID(t *testing.T) {
	r := NewAnalysisRunner(&stubSource{}, pipeline.New(nil, nil), nil, nil)

	tests := []map[string]interface{}{
		nil,
		{},
		{"extraction_id": 42},
		{"extraction_id": ""},
	}
	for _, payload := range tests {
		_, err := r.Run(context.Background(), analysisTask(payload), func(int, string) {})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "extraction_id")
	}
}

func TestRunnerPropagatesFetchError(t *testing.T) {
	source := &stubSource{err: datasource.ErrNoData}
	r := NewAnalysisRunner(source, pipeline.New(nil, nil), nil, nil)

	_, err := r.Run(context.Background(), analysisTask(map[string]interface{}{
		"extraction_id": "ext-1",
	}), func(int, string) {})
	require.Error(t, err)
	assert.ErrorIs(t, err, datasource.ErrNoData)
}
