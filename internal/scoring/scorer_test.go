package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/telhawk-systems/telhawk-analyzer/internal/models"
)

func findingsOf(severities ...models.Severity) []models.Finding {
	out := make([]models.Finding, 0, len(severities))
	for i, s := range severities {
		out = append(out, models.Finding{
			ID:       i + 1,
			Type:     models.DetectionType("type_" + string(s)),
			Severity: s,
		})
	}
	return out
}

func TestSummarizeEmptyRun(t *testing.T) {
	summary := Summarize(nil, models.StatisticsSnapshot{})

	assert.Equal(t, 0, summary.TotalFindings)
	assert.Equal(t, 0, summary.RiskScore)
	assert.Empty(t, summary.TopThreats)
}

func TestRiskScoreFormula(t *testing.T) {
	// 1 critical + 2 high + 1 medium + 1 low = 10 + 10 + 2 + 1 = 23,
	// plus 0.1 * 20 failures, 2 * 1 app, 3 * 2 countries, 1 * 1 ua = 11.
	findings := findingsOf(
		models.SeverityCritical,
		models.SeverityHigh,
		models.SeverityHigh,
		models.SeverityMedium,
		models.SeverityLow,
	)
	stats := models.StatisticsSnapshot{
		FailedOperations: 20,
		BlacklistHits: models.BlacklistHits{
			Applications: []string{"tor"},
			Countries:    []string{"KP", "IR"},
			UserAgents:   []string{"curl"},
		},
	}

	summary := Summarize(findings, stats)
	assert.Equal(t, 34, summary.RiskScore)
	assert.Equal(t, 5, summary.TotalFindings)
	assert.Equal(t, 1, summary.BySeverity[models.SeverityCritical])
	assert.Equal(t, 2, summary.BySeverity[models.SeverityHigh])
	assert.Equal(t, 1, summary.BySeverity[models.SeverityMedium])
	assert.Equal(t, 1, summary.BySeverity[models.SeverityLow])
}

func TestRiskScoreClampedAt100(t *testing.T) {
	findings := make([]models.Finding, 0, 50)
	for i := 0; i < 50; i++ {
		findings = append(findings, models.Finding{Severity: models.SeverityCritical, Type: models.DetectionMFADisable})
	}
	summary := Summarize(findings, models.StatisticsSnapshot{})
	assert.Equal(t, 100, summary.RiskScore)
}

func TestRiskScoreMonotonicInFindings(t *testing.T) {
	stats := models.StatisticsSnapshot{FailedOperations: 3}
	var findings []models.Finding

	prev := Summarize(findings, stats).RiskScore
	for i := 0; i < 30; i++ {
		findings = append(findings, models.Finding{Severity: models.SeverityHigh, Type: models.DetectionBruteForce})
		score := Summarize(findings, stats).RiskScore
		assert.GreaterOrEqual(t, score, prev)
		prev = score
	}
}

func TestTopThreatsRankingAndLimit(t *testing.T) {
	var findings []models.Finding
	add := func(dt models.DetectionType, n int) {
		for i := 0; i < n; i++ {
			findings = append(findings, models.Finding{Type: dt, Severity: models.SeverityLow})
		}
	}

	add(models.DetectionPasswordReset, 3)
	add(models.DetectionBruteForce, 7)
	add(models.DetectionWeekend, 1)
	add(models.DetectionAfterHours, 5)
	add(models.DetectionUserDeletion, 2)
	add(models.DetectionRoleAssignment, 4)

	summary := Summarize(findings, models.StatisticsSnapshot{})
	require.Len(t, summary.TopThreats, 5, "ranking is capped at five")

	assert.Equal(t, models.DetectionBruteForce, summary.TopThreats[0].Type)
	assert.Equal(t, 7, summary.TopThreats[0].Count)
	assert.Equal(t, models.DetectionAfterHours, summary.TopThreats[1].Type)
	assert.Equal(t, models.DetectionRoleAssignment, summary.TopThreats[2].Type)
	assert.Equal(t, models.DetectionPasswordReset, summary.TopThreats[3].Type)
	assert.Equal(t, models.DetectionUserDeletion, summary.TopThreats[4].Type)
}

func TestTopThreatsStableTies(t *testing.T) {
	// Equal counts keep first-encountered order.
	findings := []models.Finding{
		{Type: models.DetectionWeekend, Severity: models.SeverityLow},
		{Type: models.DetectionAfterHours, Severity: models.SeverityMedium},
		{Type: models.DetectionPasswordReset, Severity: models.SeverityMedium},
		{Type: models.DetectionWeekend, Severity: models.SeverityLow},
		{Type: models.DetectionAfterHours, Severity: models.SeverityMedium},
		{Type: models.DetectionPasswordReset, Severity: models.SeverityMedium},
	}

	summary := Summarize(findings, models.StatisticsSnapshot{})
	require.Len(t, summary.TopThreats, 3)
	assert.Equal(t, models.DetectionWeekend, summary.TopThreats[0].Type)
	assert.Equal(t, models.DetectionAfterHours, summary.TopThreats[1].Type)
	assert.Equal(t, models.DetectionPasswordReset, summary.TopThreats[2].Type)
	for _, tc := range summary.TopThreats {
		assert.Equal(t, 2, tc.Count)
	}
}

func TestRiskScoreNeverNegative(t *testing.T) {
	summary := Summarize(nil, models.StatisticsSnapshot{FailedOperations: 0})
	assert.GreaterOrEqual(t, summary.RiskScore, 0)
}
