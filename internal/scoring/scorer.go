// Package scoring reduces the finding set and run statistics into a
// bounded risk score and a top-threat ranking.
package scoring

import (
	"math"
	"sort"

	"github.com/telhawk-systems/telhawk-analyzer/internal/models"
)

// Per-statistic score contributions layered on top of severity weights.
const (
	failedOpWeight    = 0.1
	blacklistAppWght  = 2.0
	blacklistCtryWght = 3.0
	blacklistUAWght   = 1.0
)

const topThreatLimit = 5

// Summarize computes the run summary from the finding set and statistics.
// The risk score is clamped to [0, 100].
func Summarize(findings []models.Finding, stats models.StatisticsSnapshot) models.RunSummary {
	summary := models.RunSummary{
		TotalFindings: len(findings),
		BySeverity:    make(map[models.Severity]int),
	}

	raw := 0.0
	typeCounts := make(map[models.DetectionType]int)
	var typeOrder []models.DetectionType

	for _, f := range findings {
		summary.BySeverity[f.Severity]++
		raw += f.Severity.Weight()
		if _, seen := typeCounts[f.Type]; !seen {
			typeOrder = append(typeOrder, f.Type)
		}
		typeCounts[f.Type]++
	}

	raw += failedOpWeight * float64(stats.FailedOperations)
	raw += blacklistAppWght * float64(len(stats.BlacklistHits.Applications))
	raw += blacklistCtryWght * float64(len(stats.BlacklistHits.Countries))
	raw += blacklistUAWght * float64(len(stats.BlacklistHits.UserAgents))

	summary.RiskScore = clamp(int(math.Round(raw)), 0, 100)
	summary.TopThreats = topThreats(typeCounts, typeOrder)
	return summary
}

// topThreats sorts descending by count; ties keep first-encountered order.
func topThreats(counts map[models.DetectionType]int, order []models.DetectionType) []models.ThreatCount {
	threats := make([]models.ThreatCount, 0, len(order))
	for _, t := range order {
		threats = append(threats, models.ThreatCount{Type: t, Count: counts[t]})
	}
	sort.SliceStable(threats, func(i, j int) bool {
		return threats[i].Count > threats[j].Count
	})
	if len(threats) > topThreatLimit {
		threats = threats[:topThreatLimit]
	}
	return threats
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
