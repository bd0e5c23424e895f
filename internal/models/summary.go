package models

// ThreatCount is one entry of the top-threat histogram.
type ThreatCount struct {
	Type  DetectionType `json:"type"`
	Count int           `json:"count"`
}

// RunSummary reduces a finding set into headline numbers for one run.
type RunSummary struct {
	TotalFindings int              `json:"total_findings"`
	BySeverity    map[Severity]int `json:"by_severity"`
	TopThreats    []ThreatCount    `json:"top_threats"`
	RiskScore     int              `json:"risk_score"`
}
