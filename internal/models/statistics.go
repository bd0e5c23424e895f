package models

import "sort"

// StringSet is an explicit distinct-value accumulator. Statistics collect
// distinct values during the run and finalize to integer counts at the end.
type StringSet map[string]struct{}

// Add inserts a value, ignoring the empty string.
func (s StringSet) Add(v string) {
	if v == "" {
		return
	}
	s[v] = struct{}{}
}

// Has reports membership.
func (s StringSet) Has(v string) bool {
	_, ok := s[v]
	return ok
}

// Len returns the number of distinct values.
func (s StringSet) Len() int { return len(s) }

// DataQualityStats tracks events whose user identity had to be synthesized,
// broken down by the synthesis strategy used.
type DataQualityStats struct {
	UnknownUsers int                      `json:"unknown_users"`
	ByStrategy   map[IdentityStrategy]int `json:"by_strategy"`
}

// RunStatistics accumulates aggregate counters for one analysis run.
// Distinct-value statistics are kept as sets until Snapshot finalizes them.
type RunStatistics struct {
	TotalEvents          int `json:"total_events"`
	SuccessfulOperations int `json:"successful_operations"`
	FailedOperations     int `json:"failed_operations"`
	SuspiciousActivities int `json:"suspicious_activities"`

	Users        StringSet `json:"-"`
	Operations   StringSet `json:"-"`
	Applications StringSet `json:"-"`
	Countries    StringSet `json:"-"`
	IPAddresses  StringSet `json:"-"`

	EventsBySeverity map[Severity]int `json:"events_by_severity"`

	BlacklistedApplications StringSet `json:"-"`
	BlacklistedCountries    StringSet `json:"-"`
	BlacklistedUserAgents   StringSet `json:"-"`

	DataQuality DataQualityStats `json:"data_quality"`
}

// NewRunStatistics returns an empty, ready-to-accumulate statistics record.
func NewRunStatistics() *RunStatistics {
	return &RunStatistics{
		Users:                   make(StringSet),
		Operations:              make(StringSet),
		Applications:            make(StringSet),
		Countries:               make(StringSet),
		IPAddresses:             make(StringSet),
		EventsBySeverity:        make(map[Severity]int),
		BlacklistedApplications: make(StringSet),
		BlacklistedCountries:    make(StringSet),
		BlacklistedUserAgents:   make(StringSet),
		DataQuality: DataQualityStats{
			ByStrategy: make(map[IdentityStrategy]int),
		},
	}
}

// Observe folds one normalized event into the counters.
func (rs *RunStatistics) Observe(ev *NormalizedEvent) {
	rs.TotalEvents++
	rs.Users.Add(ev.User.Name)
	rs.Operations.Add(ev.Operation)
	rs.Applications.Add(ev.Application)
	rs.Countries.Add(ev.Location)
	if ev.IPAddress != UnknownIP {
		rs.IPAddresses.Add(ev.IPAddress)
	}

	if IsFailureResult(ev.Result) {
		rs.FailedOperations++
	} else {
		rs.SuccessfulOperations++
	}

	if ev.User.IsUnknown() {
		rs.DataQuality.UnknownUsers++
		rs.DataQuality.ByStrategy[ev.User.Strategy]++
	}
}

// StatisticsSnapshot is the finalized, purely numeric view of a run.
type StatisticsSnapshot struct {
	TotalEvents          int                      `json:"total_events"`
	UniqueUsers          int                      `json:"unique_users"`
	UniqueOperations     int                      `json:"unique_operations"`
	UniqueApplications   int                      `json:"unique_applications"`
	UniqueCountries      int                      `json:"unique_countries"`
	UniqueIPAddresses    int                      `json:"unique_ip_addresses"`
	SuccessfulOperations int                      `json:"successful_operations"`
	FailedOperations     int                      `json:"failed_operations"`
	SuspiciousActivities int                      `json:"suspicious_activities"`
	EventsBySeverity     map[Severity]int         `json:"events_by_severity"`
	BlacklistHits        BlacklistHits            `json:"blacklist_hits"`
	DataQuality          DataQualityStats         `json:"data_quality"`
}

// BlacklistHits lists the distinct denylist values that matched in a run.
type BlacklistHits struct {
	Applications []string `json:"applications,omitempty"`
	Countries    []string `json:"countries,omitempty"`
	UserAgents   []string `json:"user_agents,omitempty"`
}

// Snapshot finalizes distinct sets into counts.
func (rs *RunStatistics) Snapshot() StatisticsSnapshot {
	return StatisticsSnapshot{
		TotalEvents:          rs.TotalEvents,
		UniqueUsers:          rs.Users.Len(),
		UniqueOperations:     rs.Operations.Len(),
		UniqueApplications:   rs.Applications.Len(),
		UniqueCountries:      rs.Countries.Len(),
		UniqueIPAddresses:    rs.IPAddresses.Len(),
		SuccessfulOperations: rs.SuccessfulOperations,
		FailedOperations:     rs.FailedOperations,
		SuspiciousActivities: rs.SuspiciousActivities,
		EventsBySeverity:     rs.EventsBySeverity,
		BlacklistHits: BlacklistHits{
			Applications: sortedValues(rs.BlacklistedApplications),
			Countries:    sortedValues(rs.BlacklistedCountries),
			UserAgents:   sortedValues(rs.BlacklistedUserAgents),
		},
		DataQuality: rs.DataQuality,
	}
}

func sortedValues(s StringSet) []string {
	if len(s) == 0 {
		return nil
	}
	out := make([]string, 0, len(s))
	for v := range s {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

// IsFailureResult reports whether an event result string indicates failure.
func IsFailureResult(result string) bool {
	switch result {
	case "failure", "failed", "Failure", "Failed", "error", "denied":
		return true
	}
	return false
}
