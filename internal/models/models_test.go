package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSeverityWeight(t *testing.T) {
	tests := []struct {
		severity Severity
		weight   float64
	}{
		{SeverityCritical, 10},
		{SeverityHigh, 5},
		{SeverityMedium, 2},
		{SeverityLow, 1},
		{Severity("bogus"), 0},
	}

	for _, tt := range tests {
		t.Run(string(tt.severity), func(t *testing.T) {
			assert.Equal(t, tt.weight, tt.severity.Weight())
		})
	}
}

func TestTaskPriorityRank(t *testing.T) {
	tests := []struct {
		priority TaskPriority
		rank     int
	}{
		{PriorityCritical, 0},
		{PriorityHigh, 1},
		{PriorityMedium, 2},
		{PriorityLow, 3},
		{TaskPriority("unknown"), 4},
		{TaskPriority(""), 4},
	}

	for _, tt := range tests {
		t.Run(string(tt.priority), func(t *testing.T) {
			assert.Equal(t, tt.rank, tt.priority.Rank())
		})
	}

	// Critical dispatches before everything else.
	assert.Less(t, PriorityCritical.Rank(), PriorityHigh.Rank())
	assert.Less(t, PriorityHigh.Rank(), PriorityMedium.Rank())
	assert.Less(t, PriorityMedium.Rank(), PriorityLow.Rank())
}

func TestIdentityIsUnknown(t *testing.T) {
	assert.False(t, Identity{Name: "alice@example.com", Strategy: IdentityExplicit}.IsUnknown())
	assert.True(t, Identity{Name: "unknown-session-abc", Strategy: IdentitySession}.IsUnknown())
	assert.True(t, Identity{Name: "unknown-ip-abc", Strategy: IdentityIP}.IsUnknown())
	assert.True(t, Identity{Name: "unknown-app-abc", Strategy: IdentityApplication}.IsUnknown())
	assert.True(t, Identity{Name: "unknown-abc", Strategy: IdentityRandom}.IsUnknown())
}

func TestIsFailureResult(t *testing.T) {
	for _, result := range []string{"failure", "failed", "Failure", "Failed", "error", "denied"} {
		assert.True(t, IsFailureResult(result), result)
	}
	for _, result := range []string{"success", "Success", "", "ok", "unknown"} {
		assert.False(t, IsFailureResult(result), result)
	}
}

func TestStringSet(t *testing.T) {
	s := make(StringSet)
	s.Add("a")
	s.Add("b")
	s.Add("a")
	s.Add("")

	assert.Equal(t, 2, s.Len())
	assert.True(t, s.Has("a"))
	assert.False(t, s.Has(""))
	assert.False(t, s.Has("c"))
}

func TestRunStatisticsObserve(t *testing.T) {
	rs := NewRunStatistics()
	ts := time.Date(2026, 3, 4, 10, 0, 0, 0, time.UTC)

	rs.Observe(&NormalizedEvent{
		Timestamp:   ts,
		User:        Identity{Name: "alice@example.com", Strategy: IdentityExplicit},
		Operation:   "UserLoggedIn",
		Result:      "success",
		IPAddress:   "10.0.0.1",
		Application: "Outlook",
		Location:    "US",
	})
	rs.Observe(&NormalizedEvent{
		Timestamp: ts,
		User:      Identity{Name: "alice@example.com", Strategy: IdentityExplicit},
		Operation: "FileAccessed",
		Result:    "failure",
		IPAddress: UnknownIP,
	})
	rs.Observe(&NormalizedEvent{
		Timestamp: ts,
		User:      Identity{Name: "unknown-ip-abcdef", Strategy: IdentityIP, Seed: "10.0.0.2"},
		Operation: "UserLoggedIn",
		Result:    "success",
		IPAddress: "10.0.0.2",
	})

	snap := rs.Snapshot()
	assert.Equal(t, 3, snap.TotalEvents)
	assert.Equal(t, 2, snap.UniqueUsers)
	assert.Equal(t, 2, snap.UniqueOperations)
	assert.Equal(t, 1, snap.UniqueApplications)
	assert.Equal(t, 1, snap.UniqueCountries)
	// The unknown-IP sentinel never enters the distinct-address set.
	assert.Equal(t, 2, snap.UniqueIPAddresses)
	assert.Equal(t, 2, snap.SuccessfulOperations)
	assert.Equal(t, 1, snap.FailedOperations)
	assert.Equal(t, 1, snap.DataQuality.UnknownUsers)
	assert.Equal(t, 1, snap.DataQuality.ByStrategy[IdentityIP])
}

func TestSnapshotBlacklistHitsSorted(t *testing.T) {
	rs := NewRunStatistics()
	rs.BlacklistedApplications.Add("zeta")
	rs.BlacklistedApplications.Add("alpha")
	rs.BlacklistedCountries.Add("KP")

	snap := rs.Snapshot()
	assert.Equal(t, []string{"alpha", "zeta"}, snap.BlacklistHits.Applications)
	assert.Equal(t, []string{"KP"}, snap.BlacklistHits.Countries)
	assert.Nil(t, snap.BlacklistHits.UserAgents)
}

func TestTaskErrorString(t *testing.T) {
	assert.Equal(t, "worker crashed", (&TaskError{Message: "worker crashed"}).Error())
	assert.Equal(t, "task failed: boom", (&TaskError{Message: "task failed", Detail: "boom"}).Error())
}
