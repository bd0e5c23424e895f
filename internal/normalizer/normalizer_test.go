package normalizer

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/telhawk-systems/telhawk-analyzer/internal/models"
)

func TestNormalizeUnifiedShape(t *testing.T) {
	n := New()
	ev := n.Normalize(models.RawRecord{
		"Id":                     "evt-1",
		"CreationTime":           "2026-03-04T10:30:00Z",
		"UserId":                 "alice@example.com",
		"Operation":              "FileAccessed",
		"ResultStatus":           "Succeeded",
		"ClientIP":               "203.0.113.5",
		"UserAgent":              "Mozilla/5.0",
		"ApplicationDisplayName": "SharePoint",
		"Country":                "US",
		"RecordType":             "UnifiedAuditLog",
	})

	assert.Equal(t, "evt-1", ev.ID)
	assert.Equal(t, time.Date(2026, 3, 4, 10, 30, 0, 0, time.UTC), ev.Timestamp)
	assert.Equal(t, "alice@example.com", ev.User.Name)
	assert.Equal(t, models.IdentityExplicit, ev.User.Strategy)
	assert.Equal(t, "FileAccessed", ev.Operation)
	assert.Equal(t, "success", ev.Result)
	assert.Equal(t, "203.0.113.5", ev.IPAddress)
	assert.Equal(t, "Mozilla/5.0", ev.UserAgent)
	assert.Equal(t, "SharePoint", ev.Application)
	assert.Equal(t, "US", ev.Location)
	assert.Equal(t, "UnifiedAuditLog", ev.Category)
}

func TestNormalizeSignInShape(t *testing.T) {
	n := New()
	ev := n.Normalize(models.RawRecord{
		"id":                "evt-2",
		"createdDateTime":   "2026-03-04T08:00:00Z",
		"userPrincipalName": "bob@example.com",
		"operationName":     "UserLoggedIn",
		"result":            "Failed",
		"ipAddress":         "198.51.100.7",
		"appDisplayName":    "Azure Portal",
		"countryOrRegion":   "DE",
		"category":          "SignInLogs",
	})

	assert.Equal(t, "evt-2", ev.ID)
	assert.Equal(t, "bob@example.com", ev.User.Name)
	assert.Equal(t, "UserLoggedIn", ev.Operation)
	assert.Equal(t, "failure", ev.Result)
	assert.Equal(t, "198.51.100.7", ev.IPAddress)
	assert.Equal(t, "Azure Portal", ev.Application)
	assert.Equal(t, "DE", ev.Location)
	assert.Equal(t, "SignInLogs", ev.Category)
}

func TestNormalizeResultValues(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Success", "success"},
		{"succeeded", "success"},
		{"0", "success"},
		{"", "success"},
		{"Failed", "failure"},
		{"denied", "failure"},
		{"PartiallySucceeded", "partiallysucceeded"},
	}

	n := New()
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			ev := n.Normalize(models.RawRecord{"ResultStatus": tt.in})
			assert.Equal(t, tt.want, ev.Result)
		})
	}
}

func TestIdentityFallbackLadder(t *testing.T) {
	n := New()

	t.Run("session id", func(t *testing.T) {
		ev := n.Normalize(models.RawRecord{
			"SessionId": "sess-42",
			"ClientIP":  "203.0.113.5",
		})
		assert.Equal(t, models.IdentitySession, ev.User.Strategy)
		assert.True(t, strings.HasPrefix(ev.User.Name, "unknown-session-"))
		assert.Equal(t, "sess-42", ev.User.Seed)
	})

	t.Run("ip address", func(t *testing.T) {
		ev := n.Normalize(models.RawRecord{"ClientIP": "203.0.113.5"})
		assert.Equal(t, models.IdentityIP, ev.User.Strategy)
		assert.True(t, strings.HasPrefix(ev.User.Name, "unknown-ip-"))
		assert.Equal(t, "203.0.113.5", ev.User.Seed)
	})

	t.Run("application", func(t *testing.T) {
		ev := n.Normalize(models.RawRecord{"Workload": "Exchange"})
		assert.Equal(t, models.IdentityApplication, ev.User.Strategy)
		assert.True(t, strings.HasPrefix(ev.User.Name, "unknown-app-"))
		assert.Equal(t, "Exchange", ev.User.Seed)
	})

	t.Run("last resort", func(t *testing.T) {
		ev := n.Normalize(models.RawRecord{"Operation": "Mystery"})
		assert.Equal(t, models.IdentityRandom, ev.User.Strategy)
		assert.True(t, strings.HasPrefix(ev.User.Name, "unknown-"))
	})

	t.Run("explicit user wins over everything", func(t *testing.T) {
		ev := n.Normalize(models.RawRecord{
			"UserId":    "carol@example.com",
			"SessionId": "sess-1",
			"ClientIP":  "203.0.113.5",
			"Workload":  "Exchange",
		})
		assert.Equal(t, models.IdentityExplicit, ev.User.Strategy)
		assert.Equal(t, "carol@example.com", ev.User.Name)
	})
}

func TestNormalizeIsIdempotent(t *testing.T) {
	n := New()
	record := models.RawRecord{
		"Operation":    "Mystery",
		"CreationTime": "2026-03-04T10:30:00Z",
	}

	first := n.Normalize(record)
	second := n.Normalize(record)

	// No explicit identity source exists, so the name is synthesized;
	// the same record must synthesize the same identity every time.
	require.Equal(t, models.IdentityRandom, first.User.Strategy)
	assert.Equal(t, first.User, second.User)
	assert.Equal(t, first.ID, second.ID)
}

func TestNormalizeMissingFields(t *testing.T) {
	n := New()
	ev := n.Normalize(models.RawRecord{})

	assert.Equal(t, models.UnknownIP, ev.IPAddress)
	assert.True(t, ev.Timestamp.IsZero())
	assert.Equal(t, "success", ev.Result)
	assert.NotEmpty(t, ev.ID, "id falls back to the content digest")
	assert.Equal(t, models.IdentityRandom, ev.User.Strategy)
}

func TestTimestampFormats(t *testing.T) {
	tests := []struct {
		name string
		raw  interface{}
		want time.Time
	}{
		{"rfc3339", "2026-03-04T10:30:00Z", time.Date(2026, 3, 4, 10, 30, 0, 0, time.UTC)},
		{"rfc3339 nano", "2026-03-04T10:30:00.123456789Z", time.Date(2026, 3, 4, 10, 30, 0, 123456789, time.UTC)},
		{"no zone", "2026-03-04T10:30:00", time.Date(2026, 3, 4, 10, 30, 0, 0, time.UTC)},
		{"space separated", "2026-03-04 10:30:00", time.Date(2026, 3, 4, 10, 30, 0, 0, time.UTC)},
		{"unix seconds", float64(1770000000), time.Unix(1770000000, 0).UTC()},
	}

	n := New()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev := n.Normalize(models.RawRecord{"CreationTime": tt.raw})
			assert.True(t, tt.want.Equal(ev.Timestamp), "got %s", ev.Timestamp)
		})
	}
}

func TestTargetResources(t *testing.T) {
	n := New()

	t.Run("string list", func(t *testing.T) {
		ev := n.Normalize(models.RawRecord{
			"targetResources": []interface{}{"res-1", "res-2"},
		})
		assert.Equal(t, []string{"res-1", "res-2"}, ev.TargetResources)
	})

	t.Run("object list uses display name", func(t *testing.T) {
		ev := n.Normalize(models.RawRecord{
			"targetResources": []interface{}{
				map[string]interface{}{"displayName": "Finance Group", "id": "g-1"},
			},
		})
		assert.Equal(t, []string{"Finance Group"}, ev.TargetResources)
	})
}
