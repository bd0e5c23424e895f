package correlation

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/telhawk-systems/telhawk-analyzer/internal/models"
	"github.com/telhawk-systems/telhawk-analyzer/internal/rules"
)

func eventsForUser(user, ip string, count int) []*models.NormalizedEvent {
	out := make([]*models.NormalizedEvent, 0, count)
	for i := 0; i < count; i++ {
		out = append(out, &models.NormalizedEvent{
			ID:        fmt.Sprintf("%s-%d", user, i),
			User:      models.Identity{Name: user, Strategy: models.IdentityExplicit},
			IPAddress: ip,
			Operation: "FileAccessed",
			Result:    "success",
		})
	}
	return out
}

func TestHighActivityUserThresholdIsExclusive(t *testing.T) {
	c := New()

	t.Run("exactly 1000 events stays quiet", func(t *testing.T) {
		rec := rules.NewRecorder(models.NewRunStatistics())
		c.Run(eventsForUser("alice", models.UnknownIP, 1000), rec)
		assert.Empty(t, rec.Findings())
	})

	t.Run("1001 events fires once", func(t *testing.T) {
		rec := rules.NewRecorder(models.NewRunStatistics())
		c.Run(eventsForUser("alice", models.UnknownIP, 1001), rec)

		findings := rec.Findings()
		require.Len(t, findings, 1)
		assert.Equal(t, models.DetectionHighActivityUser, findings[0].Type)
		assert.Equal(t, models.SeverityMedium, findings[0].Severity)
		assert.Equal(t, []string{"alice"}, findings[0].AffectedEntities.Users)
		assert.Equal(t, 1001, findings[0].Evidence["event_count"])
	})
}

func TestSharedIPRequiresBothThresholds(t *testing.T) {
	c := New()

	t.Run("many events few users stays quiet", func(t *testing.T) {
		rec := rules.NewRecorder(models.NewRunStatistics())
		// 501 events but only 2 distinct users.
		events := append(
			eventsForUser("alice", "203.0.113.9", 400),
			eventsForUser("bob", "203.0.113.9", 101)...,
		)
		c.Run(events, rec)
		assert.Empty(t, rec.Findings())
	})

	t.Run("many users few events stays quiet", func(t *testing.T) {
		rec := rules.NewRecorder(models.NewRunStatistics())
		var events []*models.NormalizedEvent
		for i := 0; i < 20; i++ {
			events = append(events, eventsForUser(fmt.Sprintf("user-%02d", i), "203.0.113.9", 5)...)
		}
		c.Run(events, rec)
		assert.Empty(t, rec.Findings())
	})

	t.Run("both thresholds exceeded fires", func(t *testing.T) {
		rec := rules.NewRecorder(models.NewRunStatistics())
		var events []*models.NormalizedEvent
		// 11 users, 46 events each: 506 events total from one address.
		for i := 0; i < 11; i++ {
			events = append(events, eventsForUser(fmt.Sprintf("user-%02d", i), "203.0.113.9", 46)...)
		}
		c.Run(events, rec)

		findings := rec.Findings()
		require.Len(t, findings, 1)
		assert.Equal(t, models.DetectionSharedIP, findings[0].Type)
		assert.Equal(t, models.SeverityHigh, findings[0].Severity)
		assert.Equal(t, []string{"203.0.113.9"}, findings[0].AffectedEntities.IPAddresses)
		assert.Len(t, findings[0].AffectedEntities.Users, 11)
		assert.Equal(t, 506, findings[0].Evidence["event_count"])
		assert.Equal(t, 11, findings[0].Evidence["distinct_users"])
	})
}

func TestSharedIPIgnoresUnknownAddress(t *testing.T) {
	c := New()
	rec := rules.NewRecorder(models.NewRunStatistics())

	var events []*models.NormalizedEvent
	for i := 0; i < 20; i++ {
		events = append(events, eventsForUser(fmt.Sprintf("user-%02d", i), models.UnknownIP, 30)...)
	}
	c.Run(events, rec)
	assert.Empty(t, rec.Findings())
}

func TestCorrelatorDeterministicOrder(t *testing.T) {
	c := New()

	run := func() []string {
		rec := rules.NewRecorder(models.NewRunStatistics())
		events := append(
			eventsForUser("zoe", models.UnknownIP, 1001),
			eventsForUser("adam", models.UnknownIP, 1001)...,
		)
		c.Run(events, rec)
		users := make([]string, 0)
		for _, f := range rec.Findings() {
			users = append(users, f.AffectedEntities.Users[0])
		}
		return users
	}

	first := run()
	require.Equal(t, []string{"adam", "zoe"}, first)
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, run())
	}
}
