// Package correlation runs one aggregate pass over the full normalized
// batch after the per-event rules, detecting cross-event anomalies.
package correlation

import (
	"fmt"
	"sort"

	"github.com/telhawk-systems/telhawk-analyzer/internal/models"
	"github.com/telhawk-systems/telhawk-analyzer/internal/rules"
)

const (
	// highActivityThreshold is exclusive: a user needs strictly more
	// events than this to be flagged.
	highActivityThreshold = 1000

	// sharedIPEventThreshold and sharedIPUserThreshold are both
	// exclusive; an address must exceed both to be flagged.
	sharedIPEventThreshold = 500
	sharedIPUserThreshold  = 10
)

// Correlator detects aggregate anomalies over a whole batch in O(n).
type Correlator struct{}

// New returns a Correlator.
func New() *Correlator { return &Correlator{} }

// Run groups the batch by user and by IP address and appends at most one
// finding per anomalous group.
func (c *Correlator) Run(events []*models.NormalizedEvent, recorder *rules.Recorder) {
	byUser := make(map[string]int)
	byIP := make(map[string]map[string]struct{})
	ipEvents := make(map[string]int)

	for _, ev := range events {
		byUser[ev.User.Name]++

		if ev.IPAddress == "" || ev.IPAddress == models.UnknownIP {
			continue
		}
		ipEvents[ev.IPAddress]++
		users, ok := byIP[ev.IPAddress]
		if !ok {
			users = make(map[string]struct{})
			byIP[ev.IPAddress] = users
		}
		users[ev.User.Name] = struct{}{}
	}

	for _, user := range sortedKeys(byUser) {
		count := byUser[user]
		if count <= highActivityThreshold {
			continue
		}
		recorder.Add(models.Finding{
			Type:        models.DetectionHighActivityUser,
			Title:       "Unusually high activity volume",
			Severity:    models.SeverityMedium,
			Description: fmt.Sprintf("User %q produced %d events in this run", user, count),
			AffectedEntities: models.AffectedEntities{
				Users: []string{user},
			},
			Evidence: map[string]interface{}{
				"event_count": count,
				"threshold":   highActivityThreshold,
			},
		})
	}

	for _, ip := range sortedKeys(ipEvents) {
		count := ipEvents[ip]
		distinctUsers := len(byIP[ip])
		if count <= sharedIPEventThreshold || distinctUsers <= sharedIPUserThreshold {
			continue
		}
		recorder.Add(models.Finding{
			Type:        models.DetectionSharedIP,
			Title:       "Multiple users from same IP address",
			Severity:    models.SeverityHigh,
			Description: fmt.Sprintf("Address %s produced %d events across %d distinct users", ip, count, distinctUsers),
			AffectedEntities: models.AffectedEntities{
				IPAddresses: []string{ip},
				Users:       sortedSet(byIP[ip]),
			},
			Evidence: map[string]interface{}{
				"event_count":    count,
				"distinct_users": distinctUsers,
			},
		})
	}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func sortedSet(s map[string]struct{}) []string {
	out := make([]string, 0, len(s))
	for v := range s {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}
