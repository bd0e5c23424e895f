// Package normalizer maps heterogeneous audit-record shapes into the
// canonical NormalizedEvent. Normalization is a pure function: the same
// raw record always yields the same event.
package normalizer

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/telhawk-systems/telhawk-analyzer/internal/models"
)

// Field alias chains, tried in order. The first chain entries cover the
// unified audit log export shape, the later ones the sign-in log shape.
var (
	idAliases        = []string{"Id", "id", "ObjectId", "correlationId"}
	timeAliases      = []string{"CreationTime", "createdDateTime", "timestamp", "time", "activityDateTime"}
	userAliases      = []string{"UserId", "userPrincipalName", "UserKey", "user", "userDisplayName"}
	operationAliases = []string{"Operation", "operationName", "activityDisplayName", "operation"}
	resultAliases    = []string{"ResultStatus", "result", "resultType", "status"}
	ipAliases        = []string{"ClientIP", "ipAddress", "clientIp", "ClientIPAddress"}
	uaAliases        = []string{"UserAgent", "userAgent", "ClientInfoString"}
	appAliases       = []string{"ApplicationDisplayName", "appDisplayName", "AppAccessContext", "Workload", "application"}
	locationAliases  = []string{"Country", "location", "countryOrRegion"}
	categoryAliases  = []string{"RecordType", "category", "Category", "logCategory"}
	sessionAliases   = []string{"SessionId", "sessionId", "DeviceSessionId"}
	targetAliases    = []string{"targetResources", "TargetResources", "ObjectId"}
)

// Normalizer converts raw audit records into canonical events.
type Normalizer struct{}

// New returns a Normalizer.
func New() *Normalizer { return &Normalizer{} }

// Normalize maps one raw record to its canonical form. It never fails;
// missing fields fall back to sentinels and synthesized identities.
func (n *Normalizer) Normalize(raw models.RawRecord) *models.NormalizedEvent {
	ev := &models.NormalizedEvent{
		ID:              stringField(raw, idAliases),
		Timestamp:       timeField(raw, timeAliases),
		Operation:       stringField(raw, operationAliases),
		Result:          normalizeResult(stringField(raw, resultAliases)),
		IPAddress:       stringField(raw, ipAliases),
		UserAgent:       stringField(raw, uaAliases),
		Application:     stringField(raw, appAliases),
		Location:        stringField(raw, locationAliases),
		Category:        stringField(raw, categoryAliases),
		TargetResources: targetResources(raw),
		Raw:             raw,
	}
	if ev.IPAddress == "" {
		ev.IPAddress = models.UnknownIP
	}
	ev.User = resolveIdentity(raw, ev)
	if ev.ID == "" {
		ev.ID = contentDigest(raw)
	}
	return ev
}

// resolveIdentity walks the fallback chain: explicit identity fields,
// then session, IP, application, and finally the event timestamp plus a
// content-derived salt. Every synthesized identity is tagged with the
// strategy that produced it.
func resolveIdentity(raw models.RawRecord, ev *models.NormalizedEvent) models.Identity {
	if user := stringField(raw, userAliases); user != "" {
		return models.Identity{Name: user, Strategy: models.IdentityExplicit}
	}
	if session := stringField(raw, sessionAliases); session != "" {
		return models.Identity{
			Name:     "unknown-session-" + shortDigest(session),
			Strategy: models.IdentitySession,
			Seed:     session,
		}
	}
	if ev.IPAddress != "" && ev.IPAddress != models.UnknownIP {
		return models.Identity{
			Name:     "unknown-ip-" + shortDigest(ev.IPAddress),
			Strategy: models.IdentityIP,
			Seed:     ev.IPAddress,
		}
	}
	if ev.Application != "" {
		return models.Identity{
			Name:     "unknown-app-" + shortDigest(ev.Application),
			Strategy: models.IdentityApplication,
			Seed:     ev.Application,
		}
	}
	// Last resort: timestamp plus a salt derived from the record content,
	// which keeps normalization idempotent for identical records.
	seed := fmt.Sprintf("%d-%s", ev.Timestamp.Unix(), contentDigest(raw))
	return models.Identity{
		Name:     "unknown-" + shortDigest(seed),
		Strategy: models.IdentityRandom,
		Seed:     seed,
	}
}

func stringField(raw models.RawRecord, aliases []string) string {
	for _, key := range aliases {
		v, ok := raw[key]
		if !ok || v == nil {
			continue
		}
		switch s := v.(type) {
		case string:
			if s != "" {
				return s
			}
		case float64:
			return strconv.FormatFloat(s, 'f', -1, 64)
		case int:
			return strconv.Itoa(s)
		case bool:
			return strconv.FormatBool(s)
		}
	}
	return ""
}

func timeField(raw models.RawRecord, aliases []string) time.Time {
	for _, key := range aliases {
		v, ok := raw[key]
		if !ok || v == nil {
			continue
		}
		switch t := v.(type) {
		case string:
			if ts, err := parseTimestamp(t); err == nil {
				return ts
			}
		case float64:
			sec := int64(t)
			return time.Unix(sec, int64((t-float64(sec))*1e9)).UTC()
		}
	}
	return time.Time{}
}

func parseTimestamp(s string) (time.Time, error) {
	layouts := []string{
		time.RFC3339Nano,
		time.RFC3339,
		"2006-01-02T15:04:05",
		"2006-01-02 15:04:05",
	}
	for _, layout := range layouts {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", s)
}

func normalizeResult(result string) string {
	switch strings.ToLower(result) {
	case "success", "succeeded", "0", "ok":
		return "success"
	case "failure", "failed", "error", "denied":
		return "failure"
	case "":
		return "success"
	default:
		return strings.ToLower(result)
	}
}

func targetResources(raw models.RawRecord) []string {
	for _, key := range targetAliases {
		v, ok := raw[key]
		if !ok || v == nil {
			continue
		}
		switch t := v.(type) {
		case string:
			if t != "" {
				return []string{t}
			}
		case []interface{}:
			var out []string
			for _, item := range t {
				switch r := item.(type) {
				case string:
					out = append(out, r)
				case map[string]interface{}:
					if name := stringField(models.RawRecord(r), []string{"displayName", "id", "Id"}); name != "" {
						out = append(out, name)
					}
				}
			}
			if len(out) > 0 {
				return out
			}
		}
	}
	return nil
}

// contentDigest hashes the whole record into a stable identifier.
func contentDigest(raw models.RawRecord) string {
	data, err := json.Marshal(raw)
	if err != nil {
		data = []byte(fmt.Sprintf("%v", raw))
	}
	return shortDigest(string(data))
}

func shortDigest(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:6])
}
