// auditgen generates fake cloud-tenant audit events for local testing.
// It writes JSON batches in both upstream log shapes that the analyzer
// normalizes, including a configurable share of suspicious activity.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"
	"path/filepath"
	"time"

	"github.com/brianvoe/gofakeit/v6"
)

var (
	outDir     = flag.String("out", "./data/extractions", "output directory")
	extraction = flag.String("extraction", "demo", "extraction identifier (subdirectory name)")
	count      = flag.Int("count", 500, "number of events to generate")
	shape      = flag.String("shape", "unified", "log shape: unified or signin")
	badRatio   = flag.Float64("bad-ratio", 0.05, "fraction of suspicious events")
	timeSpread = flag.Duration("time-spread", 24*time.Hour, "spread events over this period")
	seed       = flag.Int64("seed", 0, "random seed (0 for time-based)")
)

var suspiciousOps = []string{
	"Disable MFA for user",
	"Reset user password",
	"Add member to role",
	"Grant delegated permission",
	"Delete user",
	"Consent to application",
	"Update conditional access policy",
	"Add service principal",
}

var normalOps = []string{
	"UserLoggedIn",
	"FileAccessed",
	"FileDownloaded",
	"MailItemsAccessed",
	"SearchQueryPerformed",
	"TeamsSessionStarted",
}

func main() {
	flag.Parse()

	if *seed != 0 {
		gofakeit.Seed(*seed)
		rand.Seed(*seed)
	} else {
		gofakeit.Seed(time.Now().UnixNano())
	}

	dir := filepath.Join(*outDir, *extraction)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		log.Fatalf("create output directory: %v", err)
	}

	users := make([]string, 20)
	for i := range users {
		users[i] = gofakeit.Email()
	}

	events := make([]map[string]interface{}, 0, *count)
	now := time.Now().UTC()
	for i := 0; i < *count; i++ {
		ts := now.Add(-time.Duration(rand.Int63n(int64(*timeSpread))))
		suspicious := rand.Float64() < *badRatio
		events = append(events, makeEvent(*shape, users, ts, suspicious))
	}

	path := filepath.Join(dir, fmt.Sprintf("audit-%s.json", now.Format("20060102-150405")))
	f, err := os.Create(path)
	if err != nil {
		log.Fatalf("create output file: %v", err)
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(events); err != nil {
		log.Fatalf("write events: %v", err)
	}

	log.Printf("wrote %d events (%s shape) to %s", len(events), *shape, path)
}

func makeEvent(shape string, users []string, ts time.Time, suspicious bool) map[string]interface{} {
	user := users[rand.Intn(len(users))]
	op := normalOps[rand.Intn(len(normalOps))]
	result := "Success"
	if suspicious {
		op = suspiciousOps[rand.Intn(len(suspiciousOps))]
	}
	if rand.Float64() < 0.08 {
		result = "Failed"
	}

	if shape == "signin" {
		return map[string]interface{}{
			"id":                gofakeit.UUID(),
			"createdDateTime":   ts.Format(time.RFC3339),
			"userPrincipalName": user,
			"operationName":     op,
			"result":            result,
			"ipAddress":         gofakeit.IPv4Address(),
			"userAgent":         gofakeit.UserAgent(),
			"appDisplayName":    gofakeit.AppName(),
			"countryOrRegion":   gofakeit.CountryAbr(),
			"category":          "SignInLogs",
		}
	}

	return map[string]interface{}{
		"Id":                     gofakeit.UUID(),
		"CreationTime":           ts.Format(time.RFC3339),
		"UserId":                 user,
		"Operation":              op,
		"ResultStatus":           result,
		"ClientIP":               gofakeit.IPv4Address(),
		"UserAgent":              gofakeit.UserAgent(),
		"ApplicationDisplayName": gofakeit.AppName(),
		"Country":                gofakeit.Country(),
		"RecordType":             "UnifiedAuditLog",
	}
}
