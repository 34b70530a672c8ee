// seed inserts sample targets and schedules into the local dev database.
// Run: go run ./cmd/seed
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/aibekov/webcron/internal/infrastructure/postgres"
)

type targetSpec struct {
	url    string
	method string
	body   *string
}

type scheduleSpec struct {
	target int // index into targets
	typ    string
	config map[string]any
}

var targets = []targetSpec{
	{"https://httpbin.org/get", "GET", nil},         // healthy
	{"https://httpbin.org/status/500", "GET", nil},  // always fails
	{"https://httpbin.org/delay/15", "GET", nil},    // slower than the default timeout
	{"https://httpbin.org/post", "POST", strPtr(`{"ping":true}`)},
}

func schedules(now time.Time) []scheduleSpec {
	return []scheduleSpec{
		// Fires every 30s forever.
		{0, "INTERVAL", map[string]any{"interval_seconds": 30}},

		// Fires every minute until the window closes in 10 minutes.
		{1, "WINDOW", map[string]any{
			"interval_seconds": 60,
			"end_time":         now.Add(10 * time.Minute).Format(time.RFC3339),
		}},

		// Capped at 3 dispatches, whichever comes first.
		{3, "WINDOW", map[string]any{
			"interval_seconds": 45,
			"end_time":         now.Add(time.Hour).Format(time.RFC3339),
			"max_runs":         3,
		}},

		// Times out: the 10s default timeout loses to a 15s delay.
		{2, "INTERVAL", map[string]any{"interval_seconds": 120}},

		// Every 5 minutes on the clock.
		{0, "CRON", map[string]any{"cron_expr": "*/5 * * * *"}},
	}
}

func strPtr(s string) *string { return &s }

func main() {
	ctx := context.Background()

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL is not set — run: direnv allow")
	}

	pool, err := postgres.NewPool(ctx, dbURL)
	if err != nil {
		log.Fatalf("db connect: %v", err)
	}
	defer pool.Close()

	now := time.Now().UTC()

	targetIDs := make([]string, len(targets))
	for i, spec := range targets {
		err := pool.QueryRow(ctx, `
			INSERT INTO targets (url, method, headers, body)
			VALUES ($1, $2, '{}', $3)
			RETURNING id`,
			spec.url, spec.method, spec.body,
		).Scan(&targetIDs[i])
		if err != nil {
			log.Fatalf("insert target %s: %v", spec.url, err)
		}
	}

	var scheduleIDs []string
	for _, spec := range schedules(now) {
		cfg, err := json.Marshal(spec.config)
		if err != nil {
			log.Fatalf("marshal config: %v", err)
		}
		var id string
		err = pool.QueryRow(ctx, `
			INSERT INTO schedules (target_id, schedule_type, schedule_config, status, next_run_at)
			VALUES ($1, $2, $3, 'ACTIVE', $4)
			RETURNING id`,
			targetIDs[spec.target], spec.typ, cfg, now,
		).Scan(&id)
		if err != nil {
			log.Fatalf("insert schedule: %v", err)
		}
		scheduleIDs = append(scheduleIDs, id)
	}

	fmt.Println("Seed complete")
	fmt.Println()
	fmt.Printf("  Targets created:   %d\n", len(targetIDs))
	fmt.Printf("  Schedules created: %d  (all due immediately)\n", len(scheduleIDs))
	fmt.Println()
	fmt.Println("  Schedule IDs:")
	for _, id := range scheduleIDs {
		fmt.Printf("    %s\n", id)
	}
	fmt.Println()
	fmt.Println("How to test:")
	fmt.Println()
	fmt.Println("  Step 1 — exchange the API key for a JWT:")
	fmt.Println()
	fmt.Printf("    curl -s -X POST http://localhost:8080/auth/token \\\n")
	fmt.Printf("      -H 'Content-Type: application/json' \\\n")
	fmt.Printf("      -d '{\"api_key\":\"'\"$API_KEY\"'\"}'\n")
	fmt.Println()
	fmt.Println("  Step 2 — start the dispatcher and watch runs accumulate:")
	fmt.Println()
	fmt.Println("    export JWT=eyJ...")
	fmt.Println("    curl -s 'http://localhost:8080/runs?schedule_id=SCHEDULE_ID' -H \"Authorization: Bearer $JWT\"")
	fmt.Println()
	fmt.Println("  What to expect:")
	fmt.Println("    httpbin.org/get         →  SUCCESS runs every 30s")
	fmt.Println("    httpbin.org/status/500  →  FAILURE runs with error_kind HTTP_5XX, until the window closes")
	fmt.Println("    httpbin.org/post        →  exactly 3 runs, then the schedule flips to COMPLETED")
	fmt.Println("    httpbin.org/delay/15    →  FAILURE runs with error_kind TIMEOUT")
}
