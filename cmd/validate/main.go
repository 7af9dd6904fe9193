// Command validate performs end-to-end data integrity checks across the mock
// data fixtures: bulletin text files, the raw message JSON fixture, and the
// parsed record JSON fixture. It verifies file parity, re-runs the real
// transformation, and checks the parsed output against sink schema
// constraints.
//
// Usage:
//
//	go run ./cmd/validate \
//	  -bulletin-dir data/samples \
//	  -raw-json data/mock/area_forecasts_raw.json \
//	  -parsed-json data/mock/area_forecasts_parsed.json
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/jonboulle/clockwork"
	"github.com/skybrief/areafc-etl/internal/bulletin"
	"github.com/skybrief/areafc-etl/internal/observability"
	"github.com/skybrief/areafc-etl/internal/pipeline"
)

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func main() {
	bulletinDir := flag.String("bulletin-dir", "", "directory containing bulletin .txt files")
	rawJSON := flag.String("raw-json", "", "path to the raw message JSON fixture")
	parsedJSON := flag.String("parsed-json", "", "path to the parsed record JSON fixture")
	flag.Parse()

	if *bulletinDir == "" || *rawJSON == "" || *parsedJSON == "" {
		flag.Usage()
		os.Exit(1)
	}

	if code := run(*bulletinDir, *rawJSON, *parsedJSON); code != 0 {
		os.Exit(code)
	}
}

func run(bulletinDir, rawJSONPath, parsedJSONPath string) int {
	// Set a fixed clock matching genmock so re-parsed records compare equal.
	pipeline.SetClock(clockwork.NewFakeClockAt(
		time.Date(2024, time.March, 25, 6, 0, 0, 0, time.UTC),
	))
	defer pipeline.SetClock(nil)

	fmt.Println("=== Area Forecast Fixture Validation ===")
	fmt.Println()

	bulletins, err := loadBulletins(bulletinDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load bulletins: %v\n", err)
		return 1
	}

	rawMessages, err := loadJSON[pipeline.RawReportMessage](rawJSONPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load raw JSON: %v\n", err)
		return 1
	}

	records, err := loadJSON[pipeline.Record](parsedJSONPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load parsed JSON: %v\n", err)
		return 1
	}

	phases := []*phase{
		validateSourceParity(bulletins, rawMessages),
		validateReparse(rawMessages, records),
		validateSchemaAlignment(records),
	}

	fmt.Println()
	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Printf("  %-42s %s\n", p.name, status)
	}

	fmt.Println()
	fmt.Printf("Records: %d bulletin files, %d raw JSON, %d parsed JSON\n",
		len(bulletins), len(rawMessages), len(records))

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Printf("\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Printf("  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Println("\nAll validations passed.")
		return 0
	}
	fmt.Println("\nValidation FAILED.")
	return 1
}

// ── Data loading ──

func loadBulletins(dir string) (map[string]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	bulletins := make(map[string]string)
	for _, entry := range entries {
		if !strings.HasSuffix(entry.Name(), ".txt") {
			continue
		}
		text, err := os.ReadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			return nil, err
		}
		bulletins[strings.TrimSuffix(entry.Name(), ".txt")] = string(text)
	}
	if len(bulletins) == 0 {
		return nil, fmt.Errorf("no .txt bulletins in %s", dir)
	}
	return bulletins, nil
}

func loadJSON[T any](path string) ([]T, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var items []T
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, err
	}
	return items, nil
}

// ── Phase 1: Source Parity ──
// Validates that the raw fixture mirrors the bulletin directory exactly.

func validateSourceParity(bulletins map[string]string, raw []pipeline.RawReportMessage) *phase {
	p := &phase{name: "Phase 1: Source Parity (files vs raw JSON)"}

	byFilename := make(map[string]pipeline.RawReportMessage, len(raw))
	for _, msg := range raw {
		if _, dup := byFilename[msg.Filename]; dup {
			p.errorf("raw JSON: duplicate filename %q", msg.Filename)
		}
		byFilename[msg.Filename] = msg
	}

	for name, text := range bulletins {
		msg, ok := byFilename[name]
		if !ok {
			p.errorf("bulletin %s missing from raw JSON", name)
			continue
		}
		if msg.Text != text {
			p.errorf("bulletin %s: text differs between file and raw JSON", name)
		}
		if msg.FetchedAt.IsZero() {
			p.errorf("bulletin %s: raw JSON has zero fetched_at", name)
		}
	}
	for name := range byFilename {
		if _, ok := bulletins[name]; !ok {
			p.errorf("raw JSON entry %s has no bulletin file", name)
		}
	}
	return p
}

// ── Phase 2: Re-parse Integrity ──
// Re-runs the real transformation on the raw fixture and compares with the
// parsed fixture.

func validateReparse(raw []pipeline.RawReportMessage, records []pipeline.Record) *phase {
	p := &phase{name: "Phase 2: Re-parse Integrity (transform)"}

	byID := make(map[string]*pipeline.Record, len(records))
	for i := range records {
		byID[records[i].SourceID] = &records[i]
	}

	transformer := pipeline.NewTransformer(nil,
		observability.NewMetricsForTesting(),
		slog.New(slog.NewTextHandler(io.Discard, nil)))

	for _, msg := range raw {
		expected, err := transformRaw(transformer, msg)
		if err != nil {
			p.errorf("%s: transform failed: %v", msg.Filename, err)
			continue
		}

		actual, ok := byID[msg.Filename]
		if !ok {
			p.errorf("%s: not found in parsed JSON", msg.Filename)
			continue
		}

		if diff := cmp.Diff(expected, *actual); diff != "" {
			p.errorf("%s: parsed record differs from re-parse:\n%s", msg.Filename, diff)
		}
	}

	if len(records) != len(raw) {
		p.errorf("count mismatch: %d raw messages, %d parsed records", len(raw), len(records))
	}
	return p
}

func transformRaw(t *pipeline.BulletinTransformer, msg pipeline.RawReportMessage) (pipeline.Record, error) {
	payload, err := json.Marshal(msg)
	if err != nil {
		return pipeline.Record{}, err
	}
	out, err := t.Transform(context.Background(), pipeline.RawEvent{
		Key:       []byte(msg.Filename),
		Value:     payload,
		Timestamp: msg.FetchedAt,
	})
	if err != nil {
		return pipeline.Record{}, err
	}
	var record pipeline.Record
	if err := json.Unmarshal(out.Value, &record); err != nil {
		return pipeline.Record{}, err
	}
	return record, nil
}

// ── Phase 3: Schema Alignment ──
// Validates that parsed records satisfy the sink topic constraints.

var validSeverities = map[bulletin.Severity]bool{
	bulletin.SeverityInfo:    true,
	bulletin.SeverityWarning: true,
	bulletin.SeverityError:   true,
}

var validKinds = map[bulletin.IssueKind]bool{
	bulletin.IssueStructuralAbsence: true,
	bulletin.IssueGrammarMismatch:   true,
	bulletin.IssueRangeAnomaly:      true,
	bulletin.IssueDuplicateKey:      true,
}

func validateSchemaAlignment(records []pipeline.Record) *phase {
	p := &phase{name: "Phase 3: Schema Alignment (sink records)"}
	for i := range records {
		checkSchemaRecord(p, i, &records[i])
	}
	return p
}

func checkSchemaRecord(p *phase, i int, r *pipeline.Record) {
	pf := func(format string, args ...any) {
		p.errorf("record %d (%s): "+format, append([]any{i, r.SourceID}, args...)...)
	}

	if r.SourceID == "" {
		pf("source_id is empty")
	}
	if r.Source != "vedur" {
		pf("source is %q (expected \"vedur\")", r.Source)
	}
	if r.ProcessedAt.IsZero() {
		pf("processed_at is zero")
	}
	if r.Station != "" && len(r.Station) != 4 {
		pf("station %q is not a 4-letter ICAO code", r.Station)
	}

	if r.Validity != nil {
		if r.Validity.From.IsZero() || r.Validity.To.IsZero() {
			pf("validity window has a zero bound")
		}
		if r.Validity.To.Before(r.Validity.From) {
			pf("validity to %s precedes from %s",
				r.Validity.To.Format(time.RFC3339), r.Validity.From.Format(time.RFC3339))
		}
	}

	for level, e := range r.Levels {
		if level != e.Level {
			pf("level map key %d disagrees with entry level %d", level, e.Level)
		}
		if e.WindSpeed.LowKt == 0 && e.WindSpeed.HighKt == 0 {
			pf("FL%03d: wind speed range is empty", level)
		}
	}

	for j, issue := range r.Diagnostics {
		if !validSeverities[issue.Severity] {
			pf("diagnostic %d: invalid severity %q", j, issue.Severity)
		}
		if !validKinds[issue.Kind] {
			pf("diagnostic %d: invalid kind %q", j, issue.Kind)
		}
	}
}
