// Command genmock reads a directory of area-forecast bulletin text files and
// generates mock data fixtures for the test suites. It runs the actual
// transformer so the parsed output matches real pipeline behavior.
//
// Usage:
//
//	go run ./cmd/genmock \
//	  -bulletin-dir data/samples \
//	  -raw-out data/mock/area_forecasts_raw.json \
//	  -parsed-out data/mock/area_forecasts_parsed.json
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/skybrief/areafc-etl/internal/bulletin"
	"github.com/skybrief/areafc-etl/internal/observability"
	"github.com/skybrief/areafc-etl/internal/pipeline"
)

// fetchedAt is the fixed retrieval timestamp baked into the fixtures so that
// day-of-month anchoring is reproducible.
var fetchedAt = time.Date(2024, time.March, 25, 0, 0, 0, 0, time.UTC)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	bulletinDir := flag.String("bulletin-dir", "", "directory containing bulletin .txt files")
	rawOut := flag.String("raw-out", "", "output path for the raw message JSON fixture")
	parsedOut := flag.String("parsed-out", "", "output path for the parsed record JSON fixture")
	flag.Parse()

	if *bulletinDir == "" || *rawOut == "" || *parsedOut == "" {
		flag.Usage()
		return fmt.Errorf("missing required flags: -bulletin-dir, -raw-out, -parsed-out")
	}

	// Set a fixed clock for reproducible ProcessedAt timestamps.
	pipeline.SetClock(clockwork.NewFakeClockAt(
		time.Date(2024, time.March, 25, 6, 0, 0, 0, time.UTC),
	))
	defer pipeline.SetClock(nil)

	transformer := pipeline.NewTransformer(nil,
		observability.NewMetricsForTesting(),
		slog.New(slog.NewTextHandler(io.Discard, nil)))

	entries, err := os.ReadDir(*bulletinDir)
	if err != nil {
		return fmt.Errorf("reading bulletin dir: %w", err)
	}

	var rawMessages []pipeline.RawReportMessage //nolint:prealloc // size depends on directory contents
	var records []pipeline.Record               //nolint:prealloc // size depends on directory contents

	for _, entry := range entries {
		if !strings.HasSuffix(entry.Name(), ".txt") {
			continue
		}
		text, err := os.ReadFile(filepath.Join(*bulletinDir, entry.Name()))
		if err != nil {
			return fmt.Errorf("reading %s: %w", entry.Name(), err)
		}

		msg := pipeline.RawReportMessage{
			Filename:  strings.TrimSuffix(entry.Name(), ".txt"),
			Text:      string(text),
			FetchedAt: fetchedAt,
		}
		rawMessages = append(rawMessages, msg)

		record, err := transformRaw(transformer, msg)
		if err != nil {
			return fmt.Errorf("transforming %s: %w", entry.Name(), err)
		}
		records = append(records, record)
		log.Printf("%s: %d levels, %d diagnostics", msg.Filename, len(record.Levels), len(record.Diagnostics))
	}

	if len(rawMessages) == 0 {
		return fmt.Errorf("no .txt bulletins found in %s", *bulletinDir)
	}

	log.Printf("total: %d bulletins", len(rawMessages))

	if err := writeJSON(*rawOut, rawMessages); err != nil {
		return fmt.Errorf("writing raw fixture: %w", err)
	}
	log.Printf("wrote raw fixture: %s", *rawOut)

	if err := writeJSON(*parsedOut, records); err != nil {
		return fmt.Errorf("writing parsed fixture: %w", err)
	}
	log.Printf("wrote parsed fixture: %s", *parsedOut)

	printStats(records)
	return nil
}

// transformRaw runs the real transformer on one message and decodes its output.
func transformRaw(t *pipeline.BulletinTransformer, msg pipeline.RawReportMessage) (pipeline.Record, error) {
	payload, err := json.Marshal(msg)
	if err != nil {
		return pipeline.Record{}, fmt.Errorf("marshal message: %w", err)
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
		return pipeline.Record{}, fmt.Errorf("unmarshal record: %w", err)
	}
	return record, nil
}

func writeJSON(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	return os.WriteFile(path, data, 0o600)
}

// statsResult holds aggregated counts for printStats reporting.
type statsResult struct {
	stationCounts  map[string]int
	severityCounts map[bulletin.Severity]int
	sectionCounts  map[bulletin.SectionKind]int
	withValidity   int
	totalLevels    int
}

func collectStats(records []pipeline.Record) statsResult {
	s := statsResult{
		stationCounts:  map[string]int{},
		severityCounts: map[bulletin.Severity]int{},
		sectionCounts:  map[bulletin.SectionKind]int{},
	}
	for i := range records {
		r := &records[i]
		s.stationCounts[r.Station]++
		s.totalLevels += len(r.Levels)
		if r.Validity != nil {
			s.withValidity++
		}
		for _, issue := range r.Diagnostics {
			s.severityCounts[issue.Severity]++
			s.sectionCounts[issue.Section]++
		}
	}
	return s
}

func printStats(records []pipeline.Record) {
	stats := collectStats(records)

	fmt.Println("\n=== Stats for updating test assertions ===")
	fmt.Printf("Total: %d\n", len(records))
	fmt.Printf("With validity window: %d\n", stats.withValidity)
	fmt.Printf("Total flight levels: %d\n", stats.totalLevels)
	fmt.Printf("Diagnostics by severity: info=%d, warning=%d, error=%d\n",
		stats.severityCounts[bulletin.SeverityInfo],
		stats.severityCounts[bulletin.SeverityWarning],
		stats.severityCounts[bulletin.SeverityError])

	stations := make([]string, 0, len(stats.stationCounts))
	for st := range stats.stationCounts {
		stations = append(stations, st)
	}
	sort.Strings(stations)
	fmt.Print("Stations: ")
	for _, st := range stations {
		name := st
		if name == "" {
			name = "<none>"
		}
		fmt.Printf("%s=%d ", name, stats.stationCounts[st])
	}
	fmt.Println()

	sections := make([]string, 0, len(stats.sectionCounts))
	for sec := range stats.sectionCounts {
		sections = append(sections, string(sec))
	}
	sort.Strings(sections)
	fmt.Print("Diagnostics by section: ")
	for _, sec := range sections {
		fmt.Printf("%s=%d ", sec, stats.sectionCounts[bulletin.SectionKind(sec)])
	}
	fmt.Println()

	printFirstRecord(records)
}

func printFirstRecord(records []pipeline.Record) {
	if len(records) == 0 {
		return
	}
	r := &records[0]
	fmt.Printf("\nFirst record:\n")
	fmt.Printf("  SourceID: %s\n", r.SourceID)
	fmt.Printf("  Station: %s\n", r.Station)
	if r.IssuedAt != nil {
		fmt.Printf("  IssuedAt: %s\n", r.IssuedAt.Format(time.RFC3339))
	}
	if r.Validity != nil {
		fmt.Printf("  Validity: %s to %s\n",
			r.Validity.From.Format(time.RFC3339), r.Validity.To.Format(time.RFC3339))
	}
	levels := make([]int, 0, len(r.Levels))
	for level := range r.Levels {
		levels = append(levels, level)
	}
	sort.Ints(levels)
	for _, level := range levels {
		e := r.Levels[level]
		fmt.Printf("  FL%03d: %d/%d-%dKT", level, e.WindDirectionDeg, e.WindSpeed.LowKt, e.WindSpeed.HighKt)
		if e.TemperatureC != nil {
			fmt.Printf(" temp=%g", *e.TemperatureC)
		}
		if e.Notes != "" {
			fmt.Printf(" notes=%q", e.Notes)
		}
		fmt.Println()
	}
}
