package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/skybrief/areafc-etl/internal/bulletin"
	"github.com/skybrief/areafc-etl/internal/observability"
)

// RawReportMessage is the flat JSON structure produced by the collector.
// Text may be empty when the collector only announces a filename; the
// transformer then fetches the bulletin body itself.
type RawReportMessage struct {
	Filename  string    `json:"filename"`
	Text      string    `json:"text"`
	FetchedAt time.Time `json:"fetched_at"`
}

// Fetcher retrieves bulletin text by collector filename. A nil Fetcher
// disables retrieval and makes empty-text messages a transform error.
type Fetcher interface {
	Fetch(ctx context.Context, filename string) (string, error)
}

// Record is the sink-topic payload: the parsed bulletin plus provenance.
type Record struct {
	bulletin.ParsedBulletin
	Station     string     `json:"station,omitempty"`
	IssuedAt    *time.Time `json:"issued_at,omitempty"`
	Source      string     `json:"source"`
	ProcessedAt time.Time  `json:"processed_at"`
}

// BulletinTransformer implements Transformer by parsing area-forecast
// bulletin text into structured records.
type BulletinTransformer struct {
	parser  *bulletin.Parser
	fetcher Fetcher
	metrics *observability.Metrics
	logger  *slog.Logger
}

// NewTransformer creates a BulletinTransformer. Pass a nil fetcher to
// disable upstream retrieval of missing bulletin text.
func NewTransformer(fetcher Fetcher, metrics *observability.Metrics, logger *slog.Logger) *BulletinTransformer {
	return &BulletinTransformer{
		parser:  bulletin.NewParser(),
		fetcher: fetcher,
		metrics: metrics,
		logger:  logger,
	}
}

func (t *BulletinTransformer) Transform(ctx context.Context, raw RawEvent) (OutputEvent, error) {
	var msg RawReportMessage
	if err := json.Unmarshal(raw.Value, &msg); err != nil {
		return OutputEvent{}, fmt.Errorf("decoding raw report message: %w", err)
	}
	if msg.Filename == "" {
		return OutputEvent{}, fmt.Errorf("raw report message has no filename")
	}

	text := msg.Text
	if text == "" {
		if t.fetcher == nil {
			return OutputEvent{}, fmt.Errorf("message %s has no text and fetching is disabled", msg.Filename)
		}
		fetched, err := t.fetcher.Fetch(ctx, msg.Filename)
		if err != nil {
			return OutputEvent{}, fmt.Errorf("fetching bulletin %s: %w", msg.Filename, err)
		}
		text = fetched
	}

	retrievedAt := msg.FetchedAt
	if retrievedAt.IsZero() {
		retrievedAt = raw.Timestamp
	}

	record := Record{
		Source:      "vedur",
		ProcessedAt: clock.Now().UTC(),
	}

	referenceDate := retrievedAt.UTC()
	if info, err := bulletin.ParseSourceID(msg.Filename); err == nil {
		record.Station = info.Station
		issuedAt := anchorIssueTime(info, retrievedAt)
		record.IssuedAt = &issuedAt
		referenceDate = issuedAt
	} else {
		t.logger.Debug("filename is not a conventional source id", "filename", msg.Filename, "error", err)
	}

	parsed, issues := t.parser.Parse(bulletin.RawBulletin{
		Text:          text,
		SourceID:      msg.Filename,
		ReferenceDate: referenceDate,
	})
	record.ParsedBulletin = parsed

	for _, issue := range issues {
		t.metrics.ParseIssues.WithLabelValues(string(issue.Section), string(issue.Severity)).Inc()
	}

	value, err := json.Marshal(record)
	if err != nil {
		return OutputEvent{}, fmt.Errorf("encoding parsed record %s: %w", msg.Filename, err)
	}

	headers := map[string]string{
		"issue_count":  strconv.Itoa(len(issues)),
		"processed_at": record.ProcessedAt.Format(time.RFC3339),
	}
	if record.Station != "" {
		headers["station"] = record.Station
	}

	return OutputEvent{
		Key:     []byte(msg.Filename),
		Value:   value,
		Headers: headers,
	}, nil
}

// anchorIssueTime converts the day-of-month issue group from a source id
// into an absolute UTC time, using the retrieval timestamp to pick the
// month. A candidate more than a day ahead of retrieval must be from the
// previous month, since bulletins are collected shortly after issue.
func anchorIssueTime(info bulletin.SourceInfo, retrievedAt time.Time) time.Time {
	ref := retrievedAt.UTC()
	candidate := time.Date(ref.Year(), ref.Month(), info.Day, info.Hour, info.Minute, 0, 0, time.UTC)
	// Day 31 in a 30-day retrieval month normalizes forward, so check the
	// day survived as well as the 24h lookahead.
	if candidate.Day() != info.Day || candidate.After(ref.Add(24*time.Hour)) {
		prev := ref.AddDate(0, -1, 0)
		candidate = time.Date(prev.Year(), prev.Month(), info.Day, info.Hour, info.Minute, 0, 0, time.UTC)
	}
	return candidate
}
