package pipeline_test

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/skybrief/areafc-etl/internal/bulletin"
	"github.com/skybrief/areafc-etl/internal/pipeline"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockFetcher struct {
	text string
	err  error

	requested []string
}

func (m *mockFetcher) Fetch(_ context.Context, filename string) (string, error) {
	m.requested = append(m.requested, filename)
	if m.err != nil {
		return "", m.err
	}
	return m.text, nil
}

func freezeClock(t *testing.T, at time.Time) {
	t.Helper()
	pipeline.SetClock(clockwork.NewFakeClockAt(at))
	t.Cleanup(func() {
		pipeline.SetClock(nil)
	})
}

func TestBulletinTransformer_Transform(t *testing.T) {
	processedAt := time.Date(2024, time.March, 23, 17, 0, 0, 0, time.UTC)
	freezeClock(t, processedAt)

	text, err := os.ReadFile(filepath.Join("..", "..", "data", "samples", "FAIL41_BIRK_231630.txt"))
	require.NoError(t, err)

	msg, err := json.Marshal(pipeline.RawReportMessage{
		Filename:  "FAIL41_BIRK_231630.85",
		Text:      string(text),
		FetchedAt: time.Date(2024, time.March, 23, 16, 45, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	tfm := pipeline.NewTransformer(nil, newTestMetrics(), slog.Default())
	out, err := tfm.Transform(context.Background(), pipeline.RawEvent{Value: msg})
	require.NoError(t, err)

	assert.Equal(t, []byte("FAIL41_BIRK_231630.85"), out.Key)
	assert.Equal(t, "BIRK", out.Headers["station"])
	assert.Equal(t, "1", out.Headers["issue_count"])
	assert.Equal(t, "2024-03-23T17:00:00Z", out.Headers["processed_at"])

	var record pipeline.Record
	require.NoError(t, json.Unmarshal(out.Value, &record))

	assert.Equal(t, "FAIL41_BIRK_231630.85", record.SourceID)
	assert.Equal(t, "vedur", record.Source)
	assert.Equal(t, "BIRK", record.Station)
	assert.Equal(t, processedAt, record.ProcessedAt)

	require.NotNil(t, record.IssuedAt)
	assert.Equal(t, time.Date(2024, time.March, 23, 16, 30, 0, 0, time.UTC), *record.IssuedAt)

	require.NotNil(t, record.Validity)
	assert.Equal(t, time.Date(2024, time.March, 23, 16, 30, 0, 0, time.UTC), record.Validity.From)
	assert.Equal(t, time.Date(2024, time.March, 24, 0, 30, 0, 0, time.UTC), record.Validity.To)
	assert.Len(t, record.Levels, 3)
}

func TestBulletinTransformer_FetchesMissingText(t *testing.T) {
	freezeClock(t, time.Date(2024, time.March, 23, 17, 0, 0, 0, time.UTC))

	fetcher := &mockFetcher{text: "OUTLOOK FROM 1630 TO 2200 UTC"}
	tfm := pipeline.NewTransformer(fetcher, newTestMetrics(), slog.Default())

	msg, err := json.Marshal(pipeline.RawReportMessage{
		Filename:  "FAIL41_BIRK_231630.85",
		FetchedAt: time.Date(2024, time.March, 23, 16, 45, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	out, err := tfm.Transform(context.Background(), pipeline.RawEvent{Value: msg})
	require.NoError(t, err)
	assert.Equal(t, []string{"FAIL41_BIRK_231630.85"}, fetcher.requested)

	var record pipeline.Record
	require.NoError(t, json.Unmarshal(out.Value, &record))
	require.NotNil(t, record.Validity)
	assert.Equal(t, 16, record.Validity.From.Hour())
}

func TestBulletinTransformer_MissingTextWithoutFetcher(t *testing.T) {
	tfm := pipeline.NewTransformer(nil, newTestMetrics(), slog.Default())

	msg, err := json.Marshal(pipeline.RawReportMessage{Filename: "FAIL41_BIRK_231630.85"})
	require.NoError(t, err)

	_, err = tfm.Transform(context.Background(), pipeline.RawEvent{Value: msg})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "fetching is disabled")
}

func TestBulletinTransformer_FetchError(t *testing.T) {
	fetcher := &mockFetcher{err: errors.New("upstream unavailable")}
	tfm := pipeline.NewTransformer(fetcher, newTestMetrics(), slog.Default())

	msg, err := json.Marshal(pipeline.RawReportMessage{Filename: "FAIL41_BIRK_231630.85"})
	require.NoError(t, err)

	_, err = tfm.Transform(context.Background(), pipeline.RawEvent{Value: msg})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "upstream unavailable")
}

func TestBulletinTransformer_InvalidPayload(t *testing.T) {
	tfm := pipeline.NewTransformer(nil, newTestMetrics(), slog.Default())

	_, err := tfm.Transform(context.Background(), pipeline.RawEvent{Value: []byte("not json")})
	assert.Error(t, err)

	msg, merr := json.Marshal(pipeline.RawReportMessage{Text: "OUTLOOK FROM 0600 TO 1800 UTC"})
	require.NoError(t, merr)
	_, err = tfm.Transform(context.Background(), pipeline.RawEvent{Value: msg})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "filename")
}

func TestBulletinTransformer_IssueTimeCrossesMonthBoundary(t *testing.T) {
	freezeClock(t, time.Date(2024, time.April, 1, 0, 30, 0, 0, time.UTC))

	// Issued on the 31st, retrieved on April 1st: the issue day belongs
	// to March.
	msg, err := json.Marshal(pipeline.RawReportMessage{
		Filename:  "FAIL41_BIRK_312300.12",
		Text:      "OUTLOOK FROM 2300 TO 0500 UTC",
		FetchedAt: time.Date(2024, time.April, 1, 0, 15, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	tfm := pipeline.NewTransformer(nil, newTestMetrics(), slog.Default())
	out, err := tfm.Transform(context.Background(), pipeline.RawEvent{Value: msg})
	require.NoError(t, err)

	var record pipeline.Record
	require.NoError(t, json.Unmarshal(out.Value, &record))
	require.NotNil(t, record.IssuedAt)
	assert.Equal(t, time.Date(2024, time.March, 31, 23, 0, 0, 0, time.UTC), *record.IssuedAt)

	// The validity window is anchored to the issue date, rolling into April.
	require.NotNil(t, record.Validity)
	assert.Equal(t, time.Date(2024, time.March, 31, 23, 0, 0, 0, time.UTC), record.Validity.From)
	assert.Equal(t, time.Date(2024, time.April, 1, 5, 0, 0, 0, time.UTC), record.Validity.To)
}

func TestBulletinTransformer_OpaqueFilename(t *testing.T) {
	freezeClock(t, time.Date(2024, time.March, 23, 17, 0, 0, 0, time.UTC))

	msg, err := json.Marshal(pipeline.RawReportMessage{
		Filename:  "manual-upload-001",
		Text:      "OUTLOOK FROM 0600 TO 1800 UTC",
		FetchedAt: time.Date(2024, time.March, 23, 16, 45, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	tfm := pipeline.NewTransformer(nil, newTestMetrics(), slog.Default())
	out, err := tfm.Transform(context.Background(), pipeline.RawEvent{Value: msg})
	require.NoError(t, err)

	assert.NotContains(t, out.Headers, "station")

	var record pipeline.Record
	require.NoError(t, json.Unmarshal(out.Value, &record))
	assert.Empty(t, record.Station)
	assert.Nil(t, record.IssuedAt)
	// Falls back to the retrieval date for anchoring times.
	require.NotNil(t, record.Validity)
	assert.Equal(t, time.Date(2024, time.March, 23, 6, 0, 0, 0, time.UTC), record.Validity.From)
}

func TestBulletinTransformer_WithSampleBulletins(t *testing.T) {
	freezeClock(t, time.Date(2024, time.March, 25, 0, 0, 0, 0, time.UTC))
	tfm := pipeline.NewTransformer(nil, newTestMetrics(), slog.Default())

	dir := filepath.Join("..", "..", "data", "samples")
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.NotEmpty(t, entries)

	for _, entry := range entries {
		if !strings.HasSuffix(entry.Name(), ".txt") {
			continue
		}
		t.Run(entry.Name(), func(t *testing.T) {
			text, err := os.ReadFile(filepath.Join(dir, entry.Name()))
			require.NoError(t, err)

			msg, err := json.Marshal(pipeline.RawReportMessage{
				Filename:  strings.TrimSuffix(entry.Name(), ".txt"),
				Text:      string(text),
				FetchedAt: time.Date(2024, time.March, 25, 0, 0, 0, 0, time.UTC),
			})
			require.NoError(t, err)

			out, err := tfm.Transform(context.Background(), pipeline.RawEvent{Value: msg})
			require.NoError(t, err)

			var record pipeline.Record
			require.NoError(t, json.Unmarshal(out.Value, &record))

			require.NotNil(t, record.Validity, "sample bulletins all carry a validity window")
			assert.NotEmpty(t, record.Levels, "sample bulletins all carry wind levels")
			for _, issue := range record.Diagnostics {
				assert.NotEqual(t, bulletin.SeverityError, issue.Severity,
					"sample bulletin should parse cleanly: %s", issue)
			}
		})
	}
}
