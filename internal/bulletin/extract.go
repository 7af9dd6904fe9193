package bulletin

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Extractor turns a section's trailing span into a typed payload. Extractors
// are pure functions of their input span and the shared reference date; they
// perform no I/O and hold no state across calls. A nil payload means the
// section could not be parsed; the accompanying issues say why.
type Extractor func(span string, ref time.Time) (any, []ParseIssue)

var (
	validityRe = regexp.MustCompile(`^(\d{4}) TO (\d{4}) UTC`)

	// flRe anchors one winds clause: "FL050:". Clause text runs to the next
	// flight-level anchor, so free-text qualifiers may contain commas.
	flRe = regexp.MustCompile(`FL(\d{3}):`)

	// clauseRe matches the mandatory head of a winds clause: direction,
	// speed range, unit marker, then optional comma-separated qualifiers.
	clauseRe = regexp.MustCompile(`(?s)^(\d{1,3})/(\d{1,3})-(\d{1,3})KT(?:\s*,\s*(.*))?$`)

	// tempRe matches a temperature qualifier, METAR sign convention:
	// "TEMP M05" = -5°C, "TEMP 03" = 3°C.
	tempRe = regexp.MustCompile(`^TEMP\s+(M)?(\d{1,3})$`)

	freezingRe = regexp.MustCompile(`^(\d{3,5})\s*FT`)
)

// extractValidity parses "HHMM TO HHMM UTC" into a ValidityWindow anchored
// to the reference date. An end time numerically earlier than the start time
// crosses midnight and is rolled over to the next day — deliberately, not by
// truncation.
func extractValidity(span string, ref time.Time) (any, []ParseIssue) {
	m := validityRe.FindStringSubmatch(span)
	if m == nil {
		return nil, []ParseIssue{{
			Section:       SectionValidityPeriod,
			Kind:          IssueGrammarMismatch,
			Severity:      SeverityError,
			Message:       `expected "HHMM TO HHMM UTC" after validity anchor`,
			OffendingText: span,
		}}
	}

	from, okFrom := combineHHMM(ref, m[1])
	to, okTo := combineHHMM(ref, m[2])
	if !okFrom || !okTo {
		return nil, []ParseIssue{{
			Section:       SectionValidityPeriod,
			Kind:          IssueGrammarMismatch,
			Severity:      SeverityError,
			Message:       "validity time group outside 24-hour range",
			OffendingText: m[0],
		}}
	}

	if to.Before(from) {
		to = to.AddDate(0, 0, 1)
	}
	return &ValidityWindow{From: from, To: to}, nil
}

// combineHHMM anchors a 4-digit HHMM group to the reference date in UTC.
func combineHHMM(ref time.Time, hhmm string) (time.Time, bool) {
	hour, errH := strconv.Atoi(hhmm[:2])
	mins, errM := strconv.Atoi(hhmm[2:])
	if errH != nil || errM != nil || hour > 23 || mins > 59 {
		return time.Time{}, false
	}
	ref = ref.UTC()
	return time.Date(ref.Year(), ref.Month(), ref.Day(), hour, mins, 0, 0, time.UTC), true
}

// extractLevels parses the winds/temperature table into an ordered slice of
// flight-level entries. A clause that matches the FLddd: anchor but fails
// the rest of its grammar is reported and skipped; one bad clause never
// aborts the section.
func extractLevels(span string, _ time.Time) (any, []ParseIssue) {
	locs := flRe.FindAllStringSubmatchIndex(span, -1)
	if len(locs) == 0 {
		return nil, []ParseIssue{{
			Section:       SectionWindsTemperature,
			Kind:          IssueGrammarMismatch,
			Severity:      SeverityError,
			Message:       "no FLddd: clauses found after winds anchor",
			OffendingText: span,
		}}
	}

	var (
		entries []FlightLevelEntry
		issues  []ParseIssue
	)
	for i, loc := range locs {
		level, _ := strconv.Atoi(span[loc[2]:loc[3]])
		end := len(span)
		if i+1 < len(locs) {
			end = locs[i+1][0]
		}
		body := strings.TrimSpace(strings.TrimRight(strings.TrimSpace(span[loc[1]:end]), ","))

		entry, clauseIssues, ok := parseClause(level, body)
		issues = append(issues, clauseIssues...)
		if ok {
			entries = append(entries, entry)
		}
	}
	return entries, issues
}

// parseClause parses one flight-level clause body such as
// "170/30-50KT, STRONGEST IN THE SE, TEMP M05".
func parseClause(level int, body string) (FlightLevelEntry, []ParseIssue, bool) {
	m := clauseRe.FindStringSubmatch(body)
	if m == nil {
		return FlightLevelEntry{}, []ParseIssue{{
			Section:       SectionWindsTemperature,
			Kind:          IssueGrammarMismatch,
			Severity:      SeverityWarning,
			Message:       "clause does not match direction/low-highKT grammar, level skipped",
			OffendingText: "FL" + pad3(level) + ": " + body,
		}}, false
	}

	dir, _ := strconv.Atoi(m[1])
	low, _ := strconv.Atoi(m[2])
	high, _ := strconv.Atoi(m[3])

	entry := FlightLevelEntry{
		Level:            level,
		WindDirectionDeg: dir,
		WindSpeed:        SpeedRange{LowKt: low, HighKt: high},
	}

	var issues []ParseIssue
	// Out-of-range values still parse structurally; they are flagged and
	// retained so the caller can decide, never clamped or discarded.
	if dir > 360 {
		issues = append(issues, ParseIssue{
			Section:       SectionWindsTemperature,
			Kind:          IssueRangeAnomaly,
			Severity:      SeverityWarning,
			Message:       "wind direction " + m[1] + " exceeds 360 degrees",
			OffendingText: "FL" + pad3(level) + ": " + body,
		})
	}
	if low > high {
		issues = append(issues, ParseIssue{
			Section:       SectionWindsTemperature,
			Kind:          IssueRangeAnomaly,
			Severity:      SeverityWarning,
			Message:       "speed range low " + m[2] + " exceeds high " + m[3],
			OffendingText: "FL" + pad3(level) + ": " + body,
		})
	}

	var notes []string
	if m[4] != "" {
		for _, part := range strings.Split(m[4], ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			if tm := tempRe.FindStringSubmatch(part); tm != nil {
				v, _ := strconv.ParseFloat(tm[2], 64)
				if tm[1] == "M" {
					v = -v
				}
				entry.TemperatureC = &v
				continue
			}
			notes = append(notes, part)
		}
	}
	entry.Notes = strings.Join(notes, ", ")

	return entry, issues, true
}

// extractFreezingLevel parses "NNNN FT" into a FreezingLevel payload.
func extractFreezingLevel(span string, _ time.Time) (any, []ParseIssue) {
	m := freezingRe.FindStringSubmatch(span)
	if m == nil {
		return nil, []ParseIssue{{
			Section:       SectionFreezingLevel,
			Kind:          IssueGrammarMismatch,
			Severity:      SeverityWarning,
			Message:       `expected "<feet> FT" after freezing level anchor`,
			OffendingText: span,
		}}
	}
	alt, _ := strconv.Atoi(m[1])
	return FreezingLevel{AltitudeFt: alt}, nil
}

func pad3(level int) string {
	s := strconv.Itoa(level)
	for len(s) < 3 {
		s = "0" + s
	}
	return s
}
