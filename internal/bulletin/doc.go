// Package bulletin parses fixed-grammar meteorological area-forecast
// bulletins (the Icelandic Met Office "FAIL41" aviation wind/temperature
// format) into typed, queryable records.
//
// # Bulletin Conventions
//
// A bulletin is free-form text organized by fixed anchor phrases, each
// marking the start of a section:
//
//	"OUTLOOK FROM 1800 TO 0600 UTC"               → validity period
//	"WINDS/TEMPERATURE AT SIGNIFICANT LEVELS: …"  → per-level wind table
//	"FREEZING LEVEL: 5000 FT"                     → freezing level
//	"TURBULENCE: …", "ICING: …"                   → extension sections
//
// Sections may appear in any order and any anchor may be missing or
// repeated. Text before the first anchor (typically the WMO product header
// line) is retained in a diagnostic, never discarded.
//
// Validity times are HHMM in 24-hour UTC notation with no date component.
// The caller supplies a reference date that anchors them; a "to" time
// numerically earlier than the "from" time means the window crosses
// midnight and the end date is advanced by one day.
//
// The winds table is a comma-delimited sequence of clauses, each anchored
// by a flight-level token:
//
//	FL050: 170/30-50KT, STRONGEST IN THE SE, TEMP M05
//
// giving direction 170°, speed range 30–50 kt, free-text qualifier notes,
// and an optional temperature (M prefix = minus, as in METAR reports).
//
// # Error Philosophy
//
// Forecast feeds are operationally produced and often truncated or
// reformatted, so the parser never aborts: every anomaly — a missing
// section, a malformed clause, an out-of-range direction, a duplicated
// flight level — is recovered locally and reported as a [ParseIssue]
// alongside the (possibly incomplete) result. A bulletin where every
// section fails still yields a zero ParsedBulletin with a full diagnostic
// trail. Callers decide what severity they treat as fatal.
//
// The package performs no I/O and holds no state across calls; parsing the
// same input always yields identical output.
package bulletin
