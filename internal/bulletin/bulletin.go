package bulletin

import "time"

// SectionKind identifies a recognized bulletin section.
type SectionKind string

const (
	SectionValidityPeriod   SectionKind = "validity_period"
	SectionWindsTemperature SectionKind = "winds_temperature"
	SectionFreezingLevel    SectionKind = "freezing_level"
	SectionTurbulence       SectionKind = "turbulence"
	SectionIcing            SectionKind = "icing"
	SectionUnknown          SectionKind = "unknown"
)

// RawBulletin is the immutable parser input. The bulletin text carries only
// HHMM times; ReferenceDate supplies the calendar date they are anchored to.
type RawBulletin struct {
	Text          string
	SourceID      string
	ReferenceDate time.Time
}

// ValidityWindow is the UTC time range a forecast applies to.
// From <= To always holds; windows crossing midnight have To on the next day.
type ValidityWindow struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`
}

// SpeedRange is a low/high wind speed pair in knots.
type SpeedRange struct {
	LowKt  int `json:"low_kt"`
	HighKt int `json:"high_kt"`
}

// FlightLevelEntry holds the forecast wind and temperature for one flight
// level. TemperatureC is nil when the clause carried no temperature figure;
// absent is a valid state, not an error.
type FlightLevelEntry struct {
	Level            int        `json:"level"` // hundreds of feet, e.g. 50 = FL050
	WindDirectionDeg int        `json:"wind_direction_deg"`
	WindSpeed        SpeedRange `json:"wind_speed_kt"`
	Notes            string     `json:"notes,omitempty"`
	TemperatureC     *float64   `json:"temperature_c,omitempty"`
}

// FreezingLevel is the typed payload of a parsed freezing-level section.
type FreezingLevel struct {
	AltitudeFt int `json:"altitude_ft"`
}

// ExtensionSection holds a recognized section outside the core grammar.
// Raw is always the verbatim trailing span; Payload is the typed value when
// an extractor is registered for the kind and succeeded, nil otherwise.
type ExtensionSection struct {
	Raw     string `json:"raw"`
	Payload any    `json:"payload,omitempty"`
}

// ParsedBulletin is the assembled parse result. It owns all nested data and
// holds no reference back to the input text. A bulletin where every section
// failed is represented by zero-valued fields plus diagnostics — never by
// an error.
type ParsedBulletin struct {
	SourceID    string                           `json:"source_id"`
	Validity    *ValidityWindow                  `json:"validity,omitempty"`
	Levels      map[int]FlightLevelEntry         `json:"levels"`
	Extensions  map[SectionKind]ExtensionSection `json:"extensions,omitempty"`
	Diagnostics []ParseIssue                     `json:"diagnostics,omitempty"`
}
