package bulletin

import "fmt"

// Parser drives the section splitter and dispatches each section to the
// extractor registered for its kind. New section grammars are added with
// Register without touching existing extractors.
type Parser struct {
	extractors map[SectionKind]Extractor
}

// NewParser creates a Parser with the built-in grammars registered:
// validity period, winds/temperature, and freezing level. Turbulence and
// icing anchors are recognized but have no default grammar; their raw spans
// are retained unparsed.
func NewParser() *Parser {
	p := &Parser{extractors: make(map[SectionKind]Extractor)}
	p.Register(SectionValidityPeriod, extractValidity)
	p.Register(SectionWindsTemperature, extractLevels)
	p.Register(SectionFreezingLevel, extractFreezingLevel)
	return p
}

// Register installs an extractor for a section kind, replacing any previous
// registration.
func (p *Parser) Register(kind SectionKind, fn Extractor) {
	p.extractors[kind] = fn
}

// Parse extracts a ParsedBulletin from raw bulletin text using a parser
// with the default grammar registrations.
func Parse(raw RawBulletin) (ParsedBulletin, []ParseIssue) {
	return NewParser().Parse(raw)
}

// Parse extracts a ParsedBulletin from raw bulletin text. It always returns
// a bulletin — possibly the zero bulletin with an empty level table — plus
// the full diagnostic trail. The returned slice aliases
// ParsedBulletin.Diagnostics.
func (p *Parser) Parse(raw RawBulletin) (ParsedBulletin, []ParseIssue) {
	result := ParsedBulletin{
		SourceID: raw.SourceID,
		Levels:   make(map[int]FlightLevelEntry),
	}
	var diags issueList

	seen := make(map[SectionKind]bool)
	for _, sec := range splitSections(raw.Text) {
		switch sec.Kind {
		case SectionUnknown:
			diags.addf(SectionUnknown, IssueGrammarMismatch, SeverityInfo, sec.Span,
				"text outside any recognized section retained verbatim")
		case SectionValidityPeriod:
			p.assembleValidity(&result, &diags, sec, raw, seen[sec.Kind])
		case SectionWindsTemperature:
			p.assembleLevels(&result, &diags, sec, raw)
		default:
			p.assembleExtension(&result, &diags, sec, raw)
		}
		seen[sec.Kind] = true
	}

	reportAbsences(&diags, seen)

	result.Diagnostics = diags.issues
	return result, result.Diagnostics
}

func (p *Parser) assembleValidity(result *ParsedBulletin, diags *issueList, sec section, raw RawBulletin, repeated bool) {
	payload, issues := p.extractors[SectionValidityPeriod](sec.Span, raw.ReferenceDate)
	diags.issues = append(diags.issues, issues...)
	if payload == nil {
		return
	}
	window := payload.(*ValidityWindow)
	if repeated && result.Validity != nil {
		diags.addf(SectionValidityPeriod, IssueDuplicateKey, SeverityWarning, sec.Span,
			"validity period appears more than once; %s–%s overwritten by %s–%s",
			result.Validity.From.Format("1504"), result.Validity.To.Format("1504"),
			window.From.Format("1504"), window.To.Format("1504"))
	}
	result.Validity = window
}

func (p *Parser) assembleLevels(result *ParsedBulletin, diags *issueList, sec section, raw RawBulletin) {
	payload, issues := p.extractors[SectionWindsTemperature](sec.Span, raw.ReferenceDate)
	diags.issues = append(diags.issues, issues...)
	if payload == nil {
		return
	}
	for _, entry := range payload.([]FlightLevelEntry) {
		if prev, dup := result.Levels[entry.Level]; dup {
			diags.addf(SectionWindsTemperature, IssueDuplicateKey, SeverityWarning, "",
				"FL%s appears twice: %s overwritten by %s",
				pad3(entry.Level), describeEntry(prev), describeEntry(entry))
		}
		result.Levels[entry.Level] = entry
	}
}

// assembleExtension handles recognized anchors beyond the core grammar.
// With a registered extractor the typed payload is stored next to the raw
// span; without one (or when extraction fails) the raw span alone is
// retained so no information is lost.
func (p *Parser) assembleExtension(result *ParsedBulletin, diags *issueList, sec section, raw RawBulletin) {
	ext := ExtensionSection{Raw: sec.Span}
	if fn, ok := p.extractors[sec.Kind]; ok {
		payload, issues := fn(sec.Span, raw.ReferenceDate)
		diags.issues = append(diags.issues, issues...)
		ext.Payload = payload
	}
	if result.Extensions == nil {
		result.Extensions = make(map[SectionKind]ExtensionSection)
	}
	result.Extensions[sec.Kind] = ext
}

// reportAbsences records which sections were never anchored. The validity
// and winds sections are the substance of a bulletin, so their absence is a
// warning; extension sections are routinely omitted and rate only an info.
func reportAbsences(diags *issueList, seen map[SectionKind]bool) {
	core := []SectionKind{SectionValidityPeriod, SectionWindsTemperature}
	for _, kind := range core {
		if !seen[kind] {
			diags.addf(kind, IssueStructuralAbsence, SeverityWarning, "",
				"section anchor not found")
		}
	}
	for _, kind := range []SectionKind{SectionFreezingLevel, SectionTurbulence, SectionIcing} {
		if !seen[kind] {
			diags.addf(kind, IssueStructuralAbsence, SeverityInfo, "",
				"section anchor not found")
		}
	}
}

// describeEntry renders an entry compactly for duplicate-key diagnostics.
func describeEntry(e FlightLevelEntry) string {
	s := fmt.Sprintf("%d/%d-%dKT", e.WindDirectionDeg, e.WindSpeed.LowKt, e.WindSpeed.HighKt)
	if e.TemperatureC != nil {
		s += fmt.Sprintf(" %+.0fC", *e.TemperatureC)
	}
	return s
}
