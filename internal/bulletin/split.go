package bulletin

import (
	"regexp"
	"strings"
)

// section is one anchored span produced by the splitter. Span runs from the
// end of the anchor to the start of the next anchor or end of text.
type section struct {
	Kind   SectionKind
	Anchor string
	Span   string
}

// anchorRe matches every recognized anchor phrase in one alternation so the
// splitter is a single linear scan. Anchors may appear in any order, zero or
// more times each.
var anchorRe = regexp.MustCompile(`OUTLOOK FROM|WINDS/TEMPERATURE AT SIGNIFICANT LEVELS:|FREEZING LEVEL:|TURBULENCE:|ICING:`)

var anchorKinds = map[string]SectionKind{
	"OUTLOOK FROM": SectionValidityPeriod,
	"WINDS/TEMPERATURE AT SIGNIFICANT LEVELS:": SectionWindsTemperature,
	"FREEZING LEVEL:":                          SectionFreezingLevel,
	"TURBULENCE:":                              SectionTurbulence,
	"ICING:":                                   SectionIcing,
}

// splitSections divides bulletin text into anchored sections. Non-blank text
// before the first anchor is classified SectionUnknown and retained verbatim
// so nothing is discarded silently.
func splitSections(text string) []section {
	locs := anchorRe.FindAllStringIndex(text, -1)
	if len(locs) == 0 {
		if lead := strings.TrimSpace(text); lead != "" {
			return []section{{Kind: SectionUnknown, Span: lead}}
		}
		return nil
	}

	var sections []section
	if lead := strings.TrimSpace(text[:locs[0][0]]); lead != "" {
		sections = append(sections, section{Kind: SectionUnknown, Span: lead})
	}

	for i, loc := range locs {
		anchor := text[loc[0]:loc[1]]
		end := len(text)
		if i+1 < len(locs) {
			end = locs[i+1][0]
		}
		sections = append(sections, section{
			Kind:   anchorKinds[anchor],
			Anchor: anchor,
			Span:   strings.TrimSpace(text[loc[1]:end]),
		})
	}
	return sections
}
