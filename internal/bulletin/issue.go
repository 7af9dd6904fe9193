package bulletin

import "fmt"

// Severity grades a parse issue. Errors are data, not failures: they are
// surfaced to the caller alongside the result and never abort a parse.
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// IssueKind classifies what went wrong.
type IssueKind string

const (
	// IssueStructuralAbsence: an expected section anchor was not found.
	IssueStructuralAbsence IssueKind = "structural_absence"
	// IssueGrammarMismatch: anchor found but the trailing text does not
	// match the section's fine-grained pattern.
	IssueGrammarMismatch IssueKind = "grammar_mismatch"
	// IssueRangeAnomaly: value parses structurally but falls outside a sane
	// domain range. The value is retained, not clamped or discarded.
	IssueRangeAnomaly IssueKind = "range_anomaly"
	// IssueDuplicateKey: a unique key appeared twice with differing content;
	// last write wins.
	IssueDuplicateKey IssueKind = "duplicate_key"
)

// ParseIssue is a non-fatal record of one extraction anomaly.
type ParseIssue struct {
	Section       SectionKind `json:"section"`
	Kind          IssueKind   `json:"kind"`
	Severity      Severity    `json:"severity"`
	Message       string      `json:"message"`
	OffendingText string      `json:"offending_text,omitempty"`
}

func (i ParseIssue) String() string {
	if i.OffendingText == "" {
		return fmt.Sprintf("[%s] %s/%s: %s", i.Severity, i.Section, i.Kind, i.Message)
	}
	return fmt.Sprintf("[%s] %s/%s: %s (%q)", i.Severity, i.Section, i.Kind, i.Message, i.OffendingText)
}

// issueList is an append-only diagnostics collector.
type issueList struct {
	issues []ParseIssue
}

func (l *issueList) add(issue ParseIssue) {
	l.issues = append(l.issues, issue)
}

func (l *issueList) addf(section SectionKind, kind IssueKind, sev Severity, offending, format string, args ...any) {
	l.add(ParseIssue{
		Section:       section,
		Kind:          kind,
		Severity:      sev,
		Message:       fmt.Sprintf(format, args...),
		OffendingText: offending,
	})
}
