// Package rustc models the JSON diagnostic stream emitted by rustc and cargo
// (--message-format=json / --error-format=json). Decoding is best-effort:
// missing or unexpected optional fields collapse to zero values, one bad
// record never aborts a stream.
package rustc

// Message is one diagnostic record, possibly with nested children.
// Children are attached notes/helps and are never nested further in practice.
type Message struct {
	Message  string     `json:"message"`
	Level    string     `json:"level"`
	Code     *Code      `json:"code"`
	Spans    []*Span    `json:"spans"`
	Children []*Message `json:"children"`
	Rendered string     `json:"rendered"`
}

// Code carries the diagnostic code ("E0308") and, when somebody has written
// one, the long-form explanation text.
type Code struct {
	Code        string `json:"code"`
	Explanation string `json:"explanation"`
}

// Span is a source region attached to a diagnostic. Line/column values are
// 1-based; a zero LineStart means the span carries no line information.
// FileName contains "macros>" for spans that point into a macro expansion.
type Span struct {
	FileName             string     `json:"file_name"`
	ByteStart            int        `json:"byte_start"`
	ByteEnd              int        `json:"byte_end"`
	LineStart            int        `json:"line_start"`
	LineEnd              int        `json:"line_end"`
	ColumnStart          int        `json:"column_start"`
	ColumnEnd            int        `json:"column_end"`
	IsPrimary            bool       `json:"is_primary"`
	Text                 []SpanText `json:"text"`
	Label                *string    `json:"label"`
	SuggestedReplacement *string    `json:"suggested_replacement"`
	Expansion            *Expansion `json:"expansion"`
}

// SpanText is one original source line covered by a span.
type SpanText struct {
	Text           string `json:"text"`
	HighlightStart int    `json:"highlight_start"`
	HighlightEnd   int    `json:"highlight_end"`
}

// Expansion links a span to the outer span where a macro was invoked.
type Expansion struct {
	Span          *Span  `json:"span"`
	MacroDeclName string `json:"macro_decl_name"`
	DefSiteSpan   *Span  `json:"def_site_span"`
}

// SourceText joins the original source lines covered by the span.
func (s *Span) SourceText() string {
	if s == nil || len(s.Text) == 0 {
		return ""
	}
	out := ""
	for _, t := range s.Text {
		out += t.Text
	}
	return out
}
