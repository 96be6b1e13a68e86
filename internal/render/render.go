// Package render turns entries into render-ready markup fragments. It is
// pure: output depends only on the entries of one pass and the theme.
package render

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"rustmsg/internal/diag"
)

// linkPattern recognizes bare http(s) URLs inside message text.
var linkPattern = regexp.MustCompile(
	`https?://[-a-zA-Z0-9@:%._+~#=]{2,256}\.[a-zA-Z]{2,6}\b[-a-zA-Z0-9@:%_+.~#?&/=]*`)

// errorIndexURL is where the long-form explanations live, keyed by code.
const errorIndexURL = "https://doc.rust-lang.org/error-index.html#"

// Options tune one rendering pass.
type Options struct {
	// KnownExplanation reports whether a long-form explanation is known for a
	// code even when the record itself did not carry one. May be nil.
	KnownExplanation func(code string) bool
}

// escaper keeps quotes intact: fragments embed text in element bodies only.
var escaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")

// EscapeAndLink escapes text for markup and turns bare URLs into anchors.
// Newlines continue on an indented line so multi-line messages align under
// their severity label.
func EscapeAndLink(text, indent string) string {
	var b strings.Builder
	last := 0
	for _, loc := range linkPattern.FindAllStringIndex(text, -1) {
		b.WriteString(escapePlain(text[last:loc[0]], indent))
		u := text[loc[0]:loc[1]]
		fmt.Fprintf(&b, `<a href="%s">%s</a>`, u, u)
		last = loc[1]
	}
	b.WriteString(escapePlain(text[last:], indent))
	return b.String()
}

func escapePlain(text, indent string) string {
	// rustc любит оставлять \n в конце сообщений
	text = strings.TrimSpace(text)
	text = escaper.Replace(text)
	return strings.ReplaceAll(text, "\n", "<br>"+indent)
}

// severityClass maps a severity onto its CSS class.
func severityClass(sev diag.Severity) string {
	switch sev {
	case diag.SevError:
		return "rust-error"
	case diag.SevWarning:
		return "rust-warning"
	case diag.SevNote:
		return "rust-note"
	case diag.SevHelp:
		return "rust-help"
	}
	return "rust-error"
}

// ReplacementFragment renders the accept-replacement action for an entry.
// Activating the link signals "apply replacement" back to the host; the core
// never edits text itself.
func ReplacementFragment(e *diag.Entry) string {
	q := url.Values{}
	q.Set("id", fmt.Sprintf("%d", e.ID))
	q.Set("replacement", e.Replacement.Text)
	return fmt.Sprintf(
		"<div class=\"rust-links\">\n"+
			"    <a href=\"replace:%s\" class=\"rust-link\">Accept Replacement:</a> %s\n"+
			"</div>", q.Encode(), escaper.Replace(e.Replacement.Text))
}

// learnMoreLink returns the appended explanation link for a primary entry, or
// "" when no explanation is known for its code.
func learnMoreLink(e *diag.Entry, opts Options) string {
	if !e.Primary || e.Code.ID == "" {
		return ""
	}
	known := e.Code.HasExplanation
	if !known && opts.KnownExplanation != nil {
		known = opts.KnownExplanation(e.Code.ID)
	}
	if !known {
		return ""
	}
	return fmt.Sprintf(` <a href="%s%s">?</a>`, errorIndexURL, e.Code.ID)
}

// Apply fills the Rendered fragment of every entry of one tree. Entries that
// already carry markup (cross-links, pre-rendered fragments) are left alone;
// entries with no text and no replacement have nothing to show and stay
// unrendered. Consecutive entries with the same severity and path get an
// indented continuation instead of a repeated severity label. Colors are not
// baked into fragments: they come from the stylesheet, see Theme.WrapCSS.
func Apply(t *diag.Tree, opts Options) {
	lastSev := diag.Severity(255)
	lastPath := ""
	for _, e := range t.All() {
		if e.Rendered != "" {
			continue
		}
		if e.Replacement != nil {
			e.Rendered = ReplacementFragment(e)
			continue
		}
		if e.Text == "" {
			continue
		}

		level := e.Severity.String()
		indent := strings.Repeat("&nbsp;", len(level)+2)
		levelText := level + ": "
		if e.Severity == lastSev && e.Path == lastPath {
			levelText = indent
		}
		lastSev = e.Severity
		lastPath = e.Path

		closeLink := ""
		if e.Primary {
			closeLink = `<a href="hide">` + "×" + `</a>`
		}

		e.Rendered = fmt.Sprintf(`<div class="%s">%s%s%s%s%s</div>`,
			severityClass(e.Severity),
			levelText,
			EscapeAndLink(e.Text, indent),
			learnMoreLink(e, opts),
			e.BackLink,
			closeLink,
		)
	}
}
