package render

import "fmt"

// Theme holds the colors used by the markup fragments. Values are CSS colors;
// the defaults lean on the host's theme variables.
type Theme struct {
	ErrorColor   string
	WarningColor string
	NoteColor    string
	HelpColor    string
	ExtraCSS     string
}

// DefaultTheme mirrors the stock colors of the host color scheme.
func DefaultTheme() Theme {
	return Theme{
		ErrorColor:   "var(--redish)",
		WarningColor: "var(--yellowish)",
		NoteColor:    "var(--greenish)",
		HelpColor:    "var(--bluish)",
	}
}

const popupCSS = "body { margin: 0.25em; }"

const cssTemplate = `<style>
    span {
        font-family: monospace;
    }
    .rust-error {
        color: %s;
    }
    .rust-warning {
        color: %s;
    }
    .rust-note {
        color: %s;
    }
    .rust-help {
        color: %s;
    }
    .rust-link {
        background-color: var(--background);
        color: var(--bluish);
        text-decoration: none;
        border-radius: 1rem;
        padding: 0.2rem 0.5rem;
        border: 1px solid var(--bluish);
    }
    .rust-links {
        margin: 0.4rem 0rem;
    }
    a {
        text-decoration: inherit;
        padding: 0.35rem 0.5rem 0.45rem 0.5rem;
        position: relative;
        font-weight: bold;
    }
    %s
</style>
<body id="rust-message">
%s
</body>`

// WrapCSS places rendered fragments inside a full markup document with the
// theme's stylesheet. popup adds the tighter popup margins.
func (t Theme) WrapCSS(content string, popup bool) string {
	extra := t.ExtraCSS
	if popup {
		extra += popupCSS
	}
	return fmt.Sprintf(cssTemplate,
		t.ErrorColor, t.WarningColor, t.NoteColor, t.HelpColor, extra, content)
}
