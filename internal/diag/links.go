package diag

import (
	"fmt"
	"path/filepath"
	"strings"

	"rustmsg/internal/span"
)

// DefaultLinkDistance is how many lines away a child may sit before it gets
// an explicit navigation link. Heuristic, configurable.
const DefaultLinkDistance uint32 = 5

const (
	glyphUp   = "↑"
	glyphDown = "↓"
	backGlyph = "←"
)

// FileURL builds the jump target for an entry: file:///path:line:col with
// 1-based positions. Entries without a region jump to an absurdly large line
// to land at the end of the file.
func FileURL(e *Entry) string {
	p := strings.ReplaceAll(e.Path, "\\", "/")
	if e.Region == nil {
		return fmt.Sprintf("file:///%s:%d", p, span.EndOfFileLine)
	}
	return fmt.Sprintf("file:///%s:%d:%d", p, e.Region.Start.Line+1, e.Region.Start.Col+1)
}

func absDiff(a, b uint32) uint32 {
	if a > b {
		return a - b
	}
	return b - a
}

// CrossLink adds navigation links between the primary entry and children that
// are physically distant from it: in another file, or more than maxDistance
// lines away. Each distinct (path, line) among the distant children yields
// one forward-link child on the primary; the child itself gets a back link.
// Must run after the tree is fully built and before rendering.
func CrossLink(t *Tree, maxDistance uint32) {
	primary := t.Primary()
	back := fmt.Sprintf(`<a href="%s">%s</a>`, FileURL(primary), backGlyph)

	type linkKey struct {
		path string
		line uint32
	}
	seen := make(map[linkKey]struct{})
	var links []string

	for _, child := range t.Children() {
		line := child.Line()
		if child.Path == primary.Path && absDiff(line, primary.Line()) <= maxDistance {
			continue
		}
		key := linkKey{child.Path, line}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}

		lineno := ""
		if child.Region != nil {
			lineno = fmt.Sprintf(":%d", line+1)
		}
		var filename string
		if child.Path == primary.Path {
			if line < primary.Line() {
				filename = glyphUp
			} else {
				filename = glyphDown
			}
		} else {
			filename = filepath.Base(child.Path)
		}
		links = append(links, fmt.Sprintf(
			"<div class=\"rust-links\">\n"+
				"    <a href=\"%s\" class=\"rust-link\">Note: %s%s</a>\n"+
				"</div>", FileURL(child), filename, lineno))
		child.BackLink = back
	}

	// Link children are born rendered: a clickable jump target and nothing
	// else, anchored at the primary's own location.
	for _, markup := range links {
		link := NewEntry()
		link.Path = primary.Path
		link.Region = primary.Region
		link.Severity = primary.Severity
		link.Rendered = markup
		t.appendChild(link)
	}
}
