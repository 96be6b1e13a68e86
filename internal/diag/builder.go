package diag

import (
	"strings"

	"golang.org/x/text/unicode/norm"

	"rustmsg/internal/rustc"
	"rustmsg/internal/span"
	"rustmsg/internal/trace"
)

// Sink receives diagnostics that cannot be anchored to any file. They are
// intended for console display only and never reach the session index.
type Sink func(sev Severity, text string)

// Builder turns raw compiler records into entry trees.
type Builder struct {
	Resolver *span.Resolver
	// Target is the best-guess root source file of the compiled target
	// (main.rs, lib.rs). Empty when unknown.
	Target string
	// HideWarnings suppresses non-error top-level records. Notes and helps
	// attached to an accepted parent are always kept.
	HideWarnings bool
	Sink         Sink
	Tracer       trace.Tracer
}

// anchor is the resolved location of the nearest primary span, threaded down
// the recursion so that spanless children attach to their parent's location.
type anchor struct {
	ok     bool
	path   string
	region *span.Region
}

// Build normalizes one top-level record into a tree. Returns nil when no
// primary location could be established (nothing addressable to show) —
// a filtered result, not an error.
func (b *Builder) Build(msg *rustc.Message) *Tree {
	if msg == nil {
		return nil
	}
	tree := newTree()
	b.collect(msg, tree, anchor{})
	if tree.Primary().Path == "" {
		return nil
	}
	return tree
}

// isNoise matches session-global messages that add nothing over the
// diagnostics they summarize.
func isNoise(text string) bool {
	return strings.HasPrefix(text, "aborting due to") ||
		strings.HasPrefix(text, "cannot continue")
}

func (b *Builder) collect(msg *rustc.Message, tree *Tree, parent anchor) {
	sev, ok := ParseSeverity(msg.Level)
	if !ok {
		trace.Anomalyf(b.Tracer, "build", "unknown diagnostic level %q, treating as error", msg.Level)
	}
	if sev != SevError && b.HideWarnings && !parent.ok {
		return
	}

	primary := tree.Primary()

	setPrimary := func(path string, region *span.Region, text string) {
		primary.Path = path
		primary.Region = region
		primary.Text = norm.NFC.String(text)
		primary.Severity = sev
		if msg.Code != nil {
			primary.Code = Code{ID: msg.Code.Code, HasExplanation: msg.Code.Explanation != ""}
		}
		parent = anchor{ok: true, path: path, region: region}
	}

	addChild := func(path string, region *span.Region, text string, csev Severity) *Entry {
		child := NewEntry()
		child.Path = path
		child.Region = region
		child.Text = norm.NFC.String(text)
		child.Severity = csev
		tree.appendChild(child)
		return child
	}

	if len(msg.Spans) == 0 {
		switch {
		case parent.ok:
			// Extra info attached to the parent message.
			addChild(parent.path, parent.region, msg.Message, sev)
		case isNoise(msg.Message):
			// Ничего полезного: итоговая сводка компилятора.
		case b.Target != "":
			// Session-global message ("main function not found"). Anchor at
			// the end of the root target file for lack of anywhere better.
			setPrimary(b.Resolver.Path(b.Target), nil, msg.Message)
		default:
			// No addressable location at all: side channel only.
			if b.Sink != nil {
				b.Sink(sev, msg.Message)
			}
		}
	}

	for _, sp := range msg.Spans {
		if span.IsExternalMacro(sp.FileName) {
			// The chain of expansions is not interesting by itself; walk to
			// the site where the outermost macro was invoked. Location comes
			// from the root, content flags stay with the leaf.
			root, exp := span.Root(sp)
			if root == nil {
				continue
			}
			eff := *root
			eff.IsPrimary = sp.IsPrimary
			eff.Label = sp.Label
			eff.SuggestedReplacement = sp.SuggestedReplacement

			if span.IsExternalMacro(eff.FileName) {
				// Macros from extern crates have no expansion chain back into
				// the project, so there is nothing local to highlight.
				macroName := eff.FileName
				if b.Target != "" {
					eff.FileName = b.Target
					eff.LineStart = 0
				}
				// Without a target the pseudo-path survives here and the
				// index drops these entries at insert time.
				path, region := b.Resolver.Resolve(&eff)
				addChild(path, region,
					"Errors occurred in macro "+macroName+" from external crate", sev)
				addChild(path, region, "Macro text: "+eff.SourceText(), sev)
			} else if exp == nil || exp.DefSiteSpan == nil ||
				span.IsExternalMacro(exp.DefSiteSpan.FileName) {
				path, region := b.Resolver.Resolve(&eff)
				addChild(path, region,
					"this error originates in a macro outside of the current crate", sev)
			}
			sp = &eff
		}

		// Point at the macro invocation site when the chain is rooted in the
		// local crate. Attribute macros are skipped: the invocation is the
		// item itself.
		if sp.Expansion != nil && !span.IsExternalMacro(sp.FileName) &&
			!strings.HasPrefix(sp.Expansion.MacroDeclName, "#[") {
			invoke, _ := span.Root(sp)
			path, region := b.Resolver.Resolve(invoke)
			addChild(path, region, "in this macro invocation", SevHelp)
		}

		if sp.IsPrimary {
			path, region := b.Resolver.Resolve(sp)
			if parent.ok {
				// Either a primary span of a child record, or a subsequent
				// primary span on the same record: a single logical message
				// may point at two locations ("immutable borrow occurs here"
				// / "mutable borrow ends here"). First span wins the primary
				// slot, the rest fold into children.
				addChild(path, region, msg.Message, sev)
			} else if primary.Path == "" {
				setPrimary(path, region, msg.Message)
			}
		}

		if sp.Label != nil && *sp.Label != "" && *sp.Label != msg.Message {
			path, region := b.Resolver.Resolve(sp)
			addChild(path, region, *sp.Label, sev)
		}

		if sp.SuggestedReplacement != nil && *sp.SuggestedReplacement != "" {
			// Content is the accept-replacement action only, no plain text.
			path, region := b.Resolver.Resolve(sp)
			child := addChild(path, region, "", SevHelp)
			child.Replacement = &Replacement{Region: region, Text: *sp.SuggestedReplacement}
		}
	}

	// Children typically hold notes and helps. The current anchor travels
	// down so spanless children attach to the primary location.
	for _, child := range msg.Children {
		b.collect(child, tree, parent)
	}
}
