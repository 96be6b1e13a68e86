package diag

import (
	"sync/atomic"

	"rustmsg/internal/span"
)

// EntryID identifies an entry for the lifetime of a session. IDs are unique
// across the whole process; 0 is never issued and means "no entry".
type EntryID uint64

var entryIDCounter atomic.Uint64

func nextEntryID() EntryID {
	return EntryID(entryIDCounter.Add(1))
}

// Code is a diagnostic code ("E0308") with a flag for whether the toolchain
// shipped a long-form explanation for it.
type Code struct {
	ID             string
	HasExplanation bool
}

// Replacement is a suggested source edit attached to a help entry.
type Replacement struct {
	Region *span.Region
	Text   string
}

// Entry is a single normalized diagnostic unit.
//
// Fields other than Hidden, Rendered, BackLink and RegionKey are set once
// during tree building and never mutated afterwards.
type Entry struct {
	ID       EntryID
	Severity Severity
	// Path is the absolute file path, or "" when no span was resolvable.
	Path   string
	Region *span.Region
	// Text is the plain message body. Empty for entries that carry only
	// rendered markup (cross-links, replacement actions).
	Text string
	Code Code
	// Primary is true for the top-level entry of a tree.
	Primary bool
	// Owner references the primary entry owning this child; 0 on the primary
	// itself. Always an id, never a pointer: the tree has no pointer cycles.
	Owner       EntryID
	Replacement *Replacement

	// BackLink is a markup fragment jumping back to the owning primary.
	// Set only on children far away from the primary.
	BackLink string
	// Rendered is the render-ready markup fragment. Empty until rendered,
	// except for synthesized link entries which are born rendered.
	Rendered string
	// RegionKey is a stable per-path identifier for editor-side overlay
	// reconciliation. Assigned on insert into the session index.
	RegionKey string
	// Hidden soft-deletes the entry: excluded from rendering and navigation
	// but kept so stale overlays can still be erased.
	Hidden bool
}

// NewEntry allocates an entry with a fresh process-unique id.
func NewEntry() *Entry {
	return &Entry{ID: nextEntryID()}
}

// Line returns the 0-based line the entry is anchored at, or
// span.EndOfFileLine for entries without a region.
func (e *Entry) Line() uint32 {
	return e.Region.Line()
}

// Similar reports whether two entries would look identical to the user:
// same path, region, severity and text. Used for insert de-duplication.
func (e *Entry) Similar(other *Entry) bool {
	return e.Path == other.Path &&
		e.Severity == other.Severity &&
		e.Region.Equal(other.Region) &&
		e.Text == other.Text
}
