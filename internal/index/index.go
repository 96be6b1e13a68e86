// Package index owns the per-session diagnostic registry. It is the single
// shared-mutable-state boundary of the pipeline: every operation takes the
// index lock, so readers always observe fully inserted trees.
package index

import (
	"fmt"
	"sort"
	"sync"

	"rustmsg/internal/diag"
	"rustmsg/internal/span"
	"rustmsg/internal/trace"
)

// SessionID is an opaque identifier for one logical window/context.
type SessionID string

// cursorUnset marks a navigation cursor with no position.
const cursorUnset = -1

type cursor struct {
	pathIdx  int
	entryIdx int
}

func unsetCursor() cursor {
	return cursor{pathIdx: cursorUnset, entryIdx: cursorUnset}
}

// session keeps the diagnostics of one session id.
type session struct {
	paths  []string // ordered: insertion order until sorted, then sort order
	byPath map[string][]*diag.Entry
	byID   map[diag.EntryID]*diag.Entry
	cursor cursor
	gen    uint64
}

func newSession() *session {
	return &session{
		byPath: make(map[string][]*diag.Entry),
		byID:   make(map[diag.EntryID]*diag.Entry),
		cursor: unsetCursor(),
	}
}

func (s *session) clear() {
	s.paths = nil
	s.byPath = make(map[string][]*diag.Entry)
	s.byID = make(map[diag.EntryID]*diag.Entry)
	s.cursor = unsetCursor()
}

// Index is the session registry. Constructed once per process and passed by
// reference; no ambient singleton.
type Index struct {
	mu       sync.Mutex
	sessions map[SessionID]*session
	tracer   trace.Tracer
}

// New creates an empty index. tracer may be nil.
func New(tracer trace.Tracer) *Index {
	return &Index{
		sessions: make(map[SessionID]*session),
		tracer:   tracer,
	}
}

// ensure returns the session, creating it lazily. Caller holds the lock.
func (x *Index) ensure(sid SessionID) *session {
	s, ok := x.sessions[sid]
	if !ok {
		s = newSession()
		x.sessions[sid] = s
	}
	return s
}

// RunStarted clears the session and advances its run generation. The returned
// generation must accompany every Insert of the new run: records of a
// superseded run no longer match and are discarded.
func (x *Index) RunStarted(sid SessionID) uint64 {
	x.mu.Lock()
	defer x.mu.Unlock()
	s := x.ensure(sid)
	s.clear()
	s.gen++
	trace.Pointf(x.tracer, trace.LevelPhase, "index", "run %d started for session %s", s.gen, sid)
	return s.gen
}

// RunFinished sorts the session once the record stream of gen is drained.
// Stale generations are ignored.
func (x *Index) RunFinished(sid SessionID, gen uint64) {
	x.mu.Lock()
	defer x.mu.Unlock()
	s, ok := x.sessions[sid]
	if !ok || s.gen != gen {
		return
	}
	s.sortEntries()
	trace.Pointf(x.tracer, trace.LevelPhase, "index", "run %d finished for session %s", gen, sid)
}

// RunCancelled keeps whatever the cancelled run already inserted but skips
// sorting, and advances the generation so its late records are discarded.
func (x *Index) RunCancelled(sid SessionID, gen uint64) {
	x.mu.Lock()
	defer x.mu.Unlock()
	s, ok := x.sessions[sid]
	if !ok || s.gen != gen {
		return
	}
	s.gen++
	trace.Pointf(x.tracer, trace.LevelPhase, "index", "run %d cancelled for session %s", gen, sid)
}

// storable reports whether an entry has an addressable location. Entries
// still pointing into external macro pseudo-files never reach the index.
func storable(e *diag.Entry) bool {
	return e.Path != "" && !span.IsExternalMacro(e.Path)
}

// Insert adds a tree's entries to the session. The whole insertion is a no-op
// when the primary duplicates an existing entry at the same path (identical
// severity, region and text), so re-runs of the same diagnostic never pile
// up. Returns true when the tree was stored.
func (x *Index) Insert(sid SessionID, gen uint64, t *diag.Tree) bool {
	if t == nil {
		return false
	}
	x.mu.Lock()
	defer x.mu.Unlock()
	s, ok := x.sessions[sid]
	if !ok || s.gen != gen {
		// Запись от устаревшего запуска.
		trace.Pointf(x.tracer, trace.LevelDetail, "index", "discarding record from stale run %d", gen)
		return false
	}

	primary := t.Primary()
	for _, other := range s.byPath[primary.Path] {
		if primary.Similar(other) {
			return false
		}
	}

	stored := false
	for _, e := range t.All() {
		if !storable(e) {
			continue
		}
		list := s.byPath[e.Path]
		if len(list) == 0 {
			s.paths = append(s.paths, e.Path)
		}
		list = append(list, e)
		s.byPath[e.Path] = list
		s.byID[e.ID] = e
		e.RegionKey = fmt.Sprintf("rust-%d", len(list))
		stored = true
	}
	return stored
}

// Clear drops all entries and navigation state for the session. Other
// sessions are unaffected; the run generation survives.
func (x *Index) Clear(sid SessionID) {
	x.mu.Lock()
	defer x.mu.Unlock()
	if s, ok := x.sessions[sid]; ok {
		s.clear()
	}
}

// CloseSession destroys the session entirely.
func (x *Index) CloseSession(sid SessionID) {
	x.mu.Lock()
	defer x.mu.Unlock()
	delete(x.sessions, sid)
}

// Sort reorders each path's entries and the cross-path order by severity
// rank, then path, then line. Idempotent: sorting twice changes nothing.
func (x *Index) Sort(sid SessionID) {
	x.mu.Lock()
	defer x.mu.Unlock()
	if s, ok := x.sessions[sid]; ok {
		s.sortEntries()
	}
}

func (s *session) sortEntries() {
	type item struct {
		path  string
		entry *diag.Entry
	}
	var items []item
	for _, p := range s.paths {
		for _, e := range s.byPath[p] {
			items = append(items, item{path: p, entry: e})
		}
	}
	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i], items[j]
		if a.entry.Severity != b.entry.Severity {
			return a.entry.Severity < b.entry.Severity
		}
		if a.path != b.path {
			return a.path < b.path
		}
		return a.entry.Line() < b.entry.Line()
	})

	s.paths = nil
	s.byPath = make(map[string][]*diag.Entry)
	for _, it := range items {
		list := s.byPath[it.path]
		if len(list) == 0 {
			s.paths = append(s.paths, it.path)
		}
		s.byPath[it.path] = append(list, it.entry)
	}
}

// Visible returns the ordered, non-hidden entries for one file, for overlay
// materialization. The returned slice is a copy.
func (x *Index) Visible(sid SessionID, path string) []*diag.Entry {
	x.mu.Lock()
	defer x.mu.Unlock()
	s, ok := x.sessions[sid]
	if !ok {
		return nil
	}
	var out []*diag.Entry
	for _, e := range s.byPath[path] {
		if !e.Hidden {
			out = append(out, e)
		}
	}
	return out
}

// Paths returns the session's file paths in their current order.
func (x *Index) Paths(sid SessionID) []string {
	x.mu.Lock()
	defer x.mu.Unlock()
	s, ok := x.sessions[sid]
	if !ok {
		return nil
	}
	out := make([]string, len(s.paths))
	copy(out, s.paths)
	return out
}

// HasPath reports whether the session holds any entry for the path.
func (x *Index) HasPath(sid SessionID, path string) bool {
	x.mu.Lock()
	defer x.mu.Unlock()
	s, ok := x.sessions[sid]
	if !ok {
		return false
	}
	return len(s.byPath[path]) > 0
}

// Hide soft-deletes an entry. Hiding a primary cascades to every child and
// link it owns, across files. Hidden entries stay in storage so stale
// editor-side overlays can still be found and erased.
func (x *Index) Hide(sid SessionID, id diag.EntryID) {
	x.mu.Lock()
	defer x.mu.Unlock()
	s, ok := x.sessions[sid]
	if !ok {
		return
	}
	e, ok := s.byID[id]
	if !ok {
		return
	}
	e.Hidden = true
	if !e.Primary {
		return
	}
	for _, other := range s.byID {
		if other.Owner == id {
			other.Hidden = true
		}
	}
}

// ListItem is one row of the pick-list view.
type ListItem struct {
	Entry    *diag.Entry
	Label    string // message text
	Location string // path:line (1-based), or bare path for end-of-file entries
}

// ListAll returns the primary entries of the session in current order, with
// display labels. Hidden entries are skipped.
func (x *Index) ListAll(sid SessionID) []ListItem {
	x.mu.Lock()
	defer x.mu.Unlock()
	s, ok := x.sessions[sid]
	if !ok {
		return nil
	}
	var out []ListItem
	for _, p := range s.paths {
		for _, e := range s.byPath[p] {
			if !e.Primary || e.Hidden {
				continue
			}
			loc := p
			if e.Region != nil {
				loc = fmt.Sprintf("%s:%d", p, e.Region.Start.Line+1)
			}
			out = append(out, ListItem{Entry: e, Label: e.Text, Location: loc})
		}
	}
	return out
}
