package index

import "rustmsg/internal/diag"

// Direction selects where Advance moves the cursor.
type Direction uint8

const (
	// Next moves forward through the flattened (path, entry) order.
	Next Direction = iota
	// Prev moves backward.
	Prev
)

// Filter narrows navigation to a severity class.
type Filter uint8

const (
	// FilterAll matches every primary entry.
	FilterAll Filter = iota
	// FilterErrors matches errors only.
	FilterErrors
	// FilterWarnings matches warnings, notes and helps — everything below error.
	FilterWarnings
)

// matches reports whether navigation may stop at the entry. Children are
// never direct targets, they are reachable through their primary or the
// cross links.
func (f Filter) matches(e *diag.Entry) bool {
	if !e.Primary || e.Hidden {
		return false
	}
	switch f {
	case FilterAll:
		return true
	case FilterErrors:
		return e.Severity == diag.SevError
	case FilterWarnings:
		return e.Severity != diag.SevError
	}
	return false
}

// Advance moves the session cursor to the next or previous matching primary
// entry. When the scan runs off the end it wraps around exactly once; if the
// wrapped scan finds nothing either, the cursor resets to unset and Advance
// reports no match.
func (x *Index) Advance(sid SessionID, dir Direction, f Filter) (*diag.Entry, bool) {
	x.mu.Lock()
	defer x.mu.Unlock()
	s, ok := x.sessions[sid]
	if !ok || len(s.paths) == 0 {
		return nil, false
	}
	for wrapped := false; ; wrapped = true {
		var e *diag.Entry
		var found bool
		if dir == Next {
			e, found = s.scanForward(f)
		} else {
			e, found = s.scanBackward(f)
		}
		if found {
			return e, true
		}
		if wrapped {
			// Совпадений нет вообще — сдаёмся.
			s.cursor = unsetCursor()
			return nil, false
		}
		s.cursor = unsetCursor()
	}
}

func (s *session) scanForward(f Filter) (*diag.Entry, bool) {
	pathIdx, entryIdx := s.cursor.pathIdx, s.cursor.entryIdx
	if pathIdx == cursorUnset {
		pathIdx, entryIdx = 0, 0
	} else {
		entryIdx++
	}
	for pathIdx < len(s.paths) {
		entries := s.byPath[s.paths[pathIdx]]
		for entryIdx < len(entries) {
			e := entries[entryIdx]
			if f.matches(e) {
				s.cursor = cursor{pathIdx: pathIdx, entryIdx: entryIdx}
				return e, true
			}
			entryIdx++
		}
		pathIdx++
		entryIdx = 0
	}
	return nil, false
}

func (s *session) scanBackward(f Filter) (*diag.Entry, bool) {
	pathIdx, entryIdx := s.cursor.pathIdx, s.cursor.entryIdx
	if pathIdx == cursorUnset {
		pathIdx = len(s.paths) - 1
		entryIdx = len(s.byPath[s.paths[pathIdx]]) - 1
	} else {
		entryIdx--
	}
	for pathIdx >= 0 {
		entries := s.byPath[s.paths[pathIdx]]
		for entryIdx >= 0 {
			e := entries[entryIdx]
			if f.matches(e) {
				s.cursor = cursor{pathIdx: pathIdx, entryIdx: entryIdx}
				return e, true
			}
			entryIdx--
		}
		pathIdx--
		if pathIdx >= 0 {
			entryIdx = len(s.byPath[s.paths[pathIdx]]) - 1
		}
	}
	return nil, false
}
