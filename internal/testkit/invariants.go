package testkit

import (
	"fmt"

	"rustmsg/internal/diag"
)

// CheckTreeInvariants runs the structural invariants every built tree must
// satisfy:
// 1) the primary entry is first, marked primary and owns nobody
// 2) every child references the primary as its owner and is not primary
// 3) regions are ordered (start <= end) when present
// 4) ids are unique within the tree
func CheckTreeInvariants(t *diag.Tree) error {
	if t == nil {
		return fmt.Errorf("nil tree")
	}
	primary := t.Primary()
	if !primary.Primary {
		return fmt.Errorf("first entry is not primary")
	}
	if primary.Owner != 0 {
		return fmt.Errorf("primary entry has owner %d", primary.Owner)
	}

	seen := map[diag.EntryID]struct{}{primary.ID: {}}
	for i, child := range t.Children() {
		if child.Primary {
			return fmt.Errorf("child %d is marked primary", i)
		}
		if child.Owner != primary.ID {
			return fmt.Errorf("child %d owner %d != primary %d", i, child.Owner, primary.ID)
		}
		if _, dup := seen[child.ID]; dup {
			return fmt.Errorf("duplicate entry id %d", child.ID)
		}
		seen[child.ID] = struct{}{}
	}

	for i, e := range t.All() {
		if e.Region != nil && e.Region.End.Before(e.Region.Start) {
			return fmt.Errorf("entry %d region inverted: %s", i, e.Region)
		}
	}
	return nil
}
