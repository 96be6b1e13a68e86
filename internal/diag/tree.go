package diag

// Tree is one primary entry plus its flat list of children. Children never
// nest: every synthesized entry attaches directly to the primary, in the
// order its generating span or child record was encountered.
type Tree struct {
	entries []*Entry // entries[0] is the primary
}

func newTree() *Tree {
	primary := NewEntry()
	primary.Primary = true
	return &Tree{entries: []*Entry{primary}}
}

// Primary returns the tree's primary entry.
func (t *Tree) Primary() *Entry {
	return t.entries[0]
}

// Children returns the child entries in traversal order.
func (t *Tree) Children() []*Entry {
	return t.entries[1:]
}

// All returns the primary followed by its children.
// ВАЖНО: не модифицируйте возвращаемый срез, он указывает на внутренний массив.
func (t *Tree) All() []*Entry {
	return t.entries
}

// Len returns the total number of entries including the primary.
func (t *Tree) Len() int {
	return len(t.entries)
}

// appendChild attaches an entry to the tree as a child of the primary.
func (t *Tree) appendChild(e *Entry) {
	e.Primary = false
	e.Owner = t.Primary().ID
	t.entries = append(t.entries, e)
}

// NewTreeWith assembles a tree from an existing primary entry. For callers
// that synthesize entries without going through the builder.
func NewTreeWith(primary *Entry, children ...*Entry) *Tree {
	primary.Primary = true
	t := &Tree{entries: []*Entry{primary}}
	for _, c := range children {
		t.appendChild(c)
	}
	return t
}
