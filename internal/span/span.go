package span

import (
	"fmt"

	"fortio.org/safecast"
)

// Point is a 0-based position in a file.
type Point struct {
	Line uint32
	Col  uint32
}

// Before reports whether p comes before other in reading order.
func (p Point) Before(other Point) bool {
	if p.Line != other.Line {
		return p.Line < other.Line
	}
	return p.Col < other.Col
}

// Region is a half-open [Start, End) range of 0-based positions.
// A nil *Region means "no specific location; place at end of file".
type Region struct {
	Start Point
	End   Point
}

// EndOfFileLine is the sentinel line number used to sort and address entries
// that have no region. Large enough to land past any real file.
const EndOfFileLine uint32 = 999999999

func (r *Region) Empty() bool {
	return r == nil || r.Start == r.End
}

// Line returns the first line of the region, or EndOfFileLine for nil.
func (r *Region) Line() uint32 {
	if r == nil {
		return EndOfFileLine
	}
	return r.Start.Line
}

func (r *Region) String() string {
	if r == nil {
		return "<eof>"
	}
	return fmt.Sprintf("%d:%d-%d:%d", r.Start.Line, r.Start.Col, r.End.Line, r.End.Col)
}

// Equal compares two possibly-nil regions.
func (r *Region) Equal(other *Region) bool {
	if r == nil || other == nil {
		return r == other
	}
	return *r == *other
}

// clampU32 converts an int coming from JSON into uint32, folding negative or
// oversized values to zero. Никогда не паникуем на мусорном вводе.
func clampU32(v int) uint32 {
	u, err := safecast.Conv[uint32](v)
	if err != nil {
		return 0
	}
	return u
}
