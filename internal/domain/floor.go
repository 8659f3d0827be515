package domain

import (
	"fmt"
	"strconv"
	"strings"
)

// Floor represents a floor index on the signed [-4, +6] scale, with F1 ≡ 0.
type Floor int

// NewFloor wraps a raw integer as a Floor without validation, used where the
// value has already been range-checked by the caller.
func NewFloor(value int) Floor {
	return Floor(value)
}

// ParseFloor decodes a textual floor label ("B4".."B1", "F1".."F7"+) into
// its signed integer index. "B d" maps to -d; "F d" maps to d-1. Any other
// prefix, a missing digit, or a non-numeric tail yields ok=false.
func ParseFloor(s string) (Floor, bool) {
	if len(s) < 2 {
		return 0, false
	}

	switch s[0] {
	case 'B':
		n, err := strconv.Atoi(s[1:])
		if err != nil {
			return 0, false
		}
		return Floor(-n), true
	case 'F':
		n, err := strconv.Atoi(s[1:])
		if err != nil {
			return 0, false
		}
		return Floor(n - 1), true
	default:
		return 0, false
	}
}

// Format renders a Floor back to its textual label, the inverse of
// ParseFloor: ParseFloor(f.Format()) is the identity on [-4, +6].
func (f Floor) Format() string {
	if f < 0 {
		return fmt.Sprintf("B%d", -int(f))
	}
	return fmt.Sprintf("F%d", int(f)+1)
}

// Value returns the integer value of the floor.
func (f Floor) Value() int {
	return int(f)
}

// String implements fmt.Stringer using the textual label, so log messages
// and error context read in the trace's own vocabulary.
func (f Floor) String() string {
	return f.Format()
}

// InRange reports whether f lies within [lo, hi] inclusive.
func (f Floor) InRange(lo, hi Floor) bool {
	return f >= lo && f <= hi
}

// Distance returns the absolute floor difference between f and other.
func (f Floor) Distance(other Floor) int {
	d := int(f) - int(other)
	if d < 0 {
		return -d
	}
	return d
}

// LooksLikeFloorLabel is a best-effort lexical check: it reports whether s
// is a 'B' or 'F' followed by one or more digits, without range-checking
// the number.
func LooksLikeFloorLabel(s string) bool {
	if len(s) < 2 {
		return false
	}
	if s[0] != 'B' && s[0] != 'F' {
		return false
	}
	return strings.TrimLeft(s[1:], "0123456789") == ""
}
