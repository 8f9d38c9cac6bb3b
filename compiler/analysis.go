package compiler

// ---------------------------------------------------------------------------
// Tape-extent analysis: static sizing of the tape
// ---------------------------------------------------------------------------
//
// Before code generation the tape must be sized so that every cell index
// the program can address exists. The analysis walks all MovePointer
// offsets along every path, starting the cursor at 0. A loop whose body
// has zero net pointer drift reaches the same extremes on every iteration,
// so one iteration bounds it. A loop with nonzero net drift can reach
// arbitrarily far; the extent is then inexact and the tape falls back to
// DefaultTapeSize. A program whose dynamic path escapes an inexact extent
// is undefined behavior at the generated-program level.

// DefaultTapeSize is the tape length used when the extent analysis cannot
// bound the program exactly.
const DefaultTapeSize = 30000

// Extent is the statically computed range of cell indices a program can
// address, relative to a cursor starting at 0.
type Extent struct {
	Lo    int
	Hi    int
	Exact bool
}

// Size returns the tape length to allocate: the minimal length covering
// the extent when exact, otherwise at least DefaultTapeSize.
func (e Extent) Size() int {
	size := e.Hi - e.Lo + 1
	if !e.Exact && size < DefaultTapeSize {
		return DefaultTapeSize
	}
	return size
}

// Origin returns the initial cursor index within the allocated tape, so
// that the leftmost statically reachable cell is index 0.
func (e Extent) Origin() int {
	return -e.Lo
}

// AnalyzeExtent computes the tape extent of a finished program.
func AnalyzeExtent(p Program) Extent {
	_, lo, hi, exact := walkExtent(p)
	return Extent{Lo: lo, Hi: hi, Exact: exact}
}

// walkExtent returns the net cursor movement of one pass over p, the
// lowest and highest offsets touched relative to the entry cursor, and
// whether those bounds are exact.
func walkExtent(p Program) (net, lo, hi int, exact bool) {
	exact = true
	cur := 0
	for _, inst := range p {
		switch n := inst.(type) {
		case *MovePointer:
			cur += n.Amount
			if cur < lo {
				lo = cur
			}
			if cur > hi {
				hi = cur
			}
		case *Loop:
			bnet, blo, bhi, bexact := walkExtent(n.Body)
			if !bexact || bnet != 0 {
				exact = false
			}
			if cur+blo < lo {
				lo = cur + blo
			}
			if cur+bhi > hi {
				hi = cur + bhi
			}
			// With zero net drift the cursor is unchanged after any number
			// of iterations. With nonzero drift the bounds above cover one
			// iteration only; exact is already false.
		}
	}
	return cur, lo, hi, exact
}
