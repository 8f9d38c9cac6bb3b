package compiler

import "fmt"

// ---------------------------------------------------------------------------
// AST: instruction tree for midilang programs
// ---------------------------------------------------------------------------
//
// The note-to-instruction correspondence is:
//   submediant (9)   -> IncrementCell{+amount}
//   subdominant (5)  -> IncrementCell{-amount}
//   mediant (4)      -> MovePointer{+amount}
//   supertonic (2)   -> MovePointer{-amount}
//   leading tone (11)-> InputCell (amount 1) / OutputCell (otherwise)
//   dominant (7)     -> OpenLoop marker
//   tonic (0)        -> CloseLoop marker
//
// OpenLoop/CloseLoop are structural markers: the decoder produces them and
// the builder consumes them. A finished Program never contains either; loops
// appear only as completed Loop nodes.

// Cell is one byte of tape storage. Arithmetic on cells wraps modulo 256.
type Cell = int8

// Position is a closed range of source-instruction indices. Start == End for
// leaf instructions; Start < End for a completed loop spanning its open and
// close markers. A loop still open at finalization is reported as
// (start, start).
type Position struct {
	Start int
	End   int
}

func (p Position) String() string {
	if p.Start == p.End {
		return fmt.Sprintf("(%d)", p.Start)
	}
	return fmt.Sprintf("(%d,%d)", p.Start, p.End)
}

// Instruction is the interface implemented by all instruction nodes.
type Instruction interface {
	Pos() Position
	setPos(Position)
	instr() // marker method
}

// Program is an ordered sequence of top-level instructions. Loop bodies are
// owned nested Programs: a strict tree, no sharing.
type Program []Instruction

// IncrementCell adds Amount to the current tape cell, wrapping.
type IncrementCell struct {
	PosVal Position
	Amount Cell
}

func (n *IncrementCell) Pos() Position     { return n.PosVal }
func (n *IncrementCell) setPos(p Position) { n.PosVal = p }
func (n *IncrementCell) instr()            {}

// MovePointer shifts the tape cursor by Amount. No bound is enforced here;
// the tape-extent analysis sizes the tape before code generation.
type MovePointer struct {
	PosVal Position
	Amount int
}

func (n *MovePointer) Pos() Position     { return n.PosVal }
func (n *MovePointer) setPos(p Position) { n.PosVal = p }
func (n *MovePointer) instr()            {}

// OutputCell emits the current cell's value as one character.
type OutputCell struct {
	PosVal Position
}

func (n *OutputCell) Pos() Position     { return n.PosVal }
func (n *OutputCell) setPos(p Position) { n.PosVal = p }
func (n *OutputCell) instr()            {}

// InputCell reads one character into the current cell.
type InputCell struct {
	PosVal Position
}

func (n *InputCell) Pos() Position     { return n.PosVal }
func (n *InputCell) setPos(p Position) { n.PosVal = p }
func (n *InputCell) instr()            {}

// Loop executes Body repeatedly while the current cell is nonzero, testing
// before each iteration including the first.
type Loop struct {
	PosVal Position
	Body   Program
}

func (n *Loop) Pos() Position     { return n.PosVal }
func (n *Loop) setPos(p Position) { n.PosVal = p }
func (n *Loop) instr()            {}

// OpenLoop marks the start of a loop in the decoded instruction stream.
type OpenLoop struct {
	PosVal Position
}

func (n *OpenLoop) Pos() Position     { return n.PosVal }
func (n *OpenLoop) setPos(p Position) { n.PosVal = p }
func (n *OpenLoop) instr()            {}

// CloseLoop marks the end of a loop in the decoded instruction stream.
type CloseLoop struct {
	PosVal Position
}

func (n *CloseLoop) Pos() Position     { return n.PosVal }
func (n *CloseLoop) setPos(p Position) { n.PosVal = p }
func (n *CloseLoop) instr()            {}
