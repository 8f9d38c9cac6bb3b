package compiler

// ---------------------------------------------------------------------------
// Builder: decoded instruction stream -> nested instruction tree
// ---------------------------------------------------------------------------

// loopFrame saves the enclosing body and the source index of an open loop.
type loopFrame struct {
	outer Program
	start int
}

// Builder accumulates decoded instructions in source order into a properly
// nested Program. Loop markers manipulate an explicit stack, so arbitrarily
// deep nesting does not consume call-stack depth. The zero value is ready
// to use.
type Builder struct {
	body      Program
	size      int
	loopStack []loopFrame
}

// NewBuilder returns an empty Builder.
func NewBuilder() *Builder {
	return &Builder{}
}

// Push consumes one instruction. Open-loop markers start a fresh interior
// body; close-loop markers wrap the interior as a Loop and restore the
// enclosing body, failing immediately with DanglingLoopError when no loop
// is open; leaves are stamped with their source index and appended. Every
// push consumes exactly one source-index slot, markers included.
func (b *Builder) Push(inst Instruction) error {
	switch inst.(type) {
	case *OpenLoop:
		b.loopStack = append(b.loopStack, loopFrame{outer: b.body, start: b.size})
		b.body = nil
	case *CloseLoop:
		if len(b.loopStack) == 0 {
			return &DanglingLoopError{Pos: Position{Start: b.size, End: b.size}}
		}
		frame := b.loopStack[len(b.loopStack)-1]
		b.loopStack = b.loopStack[:len(b.loopStack)-1]
		b.body = append(frame.outer, &Loop{
			PosVal: Position{Start: frame.start, End: b.size},
			Body:   b.body,
		})
	default:
		inst.setPos(Position{Start: b.size, End: b.size})
		b.body = append(b.body, inst)
	}
	b.size++
	return nil
}

// Size reports how many instructions have been pushed.
func (b *Builder) Size() int {
	return b.size
}

// Depth reports the current loop nesting depth.
func (b *Builder) Depth() int {
	return len(b.loopStack)
}

// Finish returns the completed Program. If any loops are still open it
// fails with UnclosedLoopError, reporting every open loop's start position
// in stack order.
func (b *Builder) Finish() (Program, error) {
	if len(b.loopStack) > 0 {
		positions := make([]Position, len(b.loopStack))
		for i, frame := range b.loopStack {
			positions[i] = Position{Start: frame.start, End: frame.start}
		}
		return nil, &UnclosedLoopError{Positions: positions}
	}
	return b.body, nil
}
