package codegen

import (
	"fmt"
	"io"

	"github.com/chazu/midilang/compiler"
)

// ---------------------------------------------------------------------------
// Interpreter backend
// ---------------------------------------------------------------------------
//
// Records the same emission calls as a code generator, but into an
// executable op tree. Run then executes the recorded program against an
// in-memory tape. This keeps the generator's behavior testable without any
// LLVM tooling, and doubles as a reference for the tape semantics: 8-bit
// wraparound cells and the same EOF policy as the native runtime (EOF
// stores -1 in the current cell).

type opKind int

const (
	opAdd opKind = iota
	opMove
	opOut
	opIn
	opLoop
)

type interpOp struct {
	kind opKind
	arg  int
	body []interpOp
}

type interpFrame struct {
	outer []interpOp
}

// InterpBackend implements Backend by direct execution.
type InterpBackend struct {
	In  io.Reader
	Out io.Writer

	tapeSize int
	origin   int
	prog     []interpOp
	stack    []interpFrame
	done     bool
	closed   bool
}

// NewInterpBackend returns an interpreter reading from in and writing to
// out.
func NewInterpBackend(in io.Reader, out io.Writer) *InterpBackend {
	return &InterpBackend{In: in, Out: out}
}

// DeclareRuntime is a no-op; the interpreter is its own runtime.
func (b *InterpBackend) DeclareRuntime() error { return nil }

func (b *InterpBackend) BeginProgram(tapeSize, origin int) error {
	if tapeSize < 1 {
		return &BackendError{Msg: fmt.Sprintf("invalid tape size %d", tapeSize)}
	}
	b.tapeSize = tapeSize
	b.origin = origin
	return nil
}

func (b *InterpBackend) push(op interpOp) {
	b.prog = append(b.prog, op)
}

func (b *InterpBackend) AddCell(amount compiler.Cell) error {
	b.push(interpOp{kind: opAdd, arg: int(amount)})
	return nil
}

func (b *InterpBackend) MovePointer(amount int) error {
	b.push(interpOp{kind: opMove, arg: amount})
	return nil
}

func (b *InterpBackend) OutputCell() error {
	b.push(interpOp{kind: opOut})
	return nil
}

func (b *InterpBackend) InputCell() error {
	b.push(interpOp{kind: opIn})
	return nil
}

func (b *InterpBackend) BeginLoop() error {
	b.stack = append(b.stack, interpFrame{outer: b.prog})
	b.prog = nil
	return nil
}

func (b *InterpBackend) EndLoop() error {
	if len(b.stack) == 0 {
		return &BackendError{Msg: "end of loop without matching begin"}
	}
	frame := b.stack[len(b.stack)-1]
	b.stack = b.stack[:len(b.stack)-1]
	b.prog = append(frame.outer, interpOp{kind: opLoop, body: b.prog})
	return nil
}

func (b *InterpBackend) EndProgram() error {
	if len(b.stack) != 0 {
		return &BackendError{Msg: "program ended inside a loop"}
	}
	if b.tapeSize == 0 {
		return &BackendError{Msg: "program never began"}
	}
	b.done = true
	return nil
}

func (b *InterpBackend) Close() error {
	if b.closed {
		return nil
	}
	b.closed = true
	b.stack = nil
	return nil
}

// Run executes the recorded program. Unlike the native runtime, cursor
// movement outside the tape is detected and reported instead of being
// undefined.
func (b *InterpBackend) Run() error {
	if !b.done {
		return fmt.Errorf("run before program completed: %w", ErrUninitializedContext)
	}
	tape := make([]byte, b.tapeSize)
	cursor := b.origin
	return b.run(b.prog, tape, &cursor)
}

func (b *InterpBackend) run(ops []interpOp, tape []byte, cursor *int) error {
	for _, op := range ops {
		switch op.kind {
		case opAdd:
			tape[*cursor] += byte(op.arg)
		case opMove:
			*cursor += op.arg
			if *cursor < 0 || *cursor >= len(tape) {
				return fmt.Errorf("cursor %d outside tape of %d cells", *cursor, len(tape))
			}
		case opOut:
			if _, err := b.Out.Write([]byte{tape[*cursor]}); err != nil {
				return err
			}
		case opIn:
			var buf [1]byte
			if _, err := io.ReadFull(b.In, buf[:]); err != nil {
				if err != io.EOF && err != io.ErrUnexpectedEOF {
					return err
				}
				buf[0] = 0xFF // EOF sentinel, same as the native runtime
			}
			tape[*cursor] = buf[0]
		case opLoop:
			for tape[*cursor] != 0 {
				if err := b.run(op.body, tape, cursor); err != nil {
					return err
				}
			}
		}
	}
	return nil
}
