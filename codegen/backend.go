package codegen

import (
	"errors"
	"fmt"

	"github.com/chazu/midilang/compiler"
)

// ---------------------------------------------------------------------------
// Backend: narrow capability interface over a native-codegen library
// ---------------------------------------------------------------------------
//
// The generator drives a Backend through a fixed sequence: DeclareRuntime,
// BeginProgram, any number of instruction emissions (with BeginLoop/EndLoop
// strictly paired), then EndProgram. Close releases everything the backend
// acquired and must be safe to call on any exit path, exactly once per
// acquisition. Keeping the interface at tape-VM granularity means a backend
// can be a real code generator or an interpreter; the decoder and builder
// never change either way.

// Backend receives the lowered tape-VM program.
type Backend interface {
	// DeclareRuntime declares the external primitives the generated
	// program needs: allocate, free, zero-fill, read a character, write a
	// character.
	DeclareRuntime() error

	// BeginProgram creates the entry routine, allocates and zero-fills a
	// tape of tapeSize cells, and initializes the cursor to origin.
	BeginProgram(tapeSize, origin int) error

	// AddCell adds amount to the current cell with 8-bit wraparound.
	AddCell(amount compiler.Cell) error

	// MovePointer shifts the cursor by amount. No dynamic bounds check is
	// emitted; the static extent analysis is the only sizing guarantee.
	MovePointer(amount int) error

	// OutputCell writes the current cell as one character.
	OutputCell() error

	// InputCell reads one character into the current cell.
	InputCell() error

	// BeginLoop opens a test-before-iteration loop on the current cell.
	BeginLoop() error

	// EndLoop closes the innermost open loop.
	EndLoop() error

	// EndProgram frees the tape and returns success from the entry routine.
	EndProgram() error

	// Close releases the backend's module, builder state and interned
	// names. It is idempotent.
	Close() error
}

// Phase is the generation phase of a Generator.
type Phase int

const (
	PhaseUninitialized Phase = iota
	PhaseDeclaring
	PhaseAllocating
	PhaseEmitting
	PhaseFinalizing
	PhaseDone
)

func (p Phase) String() string {
	switch p {
	case PhaseUninitialized:
		return "uninitialized"
	case PhaseDeclaring:
		return "declaring"
	case PhaseAllocating:
		return "allocating"
	case PhaseEmitting:
		return "emitting"
	case PhaseFinalizing:
		return "finalizing"
	case PhaseDone:
		return "done"
	default:
		return fmt.Sprintf("Phase(%d)", int(p))
	}
}

// ErrUninitializedContext indicates a generator step ran before the phases
// it depends on completed. This is a sequencing defect in the caller, not a
// bad input.
var ErrUninitializedContext = errors.New("codegen context not initialized")

// BackendError carries a backend diagnostic verbatim.
type BackendError struct {
	Msg string
}

func (e *BackendError) Error() string {
	return "backend error: " + e.Msg
}
