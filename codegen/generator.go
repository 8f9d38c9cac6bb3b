package codegen

import (
	"fmt"

	"github.com/tliron/commonlog"

	"github.com/chazu/midilang/compiler"
)

// ---------------------------------------------------------------------------
// Generator: finished Program -> backend emission, in phase order
// ---------------------------------------------------------------------------

// Generator lowers a finished compiler.Program through a Backend. The
// generation phases are strictly ordered; running a step before its
// predecessors completed fails with ErrUninitializedContext. A Generator is
// single-use and not safe for concurrent use; independent compilations each
// take their own Generator and Backend.
type Generator struct {
	backend Backend
	phase   Phase
	log     commonlog.Logger
}

// NewGenerator returns a Generator driving the given backend.
func NewGenerator(backend Backend) *Generator {
	return &Generator{
		backend: backend,
		phase:   PhaseUninitialized,
		log:     commonlog.GetLogger("midilang.codegen"),
	}
}

// Phase reports the current generation phase.
func (g *Generator) Phase() Phase {
	return g.phase
}

// Declare declares the runtime primitives the generated program calls.
func (g *Generator) Declare() error {
	if g.phase != PhaseUninitialized {
		return fmt.Errorf("declare in phase %s: %w", g.phase, ErrUninitializedContext)
	}
	g.phase = PhaseDeclaring
	if err := g.backend.DeclareRuntime(); err != nil {
		return err
	}
	return nil
}

// Init creates the entry routine and its init region: allocate a tape
// covering the extent, zero-fill it, and zero-initialize the cursor at the
// extent's origin.
func (g *Generator) Init(extent compiler.Extent) error {
	if g.phase != PhaseDeclaring {
		return fmt.Errorf("init in phase %s: %w", g.phase, ErrUninitializedContext)
	}
	size, origin := extent.Size(), extent.Origin()
	if !extent.Exact {
		g.log.Warningf("tape extent not statically bounded; defaulting to %d cells", size)
	}
	g.log.Debugf("tape: %d cells, cursor origin %d", size, origin)
	if err := g.backend.BeginProgram(size, origin); err != nil {
		return err
	}
	g.phase = PhaseAllocating
	return nil
}

// Emit walks the program tree in order, emitting each instruction into the
// entry routine's body region.
func (g *Generator) Emit(prog compiler.Program) error {
	if g.phase != PhaseAllocating {
		return fmt.Errorf("emit in phase %s: %w", g.phase, ErrUninitializedContext)
	}
	g.phase = PhaseEmitting
	return g.emit(prog)
}

func (g *Generator) emit(prog compiler.Program) error {
	for _, inst := range prog {
		var err error
		switch n := inst.(type) {
		case *compiler.IncrementCell:
			err = g.backend.AddCell(n.Amount)
		case *compiler.MovePointer:
			err = g.backend.MovePointer(n.Amount)
		case *compiler.OutputCell:
			err = g.backend.OutputCell()
		case *compiler.InputCell:
			err = g.backend.InputCell()
		case *compiler.Loop:
			if err = g.backend.BeginLoop(); err != nil {
				break
			}
			if err = g.emit(n.Body); err != nil {
				break
			}
			err = g.backend.EndLoop()
		default:
			// loop markers never survive the builder
			err = fmt.Errorf("unexpected instruction %T at %s", inst, inst.Pos())
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// Finalize emits the cleanup region: free the tape and return success from
// the entry routine. Calling it before allocation completed is a sequencing
// defect.
func (g *Generator) Finalize() error {
	if g.phase != PhaseEmitting && g.phase != PhaseAllocating {
		return fmt.Errorf("finalize in phase %s: %w", g.phase, ErrUninitializedContext)
	}
	g.phase = PhaseFinalizing
	if err := g.backend.EndProgram(); err != nil {
		return err
	}
	g.phase = PhaseDone
	return nil
}

// Compile runs the full generation sequence for prog. The backend stays
// open afterwards so the caller can render or emit the finished module;
// releasing it is the caller's deferred Close.
func (g *Generator) Compile(prog compiler.Program, extent compiler.Extent) error {
	if err := g.Declare(); err != nil {
		return err
	}
	if err := g.Init(extent); err != nil {
		return err
	}
	if err := g.Emit(prog); err != nil {
		return err
	}
	return g.Finalize()
}
