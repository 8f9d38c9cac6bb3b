package codegen

import (
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/enum"
	"github.com/llir/llvm/ir/types"
	"github.com/llir/llvm/ir/value"

	"github.com/chazu/midilang/compiler"
)

// ---------------------------------------------------------------------------
// LLVM backend
// ---------------------------------------------------------------------------
//
// Lowers the tape VM onto LLVM IR through llir/llvm. The runtime primitives
// are the C externs malloc, free, memset, getchar and putchar. Loops become
// real control flow: a condition block testing the current cell against
// zero, a body block, and an after block.
//
// End-of-file policy: getchar returns -1, which is truncated to i8 before
// the store, so after EOF the current cell holds -1 (0xFF).

type llvmLoop struct {
	cond  *ir.Block
	after *ir.Block
}

// LLVMBackend builds an LLVM module for one program. It owns the module
// under construction and every name it interns; Close releases them
// together.
type LLVMBackend struct {
	module *ir.Module

	malloc  *ir.Func
	free    *ir.Func
	memset  *ir.Func
	getchar *ir.Func
	putchar *ir.Func

	main   *ir.Func
	block  *ir.Block // current insertion point
	tape   value.Value
	cursor *ir.InstAlloca

	loops  []llvmLoop
	nloops int
	closed bool
}

// NewLLVMBackend returns a backend with a fresh module.
func NewLLVMBackend() *LLVMBackend {
	return &LLVMBackend{module: ir.NewModule()}
}

// DeclareRuntime declares the C runtime externs the generated code calls.
func (b *LLVMBackend) DeclareRuntime() error {
	if b.module == nil {
		return &BackendError{Msg: "module already released"}
	}
	i8ptr := types.NewPointer(types.I8)
	b.malloc = b.module.NewFunc("malloc", i8ptr, ir.NewParam("", types.I64))
	b.free = b.module.NewFunc("free", types.Void, ir.NewParam("", i8ptr))
	b.memset = b.module.NewFunc("memset", i8ptr,
		ir.NewParam("", i8ptr), ir.NewParam("", types.I32), ir.NewParam("", types.I64))
	b.getchar = b.module.NewFunc("getchar", types.I32)
	b.putchar = b.module.NewFunc("putchar", types.I32, ir.NewParam("", types.I32))
	return nil
}

// BeginProgram emits main's init region: allocate the tape, zero-fill it,
// and store the cursor origin, then branch into the body region.
func (b *LLVMBackend) BeginProgram(tapeSize, origin int) error {
	if b.malloc == nil {
		return &BackendError{Msg: "runtime not declared"}
	}
	b.main = b.module.NewFunc("main", types.I32)
	entry := b.main.NewBlock("entry")
	b.tape = entry.NewCall(b.malloc, constant.NewInt(types.I64, int64(tapeSize)))
	entry.NewCall(b.memset, b.tape,
		constant.NewInt(types.I32, 0), constant.NewInt(types.I64, int64(tapeSize)))
	b.cursor = entry.NewAlloca(types.I64)
	entry.NewStore(constant.NewInt(types.I64, int64(origin)), b.cursor)

	body := b.main.NewBlock("body")
	entry.NewBr(body)
	b.block = body
	return nil
}

// cellPtr emits the address computation for the current cell.
func (b *LLVMBackend) cellPtr() value.Value {
	idx := b.block.NewLoad(types.I64, b.cursor)
	return b.block.NewGetElementPtr(types.I8, b.tape, idx)
}

func (b *LLVMBackend) AddCell(amount compiler.Cell) error {
	ptr := b.cellPtr()
	cell := b.block.NewLoad(types.I8, ptr)
	// i8 add wraps, which is exactly the cell semantics
	sum := b.block.NewAdd(cell, constant.NewInt(types.I8, int64(amount)))
	b.block.NewStore(sum, ptr)
	return nil
}

func (b *LLVMBackend) MovePointer(amount int) error {
	idx := b.block.NewLoad(types.I64, b.cursor)
	next := b.block.NewAdd(idx, constant.NewInt(types.I64, int64(amount)))
	b.block.NewStore(next, b.cursor)
	return nil
}

func (b *LLVMBackend) OutputCell() error {
	cell := b.block.NewLoad(types.I8, b.cellPtr())
	wide := b.block.NewSExt(cell, types.I32)
	b.block.NewCall(b.putchar, wide)
	return nil
}

func (b *LLVMBackend) InputCell() error {
	c := b.block.NewCall(b.getchar)
	narrow := b.block.NewTrunc(c, types.I8)
	b.block.NewStore(narrow, b.cellPtr())
	return nil
}

func (b *LLVMBackend) BeginLoop() error {
	b.nloops++
	name := fmt.Sprintf("loop%d", b.nloops)
	cond := b.main.NewBlock(name + ".cond")
	body := b.main.NewBlock(name + ".body")
	after := b.main.NewBlock(name + ".after")

	b.block.NewBr(cond)
	b.block = cond
	cell := b.block.NewLoad(types.I8, b.cellPtr())
	nonzero := b.block.NewICmp(enum.IPredNE, cell, constant.NewInt(types.I8, 0))
	b.block.NewCondBr(nonzero, body, after)

	b.block = body
	b.loops = append(b.loops, llvmLoop{cond: cond, after: after})
	return nil
}

func (b *LLVMBackend) EndLoop() error {
	if len(b.loops) == 0 {
		return &BackendError{Msg: "end of loop without matching begin"}
	}
	frame := b.loops[len(b.loops)-1]
	b.loops = b.loops[:len(b.loops)-1]
	b.block.NewBr(frame.cond)
	b.block = frame.after
	return nil
}

// EndProgram emits the cleanup region: free the tape and return 0.
func (b *LLVMBackend) EndProgram() error {
	if b.tape == nil {
		return &BackendError{Msg: "program never began"}
	}
	b.block.NewCall(b.free, b.tape)
	b.block.NewRet(constant.NewInt(types.I32, 0))
	return nil
}

// IR renders the module as textual LLVM IR. Rendering is deterministic:
// the same program always produces byte-identical output.
func (b *LLVMBackend) IR() string {
	if b.module == nil {
		return ""
	}
	return b.module.String()
}

// SetTargetTriple records the machine triple on the module. Must happen
// before the module is rendered or emitted. An empty triple targets the
// host.
func (b *LLVMBackend) SetTargetTriple(triple string) {
	if b.module != nil {
		b.module.TargetTriple = triple
	}
}

// WriteObject hands the finished module to clang and writes an object file
// to path, honoring any triple set with SetTargetTriple. Tool diagnostics
// are surfaced verbatim.
func (b *LLVMBackend) WriteObject(path string) error {
	if b.module == nil || b.main == nil {
		return &BackendError{Msg: "no finished module to emit"}
	}
	return EmitObject(b.module.String(), path, b.module.TargetTriple)
}

// clangArgs builds the clang invocation compiling the IR at irPath into an
// object file at objPath. A nonempty triple is prepended as -target so it
// governs the whole invocation.
func clangArgs(irPath, objPath, triple string) []string {
	args := []string{"-c", "-x", "ir", irPath, "-o", objPath}
	if triple != "" {
		args = append([]string{"-target", triple}, args...)
	}
	return args
}

// EmitObject compiles textual LLVM IR to an object file at path for the
// given triple (empty targets the host). Tool diagnostics are surfaced
// verbatim as a BackendError.
func EmitObject(irText, path, triple string) error {
	tmp, err := os.CreateTemp("", "midilang-*.ll")
	if err != nil {
		return fmt.Errorf("creating IR temp file: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.WriteString(irText); err != nil {
		tmp.Close()
		return fmt.Errorf("writing IR temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing IR temp file: %w", err)
	}

	out, err := exec.Command("clang", clangArgs(tmp.Name(), path, triple)...).CombinedOutput()
	if err != nil {
		msg := strings.TrimSpace(string(out))
		if msg == "" {
			msg = err.Error()
		}
		return &BackendError{Msg: msg}
	}
	return nil
}

// Close releases the module and all builder state. Idempotent.
func (b *LLVMBackend) Close() error {
	if b.closed {
		return nil
	}
	b.closed = true
	b.module = nil
	b.malloc, b.free, b.memset, b.getchar, b.putchar = nil, nil, nil, nil, nil
	b.main, b.block, b.cursor = nil, nil, nil
	b.tape = nil
	b.loops = nil
	return nil
}
