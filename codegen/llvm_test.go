package codegen

import (
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/chazu/midilang/compiler"
)

func testProgram() compiler.Program {
	return compiler.Program{
		&compiler.IncrementCell{Amount: 5},
		&compiler.Loop{Body: compiler.Program{
			&compiler.MovePointer{Amount: 1},
			&compiler.IncrementCell{Amount: 2},
			&compiler.Loop{Body: compiler.Program{
				&compiler.IncrementCell{Amount: -1},
			}},
			&compiler.MovePointer{Amount: -1},
			&compiler.IncrementCell{Amount: -1},
		}},
		&compiler.InputCell{},
		&compiler.OutputCell{},
	}
}

func TestLLVMStructure(t *testing.T) {
	prog := testProgram()
	irText, err := CompileLLVM(prog, compiler.AnalyzeExtent(prog), "", "")
	if err != nil {
		t.Fatalf("compile: %v", err)
	}

	for _, want := range []string{
		"declare i8* @malloc(i64)",
		"declare void @free(i8*)",
		"declare i8* @memset(i8*, i32, i64)",
		"declare i32 @getchar()",
		"declare i32 @putchar(i32)",
		"define i32 @main()",
		"loop1.cond",
		"loop1.body",
		"loop1.after",
		"loop2.cond",
		"icmp ne i8",
		"br i1",
		"call i32 @getchar()",
		"ret i32 0",
	} {
		if !strings.Contains(irText, want) {
			t.Errorf("IR missing %q\n%s", want, irText)
		}
	}

	// loops lower to branching, never unrolling: exactly one add of the
	// inner decrement
	if got := strings.Count(irText, "add i8"); got != 4 {
		t.Errorf("add i8 instructions = %d, want 4", got)
	}
}

func TestLLVMDeterminism(t *testing.T) {
	prog := testProgram()
	extent := compiler.AnalyzeExtent(prog)

	first, err := CompileLLVM(prog, extent, "", "x86_64-unknown-linux-gnu")
	if err != nil {
		t.Fatalf("first compile: %v", err)
	}
	second, err := CompileLLVM(prog, extent, "", "x86_64-unknown-linux-gnu")
	if err != nil {
		t.Fatalf("second compile: %v", err)
	}
	if first != second {
		t.Error("same program compiled twice produced different IR")
	}
	if !strings.Contains(first, `target triple = "x86_64-unknown-linux-gnu"`) {
		t.Error("IR missing target triple")
	}
}

func TestLLVMTapeSizing(t *testing.T) {
	prog := compiler.Program{
		&compiler.MovePointer{Amount: 4},
		&compiler.IncrementCell{Amount: 1},
	}
	irText, err := CompileLLVM(prog, compiler.AnalyzeExtent(prog), "", "")
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	if !strings.Contains(irText, "call i8* @malloc(i64 5)") {
		t.Errorf("expected a 5-cell tape allocation\n%s", irText)
	}
}

func TestClangArgs(t *testing.T) {
	got := clangArgs("prog.ll", "prog.o", "")
	want := []string{"-c", "-x", "ir", "prog.ll", "-o", "prog.o"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("args = %v, want %v", got, want)
	}

	got = clangArgs("prog.ll", "prog.o", "x86_64-unknown-linux-gnu")
	want = []string{"-target", "x86_64-unknown-linux-gnu", "-c", "-x", "ir", "prog.ll", "-o", "prog.o"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("args with triple = %v, want %v", got, want)
	}
}

func TestEmitObject(t *testing.T) {
	if _, err := exec.LookPath("clang"); err != nil {
		t.Skip("clang not installed")
	}

	prog := testProgram()
	irText, err := CompileLLVM(prog, compiler.AnalyzeExtent(prog), "", "")
	if err != nil {
		t.Fatalf("compile: %v", err)
	}

	objPath := filepath.Join(t.TempDir(), "prog.o")
	if err := EmitObject(irText, objPath, ""); err != nil {
		t.Fatalf("emit: %v", err)
	}
	info, err := os.Stat(objPath)
	if err != nil {
		t.Fatalf("stat object: %v", err)
	}
	if info.Size() == 0 {
		t.Error("object file is empty")
	}
}

func TestEmitObjectBadIR(t *testing.T) {
	if _, err := exec.LookPath("clang"); err != nil {
		t.Skip("clang not installed")
	}

	err := EmitObject("this is not IR\n", filepath.Join(t.TempDir(), "bad.o"), "")
	var be *BackendError
	if !errors.As(err, &be) {
		t.Fatalf("error = %v, want BackendError", err)
	}
	if be.Msg == "" {
		t.Error("backend error lost the tool diagnostic")
	}
}

func TestLLVMBackendClose(t *testing.T) {
	backend := NewLLVMBackend()
	if err := backend.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if err := backend.Close(); err != nil {
		t.Fatalf("second close: %v", err)
	}
	if err := backend.DeclareRuntime(); err == nil {
		t.Error("declare after close should fail")
	}
	if backend.IR() != "" {
		t.Error("IR after close should be empty")
	}
}
