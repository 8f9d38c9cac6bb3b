package codegen

import "github.com/chazu/midilang/compiler"

// CompileLLVM lowers a finished program onto a fresh LLVM module and
// returns the textual IR. When objectPath is nonempty the module is also
// handed to the object-emission toolchain for the given triple. The
// backend is released on every exit path.
func CompileLLVM(prog compiler.Program, extent compiler.Extent, objectPath, triple string) (string, error) {
	backend := NewLLVMBackend()
	defer backend.Close()

	if err := NewGenerator(backend).Compile(prog, extent); err != nil {
		return "", err
	}
	backend.SetTargetTriple(triple)
	irText := backend.IR()
	if objectPath != "" {
		if err := backend.WriteObject(objectPath); err != nil {
			return "", err
		}
	}
	return irText, nil
}
