package main

import (
	"bytes"
	"fmt"
	"os"

	"github.com/tliron/commonlog"

	"github.com/chazu/midilang/cache"
	"github.com/chazu/midilang/codegen"
	"github.com/chazu/midilang/compiler"
	"github.com/chazu/midilang/smf"
)

type buildOptions struct {
	output    string
	triple    string
	tapeSize  int
	emitLLVM  bool
	useCache  bool
	cachePath string
}

// compileFile runs the whole pipeline for one MIDI file: decode chords into
// a program, size the tape, generate LLVM IR, and emit the requested
// output. The cache short-circuits decoding and generation when the source
// bytes, triple, and tape-size override all match a previous build.
func compileFile(path string, opts buildOptions) error {
	log := commonlog.GetLogger("midilang.build")

	source, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}

	outPath := opts.output
	if outPath == "" && !opts.emitLLVM {
		outPath = objectName(path)
	}

	var store *cache.Store
	key := cache.Key(source, opts.triple, opts.tapeSize)
	if opts.useCache && opts.cachePath != "" {
		store, err = cache.Open(opts.cachePath)
		if err != nil {
			// A broken cache never blocks a build.
			log.Warningf("cache unavailable: %v", err)
		} else {
			defer store.Close()
			if art, ok := store.Get(key); ok {
				log.Infof("cache hit for %s", path)
				return finish(art.IR, outPath, opts)
			}
		}
	}

	log.Infof("compiling %s", path)
	prog, err := smf.Decode(bytes.NewReader(source))
	if err != nil {
		return err
	}

	extent := compiler.AnalyzeExtent(prog)
	if opts.tapeSize > 0 {
		extent = compiler.Extent{Lo: 0, Hi: opts.tapeSize - 1, Exact: true}
	}

	irText, err := codegen.CompileLLVM(prog, extent, "", opts.triple)
	if err != nil {
		return err
	}

	if store != nil {
		art := &cache.Artifact{
			IR:       irText,
			TapeSize: extent.Size(),
			Origin:   extent.Origin(),
			Triple:   opts.triple,
		}
		if err := store.Put(key, art); err != nil {
			log.Warningf("cache store failed: %v", err)
		}
	}

	return finish(irText, outPath, opts)
}

// finish writes the requested outputs for rendered IR.
func finish(irText, outPath string, opts buildOptions) error {
	if opts.emitLLVM {
		fmt.Print(irText)
	}
	if outPath != "" {
		if err := codegen.EmitObject(irText, outPath, opts.triple); err != nil {
			return err
		}
	}
	return nil
}
