// Midilang CLI - compiles MIDI files into native code.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/tliron/commonlog"
	_ "github.com/tliron/commonlog/simple"

	"github.com/chazu/midilang/manifest"
	"github.com/chazu/midilang/smf"
)

func main() {
	midiFile := flag.String("m", "", "MIDI file to compile")
	bfFile := flag.String("bf", "", "Brainfuck file to convert into a MIDI program")
	output := flag.String("o", "", "Object file output path")
	triple := flag.String("triple", "", "Target machine triple (default: host)")
	emitLLVM := flag.Bool("emit-llvm", false, "Print textual LLVM IR instead of emitting an object")
	tapeSize := flag.Int("tape", 0, "Tape size override in cells (0 = static analysis)")
	noCache := flag.Bool("no-cache", false, "Bypass the build cache")
	verbose := flag.Bool("v", false, "Verbose output")
	debug := flag.Bool("d", false, "Debug output")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: midilang [options]\n\n")
		fmt.Fprintf(os.Stderr, "Compiles chord-encoded MIDI programs to native code.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  midilang -m song.mid                  # Compile to song.o\n")
		fmt.Fprintf(os.Stderr, "  midilang -m song.mid -o out.o         # Custom output path\n")
		fmt.Fprintf(os.Stderr, "  midilang -m song.mid --emit-llvm      # Dump LLVM IR\n")
		fmt.Fprintf(os.Stderr, "  midilang -m song.mid --triple wasm32-unknown-unknown\n")
		fmt.Fprintf(os.Stderr, "  midilang --bf prog.bf                 # Encode prog.bf as prog.mid\n")
		fmt.Fprintf(os.Stderr, "\nWithout -m, the entry from midilang.toml is compiled.\n")
	}
	flag.Parse()

	verbosity := 0
	if *verbose {
		verbosity = 1
	}
	if *debug {
		verbosity = 2
	}
	commonlog.Configure(verbosity, nil)
	log := commonlog.GetLogger("midilang")

	if *bfFile != "" {
		out := midiName(*bfFile)
		if err := smf.EncodeBrainfuckFile(*bfFile, out); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		log.Infof("encoded %s", out)
	}

	opts := buildOptions{
		output:   *output,
		triple:   *triple,
		tapeSize: *tapeSize,
		emitLLVM: *emitLLVM,
		useCache: !*noCache,
	}

	// The manifest supplies defaults; flags win.
	m, err := manifest.FindAndLoad(".")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading manifest: %v\n", err)
		os.Exit(1)
	}
	source := *midiFile
	if m != nil {
		if source == "" {
			source = m.EntryPath()
		}
		if opts.output == "" {
			opts.output = m.OutputPath()
		}
		if opts.triple == "" {
			opts.triple = m.Build.Triple
		}
		if opts.tapeSize == 0 {
			opts.tapeSize = m.Build.TapeSize
		}
		opts.useCache = opts.useCache && m.Cache.Enabled
		opts.cachePath = m.CachePath()
	} else {
		opts.useCache = false
	}

	if source == "" {
		if *bfFile != "" {
			return
		}
		flag.Usage()
		os.Exit(2)
	}

	if err := compileFile(source, opts); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
