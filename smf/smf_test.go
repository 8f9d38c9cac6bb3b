package smf

import (
	"bytes"
	"errors"
	"reflect"
	"testing"

	"gitlab.com/gomidi/midi/v2"
	gosmf "gitlab.com/gomidi/midi/v2/smf"

	"github.com/chazu/midilang/compiler"
)

// roundTrip encodes brainfuck source to SMF bytes and decodes them back to
// a Program.
func roundTrip(t *testing.T, src string) (compiler.Program, error) {
	t.Helper()
	s, err := EncodeBrainfuck(src)
	if err != nil {
		t.Fatalf("encode %q: %v", src, err)
	}
	var buf bytes.Buffer
	if _, err := s.WriteTo(&buf); err != nil {
		t.Fatalf("write %q: %v", src, err)
	}
	return Decode(&buf)
}

func TestRoundTripFlat(t *testing.T) {
	prog, err := roundTrip(t, "++>-.,<")
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	want := compiler.Program{
		&compiler.IncrementCell{PosVal: pos(0), Amount: 1},
		&compiler.IncrementCell{PosVal: pos(1), Amount: 1},
		&compiler.MovePointer{PosVal: pos(2), Amount: 1},
		&compiler.IncrementCell{PosVal: pos(3), Amount: -1},
		&compiler.OutputCell{PosVal: pos(4)},
		&compiler.InputCell{PosVal: pos(5)},
		&compiler.MovePointer{PosVal: pos(6), Amount: -1},
	}
	if !reflect.DeepEqual(prog, want) {
		t.Errorf("program = %#v, want %#v", prog, want)
	}
}

func TestRoundTripLoop(t *testing.T) {
	prog, err := roundTrip(t, "++[>+<-]>.")
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	want := compiler.Program{
		&compiler.IncrementCell{PosVal: pos(0), Amount: 1},
		&compiler.IncrementCell{PosVal: pos(1), Amount: 1},
		&compiler.Loop{
			PosVal: compiler.Position{Start: 2, End: 7},
			Body: compiler.Program{
				&compiler.MovePointer{PosVal: pos(3), Amount: 1},
				&compiler.IncrementCell{PosVal: pos(4), Amount: 1},
				&compiler.MovePointer{PosVal: pos(5), Amount: -1},
				&compiler.IncrementCell{PosVal: pos(6), Amount: -1},
			},
		},
		&compiler.MovePointer{PosVal: pos(8), Amount: 1},
		&compiler.OutputCell{PosVal: pos(9)},
	}
	if !reflect.DeepEqual(prog, want) {
		t.Errorf("program = %#v, want %#v", prog, want)
	}
}

func TestRoundTripSkipsComments(t *testing.T) {
	with, err := roundTrip(t, "hello + world > !")
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	without, err := roundTrip(t, "+>")
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !reflect.DeepEqual(with, without) {
		t.Errorf("comment characters changed the program: %#v vs %#v", with, without)
	}
}

func TestRoundTripStructuralErrors(t *testing.T) {
	_, err := roundTrip(t, "+]")
	var dangling *compiler.DanglingLoopError
	if !errors.As(err, &dangling) {
		t.Errorf("bare close: got %v, want DanglingLoopError", err)
	}

	_, err = roundTrip(t, "[[+]")
	var unclosed *compiler.UnclosedLoopError
	if !errors.As(err, &unclosed) {
		t.Fatalf("unclosed open: got %v, want UnclosedLoopError", err)
	}
	if len(unclosed.Positions) != 1 {
		t.Errorf("unclosed positions = %v, want one entry", unclosed.Positions)
	}
}

func TestFromSMFNoTracks(t *testing.T) {
	if _, err := FromSMF(gosmf.New()); !errors.Is(err, compiler.ErrNoTracks) {
		t.Errorf("got %v, want ErrNoTracks", err)
	}
}

func TestFromSMFNonDiatonic(t *testing.T) {
	s := gosmf.New()
	var tr gosmf.Track
	tr.Add(0, midi.NoteOn(1, 8, 127))
	tr.Add(10, midi.NoteOffVelocity(1, 8, 127))
	tr.Close(0)
	if err := s.Add(tr); err != nil {
		t.Fatal(err)
	}

	_, err := FromSMF(s)
	var nd *compiler.NonDiatonicError
	if !errors.As(err, &nd) {
		t.Fatalf("got %v, want NonDiatonicError", err)
	}
	if nd.PitchClass != 8 {
		t.Errorf("pitch class = %d, want 8", nd.PitchClass)
	}
}

func TestFromSMFVelocityZeroEndsNote(t *testing.T) {
	// a NoteOn with velocity 0 is a note end by MIDI convention
	s := gosmf.New()
	var tr gosmf.Track
	tr.Add(0, midi.NoteOn(1, 9, 127))
	tr.Add(10, midi.NoteOn(1, 9, 0))
	tr.Close(0)
	if err := s.Add(tr); err != nil {
		t.Fatal(err)
	}

	prog, err := FromSMF(s)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	want := compiler.Program{&compiler.IncrementCell{PosVal: pos(0), Amount: 1}}
	if !reflect.DeepEqual(prog, want) {
		t.Errorf("program = %#v, want %#v", prog, want)
	}
}

func pos(i int) compiler.Position {
	return compiler.Position{Start: i, End: i}
}
