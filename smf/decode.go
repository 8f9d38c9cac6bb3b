// Package smf adapts Standard MIDI Files to the midilang compiler: it
// groups note events into chords and feeds them through the chord decoder
// and AST builder, and it provides the companion generative direction that
// encodes brainfuck source as a chord stream.
package smf

import (
	"fmt"
	"io"
	"sort"

	"github.com/tliron/commonlog"
	gosmf "gitlab.com/gomidi/midi/v2/smf"

	"github.com/chazu/midilang/compiler"
)

var log = commonlog.GetLogger("midilang.smf")

// DecodeFile reads an SMF from path and parses it into a Program.
func DecodeFile(path string) (compiler.Program, error) {
	s, err := gosmf.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return FromSMF(s)
}

// Decode reads an SMF stream and parses it into a Program.
func Decode(r io.Reader) (compiler.Program, error) {
	s, err := gosmf.ReadFrom(r)
	if err != nil {
		return nil, fmt.Errorf("reading SMF: %w", err)
	}
	return FromSMF(s)
}

// FromSMF parses an already-loaded SMF into a Program.
//
// A chord is the maximal set of notes struck while the running held-notes
// counter stays above zero: every note started before the counter returns
// to zero belongs to the group. Only note starts and note ends are
// meaningful (a NoteOn with velocity zero counts as an end, per MIDI
// convention); every other event is ignored. Timing beyond simultaneity
// carries no semantics.
func FromSMF(s *gosmf.SMF) (compiler.Program, error) {
	if len(s.Tracks) == 0 {
		return nil, compiler.ErrNoTracks
	}

	builder := compiler.NewBuilder()
	var chord []uint8
	for i, track := range s.Tracks {
		notesOn := 0
		for _, ev := range track {
			var ch, key, vel uint8
			switch {
			case ev.Message.GetNoteStart(&ch, &key, &vel):
				chord = append(chord, key)
				notesOn++
			case ev.Message.GetNoteEnd(&ch, &key):
				notesOn--
				if notesOn != 0 || len(chord) == 0 {
					continue
				}
				sort.Slice(chord, func(a, b int) bool { return chord[a] < chord[b] })
				log.Debugf("track %d: decoding chord %v", i, chord)
				inst, err := compiler.DecodeChord(chord)
				if err != nil {
					return nil, err
				}
				if err := builder.Push(inst); err != nil {
					return nil, err
				}
				chord = nil
			}
		}
	}

	return builder.Finish()
}
