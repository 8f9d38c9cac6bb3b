package smf

import (
	"fmt"
	"os"

	"gitlab.com/gomidi/midi/v2"
	gosmf "gitlab.com/gomidi/midi/v2/smf"
)

// ---------------------------------------------------------------------------
// Generative direction: brainfuck source -> chord-encoded SMF
// ---------------------------------------------------------------------------

// encodeTicks is the fixed delta between generated events.
const encodeTicks = 10

// encodeChannel is the channel generated notes are written on.
const encodeChannel = 1

// encodeVelocity is the fixed velocity of generated notes.
const encodeVelocity = 127

// bfKeys maps single-note brainfuck instructions to their pitch.
var bfKeys = map[rune]uint8{
	']': 0,
	'<': 2,
	'>': 4,
	'-': 5,
	'[': 7,
	'+': 9,
	',': 11,
}

// outputChord is the 3-note chord flagging the output instruction: a bare
// leading tone would decode as input, so `.` needs extra notes to push the
// decoded amount past 1.
var outputChord = []uint8{11, 15, 18}

// EncodeBrainfuck converts brainfuck source text into a chord-encoded SMF:
// one note-on/note-off pair per instruction, with `.` flagged by the fixed
// output chord. Unrecognized characters are skipped. The result carries an
// empty meta track at index 0 and the program track at index 1.
func EncodeBrainfuck(src string) (*gosmf.SMF, error) {
	s := gosmf.New()
	s.TimeFormat = gosmf.MetricTicks(480)

	var meta gosmf.Track
	meta.Close(0)
	if err := s.Add(meta); err != nil {
		return nil, fmt.Errorf("adding meta track: %w", err)
	}

	var prog gosmf.Track
	for _, inst := range src {
		if inst == '.' {
			for _, key := range outputChord {
				prog.Add(encodeTicks, midi.NoteOn(encodeChannel, key, encodeVelocity))
			}
			for i := len(outputChord) - 1; i >= 0; i-- {
				prog.Add(encodeTicks, midi.NoteOffVelocity(encodeChannel, outputChord[i], encodeVelocity))
			}
			continue
		}
		key, ok := bfKeys[inst]
		if !ok {
			continue
		}
		prog.Add(encodeTicks, midi.NoteOn(encodeChannel, key, encodeVelocity))
		prog.Add(encodeTicks, midi.NoteOffVelocity(encodeChannel, key, encodeVelocity))
	}
	prog.Close(0)
	if err := s.Add(prog); err != nil {
		return nil, fmt.Errorf("adding program track: %w", err)
	}

	return s, nil
}

// EncodeBrainfuckFile reads brainfuck source from srcPath and writes the
// chord-encoded SMF to outPath.
func EncodeBrainfuckFile(srcPath, outPath string) error {
	src, err := os.ReadFile(srcPath)
	if err != nil {
		return fmt.Errorf("reading %s: %w", srcPath, err)
	}
	s, err := EncodeBrainfuck(string(src))
	if err != nil {
		return err
	}
	if err := s.WriteFile(outPath); err != nil {
		return fmt.Errorf("writing %s: %w", outPath, err)
	}
	log.Infof("encoded %s to %s", srcPath, outPath)
	return nil
}
