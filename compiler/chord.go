package compiler

// ---------------------------------------------------------------------------
// Chord decoder: simultaneous notes -> one instruction
// ---------------------------------------------------------------------------
//
// A chord is decoded in two steps. The pitch class of the lowest note
// selects the operation family, and the remaining notes encode a numeric
// amount as a bitmask: once a base note is chosen, each later distinct note
// v contributes 2^(v-base-1) to the amount. A chord with no qualifying
// extra notes decodes with amount 1.
//
// Everything is interpreted under a fixed C-major mapping; there is no key
// detection. Roots outside the scale fail with NonDiatonicError.

// Pitch classes of the C-major scale degrees used by the mapping.
const (
	rootTonic       = 0  // close loop
	rootSupertonic  = 2  // move left
	rootMediant     = 4  // move right
	rootSubdominant = 5  // decrement
	rootDominant    = 7  // open loop
	rootSubmediant  = 9  // increment
	rootLeadingTone = 11 // input (amount 1) or output
)

// maxGap is the largest base-to-note gap whose power of two still fits in a
// Cell; larger gaps end the accumulation silently.
const maxGap = 6

// DecodeChord decodes a sorted, ascending, nonempty set of simultaneously
// struck note values (0-127) into exactly one instruction, without a
// position. The caller guarantees notes is nonempty and sorted.
//
// The running comparison value starts from the root's pitch class rather
// than the raw lowest note, and advances only when the base note is chosen.
// Duplicates of the base are therefore skipped while duplicates of later
// notes accumulate twice. This matches the encoding scheme this decoder is
// the dual of; compatibility with that scheme defines correctness here.
func DecodeChord(notes []uint8) (Instruction, error) {
	root := notes[0] % 12

	var amount Cell
	var base uint8
	haveAmount := false
	haveBase := false
	prev := root
	for _, v := range notes[1:] {
		if v == prev {
			continue
		}
		if !haveBase {
			base = v
			prev = v
			haveBase = true
			continue
		}
		gap := v - base - 1
		if gap > maxGap {
			break
		}
		amount += Cell(1) << gap
		haveAmount = true
	}
	if !haveAmount {
		amount = 1
	}

	return cMajor(root, amount)
}

// cMajor maps a root pitch class and decoded amount to an instruction.
func cMajor(root uint8, amount Cell) (Instruction, error) {
	switch root {
	case rootTonic:
		return &CloseLoop{}, nil
	case rootSupertonic:
		return &MovePointer{Amount: -int(amount)}, nil
	case rootMediant:
		return &MovePointer{Amount: int(amount)}, nil
	case rootSubdominant:
		return &IncrementCell{Amount: -amount}, nil
	case rootDominant:
		return &OpenLoop{}, nil
	case rootSubmediant:
		return &IncrementCell{Amount: amount}, nil
	case rootLeadingTone:
		if amount == 1 {
			return &InputCell{}, nil
		}
		return &OutputCell{}, nil
	default:
		return nil, &NonDiatonicError{PitchClass: root}
	}
}
