package compiler

import (
	"errors"
	"fmt"
	"strings"
)

// ---------------------------------------------------------------------------
// Errors: parse-stage failure taxonomy
// ---------------------------------------------------------------------------
//
// Every error here is fatal for the compilation unit: the pipeline aborts
// immediately and reports the error to the caller. Nothing is retried.

// ErrNoTracks indicates the input file carried no track data to decode.
var ErrNoTracks = errors.New("file has no tracks to parse")

// NonDiatonicError indicates a chord whose root pitch class maps to no
// operation in the diatonic table.
type NonDiatonicError struct {
	PitchClass uint8
}

func (e *NonDiatonicError) Error() string {
	return fmt.Sprintf("non-diatonic root pitch class %d", e.PitchClass)
}

// DanglingLoopError indicates a close-loop marker with no matching open.
type DanglingLoopError struct {
	Pos Position
}

func (e *DanglingLoopError) Error() string {
	return fmt.Sprintf("dangling close loop at %s", e.Pos)
}

// UnclosedLoopError indicates one or more loops that were opened but never
// closed. Every offending loop is reported, in stack order.
type UnclosedLoopError struct {
	Positions []Position
}

func (e *UnclosedLoopError) Error() string {
	parts := make([]string, len(e.Positions))
	for i, p := range e.Positions {
		parts[i] = p.String()
	}
	return fmt.Sprintf("unclosed loops starting at %s", strings.Join(parts, ", "))
}
