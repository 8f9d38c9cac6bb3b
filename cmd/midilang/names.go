package main

import "strings"

// binaryName strips a .mid or .bf extension from a source file name.
func binaryName(src string) string {
	for _, ext := range []string{".mid", ".bf"} {
		if trimmed, ok := strings.CutSuffix(src, ext); ok {
			return trimmed
		}
	}
	return src
}

// midiName returns the MIDI file name corresponding to a source file name.
func midiName(src string) string {
	return binaryName(src) + ".mid"
}

// objectName returns the object file name corresponding to a source file
// name.
func objectName(src string) string {
	return binaryName(src) + ".o"
}
