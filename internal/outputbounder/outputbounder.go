// Package outputbounder truncates strings and byte streams to declared
// caps, marking whether truncation occurred so callers can signal it on
// through to the agent. Grounded on the truncation conventions in the
// teacher's internal/tools/result.go (for_llm/truncated reporting idiom);
// stdlib unicode/utf8 is used for code-point-safe text clipping because no
// pack dependency does this more specifically than the standard library.
package outputbounder

import "unicode/utf8"

// Bound clips s to at most capBytes bytes, cutting at the last valid
// rune boundary at or before the cap so truncated text never ends with a
// partial UTF-8 sequence. Returns the clipped text, whether it was
// truncated, and the original byte length.
func Bound(s string, capBytes int) (clipped string, truncated bool, totalSize int) {
	totalSize = len(s)
	if capBytes < 0 {
		capBytes = 0
	}
	if totalSize <= capBytes {
		return s, false, totalSize
	}
	cut := capBytes
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut], true, totalSize
}

// BoundBytes clips b to at most capBytes bytes, byte-exact (no code-point
// awareness — used for binary content where there is no notion of a rune
// boundary). Returns the clipped slice, whether it was truncated, and the
// original length.
func BoundBytes(b []byte, capBytes int) (clipped []byte, truncated bool, totalSize int) {
	totalSize = len(b)
	if capBytes < 0 {
		capBytes = 0
	}
	if totalSize <= capBytes {
		return b, false, totalSize
	}
	out := make([]byte, capBytes)
	copy(out, b[:capBytes])
	return out, true, totalSize
}
