// Package naming derives output filenames for per-channel EXR files,
// inserting the channel name while keeping the trailing frame number in
// place so sequences stay contiguous per channel.
package naming

import (
	"path/filepath"
	"strings"
)

// Transform produces the output filename for one source file and one
// logical channel name: "<base>.<channel><frame><ext>".
//
// The frame suffix is recovered from the end of the stem in two phases:
// first every trailing decimal digit is consumed, then every trailing
// non-letter character (which absorbs separators like "_" or "." that
// precede the digits). Everything before the first letter found from
// the right is the base. When the stem has no trailing digits the
// second phase still strips trailing punctuation; that behavior is part
// of the naming contract.
//
// filename is a bare name, not a path; the extension is preserved.
func Transform(filename, channelName string) string {
	ext := filepath.Ext(filename)
	stem := strings.TrimSuffix(filename, ext)

	end := len(stem)
	for end > 0 && isDigit(stem[end-1]) {
		end--
	}
	for end > 0 && !isAlpha(stem[end-1]) {
		end--
	}

	return stem[:end] + "." + channelName + stem[end:] + ext
}

// FrameSuffix returns the separator-plus-digits run Transform would
// preserve from the stem of filename. Useful for verifying that an
// output name keeps the same frame numbering as its source.
func FrameSuffix(filename string) string {
	ext := filepath.Ext(filename)
	stem := strings.TrimSuffix(filename, ext)

	end := len(stem)
	for end > 0 && isDigit(stem[end-1]) {
		end--
	}
	for end > 0 && !isAlpha(stem[end-1]) {
		end--
	}
	return stem[end:]
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func isAlpha(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}
