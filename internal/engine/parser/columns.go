package parser

import "unicode/utf8"

// ByteColToCharCol converts a 1-indexed byte column within line to a
// 1-indexed character column. Malformed UTF-8 is counted one rune per
// invalid byte, the same way a lossy decode would replace it. Columns past
// the end of line are clamped.
func ByteColToCharCol(line []byte, byteCol int) int {
	end := byteCol - 1
	if end <= 0 {
		return 1
	}
	if end > len(line) {
		end = len(line)
	}
	return utf8.RuneCount(line[:end]) + 1
}
