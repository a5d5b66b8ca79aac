package parser

import "testing"

func TestByteColToCharCol(t *testing.T) {
	tests := []struct {
		name    string
		line    string
		byteCol int
		want    int
	}{
		{name: "ascii start", line: "foo = 1", byteCol: 1, want: 1},
		{name: "ascii middle", line: "foo = foo", byteCol: 7, want: 7},
		{name: "after two byte rune", line: "größe = x", byteCol: 11, want: 9},
		{name: "after four byte rune", line: "😀 = x", byteCol: 8, want: 5},
		{name: "invalid bytes count individually", line: "\xff\xfe x", byteCol: 4, want: 4},
		{name: "clamped past end", line: "ab", byteCol: 10, want: 3},
		{name: "zero column", line: "ab", byteCol: 0, want: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ByteColToCharCol([]byte(tt.line), tt.byteCol); got != tt.want {
				t.Fatalf("ByteColToCharCol(%q, %d) = %d, want %d", tt.line, tt.byteCol, got, tt.want)
			}
		})
	}
}
