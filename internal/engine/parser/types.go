package parser

// Occurrence is one identifier token in canonical UTF-8 source.
// Row and ByteCol are 1-indexed; ByteCol counts bytes within the row.
type Occurrence struct {
	Row     int
	ByteCol int
	Text    string
}

// ByteLen is the length of the identifier in canonical UTF-8 bytes.
func (o Occurrence) ByteLen() int {
	return len(o.Text)
}
