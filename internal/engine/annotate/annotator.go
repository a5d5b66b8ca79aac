package annotate

import (
	"bytes"
	"fmt"
	"sort"

	"autosg/internal/core/errors"
	"autosg/internal/engine/parser"
)

// Extractor produces identifier occurrences for a canonical UTF-8 buffer.
type Extractor interface {
	Extract(src []byte, lang string) ([]parser.Occurrence, error)
}

// Annotated is an occurrence with its assigned id.
type Annotated struct {
	parser.Occurrence
	ID int
}

type Annotator struct {
	extractor Extractor
}

func NewAnnotator(extractor Extractor) *Annotator {
	return &Annotator{extractor: extractor}
}

// Annotate wraps every identifier in src with style, numbering them from
// startID in extraction order, and returns the rewritten buffer together with
// the next unused id. Bytes outside identifier spans are left untouched.
func (a *Annotator) Annotate(src []byte, lang string, style Style, startID int) ([]byte, int, error) {
	occs, err := a.extractor.Extract(src, lang)
	if err != nil {
		return nil, startID, err
	}
	assigned := AssignIDs(occs, startID)
	out, err := Splice(src, assigned, style)
	if err != nil {
		return nil, startID, errors.AddContext(err, errors.CtxLanguage, lang)
	}
	return out, startID + len(assigned), nil
}

// AssignIDs numbers occs start, start+1, ... in the order given.
func AssignIDs(occs []parser.Occurrence, start int) []Annotated {
	out := make([]Annotated, len(occs))
	for i, occ := range occs {
		out[i] = Annotated{Occurrence: occ, ID: start + i}
	}
	return out
}

// SplitLines splits src after every '\n', keeping the terminator, so that
// rows line up with tree-sitter's row numbering. A trailing segment without a
// newline is its own row.
func SplitLines(src []byte) [][]byte {
	var lines [][]byte
	for len(src) > 0 {
		i := bytes.IndexByte(src, '\n')
		if i < 0 {
			lines = append(lines, src)
			break
		}
		lines = append(lines, src[:i+1])
		src = src[i+1:]
	}
	return lines
}

// Splice replaces each occurrence's byte span with style's rendering. Within a
// row, replacements run from the highest column to the lowest so that pending
// offsets never move. Any occurrence that does not sit exactly on its claimed
// bytes fails with CodeExtractionInconsistent.
func Splice(src []byte, occs []Annotated, style Style) ([]byte, error) {
	if len(occs) == 0 {
		return append([]byte(nil), src...), nil
	}

	lines := SplitLines(src)
	byRow := make(map[int][]Annotated)
	for _, occ := range occs {
		if occ.Row < 1 || occ.Row > len(lines) {
			return nil, inconsistent(occ, fmt.Sprintf("row %d outside 1..%d", occ.Row, len(lines)))
		}
		byRow[occ.Row] = append(byRow[occ.Row], occ)
	}

	var out bytes.Buffer
	out.Grow(len(src) + len(occs)*8)
	for i, line := range lines {
		row := i + 1
		pending, ok := byRow[row]
		if !ok {
			out.Write(line)
			continue
		}
		rewritten, err := spliceRow(line, pending, style)
		if err != nil {
			return nil, err
		}
		out.Write(rewritten)
	}
	return out.Bytes(), nil
}

func spliceRow(line []byte, occs []Annotated, style Style) ([]byte, error) {
	sort.SliceStable(occs, func(i, j int) bool {
		return occs[i].ByteCol > occs[j].ByteCol
	})

	buf := append([]byte(nil), line...)
	limit := len(line)
	for _, occ := range occs {
		start := occ.ByteCol - 1
		end := start + occ.ByteLen()
		if start < 0 || end > len(line) {
			return nil, inconsistent(occ, fmt.Sprintf("span %d..%d outside row of %d bytes", start, end, len(line)))
		}
		if end > limit {
			return nil, inconsistent(occ, "overlaps a later occurrence on the same row")
		}
		if !bytes.Equal(line[start:end], []byte(occ.Text)) {
			return nil, inconsistent(occ, fmt.Sprintf("source bytes %q do not match identifier", line[start:end]))
		}

		marker := style.Format(occ.ID, occ.Text)
		next := make([]byte, 0, len(buf)-occ.ByteLen()+len(marker))
		next = append(next, buf[:start]...)
		next = append(next, marker...)
		next = append(next, buf[end:]...)
		buf = next
		limit = start
	}
	return buf, nil
}

func inconsistent(occ Annotated, detail string) error {
	err := errors.New(errors.CodeExtractionInconsistent, fmt.Sprintf("identifier %q (id %d): %s", occ.Text, occ.ID, detail))
	err = errors.AddContext(err, errors.CtxRow, occ.Row)
	return errors.AddContext(err, errors.CtxColumn, occ.ByteCol)
}
