package annotate

import (
	"fmt"
	"strconv"
	"strings"

	"autosg/internal/core/errors"
	"autosg/internal/shared/util"
)

// Style renders an identifier occurrence with its id.
type Style interface {
	Name() string
	Format(id int, text string) string
}

// DefaultStyle is used when no style is configured.
const DefaultStyle = "guillemet"

type delimited struct {
	name  string
	open  string
	sep   string
	close string
}

func (d delimited) Name() string { return d.name }

func (d delimited) Format(id int, text string) string {
	var b strings.Builder
	b.Grow(len(d.open) + len(d.sep) + len(d.close) + len(text) + 8)
	b.WriteString(d.open)
	b.WriteString(strconv.Itoa(id))
	b.WriteString(d.sep)
	b.WriteString(text)
	b.WriteString(d.close)
	return b.String()
}

var superscriptDigits = [...]string{"⁰", "¹", "²", "³", "⁴", "⁵", "⁶", "⁷", "⁸", "⁹"}

type superscript struct{}

func (superscript) Name() string { return "superscript" }

func (superscript) Format(id int, text string) string {
	var b strings.Builder
	b.WriteString(text)
	if id < 0 {
		b.WriteString("⁻")
		id = -id
	}
	for _, r := range strconv.Itoa(id) {
		b.WriteString(superscriptDigits[r-'0'])
	}
	return b.String()
}

var styles = map[string]Style{
	"guillemet":      delimited{name: "guillemet", open: "«", sep: "|", close: "»"},
	"angle":          delimited{name: "angle", open: "⟨", sep: "|", close: "⟩"},
	"double-bracket": delimited{name: "double-bracket", open: "⟦", sep: "|", close: "⟧"},
	"corner":         delimited{name: "corner", open: "「", sep: "|", close: "」"},
	"superscript":    superscript{},
}

// LookupStyle returns the named style. An empty name selects DefaultStyle.
func LookupStyle(name string) (Style, error) {
	if name == "" {
		name = DefaultStyle
	}
	style, ok := styles[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return nil, errors.New(errors.CodeValidationError, fmt.Sprintf(
			"unknown annotation style %q (available: %s)", name, strings.Join(StyleNames(), ", "),
		))
	}
	return style, nil
}

func StyleNames() []string {
	return util.SortedStringKeys(styles)
}
