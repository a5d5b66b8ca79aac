package parser

import (
	"sync"

	"autosg/internal/shared/observability"

	sitter "github.com/tree-sitter/go-tree-sitter"
)

// ParserPool hands out parsers bound to one language tag. The Extractor keeps
// one pool per tag, so a batch over many files of the same language reuses
// a handful of parsers instead of creating one per file.
type ParserPool struct {
	tag     string
	grammar *sitter.Language
	free    sync.Pool
}

func NewParserPool(tag string, grammar *sitter.Language) *ParserPool {
	p := &ParserPool{tag: tag, grammar: grammar}
	p.free.New = func() any {
		return sitter.NewParser()
	}
	return p
}

// Tag is the language tag the pool parses.
func (p *ParserPool) Tag() string {
	return p.tag
}

// Get checks out a parser set to the pool's grammar. Every Get must be paired
// with a Put.
func (p *ParserPool) Get() *sitter.Parser {
	sp := p.free.Get().(*sitter.Parser)
	// A recycled parser keeps its language, but setting it again is cheap and
	// covers parsers reset by their last holder.
	_ = sp.SetLanguage(p.grammar)
	observability.ParsersInUse.WithLabelValues(p.tag).Inc()
	return sp
}

// Put resets sp and makes it available again. Nil is ignored.
func (p *ParserPool) Put(sp *sitter.Parser) {
	if sp == nil {
		return
	}
	observability.ParsersInUse.WithLabelValues(p.tag).Dec()
	sp.Reset()
	p.free.Put(sp)
}
