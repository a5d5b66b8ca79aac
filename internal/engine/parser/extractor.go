package parser

import (
	"fmt"
	"sync"

	"autosg/internal/core/errors"

	sitter "github.com/tree-sitter/go-tree-sitter"
)

// Extractor yields identifier occurrences from canonical UTF-8 source.
type Extractor struct {
	loader    *GrammarLoader
	languages *Languages

	mu    sync.Mutex
	pools map[string]*ParserPool
}

func NewExtractor(loader *GrammarLoader, languages *Languages) *Extractor {
	if languages == nil {
		languages = NewLanguages(nil)
	}
	return &Extractor{
		loader:    loader,
		languages: languages,
		pools:     make(map[string]*ParserPool),
	}
}

func (e *Extractor) Languages() *Languages {
	return e.languages
}

// Extract parses src with the grammar for lang and returns every leaf node
// whose kind is in lang's identifier kind set, in document order.
func (e *Extractor) Extract(src []byte, lang string) ([]Occurrence, error) {
	if lang == "" {
		return nil, errors.New(errors.CodeUnsupportedLanguage, "no language tag")
	}

	pool, err := e.pool(lang)
	if err != nil {
		return nil, err
	}

	sp := pool.Get()
	defer pool.Put(sp)

	tree := sp.Parse(src, nil)
	if tree == nil {
		return nil, errors.AddContext(
			errors.New(errors.CodeInternal, fmt.Sprintf("parser returned no tree for %s", lang)),
			errors.CtxLanguage, lang,
		)
	}
	defer tree.Close()

	kinds := e.languages.IdentifierKinds(lang)
	return collectIdentifiers(tree.RootNode(), src, kinds), nil
}

func (e *Extractor) pool(lang string) (*ParserPool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if pool, ok := e.pools[lang]; ok {
		return pool, nil
	}
	grammar, err := e.loader.Language(lang)
	if err != nil {
		return nil, err
	}
	pool := NewParserPool(lang, grammar)
	e.pools[lang] = pool
	return pool, nil
}

// collectIdentifiers walks the tree depth-first with a cursor so that deep
// trees do not grow the goroutine stack.
func collectIdentifiers(root *sitter.Node, src []byte, kinds map[string]bool) []Occurrence {
	var out []Occurrence
	if root == nil {
		return out
	}

	cursor := root.Walk()
	defer cursor.Close()

	for {
		node := cursor.Node()
		if node.ChildCount() == 0 && kinds[node.Kind()] {
			start := node.StartPosition()
			out = append(out, Occurrence{
				Row:     int(start.Row) + 1,
				ByteCol: int(start.Column) + 1,
				Text:    string(src[node.StartByte():node.EndByte()]),
			})
		}

		if cursor.GotoFirstChild() {
			continue
		}
		for !cursor.GotoNextSibling() {
			if !cursor.GotoParent() {
				return out
			}
		}
	}
}
