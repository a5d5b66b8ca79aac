//go:build windows

package grammar

import (
	"fmt"

	sitter "github.com/tree-sitter/go-tree-sitter"
)

// LoadDynamic is unavailable on Windows; only built-in grammars can be used there.
func LoadDynamic(path, langName string) (*sitter.Language, error) {
	return nil, fmt.Errorf("dynamic grammar loading is currently not supported on Windows")
}
