package parser

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"autosg/internal/core/errors"
	"autosg/internal/engine/parser/grammar"
	"autosg/internal/shared/util"

	sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_bash "github.com/tree-sitter/tree-sitter-bash/bindings/go"
	tree_sitter_c "github.com/tree-sitter/tree-sitter-c/bindings/go"
	tree_sitter_c_sharp "github.com/tree-sitter/tree-sitter-c-sharp/bindings/go"
	tree_sitter_cpp "github.com/tree-sitter/tree-sitter-cpp/bindings/go"
	tree_sitter_css "github.com/tree-sitter/tree-sitter-css/bindings/go"
	tree_sitter_go "github.com/tree-sitter/tree-sitter-go/bindings/go"
	tree_sitter_haskell "github.com/tree-sitter/tree-sitter-haskell/bindings/go"
	tree_sitter_html "github.com/tree-sitter/tree-sitter-html/bindings/go"
	tree_sitter_java "github.com/tree-sitter/tree-sitter-java/bindings/go"
	tree_sitter_javascript "github.com/tree-sitter/tree-sitter-javascript/bindings/go"
	tree_sitter_json "github.com/tree-sitter/tree-sitter-json/bindings/go"
	tree_sitter_julia "github.com/tree-sitter/tree-sitter-julia/bindings/go"
	tree_sitter_ocaml "github.com/tree-sitter/tree-sitter-ocaml/bindings/go"
	tree_sitter_php "github.com/tree-sitter/tree-sitter-php/bindings/go"
	tree_sitter_python "github.com/tree-sitter/tree-sitter-python/bindings/go"
	tree_sitter_ruby "github.com/tree-sitter/tree-sitter-ruby/bindings/go"
	tree_sitter_rust "github.com/tree-sitter/tree-sitter-rust/bindings/go"
	tree_sitter_scala "github.com/tree-sitter/tree-sitter-scala/bindings/go"
	tree_sitter_typescript "github.com/tree-sitter/tree-sitter-typescript/bindings/go"
)

// Grammar sources reported by GrammarLoader.Status.
const (
	GrammarBuiltin = "builtin"
	GrammarDynamic = "dynamic"
	GrammarMissing = "missing"
)

// GrammarLoader resolves language tags to tree-sitter grammars. Grammars
// compiled into the binary are always available; the rest come from shared
// objects listed in grammars_path/manifest.toml and are opened on first use.
type GrammarLoader struct {
	grammarsPath string
	builtin      map[string]func() *sitter.Language
	artifacts    map[string]grammar.GrammarArtifact

	mu     sync.Mutex
	loaded map[string]*sitter.Language
}

func builtinGrammars() map[string]func() *sitter.Language {
	return map[string]func() *sitter.Language{
		"bash":       func() *sitter.Language { return sitter.NewLanguage(tree_sitter_bash.Language()) },
		"c":          func() *sitter.Language { return sitter.NewLanguage(tree_sitter_c.Language()) },
		"c_sharp":    func() *sitter.Language { return sitter.NewLanguage(tree_sitter_c_sharp.Language()) },
		"cpp":        func() *sitter.Language { return sitter.NewLanguage(tree_sitter_cpp.Language()) },
		"css":        func() *sitter.Language { return sitter.NewLanguage(tree_sitter_css.Language()) },
		"go":         func() *sitter.Language { return sitter.NewLanguage(tree_sitter_go.Language()) },
		"haskell":    func() *sitter.Language { return sitter.NewLanguage(tree_sitter_haskell.Language()) },
		"html":       func() *sitter.Language { return sitter.NewLanguage(tree_sitter_html.Language()) },
		"java":       func() *sitter.Language { return sitter.NewLanguage(tree_sitter_java.Language()) },
		"javascript": func() *sitter.Language { return sitter.NewLanguage(tree_sitter_javascript.Language()) },
		"json":       func() *sitter.Language { return sitter.NewLanguage(tree_sitter_json.Language()) },
		"julia":      func() *sitter.Language { return sitter.NewLanguage(tree_sitter_julia.Language()) },
		"ocaml":      func() *sitter.Language { return sitter.NewLanguage(tree_sitter_ocaml.LanguageOCaml()) },
		"php":        func() *sitter.Language { return sitter.NewLanguage(tree_sitter_php.LanguagePHP()) },
		"python":     func() *sitter.Language { return sitter.NewLanguage(tree_sitter_python.Language()) },
		"ruby":       func() *sitter.Language { return sitter.NewLanguage(tree_sitter_ruby.Language()) },
		"rust":       func() *sitter.Language { return sitter.NewLanguage(tree_sitter_rust.Language()) },
		"scala":      func() *sitter.Language { return sitter.NewLanguage(tree_sitter_scala.Language()) },
		"tsx":        func() *sitter.Language { return sitter.NewLanguage(tree_sitter_typescript.LanguageTSX()) },
		"typescript": func() *sitter.Language { return sitter.NewLanguage(tree_sitter_typescript.LanguageTypescript()) },
	}
}

// NewGrammarLoader creates a loader. An empty or absent grammarsPath limits
// the loader to built-in grammars. With verifyArtifacts set, every manifest
// artifact must match its recorded sha256 before anything is loaded.
func NewGrammarLoader(grammarsPath string, verifyArtifacts bool) (*GrammarLoader, error) {
	gl := &GrammarLoader{
		grammarsPath: grammarsPath,
		builtin:      builtinGrammars(),
		artifacts:    make(map[string]grammar.GrammarArtifact),
		loaded:       make(map[string]*sitter.Language),
	}
	if grammarsPath == "" {
		return gl, nil
	}

	info, err := os.Stat(grammarsPath)
	if err != nil {
		if os.IsNotExist(err) {
			return gl, nil
		}
		return nil, err
	}
	if !info.IsDir() {
		return nil, errors.New(errors.CodeValidationError, fmt.Sprintf("grammars path is not a directory: %s", grammarsPath))
	}

	manifestPath := filepath.Join(grammarsPath, grammar.ManifestFile)
	if _, err := os.Stat(manifestPath); os.IsNotExist(err) {
		return gl, nil
	}
	manifest, err := grammar.LoadGrammarManifest(manifestPath)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeValidationError, "load grammar manifest")
	}

	if verifyArtifacts {
		issues, err := grammar.VerifyGrammarArtifacts(grammarsPath, manifest)
		if err != nil {
			return nil, err
		}
		if len(issues) > 0 {
			first := issues[0]
			return nil, errors.New(errors.CodeValidationError, fmt.Sprintf(
				"grammar verification failed (%d issues): %s (%s: %s)",
				len(issues),
				first.Language,
				first.ArtifactPath,
				first.Reason,
			))
		}
	}

	for _, artifact := range manifest.Artifacts {
		gl.artifacts[artifact.Language] = artifact
	}
	return gl, nil
}

// Language returns the grammar for tag. A tag with neither a built-in binding
// nor a manifest artifact yields CodeGrammarUnavailable.
func (gl *GrammarLoader) Language(tag string) (*sitter.Language, error) {
	gl.mu.Lock()
	defer gl.mu.Unlock()

	if lang, ok := gl.loaded[tag]; ok {
		return lang, nil
	}

	var lang *sitter.Language
	if ctor, ok := gl.builtin[tag]; ok {
		lang = ctor()
	} else if artifact, ok := gl.artifacts[tag]; ok {
		path := filepath.Join(gl.grammarsPath, artifact.SharedObjectPath)
		dyn, err := grammar.LoadDynamic(path, tag)
		if err != nil {
			return nil, errors.AddContext(
				errors.Wrap(err, errors.CodeGrammarUnavailable, "load dynamic grammar"),
				errors.CtxLanguage, tag,
			)
		}
		lang = dyn
	} else {
		return nil, errors.AddContext(
			errors.New(errors.CodeGrammarUnavailable, fmt.Sprintf("no grammar available for language %q", tag)),
			errors.CtxLanguage, tag,
		)
	}

	gl.loaded[tag] = lang
	return lang, nil
}

// Status reports where the grammar for tag would come from.
func (gl *GrammarLoader) Status(tag string) string {
	if _, ok := gl.builtin[tag]; ok {
		return GrammarBuiltin
	}
	if _, ok := gl.artifacts[tag]; ok {
		return GrammarDynamic
	}
	return GrammarMissing
}

// Available lists every tag with a built-in or manifest grammar.
func (gl *GrammarLoader) Available() []string {
	set := make(map[string]bool, len(gl.builtin)+len(gl.artifacts))
	for tag := range gl.builtin {
		set[tag] = true
	}
	for tag := range gl.artifacts {
		set[tag] = true
	}
	return util.SortedStringKeys(set)
}

func (gl *GrammarLoader) GrammarsPath() string {
	return gl.grammarsPath
}
