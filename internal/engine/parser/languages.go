package parser

import (
	"fmt"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"autosg/internal/shared/util"
)

// LanguageSpec describes how a language tag is detected and which leaf node
// kinds count as identifiers in its grammar.
type LanguageSpec struct {
	Name            string
	Extensions      []string
	Filenames       []string
	IdentifierKinds []string
}

// LanguageOverride extends a tag's detection tables from configuration.
type LanguageOverride struct {
	Extensions []string
	Filenames  []string
}

// DefaultIdentifierKinds applies to every tag without its own kind set.
var DefaultIdentifierKinds = []string{"identifier"}

func DefaultLanguageRegistry() map[string]LanguageSpec {
	specs := []LanguageSpec{
		{Name: "bash", Extensions: []string{".bash", ".sh", ".zsh"}, IdentifierKinds: []string{"variable_name"}},
		{Name: "c", Extensions: []string{".c", ".h"}, IdentifierKinds: []string{"identifier", "field_identifier", "type_identifier"}},
		{Name: "c_sharp", Extensions: []string{".cs"}},
		{Name: "commonlisp", Extensions: []string{".cl", ".lisp", ".lsp"}, IdentifierKinds: []string{"sym_lit"}},
		{Name: "cpp", Extensions: []string{".cc", ".cpp", ".cxx", ".hh", ".hpp", ".hxx"}, IdentifierKinds: []string{"identifier", "field_identifier", "namespace_identifier", "type_identifier"}},
		{Name: "css", Extensions: []string{".css"}},
		{Name: "dockerfile", Filenames: []string{"Dockerfile"}},
		{Name: "dot", Extensions: []string{".dot", ".gv"}},
		{Name: "elisp", Extensions: []string{".el"}, IdentifierKinds: []string{"symbol"}},
		{Name: "elixir", Extensions: []string{".ex", ".exs"}},
		{Name: "elm", Extensions: []string{".elm"}, IdentifierKinds: []string{"lower_case_identifier", "upper_case_identifier"}},
		{Name: "erlang", Extensions: []string{".erl", ".hrl"}, IdentifierKinds: []string{"atom", "var"}},
		{Name: "fortran", Extensions: []string{".f", ".f03", ".f08", ".f90", ".f95", ".for", ".fpp"}},
		{Name: "go", Extensions: []string{".go"}, IdentifierKinds: []string{"identifier", "field_identifier", "package_identifier", "type_identifier"}},
		{Name: "gomod", Filenames: []string{"go.mod"}},
		{Name: "hack", Extensions: []string{".hack"}},
		{Name: "haskell", Extensions: []string{".hs", ".lhs"}, IdentifierKinds: []string{"variable", "type"}},
		{Name: "hcl", Extensions: []string{".hcl", ".tf", ".tfvars"}},
		{Name: "html", Extensions: []string{".htm", ".html"}},
		{Name: "java", Extensions: []string{".java"}, IdentifierKinds: []string{"identifier", "type_identifier"}},
		{Name: "javascript", Extensions: []string{".cjs", ".js", ".mjs"}, IdentifierKinds: []string{"identifier", "property_identifier"}},
		{Name: "jsdoc"},
		{Name: "json", Extensions: []string{".json"}},
		{Name: "julia", Extensions: []string{".jl"}},
		{Name: "kotlin", Extensions: []string{".kt", ".kts"}, IdentifierKinds: []string{"simple_identifier", "type_identifier"}},
		{Name: "lua", Extensions: []string{".lua"}},
		{Name: "make", Filenames: []string{"GNUmakefile", "Makefile", "makefile"}},
		{Name: "markdown", Extensions: []string{".markdown", ".md"}},
		{Name: "objc", Extensions: []string{".m"}},
		{Name: "ocaml", Extensions: []string{".ml", ".mli"}, IdentifierKinds: []string{"value_name", "value_pattern", "module_name", "type_constructor"}},
		{Name: "perl", Extensions: []string{".pl", ".pm"}},
		{Name: "php", Extensions: []string{".php"}, IdentifierKinds: []string{"name"}},
		{Name: "python", Extensions: []string{".py", ".pyi"}},
		{Name: "ql", Extensions: []string{".ql", ".qll"}, IdentifierKinds: []string{"simpleId", "predicateName", "className"}},
		{Name: "r", Extensions: []string{".R", ".r"}},
		{Name: "rst", Extensions: []string{".rst"}},
		{Name: "ruby", Extensions: []string{".rb"}},
		{Name: "rust", Extensions: []string{".rs"}, IdentifierKinds: []string{"identifier", "field_identifier", "type_identifier"}},
		{Name: "scala", Extensions: []string{".sc", ".scala"}, IdentifierKinds: []string{"identifier", "type_identifier", "operator_identifier"}},
		{Name: "sql", Extensions: []string{".sql"}},
		{Name: "sqlite"},
		{Name: "toml", Extensions: []string{".toml"}},
		{Name: "tsx", Extensions: []string{".tsx"}, IdentifierKinds: []string{"identifier", "property_identifier", "type_identifier"}},
		{Name: "typescript", Extensions: []string{".ts"}, IdentifierKinds: []string{"identifier", "property_identifier", "type_identifier"}},
		{Name: "yaml", Extensions: []string{".yaml", ".yml"}},
	}

	registry := make(map[string]LanguageSpec, len(specs))
	for _, spec := range specs {
		spec.Extensions = normalizeExtensions(spec.Extensions)
		spec.Filenames = normalizeFilenames(spec.Filenames)
		registry[spec.Name] = spec
	}
	return registry
}

func BuildLanguageRegistry(overrides map[string]LanguageOverride) (map[string]LanguageSpec, error) {
	registry := cloneLanguageRegistry(DefaultLanguageRegistry())
	for _, language := range util.SortedStringKeys(overrides) {
		override := overrides[language]
		spec, ok := registry[language]
		if !ok {
			return nil, fmt.Errorf("unknown language override %q", language)
		}
		if len(override.Extensions) > 0 {
			spec.Extensions = normalizeExtensions(append(spec.Extensions, override.Extensions...))
		}
		if len(override.Filenames) > 0 {
			spec.Filenames = normalizeFilenames(append(spec.Filenames, override.Filenames...))
		}
		registry[language] = spec
	}

	if err := validateLanguageRegistry(registry); err != nil {
		return nil, err
	}
	return registry, nil
}

// Languages maps file paths to language tags. Exact file names take
// precedence over extensions.
type Languages struct {
	registry   map[string]LanguageSpec
	extensions map[string]string
	filenames  map[string]string
	kinds      map[string]map[string]bool
}

func NewLanguages(registry map[string]LanguageSpec) *Languages {
	if registry == nil {
		registry = DefaultLanguageRegistry()
	}
	l := &Languages{
		registry:   cloneLanguageRegistry(registry),
		extensions: make(map[string]string),
		filenames:  make(map[string]string),
		kinds:      make(map[string]map[string]bool, len(registry)),
	}
	for lang, spec := range l.registry {
		for _, ext := range spec.Extensions {
			l.extensions[ext] = lang
		}
		for _, name := range spec.Filenames {
			l.filenames[name] = lang
		}
		kinds := spec.IdentifierKinds
		if len(kinds) == 0 {
			kinds = DefaultIdentifierKinds
		}
		set := make(map[string]bool, len(kinds))
		for _, kind := range kinds {
			set[kind] = true
		}
		l.kinds[lang] = set
	}
	return l
}

// Detect returns the language tag for path, or "" when neither table matches.
func (l *Languages) Detect(filePath string) string {
	base := strings.ToLower(filepath.Base(filePath))
	if lang, ok := l.filenames[base]; ok {
		return lang
	}
	ext := strings.ToLower(filepath.Ext(base))
	if ext == "" {
		return ""
	}
	return l.extensions[ext]
}

// IdentifierKinds returns the identifier node kinds for lang. Tags that are
// not tabulated get DefaultIdentifierKinds.
func (l *Languages) IdentifierKinds(lang string) map[string]bool {
	if set, ok := l.kinds[lang]; ok {
		return set
	}
	set := make(map[string]bool, len(DefaultIdentifierKinds))
	for _, kind := range DefaultIdentifierKinds {
		set[kind] = true
	}
	return set
}

func (l *Languages) Tags() []string {
	return util.SortedStringKeys(l.registry)
}

func (l *Languages) Spec(lang string) (LanguageSpec, bool) {
	spec, ok := l.registry[lang]
	return spec, ok
}

func (l *Languages) SupportedExtensions() []string {
	return util.SortedStringKeys(l.extensions)
}

func (l *Languages) SupportedFilenames() []string {
	return util.SortedStringKeys(l.filenames)
}

func cloneLanguageRegistry(in map[string]LanguageSpec) map[string]LanguageSpec {
	out := make(map[string]LanguageSpec, len(in))
	for id, spec := range in {
		copySpec := spec
		copySpec.Extensions = append([]string(nil), spec.Extensions...)
		copySpec.Filenames = append([]string(nil), spec.Filenames...)
		copySpec.IdentifierKinds = append([]string(nil), spec.IdentifierKinds...)
		out[id] = copySpec
	}
	return out
}

func validateLanguageRegistry(registry map[string]LanguageSpec) error {
	extOwner := make(map[string]string)
	filenameOwner := make(map[string]string)

	for _, id := range util.SortedStringKeys(registry) {
		spec := registry[id]
		for _, ext := range normalizeExtensions(spec.Extensions) {
			if existing, ok := extOwner[ext]; ok && existing != id {
				return fmt.Errorf("duplicate extension %q owned by %q and %q", ext, existing, id)
			}
			extOwner[ext] = id
		}
		for _, filename := range normalizeFilenames(spec.Filenames) {
			if existing, ok := filenameOwner[filename]; ok && existing != id {
				return fmt.Errorf("duplicate filename %q owned by %q and %q", filename, existing, id)
			}
			filenameOwner[filename] = id
		}
	}
	return nil
}

func normalizeExtensions(values []string) []string {
	seen := make(map[string]bool)
	out := make([]string, 0, len(values))
	for _, value := range values {
		raw := strings.TrimSpace(strings.ToLower(value))
		if raw == "" {
			continue
		}
		if !strings.HasPrefix(raw, ".") {
			raw = "." + raw
		}
		if seen[raw] {
			continue
		}
		seen[raw] = true
		out = append(out, raw)
	}
	sort.Strings(out)
	return out
}

func normalizeFilenames(values []string) []string {
	seen := make(map[string]bool)
	out := make([]string, 0, len(values))
	for _, value := range values {
		raw := strings.TrimSpace(strings.ToLower(path.Base(value)))
		if raw == "" || raw == "." {
			continue
		}
		if seen[raw] {
			continue
		}
		seen[raw] = true
		out = append(out, raw)
	}
	sort.Strings(out)
	return out
}
