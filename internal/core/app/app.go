package app

import (
	"fmt"
	"strings"
	"sync"

	"autosg/internal/core/config"
	"autosg/internal/engine/annotate"
	"autosg/internal/engine/parser"
	"autosg/internal/engine/resolver"
	"autosg/internal/engine/secrets"
	"autosg/internal/shared/util"

	"github.com/gobwas/glob"
)

// Dependencies lets callers replace the grammar-backed pieces of an App.
type Dependencies struct {
	Extractor annotate.Extractor
	Languages *parser.Languages
	Resolver  *resolver.Resolver
}

// App runs the batch commands over files on disk.
type App struct {
	Config    *config.Config
	Languages *parser.Languages
	Loader    *parser.GrammarLoader

	extractor annotate.Extractor
	annotator *annotate.Annotator
	resolver  *resolver.Resolver
	secrets   *secrets.Detector

	mu           sync.RWMutex
	style        annotate.Style
	excludeDirs  []glob.Glob
	excludeFiles []glob.Glob
}

// New builds an App whose extractor loads grammars from cfg.GrammarsPath.
func New(cfg *config.Config) (*App, error) {
	languages, err := BuildLanguages(cfg)
	if err != nil {
		return nil, err
	}
	loader, err := parser.NewGrammarLoader(cfg.GrammarsPath, cfg.GrammarVerification.IsEnabled())
	if err != nil {
		return nil, err
	}

	a, err := NewWithDependencies(cfg, Dependencies{
		Extractor: parser.NewExtractor(loader, languages),
		Languages: languages,
	})
	if err != nil {
		return nil, err
	}
	a.Loader = loader
	return a, nil
}

func NewWithDependencies(cfg *config.Config, deps Dependencies) (*App, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if deps.Extractor == nil {
		return nil, fmt.Errorf("extractor dependency is required")
	}
	languages := deps.Languages
	if languages == nil {
		languages = parser.NewLanguages(nil)
	}

	detector, err := secrets.NewDetector(secrets.Config{})
	if err != nil {
		return nil, err
	}

	a := &App{
		Config:    cfg,
		Languages: languages,
		extractor: deps.Extractor,
		annotator: annotate.NewAnnotator(deps.Extractor),
		resolver:  deps.Resolver,
		secrets:   detector,
	}
	if err := a.applyConfig(cfg); err != nil {
		return nil, err
	}
	return a, nil
}

// SetResolver installs the resolver used by Resolve.
func (a *App) SetResolver(r *resolver.Resolver) {
	a.resolver = r
}

// Reload swaps in the annotation style and exclusions of cfg. Language
// tables and grammars stay as they were built.
func (a *App) Reload(cfg *config.Config) error {
	return a.applyConfig(cfg)
}

func (a *App) applyConfig(cfg *config.Config) error {
	style, err := annotate.LookupStyle(cfg.Annotate.Style)
	if err != nil {
		return err
	}
	dirs, err := util.CompileGlobs(cfg.Exclude.Dirs, "exclude dir")
	if err != nil {
		return err
	}
	files, err := util.CompileGlobs(cfg.Exclude.Files, "exclude file")
	if err != nil {
		return err
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	a.Config = cfg
	a.style = style
	a.excludeDirs = dirs
	a.excludeFiles = files
	return nil
}

func (a *App) Style() annotate.Style {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.style
}

func (a *App) suffix() string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.Config.Annotate.Suffix
}

// IsAnnotatedOutput reports whether path is a file this tool wrote.
func (a *App) IsAnnotatedOutput(path string) bool {
	return strings.HasSuffix(path, a.suffix())
}

// BuildLanguages merges the [languages] overrides of cfg into the built-in
// detection tables.
func BuildLanguages(cfg *config.Config) (*parser.Languages, error) {
	overrides := make(map[string]parser.LanguageOverride, len(cfg.Languages))
	for tag, lang := range cfg.Languages {
		overrides[tag] = parser.LanguageOverride{
			Extensions: lang.Extensions,
			Filenames:  lang.Filenames,
		}
	}
	registry, err := parser.BuildLanguageRegistry(overrides)
	if err != nil {
		return nil, err
	}
	return parser.NewLanguages(registry), nil
}
