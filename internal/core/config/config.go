package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/gobwas/glob"
)

// DefaultFile is looked up in the working directory when -config is not given.
const DefaultFile = "autosg.toml"

type Config struct {
	Version             int                 `toml:"version"`
	GrammarsPath        string              `toml:"grammars_path"`
	GrammarVerification GrammarVerification `toml:"grammar_verification"`
	Languages           map[string]Language `toml:"languages"`
	Annotate            Annotate            `toml:"annotate"`
	Exclude             Exclude             `toml:"exclude"`
	Cache               Cache               `toml:"cache"`
	LLM                 LLM                 `toml:"llm"`
	Watch               Watch               `toml:"watch"`
	Observability       Observability       `toml:"observability"`
}

type GrammarVerification struct {
	Enabled *bool `toml:"enabled"`
}

type Language struct {
	Extensions []string `toml:"extensions"`
	Filenames  []string `toml:"filenames"`
}

type Annotate struct {
	Style         string `toml:"style"`
	Suffix        string `toml:"suffix"`
	ContinuousIDs bool   `toml:"continuous_ids"`
}

type Exclude struct {
	Dirs  []string `toml:"dirs"`
	Files []string `toml:"files"`
}

type Cache struct {
	Enabled       *bool         `toml:"enabled"`
	Backend       string        `toml:"backend"`
	Path          string        `toml:"path"`
	MemoryEntries int           `toml:"memory_entries"`
	BusyTimeout   time.Duration `toml:"busy_timeout"`
}

type LLM struct {
	Model             string  `toml:"model"`
	APIKeyEnv         string  `toml:"api_key_env"`
	RequestsPerSecond float64 `toml:"requests_per_second"`
	Burst             int     `toml:"burst"`
	// SecretPolicy is off, warn or block for credentials found in a request.
	SecretPolicy      string  `toml:"secret_policy"`
}

type Watch struct {
	Debounce time.Duration `toml:"debounce"`
}

type Observability struct {
	MetricsAddr  string `toml:"metrics_addr"`
	OTLPEndpoint string `toml:"otlp_endpoint"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if _, err := toml.Decode(string(data), &cfg); err != nil {
		return nil, err
	}

	applyDefaults(&cfg)
	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadOrDefault loads path, falling back to Default when the file does not
// exist and explicit is false.
func LoadOrDefault(path string, explicit bool) (*Config, error) {
	if _, err := os.Stat(path); err != nil && os.IsNotExist(err) && !explicit {
		return Default(), nil
	}
	return Load(path)
}

func applyDefaults(cfg *Config) {
	if cfg.Version == 0 {
		cfg.Version = 1
	}
	if strings.TrimSpace(cfg.Annotate.Style) == "" {
		cfg.Annotate.Style = "guillemet"
	}
	if strings.TrimSpace(cfg.Annotate.Suffix) == "" {
		cfg.Annotate.Suffix = ".annotated"
	}
	if strings.TrimSpace(cfg.Cache.Backend) == "" {
		cfg.Cache.Backend = "sqlite"
	}
	if cfg.Cache.MemoryEntries <= 0 {
		cfg.Cache.MemoryEntries = 1024
	}
	if cfg.Cache.BusyTimeout <= 0 {
		cfg.Cache.BusyTimeout = 2 * time.Second
	}
	if strings.TrimSpace(cfg.LLM.Model) == "" {
		cfg.LLM.Model = "gemini/gemini-2.5-pro"
	}
	if strings.TrimSpace(cfg.LLM.APIKeyEnv) == "" {
		cfg.LLM.APIKeyEnv = "GEMINI_API_KEY"
	}
	if strings.TrimSpace(cfg.LLM.SecretPolicy) == "" {
		cfg.LLM.SecretPolicy = "warn"
	}
	if cfg.LLM.Burst <= 0 {
		cfg.LLM.Burst = 1
	}
	if cfg.Watch.Debounce == 0 {
		cfg.Watch.Debounce = 500 * time.Millisecond
	}
}

func (g GrammarVerification) IsEnabled() bool {
	if g.Enabled == nil {
		return true
	}
	return *g.Enabled
}

func (c Cache) IsEnabled() bool {
	if c.Enabled == nil {
		return true
	}
	return *c.Enabled
}

// Validate checks a config after defaults have been applied.
func Validate(cfg *Config) error {
	if err := validateVersion(cfg); err != nil {
		return err
	}
	if err := validateGrammarsPath(cfg); err != nil {
		return err
	}
	if err := validateLanguages(cfg); err != nil {
		return err
	}
	if err := validateAnnotate(cfg); err != nil {
		return err
	}
	if err := validateExclude(cfg); err != nil {
		return err
	}
	if err := validateCache(cfg); err != nil {
		return err
	}
	return validateLLM(cfg)
}

func validateVersion(cfg *Config) error {
	if cfg.Version < 1 {
		return fmt.Errorf("version must be >= 1, got %d", cfg.Version)
	}
	if cfg.Version > 1 {
		return fmt.Errorf("unsupported config version %d; supported version is 1", cfg.Version)
	}
	return nil
}

func validateGrammarsPath(cfg *Config) error {
	path := strings.TrimSpace(cfg.GrammarsPath)
	if path == "" {
		return nil
	}
	if info, err := os.Stat(path); err == nil && !info.IsDir() {
		return fmt.Errorf("grammars_path %q is not a directory", path)
	}
	return nil
}

func validateLanguages(cfg *Config) error {
	for language, settings := range cfg.Languages {
		if strings.TrimSpace(language) == "" {
			return fmt.Errorf("languages key must not be empty")
		}
		if len(settings.Extensions) == 0 && len(settings.Filenames) == 0 {
			return fmt.Errorf("languages.%s must define extensions or filenames", language)
		}
		for _, ext := range settings.Extensions {
			if strings.TrimSpace(ext) == "" {
				return fmt.Errorf("languages.%s.extensions must not include empty values", language)
			}
		}
		for _, name := range settings.Filenames {
			if strings.TrimSpace(name) == "" {
				return fmt.Errorf("languages.%s.filenames must not include empty values", language)
			}
		}
	}
	return nil
}

func validateAnnotate(cfg *Config) error {
	suffix := strings.TrimSpace(cfg.Annotate.Suffix)
	if !strings.HasPrefix(suffix, ".") || strings.ContainsAny(suffix, `/\`) {
		return fmt.Errorf("annotate.suffix must start with '.' and not contain path separators, got %q", cfg.Annotate.Suffix)
	}
	return nil
}

func validateExclude(cfg *Config) error {
	for i, pattern := range cfg.Exclude.Dirs {
		if _, err := glob.Compile(pattern); err != nil {
			return fmt.Errorf("exclude.dirs[%d] %q: %w", i, pattern, err)
		}
	}
	for i, pattern := range cfg.Exclude.Files {
		if _, err := glob.Compile(pattern); err != nil {
			return fmt.Errorf("exclude.files[%d] %q: %w", i, pattern, err)
		}
	}
	return nil
}

func validateCache(cfg *Config) error {
	backend := strings.ToLower(strings.TrimSpace(cfg.Cache.Backend))
	if backend != "sqlite" && backend != "memory" {
		return fmt.Errorf("cache.backend must be one of: sqlite, memory")
	}
	return nil
}

func validateLLM(cfg *Config) error {
	if strings.TrimSpace(cfg.LLM.Model) == "" {
		return fmt.Errorf("llm.model must not be empty")
	}
	if cfg.LLM.RequestsPerSecond < 0 {
		return fmt.Errorf("llm.requests_per_second must be >= 0, got %v", cfg.LLM.RequestsPerSecond)
	}
	switch strings.ToLower(strings.TrimSpace(cfg.LLM.SecretPolicy)) {
	case "off", "warn", "block":
	default:
		return fmt.Errorf("llm.secret_policy must be one of: off, warn, block")
	}
	return nil
}
