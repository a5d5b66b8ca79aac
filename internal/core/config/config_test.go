package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	tmpfile, err := os.CreateTemp(t.TempDir(), "config*.toml")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := tmpfile.Write([]byte(content)); err != nil {
		t.Fatal(err)
	}
	if err := tmpfile.Close(); err != nil {
		t.Fatal(err)
	}
	return tmpfile.Name()
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
grammars_path = "./grammars"

[annotate]
style = "angle"
continuous_ids = true

[exclude]
dirs = ["vendor", ".git"]
files = ["*.min.js"]

[cache]
backend = "memory"
memory_entries = 16

[llm]
model = "gemini/gemini-2.5-flash"
requests_per_second = 0.5
burst = 2

[watch]
debounce = "250ms"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.GrammarsPath != "./grammars" {
		t.Errorf("expected grammars_path ./grammars, got %s", cfg.GrammarsPath)
	}
	if cfg.Annotate.Style != "angle" || !cfg.Annotate.ContinuousIDs {
		t.Errorf("unexpected annotate section: %+v", cfg.Annotate)
	}
	if cfg.Annotate.Suffix != ".annotated" {
		t.Errorf("expected default suffix, got %q", cfg.Annotate.Suffix)
	}
	if len(cfg.Exclude.Dirs) != 2 || cfg.Exclude.Files[0] != "*.min.js" {
		t.Errorf("unexpected exclude section: %+v", cfg.Exclude)
	}
	if cfg.Cache.Backend != "memory" || cfg.Cache.MemoryEntries != 16 {
		t.Errorf("unexpected cache section: %+v", cfg.Cache)
	}
	if !cfg.Cache.IsEnabled() {
		t.Error("expected cache enabled by default")
	}
	if cfg.LLM.Model != "gemini/gemini-2.5-flash" || cfg.LLM.RequestsPerSecond != 0.5 || cfg.LLM.Burst != 2 {
		t.Errorf("unexpected llm section: %+v", cfg.LLM)
	}
	if cfg.LLM.APIKeyEnv != "GEMINI_API_KEY" {
		t.Errorf("expected default api key env, got %q", cfg.LLM.APIKeyEnv)
	}
	if cfg.Watch.Debounce != 250*time.Millisecond {
		t.Errorf("expected 250ms debounce, got %s", cfg.Watch.Debounce)
	}
}

func TestDefault(t *testing.T) {
	cfg := Default()
	if cfg.Version != 1 {
		t.Errorf("expected version 1, got %d", cfg.Version)
	}
	if cfg.Annotate.Style != "guillemet" {
		t.Errorf("expected guillemet style, got %q", cfg.Annotate.Style)
	}
	if cfg.Cache.Backend != "sqlite" {
		t.Errorf("expected sqlite backend, got %q", cfg.Cache.Backend)
	}
	if cfg.LLM.Model != "gemini/gemini-2.5-pro" {
		t.Errorf("unexpected default model %q", cfg.LLM.Model)
	}
	if cfg.LLM.SecretPolicy != "warn" {
		t.Errorf("expected warn secret policy, got %q", cfg.LLM.SecretPolicy)
	}
	if !cfg.GrammarVerification.IsEnabled() {
		t.Error("expected grammar verification enabled by default")
	}
	if err := Validate(cfg); err != nil {
		t.Fatalf("default config must validate: %v", err)
	}
}

func TestLoadOrDefault_MissingFile(t *testing.T) {
	missing := filepath.Join(t.TempDir(), DefaultFile)

	cfg, err := LoadOrDefault(missing, false)
	if err != nil {
		t.Fatalf("expected defaults for implicit missing file, got %v", err)
	}
	if cfg.Annotate.Style != "guillemet" {
		t.Errorf("expected default config, got %+v", cfg.Annotate)
	}

	if _, err := LoadOrDefault(missing, true); err == nil {
		t.Fatal("expected error for explicit missing file")
	}
}

func TestLoad_GrammarVerificationDisabled(t *testing.T) {
	path := writeConfig(t, `
[grammar_verification]
enabled = false
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.GrammarVerification.IsEnabled() {
		t.Fatal("expected grammar verification to be disabled")
	}
}

func TestLoad_CacheDisabled(t *testing.T) {
	path := writeConfig(t, `
[cache]
enabled = false
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Cache.IsEnabled() {
		t.Fatal("expected cache to be disabled")
	}
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{name: "future version", content: "version = 2\n"},
		{name: "bad backend", content: "[cache]\nbackend = \"redis\"\n"},
		{name: "bad suffix", content: "[annotate]\nsuffix = \"annotated\"\n"},
		{name: "suffix with separator", content: "[annotate]\nsuffix = \".a/b\"\n"},
		{name: "negative rps", content: "[llm]\nrequests_per_second = -1\n"},
		{name: "bad secret policy", content: "[llm]\nsecret_policy = \"maybe\"\n"},
		{name: "bad exclude glob", content: "[exclude]\nfiles = [\"[\"]\n"},
		{name: "empty language", content: "[languages.python]\nextensions = []\n"},
		{name: "empty extension", content: "[languages.python]\nextensions = [\"\"]\n"},
		{name: "empty filename", content: "[languages.make]\nfilenames = [\" \"]\n"},
		{name: "malformed toml", content: "[cache\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeConfig(t, tt.content)
			if _, err := Load(path); err == nil {
				t.Fatalf("expected error for %s", tt.name)
			}
		})
	}
}

func TestLoad_GrammarsPathIsFile(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "grammars")
	if err := os.WriteFile(file, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	path := writeConfig(t, "grammars_path = \""+filepath.ToSlash(file)+"\"\n")
	if _, err := Load(path); err == nil {
		t.Fatal("expected error when grammars_path is a file")
	}
}

func TestApplyEnvOverrides(t *testing.T) {
	t.Setenv("AUTOSG_ANNOTATE_STYLE", "corner")
	t.Setenv("AUTOSG_CACHE_BACKEND", "memory")
	t.Setenv("AUTOSG_CACHE_ENABLED", "false")
	t.Setenv("AUTOSG_CACHE_MEMORY_ENTRIES", "7")
	t.Setenv("AUTOSG_LLM_MODEL", "gemini/other")
	t.Setenv("AUTOSG_LLM_REQUESTS_PER_SECOND", "2.5")
	t.Setenv("AUTOSG_WATCH_DEBOUNCE", "1s")
	t.Setenv("AUTOSG_GRAMMAR_VERIFICATION_ENABLED", "false")
	t.Setenv("AUTOSG_LLM_BURST", "not-a-number")

	cfg := Default()
	ApplyEnvOverrides(cfg)

	if cfg.Annotate.Style != "corner" {
		t.Errorf("expected corner style, got %q", cfg.Annotate.Style)
	}
	if cfg.Cache.Backend != "memory" || cfg.Cache.MemoryEntries != 7 || cfg.Cache.IsEnabled() {
		t.Errorf("unexpected cache overrides: %+v", cfg.Cache)
	}
	if cfg.LLM.Model != "gemini/other" || cfg.LLM.RequestsPerSecond != 2.5 {
		t.Errorf("unexpected llm overrides: %+v", cfg.LLM)
	}
	if cfg.LLM.Burst != 1 {
		t.Errorf("invalid override must be ignored, got burst %d", cfg.LLM.Burst)
	}
	if cfg.Watch.Debounce != time.Second {
		t.Errorf("expected 1s debounce, got %s", cfg.Watch.Debounce)
	}
	if cfg.GrammarVerification.IsEnabled() {
		t.Error("expected grammar verification disabled by env")
	}
}
