package parser

import (
	"os"
	"path/filepath"
	"testing"

	"autosg/internal/core/errors"
)

func TestGrammarLoader_BuiltinOnly(t *testing.T) {
	loader, err := NewGrammarLoader(filepath.Join(t.TempDir(), "absent"), true)
	if err != nil {
		t.Fatalf("absent grammars path should not fail: %v", err)
	}

	for _, tag := range []string{"bash", "c", "c_sharp", "cpp", "css", "go", "haskell", "html", "java", "javascript", "json", "julia", "ocaml", "php", "python", "ruby", "rust", "scala", "tsx", "typescript"} {
		if loader.Status(tag) != GrammarBuiltin {
			t.Errorf("expected %s to be built in", tag)
		}
		if _, err := loader.Language(tag); err != nil {
			t.Errorf("load %s: %v", tag, err)
		}
	}

	if loader.Status("lua") != GrammarMissing {
		t.Fatal("expected lua to be missing without a manifest")
	}
	if _, err := loader.Language("lua"); !errors.IsCode(err, errors.CodeGrammarUnavailable) {
		t.Fatalf("expected grammar unavailable, got %v", err)
	}
}

func TestGrammarLoader_RejectsFilePath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "grammars")
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := NewGrammarLoader(path, false); err == nil {
		t.Fatal("expected error for non-directory grammars path")
	}
}

func TestGrammarLoader_ManifestArtifactsAndVerification(t *testing.T) {
	base := t.TempDir()
	manifest := `
version = 1
allowed_aib_versions = [14, 15]

[[artifacts]]
language = "lua"
aib_version = 14
so_path = "lua/lua.so"
so_sha256 = "0000000000000000000000000000000000000000000000000000000000000000"
node_types_path = "lua/node-types.json"
node_types_sha256 = "0000000000000000000000000000000000000000000000000000000000000000"
`
	if err := os.WriteFile(filepath.Join(base, "manifest.toml"), []byte(manifest), 0o644); err != nil {
		t.Fatal(err)
	}

	loader, err := NewGrammarLoader(base, false)
	if err != nil {
		t.Fatal(err)
	}
	if loader.Status("lua") != GrammarDynamic {
		t.Fatalf("expected lua listed as dynamic, got %s", loader.Status("lua"))
	}
	if _, err := loader.Language("lua"); !errors.IsCode(err, errors.CodeGrammarUnavailable) {
		t.Fatalf("expected unreadable shared object to be unavailable, got %v", err)
	}

	if _, err := NewGrammarLoader(base, true); err == nil {
		t.Fatal("expected verification failure for missing artifacts")
	}
}
