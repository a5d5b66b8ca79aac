package resolver

import (
	"strings"
	"testing"
)

func TestBuildPrompt(t *testing.T) {
	src := "«0|x» = «1|y» # {{LANG}} stays literal\n"
	prompt := BuildPrompt(src, "rust")

	if !strings.HasPrefix(prompt, "Below is rust source code.") {
		t.Fatalf("prompt does not start with language line: %q", prompt[:40])
	}
	if !strings.HasSuffix(prompt, "```rust\n"+src+"\n```") {
		t.Fatal("expected source fenced with the language tag at the end of the prompt")
	}
	if strings.Contains(prompt, "{{SOURCE}}") {
		t.Fatal("source placeholder left in prompt")
	}
	if strings.Count(prompt, "{{LANG}}") != 1 {
		t.Fatal("placeholders inside the source must not be substituted")
	}
	for _, field := range []string{`"definitions"`, `"external"`, `"errors"`} {
		if !strings.Contains(prompt, field) {
			t.Fatalf("prompt missing schema field %s", field)
		}
	}
}
