package secrets

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetector_BuiltInPattern(t *testing.T) {
	d, err := NewDetector(Config{})
	require.NoError(t, err)

	findings := d.Scan("package main\nconst key = \"AKIA1234567890ABCDEF\"\n")
	require.NotEmpty(t, findings)
	assert.Equal(t, "aws-access-key-id", findings[0].Kind)
	assert.Equal(t, 2, findings[0].Row)
	assert.Equal(t, 14, findings[0].Column)
	assert.Equal(t, "AKIA...CDEF", findings[0].Masked)
}

func TestDetector_SensitiveAssignment(t *testing.T) {
	d, err := NewDetector(Config{EntropyThreshold: 3.5, MinTokenLength: 16})
	require.NoError(t, err)

	findings := d.Scan("«0|password» = \"P4s$w0rdVeryLongToken99\"\n")
	kinds := make([]string, 0, len(findings))
	for _, f := range findings {
		kinds = append(kinds, f.Kind)
	}
	assert.Contains(t, kinds, "sensitive-assignment")
}

func TestDetector_SkipsPlaceholder(t *testing.T) {
	d, err := NewDetector(Config{EntropyThreshold: 3.0, MinTokenLength: 10})
	require.NoError(t, err)

	assert.Empty(t, d.Scan("api_key = \"example_test_token_123456\"\n"))
	assert.Empty(t, d.Scan(""))
}

func TestDetector_CustomPattern(t *testing.T) {
	d, err := NewDetector(Config{Patterns: []PatternConfig{{Name: "internal", Regex: `corp_[a-z0-9]{8}`}}})
	require.NoError(t, err)

	findings := d.Scan("x = corp_ab12cd34\n")
	require.Len(t, findings, 1)
	assert.Equal(t, "internal", findings[0].Kind)
	assert.Equal(t, "medium", findings[0].Severity)

	_, err = NewDetector(Config{Patterns: []PatternConfig{{Name: "bad", Regex: "("}}})
	require.Error(t, err)
	_, err = NewDetector(Config{Patterns: []PatternConfig{{Regex: "x"}}})
	require.Error(t, err)
}

func TestMaskValue(t *testing.T) {
	assert.Equal(t, "********", MaskValue("ABCDEFGH"))
	assert.Equal(t, "ABCD...MNOP", MaskValue("ABCDEFGHIJKLMNOP"))
	assert.Equal(t, "", MaskValue(""))
}
