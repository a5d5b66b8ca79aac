// Package secrets looks for credentials in text that is about to leave the
// machine, so that a resolution request can be held back or flagged.
package secrets

import (
	"fmt"
	"math"
	"regexp"
	"sort"
	"strings"
	"unicode"
)

// Policies for what a caller does with findings.
const (
	PolicyOff   = "off"
	PolicyWarn  = "warn"
	PolicyBlock = "block"
)

type PatternConfig struct {
	Name     string
	Regex    string
	Severity string
}

type Config struct {
	EntropyThreshold float64
	MinTokenLength   int
	Patterns         []PatternConfig
}

// Finding is one suspected credential. Value is already masked.
type Finding struct {
	Kind       string
	Severity   string
	Row        int
	Column     int
	Masked     string
	Confidence float64
}

type compiledPattern struct {
	name     string
	severity string
	re       *regexp.Regexp
}

type Detector struct {
	entropyThreshold float64
	minTokenLength   int
	patterns         []compiledPattern
	contextVarRE     *regexp.Regexp
	quotedValueRE    *regexp.Regexp
	quotedTokenRE    *regexp.Regexp
}

func NewDetector(cfg Config) (*Detector, error) {
	if cfg.EntropyThreshold <= 0 {
		cfg.EntropyThreshold = 4.0
	}
	if cfg.MinTokenLength <= 0 {
		cfg.MinTokenLength = 20
	}

	builtIn := []PatternConfig{
		{Name: "aws-access-key-id", Severity: "high", Regex: `\bAKIA[0-9A-Z]{16}\b`},
		{Name: "github-pat", Severity: "high", Regex: `\bghp_[A-Za-z0-9]{36}\b`},
		{Name: "github-fine-grained-pat", Severity: "high", Regex: `\bgithub_pat_[A-Za-z0-9_]{82}\b`},
		{Name: "google-api-key", Severity: "high", Regex: `\bAIza[0-9A-Za-z_\-]{35}\b`},
		{Name: "stripe-live-secret", Severity: "high", Regex: `\bsk_live_[A-Za-z0-9]{16,}\b`},
		{Name: "slack-token", Severity: "high", Regex: `\bxox[baprs]-[A-Za-z0-9-]{10,}\b`},
		{Name: "private-key-block", Severity: "critical", Regex: `-----BEGIN (?:RSA |EC |DSA |OPENSSH |PGP )?PRIVATE KEY-----`},
	}

	patterns, err := compilePatterns(append(builtIn, cfg.Patterns...))
	if err != nil {
		return nil, err
	}

	return &Detector{
		entropyThreshold: cfg.EntropyThreshold,
		minTokenLength:   cfg.MinTokenLength,
		patterns:         patterns,
		contextVarRE:     regexp.MustCompile(`(?i)\b(password|passwd|pwd|secret|api[_-]?key|token|auth[_-]?token|access[_-]?key|private[_-]?key|client[_-]?secret)\b`),
		quotedValueRE:    regexp.MustCompile(`"([^"\r\n]{4,})"|'([^'\r\n]{4,})'`),
		quotedTokenRE:    regexp.MustCompile(`"([A-Za-z0-9_\-+=:/.]{12,})"|'([A-Za-z0-9_\-+=:/.]{12,})'`),
	}, nil
}

// Scan returns findings in text ordered by position. Row and Column are
// 1-indexed; Column counts bytes.
func (d *Detector) Scan(text string) []Finding {
	if text == "" {
		return nil
	}

	index := buildLineIndex(text)
	found := make(map[string]candidate)

	d.scanPatterns(text, found)
	d.scanAssignments(text, found)
	d.scanEntropy(text, found)

	if len(found) == 0 {
		return nil
	}

	out := make([]Finding, 0, len(found))
	for _, c := range found {
		row, col := index.rowCol(c.offset)
		out = append(out, Finding{
			Kind:       c.kind,
			Severity:   c.severity,
			Row:        row,
			Column:     col,
			Masked:     MaskValue(c.value),
			Confidence: c.confidence,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Row != out[j].Row {
			return out[i].Row < out[j].Row
		}
		if out[i].Column != out[j].Column {
			return out[i].Column < out[j].Column
		}
		return out[i].Kind < out[j].Kind
	})
	return out
}

type candidate struct {
	kind       string
	severity   string
	value      string
	offset     int
	confidence float64
}

func (d *Detector) scanPatterns(text string, found map[string]candidate) {
	for _, pattern := range d.patterns {
		for _, loc := range pattern.re.FindAllStringIndex(text, -1) {
			value := text[loc[0]:loc[1]]
			if isPlaceholder(value) {
				continue
			}
			upsert(found, candidate{
				kind:       pattern.name,
				severity:   pattern.severity,
				value:      value,
				offset:     loc[0],
				confidence: 0.99,
			})
		}
	}
}

// scanAssignments flags quoted values on lines that name a credential.
func (d *Detector) scanAssignments(text string, found map[string]candidate) {
	offset := 0
	for _, line := range strings.Split(text, "\n") {
		if d.contextVarRE.MatchString(line) {
			for _, match := range d.quotedValueRE.FindAllStringSubmatchIndex(line, -1) {
				start, end, ok := firstMatchedGroup(match)
				if !ok {
					continue
				}
				value := line[start:end]
				if len(value) < d.minTokenLength || isPlaceholder(value) {
					continue
				}
				entropy := shannonEntropy(value)
				if entropy < d.entropyThreshold*0.8 {
					continue
				}
				confidence := 0.70
				if entropy >= d.entropyThreshold {
					confidence = 0.85
				}
				upsert(found, candidate{
					kind:       "sensitive-assignment",
					severity:   "medium",
					value:      value,
					offset:     offset + start,
					confidence: confidence,
				})
			}
		}
		offset += len(line) + 1
	}
}

func (d *Detector) scanEntropy(text string, found map[string]candidate) {
	for _, match := range d.quotedTokenRE.FindAllStringSubmatchIndex(text, -1) {
		start, end, ok := firstMatchedGroup(match)
		if !ok {
			continue
		}
		value := text[start:end]
		if len(value) < d.minTokenLength || isPlaceholder(value) || !containsLetterAndDigit(value) {
			continue
		}
		if shannonEntropy(value) < d.entropyThreshold {
			continue
		}
		upsert(found, candidate{
			kind:       "high-entropy-string",
			severity:   "low",
			value:      value,
			offset:     start,
			confidence: 0.6,
		})
	}
}

func compilePatterns(cfg []PatternConfig) ([]compiledPattern, error) {
	compiled := make([]compiledPattern, 0, len(cfg))
	for _, pattern := range cfg {
		name := strings.TrimSpace(pattern.Name)
		if name == "" {
			return nil, fmt.Errorf("secret pattern name must not be empty")
		}
		expr := strings.TrimSpace(pattern.Regex)
		if expr == "" {
			return nil, fmt.Errorf("secret pattern %q regex must not be empty", name)
		}
		re, err := regexp.Compile(expr)
		if err != nil {
			return nil, fmt.Errorf("compile secret pattern %q: %w", name, err)
		}
		severity := strings.ToLower(strings.TrimSpace(pattern.Severity))
		if severity == "" {
			severity = "medium"
		}
		compiled = append(compiled, compiledPattern{name: name, severity: severity, re: re})
	}
	return compiled, nil
}

// upsert keeps the most confident finding per offset and value.
func upsert(found map[string]candidate, c candidate) {
	key := fmt.Sprintf("%d:%s", c.offset, c.value)
	if existing, ok := found[key]; ok && existing.confidence >= c.confidence {
		return
	}
	found[key] = c
}

func containsLetterAndDigit(value string) bool {
	hasLetter, hasDigit := false, false
	for _, r := range value {
		if unicode.IsLetter(r) {
			hasLetter = true
		}
		if unicode.IsDigit(r) {
			hasDigit = true
		}
		if hasLetter && hasDigit {
			return true
		}
	}
	return false
}

func isPlaceholder(value string) bool {
	lower := strings.ToLower(value)
	for _, blocked := range []string{"example", "sample", "dummy", "placeholder", "changeme", "notasecret", "test"} {
		if strings.Contains(lower, blocked) {
			return true
		}
	}
	return false
}

func shannonEntropy(value string) float64 {
	if value == "" {
		return 0
	}
	freq := make(map[rune]float64)
	for _, r := range value {
		freq[r]++
	}
	length := float64(len([]rune(value)))
	entropy := 0.0
	for _, count := range freq {
		p := count / length
		entropy -= p * math.Log2(p)
	}
	return entropy
}

type lineIndex []int

func buildLineIndex(text string) lineIndex {
	starts := lineIndex{0}
	for i := 0; i < len(text); i++ {
		if text[i] == '\n' {
			starts = append(starts, i+1)
		}
	}
	return starts
}

func (idx lineIndex) rowCol(offset int) (int, int) {
	if offset < 0 {
		return 1, 1
	}
	row := sort.Search(len(idx), func(i int) bool { return idx[i] > offset }) - 1
	if row < 0 {
		row = 0
	}
	return row + 1, offset - idx[row] + 1
}

func MaskValue(value string) string {
	if value == "" {
		return ""
	}
	if len(value) <= 8 {
		return strings.Repeat("*", len(value))
	}
	return value[:4] + "..." + value[len(value)-4:]
}

func firstMatchedGroup(match []int) (int, int, bool) {
	for i := 2; i+1 < len(match); i += 2 {
		if match[i] >= 0 && match[i+1] >= 0 {
			return match[i], match[i+1], true
		}
	}
	return 0, 0, false
}
