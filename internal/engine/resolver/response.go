package resolver

import (
	"bytes"
	"encoding/json"
	"math"
	"regexp"
	"strings"

	"autosg/internal/core/errors"
)

// Result is a parsed resolution response. Raw holds the JSON object exactly
// as extracted, including fields Result does not model.
type Result struct {
	Definitions [][2]int        `json:"definitions"`
	External    []int           `json:"external"`
	Errors      []ResolveError  `json:"errors"`
	Raw         json.RawMessage `json:"-"`
}

type ResolveError struct {
	ID     int    `json:"id"`
	Reason string `json:"reason"`
}

// Indented returns Raw re-indented for display.
func (r *Result) Indented() ([]byte, error) {
	var buf bytes.Buffer
	if err := json.Indent(&buf, r.Raw, "", "  "); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

var fencedBlock = regexp.MustCompile("(?s)```(?:json)?\\s*\\n(.*?)\\n\\s*```")

// ParseResponse extracts the JSON object from model output. A fenced code
// block is preferred; otherwise the first balanced {...} object is used.
func ParseResponse(text string) (*Result, error) {
	if strings.TrimSpace(text) == "" {
		return nil, errors.New(errors.CodeResponseParse, "model returned an empty response")
	}

	raw, err := extractJSON(text)
	if err != nil {
		return nil, err
	}
	return decodeResult(raw)
}

func extractJSON(text string) ([]byte, error) {
	if m := fencedBlock.FindStringSubmatch(text); m != nil {
		candidate := []byte(strings.TrimSpace(m[1]))
		if json.Valid(candidate) {
			return candidate, nil
		}
		return nil, errors.New(errors.CodeResponseParse, "fenced block does not contain valid JSON")
	}

	if candidate, ok := firstObject(text); ok {
		return []byte(candidate), nil
	}
	// Widest span, for objects whose strings confuse the scanner.
	start, end := strings.IndexByte(text, '{'), strings.LastIndexByte(text, '}')
	if start >= 0 && end > start && json.Valid([]byte(text[start:end+1])) {
		return []byte(text[start : end+1]), nil
	}
	return nil, errors.New(errors.CodeResponseParse, "no JSON object found in model response")
}

// firstObject returns the first balanced, valid top-level JSON object in s.
func firstObject(s string) (string, bool) {
	for start := strings.IndexByte(s, '{'); start >= 0; {
		if end, ok := matchBrace(s, start); ok {
			if candidate := s[start : end+1]; json.Valid([]byte(candidate)) {
				return candidate, true
			}
		}
		next := strings.IndexByte(s[start+1:], '{')
		if next < 0 {
			break
		}
		start += next + 1
	}
	return "", false
}

// matchBrace returns the index of the '}' closing the '{' at start, skipping
// braces inside JSON strings.
func matchBrace(s string, start int) (int, bool) {
	depth := 0
	inString, escaped := false, false
	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i, true
			}
		}
	}
	return 0, false
}

// decodeResult accepts any JSON object. Raw keeps the object as the model
// wrote it; the typed fields are a best-effort view and entries that do not
// read as integer ids are left out of them.
func decodeResult(raw []byte) (*Result, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, errors.New(errors.CodeResponseParse, "response JSON is not an object")
	}

	var doc map[string]any
	dec := json.NewDecoder(bytes.NewReader(trimmed))
	dec.UseNumber()
	if err := dec.Decode(&doc); err != nil {
		return nil, errors.Wrap(err, errors.CodeResponseParse, "response is not a JSON object")
	}

	res := &Result{
		Definitions: [][2]int{},
		External:    []int{},
		Errors:      []ResolveError{},
		Raw:         append(json.RawMessage(nil), trimmed...),
	}
	if defs, ok := doc["definitions"].([]any); ok {
		for _, d := range defs {
			pair, ok := d.([]any)
			if !ok || len(pair) != 2 {
				continue
			}
			ref, ok1 := asID(pair[0])
			def, ok2 := asID(pair[1])
			if ok1 && ok2 {
				res.Definitions = append(res.Definitions, [2]int{ref, def})
			}
		}
	}
	if ext, ok := doc["external"].([]any); ok {
		for _, e := range ext {
			if id, ok := asID(e); ok {
				res.External = append(res.External, id)
			}
		}
	}
	if errs, ok := doc["errors"].([]any); ok {
		for _, e := range errs {
			entry, ok := e.(map[string]any)
			if !ok {
				continue
			}
			id, ok := asID(entry["id"])
			if !ok {
				continue
			}
			reason, _ := entry["reason"].(string)
			res.Errors = append(res.Errors, ResolveError{ID: id, Reason: reason})
		}
	}
	return res, nil
}

// asID reads an id written as an integer, an integral float such as 2.0, or
// a numeric string.
func asID(v any) (int, bool) {
	var num json.Number
	switch t := v.(type) {
	case json.Number:
		num = t
	case string:
		num = json.Number(strings.TrimSpace(t))
	default:
		return 0, false
	}
	if n, err := num.Int64(); err == nil {
		return int(n), true
	}
	f, err := num.Float64()
	if err != nil || f != math.Trunc(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return int(f), true
}
