// Package encoding detects a source file's byte-order mark and character
// encoding and moves text between that encoding and a canonical UTF-8 buffer.
package encoding

import (
	"bytes"
	"fmt"
	"unicode/utf8"

	"autosg/internal/core/errors"

	xenc "golang.org/x/text/encoding"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/encoding/unicode/utf32"
)

const (
	UTF8    = "utf-8"
	UTF16LE = "utf-16-le"
	UTF16BE = "utf-16-be"
	UTF32LE = "utf-32-le"
	UTF32BE = "utf-32-be"
)

// FileEncoding is the detected encoding of one file. BOM holds the exact
// byte-order mark to restore on write-back, or nil when the file had none.
type FileEncoding struct {
	Name string
	BOM  []byte
}

func (e FileEncoding) String() string {
	if len(e.BOM) == 0 {
		return e.Name
	}
	return e.Name + "+bom"
}

type bomEntry struct {
	bom  []byte
	name string
}

// UTF-32-LE must be tested before UTF-16-LE: both marks start with FF FE.
var bomTable = []bomEntry{
	{[]byte{0xFF, 0xFE, 0x00, 0x00}, UTF32LE},
	{[]byte{0x00, 0x00, 0xFE, 0xFF}, UTF32BE},
	{[]byte{0xFF, 0xFE}, UTF16LE},
	{[]byte{0xFE, 0xFF}, UTF16BE},
	{[]byte{0xEF, 0xBB, 0xBF}, UTF8},
}

// Detect matches raw against the BOM table and falls back to strict UTF-8.
func Detect(raw []byte) (FileEncoding, error) {
	for _, entry := range bomTable {
		if bytes.HasPrefix(raw, entry.bom) {
			return FileEncoding{Name: entry.name, BOM: append([]byte(nil), entry.bom...)}, nil
		}
	}
	if utf8.Valid(raw) {
		return FileEncoding{Name: UTF8}, nil
	}
	return FileEncoding{}, errors.New(errors.CodeUnsupportedEncoding, "no byte-order mark and not valid UTF-8")
}

// ToCanonical strips the BOM and transcodes the payload to UTF-8. The payload
// must decode losslessly: anything the decoder would have to replace is
// reported as CodeDecodeFailed.
func ToCanonical(raw []byte, enc FileEncoding) ([]byte, error) {
	if !bytes.HasPrefix(raw, enc.BOM) {
		return nil, errors.AddContext(
			errors.New(errors.CodeDecodeFailed, "byte-order mark does not match detected encoding"),
			errors.CtxEncoding, enc.Name)
	}
	payload := raw[len(enc.BOM):]

	if enc.Name == UTF8 {
		if !utf8.Valid(payload) {
			return nil, decodeError(enc, fmt.Errorf("invalid UTF-8 sequence"))
		}
		return append([]byte(nil), payload...), nil
	}

	codec, err := codecFor(enc.Name)
	if err != nil {
		return nil, err
	}
	out, err := codec.NewDecoder().Bytes(payload)
	if err != nil {
		return nil, decodeError(enc, err)
	}
	// x/text substitutes U+FFFD for malformed units instead of failing, so
	// re-encode and require the original payload back.
	back, err := codec.NewEncoder().Bytes(out)
	if err != nil || !bytes.Equal(back, payload) {
		return nil, decodeError(enc, fmt.Errorf("payload is not valid %s", enc.Name))
	}
	return out, nil
}

// FromCanonical re-encodes a UTF-8 buffer into enc and prepends its BOM.
func FromCanonical(utf8Bytes []byte, enc FileEncoding) ([]byte, error) {
	out := make([]byte, 0, len(enc.BOM)+len(utf8Bytes))
	out = append(out, enc.BOM...)
	if enc.Name == UTF8 {
		return append(out, utf8Bytes...), nil
	}

	if !utf8.Valid(utf8Bytes) {
		return nil, errors.AddContext(
			errors.New(errors.CodeDecodeFailed, "canonical buffer is not valid UTF-8"),
			errors.CtxEncoding, enc.Name)
	}
	codec, err := codecFor(enc.Name)
	if err != nil {
		return nil, err
	}
	encoded, err := codec.NewEncoder().Bytes(utf8Bytes)
	if err != nil {
		return nil, errors.AddContext(errors.Wrap(err, errors.CodeDecodeFailed, "encode output"), errors.CtxEncoding, enc.Name)
	}
	return append(out, encoded...), nil
}

// Read detects the encoding of raw and returns its canonical UTF-8 form.
func Read(raw []byte) ([]byte, FileEncoding, error) {
	enc, err := Detect(raw)
	if err != nil {
		return nil, FileEncoding{}, err
	}
	canonical, err := ToCanonical(raw, enc)
	if err != nil {
		return nil, FileEncoding{}, err
	}
	return canonical, enc, nil
}

func codecFor(name string) (xenc.Encoding, error) {
	switch name {
	case UTF16LE:
		return unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM), nil
	case UTF16BE:
		return unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM), nil
	case UTF32LE:
		return utf32.UTF32(utf32.LittleEndian, utf32.IgnoreBOM), nil
	case UTF32BE:
		return utf32.UTF32(utf32.BigEndian, utf32.IgnoreBOM), nil
	}
	return nil, errors.Newf(errors.CodeUnsupportedEncoding, "unknown encoding %q", name)
}

func decodeError(enc FileEncoding, err error) error {
	return errors.AddContext(errors.Wrap(err, errors.CodeDecodeFailed, "decode payload"), errors.CtxEncoding, enc.Name)
}
