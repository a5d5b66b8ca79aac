package errors

import (
	"errors"
	"fmt"
)

type ErrorCode string

const (
	CodeNotFound               ErrorCode = "NOT_FOUND"
	CodeValidationError        ErrorCode = "VALIDATION_ERROR"
	CodeInternal               ErrorCode = "INTERNAL_ERROR"
	CodeNotSupported           ErrorCode = "NOT_SUPPORTED"
	CodeUnsupportedLanguage    ErrorCode = "UNSUPPORTED_LANGUAGE"
	CodeGrammarUnavailable     ErrorCode = "GRAMMAR_UNAVAILABLE"
	CodeUnsupportedEncoding    ErrorCode = "UNSUPPORTED_ENCODING"
	CodeDecodeFailed           ErrorCode = "DECODE_FAILED"
	CodeExtractionInconsistent ErrorCode = "EXTRACTION_INCONSISTENT"
	CodeAuthRequired           ErrorCode = "AUTH_REQUIRED"
	CodeResponseParse          ErrorCode = "RESPONSE_PARSE"
	CodeUpstreamFailed         ErrorCode = "UPSTREAM_FAILED"
)

type DomainError struct {
	Code    ErrorCode
	Message string
	Err     error
	Context map[string]interface{}
}

const (
	CtxPath      = "path"
	CtxOperation = "operation"
	CtxLanguage  = "language"
	CtxEncoding  = "encoding"
	CtxModel     = "model"
	CtxRow       = "row"
	CtxColumn    = "column"
)

func (e *DomainError) WithContext(key string, value interface{}) *DomainError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

func (e *DomainError) Error() string {
	msg := fmt.Sprintf("[%s] %s", e.Code, e.Message)
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	if len(e.Context) > 0 {
		msg += fmt.Sprintf(" %v", e.Context)
	}
	return msg
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

func New(code ErrorCode, msg string) error {
	return &DomainError{Code: code, Message: msg}
}

func Newf(code ErrorCode, format string, args ...interface{}) error {
	return &DomainError{Code: code, Message: fmt.Sprintf(format, args...)}
}

func Wrap(err error, code ErrorCode, msg string) error {
	return &DomainError{Code: code, Message: msg, Err: err}
}

// AddContext attaches a key/value to the outermost DomainError in err's chain,
// wrapping err as CodeInternal when it carries none.
func AddContext(err error, key string, value interface{}) error {
	var de *DomainError
	if errors.As(err, &de) {
		de.WithContext(key, value)
		return err
	}
	return &DomainError{
		Code:    CodeInternal,
		Message: "wrapped error",
		Err:     err,
		Context: map[string]interface{}{key: value},
	}
}

// IsCode checks if an error has a specific error code.
func IsCode(err error, code ErrorCode) bool {
	var de *DomainError
	for err != nil {
		if !errors.As(err, &de) {
			return false
		}
		if de.Code == code {
			return true
		}
		err = de.Err
	}
	return false
}

// CodeOf returns the code of the outermost DomainError, or "" when err has none.
func CodeOf(err error) ErrorCode {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Code
	}
	return ""
}

// Recoverable reports whether a batch run may skip the file that produced err.
func Recoverable(err error) bool {
	switch CodeOf(err) {
	case CodeUnsupportedLanguage, CodeUnsupportedEncoding, CodeGrammarUnavailable:
		return true
	}
	return false
}
