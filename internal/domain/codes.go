package domain

import (
	_ "embed"
	"encoding/json"
	"fmt"
)

// The error-code table is a versioned, language-independent artifact shared
// by every protocol implementation; it lives in a data file rather than code
// so the codes cannot drift between languages.
//
//go:embed error_codes.json
var errorCodesJSON []byte

var errorMessages = mustLoadErrorCodes()

func mustLoadErrorCodes() map[string]string {
	table := make(map[string]string)
	if err := json.Unmarshal(errorCodesJSON, &table); err != nil {
		panic(fmt.Sprintf("domain: error code table corrupt: %v", err))
	}
	return table
}

// ErrorMessage returns the canonical message for a protocol error code, or
// the code itself when unknown.
func ErrorMessage(code string) string {
	if msg, ok := errorMessages[code]; ok {
		return msg
	}
	return code
}

// NewError builds a VerificationError with the table message for code.
func NewError(code, field string) VerificationError {
	return VerificationError{
		Code:    code,
		Message: ErrorMessage(code),
		Field:   field,
	}
}
