package core

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned when an object number has no usable entry in the
// cross-reference table.
var ErrNotFound = errors.New("object not found")

// SyntaxError reports malformed PDF syntax at a byte position relative to
// the start of the lexer input.
type SyntaxError struct {
	Pos int64
	Msg string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("syntax error at position %d: %s", e.Pos, e.Msg)
}

// ErrEncrypted is returned when stream data is protected by the Crypt filter.
// Decryption is not supported.
var ErrEncrypted = errors.New("encrypted stream data")
