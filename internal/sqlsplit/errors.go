package sqlsplit

import "errors"

// ErrUnterminatedQuote indicates a string, identifier, or dollar-quoted
// literal was opened but never closed.
var ErrUnterminatedQuote = errors.New("unterminated quote")

// ErrUnterminatedComment indicates a block comment was opened but never closed.
var ErrUnterminatedComment = errors.New("unterminated block comment")
