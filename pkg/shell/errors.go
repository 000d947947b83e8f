// Package shell implements the command-line front end: tokenizing,
// preprocessing (brace/alias/env/command substitution), parsing into
// sequenced pipelines, declarative flag parsing, globbing, and pipeline
// execution. Grounded on spec.md §4.2; the tokenizer is hand-written and
// does not use kballard/go-shellquote.
package shell

import "errors"

var (
	ErrUnknownCommand  = errors.New("command not found")
	ErrUsage           = errors.New("usage error")
	ErrRootRequired    = errors.New("this command requires root privileges")
	ErrUnterminatedQuote = errors.New("unterminated quote")
)
