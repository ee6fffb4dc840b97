package question

import "errors"

var (
	// ErrUnknownHandler is returned for node types outside the catalog.
	// It aborts evaluation.
	ErrUnknownHandler = errors.New("unknown handler")

	// ErrMalformedProgram is returned for programs whose nodes reference
	// themselves or later nodes.
	ErrMalformedProgram = errors.New("malformed program")

	// ErrBadInput is returned when a node receives the wrong number or kind
	// of inputs.
	ErrBadInput = errors.New("bad node input")
)
