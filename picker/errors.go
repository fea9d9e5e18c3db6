package picker

import "errors"

var (
	// ErrTargetNotFound means the target locator matched nothing.
	ErrTargetNotFound = errors.New("picker: target not found")
	// ErrAmbiguousTarget means the target locator matched more than one element.
	ErrAmbiguousTarget = errors.New("picker: target is ambiguous")
	// ErrInvalidTarget means the target locator does not parse.
	ErrInvalidTarget = errors.New("picker: invalid target")

	ErrSessionNotFound = errors.New("picker: session not found")
	ErrNothingHovered  = errors.New("picker: nothing hovered")
	ErrNoHistory       = errors.New("picker: no pick history configured")

	// errLoad marks failures to fetch or render a page.
	errLoad = errors.New("load failed")
)
