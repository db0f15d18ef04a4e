package namespace

import "errors"

var (
	// ErrNotFound is returned when a path (or a required parent) is not
	// known to the namespace.
	ErrNotFound = errors.New("namespace: path not found")

	// ErrAlreadyRegistered names a duplicate (data, command) stub pair.
	// No Namespace method returns it; duplicate registrations are
	// rejected by the naming server before Namespace.Register runs.
	ErrAlreadyRegistered = errors.New("namespace: storage server already registered")

	// ErrNilArgument names a programmer error distinct from ErrNotFound:
	// a null stub or nil path list. No Namespace method returns it; such
	// arguments are rejected by the naming server before
	// Namespace.Register runs.
	ErrNilArgument = errors.New("namespace: required argument is nil")
)
