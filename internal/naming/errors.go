package naming

import "errors"

var (
	// ErrNotFound is returned when a path (or a required parent) is not
	// known to the naming server.
	ErrNotFound = errors.New("naming: path not found")

	// ErrNilArgument is raised when a register call carries an empty stub
	// address or a nil path list. A programmer error, distinct from
	// ErrNotFound.
	ErrNilArgument = errors.New("naming: required argument is nil")

	// ErrAlreadyRegistered is returned when the exact (data, command)
	// stub pair is already registered.
	ErrAlreadyRegistered = errors.New("naming: storage server already registered")

	// ErrNoStorageAvailable is returned by createFile/createDirectory when
	// no storage server is registered to place the new path on.
	ErrNoStorageAvailable = errors.New("naming: no storage server available")

	// ErrAlreadyStarted is returned by Start on a server that is already
	// running.
	ErrAlreadyStarted = errors.New("naming: server already started")

	// ErrNotRestartable is returned by Start on a server that has been
	// stopped; a stopped server is not reusable.
	ErrNotRestartable = errors.New("naming: stopped server cannot be restarted")

	// ErrNotRunning is returned by Stop on a server that is not running.
	ErrNotRunning = errors.New("naming: server is not running")
)
