package storageengine

import "errors"

var (
	// ErrNotFound is returned by Size, Read and Write when the mapped
	// local file does not exist, or by Size/Read when it is a directory.
	ErrNotFound = errors.New("storageengine: path not found")

	// ErrIndexOutOfBounds is returned when a read violates the bounds
	// offset >= 0, length >= 0, offset+length <= size, or when a write has
	// a negative offset. A write may extend the file past its size.
	ErrIndexOutOfBounds = errors.New("storageengine: offset or length out of bounds")

	// ErrNilData is returned by Write when the data argument is nil.
	ErrNilData = errors.New("storageengine: write data must not be nil")
)
