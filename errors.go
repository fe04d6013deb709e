package xarray

import "errors"

var (
	// ErrNotfound is returned by stores for missing keys
	ErrNotfound = errors.New("not found")
	// ErrKeyNotFound is returned by mappings for absent or hidden keys
	ErrKeyNotFound = errors.New("key not found")
	// ErrImmutable is returned when assigning to or deleting from a frozen
	// mapping
	ErrImmutable = errors.New("mapping does not support item assignment")
	// ErrUnsupported is returned when a wrapper does not provide an operation
	// at all
	ErrUnsupported = errors.New("unsupported operation")
	// ErrConflict is returned when merging mappings would override a value
	ErrConflict = errors.New("unsafe to merge dictionaries without overriding values")
	// ErrInvalidArgument marks caller errors
	ErrInvalidArgument = errors.New("invalid argument")
)
