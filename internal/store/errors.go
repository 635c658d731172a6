package store

import "errors"

var (
	// ErrStorageUnavailable means the backing database could not be opened
	// or created. Fatal to startup; never retried.
	ErrStorageUnavailable = errors.New("storage unavailable")

	// ErrKeyAlreadyExists is returned by AddSettings when the singleton is
	// already present. Expected during racing initialization; the caller
	// re-reads instead of treating it as a failure.
	ErrKeyAlreadyExists = errors.New("key already exists")

	// ErrTxFailure wraps backend I/O errors raised inside a transaction.
	ErrTxFailure = errors.New("transaction failure")

	// ErrNotFound is returned by GetSettings when the key is absent.
	ErrNotFound = errors.New("not found")

	// ErrScope is returned for an operation outside its transaction scope.
	ErrScope = errors.New("operation outside transaction scope")

	// ErrReadOnly is returned for a write inside a read-only transaction.
	ErrReadOnly = errors.New("write in read-only transaction")
)
