// Package persistence captures the live world into textual snapshots and
// reconstructs it from them, lists the snapshot catalog, and journals world
// events. Every failure is recoverable: operations either complete or leave
// the live world and any existing snapshot untouched.
package persistence

import "errors"

var (
	// ErrSerialization: the encoder rejected live data. No file was written.
	ErrSerialization = errors.New("snapshot serialization failed")

	// ErrWrite: the storage layer failed. Any previous snapshot with the
	// same name is untouched.
	ErrWrite = errors.New("snapshot write failed")

	// ErrCorruptSnapshot: the snapshot body is malformed or not a mapping.
	// The load was aborted before the live world was touched.
	ErrCorruptSnapshot = errors.New("corrupt snapshot")

	// ErrMissingFile: the load target does not exist.
	ErrMissingFile = errors.New("snapshot file missing")
)
