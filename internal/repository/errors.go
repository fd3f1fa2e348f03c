package repository

import "errors"

// ErrSnapshotUnsupported is returned by Snapshot when the database driver
// cannot produce a file copy of the database. Only sqlite3 can.
var ErrSnapshotUnsupported = errors.New("snapshots are not supported by this database driver")
