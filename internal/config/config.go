// Package config holds the immutable, initialization-time configuration
// threaded through the dispatcher. It is built once by the CLI layer and
// never mutated afterwards.
package config

import "path/filepath"

// NodeSuffix is appended to every logical path segment, including the
// last, when deriving its physical node directory.
const NodeSuffix = ".node"

// DirMarker is the empty regular file whose presence means a node
// represents a directory.
const DirMarker = "dir"

// DeletedMarker is the empty regular file whose presence means a node is
// tombstoned.
const DeletedMarker = "deleted"

// LogFileName is the diagnostic log written at the backing root.
const LogFileName = "log.txt"

// Config is the read-only configuration for a single mount.
type Config struct {
	// BackingRoot is the absolute host-filesystem directory holding all
	// physical state.
	BackingRoot string

	// MountPoint is the absolute directory the filesystem is mounted on.
	MountPoint string

	// AllowOther permits access from users other than the one who
	// mounted the filesystem.
	AllowOther bool

	// ReadOnly rejects every mutating operation at the dispatcher.
	ReadOnly bool
}

// LogPath returns the path of the diagnostic log file at the backing root.
func (c Config) LogPath() string {
	return filepath.Join(c.BackingRoot, LogFileName)
}
