// Package fsops implements the operation contract expected by the FUSE
// bridge in terms of the path mangler, node metadata layer and revision
// store: attribute lookup, open/read/write, create, unlink, rmdir,
// rename, link, symlink, readdir, truncate, chmod, chown, utime and
// statfs.
package fsops

import (
	"errors"
	"os"
	"syscall"

	"github.com/go-logr/logr"
	"github.com/hanwen/go-fuse/v2/fuse"
	"github.com/hanwen/go-fuse/v2/fuse/pathfs"

	"github.com/undofs/undofs/internal/config"
	"github.com/undofs/undofs/internal/mangle"
	"github.com/undofs/undofs/internal/node"
	"github.com/undofs/undofs/internal/revision"
)

// Recorder receives one observation per completed dispatcher call. It is
// satisfied by internal/metrics.Recorder; tests may supply a no-op.
type Recorder interface {
	Observe(op string, status fuse.Status)
}

type noopRecorder struct{}

func (noopRecorder) Observe(string, fuse.Status) {}

// Dispatcher implements pathfs.FileSystem on top of the versioning
// backing store described by cfg. It embeds pathfs.NewDefaultFileSystem
// so that operations this package does not override (extended
// attributes, for instance) report ENOSYS rather than panic.
type Dispatcher struct {
	pathfs.FileSystem

	cfg      config.Config
	logger   logr.Logger
	recorder Recorder
}

// NewDispatcher builds a Dispatcher for the given immutable config. If
// rec is nil, observations are discarded.
func NewDispatcher(cfg config.Config, logger logr.Logger, rec Recorder) *Dispatcher {
	if rec == nil {
		rec = noopRecorder{}
	}
	return &Dispatcher{
		FileSystem: pathfs.NewDefaultFileSystem(),
		cfg:        cfg,
		logger:     logger,
		recorder:   rec,
	}
}

func (d *Dispatcher) String() string {
	return "undofs(" + d.cfg.BackingRoot + ")"
}

// resolve computes the physical node directory for a logical path.
func (d *Dispatcher) resolve(logical string) (string, error) {
	return mangle.VersionDir(d.cfg.BackingRoot, logical)
}

// finish records the outcome of op against logical path name and returns
// status unchanged, so call sites can write `return d.finish(...)`.
func (d *Dispatcher) finish(op, name string, status fuse.Status) fuse.Status {
	d.recorder.Observe(op, status)
	if !status.Ok() {
		d.logger.V(1).Info("operation failed", "op", op, "path", name, "errno", status.String())
	} else {
		d.logger.V(4).Info("operation ok", "op", op, "path", name)
	}
	return status
}

// statTarget resolves name to the physical path whose stat represents
// its attributes: the node directory itself for a directory, or the
// latest revision file for a file. It reports not-found for absent or
// tombstoned nodes.
func (d *Dispatcher) statTarget(name string) (string, fuse.Status) {
	nodeDir, err := d.resolve(name)
	if err != nil {
		return "", errToStatus(err)
	}
	if !node.Exists(nodeDir) || node.IsDeleted(nodeDir) {
		return "", fuse.ENOENT
	}
	if node.IsDirectory(nodeDir) {
		return nodeDir, fuse.OK
	}
	target, err := revision.LatestPath(nodeDir)
	if err != nil {
		return "", errToStatus(err)
	}
	return target, fuse.OK
}

// errToStatus maps a Go error from mangle/node/revision or the standard
// library onto the POSIX error-code taxonomy the dispatcher promises.
func errToStatus(err error) fuse.Status {
	switch {
	case err == nil:
		return fuse.OK
	case errors.Is(err, mangle.ErrNameTooLong):
		return fuse.Status(syscall.ENAMETOOLONG)
	case errors.Is(err, revision.ErrIsDirectory):
		return fuse.Status(syscall.EISDIR)
	case errors.Is(err, revision.ErrCopyFailed):
		return fuse.Status(syscall.EIO)
	case errors.Is(err, node.ErrAlreadyMarked):
		return fuse.Status(syscall.EEXIST)
	case errors.Is(err, node.ErrNotMarked):
		return fuse.ENOENT
	case os.IsNotExist(err):
		return fuse.ENOENT
	case os.IsExist(err):
		return fuse.Status(syscall.EEXIST)
	default:
		var errno syscall.Errno
		if errors.As(err, &errno) {
			return fuse.Status(errno)
		}
		return fuse.Status(syscall.EIO)
	}
}

// attrFromFileInfo converts a stat result into the wire attribute struct
// the FUSE bridge expects.
func attrFromFileInfo(fi os.FileInfo) *fuse.Attr {
	st, ok := fi.Sys().(*syscall.Stat_t)
	a := &fuse.Attr{
		Size: uint64(fi.Size()),
		Mode: uint32(fi.Mode().Perm()),
	}
	if fi.IsDir() {
		a.Mode |= fuse.S_IFDIR
	} else if fi.Mode()&os.ModeSymlink != 0 {
		a.Mode |= fuse.S_IFLNK
	} else {
		a.Mode |= fuse.S_IFREG
	}
	if !ok || st == nil {
		return a
	}
	a.Ino = st.Ino
	a.Blocks = uint64(st.Blocks)
	a.Nlink = uint32(st.Nlink)
	a.Owner = fuse.Owner{Uid: st.Uid, Gid: st.Gid}
	a.Rdev = uint32(st.Rdev)
	a.Blksize = uint32(st.Blksize)
	a.Atime = uint64(st.Atim.Sec)
	a.Atimensec = uint32(st.Atim.Nsec)
	a.Mtime = uint64(st.Mtim.Sec)
	a.Mtimensec = uint32(st.Mtim.Nsec)
	a.Ctime = uint64(st.Ctim.Sec)
	a.Ctimensec = uint32(st.Ctim.Nsec)
	return a
}
