package fsops

import (
	"os"
	"path/filepath"
	"syscall"
	"time"

	"github.com/hanwen/go-fuse/v2/fuse"
	"github.com/hanwen/go-fuse/v2/fuse/nodefs"

	"github.com/undofs/undofs/internal/node"
	"github.com/undofs/undofs/internal/revision"
)

func (d *Dispatcher) Open(name string, flags uint32, context *fuse.Context) (nodefs.File, fuse.Status) {
	if d.cfg.ReadOnly && flags&fuse.O_ANYWRITE != 0 {
		return nil, d.finish("open", name, fuse.EROFS)
	}

	nodeDir, err := d.resolve(name)
	if err != nil {
		return nil, d.finish("open", name, errToStatus(err))
	}
	if !node.Exists(nodeDir) || node.IsDeleted(nodeDir) {
		return nil, d.finish("open", name, fuse.ENOENT)
	}
	if node.IsDirectory(nodeDir) {
		return nil, d.finish("open", name, fuse.Status(syscall.EISDIR))
	}

	var target string
	if flags&fuse.O_ANYWRITE != 0 {
		target, err = revision.NewPath(nodeDir)
	} else {
		target, err = revision.LatestPath(nodeDir)
	}
	if err != nil {
		return nil, d.finish("open", name, errToStatus(err))
	}

	osFlags := int(flags) &^ (os.O_CREATE | os.O_EXCL | os.O_TRUNC)
	f, err := os.OpenFile(target, osFlags, 0o644)
	if err != nil {
		return nil, d.finish("open", name, errToStatus(err))
	}
	return nodefs.NewLoopbackFile(f), d.finish("open", name, fuse.OK)
}

func (d *Dispatcher) Create(name string, flags uint32, mode uint32, context *fuse.Context) (nodefs.File, fuse.Status) {
	if d.cfg.ReadOnly {
		return nil, d.finish("create", name, fuse.EROFS)
	}

	nodeDir, err := d.resolve(name)
	if err != nil {
		return nil, d.finish("create", name, errToStatus(err))
	}
	if node.IsDirectory(nodeDir) {
		return nil, d.finish("create", name, fuse.Status(syscall.EISDIR))
	}

	target, err := revision.NewPath(nodeDir)
	if err != nil {
		return nil, d.finish("create", name, errToStatus(err))
	}

	f, err := os.OpenFile(target, os.O_CREATE|os.O_TRUNC|os.O_RDWR, os.FileMode(mode))
	if err != nil {
		return nil, d.finish("create", name, errToStatus(err))
	}
	return nodefs.NewLoopbackFile(f), d.finish("create", name, fuse.OK)
}

func (d *Dispatcher) Mknod(name string, mode uint32, dev uint32, context *fuse.Context) fuse.Status {
	if d.cfg.ReadOnly {
		return d.finish("mknod", name, fuse.EROFS)
	}
	nodeDir, err := d.resolve(name)
	if err != nil {
		return d.finish("mknod", name, errToStatus(err))
	}
	if node.IsDirectory(nodeDir) {
		return d.finish("mknod", name, fuse.Status(syscall.EISDIR))
	}
	target, err := revision.NewPath(nodeDir)
	if err != nil {
		return d.finish("mknod", name, errToStatus(err))
	}
	if err := syscall.Mknod(target, mode, int(dev)); err != nil {
		return d.finish("mknod", name, errToStatus(err))
	}
	return d.finish("mknod", name, fuse.OK)
}

func (d *Dispatcher) Mkdir(name string, mode uint32, context *fuse.Context) fuse.Status {
	if d.cfg.ReadOnly {
		return d.finish("mkdir", name, fuse.EROFS)
	}
	nodeDir, err := d.resolve(name)
	if err != nil {
		return d.finish("mkdir", name, errToStatus(err))
	}

	if node.Exists(nodeDir) {
		if node.IsDirectory(nodeDir) && node.IsDeleted(nodeDir) {
			if err := node.Undelete(nodeDir); err != nil {
				return d.finish("mkdir", name, errToStatus(err))
			}
			return d.finish("mkdir", name, fuse.OK)
		}
		return d.finish("mkdir", name, fuse.Status(syscall.EEXIST))
	}

	if err := node.MarkDirectory(nodeDir); err != nil {
		return d.finish("mkdir", name, errToStatus(err))
	}
	return d.finish("mkdir", name, fuse.OK)
}

func (d *Dispatcher) Unlink(name string, context *fuse.Context) fuse.Status {
	if d.cfg.ReadOnly {
		return d.finish("unlink", name, fuse.EROFS)
	}
	nodeDir, err := d.resolve(name)
	if err != nil {
		return d.finish("unlink", name, errToStatus(err))
	}
	if !node.Exists(nodeDir) {
		return d.finish("unlink", name, fuse.ENOENT)
	}
	if node.IsDirectory(nodeDir) {
		return d.finish("unlink", name, fuse.Status(syscall.EISDIR))
	}
	if node.IsDeleted(nodeDir) {
		return d.finish("unlink", name, fuse.ENOENT)
	}
	if err := node.MarkDeleted(nodeDir); err != nil {
		return d.finish("unlink", name, errToStatus(err))
	}
	return d.finish("unlink", name, fuse.OK)
}

// Rmdir tombstones the directory node. It does not verify that all
// children are already tombstoned; this mirrors the reference design's
// permissive behavior (see the project's design notes).
func (d *Dispatcher) Rmdir(name string, context *fuse.Context) fuse.Status {
	if d.cfg.ReadOnly {
		return d.finish("rmdir", name, fuse.EROFS)
	}
	nodeDir, err := d.resolve(name)
	if err != nil {
		return d.finish("rmdir", name, errToStatus(err))
	}
	if !node.Exists(nodeDir) {
		return d.finish("rmdir", name, fuse.ENOENT)
	}
	if !node.IsDirectory(nodeDir) {
		return d.finish("rmdir", name, fuse.Status(syscall.ENOTDIR))
	}
	if err := node.MarkDeleted(nodeDir); err != nil {
		return d.finish("rmdir", name, errToStatus(err))
	}
	return d.finish("rmdir", name, fuse.OK)
}

func (d *Dispatcher) Symlink(value string, linkName string, context *fuse.Context) fuse.Status {
	if d.cfg.ReadOnly {
		return d.finish("symlink", linkName, fuse.EROFS)
	}
	nodeDir, err := d.resolve(linkName)
	if err != nil {
		return d.finish("symlink", linkName, errToStatus(err))
	}
	target, err := revision.NewPath(nodeDir)
	if err != nil {
		return d.finish("symlink", linkName, errToStatus(err))
	}
	if err := os.Symlink(value, target); err != nil {
		return d.finish("symlink", linkName, errToStatus(err))
	}
	return d.finish("symlink", linkName, fuse.OK)
}

func (d *Dispatcher) Link(oldName string, newName string, context *fuse.Context) fuse.Status {
	if d.cfg.ReadOnly {
		return d.finish("link", newName, fuse.EROFS)
	}
	oldDir, err := d.resolve(oldName)
	if err != nil {
		return d.finish("link", newName, errToStatus(err))
	}
	if node.IsDirectory(oldDir) {
		return d.finish("link", newName, fuse.Status(syscall.EISDIR))
	}
	src, err := revision.LatestPath(oldDir)
	if err != nil {
		return d.finish("link", newName, errToStatus(err))
	}
	newDir, err := d.resolve(newName)
	if err != nil {
		return d.finish("link", newName, errToStatus(err))
	}
	dst, err := revision.NewPath(newDir)
	if err != nil {
		return d.finish("link", newName, errToStatus(err))
	}
	if err := os.Link(src, dst); err != nil {
		return d.finish("link", newName, errToStatus(err))
	}
	return d.finish("link", newName, fuse.OK)
}

// Rename moves a directory node wholesale (overwriting and losing the
// history of any existing destination), or for a file, tombstones the
// source and clones its latest revision into a freshly allocated
// destination revision, undeleting the source again if the clone fails.
func (d *Dispatcher) Rename(oldName string, newName string, context *fuse.Context) fuse.Status {
	if d.cfg.ReadOnly {
		return d.finish("rename", newName, fuse.EROFS)
	}
	oldDir, err := d.resolve(oldName)
	if err != nil {
		return d.finish("rename", newName, errToStatus(err))
	}
	if !node.Exists(oldDir) {
		return d.finish("rename", newName, fuse.ENOENT)
	}

	newDir, err := d.resolve(newName)
	if err != nil {
		return d.finish("rename", newName, errToStatus(err))
	}

	if node.IsDirectory(oldDir) {
		if node.Exists(newDir) {
			d.logger.Info("rename overwriting destination, losing its history", "dst", newName)
			if err := os.RemoveAll(newDir); err != nil {
				return d.finish("rename", newName, errToStatus(err))
			}
		}
		if err := os.MkdirAll(filepath.Dir(newDir), 0o755); err != nil {
			return d.finish("rename", newName, errToStatus(err))
		}
		if err := os.Rename(oldDir, newDir); err != nil {
			return d.finish("rename", newName, errToStatus(err))
		}
		return d.finish("rename", newName, fuse.OK)
	}

	if node.IsDeleted(oldDir) {
		return d.finish("rename", newName, fuse.ENOENT)
	}

	src, err := revision.LatestPath(oldDir)
	if err != nil {
		return d.finish("rename", newName, errToStatus(err))
	}

	if err := node.MarkDeleted(oldDir); err != nil {
		return d.finish("rename", newName, errToStatus(err))
	}

	dst, err := revision.NewPath(newDir)
	if err != nil {
		_ = node.Undelete(oldDir)
		return d.finish("rename", newName, errToStatus(err))
	}
	if err := revision.Clone(src, dst); err != nil {
		_ = node.Undelete(oldDir)
		return d.finish("rename", newName, errToStatus(err))
	}
	return d.finish("rename", newName, fuse.OK)
}

func (d *Dispatcher) Chmod(name string, mode uint32, context *fuse.Context) fuse.Status {
	if d.cfg.ReadOnly {
		return d.finish("chmod", name, fuse.EROFS)
	}
	target, status := d.statTarget(name)
	if !status.Ok() {
		return d.finish("chmod", name, status)
	}
	if err := os.Chmod(target, os.FileMode(mode)); err != nil {
		return d.finish("chmod", name, errToStatus(err))
	}
	return d.finish("chmod", name, fuse.OK)
}

func (d *Dispatcher) Chown(name string, uid uint32, gid uint32, context *fuse.Context) fuse.Status {
	if d.cfg.ReadOnly {
		return d.finish("chown", name, fuse.EROFS)
	}
	target, status := d.statTarget(name)
	if !status.Ok() {
		return d.finish("chown", name, status)
	}
	if err := os.Chown(target, int(uid), int(gid)); err != nil {
		return d.finish("chown", name, errToStatus(err))
	}
	return d.finish("chown", name, fuse.OK)
}

func (d *Dispatcher) Utimens(name string, atime *time.Time, mtime *time.Time, context *fuse.Context) fuse.Status {
	if d.cfg.ReadOnly {
		return d.finish("utimens", name, fuse.EROFS)
	}
	target, status := d.statTarget(name)
	if !status.Ok() {
		return d.finish("utimens", name, status)
	}
	a, m := time.Now(), time.Now()
	if atime != nil {
		a = *atime
	}
	if mtime != nil {
		m = *mtime
	}
	if err := os.Chtimes(target, a, m); err != nil {
		return d.finish("utimens", name, errToStatus(err))
	}
	return d.finish("utimens", name, fuse.OK)
}

// Truncate applies only to files; only the latest revision is mutated,
// earlier revisions remain immutable per I5.
func (d *Dispatcher) Truncate(name string, size uint64, context *fuse.Context) fuse.Status {
	if d.cfg.ReadOnly {
		return d.finish("truncate", name, fuse.EROFS)
	}
	nodeDir, err := d.resolve(name)
	if err != nil {
		return d.finish("truncate", name, errToStatus(err))
	}
	if !node.Exists(nodeDir) || node.IsDeleted(nodeDir) {
		return d.finish("truncate", name, fuse.ENOENT)
	}
	if node.IsDirectory(nodeDir) {
		return d.finish("truncate", name, fuse.Status(syscall.EISDIR))
	}
	target, err := revision.LatestPath(nodeDir)
	if err != nil {
		return d.finish("truncate", name, errToStatus(err))
	}
	if err := os.Truncate(target, int64(size)); err != nil {
		return d.finish("truncate", name, errToStatus(err))
	}
	return d.finish("truncate", name, fuse.OK)
}
