package fsops

import (
	"os"
	"path/filepath"
	"syscall"

	"github.com/hanwen/go-fuse/v2/fuse"

	"github.com/undofs/undofs/internal/mangle"
	"github.com/undofs/undofs/internal/node"
	"github.com/undofs/undofs/internal/revision"
)

func (d *Dispatcher) GetAttr(name string, context *fuse.Context) (*fuse.Attr, fuse.Status) {
	target, status := d.statTarget(name)
	if !status.Ok() {
		return nil, d.finish("getattr", name, status)
	}
	fi, err := os.Lstat(target)
	if err != nil {
		return nil, d.finish("getattr", name, errToStatus(err))
	}
	return attrFromFileInfo(fi), d.finish("getattr", name, fuse.OK)
}

func (d *Dispatcher) Access(name string, mode uint32, context *fuse.Context) fuse.Status {
	_, status := d.statTarget(name)
	return d.finish("access", name, status)
}

func (d *Dispatcher) Readlink(name string, context *fuse.Context) (string, fuse.Status) {
	target, status := d.statTarget(name)
	if !status.Ok() {
		return "", d.finish("readlink", name, status)
	}
	s, err := os.Readlink(target)
	if err != nil {
		return "", d.finish("readlink", name, errToStatus(err))
	}
	return s, d.finish("readlink", name, fuse.OK)
}

func (d *Dispatcher) StatFs(name string) *fuse.StatfsOut {
	var st syscall.Statfs_t
	if err := syscall.Statfs(d.cfg.BackingRoot, &st); err != nil {
		d.finish("statfs", name, errToStatus(err))
		return nil
	}
	d.finish("statfs", name, fuse.OK)
	return &fuse.StatfsOut{
		Blocks:  st.Blocks,
		Bfree:   st.Bfree,
		Bavail:  st.Bavail,
		Files:   st.Files,
		Ffree:   st.Ffree,
		Bsize:   uint32(st.Bsize),
		NameLen: uint32(st.Namelen),
		Frsize:  uint32(st.Frsize),
	}
}

// OpenDir implements the readdir protocol: the node directory of the
// logical path is listed, and every child whose demangled name is
// well-formed is included unless it is tombstoned or uninitialized.
// "." and ".." are supplied by the go-fuse path bridge, not here.
func (d *Dispatcher) OpenDir(name string, context *fuse.Context) ([]fuse.DirEntry, fuse.Status) {
	nodeDir, err := d.resolve(name)
	if err != nil {
		return nil, d.finish("readdir", name, errToStatus(err))
	}
	if !node.Exists(nodeDir) || node.IsDeleted(nodeDir) {
		return nil, d.finish("readdir", name, fuse.ENOENT)
	}
	if !node.IsDirectory(nodeDir) {
		return nil, d.finish("readdir", name, fuse.Status(syscall.ENOTDIR))
	}

	entries, err := os.ReadDir(nodeDir)
	if err != nil {
		return nil, d.finish("readdir", name, errToStatus(err))
	}

	out := make([]fuse.DirEntry, 0, len(entries))
	for _, e := range entries {
		logicalName, derr := mangle.DemangleSegment(e.Name())
		if derr != nil {
			continue
		}
		childNode := filepath.Join(nodeDir, e.Name())

		if node.IsDirectory(childNode) {
			if !node.IsDeleted(childNode) {
				out = append(out, fuse.DirEntry{Name: logicalName, Mode: fuse.S_IFDIR})
			}
			continue
		}

		if node.IsDeleted(childNode) {
			continue
		}
		revPath, err := revision.LatestPath(childNode)
		if err != nil {
			continue
		}
		if _, err := os.Stat(revPath); err != nil {
			continue
		}
		out = append(out, fuse.DirEntry{Name: logicalName, Mode: fuse.S_IFREG})
	}

	return out, d.finish("readdir", name, fuse.OK)
}
