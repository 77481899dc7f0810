// Package mount wires the operation dispatcher into a live FUSE mount,
// bridging pathfs.FileSystem to the kernel.
package mount

import (
	"context"
	"fmt"

	"github.com/hanwen/go-fuse/v2/fuse"
	"github.com/hanwen/go-fuse/v2/fuse/nodefs"
	"github.com/hanwen/go-fuse/v2/fuse/pathfs"

	"github.com/undofs/undofs/internal/config"
	"github.com/undofs/undofs/internal/fsops"
)

// Mount owns a live FUSE server bound to a single mountpoint.
type Mount struct {
	server *fuse.Server
}

// New establishes the FUSE mount at cfg.MountPoint, backed by the given
// dispatcher. The mount is not yet serving; call WaitAndServe.
func New(cfg config.Config, dispatcher *fsops.Dispatcher) (*Mount, error) {
	pathFs := pathfs.NewPathNodeFs(dispatcher, nil)
	conn := nodefs.NewFileSystemConnector(pathFs.Root(), nodefs.NewOptions())

	opts := &fuse.MountOptions{
		AllowOther:    cfg.AllowOther,
		Name:          "undofs",
		FsName:        cfg.BackingRoot,
		DisableXAttrs: true,
	}

	server, err := fuse.NewServer(conn.RawFS(), cfg.MountPoint, opts)
	if err != nil {
		return nil, fmt.Errorf("mount %s on %s: %w", cfg.BackingRoot, cfg.MountPoint, err)
	}
	return &Mount{server: server}, nil
}

// WaitAndServe serves the mount until ctx is cancelled, then unmounts.
func (m *Mount) WaitAndServe(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		defer close(done)
		m.server.Serve()
	}()

	select {
	case <-ctx.Done():
		err := m.server.Unmount()
		<-done
		return err
	case <-done:
		return nil
	}
}

// Unmount requests the kernel release the mountpoint.
func (m *Mount) Unmount() error {
	return m.server.Unmount()
}
