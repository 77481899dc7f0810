// Package node implements the predicates and marker mutators that
// classify a physical node directory as a file, a directory, or
// tombstoned, following the exclusive-create discipline markers require.
package node

import (
	"errors"
	"os"
	"path/filepath"

	"github.com/undofs/undofs/internal/config"
)

// ErrAlreadyMarked is returned when a marker file already exists at the
// time its exclusive creation was attempted.
var ErrAlreadyMarked = errors.New("node: marker already exists")

// ErrNotMarked is returned by Undelete when the deletion marker is absent.
var ErrNotMarked = errors.New("node: marker does not exist")

// IsDirectory reports whether nodeDir carries the directory marker.
func IsDirectory(nodeDir string) bool {
	return probe(filepath.Join(nodeDir, config.DirMarker))
}

// IsDeleted reports whether nodeDir carries the deletion marker.
func IsDeleted(nodeDir string) bool {
	return probe(filepath.Join(nodeDir, config.DeletedMarker))
}

// Exists reports whether nodeDir exists as a directory on the backing
// store.
func Exists(nodeDir string) bool {
	info, err := os.Stat(nodeDir)
	return err == nil && info.IsDir()
}

func probe(p string) bool {
	_, err := os.Lstat(p)
	return err == nil
}

// MarkDeleted creates the deletion marker for nodeDir, creating the node
// directory itself if it does not yet exist. It returns ErrAlreadyMarked
// if the marker already existed.
func MarkDeleted(nodeDir string) error {
	return createMarker(nodeDir, config.DeletedMarker)
}

// Undelete removes the deletion marker for nodeDir. It returns
// ErrNotMarked if no marker was present.
func Undelete(nodeDir string) error {
	err := os.Remove(filepath.Join(nodeDir, config.DeletedMarker))
	if err != nil {
		if os.IsNotExist(err) {
			return ErrNotMarked
		}
		return err
	}
	return nil
}

// MarkDirectory creates the directory marker for nodeDir, creating the
// node directory itself if absent. Per I6 this marker is never removed
// once set.
func MarkDirectory(nodeDir string) error {
	return createMarker(nodeDir, config.DirMarker)
}

func createMarker(nodeDir, name string) error {
	if err := os.MkdirAll(nodeDir, 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(filepath.Join(nodeDir, name), os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		if os.IsExist(err) {
			return ErrAlreadyMarked
		}
		return err
	}
	return f.Close()
}
