// Package revision enumerates, selects and allocates per-node revisions:
// the numbered files inside a node directory that hold the historical
// content of a logical path.
package revision

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	cp "github.com/otiai10/copy"

	"github.com/undofs/undofs/internal/node"
)

// ErrIsDirectory is returned by NewPath when the node is a directory node.
var ErrIsDirectory = errors.New("revision: node is a directory")

// ErrCopyFailed wraps a failure of the attribute-preserving clone.
var ErrCopyFailed = errors.New("revision: clone failed")

// LatestVersion enumerates nodeDir and returns the maximum revision
// number present among entries whose name parses as a non-negative
// decimal integer with no leading zeros other than "0" itself. The
// second return value is false if the node directory does not exist or
// contains no numeric entries.
func LatestVersion(nodeDir string) (int, bool, error) {
	entries, err := os.ReadDir(nodeDir)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, false, nil
		}
		return 0, false, err
	}

	max := -1
	found := false
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if name != "0" && (len(name) == 0 || name[0] == '0') {
			continue
		}
		n, err := strconv.Atoi(name)
		if err != nil || n < 0 {
			continue
		}
		if n > max {
			max = n
			found = true
		}
	}
	if !found {
		return 0, false, nil
	}
	return max, true, nil
}

// LatestPath resolves the physical path of the newest visible revision.
// For a directory node it is the node directory itself; for a file node
// it is node/<max>. It fails if the node has no revisions at all.
func LatestPath(nodeDir string) (string, error) {
	if node.IsDirectory(nodeDir) {
		return nodeDir, nil
	}
	v, ok, err := LatestVersion(nodeDir)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", os.ErrNotExist
	}
	return filepath.Join(nodeDir, strconv.Itoa(v)), nil
}

// NewPath computes the physical destination for a new revision and
// performs any required side effects (node-directory creation, undelete,
// or cloning of the prior revision) before returning it. See §4.3 of the
// design for the five-step allocation algorithm this implements.
func NewPath(nodeDir string) (string, error) {
	if node.IsDirectory(nodeDir) {
		return "", ErrIsDirectory
	}

	v, ok, err := LatestVersion(nodeDir)
	if err != nil {
		return "", err
	}

	if !ok {
		if err := os.MkdirAll(nodeDir, 0o700); err != nil {
			return "", err
		}
		return filepath.Join(nodeDir, "0"), nil
	}

	if node.IsDeleted(nodeDir) {
		if err := node.Undelete(nodeDir); err != nil {
			return "", err
		}
		return filepath.Join(nodeDir, strconv.Itoa(v+1)), nil
	}

	src := filepath.Join(nodeDir, strconv.Itoa(v))
	dst := filepath.Join(nodeDir, strconv.Itoa(v+1))
	if err := Clone(src, dst); err != nil {
		return "", err
	}
	return dst, nil
}

// Clone performs a full attribute-preserving copy of one revision file to
// the next, preserving mode, timestamps and ownership.
func Clone(src, dst string) error {
	opts := cp.Options{
		PreserveTimes: true,
		PreserveOwner: true,
	}
	if err := cp.Copy(src, dst, opts); err != nil {
		return fmt.Errorf("%w: %v", ErrCopyFailed, err)
	}
	return nil
}
