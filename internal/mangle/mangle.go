// Package mangle implements the bijective translation between logical
// paths, as seen by clients of the mounted filesystem, and physical
// backing paths, where every path segment carries a reserved suffix.
package mangle

import (
	"errors"
	"path"
	"strings"

	"github.com/undofs/undofs/internal/config"
)

// ErrNameTooLong is returned by VersionDir when the mangled physical path
// would exceed the platform path-length limit.
var ErrNameTooLong = errors.New("mangle: mangled path exceeds platform limit")

// ErrNotMangled is returned by Demangle / DemangleSegment when a physical
// name does not end in the reserved node suffix, or otherwise cannot be a
// well-formed mangled name.
var ErrNotMangled = errors.New("mangle: name is not a well-formed node segment")

// maxPathLen mirrors PATH_MAX on Linux. The backing store is assumed to
// live on a filesystem with this limit; exceeding it at the physical
// layer can never succeed regardless of what the host actually enforces.
const maxPathLen = 4096

// VersionDir computes the physical node directory for a logical path
// under the given backing root. It never touches the filesystem.
//
// Every segment of the logical path, including the last, is suffixed
// with config.NodeSuffix. The logical root "/" maps to root itself.
func VersionDir(root, logical string) (string, error) {
	clean := path.Clean("/" + logical)
	if clean == "/" {
		return root, nil
	}

	segments := strings.Split(strings.TrimPrefix(clean, "/"), "/")
	physical := root
	for _, seg := range segments {
		physical = path.Join(physical, seg+config.NodeSuffix)
	}

	if len(physical) > maxPathLen {
		return "", ErrNameTooLong
	}
	return physical, nil
}

// DemangleSegment strips the reserved suffix from a single physical path
// component, as found e.g. as a directory entry name during readdir. It
// reports ErrNotMangled if the segment does not end in the suffix, or
// contains characters that could never appear in a logical name.
func DemangleSegment(seg string) (string, error) {
	if seg == "" || strings.ContainsAny(seg, "/\x00") {
		return "", ErrNotMangled
	}
	if !strings.HasSuffix(seg, config.NodeSuffix) {
		return seg, ErrNotMangled
	}
	name := strings.TrimSuffix(seg, config.NodeSuffix)
	if name == "" || strings.ContainsAny(name, "/\x00") {
		return "", ErrNotMangled
	}
	return name, nil
}

// Demangle is the inverse of VersionDir: given a physical path beneath
// root, it reconstructs the logical path. If any segment is not fully
// mangled it still returns a best-effort logical path alongside
// ErrNotMangled.
func Demangle(root, physical string) (string, error) {
	rel := strings.TrimPrefix(physical, root)
	rel = strings.TrimPrefix(rel, "/")
	if rel == "" {
		return "/", nil
	}

	segments := strings.Split(rel, "/")
	out := make([]string, 0, len(segments))
	var malformed error
	for _, seg := range segments {
		name, err := DemangleSegment(seg)
		if err != nil {
			malformed = ErrNotMangled
			if name == "" {
				name = seg
			}
		}
		out = append(out, name)
	}

	return "/" + strings.Join(out, "/"), malformed
}
