// Package mounts provides the sql file system used by the fact store. The files
// come either from the embedded fs or, when a directory is configured, from that
// directory on disk, so that queries can be changed without a rebuild.
package mounts

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
)

// FileMount is an fs.FS mounted from either an embedded fs.FS or a directory.
type FileMount struct {
	MountName string
	Dir       string // empty for the embedded fs
	fs.FS
}

// String describes the mount and the files it holds.
func (fm FileMount) String() string {
	files, _ := fm.Files()
	return fmt.Sprintf("%s (%s): %s", fm.MountName, fm.Source(), strings.Join(files, ", "))
}

// Source reports where the mount's files come from.
func (fm FileMount) Source() string {
	if fm.Dir == "" {
		return "embedded"
	}
	return fm.Dir
}

// ErrInvalidPath reports an invalid mount name.
type ErrInvalidPath struct {
	mountName string
}

// Error fulfills the Error interface requirement for ErrInvalidPath.
func (e ErrInvalidPath) Error() string {
	return fmt.Sprintf("mount name %q is not a valid fs.ValidPath path", e.mountName)
}

// NewFileMount mounts dirPath, or the mountName subdirectory of embeddedFS when
// dirPath is empty. Either way the files of the mount sit at its root, so that
// given
//
//	//go:embed sql
//	var SQLEmbeddedFS embed.FS
//
// both NewFileMount("sql", SQLEmbeddedFS, "") and NewFileMount("sql",
// SQLEmbeddedFS, "/path/to/sql") hold "schema.sql" rather than "sql/schema.sql".
func NewFileMount(mountName string, embeddedFS fs.FS, dirPath string) (*FileMount, error) {

	if mountName == "" {
		return nil, errors.New("no mount name provided for new file mount")
	}
	if !fs.ValidPath(mountName) {
		return nil, ErrInvalidPath{mountName}
	}

	if dirPath == "" {
		subFS, err := fs.Sub(embeddedFS, mountName)
		if err != nil {
			return nil, fmt.Errorf("could not sub-mount embedded fs at %q: %w", mountName, err)
		}
		return &FileMount{MountName: mountName, FS: subFS}, nil
	}

	s, err := os.Stat(dirPath)
	if err != nil {
		return nil, fmt.Errorf("new mount at %q: %w", dirPath, err)
	}
	if !s.IsDir() {
		return nil, fmt.Errorf("new mount at %q: not a directory", dirPath)
	}
	return &FileMount{MountName: mountName, Dir: dirPath, FS: os.DirFS(dirPath)}, nil
}

// Files lists the regular files in the mount, in lexical order.
func (fm FileMount) Files() ([]string, error) {
	var files []string
	err := fs.WalkDir(fm.FS, ".", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.Type().IsRegular() {
			files = append(files, path)
		}
		return nil
	})
	return files, err
}
