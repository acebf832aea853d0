// Copyright OCR Backend Authors
// SPDX-License-Identifier: Apache-2.0

// Package uploads manages the local directory holding uploaded files.
package uploads

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

var (
	// ErrNotFound is returned when the requested file does not exist.
	ErrNotFound = errors.New("file not found")

	// ErrInvalidName is returned for names that are not a single plain
	// path element inside the upload directory.
	ErrInvalidName = errors.New("invalid file name")
)

// Dir is the upload directory. Every name it accepts must be a single path
// element; lookups go through an os.Root so symlinks cannot escape it.
type Dir struct {
	path string
	root *os.Root
}

// New opens the upload directory, creating it if it does not exist.
func New(dir string) (*Dir, error) {
	if dir == "" {
		return nil, fmt.Errorf("upload dir is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir %s: %w", dir, err)
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolve upload dir %s: %w", dir, err)
	}
	root, err := os.OpenRoot(abs)
	if err != nil {
		return nil, fmt.Errorf("open upload dir %s: %w", dir, err)
	}
	return &Dir{path: abs, root: root}, nil
}

// Root returns the absolute path of the upload directory.
func (d *Dir) Root() string {
	return d.path
}

// Path returns the on-disk location of name, or ErrInvalidName.
func (d *Dir) Path(name string) (string, error) {
	if err := checkName(name); err != nil {
		return "", err
	}
	return filepath.Join(d.path, name), nil
}

// Save writes r to name atomically (temp file + rename). An existing file
// with the same name is replaced.
func (d *Dir) Save(ctx context.Context, name string, r io.Reader) (string, error) {
	if err := checkName(name); err != nil {
		return "", err
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	tmp, err := os.CreateTemp(d.path, "."+name+".*.tmp")
	if err != nil {
		return "", fmt.Errorf("create %s: %w", name, err)
	}
	if _, err := io.Copy(tmp, r); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", fmt.Errorf("write %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("close %s: %w", name, err)
	}

	dst := filepath.Join(d.path, name)
	if err := os.Rename(tmp.Name(), dst); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("rename %s: %w", name, err)
	}
	return dst, nil
}

// Open opens name for reading. Directories and missing files report
// ErrNotFound; names that could leave the directory report ErrInvalidName.
func (d *Dir) Open(name string) (*os.File, fs.FileInfo, error) {
	if err := checkName(name); err != nil {
		return nil, nil, err
	}

	f, err := d.root.Open(name)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil, fmt.Errorf("%s: %w", name, ErrNotFound)
		}
		// os.Root reports escapes (e.g. via symlink) as a path error.
		return nil, nil, fmt.Errorf("%s: %w", name, ErrInvalidName)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, nil, fmt.Errorf("stat %s: %w", name, err)
	}
	if info.IsDir() {
		f.Close()
		return nil, nil, fmt.Errorf("%s: %w", name, ErrNotFound)
	}
	return f, info, nil
}

// Close releases the directory handle.
func (d *Dir) Close() error {
	return d.root.Close()
}

// checkName accepts plain file names only. Dot files are refused as well:
// sanitised uploads never start with a dot, and Save stages partial writes
// under dot-prefixed temp names.
func checkName(name string) error {
	if name == "" || strings.HasPrefix(name, ".") {
		return ErrInvalidName
	}
	if strings.ContainsAny(name, `/\`) || strings.ContainsRune(name, 0) {
		return ErrInvalidName
	}
	if filepath.Base(name) != name || filepath.IsAbs(name) {
		return ErrInvalidName
	}
	return nil
}
