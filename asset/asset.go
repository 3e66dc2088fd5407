// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package asset provides the places resource files are read from:
// a directory on disk, a packr box compiled into the binary, or memory.
// A kar archive is a Source as well.
package asset

import (
	"io/ioutil"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/gobuffalo/packd"
	"github.com/gobuffalo/packr"
)

// Source reads named resource files. Names use forward slashes.
type Source interface {

	// ReadFile returns the full contents of the named file.
	// Missing files produce an error matching os.ErrNotExist.
	ReadFile(name string) ([]byte, error)

	// List returns the names of all files in the source, sorted.
	List() ([]string, error)
}

func notExist(name string) error {
	return &os.PathError{Op: "open", Path: name, Err: os.ErrNotExist}
}

// Dir is a Source rooted at a directory. Absolute names are read as is.
type Dir string

// ReadFile implements interface
func (d Dir) ReadFile(name string) ([]byte, error) {
	if filepath.IsAbs(name) {
		return ioutil.ReadFile(name)
	}
	return ioutil.ReadFile(filepath.Join(string(d), filepath.FromSlash(name)))
}

// List implements interface
func (d Dir) List() ([]string, error) {
	var names []string
	root := string(d)
	if err := filepath.Walk(root, func(p string, f os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if f.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(root, p)
		if err != nil {
			return err
		}
		names = append(names, filepath.ToSlash(rel))
		return nil
	}); err != nil {
		return nil, err
	}
	sort.Strings(names)
	return names, nil
}

// Box is a Source backed by a packr box, so assets can be compiled
// into the binary with the packr tool and still be read from disk
// during development. Create the box with packr.NewBox in the package
// owning the files, packr resolves the path relative to the caller.
type Box struct {
	packr.Box
}

// ReadFile implements interface
func (b Box) ReadFile(name string) ([]byte, error) {
	if !b.Has(name) {
		return nil, notExist(name)
	}
	return b.Find(name)
}

// List implements interface
func (b Box) List() ([]string, error) {
	var names []string
	if err := b.Walk(func(name string, _ packd.File) error {
		names = append(names, filepath.ToSlash(name))
		return nil
	}); err != nil {
		return nil, err
	}
	sort.Strings(names)
	return names, nil
}

// Memory is a Source of in-memory files.
type Memory map[string][]byte

// ReadFile implements interface
func (m Memory) ReadFile(name string) ([]byte, error) {
	data, ok := m[path.Clean(name)]
	if !ok {
		return nil, notExist(name)
	}
	return append([]byte(nil), data...), nil
}

// List implements interface
func (m Memory) List() ([]string, error) {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// Overlay reads from each source in order, returning the first hit.
// It lets a directory on disk shadow assets compiled into the binary.
type Overlay []Source

// ReadFile implements interface
func (o Overlay) ReadFile(name string) ([]byte, error) {
	for _, src := range o {
		data, err := src.ReadFile(name)
		if err == nil {
			return data, nil
		}
		if !os.IsNotExist(err) {
			return nil, err
		}
	}
	return nil, notExist(name)
}

// List implements interface
func (o Overlay) List() ([]string, error) {
	seen := make(map[string]bool)
	var names []string
	for _, src := range o {
		list, err := src.List()
		if err != nil {
			return nil, err
		}
		for _, name := range list {
			if !seen[name] {
				seen[name] = true
				names = append(names, name)
			}
		}
	}
	sort.Strings(names)
	return names, nil
}

// Ext returns the lower-case extension of name without the dot.
func Ext(name string) string {
	return strings.ToLower(strings.TrimPrefix(path.Ext(name), "."))
}
