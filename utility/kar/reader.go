// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package kar

import (
	"bytes"
	"fmt"
	"io"
	"io/ioutil"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pierrec/lz4"
	"golang.org/x/exp/mmap"
)

// Open opens the kar archived from r. It will also check
// if the file is actually a kar archive, will return an error
// when file incorrect.
func Open(r io.ReaderAt) (*Archive, error) {
	head := make([]byte, MagicLength)
	if num, err := r.ReadAt(head, 0); err != nil && err != io.EOF {
		return nil, err
	} else if num < MagicLength || !bytes.Equal(head, magic[:]) {
		return nil, ErrFileFormat
	}

	headerSizeBytes := make([]byte, HeaderSizeNumberLength)
	if num, err := r.ReadAt(headerSizeBytes, MagicLength); num < HeaderSizeNumberLength {
		if err != nil && err != io.EOF {
			return nil, err
		}
		return nil, ErrFileFormat
	}

	headerSize, err := headerLength(headerSizeBytes)
	if err != nil {
		return nil, err
	}

	headerBytes := make([]byte, headerSize)
	if num, err := r.ReadAt(headerBytes, MagicLength+HeaderSizeNumberLength); int64(num) < headerSize {
		if err != nil && err != io.EOF {
			return nil, err
		}
		return nil, ErrFileFormat
	}

	header, err := decodeHeader(headerBytes)
	if err != nil {
		return nil, err
	}

	ar := &Archive{
		reader:     r,
		header:     header,
		dataOffset: MagicLength + HeaderSizeNumberLength + headerSize,
		entries:    make(map[string]IndexEntry, len(header.Index)),
	}
	for _, e := range header.Index {
		ar.entries[e.Name] = e
	}
	return ar, nil
}

// OpenFile memory maps the file at path and opens it as an Archive.
// The mapping is released with Close.
func OpenFile(filename string) (*Archive, error) {
	r, err := mmap.Open(filename)
	if err != nil {
		return nil, err
	}
	ar, err := Open(r)
	if err != nil {
		r.Close()
		return nil, err
	}
	ar.closer = r
	return ar, nil
}

// Archive provides concurrent io for a kar file, and can provide
// an io.Reader for each file separately to perform actions on.
type Archive struct {
	reader     io.ReaderAt
	closer     io.Closer
	header     Header
	dataOffset int64
	entries    map[string]IndexEntry
}

// Header returns the archive header, index included.
func (a *Archive) Header() Header {
	return a.header
}

// ReadAll returns the entire contents of a file with a given name
func (a *Archive) ReadAll(file string) ([]byte, error) {
	r, err := a.Open(file)
	if err != nil {
		return nil, err
	}
	data := make([]byte, r.Size())
	if _, err := io.ReadFull(r, data); err != nil {
		return nil, fmt.Errorf("%w: %s: %s", ErrFileFormat, file, err.Error())
	}
	return data, nil
}

// ReadFile is ReadAll, named to serve as an asset source.
func (a *Archive) ReadFile(name string) ([]byte, error) {
	return a.ReadAll(name)
}

// List returns the sorted names of all files in the archive.
func (a *Archive) List() ([]string, error) {
	names := make([]string, 0, len(a.header.Index))
	for _, e := range a.header.Index {
		names = append(names, e.Name)
	}
	sort.Strings(names)
	return names, nil
}

// Open returns a Reader for a file in the Archive
func (a *Archive) Open(name string) (*Reader, error) {
	e, ok := a.entries[path.Clean(name)]
	if !ok {
		return nil, &os.PathError{Op: "open", Path: name, Err: os.ErrNotExist}
	}
	section := io.NewSectionReader(a.reader, a.dataOffset+e.Offset, e.CompressedSize)
	return &Reader{
		Reader: lz4.NewReader(section),
		entry:  e,
	}, nil
}

// Close releases the memory mapping if the archive was opened with OpenFile.
func (a *Archive) Close() error {
	if a.closer == nil {
		return nil
	}
	err := a.closer.Close()
	a.closer = nil
	return err
}

// Reader is a reader for a single file in an Archive.
// Abstracts away the location that needs to be known.
type Reader struct {
	io.Reader

	entry IndexEntry
}

// Size is the uncompressed size of the file.
func (r *Reader) Size() int64 {
	return r.entry.Size
}

// Name of the file being read.
func (r *Reader) Name() string {
	return r.entry.Name
}

// Extract writes every file of the archive below dir.
func (a *Archive) Extract(dir string) error {
	for _, e := range a.header.Index {
		data, err := a.ReadAll(e.Name)
		if err != nil {
			return err
		}
		clean := path.Clean(e.Name)
		if path.IsAbs(clean) || strings.HasPrefix(clean, "..") {
			return fmt.Errorf("%w: entry escapes target: %s", ErrFileFormat, e.Name)
		}
		target := filepath.Join(dir, filepath.FromSlash(clean))
		if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
			return err
		}
		if err := ioutil.WriteFile(target, data, 0644); err != nil {
			return err
		}
	}
	return nil
}
