// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package kar

import (
	"fmt"
	"io"
	"io/ioutil"
	"os"
	"path"
	"path/filepath"
	"runtime"
	"strconv"
	"sync"

	"github.com/pierrec/lz4"
)

// NewBuilder creates a new Builder. Do not fill the Index in
// the header, it will be overwritten anyway.
func NewBuilder(header Header) (*Builder, error) {
	temp, err := ioutil.TempDir("", "karBuilder")
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrTempFail, err.Error())
	}
	builder := &Builder{
		tempDir: temp,
		header:  header,
	}
	runtime.SetFinalizer(builder, func(builder *Builder) {
		os.RemoveAll(builder.tempDir)
	})
	return builder, nil
}

// staged is a compressed file waiting in the temporary dir.
type staged struct {
	name       string
	file       string
	size       int64
	compressed int64
}

// Builder is the high level builder for the archive format.
// Archives are versioned and cannot be appended to, this Builder
// is the way to create an archive. Whenever Add is called, Builder
// stores the compressed file in a temporary dir, finally bundling
// them together and writing them out with WriteTo.
type Builder struct {
	tempDir string
	header  Header

	mutex sync.Mutex
	seq   int
	files []staged
}

// Add compresses everything read from r and stores it under name.
// Will block until lz4 finishes compression. Is safe
// to use concurrently in different goroutines.
func (b *Builder) Add(name string, r io.Reader) error {
	name = path.Clean(filepath.ToSlash(name))

	b.mutex.Lock()
	for _, f := range b.files {
		if f.name == name {
			b.mutex.Unlock()
			return fmt.Errorf("%w: %s", ErrDuplicateName, name)
		}
	}
	b.seq++
	tempName := strconv.Itoa(b.seq)
	b.mutex.Unlock()

	f, err := os.Create(filepath.Join(b.tempDir, tempName))
	if err != nil {
		return fmt.Errorf("%w: %s", ErrTempFail, err.Error())
	}
	defer f.Close()

	writer := lz4.NewWriter(f)
	written, err := io.Copy(writer, r)
	if err != nil {
		return err
	}
	if err := writer.Close(); err != nil {
		return err
	}
	if err := f.Sync(); err != nil {
		return err
	}
	info, err := f.Stat()
	if err != nil {
		return err
	}

	b.mutex.Lock()
	defer b.mutex.Unlock()
	b.files = append(b.files, staged{
		name:       name,
		file:       tempName,
		size:       written,
		compressed: info.Size(),
	})
	return nil
}

// Len returns the number of files added so far.
func (b *Builder) Len() int {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	return len(b.files)
}

// WriteTo bundles and writes all of the files added to the Builder
// into a kar archive that is ready to use. The Builder is empty afterwards.
func (b *Builder) WriteTo(w io.Writer) (int64, error) {
	b.mutex.Lock()
	defer b.mutex.Unlock()

	header := b.header
	header.Index = make([]IndexEntry, 0, len(b.files))
	var offset int64
	for _, f := range b.files {
		header.Index = append(header.Index, IndexEntry{
			Name:           f.name,
			Offset:         offset,
			Size:           f.size,
			CompressedSize: f.compressed,
		})
		offset += f.compressed
	}

	preamble, err := encodeHeader(header)
	if err != nil {
		return 0, err
	}
	n, err := w.Write(preamble)
	total := int64(n)
	if err != nil {
		return total, err
	}

	for _, f := range b.files {
		n, err := b.copyTemp(w, f.file)
		total += n
		if err != nil {
			return total, err
		}
	}

	b.files = b.files[:0]
	return total, nil
}

func (b *Builder) copyTemp(w io.Writer, tempName string) (int64, error) {
	path := filepath.Join(b.tempDir, tempName)
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("%w: %s", ErrTempFail, err.Error())
	}
	defer os.Remove(path)
	defer f.Close()
	return io.Copy(w, f)
}

// Close removes the temporary files of the Builder.
func (b *Builder) Close() error {
	runtime.SetFinalizer(b, nil)
	return os.RemoveAll(b.tempDir)
}
