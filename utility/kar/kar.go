// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package kar is an api for an lz4 backed asset archive format.
// Unlike tar, the archive knows where all the files are located before
// they're read: every file is individually compressed and the index sits
// in the header, so a single file can be decompressed straight from its
// place. This compromises space efficiency a bit, in exchange for getting
// shaders and textures from disk to a usable state as fast as possible.
// An Archive can be read from concurrently and serves as an asset.Source.
//
// Layout:
//
//	magic "KAR\x00" | header length (int64, little endian) | gob Header | lz4 frames
//
// IndexEntry offsets are relative to the first byte after the header.
package kar

import (
	"bytes"
	"encoding/binary"
	"encoding/gob"
	"errors"
	"fmt"
)

// package errors
var (
	ErrFileFormat    = errors.New("corrupted or not a kar archive")
	ErrTempFail      = errors.New("temporary folder or file operation failed")
	ErrDuplicateName = errors.New("file with this name already added")
)

// Sizes relevant to the header of file
const (
	MagicLength            = 4
	HeaderSizeNumberLength = 8
)

var magic = [MagicLength]byte{'K', 'A', 'R', '\x00'}

// IndexEntry is info for one file in the file index.
type IndexEntry struct {
	Name           string
	Offset         int64
	Size           int64
	CompressedSize int64
}

// Header is the file header for kar files.
type Header struct {
	Author      string
	DateCreated int64
	Version     int64
	Index       []IndexEntry
}

// Find returns the index entry for name.
func (h *Header) Find(name string) (IndexEntry, bool) {
	for _, e := range h.Index {
		if e.Name == name {
			return e, true
		}
	}
	return IndexEntry{}, false
}

// DataSize is the total size of compressed file data.
func (h *Header) DataSize() int64 {
	var size int64
	for _, e := range h.Index {
		size += e.CompressedSize
	}
	return size
}

// encodeHeader returns everything that precedes the file data: magic,
// header length and the gob encoded header.
func encodeHeader(h Header) ([]byte, error) {
	var buf bytes.Buffer
	buf.Write(magic[:])
	buf.Write(make([]byte, HeaderSizeNumberLength))
	if err := gob.NewEncoder(&buf).Encode(h); err != nil {
		return nil, err
	}
	out := buf.Bytes()
	size := len(out) - MagicLength - HeaderSizeNumberLength
	binary.LittleEndian.PutUint64(out[MagicLength:], uint64(size))
	return out, nil
}

func headerLength(b []byte) (int64, error) {
	if len(b) < HeaderSizeNumberLength {
		return 0, ErrFileFormat
	}
	size := int64(binary.LittleEndian.Uint64(b))
	if size <= 0 {
		return 0, ErrFileFormat
	}
	return size, nil
}

func decodeHeader(b []byte) (Header, error) {
	var h Header
	if err := gob.NewDecoder(bytes.NewReader(b)).Decode(&h); err != nil {
		return Header{}, fmt.Errorf("%w: %s", ErrFileFormat, err.Error())
	}
	return h, nil
}
