// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package core

import (
	"errors"
	"fmt"

	"github.com/devblok/glw/gfx"
)

// package errors
var (
	ErrDuplicateKey       = errors.New("key already in use")
	ErrKeyNotFound        = errors.New("key not found")
	ErrHardwareAllocation = gfx.ErrAllocation
	ErrCompilation        = errors.New("shader compilation failed")
	ErrImageDecode        = errors.New("image decode failed")
	ErrUnresolvedUniform  = errors.New("uniform not resolved")
	ErrInvalidArgument    = errors.New("invalid argument")
	ErrFileNotFound       = errors.New("file not found")
)

// KeyError reports a failed key lookup or insertion in one resource family.
type KeyError struct {
	Family Family
	Key    string
	Err    error
}

func (e *KeyError) Error() string {
	return fmt.Sprintf("%s %q: %s", e.Family, e.Key, e.Err)
}

func (e *KeyError) Unwrap() error {
	return e.Err
}

func duplicateKey(family Family, key string) error {
	return &KeyError{Family: family, Key: key, Err: ErrDuplicateKey}
}

func keyNotFound(family Family, key string) error {
	return &KeyError{Family: family, Key: key, Err: ErrKeyNotFound}
}

// CompileError carries the driver diagnostic of a failed compile or link.
type CompileError struct {
	// Stage is "vertex", "fragment" or "link".
	Stage string
	Path  string
	Log   string
}

func (e *CompileError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("%s: %s: %s", ErrCompilation, e.Stage, e.Log)
	}
	return fmt.Sprintf("%s: %s %s: %s", ErrCompilation, e.Stage, e.Path, e.Log)
}

func (e *CompileError) Unwrap() error {
	return ErrCompilation
}
