// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package glr

import (
	"fmt"
	"reflect"
	"unsafe"

	"github.com/devblok/glw/gfx"
	"github.com/go-gl/gl/v4.1-core/gl"
	log "github.com/sirupsen/logrus"
)

var errorNames = map[uint32]string{
	gl.INVALID_ENUM:                  "GL_INVALID_ENUM",
	gl.INVALID_VALUE:                 "GL_INVALID_VALUE",
	gl.INVALID_OPERATION:             "GL_INVALID_OPERATION",
	gl.INVALID_FRAMEBUFFER_OPERATION: "GL_INVALID_FRAMEBUFFER_OPERATION",
	gl.OUT_OF_MEMORY:                 "GL_OUT_OF_MEMORY",
}

// check drains the GL error queue after a creation or upload statement.
// A zero handle is a failure even when GL raised nothing.
func (d *Driver) check(op string, handle uint32) error {
	code := drainErrors()
	if code != gl.NO_ERROR {
		err := &gfx.DriverError{Op: op, Code: code}
		d.log.WithFields(log.Fields{
			"statement": op,
			"error":     errorName(code),
		}).Error("OpenGL error")
		return err
	}
	if handle == 0 {
		return &gfx.DriverError{Op: op}
	}
	return nil
}

// trace reports GL errors raised by a state-setting statement.
// Only active in debug mode, as querying the error state stalls.
func (d *Driver) trace(op string) {
	if !d.configuration.DebugMode {
		return
	}
	if code := drainErrors(); code != gl.NO_ERROR {
		d.log.WithFields(log.Fields{
			"statement": op,
			"error":     errorName(code),
		}).Error("OpenGL error")
	}
}

// drainErrors returns the first queued error and clears the rest.
func drainErrors() uint32 {
	first := gl.GetError()
	if first == gl.NO_ERROR {
		return first
	}
	for gl.GetError() != gl.NO_ERROR {
	}
	return first
}

func errorName(code uint32) string {
	if name, ok := errorNames[code]; ok {
		return name
	}
	return fmt.Sprintf("0x%04X", code)
}

func safeString(s string) string {
	return fmt.Sprintf("%s\x00", s)
}

// ptr is gl.Ptr that tolerates nil and empty slices.
func ptr(data interface{}) unsafe.Pointer {
	if data == nil {
		return nil
	}
	v := reflect.ValueOf(data)
	if v.Kind() == reflect.Slice && v.Len() == 0 {
		return nil
	}
	return gl.Ptr(data)
}
