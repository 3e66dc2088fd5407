// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package gfxtest_test

import (
	"bytes"
	"errors"
	"testing"

	"github.com/devblok/glw/gfx"
	"github.com/devblok/glw/gfx/gfxtest"
	qt "github.com/frankban/quicktest"
)

func TestBufferDataWithoutData(t *testing.T) {
	c := qt.New(t)
	d := gfxtest.New()

	buffer, err := d.CreateBuffer()
	c.Assert(err, qt.IsNil)
	d.BindBuffer(gfx.UniformBuffer, buffer)
	c.Assert(d.BufferData(gfx.UniformBuffer, 16, nil), qt.IsNil)
	c.Assert(d.BufferContents(buffer), qt.DeepEquals, bytes.Repeat([]byte{0xCD}, 16))

	c.Assert(d.BufferData(gfx.UniformBuffer, 16, make([]byte, 16)), qt.IsNil)
	c.Assert(d.BufferContents(buffer), qt.DeepEquals, make([]byte, 16))
}

func TestBufferSubDataBounds(t *testing.T) {
	c := qt.New(t)
	d := gfxtest.New()

	buffer, err := d.CreateBuffer()
	c.Assert(err, qt.IsNil)
	d.BindBuffer(gfx.UniformBuffer, buffer)
	c.Assert(d.BufferData(gfx.UniformBuffer, 8, make([]byte, 8)), qt.IsNil)

	c.Assert(d.BufferSubData(gfx.UniformBuffer, 4, 4, []byte{1, 2, 3, 4}), qt.IsNil)
	c.Assert(d.BufferContents(buffer), qt.DeepEquals, []byte{0, 0, 0, 0, 1, 2, 3, 4})

	for _, offset := range []int{-1, 5, int(^uint(0)>>1) - 2} {
		err := d.BufferSubData(gfx.UniformBuffer, offset, 4, []byte{1, 2, 3, 4})
		c.Assert(errors.Is(err, gfx.ErrAllocation), qt.Equals, true, qt.Commentf("offset %d: %v", offset, err))
	}
}
