// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package core_test

import (
	"errors"
	"testing"

	"github.com/devblok/glw/core"
	qt "github.com/frankban/quicktest"
)

var meshLayout = core.AttributeLayout{
	{Name: "position", Components: 3},
	{Name: "normal", Components: 3},
	{Name: "uv", Components: 2},
}

func TestLayoutArithmetic(t *testing.T) {
	c := qt.New(t)

	c.Assert(meshLayout.Stride(), qt.Equals, 8)
	c.Assert(meshLayout.Offsets(), qt.DeepEquals, []int{0, 3, 6})
	c.Assert(meshLayout.Offset(0), qt.Equals, 0)
	c.Assert(meshLayout.Offset(1), qt.Equals, 3)
	c.Assert(meshLayout.Offset(2), qt.Equals, 6)
	c.Assert(meshLayout.Offset(3), qt.Equals, 8)
	c.Assert(meshLayout.Offset(10), qt.Equals, 8)
	c.Assert(meshLayout.Offset(-1), qt.Equals, 0)

	var empty core.AttributeLayout
	c.Assert(empty.Stride(), qt.Equals, 0)
	c.Assert(empty.Offsets(), qt.HasLen, 0)
	c.Assert(empty.Offset(1), qt.Equals, 0)
}

func TestNewAttributeLayout(t *testing.T) {
	c := qt.New(t)

	attrs := []core.Attribute{{Name: "position", Components: 3}, {Name: "uv", Components: 2}}
	layout, err := core.NewAttributeLayout(attrs...)
	c.Assert(err, qt.IsNil)
	c.Assert(layout.Stride(), qt.Equals, 5)

	attrs[0].Components = 4
	c.Assert(layout[0].Components, qt.Equals, 3)
}

func TestNewAttributeLayoutInvalid(t *testing.T) {
	for name, attrs := range map[string][]core.Attribute{
		"duplicate": {{Name: "position", Components: 3}, {Name: "position", Components: 2}},
		"zero":      {{Name: "position", Components: 0}},
		"negative":  {{Name: "uv", Components: -2}},
		"unnamed":   {{Name: "", Components: 3}},
	} {
		t.Run(name, func(t *testing.T) {
			c := qt.New(t)
			_, err := core.NewAttributeLayout(attrs...)
			c.Assert(errors.Is(err, core.ErrInvalidArgument), qt.Equals, true)
		})
	}
}
