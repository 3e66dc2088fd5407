// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package core

import (
	"fmt"

	"github.com/devblok/glw/gfx"
)

// NewVertexArray uploads vertices and indices to the hardware and
// keeps the layout they are arranged in. The layout is interpreted
// only once a shader program is attached with SpecifyAttributeLayout.
// Handles created before a failure are released.
func NewVertexArray(d gfx.Driver, vertices []float32, indices []uint32, layout AttributeLayout) (*VertexArray, error) {
	if err := layout.Validate(); err != nil {
		return nil, err
	}

	v := &VertexArray{
		driver:     d,
		layout:     layout.clone(),
		indexCount: len(indices),
	}

	var err error
	if v.vertexArray, err = d.CreateVertexArray(); err != nil {
		return nil, fmt.Errorf("vertex array: %w", err)
	}
	d.BindVertexArray(v.vertexArray)

	if v.vertexBuffer, err = v.upload(gfx.ArrayBuffer, len(vertices)*gfx.ComponentSize, vertices); err != nil {
		v.Release()
		return nil, fmt.Errorf("vertex buffer: %w", err)
	}
	if v.indexBuffer, err = v.upload(gfx.ElementArrayBuffer, len(indices)*gfx.IndexSize, indices); err != nil {
		v.Release()
		return nil, fmt.Errorf("index buffer: %w", err)
	}

	return v, nil
}

// VertexArray owns a vertex buffer, an index buffer and the vertex
// format object that ties them together.
type VertexArray struct {
	driver gfx.Driver

	vertexArray  gfx.VertexArray
	vertexBuffer gfx.Buffer
	indexBuffer  gfx.Buffer

	layout     AttributeLayout
	indexCount int
}

func (v *VertexArray) upload(target gfx.BufferTarget, size int, data interface{}) (gfx.Buffer, error) {
	buffer, err := v.driver.CreateBuffer()
	if err != nil {
		return 0, err
	}
	v.driver.BindBuffer(target, buffer)
	if err := v.driver.BufferData(target, size, data); err != nil {
		v.driver.DeleteBuffer(buffer)
		return 0, err
	}
	return buffer, nil
}

// Bind makes this the active vertex format.
func (v *VertexArray) Bind() {
	v.driver.BindVertexArray(v.vertexArray)
}

// Render draws every index as a triangle list. The vertex array
// must be bound.
func (v *VertexArray) Render() {
	v.driver.DrawTriangles(v.indexCount)
}

// AttributeLayout returns a copy of the layout the vertices were built with.
func (v *VertexArray) AttributeLayout() AttributeLayout {
	return v.layout.clone()
}

// IndexCount is the number of indices drawn by Render.
func (v *VertexArray) IndexCount() int {
	return v.indexCount
}

// Release implements interface
func (v *VertexArray) Release() {
	if v.indexBuffer != 0 {
		v.driver.DeleteBuffer(v.indexBuffer)
		v.indexBuffer = 0
	}
	if v.vertexBuffer != 0 {
		v.driver.DeleteBuffer(v.vertexBuffer)
		v.vertexBuffer = 0
	}
	if v.vertexArray != 0 {
		v.driver.DeleteVertexArray(v.vertexArray)
		v.vertexArray = 0
	}
}

var _ gfx.Releasable = (*VertexArray)(nil)
