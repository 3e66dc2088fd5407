// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package model holds meshes ready to be uploaded into a core.Registry
// and the placement of their instances in the scene.
package model

import (
	"fmt"
	"sync"

	"github.com/devblok/glw/core"
	glm "github.com/go-gl/mathgl/mgl32"
)

// Attribute names of imported meshes. Shaders consuming imported meshes
// declare their inputs under these names.
const (
	PositionAttribute = "position"
	NormalAttribute   = "normal"
	UVAttribute       = "uv"
)

// Mesh is interleaved vertex data together with its index list.
type Mesh struct {
	Name     string
	Vertices []float32
	Indices  []uint32
	Layout   core.AttributeLayout
}

// VertexCount is the number of vertices described by Vertices.
func (m *Mesh) VertexCount() int {
	stride := m.Layout.Stride()
	if stride == 0 {
		return 0
	}
	return len(m.Vertices) / stride
}

// Validate checks that the data matches the layout and every index
// refers to an existing vertex.
func (m *Mesh) Validate() error {
	if err := m.Layout.Validate(); err != nil {
		return err
	}
	stride := m.Layout.Stride()
	if stride == 0 || len(m.Vertices)%stride != 0 {
		return fmt.Errorf("%w: %d floats do not fit stride %d", core.ErrInvalidArgument, len(m.Vertices), stride)
	}
	count := uint32(m.VertexCount())
	for i, idx := range m.Indices {
		if idx >= count {
			return fmt.Errorf("%w: index %d refers to vertex %d of %d", core.ErrInvalidArgument, i, idx, count)
		}
	}
	return nil
}

// Upload validates the mesh and creates a vertex array for it under key.
func (m *Mesh) Upload(r *core.Registry, key string) error {
	if err := m.Validate(); err != nil {
		return err
	}
	return r.CreateVertexArray(key, m.Vertices, m.Indices, m.Layout)
}

// Instance is a placement of a mesh in space. Safe for concurrent use.
type Instance struct {
	mutex    sync.RWMutex
	position glm.Mat4
	rotation glm.Mat4
	scale    glm.Mat4
}

// NewInstance creates an Instance at the origin.
func NewInstance() *Instance {
	return &Instance{
		position: glm.Ident4(),
		rotation: glm.Ident4(),
		scale:    glm.Ident4(),
	}
}

// SetPosition sets the translation matrix.
func (i *Instance) SetPosition(pos glm.Mat4) {
	i.mutex.Lock()
	i.position = pos
	i.mutex.Unlock()
}

// Position returns the translation matrix.
func (i *Instance) Position() glm.Mat4 {
	i.mutex.RLock()
	defer i.mutex.RUnlock()
	return i.position
}

// SetRotation sets the rotation matrix.
func (i *Instance) SetRotation(rot glm.Mat4) {
	i.mutex.Lock()
	i.rotation = rot
	i.mutex.Unlock()
}

// Rotation returns the rotation matrix.
func (i *Instance) Rotation() glm.Mat4 {
	i.mutex.RLock()
	defer i.mutex.RUnlock()
	return i.rotation
}

// SetScale sets a uniform scale factor.
func (i *Instance) SetScale(s float32) {
	i.mutex.Lock()
	i.scale = glm.Scale3D(s, s, s)
	i.mutex.Unlock()
}

// Translate moves the instance by the given offset.
func (i *Instance) Translate(x, y, z float32) {
	i.mutex.Lock()
	i.position = glm.Translate3D(x, y, z).Mul4(i.position)
	i.mutex.Unlock()
}

// Rotate turns the instance by angle radians around axis.
func (i *Instance) Rotate(angle float32, axis glm.Vec3) {
	i.mutex.Lock()
	i.rotation = glm.HomogRotate3D(angle, axis.Normalize()).Mul4(i.rotation)
	i.mutex.Unlock()
}

// Matrix is the model matrix: scaled first, then rotated, then translated.
func (i *Instance) Matrix() glm.Mat4 {
	i.mutex.RLock()
	defer i.mutex.RUnlock()
	return i.position.Mul4(i.rotation).Mul4(i.scale)
}

// Uniform returns Matrix ready for core.Registry.SetUniform.
func (i *Instance) Uniform() core.Uniform {
	return core.Mat4(i.Matrix())
}
