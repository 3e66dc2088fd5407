// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package core

import (
	"github.com/devblok/glw/gfx"
	glm "github.com/go-gl/mathgl/mgl32"
)

// Uniform is a value that can be uploaded to a shader uniform.
// The variants are Int, Float, Vec3, Vec4 and Mat4. The variant
// must match how the uniform is declared in the shader source,
// a mismatch is not detected.
type Uniform interface {
	uniform()
}

// Uniform variants
type (
	Int   int32
	Float float32
	Vec3  glm.Vec3
	Vec4  glm.Vec4
	Mat4  glm.Mat4
)

func (Int) uniform()   {}
func (Float) uniform() {}
func (Vec3) uniform()  {}
func (Vec4) uniform()  {}
func (Mat4) uniform()  {}

// upload sends v to location of the program in use.
func upload(d gfx.Driver, location gfx.Location, v Uniform) error {
	switch value := v.(type) {
	case Int:
		d.Uniform1i(location, int32(value))
	case Float:
		d.Uniform1f(location, float32(value))
	case Vec3:
		d.Uniform3f(location, glm.Vec3(value))
	case Vec4:
		d.Uniform4f(location, glm.Vec4(value))
	case Mat4:
		d.UniformMatrix4f(location, glm.Mat4(value))
	default:
		return ErrInvalidArgument
	}
	return nil
}
