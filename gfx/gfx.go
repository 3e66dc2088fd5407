// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package gfx defines the hardware call surface that the resource layer
// drives, along with the opaque handle types the driver hands out.
package gfx

import (
	glm "github.com/go-gl/mathgl/mgl32"
)

// Releasable defines any memory-occupying item that can be freed.
type Releasable interface {

	// Release releases memory occupied by the implementing structure.
	Release()
}

// Opaque hardware handles. The zero value of every handle
// names no object.
type (
	Buffer      uint32
	VertexArray uint32
	Texture     uint32
	Shader      uint32
	Program     uint32
)

// Location is a uniform or attribute location inside a linked program.
type Location int32

// InvalidLocation is returned by the driver for names the program
// does not declare, or that the compiler optimised out.
const InvalidLocation Location = -1

// Valid reports whether the location refers to an active variable.
func (l Location) Valid() bool {
	return l != InvalidLocation
}

// BlockIndex is the index of a named uniform block inside a program.
type BlockIndex uint32

// InvalidBlockIndex mirrors GL_INVALID_INDEX.
const InvalidBlockIndex BlockIndex = 0xFFFFFFFF

// Valid reports whether the index refers to an active uniform block.
func (b BlockIndex) Valid() bool {
	return b != InvalidBlockIndex
}

// BufferTarget is a buffer binding target.
type BufferTarget int

// Supported buffer targets
const (
	ArrayBuffer BufferTarget = iota
	ElementArrayBuffer
	UniformBuffer
)

func (t BufferTarget) String() string {
	switch t {
	case ArrayBuffer:
		return "array"
	case ElementArrayBuffer:
		return "element"
	case UniformBuffer:
		return "uniform"
	}
	return "unknown"
}

// ShaderStage identifies a programmable pipeline stage.
type ShaderStage int

// Stages a program is linked from
const (
	VertexStage ShaderStage = iota
	FragmentStage
)

func (s ShaderStage) String() string {
	switch s {
	case VertexStage:
		return "vertex"
	case FragmentStage:
		return "fragment"
	}
	return "unknown"
}

// TextureParameter names a sampling parameter of a 2D texture.
type TextureParameter int

// Texture parameters
const (
	TextureWrapS TextureParameter = iota
	TextureWrapT
	TextureMinFilter
	TextureMagFilter
)

// TextureValue is a value for a TextureParameter.
type TextureValue int

// Texture parameter values
const (
	Repeat TextureValue = iota
	MirroredRepeat
	ClampToEdge
	Nearest
	Linear
	LinearMipmapLinear
)

// ClearMask selects framebuffer planes to clear.
type ClearMask uint32

// Framebuffer planes
const (
	ColorBufferBit ClearMask = 1 << iota
	DepthBufferBit
)

// ComponentSize is the byte size of a single vertex component.
// Vertex data is always 32-bit floats.
const ComponentSize = 4

// IndexSize is the byte size of a single element index.
const IndexSize = 4

// Mat4Size is the byte size of a 4x4 float matrix.
const Mat4Size = 16 * ComponentSize

// Driver is the hardware graphics API. Implementations are bound to a
// single rendering context and must only be called from the thread that
// owns it. Creation and upload calls report failures; state-setting
// calls do not.
type Driver interface {
	CreateBuffer() (Buffer, error)
	BindBuffer(target BufferTarget, buffer Buffer)
	// BufferData allocates size bytes for the bound buffer and fills
	// them from data, which is a []float32, []uint32 or []byte.
	BufferData(target BufferTarget, size int, data interface{}) error
	BufferSubData(target BufferTarget, offset, size int, data interface{}) error
	BindBufferRange(target BufferTarget, index uint32, buffer Buffer, offset, size int)
	DeleteBuffer(buffer Buffer)

	CreateVertexArray() (VertexArray, error)
	BindVertexArray(va VertexArray)
	DeleteVertexArray(va VertexArray)
	EnableVertexAttribArray(location Location)
	// VertexAttribPointer describes float attribute data of the bound
	// vertex array. Stride and offset are in bytes.
	VertexAttribPointer(location Location, components, stride, offset int)
	// DrawTriangles submits count 32-bit indices of the bound element
	// buffer, starting at index 0, as a triangle list.
	DrawTriangles(count int)

	CreateTexture() (Texture, error)
	ActiveTexture(unit int)
	BindTexture(texture Texture)
	TexImage2D(width, height int, pixels []uint8) error
	GenerateMipmap()
	TexParameter(param TextureParameter, value TextureValue)
	DeleteTexture(texture Texture)

	CreateShader(stage ShaderStage) (Shader, error)
	CompileShader(shader Shader, source string)
	ShaderCompiled(shader Shader) bool
	ShaderInfoLog(shader Shader) string
	DeleteShader(shader Shader)

	CreateProgram() (Program, error)
	AttachShader(program Program, shader Shader)
	BindFragDataLocation(program Program, color uint32, name string)
	LinkProgram(program Program)
	ProgramLinked(program Program) bool
	ProgramInfoLog(program Program) string
	UseProgram(program Program)
	DeleteProgram(program Program)

	UniformLocation(program Program, name string) Location
	AttribLocation(program Program, name string) Location
	UniformBlockIndex(program Program, name string) BlockIndex
	UniformBlockBinding(program Program, block BlockIndex, binding uint32)

	Uniform1i(location Location, v int32)
	Uniform1f(location Location, v float32)
	Uniform3f(location Location, v glm.Vec3)
	Uniform4f(location Location, v glm.Vec4)
	UniformMatrix4f(location Location, v glm.Mat4)

	ClearColor(r, g, b, a float32)
	Clear(mask ClearMask)
}
