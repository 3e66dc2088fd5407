// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package core keeps GPU resources under string keys. A Registry owns
// every texture, shader program, vertex array and uniform buffer it
// creates and releases them all at once when it is torn down.
package core

// Family is a kind of resource kept by the Registry. Keys are
// unique within a family, two families may use the same key.
type Family int

// Resource families
const (
	TextureFamily Family = iota
	ShaderFamily
	VertexArrayFamily
	UniformBufferFamily
)

func (f Family) String() string {
	switch f {
	case TextureFamily:
		return "texture"
	case ShaderFamily:
		return "shader"
	case VertexArrayFamily:
		return "vertex array"
	case UniformBufferFamily:
		return "uniform buffer"
	}
	return "unknown"
}

// MaxTextureUnits is the number of texture units a Registry selects from.
const MaxTextureUnits = 4
