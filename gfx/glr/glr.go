// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package glr implements the gfx driver on top of an OpenGL 4.1 core context.
package glr

import (
	"errors"
	"strings"

	"github.com/devblok/glw/gfx"
	"github.com/go-gl/gl/v4.1-core/gl"
	glm "github.com/go-gl/mathgl/mgl32"
	log "github.com/sirupsen/logrus"
)

// Configuration configures the OpenGL driver.
type Configuration struct {
	// DebugMode checks the GL error state after every statement
	// and logs anything that was raised.
	DebugMode bool
}

// New loads the GL function pointers for the context that is current
// on the calling thread and returns a driver bound to it.
func New(cfg Configuration) (*Driver, error) {
	if err := gl.Init(); err != nil {
		return nil, errors.New("gl.Init(): " + err.Error())
	}
	return &Driver{
		configuration: cfg,
		log:           log.WithField("component", "glr"),
	}, nil
}

// Driver is a gfx.Driver backed by OpenGL.
type Driver struct {
	configuration Configuration
	log           *log.Entry
}

var bufferTargets = map[gfx.BufferTarget]uint32{
	gfx.ArrayBuffer:        gl.ARRAY_BUFFER,
	gfx.ElementArrayBuffer: gl.ELEMENT_ARRAY_BUFFER,
	gfx.UniformBuffer:      gl.UNIFORM_BUFFER,
}

var shaderStages = map[gfx.ShaderStage]uint32{
	gfx.VertexStage:   gl.VERTEX_SHADER,
	gfx.FragmentStage: gl.FRAGMENT_SHADER,
}

var textureParameters = map[gfx.TextureParameter]uint32{
	gfx.TextureWrapS:     gl.TEXTURE_WRAP_S,
	gfx.TextureWrapT:     gl.TEXTURE_WRAP_T,
	gfx.TextureMinFilter: gl.TEXTURE_MIN_FILTER,
	gfx.TextureMagFilter: gl.TEXTURE_MAG_FILTER,
}

var textureValues = map[gfx.TextureValue]int32{
	gfx.Repeat:             gl.REPEAT,
	gfx.MirroredRepeat:     gl.MIRRORED_REPEAT,
	gfx.ClampToEdge:        gl.CLAMP_TO_EDGE,
	gfx.Nearest:            gl.NEAREST,
	gfx.Linear:             gl.LINEAR,
	gfx.LinearMipmapLinear: gl.LINEAR_MIPMAP_LINEAR,
}

// CreateBuffer implements interface
func (d *Driver) CreateBuffer() (gfx.Buffer, error) {
	var buffer uint32
	gl.GenBuffers(1, &buffer)
	if err := d.check("glGenBuffers", buffer); err != nil {
		return 0, err
	}
	return gfx.Buffer(buffer), nil
}

// BindBuffer implements interface
func (d *Driver) BindBuffer(target gfx.BufferTarget, buffer gfx.Buffer) {
	gl.BindBuffer(bufferTargets[target], uint32(buffer))
	d.trace("glBindBuffer")
}

// BufferData implements interface
func (d *Driver) BufferData(target gfx.BufferTarget, size int, data interface{}) error {
	gl.BufferData(bufferTargets[target], size, ptr(data), gl.STATIC_DRAW)
	return d.check("glBufferData", 1)
}

// BufferSubData implements interface
func (d *Driver) BufferSubData(target gfx.BufferTarget, offset, size int, data interface{}) error {
	gl.BufferSubData(bufferTargets[target], offset, size, ptr(data))
	return d.check("glBufferSubData", 1)
}

// BindBufferRange implements interface
func (d *Driver) BindBufferRange(target gfx.BufferTarget, index uint32, buffer gfx.Buffer, offset, size int) {
	gl.BindBufferRange(bufferTargets[target], index, uint32(buffer), offset, size)
	d.trace("glBindBufferRange")
}

// DeleteBuffer implements interface
func (d *Driver) DeleteBuffer(buffer gfx.Buffer) {
	b := uint32(buffer)
	gl.DeleteBuffers(1, &b)
	d.trace("glDeleteBuffers")
}

// CreateVertexArray implements interface
func (d *Driver) CreateVertexArray() (gfx.VertexArray, error) {
	var vao uint32
	gl.GenVertexArrays(1, &vao)
	if err := d.check("glGenVertexArrays", vao); err != nil {
		return 0, err
	}
	return gfx.VertexArray(vao), nil
}

// BindVertexArray implements interface
func (d *Driver) BindVertexArray(va gfx.VertexArray) {
	gl.BindVertexArray(uint32(va))
	d.trace("glBindVertexArray")
}

// DeleteVertexArray implements interface
func (d *Driver) DeleteVertexArray(va gfx.VertexArray) {
	vao := uint32(va)
	gl.DeleteVertexArrays(1, &vao)
	d.trace("glDeleteVertexArrays")
}

// EnableVertexAttribArray implements interface
func (d *Driver) EnableVertexAttribArray(location gfx.Location) {
	gl.EnableVertexAttribArray(uint32(location))
	d.trace("glEnableVertexAttribArray")
}

// VertexAttribPointer implements interface
func (d *Driver) VertexAttribPointer(location gfx.Location, components, stride, offset int) {
	gl.VertexAttribPointer(uint32(location), int32(components), gl.FLOAT, false, int32(stride), gl.PtrOffset(offset))
	d.trace("glVertexAttribPointer")
}

// DrawTriangles implements interface
func (d *Driver) DrawTriangles(count int) {
	gl.DrawElements(gl.TRIANGLES, int32(count), gl.UNSIGNED_INT, gl.PtrOffset(0))
	d.trace("glDrawElements")
}

// CreateTexture implements interface
func (d *Driver) CreateTexture() (gfx.Texture, error) {
	var texture uint32
	gl.GenTextures(1, &texture)
	if err := d.check("glGenTextures", texture); err != nil {
		return 0, err
	}
	return gfx.Texture(texture), nil
}

// ActiveTexture implements interface
func (d *Driver) ActiveTexture(unit int) {
	gl.ActiveTexture(gl.TEXTURE0 + uint32(unit))
	d.trace("glActiveTexture")
}

// BindTexture implements interface
func (d *Driver) BindTexture(texture gfx.Texture) {
	gl.BindTexture(gl.TEXTURE_2D, uint32(texture))
	d.trace("glBindTexture")
}

// TexImage2D implements interface
func (d *Driver) TexImage2D(width, height int, pixels []uint8) error {
	gl.TexImage2D(gl.TEXTURE_2D, 0, gl.RGBA, int32(width), int32(height), 0, gl.RGBA, gl.UNSIGNED_BYTE, ptr(pixels))
	return d.check("glTexImage2D", 1)
}

// GenerateMipmap implements interface
func (d *Driver) GenerateMipmap() {
	gl.GenerateMipmap(gl.TEXTURE_2D)
	d.trace("glGenerateMipmap")
}

// TexParameter implements interface
func (d *Driver) TexParameter(param gfx.TextureParameter, value gfx.TextureValue) {
	gl.TexParameteri(gl.TEXTURE_2D, textureParameters[param], textureValues[value])
	d.trace("glTexParameteri")
}

// DeleteTexture implements interface
func (d *Driver) DeleteTexture(texture gfx.Texture) {
	t := uint32(texture)
	gl.DeleteTextures(1, &t)
	d.trace("glDeleteTextures")
}

// CreateShader implements interface
func (d *Driver) CreateShader(stage gfx.ShaderStage) (gfx.Shader, error) {
	shader := gl.CreateShader(shaderStages[stage])
	if err := d.check("glCreateShader", shader); err != nil {
		return 0, err
	}
	return gfx.Shader(shader), nil
}

// CompileShader implements interface
func (d *Driver) CompileShader(shader gfx.Shader, source string) {
	csources, free := gl.Strs(safeString(source))
	gl.ShaderSource(uint32(shader), 1, csources, nil)
	free()
	gl.CompileShader(uint32(shader))
	d.trace("glCompileShader")
}

// ShaderCompiled implements interface
func (d *Driver) ShaderCompiled(shader gfx.Shader) bool {
	var status int32
	gl.GetShaderiv(uint32(shader), gl.COMPILE_STATUS, &status)
	return status != gl.FALSE
}

// ShaderInfoLog implements interface
func (d *Driver) ShaderInfoLog(shader gfx.Shader) string {
	var logLength int32
	gl.GetShaderiv(uint32(shader), gl.INFO_LOG_LENGTH, &logLength)
	if logLength == 0 {
		return ""
	}
	msg := strings.Repeat("\x00", int(logLength+1))
	gl.GetShaderInfoLog(uint32(shader), logLength, nil, gl.Str(msg))
	return strings.TrimRight(msg, "\x00")
}

// DeleteShader implements interface
func (d *Driver) DeleteShader(shader gfx.Shader) {
	gl.DeleteShader(uint32(shader))
	d.trace("glDeleteShader")
}

// CreateProgram implements interface
func (d *Driver) CreateProgram() (gfx.Program, error) {
	program := gl.CreateProgram()
	if err := d.check("glCreateProgram", program); err != nil {
		return 0, err
	}
	return gfx.Program(program), nil
}

// AttachShader implements interface
func (d *Driver) AttachShader(program gfx.Program, shader gfx.Shader) {
	gl.AttachShader(uint32(program), uint32(shader))
	d.trace("glAttachShader")
}

// BindFragDataLocation implements interface
func (d *Driver) BindFragDataLocation(program gfx.Program, color uint32, name string) {
	gl.BindFragDataLocation(uint32(program), color, gl.Str(safeString(name)))
	d.trace("glBindFragDataLocation")
}

// LinkProgram implements interface
func (d *Driver) LinkProgram(program gfx.Program) {
	gl.LinkProgram(uint32(program))
	d.trace("glLinkProgram")
}

// ProgramLinked implements interface
func (d *Driver) ProgramLinked(program gfx.Program) bool {
	var status int32
	gl.GetProgramiv(uint32(program), gl.LINK_STATUS, &status)
	return status != gl.FALSE
}

// ProgramInfoLog implements interface
func (d *Driver) ProgramInfoLog(program gfx.Program) string {
	var logLength int32
	gl.GetProgramiv(uint32(program), gl.INFO_LOG_LENGTH, &logLength)
	if logLength == 0 {
		return ""
	}
	msg := strings.Repeat("\x00", int(logLength+1))
	gl.GetProgramInfoLog(uint32(program), logLength, nil, gl.Str(msg))
	return strings.TrimRight(msg, "\x00")
}

// UseProgram implements interface
func (d *Driver) UseProgram(program gfx.Program) {
	gl.UseProgram(uint32(program))
	d.trace("glUseProgram")
}

// DeleteProgram implements interface
func (d *Driver) DeleteProgram(program gfx.Program) {
	gl.DeleteProgram(uint32(program))
	d.trace("glDeleteProgram")
}

// UniformLocation implements interface
func (d *Driver) UniformLocation(program gfx.Program, name string) gfx.Location {
	location := gl.GetUniformLocation(uint32(program), gl.Str(safeString(name)))
	d.trace("glGetUniformLocation")
	return gfx.Location(location)
}

// AttribLocation implements interface
func (d *Driver) AttribLocation(program gfx.Program, name string) gfx.Location {
	location := gl.GetAttribLocation(uint32(program), gl.Str(safeString(name)))
	d.trace("glGetAttribLocation")
	return gfx.Location(location)
}

// UniformBlockIndex implements interface
func (d *Driver) UniformBlockIndex(program gfx.Program, name string) gfx.BlockIndex {
	index := gl.GetUniformBlockIndex(uint32(program), gl.Str(safeString(name)))
	d.trace("glGetUniformBlockIndex")
	return gfx.BlockIndex(index)
}

// UniformBlockBinding implements interface
func (d *Driver) UniformBlockBinding(program gfx.Program, block gfx.BlockIndex, binding uint32) {
	gl.UniformBlockBinding(uint32(program), uint32(block), binding)
	d.trace("glUniformBlockBinding")
}

// Uniform1i implements interface
func (d *Driver) Uniform1i(location gfx.Location, v int32) {
	gl.Uniform1i(int32(location), v)
	d.trace("glUniform1i")
}

// Uniform1f implements interface
func (d *Driver) Uniform1f(location gfx.Location, v float32) {
	gl.Uniform1f(int32(location), v)
	d.trace("glUniform1f")
}

// Uniform3f implements interface
func (d *Driver) Uniform3f(location gfx.Location, v glm.Vec3) {
	gl.Uniform3fv(int32(location), 1, &v[0])
	d.trace("glUniform3fv")
}

// Uniform4f implements interface
func (d *Driver) Uniform4f(location gfx.Location, v glm.Vec4) {
	gl.Uniform4fv(int32(location), 1, &v[0])
	d.trace("glUniform4fv")
}

// UniformMatrix4f implements interface
func (d *Driver) UniformMatrix4f(location gfx.Location, v glm.Mat4) {
	gl.UniformMatrix4fv(int32(location), 1, false, &v[0])
	d.trace("glUniformMatrix4fv")
}

// ClearColor implements interface
func (d *Driver) ClearColor(r, g, b, a float32) {
	gl.ClearColor(r, g, b, a)
	d.trace("glClearColor")
}

// Clear implements interface
func (d *Driver) Clear(mask gfx.ClearMask) {
	var bits uint32
	if mask&gfx.ColorBufferBit != 0 {
		bits |= gl.COLOR_BUFFER_BIT
	}
	if mask&gfx.DepthBufferBit != 0 {
		bits |= gl.DEPTH_BUFFER_BIT
	}
	gl.Clear(bits)
	d.trace("glClear")
}
