// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package core

import (
	"fmt"
	"strings"

	"github.com/devblok/glw/asset"
	"github.com/devblok/glw/gfx"
	log "github.com/sirupsen/logrus"
)

// DefaultFragDataName is the fragment shader output bound to color 0.
const DefaultFragDataName = "outColor"

// ShaderConfiguration is used to configure how shader programs are built
type ShaderConfiguration struct {
	// FragDataName is the fragment output bound to color number 0.
	// Empty leaves the binding to the shader.
	FragDataName string
}

// NewShaderProgram reads, compiles and links a program from a vertex
// and a fragment source read from src. The new program is put in use.
func NewShaderProgram(d gfx.Driver, src asset.Source, vertPath, fragPath string, cfg ShaderConfiguration) (*ShaderProgram, error) {
	vertSource, err := readSource(src, vertPath)
	if err != nil {
		return nil, err
	}
	fragSource, err := readSource(src, fragPath)
	if err != nil {
		return nil, err
	}

	p := &ShaderProgram{
		driver:   d,
		uniforms: make(map[string]gfx.Location),
		blocks:   make(map[string]gfx.BlockIndex),
		log:      log.WithFields(log.Fields{"vert": vertPath, "frag": fragPath}),
	}

	if p.program, err = d.CreateProgram(); err != nil {
		return nil, fmt.Errorf("shader program: %w", err)
	}
	if p.vertex, err = p.compile(gfx.VertexStage, vertPath, vertSource); err != nil {
		p.Release()
		return nil, err
	}
	if p.fragment, err = p.compile(gfx.FragmentStage, fragPath, fragSource); err != nil {
		p.Release()
		return nil, err
	}

	d.AttachShader(p.program, p.vertex)
	d.AttachShader(p.program, p.fragment)
	if cfg.FragDataName != "" {
		d.BindFragDataLocation(p.program, 0, cfg.FragDataName)
	}
	d.LinkProgram(p.program)
	if !d.ProgramLinked(p.program) {
		info := strings.TrimSpace(d.ProgramInfoLog(p.program))
		p.log.WithField("info", info).Error("shader program failed to link")
		p.Release()
		return nil, &CompileError{Stage: "link", Log: info}
	}

	d.UseProgram(p.program)
	return p, nil
}

func readSource(src asset.Source, path string) (string, error) {
	data, err := src.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrFileNotFound, err.Error())
	}
	return string(data), nil
}

// ShaderProgram is a linked vertex and fragment program. Uniform locations
// and uniform block indices are resolved once per name and cached.
type ShaderProgram struct {
	driver gfx.Driver
	log    *log.Entry

	program  gfx.Program
	vertex   gfx.Shader
	fragment gfx.Shader

	uniforms map[string]gfx.Location
	blocks   map[string]gfx.BlockIndex
}

func (p *ShaderProgram) compile(stage gfx.ShaderStage, path, source string) (gfx.Shader, error) {
	shader, err := p.driver.CreateShader(stage)
	if err != nil {
		return 0, fmt.Errorf("%s shader: %w", stage, err)
	}
	p.driver.CompileShader(shader, source)
	if !p.driver.ShaderCompiled(shader) {
		info := strings.TrimSpace(p.driver.ShaderInfoLog(shader))
		p.log.WithFields(log.Fields{"stage": stage, "info": info}).Error("shader failed to compile")
		p.driver.DeleteShader(shader)
		return 0, &CompileError{Stage: stage.String(), Path: path, Log: info}
	}
	return shader, nil
}

// Program returns the hardware handle of the program.
func (p *ShaderProgram) Program() gfx.Program {
	return p.program
}

// Use puts the program in use.
func (p *ShaderProgram) Use() {
	p.driver.UseProgram(p.program)
}

// Location resolves the location of a uniform, asking the driver only
// the first time a name is seen. Names the program does not declare
// produce ErrUnresolvedUniform and are asked again next time.
func (p *ShaderProgram) Location(name string) (gfx.Location, error) {
	if location, ok := p.uniforms[name]; ok {
		return location, nil
	}
	location := p.driver.UniformLocation(p.program, name)
	if !location.Valid() {
		return location, fmt.Errorf("%w: %q", ErrUnresolvedUniform, name)
	}
	p.uniforms[name] = location
	return location, nil
}

// SetUniform uploads v to the named uniform. The program must be in use.
func (p *ShaderProgram) SetUniform(name string, v Uniform) error {
	location, err := p.Location(name)
	if err != nil {
		p.log.WithField("uniform", name).Error(err)
		return err
	}
	return upload(p.driver, location, v)
}

// SpecifyAttributeLayout describes layout to the bound vertex array.
// Attributes the program does not declare are skipped.
func (p *ShaderProgram) SpecifyAttributeLayout(layout AttributeLayout) {
	stride := layout.Stride() * gfx.ComponentSize
	offset := 0
	for _, a := range layout {
		location := p.driver.AttribLocation(p.program, a.Name)
		if location.Valid() {
			p.driver.EnableVertexAttribArray(location)
			p.driver.VertexAttribPointer(location, a.Components, stride, offset*gfx.ComponentSize)
		} else {
			p.log.WithField("attribute", a.Name).Debug("attribute not declared, skipped")
		}
		offset += a.Components
	}
}

// UniformBlock returns the index of the named uniform block. Found
// indices are cached.
func (p *ShaderProgram) UniformBlock(block string) (gfx.BlockIndex, error) {
	if index, ok := p.blocks[block]; ok {
		return index, nil
	}
	index := p.driver.UniformBlockIndex(p.program, block)
	if !index.Valid() {
		return index, fmt.Errorf("%w: block %q", ErrUnresolvedUniform, block)
	}
	p.blocks[block] = index
	return index, nil
}

// BindToUniformBlock binds the named uniform block to a binding point.
func (p *ShaderProgram) BindToUniformBlock(block string, binding uint32) error {
	index, err := p.UniformBlock(block)
	if err != nil {
		return err
	}
	p.driver.UniformBlockBinding(p.program, index, binding)
	return nil
}

// Release implements interface
func (p *ShaderProgram) Release() {
	if p.fragment != 0 {
		p.driver.DeleteShader(p.fragment)
		p.fragment = 0
	}
	if p.vertex != 0 {
		p.driver.DeleteShader(p.vertex)
		p.vertex = 0
	}
	if p.program != 0 {
		p.driver.DeleteProgram(p.program)
		p.program = 0
	}
}

var _ gfx.Releasable = (*ShaderProgram)(nil)
