// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package core

import (
	"errors"
	"fmt"
	"sort"

	"github.com/devblok/glw/asset"
	"github.com/devblok/glw/gfx"
	glm "github.com/go-gl/mathgl/mgl32"
	log "github.com/sirupsen/logrus"
)

// RegistryConfiguration is used to configure a Registry
type RegistryConfiguration struct {
	// UniformBindingPoint is the binding point uniform buffers
	// and the uniform blocks using them are bound to.
	UniformBindingPoint uint32

	Shader ShaderConfiguration
}

// DefaultRegistryConfiguration binds uniform buffers to point 0 and
// fragment output outColor to color 0.
func DefaultRegistryConfiguration() RegistryConfiguration {
	return RegistryConfiguration{
		UniformBindingPoint: 0,
		Shader: ShaderConfiguration{
			FragDataName: DefaultFragDataName,
		},
	}
}

// NewRegistry creates an empty Registry that creates its resources with d
// and reads shader and image files from src.
func NewRegistry(d gfx.Driver, src asset.Source, cfg RegistryConfiguration) *Registry {
	return &Registry{
		driver:         d,
		source:         src,
		images:         NewImageLoader(src),
		configuration:  cfg,
		textures:       make(map[string]gfx.Texture),
		shaders:        make(map[string]*ShaderProgram),
		vertexArrays:   make(map[string]*VertexArray),
		uniformBuffers: make(map[string]uniformBuffer),
		log:            log.WithField("component", "registry"),
	}
}

type uniformBuffer struct {
	buffer gfx.Buffer
	size   int
}

// Registry keeps GPU resources under string keys, one key space per
// Family. It owns every resource it stores. Resources live until
// Release, there is no way to remove a single one.
// A Registry is not safe for concurrent use, calls must come from
// the thread that owns the rendering context.
type Registry struct {
	driver        gfx.Driver
	source        asset.Source
	images        ImageLoader
	configuration RegistryConfiguration
	log           *log.Entry

	textures       map[string]gfx.Texture
	shaders        map[string]*ShaderProgram
	vertexArrays   map[string]*VertexArray
	uniformBuffers map[string]uniformBuffer
}

// SetImageLoader replaces the loader textures are decoded with.
func (r *Registry) SetImageLoader(loader ImageLoader) {
	r.images = loader
}

func (r *Registry) fail(family Family, key string, err error) error {
	r.log.WithFields(log.Fields{"family": family, "key": key}).Error(err)
	return err
}

// Has reports whether key is present in the family.
func (r *Registry) Has(family Family, key string) bool {
	var ok bool
	switch family {
	case TextureFamily:
		_, ok = r.textures[key]
	case ShaderFamily:
		_, ok = r.shaders[key]
	case VertexArrayFamily:
		_, ok = r.vertexArrays[key]
	case UniformBufferFamily:
		_, ok = r.uniformBuffers[key]
	}
	return ok
}

// Keys returns the sorted keys of a family.
func (r *Registry) Keys(family Family) []string {
	var keys []string
	switch family {
	case TextureFamily:
		for key := range r.textures {
			keys = append(keys, key)
		}
	case ShaderFamily:
		for key := range r.shaders {
			keys = append(keys, key)
		}
	case VertexArrayFamily:
		for key := range r.vertexArrays {
			keys = append(keys, key)
		}
	case UniformBufferFamily:
		for key := range r.uniformBuffers {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	return keys
}

// SetClearColor sets the color ClearFramebuffer fills with.
func (r *Registry) SetClearColor(red, green, blue, alpha float32) {
	r.driver.ClearColor(red, green, blue, alpha)
}

// ClearFramebuffer clears the color and depth planes.
func (r *Registry) ClearFramebuffer() {
	r.driver.Clear(gfx.ColorBufferBit | gfx.DepthBufferBit)
}

// LoadTexture decodes the image at path and uploads it as a mipmapped
// texture under key. Textures wrap with mirrored repeat and filter linearly.
func (r *Registry) LoadTexture(key, path string) error {
	if r.Has(TextureFamily, key) {
		return r.fail(TextureFamily, key, duplicateKey(TextureFamily, key))
	}

	img, err := r.images.LoadImage(path)
	if err != nil {
		if !errors.Is(err, ErrImageDecode) && !errors.Is(err, ErrFileNotFound) {
			err = fmt.Errorf("%w: %s: %s", ErrImageDecode, path, err.Error())
		}
		return r.fail(TextureFamily, key, err)
	}

	texture, err := r.driver.CreateTexture()
	if err != nil {
		return r.fail(TextureFamily, key, err)
	}
	r.driver.BindTexture(texture)
	bounds := img.Bounds()
	if err := r.driver.TexImage2D(bounds.Dx(), bounds.Dy(), img.Pix); err != nil {
		r.driver.DeleteTexture(texture)
		return r.fail(TextureFamily, key, err)
	}
	r.driver.GenerateMipmap()
	r.driver.TexParameter(gfx.TextureWrapS, gfx.MirroredRepeat)
	r.driver.TexParameter(gfx.TextureWrapT, gfx.MirroredRepeat)
	r.driver.TexParameter(gfx.TextureMinFilter, gfx.Linear)
	r.driver.TexParameter(gfx.TextureMagFilter, gfx.Linear)

	r.textures[key] = texture
	r.log.WithFields(log.Fields{"key": key, "path": path, "width": bounds.Dx(), "height": bounds.Dy()}).Debug("texture loaded")
	return nil
}

// SetActiveTexture binds the texture to the active texture unit.
func (r *Registry) SetActiveTexture(key string) error {
	texture, ok := r.textures[key]
	if !ok {
		return r.fail(TextureFamily, key, keyNotFound(TextureFamily, key))
	}
	r.driver.BindTexture(texture)
	return nil
}

// SetTextureUnit selects the active texture unit, 0 to 3.
func (r *Registry) SetTextureUnit(unit int) error {
	if unit < 0 || unit >= MaxTextureUnits {
		err := fmt.Errorf("%w: texture unit %d out of range", ErrInvalidArgument, unit)
		r.log.Error(err)
		return err
	}
	r.driver.ActiveTexture(unit)
	return nil
}

// CreateVertexArray uploads vertices and indices under key.
func (r *Registry) CreateVertexArray(key string, vertices []float32, indices []uint32, layout AttributeLayout) error {
	if r.Has(VertexArrayFamily, key) {
		return r.fail(VertexArrayFamily, key, duplicateKey(VertexArrayFamily, key))
	}
	va, err := NewVertexArray(r.driver, vertices, indices, layout)
	if err != nil {
		return r.fail(VertexArrayFamily, key, err)
	}
	r.vertexArrays[key] = va
	r.log.WithFields(log.Fields{"key": key, "vertices": len(vertices), "indices": len(indices)}).Debug("vertex array created")
	return nil
}

// BindVertexArray makes the vertex array the active vertex format.
func (r *Registry) BindVertexArray(key string) error {
	va, ok := r.vertexArrays[key]
	if !ok {
		return r.fail(VertexArrayFamily, key, keyNotFound(VertexArrayFamily, key))
	}
	va.Bind()
	return nil
}

// RenderVertexArray draws the vertex array. It must be bound.
func (r *Registry) RenderVertexArray(key string) error {
	va, ok := r.vertexArrays[key]
	if !ok {
		return r.fail(VertexArrayFamily, key, keyNotFound(VertexArrayFamily, key))
	}
	va.Render()
	return nil
}

// CreateShader builds a shader program under key from two source files.
// The new program is left in use.
func (r *Registry) CreateShader(key, vertPath, fragPath string) error {
	if r.Has(ShaderFamily, key) {
		return r.fail(ShaderFamily, key, duplicateKey(ShaderFamily, key))
	}
	program, err := NewShaderProgram(r.driver, r.source, vertPath, fragPath, r.configuration.Shader)
	if err != nil {
		return r.fail(ShaderFamily, key, err)
	}
	r.shaders[key] = program
	r.log.WithFields(log.Fields{"key": key, "vert": vertPath, "frag": fragPath}).Debug("shader created")
	return nil
}

// UseShader puts the shader program in use.
func (r *Registry) UseShader(key string) error {
	program, ok := r.shaders[key]
	if !ok {
		return r.fail(ShaderFamily, key, keyNotFound(ShaderFamily, key))
	}
	program.Use()
	return nil
}

// SpecifyAttributeLayout describes the layout of a vertex array to a
// shader. The vertex array must be bound.
func (r *Registry) SpecifyAttributeLayout(shaderKey, vertexArrayKey string) error {
	program, ok := r.shaders[shaderKey]
	if !ok {
		return r.fail(ShaderFamily, shaderKey, keyNotFound(ShaderFamily, shaderKey))
	}
	va, ok := r.vertexArrays[vertexArrayKey]
	if !ok {
		return r.fail(VertexArrayFamily, vertexArrayKey, keyNotFound(VertexArrayFamily, vertexArrayKey))
	}
	program.SpecifyAttributeLayout(va.layout)
	return nil
}

// SetUniform uploads a value to a uniform of the shader.
// The shader must be in use.
func (r *Registry) SetUniform(shaderKey, name string, value Uniform) error {
	program, ok := r.shaders[shaderKey]
	if !ok {
		return r.fail(ShaderFamily, shaderKey, keyNotFound(ShaderFamily, shaderKey))
	}
	return program.SetUniform(name, value)
}

// CreateUniformBuffer allocates size zeroed bytes under name and binds
// the uniform block called name of every listed shader to it.
func (r *Registry) CreateUniformBuffer(name string, size int, shaderKeys ...string) error {
	if r.Has(UniformBufferFamily, name) {
		return r.fail(UniformBufferFamily, name, duplicateKey(UniformBufferFamily, name))
	}
	if size <= 0 {
		return r.fail(UniformBufferFamily, name, fmt.Errorf("%w: uniform buffer size %d", ErrInvalidArgument, size))
	}
	programs := make([]*ShaderProgram, 0, len(shaderKeys))
	for _, key := range shaderKeys {
		program, ok := r.shaders[key]
		if !ok {
			return r.fail(ShaderFamily, key, keyNotFound(ShaderFamily, key))
		}
		programs = append(programs, program)
	}

	for i, program := range programs {
		if _, err := program.UniformBlock(name); err != nil {
			return r.fail(ShaderFamily, shaderKeys[i], err)
		}
	}

	binding := r.configuration.UniformBindingPoint
	for _, program := range programs {
		program.Use()
		if err := program.BindToUniformBlock(name, binding); err != nil {
			return r.fail(UniformBufferFamily, name, err)
		}
	}

	buffer, err := r.driver.CreateBuffer()
	if err != nil {
		return r.fail(UniformBufferFamily, name, err)
	}
	r.driver.BindBuffer(gfx.UniformBuffer, buffer)
	if err := r.driver.BufferData(gfx.UniformBuffer, size, make([]byte, size)); err != nil {
		r.driver.BindBuffer(gfx.UniformBuffer, 0)
		r.driver.DeleteBuffer(buffer)
		return r.fail(UniformBufferFamily, name, err)
	}
	r.driver.BindBuffer(gfx.UniformBuffer, 0)
	r.driver.BindBufferRange(gfx.UniformBuffer, binding, buffer, 0, size)

	r.uniformBuffers[name] = uniformBuffer{buffer: buffer, size: size}
	r.log.WithFields(log.Fields{"key": name, "size": size, "shaders": len(shaderKeys)}).Debug("uniform buffer created")
	return nil
}

// SetUniformBuffer writes a matrix at offset bytes into the uniform buffer.
func (r *Registry) SetUniformBuffer(name string, offset int, m glm.Mat4) error {
	ub, ok := r.uniformBuffers[name]
	if !ok {
		return r.fail(UniformBufferFamily, name, keyNotFound(UniformBufferFamily, name))
	}
	if offset < 0 || offset > ub.size-gfx.Mat4Size {
		return r.fail(UniformBufferFamily, name,
			fmt.Errorf("%w: matrix at offset %d overruns %d byte buffer", ErrInvalidArgument, offset, ub.size))
	}
	r.driver.BindBuffer(gfx.UniformBuffer, ub.buffer)
	err := r.driver.BufferSubData(gfx.UniformBuffer, offset, gfx.Mat4Size, m[:])
	r.driver.BindBuffer(gfx.UniformBuffer, 0)
	if err != nil {
		return r.fail(UniformBufferFamily, name, err)
	}
	return nil
}

// LoadShaders creates a shader for every vertex and fragment source pair
// found below prefix in the asset source, keyed by the pair's name.
// The keys created are returned in order.
func (r *Registry) LoadShaders(prefix string) ([]string, error) {
	pairs, err := DiscoverShaders(r.source, prefix)
	if err != nil {
		return nil, err
	}
	keys := make([]string, 0, len(pairs))
	for _, pair := range pairs {
		if err := r.CreateShader(pair.Name, pair.Vertex, pair.Fragment); err != nil {
			return keys, err
		}
		keys = append(keys, pair.Name)
	}
	return keys, nil
}

// Release destroys every resource of the Registry. The Registry is
// empty afterwards and may be used again.
func (r *Registry) Release() {
	for _, key := range r.Keys(VertexArrayFamily) {
		r.vertexArrays[key].Release()
	}
	for _, key := range r.Keys(ShaderFamily) {
		r.shaders[key].Release()
	}
	for _, key := range r.Keys(TextureFamily) {
		r.driver.DeleteTexture(r.textures[key])
	}
	for _, key := range r.Keys(UniformBufferFamily) {
		r.driver.DeleteBuffer(r.uniformBuffers[key].buffer)
	}

	r.textures = make(map[string]gfx.Texture)
	r.shaders = make(map[string]*ShaderProgram)
	r.vertexArrays = make(map[string]*VertexArray)
	r.uniformBuffers = make(map[string]uniformBuffer)
}

var _ gfx.Releasable = (*Registry)(nil)
