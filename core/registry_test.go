// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package core_test

import (
	"bytes"
	"encoding/binary"
	"errors"
	"image"
	"image/color"
	"image/png"
	"math"
	"testing"

	"github.com/devblok/glw/asset"
	"github.com/devblok/glw/core"
	"github.com/devblok/glw/gfx"
	"github.com/devblok/glw/gfx/gfxtest"
	qt "github.com/frankban/quicktest"
	glm "github.com/go-gl/mathgl/mgl32"
)

func checkerboard(width, height int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			if (x+y)%2 == 0 {
				img.Set(x, y, color.NRGBA{R: 255, G: 255, B: 255, A: 255})
			} else {
				img.Set(x, y, color.NRGBA{R: 200, G: 40, B: 10, A: 255})
			}
		}
	}
	return img
}

func encodePNG(c *qt.C, img image.Image) []byte {
	var buf bytes.Buffer
	c.Assert(png.Encode(&buf, img), qt.IsNil)
	return buf.Bytes()
}

func newRegistry(c *qt.C) (*core.Registry, *gfxtest.Driver) {
	d := gfxtest.New()
	src := asset.Overlay{
		asset.Memory{
			"textures/checker.png": encodePNG(c, checkerboard(4, 2)),
			"textures/broken.png":  []byte("\x89PNG not really"),
		},
		testAssets,
	}
	return core.NewRegistry(d, src, core.DefaultRegistryConfiguration()), d
}

func isKeyError(c *qt.C, err error, family core.Family, key string, target error) {
	c.Helper()
	c.Assert(errors.Is(err, target), qt.Equals, true, qt.Commentf("%v", err))
	var keyErr *core.KeyError
	c.Assert(errors.As(err, &keyErr), qt.Equals, true)
	c.Assert(keyErr.Family, qt.Equals, family)
	c.Assert(keyErr.Key, qt.Equals, key)
}

func TestQuadScenario(t *testing.T) {
	c := qt.New(t)
	r, d := newRegistry(c)

	c.Assert(r.CreateVertexArray("quad", quadVertices, quadIndices, quadLayout), qt.IsNil)
	c.Assert(r.BindVertexArray("quad"), qt.IsNil)
	c.Assert(r.RenderVertexArray("quad"), qt.IsNil)

	c.Assert(d.Calls("DrawTriangles"), qt.Equals, 1)
	draws := d.Draws()
	c.Assert(draws, qt.HasLen, 1)
	c.Assert(draws[0].Count, qt.Equals, 6)
	c.Assert(draws[0].VertexArray, qt.Not(qt.Equals), gfx.VertexArray(0))
}

func TestRenderUnknownKey(t *testing.T) {
	c := qt.New(t)
	r, d := newRegistry(c)

	calls := d.TotalCalls()
	isKeyError(c, r.RenderVertexArray("quad"), core.VertexArrayFamily, "quad", core.ErrKeyNotFound)
	isKeyError(c, r.BindVertexArray("quad"), core.VertexArrayFamily, "quad", core.ErrKeyNotFound)
	c.Assert(d.TotalCalls(), qt.Equals, calls)
	c.Assert(d.Draws(), qt.HasLen, 0)
}

func TestDuplicateKeys(t *testing.T) {
	c := qt.New(t)
	r, d := newRegistry(c)

	c.Assert(r.CreateVertexArray("quad", quadVertices, quadIndices, quadLayout), qt.IsNil)
	isKeyError(c, r.CreateVertexArray("quad", quadVertices, quadIndices, quadLayout),
		core.VertexArrayFamily, "quad", core.ErrDuplicateKey)

	c.Assert(r.CreateShader("basic", basicVert, basicFrag), qt.IsNil)
	isKeyError(c, r.CreateShader("basic", basicVert, basicFrag), core.ShaderFamily, "basic", core.ErrDuplicateKey)

	c.Assert(r.LoadTexture("checker", "textures/checker.png"), qt.IsNil)
	isKeyError(c, r.LoadTexture("checker", "textures/checker.png"), core.TextureFamily, "checker", core.ErrDuplicateKey)

	c.Assert(r.CreateUniformBuffer("Matrices", 128, "basic"), qt.IsNil)
	isKeyError(c, r.CreateUniformBuffer("Matrices", 128, "basic"), core.UniformBufferFamily, "Matrices", core.ErrDuplicateKey)

	c.Assert(d.Live(gfxtest.KindVertexArray), qt.Equals, 1)
	c.Assert(d.Live(gfxtest.KindProgram), qt.Equals, 1)
	c.Assert(d.Live(gfxtest.KindTexture), qt.Equals, 1)
	c.Assert(d.Live(gfxtest.KindBuffer), qt.Equals, 3)

	// the first resources stay usable
	c.Assert(r.BindVertexArray("quad"), qt.IsNil)
	c.Assert(r.RenderVertexArray("quad"), qt.IsNil)
	c.Assert(r.UseShader("basic"), qt.IsNil)
	c.Assert(r.SetActiveTexture("checker"), qt.IsNil)
	c.Assert(r.SetUniformBuffer("Matrices", 0, glm.Ident4()), qt.IsNil)
	c.Assert(d.Draws(), qt.HasLen, 1)
}

func TestKeysPerFamily(t *testing.T) {
	c := qt.New(t)
	r, _ := newRegistry(c)

	c.Assert(r.CreateShader("shared", basicVert, basicFrag), qt.IsNil)
	c.Assert(r.CreateVertexArray("shared", quadVertices, quadIndices, quadLayout), qt.IsNil)
	c.Assert(r.LoadTexture("shared", "textures/checker.png"), qt.IsNil)
	c.Assert(r.CreateVertexArray("another", quadVertices, quadIndices, quadLayout), qt.IsNil)

	c.Assert(r.Has(core.ShaderFamily, "shared"), qt.Equals, true)
	c.Assert(r.Has(core.TextureFamily, "shared"), qt.Equals, true)
	c.Assert(r.Has(core.UniformBufferFamily, "shared"), qt.Equals, false)
	c.Assert(r.Keys(core.VertexArrayFamily), qt.DeepEquals, []string{"another", "shared"})
	c.Assert(r.Keys(core.UniformBufferFamily), qt.HasLen, 0)
}

func TestBindingIdempotence(t *testing.T) {
	c := qt.New(t)
	r, d := newRegistry(c)

	c.Assert(r.CreateVertexArray("quad", quadVertices, quadIndices, quadLayout), qt.IsNil)
	c.Assert(r.CreateShader("basic", basicVert, basicFrag), qt.IsNil)

	c.Assert(r.BindVertexArray("quad"), qt.IsNil)
	c.Assert(r.UseShader("basic"), qt.IsNil)
	c.Assert(r.SetUniform("basic", "tint", core.Vec4{1, 1, 1, 1}), qt.IsNil)
	va, program := d.BoundVertexArray(), d.CurrentProgram()

	c.Assert(r.BindVertexArray("quad"), qt.IsNil)
	c.Assert(r.UseShader("basic"), qt.IsNil)
	c.Assert(r.SetUniform("basic", "tint", core.Vec4{1, 1, 1, 1}), qt.IsNil)

	c.Assert(d.BoundVertexArray(), qt.Equals, va)
	c.Assert(d.CurrentProgram(), qt.Equals, program)
	uploads := d.Uploads()
	c.Assert(uploads, qt.HasLen, 2)
	c.Assert(uploads[1], qt.DeepEquals, uploads[0])
}

func TestSetUniformThroughRegistry(t *testing.T) {
	c := qt.New(t)
	r, d := newRegistry(c)
	c.Assert(r.CreateShader("basic", basicVert, basicFrag), qt.IsNil)

	for i := 0; i < 3; i++ {
		c.Assert(r.SetUniform("basic", "time", core.Float(float32(i))), qt.IsNil)
	}
	c.Assert(d.Calls("UniformLocation"), qt.Equals, 1)

	calls := d.TotalCalls()
	isKeyError(c, r.SetUniform("missing", "time", core.Float(0)), core.ShaderFamily, "missing", core.ErrKeyNotFound)
	c.Assert(d.TotalCalls(), qt.Equals, calls)

	err := r.SetUniform("basic", "unused", core.Int(1))
	c.Assert(errors.Is(err, core.ErrUnresolvedUniform), qt.Equals, true)
}

func TestUseShaderUnknownKey(t *testing.T) {
	c := qt.New(t)
	r, d := newRegistry(c)

	isKeyError(c, r.UseShader("basic"), core.ShaderFamily, "basic", core.ErrKeyNotFound)
	c.Assert(d.TotalCalls(), qt.Equals, 0)
}

func TestRegistrySpecifyAttributeLayout(t *testing.T) {
	c := qt.New(t)
	r, d := newRegistry(c)

	c.Assert(r.CreateShader("basic", basicVert, basicFrag), qt.IsNil)
	c.Assert(r.CreateVertexArray("mesh", make([]float32, 8*4), quadIndices, meshLayout), qt.IsNil)
	c.Assert(r.BindVertexArray("mesh"), qt.IsNil)
	c.Assert(r.SpecifyAttributeLayout("basic", "mesh"), qt.IsNil)

	var offsets []int
	for _, ptr := range d.AttribPointers() {
		c.Assert(ptr.Stride, qt.Equals, 8*gfx.ComponentSize)
		offsets = append(offsets, ptr.Offset)
	}
	c.Assert(offsets, qt.DeepEquals, []int{0, 12, 24})

	isKeyError(c, r.SpecifyAttributeLayout("flat", "mesh"), core.ShaderFamily, "flat", core.ErrKeyNotFound)
	isKeyError(c, r.SpecifyAttributeLayout("basic", "cube"), core.VertexArrayFamily, "cube", core.ErrKeyNotFound)
}

func TestLoadTexture(t *testing.T) {
	c := qt.New(t)
	r, d := newRegistry(c)

	c.Assert(r.LoadTexture("checker", "textures/checker.png"), qt.IsNil)
	texture, _ := d.BoundTexture()
	state := d.Texture(texture)
	c.Assert(state, qt.Not(qt.IsNil))
	c.Assert(state.Width, qt.Equals, 4)
	c.Assert(state.Height, qt.Equals, 2)
	c.Assert(state.Pixels, qt.HasLen, 4*2*4)
	c.Assert(state.Pixels[:8], qt.DeepEquals, []uint8{255, 255, 255, 255, 200, 40, 10, 255})
	c.Assert(state.Mipmapped, qt.Equals, true)
	c.Assert(state.Parameters, qt.DeepEquals, map[gfx.TextureParameter]gfx.TextureValue{
		gfx.TextureWrapS:     gfx.MirroredRepeat,
		gfx.TextureWrapT:     gfx.MirroredRepeat,
		gfx.TextureMinFilter: gfx.Linear,
		gfx.TextureMagFilter: gfx.Linear,
	})
}

func TestLoadTextureFailures(t *testing.T) {
	c := qt.New(t)
	r, d := newRegistry(c)

	err := r.LoadTexture("broken", "textures/broken.png")
	c.Assert(errors.Is(err, core.ErrImageDecode), qt.Equals, true)
	err = r.LoadTexture("missing", "textures/missing.png")
	c.Assert(errors.Is(err, core.ErrFileNotFound), qt.Equals, true)
	c.Assert(d.Calls("CreateTexture"), qt.Equals, 0)

	d.Fail("CreateTexture")
	err = r.LoadTexture("checker", "textures/checker.png")
	c.Assert(errors.Is(err, core.ErrHardwareAllocation), qt.Equals, true)

	d.Fail("TexImage2D")
	err = r.LoadTexture("checker", "textures/checker.png")
	c.Assert(errors.Is(err, core.ErrHardwareAllocation), qt.Equals, true)

	c.Assert(d.Live(gfxtest.KindTexture), qt.Equals, 0)
	c.Assert(r.Keys(core.TextureFamily), qt.HasLen, 0)

	c.Assert(r.LoadTexture("checker", "textures/checker.png"), qt.IsNil)
}

type failingLoader struct{}

func (failingLoader) LoadImage(path string) (*image.RGBA, error) {
	return nil, errors.New("unsupported channel count 2")
}

func TestLoadTextureCustomLoader(t *testing.T) {
	c := qt.New(t)
	r, d := newRegistry(c)
	r.SetImageLoader(failingLoader{})

	err := r.LoadTexture("checker", "textures/checker.png")
	c.Assert(errors.Is(err, core.ErrImageDecode), qt.Equals, true)
	c.Assert(err, qt.ErrorMatches, `image decode failed: textures/checker\.png: unsupported channel count 2`)
	c.Assert(d.TotalCalls(), qt.Equals, 0)
}

func TestSetActiveTexture(t *testing.T) {
	c := qt.New(t)
	r, d := newRegistry(c)

	c.Assert(r.LoadTexture("first", "textures/checker.png"), qt.IsNil)
	first, _ := d.BoundTexture()
	c.Assert(r.LoadTexture("second", "textures/checker.png"), qt.IsNil)

	c.Assert(r.SetTextureUnit(2), qt.IsNil)
	c.Assert(r.SetActiveTexture("first"), qt.IsNil)
	texture, unit := d.BoundTexture()
	c.Assert(texture, qt.Equals, first)
	c.Assert(unit, qt.Equals, 2)

	isKeyError(c, r.SetActiveTexture("third"), core.TextureFamily, "third", core.ErrKeyNotFound)
}

func TestSetTextureUnit(t *testing.T) {
	c := qt.New(t)
	r, d := newRegistry(c)

	for unit := 0; unit < 4; unit++ {
		c.Assert(r.SetTextureUnit(unit), qt.IsNil)
		_, active := d.BoundTexture()
		c.Assert(active, qt.Equals, unit)
	}
	for _, unit := range []int{-1, -4, 4, 5, 16, 1 << 20} {
		err := r.SetTextureUnit(unit)
		c.Assert(errors.Is(err, core.ErrInvalidArgument), qt.Equals, true, qt.Commentf("unit %d", unit))
	}
	c.Assert(d.Calls("ActiveTexture"), qt.Equals, 4)
}

func TestUniformBuffer(t *testing.T) {
	c := qt.New(t)
	r, d := newRegistry(c)

	c.Assert(r.CreateShader("basic", basicVert, basicFrag), qt.IsNil)
	c.Assert(r.UseShader("basic"), qt.IsNil)
	basic := d.CurrentProgram()
	c.Assert(r.CreateShader("lit", basicVert, basicFrag), qt.IsNil)
	lit := d.CurrentProgram()

	c.Assert(r.CreateUniformBuffer("Matrices", 2*gfx.Mat4Size, "basic", "lit"), qt.IsNil)
	for _, p := range []gfx.Program{basic, lit} {
		binding, ok := d.BlockBinding(p, "Matrices")
		c.Assert(ok, qt.Equals, true)
		c.Assert(binding, qt.Equals, uint32(0))
	}

	ranges := d.BufferRanges()
	c.Assert(ranges, qt.HasLen, 1)
	buffer := ranges[0].Buffer
	c.Assert(ranges[0], qt.DeepEquals, gfxtest.BufferRange{
		Target: gfx.UniformBuffer,
		Index:  0,
		Buffer: buffer,
		Offset: 0,
		Size:   128,
	})
	c.Assert(d.BufferContents(buffer), qt.DeepEquals, make([]byte, 128))
	c.Assert(d.BoundBuffer(gfx.UniformBuffer), qt.Equals, gfx.Buffer(0))

	view := glm.LookAtV(glm.Vec3{0, 0, 5}, glm.Vec3{}, glm.Vec3{0, 1, 0})
	c.Assert(r.SetUniformBuffer("Matrices", gfx.Mat4Size, view), qt.IsNil)
	c.Assert(d.BoundBuffer(gfx.UniformBuffer), qt.Equals, gfx.Buffer(0))

	var expected bytes.Buffer
	c.Assert(binary.Write(&expected, binary.LittleEndian, view[:]), qt.IsNil)
	contents := d.BufferContents(buffer)
	c.Assert(contents[:64], qt.DeepEquals, make([]byte, 64))
	c.Assert(contents[64:], qt.DeepEquals, expected.Bytes())
}

func TestUniformBufferBounds(t *testing.T) {
	c := qt.New(t)
	r, d := newRegistry(c)
	c.Assert(r.CreateUniformBuffer("Matrices", 128), qt.IsNil)

	c.Assert(r.SetUniformBuffer("Matrices", 0, glm.Ident4()), qt.IsNil)
	c.Assert(r.SetUniformBuffer("Matrices", 64, glm.Ident4()), qt.IsNil)

	calls := d.Calls("BufferSubData")
	for _, offset := range []int{-1, 65, 128, 1000, math.MaxInt64 - 10, math.MinInt64} {
		err := r.SetUniformBuffer("Matrices", offset, glm.Ident4())
		c.Assert(errors.Is(err, core.ErrInvalidArgument), qt.Equals, true, qt.Commentf("offset %d", offset))
	}
	c.Assert(d.Calls("BufferSubData"), qt.Equals, calls)

	isKeyError(c, r.SetUniformBuffer("Lights", 0, glm.Ident4()), core.UniformBufferFamily, "Lights", core.ErrKeyNotFound)
}

func TestCreateUniformBufferFailures(t *testing.T) {
	c := qt.New(t)
	r, d := newRegistry(c)
	c.Assert(r.CreateShader("basic", basicVert, basicFrag), qt.IsNil)

	calls := d.TotalCalls()
	isKeyError(c, r.CreateUniformBuffer("Matrices", 128, "basic", "missing"), core.ShaderFamily, "missing", core.ErrKeyNotFound)
	c.Assert(d.TotalCalls(), qt.Equals, calls)

	err := r.CreateUniformBuffer("Matrices", 0, "basic")
	c.Assert(errors.Is(err, core.ErrInvalidArgument), qt.Equals, true)

	err = r.CreateUniformBuffer("Lights", 64, "basic")
	c.Assert(errors.Is(err, core.ErrUnresolvedUniform), qt.Equals, true)

	d.Fail("BufferData")
	err = r.CreateUniformBuffer("Matrices", 128, "basic")
	c.Assert(errors.Is(err, core.ErrHardwareAllocation), qt.Equals, true)
	c.Assert(d.Live(gfxtest.KindBuffer), qt.Equals, 0)
	c.Assert(r.Has(core.UniformBufferFamily, "Matrices"), qt.Equals, false)
}

const plainVert = `#version 410 core
in vec3 position;
void main()
{
    gl_Position = vec4(position, 1.0);
}
`

const plainFrag = `#version 410 core
out vec4 outColor;
void main()
{
    outColor = vec4(1.0);
}
`

func TestCreateUniformBufferMissingBlock(t *testing.T) {
	c := qt.New(t)
	d := gfxtest.New()
	src := asset.Overlay{
		asset.Memory{"plain.vert": []byte(plainVert), "plain.frag": []byte(plainFrag)},
		testAssets,
	}
	r := core.NewRegistry(d, src, core.DefaultRegistryConfiguration())

	c.Assert(r.CreateShader("basic", basicVert, basicFrag), qt.IsNil)
	basic := d.CurrentProgram()
	c.Assert(r.CreateShader("plain", "plain.vert", "plain.frag"), qt.IsNil)
	plain := d.CurrentProgram()

	err := r.CreateUniformBuffer("Matrices", 128, "basic", "plain")
	c.Assert(errors.Is(err, core.ErrUnresolvedUniform), qt.Equals, true, qt.Commentf("%v", err))
	c.Assert(r.Has(core.UniformBufferFamily, "Matrices"), qt.Equals, false)

	_, bound := d.BlockBinding(basic, "Matrices")
	c.Assert(bound, qt.Equals, false)
	c.Assert(d.Calls("UniformBlockBinding"), qt.Equals, 0)
	c.Assert(d.Calls("CreateBuffer"), qt.Equals, 0)
	c.Assert(d.CurrentProgram(), qt.Equals, plain)

	c.Assert(r.CreateUniformBuffer("Matrices", 128, "basic"), qt.IsNil)
	binding, bound := d.BlockBinding(basic, "Matrices")
	c.Assert(bound, qt.Equals, true)
	c.Assert(binding, qt.Equals, uint32(0))
}

func TestClearFramebuffer(t *testing.T) {
	c := qt.New(t)
	r, d := newRegistry(c)

	r.SetClearColor(0.1, 0.2, 0.3, 1)
	r.ClearFramebuffer()

	rgba, clears := d.ClearState()
	c.Assert(rgba, qt.Equals, [4]float32{0.1, 0.2, 0.3, 1})
	c.Assert(clears, qt.DeepEquals, []gfx.ClearMask{gfx.ColorBufferBit | gfx.DepthBufferBit})
}

func TestLoadShaders(t *testing.T) {
	c := qt.New(t)
	r, d := newRegistry(c)

	keys, err := r.LoadShaders("shaders")
	c.Assert(err, qt.IsNil)
	c.Assert(keys, qt.DeepEquals, []string{"basic"})
	c.Assert(r.Has(core.ShaderFamily, "basic"), qt.Equals, true)
	c.Assert(d.Live(gfxtest.KindProgram), qt.Equals, 1)

	_, err = r.LoadShaders("broken")
	c.Assert(errors.Is(err, core.ErrCompilation), qt.Equals, true)
	c.Assert(r.Has(core.ShaderFamily, "broken"), qt.Equals, false)
}

func TestRelease(t *testing.T) {
	c := qt.New(t)
	r, d := newRegistry(c)

	c.Assert(r.CreateVertexArray("quad", quadVertices, quadIndices, quadLayout), qt.IsNil)
	c.Assert(r.CreateVertexArray("mesh", make([]float32, 8*4), quadIndices, meshLayout), qt.IsNil)
	c.Assert(r.CreateShader("basic", basicVert, basicFrag), qt.IsNil)
	c.Assert(r.LoadTexture("checker", "textures/checker.png"), qt.IsNil)
	c.Assert(r.CreateUniformBuffer("Matrices", 128, "basic"), qt.IsNil)
	c.Assert(d.LiveTotal(), qt.Equals, 2*3+3+1+1)

	r.Release()
	c.Assert(d.LiveTotal(), qt.Equals, 0, qt.Commentf("%s", d))
	c.Assert(d.Misuse(), qt.HasLen, 0)
	for _, family := range []core.Family{core.TextureFamily, core.ShaderFamily, core.VertexArrayFamily, core.UniformBufferFamily} {
		c.Assert(r.Keys(family), qt.HasLen, 0)
	}

	calls := d.TotalCalls()
	r.Release()
	c.Assert(d.TotalCalls(), qt.Equals, calls)

	// keys can be used again once released
	c.Assert(r.CreateVertexArray("quad", quadVertices, quadIndices, quadLayout), qt.IsNil)
}
