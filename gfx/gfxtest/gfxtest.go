// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package gfxtest provides a recording gfx.Driver for tests. It keeps
// enough state to answer queries the way a real context would: shader
// sources are scanned for their uniform, uniform block and input
// declarations, locations are handed out at link time, and every
// allocated object is tracked until it is deleted.
package gfxtest

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/devblok/glw/gfx"
	glm "github.com/go-gl/mathgl/mgl32"
)

// Object kinds tracked by the driver
const (
	KindBuffer      = "buffer"
	KindVertexArray = "vertex array"
	KindTexture     = "texture"
	KindShader      = "shader"
	KindProgram     = "program"
)

// Draw is a recorded draw submission.
type Draw struct {
	VertexArray gfx.VertexArray
	Program     gfx.Program
	Count       int
}

// AttribPointer is a recorded vertex attribute description.
type AttribPointer struct {
	VertexArray gfx.VertexArray
	Location    gfx.Location
	Components  int
	Stride      int
	Offset      int
}

// UniformUpload is a recorded uniform value upload.
type UniformUpload struct {
	Program  gfx.Program
	Location gfx.Location
	Value    interface{}
}

// BufferRange is a recorded indexed buffer binding.
type BufferRange struct {
	Target gfx.BufferTarget
	Index  uint32
	Buffer gfx.Buffer
	Offset int
	Size   int
}

// Texture is the recorded state of a texture object.
type Texture struct {
	Width, Height int
	Pixels        []uint8
	Mipmapped     bool
	Parameters    map[gfx.TextureParameter]gfx.TextureValue
}

type shader struct {
	stage    gfx.ShaderStage
	source   string
	compiled bool
	log      string
}

type program struct {
	shaders  []gfx.Shader
	linked   bool
	log      string
	fragData map[string]uint32
	uniforms map[string]gfx.Location
	attribs  map[string]gfx.Location
	blocks   map[string]gfx.BlockIndex
	bindings map[gfx.BlockIndex]uint32
}

var (
	uniformDecl = regexp.MustCompile(`(?m)^\s*uniform\s+\w+\s+(\w+)\s*(?:\[\s*\d+\s*\])?\s*;`)
	blockDecl   = regexp.MustCompile(`(?m)^\s*(?:layout\s*\([^)]*\)\s*)?uniform\s+(\w+)\s*\{`)
	inputDecl   = regexp.MustCompile(`(?m)^\s*(?:layout\s*\([^)]*\)\s*)?in\s+\w+\s+(\w+)\s*;`)
	errorDecl   = regexp.MustCompile(`(?m)^\s*#error(.*)$`)
)

// Driver is a recording gfx.Driver. The zero value is not usable,
// create it with New.
type Driver struct {
	next    uint32
	calls   map[string]int
	failing map[string]uint32
	live    map[string]map[uint32]bool
	misuse  []string

	bound        map[gfx.BufferTarget]gfx.Buffer
	vertexArray  gfx.VertexArray
	texture      gfx.Texture
	textureUnit  int
	program      gfx.Program
	clearColor   [4]float32
	clears       []gfx.ClearMask
	buffers      map[gfx.Buffer][]byte
	textures     map[gfx.Texture]*Texture
	shaders      map[gfx.Shader]*shader
	programs     map[gfx.Program]*program
	draws        []Draw
	pointers     []AttribPointer
	enabled      map[gfx.VertexArray]map[gfx.Location]bool
	uploads      []UniformUpload
	bufferRanges []BufferRange
}

// New creates an empty recording driver.
func New() *Driver {
	return &Driver{
		calls:   make(map[string]int),
		failing: make(map[string]uint32),
		live: map[string]map[uint32]bool{
			KindBuffer:      {},
			KindVertexArray: {},
			KindTexture:     {},
			KindShader:      {},
			KindProgram:     {},
		},
		bound:    make(map[gfx.BufferTarget]gfx.Buffer),
		buffers:  make(map[gfx.Buffer][]byte),
		textures: make(map[gfx.Texture]*Texture),
		shaders:  make(map[gfx.Shader]*shader),
		programs: make(map[gfx.Program]*program),
		enabled:  make(map[gfx.VertexArray]map[gfx.Location]bool),
	}
}

// Fail makes the next call of the named driver method report
// GL_OUT_OF_MEMORY. Only methods that return an error can fail.
func (d *Driver) Fail(op string) {
	d.failing[op] = 0x0505
}

// Calls returns how many times the named driver method was invoked.
func (d *Driver) Calls(op string) int {
	return d.calls[op]
}

// TotalCalls returns the number of driver calls made so far.
func (d *Driver) TotalCalls() int {
	var total int
	for _, n := range d.calls {
		total += n
	}
	return total
}

// Live returns the number of allocated objects of the given kind
// that have not been deleted.
func (d *Driver) Live(kind string) int {
	return len(d.live[kind])
}

// LiveTotal returns the number of objects of all kinds still allocated.
func (d *Driver) LiveTotal() int {
	var total int
	for _, objects := range d.live {
		total += len(objects)
	}
	return total
}

// Misuse lists deletions of unknown or already deleted objects.
func (d *Driver) Misuse() []string {
	return d.misuse
}

// Draws returns the recorded draw submissions.
func (d *Driver) Draws() []Draw {
	return d.draws
}

// AttribPointers returns the recorded vertex attribute descriptions.
func (d *Driver) AttribPointers() []AttribPointer {
	return d.pointers
}

// AttribEnabled reports whether location is enabled on the vertex array.
func (d *Driver) AttribEnabled(va gfx.VertexArray, location gfx.Location) bool {
	return d.enabled[va][location]
}

// Uploads returns the recorded uniform uploads.
func (d *Driver) Uploads() []UniformUpload {
	return d.uploads
}

// BufferRanges returns the recorded indexed buffer bindings.
func (d *Driver) BufferRanges() []BufferRange {
	return d.bufferRanges
}

// BufferContents returns a copy of the buffer storage.
func (d *Driver) BufferContents(buffer gfx.Buffer) []byte {
	return append([]byte(nil), d.buffers[buffer]...)
}

// Texture returns the recorded state of a texture object.
func (d *Driver) Texture(texture gfx.Texture) *Texture {
	return d.textures[texture]
}

// BoundTexture returns the texture bound to the active unit and the unit.
func (d *Driver) BoundTexture() (gfx.Texture, int) {
	return d.texture, d.textureUnit
}

// BoundBuffer returns the buffer bound to target.
func (d *Driver) BoundBuffer(target gfx.BufferTarget) gfx.Buffer {
	return d.bound[target]
}

// BoundVertexArray returns the bound vertex array.
func (d *Driver) BoundVertexArray() gfx.VertexArray {
	return d.vertexArray
}

// CurrentProgram returns the program in use.
func (d *Driver) CurrentProgram() gfx.Program {
	return d.program
}

// BlockBinding returns the binding point the named block of program
// was bound to.
func (d *Driver) BlockBinding(p gfx.Program, block string) (uint32, bool) {
	prog, ok := d.programs[p]
	if !ok {
		return 0, false
	}
	index, ok := prog.blocks[block]
	if !ok {
		return 0, false
	}
	binding, ok := prog.bindings[index]
	return binding, ok
}

// FragDataLocation returns the color number bound to an output name.
func (d *Driver) FragDataLocation(p gfx.Program, name string) (uint32, bool) {
	prog, ok := d.programs[p]
	if !ok {
		return 0, false
	}
	color, ok := prog.fragData[name]
	return color, ok
}

// ClearState returns the clear color and the recorded clears.
func (d *Driver) ClearState() ([4]float32, []gfx.ClearMask) {
	return d.clearColor, d.clears
}

func (d *Driver) record(op string) {
	d.calls[op]++
}

func (d *Driver) failure(op string) error {
	code, ok := d.failing[op]
	if !ok {
		return nil
	}
	delete(d.failing, op)
	return &gfx.DriverError{Op: op, Code: code}
}

func (d *Driver) allocate(kind string) uint32 {
	d.next++
	d.live[kind][d.next] = true
	return d.next
}

func (d *Driver) release(kind string, handle uint32) {
	if handle == 0 {
		return
	}
	if !d.live[kind][handle] {
		d.misuse = append(d.misuse, fmt.Sprintf("delete of dead %s %d", kind, handle))
		return
	}
	delete(d.live[kind], handle)
}

func encode(size int, data interface{}) ([]byte, error) {
	if data == nil {
		// GL leaves storage allocated without data undefined.
		garbage := make([]byte, size)
		for i := range garbage {
			garbage[i] = 0xCD
		}
		return garbage, nil
	}
	var buf bytes.Buffer
	if err := binary.Write(&buf, binary.LittleEndian, data); err != nil {
		return nil, err
	}
	if buf.Len() < size {
		return nil, fmt.Errorf("%d bytes of data for a %d byte upload", buf.Len(), size)
	}
	return buf.Bytes()[:size], nil
}

// CreateBuffer implements interface
func (d *Driver) CreateBuffer() (gfx.Buffer, error) {
	d.record("CreateBuffer")
	if err := d.failure("CreateBuffer"); err != nil {
		return 0, err
	}
	return gfx.Buffer(d.allocate(KindBuffer)), nil
}

// BindBuffer implements interface
func (d *Driver) BindBuffer(target gfx.BufferTarget, buffer gfx.Buffer) {
	d.record("BindBuffer")
	d.bound[target] = buffer
}

// BufferData implements interface
func (d *Driver) BufferData(target gfx.BufferTarget, size int, data interface{}) error {
	d.record("BufferData")
	if err := d.failure("BufferData"); err != nil {
		return err
	}
	buffer := d.bound[target]
	if buffer == 0 {
		return &gfx.DriverError{Op: "BufferData", Code: 0x0502}
	}
	contents, err := encode(size, data)
	if err != nil {
		return &gfx.DriverError{Op: "BufferData", Code: 0x0501}
	}
	d.buffers[buffer] = contents
	return nil
}

// BufferSubData implements interface
func (d *Driver) BufferSubData(target gfx.BufferTarget, offset, size int, data interface{}) error {
	d.record("BufferSubData")
	if err := d.failure("BufferSubData"); err != nil {
		return err
	}
	buffer := d.bound[target]
	storage, ok := d.buffers[buffer]
	if buffer == 0 || !ok || size < 0 || offset < 0 || offset > len(storage)-size {
		return &gfx.DriverError{Op: "BufferSubData", Code: 0x0501}
	}
	contents, err := encode(size, data)
	if err != nil {
		return &gfx.DriverError{Op: "BufferSubData", Code: 0x0501}
	}
	copy(storage[offset:], contents)
	return nil
}

// BindBufferRange implements interface
func (d *Driver) BindBufferRange(target gfx.BufferTarget, index uint32, buffer gfx.Buffer, offset, size int) {
	d.record("BindBufferRange")
	d.bufferRanges = append(d.bufferRanges, BufferRange{
		Target: target,
		Index:  index,
		Buffer: buffer,
		Offset: offset,
		Size:   size,
	})
}

// DeleteBuffer implements interface
func (d *Driver) DeleteBuffer(buffer gfx.Buffer) {
	d.record("DeleteBuffer")
	d.release(KindBuffer, uint32(buffer))
	delete(d.buffers, buffer)
	for target, bound := range d.bound {
		if bound == buffer {
			d.bound[target] = 0
		}
	}
}

// CreateVertexArray implements interface
func (d *Driver) CreateVertexArray() (gfx.VertexArray, error) {
	d.record("CreateVertexArray")
	if err := d.failure("CreateVertexArray"); err != nil {
		return 0, err
	}
	return gfx.VertexArray(d.allocate(KindVertexArray)), nil
}

// BindVertexArray implements interface
func (d *Driver) BindVertexArray(va gfx.VertexArray) {
	d.record("BindVertexArray")
	d.vertexArray = va
}

// DeleteVertexArray implements interface
func (d *Driver) DeleteVertexArray(va gfx.VertexArray) {
	d.record("DeleteVertexArray")
	d.release(KindVertexArray, uint32(va))
	if d.vertexArray == va {
		d.vertexArray = 0
	}
}

// EnableVertexAttribArray implements interface
func (d *Driver) EnableVertexAttribArray(location gfx.Location) {
	d.record("EnableVertexAttribArray")
	if d.enabled[d.vertexArray] == nil {
		d.enabled[d.vertexArray] = make(map[gfx.Location]bool)
	}
	d.enabled[d.vertexArray][location] = true
}

// VertexAttribPointer implements interface
func (d *Driver) VertexAttribPointer(location gfx.Location, components, stride, offset int) {
	d.record("VertexAttribPointer")
	d.pointers = append(d.pointers, AttribPointer{
		VertexArray: d.vertexArray,
		Location:    location,
		Components:  components,
		Stride:      stride,
		Offset:      offset,
	})
}

// DrawTriangles implements interface
func (d *Driver) DrawTriangles(count int) {
	d.record("DrawTriangles")
	d.draws = append(d.draws, Draw{
		VertexArray: d.vertexArray,
		Program:     d.program,
		Count:       count,
	})
}

// CreateTexture implements interface
func (d *Driver) CreateTexture() (gfx.Texture, error) {
	d.record("CreateTexture")
	if err := d.failure("CreateTexture"); err != nil {
		return 0, err
	}
	texture := gfx.Texture(d.allocate(KindTexture))
	d.textures[texture] = &Texture{
		Parameters: make(map[gfx.TextureParameter]gfx.TextureValue),
	}
	return texture, nil
}

// ActiveTexture implements interface
func (d *Driver) ActiveTexture(unit int) {
	d.record("ActiveTexture")
	d.textureUnit = unit
}

// BindTexture implements interface
func (d *Driver) BindTexture(texture gfx.Texture) {
	d.record("BindTexture")
	d.texture = texture
}

// TexImage2D implements interface
func (d *Driver) TexImage2D(width, height int, pixels []uint8) error {
	d.record("TexImage2D")
	if err := d.failure("TexImage2D"); err != nil {
		return err
	}
	texture, ok := d.textures[d.texture]
	if !ok || len(pixels) < width*height*4 {
		return &gfx.DriverError{Op: "TexImage2D", Code: 0x0501}
	}
	texture.Width, texture.Height = width, height
	texture.Pixels = append([]uint8(nil), pixels...)
	return nil
}

// GenerateMipmap implements interface
func (d *Driver) GenerateMipmap() {
	d.record("GenerateMipmap")
	if texture, ok := d.textures[d.texture]; ok {
		texture.Mipmapped = true
	}
}

// TexParameter implements interface
func (d *Driver) TexParameter(param gfx.TextureParameter, value gfx.TextureValue) {
	d.record("TexParameter")
	if texture, ok := d.textures[d.texture]; ok {
		texture.Parameters[param] = value
	}
}

// DeleteTexture implements interface
func (d *Driver) DeleteTexture(texture gfx.Texture) {
	d.record("DeleteTexture")
	d.release(KindTexture, uint32(texture))
	delete(d.textures, texture)
}

// CreateShader implements interface
func (d *Driver) CreateShader(stage gfx.ShaderStage) (gfx.Shader, error) {
	d.record("CreateShader")
	if err := d.failure("CreateShader"); err != nil {
		return 0, err
	}
	s := gfx.Shader(d.allocate(KindShader))
	d.shaders[s] = &shader{stage: stage}
	return s, nil
}

// CompileShader compiles any source that has no #error directive.
func (d *Driver) CompileShader(s gfx.Shader, source string) {
	d.record("CompileShader")
	sh, ok := d.shaders[s]
	if !ok {
		return
	}
	sh.source = source
	if m := errorDecl.FindStringSubmatch(source); m != nil {
		sh.compiled = false
		sh.log = fmt.Sprintf("ERROR: 0:1: '#error' :%s\n", m[1])
		return
	}
	sh.compiled = true
	sh.log = ""
}

// ShaderCompiled implements interface
func (d *Driver) ShaderCompiled(s gfx.Shader) bool {
	d.record("ShaderCompiled")
	sh, ok := d.shaders[s]
	return ok && sh.compiled
}

// ShaderInfoLog implements interface
func (d *Driver) ShaderInfoLog(s gfx.Shader) string {
	d.record("ShaderInfoLog")
	if sh, ok := d.shaders[s]; ok {
		return sh.log
	}
	return ""
}

// DeleteShader implements interface
func (d *Driver) DeleteShader(s gfx.Shader) {
	d.record("DeleteShader")
	d.release(KindShader, uint32(s))
	delete(d.shaders, s)
}

// CreateProgram implements interface
func (d *Driver) CreateProgram() (gfx.Program, error) {
	d.record("CreateProgram")
	if err := d.failure("CreateProgram"); err != nil {
		return 0, err
	}
	p := gfx.Program(d.allocate(KindProgram))
	d.programs[p] = &program{
		fragData: make(map[string]uint32),
		bindings: make(map[gfx.BlockIndex]uint32),
	}
	return p, nil
}

// AttachShader implements interface
func (d *Driver) AttachShader(p gfx.Program, s gfx.Shader) {
	d.record("AttachShader")
	if prog, ok := d.programs[p]; ok {
		prog.shaders = append(prog.shaders, s)
	}
}

// BindFragDataLocation implements interface
func (d *Driver) BindFragDataLocation(p gfx.Program, color uint32, name string) {
	d.record("BindFragDataLocation")
	if prog, ok := d.programs[p]; ok {
		prog.fragData[name] = color
	}
}

// LinkProgram links a program from one compiled vertex and one
// compiled fragment stage, numbering declarations alphabetically.
func (d *Driver) LinkProgram(p gfx.Program) {
	d.record("LinkProgram")
	prog, ok := d.programs[p]
	if !ok {
		return
	}
	var (
		uniforms, blocks, attribs []string
		stages                    = make(map[gfx.ShaderStage]bool)
	)
	for _, s := range prog.shaders {
		sh, ok := d.shaders[s]
		if !ok || !sh.compiled {
			prog.linked = false
			prog.log = "ERROR: One or more attached shaders not successfully compiled\n"
			return
		}
		stages[sh.stage] = true
		uniforms = append(uniforms, declarations(uniformDecl, sh.source)...)
		blocks = append(blocks, declarations(blockDecl, sh.source)...)
		if sh.stage == gfx.VertexStage {
			attribs = append(attribs, declarations(inputDecl, sh.source)...)
		}
	}
	if !stages[gfx.VertexStage] || !stages[gfx.FragmentStage] {
		prog.linked = false
		prog.log = "ERROR: Program requires a vertex and a fragment stage\n"
		return
	}

	prog.uniforms = make(map[string]gfx.Location)
	for i, name := range unique(uniforms) {
		prog.uniforms[name] = gfx.Location(i)
	}
	prog.attribs = make(map[string]gfx.Location)
	for i, name := range unique(attribs) {
		prog.attribs[name] = gfx.Location(i)
	}
	prog.blocks = make(map[string]gfx.BlockIndex)
	for i, name := range unique(blocks) {
		prog.blocks[name] = gfx.BlockIndex(i)
	}
	prog.linked = true
	prog.log = ""
}

func declarations(re *regexp.Regexp, source string) []string {
	var names []string
	for _, m := range re.FindAllStringSubmatch(source, -1) {
		names = append(names, m[1])
	}
	return names
}

func unique(names []string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, name := range names {
		if !seen[name] {
			seen[name] = true
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out
}

// ProgramLinked implements interface
func (d *Driver) ProgramLinked(p gfx.Program) bool {
	d.record("ProgramLinked")
	prog, ok := d.programs[p]
	return ok && prog.linked
}

// ProgramInfoLog implements interface
func (d *Driver) ProgramInfoLog(p gfx.Program) string {
	d.record("ProgramInfoLog")
	if prog, ok := d.programs[p]; ok {
		return prog.log
	}
	return ""
}

// UseProgram implements interface
func (d *Driver) UseProgram(p gfx.Program) {
	d.record("UseProgram")
	d.program = p
}

// DeleteProgram implements interface
func (d *Driver) DeleteProgram(p gfx.Program) {
	d.record("DeleteProgram")
	d.release(KindProgram, uint32(p))
	delete(d.programs, p)
	if d.program == p {
		d.program = 0
	}
}

// UniformLocation implements interface
func (d *Driver) UniformLocation(p gfx.Program, name string) gfx.Location {
	d.record("UniformLocation")
	prog, ok := d.programs[p]
	if !ok || !prog.linked {
		return gfx.InvalidLocation
	}
	if location, ok := prog.uniforms[name]; ok {
		return location
	}
	return gfx.InvalidLocation
}

// AttribLocation implements interface
func (d *Driver) AttribLocation(p gfx.Program, name string) gfx.Location {
	d.record("AttribLocation")
	prog, ok := d.programs[p]
	if !ok || !prog.linked {
		return gfx.InvalidLocation
	}
	if location, ok := prog.attribs[name]; ok {
		return location
	}
	return gfx.InvalidLocation
}

// UniformBlockIndex implements interface
func (d *Driver) UniformBlockIndex(p gfx.Program, name string) gfx.BlockIndex {
	d.record("UniformBlockIndex")
	prog, ok := d.programs[p]
	if !ok || !prog.linked {
		return gfx.InvalidBlockIndex
	}
	if index, ok := prog.blocks[name]; ok {
		return index
	}
	return gfx.InvalidBlockIndex
}

// UniformBlockBinding implements interface
func (d *Driver) UniformBlockBinding(p gfx.Program, block gfx.BlockIndex, binding uint32) {
	d.record("UniformBlockBinding")
	if prog, ok := d.programs[p]; ok {
		prog.bindings[block] = binding
	}
}

func (d *Driver) upload(location gfx.Location, value interface{}) {
	d.uploads = append(d.uploads, UniformUpload{
		Program:  d.program,
		Location: location,
		Value:    value,
	})
}

// Uniform1i implements interface
func (d *Driver) Uniform1i(location gfx.Location, v int32) {
	d.record("Uniform1i")
	d.upload(location, v)
}

// Uniform1f implements interface
func (d *Driver) Uniform1f(location gfx.Location, v float32) {
	d.record("Uniform1f")
	d.upload(location, v)
}

// Uniform3f implements interface
func (d *Driver) Uniform3f(location gfx.Location, v glm.Vec3) {
	d.record("Uniform3f")
	d.upload(location, v)
}

// Uniform4f implements interface
func (d *Driver) Uniform4f(location gfx.Location, v glm.Vec4) {
	d.record("Uniform4f")
	d.upload(location, v)
}

// UniformMatrix4f implements interface
func (d *Driver) UniformMatrix4f(location gfx.Location, v glm.Mat4) {
	d.record("UniformMatrix4f")
	d.upload(location, v)
}

// ClearColor implements interface
func (d *Driver) ClearColor(r, g, b, a float32) {
	d.record("ClearColor")
	d.clearColor = [4]float32{r, g, b, a}
}

// Clear implements interface
func (d *Driver) Clear(mask gfx.ClearMask) {
	d.record("Clear")
	d.clears = append(d.clears, mask)
}

// String summarises the live objects, useful in test failure output.
func (d *Driver) String() string {
	var parts []string
	for _, kind := range []string{KindBuffer, KindVertexArray, KindTexture, KindShader, KindProgram} {
		parts = append(parts, fmt.Sprintf("%s=%d", strings.Replace(kind, " ", "_", -1), len(d.live[kind])))
	}
	return strings.Join(parts, " ")
}

var _ gfx.Driver = (*Driver)(nil)
