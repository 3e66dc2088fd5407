// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package glr

import (
	"github.com/go-gl/gl/v4.1-core/gl"
)

// ContextInfo describes the OpenGL implementation behind the current context.
type ContextInfo struct {
	Vendor          string
	Renderer        string
	Version         string
	ShadingLanguage string
	Extensions      []string
	MaxTextureSize  int
	MaxTextureUnits int
}

// Info queries the current context.
func (d *Driver) Info() ContextInfo {
	info := ContextInfo{
		Vendor:          gl.GoStr(gl.GetString(gl.VENDOR)),
		Renderer:        gl.GoStr(gl.GetString(gl.RENDERER)),
		Version:         gl.GoStr(gl.GetString(gl.VERSION)),
		ShadingLanguage: gl.GoStr(gl.GetString(gl.SHADING_LANGUAGE_VERSION)),
	}

	var count int32
	gl.GetIntegerv(gl.NUM_EXTENSIONS, &count)
	for i := uint32(0); i < uint32(count); i++ {
		info.Extensions = append(info.Extensions, gl.GoStr(gl.GetStringi(gl.EXTENSIONS, i)))
	}

	var size, units int32
	gl.GetIntegerv(gl.MAX_TEXTURE_SIZE, &size)
	gl.GetIntegerv(gl.MAX_COMBINED_TEXTURE_IMAGE_UNITS, &units)
	info.MaxTextureSize = int(size)
	info.MaxTextureUnits = int(units)

	d.trace("glGetString")
	return info
}
