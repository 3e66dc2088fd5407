// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Command glwinfo creates a hidden OpenGL context and prints what the
// implementation behind it reports.
package main

import (
	"encoding/json"
	"flag"
	"io"
	"os"
	"runtime"

	"github.com/devblok/glw/gfx/glr"
	log "github.com/sirupsen/logrus"
	"github.com/veandco/go-sdl2/sdl"
	"gopkg.in/yaml.v3"
)

func init() {
	runtime.LockOSThread()
}

var (
	asYAML     = flag.Bool("yaml", false, "Print YAML instead of JSON")
	extensions = flag.Bool("extensions", false, "Include the extension list")
)

// report is the printed form of glr.ContextInfo.
type report struct {
	Vendor          string   `json:"vendor" yaml:"vendor"`
	Renderer        string   `json:"renderer" yaml:"renderer"`
	Version         string   `json:"version" yaml:"version"`
	ShadingLanguage string   `json:"shadingLanguage" yaml:"shadingLanguage"`
	MaxTextureSize  int      `json:"maxTextureSize" yaml:"maxTextureSize"`
	MaxTextureUnits int      `json:"maxTextureUnits" yaml:"maxTextureUnits"`
	Extensions      []string `json:"extensions,omitempty" yaml:"extensions,omitempty"`
}

func write(w io.Writer, r report) error {
	if *asYAML {
		enc := yaml.NewEncoder(w)
		defer enc.Close()
		return enc.Encode(r)
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(r)
}

func main() {
	flag.Parse()

	if err := sdl.Init(sdl.INIT_VIDEO); err != nil {
		log.Fatal(err)
	}
	defer sdl.Quit()

	sdl.GLSetAttribute(sdl.GL_CONTEXT_MAJOR_VERSION, 4)
	sdl.GLSetAttribute(sdl.GL_CONTEXT_MINOR_VERSION, 1)
	sdl.GLSetAttribute(sdl.GL_CONTEXT_PROFILE_MASK, sdl.GL_CONTEXT_PROFILE_CORE)

	window, err := sdl.CreateWindow("glwinfo", sdl.WINDOWPOS_UNDEFINED, sdl.WINDOWPOS_UNDEFINED, 1, 1, sdl.WINDOW_OPENGL|sdl.WINDOW_HIDDEN)
	if err != nil {
		log.Fatal(err)
	}
	defer window.Destroy()

	context, err := window.GLCreateContext()
	if err != nil {
		log.Fatal(err)
	}
	defer sdl.GLDeleteContext(context)

	driver, err := glr.New(glr.Configuration{})
	if err != nil {
		log.Fatal(err)
	}

	info := driver.Info()
	r := report{
		Vendor:          info.Vendor,
		Renderer:        info.Renderer,
		Version:         info.Version,
		ShadingLanguage: info.ShadingLanguage,
		MaxTextureSize:  info.MaxTextureSize,
		MaxTextureUnits: info.MaxTextureUnits,
	}
	if *extensions {
		r.Extensions = info.Extensions
	}
	if err := write(os.Stdout, r); err != nil {
		log.Fatal(err)
	}
}
