// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Command glw opens a window and spins a textured cube, driving
// everything through a core.Registry.
package main

import (
	"flag"
	"fmt"
	"runtime"
	"time"

	"github.com/devblok/glw/asset"
	"github.com/devblok/glw/core"
	"github.com/devblok/glw/gfx/glr"
	"github.com/devblok/glw/model"
	"github.com/go-gl/gl/v4.1-core/gl"
	glm "github.com/go-gl/mathgl/mgl32"
	"github.com/gobuffalo/packr"
	log "github.com/sirupsen/logrus"
	"github.com/veandco/go-sdl2/sdl"
)

func init() {
	runtime.LockOSThread()
}

var envFile = flag.String("env", "", "Read configuration from the given .env file")

// Resource keys used by the demo
const (
	cubeKey    = "cube"
	textureKey = "crate"
	shaderKey  = "mesh"
	matrices   = "Matrices"
)

func newWindow(cfg core.WindowConfiguration) (*sdl.Window, sdl.GLContext, error) {
	sdl.GLSetAttribute(sdl.GL_CONTEXT_MAJOR_VERSION, 4)
	sdl.GLSetAttribute(sdl.GL_CONTEXT_MINOR_VERSION, 1)
	sdl.GLSetAttribute(sdl.GL_CONTEXT_PROFILE_MASK, sdl.GL_CONTEXT_PROFILE_CORE)
	sdl.GLSetAttribute(sdl.GL_DOUBLEBUFFER, 1)
	sdl.GLSetAttribute(sdl.GL_DEPTH_SIZE, 24)
	if cfg.DebugMode {
		sdl.GLSetAttribute(sdl.GL_CONTEXT_FLAGS, sdl.GL_CONTEXT_DEBUG_FLAG)
	}

	window, err := sdl.CreateWindow(cfg.Title,
		sdl.WINDOWPOS_UNDEFINED,
		sdl.WINDOWPOS_UNDEFINED,
		cfg.ScreenWidth,
		cfg.ScreenHeight,
		sdl.WINDOW_OPENGL)
	if err != nil {
		return nil, nil, err
	}
	context, err := window.GLCreateContext()
	if err != nil {
		window.Destroy()
		return nil, nil, err
	}
	return window, context, nil
}

func setupScene(registry *core.Registry, src asset.Source, cfg core.Configuration) error {
	data, err := src.ReadFile("models/cube.dae")
	if err != nil {
		return err
	}
	mesh, err := model.ImportCollada(data)
	if err != nil {
		return err
	}
	if err := mesh.Upload(registry, cubeKey); err != nil {
		return err
	}

	if err := registry.LoadTexture(textureKey, "textures/crate.png"); err != nil {
		return err
	}
	if _, err := registry.LoadShaders("shaders"); err != nil {
		return err
	}
	if err := registry.BindVertexArray(cubeKey); err != nil {
		return err
	}
	if err := registry.SpecifyAttributeLayout(shaderKey, cubeKey); err != nil {
		return err
	}

	if err := registry.CreateUniformBuffer(matrices, 2*16*4, shaderKey); err != nil {
		return err
	}
	aspect := float32(cfg.Window.ScreenWidth) / float32(cfg.Window.ScreenHeight)
	projection := glm.Perspective(glm.DegToRad(45), aspect, 0.1, 100)
	view := glm.LookAtV(glm.Vec3{3, 3, 5}, glm.Vec3{0, 0, 0}, glm.Vec3{0, 1, 0})
	if err := registry.SetUniformBuffer(matrices, 0, projection); err != nil {
		return err
	}
	if err := registry.SetUniformBuffer(matrices, 16*4, view); err != nil {
		return err
	}

	if err := registry.UseShader(shaderKey); err != nil {
		return err
	}
	for name, value := range map[string]core.Uniform{
		"tex":   core.Int(0),
		"tint":  core.Vec4{1, 1, 1, 1},
		"light": core.Vec3{1, 2, 3},
		"mode":  core.Int(1),
	} {
		if err := registry.SetUniform(shaderKey, name, value); err != nil {
			return err
		}
	}

	registry.SetClearColor(0.1, 0.1, 0.12, 1)
	return nil
}

func drawFrame(registry *core.Registry, cube *model.Instance, elapsed float32) error {
	registry.ClearFramebuffer()
	if err := registry.UseShader(shaderKey); err != nil {
		return err
	}
	if err := registry.SetUniform(shaderKey, "model", cube.Uniform()); err != nil {
		return err
	}
	if err := registry.SetUniform(shaderKey, "time", core.Float(elapsed)); err != nil {
		return err
	}
	if err := registry.SetTextureUnit(0); err != nil {
		return err
	}
	if err := registry.SetActiveTexture(textureKey); err != nil {
		return err
	}
	if err := registry.BindVertexArray(cubeKey); err != nil {
		return err
	}
	return registry.RenderVertexArray(cubeKey)
}

func main() {
	flag.Parse()

	var envFiles []string
	if *envFile != "" {
		envFiles = append(envFiles, *envFile)
	}
	configuration, err := core.LoadConfiguration(envFiles...)
	if err != nil {
		log.Fatal(err)
	}
	if err := core.ConfigureLogging(configuration.Log); err != nil {
		log.Fatal(err)
	}

	if err := sdl.Init(sdl.INIT_VIDEO | sdl.INIT_EVENTS); err != nil {
		log.Fatal(err)
	}
	defer sdl.Quit()

	window, context, err := newWindow(configuration.Window)
	if err != nil {
		log.Fatal(err)
	}
	defer window.Destroy()
	defer sdl.GLDeleteContext(context)

	driver, err := glr.New(glr.Configuration{DebugMode: configuration.Window.DebugMode})
	if err != nil {
		log.Fatal(err)
	}
	info := driver.Info()
	log.WithFields(log.Fields{"renderer": info.Renderer, "version": info.Version}).Info("context created")
	gl.Enable(gl.DEPTH_TEST)

	src, closeAssets, err := core.OpenAssets(configuration.Assets, asset.Box{Box: packr.NewBox("./assets")})
	if err != nil {
		log.Fatal(err)
	}
	defer closeAssets()

	registry := core.NewRegistry(driver, src, configuration.Registry)
	defer registry.Release()

	if err := setupScene(registry, src, configuration); err != nil {
		log.WithError(err).Error("scene setup failed")
		return
	}

	cube := model.NewInstance()
	clock := core.NewTime(configuration.Time)
	defer clock.Stop()

	var (
		start      = time.Now()
		frameTime  time.Duration
		lastReport = start
	)

EventLoop:
	for {
		select {
		case <-clock.EventTicker().C:
			for event := sdl.PollEvent(); event != nil; event = sdl.PollEvent() {
				switch et := event.(type) {
				case *sdl.KeyboardEvent:
					if et.Keysym.Sym == sdl.K_ESCAPE {
						break EventLoop
					}
				case *sdl.QuitEvent:
					break EventLoop
				}
			}
		case <-clock.FpsTicker().C:
			cube.Rotate(float32(frameTime.Seconds())*glm.DegToRad(45), glm.Vec3{0.3, 1, 0})
			if err := drawFrame(registry, cube, float32(time.Since(start).Seconds())); err != nil {
				log.WithError(err).Error("frame failed")
				break EventLoop
			}
			window.GLSwap()
			frameTime = clock.Frame()

			if time.Since(lastReport) > time.Second {
				lastReport = time.Now()
				window.SetTitle(fmt.Sprintf("%s - frame %d, %v", configuration.Window.Title, clock.Frames(), frameTime))
			}
		}
	}
	log.Info("event loop exited")
}
