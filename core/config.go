// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package core

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/devblok/glw/asset"
	"github.com/devblok/glw/utility/kar"
	"github.com/gobuffalo/envy"
	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
)

// Environment variables read by LoadConfiguration
const (
	EnvFramesPerSecond = "GLW_FPS"
	EnvWidth           = "GLW_WIDTH"
	EnvHeight          = "GLW_HEIGHT"
	EnvDebug           = "GLW_DEBUG"
	EnvAssets          = "GLW_ASSETS"
	EnvArchive         = "GLW_ARCHIVE"
	EnvLogLevel        = "GLW_LOG_LEVEL"
	EnvFragData        = "GLW_FRAG_DATA"
)

// Configuration defines a global configuration setting
type Configuration struct {
	Time     TimeConfiguration
	Window   WindowConfiguration
	Registry RegistryConfiguration
	Assets   AssetConfiguration
	Log      LogConfiguration
}

// TimeConfiguration is used to configure time services
type TimeConfiguration struct {
	// FramesPerSecond caps frames per second that is put out
	// To unlimit, set to 0
	FramesPerSecond int

	// EventPollDelay is the interval between event polls,
	// 0 polls with every frame.
	EventPollDelay time.Duration
}

// WindowConfiguration is used to configure the window and rendering context
type WindowConfiguration struct {
	Title string

	ScreenWidth  int32
	ScreenHeight int32

	// DebugMode checks for driver errors after every statement
	DebugMode bool
}

// AssetConfiguration tells where resource files are read from.
// Both are optional, Directory shadows Archive.
type AssetConfiguration struct {
	Directory string
	Archive   string
}

// LogConfiguration is used to configure logging
type LogConfiguration struct {
	Level string
}

// DefaultConfiguration returns the configuration used when nothing is set.
func DefaultConfiguration() Configuration {
	return Configuration{
		Time: TimeConfiguration{
			FramesPerSecond: 60,
		},
		Window: WindowConfiguration{
			Title:        "glw",
			ScreenWidth:  800,
			ScreenHeight: 600,
		},
		Registry: DefaultRegistryConfiguration(),
		Log: LogConfiguration{
			Level: "info",
		},
	}
}

// LoadConfiguration reads the given .env files, then overrides the
// default configuration with the GLW_ variables that are set.
func LoadConfiguration(envFiles ...string) (Configuration, error) {
	cfg := DefaultConfiguration()

	if len(envFiles) > 0 {
		vars, err := godotenv.Read(envFiles...)
		if err != nil {
			return cfg, err
		}
		for key, value := range vars {
			envy.Set(key, value)
		}
	}

	var err error
	if cfg.Time.FramesPerSecond, err = envInt(EnvFramesPerSecond, cfg.Time.FramesPerSecond); err != nil {
		return cfg, err
	}
	if cfg.Time.FramesPerSecond < 0 {
		return cfg, fmt.Errorf("%w: %s must not be negative", ErrInvalidArgument, EnvFramesPerSecond)
	}

	width, err := envInt(EnvWidth, int(cfg.Window.ScreenWidth))
	if err != nil {
		return cfg, err
	}
	height, err := envInt(EnvHeight, int(cfg.Window.ScreenHeight))
	if err != nil {
		return cfg, err
	}
	if width <= 0 || height <= 0 {
		return cfg, fmt.Errorf("%w: window size %dx%d", ErrInvalidArgument, width, height)
	}
	cfg.Window.ScreenWidth, cfg.Window.ScreenHeight = int32(width), int32(height)

	debug := envy.Get(EnvDebug, strconv.FormatBool(cfg.Window.DebugMode))
	if cfg.Window.DebugMode, err = strconv.ParseBool(debug); err != nil {
		return cfg, fmt.Errorf("%w: %s=%q", ErrInvalidArgument, EnvDebug, debug)
	}

	cfg.Assets.Directory = envy.Get(EnvAssets, cfg.Assets.Directory)
	cfg.Assets.Archive = envy.Get(EnvArchive, cfg.Assets.Archive)
	cfg.Registry.Shader.FragDataName = envy.Get(EnvFragData, cfg.Registry.Shader.FragDataName)

	cfg.Log.Level = strings.ToLower(envy.Get(EnvLogLevel, cfg.Log.Level))
	if _, err := log.ParseLevel(cfg.Log.Level); err != nil {
		return cfg, fmt.Errorf("%w: %s", ErrInvalidArgument, err.Error())
	}

	return cfg, nil
}

func envInt(key string, def int) (int, error) {
	value := envy.Get(key, strconv.Itoa(def))
	num, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return def, fmt.Errorf("%w: %s=%q is not a number", ErrInvalidArgument, key, value)
	}
	return num, nil
}

// ConfigureLogging sets the level and formatter of the standard logger.
func ConfigureLogging(cfg LogConfiguration) error {
	level, err := log.ParseLevel(cfg.Level)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidArgument, err.Error())
	}
	log.SetLevel(level)
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	log.SetOutput(os.Stderr)
	return nil
}

// OpenAssets builds the asset source described by cfg. The directory is
// looked in first, then the archive, then the fallbacks in order.
// The returned function releases the archive.
func OpenAssets(cfg AssetConfiguration, fallbacks ...asset.Source) (asset.Source, func() error, error) {
	var (
		sources asset.Overlay
		closer  = func() error { return nil }
	)
	if cfg.Directory != "" {
		if info, err := os.Stat(cfg.Directory); err != nil {
			return nil, closer, fmt.Errorf("%w: %s", ErrFileNotFound, err.Error())
		} else if !info.IsDir() {
			return nil, closer, fmt.Errorf("%w: %s is not a directory", ErrInvalidArgument, cfg.Directory)
		}
		sources = append(sources, asset.Dir(cfg.Directory))
	}
	if cfg.Archive != "" {
		ar, err := kar.OpenFile(cfg.Archive)
		if err != nil {
			return nil, closer, fmt.Errorf("asset archive %s: %w", cfg.Archive, err)
		}
		sources = append(sources, ar)
		closer = ar.Close
	}
	sources = append(sources, fallbacks...)
	if len(sources) == 0 {
		return nil, closer, fmt.Errorf("%w: no asset source configured", ErrInvalidArgument)
	}
	log.WithFields(log.Fields{"directory": cfg.Directory, "archive": cfg.Archive, "fallbacks": len(fallbacks)}).Debug("assets opened")
	return sources, closer, nil
}
