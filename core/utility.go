// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package core

import (
	"path"
	"sort"
	"strings"

	"github.com/devblok/glw/asset"
	"github.com/devblok/glw/gfx"
	log "github.com/sirupsen/logrus"
)

const shaderSuffix = ".glsl"

// ShaderPair is a vertex and fragment source that build one program.
type ShaderPair struct {
	Name     string
	Vertex   string
	Fragment string
}

// shaderStageOf tells the stage of a shader file. It is important that
// the file name does not contain more than two dots, the first part is
// always the name of the shader, second is the stage. An optional
// .glsl suffix is allowed on top.
func shaderStageOf(file string) (string, gfx.ShaderStage, bool) {
	base := strings.TrimSuffix(path.Base(file), shaderSuffix)
	nodes := strings.Split(base, ".")
	if len(nodes) != 2 || nodes[0] == "" {
		return "", 0, false
	}
	switch nodes[1] {
	case "vert":
		return nodes[0], gfx.VertexStage, true
	case "frag":
		return nodes[0], gfx.FragmentStage, true
	}
	return "", 0, false
}

// DiscoverShaders finds the shader source pairs below prefix in src.
// A pair is named by its path relative to prefix, without the stage.
// Shader files missing their other half are skipped.
func DiscoverShaders(src asset.Source, prefix string) ([]ShaderPair, error) {
	files, err := src.List()
	if err != nil {
		return nil, err
	}
	prefix = strings.Trim(prefix, "/")

	found := make(map[string]*ShaderPair)
	for _, file := range files {
		rel := file
		if prefix != "" {
			if !strings.HasPrefix(file, prefix+"/") {
				continue
			}
			rel = strings.TrimPrefix(file, prefix+"/")
		}
		name, stage, ok := shaderStageOf(rel)
		if !ok {
			continue
		}
		if dir := path.Dir(rel); dir != "." {
			name = path.Join(dir, name)
		}
		pair, ok := found[name]
		if !ok {
			pair = &ShaderPair{Name: name}
			found[name] = pair
		}
		switch stage {
		case gfx.VertexStage:
			pair.Vertex = file
		case gfx.FragmentStage:
			pair.Fragment = file
		}
	}

	pairs := make([]ShaderPair, 0, len(found))
	for _, pair := range found {
		if pair.Vertex == "" || pair.Fragment == "" {
			log.WithField("shader", pair.Name).Warn("shader source has no counterpart, skipped")
			continue
		}
		pairs = append(pairs, *pair)
	}
	sort.Slice(pairs, func(i, j int) bool {
		return pairs[i].Name < pairs[j].Name
	})
	return pairs, nil
}
