// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package model

import (
	"fmt"

	"github.com/devblok/glw/core"
	"github.com/devblok/glw/util/collada"
)

// ImportCollada converts the first geometry of a COLLADA document into
// a Mesh. Vertices carry a position and a normal, plus texture
// coordinates when the document has them. Every triangle corner becomes
// its own vertex, indices are sequential.
func ImportCollada(data []byte) (*Mesh, error) {
	doc, err := collada.Parse(data)
	if err != nil {
		return nil, err
	}

	geometry := doc.Geometries[0]
	mesh := &geometry.Mesh
	if len(mesh.Triangles) == 0 {
		return nil, fmt.Errorf("%w: %s has no triangles", collada.ErrNoGeometry, geometry.ID)
	}

	var (
		inputs   []corner
		withUV   = true
		vertices []float32
		indices  []uint32
	)
	for _, tri := range mesh.Triangles {
		c, err := newCorner(mesh, &tri)
		if err != nil {
			return nil, err
		}
		withUV = withUV && c.uv != nil
		inputs = append(inputs, c)
	}

	layout := core.AttributeLayout{
		{Name: PositionAttribute, Components: 3},
		{Name: NormalAttribute, Components: 3},
	}
	if withUV {
		layout = append(layout, core.Attribute{Name: UVAttribute, Components: 2})
	}

	for n, tri := range mesh.Triangles {
		c := inputs[n]
		stride := tri.Stride()
		if len(tri.Index) != tri.Count*3*stride {
			return nil, fmt.Errorf("%w: %d indices for %d triangles", collada.ErrIndexRange, len(tri.Index), tri.Count)
		}
		for start := 0; start < len(tri.Index); start += stride {
			p := tri.Index[start : start+stride]
			vertex, err := c.vertex(p, withUV)
			if err != nil {
				return nil, err
			}
			indices = append(indices, uint32(len(indices)))
			vertices = append(vertices, vertex...)
		}
	}

	return &Mesh{
		Name:     geometry.Name,
		Vertices: vertices,
		Indices:  indices,
		Layout:   layout,
	}, nil
}

// corner resolves the sources one triangle group reads from and the
// offsets of their indices.
type corner struct {
	position, normal, uv *collada.Source

	positionOffset, normalOffset, uvOffset uint
}

func newCorner(mesh *collada.Mesh, tri *collada.Triangles) (corner, error) {
	var c corner
	vertex, ok := tri.Input("VERTEX")
	if !ok {
		return c, fmt.Errorf("%w: triangles without VERTEX input", collada.ErrMissingSource)
	}

	var err error
	if c.position, err = mesh.Resolve(vertex, "POSITION"); err != nil {
		return c, err
	}
	c.positionOffset = vertex.Offset

	if normal, ok := tri.Input("NORMAL"); ok {
		if c.normal, err = mesh.Resolve(normal, "NORMAL"); err != nil {
			return c, err
		}
		c.normalOffset = normal.Offset
	} else if c.normal, err = mesh.Resolve(vertex, "NORMAL"); err != nil {
		return c, err
	} else {
		c.normalOffset = vertex.Offset
	}

	if uv, ok := tri.Input("TEXCOORD"); ok {
		if c.uv, err = mesh.Resolve(uv, "TEXCOORD"); err != nil {
			return c, err
		}
		c.uvOffset = uv.Offset
	}
	return c, nil
}

func (c corner) vertex(p []int, withUV bool) ([]float32, error) {
	out := make([]float32, 0, 8)
	for _, read := range []struct {
		source     *collada.Source
		offset     uint
		components int
	}{
		{c.position, c.positionOffset, 3},
		{c.normal, c.normalOffset, 3},
		{c.uv, c.uvOffset, 2},
	} {
		if read.components == 2 && !withUV {
			break
		}
		element, err := read.source.Element(p[read.offset])
		if err != nil {
			return nil, err
		}
		if len(element) < read.components {
			return nil, fmt.Errorf("%w: %s has %d components, need %d", collada.ErrIndexRange, read.source.ID, len(element), read.components)
		}
		out = append(out, element[:read.components]...)
	}
	return out, nil
}
