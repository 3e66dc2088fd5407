// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package collada decodes the geometry part of COLLADA (.dae) documents.
package collada

import (
	"encoding/xml"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// package errors
var (
	ErrNoGeometry    = errors.New("document has no geometry")
	ErrMissingSource = errors.New("referenced source not found")
	ErrIndexRange    = errors.New("index out of range")
)

// Parse decodes a COLLADA document.
func Parse(data []byte) (*Collada, error) {
	var c Collada
	if err := xml.Unmarshal(data, &c); err != nil {
		return nil, err
	}
	if len(c.Geometries) == 0 {
		return nil, ErrNoGeometry
	}
	return &c, nil
}

// Collada is the top-level Collada object
type Collada struct {
	Asset      Asset      `xml:"asset"`
	Geometries []Geometry `xml:"library_geometries>geometry"`
}

// Asset holds document wide metadata
type Asset struct {
	UpAxis string `xml:"up_axis"`
	Unit   Unit   `xml:"unit"`
}

// Unit is the length unit of the document
type Unit struct {
	Name  string  `xml:"name,attr"`
	Meter float32 `xml:"meter,attr"`
}

// Geometry represents Collada's geometry
type Geometry struct {
	Mesh Mesh   `xml:"mesh"`
	ID   string `xml:"id,attr"`
	Name string `xml:"name,attr"`
}

// Mesh contains all the primitive data
type Mesh struct {
	Sources   []Source    `xml:"source"`
	Vertices  Vertices    `xml:"vertices"`
	Triangles []Triangles `xml:"triangles"`
}

// Source finds a source by id. A leading '#' of a reference is ignored.
func (m *Mesh) Source(ref string) (*Source, error) {
	id := strings.TrimPrefix(ref, "#")
	for i := range m.Sources {
		if m.Sources[i].ID == id {
			return &m.Sources[i], nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrMissingSource, ref)
}

// Resolve finds the source feeding an input. VERTEX inputs are followed
// through the vertices element to the source of the given semantic.
func (m *Mesh) Resolve(input Input, semantic string) (*Source, error) {
	if strings.TrimPrefix(input.Source, "#") != m.Vertices.ID {
		return m.Source(input.Source)
	}
	for _, in := range m.Vertices.Inputs {
		if in.Semantic == semantic {
			return m.Source(in.Source)
		}
	}
	return nil, fmt.Errorf("%w: %s of %s", ErrMissingSource, semantic, input.Source)
}

// Source links to other sources where data is present
type Source struct {
	ID       string   `xml:"id,attr"`
	Floats   Floats   `xml:"float_array"`
	Accessor Accessor `xml:"technique_common>accessor"`
}

// Stride is the number of floats per element, 1 when not declared.
func (s *Source) Stride() int {
	if s.Accessor.Stride > 0 {
		return s.Accessor.Stride
	}
	return 1
}

// Element returns the floats of element i.
func (s *Source) Element(i int) ([]float32, error) {
	stride := s.Stride()
	start := i * stride
	if i < 0 || start+stride > len(s.Floats.Data) {
		return nil, fmt.Errorf("%w: element %d of %s", ErrIndexRange, i, s.ID)
	}
	return s.Floats.Data[start : start+stride], nil
}

// Accessor describes how a float array is split into elements
type Accessor struct {
	Source string  `xml:"source,attr"`
	Count  int     `xml:"count,attr"`
	Stride int     `xml:"stride,attr"`
	Params []Param `xml:"param"`
}

// Param names a component of an accessor element
type Param struct {
	Name string `xml:"name,attr"`
	Type string `xml:"type,attr"`
}

// Floats is the array of floats
type Floats struct {
	ID   string
	Data []float32
}

// UnmarshalXML unmarshals the array of floats
func (f *Floats) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
	for _, attr := range start.Attr {
		switch attr.Name.Local {
		case "id":
			f.ID = attr.Value
		}
	}
	var raw string
	if err := d.DecodeElement(&raw, &start); err != nil {
		return err
	}
	fields := strings.Fields(raw)
	f.Data = make([]float32, 0, len(fields))
	for _, r := range fields {
		num, err := strconv.ParseFloat(r, 32)
		if err != nil {
			return err
		}
		f.Data = append(f.Data, float32(num))
	}
	return nil
}

// Vertices contains the list of vertices
type Vertices struct {
	ID     string  `xml:"id,attr"`
	Inputs []Input `xml:"input"`
}

// Triangles contain the list of triangles
type Triangles struct {
	Count    int
	Material string
	Inputs   []Input
	Index    []int
}

// Stride is the number of indices per triangle corner.
func (t *Triangles) Stride() int {
	var stride uint
	for _, in := range t.Inputs {
		if in.Offset+1 > stride {
			stride = in.Offset + 1
		}
	}
	return int(stride)
}

// Input returns the input with a given semantic.
func (t *Triangles) Input(semantic string) (Input, bool) {
	for _, in := range t.Inputs {
		if in.Semantic == semantic {
			return in, true
		}
	}
	return Input{}, false
}

// UnmarshalXML parses the index list
func (t *Triangles) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
	for _, attr := range start.Attr {
		switch attr.Name.Local {
		case "count":
			num, err := strconv.Atoi(attr.Value)
			if err != nil {
				return err
			}
			t.Count = num
		case "material":
			t.Material = attr.Value
		}
	}

	for {
		token, err := d.Token()
		if err != nil {
			return err
		}

		switch el := token.(type) {
		case xml.StartElement:
			switch el.Name.Local {
			case "input":
				var input Input
				if err := d.DecodeElement(&input, &el); err != nil {
					return err
				}
				t.Inputs = append(t.Inputs, input)
			case "p":
				var raw string
				if err := d.DecodeElement(&raw, &el); err != nil {
					return err
				}
				fields := strings.Fields(raw)
				t.Index = make([]int, 0, len(fields))
				for _, r := range fields {
					num, err := strconv.Atoi(r)
					if err != nil {
						return err
					}
					t.Index = append(t.Index, num)
				}
			default:
				if err := d.Skip(); err != nil {
					return err
				}
			}
		case xml.EndElement:
			if el == start.End() {
				return nil
			}
		}
	}
}

// Input is Collada'a input type
type Input struct {
	Semantic string `xml:"semantic,attr"`
	Source   string `xml:"source,attr"`
	Offset   uint   `xml:"offset,attr"`
	Set      int    `xml:"set,attr"`
}
