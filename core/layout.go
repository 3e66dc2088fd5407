// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package core

import (
	"fmt"
)

// Attribute is a named per-vertex attribute of Components floats.
type Attribute struct {
	Name       string
	Components int
}

// AttributeLayout describes how the floats of a vertex buffer group into
// attributes. Order is meaningful, it defines the offsets.
type AttributeLayout []Attribute

// NewAttributeLayout creates a validated layout.
func NewAttributeLayout(attrs ...Attribute) (AttributeLayout, error) {
	layout := AttributeLayout(attrs)
	if err := layout.Validate(); err != nil {
		return nil, err
	}
	return layout.clone(), nil
}

// Validate checks that every attribute has a unique name and at least
// one component.
func (l AttributeLayout) Validate() error {
	seen := make(map[string]bool, len(l))
	for i, a := range l {
		if a.Name == "" {
			return fmt.Errorf("%w: attribute %d has no name", ErrInvalidArgument, i)
		}
		if a.Components <= 0 {
			return fmt.Errorf("%w: attribute %q has %d components", ErrInvalidArgument, a.Name, a.Components)
		}
		if seen[a.Name] {
			return fmt.Errorf("%w: attribute %q declared twice", ErrInvalidArgument, a.Name)
		}
		seen[a.Name] = true
	}
	return nil
}

// Stride is the number of components in one vertex.
func (l AttributeLayout) Stride() int {
	var stride int
	for _, a := range l {
		stride += a.Components
	}
	return stride
}

// Offset returns the number of components preceding attribute i.
// Indices past the end give the stride, negative ones 0.
func (l AttributeLayout) Offset(i int) int {
	if i <= 0 {
		return 0
	}
	if i > len(l) {
		i = len(l)
	}
	var offset int
	for _, a := range l[:i] {
		offset += a.Components
	}
	return offset
}

// Offsets returns the running offset of every attribute, in components.
func (l AttributeLayout) Offsets() []int {
	offsets := make([]int, len(l))
	var offset int
	for i, a := range l {
		offsets[i] = offset
		offset += a.Components
	}
	return offsets
}

func (l AttributeLayout) clone() AttributeLayout {
	if l == nil {
		return nil
	}
	return append(AttributeLayout(nil), l...)
}
