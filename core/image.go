// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package core

import (
	"bytes"
	"fmt"
	"image"
	"image/draw"

	// Registered image formats
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/devblok/glw/asset"
)

// ImageLoader decodes an image file into RGBA pixels.
type ImageLoader interface {
	LoadImage(path string) (*image.RGBA, error)
}

// NewImageLoader creates an ImageLoader that reads from src and
// understands png, jpeg, gif, bmp, tiff and webp.
func NewImageLoader(src asset.Source) ImageLoader {
	return sourceImageLoader{src: src}
}

type sourceImageLoader struct {
	src asset.Source
}

// LoadImage implements interface
func (l sourceImageLoader) LoadImage(path string) (*image.RGBA, error) {
	data, err := l.src.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrFileNotFound, err.Error())
	}
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %s", ErrImageDecode, path, err.Error())
	}
	if img.Bounds().Empty() {
		return nil, fmt.Errorf("%w: %s: empty %s image", ErrImageDecode, path, format)
	}
	return ToRGBA(img), nil
}

// ToRGBA transforms a given image into the tightly packed, top-left
// origin RGBA arrangement textures are uploaded in, by drawing the
// decoded image onto a controlled canvas.
func ToRGBA(img image.Image) *image.RGBA {
	bounds := img.Bounds()
	if rgba, ok := img.(*image.RGBA); ok && rgba.Stride == 4*bounds.Dx() && bounds.Min == image.ZP {
		return rgba
	}
	canvas := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(canvas, canvas.Bounds(), img, bounds.Min, draw.Src)
	return canvas
}
