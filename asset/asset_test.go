// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package asset_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/devblok/glw/asset"
	qt "github.com/frankban/quicktest"
	"github.com/gobuffalo/packr"
)

var (
	_ asset.Source = asset.Dir("")
	_ asset.Source = asset.Box{}
	_ asset.Source = asset.Memory{}
	_ asset.Source = asset.Overlay{}
)

func TestDir(t *testing.T) {
	c := qt.New(t)
	dir := asset.Dir("testdata")

	data, err := dir.ReadFile("nested/deep.txt")
	c.Assert(err, qt.IsNil)
	c.Assert(string(data), qt.Equals, "deep\n")

	abs, err := filepath.Abs("testdata/hello.txt")
	c.Assert(err, qt.IsNil)
	data, err = dir.ReadFile(abs)
	c.Assert(err, qt.IsNil)
	c.Assert(string(data), qt.Equals, "hello from disk\n")

	_, err = dir.ReadFile("missing.txt")
	c.Assert(os.IsNotExist(err), qt.Equals, true)

	names, err := dir.List()
	c.Assert(err, qt.IsNil)
	c.Assert(names, qt.DeepEquals, []string{"hello.txt", "nested/deep.txt"})
}

func TestBox(t *testing.T) {
	c := qt.New(t)
	box := asset.Box{Box: packr.NewBox("./testdata")}

	data, err := box.ReadFile("hello.txt")
	c.Assert(err, qt.IsNil)
	c.Assert(string(data), qt.Equals, "hello from disk\n")

	_, err = box.ReadFile("missing.txt")
	c.Assert(os.IsNotExist(err), qt.Equals, true)

	names, err := box.List()
	c.Assert(err, qt.IsNil)
	c.Assert(names, qt.DeepEquals, []string{"hello.txt", "nested/deep.txt"})
}

func TestMemory(t *testing.T) {
	c := qt.New(t)
	mem := asset.Memory{"a/b.txt": []byte("b")}

	data, err := mem.ReadFile("a/./b.txt")
	c.Assert(err, qt.IsNil)
	c.Assert(string(data), qt.Equals, "b")

	data[0] = 'x'
	data, err = mem.ReadFile("a/b.txt")
	c.Assert(err, qt.IsNil)
	c.Assert(string(data), qt.Equals, "b")

	_, err = mem.ReadFile("a/c.txt")
	c.Assert(os.IsNotExist(err), qt.Equals, true)
}

func TestOverlay(t *testing.T) {
	c := qt.New(t)
	overlay := asset.Overlay{
		asset.Memory{"hello.txt": []byte("hello from memory")},
		asset.Dir("testdata"),
	}

	data, err := overlay.ReadFile("hello.txt")
	c.Assert(err, qt.IsNil)
	c.Assert(string(data), qt.Equals, "hello from memory")

	data, err = overlay.ReadFile("nested/deep.txt")
	c.Assert(err, qt.IsNil)
	c.Assert(string(data), qt.Equals, "deep\n")

	_, err = overlay.ReadFile("missing.txt")
	c.Assert(os.IsNotExist(err), qt.Equals, true)

	names, err := overlay.List()
	c.Assert(err, qt.IsNil)
	c.Assert(names, qt.DeepEquals, []string{"hello.txt", "nested/deep.txt"})
}

func TestExt(t *testing.T) {
	c := qt.New(t)
	c.Assert(asset.Ext("textures/Bricks.PNG"), qt.Equals, "png")
	c.Assert(asset.Ext("shaders/basic.vert"), qt.Equals, "vert")
	c.Assert(asset.Ext("README"), qt.Equals, "")
}
