// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Command kar packs asset directories into kar archives, lists them
// and extracts them again.
package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"os/user"
	"path/filepath"
	"strings"
	"time"

	"github.com/devblok/glw/asset"
	"github.com/devblok/glw/utility/kar"
	log "github.com/sirupsen/logrus"
)

func init() {
	currentUserName = "unknown"
	if u, err := user.Current(); err == nil && u.Username != "" {
		currentUserName = u.Username
	}
}

var (
	currentUserName string

	author   = flag.String("author", "", "Set the author of the package when compressing")
	version  = flag.Int64("version", 1, "Archive version number to create it with")
	extract  = flag.String("e", "", "Extract the given archive")
	compress = flag.String("c", "", "Compress the given folder")
	list     = flag.String("l", "", "List the contents of the given archive")
	dstFile  = flag.String("f", "out.kar", "Destination file when compressing, directory when extracting")
	exts     = flag.String("ext", "", "Comma separated extensions to include when compressing, all when empty")
	silent   = flag.Bool("s", false, "Silent")
)

func main() {
	flag.Parse()
	if *silent {
		log.SetLevel(log.WarnLevel)
	}

	var ops int
	for _, op := range []string{*extract, *compress, *list} {
		if op != "" {
			ops++
		}
	}
	if ops > 1 {
		log.Fatal("only one operation at a time")
	}

	var err error
	switch {
	case *compress != "":
		err = compressFiles(*compress, *dstFile)
	case *extract != "":
		dst := *dstFile
		if dst == "out.kar" {
			dst = "."
		}
		err = extractFiles(*extract, dst)
	case *list != "":
		err = listFiles(*list)
	default:
		flag.PrintDefaults()
		return
	}
	if err != nil {
		log.Fatal(err)
	}
}

func extensionFilter(names string) map[string]bool {
	if names == "" {
		return nil
	}
	filter := make(map[string]bool)
	for _, e := range strings.Split(names, ",") {
		filter[asset.Ext("."+strings.TrimPrefix(strings.TrimSpace(e), "."))] = true
	}
	return filter
}

func compressFiles(dir, dstPath string) error {
	if _, err := os.Stat(dstPath); err == nil {
		return errors.New("destination file exists, will not overwrite")
	}

	names, err := asset.Dir(dir).List()
	if err != nil {
		return err
	}

	name := *author
	if name == "" {
		name = currentUserName
	}
	builder, err := kar.NewBuilder(kar.Header{
		Author:      name,
		DateCreated: time.Now().Unix(),
		Version:     *version,
	})
	if err != nil {
		return err
	}
	defer builder.Close()

	filter := extensionFilter(*exts)
	for _, n := range names {
		if filter != nil && !filter[asset.Ext(n)] {
			log.WithField("file", n).Debug("skipped")
			continue
		}
		if err := addFile(builder, dir, n); err != nil {
			return err
		}
		log.WithField("file", n).Info("added")
	}

	dst, err := os.Create(dstPath)
	if err != nil {
		return err
	}
	written, err := builder.WriteTo(dst)
	if err != nil {
		dst.Close()
		return err
	}
	log.WithFields(log.Fields{"archive": dstPath, "bytes": written}).Info("archive written")
	return dst.Close()
}

func addFile(builder *kar.Builder, dir, name string) error {
	f, err := os.Open(filepath.Join(dir, filepath.FromSlash(name)))
	if err != nil {
		return err
	}
	defer f.Close()
	return builder.Add(name, f)
}

func extractFiles(archive, dst string) error {
	ar, err := kar.OpenFile(archive)
	if err != nil {
		return err
	}
	defer ar.Close()
	if err := ar.Extract(dst); err != nil {
		return err
	}
	log.WithFields(log.Fields{"archive": archive, "files": len(ar.Header().Index), "target": dst}).Info("extracted")
	return nil
}

func listFiles(archive string) error {
	ar, err := kar.OpenFile(archive)
	if err != nil {
		return err
	}
	defer ar.Close()

	h := ar.Header()
	fmt.Printf("author: %s, version: %d, created: %s\n", h.Author, h.Version, time.Unix(h.DateCreated, 0).Format(time.RFC3339))
	for _, e := range h.Index {
		fmt.Printf("%10d %10d %s\n", e.Size, e.CompressedSize, e.Name)
	}
	return nil
}
