// Package archive builds Walk abstraction on top of "archive/zip".
package archive

import (
	"archive/zip"
	"fmt"
	"io"
	"path"
	"strings"
)

// WalkFunc is the type of the function called for each file in archive
// visited by Walk. The archive argument contains path to archive passed to Walk
// The file argument is the zip.File structure for file in archive which satisfies
// match condition. If an error is returned, processing stops.
type WalkFunc func(archive string, file *zip.File) error

// Walk walks the all files in the archive which names start with prefix,
// calling walkFn for each item in archive order. Entries with path traversal
// components ("..") or absolute paths stop the walk to prevent Zip Slip
// attacks.
func Walk(archive, prefix string, walkFn WalkFunc) error {

	r, err := zip.OpenReader(archive)
	if err != nil {
		return err
	}
	defer r.Close()

	for _, f := range r.File {
		name := f.FileHeader.Name
		if !isSafePath(name) {
			return fmt.Errorf("zip entry %q: unsafe path (absolute or contains path traversal)", name)
		}
		if !f.FileInfo().IsDir() && strings.HasPrefix(name, prefix) {
			if err := walkFn(archive, f); err != nil {
				return err
			}
		}
	}
	return nil
}

// Entry is a file loaded from archive.
type Entry struct {
	Header zip.FileHeader
	Data   []byte
}

// ReadAll loads every file of the archive into memory keeping archive order.
func ReadAll(archive string) ([]Entry, error) {
	var entries []Entry
	err := Walk(archive, "", func(_ string, f *zip.File) error {
		rc, err := f.Open()
		if err != nil {
			return fmt.Errorf("unable to open %s: %w", f.Name, err)
		}
		defer rc.Close()

		data, err := io.ReadAll(rc)
		if err != nil {
			return fmt.Errorf("unable to read %s: %w", f.Name, err)
		}
		entries = append(entries, Entry{Header: f.FileHeader, Data: data})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return entries, nil
}

// isSafePath returns false for paths that could escape the extraction
// directory: absolute paths and those containing ".." components.
func isSafePath(name string) bool {
	if path.IsAbs(name) || strings.HasPrefix(name, `\`) {
		return false
	}
	for part := range strings.SplitSeq(name, "/") {
		if part == ".." {
			return false
		}
	}
	return true
}
