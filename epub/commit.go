package epub

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path/filepath"

	fixzip "github.com/hidez8891/zip"
	"go.uber.org/zap"
)

// Commit writes book archive to dst. Mimetype goes first and is stored
// uncompressed, dirty files are serialized, everything else is copied as is.
// Archive is assembled in a temporary file next to dst and moved in place, so
// dst may be the file book was loaded from. When fixZip is set data
// descriptors are removed from the result, some readers cannot handle them.
func (b *Book) Commit(dst string, fixZip bool) (err error) {
	tmp, err := os.CreateTemp(filepath.Dir(dst), ".ebpretty-*.tmp")
	if err != nil {
		return fmt.Errorf("unable to create temporary file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() {
		if err != nil {
			os.Remove(tmpName)
		}
	}()

	if err = b.write(tmp); err != nil {
		tmp.Close()
		return fmt.Errorf("unable to write book archive: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("unable to close temporary file: %w", err)
	}

	if fixZip {
		fixed := tmpName + ".fix"
		if err = copyZipWithoutDataDescriptors(tmpName, fixed); err != nil {
			os.Remove(fixed)
			return err
		}
		os.Remove(tmpName)
		tmpName = fixed
	}

	if err = os.Rename(tmpName, dst); err != nil {
		return fmt.Errorf("unable to move result in place (%s): %w", dst, err)
	}
	b.log.Debug("Book written", zap.String("from", b.Path()), zap.String("file", dst), zap.Int("changed", len(b.DirtyNames())), zap.Bool("fix-zip", fixZip))
	return nil
}

func (b *Book) write(out io.Writer) error {
	zw := zip.NewWriter(out)

	mimetype := []byte(mimetypeContent)
	if data, ok := b.data(mimetypeName); ok {
		mimetype = data
	}
	if err := writeStored(zw, mimetypeName, mimetype); err != nil {
		return err
	}

	for _, e := range b.entries {
		if e.Header.Name == mimetypeName {
			continue
		}
		data, err := b.Raw(e.Header.Name)
		if err != nil {
			return fmt.Errorf("unable to serialize %s: %w", e.Header.Name, err)
		}
		method := e.Header.Method
		if method != zip.Store {
			method = zip.Deflate
		}
		w, err := zw.CreateHeader(&zip.FileHeader{
			Name:     e.Header.Name,
			Comment:  e.Header.Comment,
			Method:   method,
			Modified: e.Header.Modified,
		})
		if err != nil {
			return err
		}
		if _, err := w.Write(data); err != nil {
			return err
		}
	}
	return zw.Close()
}

func writeStored(zw *zip.Writer, name string, data []byte) error {
	w, err := zw.CreateHeader(&zip.FileHeader{
		Name:   name,
		Method: zip.Store,
	})
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}

func copyZipWithoutDataDescriptors(from, to string) error {

	out, err := os.Create(to)
	if err != nil {
		return fmt.Errorf("unable to create target file (%s): %w", to, err)
	}
	defer out.Close()

	r, err := fixzip.OpenReader(from)
	if err != nil {
		return fmt.Errorf("unable to read archive file (%s): %w", from, err)
	}
	defer r.Close()

	w := fixzip.NewWriter(out)
	for _, file := range r.File {
		file.Flags &= ^fixzip.FlagDataDescriptor
		if err := w.CopyFile(file); err != nil {
			return fmt.Errorf("unable to write target file (%s): %w", to, err)
		}
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("unable to finish target file (%s): %w", to, err)
	}
	return out.Close()
}
