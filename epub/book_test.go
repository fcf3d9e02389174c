package epub

import (
	"archive/zip"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap/zaptest"

	"ebpretty/config"
	"ebpretty/pretty"
)

const (
	testContainer = `<?xml version="1.0" encoding="UTF-8"?>
<container version="1.0" xmlns="urn:oasis:names:tc:opendocument:xmlns:container"><rootfiles><rootfile full-path="OEBPS/content.opf" media-type="application/oebps-package+xml"/></rootfiles></container>`

	testOPF = `<?xml version="1.0" encoding="utf-8"?>
<package xmlns="http://www.idpf.org/2007/opf" version="2.0" unique-identifier="id"><metadata xmlns:dc="http://purl.org/dc/elements/1.1/"><dc:identifier id="id">x</dc:identifier><dc:title>Book</dc:title></metadata><manifest><item id="css" href="style.css" media-type="text/css"/><item id="c1" href="Text/chapter%201.xhtml" media-type="application/xhtml+xml"/></manifest><spine><itemref idref="c1"/></spine></package>`

	testChapter = `<?xml version="1.0" encoding="utf-8"?>
<html xmlns="http://www.w3.org/1999/xhtml"><head><title>T</title></head><body><p>One</p><p>Two</p></body></html>`

	testStyle = `p{color:red}`
)

var pngHeader = []byte{0x89, 'P', 'N', 'G', 0x0d, 0x0a, 0x1a, 0x0a, 0, 0, 0, 0x0d, 'I', 'H', 'D', 'R'}

func makeBook(t *testing.T, extra map[string][]byte) string {
	t.Helper()

	file := filepath.Join(t.TempDir(), "book.epub")
	out, err := os.Create(file)
	if err != nil {
		t.Fatalf("failed to create book: %v", err)
	}
	defer out.Close()

	zw := zip.NewWriter(out)
	add := func(name string, data []byte, method uint16) {
		w, err := zw.CreateHeader(&zip.FileHeader{Name: name, Method: method})
		if err != nil {
			t.Fatalf("failed to add %s: %v", name, err)
		}
		if _, err := w.Write(data); err != nil {
			t.Fatalf("failed to write %s: %v", name, err)
		}
	}
	add("mimetype", []byte(mimetypeContent), zip.Store)
	add("META-INF/container.xml", []byte(testContainer), zip.Deflate)
	add("OEBPS/content.opf", []byte(testOPF), zip.Deflate)
	add("OEBPS/Text/chapter 1.xhtml", []byte(testChapter), zip.Deflate)
	add("OEBPS/style.css", []byte(testStyle), zip.Deflate)
	for name, data := range extra {
		add(name, data, zip.Deflate)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("failed to close book: %v", err)
	}
	return file
}

func readZip(t *testing.T, file string) ([]*zip.File, map[string]string) {
	t.Helper()

	zr, err := zip.OpenReader(file)
	if err != nil {
		t.Fatalf("unable to open %s: %v", file, err)
	}
	t.Cleanup(func() { zr.Close() })

	content := make(map[string]string)
	for _, f := range zr.File {
		rc, err := f.Open()
		if err != nil {
			t.Fatalf("unable to open %s: %v", f.Name, err)
		}
		data, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			t.Fatalf("unable to read %s: %v", f.Name, err)
		}
		content[f.Name] = string(data)
	}
	return zr.File, content
}

func newPrinter(t *testing.T) *pretty.Printer {
	t.Helper()

	p, err := pretty.NewPrinter(&config.DocumentConfig{
		Indent:     "  ",
		SortLocale: "und",
		Documents:  config.DocumentsConfig{Content: true, Styles: true, Package: true, XML: true},
	}, zaptest.NewLogger(t))
	if err != nil {
		t.Fatalf("NewPrinter() error = %v", err)
	}
	return p
}

func TestOpen(t *testing.T) {
	file := makeBook(t, map[string][]byte{
		"OEBPS/blob":       pngHeader,
		"OEBPS/extra.ncx":  []byte("<ncx/>"),
		"OEBPS/notes.html": []byte("<p>x</p>"),
	})

	b, err := Open(file, zaptest.NewLogger(t))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if b.OPFName() != "OEBPS/content.opf" {
		t.Errorf("OPFName() = %s", b.OPFName())
	}
	if b.Path() != file {
		t.Errorf("Path() = %s, want %s", b.Path(), file)
	}

	tests := []struct {
		name string
		want string
	}{
		{"OEBPS/content.opf", pretty.MediaTypeOPF},
		{"OEBPS/Text/chapter 1.xhtml", pretty.MediaTypeXHTML},
		{"OEBPS/style.css", pretty.MediaTypeCSS},
		{"META-INF/container.xml", pretty.MediaTypeXML},
		{"OEBPS/extra.ncx", pretty.MediaTypeNCX},
		{"OEBPS/notes.html", pretty.MediaTypeHTML},
		{"OEBPS/blob", "image/png"},
		{"mimetype", mediaTypeOctetStream},
		{"absent", ""},
	}
	for _, tt := range tests {
		if got := b.MediaType(tt.name); got != tt.want {
			t.Errorf("MediaType(%s) = %q, want %q", tt.name, got, tt.want)
		}
	}

	names := b.Names()
	if len(names) != 8 || names[0] != "mimetype" {
		t.Errorf("Names() = %v", names)
	}
	names[0] = "changed"
	if b.Names()[0] != "mimetype" {
		t.Error("Names() must return a copy")
	}
}

func TestOpen_Errors(t *testing.T) {
	t.Run("not an archive", func(t *testing.T) {
		file := filepath.Join(t.TempDir(), "bad.epub")
		if err := os.WriteFile(file, []byte("nope"), 0644); err != nil {
			t.Fatal(err)
		}
		if _, err := Open(file, zaptest.NewLogger(t)); err == nil {
			t.Error("expected error")
		}
	})

	t.Run("no container", func(t *testing.T) {
		file := filepath.Join(t.TempDir(), "empty.epub")
		out, err := os.Create(file)
		if err != nil {
			t.Fatal(err)
		}
		zw := zip.NewWriter(out)
		w, _ := zw.Create("mimetype")
		w.Write([]byte(mimetypeContent))
		zw.Close()
		out.Close()

		_, err = Open(file, zaptest.NewLogger(t))
		if err == nil || !strings.Contains(err.Error(), containerName) {
			t.Errorf("Open() error = %v, want missing container", err)
		}
	})
}

func TestParsedTree_Cached(t *testing.T) {
	b, err := Open(makeBook(t, nil), zaptest.NewLogger(t))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}

	t1, err := b.ParsedTree("OEBPS/Text/chapter 1.xhtml")
	if err != nil {
		t.Fatalf("ParsedTree() error = %v", err)
	}
	t2, _ := b.ParsedTree("OEBPS/Text/chapter 1.xhtml")
	if t1 != t2 {
		t.Error("ParsedTree() should return cached tree")
	}

	s1, err := b.ParsedStylesheet("OEBPS/style.css")
	if err != nil {
		t.Fatalf("ParsedStylesheet() error = %v", err)
	}
	s2, _ := b.ParsedStylesheet("OEBPS/style.css")
	if s1 != s2 {
		t.Error("ParsedStylesheet() should return cached stylesheet")
	}

	if _, err := b.ParsedTree("absent.xhtml"); err == nil {
		t.Error("expected error for unknown name")
	}
}

func TestRaw_CleanIsVerbatim(t *testing.T) {
	b, err := Open(makeBook(t, nil), zaptest.NewLogger(t))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	// parsing alone does not change anything
	if _, err := b.ParsedTree("OEBPS/Text/chapter 1.xhtml"); err != nil {
		t.Fatal(err)
	}
	data, err := b.Raw("OEBPS/Text/chapter 1.xhtml")
	if err != nil {
		t.Fatalf("Raw() error = %v", err)
	}
	if string(data) != testChapter {
		t.Errorf("Raw() = %q, want original", data)
	}
	b.Dirty("absent")
	if len(b.DirtyNames()) != 0 {
		t.Errorf("DirtyNames() = %v, want none", b.DirtyNames())
	}
}

func TestCommit(t *testing.T) {
	tests := []struct {
		name   string
		fixZip bool
	}{
		{"plain", false},
		{"without data descriptors", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := makeBook(t, map[string][]byte{"OEBPS/image.png": pngHeader})
			b, err := Open(src, zaptest.NewLogger(t))
			if err != nil {
				t.Fatalf("Open() error = %v", err)
			}
			if err := newPrinter(t).All(context.Background(), b); err != nil {
				t.Fatalf("All() error = %v", err)
			}
			if !b.IsDirty("OEBPS/Text/chapter 1.xhtml") || !b.IsDirty("OEBPS/style.css") || !b.IsDirty(b.OPFName()) {
				t.Fatalf("documents are not marked dirty: %v", b.DirtyNames())
			}
			if b.IsDirty("OEBPS/image.png") {
				t.Error("image must not be touched")
			}

			dst := filepath.Join(t.TempDir(), "out.epub")
			if err := b.Commit(dst, tt.fixZip); err != nil {
				t.Fatalf("Commit() error = %v", err)
			}

			files, content := readZip(t, dst)
			if files[0].Name != "mimetype" || files[0].Method != zip.Store {
				t.Errorf("first entry = %s (method %d), want stored mimetype", files[0].Name, files[0].Method)
			}
			if content["mimetype"] != mimetypeContent {
				t.Errorf("mimetype = %q", content["mimetype"])
			}
			if len(files) != 6 {
				t.Errorf("archive has %d entries, want 6", len(files))
			}
			if tt.fixZip {
				for _, f := range files {
					if f.Flags&0x8 != 0 {
						t.Errorf("%s still has data descriptor", f.Name)
					}
				}
			}

			chapter := content["OEBPS/Text/chapter 1.xhtml"]
			if !strings.Contains(chapter, "<body>\n\n  <p>One</p>\n\n  <p>Two</p>\n\n</body>") {
				t.Errorf("chapter is not indented:\n%s", chapter)
			}
			if got := content["OEBPS/style.css"]; got != "p {\n  color: red;\n}\n" {
				t.Errorf("stylesheet = %q", got)
			}
			if !strings.Contains(content["OEBPS/content.opf"], "\n  <metadata") {
				t.Errorf("package document is not indented:\n%s", content["OEBPS/content.opf"])
			}
			if content["OEBPS/image.png"] != string(pngHeader) {
				t.Error("image content changed")
			}

			leftovers, _ := filepath.Glob(filepath.Join(filepath.Dir(dst), ".ebpretty-*"))
			if len(leftovers) != 0 {
				t.Errorf("temporary files left behind: %v", leftovers)
			}
		})
	}
}

func TestCommit_InPlace(t *testing.T) {
	src := makeBook(t, nil)
	b, err := Open(src, zaptest.NewLogger(t))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if err := newPrinter(t).All(context.Background(), b); err != nil {
		t.Fatalf("All() error = %v", err)
	}
	if err := b.Commit(src, false); err != nil {
		t.Fatalf("Commit() error = %v", err)
	}

	again, err := Open(src, zaptest.NewLogger(t))
	if err != nil {
		t.Fatalf("re-Open() error = %v", err)
	}
	first, _ := again.Raw("OEBPS/Text/chapter 1.xhtml")

	// second pass produces the same bytes
	if err := newPrinter(t).All(context.Background(), again); err != nil {
		t.Fatalf("All() error = %v", err)
	}
	second, _ := again.Raw("OEBPS/Text/chapter 1.xhtml")
	if string(first) != string(second) {
		t.Errorf("pretty printing is not idempotent:\n%s\n---\n%s", first, second)
	}
}

func TestGuessType(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		want string
	}{
		{"a.XHTML", nil, pretty.MediaTypeXHTML},
		{"b.Css", nil, pretty.MediaTypeCSS},
		{"font.woff2", nil, "font/woff2"},
		{"noext", pngHeader, "image/png"},
		{"noext", []byte("plain"), mediaTypeOctetStream},
	}
	for _, tt := range tests {
		if got := GuessType(tt.name, tt.data); got != tt.want {
			t.Errorf("GuessType(%s) = %q, want %q", tt.name, got, tt.want)
		}
	}
}
