// Package epub keeps book archive in memory, gives access to parsed
// documents and writes changed documents back.
package epub

import (
	"bytes"
	"fmt"
	"net/url"
	"path"
	"slices"
	"strings"

	"github.com/beevik/etree"
	"go.uber.org/zap"

	"ebpretty/archive"
	"ebpretty/css"
	"ebpretty/pretty"
	"ebpretty/tree"
)

const (
	containerName   = "META-INF/container.xml"
	mimetypeName    = "mimetype"
	mimetypeContent = "application/epub+zip"
)

// Book is loaded epub archive.
type Book struct {
	path    string
	entries []archive.Entry
	index   map[string]int
	types   map[string]string
	opf     string
	trees   map[string]*tree.Tree
	sheets  map[string]*css.Stylesheet
	dirty   map[string]bool
	indent  string
	parser  *css.Parser
	log     *zap.Logger
}

// Open reads book archive, locates package document and classifies all
// entries.
func Open(file string, log *zap.Logger) (*Book, error) {
	if log == nil {
		log = zap.NewNop()
	}
	entries, err := archive.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("unable to read book archive (%s): %w", file, err)
	}

	b := &Book{
		path:    file,
		entries: entries,
		index:   make(map[string]int, len(entries)),
		types:   make(map[string]string, len(entries)),
		trees:   make(map[string]*tree.Tree),
		sheets:  make(map[string]*css.Stylesheet),
		dirty:   make(map[string]bool),
		indent:  css.DefaultIndent,
		parser:  css.NewParser(log),
		log:     log.Named("epub"),
	}
	for i, e := range entries {
		b.index[e.Header.Name] = i
	}

	if b.opf, err = b.findPackage(); err != nil {
		return nil, err
	}
	b.types[b.opf] = pretty.MediaTypeOPF

	if err := b.readManifest(); err != nil {
		return nil, err
	}
	for _, e := range entries {
		if _, ok := b.types[e.Header.Name]; !ok {
			b.types[e.Header.Name] = GuessType(e.Header.Name, e.Data)
		}
	}
	b.log.Debug("Book loaded", zap.String("file", file), zap.String("opf", b.opf), zap.Int("entries", len(entries)))
	return b, nil
}

// WithIndent sets indentation used when changed stylesheets are serialized.
func (b *Book) WithIndent(indent string) *Book {
	b.indent = indent
	return b
}

func (b *Book) findPackage() (string, error) {
	data, ok := b.data(containerName)
	if !ok {
		return "", fmt.Errorf("%s is missing", containerName)
	}
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(data); err != nil {
		return "", fmt.Errorf("unable to parse %s: %w", containerName, err)
	}
	for _, rf := range doc.FindElements("//rootfile") {
		if mt := rf.SelectAttrValue("media-type", ""); mt != "" && mt != pretty.MediaTypeOPF {
			continue
		}
		name := rf.SelectAttrValue("full-path", "")
		if _, ok := b.index[name]; ok {
			return name, nil
		}
	}
	return "", fmt.Errorf("package document is not found in %s", containerName)
}

func (b *Book) readManifest() error {
	t, err := b.ParsedTree(b.opf)
	if err != nil {
		return fmt.Errorf("unable to parse package document (%s): %w", b.opf, err)
	}
	dir := path.Dir(b.opf)
	for _, item := range tree.FindAll(t.Root, tree.NSOPF, "item") {
		href, mt := item.Get("href"), item.Get("media-type")
		if href == "" || mt == "" {
			continue
		}
		href, _, _ = strings.Cut(href, "#")
		if unescaped, err := url.PathUnescape(href); err == nil {
			href = unescaped
		}
		name := path.Join(dir, href)
		if _, ok := b.index[name]; !ok {
			b.log.Debug("Manifest item is not in archive", zap.String("href", href))
			continue
		}
		b.types[name] = mt
	}
	return nil
}

func (b *Book) data(name string) ([]byte, bool) {
	i, ok := b.index[name]
	if !ok {
		return nil, false
	}
	return b.entries[i].Data, true
}

// Path returns location of the archive book was loaded from.
func (b *Book) Path() string {
	return b.path
}

// Names returns names of all files in archive order.
func (b *Book) Names() []string {
	names := make([]string, 0, len(b.entries))
	for _, e := range b.entries {
		names = append(names, e.Header.Name)
	}
	return names
}

// MediaType returns media type of the file, empty for unknown names.
func (b *Book) MediaType(name string) string {
	return b.types[name]
}

// OPFName returns name of the package document.
func (b *Book) OPFName() string {
	return b.opf
}

// ParsedTree returns parsed XML or content document. Result is cached,
// changes made to it are written by Commit for dirty documents.
func (b *Book) ParsedTree(name string) (*tree.Tree, error) {
	if t, ok := b.trees[name]; ok {
		return t, nil
	}
	data, ok := b.data(name)
	if !ok {
		return nil, fmt.Errorf("no such file in book: %s", name)
	}

	var (
		t   *tree.Tree
		err error
	)
	if pretty.IsDocument(b.types[name]) {
		var soup bool
		if t, soup, err = tree.ParseHTML(data); soup {
			b.log.Debug("Content document is not well formed XML, parsed as HTML", zap.String("name", name))
		}
	} else {
		t, err = tree.ParseXML(data)
	}
	if err != nil {
		return nil, err
	}
	b.trees[name] = t
	return t, nil
}

// ParsedStylesheet returns parsed stylesheet, result is cached.
func (b *Book) ParsedStylesheet(name string) (*css.Stylesheet, error) {
	if s, ok := b.sheets[name]; ok {
		return s, nil
	}
	data, ok := b.data(name)
	if !ok {
		return nil, fmt.Errorf("no such file in book: %s", name)
	}
	s, err := b.parser.Parse(data, name)
	if err != nil {
		return nil, err
	}
	b.sheets[name] = s
	return s, nil
}

// Dirty marks file as changed.
func (b *Book) Dirty(name string) {
	if _, ok := b.index[name]; ok {
		b.dirty[name] = true
	}
}

// IsDirty reports whether file was marked changed.
func (b *Book) IsDirty(name string) bool {
	return b.dirty[name]
}

// Raw returns current content of the file: serialized parsed form for dirty
// files, archive data otherwise.
func (b *Book) Raw(name string) ([]byte, error) {
	data, ok := b.data(name)
	if !ok {
		return nil, fmt.Errorf("no such file in book: %s", name)
	}
	if !b.IsDirty(name) {
		return data, nil
	}
	if s, ok := b.sheets[name]; ok {
		var buf bytes.Buffer
		if _, err := s.Write(&buf, b.indent); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	}
	if t, ok := b.trees[name]; ok {
		return t.Bytes(pretty.IsDocument(b.types[name]))
	}
	return data, nil
}

// DirtyNames returns names of changed files in archive order.
func (b *Book) DirtyNames() []string {
	return slices.DeleteFunc(b.Names(), func(name string) bool { return !b.IsDirty(name) })
}
