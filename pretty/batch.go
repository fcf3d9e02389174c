package pretty

import (
	"context"
	"fmt"
	"sort"

	"github.com/maruel/natural"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"ebpretty/css"
	"ebpretty/tree"
)

// Container is collection of book documents.
type Container interface {
	Names() []string
	MediaType(name string) string
	OPFName() string
	ParsedTree(name string) (*tree.Tree, error)
	ParsedStylesheet(name string) (*css.Stylesheet, error)
	Dirty(name string)
}

// All pretty-prints every document of the container it knows how to handle
// and marks it dirty. Failures are collected, processing continues with the
// next document.
func (p *Printer) All(ctx context.Context, c Container) error {
	names := c.Names()
	sort.Sort(natural.StringSlice(names))

	var errs error
	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return multierr.Append(errs, err)
		}
		done, err := p.one(c, name)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("unable to pretty print %s: %w", name, err))
			continue
		}
		if done {
			c.Dirty(name)
			p.log.Debug("Pretty printed", zap.String("name", name), zap.String("media-type", c.MediaType(name)))
		}
	}
	return errs
}

// FixAll parses every content document of the container and marks it dirty
// without pretty-printing, so the documents are re-serialized as well formed
// XHTML. Toggles are not consulted.
func (p *Printer) FixAll(ctx context.Context, c Container) error {
	names := c.Names()
	sort.Sort(natural.StringSlice(names))

	var errs error
	for _, name := range names {
		if !IsDocument(c.MediaType(name)) {
			continue
		}
		if err := ctx.Err(); err != nil {
			return multierr.Append(errs, err)
		}
		if _, err := c.ParsedTree(name); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("unable to fix %s: %w", name, err))
			continue
		}
		c.Dirty(name)
		p.log.Debug("Fixed", zap.String("name", name))
	}
	return errs
}

func (p *Printer) one(c Container, name string) (bool, error) {
	mt := c.MediaType(name)
	switch {
	case IsDocument(mt):
		if !p.kinds.Content {
			return false, nil
		}
		return p.withTree(c, name, p.HTMLTree)
	case IsStyle(mt):
		if !p.kinds.Styles {
			return false, nil
		}
		// serialization of parsed stylesheet is pretty already
		if _, err := c.ParsedStylesheet(name); err != nil {
			return false, err
		}
		return true, nil
	case name == c.OPFName():
		if !p.kinds.Package {
			return false, nil
		}
		return p.withTree(c, name, func(t *tree.Tree) { p.XMLTree(t, true) })
	case mt == MediaTypeNCX || mt == MediaTypeXML:
		if !p.kinds.XML {
			return false, nil
		}
		return p.withTree(c, name, func(t *tree.Tree) { p.XMLTree(t, false) })
	}
	return false, nil
}

func (p *Printer) withTree(c Container, name string, fn func(*tree.Tree)) (bool, error) {
	t, err := c.ParsedTree(name)
	if err != nil {
		return false, err
	}
	if p.rpt != nil {
		p.rpt.StoreData("trees/"+name+".before.txt", []byte(tree.Dump(t)))
	}
	fn(t)
	if p.rpt != nil {
		p.rpt.StoreData("trees/"+name+".after.txt", []byte(tree.Dump(t)))
	}
	return true, nil
}
