package pretty

import (
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"ebpretty/config"
	"ebpretty/css"
	"ebpretty/tree"
)

// Printer pretty-prints book documents.
type Printer struct {
	indent string
	lang   language.Tag
	kinds  config.DocumentsConfig
	css    *css.Parser
	rpt    *config.Report
	log    *zap.Logger
}

// NewPrinter creates printer from document configuration.
func NewPrinter(cfg *config.DocumentConfig, log *zap.Logger) (*Printer, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if !IsSpace(cfg.Indent) {
		return nil, fmt.Errorf("indent must consist of whitespace only: %q", cfg.Indent)
	}
	lang, err := language.Parse(cfg.SortLocale)
	if err != nil {
		return nil, fmt.Errorf("bad sort locale %q: %w", cfg.SortLocale, err)
	}
	return &Printer{
		indent: cfg.Indent,
		lang:   lang,
		kinds:  cfg.Documents,
		css:    css.NewParser(log),
		log:    log.Named("pretty"),
	}, nil
}

// WithReport makes printer store tree dumps before and after processing in
// the debug report.
func (p *Printer) WithReport(rpt *config.Report) *Printer {
	p.rpt = rpt
	return p
}

// collator is created per use, collate.Collator is not safe for concurrent use.
func (p *Printer) collator() *collate.Collator {
	return collate.New(p.lang)
}

// XMLTree indents generic XML document, package document is canonicalized
// first.
func (p *Printer) XMLTree(t *tree.Tree, isPackage bool) {
	if isPackage {
		CanonicalizeOPF(t.Root, p.collator())
	}
	IndentXML(t.Root, 0, p.indent)
}

// HTMLTree indents content document: head as plain XML, body block aware,
// then script and style content.
func (p *Printer) HTMLTree(t *tree.Tree) {
	root := t.Root
	if IsSpace(root.Text) {
		root.Text = "\n\n"
	}
	for _, c := range root.Children {
		if IsSpace(c.Tail) {
			c.Tail = "\n\n"
		}
		if c.Kind == tree.KindElement && c.Name.Local == "head" {
			IndentXML(c, 0, p.indent)
		}
	}
	for _, body := range root.Children {
		if body.IsElement(tree.NSXHTML, "body") {
			IndentBlock(body, 1, p.indent)
		}
	}
	FixVerbatim(t, p.restyle)
}

func (p *Printer) restyle(text string) (string, error) {
	data, err := p.css.Pretty([]byte(text), p.indent)
	if err != nil {
		p.log.Debug("Unable to restyle embedded style sheet", zap.Error(err))
		return "", err
	}
	return string(data), nil
}

// XML parses, pretty-prints and serializes XML document.
func (p *Printer) XML(raw []byte, isPackage bool) ([]byte, error) {
	t, err := tree.ParseXML(raw)
	if err != nil {
		return nil, err
	}
	p.XMLTree(t, isPackage)
	return t.Bytes(false)
}

// HTML parses, pretty-prints and serializes content document.
func (p *Printer) HTML(raw []byte) ([]byte, error) {
	t, soup, err := tree.ParseHTML(raw)
	if err != nil {
		return nil, err
	}
	if soup {
		p.log.Debug("Content document is not well formed XML, parsed as HTML")
	}
	p.HTMLTree(t)
	return t.Bytes(true)
}

// FixHTML parses content document and serializes it back as is. Markup which
// is not well formed XML comes out corrected, layout is not touched.
func (p *Printer) FixHTML(raw []byte) ([]byte, error) {
	t, soup, err := tree.ParseHTML(raw)
	if err != nil {
		return nil, err
	}
	if soup {
		p.log.Debug("Content document is not well formed XML, parsed as HTML")
	}
	return t.Bytes(true)
}

// CSS pretty-prints stylesheet.
func (p *Printer) CSS(raw []byte) ([]byte, error) {
	return p.css.Pretty(raw, p.indent)
}
