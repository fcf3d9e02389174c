package pretty

import (
	"path"
	"slices"
	"strings"

	"golang.org/x/text/collate"

	"ebpretty/tree"
)

// Media types of interest when grouping manifest items.
const (
	MediaTypeXHTML = "application/xhtml+xml"
	MediaTypeHTML  = "text/html"
	MediaTypeNCX   = "application/x-dtbncx+xml"
	MediaTypeCSS   = "text/css"
	MediaTypeOPF   = "application/oebps-package+xml"
	MediaTypeXML   = "application/xml"
)

var (
	docMediaTypes = map[string]bool{
		MediaTypeXHTML:             true,
		MediaTypeHTML:              true,
		"text/x-oeb1-document":     true,
		"application/x-dtbook+xml": true,
	}
	styleMediaTypes = map[string]bool{
		MediaTypeCSS:      true,
		"text/x-oeb1-css": true,
		"text/x-oeb-css":  true,
	}
	fontExtensions = map[string]bool{"otf": true, "ttf": true, "woff": true}
)

// IsDocument reports whether media type denotes content document.
func IsDocument(mt string) bool {
	return docMediaTypes[mt]
}

// IsStyle reports whether media type denotes stylesheet.
func IsStyle(mt string) bool {
	return styleMediaTypes[mt]
}

const notInSpine = 1000000000

// Manifest item groups in canonical order.
const (
	groupDocument = 0
	groupNCX      = 1
	groupStyle    = 2
	groupImage    = 3
	groupFont     = 4
	groupAudio    = 5
	groupVideo    = 6
	groupOther    = 1000
)

func manifestGroup(item *tree.Node) int {
	if item.Kind != tree.KindElement {
		return groupOther
	}
	mt := item.Get("media-type")
	ext := strings.ToLower(strings.TrimPrefix(path.Ext(item.Get("href")), "."))
	switch {
	case docMediaTypes[mt]:
		return groupDocument
	case mt == MediaTypeNCX:
		return groupNCX
	case styleMediaTypes[mt]:
		return groupStyle
	case strings.HasPrefix(mt, "image/"):
		return groupImage
	case fontExtensions[ext]:
		return groupFont
	case strings.HasPrefix(mt, "audio/"):
		return groupAudio
	case strings.HasPrefix(mt, "video/"):
		return groupVideo
	}
	return groupOther
}

func metadataKey(n *tree.Node) int {
	switch n.Name.Local {
	case "title":
		return 0
	case "creator":
		return 1
	}
	return 2
}

// CanonicalizeOPF puts Dublin Core metadata first (title, then creator, then
// the rest in original order) and groups manifest items by kind. Content
// documents follow spine order, other items are ordered by href using
// collator.
func CanonicalizeOPF(root *tree.Node, col *collate.Collator) {
	for _, md := range tree.FindAll(root, tree.NSOPF, "metadata") {
		var dc, rest []*tree.Node
		for _, c := range md.Children {
			if c.Kind == tree.KindElement && c.Name.Space == tree.NSDC {
				dc = append(dc, c)
			} else {
				rest = append(rest, c)
			}
		}
		slices.SortStableFunc(dc, func(a, b *tree.Node) int {
			return metadataKey(a) - metadataKey(b)
		})
		md.Children = append(dc, rest...)
	}

	spine := make(map[string]int)
	pos := 0
	for _, s := range tree.FindAll(root, tree.NSOPF, "spine") {
		for _, ref := range s.Children {
			if !ref.IsElement(tree.NSOPF, "itemref") {
				continue
			}
			if id, ok := ref.Lookup("idref"); ok {
				// duplicated references keep the last position
				spine[id] = pos
				pos++
			}
		}
	}
	spinePos := func(item *tree.Node) int {
		if id, ok := item.Lookup("id"); ok {
			if i, ok := spine[id]; ok {
				return i
			}
		}
		return notInSpine
	}

	for _, mf := range tree.FindAll(root, tree.NSOPF, "manifest") {
		items := slices.Clone(mf.Children)
		slices.SortStableFunc(items, func(a, b *tree.Node) int {
			ga, gb := manifestGroup(a), manifestGroup(b)
			if ga != gb {
				return ga - gb
			}
			if ga == groupDocument {
				return spinePos(a) - spinePos(b)
			}
			return col.CompareString(a.Get("href"), b.Get("href"))
		})
		mf.Children = items
	}
}
