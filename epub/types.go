package epub

import (
	"path"
	"strings"

	"github.com/h2non/filetype"

	"ebpretty/pretty"
)

const mediaTypeOctetStream = "application/octet-stream"

var extensionTypes = map[string]string{
	".xhtml": pretty.MediaTypeXHTML,
	".xht":   pretty.MediaTypeXHTML,
	".html":  pretty.MediaTypeHTML,
	".htm":   pretty.MediaTypeHTML,
	".css":   pretty.MediaTypeCSS,
	".ncx":   pretty.MediaTypeNCX,
	".opf":   pretty.MediaTypeOPF,
	".xml":   pretty.MediaTypeXML,
	".svg":   "image/svg+xml",
	".jpg":   "image/jpeg",
	".jpeg":  "image/jpeg",
	".png":   "image/png",
	".gif":   "image/gif",
	".webp":  "image/webp",
	".otf":   "font/otf",
	".ttf":   "font/ttf",
	".woff":  "font/woff",
	".woff2": "font/woff2",
	".mp3":   "audio/mpeg",
	".js":    "application/javascript",
	".txt":   "text/plain",
}

// GuessType classifies archive entry which is not listed in the manifest.
// Extension is consulted first, then the content is sniffed.
func GuessType(name string, data []byte) string {
	if mt, ok := extensionTypes[strings.ToLower(path.Ext(name))]; ok {
		return mt
	}
	kind, err := filetype.Match(data)
	if err != nil || kind == filetype.Unknown {
		return mediaTypeOctetStream
	}
	return kind.MIME.Value
}
