package process

import (
	"path/filepath"
	"strings"
)

type kind int

const (
	kindUnknown kind = iota
	kindPackage
	kindXML
	kindContent
	kindStyle
)

func isBookFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".epub", ".kepub":
		return true
	}
	return false
}

func documentKind(path string) kind {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".opf":
		return kindPackage
	case ".ncx", ".xml":
		return kindXML
	case ".xhtml", ".html", ".htm":
		return kindContent
	case ".css":
		return kindStyle
	}
	return kindUnknown
}
