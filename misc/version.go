// Package misc keeps build time information.
package misc

import (
	"os"
	"path/filepath"
	"strings"
)

// set by linker: -X ebpretty/misc.version=... -X ebpretty/misc.gitHash=...
var (
	version = "dev"
	gitHash = "unknown"
)

func GetVersion() string {
	return version
}

func GetGitHash() string {
	return gitHash
}

// GetAppName returns executable name without extension.
func GetAppName() string {
	name := filepath.Base(os.Args[0])
	if name == "" || name == "." {
		return "ebpretty"
	}
	return strings.TrimSuffix(name, filepath.Ext(name))
}
