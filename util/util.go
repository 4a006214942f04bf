// Package util is a set of utility variables or methods
package util

import (
	"path/filepath"
	"strings"

	mapset "github.com/deckarep/golang-set/v2"
)

// SupportedExt holds lower case photo extensions the frame will show.
var SupportedExt = mapset.NewSet(
	".jpeg", ".jpg",
	".png",
	".gif",
	".webp",
	".heic",
)

// IsSupported reports whether name has a supported photo extension, ignoring case.
func IsSupported(name string) bool {
	return SupportedExt.Contains(strings.ToLower(filepath.Ext(name)))
}
