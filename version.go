package loaves

import _ "embed"

// Version is the release of the storefront, embedded from the VERSION file.
//
//go:embed VERSION
var Version string
