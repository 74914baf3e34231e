package fsm

import _ "embed"

// Version is the release of the fsm module, embedded from the VERSION file.
//
//go:embed VERSION
var Version string
