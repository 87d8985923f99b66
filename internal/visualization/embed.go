package visualization

import "embed"

// templates contains the embedded HTML report templates.
//
//go:embed templates/*
var templates embed.FS
