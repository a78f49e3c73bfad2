// Package configs provides the embedded configuration template for
// htmlstore.
//
// The template is embedded at build time with go:embed so it ships in
// every distribution. It is written out by `htmlstore config init`.
package configs

import _ "embed"

// ProjectConfigTemplate is the template for .htmlstore.yaml.
//
//go:embed htmlstore.example.yaml
var ProjectConfigTemplate string
