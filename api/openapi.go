// Package api holds the published HTTP API description.
package api

import _ "embed"

// Spec is the OpenAPI document served at /api/docs/openapi.yaml.
//
//go:embed openapi.yaml
var Spec []byte
