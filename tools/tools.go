//go:build tools

// Package tools pins code generators used by go:generate directives.
// The client in api/client is generated from api/openapi.yaml (see api/generate.go).
package tools

import (
	_ "github.com/oapi-codegen/oapi-codegen/v2/cmd/oapi-codegen"
)
