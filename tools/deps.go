//go:build tools

package tools

import (
	// Used by //internal/mock:generate.go.
	_ "go.uber.org/mock/mockgen"
)
