//go:build tools
// +build tools

// Package tools documents development tool dependencies.
// These tools are installed via `go install` and are not runtime dependencies.
package tools

// Development tools (install via `go install`):
//
// mockgen - Generates gomock mocks for the core port interfaces
//   Install: go install go.uber.org/mock/mockgen@v0.6.0
//   Docs: https://github.com/uber-go/mock
