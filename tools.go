//go:build tools

package tools

// This file tracks versions of CLI tool dependencies.
// It is not compiled into the binary.
//
// Tools are declared with the go.mod tool directive:
// - github.com/pressly/goose/v3/cmd/goose (ad-hoc migrations; `ingest migrate` applies them in-process)
//
// Mocks in *_test.go files are hand-written in the moq style (func fields
// plus call recording), so moq itself is not pinned.
