//go:build mage

// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

// Package main provides build targets for the data catalog using Mage.
//
// Usage:
//
//	mage build          Compile the catalog binary to bin/
//	mage install        Install catalog to GOPATH/bin
//	mage clean          Remove build artifacts
//	mage test:all       Run every test
//	mage test:race      Run every test with the race detector
//	mage test:cover     Write coverage to bin/coverage.out
//	mage lint           Run golangci-lint
//	mage stats          Print Go line counts per package
package main

// Default target when mage runs without arguments.
var Default = Build
