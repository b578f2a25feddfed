//go:build ignore
// +build ignore

/*
Copyright 2025 The Kubernetes Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

// verify-framework-imports checks that the buffer framework under pkg/seda/framework depends only on itself and the
// shared vocabulary in pkg/seda/types, so queue implementations never reach into the registry or the controllers.
//
//	go run hack/verify-framework-imports.go [--allow pkg/seda/metrics]
package main

import (
	"fmt"
	"go/parser"
	"go/token"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/spf13/pflag"
)

const (
	frameworkPath = "./pkg/seda/framework"
	repoModule    = "github.com/apache/camel-sub208"
)

var additionalAllowed []string

// allowedBasePaths are the in-module packages framework files may import.
var allowedBasePaths = []string{
	"pkg/seda/framework",
	"pkg/seda/types",
}

func init() {
	pflag.StringSliceVar(&additionalAllowed, "allow", []string{}, "Additional allowed import paths (can be specified multiple times)")
}

func main() {
	pflag.Parse()

	violations, err := findViolations(frameworkPath, append(slices.Clone(allowedBasePaths), additionalAllowed...))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if len(violations) > 0 {
		fmt.Printf("Found %d disallowed import(s) in %s:\n", len(violations), frameworkPath)
		for _, v := range violations {
			fmt.Printf("  %s\n", v)
		}
		os.Exit(1)
	}
	fmt.Printf("All imports in %s are allowed\n", frameworkPath)
}

type violation struct {
	filePath   string
	importPath string
}

func (v violation) String() string {
	return fmt.Sprintf("%s: imports %s", v.filePath, v.importPath)
}

func findViolations(root string, allowed []string) ([]violation, error) {
	var violations []violation
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(path, ".go") {
			return nil
		}

		node, err := parser.ParseFile(token.NewFileSet(), path, nil, parser.ImportsOnly)
		if err != nil {
			return fmt.Errorf("failed to parse %s: %w", path, err)
		}
		for _, imp := range node.Imports {
			importPath := strings.Trim(imp.Path.Value, `"`)
			if !strings.HasPrefix(importPath, repoModule+"/") {
				continue
			}
			rel := strings.TrimPrefix(importPath, repoModule+"/")
			if !slices.ContainsFunc(allowed, func(base string) bool { return strings.HasPrefix(rel, base) }) {
				violations = append(violations, violation{filePath: path, importPath: importPath})
			}
		}
		return nil
	})
	return violations, err
}
