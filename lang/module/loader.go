// Package module implements the file-backed Module Loader (§4.9): it
// canonicalizes a module name to a path under a configured scripts root,
// refuses traversal outside that root, parses and compiles the source, and
// hands the vm package a ready *bytecode.Program. Parsing itself is a
// non-goal of this core (§1), so the actual text-to-AST step is supplied by
// the host as a ParseFunc; this package owns only the path safety and
// compile-in-Module-mode mechanics the Module Loader is responsible for.
package module

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dicelang/dice/lang/ast"
	"github.com/dicelang/dice/lang/bytecode"
	"github.com/dicelang/dice/lang/compiler"
	"github.com/dicelang/dice/lang/value"
)

// ParseFunc turns module source text into the syntax tree the compiler
// consumes. Hosts own lexing/parsing; this package treats it as an
// injected dependency rather than implementing one itself.
type ParseFunc func(name string, source []byte) (*ast.Block, error)

// Loader is the file-backed vm.ModuleLoader: module names are resolved as
// slash-separated paths relative to Root, with a .dm extension appended if
// the name has no extension at all.
type Loader struct {
	Root  string
	Parse ParseFunc
}

// New returns a Loader rooted at root. root is cleaned and made absolute up
// front so every subsequent resolution can be checked against it with a
// simple prefix test.
func New(root string, parse ParseFunc) (*Loader, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("module: resolve scripts root: %w", err)
	}
	return &Loader{Root: filepath.Clean(abs), Parse: parse}, nil
}

// Load implements vm.ModuleLoader.
func (l *Loader) Load(name value.Symbol) (*bytecode.Program, error) {
	path, err := l.resolve(name.Text())
	if err != nil {
		return nil, err
	}
	source, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("module %q: %w", name.Text(), err)
	}
	block, err := l.Parse(name.Text(), source)
	if err != nil {
		return nil, fmt.Errorf("module %q: parse: %w", name.Text(), err)
	}
	program, err := compiler.CompileModule(name.Text(), block)
	if err != nil {
		return nil, fmt.Errorf("module %q: compile: %w", name.Text(), err)
	}
	return program, nil
}

// resolve maps a module name to an absolute path under l.Root, rejecting
// absolute names and any path that would escape the root via `..` segments
// or a symlink-free traversal. The .dm extension is appended when the name
// has no extension; a name with any other extension is used as given.
func (l *Loader) resolve(name string) (string, error) {
	if filepath.IsAbs(name) {
		return "", fmt.Errorf("module %q: absolute module paths are not allowed", name)
	}
	clean := filepath.Clean(name)
	if clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("module %q: path escapes scripts root", name)
	}
	if filepath.Ext(clean) == "" {
		clean += ".dm"
	}
	full := filepath.Join(l.Root, clean)
	rel, err := filepath.Rel(l.Root, full)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("module %q: path escapes scripts root", name)
	}
	return full, nil
}
