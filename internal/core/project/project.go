package project

import (
	"github.com/nightconcept/bukowski-go/internal/core/constraint"
)

// Well-known dependency group names.
const (
	MainGroup = "main"
	DevGroup  = "dev"
)

// Manifest is a loaded Poetry pyproject.toml: the package model plus the
// raw document it was read from.
type Manifest struct {
	Path    string
	Package *Package

	// Raw is the manifest text exactly as read from disk.
	Raw []byte
	// Data is the decoded document and Order lists every key path in
	// declaration order, as reported by the TOML decoder.
	Data  map[string]any
	Order [][]string
}

// PoetryConfig returns the decoded [tool.poetry] table, or nil.
func (m *Manifest) PoetryConfig() map[string]any {
	tool, _ := m.Data["tool"].(map[string]any)
	poetry, _ := tool["poetry"].(map[string]any)
	return poetry
}

// Package holds the project metadata declared under [tool.poetry].
type Package struct {
	Name        string
	Version     string
	Description string
	// Readme is the raw readme value: a string or a list of strings.
	Readme  any
	Python  constraint.Constraint
	License string
	// Authors and Maintainers are raw "Name <email>" strings.
	Authors     []string
	Maintainers []string
	Keywords    []string
	Classifiers []string
	URLs        []NamedURL
	// Scripts keeps the raw script values in declaration order.
	Scripts     []Script
	Groups      []*Group
	Extras      []Extra
	Sources     []IndexSource
	PackageMode bool
}

// NamedURL is a project URL such as Homepage or Repository.
type NamedURL struct {
	Name string
	URL  string
}

// Script is an entry of [tool.poetry.scripts]. Value is a string or a table.
type Script struct {
	Name  string
	Value any
}

// Group is a named dependency group.
type Group struct {
	Name         string
	Dependencies []*Dependency
}

// Extra is a named set of optional dependencies.
type Extra struct {
	Name         string
	Dependencies []*Dependency
}

// IndexSource is an entry of [[tool.poetry.source]].
type IndexSource struct {
	Name     string
	URL      string
	Priority string
	Default  bool
	// Keys lists the keys the entry declared, in declaration order.
	Keys []string
}

// NewPackage creates and returns a new Package in package mode.
func NewPackage() *Package {
	return &Package{
		Python:      constraint.Any(),
		PackageMode: true,
	}
}

// Group returns the named dependency group, or nil.
func (p *Package) Group(name string) *Group {
	for _, g := range p.Groups {
		if g.Name == name {
			return g
		}
	}
	return nil
}

// EnsureGroup returns the named group, appending an empty one if needed.
func (p *Package) EnsureGroup(name string) *Group {
	if g := p.Group(name); g != nil {
		return g
	}
	g := &Group{Name: name}
	p.Groups = append(p.Groups, g)
	return g
}

// AllDependencies returns every dependency of every group, in group order.
func (p *Package) AllDependencies() []*Dependency {
	var deps []*Dependency
	for _, g := range p.Groups {
		deps = append(deps, g.Dependencies...)
	}
	return deps
}
