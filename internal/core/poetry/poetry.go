// Package poetry loads a Poetry pyproject.toml into the project model and
// validates its [tool.poetry] section.
package poetry

import (
	"fmt"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/nightconcept/bukowski-go/internal/core/config"
	"github.com/nightconcept/bukowski-go/internal/core/constraint"
	"github.com/nightconcept/bukowski-go/internal/core/document"
	"github.com/nightconcept/bukowski-go/internal/core/pep508"
	"github.com/nightconcept/bukowski-go/internal/core/project"
)

// Defaults used for projects that are not in package mode.
const (
	DefaultName    = "non-package-mode"
	DefaultVersion = "0"
)

// ValidationError lists every problem found in the [tool.poetry] section.
type ValidationError struct {
	Path     string
	Problems []string
}

func (e *ValidationError) Error() string {
	var b strings.Builder
	b.WriteString("The Poetry configuration is invalid:")
	for _, p := range e.Problems {
		b.WriteString("\n  - " + p)
	}
	return b.String()
}

var knownKeys = map[string]bool{
	"name": true, "version": true, "description": true, "license": true,
	"authors": true, "maintainers": true, "readme": true, "homepage": true,
	"repository": true, "documentation": true, "keywords": true,
	"classifiers": true, "packages": true, "include": true, "exclude": true,
	"dependencies": true, "dev-dependencies": true, "group": true,
	"extras": true, "build": true, "scripts": true, "plugins": true,
	"urls": true, "source": true, "package-mode": true,
	"requires-poetry": true, "requires-plugins": true,
}

var priorities = map[string]bool{
	"default": true, "primary": true, "secondary": true,
	"supplemental": true, "explicit": true,
}

// Load reads and parses the manifest at path.
func Load(path string) (*project.Manifest, error) {
	raw, err := config.LoadPyproject(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return Parse(path, raw)
}

// Parse decodes raw manifest text. Schema problems are collected and
// returned together as a *ValidationError.
func Parse(path string, raw []byte) (*project.Manifest, error) {
	var data map[string]any
	md, err := toml.Decode(string(raw), &data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	m := &project.Manifest{Path: path, Raw: raw, Data: data}
	for _, k := range md.Keys() {
		m.Order = append(m.Order, []string(k))
	}

	if !md.IsDefined("tool", "poetry") {
		return nil, &ValidationError{Path: path, Problems: []string{"[tool.poetry] section not found"}}
	}
	cfg := m.PoetryConfig()
	if cfg == nil {
		return nil, &ValidationError{Path: path, Problems: []string{"tool.poetry must be a table"}}
	}

	l := &loader{cfg: cfg, layout: document.Layout{Order: m.Order}}
	pkg := l.load()
	if len(l.problems) > 0 {
		return nil, &ValidationError{Path: path, Problems: l.problems}
	}
	m.Package = pkg
	return m, nil
}

type loader struct {
	cfg      map[string]any
	layout   document.Layout
	problems []string
}

func (l *loader) problemf(format string, args ...any) {
	l.problems = append(l.problems, fmt.Sprintf(format, args...))
}

// keys returns the keys of tbl, found under tool.poetry.<path>, in
// declaration order.
func (l *loader) keys(tbl map[string]any, path ...string) []string {
	full := append([]string{"tool", "poetry"}, path...)
	return l.layout.Keys(tbl, full)
}

func (l *loader) load() *project.Package {
	for _, k := range l.keys(l.cfg) {
		if !knownKeys[k] {
			l.problemf("tool.poetry: unexpected key '%s'", k)
		}
	}

	pkg := project.NewPackage()
	if v, ok := l.cfg["package-mode"]; ok {
		b, isBool := v.(bool)
		if !isBool {
			l.problemf("tool.poetry.package-mode must be a boolean")
		}
		pkg.PackageMode = b || !isBool
	}

	name, hasName := l.str(l.cfg, "name")
	version, hasVersion := l.str(l.cfg, "version")
	if pkg.PackageMode {
		if !hasName {
			l.problemf("tool.poetry.name is required in package mode")
		}
		if !hasVersion {
			l.problemf("tool.poetry.version is required in package mode")
		}
		for _, key := range []string{"description", "authors"} {
			if _, ok := l.cfg[key]; !ok {
				l.problemf("tool.poetry.%s is required in package mode", key)
			}
		}
	}
	if !hasName {
		name = DefaultName
	}
	if !hasVersion {
		version = DefaultVersion
	}
	if _, err := constraint.ParseVersion(version); err != nil {
		l.problemf("tool.poetry.version '%s' is not a valid PEP 440 version", version)
	}
	pkg.Name = name
	pkg.Version = version

	pkg.Description, _ = l.str(l.cfg, "description")
	pkg.License, _ = l.str(l.cfg, "license")
	pkg.Authors = l.strList(l.cfg, "authors")
	pkg.Maintainers = l.strList(l.cfg, "maintainers")
	pkg.Keywords = l.strList(l.cfg, "keywords")
	pkg.Classifiers = l.strList(l.cfg, "classifiers")
	pkg.Readme = l.readme()
	pkg.URLs = l.urls()
	pkg.Scripts = l.scripts()
	pkg.Sources = l.sources()

	l.groups(pkg)
	pkg.Extras = l.extras(pkg)
	return pkg
}

func (l *loader) str(tbl map[string]any, key string, path ...string) (string, bool) {
	v, ok := tbl[key]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	if !ok {
		l.problemf("%s must be a string", where(append(path, key)))
		return "", false
	}
	return s, true
}

func (l *loader) strList(tbl map[string]any, key string, path ...string) []string {
	v, ok := tbl[key]
	if !ok {
		return nil
	}
	items, ok := v.([]any)
	if !ok {
		l.problemf("%s must be an array of strings", where(append(path, key)))
		return nil
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		s, ok := item.(string)
		if !ok {
			l.problemf("%s must be an array of strings", where(append(path, key)))
			return nil
		}
		out = append(out, s)
	}
	return out
}

func (l *loader) table(tbl map[string]any, key string, path ...string) map[string]any {
	v, ok := tbl[key]
	if !ok {
		return nil
	}
	t, ok := v.(map[string]any)
	if !ok {
		l.problemf("%s must be a table", where(append(path, key)))
		return nil
	}
	return t
}

func (l *loader) readme() any {
	v, ok := l.cfg["readme"]
	if !ok {
		return nil
	}
	switch v.(type) {
	case string:
		return v
	case []any:
		if files := l.strList(l.cfg, "readme"); files != nil {
			return files
		}
		return nil
	default:
		l.problemf("tool.poetry.readme must be a string or an array of strings")
		return nil
	}
}

func (l *loader) urls() []project.NamedURL {
	var urls []project.NamedURL
	for _, field := range []struct{ key, name string }{
		{"homepage", "Homepage"},
		{"repository", "Repository"},
		{"documentation", "Documentation"},
	} {
		if u, ok := l.str(l.cfg, field.key); ok {
			urls = append(urls, project.NamedURL{Name: field.name, URL: u})
		}
	}

	tbl := l.table(l.cfg, "urls")
	for _, name := range l.keys(tbl, "urls") {
		if u, ok := l.str(tbl, name, "urls"); ok {
			urls = append(urls, project.NamedURL{Name: name, URL: u})
		}
	}
	return urls
}

func (l *loader) scripts() []project.Script {
	tbl := l.table(l.cfg, "scripts")
	var scripts []project.Script
	for _, name := range l.keys(tbl, "scripts") {
		switch v := tbl[name].(type) {
		case string, map[string]any:
			scripts = append(scripts, project.Script{Name: name, Value: v})
		default:
			l.problemf("tool.poetry.scripts.%s must be a string or a table", name)
		}
	}
	return scripts
}

func (l *loader) sources() []project.IndexSource {
	v, ok := l.cfg["source"]
	if !ok {
		return nil
	}
	entries, ok := tableList(v)
	if !ok {
		l.problemf("tool.poetry.source must be an array of tables")
		return nil
	}

	var sources []project.IndexSource
	for i, entry := range entries {
		path := fmt.Sprintf("source[%d]", i)
		src := project.IndexSource{}
		for k := range entry {
			src.Keys = append(src.Keys, k)
		}
		sort.Strings(src.Keys)

		name, hasName := l.str(entry, "name", path)
		if !hasName {
			l.problemf("tool.poetry.%s.name is required", path)
		}
		src.Name = name
		src.URL, _ = l.str(entry, "url", path)
		src.Priority, _ = l.str(entry, "priority", path)
		if src.Priority != "" && !priorities[src.Priority] {
			l.problemf("tool.poetry.%s.priority '%s' must be one of default, primary, secondary, supplemental or explicit", path, src.Priority)
		}
		if d, ok := entry["default"]; ok {
			b, isBool := d.(bool)
			if !isBool {
				l.problemf("tool.poetry.%s.default must be a boolean", path)
			}
			src.Default = b
			if _, both := entry["priority"]; both {
				l.problemf("tool.poetry.%s: 'default' and 'priority' cannot be used together", path)
			}
		}
		sources = append(sources, src)
	}
	return sources
}

// groups builds the dependency groups: main, then the legacy
// dev-dependencies, then [tool.poetry.group.<name>] in declaration order.
func (l *loader) groups(pkg *project.Package) {
	if deps := l.table(l.cfg, "dependencies"); deps != nil {
		for _, name := range l.keys(deps, "dependencies") {
			if name == "python" {
				l.python(pkg, deps[name])
				continue
			}
			if d := l.dependency(name, deps[name], "dependencies"); d != nil {
				main := pkg.EnsureGroup(project.MainGroup)
				main.Dependencies = append(main.Dependencies, d)
			}
		}
	}

	if deps := l.table(l.cfg, "dev-dependencies"); deps != nil {
		dev := pkg.EnsureGroup(project.DevGroup)
		for _, name := range l.keys(deps, "dev-dependencies") {
			if d := l.dependency(name, deps[name], "dev-dependencies"); d != nil {
				dev.Dependencies = append(dev.Dependencies, d)
			}
		}
	}

	groups := l.table(l.cfg, "group")
	for _, gname := range l.keys(groups, "group") {
		gtbl, ok := groups[gname].(map[string]any)
		if !ok {
			l.problemf("tool.poetry.group.%s must be a table", gname)
			continue
		}
		if v, ok := gtbl["optional"]; ok {
			if _, isBool := v.(bool); !isBool {
				l.problemf("tool.poetry.group.%s.optional must be a boolean", gname)
			}
		}
		deps := l.table(gtbl, "dependencies", "group", gname)
		if deps == nil {
			l.problemf("tool.poetry.group.%s.dependencies is required", gname)
			continue
		}
		if gname == project.MainGroup {
			l.problemf("tool.poetry.group.%s: the main group is declared by tool.poetry.dependencies", gname)
			continue
		}
		group := pkg.EnsureGroup(gname)
		for _, name := range l.keys(deps, "group", gname, "dependencies") {
			if d := l.dependency(name, deps[name], "group", gname, "dependencies"); d != nil {
				group.Dependencies = append(group.Dependencies, d)
			}
		}
	}
}

func (l *loader) python(pkg *project.Package, v any) {
	text, ok := v.(string)
	if !ok {
		l.problemf("tool.poetry.dependencies.python must be a string")
		return
	}
	c, err := constraint.Parse(text)
	if err != nil {
		l.problemf("tool.poetry.dependencies.python: %v", err)
		return
	}
	pkg.Python = c
}

func (l *loader) dependency(name string, v any, path ...string) *project.Dependency {
	rel := append(append([]string(nil), path...), name)
	at := where(rel)

	switch v := v.(type) {
	case string:
		c, ok := l.constraint(at, v)
		if !ok {
			return nil
		}
		return project.NewDependency(name, c, v)

	case map[string]any:
		return l.longDependency(name, v, rel)

	case []any, []map[string]any:
		if _, ok := tableList(v); !ok {
			l.problemf("%s: multiple constraints must be tables", at)
			return nil
		}
		d := project.NewDependency(name, constraint.Any(), "*")
		d.Kind = project.KindUnsupported
		d.Reason = "multiple constraints dependencies are not supported"
		return d

	default:
		l.problemf("%s must be a version string, a table or an array of tables", at)
		return nil
	}
}

func (l *loader) longDependency(name string, tbl map[string]any, rel []string) *project.Dependency {
	d := project.NewDependency(name, constraint.Any(), "*")
	at := where(rel)

	if v, ok := tbl["optional"]; ok {
		b, isBool := v.(bool)
		if !isBool {
			l.problemf("%s.optional must be a boolean", at)
		}
		d.Optional = b
	}
	if _, ok := tbl["extras"]; ok {
		d.Extras = l.strList(tbl, "extras", rel...)
	}
	d.Subdirectory, _ = l.str(tbl, "subdirectory", rel...)

	_, hasGit := tbl["git"]
	_, hasURL := tbl["url"]
	_, hasPath := tbl["path"]
	switch {
	case hasGit:
		d.Kind = project.KindVCS
		repo, _ := l.str(tbl, "git", rel...)
		d.VCS = &project.VCSSource{Type: "git", Repository: repo}
		d.VCS.Branch, _ = l.str(tbl, "branch", rel...)
		d.VCS.Tag, _ = l.str(tbl, "tag", rel...)
		d.VCS.Rev, _ = l.str(tbl, "rev", rel...)
		refs := 0
		for _, k := range []string{"branch", "tag", "rev"} {
			if _, ok := tbl[k]; ok {
				refs++
			}
		}
		if refs > 1 {
			l.problemf("%s: only one of branch, tag or rev may be declared", at)
		}
	case hasURL:
		d.Kind = project.KindURL
		d.URL, _ = l.str(tbl, "url", rel...)
	case hasPath:
		d.Kind = project.KindPath
		d.Path, _ = l.str(tbl, "path", rel...)
		if v, ok := tbl["develop"]; ok {
			b, isBool := v.(bool)
			if !isBool {
				l.problemf("%s.develop must be a boolean", at)
			}
			d.Develop = b
		}
	default:
		text, ok := l.str(tbl, "version", rel...)
		if !ok {
			if _, declared := tbl["version"]; !declared {
				l.problemf("%s must declare one of version, git, url or path", at)
			}
			return nil
		}
		c, valid := l.constraint(at, text)
		if !valid {
			return nil
		}
		d.Constraint = c
		d.PrettyConstraint = text
	}
	return d
}

func (l *loader) constraint(at, text string) (constraint.Constraint, bool) {
	c, err := constraint.Parse(text)
	if err != nil {
		l.problemf("%s: %v", at, err)
		return nil, false
	}
	if c.IsEmpty() {
		l.problemf("%s: constraint '%s' allows no version", at, text)
		return nil, false
	}
	return c, true
}

// extras resolves [tool.poetry.extras] against the main dependencies.
// Names that match no main dependency are skipped.
func (l *loader) extras(pkg *project.Package) []project.Extra {
	tbl := l.table(l.cfg, "extras")
	if tbl == nil {
		return nil
	}
	byName := make(map[string]*project.Dependency)
	if main := pkg.Group(project.MainGroup); main != nil {
		for _, d := range main.Dependencies {
			byName[pep508.NormalizeName(d.Name)] = d
		}
	}

	var extras []project.Extra
	for _, name := range l.keys(tbl, "extras") {
		members := l.strList(tbl, name, "extras")
		if members == nil {
			if _, isList := tbl[name].([]any); !isList {
				continue
			}
		}
		extra := project.Extra{Name: pep508.NormalizeName(name)}
		for _, member := range members {
			if d, ok := byName[pep508.NormalizeName(member)]; ok {
				extra.Dependencies = append(extra.Dependencies, d)
			}
		}
		extras = append(extras, extra)
	}
	return extras
}

// tableList accepts both [[x]] arrays of tables and inline arrays of tables.
func tableList(v any) ([]map[string]any, bool) {
	switch v := v.(type) {
	case []map[string]any:
		return v, true
	case []any:
		out := make([]map[string]any, 0, len(v))
		for _, item := range v {
			m, ok := item.(map[string]any)
			if !ok {
				return nil, false
			}
			out = append(out, m)
		}
		return out, true
	default:
		return nil, false
	}
}

// where names a key below tool.poetry in problem messages.
func where(path []string) string {
	return "tool.poetry." + strings.Join(path, ".")
}
