package convert

import (
	"fmt"
	"strings"

	"github.com/nightconcept/bukowski-go/internal/core/document"
	"github.com/nightconcept/bukowski-go/internal/core/pep508"
	"github.com/nightconcept/bukowski-go/internal/core/project"
)

// Build backend written for projects in package mode.
const (
	BuildRequires = "hatchling"
	BuildBackend  = "hatchling.build"
)

func initDocument(doc *document.Document, _ *project.Manifest) error {
	return doc.Insert("project", document.NewTable())
}

func projectTable(doc *document.Document) (*document.Table, error) {
	v, ok := doc.Get("project")
	if !ok {
		return nil, fmt.Errorf("document has no project table")
	}
	t, ok := v.(*document.Table)
	if !ok {
		return nil, fmt.Errorf("project is not a table")
	}
	return t, nil
}

// inserter collects the first Insert error so a step can set many keys and
// check once.
type inserter struct {
	t   *document.Table
	err error
}

func (in *inserter) set(key string, v document.Value) {
	if in.err != nil {
		return
	}
	if err := in.t.Insert(key, v); err != nil {
		in.err = err
	}
}

func setProject(doc *document.Document, m *project.Manifest) error {
	content, err := projectTable(doc)
	if err != nil {
		return err
	}
	pkg := m.Package
	in := &inserter{t: content}

	in.set("name", document.String(pep508.NormalizeName(pkg.Name)))
	in.set("version", document.String(pkg.Version))
	in.set("description", document.String(pkg.Description))

	switch readme := pkg.Readme.(type) {
	case string:
		if readme != "" {
			in.set("readme", document.String(readme))
		}
	case []string:
		if len(readme) > 0 {
			in.set("readme", document.Strings(readme, false))
		}
	}

	if !pkg.Python.IsAny() {
		in.set("requires-python", document.String(strings.ReplaceAll(pkg.Python.String(), " ", "")))
	}
	if pkg.License != "" {
		in.set("license", document.String(pkg.License))
	}

	authors, err := ownershipsArray(pkg.Authors)
	if err != nil {
		return err
	}
	in.set("authors", authors)

	if len(pkg.Maintainers) > 0 {
		maintainers, err := ownershipsArray(pkg.Maintainers)
		if err != nil {
			return err
		}
		in.set("maintainers", maintainers)
	}
	if len(pkg.Keywords) > 0 {
		in.set("keywords", document.Strings(pkg.Keywords, true))
	}
	if len(pkg.Classifiers) > 0 {
		in.set("classifiers", document.Strings(pkg.Classifiers, true))
	}
	if in.err != nil {
		return in.err
	}

	if len(pkg.URLs) > 0 {
		urls, err := content.Child("urls")
		if err != nil {
			return err
		}
		for _, u := range pkg.URLs {
			if err := urls.Insert(u.Name, document.String(u.URL)); err != nil {
				return err
			}
		}
	}
	return nil
}

// ownershipsArray renders "Name <email>" entries as a multi-line array of
// { name, email } inline tables.
func ownershipsArray(raws []string) (*document.Array, error) {
	owners, err := project.ParseOwnerships(raws)
	if err != nil {
		return nil, err
	}
	arr := &document.Array{Multiline: true}
	for _, o := range owners {
		entry := document.NewInlineTable()
		entry.Set("name", document.String(o.Name))
		entry.Set("email", document.String(o.Email))
		arr.Items = append(arr.Items, entry)
	}
	return arr, nil
}

// requirements renders deps as a multi-line array of PEP 508 strings.
func requirements(deps []*project.Dependency) (*document.Array, error) {
	for _, d := range deps {
		if d.Kind == project.KindUnsupported {
			return nil, fmt.Errorf("dependency '%s': %s", d.Name, d.Reason)
		}
	}
	return document.Strings(pep508.Requirements(deps), true), nil
}

func setMainDependencies(doc *document.Document, m *project.Manifest) error {
	main := m.Package.Group(project.MainGroup)
	if main == nil {
		return nil
	}
	var deps []*project.Dependency
	for _, d := range main.Dependencies {
		if !d.Optional {
			deps = append(deps, d)
		}
	}
	arr, err := requirements(deps)
	if err != nil {
		return err
	}
	content, err := projectTable(doc)
	if err != nil {
		return err
	}
	return content.Insert("dependencies", arr)
}

func setBuildSystem(doc *document.Document, m *project.Manifest) error {
	if !m.Package.PackageMode {
		return nil
	}
	build := document.NewTable()
	build.Set("requires", document.Strings([]string{BuildRequires}, false))
	build.Set("build-backend", document.String(BuildBackend))
	return doc.Insert("build-system", build)
}

func setDevDependencies(doc *document.Document, m *project.Manifest) error {
	dev := m.Package.Group(project.DevGroup)
	if dev == nil || len(dev.Dependencies) == 0 {
		return nil
	}
	arr, err := requirements(dev.Dependencies)
	if err != nil {
		return err
	}
	groups, err := doc.Child("dependency-groups")
	if err != nil {
		return err
	}
	return groups.Insert(project.DevGroup, arr)
}

func setOptionalDependencies(doc *document.Document, m *project.Manifest) error {
	if len(m.Package.Extras) == 0 {
		return nil
	}
	content, err := projectTable(doc)
	if err != nil {
		return err
	}
	optional, err := content.Child("optional-dependencies")
	if err != nil {
		return err
	}
	for _, extra := range m.Package.Extras {
		arr, err := requirements(extra.Dependencies)
		if err != nil {
			return err
		}
		if err := optional.Insert(extra.Name, arr); err != nil {
			return err
		}
	}
	return nil
}

func setDependencyGroups(doc *document.Document, m *project.Manifest) error {
	for _, g := range m.Package.Groups {
		if g.Name == project.MainGroup || g.Name == project.DevGroup {
			continue
		}
		arr, err := requirements(g.Dependencies)
		if err != nil {
			return err
		}
		groups, err := doc.Child("dependency-groups")
		if err != nil {
			return err
		}
		if err := groups.Insert(g.Name, arr); err != nil {
			return err
		}
	}
	return nil
}

func setScripts(doc *document.Document, m *project.Manifest) error {
	if len(m.Package.Scripts) == 0 {
		return nil
	}
	content, err := projectTable(doc)
	if err != nil {
		return err
	}
	scripts, err := content.Child("scripts")
	if err != nil {
		return err
	}
	layout := document.Layout{Order: m.Order}
	for _, s := range m.Package.Scripts {
		v, err := layout.FromGo(s.Value, []string{"tool", "poetry", "scripts", s.Name})
		if err != nil {
			return err
		}
		if err := scripts.Insert(s.Name, v); err != nil {
			return err
		}
	}
	return nil
}

// setIndexURLs picks the first source tagged primary or default, flagged
// default, or declaring only a name and url as tool.uv.index-url. Every other
// url becomes an extra index, once, in declaration order.
func setIndexURLs(doc *document.Document, m *project.Manifest) error {
	var index string
	var extra []string
	seen := make(map[string]bool)

	for _, src := range m.Package.Sources {
		if src.URL == "" {
			continue
		}
		if index == "" && isPrimary(src) {
			index = src.URL
			seen[src.URL] = true
			continue
		}
		if !seen[src.URL] {
			seen[src.URL] = true
			extra = append(extra, src.URL)
		}
	}
	if index == "" && len(extra) == 0 {
		return nil
	}

	uv, err := doc.Path("tool", "uv")
	if err != nil {
		return err
	}
	if index != "" {
		if err := uv.Insert("index-url", document.String(index)); err != nil {
			return err
		}
	}
	if len(extra) > 0 {
		return uv.Insert("extra-index-url", document.Strings(extra, true))
	}
	return nil
}

func isPrimary(src project.IndexSource) bool {
	switch {
	case src.Priority == "default" || src.Priority == "primary":
		return true
	case src.Default:
		return true
	default:
		return len(src.Keys) == 2 && src.Keys[0] == "name" && src.Keys[1] == "url"
	}
}
