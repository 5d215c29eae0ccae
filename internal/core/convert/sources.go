package convert

import (
	"fmt"
	"reflect"
	"sort"

	"github.com/nightconcept/bukowski-go/internal/core/document"
	"github.com/nightconcept/bukowski-go/internal/core/pep508"
	"github.com/nightconcept/bukowski-go/internal/core/project"
	"github.com/nightconcept/bukowski-go/internal/core/source"
)

type field struct {
	key   string
	value document.Value
}

// setSources writes tool.uv.sources for every git, url and path dependency,
// sorted by normalized name.
func setSources(doc *document.Document, m *project.Manifest) error {
	var direct []*project.Dependency
	for _, d := range m.Package.AllDependencies() {
		if d.IsDirect() {
			direct = append(direct, d)
		}
	}
	if len(direct) == 0 {
		return nil
	}
	sort.SliceStable(direct, func(i, j int) bool {
		return pep508.NormalizeName(direct[i].Name) < pep508.NormalizeName(direct[j].Name)
	})

	var names []string
	entries := make(map[string][]field)
	for _, d := range direct {
		name := pep508.NormalizeName(d.Name)
		fields, err := sourceFields(d)
		if err != nil {
			return fmt.Errorf("dependency '%s': %w", d.Name, err)
		}
		if prev, ok := entries[name]; ok {
			if !reflect.DeepEqual(prev, fields) {
				return fmt.Errorf("dependency '%s' is declared with conflicting sources", d.Name)
			}
			continue
		}
		entries[name] = fields
		names = append(names, name)
	}

	sources, err := doc.Path("tool", "uv", "sources")
	if err != nil {
		return err
	}
	for _, name := range names {
		entry := document.NewInlineTable()
		for _, f := range entries[name] {
			entry.Set(f.key, f.value)
		}
		if err := sources.Insert(name, entry); err != nil {
			return err
		}
	}
	return nil
}

func sourceFields(d *project.Dependency) ([]field, error) {
	var fields []field
	add := func(key, value string) {
		if value != "" {
			fields = append(fields, field{key, document.String(value)})
		}
	}

	switch d.Kind {
	case project.KindVCS:
		git, err := source.NormalizeGitURL(d.VCS.Repository)
		if err != nil {
			return nil, err
		}
		add("git", git)
		add("rev", d.VCS.Rev)
		add("tag", d.VCS.Tag)
		add("branch", d.VCS.Branch)
		add("subdirectory", d.Subdirectory)
	case project.KindURL:
		add("url", d.URL)
		add("subdirectory", d.Subdirectory)
	case project.KindPath:
		add("path", d.Path)
		if d.Develop {
			fields = append(fields, field{"editable", document.Bool(true)})
		}
	default:
		return nil, fmt.Errorf("%s dependencies have no source", d.Kind)
	}
	return fields, nil
}
