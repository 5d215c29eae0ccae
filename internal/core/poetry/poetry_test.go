// Package poetry_test contains tests for the poetry package.
package poetry_test

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nightconcept/bukowski-go/internal/core/poetry"
	"github.com/nightconcept/bukowski-go/internal/core/project"
)

const fullManifest = `
[tool.poetry]
name = "Demo_Project"
version = "1.2.0"
description = "A demo"
authors = ["Jane Doe <jane@example.com>"]
maintainers = ["John Roe <john@example.com>"]
readme = "README.md"
license = "MIT"
keywords = ["demo"]
classifiers = ["Topic :: Software Development"]
homepage = "https://example.com"
repository = "https://github.com/example/demo"

[tool.poetry.urls]
"Bug Tracker" = "https://github.com/example/demo/issues"

[tool.poetry.dependencies]
python = "^3.9"
requests = "^2.31"
rich = { version = ">=13", optional = true, extras = ["jupyter"] }
foo = { git = "https://x", branch = "main" }
bar = { path = "../bar", develop = true }
baz = { url = "https://example.com/baz-1.0.tar.gz" }

[tool.poetry.dev-dependencies]
black = "*"

[tool.poetry.group.dev.dependencies]
pytest = ">=7"

[tool.poetry.group.docs.dependencies]
mkdocs = "1.5.3"

[tool.poetry.extras]
Fancy_Output = ["rich", "missing"]

[tool.poetry.scripts]
demo = "demo.cli:main"
other = { reference = "demo.other:run", type = "console" }

[[tool.poetry.source]]
name = "internal"
url = "https://pypi.internal/simple"
priority = "primary"
`

func TestParse_Full(t *testing.T) {
	t.Parallel()
	m, err := poetry.Parse("pyproject.toml", []byte(fullManifest))
	require.NoError(t, err)
	pkg := m.Package

	assert.Equal(t, "Demo_Project", pkg.Name)
	assert.Equal(t, "1.2.0", pkg.Version)
	assert.Equal(t, "A demo", pkg.Description)
	assert.Equal(t, "README.md", pkg.Readme)
	assert.Equal(t, "MIT", pkg.License)
	assert.Equal(t, []string{"Jane Doe <jane@example.com>"}, pkg.Authors)
	assert.Equal(t, []string{"John Roe <john@example.com>"}, pkg.Maintainers)
	assert.True(t, pkg.PackageMode)
	assert.Equal(t, ">=3.9,<4.0", pkg.Python.String())

	assert.Equal(t, []project.NamedURL{
		{Name: "Homepage", URL: "https://example.com"},
		{Name: "Repository", URL: "https://github.com/example/demo"},
		{Name: "Bug Tracker", URL: "https://github.com/example/demo/issues"},
	}, pkg.URLs)

	var groups []string
	for _, g := range pkg.Groups {
		groups = append(groups, g.Name)
	}
	assert.Equal(t, []string{"main", "dev", "docs"}, groups)

	main := pkg.Group(project.MainGroup)
	require.NotNil(t, main)
	var names []string
	for _, d := range main.Dependencies {
		names = append(names, d.Name)
	}
	assert.Equal(t, []string{"requests", "rich", "foo", "bar", "baz"}, names, "python is not a dependency")

	rich := main.Dependencies[1]
	assert.True(t, rich.Optional)
	assert.Equal(t, []string{"jupyter"}, rich.Extras)
	assert.Equal(t, ">=13", rich.PrettyConstraint)

	foo := main.Dependencies[2]
	assert.Equal(t, project.KindVCS, foo.Kind)
	require.NotNil(t, foo.VCS)
	assert.Equal(t, "https://x", foo.VCS.Repository)
	assert.Equal(t, "main", foo.VCS.Branch)
	assert.True(t, foo.Constraint.IsAny())

	bar := main.Dependencies[3]
	assert.Equal(t, project.KindPath, bar.Kind)
	assert.Equal(t, "../bar", bar.Path)
	assert.True(t, bar.Develop)

	baz := main.Dependencies[4]
	assert.Equal(t, project.KindURL, baz.Kind)
	assert.Equal(t, "https://example.com/baz-1.0.tar.gz", baz.URL)

	dev := pkg.Group(project.DevGroup)
	require.NotNil(t, dev)
	require.Len(t, dev.Dependencies, 2, "dev-dependencies and group.dev merge")
	assert.Equal(t, "black", dev.Dependencies[0].Name)
	assert.Equal(t, "pytest", dev.Dependencies[1].Name)

	require.Len(t, pkg.Extras, 1)
	assert.Equal(t, "fancy-output", pkg.Extras[0].Name)
	require.Len(t, pkg.Extras[0].Dependencies, 1, "unknown extra members are skipped")
	assert.Same(t, rich, pkg.Extras[0].Dependencies[0])

	require.Len(t, pkg.Scripts, 2)
	assert.Equal(t, "demo", pkg.Scripts[0].Name)
	assert.Equal(t, "demo.cli:main", pkg.Scripts[0].Value)
	assert.IsType(t, map[string]any{}, pkg.Scripts[1].Value)

	require.Len(t, pkg.Sources, 1)
	assert.Equal(t, project.IndexSource{
		Name:     "internal",
		URL:      "https://pypi.internal/simple",
		Priority: "primary",
		Keys:     []string{"name", "priority", "url"},
	}, pkg.Sources[0])

	assert.Equal(t, []byte(fullManifest), m.Raw)
	assert.NotEmpty(t, m.Order)
}

func TestParse_NonPackageMode(t *testing.T) {
	t.Parallel()
	m, err := poetry.Parse("pyproject.toml", []byte(`
[tool.poetry]
package-mode = false

[tool.poetry.dependencies]
python = ">=3.10"
`))
	require.NoError(t, err)
	assert.False(t, m.Package.PackageMode)
	assert.Equal(t, poetry.DefaultName, m.Package.Name)
	assert.Equal(t, poetry.DefaultVersion, m.Package.Version)
	assert.Empty(t, m.Package.Authors)
}

func TestParse_MultipleConstraintsAreUnsupported(t *testing.T) {
	t.Parallel()
	m, err := poetry.Parse("pyproject.toml", []byte(`
[tool.poetry]
name = "x"
version = "1.0"
description = "d"
authors = ["A <a@example.com>"]

[tool.poetry.dependencies]
foo = [
  { version = "<2", python = "<3.8" },
  { version = ">=2", python = ">=3.8" },
]
`))
	require.NoError(t, err)
	foo := m.Package.Group(project.MainGroup).Dependencies[0]
	assert.Equal(t, project.KindUnsupported, foo.Kind)
	assert.NotEmpty(t, foo.Reason)
}

func TestParse_ValidationAggregatesProblems(t *testing.T) {
	t.Parallel()
	_, err := poetry.Parse("pyproject.toml", []byte(`
[tool.poetry]
description = 3
unknown = true

[tool.poetry.dependencies]
bad = ">=foo"
never = ">2,<1"
gitref = { git = "https://x", branch = "main", tag = "v1" }
shapeless = { optional = true }

[[tool.poetry.source]]
name = "a"
url = "https://a"
priority = "sometimes"

[[tool.poetry.source]]
url = "https://b"
default = true
priority = "primary"
`))
	require.Error(t, err)

	var verr *poetry.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "pyproject.toml", verr.Path)
	assert.ElementsMatch(t, []string{
		"tool.poetry: unexpected key 'unknown'",
		"tool.poetry.name is required in package mode",
		"tool.poetry.version is required in package mode",
		"tool.poetry.description must be a string",
		"tool.poetry.authors is required in package mode",
		"tool.poetry.source[0].priority 'sometimes' must be one of default, primary, secondary, supplemental or explicit",
		"tool.poetry.source[1].name is required",
		"tool.poetry.source[1]: 'default' and 'priority' cannot be used together",
		"tool.poetry.dependencies.never: constraint '>2,<1' allows no version",
		"tool.poetry.dependencies.gitref: only one of branch, tag or rev may be declared",
		"tool.poetry.dependencies.shapeless must declare one of version, git, url or path",
	}, withoutPrefix(verr.Problems, "tool.poetry.dependencies.bad: "))

	assert.Contains(t, err.Error(), "The Poetry configuration is invalid:\n  - ")
}

func TestParse_PackageModeRequiresMetadata(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		src  string
		want []string
	}{
		{
			name: "name and version only",
			src:  "[tool.poetry]\nname = \"demo\"\nversion = \"1.0.0\"\n",
			want: []string{
				"tool.poetry.description is required in package mode",
				"tool.poetry.authors is required in package mode",
			},
		},
		{
			name: "missing authors",
			src:  "[tool.poetry]\nname = \"demo\"\nversion = \"1.0.0\"\ndescription = \"\"\n",
			want: []string{"tool.poetry.authors is required in package mode"},
		},
		{
			name: "empty authors are declared",
			src:  "[tool.poetry]\nname = \"demo\"\nversion = \"1.0.0\"\ndescription = \"\"\nauthors = []\n",
		},
		{
			name: "non-package mode",
			src:  "[tool.poetry]\npackage-mode = false\n",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := poetry.Parse("pyproject.toml", []byte(tt.src))
			if tt.want == nil {
				assert.NoError(t, err)
				return
			}
			var verr *poetry.ValidationError
			require.True(t, errors.As(err, &verr))
			assert.Equal(t, tt.want, verr.Problems)
		})
	}
}

func TestParse_PythonOnlyDependenciesCreateNoMainGroup(t *testing.T) {
	t.Parallel()
	m, err := poetry.Parse("pyproject.toml", []byte(`
[tool.poetry]
package-mode = false

[tool.poetry.dependencies]
python = "^3.10"
`))
	require.NoError(t, err)
	assert.Nil(t, m.Package.Group(project.MainGroup))
	assert.Empty(t, m.Package.Groups)
	assert.Equal(t, ">=3.10,<4.0", m.Package.Python.String())
}

// withoutPrefix drops the problems starting with prefix, whose wording
// comes from the constraint parser, after checking there is exactly one.
func withoutPrefix(problems []string, prefix string) []string {
	var out []string
	found := 0
	for _, p := range problems {
		if strings.HasPrefix(p, prefix) {
			found++
			continue
		}
		out = append(out, p)
	}
	if found != 1 {
		out = append(out, "expected exactly one problem starting with "+prefix)
	}
	return out
}

func TestParse_MissingPoetrySection(t *testing.T) {
	t.Parallel()
	_, err := poetry.Parse("pyproject.toml", []byte("[project]\nname = \"x\"\n"))
	var verr *poetry.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, []string{"[tool.poetry] section not found"}, verr.Problems)
}

func TestParse_InvalidTOML(t *testing.T) {
	t.Parallel()
	_, err := poetry.Parse("pyproject.toml", []byte("[tool.poetry\nname = 1\n"))
	require.Error(t, err)
	var verr *poetry.ValidationError
	assert.False(t, errors.As(err, &verr), "syntax errors are not validation errors")
}

func TestLoad(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	path := filepath.Join(dir, "pyproject.toml")
	require.NoError(t, os.WriteFile(path, []byte(fullManifest), 0644))

	m, err := poetry.Load(path)
	require.NoError(t, err)
	assert.Equal(t, path, m.Path)
	assert.Equal(t, "Demo_Project", m.Package.Name)

	_, err = poetry.Load(filepath.Join(dir, "missing.toml"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}
