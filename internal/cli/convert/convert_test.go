package convert

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/BurntSushi/toml"
	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"

	"github.com/nightconcept/bukowski-go/internal/core/config"
)

const poetryManifest = `[tool.poetry]
name = "sample"
version = "0.1.0"
description = "A sample project"
authors = ["Jane Doe <jane@example.com>"]

[tool.poetry.dependencies]
python = "^3.11"
requests = "^2.31"

[tool.poetry.group.dev.dependencies]
pytest = ">=7"

[build-system]
requires = ["poetry-core"]
build-backend = "poetry.core.masonry.api"

[tool.black]
line-length = 88
`

func TestMain(m *testing.M) {
	color.NoColor = true
	os.Exit(m.Run())
}

// runConvertCommand runs 'convert' through a test app and returns what it
// wrote to stdout and stderr.
func runConvertCommand(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	stdout, stderr := new(bytes.Buffer), new(bytes.Buffer)
	app := &cli.App{
		Name: "bukowski-test-convert",
		Commands: []*cli.Command{
			ConvertCommand(),
		},
		Writer:         stdout,
		ErrWriter:      stderr,
		ExitErrHandler: func(context *cli.Context, err error) {},
	}

	cliArgs := append([]string{"bukowski-test-convert", "convert"}, args...)
	err := app.Run(cliArgs)
	return stdout.String(), stderr.String(), err
}

func writeManifest(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), config.PyprojectName)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestConvertCommand_PrintsToStdout(t *testing.T) {
	t.Parallel()
	path := writeManifest(t, poetryManifest)

	stdout, stderr, err := runConvertCommand(t, path)
	require.NoError(t, err)
	assert.Empty(t, stderr)

	var converted struct {
		Project struct {
			Name         string   `toml:"name"`
			Dependencies []string `toml:"dependencies"`
		} `toml:"project"`
		DependencyGroups map[string][]string `toml:"dependency-groups"`
		BuildSystem      struct {
			Requires []string `toml:"requires"`
		} `toml:"build-system"`
	}
	_, err = toml.Decode(stdout, &converted)
	require.NoError(t, err)
	assert.Equal(t, "sample", converted.Project.Name)
	assert.Equal(t, []string{"requests>=2.31,<3.0"}, converted.Project.Dependencies)
	assert.Equal(t, []string{"pytest>=7"}, converted.DependencyGroups["dev"])
	assert.Equal(t, []string{"hatchling"}, converted.BuildSystem.Requires)
	assert.Contains(t, stdout, "[tool.black]\nline-length = 88\n")

	onDisk, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, poetryManifest, string(onDisk), "the manifest is left alone without -f")
}

func TestConvertCommand_ForceOverwrite(t *testing.T) {
	t.Parallel()
	path := writeManifest(t, poetryManifest)

	stdout, stderr, err := runConvertCommand(t, "-f", path)
	require.NoError(t, err)
	assert.Empty(t, stdout)
	assert.Contains(t, stderr, "Converted "+path)

	onDisk, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(onDisk), "[project]\nname = \"sample\"\n")
	assert.NotContains(t, string(onDisk), "[tool.poetry]")
}

func TestConvertCommand_DirectoryArgument(t *testing.T) {
	t.Parallel()
	path := writeManifest(t, poetryManifest)

	stdout, _, err := runConvertCommand(t, filepath.Dir(path))
	require.NoError(t, err)
	assert.Contains(t, stdout, "[project]")
}

func TestConvertCommand_Verbose(t *testing.T) {
	t.Parallel()
	path := writeManifest(t, poetryManifest)

	_, stderr, err := runConvertCommand(t, "--verbose", path)
	require.NoError(t, err)
	assert.Contains(t, stderr, "step: init\n")
	assert.Contains(t, stderr, "step: extra-sections\n")
}

func TestConvertCommand_Errors(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name        string
		content     string
		args        func(path string) []string
		errContains string
	}{
		{
			name:        "missing manifest",
			args:        func(path string) []string { return []string{filepath.Join(filepath.Dir(path), "absent.toml")} },
			errContains: "absent.toml not found",
		},
		{
			name:        "invalid poetry section",
			content:     "[tool.poetry]\nname = \"x\"\n",
			args:        func(path string) []string { return []string{path} },
			errContains: "The Poetry configuration is invalid:\n  - tool.poetry.version is required in package mode",
		},
		{
			name:        "conversion failure",
			content:     "[tool.poetry]\nname = \"x\"\nversion = \"1\"\ndescription = \"d\"\nauthors = [\"nobody\"]\n",
			args:        func(path string) []string { return []string{path} },
			errContains: "malformed author or maintainer 'nobody'",
		},
		{
			name:        "too many arguments",
			content:     poetryManifest,
			args:        func(path string) []string { return []string{path, path} },
			errContains: "Too many arguments",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeManifest(t, tt.content)
			stdout, _, err := runConvertCommand(t, tt.args(path)...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errContains)
			assert.Empty(t, stdout, "nothing is printed on failure")

			exitErr, ok := err.(cli.ExitCoder)
			require.True(t, ok)
			assert.Equal(t, 1, exitErr.ExitCode())
		})
	}
}
