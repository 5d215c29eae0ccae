package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadPyproject_Valid(t *testing.T) {
	tempDir := t.TempDir()
	content := `
[tool.poetry]
name = "test-project"
version = "0.1.0"
`
	path := filepath.Join(tempDir, PyprojectName)
	err := os.WriteFile(path, []byte(content), 0644)
	require.NoError(t, err)

	data, err := LoadPyproject(path)
	require.NoError(t, err)
	assert.Equal(t, content, string(data))
}

func TestLoadPyproject_NotFound(t *testing.T) {
	tempDir := t.TempDir()
	_, err := LoadPyproject(filepath.Join(tempDir, PyprojectName))
	assert.Error(t, err)
	assert.True(t, os.IsNotExist(err), "Error should be a 'file not found' type error")
}

func TestResolvePyproject(t *testing.T) {
	tempDir := t.TempDir()

	assert.Equal(t, PyprojectName, ResolvePyproject(""))
	assert.Equal(t, filepath.Join(tempDir, PyprojectName), ResolvePyproject(tempDir))

	file := filepath.Join(tempDir, "custom.toml")
	assert.Equal(t, file, ResolvePyproject(file), "a file path, existing or not, is used as given")
}

func TestWritePyproject_NewFile(t *testing.T) {
	tempDir := t.TempDir()
	path := filepath.Join(tempDir, PyprojectName)

	err := WritePyproject(path, []byte("[project]\nname = \"new-project\"\n"))
	require.NoError(t, err)

	data, err := LoadPyproject(path)
	require.NoError(t, err)
	assert.Equal(t, "[project]\nname = \"new-project\"\n", string(data))
}

func TestWritePyproject_OverwriteFile(t *testing.T) {
	tempDir := t.TempDir()
	path := filepath.Join(tempDir, PyprojectName)
	initial := `
[tool.poetry]
name = "old-project"
version = "0.0.1"
description = "a much longer file than the one replacing it"
`
	err := os.WriteFile(path, []byte(initial), 0644)
	require.NoError(t, err)

	err = WritePyproject(path, []byte("[project]\nname = \"updated\"\n"))
	require.NoError(t, err)

	data, err := LoadPyproject(path)
	require.NoError(t, err)
	assert.Equal(t, "[project]\nname = \"updated\"\n", string(data), "old content should be truncated")
}
