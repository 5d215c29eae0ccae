package config

import (
	"os"
	"path/filepath"
)

// PyprojectName is the manifest file converted when no path is given.
const PyprojectName = "pyproject.toml"

// ResolvePyproject returns the manifest path for the given argument. An empty
// argument selects PyprojectName in the working directory, and a directory
// selects the PyprojectName inside it.
func ResolvePyproject(arg string) string {
	if arg == "" {
		return PyprojectName
	}
	if info, err := os.Stat(arg); err == nil && info.IsDir() {
		return filepath.Join(arg, PyprojectName)
	}
	return arg
}

// LoadPyproject reads the manifest at path.
func LoadPyproject(path string) ([]byte, error) {
	return os.ReadFile(path)
}

// WritePyproject writes data to path.
// It will overwrite the file if it already exists.
func WritePyproject(path string, data []byte) error {
	// O_TRUNC ensures that if the file exists, its content is truncated.
	file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return err
	}
	defer func() { _ = file.Close() }()

	_, err = file.Write(data)
	return err
}
