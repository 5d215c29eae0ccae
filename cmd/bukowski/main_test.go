package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApp_Version(t *testing.T) {
	app := newApp()
	out := new(bytes.Buffer)
	app.Writer = out

	require.NoError(t, app.Run([]string{"bukowski", "--version"}))
	assert.Contains(t, out.String(), Version)
}

func TestApp_Commands(t *testing.T) {
	app := newApp()
	var names []string
	for _, c := range app.Commands {
		names = append(names, c.Name)
	}
	assert.Equal(t, []string{"convert", "self"}, names)
}
