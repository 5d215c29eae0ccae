// Package convert builds a uv pyproject.toml document from a loaded Poetry
// manifest.
package convert

import (
	"fmt"

	"github.com/nightconcept/bukowski-go/internal/core/document"
	"github.com/nightconcept/bukowski-go/internal/core/project"
)

// ConversionError reports the first step that failed.
type ConversionError struct {
	Step string
	Err  error
}

func (e *ConversionError) Error() string {
	return fmt.Sprintf("conversion failed in step '%s': %v", e.Step, e.Err)
}

func (e *ConversionError) Unwrap() error { return e.Err }

// Step writes one part of the target document.
type Step struct {
	Name string
	Run  func(doc *document.Document, m *project.Manifest) error
}

// Steps run in this order. The extra sections are copied last so no later
// step can collide with them.
var Steps = []Step{
	{Name: "init", Run: initDocument},
	{Name: "project", Run: setProject},
	{Name: "dependencies", Run: setMainDependencies},
	{Name: "build-system", Run: setBuildSystem},
	{Name: "dev-dependencies", Run: setDevDependencies},
	{Name: "optional-dependencies", Run: setOptionalDependencies},
	{Name: "dependency-groups", Run: setDependencyGroups},
	{Name: "scripts", Run: setScripts},
	{Name: "index-urls", Run: setIndexURLs},
	{Name: "sources", Run: setSources},
	{Name: "extra-sections", Run: setExtraSections},
}

// Converter runs the conversion steps.
type Converter struct {
	// OnStep, when set, is called before each step runs.
	OnStep func(name string)
}

// New returns a Converter that reports nothing.
func New() *Converter {
	return &Converter{}
}

// Convert builds the uv document for m. Nothing is returned when a step
// fails.
func (c *Converter) Convert(m *project.Manifest) (*document.Document, error) {
	doc := document.New()
	for _, step := range Steps {
		if c.OnStep != nil {
			c.OnStep(step.Name)
		}
		if err := step.Run(doc, m); err != nil {
			return nil, &ConversionError{Step: step.Name, Err: err}
		}
	}
	return doc, nil
}

// ConvertToTOML converts m and renders the result.
func (c *Converter) ConvertToTOML(m *project.Manifest) ([]byte, error) {
	doc, err := c.Convert(m)
	if err != nil {
		return nil, err
	}
	out, err := document.Marshal(doc)
	if err != nil {
		return nil, &ConversionError{Step: "render", Err: err}
	}
	return out, nil
}
