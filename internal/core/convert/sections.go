package convert

import (
	"fmt"
	"strings"

	"github.com/nightconcept/bukowski-go/internal/core/document"
	"github.com/nightconcept/bukowski-go/internal/core/project"
)

// setExtraSections copies every top-level entry except build-system and
// tool, then every tool.* entry except tool.poetry. Entries written under
// their own headers are copied as source text; anything else is re-encoded
// from its decoded value.
func setExtraSections(doc *document.Document, m *project.Manifest) error {
	sections, err := document.SplitSections(string(m.Raw))
	if err != nil {
		return fmt.Errorf("failed to split %s into sections: %w", m.Path, err)
	}
	c := &copier{sections: sections, layout: document.Layout{Order: m.Order}}
	for _, s := range sections {
		if s.Path != nil {
			c.layout.Headers = append(c.layout.Headers, s.Path)
		}
	}

	for _, key := range c.layout.Keys(m.Data, nil) {
		if key == "build-system" || key == "tool" {
			continue
		}
		v, err := c.value(m.Data[key], key)
		if err != nil {
			return err
		}
		if err := doc.Insert(key, v); err != nil {
			return err
		}
	}

	tool, _ := m.Data["tool"].(map[string]any)
	var target *document.Table
	for _, key := range c.layout.Keys(tool, []string{"tool"}) {
		if key == "poetry" {
			continue
		}
		v, err := c.value(tool[key], "tool", key)
		if err != nil {
			return err
		}
		if target == nil {
			if target, err = doc.Child("tool"); err != nil {
				return err
			}
		}
		if err := target.Insert(key, v); err != nil {
			return err
		}
	}
	return nil
}

type copier struct {
	sections []document.Section
	layout   document.Layout
}

func (c *copier) value(v any, path ...string) (document.Value, error) {
	if c.verbatim(path) {
		return &document.Raw{Text: c.text(path)}, nil
	}
	return c.layout.FromGo(v, path)
}

// verbatim reports whether the entry at path lives entirely under headers
// starting with path, so its source text can be copied as is.
func (c *copier) verbatim(path []string) bool {
	found := false
	for _, s := range c.sections {
		if s.HasPrefix(path...) {
			found = true
			continue
		}
		if len(s.Path) < len(path) && document.HasPathPrefix(path, s.Path) && s.Defines(path[len(s.Path):]...) {
			return false
		}
	}
	return found
}

// text joins the sections under path. Sections adjacent in the source keep
// their spacing; separated runs are joined by one blank line.
func (c *copier) text(path []string) string {
	var b strings.Builder
	prev := -1
	for i, s := range c.sections {
		if !s.HasPrefix(path...) {
			continue
		}
		if prev >= 0 && prev != i-1 {
			joined := strings.TrimRight(b.String(), " \t\r\n")
			b.Reset()
			b.WriteString(joined + "\n\n")
		}
		b.WriteString(s.Text)
		prev = i
	}
	return strings.TrimRight(b.String(), " \t\r\n") + "\n"
}
