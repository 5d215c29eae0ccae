package document

import (
	"fmt"
	"strings"

	"github.com/pelletier/go-toml/v2/unstable"
)

// Section is the source text that belongs to one table header: the comment
// lines directly above the header, the header itself and its body. The
// first section returned by SplitSections holds the text before any header
// and has a nil Path.
type Section struct {
	Path  []string
	Array bool
	Text  string
	// Keys lists the key paths assigned in the body, relative to Path.
	Keys [][]string
}

// HasPrefix reports whether the section header starts with prefix.
func (s Section) HasPrefix(prefix ...string) bool {
	return s.Path != nil && HasPathPrefix(s.Path, prefix)
}

// Defines reports whether the body assigns a key whose path starts with
// prefix.
func (s Section) Defines(prefix ...string) bool {
	for _, k := range s.Keys {
		if HasPathPrefix(k, prefix) {
			return true
		}
	}
	return false
}

// SplitSections splits TOML source into sections without decoding values,
// so the text of each section is preserved byte for byte.
func SplitSections(src string) ([]Section, error) {
	p := &unstable.Parser{KeepComments: true}
	p.Reset([]byte(src))

	sections := []Section{{}}
	starts := []int{0}
	comments := make(map[int]bool)
	for p.NextExpression() {
		e := p.Expression()
		switch e.Kind {
		case unstable.Comment:
			if start := lineStart(src, int(e.Raw.Offset)); isComment(src, start) {
				comments[start] = true
			}
		case unstable.Table, unstable.ArrayTable:
			path, offset := keyPath(e)
			// Comments directly above a header belong to it.
			start := lineStart(src, offset)
			for start > 0 {
				prev := lineStart(src, start-1)
				if !comments[prev] {
					break
				}
				start = prev
			}
			sections = append(sections, Section{Path: path, Array: e.Kind == unstable.ArrayTable})
			starts = append(starts, start)
		case unstable.KeyValue:
			path, _ := keyPath(e)
			cur := &sections[len(sections)-1]
			cur.Keys = append(cur.Keys, path)
		}
	}
	if err := p.Error(); err != nil {
		return nil, fmt.Errorf("failed to split TOML into sections: %w", err)
	}

	for i := range sections {
		end := len(src)
		if i+1 < len(starts) {
			end = starts[i+1]
		}
		sections[i].Text = src[starts[i]:end]
	}
	return sections, nil
}

// keyPath returns the unquoted key of a table header or key-value
// expression and the source offset of its first part.
func keyPath(e *unstable.Node) ([]string, int) {
	var path []string
	offset := 0
	it := e.Key()
	for it.Next() {
		k := it.Node()
		if path == nil {
			offset = int(k.Raw.Offset)
		}
		path = append(path, string(k.Data))
	}
	return path, offset
}

func lineStart(src string, offset int) int {
	return strings.LastIndexByte(src[:offset], '\n') + 1
}

// isComment reports whether the line at start holds only a comment.
func isComment(src string, start int) bool {
	return strings.HasPrefix(strings.TrimLeft(src[start:], " \t"), "#")
}
