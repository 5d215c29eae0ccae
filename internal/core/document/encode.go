package document

import (
	"bytes"
	"fmt"
	"io"
	"math"
	"regexp"
	"strconv"
	"strings"
)

var bareKey = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// Encoder writes a Document as TOML text.
type Encoder struct {
	w io.Writer
	// Indent prefixes each item of a multiline array.
	Indent string
}

// NewEncoder returns an encoder writing to w with a four space indent.
func NewEncoder(w io.Writer) *Encoder {
	return &Encoder{w: w, Indent: "    "}
}

// Marshal renders d as TOML text.
func Marshal(d *Document) ([]byte, error) {
	buf := new(bytes.Buffer)
	if err := NewEncoder(buf).Encode(d); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Encode writes d. Plain values of a table come before its sub-tables;
// everything else keeps insertion order. Tables holding only sub-tables get
// no header of their own.
func (e *Encoder) Encode(d *Document) error {
	buf := new(bytes.Buffer)
	if err := e.table(buf, d, nil); err != nil {
		return err
	}
	_, err := e.w.Write(buf.Bytes())
	return err
}

func (e *Encoder) table(buf *bytes.Buffer, t *Table, path []string) error {
	var body, sections []string
	for _, k := range t.keys {
		switch t.values[k].(type) {
		case *Table, *Raw:
			sections = append(sections, k)
		default:
			body = append(body, k)
		}
	}

	if path != nil && (len(body) > 0 || len(sections) == 0) {
		separate(buf)
		buf.WriteString("[" + dottedKey(path) + "]\n")
	}
	for _, k := range body {
		s, err := e.value(t.values[k])
		if err != nil {
			return fmt.Errorf("%s: %w", dottedKey(append(path, k)), err)
		}
		buf.WriteString(quoteKey(k) + " = " + s + "\n")
	}

	for _, k := range sections {
		switch v := t.values[k].(type) {
		case *Table:
			sub := append(append([]string(nil), path...), k)
			if err := e.table(buf, v, sub); err != nil {
				return err
			}
		case *Raw:
			text := strings.TrimRight(v.Text, " \t\r\n")
			if text == "" {
				continue
			}
			separate(buf)
			buf.WriteString(text + "\n")
		}
	}
	return nil
}

// separate leaves exactly one blank line before the next section.
func separate(buf *bytes.Buffer) {
	b := buf.Bytes()
	switch {
	case len(b) == 0:
	case bytes.HasSuffix(b, []byte("\n\n")):
	case bytes.HasSuffix(b, []byte("\n")):
		buf.WriteByte('\n')
	default:
		buf.WriteString("\n\n")
	}
}

func (e *Encoder) value(v Value) (string, error) {
	switch v := v.(type) {
	case String:
		return quoteString(string(v)), nil
	case Bool:
		return strconv.FormatBool(bool(v)), nil
	case Integer:
		return strconv.FormatInt(int64(v), 10), nil
	case Float:
		return formatFloat(float64(v)), nil
	case Datetime:
		return string(v), nil
	case *Array:
		return e.array(v)
	case InlineTable:
		return e.inline(v.Table)
	case *Table:
		return e.inline(v)
	case *Raw:
		return "", fmt.Errorf("raw section cannot be used as a value")
	default:
		return "", fmt.Errorf("unsupported value type %T", v)
	}
}

func (e *Encoder) array(a *Array) (string, error) {
	if len(a.Items) == 0 {
		return "[]", nil
	}
	items := make([]string, len(a.Items))
	for i, item := range a.Items {
		s, err := e.value(item)
		if err != nil {
			return "", err
		}
		items[i] = s
	}
	if !a.Multiline {
		return "[" + strings.Join(items, ", ") + "]", nil
	}
	var b strings.Builder
	b.WriteString("[\n")
	for _, s := range items {
		b.WriteString(e.Indent + s + ",\n")
	}
	b.WriteString("]")
	return b.String(), nil
}

func (e *Encoder) inline(t *Table) (string, error) {
	if t == nil || t.Len() == 0 {
		return "{}", nil
	}
	parts := make([]string, len(t.keys))
	for i, k := range t.keys {
		s, err := e.value(t.values[k])
		if err != nil {
			return "", fmt.Errorf("%s: %w", k, err)
		}
		parts[i] = quoteKey(k) + " = " + s
	}
	return "{ " + strings.Join(parts, ", ") + " }", nil
}

func dottedKey(path []string) string {
	parts := make([]string, len(path))
	for i, k := range path {
		parts[i] = quoteKey(k)
	}
	return strings.Join(parts, ".")
}

func quoteKey(k string) string {
	if bareKey.MatchString(k) {
		return k
	}
	return quoteString(k)
}

// quoteString renders s as a TOML basic string.
func quoteString(s string) string {
	var b strings.Builder
	b.WriteByte('"')
	for _, r := range s {
		switch r {
		case '"':
			b.WriteString(`\"`)
		case '\\':
			b.WriteString(`\\`)
		case '\b':
			b.WriteString(`\b`)
		case '\t':
			b.WriteString(`\t`)
		case '\n':
			b.WriteString(`\n`)
		case '\f':
			b.WriteString(`\f`)
		case '\r':
			b.WriteString(`\r`)
		default:
			if r < 0x20 || r == 0x7f {
				fmt.Fprintf(&b, `\u%04X`, r)
				continue
			}
			b.WriteRune(r)
		}
	}
	b.WriteByte('"')
	return b.String()
}

func formatFloat(f float64) string {
	switch {
	case math.IsNaN(f):
		return "nan"
	case math.IsInf(f, 1):
		return "inf"
	case math.IsInf(f, -1):
		return "-inf"
	}
	s := strconv.FormatFloat(f, 'g', -1, 64)
	if !strings.ContainsAny(s, ".e") {
		s += ".0"
	}
	return s
}
