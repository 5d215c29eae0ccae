// Package document is an ordered TOML document model whose encoder keeps
// insertion order, renders inline tables and multi-line arrays as built, and
// emits verbatim sections copied from another document untouched.
package document

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"
)

// ErrKeyExists is returned when inserting a key that is already present.
var ErrKeyExists = errors.New("key already exists")

// Value is any TOML value held by a Table.
type Value interface {
	isValue()
}

// String is a TOML basic string.
type String string

// Bool is a TOML boolean.
type Bool bool

// Integer is a TOML integer.
type Integer int64

// Float is a TOML float.
type Float float64

// Datetime is a TOML date, time or date-time, kept in its textual form.
type Datetime string

// Array is a TOML array. Multiline arrays render one item per line with a
// trailing comma.
type Array struct {
	Items     []Value
	Multiline bool
}

// InlineTable renders as { key = value, ... } on a single line.
type InlineTable struct {
	*Table
}

// Raw holds one or more complete TOML sections (headers included) that are
// written out verbatim.
type Raw struct {
	Text string
}

func (String) isValue()      {}
func (Bool) isValue()        {}
func (Integer) isValue()     {}
func (Float) isValue()       {}
func (Datetime) isValue()    {}
func (*Array) isValue()      {}
func (InlineTable) isValue() {}
func (*Raw) isValue()        {}
func (*Table) isValue()      {}

// Table is an ordered mapping. A *Table nested in another Table renders as a
// [section]; wrap it in InlineTable to render it inline.
type Table struct {
	keys   []string
	values map[string]Value
}

// NewTable returns an empty table.
func NewTable() *Table {
	return &Table{values: make(map[string]Value)}
}

// NewInlineTable returns an empty inline table.
func NewInlineTable() InlineTable {
	return InlineTable{Table: NewTable()}
}

// Document is the root table of a TOML document.
type Document = Table

// New returns an empty document.
func New() *Document { return NewTable() }

// Keys returns the keys in insertion order.
func (t *Table) Keys() []string {
	return append([]string(nil), t.keys...)
}

// Len returns the number of keys.
func (t *Table) Len() int { return len(t.keys) }

// Has reports whether key is present.
func (t *Table) Has(key string) bool {
	_, ok := t.values[key]
	return ok
}

// Get returns the value stored under key.
func (t *Table) Get(key string) (Value, bool) {
	v, ok := t.values[key]
	return v, ok
}

// Insert adds key, refusing to overwrite an existing entry.
func (t *Table) Insert(key string, v Value) error {
	if t.Has(key) {
		return fmt.Errorf("%w: %s", ErrKeyExists, key)
	}
	t.keys = append(t.keys, key)
	t.values[key] = v
	return nil
}

// Set adds or replaces key. Replacing keeps the original position.
func (t *Table) Set(key string, v Value) {
	if !t.Has(key) {
		t.keys = append(t.keys, key)
	}
	t.values[key] = v
}

// Child returns the sub-table stored under key, creating it when absent.
// It fails if key holds something other than a table.
func (t *Table) Child(key string) (*Table, error) {
	v, ok := t.values[key]
	if !ok {
		sub := NewTable()
		t.Set(key, sub)
		return sub, nil
	}
	sub, ok := v.(*Table)
	if !ok {
		return nil, fmt.Errorf("key %s is not a table", key)
	}
	return sub, nil
}

// Path walks a dotted path of sub-tables, creating missing ones.
func (t *Table) Path(keys ...string) (*Table, error) {
	cur := t
	for i, k := range keys {
		next, err := cur.Child(k)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", strings.Join(keys[:i+1], "."), err)
		}
		cur = next
	}
	return cur, nil
}

// Strings builds an array of strings.
func Strings(items []string, multiline bool) *Array {
	a := &Array{Multiline: multiline}
	for _, s := range items {
		a.Items = append(a.Items, String(s))
	}
	return a
}

// Layout records how a decoded document was written, which a plain
// map[string]any loses: every key path in declaration order, and the paths
// declared by [table] headers.
type Layout struct {
	Order   [][]string
	Headers [][]string
}

// FromGo converts a decoded TOML value found at path into a Value. Map keys
// follow declaration order (keys missing from Order are appended sorted).
// Maps at or above a [table] header become tables, other maps inline tables.
func (l Layout) FromGo(v any, path []string) (Value, error) {
	return l.fromGo(v, path, false)
}

func (l Layout) fromGo(v any, path []string, inline bool) (Value, error) {
	switch v := v.(type) {
	case string:
		return String(v), nil
	case bool:
		return Bool(v), nil
	case int64:
		return Integer(v), nil
	case int:
		return Integer(v), nil
	case float64:
		return Float(v), nil
	case time.Time:
		return Datetime(formatDatetime(v)), nil
	case []map[string]any:
		arr := &Array{Multiline: true}
		for _, item := range v {
			sub, err := l.fromMap(item, path, true)
			if err != nil {
				return nil, err
			}
			arr.Items = append(arr.Items, sub)
		}
		return arr, nil
	case []any:
		arr := &Array{Multiline: len(v) > 3}
		for _, item := range v {
			iv, err := l.fromGo(item, path, true)
			if err != nil {
				return nil, err
			}
			arr.Items = append(arr.Items, iv)
		}
		return arr, nil
	case map[string]any:
		return l.fromMap(v, path, inline || !l.declaresTable(path))
	default:
		return nil, fmt.Errorf("unsupported TOML value of type %T at %s", v, strings.Join(path, "."))
	}
}

func (l Layout) fromMap(m map[string]any, path []string, inline bool) (Value, error) {
	t := NewTable()
	for _, k := range l.Keys(m, path) {
		sub, err := l.fromGo(m[k], append(append([]string(nil), path...), k), inline)
		if err != nil {
			return nil, err
		}
		t.Set(k, sub)
	}
	if inline {
		return InlineTable{Table: t}, nil
	}
	return t, nil
}

func (l Layout) declaresTable(path []string) bool {
	for _, h := range l.Headers {
		if HasPathPrefix(h, path) {
			return true
		}
	}
	return false
}

// formatDatetime renders local dates and times without an offset. The TOML
// decoder marks them with dedicated locations.
func formatDatetime(t time.Time) string {
	switch t.Location().String() {
	case "date-local":
		return t.Format("2006-01-02")
	case "time-local":
		return t.Format("15:04:05.999999999")
	case "datetime-local":
		return t.Format("2006-01-02T15:04:05.999999999")
	default:
		return t.Format(time.RFC3339Nano)
	}
}

// Keys returns the keys of the table m found at path in declaration order.
// Keys the layout does not know are appended in sorted order.
func (l Layout) Keys(m map[string]any, path []string) []string {
	seen := make(map[string]bool, len(m))
	var keys []string
	for _, full := range l.Order {
		if len(full) != len(path)+1 || !HasPathPrefix(full, path) {
			continue
		}
		k := full[len(path)]
		if _, ok := m[k]; ok && !seen[k] {
			seen[k] = true
			keys = append(keys, k)
		}
	}
	var rest []string
	for k := range m {
		if !seen[k] {
			rest = append(rest, k)
		}
	}
	sort.Strings(rest)
	return append(keys, rest...)
}

// HasPathPrefix reports whether the key path full starts with prefix.
func HasPathPrefix(full, prefix []string) bool {
	if len(full) < len(prefix) {
		return false
	}
	for i := range prefix {
		if full[i] != prefix[i] {
			return false
		}
	}
	return true
}
