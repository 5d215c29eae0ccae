package constraint

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var (
	orSeparator     = regexp.MustCompile(`\s*\|\|?\s*`)
	anyPattern      = regexp.MustCompile(`(?i)^v?[x*](\.[x*])*$`)
	pep440Tilde     = regexp.MustCompile(`^~=\s*(\S+)$`)
	tildePattern    = regexp.MustCompile(`^~\s*(\S+)$`)
	caretPattern    = regexp.MustCompile(`^\^\s*(\S+)$`)
	wildcardPattern = regexp.MustCompile(`^(!=|==)?\s*v?(\d+(?:\.\d+)*)(?:\.[xX*])+$`)
	basicPattern    = regexp.MustCompile(`^(<>|!=|>=?|<=?|==?)?\s*(\S+?)(\.\*)?$`)
	operatorOnly    = regexp.MustCompile(`^[<>=!~^]+$`)
)

// ParseError reports a constraint that does not follow the grammar.
type ParseError struct {
	Constraint string
	Err        error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("could not parse version constraint: %s: %v", e.Constraint, e.Err)
	}
	return fmt.Sprintf("could not parse version constraint: %s", e.Constraint)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Parse parses a Poetry version constraint such as "^1.2", ">=1,<2",
// "1.2.*" or "^1 || ^2".
func Parse(s string) (Constraint, error) {
	s = strings.TrimSpace(s)
	if s == "" || s == "*" {
		return Any(), nil
	}

	var result Constraint
	for _, alternative := range orSeparator.Split(s, -1) {
		alternative = strings.TrimSpace(strings.TrimRight(alternative, ","))
		clauses := splitClauses(alternative)
		if len(clauses) == 0 {
			return nil, &ParseError{Constraint: s}
		}

		var group Constraint
		for _, clause := range clauses {
			c, err := parseSingle(clause)
			if err != nil {
				return nil, err
			}
			if group == nil {
				group = c
			} else {
				group = group.Intersect(c)
			}
		}

		if result == nil {
			result = group
		} else {
			result = result.Union(group)
		}
	}
	return result, nil
}

// MustParse is like Parse but panics on malformed input.
func MustParse(s string) Constraint {
	c, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return c
}

// splitClauses splits an intersection on commas and whitespace, keeping a
// detached operator (">= 1.0") with the version that follows it.
func splitClauses(s string) []string {
	var clauses []string
	for _, chunk := range strings.Split(s, ",") {
		fields := strings.Fields(chunk)
		for i := 0; i < len(fields); i++ {
			field := fields[i]
			if operatorOnly.MatchString(field) && i+1 < len(fields) {
				field += fields[i+1]
				i++
			}
			clauses = append(clauses, field)
		}
	}
	return clauses
}

func parseSingle(c string) (Constraint, error) {
	if anyPattern.MatchString(c) {
		return Any(), nil
	}

	if m := pep440Tilde.FindStringSubmatch(c); m != nil {
		v, err := parseBound(c, m[1])
		if err != nil {
			return nil, err
		}
		high := v.stable().nextMinor()
		if len(v.release) == 2 {
			high = v.stable().nextMajor()
		}
		return closedOpen(v, high), nil
	}

	if m := tildePattern.FindStringSubmatch(c); m != nil {
		v, err := parseBound(c, m[1])
		if err != nil {
			return nil, err
		}
		high := v.stable().nextMinor()
		if len(v.release) == 1 {
			high = v.stable().nextMajor()
		}
		return closedOpen(v, high), nil
	}

	if m := caretPattern.FindStringSubmatch(c); m != nil {
		v, err := parseBound(c, m[1])
		if err != nil {
			return nil, err
		}
		return closedOpen(v, v.nextBreaking()), nil
	}

	if m := wildcardPattern.FindStringSubmatch(c); m != nil {
		return parseWildcard(m[1], m[2]), nil
	}

	if m := basicPattern.FindStringSubmatch(c); m != nil {
		text := m[2]
		if text == "dev" {
			text = "0.0-dev"
		}
		v, err := parseBound(c, text)
		if err != nil {
			return nil, err
		}
		switch m[1] {
		case "<":
			return Range{Max: &v}, nil
		case "<=":
			return Range{Max: &v, IncludeMax: true}, nil
		case ">":
			return Range{Min: &v}, nil
		case ">=":
			return Range{Min: &v, IncludeMin: true}, nil
		case "!=", "<>":
			return Union{Ranges: []Range{{Max: &v}, {Min: &v}}}, nil
		default:
			return v, nil
		}
	}

	return nil, &ParseError{Constraint: c}
}

func parseBound(clause, text string) (Version, error) {
	v, err := ParseVersion(text)
	if err != nil {
		return Version{}, &ParseError{Constraint: clause, Err: err}
	}
	return v, nil
}

func closedOpen(lo, hi Version) Range {
	return Range{Min: &lo, Max: &hi, IncludeMin: true}
}

// parseWildcard handles "1.2.*", "==1.2.*" and "!=1.2.*". Bounds are padded
// to at least three release components.
func parseWildcard(op, prefix string) Constraint {
	var parts []int
	for _, p := range strings.Split(prefix, ".") {
		n, _ := strconv.Atoi(p)
		parts = append(parts, n)
	}

	var r Range
	if len(parts) == 1 && parts[0] == 0 {
		hi := versionFromRelease(0, []int{1, 0, 0})
		r = Range{Max: &hi}
	} else {
		size := len(parts) + 1
		if size < 3 {
			size = 3
		}
		lo := make([]int, size)
		copy(lo, parts)
		hiParts := make([]int, size)
		copy(hiParts, parts)
		hiParts[len(parts)-1]++
		r = closedOpen(versionFromRelease(0, lo), versionFromRelease(0, hiParts))
	}

	if op == "!=" {
		return complement(r)
	}
	return r
}
