package constraint

import "strings"

// Render returns the requirement suffix for c, e.g. "==1.2.3" or
// ">=1.2,<2.0". pretty is the constraint text as the user wrote it. The
// second result is false when c allows any version and no suffix applies.
func Render(c Constraint, pretty string) (string, bool) {
	switch c := c.(type) {
	case Union:
		if c.ExcludesSingleVersion() || c.ExcludesSingleWildcardRange() {
			return c.String(), true
		}
		// Re-deriving the clauses from the parsed union may reorder or merge
		// them, so each clause the user wrote is rendered on its own.
		var clauses []string
		for _, clause := range strings.Split(pretty, ",") {
			clause = strings.TrimSpace(clause)
			if clause == "" {
				continue
			}
			parsed, err := Parse(clause)
			if err != nil {
				return c.String(), true
			}
			clauses = append(clauses, parsed.String())
		}
		if len(clauses) == 0 {
			return c.String(), true
		}
		return strings.Join(clauses, ","), true
	case Version:
		return "==" + c.Text(), true
	}

	if c.IsAny() {
		return "", false
	}
	return strings.ReplaceAll(c.String(), " ", ""), true
}
