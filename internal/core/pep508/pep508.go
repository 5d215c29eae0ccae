// Package pep508 renders dependency records as PEP 508 requirement strings.
package pep508

import (
	"regexp"
	"strings"

	"github.com/nightconcept/bukowski-go/internal/core/constraint"
	"github.com/nightconcept/bukowski-go/internal/core/project"
)

var (
	invalidRun   = regexp.MustCompile(`[^A-Za-z0-9._-]+`)
	separatorRun = regexp.MustCompile(`[-_.]+`)
)

// NormalizeName replaces every run of characters outside [A-Za-z0-9._-]
// with "-" and canonicalizes the result per PEP 503: lowercase, with runs of
// ".", "_" and "-" collapsed to a single "-".
func NormalizeName(name string) string {
	name = invalidRun.ReplaceAllString(name, "-")
	return strings.ToLower(separatorRun.ReplaceAllString(name, "-"))
}

// Requirement renders d as "name[extras]<constraint>".
func Requirement(d *project.Dependency) string {
	var b strings.Builder
	b.WriteString(NormalizeName(d.Name))
	if len(d.Extras) > 0 {
		extras := make([]string, len(d.Extras))
		for i, e := range d.Extras {
			extras[i] = NormalizeName(e)
		}
		b.WriteString("[" + strings.Join(extras, ",") + "]")
	}
	if d.Constraint != nil {
		if suffix, ok := constraint.Render(d.Constraint, d.PrettyConstraint); ok {
			b.WriteString(suffix)
		}
	}
	return b.String()
}

// Requirements renders every dependency in order.
func Requirements(deps []*project.Dependency) []string {
	out := make([]string, 0, len(deps))
	for _, d := range deps {
		out = append(out, Requirement(d))
	}
	return out
}
