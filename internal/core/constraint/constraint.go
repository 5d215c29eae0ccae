// Package constraint implements Poetry's version constraint language on top
// of PEP 440 versions: exact versions, ranges, unions of ranges, "any" and
// the empty constraint.
package constraint

import (
	"sort"
	"strings"
)

// Constraint is a set of allowed versions.
type Constraint interface {
	String() string
	IsAny() bool
	IsEmpty() bool
	Allows(v Version) bool
	Intersect(other Constraint) Constraint
	Union(other Constraint) Constraint
}

// Any returns the constraint that allows every version.
func Any() Constraint { return Range{} }

// Range is a contiguous interval of versions. A nil bound is unbounded.
type Range struct {
	Min        *Version
	Max        *Version
	IncludeMin bool
	IncludeMax bool
}

// String renders the range as ">=min,<max", or "*" when unbounded.
func (r Range) String() string {
	if r.Min == nil && r.Max == nil {
		return "*"
	}
	var b strings.Builder
	if r.Min != nil {
		if r.IncludeMin {
			b.WriteString(">=")
		} else {
			b.WriteString(">")
		}
		b.WriteString(r.Min.Text())
	}
	if r.Max != nil {
		if r.Min != nil {
			b.WriteString(",")
		}
		if r.IncludeMax {
			b.WriteString("<=")
		} else {
			b.WriteString("<")
		}
		b.WriteString(r.Max.Text())
	}
	return b.String()
}

// IsAny implements Constraint.
func (r Range) IsAny() bool { return r.Min == nil && r.Max == nil }

// IsEmpty implements Constraint.
func (r Range) IsEmpty() bool { return r.empty() }

// Allows implements Constraint.
func (r Range) Allows(v Version) bool {
	if r.Min != nil {
		c := v.Compare(*r.Min)
		if c < 0 || (c == 0 && !r.IncludeMin) {
			return false
		}
	}
	if r.Max != nil {
		c := v.Compare(*r.Max)
		if c > 0 || (c == 0 && !r.IncludeMax) {
			return false
		}
	}
	return true
}

// Intersect implements Constraint.
func (r Range) Intersect(o Constraint) Constraint { return intersect(r, o) }

// Union implements Constraint.
func (r Range) Union(o Constraint) Constraint { return union(r, o) }

func (r Range) empty() bool {
	if r.Min == nil || r.Max == nil {
		return false
	}
	c := r.Min.Compare(*r.Max)
	return c > 0 || (c == 0 && !(r.IncludeMin && r.IncludeMax))
}

func (r Range) isPoint() bool {
	return r.Min != nil && r.Max != nil && r.IncludeMin && r.IncludeMax && r.Min.Compare(*r.Max) == 0
}

// Union is a sorted list of disjoint, non-adjacent ranges.
type Union struct {
	Ranges []Range
}

// String renders "!=v" and "!=1.2.*" exclusions in their short form and
// anything else as ranges joined by " || ".
func (u Union) String() string {
	if u.ExcludesSingleVersion() {
		return "!=" + u.Ranges[0].Max.Text()
	}
	if prefix, ok := u.excludedWildcard(); ok {
		return "!=" + prefix + ".*"
	}
	parts := make([]string, len(u.Ranges))
	for i, r := range u.Ranges {
		parts[i] = r.String()
	}
	return strings.Join(parts, " || ")
}

// IsAny implements Constraint.
func (u Union) IsAny() bool { return false }

// IsEmpty implements Constraint.
func (u Union) IsEmpty() bool { return false }

// Allows implements Constraint.
func (u Union) Allows(v Version) bool {
	for _, r := range u.Ranges {
		if r.Allows(v) {
			return true
		}
	}
	return false
}

// Intersect implements Constraint.
func (u Union) Intersect(o Constraint) Constraint { return intersect(u, o) }

// Union implements Constraint.
func (u Union) Union(o Constraint) Constraint { return union(u, o) }

// ExcludesSingleVersion reports whether u allows everything but one version.
func (u Union) ExcludesSingleVersion() bool {
	if !u.isSplit() {
		return false
	}
	lo, hi := u.Ranges[0], u.Ranges[1]
	return !lo.IncludeMax && !hi.IncludeMin && lo.Max.Compare(*hi.Min) == 0
}

// ExcludesSingleWildcardRange reports whether u allows everything except a
// wildcard range such as 1.2.*.
func (u Union) ExcludesSingleWildcardRange() bool {
	_, ok := u.excludedWildcard()
	return ok
}

// isSplit reports the shape "<a || >b": two ranges unbounded on the outside.
func (u Union) isSplit() bool {
	return len(u.Ranges) == 2 &&
		u.Ranges[0].Min == nil && u.Ranges[0].Max != nil &&
		u.Ranges[1].Max == nil && u.Ranges[1].Min != nil
}

// excludedWildcard returns the release prefix P when u is "<P.0 || >=P'"
// where P' is P with its last component bumped.
func (u Union) excludedWildcard() (string, bool) {
	if !u.isSplit() {
		return "", false
	}
	lo, hi := u.Ranges[0], u.Ranges[1]
	if lo.IncludeMax || !hi.IncludeMin || !lo.Max.IsStable() || !hi.Min.IsStable() {
		return "", false
	}
	release := lo.Max.release
	for n := 1; n <= len(release); n++ {
		if !allZero(release[n:]) {
			continue
		}
		bumped := append([]int(nil), release[:n]...)
		bumped[n-1]++
		if versionFromRelease(lo.Max.epoch, bumped).Compare(*hi.Min) == 0 {
			return versionFromRelease(lo.Max.epoch, release[:n]).Text(), true
		}
	}
	return "", false
}

func allZero(xs []int) bool {
	for _, x := range xs {
		if x != 0 {
			return false
		}
	}
	return true
}

// Empty allows no version at all.
type Empty struct{}

// String implements Constraint.
func (Empty) String() string { return "<empty>" }

// IsAny implements Constraint.
func (Empty) IsAny() bool { return false }

// IsEmpty implements Constraint.
func (Empty) IsEmpty() bool { return true }

// Allows implements Constraint.
func (Empty) Allows(Version) bool { return false }

// Intersect implements Constraint.
func (Empty) Intersect(Constraint) Constraint { return Empty{} }

// Union implements Constraint.
func (e Empty) Union(o Constraint) Constraint { return union(e, o) }

func ranges(c Constraint) []Range {
	switch c := c.(type) {
	case Version:
		v := c
		return []Range{{Min: &v, Max: &v, IncludeMin: true, IncludeMax: true}}
	case Range:
		if c.empty() {
			return nil
		}
		return []Range{c}
	case Union:
		return c.Ranges
	default:
		return nil
	}
}

func intersect(a, b Constraint) Constraint {
	var out []Range
	for _, x := range ranges(a) {
		for _, y := range ranges(b) {
			if r := intersectRanges(x, y); !r.empty() {
				out = append(out, r)
			}
		}
	}
	return fromRanges(out)
}

func union(a, b Constraint) Constraint {
	return fromRanges(append(append([]Range(nil), ranges(a)...), ranges(b)...))
}

// complement returns every version not allowed by r.
func complement(r Range) Constraint {
	var out []Range
	if r.Min != nil {
		out = append(out, Range{Max: r.Min, IncludeMax: !r.IncludeMin})
	}
	if r.Max != nil {
		out = append(out, Range{Min: r.Max, IncludeMin: !r.IncludeMax})
	}
	return fromRanges(out)
}

func intersectRanges(a, b Range) Range {
	out := a
	if b.Min != nil {
		if out.Min == nil {
			out.Min, out.IncludeMin = b.Min, b.IncludeMin
		} else if c := b.Min.Compare(*out.Min); c > 0 || (c == 0 && !b.IncludeMin) {
			out.Min, out.IncludeMin = b.Min, b.IncludeMin
		}
	}
	if b.Max != nil {
		if out.Max == nil {
			out.Max, out.IncludeMax = b.Max, b.IncludeMax
		} else if c := b.Max.Compare(*out.Max); c < 0 || (c == 0 && !b.IncludeMax) {
			out.Max, out.IncludeMax = b.Max, b.IncludeMax
		}
	}
	return out
}

// lowerBefore orders ranges by their lower bound.
func lowerBefore(a, b Range) bool {
	if a.Min == nil || b.Min == nil {
		return a.Min == nil && b.Min != nil
	}
	if c := a.Min.Compare(*b.Min); c != 0 {
		return c < 0
	}
	return a.IncludeMin && !b.IncludeMin
}

// touches reports whether b (starting at or after a) overlaps or abuts a.
func touches(a, b Range) bool {
	if a.Max == nil || b.Min == nil {
		return true
	}
	c := a.Max.Compare(*b.Min)
	return c > 0 || (c == 0 && (a.IncludeMax || b.IncludeMin))
}

func fromRanges(rs []Range) Constraint {
	sort.SliceStable(rs, func(i, j int) bool { return lowerBefore(rs[i], rs[j]) })

	var merged []Range
	for _, r := range rs {
		if r.empty() {
			continue
		}
		if n := len(merged); n > 0 && touches(merged[n-1], r) {
			last := &merged[n-1]
			if last.Max != nil {
				if r.Max == nil {
					last.Max, last.IncludeMax = nil, false
				} else if c := r.Max.Compare(*last.Max); c > 0 || (c == 0 && r.IncludeMax) {
					last.Max, last.IncludeMax = r.Max, r.IncludeMax
				}
			}
			continue
		}
		merged = append(merged, r)
	}

	switch len(merged) {
	case 0:
		return Empty{}
	case 1:
		if merged[0].isPoint() {
			return *merged[0].Min
		}
		return merged[0]
	default:
		return Union{Ranges: merged}
	}
}
