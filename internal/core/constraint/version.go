package constraint

import (
	"fmt"
	"strconv"
	"strings"

	pep440 "github.com/aquasecurity/go-pep440-version"
)

// Version is a PEP 440 version. It keeps the text it was parsed from so that
// rendering never rewrites what the user wrote.
type Version struct {
	text    string
	parsed  pep440.Version
	epoch   int
	release []int
}

// ParseVersion parses a PEP 440 version string.
func ParseVersion(s string) (Version, error) {
	text := strings.TrimSpace(s)
	parsed, err := pep440.Parse(text)
	if err != nil {
		return Version{}, fmt.Errorf("invalid PEP 440 version: '%s'", s)
	}
	v := Version{text: text, parsed: parsed}

	base := parsed.BaseVersion()
	if i := strings.IndexByte(base, '!'); i >= 0 {
		v.epoch, _ = strconv.Atoi(base[:i])
		base = base[i+1:]
	}
	for _, part := range strings.Split(base, ".") {
		n, _ := strconv.Atoi(part)
		v.release = append(v.release, n)
	}
	return v, nil
}

// MustParseVersion is like ParseVersion but panics on malformed input.
func MustParseVersion(s string) Version {
	v, err := ParseVersion(s)
	if err != nil {
		panic(err)
	}
	return v
}

// versionFromRelease builds a final release version and derives its text
// from the components.
func versionFromRelease(epoch int, release []int) Version {
	parts := make([]string, len(release))
	for i, n := range release {
		parts[i] = strconv.Itoa(n)
	}
	text := strings.Join(parts, ".")
	if epoch > 0 {
		text = strconv.Itoa(epoch) + "!" + text
	}
	return Version{
		text:    text,
		parsed:  pep440.MustParse(text),
		epoch:   epoch,
		release: append([]int(nil), release...),
	}
}

// Text returns the version exactly as written.
func (v Version) Text() string { return v.text }

// String implements Constraint. An exact version renders as its text.
func (v Version) String() string { return v.text }

// Release returns a copy of the release segment.
func (v Version) Release() []int { return append([]int(nil), v.release...) }

// IsStable reports whether v is neither a pre-release nor a dev release.
func (v Version) IsStable() bool { return !v.parsed.IsPreRelease() }

// IsAny implements Constraint.
func (v Version) IsAny() bool { return false }

// IsEmpty implements Constraint.
func (v Version) IsEmpty() bool { return false }

// Allows implements Constraint.
func (v Version) Allows(o Version) bool { return v.Compare(o) == 0 }

// Intersect implements Constraint.
func (v Version) Intersect(o Constraint) Constraint { return intersect(v, o) }

// Union implements Constraint.
func (v Version) Union(o Constraint) Constraint { return union(v, o) }

// Equal reports whether v and o denote the same version.
func (v Version) Equal(o Version) bool { return v.Compare(o) == 0 }

// Compare orders versions per PEP 440: -1, 0 or +1.
func (v Version) Compare(o Version) int { return v.parsed.Compare(o.parsed) }

// stable drops the pre-release and dev segments.
func (v Version) stable() Version {
	if v.IsStable() {
		return v
	}
	return versionFromRelease(v.epoch, v.release)
}

// nextMajor bumps the major component, keeping the written precision.
func (v Version) nextMajor() Version {
	r := make([]int, len(v.release))
	r[0] = v.release[0] + 1
	return versionFromRelease(v.epoch, r)
}

func (v Version) nextMinor() Version {
	if len(v.release) == 1 {
		return versionFromRelease(v.epoch, []int{v.release[0], 1})
	}
	r := make([]int, len(v.release))
	r[0] = v.release[0]
	r[1] = v.release[1] + 1
	return versionFromRelease(v.epoch, r)
}

func (v Version) nextPatch() Version {
	if len(v.release) < 3 {
		r := []int{v.release[0], 0, 1}
		if len(v.release) == 2 {
			r[1] = v.release[1]
		}
		return versionFromRelease(v.epoch, r)
	}
	r := make([]int, len(v.release))
	copy(r, v.release[:2])
	r[2] = v.release[2] + 1
	return versionFromRelease(v.epoch, r)
}

// nextBreaking is the first version a caret constraint excludes.
func (v Version) nextBreaking() Version {
	s := v.stable()
	switch {
	case s.release[0] > 0 || len(s.release) == 1:
		return s.nextMajor()
	case s.release[1] > 0 || len(s.release) == 2:
		return s.nextMinor()
	default:
		return s.nextPatch()
	}
}
