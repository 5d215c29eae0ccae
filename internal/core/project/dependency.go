package project

import (
	"github.com/nightconcept/bukowski-go/internal/core/constraint"
)

// Kind tells how a dependency is obtained.
type Kind int

const (
	// KindPlain is resolved from a package index.
	KindPlain Kind = iota
	// KindVCS is checked out from a version control repository.
	KindVCS
	// KindURL is downloaded from a direct archive URL.
	KindURL
	// KindPath is a local file or directory.
	KindPath
	// KindUnsupported is a declaration the converter cannot express.
	KindUnsupported
)

func (k Kind) String() string {
	switch k {
	case KindPlain:
		return "plain"
	case KindVCS:
		return "vcs"
	case KindURL:
		return "url"
	case KindPath:
		return "path"
	default:
		return "unsupported"
	}
}

// Dependency is one declared requirement.
type Dependency struct {
	Name             string // as written in the manifest
	Constraint       constraint.Constraint
	PrettyConstraint string
	Optional         bool
	Extras           []string
	Kind             Kind

	VCS          *VCSSource
	URL          string
	Path         string
	Develop      bool
	Subdirectory string

	// Reason explains why a KindUnsupported dependency cannot be converted.
	Reason string
}

// VCSSource locates a dependency in a version control repository.
type VCSSource struct {
	Type       string // "git"
	Repository string
	Branch     string
	Tag        string
	Rev        string
}

// NewDependency returns a plain dependency constrained by pretty, which
// must already be a valid constraint.
func NewDependency(name string, c constraint.Constraint, pretty string) *Dependency {
	return &Dependency{
		Name:             name,
		Constraint:       c,
		PrettyConstraint: pretty,
		Kind:             KindPlain,
	}
}

// IsDirect reports whether the dependency carries its own source location.
func (d *Dependency) IsDirect() bool {
	return d.Kind == KindVCS || d.Kind == KindURL || d.Kind == KindPath
}
