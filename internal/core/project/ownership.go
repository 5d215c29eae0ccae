package project

import (
	"fmt"
	"strings"
)

// Ownership is an author or maintainer entry.
type Ownership struct {
	Name  string
	Email string
}

// MalformedOwnershipError is returned for entries not of the form
// "Name <email>".
type MalformedOwnershipError struct {
	Raw string
}

func (e *MalformedOwnershipError) Error() string {
	return fmt.Sprintf("malformed author or maintainer '%s': expected 'Name <email>'", e.Raw)
}

// ParseOwnership splits "Name <email>" on the first " <".
func ParseOwnership(raw string) (Ownership, error) {
	name, email, found := strings.Cut(raw, " <")
	if !found {
		return Ownership{}, &MalformedOwnershipError{Raw: raw}
	}
	return Ownership{
		Name:  strings.TrimSpace(name),
		Email: strings.TrimSuffix(email, ">"),
	}, nil
}

// ParseOwnerships parses every entry, stopping at the first malformed one.
func ParseOwnerships(raws []string) ([]Ownership, error) {
	owners := make([]Ownership, 0, len(raws))
	for _, raw := range raws {
		o, err := ParseOwnership(raw)
		if err != nil {
			return nil, err
		}
		owners = append(owners, o)
	}
	return owners, nil
}
