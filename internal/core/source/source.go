// Package source normalizes the repository locations of VCS dependencies
// into the URL forms uv accepts.
package source

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

// scpLike matches the scp-style shorthand "user@host:path" used by git.
var scpLike = regexp.MustCompile(`^([A-Za-z0-9._~-]+@)?([A-Za-z0-9.-]+):([^/][^:]*)$`)

// NormalizeGitURL returns the form of a git repository location written to
// tool.uv.sources. Poetry accepts scp-style locations such as
// git@github.com:org/repo.git; uv needs a URL, so those are rewritten to
// ssh://git@github.com/org/repo.git. A "git+" scheme prefix is dropped.
func NormalizeGitURL(raw string) (string, error) {
	location := strings.TrimSpace(raw)
	if location == "" {
		return "", fmt.Errorf("empty git repository location")
	}

	if m := scpLike.FindStringSubmatch(location); m != nil && !strings.Contains(location, "://") {
		location = fmt.Sprintf("ssh://%s%s/%s", m[1], m[2], strings.TrimPrefix(m[3], "/"))
	}
	location = strings.TrimPrefix(location, "git+")

	u, err := url.Parse(location)
	if err != nil {
		return "", fmt.Errorf("failed to parse git repository location '%s': %w", raw, err)
	}
	switch u.Scheme {
	case "https", "http", "ssh", "git", "file":
		return location, nil
	case "":
		return "", fmt.Errorf("git repository location '%s' has no scheme", raw)
	default:
		return "", fmt.Errorf("unsupported git repository scheme '%s' in '%s'", u.Scheme, raw)
	}
}
