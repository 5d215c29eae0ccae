package self

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/creativeprojects/go-selfupdate"
	"github.com/fatih/color"
	"github.com/urfave/cli/v2"
)

// DefaultRepository is the GitHub repository releases are fetched from.
const DefaultRepository = "nightconcept/bukowski-go"

// NewSelfCommand creates a new command for self-management.
func NewSelfCommand() *cli.Command {
	return &cli.Command{
		Name:  "self",
		Usage: "Manage the bukowski CLI application itself",
		Subcommands: []*cli.Command{
			{
				Name:  "update",
				Usage: "Update bukowski to the latest version",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:    "yes",
						Aliases: []string{"y"},
						Usage:   "Automatically confirm the update",
					},
					&cli.BoolFlag{
						Name:  "check",
						Usage: "Check for available updates without installing",
					},
					&cli.StringFlag{
						Name:  "source",
						Usage: "Specify a custom GitHub update source as 'owner/repo' (e.g., '" + DefaultRepository + "')",
					},
					&cli.BoolFlag{
						Name:    "verbose",
						Usage:   "Enable verbose output",
						EnvVars: []string{"BUKOWSKI_VERBOSE"},
					},
				},
				Action: updateAction,
			},
		},
	}
}

// parseCurrentVersion accepts versions with or without a leading 'v'.
func parseCurrentVersion(v string) (*semver.Version, error) {
	return semver.NewVersion(strings.TrimPrefix(v, "v"))
}

// repositorySlug validates a custom 'owner/repo' source, falling back to
// DefaultRepository when none is given.
func repositorySlug(source string) (string, error) {
	if source == "" {
		return DefaultRepository, nil
	}
	parts := strings.Split(source, "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", fmt.Errorf("invalid --source format. Expected 'owner/repo', got: %s", source)
	}
	return source, nil
}

func updateAction(c *cli.Context) error {
	out := c.App.Writer
	currentVersionStr := c.App.Version
	verbose := c.Bool("verbose")
	logf := func(format string, args ...any) {
		if verbose {
			_, _ = fmt.Fprintf(out, format, args...)
		}
	}
	successColor := color.New(color.FgGreen).SprintFunc()

	logf("bukowski current version: %s\n", currentVersionStr)

	currentSemVer, err := parseCurrentVersion(currentVersionStr)
	if err != nil {
		return cli.Exit(fmt.Sprintf("Error parsing current version '%s': %v. Ensure version is like vX.Y.Z or X.Y.Z.", currentVersionStr, err), 1)
	}
	logf("Parsed current semantic version: %s\n", currentSemVer.String())

	repoSlug, err := repositorySlug(c.String("source"))
	if err != nil {
		return cli.Exit(fmt.Sprintf("Error: %v.", err), 1)
	}
	logf("Using GitHub source: %s\n", repoSlug)

	ghSource, err := selfupdate.NewGitHubSource(selfupdate.GitHubConfig{})
	if err != nil {
		return cli.Exit(fmt.Sprintf("Error creating GitHub source: %v", err), 1)
	}

	updater, err := selfupdate.NewUpdater(selfupdate.Config{
		Source: ghSource,
	})
	if err != nil {
		return cli.Exit(fmt.Sprintf("Failed to initialize updater: %v", err), 1)
	}

	logf("Checking for latest version...\n")
	latestRelease, found, err := updater.DetectLatest(c.Context, selfupdate.ParseSlug(repoSlug))
	if err != nil {
		return cli.Exit(fmt.Sprintf("Error detecting latest version: %v", err), 1)
	}

	if !found {
		logf("No update available (checked with source, no newer version found).\n")
		_, _ = fmt.Fprintf(out, "Current version %s is already the latest.\n", currentVersionStr)
		return nil
	}

	logf("Latest version detected: %s (Release URL: %s)\n", latestRelease.Version(), latestRelease.URL)
	if latestRelease.AssetURL != "" {
		logf("Asset URL: %s\n", latestRelease.AssetURL)
	}
	if latestRelease.ReleaseNotes != "" {
		logf("Release Notes:\n%s\n", latestRelease.ReleaseNotes)
	}

	if !latestRelease.GreaterThan(currentSemVer.String()) {
		_, _ = fmt.Fprintf(out, "Current version %s is already the latest or newer.\n", currentVersionStr)
		return nil
	}

	_, _ = fmt.Fprintf(out, "New version available: %s (current: %s)\n", latestRelease.Version(), currentVersionStr)

	if c.Bool("check") {
		return nil
	}

	if !c.Bool("yes") && !confirm(out, c.App.Reader) {
		_, _ = fmt.Fprintln(out, "Update cancelled.")
		return nil
	}

	_, _ = fmt.Fprintf(out, "Updating to %s...\n", latestRelease.Version())
	execPath, err := os.Executable()
	if err != nil {
		return cli.Exit(fmt.Sprintf("Could not get executable path: %v", err), 1)
	}
	logf("Current executable path: %s\n", execPath)

	if err := updater.UpdateTo(c.Context, latestRelease, execPath); err != nil {
		return cli.Exit(fmt.Sprintf("Failed to update: %v", err), 1)
	}

	_, _ = fmt.Fprintln(out, successColor(fmt.Sprintf("Successfully updated to version %s.", latestRelease.Version())))
	return nil
}

func confirm(out io.Writer, in io.Reader) bool {
	if in == nil {
		in = os.Stdin
	}
	_, _ = fmt.Fprint(out, "Do you want to update? (y/N): ")
	input, _ := bufio.NewReader(in).ReadString('\n')
	return strings.TrimSpace(strings.ToLower(input)) == "y"
}
