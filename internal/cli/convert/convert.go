package convert

import (
	"errors"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/urfave/cli/v2"

	"github.com/nightconcept/bukowski-go/internal/core/config"
	"github.com/nightconcept/bukowski-go/internal/core/convert"
	"github.com/nightconcept/bukowski-go/internal/core/poetry"
)

// ConvertCommand defines the 'convert' CLI command.
func ConvertCommand() *cli.Command {
	return &cli.Command{
		Name:      "convert",
		Usage:     "Converts a Poetry pyproject.toml into a uv pyproject.toml",
		ArgsUsage: "[PATH]",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:    "force-overwrite",
				Aliases: []string{"f"},
				Usage:   "Overwrite PATH instead of printing the converted manifest",
			},
			&cli.BoolFlag{
				Name:    "verbose",
				Usage:   "Trace each conversion step on stderr",
				EnvVars: []string{"BUKOWSKI_VERBOSE"},
			},
		},
		Action: convertAction,
	}
}

func convertAction(c *cli.Context) error {
	if c.NArg() > 1 {
		return cli.Exit("Error: Too many arguments. Expected at most one path.", 1)
	}
	path := config.ResolvePyproject(c.Args().First())

	errColor := color.New(color.FgRed).SprintFunc()
	traceColor := color.New(color.Faint).SprintFunc()
	successColor := color.New(color.FgGreen).SprintFunc()

	m, err := poetry.Load(path)
	if err != nil {
		var verr *poetry.ValidationError
		switch {
		case errors.Is(err, os.ErrNotExist):
			return cli.Exit(errColor(fmt.Sprintf("Error: %s not found.", path)), 1)
		case errors.As(err, &verr):
			return cli.Exit(errColor(verr.Error()), 1)
		default:
			return cli.Exit(errColor(fmt.Sprintf("Error: %v", err)), 1)
		}
	}

	converter := convert.New()
	if c.Bool("verbose") {
		converter.OnStep = func(name string) {
			_, _ = fmt.Fprintln(c.App.ErrWriter, traceColor("step: "+name))
		}
	}

	out, err := converter.ConvertToTOML(m)
	if err != nil {
		return cli.Exit(errColor(fmt.Sprintf("Error: %v", err)), 1)
	}

	if !c.Bool("force-overwrite") {
		_, err = c.App.Writer.Write(out)
		return err
	}

	if err := config.WritePyproject(path, out); err != nil {
		return cli.Exit(errColor(fmt.Sprintf("Error: Failed to write %s: %v", path, err)), 1)
	}
	_, _ = fmt.Fprintln(c.App.ErrWriter, successColor(fmt.Sprintf("Converted %s to uv.", path)))
	return nil
}
