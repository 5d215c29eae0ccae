package main

import (
	"log"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/nightconcept/bukowski-go/internal/cli/convert"
	"github.com/nightconcept/bukowski-go/internal/cli/self"
)

// Version is overridden at build time with -ldflags "-X main.Version=...".
var Version = "v0.1.0"

func newApp() *cli.App {
	return &cli.App{
		Name:    "bukowski",
		Usage:   "Convert Poetry projects to uv",
		Version: Version,
		Action: func(c *cli.Context) error {
			// Default action if no command is specified
			_ = cli.ShowAppHelp(c)
			return nil
		},
		Commands: []*cli.Command{
			convert.ConvertCommand(),
			self.NewSelfCommand(),
		},
	}
}

func main() {
	if err := newApp().Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
