package main

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/urfave/cli/v2"
)

const VERSION = "v0.1.0"

func makeApp(stdin io.Reader, stdout, stderr io.Writer) *cli.App {
	app := cli.NewApp()
	app.Name = "kolab"
	app.Version = VERSION
	app.Usage = "Read, write and export Kolab groupware objects and folders."
	app.Writer = stdout
	app.ErrWriter = stderr
	app.Reader = stdin
	app.Flags = []cli.Flag{
		&cli.StringFlag{
			Name:      "config",
			Aliases:   []string{"c"},
			Usage:     "Read settings from a TOML file",
			TakesFile: true,
			EnvVars:   []string{"KOLAB_CONFIG"},
		},
		&cli.StringFlag{
			Name:  "log-level",
			Usage: "Override the log level (debug, info, warn, error)",
		},
		&cli.BoolFlag{
			Name:  "relaxed",
			Usage: "Accept slightly invalid Kolab XML",
		},
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "Output format for structured data (json or yaml)",
			Value:   "json",
		},
	}
	app.ExitErrHandler = exitErrHandler
	app.Commands = []*cli.Command{
		&parseCmdDef,
		&renderCmdDef,
		&exportCmdDef,
		&occurrencesCmdDef,
		&foldersCmdDef,
	}
	return app
}

// Called after a command returns an non-nil error value.
// Prints the formatted error to stderr.
func exitErrHandler(c *cli.Context, err error) {
	if err == nil {
		return
	}
	color.New(color.FgHiRed, color.Bold).Fprint(c.App.ErrWriter, "error:")
	fmt.Fprintf(c.App.ErrWriter, " %s\n", err)
}

func main() {
	if err := makeApp(os.Stdin, os.Stdout, os.Stderr).Run(os.Args); err != nil {
		os.Exit(1)
	}
}
