package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"

	"github.com/cyp0633/libkolab/config"
	"github.com/cyp0633/libkolab/format"
	"github.com/cyp0633/libkolab/format/date"
)

// setup reads the configuration and applies the global flags.
func setup(c *cli.Context) (*config.Config, *slog.Logger, error) {
	conf := config.Default()
	if path := c.String("config"); path != "" {
		var err error
		if conf, err = config.Load(path); err != nil {
			return nil, nil, err
		}
	}
	if level := c.String("log-level"); level != "" {
		conf.LogLevel = level
	}
	if c.Bool("relaxed") {
		conf.Format.Relaxed = true
	}
	level, err := conf.SlogLevel()
	if err != nil {
		return nil, nil, err
	}
	logger := slog.New(slog.NewTextHandler(c.App.ErrWriter, &slog.HandlerOptions{Level: level}))
	return conf, logger, nil
}

func newFormat(c *cli.Context, conf *config.Config, logger *slog.Logger) (format.Format, error) {
	return format.New(c.String("kind"), conf.FormatOptions(logger)...)
}

// readInput reads a named file, or stdin for "" and "-".
func readInput(c *cli.Context, name string) ([]byte, error) {
	if name == "" || name == "-" {
		return io.ReadAll(c.App.Reader)
	}
	data, err := os.ReadFile(name)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", name, err)
	}
	return data, nil
}

// inputs returns the file arguments, or stdin if there are none.
func inputs(c *cli.Context) []string {
	if c.NArg() == 0 {
		return []string{"-"}
	}
	return c.Args().Slice()
}

func writeStructured(c *cli.Context, v any) error {
	switch c.String("output") {
	case "yaml":
		enc := yaml.NewEncoder(c.App.Writer)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	case "json":
		enc := json.NewEncoder(c.App.Writer)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
	return fmt.Errorf("unknown output format %q", c.String("output"))
}

// plain replaces time values with their Kolab text form so that objects
// serialize the way they are written in XML.
func plain(v any) any {
	switch t := v.(type) {
	case format.Object:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[k] = plain(val)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = plain(val)
		}
		return out
	case format.DateTime:
		return t.String()
	case time.Time:
		return date.EncodeDateTime(t)
	}
	return v
}
