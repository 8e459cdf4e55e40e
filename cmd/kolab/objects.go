package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/emersion/go-ical"
	"github.com/emersion/go-vcard"
	"github.com/urfave/cli/v2"

	"github.com/cyp0633/libkolab/export"
	"github.com/cyp0633/libkolab/format"
	"github.com/cyp0633/libkolab/format/date"
	"github.com/cyp0633/libkolab/recurrence"
)

func kindFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "kind",
		Aliases: []string{"k"},
		Usage:   "Object kind (contact, distribution-list, event, note, task, h-prefs)",
		Value:   "event",
	}
}

var parseCmdDef = cli.Command{
	Name:      "parse",
	Usage:     "Read Kolab XML and print the object as JSON or YAML",
	ArgsUsage: "[file...]",
	Flags:     []cli.Flag{kindFlag()},
	Action:    cmdParse,
}

var renderCmdDef = cli.Command{
	Name:      "render",
	Usage:     "Read a JSON object and write it as Kolab XML",
	ArgsUsage: "[file]",
	Flags: []cli.Flag{
		kindFlag(),
		&cli.StringFlag{
			Name:      "previous",
			Usage:     "Kolab XML of the stored object, to keep unknown elements",
			TakesFile: true,
		},
	},
	Action: cmdRender,
}

var exportCmdDef = cli.Command{
	Name:      "export",
	Usage:     "Convert events and tasks to iCalendar, contacts to vCard",
	ArgsUsage: "[file...]",
	Flags:     []cli.Flag{kindFlag()},
	Action:    cmdExport,
}

var occurrencesCmdDef = cli.Command{
	Name:      "occurrences",
	Usage:     "List the occurrences of a recurring event or task",
	ArgsUsage: "[file]",
	Flags: []cli.Flag{
		kindFlag(),
		&cli.TimestampFlag{
			Name:     "from",
			Usage:    "Start of the range (YYYY-MM-DD)",
			Layout:   "2006-01-02",
			Timezone: time.UTC,
			Required: true,
		},
		&cli.TimestampFlag{
			Name:     "to",
			Usage:    "End of the range (YYYY-MM-DD)",
			Layout:   "2006-01-02",
			Timezone: time.UTC,
			Required: true,
		},
	},
	Action: cmdOccurrences,
}

func cmdParse(c *cli.Context) error {
	conf, logger, err := setup(c)
	if err != nil {
		return err
	}
	f, err := newFormat(c, conf, logger)
	if err != nil {
		return err
	}

	var objects []any
	for _, name := range inputs(c) {
		data, err := readInput(c, name)
		if err != nil {
			return err
		}
		obj, err := f.Load(bytes.NewReader(data))
		if err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		objects = append(objects, plain(obj))
	}
	if len(objects) == 1 {
		return writeStructured(c, objects[0])
	}
	return writeStructured(c, objects)
}

func cmdRender(c *cli.Context) error {
	conf, logger, err := setup(c)
	if err != nil {
		return err
	}
	f, err := newFormat(c, conf, logger)
	if err != nil {
		return err
	}

	data, err := readInput(c, c.Args().First())
	if err != nil {
		return err
	}
	var obj format.Object
	if err := json.Unmarshal(data, &obj); err != nil {
		return fmt.Errorf("invalid JSON object: %w", err)
	}

	var opts []format.SaveOption
	if path := c.String("previous"); path != "" {
		previous, err := readInput(c, path)
		if err != nil {
			return err
		}
		opts = append(opts, format.WithPrevious(previous))
	}
	xml, err := f.Save(obj, opts...)
	if err != nil {
		return err
	}
	_, err = c.App.Writer.Write(xml)
	return err
}

func cmdExport(c *cli.Context) error {
	conf, logger, err := setup(c)
	if err != nil {
		return err
	}
	f, err := newFormat(c, conf, logger)
	if err != nil {
		return err
	}

	var components []*ical.Component
	var cards []vcard.Card
	for _, name := range inputs(c) {
		data, err := readInput(c, name)
		if err != nil {
			return err
		}
		obj, err := f.Load(bytes.NewReader(data))
		if err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		switch f.Kind() {
		case "event":
			comp, err := export.EventToICal(obj)
			if err != nil {
				return fmt.Errorf("%s: %w", name, err)
			}
			components = append(components, comp)
		case "task":
			comp, err := export.TaskToICal(obj)
			if err != nil {
				return fmt.Errorf("%s: %w", name, err)
			}
			components = append(components, comp)
		case "contact":
			card, err := export.ContactToVCard(obj)
			if err != nil {
				return fmt.Errorf("%s: %w", name, err)
			}
			cards = append(cards, card)
		default:
			return fmt.Errorf("objects of kind %s cannot be exported", f.Kind())
		}
	}

	if len(cards) > 0 {
		return export.EncodeCard(c.App.Writer, cards...)
	}
	return export.EncodeCalendar(c.App.Writer, components...)
}

func cmdOccurrences(c *cli.Context) error {
	conf, logger, err := setup(c)
	if err != nil {
		return err
	}
	f, err := newFormat(c, conf, logger)
	if err != nil {
		return err
	}
	engineConf, err := conf.EngineConfig()
	if err != nil {
		return err
	}
	engine := recurrence.NewEngineWithConfig(engineConf)
	defer engine.Close()

	data, err := readInput(c, c.Args().First())
	if err != nil {
		return err
	}
	obj, err := f.Load(bytes.NewReader(data))
	if err != nil {
		return err
	}

	// The range includes the whole end day.
	from, to := *c.Timestamp("from"), c.Timestamp("to").AddDate(0, 0, 1).Add(-time.Second)
	occurrences, err := engine.ExpandObject(obj, from, to)
	if errors.Is(err, recurrence.ErrNoRecurrence) {
		logger.Warn("object does not recur", "uid", obj["uid"])
		return nil
	}
	if err != nil {
		return err
	}
	for _, o := range occurrences {
		fmt.Fprintf(c.App.Writer, "%s\t%s\n", date.EncodeDateTime(o.Start), date.EncodeDateTime(o.End))
	}
	return nil
}
