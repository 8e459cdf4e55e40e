package main

import (
	"fmt"
	"strings"

	"github.com/MakeNowJust/heredoc"
	"github.com/facette/natsort"
	"github.com/fatih/color"
	"github.com/urfave/cli/v2"

	"github.com/cyp0633/libkolab/list"
	"github.com/cyp0633/libkolab/list/sqlite"
	"github.com/cyp0633/libkolab/storage"
	"github.com/cyp0633/libkolab/storage/imap"
	"github.com/cyp0633/libkolab/storage/memory"
)

var foldersCmdDef = cli.Command{
	Name:  "folders",
	Usage: "Inspect and change the Kolab folders of an account",
	Description: heredoc.Doc(`
		Folders are read from the configured driver. The memory driver starts
		with an INBOX and the folders given with --seed, for example

		    kolab folders --seed INBOX/Calendar=event.default list

		Folder types come from the /shared/vendor/kolab/folder-type annotation.
		A ".default" suffix marks the default folder of a type.
	`),
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:  "driver",
			Usage: "Folder storage (imap or memory), overrides the config",
		},
		&cli.StringFlag{
			Name:  "user",
			Usage: "Account of the memory driver",
			Value: "user@example.org",
		},
		&cli.StringSliceFlag{
			Name:  "seed",
			Usage: "Folder of the memory driver as FOLDER or FOLDER=TYPE",
		},
		&cli.StringFlag{
			Name:      "cache",
			Usage:     "Folder list cache database, overrides the config",
			TakesFile: true,
		},
	},
	Subcommands: []*cli.Command{
		{
			Name:  "list",
			Usage: "List folders with their type, owner and namespace",
			Flags: []cli.Flag{
				&cli.StringFlag{Name: "type", Usage: "Only list folders of this type"},
			},
			Action: cmdFoldersList,
		},
		{
			Name:   "defaults",
			Usage:  "List the default folders per owner and type",
			Action: cmdFoldersDefaults,
		},
		{
			Name:      "set-default",
			Usage:     "Make a personal folder the default of its type",
			ArgsUsage: "FOLDER",
			Action:    cmdFoldersSetDefault,
		},
		{
			Name:      "create",
			Usage:     "Create a folder",
			ArgsUsage: "FOLDER",
			Flags: []cli.Flag{
				&cli.StringFlag{Name: "type", Usage: "Folder type annotation, e.g. event or note.default"},
			},
			Action: cmdFoldersCreate,
		},
		{
			Name:      "delete",
			Usage:     "Delete a folder",
			ArgsUsage: "FOLDER",
			Action:    cmdFoldersDelete,
		},
		{
			Name:      "rename",
			Usage:     "Rename a folder",
			ArgsUsage: "OLD NEW",
			Action:    cmdFoldersRename,
		},
	},
}

// openList connects the configured driver. The returned function releases
// the connection and the cache.
func openList(c *cli.Context) (*list.List, func(), error) {
	conf, logger, err := setup(c)
	if err != nil {
		return nil, nil, err
	}
	driverName := conf.Driver
	if d := c.String("driver"); d != "" {
		driverName = d
	}

	var closers []func() error
	closeAll := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			if err := closers[i](); err != nil {
				logger.Warn("failed to close", "error", err)
			}
		}
	}

	var driver storage.Driver
	cachePath := conf.Cache.Path
	switch driverName {
	case "memory":
		user := c.String("user")
		opts := []memory.Option{memory.WithLogger(logger)}
		if ns := conf.Namespace(user); ns != nil {
			opts = append(opts, memory.WithNamespace(ns))
		}
		for _, seed := range c.StringSlice("seed") {
			folder, folderType, _ := strings.Cut(seed, "=")
			opts = append(opts, memory.WithFolder(folder, folderType))
		}
		driver = memory.New(user, opts...)
		// A stored cache would not match a fresh memory driver.
		cachePath = ""
	case "imap":
		d, err := imap.Dial(c.Context, conf.IMAPDriverConfig(logger))
		if err != nil {
			return nil, nil, err
		}
		closers = append(closers, d.Close)
		driver = d
	default:
		return nil, nil, fmt.Errorf("unknown driver %q", driverName)
	}
	if path := c.String("cache"); path != "" {
		cachePath = path
	}

	cfg := list.Config{Defaults: conf.Defaults(logger), Logger: logger}
	if cachePath != "" {
		backend, err := sqlite.Open(cachePath)
		if err != nil {
			closeAll()
			return nil, nil, err
		}
		closers = append(closers, backend.Close)
		cfg.Backend = backend
	}
	return list.New(driver, cfg), closeAll, nil
}

func cmdFoldersList(c *cli.Context) error {
	l, closeList, err := openList(c)
	if err != nil {
		return err
	}
	defer closeList()

	var folders []string
	if folderType := c.String("type"); folderType != "" {
		if folders, err = l.Query().ListByType(c.Context, folderType); err != nil {
			return err
		}
	} else {
		types, err := l.Query().ListTypes(c.Context)
		if err != nil {
			return err
		}
		for folder := range types {
			folders = append(folders, folder)
		}
		natsort.Sort(folders)
	}

	result := make([]list.FolderData, 0, len(folders))
	for _, folder := range folders {
		data, err := l.Query().FolderData(c.Context, folder)
		if err != nil {
			return err
		}
		result = append(result, data)
	}
	return writeStructured(c, result)
}

func cmdFoldersDefaults(c *cli.Context) error {
	l, closeList, err := openList(c)
	if err != nil {
		return err
	}
	defer closeList()

	defaults, err := l.Query().ListDefaults(c.Context)
	if err != nil {
		return err
	}
	fmtWarning := color.New(color.FgHiYellow, color.Bold)
	for owner, byType := range l.DuplicateDefaults() {
		for folderType, folders := range byType {
			fmtWarning.Fprint(c.App.ErrWriter, "warning:")
			fmt.Fprintf(c.App.ErrWriter, " %s has %d default %s folders: %s\n",
				owner, len(folders), folderType, strings.Join(folders, ", "))
		}
	}
	return writeStructured(c, defaults)
}

func cmdFoldersSetDefault(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("set-default needs exactly one folder")
	}
	l, closeList, err := openList(c)
	if err != nil {
		return err
	}
	defer closeList()
	return l.SetDefault(c.Context, c.Args().First())
}

func cmdFoldersCreate(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("create needs exactly one folder")
	}
	l, closeList, err := openList(c)
	if err != nil {
		return err
	}
	defer closeList()
	return l.CreateFolder(c.Context, c.Args().First(), c.String("type"))
}

func cmdFoldersDelete(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("delete needs exactly one folder")
	}
	l, closeList, err := openList(c)
	if err != nil {
		return err
	}
	defer closeList()
	return l.DeleteFolder(c.Context, c.Args().First())
}

func cmdFoldersRename(c *cli.Context) error {
	if c.NArg() != 2 {
		return fmt.Errorf("rename needs the old and the new folder name")
	}
	l, closeList, err := openList(c)
	if err != nil {
		return err
	}
	defer closeList()
	return l.RenameFolder(c.Context, c.Args().Get(0), c.Args().Get(1))
}
