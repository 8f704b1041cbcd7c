package main

import (
	"os"

	"github.com/urfave/cli/v2"
)

func main() {
	err := newApp().Run(os.Args)
	HandleError(err)
}

func newApp() *cli.App {
	return &cli.App{
		Name:                   "mediaingest",
		Usage:                  "Imports photos and videos into date-partitioned folders, once",
		UseShortOptionHandling: true,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "config",
				Usage: "YAML defaults file (default: the user config dir's mediaingest/config.yaml)",
			},
			&cli.StringSliceFlag{
				Name:    "dest",
				Aliases: []string{"d"},
				Usage:   "Destination root, repeatable. <shell:Pictures> style aliases are expanded.",
			},
			&cli.BoolFlag{
				Name:    "dry-run",
				Aliases: []string{"n"},
				Usage:   "Report what would be done without copying or updating the ledger.",
			},
			&cli.IntFlag{
				Name:    "verbosity",
				Aliases: []string{"v"},
				Value:   1,
				Usage:   "0 quiet, 1 normal, 2 detailed.",
			},
			&cli.BoolFlag{
				Name:    "reinspect",
				Aliases: []string{"r"},
				Usage:   "Also look at files the ledger already knows.",
			},
			&cli.StringSliceFlag{
				Name:  "skip-dir",
				Usage: "Directory name never descended into, repeatable. Prefix with re: for a regular expression.",
			},
			&cli.StringFlag{
				Name:  "ledger",
				Usage: "Ledger file (default: .already_imported next to the executable).",
			},
			&cli.StringFlag{
				Name:  "catalog",
				Usage: "SQLite file recording every import.",
			},
			&cli.BoolFlag{
				Name:  "exiftool",
				Usage: "Read embedded dates with a long-running exiftool process.",
			},
		},
		Commands: []*cli.Command{
			{
				Name:      "import",
				Usage:     "Copies new photos and videos into the destinations.",
				ArgsUsage: "SOURCE...",
				Action: func(c *cli.Context) error {
					return runImport(c, false)
				},
			},
			{
				Name:      "forget",
				Usage:     "Removes the given files from the ledger so they are imported again. Destination files are kept.",
				ArgsUsage: "SOURCE...",
				Action: func(c *cli.Context) error {
					return runImport(c, true)
				},
			},
			{
				Name:      "history",
				Usage:     "Lists recorded imports, optionally only those of the given files.",
				ArgsUsage: "[FILE...]",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "limit",
						Value: 20,
						Usage: "Number of entries to list.",
					},
				},
				Action: runHistory,
			},
			{
				Name:  "config",
				Usage: "Prints the effective configuration as YAML.",
				Action: func(c *cli.Context) error {
					cfg, err := loadSettings(c)
					if err != nil {
						return err
					}
					out, err := cfg.Marshal()
					if err != nil {
						return err
					}
					_, err = c.App.Writer.Write(out)
					return err
				},
			},
		},
	}
}
