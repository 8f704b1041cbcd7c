package main

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/urfave/cli/v2"
	"github.com/ztrue/tracerr"

	"github.com/itsjavi/mediaingest/internal/catalog"
	"github.com/itsjavi/mediaingest/internal/config"
	"github.com/itsjavi/mediaingest/internal/importer"
	"github.com/itsjavi/mediaingest/internal/ledger"
	"github.com/itsjavi/mediaingest/internal/metadata"
)

// loadSettings layers the command-line flags over the YAML file over the defaults.
func loadSettings(c *cli.Context) (config.Config, error) {
	path := c.String("config")
	required := path != ""
	if !required {
		path, _ = config.DefaultPath()
	}
	cfg, err := config.Load(path, required)
	if err != nil {
		return cfg, err
	}

	if c.IsSet("dest") {
		cfg.Destinations = c.StringSlice("dest")
	}
	if c.IsSet("skip-dir") {
		cfg.SkipDirs = c.StringSlice("skip-dir")
	}
	if c.IsSet("ledger") {
		cfg.Ledger = c.String("ledger")
	}
	if c.IsSet("catalog") {
		cfg.Catalog = c.String("catalog")
	}
	if c.IsSet("verbosity") {
		cfg.Verbosity = c.Int("verbosity")
	}
	if c.IsSet("dry-run") {
		cfg.DryRun = c.Bool("dry-run")
	}
	if c.IsSet("reinspect") {
		cfg.Reinspect = c.Bool("reinspect")
	}
	if c.IsSet("exiftool") {
		cfg.ExifTool = c.Bool("exiftool")
	}
	return cfg, cfg.Validate()
}

func ledgerPath(cfg config.Config) string {
	if cfg.Ledger != "" {
		return cfg.Ledger
	}
	exe, err := os.Executable()
	if err != nil {
		return ledger.DefaultName
	}
	return filepath.Join(filepath.Dir(exe), ledger.DefaultName)
}

func runImport(c *cli.Context, forget bool) error {
	cfg, err := loadSettings(c)
	if err != nil {
		return err
	}
	if c.NArg() == 0 {
		return errors.New("No source directory or file given.")
	}

	aliases := systemAliases()
	sources, err := aliases.ResolveAll(c.Args().Slice())
	if err != nil {
		return err
	}
	var dests []string
	if !forget {
		if dests, err = aliases.ResolveAll(cfg.Destinations); err != nil {
			return err
		}
		if len(dests) == 0 {
			return errors.New("No destination given.")
		}
		for _, d := range dests {
			for _, s := range sources {
				if d == s {
					return fmt.Errorf("Source and destination cannot be the same: %s", d)
				}
			}
		}
	}
	skip, err := cfg.SkipRules()
	if err != nil {
		return err
	}

	w := c.App.Writer
	l := ledger.Open(ledgerPath(cfg))
	if cfg.Verbosity >= importer.Detailed {
		PrintLn(w, "Using ledger %s", l.Path())
	}
	deps := importer.Deps{
		Ledger:     l,
		Classifier: &metadata.Classifier{},
		Sink:       newTerminalSink(w),
	}

	var details metadata.DetailsReader = metadata.ExifReader{}
	if cfg.ExifTool {
		et, err := metadata.StartExifTool(cfg.ExifToolPath)
		if err != nil {
			return err
		}
		defer et.Close()
		deps.Classifier.Reader = et
		details = et
	}

	if cfg.Catalog != "" && !forget && !cfg.DryRun {
		cat, err := catalog.Open(cfg.Catalog, details)
		if err != nil {
			PrintLn(w, "Warning: %v; imports are not recorded", err)
		} else {
			defer cat.Close()
			deps.Catalog = cat
			if cfg.Verbosity >= importer.Detailed {
				PrintLn(w, "Recording imports in %s", cat.File())
			}
		}
	}

	run := importer.New(importer.Config{
		Sources:      sources,
		Destinations: dests,
		Skip:         skip,
		Options: importer.Options{
			DryRun:              cfg.DryRun,
			Verbosity:           cfg.Verbosity,
			SkipAlreadyImported: !cfg.Reinspect,
			Forget:              forget,
		},
	}, deps)

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt)
	defer stop()
	summary := run.Execute(ctx)

	switch summary.State {
	case importer.Done:
		if !forget && cfg.Verbosity >= importer.Normal && summary.Copied > 0 {
			PrintLn(w, "%s in %d files", humanize.IBytes(uint64(summary.Bytes)), summary.Copied)
		}
		return nil
	case importer.Interrupted:
		return cli.Exit(fmt.Sprintf("[%s] Interrupted", config.AppName), 130)
	}
	if cfg.Verbosity >= importer.Detailed {
		fmt.Fprintln(c.App.ErrWriter, tracerr.Sprint(summary.Err))
	}
	return cli.Exit(fmt.Sprintf("[%s] ERROR: %v", config.AppName, tracerr.Unwrap(summary.Err)), 1)
}

func runHistory(c *cli.Context) error {
	cfg, err := loadSettings(c)
	if err != nil {
		return err
	}
	if cfg.Catalog == "" {
		return errors.New("No catalog configured, use --catalog or the catalog key of the config file.")
	}
	cat, err := catalog.Open(cfg.Catalog, nil)
	if err != nil {
		return err
	}
	defer cat.Close()

	var entries []catalog.Entry
	if c.NArg() == 0 {
		if entries, err = cat.Recent(c.Int("limit")); err != nil {
			return err
		}
	}
	for _, file := range c.Args().Slice() {
		fp, err := ledger.FingerprintFile(file)
		if err != nil {
			return err
		}
		found, err := cat.ByFingerprint(fp)
		if err != nil {
			return err
		}
		if len(found) == 0 {
			PrintLn(c.App.Writer, "%s was never imported", file)
		}
		entries = append(entries, found...)
	}

	for _, e := range entries {
		fmt.Fprintf(c.App.Writer, "%s  %-5s  %9s  %-24s  %s -> %s  (%s)\n",
			e.ShotDate, e.Kind, humanize.IBytes(uint64(e.Size)), e.Camera,
			e.SourcePath, strings.Join(e.DestinationList(), ", "), humanize.Time(e.ImportedAt))
	}
	return nil
}
