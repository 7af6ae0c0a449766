package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	logging "github.com/ipfs/go-log/v2"
	"github.com/urfave/cli/v2"

	"modlocale/config"
	"modlocale/dataset"
	"modlocale/extract"
	"modlocale/locale"
	"modlocale/source"
)

var log = logging.Logger("modlocale")

func main() {
	app := &cli.App{
		Name:  "modlocale",
		Usage: "aggregate localized mod setting labels and descriptions into one dataset",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Usage: "YAML config file overriding the default game layout"},
			&cli.StringFlag{Name: "mods-dir", Usage: "local mod archive directory"},
			&cli.StringFlag{Name: "data-dir", Usage: "base game data directory for core locale files"},
			&cli.StringFlag{Name: "cache-dir", Usage: "byte cache directory"},
			&cli.StringFlag{Name: "output", Usage: "final artifact path"},
			&cli.StringFlag{Name: "checkpoint", Usage: "checkpoint artifact path"},
			&cli.BoolFlag{Name: "no-splits", Usage: "skip per-locale projection artifacts"},
		},
		Commands: []*cli.Command{
			{
				Name:   "local",
				Usage:  "ingest mod archives from the local mods directory",
				Action: runLocal,
			},
			{
				Name:  "portal",
				Usage: "ingest mod archives from the remote mod portal, resuming from the checkpoint",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "portal-url", Usage: "first catalog page URL"},
					&cli.StringFlag{Name: "credentials", Usage: "player data file with service credentials"},
				},
				Action: runPortal,
			},
		},
	}
	if err := app.Run(os.Args); err != nil {
		log.Errorf("%v", err)
		os.Exit(1)
	}
}

func loadConfig(cctx *cli.Context) (*config.Config, error) {
	cfg, err := config.Load(cctx.String("config"))
	if err != nil {
		return nil, err
	}
	if v := cctx.String("mods-dir"); v != "" {
		cfg.ModsDir = v
	}
	if v := cctx.String("data-dir"); v != "" {
		cfg.DataDir = v
	}
	if v := cctx.String("cache-dir"); v != "" {
		cfg.CacheDir = v
	}
	if v := cctx.String("output"); v != "" {
		cfg.Output = v
	}
	if v := cctx.String("checkpoint"); v != "" {
		cfg.Checkpoint = v
	}
	if cctx.Bool("no-splits") {
		cfg.WriteSplits = false
	}
	if v := cctx.String("portal-url"); v != "" {
		cfg.PortalURL = v
	}
	if v := cctx.String("credentials"); v != "" {
		cfg.CredentialsPath = v
	}
	return cfg, nil
}

func runLocal(cctx *cli.Context) error {
	cfg, err := loadConfig(cctx)
	if err != nil {
		return err
	}
	store := resumeStore(cfg.Checkpoint)
	return run(cctx, cfg, store, source.NewCache(cfg.CacheDir), source.NewLocal(cfg.ModsDir))
}

func runPortal(cctx *cli.Context) error {
	cfg, err := loadConfig(cctx)
	if err != nil {
		return err
	}
	store := resumeStore(cfg.Checkpoint)
	cache := source.NewCache(cfg.CacheDir)
	portal, err := source.NewPortal(source.PortalOptions{
		URL:             cfg.PortalURL,
		CredentialsPath: cfg.CredentialsPath,
		Cache:           cache,
		Excluding:       ingestedVersions(store),
		Timeout:         time.Duration(cfg.HTTPTimeout),
	})
	if err != nil {
		return err
	}
	return run(cctx, cfg, store, cache, portal)
}

func run(cctx *cli.Context, cfg *config.Config, store *dataset.Store, cache *source.Cache, src source.Source) error {
	driver := extract.NewDriver(store, cache, cfg.Checkpoint)
	if err := driver.Run(cctx.Context, src); err != nil {
		return err
	}
	if core, err := locale.NewCoreReader().Read(cctx.Context, cfg.DataDir); err == nil {
		store.Core = core
	} else {
		log.Warnf("failed to read core locale data from %s: %v", cfg.DataDir, err)
	}
	if err := driver.Finalize(cfg.Output, cfg.WriteSplits, filepath.Dir(cfg.Output)); err != nil {
		return err
	}
	final := store.Dataset(true)
	fmt.Printf("%d mods, %d settings, %d locales\n", len(final.Mods), len(final.Settings), len(final.Locales))
	return nil
}

// resumeStore loads the checkpoint left by an interrupted run, or starts
// fresh when none exists.
func resumeStore(checkpoint string) *dataset.Store {
	if checkpoint == "" {
		return dataset.NewStore()
	}
	store, err := dataset.Load(checkpoint)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			log.Warnf("discarding unusable checkpoint %s: %v", checkpoint, err)
		}
		return dataset.NewStore()
	}
	log.Infof("resuming from checkpoint %s (%d mods)", checkpoint, len(store.Mods))
	return store
}

// ingestedVersions derives the portal skip map from the resumed store.
func ingestedVersions(store *dataset.Store) map[string]string {
	versions := map[string]string{}
	for name, mod := range store.Mods {
		if mod.Version != "" {
			versions[name] = mod.Version
		}
	}
	return versions
}
