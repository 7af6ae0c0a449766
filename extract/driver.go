// Package extract orchestrates the ingestion run: it pulls archives from a
// source, resolves mod identity, parses each locale config entry and feeds
// the results into the aggregate store, checkpointing as it goes.
package extract

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"regexp"

	logging "github.com/ipfs/go-log/v2"

	"modlocale/dataset"
	"modlocale/locale"
	"modlocale/source"
)

var log = logging.Logger("modlocale/extract")

// Archive entry layout: a single top-level directory holding info.json and
// locale/<locale>/*.cfg files.
var (
	infoRe       = regexp.MustCompile(`(?i)^[^/]+/info\.json$`)
	localePathRe = regexp.MustCompile(`^[^/]+/locale/([\w-]+)/[^/]+\.cfg$`)
)

// checkpointEvery is the checkpoint cadence: a crash loses at most this
// many items of work.
const checkpointEvery = 10

// modInfo is the identity file embedded in a mod archive.
type modInfo struct {
	Name    string `json:"name"`
	Title   string `json:"title"`
	Version string `json:"version"`
}

// Driver runs the extraction pipeline against one source. It owns the
// store and cache exclusively for the duration of a run.
type Driver struct {
	store          *dataset.Store
	cache          *source.Cache
	checkpointPath string
	processed      int
}

// NewDriver creates a driver. cache may be nil to disable the byte cache;
// checkpointPath may be empty to disable checkpointing.
func NewDriver(store *dataset.Store, cache *source.Cache, checkpointPath string) *Driver {
	return &Driver{store: store, cache: cache, checkpointPath: checkpointPath}
}

// Processed returns the number of items consumed so far, skips included.
func (d *Driver) Processed() int {
	return d.processed
}

// Run consumes the source until exhaustion. Per-file and per-archive
// problems are logged skips; an error from the source or a failed
// checkpoint write aborts the run. The checkpoint survives an aborted run
// so a later run resumes from the interruption point.
func (d *Driver) Run(ctx context.Context, src source.Source) error {
	for {
		item, err := src.Next(ctx)
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		d.processed++
		if !item.Skip() {
			d.process(ctx, item)
		}
		if d.checkpointPath != "" && d.processed%checkpointEvery == 0 {
			if err := d.store.Persist(d.checkpointPath, false); err != nil {
				return fmt.Errorf("failed to checkpoint after %d items: %w", d.processed, err)
			}
		}
	}
}

func (d *Driver) process(ctx context.Context, item *source.Item) {
	defer item.Archive.Close()

	info, infoEntry, infoRaw, ok := d.identity(item)
	if !ok {
		log.Warnf("could not determine identity of mod archive (hint %q), skipping", item.Name)
		return
	}
	d.store.RegisterMod(info.Name, info.Title, info.Version)
	if d.cache != nil && infoRaw != nil {
		if err := d.cache.Put(ctx, info.Name, infoEntry, infoRaw); err != nil {
			log.Warnf("%v", err)
		}
	}

	for _, entry := range item.Archive.Entries() {
		match := localePathRe.FindStringSubmatch(entry)
		if match == nil {
			continue
		}
		localeName := match[1]
		raw, err := readEntry(item.Archive, entry)
		if err != nil {
			log.Warnf("failed to read locale file %s (%s) of %s: %v", entry, localeName, info.Name, err)
			continue
		}
		if d.cache != nil {
			if err := d.cache.Put(ctx, info.Name, entry, raw); err != nil {
				log.Warnf("%v", err)
			}
		}
		updates, err := locale.ParseSettingsConfig(raw)
		if err != nil {
			log.Warnf("skipping locale file %s (%s) of %s: %v", entry, localeName, info.Name, err)
			continue
		}
		for _, update := range updates {
			switch update.Kind {
			case locale.Label:
				d.store.UpsertLabel(update.Setting, info.Name, localeName, update.Value)
			case locale.Description:
				d.store.UpsertDescription(update.Setting, info.Name, localeName, update.Value)
			}
		}
	}

	if d.cache != nil {
		if err := d.cache.MarkComplete(ctx, info.Name); err != nil {
			log.Warnf("%v", err)
		}
	}
}

// identity resolves the mod's name/title/version from the archive's
// info.json, first match wins; the identity file's entry name and raw bytes
// come back for the byte cache. When the entry is absent or malformed the
// source's catalog hint fills in; with no usable hint either, the mod is
// skipped.
func (d *Driver) identity(item *source.Item) (*modInfo, string, []byte, bool) {
	for _, entry := range item.Archive.Entries() {
		if !infoRe.MatchString(entry) {
			continue
		}
		raw, err := readEntry(item.Archive, entry)
		if err != nil {
			log.Warnf("failed to read %s: %v", entry, err)
			break
		}
		var info modInfo
		if err := json.Unmarshal(raw, &info); err != nil {
			log.Warnf("malformed %s: %v", entry, err)
			break
		}
		if info.Name == "" || info.Title == "" {
			break
		}
		if info.Version == "" {
			info.Version = item.Version
		}
		return &info, entry, raw, true
	}
	if item.Name != "" && item.Title != "" {
		return &modInfo{Name: item.Name, Title: item.Title, Version: item.Version}, "", nil, true
	}
	return nil, "", nil, false
}

// Finalize persists the final artifact, writes the per-locale projections
// when splits is set, and discards the checkpoint.
func (d *Driver) Finalize(outputPath string, splits bool, splitDir string) error {
	if err := d.store.Persist(outputPath, true); err != nil {
		return err
	}
	if splits {
		if err := d.store.WriteSplits(splitDir); err != nil {
			return err
		}
	}
	if d.checkpointPath != "" {
		if err := os.Remove(d.checkpointPath); err != nil && !os.IsNotExist(err) {
			log.Warnf("failed to remove checkpoint %s: %v", d.checkpointPath, err)
		}
	}
	return nil
}

func readEntry(archive source.Archive, entry string) ([]byte, error) {
	reader, err := archive.Open(entry)
	if err != nil {
		return nil, err
	}
	defer reader.Close()
	return io.ReadAll(reader)
}
