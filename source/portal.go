package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"
)

// ErrAuthSuspected aborts a portal run after repeated corrupted downloads.
// The portal serves an HTML error page instead of an archive when the
// credentials are stale, so a streak of bad archives almost always means an
// authentication problem rather than network noise.
var ErrAuthSuspected = errors.New("repeated corrupted downloads, credentials are likely invalid; log in through the game client to refresh them")

// maxBadArchives is the number of consecutive corrupted downloads tolerated
// before the run aborts.
const maxBadArchives = 3

// PortalOptions configures a portal source.
type PortalOptions struct {
	URL             string            // first catalog page URL
	CredentialsPath string            // player data file with service credentials
	Cache           *Cache            // byte cache for archive reconstruction, optional
	Excluding       map[string]string // mod name -> already-ingested version, from a resumed checkpoint
	Timeout         time.Duration     // per-request HTTP timeout
}

// Portal paginates the remote mod catalog, skipping mods whose ingested
// version is already current, reconstructing archives from the byte cache
// when possible and downloading the rest.
type Portal struct {
	client    *portalClient
	creds     *Credentials
	opts      PortalOptions
	nextURL   string
	done      bool
	queue     []modSummary
	badStreak int
}

// NewPortal creates a portal source. Credentials are loaded eagerly: a
// missing credentials file fails here, before any network activity.
func NewPortal(opts PortalOptions) (*Portal, error) {
	creds, err := LoadCredentials(opts.CredentialsPath)
	if err != nil {
		return nil, err
	}
	timeout := opts.Timeout
	if timeout == 0 {
		timeout = 60 * time.Second
	}
	return &Portal{
		client:  newPortalClient(timeout),
		creds:   creds,
		opts:    opts,
		nextURL: opts.URL,
	}, nil
}

// Next yields the next catalog item. Version-current and corrupted items
// come back as counted skips; the fatal cases are catalog fetch failure and
// the consecutive-bad-archive threshold.
func (p *Portal) Next(ctx context.Context) (*Item, error) {
	for {
		if len(p.queue) == 0 {
			if p.done {
				return nil, io.EOF
			}
			page, err := p.client.page(ctx, p.nextURL)
			if err != nil {
				return nil, err
			}
			p.queue = page.Results
			if next := page.Pagination.Links.Next; next != "" {
				p.nextURL = next
			} else {
				p.done = true
			}
			continue
		}

		summary := p.queue[0]
		p.queue = p.queue[1:]
		return p.item(ctx, &summary)
	}
}

func (p *Portal) item(ctx context.Context, summary *modSummary) (*Item, error) {
	item := &Item{Name: summary.Name, Title: summary.Title}
	release := summary.release()
	if release == nil {
		log.Warnf("mod %s has no release, skipping", summary.Name)
		return item, nil
	}
	item.Version = release.Version

	if prev, ok := p.opts.Excluding[summary.Name]; ok && compareVersions(prev, release.Version) >= 0 {
		return item, nil
	}

	if p.opts.Cache != nil && p.opts.Cache.Complete(ctx, summary.Name) {
		archive, err := p.openCached(ctx, summary.Name)
		if err == nil {
			item.Archive = archive
			return item, nil
		}
		log.Warnf("cache for %s is unusable, falling back to download: %v", summary.Name, err)
	}

	archive, err := p.fetch(ctx, summary.Name, release)
	if err != nil {
		if errors.Is(err, ErrBadArchive) {
			p.badStreak++
			log.Warnf("downloaded archive for %s is corrupted (%d consecutive)", summary.Name, p.badStreak)
			if p.badStreak > maxBadArchives {
				return nil, fmt.Errorf("%d consecutive corrupted downloads: %w", p.badStreak, ErrAuthSuspected)
			}
			return item, nil
		}
		log.Warnf("failed to download %s, skipping: %v", summary.Name, err)
		return item, nil
	}
	p.badStreak = 0
	item.Archive = archive
	return item, nil
}

// openCached reconstructs the archive from the byte cache and verifies
// every entry, so a corrupted cache is treated as a miss here rather than
// as per-file failures later.
func (p *Portal) openCached(ctx context.Context, mod string) (Archive, error) {
	archive, err := p.opts.Cache.OpenArchive(ctx, mod)
	if err != nil {
		return nil, err
	}
	for _, entry := range archive.Entries() {
		reader, err := archive.Open(entry)
		if err != nil {
			return nil, err
		}
		reader.Close()
	}
	return archive, nil
}

// fetch streams the release download to a temp file and opens it as an
// archive. The temp file lives until the archive is closed; corruption is
// reported as ErrBadArchive.
func (p *Portal) fetch(ctx context.Context, mod string, release *modRelease) (Archive, error) {
	tmp, err := os.CreateTemp("", "modlocale-*.zip")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp file for %s: %w", mod, err)
	}
	path := tmp.Name()
	if err := p.client.download(ctx, release.DownloadURL, p.creds, tmp); err != nil {
		tmp.Close()
		os.Remove(path)
		return nil, fmt.Errorf("failed to download %s %s: %w", mod, release.Version, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(path)
		return nil, fmt.Errorf("failed to finish download of %s: %w", mod, err)
	}
	archive, err := OpenZip(path, func() { os.Remove(path) })
	if err != nil {
		os.Remove(path)
		return nil, err
	}
	return archive, nil
}
