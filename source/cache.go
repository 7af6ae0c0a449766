package source

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/minio/highwayhash"
	"github.com/viant/afs"
	"github.com/viant/afs/storage"
)

// cacheKey keys the HighwayHash checksums in cache manifests. It is fixed:
// the hashes guard against on-disk corruption, not tampering.
var cacheKey = []byte("modlocale-cache-integrity-key-01")

const completeMarker = ".complete"

// Cache is the local byte cache, keyed by mod name. It holds byte-identical
// copies of the archive entries the driver extracted, plus a completion
// marker listing every entry with its checksum. A complete, intact cache
// entry lets future runs reconstruct the archive instead of re-downloading.
type Cache struct {
	root string
	fs   afs.Service
}

// NewCache creates a cache rooted at dir.
func NewCache(dir string) *Cache {
	return &Cache{root: dir, fs: afs.New()}
}

// Put stores one archive entry's bytes under the mod's cache directory.
func (c *Cache) Put(ctx context.Context, mod, entry string, data []byte) error {
	target := filepath.Join(c.root, mod, filepath.FromSlash(entry))
	if err := c.fs.Upload(ctx, target, 0644, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("failed to cache %s of %s: %w", entry, mod, err)
	}
	return nil
}

// MarkComplete finalizes the mod's cache entry: it walks the cached files,
// records each entry with its checksum in the completion marker, and only
// then does the cache entry become usable for reconstruction.
func (c *Cache) MarkComplete(ctx context.Context, mod string) error {
	modDir := filepath.Join(c.root, mod)
	var manifest strings.Builder
	var visitor storage.OnVisit = func(ctx context.Context, baseURL, parent string, info os.FileInfo, reader io.Reader) (bool, error) {
		if info.IsDir() || info.Name() == completeMarker {
			return true, nil
		}
		data, err := io.ReadAll(reader)
		if err != nil {
			return false, err
		}
		entry := path.Join(filepath.ToSlash(parent), info.Name())
		sum := highwayhash.Sum64(data, cacheKey)
		manifest.WriteString(strconv.FormatUint(sum, 16))
		manifest.WriteString("  ")
		manifest.WriteString(entry)
		manifest.WriteString("\n")
		return true, nil
	}
	if err := c.fs.Walk(ctx, modDir, visitor); err != nil {
		return fmt.Errorf("failed to index cache for %s: %w", mod, err)
	}
	marker := filepath.Join(modDir, completeMarker)
	if err := c.fs.Upload(ctx, marker, 0644, strings.NewReader(manifest.String())); err != nil {
		return fmt.Errorf("failed to write completion marker for %s: %w", mod, err)
	}
	return nil
}

// Complete reports whether the mod has a finalized cache entry.
func (c *Cache) Complete(ctx context.Context, mod string) bool {
	ok, _ := c.fs.Exists(ctx, filepath.Join(c.root, mod, completeMarker))
	return ok
}

// OpenArchive reconstructs the mod's archive from the cache. Entry listing
// comes from the completion marker; each read is checksum-verified, so a
// corrupted cache surfaces as an error and the caller falls back to a
// download.
func (c *Cache) OpenArchive(ctx context.Context, mod string) (Archive, error) {
	marker := filepath.Join(c.root, mod, completeMarker)
	data, err := c.fs.DownloadWithURL(ctx, marker)
	if err != nil {
		return nil, fmt.Errorf("failed to read completion marker for %s: %w", mod, err)
	}
	archive := &cacheArchive{ctx: ctx, cache: c, mod: mod, sums: map[string]uint64{}}
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		fields := strings.SplitN(line, "  ", 2)
		if len(fields) != 2 {
			return nil, fmt.Errorf("malformed completion marker for %s", mod)
		}
		sum, err := strconv.ParseUint(fields[0], 16, 64)
		if err != nil {
			return nil, fmt.Errorf("malformed completion marker for %s: %w", mod, err)
		}
		archive.entries = append(archive.entries, fields[1])
		archive.sums[fields[1]] = sum
	}
	return archive, nil
}

type cacheArchive struct {
	ctx     context.Context
	cache   *Cache
	mod     string
	entries []string
	sums    map[string]uint64
}

func (a *cacheArchive) Entries() []string {
	return a.entries
}

func (a *cacheArchive) Open(name string) (io.ReadCloser, error) {
	sum, ok := a.sums[name]
	if !ok {
		return nil, fmt.Errorf("entry %s not found: %w", name, os.ErrNotExist)
	}
	target := filepath.Join(a.cache.root, a.mod, filepath.FromSlash(name))
	data, err := a.cache.fs.DownloadWithURL(a.ctx, target)
	if err != nil {
		return nil, fmt.Errorf("failed to read cached %s of %s: %w", name, a.mod, err)
	}
	if highwayhash.Sum64(data, cacheKey) != sum {
		return nil, fmt.Errorf("cached %s of %s failed checksum verification", name, a.mod)
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (a *cacheArchive) Close() error {
	return nil
}
