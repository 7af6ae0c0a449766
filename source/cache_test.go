package source_test

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"modlocale/source"
)

func TestCacheRoundTrip(t *testing.T) {
	ctx := context.Background()
	cache := source.NewCache(t.TempDir())

	assert.False(t, cache.Complete(ctx, "alpha"))
	require.NoError(t, cache.Put(ctx, "alpha", "alpha_1.0.0/info.json", []byte(`{"name":"alpha"}`)))
	require.NoError(t, cache.Put(ctx, "alpha", "alpha_1.0.0/locale/en/settings.cfg", []byte("[mod-setting-name]\nx = Label\n")))
	// not complete until the marker is written
	assert.False(t, cache.Complete(ctx, "alpha"))
	require.NoError(t, cache.MarkComplete(ctx, "alpha"))
	assert.True(t, cache.Complete(ctx, "alpha"))

	archive, err := cache.OpenArchive(ctx, "alpha")
	require.NoError(t, err)
	defer archive.Close()
	assert.ElementsMatch(t, []string{
		"alpha_1.0.0/info.json",
		"alpha_1.0.0/locale/en/settings.cfg",
	}, archive.Entries())

	reader, err := archive.Open("alpha_1.0.0/info.json")
	require.NoError(t, err)
	data, err := io.ReadAll(reader)
	require.NoError(t, err)
	reader.Close()
	assert.Equal(t, `{"name":"alpha"}`, string(data))
}

func TestCacheDetectsCorruption(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	cache := source.NewCache(root)

	require.NoError(t, cache.Put(ctx, "alpha", "alpha_1.0.0/info.json", []byte(`{"name":"alpha"}`)))
	require.NoError(t, cache.MarkComplete(ctx, "alpha"))

	// flip the cached bytes behind the manifest's back
	tampered := filepath.Join(root, "alpha", "alpha_1.0.0", "info.json")
	require.NoError(t, os.WriteFile(tampered, []byte("tampered"), 0644))

	archive, err := cache.OpenArchive(ctx, "alpha")
	require.NoError(t, err)
	_, err = archive.Open("alpha_1.0.0/info.json")
	assert.ErrorContains(t, err, "checksum")
}

func TestCacheOpenArchiveWithoutMarker(t *testing.T) {
	cache := source.NewCache(t.TempDir())
	_, err := cache.OpenArchive(context.Background(), "absent")
	assert.Error(t, err)
}
