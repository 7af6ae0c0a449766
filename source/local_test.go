package source_test

import (
	"context"
	"io"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"modlocale/source"
)

func TestLocalSource(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "alpha_1.0.0.zip"), zipBytes(t, map[string]string{
		"alpha_1.0.0/info.json": `{"name":"alpha","title":"Alpha"}`,
	}))
	writeFile(t, filepath.Join(dir, "broken_2.0.zip"), []byte("this is not a zip"))
	// no version separator and wrong extension are not mod archives
	writeFile(t, filepath.Join(dir, "plain.zip"), zipBytes(t, nil))
	writeFile(t, filepath.Join(dir, "README.txt"), []byte("notes"))

	src := source.NewLocal(dir)
	ctx := context.Background()

	first, err := src.Next(ctx)
	require.NoError(t, err)
	assert.Equal(t, "alpha", first.Name)
	assert.Equal(t, "1.0.0", first.Version)
	require.False(t, first.Skip())
	assert.Contains(t, first.Archive.Entries(), "alpha_1.0.0/info.json")
	require.NoError(t, first.Archive.Close())

	// a corrupted archive is a counted skip, not a failure
	second, err := src.Next(ctx)
	require.NoError(t, err)
	assert.Equal(t, "broken", second.Name)
	assert.Equal(t, "2.0", second.Version)
	assert.True(t, second.Skip())

	_, err = src.Next(ctx)
	assert.ErrorIs(t, err, io.EOF)
}

func TestLocalSourceMissingDir(t *testing.T) {
	src := source.NewLocal(filepath.Join(t.TempDir(), "absent"))
	_, err := src.Next(context.Background())
	assert.Error(t, err)
}

func TestLocalSourceNameWithUnderscores(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "my_big_mod_0.4.1.zip"), zipBytes(t, nil))

	item, err := source.NewLocal(dir).Next(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "my_big_mod", item.Name)
	assert.Equal(t, "0.4.1", item.Version)
	item.Archive.Close()
}
