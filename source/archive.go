package source

import (
	"archive/zip"
	"errors"
	"fmt"
	"io"
	"os"
)

// ErrBadArchive reports bytes that are not a readable mod archive. The
// portal source counts consecutive occurrences toward its fatal threshold.
var ErrBadArchive = errors.New("not a valid mod archive")

// Archive is the minimal container contract the extraction driver needs: a
// named-entry listing and byte streams by entry name.
type Archive interface {
	Entries() []string
	Open(name string) (io.ReadCloser, error)
	Close() error
}

type zipArchive struct {
	reader  *zip.ReadCloser
	cleanup func()
}

// OpenZip opens a zip-backed archive. A container that cannot be parsed is
// reported as ErrBadArchive; cleanup, when non-nil, runs on Close (used to
// discard downloaded temp files).
func OpenZip(path string, cleanup func()) (Archive, error) {
	reader, err := zip.OpenReader(path)
	if err != nil {
		if errors.Is(err, zip.ErrFormat) || errors.Is(err, zip.ErrChecksum) {
			return nil, fmt.Errorf("%w: %s", ErrBadArchive, path)
		}
		return nil, fmt.Errorf("failed to open archive %s: %w", path, err)
	}
	return &zipArchive{reader: reader, cleanup: cleanup}, nil
}

func (a *zipArchive) Entries() []string {
	entries := make([]string, 0, len(a.reader.File))
	for _, file := range a.reader.File {
		entries = append(entries, file.Name)
	}
	return entries
}

func (a *zipArchive) Open(name string) (io.ReadCloser, error) {
	for _, file := range a.reader.File {
		if file.Name == name {
			return file.Open()
		}
	}
	return nil, fmt.Errorf("entry %s not found: %w", name, os.ErrNotExist)
}

func (a *zipArchive) Close() error {
	err := a.reader.Close()
	if a.cleanup != nil {
		a.cleanup()
	}
	return err
}
