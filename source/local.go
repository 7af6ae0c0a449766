package source

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Local enumerates mod archives in a directory by the <name>_<version>.zip
// naming convention. Every discovered file is processed; there is no
// version comparison and no network.
type Local struct {
	dir    string
	files  []string
	idx    int
	listed bool
}

// NewLocal creates a source over the given mods directory.
func NewLocal(dir string) *Local {
	return &Local{dir: dir}
}

// Next yields the next archive. A file that is not a readable zip is
// logged and yielded as a skip.
func (l *Local) Next(ctx context.Context) (*Item, error) {
	if !l.listed {
		if err := l.list(); err != nil {
			return nil, err
		}
	}
	if l.idx >= len(l.files) {
		return nil, io.EOF
	}
	file := l.files[l.idx]
	l.idx++

	name, version := splitArchiveName(file)
	item := &Item{Name: name, Version: version}
	archive, err := OpenZip(filepath.Join(l.dir, file), nil)
	if err != nil {
		log.Warnf("skipping unreadable mod archive %s: %v", file, err)
		return item, nil
	}
	item.Archive = archive
	return item, nil
}

func (l *Local) list() error {
	entries, err := os.ReadDir(l.dir)
	if err != nil {
		return err
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if !strings.HasSuffix(name, ".zip") {
			continue
		}
		if !strings.Contains(strings.TrimSuffix(name, ".zip"), "_") {
			continue
		}
		l.files = append(l.files, name)
	}
	sort.Strings(l.files)
	l.listed = true
	return nil
}

// splitArchiveName derives the identity hint from a <name>_<version>.zip
// filename. Mod names may themselves contain underscores, so the version is
// everything after the last one.
func splitArchiveName(file string) (name, version string) {
	stem := strings.TrimSuffix(file, ".zip")
	idx := strings.LastIndex(stem, "_")
	if idx < 0 {
		return stem, ""
	}
	return stem[:idx], stem[idx+1:]
}
