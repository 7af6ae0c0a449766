// Package source discovers mod archives for extraction, either from a local
// mods directory or from the remote mod portal with version-skip logic,
// byte caching and bounded-retry downloads.
package source

import (
	"context"

	logging "github.com/ipfs/go-log/v2"
)

var log = logging.Logger("modlocale/source")

// Item is one discovered mod. Name/Title/Version are the out-of-band
// identity hint (catalog metadata or filename-derived); a nil Archive marks
// a counted skip: the item advances progress indices but carries no work.
type Item struct {
	Name    string
	Title   string
	Version string
	Archive Archive
}

// Skip reports whether the item should be counted but not processed.
func (i *Item) Skip() bool {
	return i.Archive == nil
}

// Source produces a lazy sequence of mod archives. Next returns io.EOF when
// the sequence is exhausted; any other error is fatal to the run.
type Source interface {
	Next(ctx context.Context) (*Item, error)
}
