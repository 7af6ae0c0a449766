package locale

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	logging "github.com/ipfs/go-log/v2"
	"github.com/viant/afs"
	"github.com/viant/afs/storage"

	"modlocale/dataset"
)

var log = logging.Logger("modlocale/locale")

// coreLocaleDirRe matches the parent directory of a base-game locale file,
// relative to the data root: <component>/locale/<locale>.
var coreLocaleDirRe = regexp.MustCompile(`(?i)^[^/]+/locale/([\w-]+)$`)

// Core locale whitelist: only these sections and keys are extracted.
const (
	guiSettingsSection = "gui-mod-settings"
	applicationSection = "application"
)

// CoreReader collects the base game's own locale strings from a data
// directory tree.
type CoreReader struct {
	fs afs.Service
}

// NewCoreReader creates a reader backed by the default file service.
func NewCoreReader() *CoreReader {
	return &CoreReader{fs: afs.New()}
}

// Read walks dataDir for */locale/<locale>/*.cfg files and extracts the
// whitelisted keys into a sparse per-locale map. Files for the same locale
// union together; a later file overwrites keys it also defines. Unreadable
// or malformed files are logged and skipped.
func (r *CoreReader) Read(ctx context.Context, dataDir string) (map[string]*dataset.CoreLocale, error) {
	result := map[string]*dataset.CoreLocale{}
	var visitor storage.OnVisit = func(ctx context.Context, baseURL, parent string, info os.FileInfo, reader io.Reader) (bool, error) {
		if info.IsDir() {
			return true, nil
		}
		match := coreLocaleDirRe.FindStringSubmatch(filepath.ToSlash(parent))
		if match == nil || !strings.HasSuffix(info.Name(), ".cfg") {
			return true, nil
		}
		locale := match[1]
		raw, err := io.ReadAll(reader)
		if err != nil {
			log.Warnf("failed to read core locale file %s/%s: %v", parent, info.Name(), err)
			return true, nil
		}
		r.apply(result, locale, parent+"/"+info.Name(), raw)
		return true, nil
	}
	if err := r.fs.Walk(ctx, dataDir, visitor); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *CoreReader) apply(result map[string]*dataset.CoreLocale, locale, name string, raw []byte) {
	text, err := decode(raw)
	if err != nil {
		log.Warnf("skipping core locale file %s (%s): %v", name, locale, err)
		return
	}
	cfg, err := loadLenient(text)
	if err != nil {
		log.Warnf("skipping core locale file %s (%s): %v", name, locale, err)
		return
	}
	core, ok := result[locale]
	if !ok {
		core = &dataset.CoreLocale{}
		result[locale] = core
	}
	if section, err := cfg.GetSection(guiSettingsSection); err == nil {
		if key, err := section.GetKey("title"); err == nil {
			core.Title = key.Value()
		}
		if key, err := section.GetKey("startup"); err == nil {
			core.StartupCategoryLabel = key.Value()
		}
		if key, err := section.GetKey("global"); err == nil {
			core.GlobalCategoryLabel = key.Value()
		}
		if key, err := section.GetKey("per-player"); err == nil {
			core.PerUserCategoryLabel = key.Value()
		}
	}
	if section, err := cfg.GetSection(applicationSection); err == nil {
		if key, err := section.GetKey("version"); err == nil {
			core.Version = key.Value()
		}
	}
}
