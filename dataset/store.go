package dataset

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"

	logging "github.com/ipfs/go-log/v2"
)

var log = logging.Logger("modlocale/dataset")

// Store is the in-memory aggregate of settings, mods and core locale data.
// It is owned by a single extraction run; there is no internal locking.
type Store struct {
	Mods     map[string]*Mod
	Settings map[string]*Setting
	Core     map[string]*CoreLocale
}

// NewStore creates an empty aggregate store.
func NewStore() *Store {
	return &Store{
		Mods:     map[string]*Mod{},
		Settings: map[string]*Setting{},
		Core:     map[string]*CoreLocale{},
	}
}

// RegisterMod creates the mod record or refreshes its title and version,
// preserving previously collected setting names.
func (s *Store) RegisterMod(name, title, version string) *Mod {
	mod, ok := s.Mods[name]
	if !ok {
		mod = &Mod{Name: name, SettingNames: []string{}}
		s.Mods[name] = mod
	}
	mod.Title = title
	mod.Version = version
	return mod
}

// UpsertLabel records a localized label for (setting, mod, locale),
// creating the setting and entry as needed.
func (s *Store) UpsertLabel(setting, mod, locale, text string) {
	entry := s.entry(setting, mod, locale)
	entry.Label = text
	s.trackSetting(mod, setting)
}

// UpsertDescription records a localized description for
// (setting, mod, locale), creating the setting and entry as needed.
func (s *Store) UpsertDescription(setting, mod, locale, text string) {
	entry := s.entry(setting, mod, locale)
	entry.Description = text
	s.trackSetting(mod, setting)
}

func (s *Store) entry(setting, mod, locale string) *Entry {
	data, ok := s.Settings[setting]
	if !ok {
		data = &Setting{Name: setting, ByModAndLanguage: map[string]map[string]*Entry{}}
		s.Settings[setting] = data
	}
	byLocale, ok := data.ByModAndLanguage[mod]
	if !ok {
		byLocale = map[string]*Entry{}
		data.ByModAndLanguage[mod] = byLocale
	}
	entry, ok := byLocale[locale]
	if !ok {
		entry = &Entry{Mod: mod, Locale: locale}
		byLocale[locale] = entry
	}
	return entry
}

func (s *Store) trackSetting(mod, setting string) {
	record, ok := s.Mods[mod]
	if !ok {
		record = &Mod{Name: mod, SettingNames: []string{}}
		s.Mods[mod] = record
	}
	for _, name := range record.SettingNames {
		if name == setting {
			return
		}
	}
	record.SettingNames = append(record.SettingNames, setting)
}

// Locales returns the sorted union of locales appearing in settings entries
// and core locale keys. It is recomputed on every call rather than tracked
// incrementally.
func (s *Store) Locales() []string {
	seen := map[string]bool{}
	for _, setting := range s.Settings {
		for _, byLocale := range setting.ByModAndLanguage {
			for locale := range byLocale {
				seen[locale] = true
			}
		}
	}
	for locale := range s.Core {
		seen[locale] = true
	}
	locales := make([]string, 0, len(seen))
	for locale := range seen {
		locales = append(locales, locale)
	}
	sort.Strings(locales)
	return locales
}

// Dataset materializes the persisted form. In final mode mods without any
// contributed setting are dropped; the checkpoint form keeps them so resumed
// runs can make correct skip decisions.
func (s *Store) Dataset(final bool) *Dataset {
	mods := s.Mods
	if final {
		mods = map[string]*Mod{}
		for name, mod := range s.Mods {
			if len(mod.SettingNames) > 0 {
				mods[name] = mod
			}
		}
	}
	var core map[string]*CoreLocale
	if len(s.Core) > 0 {
		core = s.Core
	}
	return &Dataset{
		Locales:  s.Locales(),
		Core:     core,
		Mods:     mods,
		Settings: s.Settings,
	}
}

// Persist writes the dataset to path with backup/restore crash safety: an
// existing artifact is renamed to a .bak sibling before the write, the
// backup is removed once the write succeeds, and a failed write removes the
// partial file and restores the backup. The file on disk is therefore
// always a complete artifact, old or new.
func (s *Store) Persist(path string, final bool) error {
	data, err := json.MarshalIndent(s.Dataset(final), "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode dataset: %w", err)
	}
	backup := path + ".bak"
	hasBackup := false
	if _, err := os.Stat(path); err == nil {
		if err := os.Rename(path, backup); err != nil {
			return fmt.Errorf("failed to back up %s: %w", path, err)
		}
		hasBackup = true
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		_ = os.Remove(path)
		if hasBackup {
			if restoreErr := os.Rename(backup, path); restoreErr != nil {
				log.Errorf("failed to restore backup %s: %v", backup, restoreErr)
			}
		}
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if hasBackup {
		if err := os.Remove(backup); err != nil {
			log.Warnf("failed to remove backup %s: %v", backup, err)
		}
	}
	return nil
}

// Load reads a previously persisted dataset into a fresh store. When the
// primary file is missing, unreadable or malformed it falls back to the
// .bak sibling left behind by an interrupted Persist: a kill during the
// primary write leaves a readable but truncated file next to the complete
// backup.
func Load(path string) (*Store, error) {
	parsed, err := readDataset(path)
	if err != nil {
		backup, backupErr := readDataset(path + ".bak")
		if backupErr != nil {
			return nil, err
		}
		log.Warnf("primary artifact %s unusable, resuming from backup: %v", path, err)
		parsed = backup
	}
	store := NewStore()
	if parsed.Mods != nil {
		store.Mods = parsed.Mods
	}
	if parsed.Settings != nil {
		store.Settings = parsed.Settings
	}
	if parsed.Core != nil {
		store.Core = parsed.Core
	}
	for _, mod := range store.Mods {
		if mod.SettingNames == nil {
			mod.SettingNames = []string{}
		}
	}
	return store, nil
}

func readDataset(path string) (*Dataset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	var parsed Dataset
	if err := json.Unmarshal(data, &parsed); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", path, err)
	}
	return &parsed, nil
}
