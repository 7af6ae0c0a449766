package dataset

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// WriteSplits writes one projection of the final dataset per observed
// locale next to the final artifact, plus a standalone core locale
// artifact. Projections carry no invariants of their own; they are derived
// from the final dataset and overwritten wholesale on each run.
func (s *Store) WriteSplits(dir string) error {
	full := s.Dataset(true)
	for _, locale := range full.Locales {
		slice := projectLocale(full, locale)
		path := filepath.Join(dir, "mod_settings_data."+sanitizeLocale(locale)+".json")
		if err := writeJSON(path, slice); err != nil {
			return err
		}
	}
	if full.Core != nil {
		if err := writeJSON(filepath.Join(dir, "core_locale_data.json"), full.Core); err != nil {
			return err
		}
	}
	return nil
}

// projectLocale keeps only the given locale's entries, and only the
// settings and mods that still have content after the cut.
func projectLocale(full *Dataset, locale string) *Dataset {
	slice := &Dataset{
		Locales:  []string{locale},
		Mods:     map[string]*Mod{},
		Settings: map[string]*Setting{},
	}
	contributing := map[string]bool{}
	for name, setting := range full.Settings {
		byMod := map[string]map[string]*Entry{}
		for mod, byLocale := range setting.ByModAndLanguage {
			if entry, ok := byLocale[locale]; ok {
				byMod[mod] = map[string]*Entry{locale: entry}
				contributing[mod] = true
			}
		}
		if len(byMod) > 0 {
			slice.Settings[name] = &Setting{Name: name, ByModAndLanguage: byMod}
		}
	}
	for name, mod := range full.Mods {
		if contributing[name] {
			slice.Mods[name] = mod
		}
	}
	if core, ok := full.Core[locale]; ok {
		slice.Core = map[string]*CoreLocale{locale: core}
	}
	return slice
}

func sanitizeLocale(locale string) string {
	return strings.ReplaceAll(locale, string(os.PathSeparator), "_")
}

func writeJSON(path string, value interface{}) error {
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", path, err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
