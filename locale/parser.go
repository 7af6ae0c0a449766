package locale

import (
	"bytes"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"gopkg.in/ini.v1"
)

// FieldKind distinguishes which field of a localized entry an update sets.
type FieldKind int

const (
	Label FieldKind = iota
	Description
)

// Update is one (setting, field, value) fact extracted from a settings
// locale config blob.
type Update struct {
	Setting string
	Kind    FieldKind
	Value   string
}

// ErrUndecodable reports locale text that is not valid UTF-8. Callers treat
// it as a per-file skip.
var ErrUndecodable = errors.New("locale text is not valid UTF-8")

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

const (
	modernNameSection        = "mod-setting-name"
	modernDescriptionSection = "mod-setting-description"
)

// Legacy section naming: <prefix>_(map|pref|user)_settings groups settings
// for category <prefix>; a key with a -desc suffix carries a description.
var (
	legacySectionRe     = regexp.MustCompile(`(?i)^(.*)_(?:map|pref|user)_settings$`)
	legacyDescriptionRe = regexp.MustCompile(`(?i)^(.*)-desc$`)
)

// ParseSettingsConfig extracts setting label/description updates from one
// mod's locale config blob. Both the modern mod-setting-name /
// mod-setting-description sections and the legacy category sections are
// recognized, in that order; the two schemas may coexist in one file.
func ParseSettingsConfig(raw []byte) ([]Update, error) {
	text, err := decode(raw)
	if err != nil {
		return nil, err
	}
	cfg, err := loadLenient(text)
	if err != nil {
		return nil, fmt.Errorf("failed to parse locale config: %w", err)
	}

	var updates []Update
	if section, err := cfg.GetSection(modernNameSection); err == nil {
		for _, key := range section.Keys() {
			updates = append(updates, Update{Setting: key.Name(), Kind: Label, Value: key.Value()})
		}
	}
	if section, err := cfg.GetSection(modernDescriptionSection); err == nil {
		for _, key := range section.Keys() {
			updates = append(updates, Update{Setting: key.Name(), Kind: Description, Value: key.Value()})
		}
	}
	for _, section := range cfg.Sections() {
		match := legacySectionRe.FindStringSubmatch(section.Name())
		if match == nil {
			continue
		}
		prefix := match[1]
		for _, key := range section.Keys() {
			if desc := legacyDescriptionRe.FindStringSubmatch(key.Name()); desc != nil {
				updates = append(updates, Update{Setting: legacyName(prefix, desc[1]), Kind: Description, Value: key.Value()})
				continue
			}
			updates = append(updates, Update{Setting: legacyName(prefix, key.Name()), Kind: Label, Value: key.Value()})
		}
	}
	return updates, nil
}

// legacyName derives the canonical setting id from a legacy category prefix
// and key suffix; hyphens become underscores, everything else is verbatim.
func legacyName(prefix, suffix string) string {
	return strings.ReplaceAll(prefix+"_"+suffix, "-", "_")
}

// decode validates the blob as UTF-8 and strips a leading byte order mark
// so BOM and non-BOM inputs parse identically.
func decode(raw []byte) ([]byte, error) {
	if !utf8.Valid(raw) {
		return nil, ErrUndecodable
	}
	return bytes.TrimPrefix(raw, utf8BOM), nil
}

// loadLenient parses INI-like text tolerating duplicate keys and stray
// lines. Keys appearing before any section header land in the default
// section, so a headerless file still parses.
func loadLenient(text []byte) (*ini.File, error) {
	return ini.LoadSources(ini.LoadOptions{
		SkipUnrecognizableLines: true,
		IgnoreInlineComment:     true,
		KeyValueDelimiters:      "=",
	}, text)
}
