package dataset

// Entry holds the localized label and description of one setting as
// contributed by one mod for one locale. Label and description may arrive
// from different config sections or different parse passes; the entry is
// created on first sight and mutated in place afterwards.
type Entry struct {
	Mod         string `json:"mod"`
	Locale      string `json:"locale"`
	Label       string `json:"label"`
	Description string `json:"description"`
}

// Setting is a canonical setting identifier together with every localized
// entry observed for it, keyed by mod name and then locale.
type Setting struct {
	Name             string                       `json:"name"`
	ByModAndLanguage map[string]map[string]*Entry `json:"by_mod_and_language"`
}

// Mod describes a discovered mod and the settings it contributed strings
// for. SettingNames keeps first-seen order without duplicates; Title and
// Version are overwritten on each rediscovery so re-ingestion picks up
// updates.
type Mod struct {
	Name         string   `json:"name"`
	Title        string   `json:"title"`
	Version      string   `json:"version,omitempty"`
	SettingNames []string `json:"setting_names"`
}

// CoreLocale carries the base game's own strings for one locale. Only keys
// actually present in the core locale files are set.
type CoreLocale struct {
	Version              string `json:"version,omitempty"`
	Title                string `json:"title,omitempty"`
	StartupCategoryLabel string `json:"startup_category_label,omitempty"`
	GlobalCategoryLabel  string `json:"global_category_label,omitempty"`
	PerUserCategoryLabel string `json:"per_user_category_label,omitempty"`
}

// Dataset is the persisted artifact, shared by the resumable checkpoint and
// the final output. Locales is derived: it is recomputed at persist time as
// the union of locales appearing in settings entries and core keys.
type Dataset struct {
	Locales  []string               `json:"locales"`
	Core     map[string]*CoreLocale `json:"core,omitempty"`
	Mods     map[string]*Mod        `json:"mods"`
	Settings map[string]*Setting    `json:"settings"`
}
