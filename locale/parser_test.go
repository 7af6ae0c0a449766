package locale_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"modlocale/locale"
)

func TestParseModernSchema(t *testing.T) {
	src := `[mod-setting-name]
my-setting = My setting
other-setting = Other

[mod-setting-description]
my-setting = Does a thing
`
	updates, err := locale.ParseSettingsConfig([]byte(src))
	require.NoError(t, err)
	assert.Equal(t, []locale.Update{
		{Setting: "my-setting", Kind: locale.Label, Value: "My setting"},
		{Setting: "other-setting", Kind: locale.Label, Value: "Other"},
		{Setting: "my-setting", Kind: locale.Description, Value: "Does a thing"},
	}, updates)
}

func TestParseModernSchemaSectionOrderIrrelevant(t *testing.T) {
	nameFirst := "[mod-setting-name]\nx = Label\n[mod-setting-description]\nx = Desc\n"
	descFirst := "[mod-setting-description]\nx = Desc\n[mod-setting-name]\nx = Label\n"

	a, err := locale.ParseSettingsConfig([]byte(nameFirst))
	require.NoError(t, err)
	b, err := locale.ParseSettingsConfig([]byte(descFirst))
	require.NoError(t, err)
	assert.ElementsMatch(t, a, b)
}

func TestParseLegacySchema(t *testing.T) {
	src := `[boiler_map_settings]
output-desc = Steam output
output = Output
`
	updates, err := locale.ParseSettingsConfig([]byte(src))
	require.NoError(t, err)
	assert.ElementsMatch(t, []locale.Update{
		{Setting: "boiler_output", Kind: locale.Description, Value: "Steam output"},
		{Setting: "boiler_output", Kind: locale.Label, Value: "Output"},
	}, updates)
}

func TestParseLegacySchemaHyphenNormalization(t *testing.T) {
	src := `[my-mod_user_settings]
turbo-mode = Turbo mode
turbo-mode-desc = Goes faster
`
	updates, err := locale.ParseSettingsConfig([]byte(src))
	require.NoError(t, err)
	assert.ElementsMatch(t, []locale.Update{
		{Setting: "my_mod_turbo_mode", Kind: locale.Label, Value: "Turbo mode"},
		{Setting: "my_mod_turbo_mode", Kind: locale.Description, Value: "Goes faster"},
	}, updates)
}

func TestParseLegacySchemaCaseInsensitiveKeywords(t *testing.T) {
	src := `[Boiler_MAP_Settings]
output-DESC = Steam output
`
	updates, err := locale.ParseSettingsConfig([]byte(src))
	require.NoError(t, err)
	// the section/suffix keywords match case-insensitively but the prefix
	// and suffix text stay verbatim
	assert.Equal(t, []locale.Update{
		{Setting: "Boiler_output", Kind: locale.Description, Value: "Steam output"},
	}, updates)
}

func TestParseLegacyDescSuffixMustEndKey(t *testing.T) {
	src := `[boiler_map_settings]
output-desc = Steam output
output-description = Not a description marker
output-desc-x = Nor this
`
	updates, err := locale.ParseSettingsConfig([]byte(src))
	require.NoError(t, err)
	assert.ElementsMatch(t, []locale.Update{
		{Setting: "boiler_output", Kind: locale.Description, Value: "Steam output"},
		{Setting: "boiler_output_description", Kind: locale.Label, Value: "Not a description marker"},
		{Setting: "boiler_output_desc_x", Kind: locale.Label, Value: "Nor this"},
	}, updates)
}

func TestParseBothSchemasInOneFile(t *testing.T) {
	src := `[mod-setting-name]
modern-setting = Modern

[pump_pref_settings]
rate = Rate
`
	updates, err := locale.ParseSettingsConfig([]byte(src))
	require.NoError(t, err)
	assert.ElementsMatch(t, []locale.Update{
		{Setting: "modern-setting", Kind: locale.Label, Value: "Modern"},
		{Setting: "pump_rate", Kind: locale.Label, Value: "Rate"},
	}, updates)
}

func TestParseBOMRoundTrip(t *testing.T) {
	src := "[mod-setting-name]\nx = Label\n"
	plain, err := locale.ParseSettingsConfig([]byte(src))
	require.NoError(t, err)
	withBOM, err := locale.ParseSettingsConfig(append([]byte{0xEF, 0xBB, 0xBF}, src...))
	require.NoError(t, err)
	assert.Equal(t, plain, withBOM)
}

func TestParseUndecodableBytes(t *testing.T) {
	updates, err := locale.ParseSettingsConfig([]byte{'[', 0xFF, 0xFE, 'x'})
	assert.ErrorIs(t, err, locale.ErrUndecodable)
	assert.Empty(t, updates)
}

func TestParseHeaderlessFile(t *testing.T) {
	// bare key/value pairs parse into an implicit default section, which
	// matches neither schema
	updates, err := locale.ParseSettingsConfig([]byte("stray-key = value\n"))
	require.NoError(t, err)
	assert.Empty(t, updates)
}

func TestParseToleratesStrayLines(t *testing.T) {
	src := `garbage without delimiter
[boiler_user_settings]
more stray text
output = Output
`
	updates, err := locale.ParseSettingsConfig([]byte(src))
	require.NoError(t, err)
	assert.Contains(t, updates, locale.Update{Setting: "boiler_output", Kind: locale.Label, Value: "Output"})
}

func TestParseDuplicateKeysLastWins(t *testing.T) {
	src := `[mod-setting-name]
x = First
x = Second
`
	updates, err := locale.ParseSettingsConfig([]byte(src))
	require.NoError(t, err)
	require.Len(t, updates, 1)
	assert.Equal(t, "Second", updates[0].Value)
}
