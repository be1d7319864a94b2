package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/simsapa/simsapa-sub001/app/common"
)

func TestLoadMissingFileGivesDefaults(t *testing.T) {
	dir := t.TempDir()
	conf, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, 20, conf.PageLen)
	assert.Equal(t, 200, conf.SnippetLen)
	assert.Equal(t, []string{"en", "pli"}, conf.MandatorySuttaLanguages)
	assert.Equal(t, filepath.Join(dir, "appdata.sqlite3"), conf.AppDataPath())
}

func TestLoadOverrides(t *testing.T) {
	dir := t.TempDir()
	body := `
page_len = 5
dpd_db = "/opt/dpd.db"
mandatory_sutta_languages = ["en"]

[server]
port = 9000
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, ConfigFileName), []byte(body), 0o644))

	conf, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, 5, conf.PageLen)
	assert.Equal(t, "/opt/dpd.db", conf.DpdPath())
	assert.Equal(t, []string{"en"}, conf.MandatorySuttaLanguages)
	assert.Equal(t, 9000, conf.Server.Port)
	assert.Equal(t, "127.0.0.1", conf.Server.Address)
	assert.Equal(t, dir, conf.DataDir)
}

func TestLoadValidation(t *testing.T) {
	testCases := []struct {
		name string
		body string
	}{
		{"zero page length", "page_len = 0"},
		{"negative snippet", "snippet_len = -1"},
		{"fuzzy too large", "fuzzy_distance = 3"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			dir := t.TempDir()
			require.NoError(t, os.WriteFile(filepath.Join(dir, ConfigFileName), []byte(tc.body), 0o644))
			_, err := Load(dir)
			var uve *common.UserVisibleError
			require.ErrorAs(t, err, &uve)
			assert.Equal(t, 400, uve.Code)
		})
	}
}

func TestSaveRoundTrip(t *testing.T) {
	dir := t.TempDir()
	conf := DefaultConfig(dir)
	conf.PageLen = 7
	require.NoError(t, conf.Save())

	loaded, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, 7, loaded.PageLen)
}
