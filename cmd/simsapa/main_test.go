package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/simsapa/simsapa-sub001/app/common"
)

func execute(args ...string) (string, error) {
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestCommandErrors(t *testing.T) {
	dir := t.TempDir()

	testCases := []struct {
		name string
		args []string
		is   error
	}{
		{"unknown area", []string{"query", "--data-dir", dir, "--format", "text", "sermons", "dukkha"}, common.ErrUnknownSearchArea},
		{"missing databases", []string{"query", "--data-dir", dir, "--format", "text", "suttas", "dukkha"}, common.ErrDataSourceUnavailable},
		{"index without databases", []string{"index", "status", "--data-dir", dir}, common.ErrDataSourceUnavailable},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := execute(tc.args...)
			assert.ErrorIs(t, err, tc.is)
		})
	}
}

func TestQueryRejectsUnknownFormat(t *testing.T) {
	_, err := execute("query", "--data-dir", t.TempDir(), "--format", "pdf", "suttas", "dukkha")
	var ue *common.UserVisibleError
	assert.ErrorAs(t, err, &ue)
}

func TestImportRejectsDpd(t *testing.T) {
	_, err := execute("import", "suttas", "--data-dir", t.TempDir(), "--schema", "dpd", "suttas.jsonl")
	assert.ErrorContains(t, err, "cannot import into")
}

func TestDefaultDataDir(t *testing.T) {
	t.Setenv("SIMSAPA_DIR", "/tmp/simsapa-test")
	assert.Equal(t, "/tmp/simsapa-test", defaultDataDir())
}
