package ingest_test

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/simsapa/simsapa-sub001/app/common"
	"github.com/simsapa/simsapa-sub001/app/fulltext"
	"github.com/simsapa/simsapa-sub001/app/ingest"
	"github.com/simsapa/simsapa-sub001/app/internal/testfixtures"
)

func TestSuttaUid(t *testing.T) {
	testCases := []struct {
		rec      ingest.SuttaRecord
		expected string
	}{
		{ingest.SuttaRecord{Uid: "dn1", Lang: "en", Author: "bodhi"}, "dn1/en/bodhi"},
		{ingest.SuttaRecord{Uid: "dn1", Lang: "pli", Muids: []string{"root", "pli", "ms"}}, "dn1/pli/ms"},
		{ingest.SuttaRecord{Uid: "sn1.54", Lang: "pt", Muids: []string{"translation", "pt", "laera", "quaresma"}}, "sn1.54/pt/laera-quaresma"},
		{ingest.SuttaRecord{Uid: "dn1", Lang: "en", Muids: []string{"translation", "en"}}, ""},
		{ingest.SuttaRecord{Lang: "en", Author: "bodhi"}, ""},
	}
	for _, tc := range testCases {
		t.Run(tc.expected, func(t *testing.T) {
			assert.Equal(t, tc.expected, tc.rec.SuttaUid())
		})
	}
}

func TestMerge(t *testing.T) {
	html := &ingest.SuttaRecord{Uid: "mn1", Lang: "en", Author: "bodhi", Format: ingest.FormatHTML, Title: "html"}
	segments := &ingest.SuttaRecord{Uid: "mn1", Lang: "en", Muids: []string{"translation", "en", "bodhi"}, ContentJson: "{}", Title: "segments"}
	variant := &ingest.SuttaRecord{Uid: "mn1", Lang: "en", Author: "bodhi", Muids: []string{"variant"}, Title: "variant"}
	comment := &ingest.SuttaRecord{Uid: "mn1", Lang: "en", Author: "bodhi", Muids: []string{"comment"}, Title: "comment"}
	root := &ingest.SuttaRecord{Uid: "mn1", Lang: "en", Author: "bodhi", Muids: []string{"root"}, Title: "root"}
	other := &ingest.SuttaRecord{Uid: "mn1", Lang: "en", Author: "bodhi", Format: ingest.FormatHTML, Title: "other"}

	testCases := []struct {
		name      string
		records   []*ingest.SuttaRecord
		decisions []ingest.Decision
		kept      string
	}{
		{"segments replace html", []*ingest.SuttaRecord{html, segments},
			[]ingest.Decision{ingest.Added, ingest.Replaced}, "segments"},
		{"html does not replace segments", []*ingest.SuttaRecord{segments, html},
			[]ingest.Decision{ingest.Added, ingest.UnknownDuplicate}, "segments"},
		{"variant is skipped", []*ingest.SuttaRecord{html, variant},
			[]ingest.Decision{ingest.Added, ingest.KnownDuplicate}, "html"},
		{"variant kept without a root", []*ingest.SuttaRecord{variant},
			[]ingest.Decision{ingest.Added}, "variant"},
		{"root replaces variant", []*ingest.SuttaRecord{variant, root},
			[]ingest.Decision{ingest.Added, ingest.Replaced}, "root"},
		{"comments are ignored", []*ingest.SuttaRecord{comment, html},
			[]ingest.Decision{ingest.Ignored, ingest.Added}, "html"},
		{"unknown duplicate keeps the earlier", []*ingest.SuttaRecord{html, other},
			[]ingest.Decision{ingest.Added, ingest.UnknownDuplicate}, "html"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			m := ingest.NewMerger()
			var decisions []ingest.Decision
			for _, r := range tc.records {
				decisions = append(decisions, m.Merge(r))
			}
			assert.Equal(t, tc.decisions, decisions)

			kept := m.Records()
			require.Len(t, kept, 1)
			assert.Equal(t, tc.kept, kept[0].Title)
			assert.Equal(t, len(tc.records), m.Stats.Total)
		})
	}
}

const importFile = `{"uid":"sn1.1","lang":"en","author_uid":"user2","format":"html","title":"Crossing the Flood","content_html":"<p>How did you cross the flood?</p>"}
{"uid":"sn1.1","lang":"en","muids":["translation","en","user2"],"title":"Crossing the Flood","content_json":"{\"sn1.1:1.1\":\"How did you cross the flood, dear sir?\"}","content_plain":"How did you cross the flood, dear sir?"}
{"uid":"sn1.1","lang":"en","author_uid":"user2","muids":["variant"],"content_plain":"variant reading"}
{"uid":"sn1.1","lang":"en","muids":["comment","en","user2"],"content_plain":"a comment"}
not json
{"uid":"an4.10","lang":"en","author_uid":"user","title":"Yokes again","content_plain":"other yokes"}
{"uid":"sn1.2","lang":"en","author_uid":"user2","title":"first","content_plain":"Released from the first bonds."}
{"uid":"sn1.2","lang":"en","author_uid":"user2","title":"second","content_plain":"Released from the second bonds."}
`

func newImporter(t *testing.T) (*ingest.Importer, *fulltext.IndexManager) {
	ctx := context.Background()
	conf := testfixtures.NewConfig(t)
	store := testfixtures.NewStore(t, conf)
	m := fulltext.NewIndexManager(conf, store)
	require.NoError(t, m.OpenAll(ctx, false))
	t.Cleanup(func() { m.Close() })
	require.NoError(t, m.IndexAll(ctx, false))
	return ingest.NewImporter(store, m), m
}

func searchUids(t *testing.T, m *fulltext.IndexManager, text string) []string {
	q, err := m.Index(common.AreaSuttas, "en").NewQuery(text, fulltext.QueryParams{PageLen: 20})
	require.NoError(t, err)
	res, err := q.AllResults(context.Background())
	require.NoError(t, err)
	var uids []string
	for _, r := range res {
		uids = append(uids, r.Uid)
	}
	return uids
}

func TestImportSuttas(t *testing.T) {
	ctx := context.Background()
	im, m := newImporter(t)

	stats, err := im.ImportSuttas(ctx, strings.NewReader(importFile), common.UserData)
	require.NoError(t, err)

	assert.Equal(t, ingest.MergeStats{
		Total: 7, Added: 3, Replaced: 1, KnownDuplicate: 1, UnknownDup: 1, Ignored: 1,
	}, stats.Merge)
	assert.Equal(t, 2, stats.Inserted)
	assert.Equal(t, 0, stats.Updated)
	// an4.10/en/user is already stored
	assert.Equal(t, 1, stats.Kept)

	n, err := m.Index(common.AreaSuttas, "en").DocCount()
	require.NoError(t, err)
	assert.Equal(t, uint64(14), n)

	assert.Equal(t, []string{"sn1.1/en/user2"}, searchUids(t, m, "flood"))
	assert.Equal(t, []string{"sn1.2/en/user2"}, searchUids(t, m, "bonds"))
	assert.Empty(t, searchUids(t, m, "second"))
}

func TestImportUpgradesStoredHtml(t *testing.T) {
	ctx := context.Background()
	im, m := newImporter(t)

	old := `{"uid":"sn1.3","lang":"en","author_uid":"user2","format":"html","title":"Rafts","content_html":"<p>An old wording.</p>"}`
	stats, err := im.ImportSuttas(ctx, strings.NewReader(old), common.UserData)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Inserted)

	upgraded := `{"uid":"sn1.3","lang":"en","author_uid":"user2","format":"segments","title":"Rafts","content_json":"{}","content_plain":"A new wording about the raft."}`
	stats, err = im.ImportSuttas(ctx, strings.NewReader(upgraded), common.UserData)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Updated)
	assert.Equal(t, 0, stats.Inserted)

	// replaced in place, not added twice
	n, err := m.Index(common.AreaSuttas, "en").DocCount()
	require.NoError(t, err)
	assert.Equal(t, uint64(13), n)
	assert.Equal(t, []string{"sn1.3/en/user2"}, searchUids(t, m, "raft"))
	assert.Empty(t, searchUids(t, m, "old"))

	// importing the html again keeps the segments version
	stats, err = im.ImportSuttas(ctx, strings.NewReader(old), common.UserData)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Kept)
}

func TestImportIntoDpdIsRefused(t *testing.T) {
	im, _ := newImporter(t)
	_, err := im.ImportSuttas(context.Background(), strings.NewReader(""), common.Dpd)
	assert.Error(t, err)
}
