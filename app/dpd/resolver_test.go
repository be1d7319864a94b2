package dpd_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/simsapa/simsapa-sub001/app/dpd"
	"github.com/simsapa/simsapa-sub001/app/internal/testfixtures"
)

func newResolver(t *testing.T) *dpd.Resolver {
	store := testfixtures.NewStore(t, testfixtures.NewConfig(t))
	return dpd.NewResolver(store)
}

func TestLookup(t *testing.T) {
	ctx := context.Background()
	r := newResolver(t)

	testCases := []struct {
		query    string
		stage    dpd.Stage
		expected []string
	}{
		{"20400", dpd.StageID, []string{"kammika 1"}},
		{"20400/dpd", dpd.StageID, []string{"kammika 1"}},
		{testfixtures.KarRootUid, dpd.StageID, []string{"√kar 1"}},
		{"√kar", dpd.StageCleanExact, []string{"√kar 1"}},
		{"kar", dpd.StageCleanExact, []string{"√kar 1"}},
		{"kammikassa", dpd.StageInflection, []string{"kammika 1", "kammika 2"}},
		{"Kammaṃ", dpd.StageInflection, []string{"kamma 1"}},
		// also in the sandhi table, which must not be consulted
		{"dhammassa", dpd.StageInflection, []string{"dhamma 1"}},
		{"kammikassāpi", dpd.StageDeconstructor, []string{"api 1", "kammika 1", "kammika 2"}},
		{"kammaṭhānaṁ", dpd.StageDeconstructor, []string{"kamma 1", "ṭhāna 1"}},
		{"thana", dpd.StageCleanExact, []string{"ṭhāna 1"}},
		{"kamm", dpd.StageCleanPrefix, []string{"kamma 1", "kammika 1", "kammika 2"}},
		{"than", dpd.StageCleanPrefix, []string{"ṭhāna 1"}},
		{"dhammena", dpd.StageStemExact, []string{"dhamma 1"}},
		{"dhamo", dpd.StageStemPrefix, []string{"dhamma 1"}},
		{"99999", dpd.StageNone, nil},
		{"√gam 1/dpd", dpd.StageNone, nil},
		{"  ", dpd.StageNone, nil},
	}

	for _, tc := range testCases {
		t.Run(tc.query, func(t *testing.T) {
			words, stage, err := r.LookupStaged(ctx, tc.query)
			require.NoError(t, err)
			assert.Equal(t, tc.stage, stage)

			var got []string
			for _, w := range words {
				got = append(got, w.Headword())
			}
			assert.Equal(t, tc.expected, got)
		})
	}
}

func TestDeconstructorVariants(t *testing.T) {
	ctx := context.Background()
	r := newResolver(t)

	v, err := r.DeconstructorVariants(ctx, "kammaṭhānaṁ")
	require.NoError(t, err)
	assert.Equal(t, []string{"kammaṁ + ṭhānaṁ", "kamma + ṭhānaṁ"}, v)

	v, err = r.DeconstructorVariants(ctx, "kamma")
	require.NoError(t, err)
	assert.Empty(t, v)
}

func TestNormalizeQuery(t *testing.T) {
	assert.Equal(t, "gacchāmīti", dpd.NormalizeQuery("Gacchāmī’ti"))
	assert.Equal(t, "evaṁ", dpd.NormalizeQuery(" evaṃ "))

	id, ok := dpd.ParseID("31000/dpd")
	assert.True(t, ok)
	assert.Equal(t, int64(31000), id)
	_, ok = dpd.ParseID("kamma/dpd")
	assert.False(t, ok)
	_, ok = dpd.ParseID(testfixtures.KarRootUid)
	assert.False(t, ok)
}
