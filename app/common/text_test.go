package common

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompactPlainText(t *testing.T) {
	testCases := []struct {
		input    string
		expected string
	}{
		{"Evaṃ me sutaṃ.", "evaṁ me sutaṁ"},
		{"  {Bhikkhave},   “dhammā”  ", "bhikkhave dhammā"},
		{"sīlavant'ti", "sīlavantti"},
		{"line\none", "line one"},
	}
	for _, tc := range testCases {
		t.Run(tc.input, func(t *testing.T) {
			assert.Equal(t, tc.expected, CompactPlainText(tc.input))
		})
	}
}

func TestCompactRichText(t *testing.T) {
	testCases := []struct {
		name     string
		input    string
		expected string
	}{
		{"inline emphasis joins", "<p>dhamm<b>āya</b></p>", "dhammāya"},
		{"cells are kept apart", "<tr><td>dhammassa</td><td>dhammāya</td></tr>", "dhammassa dhammāya"},
		{"ref links dropped", `<p><a class="ref sc" id="sc1">SC 1</a>Evaṃ me sutaṃ.</p>`, "evaṁ me sutaṁ"},
		{"script dropped", "<script>var x = 1;</script><p>sati</p>", "sati"},
		{"entities decoded", "<p>kusala &amp; akusala</p>", "kusala & akusala"},
		{"line breaks", "eka<br>dve<br/>tīṇi", "eka dve tīṇi"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, CompactRichText(tc.input))
		})
	}
}

func TestRemoveNoIndex(t *testing.T) {
	out, err := RemoveNoIndex(`<div><p>sutta text</p><footer class="noindex">Translated by</footer></div><p class="x noindex">nav</p>`)
	require.NoError(t, err)
	assert.Contains(t, out, "sutta text")
	assert.NotContains(t, out, "Translated by")
	assert.NotContains(t, out, "nav")
}

func TestExpandQuoteToPattern(t *testing.T) {
	testCases := []struct {
		quote   string
		content string
		matches bool
	}{
		{"sabbe sankhara anicca", "sabbe sankhara anicca ti", true},
		{"evam me sutam", "evam, me\nsutam", true},
		{"kim pana", "kīm pana", true},
		{`"dukkhan"ti`, "“dukkhan”ti", true},
		{"sabbe sankhara", "sabbe dhamma", false},
	}
	for _, tc := range testCases {
		t.Run(tc.quote, func(t *testing.T) {
			re, err := regexp.Compile(ExpandQuoteToPattern(tc.quote))
			require.NoError(t, err)
			assert.Equal(t, tc.matches, re.MatchString(tc.content))
		})
	}
}

func TestSuttaRefRecognition(t *testing.T) {
	testCases := []struct {
		query    string
		expected string
	}{
		{"SN 44.22", "uid:sn44.22"},
		{"MN 1", "uid:mn1"},
		{"MN44", "uid:mn44"},
		{"AN 4.10", "uid:an4.10"},
		{"Sn 4:2", "uid:sn4.2"},
		{"ud 2.1", "uid:uda2.1"},
		{"khp 3", "uid:kp3"},
		{"th 12", "uid:thag12"},
		{"d 22", "uid:dn22"},
		{"M10", "uid:mn10"},
		{"S 56.11", "uid:sn56.11"},
		{"a 4.10", "uid:an4.10"},
		{"a dhamma", "a dhamma"},
		{"dhamma", "dhamma"},
		{"/mn44/en/sujato", "/mn44/en/sujato"},
		{"mn 44 sutta", "mn 44 sutta"},
	}
	for _, tc := range testCases {
		t.Run(tc.query, func(t *testing.T) {
			assert.Equal(t, tc.expected, QueryTextToUidFieldQuery(tc.query))
		})
	}
}

func TestNormalizeSuttaRef(t *testing.T) {
	assert.Equal(t, "dn 1", NormalizeSuttaRef("D 1"))
	assert.Equal(t, "mn 10", NormalizeSuttaRef("M 10"))
	assert.Equal(t, "sn 56.11", NormalizeSuttaRef("S 56.11"))
	assert.Equal(t, "an 4.10", NormalizeSuttaRef("A 4.10"))
	assert.Equal(t, "sn56.11", NormalizeSuttaUid("S 56.11"))
}

func TestSanitizeUserInput(t *testing.T) {
	assert.Equal(t, "dhamma +source_uid:ms", SanitizeUserInput("dhamma +source:ms"))
	assert.Equal(t, "dhamma source_uid:ms", SanitizeUserInput("dhamma source_uid:ms"))
}

func TestLatinize(t *testing.T) {
	assert.Equal(t, "paticcasamuppada", Latinize("Paṭiccasamuppāda"))
	assert.Equal(t, "samyutta", Latinize("saṁyutta"))
	assert.Equal(t, "kamma", FoldDiacritics("√kamma"))
}

func TestWrapErrorForResponse(t *testing.T) {
	err := WrapErrorForResponse(&QuerySyntaxError{Query: "+(", Err: assert.AnError}, "search")
	var uve *UserVisibleError
	require.ErrorAs(t, err, &uve)
	assert.Equal(t, 422, uve.Code)

	assert.True(t, IsQuerySyntaxError(&QuerySyntaxError{Query: "x"}))
	assert.Equal(t, assert.AnError, WrapErrorForResponse(assert.AnError, "search"))
}
