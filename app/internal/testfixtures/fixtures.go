// Package testfixtures builds small appdata, userdata and DPD databases for
// tests.
package testfixtures

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/simsapa/simsapa-sub001/app/common"
	"github.com/simsapa/simsapa-sub001/app/config"
	"github.com/simsapa/simsapa-sub001/app/docstore"
)

// Number of English suttas which contain both "dukkha" and "nirodha".
const DukkhaNirodhaCount = 7

// NewConfig returns a config rooted in a fresh temporary directory.
func NewConfig(t testing.TB) *config.SimsapaConfig {
	conf := config.DefaultConfig(t.TempDir())
	conf.PageLen = 3
	conf.WorkerCount = 2
	return &conf
}

// NewStore creates and seeds the three databases under conf.DataDir.
func NewStore(t testing.TB, conf *config.SimsapaConfig) *docstore.ContentStore {
	t.Helper()
	ctx := context.Background()

	appdata, err := docstore.NewSQLiteDB(conf.AppDataPath(), false)
	require.NoError(t, err)
	userdata, err := docstore.NewSQLiteDB(conf.UserDataPath(), false)
	require.NoError(t, err)
	dpd, err := docstore.NewSQLiteDB(conf.DpdPath(), false)
	require.NoError(t, err)

	require.NoError(t, docstore.InitContentSchema(ctx, appdata))
	require.NoError(t, docstore.InitContentSchema(ctx, userdata))
	require.NoError(t, docstore.InitDpdSchema(ctx, dpd))

	store := docstore.NewContentStore(appdata, userdata, dpd)
	t.Cleanup(func() { store.Close() })

	require.NoError(t, store.InsertSuttas(ctx, common.AppData, AppDataSuttas()))
	require.NoError(t, store.InsertSuttas(ctx, common.UserData, UserDataSuttas()))
	require.NoError(t, store.InsertDictWords(ctx, common.AppData, AppDataDictWords()))
	require.NoError(t, store.InsertDictWords(ctx, common.UserData, UserDataDictWords()))
	require.NoError(t, store.InsertPaliWords(ctx, PaliWords()))
	require.NoError(t, store.InsertPaliRoots(ctx, PaliRoots()))
	require.NoError(t, store.InsertInflections(ctx, Inflections()))
	require.NoError(t, store.InsertSandhi(ctx, Sandhi()))

	return store
}

// IndexDir is where tests put their fulltext indexes.
func IndexDir(conf *config.SimsapaConfig) string {
	return filepath.Join(conf.DataDir, conf.IndexDir)
}

func AppDataSuttas() []*docstore.SuttaRow {
	suttas := []*docstore.SuttaRow{
		{
			Uid:       "mil5.3.7/en/tw_rhysdavids",
			SuttaRef:  "Mil 5.3.7",
			Language:  "en",
			SourceUid: "tw_rhysdavids",
			Title:     "The Four Foundations",
			TitlePali: "Satipaṭṭhānapañha",
			ContentHtml: `<div><p>Venerable Nāgasena, the satipaṭṭhāna are four.</p>
<p>Which satipaṭṭhāna is first? The satipaṭṭhāna of the body.</p>
<footer class="noindex">Translated by T. W. Rhys Davids</footer></div>`,
		},
		{
			Uid:       "mn10/en/sujato",
			SuttaRef:  "MN 10",
			Language:  "en",
			SourceUid: "sujato",
			Title:     "Mindfulness Meditation",
			TitlePali: "Satipaṭṭhānasutta",
			ContentPlain: "So I have heard. At one time the Buddha was staying in the land of the Kurus. " +
				"This is the path to convergence, mindfulness meditation, for the purification of sentient beings, " +
				"for getting past sorrow and crying, for ending pain and sadness, for discovering the system, " +
				"for realizing extinguishment. It is called satipaṭṭhāna in the verses.",
		},
		{
			Uid:          "mn1/en/bodhi",
			SuttaRef:     "MN 1",
			Language:     "en",
			SourceUid:    "bodhi",
			Title:        "The Root of All Things",
			TitlePali:    "Mūlapariyāyasutta",
			ContentPlain: "Thus have I heard. He perceives earth as earth.",
		},
		{
			Uid:       "mn10/pli/ms",
			SuttaRef:  "MN 10",
			Language:  "pli",
			SourceUid: "ms",
			Title:     "Satipaṭṭhānasutta",
			TitlePali: "Satipaṭṭhānasutta",
			ContentPlain: "Evaṃ me sutaṃ. Ekaṃ samayaṃ bhagavā kurūsu viharati. " +
				"Ekāyano ayaṃ, bhikkhave, maggo sattānaṃ visuddhiyā, yadidaṃ cattāro satipaṭṭhānā.",
		},
		{
			Uid:          "sn56.11/pli/ms",
			SuttaRef:     "SN 56.11",
			Language:     "pli",
			SourceUid:    "ms",
			Title:        "Dhammacakkappavattanasutta",
			TitlePali:    "Dhammacakkappavattanasutta",
			ContentPlain: "Idaṃ kho pana, bhikkhave, dukkhaṃ ariyasaccaṃ. Jātipi dukkhā, jarāpi dukkhā.",
		},
		{
			Uid:       "dn1/en/empty",
			SuttaRef:  "DN 1",
			Language:  "en",
			SourceUid: "empty",
			Title:     "No content",
		},
	}

	for i := 1; i <= DukkhaNirodhaCount; i++ {
		suttas = append(suttas, &docstore.SuttaRow{
			Uid:          fmt.Sprintf("sn56.%d/en/test", 20+i),
			SuttaRef:     fmt.Sprintf("SN 56.%d", 20+i),
			Language:     "en",
			SourceUid:    "test",
			Title:        fmt.Sprintf("Truths %d", i),
			ContentPlain: fmt.Sprintf("The noble truth of dukkha, and the noble truth of nirodha, discourse %d.", i),
		})
	}
	// dukkha without nirodha
	suttas = append(suttas, &docstore.SuttaRow{
		Uid:          "sn56.40/en/test",
		SuttaRef:     "SN 56.40",
		Language:     "en",
		SourceUid:    "test",
		Title:        "Dukkha only",
		ContentPlain: "The noble truth of dukkha.",
	})
	return suttas
}

func UserDataSuttas() []*docstore.SuttaRow {
	return []*docstore.SuttaRow{
		{
			Uid:          "an4.10/en/user",
			SuttaRef:     "AN 4.10",
			Language:     "en",
			SourceUid:    "user",
			Title:        "Yokes",
			ContentPlain: "There are these four yokes. The noble truth of dukkha and of nirodha is taught here.",
		},
	}
}

func AppDataDictWords() []*docstore.DictWordRow {
	return []*docstore.DictWordRow{
		{Uid: "kamma/pts", SourceUid: "pts", Language: "en", Word: "kamma",
			DefinitionPlain: "action, deed; work, occupation"},
		{Uid: "kammika/pts", SourceUid: "pts", Language: "en", Word: "kammika",
			DefinitionPlain: "one who works, a worker; cp. kamma"},
		{Uid: "kammaṭṭhāna/pts", SourceUid: "pts", Language: "en", Word: "kammaṭṭhāna",
			DefinitionHtml: "<p>occupation; a subject of <b>meditation</b>, cp. kamma</p>"},
		{Uid: "dhamma/pts", SourceUid: "pts", Language: "en", Word: "dhamma",
			Summary: "nature; the teaching", DefinitionPlain: "constitution, nature; the teaching of the Buddha"},
		{Uid: "dhammacakka/ncped", SourceUid: "ncped", Language: "en", Word: "dhammacakka",
			Synonyms: "wheel of the teaching", DefinitionPlain: "the wheel of dhamma"},
		{Uid: "sati/pts", SourceUid: "pts", Language: "en", Word: "sati", WordNomSg: "sati",
			Inflections: "satiṁ satiyā", DefinitionPlain: "memory, mindfulness"},
		{Uid: "sati 2/pts", SourceUid: "pts", Language: "en", Word: "sati 2",
			DefinitionPlain: "being, existing"},
		{Uid: "anusati/pts", SourceUid: "pts", Language: "en", Word: "anusati",
			DefinitionPlain: "recollection; mindfulness"},
		{Uid: "karma/de", SourceUid: "de", Language: "de", Word: "kamma",
			DefinitionPlain: "Handlung, Tat"},
	}
}

func UserDataDictWords() []*docstore.DictWordRow {
	return []*docstore.DictWordRow{
		{Uid: "kammakara/user", SourceUid: "user", Language: "en", Word: "kammakara",
			DefinitionPlain: "a worker, servant; cp. kamma"},
	}
}

// DPD headword ids used in tests.
const (
	KammikaOneID int64 = 20400
	KammikaTwoID int64 = 20401
)

func PaliWords() []*docstore.PaliWordRow {
	return []*docstore.PaliWordRow{
		{ID: KammikaOneID, Pali1: "kammika 1", PaliClean: "kammika", WordAscii: "kammika", Stem: "kammik",
			Pos: "adj", Grammar: "adj, from kamma", Meaning1: "working; industrious", Construction: "kamma + ika"},
		{ID: KammikaTwoID, Pali1: "kammika 2", PaliClean: "kammika", WordAscii: "kammika", Stem: "kammik",
			Pos: "masc", Grammar: "masc", Meaning2: "worker; laborer", Construction: "kamma + ika"},
		{ID: 20300, Pali1: "kamma 1", PaliClean: "kamma", WordAscii: "kamma", Stem: "kamm",
			Pos: "nt", Grammar: "nt", Meaning1: "action; deed"},
		{ID: 31000, Pali1: "dhamma 1", PaliClean: "dhamma", WordAscii: "dhamma", Stem: "dhamm",
			Pos: "masc", Grammar: "masc", Meaning1: "nature; teaching"},
		{ID: 8000, Pali1: "api 1", PaliClean: "api", WordAscii: "api", Stem: "api",
			Pos: "ind", Grammar: "ind, emph", Meaning1: "even; also"},
		{ID: 40100, Pali1: "ṭhāna 1", PaliClean: "ṭhāna", WordAscii: "thana", Stem: "ṭhān",
			Pos: "nt", Grammar: "nt", Meaning1: "place; position"},
	}
}

// KarRootUid is the uid of the only DPD root in the fixtures.
const KarRootUid = "√kar 1/dpd"

func PaliRoots() []*docstore.PaliRootRow {
	return []*docstore.PaliRootRow{
		{Uid: KarRootUid, Root: "√kar 1", RootClean: "√kar", RootNoSign: "kar", WordAscii: "kar",
			RootGroup: 7, RootSign: "o", RootMeaning: "do; make",
			RootInfo: "<b>√kar</b> 7 o (do; make)"},
	}
}

func Inflections() map[string][]string {
	return map[string][]string{
		// deliberately not in collation order
		"kammikassa": {"kammika 2", "kammika 1"},
		"kammaṁ":     {"kamma 1"},
		"dhammassa":  {"dhamma 1"},
		"api":        {"api 1"},
		"ṭhānaṁ":     {"ṭhāna 1"},
	}
}

func Sandhi() map[string][]string {
	return map[string][]string{
		"kammikassāpi": {"kammikassa + api"},
		"kammaṭhānaṁ":  {"kammaṁ + ṭhānaṁ", "kamma + ṭhānaṁ"},
		// also an inflection, must never be consulted
		"dhammassa": {"kammaṁ + ṭhānaṁ"},
	}
}
