package docstore

import (
	"fmt"

	"github.com/blevesearch/bleve/v2/analysis/analyzer/custom"
	"github.com/blevesearch/bleve/v2/analysis/token/lowercase"
	"github.com/blevesearch/bleve/v2/analysis/tokenizer/unicode"
	"github.com/blevesearch/bleve/v2/mapping"

	// Stock analyzers for the languages without a custom one.
	_ "github.com/blevesearch/bleve/v2/analysis/lang/ar"
	_ "github.com/blevesearch/bleve/v2/analysis/lang/da"
	_ "github.com/blevesearch/bleve/v2/analysis/lang/de"
	_ "github.com/blevesearch/bleve/v2/analysis/lang/fi"
	_ "github.com/blevesearch/bleve/v2/analysis/lang/it"
	_ "github.com/blevesearch/bleve/v2/analysis/lang/nl"
	_ "github.com/blevesearch/bleve/v2/analysis/lang/pt"
	_ "github.com/blevesearch/bleve/v2/analysis/lang/ro"
	_ "github.com/blevesearch/bleve/v2/analysis/lang/tr"

	"github.com/simsapa/simsapa-sub001/app/common"
)

const (
	PaliAnalyzer       = "pli_stem_fold"
	SimpleFoldAnalyzer = "simple_fold"
)

// analyzer name for the content of a sutta index in a language
var languageAnalyzers = map[string]string{
	"ar":  "ar",
	"da":  "da",
	"de":  "de",
	"el":  SimpleFoldAnalyzer,
	"en":  "en_stem_fold",
	"es":  "es_stem_fold",
	"fi":  "fi",
	"fr":  "fr_stem_fold",
	"hu":  "hu_stem_fold",
	"it":  "it",
	"nl":  "nl",
	"no":  "no_stem_fold",
	"pli": PaliAnalyzer,
	"pt":  "pt",
	"ro":  "ro",
	"ru":  "ru_stem_fold",
	"san": PaliAnalyzer,
	"sv":  "sv_stem_fold",
	"ta":  SimpleFoldAnalyzer,
	"tr":  "tr",
}

// AnalyzerForLanguage returns the analyzer used for content in lang. Unknown
// languages use the English one.
func AnalyzerForLanguage(lang string) string {
	if a, ok := languageAnalyzers[lang]; ok {
		return a
	}
	return languageAnalyzers[common.LangEnglish]
}

func addAnalyzers(indexMapping *mapping.IndexMappingImpl) error {
	stemFold := func(stemmer string) map[string]any {
		return map[string]any{
			"type":          custom.Name,
			"char_filters":  []string{NiggahitaCharFilterName},
			"tokenizer":     unicode.Name,
			"token_filters": []string{lowercase.Name, stemmer, DiacriticFoldFilterName},
		}
	}

	if err := indexMapping.AddCustomAnalyzer(PaliAnalyzer, stemFold(PaliStemFilterName)); err != nil {
		return err
	}
	for lang, algo := range snowballLanguages {
		if err := indexMapping.AddCustomAnalyzer(lang+"_stem_fold", stemFold(snowballFilterPrefix+algo)); err != nil {
			return err
		}
	}
	return indexMapping.AddCustomAnalyzer(SimpleFoldAnalyzer, map[string]any{
		"type":          custom.Name,
		"char_filters":  []string{NiggahitaCharFilterName},
		"tokenizer":     unicode.Name,
		"token_filters": []string{lowercase.Name, DiacriticFoldFilterName},
	})
}

func keywordField() *mapping.FieldMapping {
	f := mapping.NewKeywordFieldMapping()
	f.IncludeInAll = false
	return f
}

func textField(analyzer string) *mapping.FieldMapping {
	f := mapping.NewTextFieldMapping()
	f.Analyzer = analyzer
	f.Store = true
	f.IncludeTermVectors = true
	f.IncludeInAll = false
	return f
}

// addKeyFields maps the fields which identify the source row.
func addKeyFields(m *mapping.DocumentMapping) {
	m.AddFieldMappingsAt("index_key", keywordField())
	m.AddFieldMappingsAt("schema_name", keywordField())
	m.AddFieldMappingsAt("table_name", keywordField())
	dbID := mapping.NewNumericFieldMapping()
	dbID.IncludeInAll = false
	m.AddFieldMappingsAt("db_id", dbID)
	m.AddFieldMappingsAt("uid", textField(SimpleFoldAnalyzer))
	m.AddFieldMappingsAt("source_uid", keywordField())
	m.AddFieldMappingsAt("language", keywordField())
}

func newIndexMapping(contentAnalyzer string, doc *mapping.DocumentMapping) (*mapping.IndexMappingImpl, error) {
	indexMapping := mapping.NewIndexMapping()
	if err := addAnalyzers(indexMapping); err != nil {
		return nil, fmt.Errorf("defining analyzers: %w", err)
	}
	indexMapping.DefaultMapping = doc
	indexMapping.DefaultAnalyzer = contentAnalyzer
	indexMapping.DefaultField = "content"
	return indexMapping, nil
}

// SuttaIndexMapping is the mapping of the sutta index for one language.
func SuttaIndexMapping(lang string) (*mapping.IndexMappingImpl, error) {
	analyzer := AnalyzerForLanguage(lang)

	doc := mapping.NewDocumentMapping()
	doc.Dynamic = false
	addKeyFields(doc)
	doc.AddFieldMappingsAt("ref", textField(SimpleFoldAnalyzer))
	doc.AddFieldMappingsAt("nikaya", keywordField())
	doc.AddFieldMappingsAt("title", textField(analyzer))
	doc.AddFieldMappingsAt("title_pali", textField(PaliAnalyzer))
	doc.AddFieldMappingsAt("content", textField(analyzer))

	return newIndexMapping(analyzer, doc)
}

// DictWordIndexMapping is the mapping of the dictionary index for one
// language. Definitions are mostly about Pāli words, so content always uses
// the Pāli analyzer.
func DictWordIndexMapping(lang string) (*mapping.IndexMappingImpl, error) {
	doc := mapping.NewDocumentMapping()
	doc.Dynamic = false
	addKeyFields(doc)
	doc.AddFieldMappingsAt("word", textField(SimpleFoldAnalyzer))
	doc.AddFieldMappingsAt("synonyms", textField(SimpleFoldAnalyzer))
	doc.AddFieldMappingsAt("dict_type", keywordField())
	doc.AddFieldMappingsAt("content", textField(PaliAnalyzer))

	return newIndexMapping(PaliAnalyzer, doc)
}
