package docstore

import (
	"github.com/blevesearch/bleve/v2/analysis"
	"github.com/blevesearch/bleve/v2/registry"
	"github.com/kljensen/snowball"

	"github.com/simsapa/simsapa-sub001/app/common"
	"github.com/simsapa/simsapa-sub001/app/pali"
)

const (
	NiggahitaCharFilterName = "niggahita"
	PaliStemFilterName      = "pali_stem"
	DiacriticFoldFilterName = "diacritic_fold"
	snowballFilterPrefix    = "snowball_"
)

// --- ṃ -> ṁ char filter ---
// Both forms are three bytes long in UTF-8, token offsets stay valid for
// highlighting.
type NiggahitaCharFilter struct{}

func (NiggahitaCharFilter) Filter(input []byte) []byte {
	return []byte(pali.Normalize(string(input)))
}

type PaliStemFilter struct{}

func (PaliStemFilter) Filter(input analysis.TokenStream) analysis.TokenStream {
	for _, token := range input {
		if token.KeyWord {
			continue
		}
		token.Term = []byte(pali.Stem(string(token.Term), false))
	}
	return input
}

type DiacriticFoldFilter struct{}

func (DiacriticFoldFilter) Filter(input analysis.TokenStream) analysis.TokenStream {
	for _, token := range input {
		token.Term = []byte(common.FoldDiacritics(string(token.Term)))
	}
	return input
}

// SnowballFilter stems with one of the snowball algorithms.
type SnowballFilter struct {
	Language string
}

func (f SnowballFilter) Filter(input analysis.TokenStream) analysis.TokenStream {
	for _, token := range input {
		if token.KeyWord {
			continue
		}
		stemmed, err := snowball.Stem(string(token.Term), f.Language, true)
		if err != nil {
			continue
		}
		token.Term = []byte(stemmed)
	}
	return input
}

// Language codes with a snowball stemmer, and the algorithm name.
var snowballLanguages = map[string]string{
	"en": "english",
	"es": "spanish",
	"fr": "french",
	"ru": "russian",
	"sv": "swedish",
	"no": "norwegian",
	"hu": "hungarian",
}

func init() {
	registry.RegisterCharFilter(NiggahitaCharFilterName, func(config map[string]interface{}, cache *registry.Cache) (analysis.CharFilter, error) {
		return NiggahitaCharFilter{}, nil
	})
	registry.RegisterTokenFilter(PaliStemFilterName, func(config map[string]interface{}, cache *registry.Cache) (analysis.TokenFilter, error) {
		return PaliStemFilter{}, nil
	})
	registry.RegisterTokenFilter(DiacriticFoldFilterName, func(config map[string]interface{}, cache *registry.Cache) (analysis.TokenFilter, error) {
		return DiacriticFoldFilter{}, nil
	})
	for _, algo := range snowballLanguages {
		registry.RegisterTokenFilter(snowballFilterPrefix+algo, func(config map[string]interface{}, cache *registry.Cache) (analysis.TokenFilter, error) {
			return SnowballFilter{Language: algo}, nil
		})
	}
}
