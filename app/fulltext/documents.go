package fulltext

import (
	"strings"

	"github.com/simsapa/simsapa-sub001/app/common"
	"github.com/simsapa/simsapa-sub001/app/docstore"
)

// SuttaDoc is what a sutta index stores for one sutta.
type SuttaDoc struct {
	IndexKey   string `json:"index_key"`
	DbID       int64  `json:"db_id"`
	SchemaName string `json:"schema_name"`
	TableName  string `json:"table_name"`
	Uid        string `json:"uid"`
	Language   string `json:"language"`
	SourceUid  string `json:"source_uid"`
	Ref        string `json:"ref"`
	Nikaya     string `json:"nikaya"`
	Title      string `json:"title"`
	TitlePali  string `json:"title_pali"`
	Content    string `json:"content"`
}

// DictWordDoc is what a dictionary index stores for one word, from either
// dict_words or the DPD headwords.
type DictWordDoc struct {
	IndexKey   string `json:"index_key"`
	DbID       int64  `json:"db_id"`
	SchemaName string `json:"schema_name"`
	TableName  string `json:"table_name"`
	Uid        string `json:"uid"`
	Language   string `json:"language"`
	SourceUid  string `json:"source_uid"`
	DictType   string `json:"dict_type"`
	Word       string `json:"word"`
	Synonyms   string `json:"synonyms"`
	Content    string `json:"content"`
}

const (
	DictTypeSQL      = "sql"
	DictTypeStardict = "stardict"
)

func joinNonEmpty(parts ...string) string {
	var kept []string
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, " ")
}

// NewSuttaDoc returns false when the sutta has no content to index.
//
// HTML content wins over plain content. Elements with the noindex class are
// removed first. The reference and the titles are put in front of the content
// so that one query on content finds them too.
func NewSuttaDoc(x *docstore.SuttaRow) (SuttaDoc, bool, error) {
	var content string
	switch {
	case strings.TrimSpace(x.ContentHtml) != "":
		html, err := common.RemoveNoIndex(x.ContentHtml)
		if err != nil {
			return SuttaDoc{}, false, err
		}
		content = common.CompactRichText(html)
	case x.ContentPlain != "":
		content = common.CompactPlainText(x.ContentPlain)
	default:
		return SuttaDoc{}, false, nil
	}

	return SuttaDoc{
		IndexKey:   common.IndexKey(x.Schema, common.TableSuttas, x.Uid),
		DbID:       x.ID,
		SchemaName: string(x.Schema),
		TableName:  common.TableSuttas,
		Uid:        x.Uid,
		Language:   x.Language,
		SourceUid:  x.SourceUid,
		Ref:        x.SuttaRef,
		Nikaya:     x.Nikaya,
		Title:      x.Title,
		TitlePali:  x.TitlePali,
		Content:    joinNonEmpty(x.SuttaRef, x.Title, x.TitlePali, content),
	}, true, nil
}

// NewDictWordDoc returns false when the word has no definition to index.
func NewDictWordDoc(x *docstore.DictWordRow) (DictWordDoc, bool) {
	var content string
	switch {
	case strings.TrimSpace(x.DefinitionHtml) != "":
		content = common.CompactRichText(x.DefinitionHtml)
	case x.DefinitionPlain != "":
		content = common.CompactPlainText(x.DefinitionPlain)
	default:
		return DictWordDoc{}, false
	}

	return DictWordDoc{
		IndexKey:   common.IndexKey(x.Schema, common.TableDictWords, x.Uid),
		DbID:       x.ID,
		SchemaName: string(x.Schema),
		TableName:  common.TableDictWords,
		Uid:        x.Uid,
		Language:   x.Language,
		SourceUid:  x.SourceUid,
		DictType:   DictTypeStardict,
		Word:       x.Word,
		Synonyms:   x.Synonyms,
		Content:    joinNonEmpty(x.Word, content, x.Synonyms),
	}, true
}

// PaliWordPlaintext is the text of a DPD headword as it is indexed.
func PaliWordPlaintext(x *docstore.PaliWordRow) string {
	return joinNonEmpty(x.Pali1, x.Pos, x.Grammar, x.Meaning1, x.Meaning2, x.Construction)
}

func NewPaliWordDoc(x *docstore.PaliWordRow) DictWordDoc {
	return DictWordDoc{
		IndexKey:   common.IndexKey(common.Dpd, common.TablePaliWords, x.RowUid()),
		DbID:       x.ID,
		SchemaName: string(common.Dpd),
		TableName:  common.TablePaliWords,
		Uid:        x.RowUid(),
		Language:   common.LangEnglish,
		SourceUid:  "dpd",
		DictType:   DictTypeSQL,
		Word:       x.Pali1,
		Content:    joinNonEmpty(x.Pali1, common.CompactPlainText(PaliWordPlaintext(x))),
	}
}
