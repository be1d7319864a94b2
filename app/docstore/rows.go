package docstore

import (
	"fmt"

	"github.com/simsapa/simsapa-sub001/app/common"
)

// SourceRow is one of *SuttaRow, *DictWordRow, *PaliWordRow or *PaliRootRow.
type SourceRow interface {
	RowSchema() common.SchemaName
	RowTable() string
	RowUid() string
}

type SuttaRow struct {
	ID              int64
	Schema          common.SchemaName
	Uid             string
	SuttaRef        string
	Nikaya          string
	Language        string
	SourceUid       string
	Title           string
	TitlePali       string
	TitleTrans      string
	ContentPlain    string
	ContentHtml     string
	ContentJson     string
	ContentJsonTmpl string
}

func (r *SuttaRow) RowSchema() common.SchemaName { return r.Schema }
func (r *SuttaRow) RowTable() string             { return common.TableSuttas }
func (r *SuttaRow) RowUid() string               { return r.Uid }

type DictWordRow struct {
	ID              int64
	Schema          common.SchemaName
	Uid             string
	SourceUid       string
	Language        string
	Word            string
	WordNomSg       string
	Inflections     string
	Phonetic        string
	Transliteration string
	AlsoWrittenAs   string
	Synonyms        string
	Summary         string
	DefinitionPlain string
	DefinitionHtml  string
}

func (r *DictWordRow) RowSchema() common.SchemaName { return r.Schema }
func (r *DictWordRow) RowTable() string             { return common.TableDictWords }
func (r *DictWordRow) RowUid() string               { return r.Uid }

// DpdRow is a DPD headword or root.
type DpdRow interface {
	SourceRow
	Headword() string
}

// PaliWordRow is a DPD headword.
type PaliWordRow struct {
	ID           int64
	Pali1        string
	PaliClean    string
	WordAscii    string
	Stem         string
	Pos          string
	Grammar      string
	Meaning1     string
	Meaning2     string
	Construction string
}

func (r *PaliWordRow) RowSchema() common.SchemaName { return common.Dpd }
func (r *PaliWordRow) RowTable() string             { return common.TablePaliWords }
func (r *PaliWordRow) RowUid() string               { return fmt.Sprintf("%d/dpd", r.ID) }
func (r *PaliWordRow) Headword() string             { return r.Pali1 }

// PaliRootRow is a DPD root such as "√kar 1". RootClean drops the
// homonym number, RootNoSign also drops the √.
type PaliRootRow struct {
	Uid         string
	Root        string
	RootClean   string
	RootNoSign  string
	WordAscii   string
	RootGroup   int
	RootSign    string
	RootMeaning string
	RootInfo    string
}

func (r *PaliRootRow) RowSchema() common.SchemaName { return common.Dpd }
func (r *PaliRootRow) RowTable() string             { return common.TableDpdRoots }
func (r *PaliRootRow) RowUid() string               { return r.Uid }
func (r *PaliRootRow) Headword() string             { return r.Root }

var (
	_ SourceRow = &SuttaRow{}
	_ SourceRow = &DictWordRow{}
	_ DpdRow    = &PaliWordRow{}
	_ DpdRow    = &PaliRootRow{}
)
