// Package ingest imports sutta records into a content database, merging the
// records which describe the same sutta.
package ingest

import (
	"log/slog"
	"slices"
	"strings"

	"github.com/simsapa/simsapa-sub001/app/docstore"
)

// Format of a record's content.
type Format string

const (
	// FormatHTML is an older record with one HTML document per sutta.
	FormatHTML Format = "html"
	// FormatSegments is a newer, edited record of numbered segments.
	FormatSegments Format = "segments"
)

// Record kinds, as listed in a record's muids.
const (
	KindRoot        = "root"
	KindTranslation = "translation"
	KindReference   = "reference"
	KindVariant     = "variant"
	KindComment     = "comment"
)

// KeepEarlierOnUnknownDuplicate decides which record survives when two
// records of the same sutta match none of the merge rules. The choice is
// arbitrary.
const KeepEarlierOnUnknownDuplicate = true

// SuttaRecord is one line of an import file.
type SuttaRecord struct {
	Uid    string   `json:"uid"`
	Lang   string   `json:"lang"`
	Author string   `json:"author_uid"`
	Muids  []string `json:"muids"`
	Format Format   `json:"format"`

	Ref        string `json:"ref"`
	Nikaya     string `json:"nikaya"`
	Title      string `json:"title"`
	TitlePali  string `json:"title_pali"`
	TitleTrans string `json:"title_trans"`

	ContentPlain    string `json:"content_plain"`
	ContentHtml     string `json:"content_html"`
	ContentJson     string `json:"content_json"`
	ContentJsonTmpl string `json:"content_json_tmpl"`
}

func (r *SuttaRecord) Has(kind string) bool {
	return slices.Contains(r.Muids, kind)
}

// SuttaUid is "<uid>/<lang>/<author>", e.g. "dn1/en/bodhi". Without an
// author, it is what is left of the muids after removing the kinds and the
// language, e.g. muids [translation pt laera quaresma] give "laera-quaresma".
func (r *SuttaRecord) SuttaUid() string {
	if r.Uid == "" || r.Lang == "" {
		return ""
	}
	author := r.Author
	if author == "" {
		var rest []string
		for _, m := range r.Muids {
			switch m {
			case KindTranslation, KindRoot, KindReference, KindVariant, KindComment, "html", r.Lang:
				continue
			}
			rest = append(rest, m)
		}
		author = strings.Join(rest, "-")
	}
	if author == "" {
		return ""
	}
	return strings.Join([]string{r.Uid, r.Lang, author}, "/")
}

func (r *SuttaRecord) format() Format {
	if r.Format != "" {
		return r.Format
	}
	if r.ContentJson != "" {
		return FormatSegments
	}
	return FormatHTML
}

// ToRow converts the record to a suttas row.
func (r *SuttaRecord) ToRow() *docstore.SuttaRow {
	return &docstore.SuttaRow{
		Uid:             r.SuttaUid(),
		SuttaRef:        r.Ref,
		Nikaya:          r.Nikaya,
		Language:        r.Lang,
		SourceUid:       lastSegment(r.SuttaUid()),
		Title:           r.Title,
		TitlePali:       r.TitlePali,
		TitleTrans:      r.TitleTrans,
		ContentPlain:    r.ContentPlain,
		ContentHtml:     r.ContentHtml,
		ContentJson:     r.ContentJson,
		ContentJsonTmpl: r.ContentJsonTmpl,
	}
}

func lastSegment(uid string) string {
	return uid[strings.LastIndex(uid, "/")+1:]
}

// Decision is what Merge did with a record.
type Decision int

const (
	Added Decision = iota
	Replaced
	// KnownDuplicate records are reference or variant copies of a sutta
	// which is already present.
	KnownDuplicate
	UnknownDuplicate
	Ignored
)

func (d Decision) String() string {
	return [...]string{"added", "replaced", "known_duplicate", "unknown_duplicate", "ignored"}[d]
}

// decide applies the merge rules to rec, when a record in format existing
// was already kept for the same sutta.
func decide(existing Format, rec *SuttaRecord) Decision {
	switch {
	case rec.Has(KindReference) || rec.Has(KindVariant):
		return KnownDuplicate
	case rec.Has(KindRoot):
		return Replaced
	case rec.format() == FormatSegments && existing == FormatHTML:
		return Replaced
	}
	return UnknownDuplicate
}

// MergeStats counts the decisions of a merge.
type MergeStats struct {
	Total          int `json:"total"`
	Added          int `json:"added"`
	Replaced       int `json:"replaced"`
	KnownDuplicate int `json:"known_duplicate"`
	UnknownDup     int `json:"unknown_duplicate"`
	Ignored        int `json:"ignored"`
}

func (s *MergeStats) count(d Decision) {
	s.Total++
	switch d {
	case Added:
		s.Added++
	case Replaced:
		s.Replaced++
	case KnownDuplicate:
		s.KnownDuplicate++
	case UnknownDuplicate:
		s.UnknownDup++
	case Ignored:
		s.Ignored++
	}
}

// Merger keeps one record per sutta uid, in the order the uids were first
// seen.
type Merger struct {
	records map[string]*SuttaRecord
	order   []string
	Stats   MergeStats
}

func NewMerger() *Merger {
	return &Merger{records: map[string]*SuttaRecord{}}
}

// Merge adds rec, replaces the record kept for its sutta, or drops it.
// Comments are never kept as suttas.
func (m *Merger) Merge(rec *SuttaRecord) Decision {
	d := m.merge(rec)
	m.Stats.count(d)
	return d
}

func (m *Merger) merge(rec *SuttaRecord) Decision {
	if rec.Has(KindComment) {
		return Ignored
	}
	uid := rec.SuttaUid()
	if uid == "" {
		slog.Warn("record without a sutta uid", "uid", rec.Uid, "lang", rec.Lang, "muids", rec.Muids)
		return Ignored
	}

	kept, ok := m.records[uid]
	if !ok {
		m.records[uid] = rec
		m.order = append(m.order, uid)
		return Added
	}

	d := decide(kept.format(), rec)
	switch d {
	case Replaced:
		m.records[uid] = rec
	case UnknownDuplicate:
		slog.Warn("unknown duplicate uid", "uid", uid, "muids", rec.Muids, "format", rec.format(), "kept_format", kept.format())
		if !KeepEarlierOnUnknownDuplicate {
			m.records[uid] = rec
		}
	}
	return d
}

// Records lists the kept records.
func (m *Merger) Records() []*SuttaRecord {
	res := make([]*SuttaRecord, 0, len(m.order))
	for _, uid := range m.order {
		res = append(res, m.records[uid])
	}
	return res
}
