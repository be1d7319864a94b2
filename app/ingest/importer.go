package ingest

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/simsapa/simsapa-sub001/app/common"
	"github.com/simsapa/simsapa-sub001/app/docstore"
	"github.com/simsapa/simsapa-sub001/app/fulltext"
)

const maxLineSize = 16 * 1024 * 1024

// ReadJSONL decodes one T per line and passes it to fn. Lines which do not
// decode are logged and skipped. It returns the number of decoded lines.
func ReadJSONL[T any](r io.Reader, fn func(*T) error) (int, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), maxLineSize)

	count := 0
	line := 0
	for scanner.Scan() {
		line++
		if len(scanner.Bytes()) == 0 {
			continue
		}
		var entry T
		if err := json.Unmarshal(scanner.Bytes(), &entry); err != nil {
			slog.Warn("failed to unmarshal line", "line", line, "err", err)
			continue
		}
		if err := fn(&entry); err != nil {
			return count, err
		}
		count++
	}
	if err := scanner.Err(); err != nil {
		return count, fmt.Errorf("scanner error: %w", err)
	}
	return count, nil
}

// Importer writes merged records into one content schema and indexes them.
type Importer struct {
	store   *docstore.ContentStore
	indexes *fulltext.IndexManager
}

// NewImporter does not index when indexes is nil.
func NewImporter(store *docstore.ContentStore, indexes *fulltext.IndexManager) *Importer {
	return &Importer{store: store, indexes: indexes}
}

// ImportStats reports an import: how the records of the file merged, and
// what happened to the surviving ones in the database.
type ImportStats struct {
	Merge    MergeStats `json:"merge"`
	Inserted int        `json:"inserted"`
	Updated  int        `json:"updated"`
	// duplicates of stored suttas which were not written
	Kept int `json:"kept"`
}

// ImportSuttasFile imports a JSONL file of sutta records.
func (im *Importer) ImportSuttasFile(ctx context.Context, path string, schema common.SchemaName) (ImportStats, error) {
	f, err := os.Open(path)
	if err != nil {
		return ImportStats{}, fmt.Errorf("failed to open data file %s: %w", path, err)
	}
	defer f.Close()

	stats, err := im.ImportSuttas(ctx, f, schema)
	if err != nil {
		return stats, err
	}
	slog.Info("imported suttas", "file", path, "schema", schema,
		"inserted", stats.Inserted, "updated", stats.Updated, "kept", stats.Kept)
	return stats, nil
}

// ImportSuttas merges the records of r, then merges them with the rows the
// schema already has under the same rules, e.g. a segments record replaces
// a stored HTML sutta.
func (im *Importer) ImportSuttas(ctx context.Context, r io.Reader, schema common.SchemaName) (ImportStats, error) {
	var stats ImportStats
	if schema == common.Dpd {
		return stats, fmt.Errorf("suttas cannot be imported into %s", schema)
	}

	m := NewMerger()
	_, err := ReadJSONL(r, func(rec *SuttaRecord) error {
		m.Merge(rec)
		return nil
	})
	stats.Merge = m.Stats
	if err != nil {
		return stats, err
	}

	var inserts, updates []*docstore.SuttaRow
	for _, rec := range m.Records() {
		row := rec.ToRow()
		existing, err := im.store.GetSutta(ctx, schema, row.Uid)
		if err != nil {
			return stats, err
		}
		if existing == nil {
			inserts = append(inserts, row)
			continue
		}

		storedFormat := FormatHTML
		if existing.ContentJson != "" {
			storedFormat = FormatSegments
		}
		d := decide(storedFormat, rec)
		if d == UnknownDuplicate && !KeepEarlierOnUnknownDuplicate {
			d = Replaced
		}
		if d != Replaced {
			if d == UnknownDuplicate {
				slog.Warn("unknown duplicate uid, keeping the stored sutta", "uid", row.Uid, "schema", schema)
			}
			stats.Kept++
			continue
		}

		row.ID = existing.ID
		row.Schema = schema
		if err := im.store.ReplaceSutta(ctx, schema, row); err != nil {
			return stats, err
		}
		updates = append(updates, row)
	}

	if len(inserts) > 0 {
		if err := im.store.InsertSuttas(ctx, schema, inserts); err != nil {
			return stats, err
		}
	}
	stats.Inserted = len(inserts)
	stats.Updated = len(updates)

	if im.indexes != nil {
		if err := im.indexes.IndexSuttas(ctx, schema, append(inserts, updates...)); err != nil {
			return stats, fmt.Errorf("indexing imported suttas: %w", err)
		}
	}
	return stats, nil
}
