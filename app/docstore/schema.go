package docstore

import (
	"context"
	"database/sql"
	"fmt"
)

// Suttas and dict_words have the same layout in the appdata and the userdata
// databases.
const contentSchemaSQL = `
CREATE TABLE IF NOT EXISTS suttas (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	uid TEXT NOT NULL UNIQUE,
	sutta_ref TEXT NOT NULL DEFAULT '',
	nikaya TEXT NOT NULL DEFAULT '',
	language TEXT NOT NULL,
	source_uid TEXT NOT NULL DEFAULT '',
	title TEXT NOT NULL DEFAULT '',
	title_pali TEXT NOT NULL DEFAULT '',
	title_trans TEXT NOT NULL DEFAULT '',
	content_plain TEXT,
	content_html TEXT,
	content_json TEXT,
	content_json_tmpl TEXT,
	indexed_at TEXT
);
CREATE INDEX IF NOT EXISTS idx_suttas_language ON suttas(language);
CREATE INDEX IF NOT EXISTS idx_suttas_title ON suttas(title);

CREATE TABLE IF NOT EXISTS dict_words (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	uid TEXT NOT NULL UNIQUE,
	source_uid TEXT NOT NULL DEFAULT '',
	language TEXT NOT NULL DEFAULT 'en',
	word TEXT NOT NULL,
	word_nom_sg TEXT,
	inflections TEXT,
	phonetic TEXT,
	transliteration TEXT,
	also_written_as TEXT,
	synonyms TEXT,
	summary TEXT,
	definition_plain TEXT,
	definition_html TEXT,
	indexed_at TEXT
);
CREATE INDEX IF NOT EXISTS idx_dict_words_language ON dict_words(language);
CREATE INDEX IF NOT EXISTS idx_dict_words_word ON dict_words(word);
`

// The Digital Pāli Dictionary. Headword keys in inflection_to_headwords
// refer to pali_words.pali_1, the split variants in dpd_sandhi are
// "a + b" strings. Both are JSON lists.
const dpdSchemaSQL = `
CREATE TABLE IF NOT EXISTS pali_words (
	id INTEGER PRIMARY KEY,
	pali_1 TEXT NOT NULL UNIQUE,
	pali_clean TEXT NOT NULL DEFAULT '',
	word_ascii TEXT NOT NULL DEFAULT '',
	stem TEXT NOT NULL DEFAULT '',
	pos TEXT NOT NULL DEFAULT '',
	grammar TEXT NOT NULL DEFAULT '',
	meaning_1 TEXT NOT NULL DEFAULT '',
	meaning_2 TEXT NOT NULL DEFAULT '',
	construction TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS idx_pali_words_clean ON pali_words(pali_clean);
CREATE INDEX IF NOT EXISTS idx_pali_words_stem ON pali_words(stem);

CREATE TABLE IF NOT EXISTS dpd_roots (
	root TEXT PRIMARY KEY,
	uid TEXT NOT NULL UNIQUE,
	root_clean TEXT NOT NULL DEFAULT '',
	root_no_sign TEXT NOT NULL DEFAULT '',
	word_ascii TEXT NOT NULL DEFAULT '',
	root_group INTEGER NOT NULL DEFAULT 0,
	root_sign TEXT NOT NULL DEFAULT '',
	root_meaning TEXT NOT NULL DEFAULT '',
	root_info TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS idx_dpd_roots_clean ON dpd_roots(root_clean);

CREATE TABLE IF NOT EXISTS inflection_to_headwords (
	inflection TEXT PRIMARY KEY,
	headwords TEXT NOT NULL DEFAULT '[]'
);

CREATE TABLE IF NOT EXISTS dpd_sandhi (
	sandhi TEXT PRIMARY KEY,
	split TEXT NOT NULL DEFAULT '[]'
);
`

// InitContentSchema creates the suttas and dict_words tables.
func InitContentSchema(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, contentSchemaSQL); err != nil {
		return fmt.Errorf("failed to create content tables: %w", err)
	}
	return nil
}

// InitDpdSchema creates the DPD tables.
func InitDpdSchema(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, dpdSchemaSQL); err != nil {
		return fmt.Errorf("failed to create dpd tables: %w", err)
	}
	return nil
}
