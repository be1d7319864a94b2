package docstore

import (
	"database/sql"
	"fmt"
	"log/slog"
	"os"

	"github.com/simsapa/simsapa-sub001/app/common"
)

// NewSQLiteDB opens the database file at dbPath. A read-only database must
// already exist, a writable one is created on demand.
func NewSQLiteDB(dbPath string, readonly bool) (*sql.DB, error) {
	dsn := dbPath
	if readonly {
		if _, err := os.Stat(dbPath); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", common.ErrDataSourceUnavailable, dbPath, err)
		}
		dsn = "file:" + dbPath + "?mode=ro&immutable=1"
	}
	slog.Info("opening SQLite DB", "dbPath", dbPath, "readonly", readonly)
	db, err := sql.Open(SQLiteDriverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", common.ErrDataSourceUnavailable, dbPath, err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: %s: %v", common.ErrDataSourceUnavailable, dbPath, err)
	}
	return db, nil
}
