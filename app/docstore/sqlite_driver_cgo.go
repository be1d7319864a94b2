//go:build !native_sqlite

package docstore

import (
	"database/sql"

	"github.com/mattn/go-sqlite3"
)

const SQLiteDriverName = "sqlite3_simsapa"

func init() {
	sql.Register(SQLiteDriverName, &sqlite3.SQLiteDriver{
		ConnectHook: func(conn *sqlite3.SQLiteConn) error {
			return conn.RegisterFunc("regexp", regexpMatch, true)
		},
	})
}
