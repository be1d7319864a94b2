//go:build native_sqlite

package docstore

import (
	"database/sql/driver"
	"errors"

	sqlite "modernc.org/sqlite"
)

func init() {
	sqlite.MustRegisterDeterministicScalarFunction(
		"regexp",
		2,
		func(ctx *sqlite.FunctionContext, args []driver.Value) (driver.Value, error) {
			pattern, ok := args[0].(string)
			if !ok {
				return nil, errors.New("expected argv[0] to be text")
			}

			var s string
			switch arg1 := args[1].(type) {
			case string:
				s = arg1
			case []byte:
				s = string(arg1)
			case nil:
				return false, nil
			default:
				return nil, errors.New("expected argv[1] to be text")
			}

			return regexpMatch(pattern, s)
		},
	)
}

const SQLiteDriverName = "sqlite"
