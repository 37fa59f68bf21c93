package database

import (
	"database/sql"

	"github.com/mattn/go-sqlite3"
	"golang.org/x/text/cases"
)

// DriverName is go-sqlite3 with a fold(text) SQL function. SQLite's own
// LOWER and LIKE only fold ASCII, so "Éclair" would not match "éclair".
const DriverName = "sqlite3_bookshelf"

func init() {
	sql.Register(DriverName, &sqlite3.SQLiteDriver{
		ConnectHook: func(conn *sqlite3.SQLiteConn) error {
			return conn.RegisterFunc("fold", FoldCase, true)
		},
	})
}

// FoldCase applies Unicode case folding. Compare a FoldCase'd search term
// against fold(column) in SQL.
func FoldCase(s string) string {
	// A Caser keeps state, so it is not shared between connections
	return cases.Fold().String(s)
}
