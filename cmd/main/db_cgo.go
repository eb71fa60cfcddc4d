//go:build cgo_sqlite

package main

// Built with -tags cgo_sqlite, models are stored through the cgo driver.
import _ "github.com/mattn/go-sqlite3"

const sqliteDriver = "sqlite3"
