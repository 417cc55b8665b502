// Package sql holds the SQL templates compiled into the binary.
package sql

import "embed"

// Derived holds one template per derived table, named derived/{table}.sql.
//
//go:embed derived/*.sql
var Derived embed.FS
