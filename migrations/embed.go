// Package migrations embeds the SQL schema migrations into the binary.
//
// Import this package for its side effect of wiring the embedded files
// into the database package:
//
//	import _ "github.com/mwhitfield/leapgate/migrations"
package migrations

import (
	"embed"

	"github.com/mwhitfield/leapgate/internal/infrastructure/database"
)

//go:embed *.sql
var files embed.FS

func init() {
	database.MigrationsFS = files
}
