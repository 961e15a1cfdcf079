// Package database manages the SQLite accessory store connection.
//
// It provides:
//   - Connection lifecycle with WAL mode and busy timeout pragmas
//   - Embedded schema migrations (see the migrations package)
//   - Health checks for the API's health endpoint
//
// SQLite is configured with a single-connection pool because it only
// supports one writer at a time; readers interleave via WAL.
//
// Usage:
//
//	db, err := database.Open(ctx, database.Config{Path: cfg.Database.Path, WALMode: true, BusyTimeout: 5})
//	if err != nil {
//	    return err
//	}
//	defer db.Close()
//	if err := db.Migrate(ctx); err != nil {
//	    return err
//	}
package database
