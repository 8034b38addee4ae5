// Package database provides SQLite connectivity for luxd.
//
// The daemon keeps a small local database for brightness history. This
// package manages:
//   - Database connection with WAL mode for concurrent access
//   - Schema migrations embedded into the binary
//   - Connection lifecycle and health checks
//
// Security Considerations:
//   - All queries use parameterised statements (no SQL injection)
//   - Database file permissions are set to 0600 (owner read/write only)
//
// Usage:
//
//	db, err := database.Open(cfg.Database)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer db.Close()
//
//	if err := db.Migrate(ctx); err != nil {
//	    log.Fatal(err)
//	}
//
// Migration files live in the top-level migrations directory and are
// registered via database.MigrationsFS. Each migration has an .up.sql
// and a .down.sql half; migrations are additive-only so a rollback
// never loses unrelated data.
package database
