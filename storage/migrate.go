package storage

import (
	"database/sql"
	"fmt"
)

// dialect covers the few statements that differ between the supported
// databases.
type dialect struct {
	createMigrationTable string
	insertMigration      string
}

var (
	pgDialect = dialect{
		createMigrationTable: `CREATE TABLE IF NOT EXISTS migration
("id" SERIAL PRIMARY KEY, "query" TEXT)`,
		insertMigration: `INSERT INTO migration (query) VALUES ($1)`,
	}
	sqliteDialect = dialect{
		createMigrationTable: `CREATE TABLE IF NOT EXISTS migration
("id" INTEGER PRIMARY KEY AUTOINCREMENT, "query" TEXT)`,
		insertMigration: `INSERT INTO migration (query) VALUES (?)`,
	}
)

// migrate brings a database up to date by executing the migrations
// that were not applied yet. Applied migrations are recorded and
// compared by text, editing an already applied migration is an error.
func migrate(db *sql.DB, d dialect, wanted []string) error {
	if _, err := db.Exec(d.createMigrationTable); err != nil {
		return err
	}

	// find existing
	rows, err := db.Query(`SELECT query FROM migration ORDER BY id`)
	if err != nil {
		return err
	}

	existing := []string{}
	for rows.Next() {
		var query string
		if err := rows.Scan(&query); err != nil {
			return err
		}
		existing = append(existing, query)
	}
	rows.Close()

	// compare
	missing, err := compareMigrations(wanted, existing)
	if err != nil {
		return err
	}

	// execute missing
	for _, query := range missing {
		if _, err := db.Exec(query); err != nil {
			return err
		}

		// register
		if _, err := db.Exec(d.insertMigration, query); err != nil {
			return err
		}
	}

	return nil
}

func compareMigrations(wanted, existing []string) ([]string, error) {
	needed := []string{}
	if len(wanted) < len(existing) {
		return []string{}, fmt.Errorf("not enough migrations")
	}

	for i, want := range wanted {
		switch {
		case i >= len(existing):
			needed = append(needed, want)
		case want == existing[i]:
			// do nothing
		case want != existing[i]:
			return []string{}, fmt.Errorf("incompatible migration: %v", want)
		}
	}

	return needed, nil
}
