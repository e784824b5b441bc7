package db

import "strings"

// GetSchemaSQL returns the complete schema as the concatenation of every up
// migration.
//
// # Schema Drift Protection
//
// The embedded migrations are the SINGLE SOURCE OF TRUTH for the database
// schema. Repository tests load the schema through this function instead of
// hardcoding CREATE TABLE statements, so a column referenced by repository
// code but missing from the migrations fails the tests with "no such column".
//
// When adding new columns or tables:
//  1. Add a numbered migration pair in internal/db/migrations/
//  2. Run the repository tests to verify alignment
func GetSchemaSQL() string {
	scripts, err := upMigrations()
	if err != nil {
		panic("embedded migrations unreadable: " + err.Error())
	}
	return strings.Join(scripts, "\n\n")
}

// Tables lists the application tables created by the schema.
var Tables = []string{"sectors", "custodians", "assets", "transfers", "audit_logs"}
