// Package sqlite_test contains integration tests for SQLite repositories.
//
// # Schema Protection
//
// This file is the SINGLE POINT where the database schema is loaded for tests.
// All test setup functions use db.GetSchemaSQL() to ensure tests run against
// the authoritative schema, preventing drift between test and production.
//
// DO NOT hardcode CREATE TABLE statements in test files. Instead, use
// setupTestDB() and the seed* helpers.
package sqlite_test

import (
	"database/sql"
	"fmt"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/example/assetflow/internal/db"
)

// setupTestDB creates an in-memory database with the authoritative schema.
// This is the single shared test database setup function for all repository tests.
// A single connection keeps every query on the same in-memory database.
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	testDB, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	testDB.SetMaxOpenConns(1)

	_, err = testDB.Exec(db.GetSchemaSQL())
	if err != nil {
		t.Fatalf("failed to create schema: %v", err)
	}

	t.Cleanup(func() {
		testDB.Close()
	})

	return testDB
}

// seedSector inserts a test sector and returns its ID.
func seedSector(t *testing.T, db *sql.DB, id int64, name string) int64 {
	t.Helper()
	if name == "" {
		name = "Test Sector"
	}
	_, err := db.Exec("INSERT INTO sectors (id, name) VALUES (?, ?)", id, name)
	if err != nil {
		t.Fatalf("failed to seed sector: %v", err)
	}
	return id
}

// seedCustodian inserts a test custodian and returns its ID.
func seedCustodian(t *testing.T, db *sql.DB, id int64, name string) int64 {
	t.Helper()
	if name == "" {
		name = "Test Custodian"
	}
	_, err := db.Exec("INSERT INTO custodians (id, name) VALUES (?, ?)", id, name)
	if err != nil {
		t.Fatalf("failed to seed custodian: %v", err)
	}
	return id
}

// seedAsset inserts an active test asset and returns its ID.
func seedAsset(t *testing.T, db *sql.DB, id, sectorID, custodianID int64) int64 {
	t.Helper()
	now := time.Now().UTC()
	_, err := db.Exec(
		`INSERT INTO assets (id, tag, sector_id, custodian_id, status, acquisition_value, created_at, updated_at)
		 VALUES (?, ?, ?, ?, 'active', '100.00', ?, ?)`,
		id, fmt.Sprintf("PAT-%04d", id), sectorID, custodianID, now, now,
	)
	if err != nil {
		t.Fatalf("failed to seed asset: %v", err)
	}
	return id
}

// seedRegistry creates sectors 10 and 20, custodians 100 and 200, and
// asset 1 in sector 10 held by custodian 100.
func seedRegistry(t *testing.T, db *sql.DB) {
	t.Helper()
	seedSector(t, db, 10, "Laboratory")
	seedSector(t, db, 20, "Warehouse")
	seedCustodian(t, db, 100, "Ana")
	seedCustodian(t, db, 200, "Bruno")
	seedAsset(t, db, 1, 10, 100)
}
