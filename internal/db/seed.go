package db

import (
	"database/sql"
	"fmt"
	"time"
)

// SeedFixtures populates the database with development fixtures: three
// sectors, four custodians and a handful of assets in every status.
// Custodian IDs double as caller IDs, so custodian 1 is a natural
// administrator and 4 an ordinary user.
func SeedFixtures(database *sql.DB) error {
	now := time.Now().UTC()

	sectors := []struct {
		id   int64
		name string
	}{
		{1, "Administration"},
		{2, "Laboratory"},
		{3, "Warehouse"},
	}
	for _, s := range sectors {
		if _, err := database.Exec(
			"INSERT INTO sectors (id, name) VALUES (?, ?)",
			s.id, s.name,
		); err != nil {
			return fmt.Errorf("seed sectors: %w", err)
		}
	}

	custodians := []struct {
		id   int64
		name string
	}{
		{1, "Ana Souza"},
		{2, "Bruno Lima"},
		{3, "Carla Mendes"},
		{4, "Diego Rocha"},
	}
	for _, c := range custodians {
		if _, err := database.Exec(
			"INSERT INTO custodians (id, name) VALUES (?, ?)",
			c.id, c.name,
		); err != nil {
			return fmt.Errorf("seed custodians: %w", err)
		}
	}

	assets := []struct {
		id          int64
		tag         string
		description string
		sectorID    int64
		custodianID int64
		status      string
		value       string
	}{
		{1, "PAT-0001", "Dell Latitude 5420 notebook", 1, 4, "active", "5899.90"},
		{2, "PAT-0002", "Centrifuge Eppendorf 5430", 2, 3, "active", "48750.00"},
		{3, "PAT-0003", "Pallet jack 2.5t", 3, 2, "maintenance", "3120.45"},
		{4, "PAT-0004", "HP LaserJet M404", 1, 4, "retired", "1899.00"},
		{5, "PAT-0005", "Microscope Nikon Eclipse E200", 2, 3, "active", "21300.00"},
	}
	for _, a := range assets {
		if _, err := database.Exec(
			`INSERT INTO assets (id, tag, description, sector_id, custodian_id, status, acquisition_value, created_at, updated_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			a.id, a.tag, a.description, a.sectorID, a.custodianID, a.status, a.value, now, now,
		); err != nil {
			return fmt.Errorf("seed assets: %w", err)
		}
	}

	// One pending transfer so the approval flow has something to act on.
	if _, err := database.Exec(
		`INSERT INTO transfers (asset_id, origin_sector_id, origin_custodian_id, destination_sector_id, reason, requester_id, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		5, 2, 3, 1, "Needed for the quality audit next month", 3, now, now,
	); err != nil {
		return fmt.Errorf("seed transfers: %w", err)
	}

	return nil
}
