// Package diagnostics is a sqlite-backed telemetry log for the motion-
// control core: axis activity-state transitions and periodic observed-
// state snapshots, queried by the peer logger process for post-hoc
// diagnosis. cmd/telescoped's poll loop records a snapshot once a second;
// nothing in this repository calls RecordTransition. The core itself never reads
// this store back (spec §1: "persistent state is limited to shared memory
// consumed by peer processes") — this is the one piece of the peer-facing
// persistence that the distilled spec left unnamed and SPEC_FULL.md §12
// assigns a home.
package diagnostics

import (
	"database/sql"
	"embed"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/rockit-astro/superwasp-talon/internal/telstate"
	"github.com/rockit-astro/superwasp-talon/internal/tlog"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Store is a handle to the sqlite telemetry database.
type Store struct {
	db *sql.DB
}

// Open opens (creating if necessary) the sqlite database at path and
// migrates it to the latest schema version.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("diagnostics: open %s: %w", path, err)
	}
	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("diagnostics: set WAL mode: %w", err)
	}
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("diagnostics: set busy_timeout: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrateUp(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the underlying database handle.
func (s *Store) Close() error { return s.db.Close() }

// RecordTransition logs one axis activity-state transition (spec §4.3's
// state table): from, to are axis.State.String() values.
func (s *Store) RecordTransition(tsUnix int64, axisID, from, to, detail string) error {
	_, err := s.db.Exec(
		`INSERT INTO activity_log (ts_unix, axis_id, from_state, to_state, detail) VALUES (?, ?, ?, ?, ?)`,
		tsUnix, axisID, from, to, detail,
	)
	if err != nil {
		tlog.Logf("diagnostics: record transition: %v", err)
	}
	return err
}

// RecordSnapshot logs one observed-state snapshot (spec §3).
func (s *Store) RecordSnapshot(tsUnix int64, snap *telstate.Snapshot) error {
	_, err := s.db.Exec(
		`INSERT INTO state_snapshot (ts_unix, version, telstate, apparent_ra, apparent_dec, apparent_ha, alt, az)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		tsUnix, snap.Version, fmt.Sprint(snap.TelescopeMode),
		snap.ApparentRA, snap.ApparentDec, snap.ApparentHA, snap.Alt, snap.Az,
	)
	if err != nil {
		tlog.Logf("diagnostics: record snapshot: %v", err)
	}
	return err
}

// RecentTransitions returns the last limit activity-log rows, most recent
// first, for a given axis (or every axis if axisID is empty).
func (s *Store) RecentTransitions(axisID string, limit int) ([]Transition, error) {
	var rows *sql.Rows
	var err error
	if axisID == "" {
		rows, err = s.db.Query(
			`SELECT ts_unix, axis_id, from_state, to_state, detail FROM activity_log ORDER BY id DESC LIMIT ?`, limit)
	} else {
		rows, err = s.db.Query(
			`SELECT ts_unix, axis_id, from_state, to_state, detail FROM activity_log WHERE axis_id = ? ORDER BY id DESC LIMIT ?`,
			axisID, limit)
	}
	if err != nil {
		return nil, fmt.Errorf("diagnostics: query transitions: %w", err)
	}
	defer rows.Close()

	var out []Transition
	for rows.Next() {
		var t Transition
		if err := rows.Scan(&t.TsUnix, &t.AxisID, &t.From, &t.To, &t.Detail); err != nil {
			return nil, fmt.Errorf("diagnostics: scan transition: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// Transition is one row of the activity_log table.
type Transition struct {
	TsUnix          int64
	AxisID          string
	From, To, Detail string
}
