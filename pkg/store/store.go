// Package store persists a run snapshot to SQLite.
//
// The engine itself is purely in-memory; the snapshot is an output
// adapter. After a successful run the final state — persons, both
// interval stores, and the non-zero debt table — replaces whatever the
// database held before, so external tools can inspect the last computed
// state without re-reading the ledger. The sem command itself only
// writes the snapshot; it never reads it back.
package store

import (
	"database/sql"
	"fmt"

	"github.com/quirinpa/sem/pkg/graph"
	"github.com/quirinpa/sem/pkg/model"

	_ "modernc.org/sqlite"
)

// KindPresence and KindObligation label which interval store a persisted
// interval came from.
const (
	KindPresence   = "P"
	KindObligation = "O"
)

// Person is one registry entry in a snapshot.
type Person struct {
	ID   model.PersonID
	Nick string
}

// StoredInterval is one interval in a snapshot, labelled with its store.
type StoredInterval struct {
	Store    string
	Interval model.Interval
}

// Snapshot is the full final state of a run.
type Snapshot struct {
	Persons   []Person
	Intervals []StoredInterval
	Debts     []graph.Edge
}

// Store manages the SQLite snapshot database.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the snapshot database and initializes the
// schema.
func Open(path string) (*Store, error) {
	dsn := path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error { return s.db.Close() }

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS persons (
		id   INTEGER PRIMARY KEY,
		nick TEXT NOT NULL UNIQUE
	);

	CREATE TABLE IF NOT EXISTS intervals (
		store TEXT NOT NULL CHECK (store IN ('P', 'O')),
		owner INTEGER NOT NULL REFERENCES persons(id),
		min   INTEGER NOT NULL,
		max   INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_intervals_owner ON intervals(store, owner);
	CREATE INDEX IF NOT EXISTS idx_intervals_max ON intervals(store, max);

	CREATE TABLE IF NOT EXISTS debts (
		lo    INTEGER NOT NULL REFERENCES persons(id),
		hi    INTEGER NOT NULL REFERENCES persons(id),
		cents INTEGER NOT NULL,
		PRIMARY KEY (lo, hi),
		CHECK (lo < hi)
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Save replaces the stored snapshot with snap in one transaction.
func (s *Store) Save(snap Snapshot) error {
	return retryOnBusy(func() error { return s.save(snap) })
}

func (s *Store) save(snap Snapshot) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // rollback after commit is a no-op

	for _, table := range []string{"debts", "intervals", "persons"} {
		if _, err := tx.Exec("DELETE FROM " + table); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}

	for _, p := range snap.Persons {
		if _, err := tx.Exec(
			`INSERT INTO persons (id, nick) VALUES (?, ?)`, p.ID, p.Nick,
		); err != nil {
			return fmt.Errorf("insert person %q: %w", p.Nick, err)
		}
	}
	for _, si := range snap.Intervals {
		if _, err := tx.Exec(
			`INSERT INTO intervals (store, owner, min, max) VALUES (?, ?, ?, ?)`,
			si.Store, si.Interval.Owner, int64(si.Interval.Min), int64(si.Interval.Max),
		); err != nil {
			return fmt.Errorf("insert interval: %w", err)
		}
	}
	for _, e := range snap.Debts {
		if _, err := tx.Exec(
			`INSERT INTO debts (lo, hi, cents) VALUES (?, ?, ?)`,
			e.Lo, e.Hi, int64(e.Cents),
		); err != nil {
			return fmt.Errorf("insert debt: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit snapshot: %w", err)
	}
	return nil
}

// LoadPersons returns the stored persons ordered by id.
func (s *Store) LoadPersons() ([]Person, error) {
	rows, err := s.db.Query(`SELECT id, nick FROM persons ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Person
	for rows.Next() {
		var p Person
		if err := rows.Scan(&p.ID, &p.Nick); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// LoadIntervals returns the stored intervals of one store label ordered
// by (max, owner, min), the engine's primary index order.
func (s *Store) LoadIntervals(kind string) ([]model.Interval, error) {
	rows, err := s.db.Query(
		`SELECT owner, min, max FROM intervals WHERE store = ?
		 ORDER BY max, owner, min`, kind,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Interval
	for rows.Next() {
		var iv model.Interval
		var min, max int64
		if err := rows.Scan(&iv.Owner, &min, &max); err != nil {
			return nil, err
		}
		iv.Min, iv.Max = model.Time(min), model.Time(max)
		out = append(out, iv)
	}
	return out, rows.Err()
}

// LoadDebts returns the stored debt table in canonical (lo, hi) order.
func (s *Store) LoadDebts() ([]graph.Edge, error) {
	rows, err := s.db.Query(`SELECT lo, hi, cents FROM debts ORDER BY lo, hi`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []graph.Edge
	for rows.Next() {
		var e graph.Edge
		var cents int64
		if err := rows.Scan(&e.Lo, &e.Hi, &cents); err != nil {
			return nil, err
		}
		e.Cents = model.Cents(cents)
		out = append(out, e)
	}
	return out, rows.Err()
}
