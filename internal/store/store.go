// Package store runs aggregation queries over an in-memory SQLite table.
package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/verte-zerg/casebars/internal/model"

	_ "modernc.org/sqlite" // SQLite driver.
)

// Store wraps an in-memory SQLite database holding raw records.
type Store struct {
	db *sql.DB
}

// OpenMemory opens a private in-memory database and creates the schema.
func OpenMemory() (*Store, error) {
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		return nil, err
	}
	// Each connection to :memory: is a separate database.
	db.SetMaxOpenConns(1)
	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		if cerr := db.Close(); cerr != nil {
			// Best-effort close on migration failure.
			_ = cerr
		}
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS records (
			id INTEGER PRIMARY KEY,
			country_name TEXT NOT NULL,
			cases REAL NOT NULL,
			deaths REAL NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_records_country ON records(country_name);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// InsertRecords appends records in input order within one transaction.
func (s *Store) InsertRecords(ctx context.Context, recs []model.RawRecord) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			if rerr := tx.Rollback(); rerr != nil {
				// Best-effort rollback.
				_ = rerr
			}
		}
	}()

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO records (country_name, cases, deaths) VALUES (?, ?, ?)`)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := stmt.Close(); cerr != nil {
			// Best-effort statement close.
			_ = cerr
		}
	}()
	for _, rec := range recs {
		if _, err = stmt.ExecContext(ctx, rec.CountryName, rec.Cases, rec.Deaths); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// Aggregate sums cases and deaths per country, ordered by first insertion.
func (s *Store) Aggregate(ctx context.Context) (model.AggregationResult, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT country_name, SUM(cases) AS total_cases, SUM(deaths) AS total_deaths
		FROM records
		GROUP BY country_name
		ORDER BY MIN(id) ASC`)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	result := model.AggregationResult{}
	for rows.Next() {
		var summary model.CountrySummary
		if err := rows.Scan(&summary.CountryName, &summary.TotalCases, &summary.TotalDeaths); err != nil {
			return nil, err
		}
		result = append(result, summary)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// Count returns the number of stored records.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM records`).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

// Mismatch describes a country whose sums differ between two results.
type Mismatch struct {
	Index    int
	Expected model.CountrySummary
	Actual   model.CountrySummary
}

func (m Mismatch) String() string {
	return fmt.Sprintf("#%d expected %s cases=%g deaths=%g, got %s cases=%g deaths=%g",
		m.Index,
		m.Expected.CountryName, m.Expected.TotalCases, m.Expected.TotalDeaths,
		m.Actual.CountryName, m.Actual.TotalCases, m.Actual.TotalDeaths)
}

// Compare lists entries that differ by name, order or sums.
// Sums are compared with a relative tolerance because SQLite adds in its own order.
func Compare(expected, actual model.AggregationResult) []Mismatch {
	var out []Mismatch
	n := len(expected)
	if len(actual) > n {
		n = len(actual)
	}
	for i := 0; i < n; i++ {
		var e, a model.CountrySummary
		if i < len(expected) {
			e = expected[i]
		}
		if i < len(actual) {
			a = actual[i]
		}
		if e.CountryName != a.CountryName || !nearlyEqual(e.TotalCases, a.TotalCases) || !nearlyEqual(e.TotalDeaths, a.TotalDeaths) {
			out = append(out, Mismatch{Index: i, Expected: e, Actual: a})
		}
	}
	return out
}

func nearlyEqual(a, b float64) bool {
	diff := a - b
	if diff < 0 {
		diff = -diff
	}
	scale := a
	if scale < 0 {
		scale = -scale
	}
	if scale < 1 {
		scale = 1
	}
	return diff <= 1e-9*scale
}
