// Package store archives water samples and model-evaluation runs in a
// SQLite database.
package store

import (
	"database/sql"
	"encoding/json"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/clearwaterlab/microplastics/pkg/errors"
	"github.com/clearwaterlab/microplastics/pkg/log"
)

// SampleRecord is one archived water sample.
type SampleRecord struct {
	ID            int64
	SiteID        string
	SampleDate    string
	Latitude      float64
	Longitude     float64
	Concentration float64
}

// Run is one archived model evaluation: the family, its tuned
// parameters, cross-validated RMSE, and the single test-set RMSE when
// the run was the selected model.
type Run struct {
	ID        int64
	CreatedAt time.Time
	Family    string
	Params    map[string]float64
	CVRMSE    float64
	CVStd     float64
	TestRMSE  sql.NullFloat64
	Selected  bool
}

// Repository persists samples and evaluation runs.
type Repository interface {
	SaveSamples(samples []SampleRecord) error
	ListSamples() ([]SampleRecord, error)
	SaveRun(run Run) (int64, error)
	ListRuns() ([]Run, error)
	BestRun() (*Run, error)
	Close() error
}

// SQLiteRepository implements Repository over mattn/go-sqlite3.
type SQLiteRepository struct {
	db *sql.DB
}

const schemaSQL = `
CREATE TABLE IF NOT EXISTS samples (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	site_id TEXT NOT NULL,
	sample_date TEXT NOT NULL,
	latitude REAL,
	longitude REAL,
	concentration REAL,
	UNIQUE(site_id, sample_date)
);
CREATE TABLE IF NOT EXISTS model_runs (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
	family TEXT NOT NULL,
	params TEXT NOT NULL,
	cv_rmse REAL NOT NULL,
	cv_std REAL NOT NULL,
	test_rmse REAL,
	selected INTEGER NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS idx_runs_family ON model_runs(family);`

// NewSQLiteRepository opens (and if needed initializes) the database at
// dbPath.
func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if dbPath == "" {
		return nil, errors.NewValidationError("store.db_path", "must not be empty", dbPath)
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, errors.Wrap(err, "opening database")
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "creating tables")
	}

	return &SQLiteRepository{db: db}, nil
}

// Close closes the database connection.
func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// SaveSamples upserts sample records keyed by site and date.
func (r *SQLiteRepository) SaveSamples(samples []SampleRecord) error {
	tx, err := r.db.Begin()
	if err != nil {
		return errors.Wrap(err, "beginning transaction")
	}

	stmt, err := tx.Prepare(`
		INSERT INTO samples(site_id, sample_date, latitude, longitude, concentration)
		VALUES(?, ?, ?, ?, ?)
		ON CONFLICT(site_id, sample_date) DO UPDATE SET
		latitude=excluded.latitude,
		longitude=excluded.longitude,
		concentration=excluded.concentration
	`)
	if err != nil {
		tx.Rollback()
		return errors.Wrap(err, "preparing statement")
	}
	defer stmt.Close()

	for _, s := range samples {
		if _, err := stmt.Exec(s.SiteID, s.SampleDate, s.Latitude, s.Longitude, s.Concentration); err != nil {
			tx.Rollback()
			return errors.Wrapf(err, "inserting sample %s/%s", s.SiteID, s.SampleDate)
		}
	}

	if err := tx.Commit(); err != nil {
		return errors.Wrap(err, "committing transaction")
	}

	log.GetLoggerWithName("store").Info("saved samples",
		log.SamplesKey, len(samples),
	)
	return nil
}

// ListSamples returns all archived samples ordered by site and date.
func (r *SQLiteRepository) ListSamples() ([]SampleRecord, error) {
	rows, err := r.db.Query(`
		SELECT id, site_id, sample_date, latitude, longitude, concentration
		FROM samples
		ORDER BY site_id, sample_date`)
	if err != nil {
		return nil, errors.Wrap(err, "querying samples")
	}
	defer rows.Close()

	var result []SampleRecord
	for rows.Next() {
		var s SampleRecord
		if err := rows.Scan(&s.ID, &s.SiteID, &s.SampleDate, &s.Latitude, &s.Longitude, &s.Concentration); err != nil {
			return nil, errors.Wrap(err, "scanning sample row")
		}
		result = append(result, s)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "iterating sample rows")
	}
	return result, nil
}

// SaveRun archives one model evaluation and returns its row id. Tuned
// parameters are stored as JSON.
func (r *SQLiteRepository) SaveRun(run Run) (int64, error) {
	params, err := json.Marshal(run.Params)
	if err != nil {
		return 0, errors.Wrap(err, "encoding params")
	}

	res, err := r.db.Exec(`
		INSERT INTO model_runs(family, params, cv_rmse, cv_std, test_rmse, selected)
		VALUES(?, ?, ?, ?, ?, ?)`,
		run.Family, string(params), run.CVRMSE, run.CVStd, run.TestRMSE, run.Selected)
	if err != nil {
		return 0, errors.Wrapf(err, "inserting run for %s", run.Family)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, errors.Wrap(err, "reading run id")
	}
	return id, nil
}

// ListRuns returns all archived runs, newest first.
func (r *SQLiteRepository) ListRuns() ([]Run, error) {
	rows, err := r.db.Query(`
		SELECT id, created_at, family, params, cv_rmse, cv_std, test_rmse, selected
		FROM model_runs
		ORDER BY id DESC`)
	if err != nil {
		return nil, errors.Wrap(err, "querying runs")
	}
	defer rows.Close()

	var result []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, run)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "iterating run rows")
	}
	return result, nil
}

// BestRun returns the archived run with the lowest cross-validated RMSE,
// or nil when no runs exist.
func (r *SQLiteRepository) BestRun() (*Run, error) {
	rows, err := r.db.Query(`
		SELECT id, created_at, family, params, cv_rmse, cv_std, test_rmse, selected
		FROM model_runs
		ORDER BY cv_rmse ASC, id ASC
		LIMIT 1`)
	if err != nil {
		return nil, errors.Wrap(err, "querying best run")
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, rows.Err()
	}
	run, err := scanRun(rows)
	if err != nil {
		return nil, err
	}
	return &run, nil
}

func scanRun(rows *sql.Rows) (Run, error) {
	var run Run
	var params string
	if err := rows.Scan(&run.ID, &run.CreatedAt, &run.Family, &params,
		&run.CVRMSE, &run.CVStd, &run.TestRMSE, &run.Selected); err != nil {
		return Run{}, errors.Wrap(err, "scanning run row")
	}
	if err := json.Unmarshal([]byte(params), &run.Params); err != nil {
		return Run{}, errors.Wrap(err, "decoding params")
	}
	return run, nil
}
