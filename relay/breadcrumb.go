package relay

import (
	"context"
	"database/sql"
	"fmt"
)

// Breadcrumb keys. One row per key: the store remembers only the most
// recent detection of each kind.
const (
	KeyLastPatient = "lastDetectedPatient"
	KeyLastVisit   = "lastDetectedVisit"
)

// Snapshot is the Last-Detected breadcrumb written to ambient storage on
// every accepted detection. It is a best-effort diagnostic trail: no
// consumer contract guarantees it is ever read, so a failed write degrades
// to a log line and never blocks a detection.
type Snapshot struct {
	PatientID string
	VisitID   string
	URL       string
	TabID     string
	Timestamp int64 // epoch milliseconds
}

const breadcrumbSchema = `
CREATE TABLE IF NOT EXISTS last_detected (
    key        TEXT PRIMARY KEY,
    patient_id TEXT,
    visit_id   TEXT,
    url        TEXT NOT NULL,
    tab_id     TEXT,
    timestamp  INTEGER NOT NULL
);`

// BreadcrumbStore persists Last-Detected snapshots in SQLite. Write-only
// from the bridge's perspective.
type BreadcrumbStore struct {
	db *sql.DB
}

// OpenBreadcrumbs opens (and initialises) the breadcrumb database at path
// with WAL and busy-timeout pragmas applied via EXEC. The caller must
// blank-import a SQLite driver:
//
//	import _ "modernc.org/sqlite"
func OpenBreadcrumbs(path string) (*BreadcrumbStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("relay: open breadcrumbs: %w", err)
	}

	for _, pragma := range []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA synchronous = NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("relay: %s: %w", pragma, err)
		}
	}

	if _, err := db.Exec(breadcrumbSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("relay: init breadcrumb schema: %w", err)
	}

	return &BreadcrumbStore{db: db}, nil
}

// Put writes the snapshot under key, replacing any previous one.
func (s *BreadcrumbStore) Put(ctx context.Context, key string, snap Snapshot) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO last_detected (key, patient_id, visit_id, url, tab_id, timestamp)
		VALUES (?,?,?,?,?,?)
		ON CONFLICT(key) DO UPDATE SET
			patient_id = excluded.patient_id,
			visit_id   = excluded.visit_id,
			url        = excluded.url,
			tab_id     = excluded.tab_id,
			timestamp  = excluded.timestamp`,
		key, snap.PatientID, snap.VisitID, snap.URL, snap.TabID, snap.Timestamp)
	if err != nil {
		return fmt.Errorf("relay: write breadcrumb %s: %w", key, err)
	}
	return nil
}

// Close closes the underlying database.
func (s *BreadcrumbStore) Close() error {
	return s.db.Close()
}
