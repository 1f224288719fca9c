// Package store persists report records in SQLite. Both the cgo driver
// (mattn/go-sqlite3, "sqlite3") and the pure Go driver (modernc.org/sqlite,
// "sqlite") are linked in; the configured one is used.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	_ "modernc.org/sqlite"

	"genspec/internal/catalog"
	"genspec/internal/checklist"
	"genspec/internal/ledger"
	"genspec/internal/logging"
	"genspec/internal/report"
)

var (
	// ErrPersistence wraps every database failure.
	ErrPersistence = errors.New("persistence failure")
	// ErrNotFound is returned by Get for an unknown id.
	ErrNotFound = errors.New("report not found")
)

// Driver names accepted by Open.
const (
	DriverCGO    = "sqlite3"
	DriverPureGo = "sqlite"
)

// DefaultListLimit applies when List is called with limit <= 0.
const DefaultListLimit = 50

// timeLayout is fixed width so text ordering matches time ordering.
const timeLayout = "2006-01-02 15:04:05.000000"

// Status is the lifecycle state of a record.
type Status string

const (
	StatusDraft     Status = "draft"
	StatusCompleted Status = "completed"
)

// Record is the durable subset of a report.
type Record struct {
	ID            string          `json:"id"`
	ProjectName   string          `json:"project_name"`
	PhaseType     string          `json:"phase_type"`
	PowerRating   int             `json:"power_rating"`
	Status        Status          `json:"status"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
	Address       string          `json:"project_address"`
	Contractor    string          `json:"contractor"`
	Electrician   string          `json:"electrician"`
	LicenseNumber string          `json:"license_number"`
	CustomNotes   string          `json:"custom_notes"`
	Checklist     checklist.State `json:"checklist_data"`
	Loads         []ledger.Load   `json:"load_data"`
	PDFPath       string          `json:"pdf_path"`
}

// FromPayload builds the record persisted for p.
func FromPayload(p report.Payload, status Status, pdfPath string) Record {
	m := p.Metadata
	return Record{
		ID:            p.ID,
		ProjectName:   m.ProjectName,
		PhaseType:     string(p.Phase),
		PowerRating:   p.Rating.KW(),
		Status:        status,
		CreatedAt:     p.CreatedAt,
		Address:       m.Address,
		Contractor:    m.Contractor,
		Electrician:   m.Electrician,
		LicenseNumber: m.LicenseNumber,
		CustomNotes:   m.CustomNotes,
		Checklist:     p.Checklist.Clone(),
		Loads:         append([]ledger.Load(nil), p.Loads...),
		PDFPath:       pdfPath,
	}
}

// Payload rebuilds the report payload for rec so a stored report can be
// rendered again. The specification is resolved through cat (nil selects
// catalog.Default()).
func (r Record) Payload(cat *catalog.Catalog) (report.Payload, error) {
	if cat == nil {
		cat = catalog.Default()
	}
	phase, err := catalog.ParsePhase(r.PhaseType)
	if err != nil {
		return report.Payload{}, err
	}
	rating := catalog.PowerRating(r.PowerRating)
	spec, err := cat.Lookup(phase, rating)
	if err != nil {
		return report.Payload{}, err
	}
	return report.Payload{
		ID:     r.ID,
		Phase:  phase,
		Rating: rating,
		Spec:   spec,
		Metadata: report.Metadata{
			ProjectName:   r.ProjectName,
			Address:       r.Address,
			Contractor:    r.Contractor,
			Electrician:   r.Electrician,
			LicenseNumber: r.LicenseNumber,
			CustomNotes:   r.CustomNotes,
		},
		Loads:     append([]ledger.Load(nil), r.Loads...),
		Checklist: r.Checklist.Clone(),
		CreatedAt: r.CreatedAt,
	}, nil
}

// Store manages the report records database.
type Store struct {
	db     *sql.DB
	dbPath string
	driver string
	now    func() time.Time
	mu     sync.RWMutex
}

// Open creates or opens the database at path using driver ("" selects
// sqlite3).
func Open(path, driver string) (*Store, error) {
	if driver == "" {
		driver = DriverCGO
	}
	var dsn string
	switch driver {
	case DriverCGO:
		dsn = path + "?_journal_mode=WAL&_busy_timeout=5000"
	case DriverPureGo:
		dsn = path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	default:
		return nil, fmt.Errorf("%w: unknown driver %q", ErrPersistence, driver)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("%w: failed to create directory: %w", ErrPersistence, err)
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to open database: %w", ErrPersistence, err)
	}
	// SQLite has a single writer.
	db.SetMaxOpenConns(1)

	s := &Store{db: db, dbPath: path, driver: driver, now: time.Now}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: failed to initialize schema: %w", ErrPersistence, err)
	}
	if err := RunMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: failed to migrate schema: %w", ErrPersistence, err)
	}

	logging.Store("Opened record store %s (driver=%s)", path, driver)
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string { return s.dbPath }

// Driver returns the SQL driver name in use.
func (s *Store) Driver() string { return s.driver }

// initSchema creates the database schema.
func (s *Store) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS reports (
		id TEXT PRIMARY KEY,
		project_name TEXT NOT NULL,
		phase_type TEXT NOT NULL,
		power_rating INTEGER NOT NULL,
		status TEXT NOT NULL DEFAULT 'draft',
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL,
		project_address TEXT,
		contractor TEXT,
		electrician TEXT,
		license_number TEXT,
		custom_notes TEXT,
		checklist_data TEXT DEFAULT '{}',
		load_data TEXT DEFAULT '[]',
		pdf_path TEXT
	);
	CREATE INDEX IF NOT EXISTS idx_reports_updated ON reports(updated_at);
	`
	_, err := s.db.Exec(schema)
	return err
}

func persistErr(op string, err error) error {
	logging.StoreError("%s: %v", op, err)
	return fmt.Errorf("%w: failed to %s: %w", ErrPersistence, op, err)
}

// Save inserts or replaces the record with rec.ID. created_at is kept from
// the first save; updated_at is set to now. The stored record is returned.
func (s *Store) Save(ctx context.Context, rec Record) (Record, error) {
	if rec.ID == "" {
		return Record{}, fmt.Errorf("%w: record id required", ErrPersistence)
	}
	if rec.Status == "" {
		rec.Status = StatusDraft
	}

	checklistJSON, err := json.Marshal(rec.Checklist)
	if err != nil {
		return Record{}, persistErr("encode checklist", err)
	}
	loads := rec.Loads
	if loads == nil {
		loads = []ledger.Load{}
	}
	loadJSON, err := json.Marshal(loads)
	if err != nil {
		return Record{}, persistErr("encode loads", err)
	}

	now := s.now().UTC()
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = now
	}
	rec.UpdatedAt = now

	s.mu.Lock()
	defer s.mu.Unlock()

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO reports (id, project_name, phase_type, power_rating, status, created_at, updated_at,
			project_address, contractor, electrician, license_number, custom_notes,
			checklist_data, load_data, pdf_path)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			project_name = excluded.project_name,
			phase_type = excluded.phase_type,
			power_rating = excluded.power_rating,
			status = excluded.status,
			updated_at = excluded.updated_at,
			project_address = excluded.project_address,
			contractor = excluded.contractor,
			electrician = excluded.electrician,
			license_number = excluded.license_number,
			custom_notes = excluded.custom_notes,
			checklist_data = excluded.checklist_data,
			load_data = excluded.load_data,
			pdf_path = excluded.pdf_path
	`, rec.ID, rec.ProjectName, rec.PhaseType, rec.PowerRating, string(rec.Status),
		rec.CreatedAt.UTC().Format(timeLayout), rec.UpdatedAt.Format(timeLayout),
		rec.Address, rec.Contractor, rec.Electrician, rec.LicenseNumber, rec.CustomNotes,
		string(checklistJSON), string(loadJSON), rec.PDFPath)
	if err != nil {
		return Record{}, persistErr("save report "+rec.ID, err)
	}

	logging.StoreDebug("Saved report %s (status=%s)", rec.ID, rec.Status)
	return s.get(ctx, rec.ID)
}

const selectColumns = `SELECT id, project_name, phase_type, power_rating, status, created_at, updated_at,
	project_address, contractor, electrician, license_number, custom_notes,
	checklist_data, load_data, pdf_path FROM reports`

// Get returns the record with id or ErrNotFound.
func (s *Store) Get(ctx context.Context, id string) (Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.get(ctx, id)
}

func (s *Store) get(ctx context.Context, id string) (Record, error) {
	row := s.db.QueryRowContext(ctx, selectColumns+" WHERE id = ?", id)
	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Record{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return Record{}, persistErr("load report "+id, err)
	}
	return rec, nil
}

// List returns up to limit records, most recently updated first.
func (s *Store) List(ctx context.Context, limit int) ([]Record, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, selectColumns+" ORDER BY updated_at DESC, rowid DESC LIMIT ?", limit)
	if err != nil {
		return nil, persistErr("list reports", err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, persistErr("scan report", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, persistErr("list reports", err)
	}
	return out, nil
}

// Delete removes the record with id. Unknown ids are not an error.
func (s *Store) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, "DELETE FROM reports WHERE id = ?", id)
	if err != nil {
		return persistErr("delete report "+id, err)
	}
	if n, _ := res.RowsAffected(); n > 0 {
		logging.Store("Deleted report %s", id)
	}
	return nil
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanRecord(sc scanner) (Record, error) {
	var (
		rec                                       Record
		status, created, updated                  string
		address, contractor, electrician, notes   sql.NullString
		license, checklistJSON, loadJSON, pdfPath sql.NullString
	)
	if err := sc.Scan(&rec.ID, &rec.ProjectName, &rec.PhaseType, &rec.PowerRating, &status, &created, &updated,
		&address, &contractor, &electrician, &license, &notes, &checklistJSON, &loadJSON, &pdfPath); err != nil {
		return Record{}, err
	}

	rec.Status = Status(status)
	rec.Address = address.String
	rec.Contractor = contractor.String
	rec.Electrician = electrician.String
	rec.LicenseNumber = license.String
	rec.CustomNotes = notes.String
	rec.PDFPath = pdfPath.String

	var err error
	if rec.CreatedAt, err = parseTime(created); err != nil {
		return Record{}, err
	}
	if rec.UpdatedAt, err = parseTime(updated); err != nil {
		return Record{}, err
	}

	rec.Checklist = checklist.State{}
	if checklistJSON.Valid && checklistJSON.String != "" {
		if err := json.Unmarshal([]byte(checklistJSON.String), &rec.Checklist); err != nil {
			return Record{}, fmt.Errorf("decode checklist_data: %w", err)
		}
	}
	rec.Loads = []ledger.Load{}
	if loadJSON.Valid && loadJSON.String != "" {
		if err := json.Unmarshal([]byte(loadJSON.String), &rec.Loads); err != nil {
			return Record{}, fmt.Errorf("decode load_data: %w", err)
		}
	}
	return rec, nil
}

// parseTime accepts the store layout and RFC 3339 for rows written by other
// tools.
func parseTime(s string) (time.Time, error) {
	if t, err := time.ParseInLocation(timeLayout, s, time.UTC); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339Nano, s)
}
