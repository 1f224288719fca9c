package store

import (
	"context"
	"database/sql"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"genspec/internal/catalog"
	"genspec/internal/checklist"
	"genspec/internal/ledger"
)

// stepClock returns a clock that advances one minute per call.
func stepClock(start time.Time) func() time.Time {
	var mu sync.Mutex
	next := start
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		t := next
		next = next.Add(time.Minute)
		return t
	}
}

func openTestStore(t *testing.T, driver string) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "reports.db"), driver)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	s.now = stepClock(time.Date(2026, 1, 5, 8, 0, 0, 0, time.UTC))
	return s
}

func sampleRecord(id string) Record {
	return Record{
		ID:            id,
		ProjectName:   "Radiology Wing B",
		PhaseType:     "three",
		PowerRating:   50,
		Status:        StatusCompleted,
		Address:       "12 Harbor Rd",
		Contractor:    "Acme Electric",
		LicenseNumber: "EL-4471",
		Checklist:     checklist.State{"Review local codes": true},
		Loads:         []ledger.Load{{ID: 1, Name: "X-Ray Tube", Wattage: 15000, Quantity: 1}},
		PDFPath:       "/tmp/report.pdf",
	}
}

var drivers = []string{DriverCGO, DriverPureGo}

// =============================================================================
// CRUD TESTS
// =============================================================================

func TestStore_SaveAndGet(t *testing.T) {
	t.Parallel()

	for _, driver := range drivers {
		driver := driver
		t.Run(driver, func(t *testing.T) {
			t.Parallel()
			s := openTestStore(t, driver)
			ctx := context.Background()

			saved, err := s.Save(ctx, sampleRecord("abc123"))
			require.NoError(t, err)
			assert.Equal(t, driver, s.Driver())

			got, err := s.Get(ctx, "abc123")
			require.NoError(t, err)
			if diff := cmp.Diff(saved, got); diff != "" {
				t.Errorf("Get mismatch (-saved +got):\n%s", diff)
			}
			assert.Equal(t, "EL-4471", got.LicenseNumber)
			assert.True(t, got.Checklist.Done("Review local codes"))
			require.Len(t, got.Loads, 1)
			assert.Equal(t, 15000, got.Loads[0].TotalWatts())
			assert.Equal(t, time.Date(2026, 1, 5, 8, 0, 0, 0, time.UTC), got.CreatedAt)
		})
	}
}

func TestStore_UpsertKeepsCreatedAt(t *testing.T) {
	t.Parallel()

	s := openTestStore(t, DriverPureGo)
	ctx := context.Background()

	first, err := s.Save(ctx, sampleRecord("r1"))
	require.NoError(t, err)

	rec := sampleRecord("r1")
	rec.ProjectName = "Radiology Wing C"
	rec.Status = StatusDraft
	second, err := s.Save(ctx, rec)
	require.NoError(t, err)

	assert.Equal(t, first.CreatedAt, second.CreatedAt)
	assert.True(t, second.UpdatedAt.After(first.UpdatedAt))
	assert.Equal(t, "Radiology Wing C", second.ProjectName)
	assert.Equal(t, StatusDraft, second.Status)

	all, err := s.List(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestStore_SaveDefaults(t *testing.T) {
	t.Parallel()

	s := openTestStore(t, DriverPureGo)
	ctx := context.Background()

	_, err := s.Save(ctx, Record{})
	assert.ErrorIs(t, err, ErrPersistence)

	got, err := s.Save(ctx, Record{ID: "bare", ProjectName: "Untitled Project", PhaseType: "single", PowerRating: 30})
	require.NoError(t, err)
	assert.Equal(t, StatusDraft, got.Status)
	assert.NotNil(t, got.Loads)
	assert.Empty(t, got.Loads)
	assert.Empty(t, got.Checklist)
}

func TestStore_ListOrderAndLimit(t *testing.T) {
	t.Parallel()

	for _, driver := range drivers {
		driver := driver
		t.Run(driver, func(t *testing.T) {
			t.Parallel()
			s := openTestStore(t, driver)
			ctx := context.Background()

			for _, id := range []string{"a", "b", "c"} {
				_, err := s.Save(ctx, sampleRecord(id))
				require.NoError(t, err)
			}
			// Touching "a" moves it to the front.
			_, err := s.Save(ctx, sampleRecord("a"))
			require.NoError(t, err)

			all, err := s.List(ctx, 10)
			require.NoError(t, err)
			assert.Equal(t, []string{"a", "c", "b"}, ids(all))

			two, err := s.List(ctx, 2)
			require.NoError(t, err)
			assert.Equal(t, []string{"a", "c"}, ids(two))
		})
	}
}

func ids(recs []Record) []string {
	out := make([]string, len(recs))
	for i, r := range recs {
		out[i] = r.ID
	}
	return out
}

func TestStore_GetMissing(t *testing.T) {
	t.Parallel()

	s := openTestStore(t, DriverCGO)
	_, err := s.Get(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NotErrorIs(t, err, ErrPersistence)
}

func TestStore_DeleteIdempotent(t *testing.T) {
	t.Parallel()

	s := openTestStore(t, DriverCGO)
	ctx := context.Background()

	_, err := s.Save(ctx, sampleRecord("gone"))
	require.NoError(t, err)

	require.NoError(t, s.Delete(ctx, "gone"))
	require.NoError(t, s.Delete(ctx, "gone"))

	_, err = s.Get(ctx, "gone")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStore_ClosedDatabase(t *testing.T) {
	t.Parallel()

	s, err := Open(filepath.Join(t.TempDir(), "reports.db"), DriverPureGo)
	require.NoError(t, err)
	require.NoError(t, s.Close())

	_, err = s.Save(context.Background(), sampleRecord("x"))
	assert.ErrorIs(t, err, ErrPersistence)
	_, err = s.List(context.Background(), 5)
	assert.ErrorIs(t, err, ErrPersistence)
}

func TestOpen_UnknownDriver(t *testing.T) {
	t.Parallel()

	_, err := Open(filepath.Join(t.TempDir(), "reports.db"), "postgres")
	assert.ErrorIs(t, err, ErrPersistence)
}

// =============================================================================
// MIGRATION TESTS
// =============================================================================

func TestOpen_MigratesLegacyTable(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "legacy.db")
	db, err := sql.Open(DriverPureGo, path)
	require.NoError(t, err)
	_, err = db.Exec(`
		CREATE TABLE reports (
			id TEXT PRIMARY KEY,
			project_name TEXT NOT NULL,
			phase_type TEXT NOT NULL,
			power_rating INTEGER NOT NULL,
			status TEXT NOT NULL DEFAULT 'draft',
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL,
			project_address TEXT,
			contractor TEXT,
			electrician TEXT
		);
		INSERT INTO reports VALUES ('old1', 'Clinic', 'single', 30, 'completed',
			'2025-06-01T10:00:00Z', '2025-06-01T10:00:00Z', NULL, NULL, NULL);
	`)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	s, err := Open(path, DriverPureGo)
	require.NoError(t, err)
	defer s.Close()

	for _, m := range pendingMigrations {
		assert.True(t, columnExists(s.db, m.Table, m.Column), m.Column)
	}
	assert.Equal(t, CurrentSchemaVersion, SchemaVersion(s.db))

	rec, err := s.Get(context.Background(), "old1")
	require.NoError(t, err)
	assert.Equal(t, "Clinic", rec.ProjectName)
	assert.Equal(t, time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC), rec.CreatedAt.UTC())
	assert.Empty(t, rec.Loads)
	assert.Empty(t, rec.Checklist)
	assert.Empty(t, rec.PDFPath)
}

func TestRunMigrations_Idempotent(t *testing.T) {
	t.Parallel()

	s := openTestStore(t, DriverCGO)
	require.NoError(t, RunMigrations(s.db))
	require.NoError(t, RunMigrations(s.db))
	assert.Equal(t, CurrentSchemaVersion, SchemaVersion(s.db))
}

func TestRecord_Payload(t *testing.T) {
	t.Parallel()

	rec := sampleRecord("p1")
	rec.CreatedAt = time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC)
	p, err := rec.Payload(nil)
	require.NoError(t, err)
	assert.Equal(t, "p1", p.ID)
	assert.Equal(t, "208V/480V", p.Spec.VoltageText())
	assert.Equal(t, "EL-4471", p.Metadata.LicenseNumber)
	assert.Equal(t, rec.CreatedAt, p.CreatedAt)
	assert.Equal(t, rec.Loads, p.Loads)

	back := FromPayload(p, StatusCompleted, rec.PDFPath)
	back.UpdatedAt = rec.UpdatedAt
	if diff := cmp.Diff(rec, back); diff != "" {
		t.Errorf("record mismatch (-want +got):\n%s", diff)
	}

	rec.PowerRating = 45
	_, err = rec.Payload(nil)
	assert.ErrorIs(t, err, catalog.ErrNotFound)
}
