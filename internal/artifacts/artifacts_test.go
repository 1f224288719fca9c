package artifacts

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"genspec/internal/catalog"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// =============================================================================
// NAMING TESTS
// =============================================================================

func TestSanitize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in, want string
	}{
		{"St. Mary's Hospital", "St_Marys_Hospital"},
		{"  Radiology / Wing-B_2  ", "Radiology__Wing-B_2"},
		{"", ""},
		{"!!!", ""},
		{"Clínica São José", "Clínica_São_José"},
		{strings.Repeat("a", 50), strings.Repeat("a", 40)},
		// Truncation happens before the space swap, so trailing spaces
		// inside the first 40 characters survive as underscores.
		{strings.Repeat("b", 39) + " cdef", strings.Repeat("b", 39) + "_"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Sanitize(tt.in), "Sanitize(%q)", tt.in)
	}
}

func TestFileName(t *testing.T) {
	t.Parallel()

	at := time.Date(2026, 3, 14, 9, 5, 7, 0, time.UTC)
	got := FileName("CT Suite #2", catalog.PhaseThree, 50, at, ExtPDF)
	assert.Equal(t, "CT_Suite_2_three_50kW_20260314_090507.pdf", got)
	assert.Equal(t, "CT_Suite_2_three_50kW_20260314_090507.xlsx", Sibling(got, ExtXLSX))
}

func TestDir(t *testing.T) {
	t.Parallel()

	root := filepath.Join(t.TempDir(), "reports")
	d, err := OpenDir(root)
	require.NoError(t, err)
	assert.DirExists(t, root)

	at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	path := d.PathFor("Clinic", catalog.PhaseSingle, 30, at, ExtPDF)
	assert.Equal(t, filepath.Join(root, "Clinic_single_30kW_20260102_030405.pdf"), path)
	assert.False(t, Exists(path))

	require.NoError(t, os.WriteFile(path, []byte("%PDF"), 0644))
	assert.True(t, Exists(path))

	docs, err := d.Documents()
	require.NoError(t, err)
	assert.Equal(t, []string{path}, docs)

	require.NoError(t, d.Remove(path))
	assert.False(t, Exists(path))
	assert.NoError(t, d.Remove(path), "removing a missing file is not an error")
	assert.Error(t, d.Remove(filepath.Join(root, "..", "elsewhere.pdf")))

	_, err = OpenDir("")
	assert.Error(t, err)
	assert.False(t, Exists(""))
	assert.False(t, Exists(root), "directories are not documents")
}

func TestDir_PathForSameSecond(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	d, err := OpenDir(root)
	require.NoError(t, err)

	at := time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)
	first := d.PathFor("Clinic", catalog.PhaseThree, 50, at, ExtPDF)
	second := d.PathFor("Clinic", catalog.PhaseThree, 50, at.Add(time.Millisecond), ExtPDF)
	assert.Equal(t, filepath.Join(root, "Clinic_three_50kW_20260314_093000.pdf"), first)
	assert.Equal(t, filepath.Join(root, "Clinic_three_50kW_20260314_093000_2.pdf"), second)

	// A fresh Dir over the same root sees the files already written.
	require.NoError(t, os.WriteFile(first, []byte("%PDF"), 0644))
	require.NoError(t, os.WriteFile(Sibling(second, ExtXLSX), []byte("PK"), 0644))
	other, err := OpenDir(root)
	require.NoError(t, err)
	third := other.PathFor("Clinic", catalog.PhaseThree, 50, at, ExtPDF)
	assert.Equal(t, filepath.Join(root, "Clinic_three_50kW_20260314_093000_3.pdf"), third)
}

func TestDir_PathForConcurrent(t *testing.T) {
	t.Parallel()

	d, err := OpenDir(t.TempDir())
	require.NoError(t, err)

	at := time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)
	const n = 16
	paths := make(chan string, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			paths <- d.PathFor("Clinic", catalog.PhaseSingle, 30, at, ExtPDF)
		}()
	}
	wg.Wait()
	close(paths)

	seen := make(map[string]bool)
	for p := range paths {
		assert.False(t, seen[p], "duplicate path %s", p)
		seen[p] = true
	}
	assert.Len(t, seen, n)
}

func TestDir_RemoveDotPrefixedName(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	d, err := OpenDir(root)
	require.NoError(t, err)

	path := filepath.Join(root, "..notes.pdf")
	require.NoError(t, os.WriteFile(path, []byte("%PDF"), 0644))
	require.NoError(t, d.Remove(path))
	assert.False(t, Exists(path))

	assert.Error(t, d.Remove(filepath.Dir(root)))
	assert.Error(t, d.Remove(filepath.Join(root, "..", "..notes.pdf")))
}

// =============================================================================
// WATCHER TESTS
// =============================================================================

func TestWatcher_DeliversDocumentEvents(t *testing.T) {
	dir := t.TempDir()
	w, err := NewWatcher(dir, 20*time.Millisecond)
	require.NoError(t, err)
	defer w.Stop()

	require.NoError(t, w.Start(context.Background()))

	require.NoError(t, os.WriteFile(filepath.Join(dir, "ignored.txt"), []byte("x"), 0644))
	doc := filepath.Join(dir, "report.pdf")
	require.NoError(t, os.WriteFile(doc, []byte("%PDF-1.3"), 0644))

	select {
	case ev := <-w.Events():
		assert.Equal(t, doc, ev.Path)
		assert.Equal(t, "create", ev.Op)
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for watcher event")
	}

	stats := w.Stats()
	assert.GreaterOrEqual(t, stats.Created, 1)
	assert.GreaterOrEqual(t, stats.Delivered, 1)
}

func TestWatcher_StopWithoutStart(t *testing.T) {
	w, err := NewWatcher(t.TempDir(), 0)
	require.NoError(t, err)
	w.Stop()
	w.Stop()

	_, open := <-w.Events()
	assert.False(t, open)
}

func TestWatcher_ContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	w, err := NewWatcher(t.TempDir(), 10*time.Millisecond)
	require.NoError(t, err)
	require.NoError(t, w.Start(ctx))

	cancel()
	for range w.Events() {
	}
	w.Stop()
}

func TestWatcher_MissingDir(t *testing.T) {
	w, err := NewWatcher(filepath.Join(t.TempDir(), "missing"), 0)
	require.NoError(t, err)
	defer w.Stop()
	assert.Error(t, w.Start(context.Background()))
}
