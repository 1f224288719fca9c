// Package artifacts owns the on-disk side of rendered reports: file naming,
// the reports directory and a watcher that notices documents appearing or
// disappearing under it.
package artifacts

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"
	"unicode"

	"genspec/internal/catalog"
	"genspec/internal/logging"
)

const maxNameRunes = 40

// Extensions of files produced for a report.
const (
	ExtPDF  = "pdf"
	ExtXLSX = "xlsx"
)

// Sanitize keeps letters, digits, space, '-' and '_', trims, truncates to
// 40 characters, then turns spaces into underscores.
func Sanitize(name string) string {
	var b strings.Builder
	for _, r := range name {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == ' ' || r == '-' || r == '_' {
			b.WriteRune(r)
		}
	}
	safe := []rune(strings.TrimSpace(b.String()))
	if len(safe) > maxNameRunes {
		safe = safe[:maxNameRunes]
	}
	return strings.ReplaceAll(string(safe), " ", "_")
}

// FileName returns "{sanitized}_{phase}_{rating}kW_{YYYYMMDD_HHMMSS}.{ext}".
func FileName(project string, phase catalog.PhaseType, rating catalog.PowerRating, at time.Time, ext string) string {
	return fmt.Sprintf("%s_%s_%dkW_%s.%s", Sanitize(project), phase, rating.KW(), at.Format("20060102_150405"), ext)
}

// Dir is the directory rendered documents are written to.
type Dir struct {
	root string

	mu      sync.Mutex
	claimed map[string]struct{} // stems handed out by PathFor
}

// OpenDir creates root if needed.
func OpenDir(root string) (*Dir, error) {
	if root == "" {
		return nil, errors.New("reports directory required")
	}
	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, fmt.Errorf("failed to create reports directory: %w", err)
	}
	return &Dir{root: root, claimed: make(map[string]struct{})}, nil
}

// Root returns the directory path.
func (d *Dir) Root() string { return d.root }

// PathFor returns a fresh destination for a report document. When the
// timestamped name is already on disk, or was handed out earlier by this
// Dir, a "_2", "_3", ... suffix is appended to the stem so that two reports
// saved within the same second never share a file. The PDF and XLSX of one
// stem are checked together so siblings stay paired.
func (d *Dir) PathFor(project string, phase catalog.PhaseType, rating catalog.PowerRating, at time.Time, ext string) string {
	base := strings.TrimSuffix(FileName(project, phase, rating, at, ext), "."+ext)

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.claimed == nil {
		d.claimed = make(map[string]struct{})
	}

	stem := base
	for n := 2; d.taken(stem); n++ {
		stem = fmt.Sprintf("%s_%d", base, n)
	}
	d.claimed[stem] = struct{}{}
	return filepath.Join(d.root, stem+"."+ext)
}

// taken reports whether stem is claimed or has a document on disk.
// Caller holds d.mu.
func (d *Dir) taken(stem string) bool {
	if _, ok := d.claimed[stem]; ok {
		return true
	}
	for _, ext := range []string{ExtPDF, ExtXLSX} {
		if _, err := os.Lstat(filepath.Join(d.root, stem+"."+ext)); err == nil {
			return true
		}
	}
	return false
}

// Sibling returns path with its extension replaced by ext.
func Sibling(path, ext string) string {
	return strings.TrimSuffix(path, filepath.Ext(path)) + "." + ext
}

// Exists reports whether path names an existing regular file.
func Exists(path string) bool {
	if path == "" {
		return false
	}
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

// Documents lists the PDF files in the directory, newest name first.
func (d *Dir) Documents() ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(d.root, "*."+ExtPDF))
	if err != nil {
		return nil, err
	}
	sort.Sort(sort.Reverse(sort.StringSlice(matches)))
	return matches, nil
}

// Remove deletes path if it lives inside the directory. Missing files are
// not an error.
func (d *Dir) Remove(path string) error {
	rel, err := filepath.Rel(d.root, path)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return fmt.Errorf("refusing to remove %s outside %s", path, d.root)
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove artifact: %w", err)
	}
	logging.Artifacts("Removed artifact %s", path)
	return nil
}
