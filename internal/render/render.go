// Package render turns an assembled report payload into durable documents:
// a PDF with an embedded topology diagram and, optionally, a load analysis
// workbook.
package render

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"genspec/internal/logging"
	"genspec/internal/report"
)

// ErrRenderFailure wraps every error returned by a Renderer.
var ErrRenderFailure = errors.New("render failure")

// Renderer writes one document for a payload to dest. On failure nothing is
// left at dest.
type Renderer interface {
	Render(p report.Payload, dest string) error
}

// writeAtomic streams a document into a temporary file next to dest and
// renames it into place once write and close succeed. The temporary file is
// removed on every failure path.
func writeAtomic(dest string, write func(io.Writer) error) (err error) {
	dir := filepath.Dir(dest)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(dest)+".*.tmp")
	if err != nil {
		return fmt.Errorf("%w: failed to create temp file: %v", ErrRenderFailure, err)
	}
	tmpName := tmp.Name()
	defer func() {
		if err != nil {
			tmp.Close()
			if rmErr := os.Remove(tmpName); rmErr != nil && !os.IsNotExist(rmErr) {
				logging.RenderWarn("failed to remove temp file %s: %v", tmpName, rmErr)
			}
		}
	}()

	if err := write(tmp); err != nil {
		return fmt.Errorf("%w: %v", ErrRenderFailure, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("%w: failed to close temp file: %v", ErrRenderFailure, err)
	}
	if err := os.Rename(tmpName, dest); err != nil {
		return fmt.Errorf("%w: failed to move document into place: %v", ErrRenderFailure, err)
	}
	return nil
}
