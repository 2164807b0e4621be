package report

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

const timestampLayout = "20060102_150405"

// Writer persists rendered reports, one new file per run.
type Writer struct {
	dir string
}

func NewWriter(dir string) *Writer {
	return &Writer{dir: dir}
}

// Save writes content to qc_<timestamp>[_audit].md, stamped with the time
// the report was generated.
func (w *Writer) Save(content string, audit bool, generated time.Time) (string, error) {
	if err := os.MkdirAll(w.dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create report directory: %w", err)
	}

	suffix := ""
	if audit {
		suffix = "_audit"
	}

	path := filepath.Join(w.dir, fmt.Sprintf("qc_%s%s.md", generated.Format(timestampLayout), suffix))
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return "", fmt.Errorf("failed to write report: %w", err)
	}

	return path, nil
}
