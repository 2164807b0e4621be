package history

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/qualitygate/quality-gate/internal/metrics"
)

const (
	timestampLayout = "20060102_150405"
	filePattern     = "metrics_*.json"
	unknownCommit   = "unknown"
)

// Snapshot is one persisted metrics measurement.
type Snapshot struct {
	Timestamp string      `json:"timestamp"`
	Commit    string      `json:"commit"`
	Metrics   metrics.Set `json:"metrics"`
}

// CommitResolver names the commit a snapshot is taken at.
type CommitResolver interface {
	ShortHead(ctx context.Context) (string, error)
}

type Store struct {
	dir    string
	commit CommitResolver
	now    func() time.Time
}

func NewStore(dir string, commit CommitResolver) *Store {
	return &Store{
		dir:    dir,
		commit: commit,
		now:    time.Now,
	}
}

// NewStoreWithClock creates a Store with a fixed clock (for testing)
func NewStoreWithClock(dir string, commit CommitResolver, now func() time.Time) *Store {
	s := NewStore(dir, commit)
	s.now = now
	return s
}

// Save writes set as a new snapshot file and returns its path. Existing
// snapshots are never rewritten.
func (s *Store) Save(ctx context.Context, set metrics.Set) (string, error) {
	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create history directory: %w", err)
	}

	commit, err := s.commit.ShortHead(ctx)
	if err != nil || commit == "" {
		slog.Warn("could not resolve current commit", "error", err)
		commit = unknownCommit
	}

	timestamp := s.now().Format(timestampLayout)
	snapshot := Snapshot{
		Timestamp: timestamp,
		Commit:    commit,
		Metrics:   set,
	}

	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	path := filepath.Join(s.dir, fmt.Sprintf("metrics_%s_%s.json", timestamp, commit))
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write snapshot: %w", err)
	}

	return path, nil
}

// LoadLatest returns the most recently modified snapshot, or nil when there
// is no usable history. An unreadable newest snapshot is logged and treated
// as no history rather than falling back to an older one.
func (s *Store) LoadLatest() *Snapshot {
	files, err := filepath.Glob(filepath.Join(s.dir, filePattern))
	if err != nil || len(files) == 0 {
		return nil
	}

	latest := newestFile(files)
	if latest == "" {
		return nil
	}

	data, err := os.ReadFile(latest)
	if err != nil {
		slog.Warn("failed to load history file", "file", latest, "error", err)
		return nil
	}

	var snapshot Snapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		slog.Warn("failed to load history file", "file", latest, "error", err)
		return nil
	}

	slog.Debug("loaded history snapshot", "file", latest, "commit", snapshot.Commit)
	return &snapshot
}

type snapshotFile struct {
	path    string
	modTime time.Time
}

// newestFile orders by modification time; equal times fall back to the
// name, which embeds the save timestamp.
func newestFile(paths []string) string {
	var candidates []snapshotFile
	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil || info.IsDir() {
			continue
		}
		candidates = append(candidates, snapshotFile{path: path, modTime: info.ModTime()})
	}

	if len(candidates) == 0 {
		return ""
	}

	sort.Slice(candidates, func(i, j int) bool {
		if !candidates[i].modTime.Equal(candidates[j].modTime) {
			return candidates[i].modTime.After(candidates[j].modTime)
		}
		return candidates[i].path > candidates[j].path
	})

	return candidates[0].path
}

// PreviousMaintainability looks up a file's MI in the snapshot.
func (s *Snapshot) PreviousMaintainability(file string) (float64, bool) {
	if s == nil {
		return 0, false
	}
	return s.Metrics.Maintainability(file)
}
