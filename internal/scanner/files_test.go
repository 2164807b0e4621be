package scanner

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

type fakeVCS struct {
	changed map[bool][]string
	tracked []string
	err     error
}

func (f *fakeVCS) ChangedFiles(_ context.Context, staged bool) ([]string, error) {
	return f.changed[staged], f.err
}

func (f *fakeVCS) TrackedFiles(_ context.Context) ([]string, error) {
	return f.tracked, f.err
}

func writeFiles(t *testing.T, root string, names ...string) {
	t.Helper()
	for _, name := range names {
		path := filepath.Join(root, name)
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			t.Fatalf("Failed to create directory for %s: %v", name, err)
		}
		if err := os.WriteFile(path, []byte("x = 1\n"), 0644); err != nil {
			t.Fatalf("Failed to create %s: %v", name, err)
		}
	}
}

func TestNewFileSelector(t *testing.T) {
	tempDir := t.TempDir()

	selector, err := NewFileSelector(tempDir, &fakeVCS{}, ".py")
	if err != nil {
		t.Fatalf("Failed to create selector: %v", err)
	}

	if selector.rootPath != tempDir {
		t.Errorf("Expected rootPath %s, got %s", tempDir, selector.rootPath)
	}

	if len(selector.extensions) != 1 || selector.extensions[0] != ".py" {
		t.Errorf("Expected extensions [.py], got %v", selector.extensions)
	}
}

func TestFileSelector_Delta(t *testing.T) {
	tempDir := t.TempDir()
	writeFiles(t, tempDir, "a.py", "pkg/b.py", "notes.md", "staged.py")

	vcs := &fakeVCS{
		changed: map[bool][]string{
			// deleted.py is reported by git but no longer on disk
			false: {"a.py", "pkg/b.py", "notes.md", "deleted.py"},
			true:  {"staged.py"},
		},
	}

	selector, err := NewFileSelector(tempDir, vcs, ".py")
	if err != nil {
		t.Fatalf("Failed to create selector: %v", err)
	}

	files, err := selector.Delta(context.Background(), false)
	if err != nil {
		t.Fatalf("Delta failed: %v", err)
	}

	expected := []string{"a.py", "pkg/b.py"}
	if !reflect.DeepEqual(files, expected) {
		t.Errorf("Expected %v, got %v", expected, files)
	}

	staged, err := selector.Delta(context.Background(), true)
	if err != nil {
		t.Fatalf("Delta (staged) failed: %v", err)
	}

	if !reflect.DeepEqual(staged, []string{"staged.py"}) {
		t.Errorf("Expected [staged.py], got %v", staged)
	}
}

func TestFileSelector_DeltaSkipsDirectories(t *testing.T) {
	tempDir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(tempDir, "weird.py"), 0755); err != nil {
		t.Fatalf("Failed to create directory: %v", err)
	}

	selector, _ := NewFileSelector(tempDir, &fakeVCS{changed: map[bool][]string{false: {"weird.py"}}}, ".py")

	files, err := selector.Delta(context.Background(), false)
	if err != nil {
		t.Fatalf("Delta failed: %v", err)
	}

	if len(files) != 0 {
		t.Errorf("Expected no files, got %v", files)
	}
}

func TestFileSelector_AuditHasNoExistenceFilter(t *testing.T) {
	tempDir := t.TempDir()
	writeFiles(t, tempDir, "a.py")

	vcs := &fakeVCS{tracked: []string{"a.py", "missing.py", "lib/c.PY", "setup.cfg", ""}}

	selector, err := NewFileSelector(tempDir, vcs, ".py")
	if err != nil {
		t.Fatalf("Failed to create selector: %v", err)
	}

	files, err := selector.Audit(context.Background())
	if err != nil {
		t.Fatalf("Audit failed: %v", err)
	}

	expected := []string{"a.py", "missing.py", "lib/c.PY"}
	if !reflect.DeepEqual(files, expected) {
		t.Errorf("Expected %v, got %v", expected, files)
	}
}

func TestFileSelector_EmptySelectionIsNotAnError(t *testing.T) {
	selector, _ := NewFileSelector(t.TempDir(), &fakeVCS{}, ".py")

	delta, err := selector.Delta(context.Background(), false)
	if err != nil || len(delta) != 0 {
		t.Errorf("Expected empty delta without error, got %v / %v", delta, err)
	}

	audit, err := selector.Audit(context.Background())
	if err != nil || len(audit) != 0 {
		t.Errorf("Expected empty audit without error, got %v / %v", audit, err)
	}
}

func TestFileSelector_PropagatesQueryErrors(t *testing.T) {
	selector, _ := NewFileSelector(t.TempDir(), &fakeVCS{err: errors.New("index corrupt")}, ".py")

	if _, err := selector.Audit(context.Background()); err == nil {
		t.Error("Expected error from Audit")
	}

	if _, err := selector.Delta(context.Background(), false); err == nil {
		t.Error("Expected error from Delta")
	}
}

func TestFileSelector_HasValidExtension(t *testing.T) {
	selector := &FileSelector{extensions: []string{".py"}}

	tests := []struct {
		path     string
		expected bool
	}{
		{"main.py", true},
		{"pkg/Main.PY", true},
		{"main.pyc", false},
		{"README", false},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			if got := selector.hasValidExtension(tt.path); got != tt.expected {
				t.Errorf("hasValidExtension(%s) = %v, want %v", tt.path, got, tt.expected)
			}
		})
	}

	all := &FileSelector{}
	if !all.hasValidExtension("anything.txt") {
		t.Error("Selector without extensions should accept every file")
	}
}
