package scanner

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// VersionControl is the subset of repository queries file selection needs.
type VersionControl interface {
	ChangedFiles(ctx context.Context, staged bool) ([]string, error)
	TrackedFiles(ctx context.Context) ([]string, error)
}

type FileSelector struct {
	rootPath   string
	vcs        VersionControl
	extensions []string
}

func NewFileSelector(rootPath string, vcs VersionControl, extensions ...string) (*FileSelector, error) {
	absPath, err := filepath.Abs(rootPath)
	if err != nil {
		return nil, fmt.Errorf("failed to get absolute path: %w", err)
	}

	return &FileSelector{
		rootPath:   absPath,
		vcs:        vcs,
		extensions: extensions,
	}, nil
}

// Delta selects changed files of the target type that still exist on disk,
// so deletions drop out.
func (fs *FileSelector) Delta(ctx context.Context, staged bool) ([]string, error) {
	changed, err := fs.vcs.ChangedFiles(ctx, staged)
	if err != nil {
		return nil, fmt.Errorf("failed to list changed files: %w", err)
	}

	var files []string
	for _, file := range changed {
		if fs.hasValidExtension(file) && fs.exists(file) {
			files = append(files, file)
		}
	}

	return files, nil
}

// Audit selects every tracked file of the target type. Tracked files are
// taken to be present.
func (fs *FileSelector) Audit(ctx context.Context) ([]string, error) {
	tracked, err := fs.vcs.TrackedFiles(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list tracked files: %w", err)
	}

	var files []string
	for _, file := range tracked {
		if file != "" && fs.hasValidExtension(file) {
			files = append(files, file)
		}
	}

	return files, nil
}

func (fs *FileSelector) hasValidExtension(path string) bool {
	if len(fs.extensions) == 0 {
		return true
	}

	ext := strings.ToLower(filepath.Ext(path))
	for _, validExt := range fs.extensions {
		if ext == strings.ToLower(validExt) {
			return true
		}
	}
	return false
}

func (fs *FileSelector) exists(relPath string) bool {
	info, err := os.Stat(filepath.Join(fs.rootPath, filepath.FromSlash(relPath)))
	return err == nil && !info.IsDir()
}
