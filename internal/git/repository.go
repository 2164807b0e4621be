package git

import (
	"context"
	"fmt"
	"path/filepath"

	gogit "github.com/go-git/go-git/v5"

	"github.com/qualitygate/quality-gate/internal/runner"
)

const shortHashLength = 7

const failedToGetHeadError = "failed to get HEAD:"

// Repository answers the version-control queries the gate needs. Index and
// HEAD lookups go through go-git when the repository could be opened;
// diffs always go through the git CLI, which owns rename detection.
type Repository struct {
	repo   *gogit.Repository
	path   string
	runner runner.Runner
}

// OpenRepository opens the repository containing path, walking up to the
// directory that holds .git.
func OpenRepository(path string, r runner.Runner) (*Repository, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to get absolute path: %w", err)
	}

	repo, err := gogit.PlainOpenWithOptions(absPath, &gogit.PlainOpenOptions{DetectDotGit: true, EnableDotGitCommonDir: true})
	if err != nil {
		return nil, fmt.Errorf("failed to open git repository at %s: %w", absPath, err)
	}

	workTree, err := repo.Worktree()
	if err != nil {
		return nil, fmt.Errorf("failed to get worktree: %w", err)
	}

	return &Repository{
		repo:   repo,
		path:   workTree.Filesystem.Root(),
		runner: r,
	}, nil
}

// NewCLIRepository answers every query through the git CLI run in path.
func NewCLIRepository(path string, r runner.Runner) *Repository {
	return &Repository{path: path, runner: r}
}

func IsGitRepository(path string) bool {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return false
	}

	_, err = gogit.PlainOpenWithOptions(absPath, &gogit.PlainOpenOptions{DetectDotGit: true, EnableDotGitCommonDir: true})
	return err == nil
}

func (r *Repository) GetPath() string {
	return r.path
}

// ChangedFiles lists added, copied, modified and renamed paths relative to
// the working tree, or to the index when staged is set.
func (r *Repository) ChangedFiles(ctx context.Context, staged bool) ([]string, error) {
	args := []string{"diff", "--name-only", "--diff-filter=ACMR"}
	if staged {
		args = []string{"diff", "--cached", "--name-only", "--diff-filter=ACMR"}
	}

	return runner.SplitLines(r.git(ctx, args...)), nil
}

// Diff returns the unified diff for files.
func (r *Repository) Diff(ctx context.Context, files []string, staged bool) string {
	if len(files) == 0 {
		return ""
	}

	args := []string{"diff"}
	if staged {
		args = append(args, "--cached")
	}
	args = append(args, "--")
	args = append(args, files...)

	return r.git(ctx, args...)
}

// TrackedFiles lists every path in the index.
func (r *Repository) TrackedFiles(ctx context.Context) ([]string, error) {
	if r.repo == nil {
		return runner.SplitLines(r.git(ctx, "ls-files")), nil
	}

	idx, err := r.repo.Storer.Index()
	if err != nil {
		return nil, fmt.Errorf("failed to read index: %w", err)
	}

	files := make([]string, 0, len(idx.Entries))
	for _, entry := range idx.Entries {
		files = append(files, entry.Name)
	}

	return files, nil
}

// ShortHead returns the abbreviated hash of HEAD as git names it, honouring
// core.abbrev. go-git is only consulted when the CLI gives no answer.
func (r *Repository) ShortHead(ctx context.Context) (string, error) {
	if hash := r.git(ctx, "rev-parse", "--short", "HEAD"); hash != "" {
		return hash, nil
	}

	if r.repo == nil {
		return "", fmt.Errorf("git rev-parse returned no hash")
	}

	head, err := r.repo.Head()
	if err != nil {
		return "", fmt.Errorf(failedToGetHeadError+" %w", err)
	}

	hash := head.Hash().String()
	if len(hash) > shortHashLength {
		hash = hash[:shortHashLength]
	}

	return hash, nil
}

func (r *Repository) git(ctx context.Context, args ...string) string {
	// Keep non-ASCII paths unquoted so they match the files on disk
	full := append([]string{"-c", "core.quotePath=false"}, args...)
	return r.runner.Run(ctx, r.path, "git", full...)
}
