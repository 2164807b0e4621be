package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/qualitygate/quality-gate/internal/analyzer"
	"github.com/qualitygate/quality-gate/internal/config"
	"github.com/qualitygate/quality-gate/internal/git"
	"github.com/qualitygate/quality-gate/internal/history"
	"github.com/qualitygate/quality-gate/internal/metrics"
	"github.com/qualitygate/quality-gate/internal/report"
	"github.com/qualitygate/quality-gate/internal/runner"
	"github.com/qualitygate/quality-gate/internal/scanner"
)

var (
	stagedOnly   bool
	saveBaseline bool
	checkHistory bool
	auditAll     bool
)

type gateOptions struct {
	staged bool
	save   bool
	check  bool
	all    bool
}

// resolve applies the implied flags: --staged and --all imply --check
// unless --save is given.
func (o gateOptions) resolve() gateOptions {
	if o.staged && !o.save {
		o.check = true
	}
	if o.all && !o.save {
		o.check = true
	}
	return o
}

// repository is what the gate needs from version control.
type repository interface {
	scanner.VersionControl
	history.CommitResolver
	Diff(ctx context.Context, files []string, staged bool) string
	GetPath() string
}

type gateContext struct {
	cfg       *config.Config
	repo      repository
	selector  *scanner.FileSelector
	collector *metrics.Collector
	store     *history.Store
	analyzer  *analyzer.ChangeAnalyzer
	formatter report.Formatter
	writer    *report.Writer
	out       io.Writer
	now       func() time.Time
}

func runGate(cmd *cobra.Command, args []string) error {
	opts := gateOptions{
		staged: stagedOnly,
		save:   saveBaseline,
		check:  checkHistory,
		all:    auditAll,
	}.resolve()

	gate, err := setupGateContext(cmd)
	if err != nil {
		return err
	}

	return gate.run(cmd.Context(), opts)
}

func setupGateContext(cmd *cobra.Command) (*gateContext, error) {
	configPath, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	cmdRunner := runner.NewCommandRunner()

	repo, err := openRepository(".", cmdRunner)
	if err != nil {
		return nil, err
	}

	return newGateContext(cfg, repo, cmdRunner, cmd.OutOrStdout())
}

// openRepository uses go-git when it can read the repository and the git CLI
// otherwise, e.g. for repository formats go-git does not support.
func openRepository(path string, r runner.Runner) (*git.Repository, error) {
	if git.IsGitRepository(path) {
		return git.OpenRepository(path, r)
	}

	slog.Warn("go-git could not open repository, using git CLI", "path", path)
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve working directory: %w", err)
	}

	return git.NewCLIRepository(absPath, r), nil
}

func newGateContext(cfg *config.Config, repo repository, r runner.Runner, out io.Writer) (*gateContext, error) {
	root := repo.GetPath()

	selector, err := scanner.NewFileSelector(root, repo, cfg.Metrics.Extension)
	if err != nil {
		return nil, fmt.Errorf("failed to create file selector: %w", err)
	}

	return &gateContext{
		cfg:       cfg,
		repo:      repo,
		selector:  selector,
		collector: metrics.NewCollector(&cfg.Metrics, r, root),
		store:     history.NewStore(resolvePath(root, cfg.History.Dir), repo),
		analyzer:  analyzer.NewChangeAnalyzer(&cfg.Thresholds),
		formatter: report.NewMarkdownFormatter(&cfg.Report),
		writer:    report.NewWriter(resolvePath(root, cfg.Report.Dir)),
		out:       out,
		now:       time.Now,
	}, nil
}

func (g *gateContext) run(ctx context.Context, opts gateOptions) error {
	files := g.selectFiles(ctx, opts)
	if len(files) == 0 {
		g.printNothingToDo(opts)
		return nil
	}

	fmt.Fprintf(g.out, "Measuring metrics for %d files...\n", len(files))
	set, diagnostics, err := g.collector.Collect(ctx, files)
	if err != nil {
		return err
	}
	defer logDiagnostics(diagnostics)

	if opts.save {
		path, err := g.store.Save(ctx, set)
		if err != nil {
			return fmt.Errorf("failed to save metrics history: %w", err)
		}
		g.printSystem("Metrics history saved to: %s", path)
		return nil
	}

	return g.check(ctx, opts, files, set)
}

// selectFiles uses the full tracked set for audits and baselines, and the
// git delta otherwise. A failed query degrades to an empty selection.
func (g *gateContext) selectFiles(ctx context.Context, opts gateOptions) []string {
	var (
		files []string
		err   error
	)

	if opts.save || opts.all {
		files, err = g.selector.Audit(ctx)
	} else {
		files, err = g.selector.Delta(ctx, opts.staged)
	}

	if err != nil {
		slog.Warn("file selection failed", "error", err)
		return nil
	}

	return files
}

func (g *gateContext) check(ctx context.Context, opts gateOptions, files []string, set metrics.Set) error {
	diff := ""
	if !opts.all {
		diff = g.repo.Diff(ctx, files, opts.staged)
	}

	previous := g.store.LoadLatest()
	alerts := g.analyzer.Analyze(files, set, previous)

	healthReport := &report.Report{
		Audit:       opts.all,
		TargetFiles: len(files),
		Alerts:      alerts,
		Rows:        report.NewRows(files, set),
		Diff:        diff,
		Timestamp:   g.now(),
	}

	output, err := g.formatter.Format(healthReport)
	if err != nil {
		return fmt.Errorf("failed to format report: %w", err)
	}

	path, err := g.writer.Save(output, opts.all, healthReport.Timestamp)
	if err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}

	fmt.Fprintln(g.out, output)
	fmt.Fprintln(g.out)
	g.printSystem("Report saved to: %s", path)

	return nil
}

func (g *gateContext) printNothingToDo(opts gateOptions) {
	notice := color.New(color.FgYellow)
	if opts.save {
		notice.Fprintf(g.out, "No %s files found to save.\n", g.cfg.Metrics.Language)
		return
	}
	notice.Fprintf(g.out, "No %s files changed.\n", g.cfg.Metrics.Language)
}

func (g *gateContext) printSystem(format string, args ...any) {
	printSystemTo(g.out, format, args...)
}

func printSystemTo(w io.Writer, format string, args ...any) {
	color.New(color.FgCyan, color.Bold).Fprintf(w, "[System] "+format+"\n", args...)
}

func logDiagnostics(diagnostics []string) {
	for _, d := range diagnostics {
		slog.Warn("metrics output skipped", "detail", d)
	}
}

func resolvePath(root, path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(root, path)
}
