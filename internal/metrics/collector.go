package metrics

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"sort"

	"github.com/qualitygate/quality-gate/internal/config"
	"github.com/qualitygate/quality-gate/internal/runner"
)

// ErrToolNotFound means neither the project virtualenv nor PATH provides the
// analysis tool. It is the one unrecoverable precondition of a run.
var ErrToolNotFound = errors.New("analysis tool not found")

type Collector struct {
	config   *config.MetricsConfig
	runner   runner.Runner
	rootPath string
	lookPath func(file string) (string, error)
}

func NewCollector(cfg *config.MetricsConfig, r runner.Runner, rootPath string) *Collector {
	return &Collector{
		config:   cfg,
		runner:   r,
		rootPath: rootPath,
		lookPath: exec.LookPath,
	}
}

// NewCollectorWithLookPath creates a Collector with a custom PATH lookup (for testing)
func NewCollectorWithLookPath(cfg *config.MetricsConfig, r runner.Runner, rootPath string, lookPath func(string) (string, error)) *Collector {
	c := NewCollector(cfg, r, rootPath)
	c.lookPath = lookPath
	return c
}

// ResolveTool prefers the project-local virtualenv executable, then PATH.
func (c *Collector) ResolveTool() (string, error) {
	if c.config.VenvTool != "" {
		venvTool := c.config.VenvTool
		if !filepath.IsAbs(venvTool) {
			venvTool = filepath.Join(c.rootPath, venvTool)
		}
		if info, err := os.Stat(venvTool); err == nil && !info.IsDir() {
			return venvTool, nil
		}
	}

	if path, err := c.lookPath(c.config.Tool); err == nil {
		return path, nil
	}

	return "", fmt.Errorf("%w: '%s' (install it with 'pip install %s')", ErrToolNotFound, c.config.Tool, c.config.Tool)
}

// Collect measures complexity and maintainability for files in fixed-size
// chunks. Output that cannot be decoded is skipped and reported in the
// returned diagnostics; only a missing tool is an error.
func (c *Collector) Collect(ctx context.Context, files []string) (Set, []string, error) {
	result := NewSet()
	if len(files) == 0 {
		return result, nil, nil
	}

	tool, err := c.ResolveTool()
	if err != nil {
		return result, nil, err
	}

	var diagnostics []string
	for start := 0; start < len(files); start += c.config.ChunkSize {
		end := min(start+c.config.ChunkSize, len(files))
		chunk, chunkDiagnostics := c.collectChunk(ctx, tool, files[start:end])
		result.merge(chunk)

		for _, d := range chunkDiagnostics {
			diagnostics = append(diagnostics, fmt.Sprintf("files %d-%d: %s", start+1, end, d))
		}
	}

	return result, diagnostics, nil
}

func (c *Collector) collectChunk(ctx context.Context, tool string, files []string) (Set, []string) {
	chunk := NewSet()
	var diagnostics []string

	slog.Debug("measuring chunk", "tool", tool, "files", len(files))

	ccArgs := append([]string{"cc", "-a", "-s", "--json"}, files...)
	cc, skipped, err := decodeComplexity(c.runner.Run(ctx, c.rootPath, tool, ccArgs...))
	if err != nil {
		diagnostics = append(diagnostics, fmt.Sprintf("cc output skipped: %v", err))
	}
	for file, blocks := range cc {
		chunk.CC[file] = blocks
	}
	diagnostics = append(diagnostics, prefixAll("cc ", skipped)...)

	miArgs := append([]string{"mi", "-s", "--json"}, files...)
	mi, skipped, err := decodeMaintainability(c.runner.Run(ctx, c.rootPath, tool, miArgs...))
	if err != nil {
		diagnostics = append(diagnostics, fmt.Sprintf("mi output skipped: %v", err))
	}
	for file, m := range mi {
		chunk.MI[file] = m
	}
	diagnostics = append(diagnostics, prefixAll("mi ", skipped)...)

	return chunk, diagnostics
}

type toolError struct {
	Error string `json:"error"`
}

func decodeComplexity(output string) (map[string][]FunctionComplexity, []string, error) {
	if output == "" {
		return nil, nil, nil
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal([]byte(output), &raw); err != nil {
		return nil, nil, fmt.Errorf("invalid cc JSON: %w", err)
	}

	result, skipped := complexityEntries(raw)
	return result, skipped, nil
}

// complexityEntries decodes per-file block lists, skipping entries that are
// not a list (radon reports parse failures as {"error": ...}).
func complexityEntries(raw map[string]json.RawMessage) (map[string][]FunctionComplexity, []string) {
	result := make(map[string][]FunctionComplexity, len(raw))
	var skipped []string

	for file, data := range raw {
		var blocks []FunctionComplexity
		if err := json.Unmarshal(data, &blocks); err != nil {
			skipped = append(skipped, describeFileError(file, data, err))
			continue
		}
		result[file] = blocks
	}

	sort.Strings(skipped)
	return result, skipped
}

func decodeMaintainability(output string) (map[string]Maintainability, []string, error) {
	if output == "" {
		return nil, nil, nil
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal([]byte(output), &raw); err != nil {
		return nil, nil, fmt.Errorf("invalid mi JSON: %w", err)
	}

	result, skipped := maintainabilityEntries(raw)
	return result, skipped, nil
}

func maintainabilityEntries(raw map[string]json.RawMessage) (map[string]Maintainability, []string) {
	result := make(map[string]Maintainability, len(raw))
	var skipped []string

	for file, data := range raw {
		var record struct {
			MI   *float64 `json:"mi"`
			Rank string   `json:"rank"`
		}
		if err := json.Unmarshal(data, &record); err != nil || record.MI == nil {
			skipped = append(skipped, describeFileError(file, data, err))
			continue
		}
		result[file] = Maintainability{MI: *record.MI, Rank: record.Rank}
	}

	sort.Strings(skipped)
	return result, skipped
}

func describeFileError(file string, data json.RawMessage, decodeErr error) string {
	var te toolError
	if json.Unmarshal(data, &te) == nil && te.Error != "" {
		return fmt.Sprintf("%s: %s", file, te.Error)
	}
	if decodeErr != nil {
		return fmt.Sprintf("%s: %v", file, decodeErr)
	}
	return fmt.Sprintf("%s: no value in tool output", file)
}

func prefixAll(prefix string, lines []string) []string {
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		out = append(out, prefix+line)
	}
	return out
}
