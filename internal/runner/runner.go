package runner

import (
	"bytes"
	"context"
	"log/slog"
	"os/exec"
	"strings"
)

// Runner executes an external program and returns its trimmed stdout.
type Runner interface {
	Run(ctx context.Context, dir string, name string, args ...string) string
}

type CommandRunner struct{}

func NewCommandRunner() *CommandRunner {
	return &CommandRunner{}
}

// Run blocks until the process exits. A non-zero exit still yields whatever
// stdout was produced; only a failure with no output returns "".
func (r *CommandRunner) Run(ctx context.Context, dir string, name string, args ...string) string {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	output := strings.TrimSpace(stdout.String())
	if err == nil {
		return output
	}

	// radon exits non-zero on warnings but still prints valid JSON
	if output != "" {
		slog.Debug("command exited non-zero with output", "command", commandLine(name, args), "error", err)
		return output
	}

	slog.Error("command failed",
		"command", commandLine(name, args),
		"error", err,
		"stderr", strings.TrimSpace(stderr.String()))
	return ""
}

func commandLine(name string, args []string) string {
	return strings.Join(append([]string{name}, args...), " ")
}

// SplitLines splits command output into its non-empty lines.
func SplitLines(output string) []string {
	var lines []string
	for _, line := range strings.Split(output, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

// Func adapts an ordinary function to the Runner interface.
type Func func(ctx context.Context, dir string, name string, args ...string) string

func (f Func) Run(ctx context.Context, dir string, name string, args ...string) string {
	return f(ctx, dir, name, args...)
}
