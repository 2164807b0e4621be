package report

import (
	"fmt"
	"sort"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/qualitygate/quality-gate/internal/config"
	"github.com/qualitygate/quality-gate/internal/metrics"
)

const (
	reportHeader  = "--- [Quality Gatekeeper Analysis] ---"
	auditMarker   = "Mode: FULL AUDIT (Checking all files)"
	truncatedDiff = "... (truncated)"
)

type Formatter interface {
	Format(report *Report) (string, error)
}

// NewRows builds the metrics table for files, worst maintainability first.
// A file without an MI measurement sorts as 0.
func NewRows(files []string, set metrics.Set) []Row {
	rows := make([]Row, 0, len(files))
	for _, file := range files {
		mi, _ := set.Maintainability(file)
		rows = append(rows, Row{
			File:  file,
			MI:    mi,
			AvgCC: set.AverageComplexity(file),
		})
	}

	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].MI < rows[j].MI
	})

	return rows
}

type MarkdownFormatter struct {
	config *config.ReportConfig
}

func NewMarkdownFormatter(cfg *config.ReportConfig) *MarkdownFormatter {
	return &MarkdownFormatter{config: cfg}
}

func (f *MarkdownFormatter) Format(report *Report) (string, error) {
	return strings.Join(f.lines(report), "\n"), nil
}

// lines renders the report as the ordered sequence of text lines that is
// both printed and persisted.
func (f *MarkdownFormatter) lines(report *Report) []string {
	var lines []string

	lines = append(lines, reportHeader)
	if report.Audit {
		lines = append(lines, auditMarker)
	}
	lines = append(lines, fmt.Sprintf("Target Files: %s files.", humanize.Comma(int64(report.TargetFiles))))

	if len(report.Alerts) > 0 {
		lines = append(lines, f.alertLines(report.Alerts)...)
	} else {
		lines = append(lines,
			"",
			"## ✅ Quality Check Passed",
			"No critical quality issues detected based on current thresholds.")
	}

	lines = append(lines, f.metricsLines(report)...)

	if !report.Audit && report.Diff != "" {
		lines = append(lines, f.diffLines(report.Diff)...)
	}

	return lines
}

func (f *MarkdownFormatter) alertLines(alerts []Alert) []string {
	lines := []string{"", "## 🚨 QUALITY ALERTS (Action Required)"}

	display := alerts
	if len(alerts) > f.config.MaxAlerts {
		lines = append(lines, fmt.Sprintf("(Showing first %d of %d alerts)", f.config.MaxAlerts, len(alerts)))
		display = alerts[:f.config.MaxAlerts]
	}

	for _, alert := range display {
		lines = append(lines, "- "+alert.String())
	}

	return append(lines,
		"",
		"### 🤖 Instructions for the Agent",
		"Verdict: **[REFACTORING REQUIRED]**",
		"The files above fall below the quality thresholds. Prioritize them and plan the refactoring before continuing.")
}

func (f *MarkdownFormatter) metricsLines(report *Report) []string {
	lines := []string{"", "## Current Metrics (Changed/Target Files)"}

	display := report.Rows
	if report.TargetFiles > f.config.RowCapTrigger {
		lines = append(lines, fmt.Sprintf("(Total %d files. Showing top %d worst MI files)", report.TargetFiles, f.config.MaxRows))
		if len(display) > f.config.MaxRows {
			display = display[:f.config.MaxRows]
		}
	}

	return append(lines, renderTable(display))
}

func renderTable(rows []Row) string {
	tw := table.NewWriter()
	tw.Style().Format.Header = text.FormatDefault
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignLeft},
		{Number: 2, Align: text.AlignLeft},
		{Number: 3, Align: text.AlignLeft},
	})

	tw.AppendHeader(table.Row{"File", "MI (Avg)", "CC (Avg)"})
	for _, row := range rows {
		tw.AppendRow(table.Row{row.File, fmt.Sprintf("%.2f", row.MI), fmt.Sprintf("%.2f", row.AvgCC)})
	}

	return tw.RenderMarkdown()
}

func (f *MarkdownFormatter) diffLines(diff string) []string {
	lines := []string{"", "## Git Diff Summary"}

	runes := []rune(diff)
	if len(runes) <= f.config.MaxDiffChars {
		return append(lines, diff)
	}

	return append(lines,
		string(runes[:f.config.MaxDiffChars]),
		fmt.Sprintf("%s (full diff: %s)", truncatedDiff, humanize.Bytes(uint64(len(diff)))))
}
