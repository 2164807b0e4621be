package analyzer

import (
	"fmt"

	"github.com/qualitygate/quality-gate/internal/config"
	"github.com/qualitygate/quality-gate/internal/history"
	"github.com/qualitygate/quality-gate/internal/metrics"
	"github.com/qualitygate/quality-gate/internal/report"
)

const unknownFunction = "unknown"

// ChangeAnalyzer checks current metrics against fixed thresholds and the
// latest snapshot.
type ChangeAnalyzer struct {
	config *config.ThresholdConfig
}

func NewChangeAnalyzer(cfg *config.ThresholdConfig) *ChangeAnalyzer {
	return &ChangeAnalyzer{config: cfg}
}

// Analyze returns alerts in file order, then function order within a file.
// previous may be nil when there is no history.
func (a *ChangeAnalyzer) Analyze(files []string, current metrics.Set, previous *history.Snapshot) []report.Alert {
	var alerts []report.Alert

	for _, file := range files {
		if mi, ok := current.Maintainability(file); ok {
			if alert := a.checkLowMaintainability(file, mi); alert != nil {
				alerts = append(alerts, *alert)
			}

			if prev, ok := previous.PreviousMaintainability(file); ok {
				if alert := a.checkMaintainabilityDrop(file, prev, mi); alert != nil {
					alerts = append(alerts, *alert)
				}
			}
		}

		alerts = append(alerts, a.checkFunctionComplexity(file, current.CC[file])...)
	}

	return alerts
}

func (a *ChangeAnalyzer) checkLowMaintainability(file string, mi float64) *report.Alert {
	if mi >= a.config.MILow {
		return nil
	}

	return &report.Alert{
		Severity: report.SeverityWarning,
		File:     file,
		Rule:     "mi-low",
		Message:  fmt.Sprintf("MI is LOW (%.2f < %.1f). Refactoring recommended.", mi, a.config.MILow),
	}
}

func (a *ChangeAnalyzer) checkMaintainabilityDrop(file string, previous, current float64) *report.Alert {
	delta := current - previous
	if delta > -a.config.MIDrop {
		return nil
	}

	return &report.Alert{
		Severity: report.SeverityCritical,
		File:     file,
		Rule:     "mi-drop",
		Message: fmt.Sprintf("MI DROPPED significantly (%.2f -> %.2f, Diff: %.2f). IMMEDIATE REFACTORING REQUIRED.",
			previous, current, delta),
	}
}

func (a *ChangeAnalyzer) checkFunctionComplexity(file string, blocks []metrics.FunctionComplexity) []report.Alert {
	var alerts []report.Alert

	for _, block := range blocks {
		if block.Complexity <= a.config.CCPerFunction {
			continue
		}

		name := block.Name
		if name == "" {
			name = unknownFunction
		}

		alerts = append(alerts, report.Alert{
			Severity: report.SeverityWarning,
			File:     file,
			Function: name,
			Rule:     "cc-high",
			Message:  fmt.Sprintf("CC is HIGH (%d > %d). Split this function.", block.Complexity, a.config.CCPerFunction),
		})
	}

	return alerts
}
