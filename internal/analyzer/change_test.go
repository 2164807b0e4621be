package analyzer

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qualitygate/quality-gate/internal/config"
	"github.com/qualitygate/quality-gate/internal/history"
	"github.com/qualitygate/quality-gate/internal/metrics"
	"github.com/qualitygate/quality-gate/internal/report"
)

func defaultThresholds() *config.ThresholdConfig {
	cfg := config.DefaultConfig().Thresholds
	return &cfg
}

func setWithMI(values map[string]float64) metrics.Set {
	set := metrics.NewSet()
	for file, mi := range values {
		set.MI[file] = metrics.Maintainability{MI: mi}
	}
	return set
}

func snapshotWithMI(values map[string]float64) *history.Snapshot {
	return &history.Snapshot{Timestamp: "20260101_000000", Commit: "abc1234", Metrics: setWithMI(values)}
}

func bySeverity(alerts []report.Alert, severity report.Severity) []report.Alert {
	var out []report.Alert
	for _, a := range alerts {
		if a.Severity == severity {
			out = append(out, a)
		}
	}
	return out
}

func TestChangeAnalyzer_LowMaintainability(t *testing.T) {
	analyzer := NewChangeAnalyzer(defaultThresholds())

	tests := []struct {
		name     string
		mi       float64
		previous *history.Snapshot
		want     int
	}{
		{name: "below threshold without history", mi: 64.99, previous: nil, want: 1},
		{name: "below threshold with history", mi: 40, previous: snapshotWithMI(map[string]float64{"a.py": 41}), want: 1},
		{name: "exactly at threshold", mi: 65.0, previous: nil, want: 0},
		{name: "healthy", mi: 90, previous: nil, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			alerts := analyzer.Analyze([]string{"a.py"}, setWithMI(map[string]float64{"a.py": tt.mi}), tt.previous)
			warnings := bySeverity(alerts, report.SeverityWarning)
			require.Len(t, warnings, tt.want)
			if tt.want == 1 {
				assert.Equal(t, "a.py", warnings[0].File)
				assert.Equal(t, "mi-low", warnings[0].Rule)
				assert.Contains(t, warnings[0].String(), fmt.Sprintf("MI is LOW (%.2f < 65.0)", tt.mi))
			}
		})
	}
}

func TestChangeAnalyzer_MaintainabilityDrop(t *testing.T) {
	analyzer := NewChangeAnalyzer(defaultThresholds())

	tests := []struct {
		name      string
		previous  float64
		current   float64
		wantAlert bool
		wantDiff  string
	}{
		{name: "drop of exactly 15", previous: 95, current: 80, wantAlert: true, wantDiff: "Diff: -15.00"},
		{name: "drop of 30", previous: 100, current: 70, wantAlert: true, wantDiff: "Diff: -30.00"},
		{name: "fractional drop", previous: 90.456, current: 70.123, wantAlert: true, wantDiff: "Diff: -20.33"},
		{name: "drop under threshold", previous: 94.99, current: 80, wantAlert: false},
		{name: "improvement", previous: 70, current: 95, wantAlert: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			alerts := analyzer.Analyze(
				[]string{"a.py"},
				setWithMI(map[string]float64{"a.py": tt.current}),
				snapshotWithMI(map[string]float64{"a.py": tt.previous}),
			)

			critical := bySeverity(alerts, report.SeverityCritical)
			if !tt.wantAlert {
				assert.Empty(t, critical)
				return
			}

			require.Len(t, critical, 1)
			assert.Equal(t, "mi-drop", critical[0].Rule)
			assert.Contains(t, critical[0].Message, tt.wantDiff)
			assert.Contains(t, critical[0].Message, fmt.Sprintf("(%.2f -> %.2f", tt.previous, tt.current))
		})
	}
}

func TestChangeAnalyzer_DropNeedsBothValues(t *testing.T) {
	analyzer := NewChangeAnalyzer(defaultThresholds())

	// File unknown to history
	alerts := analyzer.Analyze([]string{"new.py"},
		setWithMI(map[string]float64{"new.py": 70}),
		snapshotWithMI(map[string]float64{"old.py": 99}))
	assert.Empty(t, alerts)

	// File not measured now
	alerts = analyzer.Analyze([]string{"gone.py"},
		metrics.NewSet(),
		snapshotWithMI(map[string]float64{"gone.py": 99}))
	assert.Empty(t, alerts)
}

func TestChangeAnalyzer_FunctionComplexity(t *testing.T) {
	analyzer := NewChangeAnalyzer(defaultThresholds())

	set := setWithMI(map[string]float64{"a.py": 90})
	set.CC["a.py"] = []metrics.FunctionComplexity{
		{Name: "boundary", Complexity: 15},
		{Name: "tangled", Complexity: 16},
		{Name: "simple", Complexity: 2},
		{Complexity: 40},
	}

	alerts := analyzer.Analyze([]string{"a.py"}, set, nil)
	require.Len(t, alerts, 2)

	assert.Equal(t, "[WARNING] a.py::tangled: CC is HIGH (16 > 15). Split this function.", alerts[0].String())
	assert.Equal(t, "tangled", alerts[0].Function)
	assert.Equal(t, "cc-high", alerts[0].Rule)
	assert.Equal(t, "unknown", alerts[1].Function)
}

func TestChangeAnalyzer_CustomThresholds(t *testing.T) {
	analyzer := NewChangeAnalyzer(&config.ThresholdConfig{MILow: 80, MIDrop: 5, CCPerFunction: 3})

	set := setWithMI(map[string]float64{"a.py": 75})
	set.CC["a.py"] = []metrics.FunctionComplexity{{Name: "f", Complexity: 4}}

	alerts := analyzer.Analyze([]string{"a.py"}, set, snapshotWithMI(map[string]float64{"a.py": 81}))
	require.Len(t, alerts, 3)
	assert.Equal(t, "mi-low", alerts[0].Rule)
	assert.Equal(t, "mi-drop", alerts[1].Rule)
	assert.Equal(t, "cc-high", alerts[2].Rule)
}

func TestChangeAnalyzer_EndToEndScenario(t *testing.T) {
	analyzer := NewChangeAnalyzer(defaultThresholds())

	current := setWithMI(map[string]float64{"a.py": 70, "b.py": 50})
	previous := snapshotWithMI(map[string]float64{"b.py": 80})

	alerts := analyzer.Analyze([]string{"a.py", "b.py"}, current, previous)
	require.Len(t, alerts, 2)

	assert.Equal(t, report.SeverityWarning, alerts[0].Severity)
	assert.Equal(t, "b.py", alerts[0].File)
	assert.Equal(t, report.SeverityCritical, alerts[1].Severity)
	assert.Equal(t, "b.py", alerts[1].File)
	assert.Contains(t, alerts[1].Message, "Diff: -30.00")
}

func TestChangeAnalyzer_PreservesFileOrder(t *testing.T) {
	analyzer := NewChangeAnalyzer(defaultThresholds())

	current := setWithMI(map[string]float64{"z.py": 10, "a.py": 20})
	alerts := analyzer.Analyze([]string{"z.py", "a.py"}, current, nil)

	require.Len(t, alerts, 2)
	assert.Equal(t, "z.py", alerts[0].File)
	assert.Equal(t, "a.py", alerts[1].File)
}
