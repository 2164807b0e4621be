package report

import (
	"fmt"
	"time"
)

type Severity string

const (
	SeverityWarning  Severity = "WARNING"
	SeverityCritical Severity = "CRITICAL"
)

type Alert struct {
	Severity Severity
	File     string
	Function string
	Rule     string
	Message  string
}

// Subject is the file, or file::function for function-level alerts.
func (a Alert) Subject() string {
	if a.Function == "" {
		return a.File
	}
	return fmt.Sprintf("%s::%s", a.File, a.Function)
}

func (a Alert) String() string {
	return fmt.Sprintf("[%s] %s: %s", a.Severity, a.Subject(), a.Message)
}

// Row is one line of the metrics table.
type Row struct {
	File  string
	MI    float64
	AvgCC float64
}

// Report is one gate run, rendered by a Formatter and saved by a Writer.
type Report struct {
	Audit       bool
	TargetFiles int
	Alerts      []Alert
	Rows        []Row
	Diff        string
	Timestamp   time.Time
}
