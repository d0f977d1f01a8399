// Package report produces run reports (JSON or HTML) describing one comparison.
package report

import (
	"bytes"
	"encoding/json"
	"fmt"
	"html/template"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/TFMV/keydiff/pkg/core"
	"github.com/TFMV/keydiff/pkg/writers"
)

// -----------------------------
// Report Model
// -----------------------------

// Input describes one compared file.
type Input struct {
	Path     string `json:"path"`
	KeyIndex int    `json:"key_index"`
	Rows     int64  `json:"rows"`
}

// RunReport captures the context and outcome of one comparison.
type RunReport struct {
	Orig         Input                   `json:"orig"`
	Diff         Input                   `json:"diff"`
	Prefix       string                  `json:"prefix,omitempty"`
	KeyDelimiter string                  `json:"key_delimiter,omitempty"`
	WithHeaders  bool                    `json:"with_headers"`
	StartTime    time.Time               `json:"start_time"`
	EndTime      time.Time               `json:"end_time"`
	Duration     time.Duration           `json:"duration"`
	Summary      writers.SummaryDocument `json:"summary"`
	Version      string                  `json:"version"`
}

// Identical reports whether the run found no differences.
func (r RunReport) Identical() bool {
	return r.Summary.Added+r.Summary.Removed+r.Summary.Changed == 0
}

// NewRunReport assembles a report from a finished comparison.
func NewRunReport(origPath, diffPath string, options core.Options, withHeaders bool, result *core.Result, start, end time.Time) RunReport {
	run := RunReport{
		Orig:         Input{Path: origPath, KeyIndex: options.OrigIndex, Rows: result.Summary.TotalOrig},
		Diff:         Input{Path: diffPath, KeyIndex: options.DiffKeyIndex(), Rows: result.Summary.TotalDiff},
		KeyDelimiter: options.KeyDelimiter,
		WithHeaders:  withHeaders,
		StartTime:    start.UTC(),
		EndTime:      end.UTC(),
		Duration:     end.Sub(start),
		Summary:      writers.NewSummaryDocument(result),
	}
	if options.Prefix != nil {
		run.Prefix = *options.Prefix
	}
	return run
}

// -----------------------------
// Report Generator Interfaces
// -----------------------------

// ReportGenerator defines the methods for generating reports.
type ReportGenerator interface {
	GenerateReport(run RunReport) ([]byte, error)
	SaveReportToFile(run RunReport, filePath string) error
}

// -----------------------------
// JSON Report Generator
// -----------------------------

// JSONReportGenerator generates JSON reports.
type JSONReportGenerator struct{}

// GenerateReport serializes the RunReport to JSON.
func (j *JSONReportGenerator) GenerateReport(run RunReport) ([]byte, error) {
	return json.MarshalIndent(run, "", "  ")
}

// SaveReportToFile saves the JSON report to a file.
func (j *JSONReportGenerator) SaveReportToFile(run RunReport, filePath string) error {
	data, err := j.GenerateReport(run)
	if err != nil {
		return err
	}
	return os.WriteFile(filePath, data, 0644)
}

// -----------------------------
// HTML Report Generator
// -----------------------------

// HTMLReportGenerator generates HTML reports.
type HTMLReportGenerator struct{}

// HTML template for the report.
const htmlTemplate = `
<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>keydiff Report</title>
    <style>
        body { font-family: Arial, sans-serif; margin: 20px; }
        table { width: 100%; border-collapse: collapse; margin-top: 20px; }
        th, td { border: 1px solid #ddd; padding: 8px; text-align: left; }
        th { background-color: #f4f4f4; }
        .status-pass { color: green; }
        .status-fail { color: red; }
    </style>
</head>
<body>
    <h1>keydiff Report</h1>
    <p><strong>Orig:</strong> {{.Orig.Path}} (key column {{.Orig.KeyIndex}})</p>
    <p><strong>Diff:</strong> {{.Diff.Path}} (key column {{.Diff.KeyIndex}})</p>
    {{if .Prefix}}<p><strong>Prefix:</strong> {{.Prefix}}</p>{{end}}
    <p><strong>Started:</strong> {{.StartTime}}</p>
    <p><strong>Status:</strong> {{if .Identical}}<span class="status-pass">IDENTICAL</span>{{else}}<span class="status-fail">DIFFERENT</span>{{end}}</p>

    <h2>Summary</h2>
    <table>
        <tr>
            <th>Orig rows</th>
            <th>Diff rows</th>
            <th>Added</th>
            <th>Removed</th>
            <th>Changed</th>
            <th>Unchanged</th>
        </tr>
        <tr>
            <td>{{.Summary.TotalOrig}}</td>
            <td>{{.Summary.TotalDiff}}</td>
            <td>{{.Summary.Added}}</td>
            <td>{{.Summary.Removed}}</td>
            <td>{{.Summary.Changed}}</td>
            <td>{{.Summary.Unchanged}}</td>
        </tr>
    </table>

    <h2>Changed Columns</h2>
    <ul>
        {{range $col, $n := .Summary.Columns}}<li>{{$col}}: {{$n}}</li>{{else}}<li>None</li>{{end}}
    </ul>

    <footer>
        <p>Generated by keydiff {{.Version}} on {{.EndTime}} in {{.Duration}}</p>
    </footer>
</body>
</html>
`

var reportTemplate = template.Must(template.New("report").Parse(htmlTemplate))

// GenerateReport renders the run as an HTML page.
func (h *HTMLReportGenerator) GenerateReport(run RunReport) ([]byte, error) {
	var buf bytes.Buffer
	if err := reportTemplate.Execute(&buf, run); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// SaveReportToFile saves the HTML report to a file.
func (h *HTMLReportGenerator) SaveReportToFile(run RunReport, filePath string) error {
	data, err := h.GenerateReport(run)
	if err != nil {
		return err
	}
	return os.WriteFile(filePath, data, 0644)
}

// GeneratorFor picks a generator from the file extension: .html/.htm for HTML,
// anything else for JSON.
func GeneratorFor(filePath string) ReportGenerator {
	switch strings.ToLower(filepath.Ext(filePath)) {
	case ".html", ".htm":
		return &HTMLReportGenerator{}
	default:
		return &JSONReportGenerator{}
	}
}

// SaveReport writes run to filePath in the format implied by its extension.
func SaveReport(run RunReport, filePath string) error {
	if err := GeneratorFor(filePath).SaveReportToFile(run, filePath); err != nil {
		return fmt.Errorf("failed to save report: %w", err)
	}
	return nil
}

// ReportFromFilePath loads a JSON report from a file.
func ReportFromFilePath(filePath string) (RunReport, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return RunReport{}, err
	}
	var run RunReport
	if err := json.Unmarshal(data, &run); err != nil {
		return RunReport{}, err
	}
	return run, nil
}
