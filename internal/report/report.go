// Package report renders coverage results as text tables or JSON.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/olekukonko/tablewriter"

	"github.com/mvp-joe/interrogate/internal/coverage"
	"github.com/mvp-joe/interrogate/internal/coverage/extraction"
)

// DefaultWidth is used when the terminal width is unknown.
const DefaultWidth = 80

// Options controls what a Reporter prints.
type Options struct {
	Verbosity        int     // 0 status line, 1 summary, 2 detailed
	FailUnder        float64 // minimum passing percentage
	OmitCoveredFiles bool    // hide files at 100%
	Color            bool    // colorize the status line
	Width            int     // separator width
}

// Reporter renders Results.
type Reporter struct {
	opts Options
}

// New creates a Reporter.
func New(opts Options) *Reporter {
	if opts.Width <= 0 {
		opts.Width = DefaultWidth
	}
	return &Reporter{opts: opts}
}

// WriteText prints the header, tables, errors and status line for results.
func (r *Reporter) WriteText(w io.Writer, results *coverage.Results) error {
	p := &printer{w: w}
	base := commonBase(results)

	if r.opts.Verbosity > 0 {
		p.sep('=', "Coverage for "+headerBase(base), r.opts.Width)
	}
	if r.opts.Verbosity > 1 {
		r.writeDetailed(p, results, base)
	}
	if r.opts.Verbosity > 0 {
		p.sep('-', "Summary", r.opts.Width)
		r.writeSummary(p, results, base)
		r.writeOmitted(p, results)
	}

	for _, e := range results.Errors {
		p.printf("E: %s: %s\n", e.Filename, e.Message)
	}
	if results.Total == 0 {
		p.printf("No documentable units in scope; coverage is 100%% by definition.\n")
	}

	status := StatusLine(results, r.opts.FailUnder)
	if r.opts.Color {
		status = statusStyle(w, results.Passed(r.opts.FailUnder)).Render(status)
	}
	if r.opts.Verbosity > 0 {
		p.sep('-', status, r.opts.Width)
	} else {
		p.printf("%s\n", status)
	}
	return p.err
}

// StatusLine returns "RESULT: PASSED|FAILED (minimum: X%, actual: Y%)".
func StatusLine(results *coverage.Results, failUnder float64) string {
	status := "PASSED"
	if !results.Passed(failUnder) {
		status = "FAILED"
	}
	return fmt.Sprintf("RESULT: %s (minimum: %s%%, actual: %.1f%%)", status, formatMinimum(failUnder), results.Percent())
}

func (r *Reporter) writeDetailed(p *printer, results *coverage.Results, base string) {
	var rows [][]string
	for _, f := range listed(results) {
		if r.omit(f) {
			continue
		}
		if len(rows) > 0 {
			rows = append(rows, []string{"", ""})
		}
		name := displayName(base, f.Filename)
		if len(f.Nodes) == 0 || f.Nodes[0].Kind != extraction.KindModule {
			rows = append(rows, []string{name, ""})
		}
		for _, n := range f.Nodes {
			rows = append(rows, detailedRow(n, name))
		}
	}

	// Nothing to show when every file was omitted.
	if len(rows) == 0 {
		return
	}

	p.sep('-', "Detailed Coverage", r.opts.Width)
	table := newTable(p, []string{"Name", "Status"})
	table.SetColumnAlignment([]int{tablewriter.ALIGN_LEFT, tablewriter.ALIGN_RIGHT})
	table.AppendBulk(rows)
	table.Render()
	p.printf("\n")
}

func detailedRow(n extraction.Unit, filename string) []string {
	name := fmt.Sprintf("%s (L%d)", n.QualName, n.Line)
	if n.Kind == extraction.KindModule {
		name = filename + " (module)"
	}
	status := "MISSED"
	if n.Covered {
		status = "COVERED"
	}
	return []string{strings.Repeat("  ", n.Level) + name, status}
}

func (r *Reporter) writeSummary(p *printer, results *coverage.Results, base string) {
	table := newTable(p, []string{"Name", "Total", "Miss", "Cover", "Cover%"})
	table.SetColumnAlignment([]int{
		tablewriter.ALIGN_LEFT,
		tablewriter.ALIGN_RIGHT,
		tablewriter.ALIGN_RIGHT,
		tablewriter.ALIGN_RIGHT,
		tablewriter.ALIGN_RIGHT,
	})

	for _, f := range listed(results) {
		if r.omit(f) {
			continue
		}
		table.Append([]string{
			displayName(base, f.Filename),
			strconv.Itoa(f.Total),
			strconv.Itoa(f.Missing()),
			strconv.Itoa(f.Covered),
			fmt.Sprintf("%.0f%%", f.Percent()),
		})
	}

	table.SetFooter([]string{
		"TOTAL",
		strconv.Itoa(results.Total),
		strconv.Itoa(results.Missing()),
		strconv.Itoa(results.Covered),
		fmt.Sprintf("%.1f%%", results.Percent()),
	})
	table.Render()
}

func (r *Reporter) writeOmitted(p *printer, results *coverage.Results) {
	if !r.opts.OmitCoveredFiles {
		return
	}

	files := listed(results)
	omitted := 0
	for _, f := range files {
		if f.Percent() == 100 {
			omitted++
		}
	}
	if omitted == 0 {
		return
	}

	noun := "files"
	if len(files) == 1 {
		noun = "file"
	}
	p.printf("(%d of %d %s omitted due to complete coverage)\n", omitted, len(files), noun)
}

// listed returns the files that get a row in the text tables. A file whose
// units were all filtered out has nothing to report and is left out.
func listed(results *coverage.Results) []coverage.FileResult {
	files := make([]coverage.FileResult, 0, len(results.FileResults))
	for _, f := range results.FileResults {
		if f.Total > 0 {
			files = append(files, f)
		}
	}
	return files
}

func (r *Reporter) omit(f coverage.FileResult) bool {
	return r.opts.OmitCoveredFiles && f.Percent() == 100
}

func newTable(w io.Writer, header []string) *tablewriter.Table {
	table := tablewriter.NewWriter(w)
	table.SetHeader(header)
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	table.SetBorder(false)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	return table
}

func statusStyle(w io.Writer, passed bool) lipgloss.Style {
	color := lipgloss.Color("1")
	if passed {
		color = lipgloss.Color("2")
	}
	return lipgloss.NewRenderer(w).NewStyle().Foreground(color).Bold(true)
}

// JSONReport is the machine-readable form of Results.
type JSONReport struct {
	Total       int              `json:"total"`
	Covered     int              `json:"covered"`
	Missing     int              `json:"missing"`
	Skipped     int              `json:"skipped"`
	Percent     float64          `json:"percent"`
	FailUnder   float64          `json:"fail_under"`
	Passed      bool             `json:"passed"`
	FileResults []JSONFileResult `json:"file_results"`
	Errors      []JSONFileError  `json:"errors,omitempty"`
}

// JSONFileResult is one file of a JSONReport.
type JSONFileResult struct {
	Filename string            `json:"filename"`
	Total    int               `json:"total"`
	Covered  int               `json:"covered"`
	Missing  int               `json:"missing"`
	Skipped  int               `json:"skipped"`
	Percent  float64           `json:"percent"`
	Nodes    []extraction.Unit `json:"nodes,omitempty"` // detailed mode only
}

// JSONFileError is a file that could not be analyzed.
type JSONFileError struct {
	Filename string `json:"filename"`
	Error    string `json:"error"`
}

// NewJSONReport converts results. Per-unit nodes are included only when detailed is set.
func NewJSONReport(results *coverage.Results, failUnder float64, detailed bool) *JSONReport {
	report := &JSONReport{
		Total:       results.Total,
		Covered:     results.Covered,
		Missing:     results.Missing(),
		Skipped:     results.Skipped,
		Percent:     results.Percent(),
		FailUnder:   failUnder,
		Passed:      results.Passed(failUnder),
		FileResults: make([]JSONFileResult, 0, len(results.FileResults)),
	}

	for _, f := range results.FileResults {
		fr := JSONFileResult{
			Filename: f.Filename,
			Total:    f.Total,
			Covered:  f.Covered,
			Missing:  f.Missing(),
			Skipped:  f.Skipped,
			Percent:  f.Percent(),
		}
		if detailed {
			fr.Nodes = f.Nodes
		}
		report.FileResults = append(report.FileResults, fr)
	}

	for _, e := range results.Errors {
		report.Errors = append(report.Errors, JSONFileError{Filename: e.Filename, Error: e.Message})
	}
	return report
}

// WriteJSON writes results as indented JSON. Nodes are included at verbosity 2.
func (r *Reporter) WriteJSON(w io.Writer, results *coverage.Results) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(NewJSONReport(results, r.opts.FailUnder, r.opts.Verbosity > 1))
}

func commonBase(results *coverage.Results) string {
	files := make([]string, 0, len(results.FileResults))
	for _, f := range results.FileResults {
		files = append(files, f.Filename)
	}
	return coverage.CommonBase(files)
}

// displayName returns filename relative to base.
func displayName(base, filename string) string {
	if base == "" {
		return filename
	}
	rel, err := filepath.Rel(base, filename)
	if err != nil {
		return filename
	}
	return rel
}

func headerBase(base string) string {
	if base == "" {
		return "."
	}
	return strings.TrimSuffix(base, string(filepath.Separator)) + string(filepath.Separator)
}

// formatMinimum prints whole numbers with one decimal ("80.0") and keeps other precision.
func formatMinimum(f float64) string {
	s := strconv.FormatFloat(f, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}

// printer writes to w and remembers the first error.
type printer struct {
	w   io.Writer
	err error
}

func (p *printer) Write(b []byte) (int, error) {
	if p.err != nil {
		return 0, p.err
	}
	n, err := p.w.Write(b)
	p.err = err
	return n, err
}

func (p *printer) printf(format string, args ...any) {
	fmt.Fprintf(p, format, args...)
}

// sep prints title centered in a line of ch, width runes wide.
func (p *printer) sep(ch rune, title string, width int) {
	title = " " + title + " "
	fill := width - lipgloss.Width(title)
	if fill < 2 {
		p.printf("%s\n", strings.TrimSpace(title))
		return
	}
	left := fill / 2
	right := fill - left
	p.printf("%s%s%s\n", strings.Repeat(string(ch), left), title, strings.Repeat(string(ch), right))
}
