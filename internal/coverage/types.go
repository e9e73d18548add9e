package coverage

import (
	"github.com/mvp-joe/interrogate/internal/coverage/extraction"
)

// Tally is the (total, covered, skipped) triple folded across units and files.
type Tally struct {
	Total   int `json:"total"`
	Covered int `json:"covered"`
	Skipped int `json:"skipped"`
}

// Missing is the number of counted units without a docstring.
func (t Tally) Missing() int {
	return t.Total - t.Covered
}

// Combine sums two tallies. It is associative and commutative with the zero Tally as identity.
func (t Tally) Combine(other Tally) Tally {
	return Tally{
		Total:   t.Total + other.Total,
		Covered: t.Covered + other.Covered,
		Skipped: t.Skipped + other.Skipped,
	}
}

// Percent returns covered/total*100, or 100 when nothing is in scope.
func (t Tally) Percent() float64 {
	if t.Total == 0 {
		return 100.0
	}
	return float64(t.Covered) / float64(t.Total) * 100
}

// FileResult is the coverage of one source file.
type FileResult struct {
	Filename string            `json:"filename"`
	Nodes    []extraction.Unit `json:"nodes"` // counted units only, ordered by line
	Tally
}

// FileError records a file that could not be analyzed.
type FileError struct {
	Filename string `json:"filename"`
	Err      error  `json:"-"`
	Message  string `json:"error"`
}

func (e FileError) Error() string {
	return e.Filename + ": " + e.Message
}

func (e FileError) Unwrap() error {
	return e.Err
}

// Results is the coverage of a whole run.
type Results struct {
	Tally
	FileResults []FileResult `json:"file_results"`
	Errors      []FileError  `json:"errors,omitempty"`
}

// Passed reports whether the overall percentage reaches failUnder.
func (r *Results) Passed(failUnder float64) bool {
	return r.Percent() >= failUnder
}
