package cli

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/mvp-joe/interrogate/internal/coverage"
	"github.com/schollz/progressbar/v3"
)

// CLIProgressReporter draws a per-file progress bar. Files are analyzed
// concurrently, so every callback is serialized.
type CLIProgressReporter struct {
	mu      sync.Mutex
	w       io.Writer
	fileBar *progressbar.ProgressBar
}

// NewCLIProgressReporter creates a progress reporter writing to w.
func NewCLIProgressReporter(w io.Writer) *CLIProgressReporter {
	return &CLIProgressReporter{w: w}
}

func (c *CLIProgressReporter) OnFileProcessingStart(totalFiles int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.fileBar = progressbar.NewOptions(totalFiles,
		progressbar.OptionSetWriter(c.w),
		progressbar.OptionSetDescription("Interrogating files"),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetItsString("files/s"),
		progressbar.OptionThrottle(65*time.Millisecond),
		progressbar.OptionClearOnFinish(),
	)
}

func (c *CLIProgressReporter) OnFileProcessed(fileName string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.fileBar != nil {
		_ = c.fileBar.Add(1)
	}
}

func (c *CLIProgressReporter) OnComplete(results *coverage.Results) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.fileBar != nil {
		_ = c.fileBar.Finish()
		c.fileBar = nil
	}
	if len(results.Errors) > 0 {
		fmt.Fprintf(c.w, "%d of %d files could not be analyzed\n",
			len(results.Errors), len(results.Errors)+len(results.FileResults))
	}
}
