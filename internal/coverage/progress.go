package coverage

// ProgressReporter provides callbacks for reporting run progress.
// Implementations can display progress bars, log messages, or remain silent.
type ProgressReporter interface {
	// OnFileProcessingStart is called before any file is analyzed.
	OnFileProcessingStart(totalFiles int)

	// OnFileProcessed is called after each file is analyzed, successfully or not.
	OnFileProcessed(fileName string)

	// OnComplete is called once every file has been analyzed.
	OnComplete(results *Results)
}

// NoOpProgressReporter is a progress reporter that does nothing.
// Used when progress reporting is disabled (e.g., --quiet flag).
type NoOpProgressReporter struct{}

func (n *NoOpProgressReporter) OnFileProcessingStart(totalFiles int) {}
func (n *NoOpProgressReporter) OnFileProcessed(fileName string)      {}
func (n *NoOpProgressReporter) OnComplete(results *Results)          {}
