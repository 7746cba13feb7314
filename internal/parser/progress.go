package parser

import "time"

// Stats summarizes a finished traversal.
type Stats struct {
	Files      int
	Errors     int
	Constructs int
	Duration   time.Duration
}

// ProgressReporter receives traversal progress callbacks. OnFileProcessed is
// called from a single goroutine.
type ProgressReporter interface {
	// OnDiscoveryStart is called when file discovery begins.
	OnDiscoveryStart()

	// OnDiscoveryComplete is called with the number of candidate files.
	OnDiscoveryComplete(files int)

	// OnFileProcessingStart is called before the workers start.
	OnFileProcessingStart(totalFiles int)

	// OnFileProcessed is called once per file; failed is nil on success.
	OnFileProcessed(path string, failed *FileError)

	// OnComplete is called when the traversal finishes.
	OnComplete(stats *Stats)
}

// NoOpProgressReporter is a progress reporter that does nothing.
type NoOpProgressReporter struct{}

func (n *NoOpProgressReporter) OnDiscoveryStart()                        {}
func (n *NoOpProgressReporter) OnDiscoveryComplete(files int)            {}
func (n *NoOpProgressReporter) OnFileProcessingStart(totalFiles int)     {}
func (n *NoOpProgressReporter) OnFileProcessed(path string, _ *FileError) {}
func (n *NoOpProgressReporter) OnComplete(stats *Stats)                  {}
