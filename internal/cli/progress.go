package cli

import (
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/schollz/progressbar/v3"

	"github.com/mvp-joe/treeparser/internal/parser"
)

// CLIProgressReporter renders traversal progress as a progress bar.
type CLIProgressReporter struct {
	out     io.Writer
	fileBar *progressbar.ProgressBar
}

// NewCLIProgressReporter creates a reporter that draws on out.
func NewCLIProgressReporter(out io.Writer) *CLIProgressReporter {
	return &CLIProgressReporter{out: out}
}

func (c *CLIProgressReporter) OnDiscoveryStart() {
	slog.Info("discovering files")
}

func (c *CLIProgressReporter) OnDiscoveryComplete(files int) {
	slog.Info("discovery complete", "files", files)
}

func (c *CLIProgressReporter) OnFileProcessingStart(totalFiles int) {
	c.fileBar = progressbar.NewOptions(totalFiles,
		progressbar.OptionSetWriter(c.out),
		progressbar.OptionSetDescription("Parsing files"),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetItsString("files/s"),
		progressbar.OptionThrottle(65*time.Millisecond),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionOnCompletion(func() {
			fmt.Fprintln(c.out)
		}),
	)
}

func (c *CLIProgressReporter) OnFileProcessed(path string, failed *parser.FileError) {
	if failed != nil {
		slog.Debug("file skipped", "path", path, "kind", failed.Kind, "error", failed.Message)
	}
	if c.fileBar != nil {
		_ = c.fileBar.Add(1)
	}
}

func (c *CLIProgressReporter) OnComplete(stats *parser.Stats) {
	if c.fileBar != nil {
		_ = c.fileBar.Finish()
		c.fileBar = nil
	}
	fmt.Fprintf(c.out, "✓ Parsed %s files (%s constructs, %s errors) in %s\n",
		formatNumber(stats.Files),
		formatNumber(stats.Constructs),
		formatNumber(stats.Errors),
		FormatDuration(stats.Duration))
}
