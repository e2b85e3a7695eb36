package ingest

import (
	"fmt"
	"io"
	"os"

	"github.com/schollz/progressbar/v3"
)

// ProgressOutput is where read progress is drawn. Tests and quiet runs set it to io.Discard.
var ProgressOutput io.Writer = os.Stderr

// ProgressFile is an open dataset whose reads advance a byte progress bar.
type ProgressFile struct {
	io.Reader
	file *os.File
	bar  *progressbar.ProgressBar
}

// OpenWithProgress opens path for reading and reports progress under description.
func OpenWithProgress(path, description string) (*ProgressFile, error) {
	file, err := os.Open(path) //nolint:gosec // dataset path comes from the user
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}

	info, err := file.Stat()
	if err != nil {
		_ = file.Close()
		return nil, fmt.Errorf("failed to stat %s: %w", path, err)
	}

	bar := progressbar.NewOptions64(
		info.Size(),
		progressbar.OptionSetWriter(ProgressOutput),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionShowBytes(true),
		progressbar.OptionSetWidth(40),
		progressbar.OptionSetDescription(fmt.Sprintf("[cyan][bold]%s[reset]", description)),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]=[reset]",
			SaucerHead:    "[green]>[reset]",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
		progressbar.OptionOnCompletion(func() {
			_, _ = fmt.Fprintln(ProgressOutput)
		}),
	)

	return &ProgressFile{
		Reader: io.TeeReader(file, bar),
		file:   file,
		bar:    bar,
	}, nil
}

// Close completes the bar and closes the file.
func (p *ProgressFile) Close() error {
	_ = p.bar.Finish()
	return p.file.Close()
}
