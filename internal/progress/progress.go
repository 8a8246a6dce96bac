// Package progress renders a spinner on the terminal while a phase runs.
package progress

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/schollz/progressbar/v3"
)

// Bar wraps a progressbar spinner; a disabled Bar ignores every call
type Bar struct {
	bar     *progressbar.ProgressBar
	enabled bool
	desc    string
}

// Options configures the spinner.
type Options struct {
	// Description is the prefix text shown before the spinner.
	Description string
	// Writer is the output destination. Defaults to os.Stderr.
	Writer io.Writer
	// Disabled suppresses rendering entirely.
	Disabled bool
	// Force renders even when Writer is not a terminal.
	Force bool
}

// New creates a spinner counting processed entries. It is only shown when
// the writer is a terminal, unless Force is set.
func New(opts Options) *Bar {
	if opts.Writer == nil {
		opts.Writer = os.Stderr
	}

	b := &Bar{
		enabled: !opts.Disabled && (opts.Force || isTerminal(opts.Writer)),
		desc:    opts.Description,
	}
	if !b.enabled {
		return b
	}

	b.bar = progressbar.NewOptions64(
		-1,
		progressbar.OptionSetDescription(opts.Description),
		progressbar.OptionSetWriter(opts.Writer),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetItsString("obj"),
		progressbar.OptionSetWidth(15),
		progressbar.OptionThrottle(65*time.Millisecond),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionOnCompletion(func() {
			fmt.Fprint(opts.Writer, "\n")
		}),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionSetRenderBlankState(true),
	)
	return b
}

// Factory returns a constructor for per-phase spinners sharing w
func Factory(enabled bool, w io.Writer) func(description string) *Bar {
	return func(description string) *Bar {
		return New(Options{Description: description, Writer: w, Disabled: !enabled})
	}
}

// Add increments the counter by n entries.
func (b *Bar) Add(n int) error {
	if !b.enabled {
		return nil
	}
	return b.bar.Add(n)
}

// Finish completes the spinner.
func (b *Bar) Finish() error {
	if !b.enabled {
		return nil
	}
	return b.bar.Finish()
}

// Enabled reports whether the spinner renders
func (b *Bar) Enabled() bool {
	return b.enabled
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	stat, err := f.Stat()
	if err != nil {
		return false
	}
	return stat.Mode()&os.ModeCharDevice != 0
}
