// Package progress classifies installer and tool output into progress events
// and delivers them to independent observers.
package progress

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/schollz/progressbar/v3"
	"golang.org/x/term"

	"github.com/klauern/modsync/internal/logging"
	"github.com/klauern/modsync/internal/ui"
)

// Bar wraps progressbar with modsync's color and logging settings.
type Bar struct {
	bar     *progressbar.ProgressBar
	enabled bool
	desc    string
}

// Options configures the progress bar behavior.
type Options struct {
	// Max is the maximum value for the progress bar (total steps).
	Max int64
	// Description is the prefix text shown before the progress bar.
	Description string
	// Writer is the output destination. Defaults to os.Stderr.
	Writer io.Writer
	// Force shows the bar even when Writer is not a terminal.
	Force bool
}

// DefaultOptions returns defaults for the overall install bar.
func DefaultOptions() Options {
	return Options{
		Max:         100,
		Description: "Installing",
		Writer:      os.Stderr,
	}
}

// New creates a new progress bar with the given options.
// The bar is only shown if:
//   - Colors are enabled (respects NO_COLOR and --no-color)
//   - Output is a terminal, unless Force is set
//   - Not in debug mode (to avoid interfering with logs)
func New(opts Options) *Bar {
	if opts.Writer == nil {
		opts.Writer = os.Stderr
	}

	b := &Bar{
		enabled: opts.Force || shouldShowProgress(opts.Writer),
		desc:    opts.Description,
	}

	if !b.enabled {
		logging.Debug(fmt.Sprintf("%s started", opts.Description),
			logging.Count(int(opts.Max)))
		return b
	}

	b.bar = progressbar.NewOptions64(
		opts.Max,
		progressbar.OptionSetDescription(opts.Description),
		progressbar.OptionSetWriter(opts.Writer),
		progressbar.OptionSetWidth(20),
		progressbar.OptionThrottle(65*time.Millisecond),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionOnCompletion(func() {
			_, _ = fmt.Fprint(opts.Writer, "\n")
		}),
		progressbar.OptionFullWidth(),
		progressbar.OptionSetRenderBlankState(true),
		progressbar.OptionEnableColorCodes(ui.IsColorEnabled()),
	)

	return b
}

// Enabled reports whether the bar renders anything.
func (b *Bar) Enabled() bool {
	return b.enabled
}

// Set sets the progress bar to a specific value.
func (b *Bar) Set(n int) error {
	if !b.enabled {
		return nil
	}
	return b.bar.Set(n)
}

// Describe updates the progress bar description.
func (b *Bar) Describe(desc string) {
	b.desc = desc
	if !b.enabled {
		return
	}
	b.bar.Describe(desc)
}

// Description returns the current description.
func (b *Bar) Description() string {
	return b.desc
}

// Finish completes the progress bar and logs completion.
func (b *Bar) Finish() error {
	if !b.enabled {
		logging.Debug(fmt.Sprintf("%s completed", b.desc))
		return nil
	}
	return b.bar.Finish()
}

// Clear removes the progress bar from the terminal.
func (b *Bar) Clear() error {
	if !b.enabled {
		return nil
	}
	return b.bar.Clear()
}

// shouldShowProgress determines if progress bars should be displayed.
func shouldShowProgress(w io.Writer) bool {
	if !ui.IsColorEnabled() {
		return false
	}

	f, ok := w.(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) { // #nosec G115 - file descriptors fit in int
		return false
	}

	if logging.Default().Enabled(context.Background(), logging.LevelDebug) {
		return false
	}

	return true
}

// Console mirrors a subscription onto a Bar until the subscription closes.
type Console struct {
	Bar *Bar
	// Task is the last overall task description.
	Task string
}

// NewConsole returns a console observer rendering to w.
func NewConsole(w io.Writer, force bool) *Console {
	opts := DefaultOptions()
	opts.Writer = w
	opts.Force = force
	return &Console{Bar: New(opts)}
}

// Run consumes sub until it is closed or ctx is done.
func (c *Console) Run(ctx context.Context, sub *Subscription) error {
	for {
		ev, err := sub.Next(ctx)
		if err != nil {
			if errors.Is(err, ErrClosed) {
				return c.Bar.Finish()
			}
			return err
		}
		c.Handle(ev)
	}
}

// Handle applies one event to the bar.
func (c *Console) Handle(ev Event) {
	switch e := ev.(type) {
	case OverallStatus:
		c.Task = e.Task
		c.Bar.Describe(e.Task)
		_ = c.Bar.Set(e.Percent)
	case DownloadProgress:
		c.Bar.Describe(fmt.Sprintf("%s [%s %d%% %s ETA %s]", c.Task, e.Amount, e.Percent, e.Speed, e.ETA))
	case ArchiveProgress:
		c.Bar.Describe(fmt.Sprintf("%s [%d%% %s]", c.Task, e.Percent, e.File))
	}
}
