// Package transfer downloads and extracts an install plan with external
// tools, reporting progress through the status protocol.
package transfer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/klauern/modsync/internal/logging"
	"github.com/klauern/modsync/internal/plan"
	"github.com/klauern/modsync/internal/progress"
)

// Phase names a stage of Execute.
type Phase string

const (
	PhaseProbe    Phase = "probe"
	PhaseDownload Phase = "download"
	PhaseExtract  Phase = "extract"
)

// Overall status percentages at which each phase starts.
const (
	pctProbe    = 1
	pctDownload = 5
	pctExtract  = 50
	pctDone     = 100
)

// PhaseError reports a failed transfer phase. Temp directories are left in
// place when it is returned.
type PhaseError struct {
	Phase Phase
	// File is the item being processed, if any.
	File string
	Err  error
}

func (e *PhaseError) Error() string {
	if e.File != "" {
		return fmt.Sprintf("%s failed for %s: %v", e.Phase, e.File, e.Err)
	}
	return fmt.Sprintf("%s failed: %v", e.Phase, e.Err)
}

func (e *PhaseError) Unwrap() error {
	return e.Err
}

// Result summarizes a successful Execute.
type Result struct {
	Items      Items
	TotalBytes int64
	SizesKnown bool
	// TempDir is empty when the download directory was removed.
	TempDir string
}

// Orchestrator runs the download phase and then the extraction phase.
type Orchestrator struct {
	Downloader Downloader
	Extractor  Extractor
	Runner     Runner
	Translator *progress.Translator
	Prober     *SizeProber
	// TempDir receives downloads for this attempt.
	TempDir    string
	InstallDir string
	// KeepDownloads preserves TempDir after success.
	KeepDownloads bool
	Logger        *slog.Logger
}

// Execute downloads every entry of p in one downloader run, then extracts
// or copies each item in plan order. Cancellation is honored between
// archives, never during one.
func (o *Orchestrator) Execute(ctx context.Context, p plan.Plan) (*Result, error) {
	logger := o.Logger
	if logger == nil {
		logger = logging.Default()
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if p.Len() == 0 {
		o.status(pctDone, "Nothing to install")
		return &Result{SizesKnown: true}, nil
	}

	o.status(pctProbe, "Querying URLs to be downloaded")
	items, err := o.Prober.Probe(ctx, p.Entries)
	if err != nil {
		return nil, &PhaseError{Phase: PhaseProbe, Err: err}
	}
	total, known := items.TotalSize()
	result := &Result{Items: items, TotalBytes: total, SizesKnown: known, TempDir: o.TempDir}

	if err := o.download(ctx, p, total, known, logger); err != nil {
		return result, err
	}
	if err := o.extract(ctx, items, logger); err != nil {
		return result, err
	}

	if !o.KeepDownloads {
		if err := os.RemoveAll(o.TempDir); err != nil {
			logger.Warn("failed to remove download directory", logging.Path(o.TempDir), logging.Err(err))
		} else {
			result.TempDir = ""
		}
	}
	o.status(pctDone, "Finished")
	return result, nil
}

func (o *Orchestrator) download(ctx context.Context, p plan.Plan, total int64, known bool, logger *slog.Logger) error {
	if err := ctx.Err(); err != nil {
		return &PhaseError{Phase: PhaseDownload, Err: err}
	}
	if err := os.MkdirAll(o.TempDir, 0o750); err != nil {
		return &PhaseError{Phase: PhaseDownload, Err: err}
	}

	inputFile := filepath.Join(o.TempDir, ".download-list.txt")
	content := strings.Join(p.URLs(), "\n") + "\n"
	// #nosec G306 - list of public URLs
	if err := os.WriteFile(inputFile, []byte(content), 0o644); err != nil {
		return &PhaseError{Phase: PhaseDownload, Err: err}
	}

	size := "unknown size"
	if known {
		size = humanize.Bytes(uint64(total)) // #nosec G115 - total is a sum of non-negative sizes
	}
	o.status(pctDownload, fmt.Sprintf("Downloading %d files (%s) to %s", p.Len(), size, o.TempDir))

	done := logging.Timer("download")
	defer done()
	out := o.writer("aria2c")
	defer func() { _ = out.Close() }()

	cmd := Command{Path: o.Downloader.Path, Args: o.Downloader.Args(o.TempDir, inputFile), Stdout: out, Stderr: out}
	logger.Info("starting download", logging.Phase(string(PhaseDownload)), logging.Count(p.Len()))
	if err := o.Runner.Run(ctx, cmd); err != nil {
		return &PhaseError{Phase: PhaseDownload, Err: err}
	}
	return nil
}

func (o *Orchestrator) extract(ctx context.Context, items Items, logger *slog.Logger) error {
	total, known := items.TotalSize()
	var doneBytes int64

	for i, item := range items {
		if err := ctx.Err(); err != nil {
			return &PhaseError{Phase: PhaseExtract, File: item.Filename, Err: err}
		}

		var frac float64
		if known && total > 0 {
			frac = float64(doneBytes) / float64(total)
		} else {
			frac = float64(i) / float64(len(items))
		}
		pct := pctExtract + int(frac*float64(pctDone-pctExtract))
		verb := "Extracting"
		if !IsArchive(item.Filename) {
			verb = "Copying"
		}
		o.status(pct, fmt.Sprintf("%s %s (%d/%d)", verb, item.Filename, i+1, len(items)))

		src := filepath.Join(o.TempDir, filepath.FromSlash(item.Filename))
		dest := filepath.Join(o.InstallDir, filepath.FromSlash(item.Entry.ExtractionDir))
		logger.Debug("extracting", logging.ID(item.Entry.ID), logging.File(item.Filename), logging.Path(dest))

		if err := o.extractOne(ctx, src, dest); err != nil {
			return &PhaseError{Phase: PhaseExtract, File: item.Filename, Err: err}
		}
		if item.Size > 0 {
			doneBytes += item.Size
		}
	}
	return nil
}

func (o *Orchestrator) extractOne(ctx context.Context, src, dest string) error {
	if err := os.MkdirAll(dest, 0o750); err != nil {
		return err
	}
	if !IsArchive(src) {
		return copyFile(src, filepath.Join(dest, filepath.Base(src)))
	}

	out := o.writer("7z")
	defer func() { _ = out.Close() }()
	cmd := Command{Path: o.Extractor.Path, Args: o.Extractor.Args(src, dest), Stdout: out, Stderr: out}
	// Extraction must run to completion once started.
	return o.Runner.Run(context.WithoutCancel(ctx), cmd)
}

func (o *Orchestrator) status(pct int, task string) {
	if o.Translator != nil {
		o.Translator.Status(pct, task)
	}
}

func (o *Orchestrator) writer(source string) io.WriteCloser {
	if o.Translator == nil {
		return nopWriteCloser{io.Discard}
	}
	return o.Translator.Writer(source)
}

type nopWriteCloser struct{ io.Writer }

func (nopWriteCloser) Close() error { return nil }

// copyFile copies src over dst. Copying a file onto itself is a no-op.
func copyFile(src, dst string) (err error) {
	srcAbs, _ := filepath.Abs(src)
	dstAbs, _ := filepath.Abs(dst)
	if srcAbs == dstAbs {
		return nil
	}

	in, err := os.Open(src) // #nosec G304 - src is inside the download directory
	if err != nil {
		return err
	}
	defer func() { _ = in.Close() }()

	out, err := os.Create(dst) // #nosec G304 - dst is inside the install directory
	if err != nil {
		return err
	}
	defer func() {
		if cerr := out.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	if _, err := io.Copy(out, in); err != nil {
		return fmt.Errorf("copying %s: %w", filepath.Base(src), err)
	}
	return nil
}

// IsCanceled reports whether err stems from context cancellation.
func IsCanceled(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
