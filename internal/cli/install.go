package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"github.com/urfave/cli/v3"
	"golang.org/x/sync/errgroup"

	"github.com/klauern/modsync/internal/config"
	"github.com/klauern/modsync/internal/installer"
	"github.com/klauern/modsync/internal/logging"
	"github.com/klauern/modsync/internal/plan"
	"github.com/klauern/modsync/internal/progress"
	"github.com/klauern/modsync/internal/transfer"
	"github.com/klauern/modsync/internal/ui"
	"github.com/klauern/modsync/internal/ui/tui"
)

func installCommand() *cli.Command {
	flags := append(targetFlags(),
		&cli.BoolFlag{
			Name:    "interactive",
			Aliases: []string{"i"},
			Usage:   "Choose mod options interactively before installing",
		},
		&cli.BoolFlag{
			Name:  "keep-downloads",
			Usage: "Keep downloaded archives after a successful install",
		},
		&cli.StringFlag{
			Name:  "progress",
			Usage: "Progress display: auto, bar, tui or none (overrides output.progress)",
		},
	)
	return &cli.Command{
		Name:      "install",
		Usage:     "Install or update a mod into a game directory",
		UsageText: "modsync install --dir <game dir> --mod <mod> --submod <submod> [options]",
		Description: `Resolve the submod's files for this platform, compare them with the
   versions already installed, then download and extract what changed.

   Examples:
     modsync install -d ~/Games/Higurashi01 -m "Onikakushi Ch.1" -s full
     modsync install -d . -m "Onikakushi Ch.1" -s full -o "Background Music: Original"
     modsync install -d . -m "Onikakushi Ch.1" -s full --repair`,
		Flags: flags,
		Action: func(ctx context.Context, cmd *cli.Command) error {
			s, err := newSession(ctx, cmd)
			if err != nil {
				return err
			}

			if cmd.Bool("interactive") {
				res, err := tui.RunOptionPicker(s.sub, s.selection)
				if err != nil {
					return fmt.Errorf("option picker failed: %w", err)
				}
				if res.Action != tui.OptionPickerActionConfirm {
					fmt.Println("Install cancelled.")
					return nil
				}
				s.selection = res.Selection
			}

			mode := cmd.String("progress")
			if mode == "" {
				mode = s.cfg.Output.Progress
			}
			return runInstall(ctx, s, installOptions{
				repair:        cmd.Bool("repair"),
				keepDownloads: cmd.Bool("keep-downloads") || s.cfg.Install.KeepDownloads,
				progress:      mode,
			})
		},
	}
}

type installOptions struct {
	repair        bool
	keepDownloads bool
	progress      string
}

// newOrchestrator wires the download and archive tools from configuration.
func newOrchestrator(s *session, translator *progress.Translator, keep bool) (*transfer.Orchestrator, error) {
	cfg := s.cfg
	aria, err := transfer.Locate(cfg.Tools.Aria2c...)
	if err != nil {
		return nil, fmt.Errorf("downloader: %w", err)
	}
	sevenZip, err := transfer.Locate(cfg.Tools.SevenZip...)
	if err != nil {
		return nil, fmt.Errorf("archive tool: %w", err)
	}

	dl := transfer.DefaultDownloader(aria)
	dl.Connections = cfg.Download.Connections
	dl.Split = cfg.Download.Split
	dl.Concurrent = cfg.Download.ConcurrentItems
	dl.RetryWait = cfg.Download.RetryWait
	dl.IPv6 = cfg.Download.IPv6
	if cfg.Download.SummaryInterval > 0 {
		dl.SummaryInterval = cfg.Download.SummaryInterval
	}

	return &transfer.Orchestrator{
		Downloader:    dl,
		Extractor:     transfer.Extractor{Path: sevenZip},
		Runner:        transfer.ExecRunner{},
		Translator:    translator,
		Prober:        transfer.NewSizeProber(s.sizes, cfg.Remote.Timeout),
		TempDir:       filepath.Join(s.installDir, cfg.Install.TempDirName),
		InstallDir:    s.installDir,
		KeepDownloads: keep,
		Logger:        logging.Default(),
	}, nil
}

func runInstall(ctx context.Context, s *session, opts installOptions) error {
	registry := progress.NewRegistry()
	translator := progress.NewTranslator(registry, logging.Default())
	if enc := s.cfg.Tools.OutputEncoding; enc != "" {
		if err := translator.SetEncoding(enc); err != nil {
			return err
		}
	}

	keep := opts.keepDownloads || plan.KeepDownloads(s.sub.Options, s.selection)
	orch, err := newOrchestrator(s, translator, keep)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var observers errgroup.Group
	switch opts.progress {
	case config.ProgressNone:
	case config.ProgressTUI:
		sub := registry.Subscribe("tui", progress.DefaultCapacity)
		observers.Go(func() error {
			return tui.RunInstallView(ctx, s.sub.GroupIdentity(), sub, cancel)
		})
	default:
		sub := registry.Subscribe("console", progress.DefaultCapacity)
		console := progress.NewConsole(os.Stderr, opts.progress == config.ProgressBar)
		observers.Go(func() error {
			if err := console.Run(ctx, sub); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		})
	}

	req := s.request(opts.repair)
	req.Executor = orch
	req.Translator = translator

	job := installer.Start(ctx, req)
	outcome, err := job.Wait()
	registry.Close()
	if obsErr := observers.Wait(); obsErr != nil {
		logging.Warn("progress display failed", logging.Err(obsErr))
	}

	if err != nil {
		return installError(err, orch.TempDir)
	}
	reportOutcome(outcome)
	return nil
}

func installError(err error, tempDir string) error {
	switch {
	case errors.Is(err, context.Canceled):
		fmt.Println(ui.StatusWarning("Install cancelled; downloads kept in " + tempDir))
	default:
		var phaseErr *transfer.PhaseError
		if errors.As(err, &phaseErr) {
			fmt.Println(ui.StatusError(fmt.Sprintf("%s failed; downloads kept in %s", phaseErr.Phase, tempDir)))
		}
	}
	return err
}

func reportOutcome(o *installer.Outcome) {
	if o.UpToDate() {
		fmt.Println(ui.StatusSuccess("Already up to date"))
		return
	}
	msg := fmt.Sprintf("Installed %d file(s)", o.Plan.Len())
	if o.Transfer != nil && o.Transfer.SizesKnown {
		msg += fmt.Sprintf(" (%s)", humanize.Bytes(uint64(o.Transfer.TotalBytes)))
	}
	fmt.Println(ui.StatusSuccess(msg))
	if o.Transfer != nil && o.Transfer.TempDir != "" {
		fmt.Println(ui.Dim("  Downloads kept in " + o.Transfer.TempDir))
	}
}
