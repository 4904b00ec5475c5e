package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/urfave/cli/v3"

	"github.com/klauern/modsync/internal/installer"
	"github.com/klauern/modsync/internal/logging"
	"github.com/klauern/modsync/internal/transfer"
	"github.com/klauern/modsync/internal/ui"
)

func planCommand() *cli.Command {
	flags := append(targetFlags(),
		&cli.BoolFlag{
			Name:  "no-sizes",
			Usage: "Skip probing download sizes",
		},
		&cli.BoolFlag{
			Name:  "json",
			Usage: "Print the plan as JSON",
		},
	)
	return &cli.Command{
		Name:      "plan",
		Usage:     "Show what an install would download without changing anything",
		UsageText: "modsync plan --dir <game dir> --mod <mod> --submod <submod> [options]",
		Flags:     flags,
		Action: func(ctx context.Context, cmd *cli.Command) error {
			s, err := newSession(ctx, cmd)
			if err != nil {
				return err
			}

			prepared, err := installer.Prepare(ctx, s.request(cmd.Bool("repair")))
			if err != nil {
				return err
			}

			var items transfer.Items
			if prepared.Plan.Len() > 0 && !cmd.Bool("no-sizes") {
				prober := transfer.NewSizeProber(s.sizes, s.cfg.Remote.Timeout)
				if items, err = prober.Probe(ctx, prepared.Plan.Entries); err != nil {
					logging.Warn("size probe failed", logging.Err(err))
					items = nil
				}
			}

			if cmd.Bool("json") {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(prepared.Plan)
			}
			printPlan(s, prepared, items)
			return nil
		},
	}
}

func printPlan(s *session, p *installer.Prepared, items transfer.Items) {
	fmt.Printf("%s %s\n", ui.Header("Group:"), s.sub.GroupIdentity())
	fmt.Printf("%s %s\n", ui.Header("Target:"), s.target)
	fmt.Printf("%s %s\n\n", ui.Header("Install dir:"), s.installDir)

	fmt.Println(ui.Bold("Files:"))
	for _, f := range p.Resolved.Files {
		d := p.Diff.Decisions[f.ID]
		line := fmt.Sprintf("%s %s", f.ID, ui.Dim(d.String()))
		if d.NeedsUpdate {
			fmt.Println("  " + ui.StatusWarning(line))
		} else {
			fmt.Println("  " + ui.StatusSkipped(line))
		}
	}
	fmt.Println()

	if p.Plan.Len() == 0 {
		fmt.Println(ui.StatusSuccess("Already up to date"))
		return
	}

	fmt.Println(ui.Bold("Plan:"))
	for i, e := range p.Plan.Entries {
		dir := e.ExtractionDir
		if dir == "" {
			dir = "."
		}
		label := e.ID
		if e.Option != "" {
			label = ui.Info("option") + " " + e.ID
		}
		fmt.Printf("  %2d. %s -> %s %s\n", i+1, label, dir, ui.Dim(fmt.Sprintf("(priority %d)", e.Priority)))
	}

	if len(items) > 0 {
		total, known := items.TotalSize()
		size := humanize.Bytes(uint64(total))
		if !known {
			size = "at least " + size
		}
		fmt.Printf("\n%s %s in %d file(s)\n", ui.Header("Download size:"), size, len(items))
	}
}
