package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"

	"github.com/klauern/modsync/internal/catalog"
	"github.com/klauern/modsync/internal/config"
	"github.com/klauern/modsync/internal/logging"
	"github.com/klauern/modsync/internal/model"
	"github.com/klauern/modsync/internal/progress"
	"github.com/klauern/modsync/internal/ui"
	"github.com/klauern/modsync/internal/util"
)

func configCommand() *cli.Command {
	return &cli.Command{
		Name:  "config",
		Usage: "Show or initialize configuration",
		Commands: []*cli.Command{
			{
				Name:  "show",
				Usage: "Print the effective configuration",
				Action: func(_ context.Context, cmd *cli.Command) error {
					cfg, err := loadConfig(cmd)
					if err != nil {
						return err
					}
					data, err := yaml.Marshal(cfg)
					if err != nil {
						return err
					}
					fmt.Print(string(data))
					return nil
				},
			},
			{
				Name:  "path",
				Usage: "Print configuration, cache and log locations",
				Action: func(_ context.Context, cmd *cli.Command) error {
					cfg, err := loadConfig(cmd)
					if err != nil {
						return err
					}
					fmt.Printf("config: %s\n", config.FilePath())
					fmt.Printf("cache:  %s\n", cfg.CacheDir())
					fmt.Printf("logs:   %s\n", util.ModsyncLogPath())
					return nil
				},
			},
			{
				Name:  "init",
				Usage: "Write the default configuration file",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "force",
						Usage: "Overwrite an existing file",
					},
				},
				Action: func(_ context.Context, cmd *cli.Command) error {
					if config.Exists() && !cmd.Bool("force") {
						return fmt.Errorf("%s already exists (use --force to overwrite)", config.FilePath())
					}
					if err := config.Default().Save(); err != nil {
						return fmt.Errorf("failed to write config: %w", err)
					}
					fmt.Println(ui.StatusSuccess("Wrote " + config.FilePath()))
					return nil
				},
			},
		},
	}
}

func listCommand() *cli.Command {
	return &cli.Command{
		Name:  "list",
		Usage: "List mods, submods and options in the catalog",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "catalog",
				Usage: "Catalog `PATH` or URL (overrides remote.catalog_url)",
			},
			&cli.StringFlag{
				Name:    "mod",
				Aliases: []string{"m"},
				Usage:   "Only show this mod, including its options",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			source := cmd.String("catalog")
			if source == "" {
				source = cfg.Remote.CatalogURL
			}
			cat, err := catalog.Load(ctx, &http.Client{Timeout: cfg.Remote.Timeout}, source)
			if err != nil {
				return err
			}

			only := cmd.String("mod")
			for _, mod := range cat.Mods() {
				if only != "" && !strings.EqualFold(mod, only) {
					continue
				}
				fmt.Println(ui.Header(mod))
				for _, sub := range cat.SubModsOf(mod) {
					fmt.Printf("  %s %s\n", sub.SubModName, ui.Dim(fmt.Sprintf("(%d files)", len(sub.Files))))
					if only == "" {
						continue
					}
					defaults := model.DefaultSelection(sub.Options)
					for _, o := range sub.Options {
						line := ui.StatusPending(o.ID)
						if defaults.Has(o.ID) {
							line = ui.StatusSuccess(o.ID)
						}
						fmt.Printf("    %s %s\n", line, ui.Dim(string(o.Type)))
					}
				}
			}
			return nil
		},
	}
}

func statusCommand() *cli.Command {
	return &cli.Command{
		Name:  "status",
		Usage: "Classify downloader or archive tool output read from stdin",
		Description: `Reads lines from stdin and prints how each one is understood by the
   progress display. Useful when tool output changes format.

   Example:
     aria2c -i list.txt 2>&1 | modsync status`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "encoding",
				Usage: "Input `CHARSET` when it is not UTF-8, e.g. shift_jis",
			},
		},
		Action: func(_ context.Context, cmd *cli.Command) error {
			registry := progress.NewRegistry()
			sub := registry.Subscribe("status", progress.DefaultCapacity)
			translator := progress.NewTranslator(registry, logging.Default())
			if enc := cmd.String("encoding"); enc != "" {
				if err := translator.SetEncoding(enc); err != nil {
					return err
				}
			}

			w := translator.Writer("stdin")
			scanner := bufio.NewScanner(os.Stdin)
			for scanner.Scan() {
				if _, err := w.Write(append(scanner.Bytes(), '\n')); err != nil {
					return err
				}
				for _, ev := range sub.Drain() {
					fmt.Println(describeEvent(ev))
				}
			}
			if err := w.Close(); err != nil {
				return err
			}
			for _, ev := range sub.Drain() {
				fmt.Println(describeEvent(ev))
			}
			registry.Close()
			if err := scanner.Err(); err != nil && !errors.Is(err, os.ErrClosed) {
				return err
			}
			return nil
		},
	}
}

func describeEvent(ev progress.Event) string {
	switch e := ev.(type) {
	case progress.OverallStatus:
		return fmt.Sprintf("%s %3d%% %s", ui.Header("status  "), e.Percent, e.Task)
	case progress.DownloadProgress:
		return fmt.Sprintf("%s %3d%% %s speed=%s eta=%s cn=%s", ui.Info("download"), e.Percent, e.Amount, e.Speed, e.ETA, e.Connections)
	case progress.ArchiveProgress:
		return fmt.Sprintf("%s %3d%% items=%d %s", ui.Info("archive "), e.Percent, e.Items, e.File)
	case progress.PlainLog:
		return fmt.Sprintf("%s %s", ui.Dim("log     "), e.Text)
	default:
		return fmt.Sprintf("%v", ev)
	}
}
