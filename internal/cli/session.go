package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"

	"github.com/urfave/cli/v3"

	"github.com/klauern/modsync/internal/cache"
	"github.com/klauern/modsync/internal/catalog"
	"github.com/klauern/modsync/internal/config"
	"github.com/klauern/modsync/internal/installer"
	"github.com/klauern/modsync/internal/logging"
	"github.com/klauern/modsync/internal/model"
	"github.com/klauern/modsync/internal/resolve"
	"github.com/klauern/modsync/internal/util"
	"github.com/klauern/modsync/internal/validation"
	"github.com/klauern/modsync/internal/versions"
)

// targetFlags are shared by every command that works on one installed game.
func targetFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "dir",
			Aliases: []string{"d"},
			Usage:   "Game install `DIR`",
		},
		&cli.StringFlag{
			Name:    "mod",
			Aliases: []string{"m"},
			Usage:   "Mod `NAME` from the catalog",
		},
		&cli.StringFlag{
			Name:    "submod",
			Aliases: []string{"s"},
			Usage:   "Submod `NAME` of the mod",
		},
		&cli.StringFlag{
			Name:  "platform",
			Usage: "Target platform (windows, mac, linux); defaults to this machine",
		},
		&cli.BoolFlag{
			Name:  "steam",
			Usage: "The game is the Steam release",
		},
		&cli.BoolFlag{
			Name:  "repair",
			Usage: "Re-install files marked for repair",
		},
		&cli.StringSliceFlag{
			Name:    "option",
			Aliases: []string{"o"},
			Usage:   "Select a mod option by id, e.g. \"Background Music: Original\" (repeatable)",
		},
		&cli.StringFlag{
			Name:  "catalog",
			Usage: "Catalog `PATH` or URL (overrides remote.catalog_url)",
		},
	}
}

// session is everything resolved from flags and configuration before an
// install attempt is prepared.
type session struct {
	cfg        *config.Config
	sub        model.SubMod
	selection  model.Selection
	installDir string
	target     resolve.Target
	remote     *versions.Fetcher
	sizes      *cache.Cache
}

func newSession(ctx context.Context, cmd *cli.Command) (*session, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	dir := cmd.String("dir")
	if dir == "" {
		return nil, errors.New("--dir is required")
	}
	cwd, err := os.Getwd()
	if err != nil {
		return nil, err
	}
	installDir, err := filepath.Abs(util.ExpandPath(dir, cwd))
	if err != nil {
		return nil, err
	}
	if err := validation.ValidateInstallDir(installDir); err != nil {
		return nil, err
	}

	if cmd.String("mod") == "" || cmd.String("submod") == "" {
		return nil, errors.New("--mod and --submod are required")
	}
	source := cmd.String("catalog")
	if source == "" {
		source = cfg.Remote.CatalogURL
	}
	cat, err := catalog.Load(ctx, &http.Client{Timeout: cfg.Remote.Timeout}, source)
	if err != nil {
		return nil, err
	}
	sub, err := cat.Find(cmd.String("mod"), cmd.String("submod"))
	if err != nil {
		return nil, err
	}

	checks := validation.ValidateInstall(installDir, sub)
	for _, w := range checks.Warnings {
		logging.Warn(w)
	}
	if err := checks.Error(); err != nil {
		return nil, err
	}

	selection := model.DefaultSelection(sub.Options)
	if ids := cmd.StringSlice("option"); len(ids) > 0 {
		selection = selection.With(sub.Options, ids...)
	}
	if err := selection.Validate(sub.Options); err != nil {
		return nil, fmt.Errorf("invalid --option: %w", err)
	}

	platform, err := platformFlag(cmd)
	if err != nil {
		return nil, err
	}
	target, err := installer.DetectTarget(sub, installDir, platform, cmd.Bool("steam"))
	if err != nil {
		return nil, err
	}

	s := &session{
		cfg:        cfg,
		sub:        sub,
		selection:  selection,
		installDir: installDir,
		target:     target,
		remote:     versions.NewFetcher(cfg.Remote.VersionDataURL, cfg.Remote.Timeout),
	}
	if cfg.Cache.Enabled {
		if s.sizes, err = cache.New("sizes", cfg.CacheDir(), cfg.Cache.TTL); err != nil {
			logging.Warn("size cache disabled", logging.Err(err))
			s.sizes = nil
		}
	}
	return s, nil
}

func platformFlag(cmd *cli.Command) (model.Platform, error) {
	if p := cmd.String("platform"); p != "" {
		return model.ParsePlatform(p)
	}
	return model.CurrentPlatform()
}

// request builds the installer request shared by plan and install.
func (s *session) request(repair bool) installer.Request {
	return installer.Request{
		Group:       s.sub,
		Target:      s.target,
		InstallDir:  s.installDir,
		Selection:   s.selection,
		Repair:      repair,
		Remote:      s.remote,
		LockTimeout: s.cfg.Install.LockTimeout,
		Logger:      logging.Default(),
	}
}
