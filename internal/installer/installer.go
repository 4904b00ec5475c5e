// Package installer runs one install attempt: resolve, diff, plan, and
// transfer, under the install directory lock.
package installer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/klauern/modsync/internal/lock"
	"github.com/klauern/modsync/internal/logging"
	"github.com/klauern/modsync/internal/model"
	"github.com/klauern/modsync/internal/plan"
	"github.com/klauern/modsync/internal/progress"
	"github.com/klauern/modsync/internal/resolve"
	"github.com/klauern/modsync/internal/transfer"
	"github.com/klauern/modsync/internal/validation"
	"github.com/klauern/modsync/internal/versions"
)

// ManifestSource provides the authoritative remote manifest for a group.
type ManifestSource interface {
	Fetch(ctx context.Context, group string) (model.VersionManifest, error)
}

// Executor carries out a plan.
type Executor interface {
	Execute(ctx context.Context, p plan.Plan) (*transfer.Result, error)
}

// Request describes one install attempt.
type Request struct {
	Group      model.SubMod
	Target     resolve.Target
	InstallDir string
	Selection  model.Selection
	Repair     bool

	Remote   ManifestSource
	Executor Executor
	// Store defaults to the manifest inside InstallDir.
	Store *versions.Store
	// Translator receives overall status lines; optional.
	Translator  *progress.Translator
	LockTimeout time.Duration
	Logger      *slog.Logger
}

// Prepared is the computed, not yet executed, attempt.
type Prepared struct {
	Resolved *model.ResolvedFileList
	Local    *model.VersionManifest
	Remote   model.VersionManifest
	Diff     versions.Result
	Plan     plan.Plan
}

// Outcome is the result of a finished attempt.
type Outcome struct {
	Prepared
	Transfer *transfer.Result
}

// UpToDate reports whether the attempt had nothing to install.
func (o *Outcome) UpToDate() bool {
	return o.Plan.Len() == 0
}

func (r *Request) logger() *slog.Logger {
	if r.Logger != nil {
		return r.Logger
	}
	return logging.Default()
}

func (r *Request) store() *versions.Store {
	if r.Store != nil {
		return r.Store
	}
	return versions.NewStore(r.InstallDir)
}

func (r *Request) status(pct int, task string) {
	if r.Translator != nil {
		r.Translator.Status(pct, task)
	}
}

// Prepare resolves variants, reads both manifests, and builds the plan.
// It performs no installation and takes no lock.
func Prepare(ctx context.Context, req Request) (*Prepared, error) {
	logger := req.logger().With(logging.Group(req.Group.GroupIdentity()))

	resolved, err := resolve.Resolve(req.Group.Files, req.Group.Overrides, req.Target)
	if err != nil {
		return nil, err
	}
	logger.Debug("resolved files", logging.Count(resolved.Len()), slog.String("target", req.Target.String()))

	if req.Remote == nil {
		return nil, fmt.Errorf("%w: no remote source configured", versions.ErrRemoteManifest)
	}
	remote, err := req.Remote.Fetch(ctx, req.Group.GroupIdentity())
	if err != nil {
		return nil, err
	}

	store := req.store()
	local, err := store.Load()
	if err != nil {
		if !errors.Is(err, versions.ErrCorrupt) {
			return nil, err
		}
		logger.Warn("ignoring unreadable version data, reinstalling everything", logging.Err(err))
		local = nil
	}
	opts := versions.Options{Repair: req.Repair}
	if local != nil {
		opts.InstalledAt = store.ModTime()
	}

	diff := versions.Diff(local, remote, resolved, opts)
	for _, f := range resolved.Files {
		d := diff.Decisions[f.ID]
		logger.Debug("update decision", logging.ID(f.ID), slog.Bool("update", d.NeedsUpdate), slog.String("reason", d.String()))
	}

	p, err := plan.Build(resolved, diff)
	if err != nil {
		return nil, err
	}
	if p.Len() > 0 {
		if p, err = plan.WithOptions(p, req.Group.Options, req.Selection); err != nil {
			return nil, err
		}
	}
	if err := validation.ValidatePlan(p); err != nil {
		return nil, err
	}

	return &Prepared{Resolved: resolved, Local: local, Remote: remote, Diff: diff, Plan: p}, nil
}

// Run performs a complete attempt while holding the install lock. The local
// manifest is replaced with the remote one only after the transfer succeeds.
func Run(ctx context.Context, req Request) (*Outcome, error) {
	release, err := lock.Acquire(ctx, lock.PathFor(req.InstallDir), req.LockTimeout)
	if err != nil {
		return nil, err
	}
	defer release()
	return run(ctx, req)
}

func run(ctx context.Context, req Request) (*Outcome, error) {
	logger := req.logger().With(logging.Group(req.Group.GroupIdentity()))
	done := logging.Timer("install")
	defer done()

	req.status(0, "Checking for updates")
	prepared, err := Prepare(ctx, req)
	if err != nil {
		return nil, err
	}
	outcome := &Outcome{Prepared: *prepared}

	if prepared.Plan.Len() > 0 {
		if req.Executor == nil {
			return outcome, errors.New("no executor configured")
		}
		logger.Info("installing", logging.Count(prepared.Plan.Len()))
		res, err := req.Executor.Execute(ctx, prepared.Plan)
		outcome.Transfer = res
		if err != nil {
			return outcome, err
		}
	} else {
		logger.Info("already up to date")
		req.status(100, "Already up to date")
	}

	if err := req.store().Save(installedManifest(prepared)); err != nil {
		return outcome, err
	}
	return outcome, nil
}

// installedManifest is the remote manifest restricted to the files this
// target resolved to and the options that were installed.
func installedManifest(p *Prepared) model.VersionManifest {
	ids := p.Resolved.IDs()
	for _, e := range p.Plan.Entries {
		if e.Option != "" {
			ids = append(ids, e.ID)
		}
	}
	return p.Remote.Only(ids...)
}

// Job is an install attempt running on its own worker goroutine.
type Job struct {
	done    chan struct{}
	outcome *Outcome
	err     error
}

// Start takes the install lock and runs req on a new worker goroutine that
// releases it on exit. When the lock cannot be taken the returned job has
// already finished with that error.
func Start(ctx context.Context, req Request) *Job {
	j := &Job{done: make(chan struct{})}
	release, err := lock.Acquire(ctx, lock.PathFor(req.InstallDir), req.LockTimeout)
	if err != nil {
		j.err = err
		close(j.done)
		return j
	}
	go func() {
		defer close(j.done)
		defer release()
		j.outcome, j.err = run(ctx, req)
	}()
	return j
}

// Done is closed when the job finishes.
func (j *Job) Done() <-chan struct{} {
	return j.done
}

// Wait blocks until the job finishes.
func (j *Job) Wait() (*Outcome, error) {
	<-j.done
	return j.outcome, j.err
}

// DetectTarget builds the resolve target for group installed in installDir.
// A missing asset bundle leaves the runtime unknown; an unsupported one is
// an error.
func DetectTarget(group model.SubMod, installDir string, platform model.Platform, steam bool) (resolve.Target, error) {
	t := resolve.Target{Platform: platform, Steam: steam}
	if group.DataName == "" {
		return t, nil
	}
	version, err := resolve.ReadUnityVersion(filepath.Join(installDir, group.DataName))
	if err != nil {
		if errors.Is(err, resolve.ErrMissingAssets) {
			logging.Warn("runtime version unknown", logging.Err(err))
			return t, nil
		}
		return t, err
	}
	t.Runtime = version
	return t, nil
}
