// Package versions decides which resolved files need to be (re)installed by
// comparing the installed version manifest with the remote one.
package versions

import (
	"fmt"
	"time"

	"github.com/klauern/modsync/internal/model"
)

// Reason explains why a file was flagged for update.
type Reason string

const (
	ReasonUpToDate       Reason = "up to date"
	ReasonDuplicateID    Reason = "duplicate id in file list"
	ReasonFreshInstall   Reason = "no local version data"
	ReasonGroupChanged   Reason = "installed group differs"
	ReasonNotInstalled   Reason = "not installed"
	ReasonVersionChanged Reason = "version changed"
	ReasonMissingVersion Reason = "missing remote version info"
	ReasonRepair         Reason = "repair"
	ReasonCascade        Reason = "lower priority file updated"
	ReasonInstalledAfter Reason = "installed after cutoff"
)

// Decision is the update verdict for one file id.
type Decision struct {
	NeedsUpdate bool
	Reason      Reason
	// Detail adds context such as "1.0.0 -> 1.0.1" or the cascading id.
	Detail string
}

func (d Decision) String() string {
	if d.Detail == "" {
		return string(d.Reason)
	}
	return fmt.Sprintf("%s (%s)", d.Reason, d.Detail)
}

// Options tunes the diff.
type Options struct {
	// Repair re-installs files marked install-on-repair.
	Repair bool
	// InstalledAt is when the local manifest was last written; zero when
	// the game has never been modded.
	InstalledAt time.Time
	// Now stands in for the current time; zero uses time.Now.
	Now time.Time
}

// reference is the install time compared against SkipIfInstalledAfter.
// An unmodded game is judged by the current time.
func (o Options) reference() time.Time {
	if !o.InstalledAt.IsZero() {
		return o.InstalledAt
	}
	if !o.Now.IsZero() {
		return o.Now
	}
	return time.Now()
}

// Result holds per-file decisions and the files to update in resolved order.
type Result struct {
	Decisions map[string]Decision
	Updates   []model.ModFile
}

// IDs returns the ids of Updates in order.
func (r Result) IDs() []string {
	ids := make([]string, 0, len(r.Updates))
	for _, f := range r.Updates {
		ids = append(ids, f.ID)
	}
	return ids
}

// Empty reports whether nothing needs updating.
func (r Result) Empty() bool {
	return len(r.Updates) == 0
}

// Diff computes the update set for resolved.
//
// A nil local manifest, a different group identity, or duplicate ids in
// resolved flag every file. Otherwise a file is flagged when its version is
// unknown remotely, absent locally, or different. Every flagged file then
// flags all files with a strictly greater priority, in a single pass.
// Finally, flagged files with a SkipIfInstalledAfter cutoff are unflagged
// when the install is newer than the cutoff.
func Diff(local *model.VersionManifest, remote model.VersionManifest, resolved *model.ResolvedFileList, opts Options) Result {
	if resolved == nil {
		return collect(nil, map[string]Decision{})
	}
	return collect(resolved, skipInstalled(resolved, decide(local, remote, resolved, opts), opts))
}

func decide(local *model.VersionManifest, remote model.VersionManifest, resolved *model.ResolvedFileList, opts Options) map[string]Decision {
	decisions := make(map[string]Decision, resolved.Len())

	if dups := resolved.DuplicateIDs(); len(dups) > 0 {
		return all(resolved, Decision{NeedsUpdate: true, Reason: ReasonDuplicateID, Detail: fmt.Sprint(dups)})
	}
	if local == nil {
		return all(resolved, Decision{NeedsUpdate: true, Reason: ReasonFreshInstall})
	}
	if local.GroupIdentity != remote.GroupIdentity {
		return all(resolved, Decision{
			NeedsUpdate: true,
			Reason:      ReasonGroupChanged,
			Detail:      fmt.Sprintf("%s -> %s", local.GroupIdentity, remote.GroupIdentity),
		})
	}

	for _, f := range resolved.Files {
		decisions[f.ID] = direct(f, *local, remote, opts)
	}

	// Snapshot the direct flags so cascaded files do not cascade further.
	var changed []model.ModFile
	for _, f := range resolved.Files {
		if decisions[f.ID].NeedsUpdate {
			changed = append(changed, f)
		}
	}
	for _, c := range changed {
		for _, f := range resolved.Files {
			if f.Priority <= c.Priority || decisions[f.ID].NeedsUpdate {
				continue
			}
			decisions[f.ID] = Decision{
				NeedsUpdate: true,
				Reason:      ReasonCascade,
				Detail:      fmt.Sprintf("%s has priority %d < %d", c.ID, c.Priority, f.Priority),
			}
		}
	}
	return decisions
}

func skipInstalled(resolved *model.ResolvedFileList, decisions map[string]Decision, opts Options) map[string]Decision {
	for _, f := range resolved.Files {
		if f.SkipIfInstalledAfter.IsZero() || !decisions[f.ID].NeedsUpdate {
			continue
		}
		ref := opts.reference()
		if ref.After(f.SkipIfInstalledAfter) {
			decisions[f.ID] = Decision{
				Reason: ReasonInstalledAfter,
				Detail: fmt.Sprintf("%s after %s", ref.Format(time.DateOnly), f.SkipIfInstalledAfter.Format(time.DateOnly)),
			}
		}
	}
	return decisions
}

func direct(f model.ModFile, local, remote model.VersionManifest, opts Options) Decision {
	remoteVersion, ok := remote.Version(f.ID)
	if !ok {
		return Decision{NeedsUpdate: true, Reason: ReasonMissingVersion}
	}
	localVersion, ok := local.Version(f.ID)
	if !ok {
		return Decision{NeedsUpdate: true, Reason: ReasonNotInstalled, Detail: remoteVersion}
	}
	if localVersion != remoteVersion {
		return Decision{NeedsUpdate: true, Reason: ReasonVersionChanged, Detail: localVersion + " -> " + remoteVersion}
	}
	if opts.Repair && f.InstallOnRepair {
		return Decision{NeedsUpdate: true, Reason: ReasonRepair}
	}
	return Decision{Reason: ReasonUpToDate}
}

func all(resolved *model.ResolvedFileList, d Decision) map[string]Decision {
	decisions := make(map[string]Decision, resolved.Len())
	for _, id := range resolved.IDs() {
		decisions[id] = d
	}
	return decisions
}

func collect(resolved *model.ResolvedFileList, decisions map[string]Decision) Result {
	r := Result{Decisions: decisions}
	if resolved == nil {
		return r
	}
	for _, f := range resolved.Files {
		if decisions[f.ID].NeedsUpdate {
			r.Updates = append(r.Updates, f)
		}
	}
	return r
}
