// Package updater coordinates the full self-update workflow: checking the
// manifest, prompting, downloading and triggering the install.
package updater

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/duotasks/companiond/api"
	"github.com/duotasks/companiond/internal/download"
	"github.com/duotasks/companiond/internal/gate"
	"github.com/duotasks/companiond/internal/install"
	"github.com/duotasks/companiond/internal/providers"
	"github.com/duotasks/companiond/internal/state"
	"github.com/duotasks/companiond/internal/version"
)

// ErrNoPendingPrompt is returned when accepting or deferring without a
// pending update prompt.
var ErrNoPendingPrompt = errors.New("no update prompt is pending")

// ManifestSource is the subset of the provider contract the updater needs.
type ManifestSource interface {
	FetchManifest(ctx context.Context) (*api.UpdateManifest, error)
}

// installTimeout bounds the handoff to the package installer.
const installTimeout = 10 * time.Minute

// Updater owns the update session for the lifetime of the daemon.
type Updater struct {
	state       *state.State
	provider    ManifestSource
	session     *gate.Session
	downloads   *download.Orchestrator
	installer   *install.Installer
	versionFile string

	// checkMu serializes update check cycles.
	checkMu sync.Mutex

	mu        sync.Mutex
	status    string
	lastCheck time.Time
	prompt    *api.UpdatePrompt
	accepted  *api.UpdateManifest
	download  *api.DownloadState
}

// New returns an updater wired to the given provider, download service and
// installer. The provider may be nil when currently unavailable, in which
// case every check reports a fetch failure.
func New(s *state.State, provider ManifestSource, service download.Service, installer *install.Installer, versionFile string) *Updater {
	return &Updater{
		state:       s,
		provider:    provider,
		session:     gate.NewSession(),
		downloads:   download.NewOrchestrator(service, 0),
		installer:   installer,
		versionFile: versionFile,
		status:      "No update check performed yet",
	}
}

// Check performs one update check cycle. The manual flag marks user-initiated
// checks: only those surface fetch failures to the caller and override an
// earlier deferral. Automatic (launch or scheduled) checks fail silently
// except for logging.
func (u *Updater) Check(ctx context.Context, manual bool) error {
	u.checkMu.Lock()
	defer u.checkMu.Unlock()

	var manifest *api.UpdateManifest

	fetchErr := providers.ErrProviderUnavailable
	if u.provider != nil {
		manifest, fetchErr = u.provider.FetchManifest(ctx)
	}

	if fetchErr != nil {
		slog.Warn("Unable to fetch update manifest", "error", fetchErr)

		manifest = nil
	}

	installed := u.InstalledVersionCode()
	decision := gate.Evaluate(manifest, installed, u.session, manual)

	u.mu.Lock()
	u.lastCheck = time.Now()

	switch decision.Action {
	case gate.ActionFetchFailed:
		u.status = "Update check failed"
	case gate.ActionUpToDate:
		u.status = "Application is up to date"
		u.prompt = nil
	case gate.ActionSkip:
		// A deferred version must not re-prompt automatically.
		u.status = "Update available but deferred"
	case gate.ActionShowPrompt:
		u.status = "Update available"
		u.prompt = &api.UpdatePrompt{Manifest: *decision.Manifest}
	case gate.ActionShowForcedPrompt:
		u.status = "Update required"
		u.prompt = &api.UpdatePrompt{Manifest: *decision.Manifest, Forced: true}
	}

	u.mu.Unlock()

	slog.Info("Update check completed", "manual", manual, "installed", installed, "decision", string(decision.Action))

	if decision.Action == gate.ActionFetchFailed && manual {
		return fetchErr
	}

	return nil
}

// Accept resolves the pending prompt by accepting the update: the deferral
// is cleared and the download starts.
func (u *Updater) Accept(ctx context.Context) error {
	u.mu.Lock()

	if u.prompt == nil {
		u.mu.Unlock()

		return ErrNoPendingPrompt
	}

	manifest := u.prompt.Manifest
	u.prompt = nil
	u.accepted = &manifest
	u.mu.Unlock()

	// Accepting an update clears the session deferral.
	u.session.Clear()

	task, err := u.downloads.Start(ctx, &manifest, u.state.Update.DownloadDir, u)
	if err != nil {
		u.setStatus("Unable to start download: " + err.Error())

		return err
	}

	u.mu.Lock()
	u.status = "Downloading update " + manifest.LatestVersionName
	u.download = &api.DownloadState{
		ID:          task.ID,
		Destination: task.Destination,
		Status:      api.DownloadStatusPending,
		Progress:    -1,
	}
	u.mu.Unlock()

	return nil
}

// Defer resolves the pending prompt by deferring it: the version won't
// re-prompt automatically for the rest of the session.
func (u *Updater) Defer() error {
	u.mu.Lock()
	defer u.mu.Unlock()

	if u.prompt == nil {
		return ErrNoPendingPrompt
	}

	u.session.Defer(u.prompt.Manifest.LatestVersionCode)
	u.prompt = nil
	u.status = "Update deferred"

	return nil
}

// CancelDownload cancels the active download. No install is attempted.
func (u *Updater) CancelDownload() error {
	return u.downloads.Cancel()
}

// Progress implements download.Observer.
func (u *Updater) Progress(state api.DownloadState) {
	u.mu.Lock()
	defer u.mu.Unlock()

	u.download = &state
}

// Done implements download.Observer. It runs exactly once per download and
// triggers the install on success.
func (u *Updater) Done(downloadState api.DownloadState) {
	u.mu.Lock()
	u.download = &downloadState
	manifest := u.accepted
	u.accepted = nil
	u.mu.Unlock()

	switch downloadState.Status {
	case api.DownloadStatusSucceeded:
		u.installDownloaded(downloadState.Destination, manifest)
	case api.DownloadStatusFailed:
		slog.Error("Update download failed", "reason", downloadState.Reason)
		u.setStatus("Download failed: " + downloadState.Reason)
	case api.DownloadStatusCancelled:
		slog.Info("Update download cancelled")
		u.setStatus("Download cancelled")
	default:
	}
}

func (u *Updater) installDownloaded(path string, manifest *api.UpdateManifest) {
	ctx, cancel := context.WithTimeout(context.Background(), installTimeout)
	defer cancel()

	err := u.installer.Install(ctx, path)
	if err != nil {
		slog.Error("Unable to install update", "path", path, "error", err)
		u.setStatus("Install failed: " + err.Error())

		return
	}

	if manifest != nil {
		u.state.InstalledVersionCode = manifest.LatestVersionCode

		err = u.state.Save()
		if err != nil {
			slog.Error("Unable to save state", "error", err)
		}

		if u.versionFile != "" {
			err = version.RecordInstalledVersionCode(u.versionFile, manifest.LatestVersionCode)
			if err != nil {
				slog.Error("Unable to record installed version", "error", err)
			}
		}

		u.setStatus("Update " + manifest.LatestVersionName + " installed")
	} else {
		u.setStatus("Update installed")
	}

	slog.Info("Update installed", "path", path)
}

// InstalledVersionCode returns the version code of the installed build,
// preferring the version file over the persisted state.
func (u *Updater) InstalledVersionCode() int64 {
	if u.versionFile != "" {
		code := version.InstalledVersionCode(u.versionFile)
		if code != version.UnknownVersionCode {
			return code
		}
	}

	return u.state.InstalledVersionCode
}

// Update returns the current update configuration and state for the API.
func (u *Updater) Update() api.Update {
	u.mu.Lock()
	defer u.mu.Unlock()

	updateState := api.UpdateState{
		LastCheck:            u.lastCheck,
		Status:               u.status,
		InstalledVersionCode: u.state.InstalledVersionCode,
	}

	if u.prompt != nil {
		prompt := *u.prompt
		updateState.Prompt = &prompt
	}

	if u.download != nil {
		downloadState := *u.download
		updateState.Download = &downloadState
	}

	return api.Update{
		Config: u.state.Update,
		State:  updateState,
	}
}

func (u *Updater) setStatus(status string) {
	u.mu.Lock()
	defer u.mu.Unlock()

	u.status = status
}
