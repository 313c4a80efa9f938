// Package gate implements the update decision logic: given a fetched
// manifest, the installed version and the per-session deferral state, it
// decides whether the user should be prompted.
package gate

import (
	"github.com/duotasks/companiond/api"
)

// Action represents the outcome of an update check evaluation.
type Action string

const (
	// ActionShowPrompt indicates a newer version is available and the user should be prompted.
	ActionShowPrompt Action = "show-prompt"

	// ActionShowForcedPrompt indicates the installed version is below the
	// required minimum and the update cannot be declined.
	ActionShowForcedPrompt Action = "show-forced-prompt"

	// ActionSkip indicates an available update was deferred earlier in this
	// session and must not re-prompt automatically.
	ActionSkip Action = "skip"

	// ActionUpToDate indicates no update is available.
	ActionUpToDate Action = "up-to-date"

	// ActionFetchFailed indicates the manifest couldn't be retrieved.
	ActionFetchFailed Action = "fetch-failed"
)

// Decision is the result of evaluating an update check.
type Decision struct {
	Action   Action
	Manifest *api.UpdateManifest
}

// Evaluate decides what to do with the result of an update check.
//
// A nil manifest means the fetch failed. The forced-minimum check takes
// precedence and fires even when the latest version isn't newer than the
// installed one, so at most one prompt is produced per check cycle. Deferral
// only suppresses the regular prompt, and only for automatic (non-manual)
// checks.
func Evaluate(manifest *api.UpdateManifest, installedVersionCode int64, session *Session, manual bool) Decision {
	if manifest == nil {
		return Decision{Action: ActionFetchFailed}
	}

	// Forced-update override: a bumped minimum applies even without a new release.
	if manifest.MinRequiredVersionCode != nil && *manifest.MinRequiredVersionCode > installedVersionCode {
		return Decision{Action: ActionShowForcedPrompt, Manifest: manifest}
	}

	if manifest.LatestVersionCode > installedVersionCode {
		if !manual && manifest.LatestVersionCode == session.Deferred() {
			return Decision{Action: ActionSkip, Manifest: manifest}
		}

		return Decision{Action: ActionShowPrompt, Manifest: manifest}
	}

	return Decision{Action: ActionUpToDate, Manifest: manifest}
}
