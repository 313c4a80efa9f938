// Package api contains the serializable types exchanged between the
// companiond daemon, its clients and the update manifest endpoint.
package api

import (
	"errors"
	"slices"
	"time"
)

// UpdateManifest describes the latest application build published for
// companion devices. One instance is fetched per update check and never
// mutated afterwards.
type UpdateManifest struct {
	LatestVersionCode      int64  `json:"latestVersionCode"`
	LatestVersionName      string `json:"latestVersionName"`
	DownloadURL            string `json:"apkUrl"`
	ReleaseNotes           string `json:"releaseNotes,omitempty"`
	MinRequiredVersionCode *int64 `json:"minRequiredVersionCode,omitempty"`
}

// Validate performs basic sanity checks against a fetched manifest.
func (m *UpdateManifest) Validate() error {
	if m.LatestVersionCode <= 0 {
		return errors.New("manifest is missing a valid latestVersionCode")
	}

	if m.DownloadURL == "" {
		return errors.New("manifest is missing the package download URL")
	}

	return nil
}

// Update holds the update configuration and current update state of the daemon.
type Update struct {
	Config UpdateConfig `json:"config" yaml:"config"`

	State UpdateState `json:"state" yaml:"-"`
}

// UpdateConfig defines the configuration for update checks and installs.
type UpdateConfig struct {
	Provider       string `json:"provider"         yaml:"provider"`
	ManifestURL    string `json:"manifest_url"     yaml:"manifest_url"`
	CheckFrequency string `json:"check_frequency"  yaml:"check_frequency"`
	DownloadDir    string `json:"download_dir"     yaml:"download_dir"`
	InstallCommand string `json:"install_command"  yaml:"install_command"`

	// ProviderConfig holds provider specific keys, such as
	// "github_repository" for the github provider or "manifest_path" for
	// the file provider.
	ProviderConfig map[string]string `json:"provider_config,omitempty" yaml:"provider_config,omitempty"`
}

// Validate performs basic sanity checks against update configuration.
func (c *UpdateConfig) Validate() error {
	if !slices.Contains([]string{"https", "github", "file"}, c.Provider) {
		return errors.New("invalid update provider '" + c.Provider + "'")
	}

	if c.Provider == "https" && c.ManifestURL == "" {
		return errors.New("the https provider requires a manifest URL")
	}

	// Check the update frequency is valid.
	if c.CheckFrequency != "never" {
		_, err := time.ParseDuration(c.CheckFrequency)
		if err != nil {
			return errors.New("invalid update check frequency: " + err.Error())
		}
	}

	return nil
}

// UpdateState holds information about the current update state.
type UpdateState struct {
	LastCheck            time.Time      `json:"last_check"`
	Status               string         `json:"status"`
	InstalledVersionCode int64          `json:"installed_version_code"`
	Prompt               *UpdatePrompt  `json:"prompt,omitempty"`
	Download             *DownloadState `json:"download,omitempty"`
}

// UpdatePrompt represents an update waiting for a user decision.
type UpdatePrompt struct {
	Manifest UpdateManifest `json:"manifest"`
	Forced   bool           `json:"forced"`
}
