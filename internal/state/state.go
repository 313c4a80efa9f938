// Package state handles the daemon's on-disk persistent state.
package state

import (
	"encoding/json"
	"os"
	"sync"

	"github.com/duotasks/companiond/api"
)

var currentStateVersion = 1

// State represents the on-disk persistent state.
type State struct {
	path string
	mu   sync.Mutex

	StateVersion int `json:"state_version"`

	// InstalledVersionCode is the version code of the currently installed
	// companion application build, -1 when unknown.
	InstalledVersionCode int64 `json:"installed_version_code"`

	Update api.UpdateConfig `json:"update"`
}

// LoadOrCreate parses the on-disk state file and returns a State struct.
// If no file exists, a new one is created with default values.
func LoadOrCreate(path string) (*State, error) {
	s := State{
		path: path,

		StateVersion:         currentStateVersion,
		InstalledVersionCode: -1,
	}

	body, err := os.ReadFile(s.path)
	if err == nil {
		err = json.Unmarshal(body, &s)

		return &s, err
	}

	if os.IsNotExist(err) {
		// Initialize with default values.
		s.initialize()

		// State file doesn't exist, create it and return it.
		err = s.Save()
		if err != nil {
			return nil, err
		}

		return &s, nil
	}

	return nil, err
}

// Save writes out the current state struct into its on-disk storage.
func (s *State) Save() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	body, err := json.MarshalIndent(s, "", "\t")
	if err != nil {
		return err
	}

	return os.WriteFile(s.path, body, 0o600)
}

// initialize sets default values for a new state file.
func (s *State) initialize() {
	// Use the https provider by default.
	s.Update.Provider = "https"

	// Set the initial update check frequency to 6 hours.
	s.Update.CheckFrequency = "6h"

	s.Update.DownloadDir = "/var/lib/companiond/downloads"
}
