// Package seed reads the optional YAML seed configuration applied on first
// startup.
package seed

import (
	"errors"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/duotasks/companiond/api"
)

// ErrNoSeedData is returned when no seed file is present.
var ErrNoSeedData = errors.New("no seed data present")

// Seed defines the structure of the seed file.
type Seed struct {
	Version string `yaml:"version"`

	Update *api.UpdateConfig `yaml:"update"`
}

// GetUpdate extracts the update configuration from the seed file. It returns
// ErrNoSeedData when the file doesn't exist and a nil config when the file
// exists but holds no update section.
func GetUpdate(path string) (*api.UpdateConfig, error) {
	body, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNoSeedData
		}

		return nil, err
	}

	var seed Seed

	err = yaml.Unmarshal(body, &seed)
	if err != nil {
		return nil, err
	}

	if seed.Update == nil {
		return nil, nil
	}

	err = seed.Update.Validate()
	if err != nil {
		return nil, err
	}

	return seed.Update, nil
}

// IsMissing checks if the error corresponds to a missing seed file.
func IsMissing(err error) bool {
	return errors.Is(err, ErrNoSeedData)
}
