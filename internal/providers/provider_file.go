package providers

import (
	"context"
	"encoding/json"
	"errors"
	"os"

	"github.com/duotasks/companiond/api"
)

// The file provider reads the manifest from a local path. It's mostly useful
// for development and for air-gapped deployments where the manifest is
// dropped in place by other means.
type file struct {
	config map[string]string

	path string
}

func (*file) Type() string {
	return "file"
}

func (*file) ClearCache(_ context.Context) error {
	return nil
}

func (p *file) load(_ context.Context) error {
	p.path = p.config["manifest_path"]
	if p.path == "" {
		return errors.New("the file provider requires a manifest path")
	}

	return nil
}

func (p *file) FetchManifest(_ context.Context) (*api.UpdateManifest, error) {
	body, err := os.ReadFile(p.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrProviderUnavailable
		}

		return nil, err
	}

	var manifest api.UpdateManifest

	err = json.Unmarshal(body, &manifest)
	if err != nil {
		return nil, errors.New("unable to parse update manifest: " + err.Error())
	}

	err = manifest.Validate()
	if err != nil {
		return nil, err
	}

	return &manifest, nil
}
