package providers

import (
	"context"
	"fmt"
)

// Load gets a specific provider and initializes it with the provider configuration.
func Load(ctx context.Context, name string, config map[string]string) (Provider, error) {
	var provider Provider

	switch name {
	case "https":
		provider = &https{config: config}
	case "github":
		provider = &github{config: config}
	case "file":
		provider = &file{config: config}
	default:
		return nil, fmt.Errorf("unknown provider %q", name)
	}

	err := provider.load(ctx)
	if err != nil {
		return nil, err
	}

	return provider, nil
}
