// Package providers implements the update manifest providers.
package providers

import (
	"context"

	"github.com/duotasks/companiond/api"
)

// Provider represents a source of update manifests.
type Provider interface {
	Type() string

	// FetchManifest retrieves the current update manifest. It returns either
	// a fully parsed manifest or an error, never a partial result. No
	// retries are performed, the caller decides whether to re-invoke.
	FetchManifest(ctx context.Context) (*api.UpdateManifest, error)

	ClearCache(ctx context.Context) error

	load(ctx context.Context) error
}
