// Package triggers implements the backend notification triggers: four
// independent, stateless reactions to storage and record events. Every
// handler fails soft: lookup misses and delivery errors are logged and the
// handler returns normally.
package triggers

import (
	"context"
	"errors"

	"github.com/duotasks/companiond/api/events"
)

// ErrNotFound is returned by stores when the requested entry doesn't exist.
var ErrNotFound = errors.New("not found")

// Notification is a push message delivered to a single device.
type Notification struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

// PositionStore persists position records keyed by (owner id, name).
type PositionStore interface {
	// UpsertPosition creates or replaces the record for the position's
	// (owner id, name) key. Duplicate deliveries of the same event must
	// converge on a single record.
	UpsertPosition(ctx context.Context, position events.Position) error
}

// BlobStore deletes uploaded blobs by object name.
type BlobStore interface {
	// Delete removes the named blob, returning ErrNotFound when it's
	// already gone.
	Delete(ctx context.Context, name string) error
}

// ProfileStore resolves user profile attributes.
type ProfileStore interface {
	// PushToken returns the push token registered for the user, or
	// ErrNotFound when the user has no profile or token.
	PushToken(ctx context.Context, uid string) (string, error)

	// DisplayName returns the user's display name, or ErrNotFound.
	DisplayName(ctx context.Context, uid string) (string, error)
}

// Pusher delivers push notifications.
type Pusher interface {
	Send(ctx context.Context, token string, notification Notification) error
}

// Handlers bundles the stores the triggers operate on.
type Handlers struct {
	Positions PositionStore
	Blobs     BlobStore
	Profiles  ProfileStore
	Pusher    Pusher
}
