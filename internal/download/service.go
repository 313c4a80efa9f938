// Package download implements the download side of the update workflow: an
// enqueue/query/remove download service and an orchestrator that tracks a
// single active task through polling and a one-shot completion signal.
package download

import (
	"context"
	"errors"

	"github.com/duotasks/companiond/api"
)

// ErrUnknownTask is returned when querying or removing a task id the service
// doesn't know about.
var ErrUnknownTask = errors.New("unknown download task")

// Request describes a transfer handed to the download service.
type Request struct {
	URL         string
	Destination string
	Title       string
	Description string
}

// Snapshot is a point-in-time view of a transfer, as reported by the service.
type Snapshot struct {
	BytesDownloaded int64
	BytesTotal      int64
	Status          api.DownloadStatus

	// Reason carries the failure reason when Status is "failed".
	Reason string
}

// Completion is the one-shot terminal notification for a transfer, keyed by
// the same opaque id returned from Enqueue.
type Completion struct {
	ID     string
	Status api.DownloadStatus
	Reason string
}

// Service is the external download service contract. Enqueue is
// fire-and-forget and returns an opaque id immediately; progress is observed
// through Query and completion is additionally signalled out-of-band through
// the channel returned by Subscribe.
type Service interface {
	Enqueue(ctx context.Context, req Request) (string, error)
	Query(id string) (Snapshot, error)
	Remove(id string) error

	// Subscribe returns a channel delivering the terminal notification for
	// the given id. The signal is buffered, so subscribing after completion
	// still delivers it. Unsubscribe releases the subscription.
	Subscribe(id string) <-chan Completion
	Unsubscribe(id string)
}
