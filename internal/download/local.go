package download

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"sync"

	"github.com/google/uuid"

	"github.com/duotasks/companiond/api"
)

// Read from the body in chunks to keep byte counters fresh without
// excessive syscall overhead.
const copyChunkSize = 128 * 1024

// localService is the in-process implementation of the download service.
// Enqueued transfers run on their own goroutine and survive the caller's
// context, matching the fire-and-forget enqueue contract.
type localService struct {
	client *http.Client

	mu    sync.Mutex
	tasks map[string]*localTask
}

type localTask struct {
	id          string
	destination string
	cancel      context.CancelFunc
	signal      chan Completion

	mu              sync.Mutex
	bytesDownloaded int64
	bytesTotal      int64
	status          api.DownloadStatus
	reason          string
}

// NewLocalService returns a download Service running transfers in-process.
// A nil client falls back to http.DefaultClient.
func NewLocalService(client *http.Client) Service {
	if client == nil {
		client = http.DefaultClient
	}

	return &localService{
		client: client,
		tasks:  map[string]*localTask{},
	}
}

func (s *localService) Enqueue(_ context.Context, req Request) (string, error) {
	if req.URL == "" || req.Destination == "" {
		return "", errors.New("download request requires a URL and a destination")
	}

	ctx, cancel := context.WithCancel(context.Background())

	task := &localTask{
		id:          uuid.New().String(),
		destination: req.Destination,
		cancel:      cancel,
		signal:      make(chan Completion, 1),
		status:      api.DownloadStatusPending,
	}

	s.mu.Lock()
	s.tasks[task.id] = task
	s.mu.Unlock()

	go task.run(ctx, s.client, req.URL)

	return task.id, nil
}

func (s *localService) Query(id string) (Snapshot, error) {
	task := s.get(id)
	if task == nil {
		return Snapshot{}, ErrUnknownTask
	}

	task.mu.Lock()
	defer task.mu.Unlock()

	return Snapshot{
		BytesDownloaded: task.bytesDownloaded,
		BytesTotal:      task.bytesTotal,
		Status:          task.status,
		Reason:          task.reason,
	}, nil
}

func (s *localService) Remove(id string) error {
	task := s.get(id)
	if task == nil {
		return ErrUnknownTask
	}

	// Stop the transfer goroutine and record the cancellation.
	task.cancel()
	task.finish(api.DownloadStatusCancelled, "")

	// Clean up any partial file.
	_ = os.Remove(task.destination + ".partial")

	return nil
}

func (s *localService) Subscribe(id string) <-chan Completion {
	task := s.get(id)
	if task == nil {
		// Unknown id, return an already closed channel.
		c := make(chan Completion)
		close(c)

		return c
	}

	return task.signal
}

func (s *localService) Unsubscribe(_ string) {
	// The completion channel is owned by the task itself, nothing to release.
}

func (s *localService) get(id string) *localTask {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.tasks[id]
}

func (t *localTask) run(ctx context.Context, client *http.Client, url string) {
	err := t.transfer(ctx, client, url)
	if err == nil {
		t.finish(api.DownloadStatusSucceeded, "")

		return
	}

	// Clean up the partial file on any failure.
	_ = os.Remove(t.destination + ".partial")

	if errors.Is(err, context.Canceled) {
		t.finish(api.DownloadStatusCancelled, "")

		return
	}

	t.finish(api.DownloadStatusFailed, err.Error())
}

func (t *localTask) transfer(ctx context.Context, client *http.Client, url string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return context.Canceled
		}

		return fmt.Errorf("starting download: %w", err)
	}

	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return errors.New("unexpected HTTP status: " + resp.Status)
	}

	t.mu.Lock()
	if resp.ContentLength > 0 {
		t.bytesTotal = resp.ContentLength
	}

	t.status = api.DownloadStatusRunning
	t.mu.Unlock()

	// Write to a partial file and rename into place once complete, so the
	// destination never holds a truncated artifact.
	partial := t.destination + ".partial"

	fd, err := os.Create(partial)
	if err != nil {
		return fmt.Errorf("creating %s: %w", partial, err)
	}

	for {
		n, err := io.CopyN(fd, resp.Body, copyChunkSize)

		t.mu.Lock()
		t.bytesDownloaded += n
		t.mu.Unlock()

		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}

			_ = fd.Close()

			if ctx.Err() != nil {
				return context.Canceled
			}

			return fmt.Errorf("writing %s: %w", partial, err)
		}
	}

	err = fd.Close()
	if err != nil {
		return fmt.Errorf("closing %s: %w", partial, err)
	}

	err = os.Rename(partial, t.destination)
	if err != nil {
		return fmt.Errorf("finalizing %s: %w", t.destination, err)
	}

	return nil
}

// finish records a terminal status and emits the one-shot completion signal.
// Later calls for an already terminal task are no-ops.
func (t *localTask) finish(status api.DownloadStatus, reason string) {
	t.mu.Lock()

	if t.status.IsTerminal() {
		t.mu.Unlock()

		return
	}

	t.status = status
	t.reason = reason

	if status == api.DownloadStatusSucceeded && t.bytesTotal > 0 {
		t.bytesDownloaded = t.bytesTotal
	}

	t.mu.Unlock()

	t.signal <- Completion{ID: t.id, Status: status, Reason: reason}
}
