package download

import (
	"context"
	"errors"
	"math"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/duotasks/companiond/api"
)

// DefaultPollInterval is how often the orchestrator polls the download
// service for progress.
const DefaultPollInterval = 500 * time.Millisecond

// ErrDownloadActive is returned when starting a download while another one is
// still in flight. Only one task may be active at a time.
var ErrDownloadActive = errors.New("a download is already active")

// ErrNoActiveDownload is returned when cancelling without an active task.
var ErrNoActiveDownload = errors.New("no active download")

// Observer receives progress updates and the single terminal notification
// for a download task.
type Observer interface {
	Progress(state api.DownloadState)
	Done(state api.DownloadState)
}

// Task is the orchestrator-side handle for an active download.
type Task struct {
	ID          string
	Destination string

	observer Observer

	// handled guards the terminal transition: the poll loop and the
	// out-of-band completion signal race, and whichever observes the
	// terminal state first performs cleanup while the other no-ops.
	handled atomic.Bool

	stop     chan struct{}
	stopOnce sync.Once
}

func (t *Task) halt() {
	t.stopOnce.Do(func() { close(t.stop) })
}

// Orchestrator delegates transfers to a download service and tracks the
// lifecycle of the single active task.
type Orchestrator struct {
	service  Service
	interval time.Duration

	mu   sync.Mutex
	task *Task
}

// NewOrchestrator returns an orchestrator polling the given service. A zero
// interval uses DefaultPollInterval.
func NewOrchestrator(service Service, interval time.Duration) *Orchestrator {
	if interval <= 0 {
		interval = DefaultPollInterval
	}

	return &Orchestrator{
		service:  service,
		interval: interval,
	}
}

// Start enqueues the manifest's package for download into targetDir and
// begins tracking it. Any stale file at the destination path is removed
// before enqueueing.
func (o *Orchestrator) Start(ctx context.Context, manifest *api.UpdateManifest, targetDir string, observer Observer) (*Task, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.task != nil {
		return nil, ErrDownloadActive
	}

	destination, err := destinationPath(targetDir, manifest.DownloadURL)
	if err != nil {
		return nil, err
	}

	// Create the target directory.
	err = os.MkdirAll(targetDir, 0o700)
	if err != nil {
		return nil, err
	}

	// Remove any stale artifact at the destination to avoid collisions.
	err = os.Remove(destination)
	if err != nil && !os.IsNotExist(err) {
		return nil, err
	}

	id, err := o.service.Enqueue(ctx, Request{
		URL:         manifest.DownloadURL,
		Destination: destination,
		Title:       "Application update",
		Description: "Version " + manifest.LatestVersionName,
	})
	if err != nil {
		return nil, err
	}

	task := &Task{
		ID:          id,
		Destination: destination,
		observer:    observer,
		stop:        make(chan struct{}),
	}

	o.task = task

	go o.track(task, o.service.Subscribe(id))

	return task, nil
}

// Cancel removes the active task from the download service and stops the
// poll loop. No install is attempted.
func (o *Orchestrator) Cancel() error {
	o.mu.Lock()
	task := o.task
	o.mu.Unlock()

	if task == nil {
		return ErrNoActiveDownload
	}

	_ = o.service.Remove(task.ID)
	task.halt()

	o.finish(task, api.DownloadState{
		ID:          task.ID,
		Destination: task.Destination,
		Status:      api.DownloadStatusCancelled,
		Progress:    -1,
	})

	return nil
}

// track polls the service for progress and watches the out-of-band
// completion signal, whichever reports the terminal state first.
func (o *Orchestrator) track(task *Task, signal <-chan Completion) {
	defer o.service.Unsubscribe(task.ID)

	ticker := time.NewTicker(o.interval)
	defer ticker.Stop()

	lastPercent := -1

	for {
		select {
		case <-task.stop:
			return

		case completion := <-signal:
			o.finish(task, o.terminalState(task, completion.Status, completion.Reason))

			return

		case <-ticker.C:
			snapshot, err := o.service.Query(task.ID)
			if err != nil {
				// The task vanished from the service, treat it as cancelled.
				o.finish(task, api.DownloadState{
					ID:          task.ID,
					Destination: task.Destination,
					Status:      api.DownloadStatusCancelled,
					Progress:    -1,
				})

				return
			}

			if snapshot.Status.IsTerminal() {
				o.finish(task, o.terminalState(task, snapshot.Status, snapshot.Reason))

				return
			}

			if snapshot.Status != api.DownloadStatusRunning {
				continue
			}

			percent := progressPercent(snapshot.BytesDownloaded, snapshot.BytesTotal, snapshot.Status)
			if percent < lastPercent {
				// Never report progress going backwards.
				continue
			}

			lastPercent = percent

			task.observer.Progress(api.DownloadState{
				ID:              task.ID,
				Destination:     task.Destination,
				BytesDownloaded: snapshot.BytesDownloaded,
				BytesTotal:      snapshot.BytesTotal,
				Status:          snapshot.Status,
				Progress:        percent,
			})
		}
	}
}

// finish performs the terminal transition for a task exactly once, no matter
// how many sources observed the terminal state.
func (o *Orchestrator) finish(task *Task, state api.DownloadState) {
	if !task.handled.CompareAndSwap(false, true) {
		return
	}

	task.halt()

	o.mu.Lock()
	if o.task == task {
		o.task = nil
	}
	o.mu.Unlock()

	if state.Status == api.DownloadStatusSucceeded && state.BytesTotal > 0 {
		// Progress only ever reaches 100 on success.
		state.Progress = 100
		task.observer.Progress(state)
	}

	task.observer.Done(state)
}

// terminalState builds the final DownloadState, refreshing byte counters
// from the service when still possible.
func (o *Orchestrator) terminalState(task *Task, status api.DownloadStatus, reason string) api.DownloadState {
	state := api.DownloadState{
		ID:          task.ID,
		Destination: task.Destination,
		Status:      status,
		Reason:      reason,
		Progress:    -1,
	}

	snapshot, err := o.service.Query(task.ID)
	if err == nil {
		state.BytesDownloaded = snapshot.BytesDownloaded
		state.BytesTotal = snapshot.BytesTotal
		state.Progress = progressPercent(snapshot.BytesDownloaded, snapshot.BytesTotal, status)
	}

	return state
}

// progressPercent computes the rounded progress percentage, or -1 when the
// total size is unknown. While the transfer is still running the value is
// capped at 99 so 100 is only ever reported for a successful completion.
func progressPercent(done int64, total int64, status api.DownloadStatus) int {
	if total <= 0 {
		return -1
	}

	percent := int(math.Round(float64(done) / float64(total) * 100))
	if percent > 99 && status != api.DownloadStatusSucceeded {
		percent = 99
	}

	if percent > 100 {
		percent = 100
	}

	return percent
}

// destinationPath derives the deterministic destination file from the
// package URL's file name.
func destinationPath(targetDir string, rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", errors.New("invalid download URL: " + err.Error())
	}

	name := path.Base(u.Path)
	if name == "" || name == "." || name == "/" {
		name = "update.apk"
	}

	return filepath.Join(targetDir, name), nil
}
