package api

import (
	"errors"
)

// DownloadStatus represents the lifecycle status of a download task.
type DownloadStatus string

const (
	// DownloadStatusPending indicates the task was enqueued but hasn't started transferring yet.
	DownloadStatusPending DownloadStatus = "pending"

	// DownloadStatusRunning indicates the transfer is in progress.
	DownloadStatusRunning DownloadStatus = "running"

	// DownloadStatusSucceeded indicates the transfer finished successfully.
	DownloadStatusSucceeded DownloadStatus = "succeeded"

	// DownloadStatusFailed indicates the transfer ended in an error.
	DownloadStatusFailed DownloadStatus = "failed"

	// DownloadStatusCancelled indicates the task was removed before completing.
	DownloadStatusCancelled DownloadStatus = "cancelled"
)

// DownloadStatuses is a map of the supported download statuses.
var DownloadStatuses = map[DownloadStatus]struct{}{
	DownloadStatusPending:   {},
	DownloadStatusRunning:   {},
	DownloadStatusSucceeded: {},
	DownloadStatusFailed:    {},
	DownloadStatusCancelled: {},
}

func (s DownloadStatus) String() string {
	return string(s)
}

// IsTerminal reports whether the status is a final one for a task.
func (s DownloadStatus) IsTerminal() bool {
	return s == DownloadStatusSucceeded || s == DownloadStatusFailed || s == DownloadStatusCancelled
}

// MarshalText implements the encoding.TextMarshaler interface.
func (s DownloadStatus) MarshalText() ([]byte, error) {
	return []byte(s), nil
}

// UnmarshalText implements the encoding.TextUnmarshaler interface.
func (s *DownloadStatus) UnmarshalText(text []byte) error {
	status := DownloadStatus(text)

	_, ok := DownloadStatuses[status]
	if !ok {
		return errors.New("invalid download status '" + string(text) + "'")
	}

	*s = status

	return nil
}

// DownloadState is a point-in-time view of the active download task.
type DownloadState struct {
	ID              string         `json:"id"`
	Destination     string         `json:"destination"`
	BytesDownloaded int64          `json:"bytes_downloaded"`
	BytesTotal      int64          `json:"bytes_total"`
	Status          DownloadStatus `json:"status"`

	// Progress is the percentage completed, or -1 when the total size is unknown.
	Progress int `json:"progress"`

	// Reason carries the provider failure reason when Status is "failed".
	Reason string `json:"reason,omitempty"`
}
