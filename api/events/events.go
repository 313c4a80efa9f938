// Package events contains the serializable event payloads consumed by the
// backend notification triggers.
package events

// StorageObject represents a finalized blob in the image bucket.
type StorageObject struct {
	Name        string            `json:"name"`
	ContentType string            `json:"contentType"`
	Bucket      string            `json:"bucket"`
	Metadata    map[string]string `json:"metadata"`
}

// Metadata keys expected on uploaded position images.
const (
	MetadataPositionName   = "positionName"
	MetadataOriginalUserID = "originalUserId"
	MetadataIsFavorite     = "isFavorite"
	MetadataIsAsset        = "isAsset"
)

// Position represents a stored position record, keyed by (owner id, name).
type Position struct {
	Name       string `json:"positionName"`
	OwnerID    string `json:"originalUserId"`
	ImageName  string `json:"imageName"`
	IsFavorite bool   `json:"isFavorite"`
	IsAsset    bool   `json:"isAsset"`
}

// Task represents a task record under a paired-users scope.
type Task struct {
	Title        string `json:"title"`
	CreatedByUID string `json:"createdByUid"`
	Completed    bool   `json:"completed"`
	CompletedBy  string `json:"completedBy,omitempty"`
}

// TaskCreated represents a new task added under a pairing.
type TaskCreated struct {
	PairingID string `json:"pairingId"`
	TaskID    string `json:"taskId"`
	Task      Task   `json:"task"`
}

// TaskWritten represents a write to an existing task, with before and after
// snapshots of the record.
type TaskWritten struct {
	PairingID string `json:"pairingId"`
	TaskID    string `json:"taskId"`
	Before    Task   `json:"before"`
	After     Task   `json:"after"`
}
