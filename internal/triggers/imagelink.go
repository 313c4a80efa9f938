package triggers

import (
	"context"
	"log/slog"
	"strings"

	"github.com/duotasks/companiond/api/events"
)

// positionPrefix is the bucket path prefix holding position images.
const positionPrefix = "positions/"

// HandleObjectFinalized links a finalized image blob to its position record.
// The record is upserted keyed by (owner id, name) so duplicate deliveries
// converge on a single record. On any metadata or validation failure the
// orphaned blob is deleted.
func (h *Handlers) HandleObjectFinalized(ctx context.Context, object events.StorageObject) {
	// Only react to image uploads under the positions prefix.
	if !strings.HasPrefix(object.Name, positionPrefix) {
		slog.Debug("Ignoring blob outside the positions prefix", "name", object.Name)

		return
	}

	if !strings.HasPrefix(object.ContentType, "image/") {
		slog.Debug("Ignoring non-image blob", "name", object.Name, "content_type", object.ContentType)

		return
	}

	name := object.Metadata[events.MetadataPositionName]
	owner := object.Metadata[events.MetadataOriginalUserID]

	if name == "" || owner == "" {
		slog.Error("Uploaded image is missing position metadata", "name", object.Name)

		h.deleteOrphan(ctx, object.Name)

		return
	}

	position := events.Position{
		Name:       name,
		OwnerID:    owner,
		ImageName:  object.Name,
		IsFavorite: object.Metadata[events.MetadataIsFavorite] == "true",
		IsAsset:    object.Metadata[events.MetadataIsAsset] == "true",
	}

	err := h.Positions.UpsertPosition(ctx, position)
	if err != nil {
		slog.Error("Unable to link image to position record", "name", object.Name, "owner", owner, "error", err)

		h.deleteOrphan(ctx, object.Name)

		return
	}

	slog.Info("Linked image to position record", "position", name, "owner", owner)
}

// deleteOrphan removes a blob that couldn't be linked to a record.
func (h *Handlers) deleteOrphan(ctx context.Context, name string) {
	err := h.Blobs.Delete(ctx, name)
	if err != nil && err != ErrNotFound {
		slog.Error("Unable to delete orphaned blob", "name", name, "error", err)
	}
}
