package triggers

import (
	"context"
	"errors"
	"log/slog"
	"net/url"
	"strings"

	"github.com/duotasks/companiond/api/events"
)

// HandlePositionDeleted removes the image blob referenced by a deleted
// position record. A blob that's already gone is tolerated silently and an
// unrecognized image reference is logged and skipped.
func (h *Handlers) HandlePositionDeleted(ctx context.Context, position events.Position) {
	if position.ImageName == "" {
		slog.Debug("Deleted position has no image reference", "position", position.Name)

		return
	}

	name, err := ParseObjectName(position.ImageName)
	if err != nil {
		slog.Error("Unable to parse image reference of deleted position", "position", position.Name, "reference", position.ImageName, "error", err)

		return
	}

	err = h.Blobs.Delete(ctx, name)
	if err != nil {
		// The blob may have been cleaned up already.
		if err == ErrNotFound {
			slog.Debug("Image blob already deleted", "name", name)

			return
		}

		slog.Error("Unable to delete image blob", "name", name, "error", err)

		return
	}

	slog.Info("Deleted image blob of removed position", "position", position.Name, "name", name)
}

// ParseObjectName extracts the blob object name from a stored image
// reference. Two URL shapes are supported: "gs://<bucket>/<object>" and
// download URLs of the form ".../b/<bucket>/o/<url-encoded object>".
func ParseObjectName(reference string) (string, error) {
	u, err := url.Parse(reference)
	if err != nil {
		return "", errors.New("invalid image reference: " + err.Error())
	}

	if u.Scheme == "gs" {
		name := strings.TrimPrefix(u.Path, "/")
		if name == "" {
			return "", errors.New("image reference is missing the object name")
		}

		return name, nil
	}

	if u.Scheme == "http" || u.Scheme == "https" {
		// Download URLs carry the url-encoded object name after the
		// "/o/" path segment.
		_, escaped, found := strings.Cut(u.EscapedPath(), "/o/")
		if !found || escaped == "" {
			return "", errors.New("image reference is missing the object segment")
		}

		name, err := url.PathUnescape(escaped)
		if err != nil {
			return "", errors.New("invalid object segment encoding: " + err.Error())
		}

		return name, nil
	}

	return "", errors.New("unrecognized image reference scheme '" + u.Scheme + "'")
}
