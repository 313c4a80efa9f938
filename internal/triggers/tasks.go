package triggers

import (
	"context"
	"log/slog"
	"strings"

	"github.com/duotasks/companiond/api/events"
)

// HandleTaskCreated notifies the non-creator party of a pairing about a new
// task. Lookup misses (missing profile or token) log and return without
// sending anything.
func (h *Handlers) HandleTaskCreated(ctx context.Context, event events.TaskCreated) {
	recipient, ok := otherParty(event.PairingID, event.Task.CreatedByUID)
	if !ok {
		slog.Error("Unable to resolve task recipient", "pairing", event.PairingID, "creator", event.Task.CreatedByUID)

		return
	}

	token, err := h.Profiles.PushToken(ctx, recipient)
	if err != nil {
		slog.Warn("No push token for task recipient", "uid", recipient, "error", err)

		return
	}

	sender := h.displayName(ctx, event.Task.CreatedByUID)

	err = h.Pusher.Send(ctx, token, Notification{
		Title: "New task from " + sender,
		Body:  event.Task.Title,
	})
	if err != nil {
		slog.Error("Unable to deliver task notification", "uid", recipient, "error", err)

		return
	}

	slog.Info("Sent new task notification", "pairing", event.PairingID, "task", event.TaskID, "recipient", recipient)
}

// HandleTaskWritten notifies the task creator when the task transitions to
// completed. Only the false to true transition of the completed field fires
// a notification.
func (h *Handlers) HandleTaskWritten(ctx context.Context, event events.TaskWritten) {
	if event.Before.Completed || !event.After.Completed {
		slog.Debug("Task write is not a completion", "pairing", event.PairingID, "task", event.TaskID)

		return
	}

	recipient := event.After.CreatedByUID
	if recipient == "" {
		slog.Error("Completed task has no creator", "pairing", event.PairingID, "task", event.TaskID)

		return
	}

	token, err := h.Profiles.PushToken(ctx, recipient)
	if err != nil {
		slog.Warn("No push token for task creator", "uid", recipient, "error", err)

		return
	}

	completer := h.displayName(ctx, event.After.CompletedBy)

	err = h.Pusher.Send(ctx, token, Notification{
		Title: "Task completed",
		Body:  completer + " completed \"" + event.After.Title + "\"",
	})
	if err != nil {
		slog.Error("Unable to deliver completion notification", "uid", recipient, "error", err)

		return
	}

	slog.Info("Sent task completion notification", "pairing", event.PairingID, "task", event.TaskID, "recipient", recipient)
}

// displayName resolves a user's display name, falling back to a generic
// label when the profile is missing.
func (h *Handlers) displayName(ctx context.Context, uid string) string {
	if uid == "" {
		return "Your partner"
	}

	name, err := h.Profiles.DisplayName(ctx, uid)
	if err != nil || name == "" {
		return "Your partner"
	}

	return name
}

// otherParty returns the member of a "<uidA>_<uidB>" pairing that isn't the
// given user.
func otherParty(pairingID string, uid string) (string, bool) {
	first, second, found := strings.Cut(pairingID, "_")
	if !found || first == "" || second == "" {
		return "", false
	}

	switch uid {
	case first:
		return second, true
	case second:
		return first, true
	default:
		return "", false
	}
}
