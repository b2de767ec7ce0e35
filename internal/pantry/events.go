package pantry

import (
	"context"
	"encoding/json"
	"time"

	"github.com/appetiteclub/pantry/pkg/event"
)

// publishExport never fails the request; errors are only logged.
func (h *Handler) publishExport(ctx context.Context, ev event.ExportEvent) {
	if h.publisher == nil {
		return
	}
	if ev.OccurredAt.IsZero() {
		ev.OccurredAt = time.Now().UTC()
	}
	payload, err := json.Marshal(ev)
	if err != nil {
		h.logger.Error("cannot marshal export event", "error", err, "event_type", ev.EventType)
		return
	}
	if err := h.publisher.Publish(ctx, event.ExportsTopic, payload); err != nil {
		h.logger.Error("cannot publish export event", "error", err, "event_type", ev.EventType)
	}
}

func (h *Handler) publishUser(ctx context.Context, ev event.UserEvent) {
	if h.publisher == nil {
		return
	}
	if ev.OccurredAt.IsZero() {
		ev.OccurredAt = time.Now().UTC()
	}
	payload, err := json.Marshal(ev)
	if err != nil {
		h.logger.Error("cannot marshal user event", "error", err, "event_type", ev.EventType)
		return
	}
	if err := h.publisher.Publish(ctx, event.UsersTopic, payload); err != nil {
		h.logger.Error("cannot publish user event", "error", err, "event_type", ev.EventType, "user_id", ev.UserID)
	}
}
