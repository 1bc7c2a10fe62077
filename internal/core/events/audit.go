package events

import (
	"context"
	"log/slog"
)

// RegisterAuditLog subscribes a handler that writes every admin event to
// the audit log.
func RegisterAuditLog(bus *EventBus, logger *slog.Logger) {
	audit := logger.With("component", "audit")
	handler := func(ctx context.Context, event Event) error {
		audit.InfoContext(ctx, "admin event",
			"event_type", event.EventType(),
			"event_id", event.EventID(),
			"occurred_at", event.OccurredAt(),
			"payload", event.Payload())
		return nil
	}

	bus.Subscribe(EventTypePermissionsReplaced, handler)
	bus.Subscribe(EventTypeCategoryChanged, handler)
	bus.Subscribe(EventTypeUserDeactivated, handler)
}
