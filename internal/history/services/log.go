package services

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"statecraft/internal/history/models"
)

// Log is the append-only audit sink.
type Log interface {
	Append(ctx context.Context, event models.Event) error
}

// Record appends event to log without failing the caller. The engine
// treats the audit sink as fire-and-forget; failures are logged only.
func Record(ctx context.Context, log Log, event models.Event) {
	if log == nil {
		return
	}
	if event.Created == 0 {
		event.Created = time.Now().UnixMilli()
	}
	if err := log.Append(ctx, event); err != nil {
		slog.WarnContext(ctx, "Failed to append history event",
			"type", event.Type,
			"title", event.Title,
			"error", err)
	}
}

// Details marshals v for Event.DetailsJSON. Marshal failures yield "{}".
func Details(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		return "{}"
	}
	return string(data)
}
