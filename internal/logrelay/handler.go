package logrelay

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/hackgods/clinic-appointment-portal/pkg/logging"
)

// Handler writes received entries to the process log and always acknowledges.
func Handler(logger *logging.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var e Entry
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 64<<10)).Decode(&e); err != nil {
			e = Entry{Level: LevelError, Message: "malformed log entry: " + err.Error()}
		}

		context := e.Context
		if context == "" {
			context = "Unknown"
		}
		attrs := []any{
			"timestamp", time.Now().UTC().Format(time.RFC3339Nano),
			"context", context,
			"message", e.Message,
		}
		if e.Stack != "" {
			attrs = append(attrs, "stack", e.Stack)
		}

		switch e.Level {
		case LevelWarn:
			logger.Log(r.Context(), slog.LevelWarn, "[WARN]", attrs...)
		case LevelInfo:
			logger.Log(r.Context(), slog.LevelInfo, "[INFO]", attrs...)
		default:
			logger.Log(r.Context(), slog.LevelError, "[ERROR]", attrs...)
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(map[string]bool{"received": true})
	}
}
