package stream

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/dmorgan81/neurophoto/internal/log"
)

// SSEWriter writes events as server-sent events, one "data:" line per event.
type SSEWriter struct {
	w       http.ResponseWriter
	flusher http.Flusher
}

func NewSSEWriter(w http.ResponseWriter) *SSEWriter {
	h := w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	flusher, _ := w.(http.Flusher)
	return &SSEWriter{w: w, flusher: flusher}
}

func (s *SSEWriter) Write(e Event) error {
	data, err := json.Marshal(e)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(s.w, "data: %s\n\n", data); err != nil {
		return err
	}
	if s.flusher != nil {
		s.flusher.Flush()
	}
	return nil
}

// Emitter adapts Write to Controller.Run. Write failures are logged and
// otherwise ignored.
func (s *SSEWriter) Emitter(ctx context.Context) func(Event) {
	log := log.FromContextOrDiscard(ctx).WithGroup("sse")
	return func(e Event) {
		if err := s.Write(e); err != nil {
			log.Warn("writing event", "type", e.Type, "err", err)
		}
	}
}
