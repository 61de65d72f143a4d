package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"assistant-backend/pkg/api"
)

// sseWriter writes stream events as server-sent events. Headers are sent with
// the first event, so the status code stays open until then.
type sseWriter struct {
	w       http.ResponseWriter
	rc      *http.ResponseController
	started bool
}

func newSSEWriter(w http.ResponseWriter) *sseWriter {
	return &sseWriter{w: w, rc: http.NewResponseController(w)}
}

func (s *sseWriter) Send(event api.StreamEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("error serializing stream event: %w", err)
	}

	if !s.started {
		h := s.w.Header()
		h.Set("Content-Type", "text/event-stream")
		h.Set("Cache-Control", "no-cache")
		h.Set("Connection", "keep-alive")
		h.Set("X-Accel-Buffering", "no")
		s.w.WriteHeader(http.StatusOK)
		s.started = true
	}

	if _, err := fmt.Fprintf(s.w, "data: %s\n\n", data); err != nil {
		return fmt.Errorf("error writing stream event: %w", err)
	}
	if err := s.rc.Flush(); err != nil {
		return fmt.Errorf("error flushing stream event: %w", err)
	}
	return nil
}

func (s *sseWriter) Started() bool {
	return s.started
}
