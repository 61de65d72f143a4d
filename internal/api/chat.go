package api

import (
	"errors"
	"log/slog"
	"net/http"

	"assistant-backend/internal/relay"
	"assistant-backend/pkg/api"

	"github.com/go-chi/chi/v5"
)

type ChatService struct {
	engine *relay.Engine
}

func NewChatService(engine *relay.Engine) *ChatService {
	return &ChatService{engine: engine}
}

func (s *ChatService) AddRoutes(r chi.Router) {
	r.Post("/chat", s.Chat)
}

// Chat streams one chat turn as server-sent events. Failures before the
// first event are reported as a json error with a regular status code.
func (s *ChatService) Chat(w http.ResponseWriter, r *http.Request) {
	req, err := ParseRequest[api.ChatRequest](r)
	if err != nil {
		WriteError(w, err)
		return
	}

	sink := newSSEWriter(w)
	outcome, err := s.engine.Run(r.Context(), req, sink)
	if err == nil {
		return
	}

	if sink.Started() || r.Context().Err() != nil {
		slog.Info("chat stream ended without terminal event", "turn_id", outcome.TurnID, "state", outcome.State, "error", err)
		return
	}

	var verr *relay.ValidationError
	if errors.As(err, &verr) {
		WriteJsonResponse(w, http.StatusBadRequest, api.ErrorResponse{Error: verr.Error()})
		return
	}

	WriteJsonResponse(w, http.StatusBadGateway, api.ErrorResponse{
		Error:   "error communicating with llm runtime",
		Details: err.Error(),
	})
}
