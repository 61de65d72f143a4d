package api

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"assistant-backend/internal/database"
	"assistant-backend/pkg/api"

	"github.com/go-chi/chi/v5"
	"gorm.io/gorm"
)

// TurnService serves the turn log written by the turn log processor.
type TurnService struct {
	db          *gorm.DB
	adminSecret string
}

func NewTurnService(db *gorm.DB, adminSecret string) *TurnService {
	return &TurnService{db: db, adminSecret: adminSecret}
}

func (s *TurnService) AddRoutes(r chi.Router) {
	r.Route("/turns", func(r chi.Router) {
		r.Use(AdminAuth(s.adminSecret))
		r.Get("/", RestHandler(s.ListTurns))
		r.Get("/{turn_id}", RestHandler(s.GetTurn))
	})
}

func (s *TurnService) ListTurns(r *http.Request) (any, error) {
	params, err := ParseRequestQueryParams[api.ListTurnsParams](r)
	if err != nil {
		return nil, err
	}

	if params.Limit < 0 || params.Offset < 0 {
		return nil, CodedErrorf(http.StatusBadRequest, "limit and offset must not be negative")
	}

	turns, err := database.ListTurns(r.Context(), s.db, database.TurnFilter{
		Status:  strings.ToUpper(params.Status),
		Command: strings.ToLower(params.Command),
		Limit:   params.Limit,
		Offset:  params.Offset,
	})
	if err != nil {
		return nil, CodedErrorf(http.StatusInternalServerError, "error listing turns")
	}

	return convertTurns(turns), nil
}

func (s *TurnService) GetTurn(r *http.Request) (any, error) {
	turnId, err := URLParamUUID(r, "turn_id")
	if err != nil {
		return nil, err
	}

	turn, err := database.GetTurn(r.Context(), s.db, turnId)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, CodedErrorf(http.StatusNotFound, "turn not found")
		}
		slog.Error("error getting turn", "turn_id", turnId, "error", err)
		return nil, CodedErrorf(http.StatusInternalServerError, "error retrieving turn record")
	}

	return convertTurn(turn), nil
}
