package api

import (
	"errors"
	"net/http"
	"strings"

	"assistant-backend/internal/email"
	"assistant-backend/internal/relay"
	"assistant-backend/internal/search"
	"assistant-backend/pkg/api"

	"github.com/go-chi/chi/v5"
)

// AssistService exposes the auxiliary actions of the chat relay as plain
// request/response endpoints.
type AssistService struct {
	search   search.Provider
	drafter  *email.Drafter
	settings relay.SettingsSource
}

func NewAssistService(searchProvider search.Provider, drafter *email.Drafter, settings relay.SettingsSource) *AssistService {
	return &AssistService{
		search:   searchProvider,
		drafter:  drafter,
		settings: settings,
	}
}

func (s *AssistService) AddRoutes(r chi.Router) {
	r.Route("/search", func(r chi.Router) {
		r.Get("/", RestHandler(s.SearchQuery))
		r.Post("/", RestHandler(s.Search))
	})
	r.Post("/email/draft", RestHandler(s.DraftEmail))
}

func (s *AssistService) runSearch(r *http.Request, query string, count int) (any, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, CodedErrorf(http.StatusBadRequest, "search query is required")
	}

	results := s.search.Search(r.Context(), query, search.ClampCount(count))
	return api.SearchResponse{Query: query, Results: results}, nil
}

func (s *AssistService) Search(r *http.Request) (any, error) {
	req, err := ParseRequest[api.SearchRequest](r)
	if err != nil {
		return nil, err
	}
	return s.runSearch(r, req.Query, req.Count)
}

func (s *AssistService) SearchQuery(r *http.Request) (any, error) {
	params, err := ParseRequestQueryParams[api.SearchParams](r)
	if err != nil {
		return nil, err
	}
	return s.runSearch(r, params.Query, params.Count)
}

func (s *AssistService) DraftEmail(r *http.Request) (any, error) {
	req, err := ParseRequest[api.EmailDraftRequest](r)
	if err != nil {
		return nil, err
	}

	draft, err := s.drafter.Draft(r.Context(), s.settings.Snapshot().Model, email.Request{
		To:          strings.TrimSpace(req.To),
		Subject:     strings.TrimSpace(req.Subject),
		Description: req.Description,
		Style:       req.Style,
	})
	if err != nil {
		if errors.Is(err, email.ErrMissingDescription) {
			return nil, CodedError(http.StatusBadRequest, err)
		}
		return nil, CodedError(http.StatusBadGateway, err)
	}

	return api.EmailDraftResponse{Draft: draft, Formatted: email.Format(draft)}, nil
}
