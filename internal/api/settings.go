package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"assistant-backend/internal/llm"
	"assistant-backend/internal/settings"
	"assistant-backend/pkg/api"

	"github.com/go-chi/chi/v5"
)

const upstreamCheckTimeout = 5 * time.Second

type SettingsService struct {
	store       *settings.Store
	model       llm.ChatModel
	provider    string
	features    api.Features
	adminSecret string
	startTime   time.Time
}

func NewSettingsService(store *settings.Store, model llm.ChatModel, provider string, features api.Features, adminSecret string) *SettingsService {
	return &SettingsService{
		store:       store,
		model:       model,
		provider:    provider,
		features:    features,
		adminSecret: adminSecret,
		startTime:   time.Now(),
	}
}

func (s *SettingsService) AddRoutes(r chi.Router) {
	r.Get("/status", RestHandler(s.Status))

	r.Route("/models", func(r chi.Router) {
		r.Get("/", RestHandler(s.ListProfiles))
		r.With(AdminAuth(s.adminSecret)).Post("/active", RestHandler(s.SetActiveProfile))
	})

	r.Route("/styles", func(r chi.Router) {
		r.Get("/", RestHandler(s.ListStyles))
		r.Post("/active", RestHandler(s.SetActiveStyle))
	})
}

func (s *SettingsService) Health(r *http.Request) (any, error) {
	return api.HealthResponse{
		Status:    "ok",
		Timestamp: time.Now().UTC(),
		Uptime:    time.Since(s.startTime).Seconds(),
	}, nil
}

func (s *SettingsService) installedModels(ctx context.Context) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, upstreamCheckTimeout)
	defer cancel()
	return s.model.ListModels(ctx)
}

func (s *SettingsService) Status(r *http.Request) (any, error) {
	snap := s.store.Snapshot()

	_, err := s.installedModels(r.Context())
	if err != nil {
		slog.Warn("llm runtime is unreachable", "provider", s.provider, "error", err)
	}

	return api.StatusResponse{
		Status:        "ok",
		Provider:      s.provider,
		ActiveProfile: snap.ProfileName,
		ActiveModel:   snap.Model,
		ActiveStyle:   snap.Style,
		LLMReachable:  err == nil,
		Features:      s.features,
	}, nil
}

// ListProfiles returns the model profiles. Availability is only reported when
// the runtime could be asked for its installed models.
func (s *SettingsService) ListProfiles(r *http.Request) (any, error) {
	snap := s.store.Snapshot()

	installed, err := s.installedModels(r.Context())
	if err != nil {
		slog.Warn("unable to list installed models", "error", err)
	}

	profiles := s.store.Profiles()
	res := api.ModelsResponse{
		Profiles:      make([]api.Profile, 0, len(profiles)),
		ActiveProfile: snap.ProfileName,
		ActiveModel:   snap.Model,
	}
	for _, p := range profiles {
		profile := convertProfile(p)
		if err == nil {
			available := llm.MatchModel(installed, p.ModelID)
			profile.Available = &available
		}
		res.Profiles = append(res.Profiles, profile)
	}

	return res, nil
}

func (s *SettingsService) SetActiveProfile(r *http.Request) (any, error) {
	req, err := ParseRequest[api.SetActiveProfileRequest](r)
	if err != nil {
		return nil, err
	}

	if req.ProfileName == "" {
		return nil, CodedErrorf(http.StatusBadRequest, "profileName is required")
	}

	snap, err := s.store.SetProfile(r.Context(), req.ProfileName)
	if err != nil {
		switch {
		case errors.Is(err, settings.ErrUnknownProfile):
			return nil, CodedErrorf(http.StatusBadRequest, "invalid profile name '%s'", req.ProfileName)
		case errors.Is(err, settings.ErrModelNotInstalled):
			return nil, CodedError(http.StatusNotFound, err)
		default:
			return nil, CodedError(http.StatusBadGateway, fmt.Errorf("unable to verify model with llm runtime: %w", err))
		}
	}

	profile, _ := s.store.Profile(snap.ProfileName)
	return api.SetActiveProfileResponse{
		Message: fmt.Sprintf("Active profile set to %s", snap.ProfileName),
		Profile: convertProfile(profile),
	}, nil
}

func (s *SettingsService) ListStyles(r *http.Request) (any, error) {
	return api.StylesResponse{
		Styles:      s.store.Styles(),
		ActiveStyle: s.store.Snapshot().Style,
	}, nil
}

func (s *SettingsService) SetActiveStyle(r *http.Request) (any, error) {
	req, err := ParseRequest[api.SetActiveStyleRequest](r)
	if err != nil {
		return nil, err
	}

	snap, err := s.store.SetStyle(r.Context(), req.Style)
	if err != nil {
		if errors.Is(err, settings.ErrUnknownStyle) {
			return nil, CodedErrorf(http.StatusBadRequest, "invalid style '%s', available styles: %s", req.Style, strings.Join(s.store.Styles(), ", "))
		}
		return nil, CodedError(http.StatusInternalServerError, err)
	}

	return api.MessageResponse{Message: fmt.Sprintf("Response style set to %s", snap.Style)}, nil
}
