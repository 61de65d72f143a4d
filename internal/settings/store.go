package settings

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"assistant-backend/internal/database"
	"assistant-backend/internal/llm"
	"assistant-backend/internal/prompts"

	"gorm.io/gorm"
)

// Snapshot is an immutable copy of the active settings. A chat turn takes one
// snapshot when it starts and uses it until it ends.
type Snapshot struct {
	ProfileName string
	Model       string
	Style       string
}

var (
	ErrUnknownProfile    = errors.New("unknown profile")
	ErrModelNotInstalled = errors.New("model not installed")
	ErrUnknownStyle      = errors.New("unknown style")
)

// Store owns the process wide settings. Reads are lock free; writers are
// serialized and persist before publishing the new snapshot.
type Store struct {
	db       *gorm.DB
	models   llm.ChatModel
	styles   *prompts.Resolver
	profiles []Profile

	mu      sync.Mutex
	current atomic.Pointer[Snapshot]
}

// NewStore restores the persisted settings, replacing any profile or style
// that is no longer in the catalog with the defaults.
func NewStore(ctx context.Context, db *gorm.DB, models llm.ChatModel, styles *prompts.Resolver, catalog Catalog, defaultProfile string) (*Store, error) {
	if len(catalog.Profiles) == 0 {
		catalog = DefaultCatalog()
	}

	s := &Store{
		db:       db,
		models:   models,
		styles:   styles,
		profiles: catalog.Profiles,
	}

	fallback, ok := s.Profile(defaultProfile)
	if !ok {
		if defaultProfile != "" {
			slog.Warn("default profile not in catalog, using first profile", "profile", defaultProfile)
		}
		fallback = s.profiles[0]
	}

	state, err := database.LoadAppState(ctx, db)
	if err != nil {
		return nil, fmt.Errorf("error loading settings: %w", err)
	}

	snap := Snapshot{ProfileName: fallback.Name, Model: fallback.ModelID, Style: prompts.DefaultStyle}
	if state != nil {
		if p, ok := s.Profile(state.ActiveProfile); ok {
			snap.ProfileName, snap.Model = p.Name, p.ModelID
		} else {
			slog.Warn("persisted profile not in catalog, using default", "profile", state.ActiveProfile, "default", fallback.Name)
		}
		if styles.Has(state.ActiveStyle) {
			snap.Style = prompts.NormalizeStyle(state.ActiveStyle)
		}
	}

	if state == nil || state.ActiveProfile != snap.ProfileName || state.ActiveModel != snap.Model || state.ActiveStyle != snap.Style {
		if err := s.persist(ctx, snap); err != nil {
			return nil, err
		}
	}

	s.current.Store(&snap)
	slog.Info("loaded settings", "profile", snap.ProfileName, "model", snap.Model, "style", snap.Style)

	return s, nil
}

func (s *Store) Snapshot() Snapshot {
	return *s.current.Load()
}

func (s *Store) Profiles() []Profile {
	return append([]Profile(nil), s.profiles...)
}

func (s *Store) Profile(name string) (Profile, bool) {
	for _, p := range s.profiles {
		if p.Name == name {
			return p, true
		}
	}
	return Profile{}, false
}

func (s *Store) Styles() []string {
	return s.styles.Styles()
}

// SetProfile activates the named profile after checking that the runtime has
// its model installed.
func (s *Store) SetProfile(ctx context.Context, name string) (Snapshot, error) {
	profile, ok := s.Profile(name)
	if !ok {
		return Snapshot{}, fmt.Errorf("%w: %s", ErrUnknownProfile, name)
	}

	installed, err := llm.HasModel(ctx, s.models, profile.ModelID)
	if err != nil {
		return Snapshot{}, fmt.Errorf("error checking model %s: %w", profile.ModelID, err)
	}
	if !installed {
		return Snapshot{}, fmt.Errorf("%w: %s", ErrModelNotInstalled, profile.ModelID)
	}

	return s.update(ctx, func(snap *Snapshot) {
		snap.ProfileName = profile.Name
		snap.Model = profile.ModelID
	})
}

func (s *Store) SetStyle(ctx context.Context, style string) (Snapshot, error) {
	if !s.styles.Has(style) {
		return Snapshot{}, fmt.Errorf("%w: %s", ErrUnknownStyle, style)
	}

	return s.update(ctx, func(snap *Snapshot) {
		snap.Style = prompts.NormalizeStyle(style)
	})
}

func (s *Store) update(ctx context.Context, apply func(*Snapshot)) (Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := *s.current.Load()
	apply(&next)

	if err := s.persist(ctx, next); err != nil {
		return Snapshot{}, err
	}

	s.current.Store(&next)
	slog.Info("updated settings", "profile", next.ProfileName, "model", next.Model, "style", next.Style)
	return next, nil
}

func (s *Store) persist(ctx context.Context, snap Snapshot) error {
	err := database.SaveAppState(ctx, s.db, database.AppState{
		ActiveProfile: snap.ProfileName,
		ActiveModel:   snap.Model,
		ActiveStyle:   snap.Style,
	})
	if err != nil {
		return fmt.Errorf("error saving settings: %w", err)
	}
	return nil
}
