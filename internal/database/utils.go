package database

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// LoadAppState returns the persisted settings, or nil if none were saved yet.
func LoadAppState(ctx context.Context, txn *gorm.DB) (*AppState, error) {
	var state AppState
	err := txn.WithContext(ctx).Where("scope = ?", SettingsScope).First(&state).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		slog.Error("error loading app state", "error", err)
		return nil, err
	}
	return &state, nil
}

func SaveAppState(ctx context.Context, txn *gorm.DB, state AppState) error {
	state.Scope = SettingsScope
	state.UpdateTime = time.Now().UTC()

	err := txn.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "scope"}},
		UpdateAll: true,
	}).Create(&state).Error
	if err != nil {
		slog.Error("error saving app state", "error", err)
		return err
	}
	return nil
}

func SaveTurn(ctx context.Context, txn *gorm.DB, turn *Turn) error {
	if err := txn.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(turn).Error; err != nil {
		slog.Error("error saving turn", "turn_id", turn.Id, "error", err)
		return err
	}
	return nil
}

type TurnFilter struct {
	Status  string
	Command string
	Limit   int
	Offset  int
}

const (
	DefaultTurnLimit = 50
	MaxTurnLimit     = 500
)

func ListTurns(ctx context.Context, txn *gorm.DB, filter TurnFilter) ([]Turn, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = DefaultTurnLimit
	}
	limit = min(limit, MaxTurnLimit)

	query := txn.WithContext(ctx).Order("creation_time DESC").Limit(limit).Offset(max(filter.Offset, 0))
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.Command != "" {
		query = query.Where("command = ?", filter.Command)
	}

	var turns []Turn
	if err := query.Find(&turns).Error; err != nil {
		slog.Error("error listing turns", "error", err)
		return nil, err
	}
	return turns, nil
}

func GetTurn(ctx context.Context, txn *gorm.DB, id uuid.UUID) (Turn, error) {
	var turn Turn
	err := txn.WithContext(ctx).First(&turn, "id = ?", id).Error
	return turn, err
}
