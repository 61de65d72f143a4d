package api

import (
	"encoding/json"
	"log/slog"

	"assistant-backend/internal/database"
	"assistant-backend/internal/settings"
	"assistant-backend/pkg/api"
)

func convertProfile(p settings.Profile) api.Profile {
	return api.Profile{
		Name:        p.Name,
		ModelID:     p.ModelID,
		Description: p.Description,
	}
}

func convertTurn(t database.Turn) api.Turn {
	turn := api.Turn{
		Id:           t.Id,
		Model:        t.Model,
		Style:        t.Style,
		Command:      t.Command,
		Status:       t.Status,
		Message:      t.Message,
		Response:     t.Response,
		Error:        t.Error,
		ChunkCount:   t.ChunkCount,
		DurationMs:   t.DurationMs,
		CreationTime: t.CreationTime,
	}

	if len(t.Suggestions) > 0 {
		if err := json.Unmarshal(t.Suggestions, &turn.Suggestions); err != nil {
			slog.Error("error parsing stored suggestions", "turn_id", t.Id, "error", err)
		}
	}
	if len(t.SearchResults) > 0 {
		if err := json.Unmarshal(t.SearchResults, &turn.SearchResults); err != nil {
			slog.Error("error parsing stored search results", "turn_id", t.Id, "error", err)
		}
	}

	return turn
}

func convertTurns(ts []database.Turn) []api.Turn {
	turns := make([]api.Turn, 0, len(ts))
	for _, t := range ts {
		turns = append(turns, convertTurn(t))
	}
	return turns
}
