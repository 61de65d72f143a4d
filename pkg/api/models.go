package api

import (
	"time"

	"github.com/google/uuid"
)

type Profile struct {
	Name        string `json:"name"`
	ModelID     string `json:"modelId"`
	Description string `json:"description,omitempty"`
	Available   *bool  `json:"available,omitempty"`
}

type ModelsResponse struct {
	Profiles      []Profile `json:"profiles"`
	ActiveProfile string    `json:"activeProfile"`
	ActiveModel   string    `json:"activeModel"`
}

type SetActiveProfileRequest struct {
	ProfileName string `json:"profileName"`
}

type SetActiveProfileResponse struct {
	Message string  `json:"message"`
	Profile Profile `json:"profile"`
}

type StylesResponse struct {
	Styles      []string `json:"availableStyles"`
	ActiveStyle string   `json:"activeStyle"`
}

type SetActiveStyleRequest struct {
	Style string `json:"styleName"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

type HealthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Uptime    float64   `json:"uptime"`
}

type Features struct {
	CommandDispatch bool `json:"commandDispatch"`
	WebSearch       bool `json:"webSearch"`
	EmailDrafting   bool `json:"emailDrafting"`
	ImageInput      bool `json:"imageInput"`
}

type StatusResponse struct {
	Status        string   `json:"status"`
	Provider      string   `json:"provider"`
	ActiveProfile string   `json:"activeProfile"`
	ActiveModel   string   `json:"activeModel"`
	ActiveStyle   string   `json:"activeStyle"`
	LLMReachable  bool     `json:"llmReachable"`
	Features      Features `json:"features"`
}

type Turn struct {
	Id            uuid.UUID      `json:"id"`
	Model         string         `json:"model"`
	Style         string         `json:"style"`
	Command       string         `json:"command"`
	Status        string         `json:"status"`
	Message       string         `json:"message"`
	Response      string         `json:"response"`
	Error         string         `json:"error,omitempty"`
	Suggestions   []string       `json:"suggestions,omitempty"`
	SearchResults []SearchResult `json:"searchResults,omitempty"`
	ChunkCount    int            `json:"chunkCount"`
	DurationMs    int64          `json:"durationMs"`
	CreationTime  time.Time      `json:"creationTime"`
}

type ListTurnsParams struct {
	Limit   int    `schema:"limit"`
	Offset  int    `schema:"offset"`
	Status  string `schema:"status"`
	Command string `schema:"command"`
}
