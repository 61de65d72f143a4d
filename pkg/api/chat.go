package api

type HistoryMessage struct {
	Role    string   `json:"role"`
	Content string   `json:"content"`
	Images  []string `json:"images,omitempty"`
}

type ChatRequest struct {
	Message       string           `json:"message,omitempty"`
	History       []HistoryMessage `json:"history,omitempty"`
	ResponseStyle string           `json:"responseStyle,omitempty"`
	Image         string           `json:"image,omitempty"`
}

type SearchResult struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Snippet string `json:"snippet"`
}

type EmailDraft struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// StreamEvent is one "data:" frame of the chat stream. Partial events carry a
// single delta in Response; the terminal event has Done set and carries either
// the full response text or Error.
type StreamEvent struct {
	Response      string         `json:"response"`
	Error         string         `json:"error,omitempty"`
	Done          bool           `json:"done"`
	Suggestions   []string       `json:"suggestions,omitempty"`
	SearchResults []SearchResult `json:"searchResults,omitempty"`
	EmailDraft    *EmailDraft    `json:"emailDraft,omitempty"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

type SearchRequest struct {
	Query string `json:"query"`
	Count int    `json:"count,omitempty"`
}

type SearchParams struct {
	Query string `schema:"q,required"`
	Count int    `schema:"count"`
}

type SearchResponse struct {
	Query   string         `json:"query"`
	Results []SearchResult `json:"results"`
}

type EmailDraftRequest struct {
	To          string `json:"to,omitempty"`
	Subject     string `json:"subject,omitempty"`
	Description string `json:"content"`
	Style       string `json:"style,omitempty"`
}

type EmailDraftResponse struct {
	Draft     EmailDraft `json:"draft"`
	Formatted string     `json:"formatted"`
}
