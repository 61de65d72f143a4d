package email

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"assistant-backend/internal/llm"
	"assistant-backend/internal/prompts"
	"assistant-backend/pkg/api"
)

const (
	RecipientPlaceholder = "[Recipient]"
	SubjectPlaceholder   = "[Please specify subject]"
	DefaultStyle         = "professional"
)

var styles = map[string]string{
	"professional": "formal and business-appropriate",
	"casual":       "friendly and conversational",
	"concise":      "brief and to the point",
	"persuasive":   "compelling and action-oriented",
}

// Tone returns the prompt wording for an email style, falling back to the
// professional tone for unknown styles.
func Tone(style string) string {
	if tone, ok := styles[strings.ToLower(strings.TrimSpace(style))]; ok {
		return tone
	}
	return styles[DefaultStyle]
}

func Styles() map[string]string {
	out := make(map[string]string, len(styles))
	for k, v := range styles {
		out[k] = v
	}
	return out
}

type Request struct {
	To          string
	Subject     string
	Description string
	Style       string
}

var ErrMissingDescription = errors.New("email content description is required")

type Drafter struct {
	llm         llm.ChatModel
	temperature float64
}

func NewDrafter(model llm.ChatModel, temperature float64) *Drafter {
	return &Drafter{llm: model, temperature: temperature}
}

// Draft asks the model for a complete email and extracts its header fields.
// Only a failed model call is an error; unparseable output still yields a
// draft.
func (d *Drafter) Draft(ctx context.Context, model string, req Request) (api.EmailDraft, error) {
	if strings.TrimSpace(req.Description) == "" {
		return api.EmailDraft{}, ErrMissingDescription
	}

	to := req.To
	if to == "" {
		to = RecipientPlaceholder
	}
	subject := req.Subject
	if subject == "" {
		subject = SubjectPlaceholder
	}

	text, err := d.llm.Complete(ctx, llm.Request{
		Model: model,
		Messages: []llm.Message{
			{Role: llm.RoleSystem, Content: prompts.EmailSystemPrompt(Tone(req.Style))},
			{Role: llm.RoleUser, Content: prompts.EmailUserPrompt(to, subject, req.Description)},
		},
		Temperature: d.temperature,
	})
	if err != nil {
		return api.EmailDraft{}, fmt.Errorf("failed to generate email: %w", err)
	}

	return ParseDraft(text, req.To, req.Subject), nil
}

var headerLine = regexp.MustCompile(`(?i)^(to|subject):(.*)$`)

// ParseDraft reads the "To:" and "Subject:" lines that open generated text,
// in either order. One introductory line ending in a colon may precede them.
// The body is everything after the last header, or the whole text when the
// text does not open with headers.
func ParseDraft(text, defaultTo, defaultSubject string) api.EmailDraft {
	draft := api.EmailDraft{To: defaultTo, Subject: defaultSubject}
	if draft.To == "" {
		draft.To = RecipientPlaceholder
	}

	lines := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")

	next := func(i int) int {
		for i < len(lines) && strings.TrimSpace(lines[i]) == "" {
			i++
		}
		return i
	}
	isHeader := func(i int) bool {
		return i < len(lines) && headerLine.MatchString(strings.TrimSpace(lines[i]))
	}

	i := next(0)
	if i < len(lines) && !isHeader(i) && strings.HasSuffix(strings.TrimSpace(lines[i]), ":") && isHeader(next(i+1)) {
		i = next(i + 1)
	}

	bodyStart := -1
	for isHeader(i) {
		m := headerLine.FindStringSubmatch(strings.TrimSpace(lines[i]))
		if v := strings.TrimSpace(m[2]); v != "" {
			if strings.EqualFold(m[1], "to") {
				draft.To = v
			} else {
				draft.Subject = v
			}
		}
		bodyStart = i + 1
		i = next(i + 1)
	}

	if bodyStart < 0 {
		draft.Body = strings.TrimSpace(text)
	} else {
		draft.Body = strings.TrimSpace(strings.Join(lines[bodyStart:], "\n"))
	}

	return draft
}

func Format(d api.EmailDraft) string {
	return strings.TrimSpace(fmt.Sprintf("To: %s\nSubject: %s\n\n%s", d.To, d.Subject, d.Body))
}
