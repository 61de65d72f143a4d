package relay

import (
	"encoding/base64"
	"fmt"
	"strings"

	"assistant-backend/internal/llm"
	"assistant-backend/pkg/api"
)

// ValidationError reports a malformed chat request. It is returned before any
// event is written.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "invalid chat request: " + e.Reason
	}
	return fmt.Sprintf("invalid chat request: %s: %s", e.Field, e.Reason)
}

const defaultImagePrompt = "Analyze this image."

type turnInput struct {
	message string
	history []llm.Message
	image   []byte
}

func (in turnInput) imageCount() int {
	n := 0
	if in.image != nil {
		n++
	}
	for _, m := range in.history {
		n += len(m.Images)
	}
	return n
}

// Validate checks a chat request without running it.
func Validate(req api.ChatRequest) error {
	_, err := parseRequest(req)
	return err
}

func parseRequest(req api.ChatRequest) (turnInput, error) {
	var in turnInput

	hasMessage := strings.TrimSpace(req.Message) != ""
	hasImage := strings.TrimSpace(req.Image) != ""
	if !hasMessage && !hasImage {
		return in, &ValidationError{Reason: "message or image is required"}
	}

	in.message = req.Message
	if hasImage {
		img, err := decodeImage(req.Image)
		if err != nil {
			return in, &ValidationError{Field: "image", Reason: err.Error()}
		}
		in.image = img
		if !hasMessage {
			in.message = defaultImagePrompt
		}
	}

	in.history = make([]llm.Message, 0, len(req.History))
	for i, h := range req.History {
		role, err := llm.ParseRole(h.Role)
		if err != nil {
			return in, &ValidationError{Field: fmt.Sprintf("history[%d].role", i), Reason: err.Error()}
		}

		msg := llm.Message{Role: role, Content: h.Content}
		for j, raw := range h.Images {
			img, err := decodeImage(raw)
			if err != nil {
				return in, &ValidationError{Field: fmt.Sprintf("history[%d].images[%d]", i, j), Reason: err.Error()}
			}
			msg.Images = append(msg.Images, img)
		}
		in.history = append(in.history, msg)
	}

	return in, nil
}

// decodeImage accepts raw base64 or a data url such as
// "data:image/png;base64,iVBOR...".
func decodeImage(raw string) ([]byte, error) {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "data:") {
		comma := strings.IndexByte(raw, ',')
		if comma < 0 || !strings.HasSuffix(raw[:comma], ";base64") {
			return nil, fmt.Errorf("unsupported data url")
		}
		raw = raw[comma+1:]
	}

	data, err := base64.StdEncoding.DecodeString(raw)
	if err != nil {
		return nil, fmt.Errorf("image is not valid base64: %w", err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("image is empty")
	}
	return data, nil
}
