package messaging

import (
	"context"
	"errors"
	"time"

	"assistant-backend/pkg/api"

	"github.com/google/uuid"
)

const (
	TurnEventsQueue = "turn_events"
	RetryDelay      = 5 * time.Second
	MaxConnectRetry = 5
)

var ErrQueueFull = errors.New("queue is full")

type Task interface {
	Type() string

	Payload() []byte

	Ack() error

	Nack() error

	Reject() error
}

// TurnCompletedPayload describes a chat turn after its terminal event was sent.
type TurnCompletedPayload struct {
	TurnId  uuid.UUID
	Model   string
	Style   string
	Command string
	Status  string

	Message  string
	Response string
	Error    string

	Suggestions   []string
	SearchResults []api.SearchResult

	ImageCount   int
	HistoryCount int
	ChunkCount   int
	DurationMs   int64

	CreationTime time.Time
}

type Publisher interface {
	PublishTurnCompleted(ctx context.Context, payload TurnCompletedPayload) error

	Close()
}

type Receiver interface {
	Tasks() <-chan Task

	Close()
}
