package turnlog

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"assistant-backend/internal/database"
	"assistant-backend/internal/messaging"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Processor drains turn events from a receiver and records them as rows in
// the turns table.
type Processor struct {
	db       *gorm.DB
	receiver messaging.Receiver
	done     chan struct{}
}

func NewProcessor(db *gorm.DB, receiver messaging.Receiver) *Processor {
	return &Processor{
		db:       db,
		receiver: receiver,
		done:     make(chan struct{}),
	}
}

// Start blocks until the receiver's task channel is closed.
func (proc *Processor) Start() {
	slog.Info("starting turn log processor")
	defer close(proc.done)

	for task := range proc.receiver.Tasks() {
		proc.ProcessTask(task)
	}
}

func (proc *Processor) Stop() {
	slog.Info("stopping turn log processor")
	proc.receiver.Close()
}

// Done is closed once Start returns.
func (proc *Processor) Done() <-chan struct{} {
	return proc.done
}

func (proc *Processor) ProcessTask(task messaging.Task) {
	ctx := context.Background()

	var err error
	switch task.Type() {
	case messaging.TurnEventsQueue:
		var payload messaging.TurnCompletedPayload
		if err = json.Unmarshal(task.Payload(), &payload); err != nil {
			slog.Error("error unmarshalling turn event", "error", err)
			if err := task.Reject(); err != nil { // Discard malformed message
				slog.Error("error rejecting message from queue", "error", err)
			}
			return
		}
		err = proc.recordTurn(ctx, payload)

	default:
		slog.Error("received unknown task type", "queue", task.Type())
		if err := task.Reject(); err != nil {
			slog.Error("error rejecting message from queue", "error", err)
		}
		return
	}

	if err != nil {
		slog.Error("error processing task", "queue", task.Type(), "error", err)
		if err := task.Nack(); err != nil {
			slog.Error("error reporting processing failure on message from queue", "error", err)
		}
	} else {
		if err := task.Ack(); err != nil {
			slog.Error("error acknowledging message from queue", "error", err)
		}
	}
}

func (proc *Processor) recordTurn(ctx context.Context, payload messaging.TurnCompletedPayload) error {
	turn, err := ToTurn(payload)
	if err != nil {
		return err
	}

	if err := database.SaveTurn(ctx, proc.db, &turn); err != nil {
		return fmt.Errorf("error saving turn %s: %w", payload.TurnId, err)
	}

	slog.Debug("recorded turn", "turn_id", turn.Id, "command", turn.Command, "status", turn.Status)
	return nil
}

func ToTurn(payload messaging.TurnCompletedPayload) (database.Turn, error) {
	turn := database.Turn{
		Id:           payload.TurnId,
		Model:        payload.Model,
		Style:        payload.Style,
		Command:      payload.Command,
		Status:       payload.Status,
		Message:      payload.Message,
		Response:     payload.Response,
		Error:        payload.Error,
		ImageCount:   payload.ImageCount,
		HistoryCount: payload.HistoryCount,
		ChunkCount:   payload.ChunkCount,
		DurationMs:   payload.DurationMs,
		CreationTime: payload.CreationTime.UTC(),
	}

	if len(payload.Suggestions) > 0 {
		data, err := json.Marshal(payload.Suggestions)
		if err != nil {
			return database.Turn{}, fmt.Errorf("error serializing suggestions: %w", err)
		}
		turn.Suggestions = datatypes.JSON(data)
	}

	if len(payload.SearchResults) > 0 {
		data, err := json.Marshal(payload.SearchResults)
		if err != nil {
			return database.Turn{}, fmt.Errorf("error serializing search results: %w", err)
		}
		turn.SearchResults = datatypes.JSON(data)
	}

	return turn, nil
}
