package messaging

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemoryQueue(t *testing.T) {
	queue := NewInMemoryQueue()

	payload := TurnCompletedPayload{TurnId: uuid.New(), Command: "none", Status: "COMPLETED"}
	require.NoError(t, queue.PublishTurnCompleted(context.Background(), payload))

	task := <-queue.Tasks()
	assert.Equal(t, TurnEventsQueue, task.Type())

	var received TurnCompletedPayload
	require.NoError(t, json.Unmarshal(task.Payload(), &received))
	assert.Equal(t, payload.TurnId, received.TurnId)
	assert.NoError(t, task.Ack())
}

func TestInMemoryQueueDropsWhenFull(t *testing.T) {
	queue := NewInMemoryQueue()

	for i := 0; i < DefaultInMemoryQueueSize; i++ {
		require.NoError(t, queue.PublishTurnCompleted(context.Background(), TurnCompletedPayload{TurnId: uuid.New()}))
	}

	err := queue.PublishTurnCompleted(context.Background(), TurnCompletedPayload{TurnId: uuid.New()})
	assert.ErrorIs(t, err, ErrQueueFull)
}

func TestInMemoryQueueClose(t *testing.T) {
	queue := NewInMemoryQueue()
	queue.Close()
	queue.Close()

	_, ok := <-queue.Tasks()
	assert.False(t, ok)

	assert.Error(t, queue.PublishTurnCompleted(context.Background(), TurnCompletedPayload{}))
}
