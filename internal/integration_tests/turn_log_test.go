package integrationtests

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	backend "assistant-backend/internal/api"
	"assistant-backend/internal/database"
	"assistant-backend/internal/messaging"
	"assistant-backend/internal/prompts"
	"assistant-backend/internal/relay"
	"assistant-backend/internal/search"
	"assistant-backend/internal/settings"
	"assistant-backend/internal/turnlog"
	"assistant-backend/pkg/api"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const adminSecret = "integration-secret"

func TestTurnLogOverRabbitMQ(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode.")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	db := createDB(t)
	rabbitURL := setupRabbitMQContainer(t, ctx)

	publisher, err := messaging.NewRabbitMQPublisher(rabbitURL)
	require.NoError(t, err)
	t.Cleanup(publisher.Close)

	receiver, err := messaging.NewRabbitMQReceiver(rabbitURL)
	require.NoError(t, err)

	processor := turnlog.NewProcessor(db, receiver)
	go processor.Start()
	t.Cleanup(processor.Stop)

	model := &scriptedModel{chunks: []string{"Hello", ", ", "world!"}, installed: []string{"llama3.2:3b-instruct-fp16"}}
	resolver := prompts.NewResolver(nil)

	store, err := settings.NewStore(ctx, db, model, resolver, settings.DefaultCatalog(), "")
	require.NoError(t, err)

	engine := relay.NewEngine(model, resolver, store, search.NewBingClient("", ""), publisher, relay.DefaultConfig())

	r := chi.NewRouter()
	r.Route("/api", func(r chi.Router) {
		backend.NewChatService(engine).AddRoutes(r)
		backend.NewTurnService(db, adminSecret).AddRoutes(r)
	})

	req := httptest.NewRequest(http.MethodPost, "/api/chat", strings.NewReader(`{"message": "say hello"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.HasSuffix(rec.Body.String(), "\n\n"))
	assert.Equal(t, 4, strings.Count(rec.Body.String(), "data: "))

	var turns []api.Turn
	require.Eventually(t, func() bool {
		if err := httpRequest(r, http.MethodGet, "/api/turns?status=completed", nil, &turns, backend.AdminSecretHeader, adminSecret); err != nil {
			return false
		}
		return len(turns) == 1
	}, 30*time.Second, 200*time.Millisecond)

	assert.Equal(t, "say hello", turns[0].Message)
	assert.Equal(t, "Hello, world!", turns[0].Response)
	assert.Equal(t, database.TurnCompleted, turns[0].Status)
	assert.Equal(t, 3, turns[0].ChunkCount)
	assert.NotEmpty(t, turns[0].Suggestions)

	var turn api.Turn
	require.NoError(t, httpRequest(r, http.MethodGet, "/api/turns/"+turns[0].Id.String(), nil, &turn, backend.AdminSecretHeader, adminSecret))
	assert.Equal(t, turns[0].Id, turn.Id)
}

func TestSettingsPersistOnPostgres(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode.")
	}

	ctx := context.Background()
	db := createDB(t)

	model := &scriptedModel{installed: []string{"gemma3:27b-it-q4_K_M"}}
	resolver := prompts.NewResolver(nil)

	store, err := settings.NewStore(ctx, db, model, resolver, settings.DefaultCatalog(), "")
	require.NoError(t, err)

	_, err = store.SetProfile(ctx, "KYNSEY Vision")
	require.NoError(t, err)
	_, err = store.SetStyle(ctx, "professional")
	require.NoError(t, err)

	restored, err := settings.NewStore(ctx, db, model, resolver, settings.DefaultCatalog(), "")
	require.NoError(t, err)
	assert.Equal(t, settings.Snapshot{
		ProfileName: "KYNSEY Vision",
		Model:       "gemma3:27b-it-q4_K_M",
		Style:       "professional",
	}, restored.Snapshot())
}
