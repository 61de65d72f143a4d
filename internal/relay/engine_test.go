package relay

import (
	"context"
	"encoding/base64"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"assistant-backend/internal/commands"
	"assistant-backend/internal/database"
	"assistant-backend/internal/llm"
	"assistant-backend/internal/messaging"
	"assistant-backend/internal/prompts"
	"assistant-backend/internal/search"
	"assistant-backend/internal/settings"
	"assistant-backend/pkg/api"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeModel struct {
	chunks      []string
	streamErr   error // returned after all chunks are sent
	completion  string
	completeErr error
	// When set, Stream blocks after sending chunks until ctx is done.
	hang bool

	mu        sync.Mutex
	requests  []llm.Request
	completes []llm.Request
}

func (m *fakeModel) Stream(ctx context.Context, req llm.Request, fn llm.StreamFunc) (string, error) {
	m.mu.Lock()
	m.requests = append(m.requests, req)
	m.mu.Unlock()

	var full strings.Builder
	for _, c := range m.chunks {
		if err := ctx.Err(); err != nil {
			return full.String(), err
		}
		if err := fn(ctx, c); err != nil {
			return full.String(), err
		}
		full.WriteString(c)
	}
	if m.hang {
		<-ctx.Done()
		return full.String(), ctx.Err()
	}
	return full.String(), m.streamErr
}

func (m *fakeModel) Complete(ctx context.Context, req llm.Request) (string, error) {
	m.mu.Lock()
	m.completes = append(m.completes, req)
	m.mu.Unlock()
	if m.hang {
		<-ctx.Done()
		return "", ctx.Err()
	}
	return m.completion, m.completeErr
}

func (m *fakeModel) ListModels(ctx context.Context) ([]string, error) {
	return nil, nil
}

type recordingSink struct {
	events  []api.StreamEvent
	failAt  int // Send fails on this call number (1 based); 0 never fails
	onSend  func(n int)
	started bool
}

func (s *recordingSink) Send(event api.StreamEvent) error {
	n := len(s.events) + 1
	if s.failAt > 0 && n >= s.failAt {
		s.started = true
		return errors.New("write: broken pipe")
	}
	s.started = true
	s.events = append(s.events, event)
	if s.onSend != nil {
		s.onSend(n)
	}
	return nil
}

func (s *recordingSink) Started() bool {
	return s.started
}

func (s *recordingSink) partials() []api.StreamEvent {
	var out []api.StreamEvent
	for _, e := range s.events {
		if !e.Done {
			out = append(out, e)
		}
	}
	return out
}

func (s *recordingSink) terminals() []api.StreamEvent {
	var out []api.StreamEvent
	for _, e := range s.events {
		if e.Done {
			out = append(out, e)
		}
	}
	return out
}

type staticSettings struct {
	mu   sync.Mutex
	snap settings.Snapshot
}

func (s *staticSettings) Snapshot() settings.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snap
}

func (s *staticSettings) set(snap settings.Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snap = snap
}

type fakeSearch struct {
	queries []string
}

func (f *fakeSearch) Search(ctx context.Context, query string, count int) []api.SearchResult {
	f.queries = append(f.queries, query)
	return search.MockResults(query)
}

type publisherSpy struct {
	mu       sync.Mutex
	payloads []messaging.TurnCompletedPayload
}

func (p *publisherSpy) PublishTurnCompleted(ctx context.Context, payload messaging.TurnCompletedPayload) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if ctx.Err() != nil {
		return ctx.Err()
	}
	p.payloads = append(p.payloads, payload)
	return nil
}

type testEnv struct {
	model     *fakeModel
	settings  *staticSettings
	search    *fakeSearch
	publisher *publisherSpy
	engine    *Engine
}

func newTestEnv(model *fakeModel, mutate ...func(*Config)) *testEnv {
	cfg := DefaultConfig()
	for _, m := range mutate {
		m(&cfg)
	}
	env := &testEnv{
		model:     model,
		settings:  &staticSettings{snap: settings.Snapshot{ProfileName: "KYNSEY Mini", Model: "llama3.2:3b-instruct-fp16", Style: "normal"}},
		search:    &fakeSearch{},
		publisher: &publisherSpy{},
	}
	env.engine = NewEngine(model, prompts.NewResolver(nil), env.settings, env.search, env.publisher, cfg)
	return env
}

func concat(events []api.StreamEvent) string {
	var sb strings.Builder
	for _, e := range events {
		sb.WriteString(e.Response)
	}
	return sb.String()
}

func TestDirectStream(t *testing.T) {
	env := newTestEnv(&fakeModel{chunks: []string{"Hello", "", " there", "!"}})
	sink := &recordingSink{}

	outcome, err := env.engine.Run(context.Background(), api.ChatRequest{
		Message: "hello there",
		History: []api.HistoryMessage{
			{Role: "user", Content: "first"},
			{Role: "assistant", Content: "second"},
		},
	}, sink)
	require.NoError(t, err)

	assert.Equal(t, StateClosed, outcome.State)
	assert.Equal(t, commands.None, outcome.Command)
	assert.Equal(t, 3, outcome.Chunks)

	partials := sink.partials()
	require.Len(t, partials, 3)
	assert.Equal(t, []string{"Hello", " there", "!"}, []string{partials[0].Response, partials[1].Response, partials[2].Response})

	terminals := sink.terminals()
	require.Len(t, terminals, 1)
	assert.Equal(t, sink.events[len(sink.events)-1], terminals[0])
	assert.Equal(t, "Hello there!", terminals[0].Response)
	assert.Equal(t, concat(partials), terminals[0].Response)
	assert.Empty(t, terminals[0].Error)
	assert.NotEmpty(t, terminals[0].Suggestions)
	assert.LessOrEqual(t, len(terminals[0].Suggestions), 4)

	require.Len(t, env.model.requests, 1)
	req := env.model.requests[0]
	assert.Equal(t, "llama3.2:3b-instruct-fp16", req.Model)
	assert.Equal(t, 0.7, req.Temperature)
	require.Len(t, req.Messages, 4)
	assert.Equal(t, llm.RoleSystem, req.Messages[0].Role)
	assert.Equal(t, prompts.NewResolver(nil).Resolve("normal"), req.Messages[0].Content)
	assert.Equal(t, "first", req.Messages[1].Content)
	assert.Equal(t, llm.RoleAssistant, req.Messages[2].Role)
	assert.Equal(t, llm.Message{Role: llm.RoleUser, Content: "hello there"}, req.Messages[3])

	require.Len(t, env.publisher.payloads, 1)
	payload := env.publisher.payloads[0]
	assert.Equal(t, outcome.TurnID, payload.TurnId)
	assert.Equal(t, database.TurnCompleted, payload.Status)
	assert.Equal(t, "none", payload.Command)
	assert.Equal(t, "Hello there!", payload.Response)
	assert.Equal(t, 2, payload.HistoryCount)
}

func TestDirectStreamEmptyResponse(t *testing.T) {
	env := newTestEnv(&fakeModel{})
	sink := &recordingSink{}

	_, err := env.engine.Run(context.Background(), api.ChatRequest{Message: "hi"}, sink)
	require.NoError(t, err)

	require.Len(t, sink.events, 1)
	assert.True(t, sink.events[0].Done)
	assert.Equal(t, "", sink.events[0].Response)
	assert.Len(t, sink.events[0].Suggestions, 3)
}

func TestValidationErrorOpensNoStream(t *testing.T) {
	env := newTestEnv(&fakeModel{chunks: []string{"x"}})

	for _, req := range []api.ChatRequest{
		{},
		{Message: "   "},
		{Message: "hi", Image: "not base64!"},
		{Message: "hi", History: []api.HistoryMessage{{Role: "robot", Content: "beep"}}},
		{Message: "hi", History: []api.HistoryMessage{{Role: "user", Content: "x", Images: []string{"@@@"}}}},
	} {
		sink := &recordingSink{}
		outcome, err := env.engine.Run(context.Background(), req, sink)

		var verr *ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Equal(t, StateErrored, outcome.State)
		assert.False(t, sink.Started())
		assert.Empty(t, sink.events)
	}

	assert.Empty(t, env.model.requests)
	assert.Empty(t, env.publisher.payloads)
}

func TestImageOnlyRequest(t *testing.T) {
	env := newTestEnv(&fakeModel{chunks: []string{"A cat."}})
	sink := &recordingSink{}

	img := []byte("\x89PNG\r\n\x1a\nfake")
	_, err := env.engine.Run(context.Background(), api.ChatRequest{
		Image: "data:image/png;base64," + base64.StdEncoding.EncodeToString(img),
	}, sink)
	require.NoError(t, err)

	require.Len(t, env.model.requests, 1)
	msgs := env.model.requests[0].Messages
	user := msgs[len(msgs)-1]
	assert.Equal(t, "Analyze this image.", user.Content)
	assert.Equal(t, [][]byte{img}, user.Images)
	assert.Equal(t, 1, env.publisher.payloads[0].ImageCount)
}

func TestResponseStyleOverridesActiveStyle(t *testing.T) {
	env := newTestEnv(&fakeModel{chunks: []string{"ok"}})

	_, err := env.engine.Run(context.Background(), api.ChatRequest{Message: "hi", ResponseStyle: "concise"}, &recordingSink{})
	require.NoError(t, err)
	assert.Equal(t, prompts.NewResolver(nil).Resolve("concise"), env.model.requests[0].Messages[0].Content)

	_, err = env.engine.Run(context.Background(), api.ChatRequest{Message: "hi", ResponseStyle: "unknown-style"}, &recordingSink{})
	require.NoError(t, err)
	assert.Equal(t, prompts.NewResolver(nil).Resolve("normal"), env.model.requests[1].Messages[0].Content)
}

func TestSnapshotIsTakenOncePerTurn(t *testing.T) {
	env := newTestEnv(&fakeModel{chunks: []string{"a", "b", "c"}})

	sink := &recordingSink{onSend: func(n int) {
		env.settings.set(settings.Snapshot{ProfileName: "KYNSEY Vision", Model: "gemma3:27b-it-q4_K_M", Style: "creative"})
	}}

	_, err := env.engine.Run(context.Background(), api.ChatRequest{Message: "hi"}, sink)
	require.NoError(t, err)

	assert.Equal(t, "llama3.2:3b-instruct-fp16", env.model.requests[0].Model)
	assert.Equal(t, "llama3.2:3b-instruct-fp16", env.publisher.payloads[0].Model)
	assert.Equal(t, "normal", env.publisher.payloads[0].Style)
}

func TestSearchCommand(t *testing.T) {
	env := newTestEnv(&fakeModel{completion: "AI safety is a field of research."})
	sink := &recordingSink{}

	outcome, err := env.engine.Run(context.Background(), api.ChatRequest{Message: "/search ai safety"}, sink)
	require.NoError(t, err)
	assert.Equal(t, commands.Search, outcome.Command)

	require.Len(t, sink.events, 2)
	assert.False(t, sink.events[0].Done)
	assert.Equal(t, `Searching for: "ai safety"...`, sink.events[0].Response)

	final := sink.events[1]
	assert.True(t, final.Done)
	assert.Equal(t, "AI safety is a field of research.", final.Response)
	assert.Equal(t, search.MockResults("ai safety"), final.SearchResults)
	assert.NotEmpty(t, final.Suggestions)
	assert.LessOrEqual(t, len(final.Suggestions), 4)

	assert.Equal(t, []string{"ai safety"}, env.search.queries)
	assert.Empty(t, env.model.requests, "command path must not stream")
	require.Len(t, env.model.completes, 1)
	assert.Equal(t, 0.4, env.model.completes[0].Temperature)
	assert.Contains(t, env.model.completes[0].Messages[1].Content, "ai safety")

	require.Len(t, env.publisher.payloads, 1)
	assert.Equal(t, "search", env.publisher.payloads[0].Command)
	assert.Len(t, env.publisher.payloads[0].SearchResults, 3)
}

func TestSearchCommandFailure(t *testing.T) {
	env := newTestEnv(&fakeModel{completeErr: errors.New("connection refused")})
	sink := &recordingSink{}

	outcome, err := env.engine.Run(context.Background(), api.ChatRequest{Message: "search for rust ownership"}, sink)
	require.NoError(t, err)
	assert.Equal(t, StateErrored, outcome.State)

	require.Len(t, sink.events, 2)
	assert.False(t, sink.events[0].Done)
	final := sink.events[1]
	assert.True(t, final.Done)
	assert.Contains(t, final.Error, "error processing search")
	assert.Contains(t, final.Error, "connection refused")
	assert.Len(t, sink.terminals(), 1)

	assert.Equal(t, database.TurnFailed, env.publisher.payloads[0].Status)
}

func TestEmailCommand(t *testing.T) {
	env := newTestEnv(&fakeModel{completion: "To: Sam\nSubject: Q3 budget\n\nHi Sam,\n\nPlease review the Q3 budget.\n\nThanks"})
	sink := &recordingSink{}

	outcome, err := env.engine.Run(context.Background(), api.ChatRequest{Message: "draft an email about the Q3 budget"}, sink)
	require.NoError(t, err)
	assert.Equal(t, commands.EmailDraft, outcome.Command)

	require.Len(t, sink.events, 2)
	assert.Equal(t, "Drafting an email...", sink.events[0].Response)

	final := sink.events[1]
	assert.True(t, final.Done)
	require.NotNil(t, final.EmailDraft)
	assert.Equal(t, "Sam", final.EmailDraft.To)
	assert.Equal(t, "Q3 budget", final.EmailDraft.Subject)
	assert.True(t, strings.HasPrefix(final.Response, "Here is your email draft:\n\nTo: Sam\nSubject: Q3 budget\n\n"))
	assert.NotEmpty(t, final.Suggestions)

	require.Len(t, env.model.completes, 1)
	assert.Contains(t, env.model.completes[0].Messages[1].Content, "the Q3 budget")
}

func TestEmailCommandStatusText(t *testing.T) {
	env := newTestEnv(&fakeModel{completion: "Hello"})
	sink := &recordingSink{}

	_, err := env.engine.Run(context.Background(), api.ChatRequest{Message: "/email to: alex@example.com, subject: Launch, announce the launch date"}, sink)
	require.NoError(t, err)

	assert.Equal(t, "Drafting an email to alex@example.com with subject: Launch...", sink.events[0].Response)
	require.NotNil(t, sink.events[1].EmailDraft)
	assert.Equal(t, "alex@example.com", sink.events[1].EmailDraft.To)
	assert.Equal(t, "Launch", sink.events[1].EmailDraft.Subject)
}

func TestDispatchDisabled(t *testing.T) {
	env := newTestEnv(&fakeModel{chunks: []string{"plain"}}, func(c *Config) { c.DispatchCommands = false })
	sink := &recordingSink{}

	outcome, err := env.engine.Run(context.Background(), api.ChatRequest{Message: "/search ai safety"}, sink)
	require.NoError(t, err)

	assert.Equal(t, commands.None, outcome.Command)
	assert.Empty(t, env.search.queries)
	require.Len(t, env.model.requests, 1)
	assert.Equal(t, "/search ai safety", env.model.requests[0].Messages[1].Content)
}

func TestMidStreamFailure(t *testing.T) {
	env := newTestEnv(&fakeModel{chunks: []string{"partial", " text"}, streamErr: llm.ErrIncompleteStream})
	sink := &recordingSink{}

	outcome, err := env.engine.Run(context.Background(), api.ChatRequest{Message: "hi"}, sink)
	require.NoError(t, err)
	assert.Equal(t, StateErrored, outcome.State)

	require.Len(t, sink.events, 3)
	assert.Equal(t, "partial", sink.events[0].Response)
	assert.Equal(t, " text", sink.events[1].Response)

	final := sink.events[2]
	assert.True(t, final.Done)
	assert.Equal(t, llm.ErrIncompleteStream.Error(), final.Error)
	assert.Empty(t, final.Suggestions)
	assert.Len(t, sink.terminals(), 1)

	require.Len(t, env.publisher.payloads, 1)
	assert.Equal(t, database.TurnFailed, env.publisher.payloads[0].Status)
	assert.Equal(t, 2, env.publisher.payloads[0].ChunkCount)
}

func TestFailureBeforeFirstByte(t *testing.T) {
	upstream := errors.New("model 'llama3.2:3b-instruct-fp16' not found")
	env := newTestEnv(&fakeModel{streamErr: upstream})
	sink := &recordingSink{}

	outcome, err := env.engine.Run(context.Background(), api.ChatRequest{Message: "hi"}, sink)
	assert.ErrorIs(t, err, upstream)
	assert.Equal(t, StateErrored, outcome.State)
	assert.False(t, sink.Started())
	assert.Empty(t, sink.events)

	require.Len(t, env.publisher.payloads, 1)
	assert.Equal(t, database.TurnFailed, env.publisher.payloads[0].Status)
}

func TestClientDisconnect(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	env := newTestEnv(&fakeModel{chunks: []string{"one", "two", "three", "four"}})
	sink := &recordingSink{onSend: func(n int) {
		if n == 2 {
			cancel()
		}
	}}

	outcome, err := env.engine.Run(ctx, api.ChatRequest{Message: "hi"}, sink)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, StateErrored, outcome.State)

	assert.Len(t, sink.events, 2)
	assert.Empty(t, sink.terminals())

	// The turn is still recorded after the client went away.
	require.Len(t, env.publisher.payloads, 1)
	assert.Equal(t, database.TurnAborted, env.publisher.payloads[0].Status)
}

func TestBrokenSinkStopsUpstream(t *testing.T) {
	env := newTestEnv(&fakeModel{chunks: []string{"one", "two", "three"}})
	sink := &recordingSink{failAt: 2}

	outcome, err := env.engine.Run(context.Background(), api.ChatRequest{Message: "hi"}, sink)
	assert.Error(t, err)
	assert.Equal(t, StateErrored, outcome.State)
	assert.Equal(t, 1, outcome.Chunks)
	assert.Len(t, sink.events, 1)
	assert.Equal(t, database.TurnAborted, env.publisher.payloads[0].Status)
}

func TestStreamIdleTimeout(t *testing.T) {
	env := newTestEnv(&fakeModel{chunks: []string{"thinking"}, hang: true}, func(c *Config) {
		c.StreamIdleTimeout = 50 * time.Millisecond
	})
	sink := &recordingSink{}

	done := make(chan struct{})
	var outcome Outcome
	var err error
	go func() {
		defer close(done)
		outcome, err = env.engine.Run(context.Background(), api.ChatRequest{Message: "hi"}, sink)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("idle stream was not cancelled")
	}

	require.NoError(t, err)
	assert.Equal(t, StateErrored, outcome.State)
	require.Len(t, sink.events, 2)
	assert.Equal(t, ErrStreamIdle.Error(), sink.events[1].Error)
	assert.True(t, sink.events[1].Done)
}

func TestCommandIdleTimeout(t *testing.T) {
	for _, message := range []string{
		"/search ai safety",
		"/email to: bob@example.com, subject: Budget, ask about the budget",
	} {
		t.Run(message, func(t *testing.T) {
			env := newTestEnv(&fakeModel{hang: true}, func(c *Config) {
				c.StreamIdleTimeout = 50 * time.Millisecond
			})
			sink := &recordingSink{}

			done := make(chan struct{})
			var outcome Outcome
			var err error
			go func() {
				defer close(done)
				outcome, err = env.engine.Run(context.Background(), api.ChatRequest{Message: message}, sink)
			}()

			select {
			case <-done:
			case <-time.After(2 * time.Second):
				t.Fatal("stalled command turn was not cancelled")
			}

			require.NoError(t, err)
			assert.Equal(t, StateErrored, outcome.State)
			require.Len(t, sink.events, 2)
			assert.False(t, sink.events[0].Done)
			assert.Contains(t, sink.events[1].Error, ErrStreamIdle.Error())
			assert.True(t, sink.events[1].Done)
		})
	}
}

func TestConcurrentTurns(t *testing.T) {
	env := newTestEnv(&fakeModel{chunks: []string{"a", "b", "c"}})

	var wg sync.WaitGroup
	sinks := make([]*recordingSink, 10)
	for i := range sinks {
		sinks[i] = &recordingSink{}
		wg.Add(1)
		go func(sink *recordingSink) {
			defer wg.Done()
			_, err := env.engine.Run(context.Background(), api.ChatRequest{Message: "hi"}, sink)
			assert.NoError(t, err)
		}(sinks[i])
	}
	wg.Wait()

	for _, sink := range sinks {
		require.Len(t, sink.events, 4)
		assert.Equal(t, "abc", sink.events[3].Response)
	}
	assert.Len(t, env.publisher.payloads, 10)
}
