package relay

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"assistant-backend/internal/commands"
	"assistant-backend/internal/database"
	"assistant-backend/internal/email"
	"assistant-backend/internal/llm"
	"assistant-backend/internal/messaging"
	"assistant-backend/internal/prompts"
	"assistant-backend/internal/search"
	"assistant-backend/internal/settings"
	"assistant-backend/internal/suggest"
	"assistant-backend/pkg/api"

	"github.com/google/uuid"
)

type State int

const (
	StateIdle State = iota
	StateDispatched
	StateStreaming
	StateFinalizing
	StateClosed
	StateErrored
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateDispatched:
		return "dispatched"
	case StateStreaming:
		return "streaming"
	case StateFinalizing:
		return "finalizing"
	case StateClosed:
		return "closed"
	case StateErrored:
		return "errored"
	default:
		return "unknown"
	}
}

var ErrStreamIdle = errors.New("llm stream idle timeout")

// EventSink delivers stream events to one client in order.
type EventSink interface {
	// Send writes and flushes one event. The first call opens the stream.
	Send(event api.StreamEvent) error

	// Started reports whether anything has been written to the client.
	Started() bool
}

// SettingsSource provides the settings a turn runs with.
type SettingsSource interface {
	Snapshot() settings.Snapshot
}

// TurnPublisher receives a summary of every turn that reached a terminal
// state.
type TurnPublisher interface {
	PublishTurnCompleted(ctx context.Context, payload messaging.TurnCompletedPayload) error
}

type Config struct {
	DispatchCommands  bool
	Temperature       float64
	AuxTemperature    float64
	StreamIdleTimeout time.Duration
	SearchResultCount int
}

func DefaultConfig() Config {
	return Config{
		DispatchCommands:  true,
		Temperature:       0.7,
		AuxTemperature:    0.4,
		StreamIdleTimeout: 2 * time.Minute,
		SearchResultCount: search.DefaultCount,
	}
}

type Engine struct {
	model     llm.ChatModel
	prompts   *prompts.Resolver
	settings  SettingsSource
	search    search.Provider
	drafter   *email.Drafter
	publisher TurnPublisher
	cfg       Config
}

// NewEngine creates a relay engine. publisher may be nil, in which case turns
// are not recorded.
func NewEngine(model llm.ChatModel, resolver *prompts.Resolver, settings SettingsSource, searchProvider search.Provider, publisher TurnPublisher, cfg Config) *Engine {
	return &Engine{
		model:     model,
		prompts:   resolver,
		settings:  settings,
		search:    searchProvider,
		drafter:   email.NewDrafter(model, cfg.AuxTemperature),
		publisher: publisher,
		cfg:       cfg,
	}
}

func (e *Engine) Config() Config {
	return e.cfg
}

// Outcome summarizes a finished turn.
type Outcome struct {
	TurnID   uuid.UUID
	State    State
	Command  commands.Kind
	Chunks   int
	Response string
}

type turn struct {
	id       uuid.UUID
	start    time.Time
	state    State
	snapshot settings.Snapshot
	style    string
	command  commands.Command
	input    turnInput
	sink     EventSink
	sinkErr  error
	chunks   int
	final    api.StreamEvent
}

func (t *turn) transition(next State) {
	slog.Debug("chat turn transition", "turn_id", t.id, "from", t.state, "to", next)
	t.state = next
}

func (t *turn) send(event api.StreamEvent) error {
	if t.sinkErr != nil {
		return t.sinkErr
	}
	if err := t.sink.Send(event); err != nil {
		t.sinkErr = err
		return err
	}
	return nil
}

func (t *turn) outcome() Outcome {
	return Outcome{
		TurnID:   t.id,
		State:    t.state,
		Command:  t.command.Kind,
		Chunks:   t.chunks,
		Response: t.final.Response,
	}
}

// Run executes one chat turn and writes its events to sink. Exactly one
// terminal event is written unless an error is returned. A non-nil error
// means no terminal event reached the client; if sink has not started, the
// caller still owns the response and should report the error itself.
func (e *Engine) Run(ctx context.Context, req api.ChatRequest, sink EventSink) (Outcome, error) {
	t := &turn{id: uuid.New(), start: time.Now(), sink: sink}

	input, err := parseRequest(req)
	if err != nil {
		t.transition(StateErrored)
		return t.outcome(), err
	}
	t.input = input

	t.snapshot = e.settings.Snapshot()
	t.style = t.snapshot.Style
	if req.ResponseStyle != "" {
		t.style = req.ResponseStyle
	}

	if e.cfg.DispatchCommands {
		t.command = commands.Detect(req.Message)
	}
	t.transition(StateDispatched)

	slog.Info("chat turn dispatched", "turn_id", t.id, "model", t.snapshot.Model, "style", t.style, "command", t.command.Kind, "history", len(input.history), "images", input.imageCount())

	switch t.command.Kind {
	case commands.Search:
		err = e.runSearch(ctx, t)
	case commands.EmailDraft:
		err = e.runEmail(ctx, t)
	default:
		err = e.runDirect(ctx, t)
	}
	if err != nil {
		return e.fail(ctx, t, err)
	}

	t.transition(StateFinalizing)
	if err := t.send(t.final); err != nil {
		return e.fail(ctx, t, err)
	}
	t.transition(StateClosed)

	e.record(ctx, t, database.TurnCompleted, "")
	slog.Info("chat turn completed", "turn_id", t.id, "chunks", t.chunks, "duration", time.Since(t.start))

	return t.outcome(), nil
}

func (e *Engine) runDirect(ctx context.Context, t *turn) error {
	messages := make([]llm.Message, 0, len(t.input.history)+2)
	messages = append(messages, llm.Message{Role: llm.RoleSystem, Content: e.prompts.Resolve(t.style)})
	messages = append(messages, t.input.history...)

	user := llm.Message{Role: llm.RoleUser, Content: t.input.message}
	if t.input.image != nil {
		user.Images = [][]byte{t.input.image}
	}
	messages = append(messages, user)

	streamCtx, cancel := context.WithCancelCause(ctx)
	defer cancel(nil)

	var idle *time.Timer
	if e.cfg.StreamIdleTimeout > 0 {
		idle = time.AfterFunc(e.cfg.StreamIdleTimeout, func() { cancel(ErrStreamIdle) })
		defer idle.Stop()
	}

	var full strings.Builder
	_, err := e.model.Stream(streamCtx, llm.Request{
		Model:       t.snapshot.Model,
		Messages:    messages,
		Temperature: e.cfg.Temperature,
	}, func(_ context.Context, delta string) error {
		if idle != nil {
			idle.Reset(e.cfg.StreamIdleTimeout)
		}
		if delta == "" {
			return nil
		}
		if t.state != StateStreaming {
			t.transition(StateStreaming)
		}
		if err := t.send(api.StreamEvent{Response: delta}); err != nil {
			return err
		}
		full.WriteString(delta)
		t.chunks++
		return nil
	})
	if err != nil {
		return idleCause(ctx, streamCtx, err)
	}

	text := full.String()
	t.final = api.StreamEvent{
		Response:    text,
		Done:        true,
		Suggestions: suggest.Suggest(t.input.message, text),
	}
	return nil
}

func (e *Engine) runSearch(ctx context.Context, t *turn) error {
	query := t.command.Query

	t.transition(StateStreaming)
	if err := e.sendStatus(t, fmt.Sprintf("Searching for: \"%s\"...", query)); err != nil {
		return err
	}

	results := e.search.Search(ctx, query, e.cfg.SearchResultCount)

	auxCtx, cancel := e.auxContext(ctx)
	defer cancel()

	summary, err := e.model.Complete(auxCtx, llm.Request{
		Model: t.snapshot.Model,
		Messages: []llm.Message{
			{Role: llm.RoleSystem, Content: prompts.SearchSystemPrompt(query)},
			{Role: llm.RoleUser, Content: prompts.SearchUserPrompt(query, search.Format(results))},
		},
		Temperature: e.cfg.AuxTemperature,
	})
	if err != nil {
		return fmt.Errorf("error processing search: %w", idleCause(ctx, auxCtx, err))
	}

	t.final = api.StreamEvent{
		Response:      summary,
		Done:          true,
		Suggestions:   suggest.ForSearch(query),
		SearchResults: results,
	}
	return nil
}

func (e *Engine) runEmail(ctx context.Context, t *turn) error {
	cmd := t.command

	status := "Drafting an email"
	if cmd.To != "" {
		status += " to " + cmd.To
	}
	if cmd.Subject != "" {
		status += " with subject: " + cmd.Subject
	}

	t.transition(StateStreaming)
	if err := e.sendStatus(t, status+"..."); err != nil {
		return err
	}

	auxCtx, cancel := e.auxContext(ctx)
	defer cancel()

	draft, err := e.drafter.Draft(auxCtx, t.snapshot.Model, email.Request{
		To:          cmd.To,
		Subject:     cmd.Subject,
		Description: cmd.Description,
		Style:       t.style,
	})
	if err != nil {
		return fmt.Errorf("error drafting email: %w", idleCause(ctx, auxCtx, err))
	}

	t.final = api.StreamEvent{
		Response:    "Here is your email draft:\n\n" + email.Format(draft),
		Done:        true,
		Suggestions: suggest.ForEmail(),
		EmailDraft:  &draft,
	}
	return nil
}

// auxContext bounds a non-streaming model call of a command turn. Such a call
// produces no chunks, so the whole call gets one idle period.
func (e *Engine) auxContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if e.cfg.StreamIdleTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeoutCause(ctx, e.cfg.StreamIdleTimeout, ErrStreamIdle)
}

// idleCause replaces err with ErrStreamIdle when callCtx was ended by the idle
// timeout rather than by the client.
func idleCause(ctx, callCtx context.Context, err error) error {
	if ctx.Err() == nil && errors.Is(context.Cause(callCtx), ErrStreamIdle) {
		return ErrStreamIdle
	}
	return err
}

// sendStatus writes the provisional partial event of a command turn.
func (e *Engine) sendStatus(t *turn, text string) error {
	if err := t.send(api.StreamEvent{Response: text}); err != nil {
		return err
	}
	t.chunks++
	return nil
}

func (e *Engine) fail(ctx context.Context, t *turn, cause error) (Outcome, error) {
	t.transition(StateErrored)

	if ctx.Err() != nil || t.sinkErr != nil {
		slog.Warn("chat turn aborted, client is gone", "turn_id", t.id, "chunks", t.chunks, "error", cause)
		e.record(ctx, t, database.TurnAborted, cause.Error())
		return t.outcome(), cause
	}

	if !t.sink.Started() {
		slog.Error("chat turn failed before streaming", "turn_id", t.id, "error", cause)
		e.record(ctx, t, database.TurnFailed, cause.Error())
		return t.outcome(), cause
	}

	slog.Error("chat turn failed mid stream", "turn_id", t.id, "chunks", t.chunks, "error", cause)
	e.record(ctx, t, database.TurnFailed, cause.Error())

	t.final = api.StreamEvent{Error: cause.Error(), Done: true}
	if err := t.send(t.final); err != nil {
		slog.Warn("unable to deliver error event", "turn_id", t.id, "error", err)
		return t.outcome(), cause
	}
	return t.outcome(), nil
}

func (e *Engine) record(ctx context.Context, t *turn, status, errMsg string) {
	if e.publisher == nil {
		return
	}

	payload := messaging.TurnCompletedPayload{
		TurnId:       t.id,
		Model:        t.snapshot.Model,
		Style:        prompts.NormalizeStyle(t.style),
		Command:      t.command.Kind.String(),
		Status:       status,
		Message:      t.input.message,
		Error:        errMsg,
		ImageCount:   t.input.imageCount(),
		HistoryCount: len(t.input.history),
		ChunkCount:   t.chunks,
		DurationMs:   time.Since(t.start).Milliseconds(),
		CreationTime: t.start.UTC(),
	}
	if status == database.TurnCompleted {
		payload.Response = t.final.Response
		payload.Suggestions = t.final.Suggestions
		payload.SearchResults = t.final.SearchResults
	}

	// The turn is over for the client; recording must not be cut short by its
	// disconnect.
	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()

	if err := e.publisher.PublishTurnCompleted(pubCtx, payload); err != nil {
		slog.Warn("unable to publish turn event", "turn_id", t.id, "error", err)
	}
}
