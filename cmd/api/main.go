package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"assistant-backend/cmd"
	"assistant-backend/internal/api"
	"assistant-backend/internal/config"
	"assistant-backend/internal/database"
	"assistant-backend/internal/email"
	"assistant-backend/internal/llm"
	"assistant-backend/internal/messaging"
	"assistant-backend/internal/prompts"
	"assistant-backend/internal/relay"
	"assistant-backend/internal/search"
	"assistant-backend/internal/settings"
	"assistant-backend/internal/turnlog"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"gorm.io/gorm"
)

type turnEvents struct {
	publisher relay.TurnPublisher
	processor *turnlog.Processor
	close     func()
}

// createTurnEvents publishes turn events to rabbitmq when a url is configured.
// Otherwise events go through an in-memory queue drained by an in-process
// turn log processor.
func createTurnEvents(cfg config.Config, db *gorm.DB) turnEvents {
	if cfg.RabbitMQURL != "" {
		publisher, err := messaging.NewRabbitMQPublisher(cfg.RabbitMQURL)
		if err != nil {
			log.Fatalf("Failed to connect to RabbitMQ: %v", err)
		}
		return turnEvents{publisher: publisher, close: publisher.Close}
	}

	queue := messaging.NewInMemoryQueue()
	processor := turnlog.NewProcessor(db, queue)
	return turnEvents{publisher: queue, processor: processor, close: processor.Stop}
}

func createServer(cfg config.Config, db *gorm.DB, model llm.ChatModel, store *settings.Store, engine *relay.Engine, searchProvider search.Provider) *http.Server {
	r := chi.NewRouter()

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", api.AdminSecretHeader},
		ExposedHeaders:   []string{"X-Request-Id"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	settingsService := api.NewSettingsService(store, model, cfg.LLMProvider, cfg.Features(), cfg.AdminSecret)
	chatService := api.NewChatService(engine)
	assistService := api.NewAssistService(searchProvider, email.NewDrafter(model, cfg.AuxTemperature), store)
	turnService := api.NewTurnService(db, cfg.AdminSecret)

	r.Get("/health", api.RestHandler(settingsService.Health))

	r.Route("/api", func(r chi.Router) {
		// Chat streams are bounded by the relay's idle timeout instead of a
		// request deadline.
		chatService.AddRoutes(r)

		r.Group(func(r chi.Router) {
			r.Use(middleware.Timeout(60 * time.Second))
			settingsService.AddRoutes(r)
			assistService.AddRoutes(r)
			turnService.AddRoutes(r)
		})
	})

	return &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
}

func main() {
	cmd.LoadEnvFile()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("error loading config: %v", err)
	}

	cmd.InitLogging(cfg.LogLevel)

	slog.Info("starting assistant backend", "port", cfg.Port, "llm_provider", cfg.LLMProvider, "dispatch_commands", cfg.DispatchCommands, "rabbitmq", cfg.RabbitMQURL != "")

	db, err := database.NewDatabase(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	model, err := llm.New(cfg.LLM())
	if err != nil {
		log.Fatalf("Failed to create llm client: %v", err)
	}

	catalog, err := settings.LoadCatalog(cfg.CatalogFile)
	if err != nil {
		log.Fatalf("Failed to load catalog: %v", err)
	}

	resolver := prompts.NewResolver(catalog.Styles)

	store, err := settings.NewStore(context.Background(), db, model, resolver, catalog, cfg.DefaultProfile)
	if err != nil {
		log.Fatalf("Failed to load settings: %v", err)
	}

	searchProvider := search.NewBingClient(cfg.SearchAPIEndpoint, cfg.SearchAPIKey)

	events := createTurnEvents(cfg, db)

	engine := relay.NewEngine(model, resolver, store, searchProvider, events.publisher, cfg.Relay())

	server := createServer(cfg, db, model, store, engine, searchProvider)

	if events.processor != nil {
		slog.Info("starting turn log processor")
		go events.processor.Start()
	}

	stopped := make(chan struct{})
	go func() {
		defer close(stopped)

		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit
		slog.Info("shutting down server")

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			log.Fatalf("Server forced to shutdown: %v", err)
		}

		slog.Info("shutting down turn events")
		events.close()

		if events.processor != nil {
			select {
			case <-events.processor.Done():
			case <-ctx.Done():
				slog.Warn("turn log processor did not stop before shutdown deadline")
			}
		}
	}()

	slog.Info("server started", "port", cfg.Port)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("Could not listen on %d: %v\n", cfg.Port, err)
	}

	<-stopped
	slog.Info("server stopped")
}
