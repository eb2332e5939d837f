// Consult - telehealth avatar session server
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/vitalcall/consult/internal/api"
	"github.com/vitalcall/consult/internal/audio"
	"github.com/vitalcall/consult/internal/config"
	"github.com/vitalcall/consult/internal/llm"
	"github.com/vitalcall/consult/internal/middleware"
	"github.com/vitalcall/consult/internal/notify"
	"github.com/vitalcall/consult/internal/profile"
	"github.com/vitalcall/consult/internal/registry"
	"github.com/vitalcall/consult/internal/session"
	"github.com/vitalcall/consult/internal/store"
	"github.com/vitalcall/consult/internal/streaming"
	"github.com/vitalcall/consult/internal/summary"
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "server",
		Short:         "Telehealth avatar session server",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe()
		},
	}
	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(patientsCmd())
	rootCmd.AddCommand(summariesCmd())

	if err := rootCmd.Execute(); err != nil {
		slog.Error("Command failed", "error", err)
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe()
		},
	}
}

// setup loads .env and configuration and installs the JSON logger on out.
func setup(out io.Writer) (*config.Config, error) {
	slog.SetDefault(slog.New(slog.NewJSONHandler(out, &slog.HandlerOptions{Level: slog.LevelInfo})))

	if err := godotenv.Load(); err != nil {
		slog.Info("No .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load configuration: %w", err)
	}

	slog.SetDefault(slog.New(slog.NewJSONHandler(out, &slog.HandlerOptions{Level: cfg.LogLevel})))
	return cfg, nil
}

func openStore(ctx context.Context, cfg *config.Config) (store.Store, error) {
	repo, err := store.Open(cfg)
	if err != nil {
		return nil, fmt.Errorf("open record store: %w", err)
	}
	if err := repo.Ping(ctx); err != nil {
		_ = repo.Close()
		return nil, fmt.Errorf("record store health check: %w", err)
	}
	return repo, nil
}

func runServe() error {
	cfg, err := setup(os.Stdout)
	if err != nil {
		return err
	}

	slog.Info("Starting server", "port", cfg.Port, "store", cfg.StoreBackend, "data_dir", cfg.DataDir)

	repo, err := openStore(context.Background(), cfg)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := repo.Close(); closeErr != nil {
			slog.Error("Failed to close record store", "error", closeErr)
		}
	}()
	slog.Info("Record store ready")

	// Initialize services.
	catalog := profile.New(cfg.Profiles)
	tokens := streaming.New(cfg.Streaming)
	models := llm.NewOpenAIClient(cfg.OpenAI)
	sms := notify.NewTwilioSender(cfg.SMS)
	dispatcher := notify.NewDispatcher(sms, cfg.InviteBaseURL, cfg.SMS.Timeout)

	if !tokens.Configured() {
		slog.Warn("HEYGEN_API_KEY not set, session start will fail")
	}
	if !models.Configured() {
		slog.Warn("OPENAI_API_KEY not set, summaries and audio processing will fail")
	}
	if !sms.Configured() {
		slog.Warn("Twilio credentials not set, SMS invitations are disabled")
	}

	handler := api.NewHandler(api.Deps{
		Config:    cfg,
		Store:     repo,
		Profiles:  catalog,
		Patients:  registry.New(repo),
		Sessions:  session.NewOrchestrator(catalog, tokens, cfg.Streaming),
		Notifier:  dispatcher,
		Summaries: summary.New(models, repo),
		Audio:     audio.New(models, cfg.MedicalDataPath),
	})

	limiter := middleware.NewRateLimiter(cfg.RateLimitPerMinute, time.Minute)
	defer limiter.Stop()

	// Setup router.
	r := chi.NewRouter()

	// Global middleware.
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/healthz"))
	r.Use(middleware.CORS(cfg.CORSAllowOrigins))

	handler.RegisterRoutes(r, middleware.RateLimit(limiter))

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 90 * time.Second, // transcription plus cleanup can take two provider round trips
		IdleTimeout:  120 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	serveErr := make(chan error, 1)
	go func() {
		slog.Info("Server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	// Wait for shutdown signal.
	select {
	case <-ctx.Done():
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
	}
	stop()

	slog.Info("Shutting down gracefully...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	if err := dispatcher.Wait(shutdownCtx); err != nil {
		slog.Warn("Pending SMS invitations abandoned", "error", err)
	}

	slog.Info("Server stopped successfully")
	return nil
}
