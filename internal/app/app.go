package app

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"docqa/features/answer"
	"docqa/features/mcp"
	"docqa/features/run"
	"docqa/features/stats"
	"docqa/internal/config"
	"docqa/internal/extract"
	"docqa/internal/llm"
	"docqa/internal/middleware"
	"docqa/internal/resolver"
	"docqa/internal/retrieval"
)

const (
	bannerMessage     = "Document question answering service is running"
	readHeaderTimeout = 10 * time.Second
)

type App struct {
	Handler       http.Handler
	AnswerService *answer.Service
	RunService    *run.Service

	queryLogger *retrieval.QueryLogger
	port        int
}

// New wires the services and routes. db may be nil, in which case runs are
// not recorded and the history endpoints are not mounted.
func New(cfg *config.Config, db *sql.DB, gen llm.Generator, logger *slog.Logger) (*App, error) {
	res := resolver.New(
		resolver.WithTimeout(cfg.FetchTimeout()),
		resolver.WithTempDir(cfg.TempDir),
		resolver.WithMaxBytes(cfg.MaxDocumentBytes()),
	)

	// Feature: Retrieval
	queryLogger, err := retrieval.NewFileQueryLogger(cfg.QueryLogPath)
	if err != nil {
		logger.Warn("failed to create query logger, falling back to stdout", "error", err)
		queryLogger = retrieval.NewQueryLogger(os.Stdout)
	}
	searchService := retrieval.NewService(queryLogger)

	opts := []answer.Option{answer.WithModelTimeout(cfg.ModelTimeout())}

	// Feature: Run history
	var runService *run.Service
	var runRepo *run.PostgresRepo
	if db != nil {
		runRepo = run.NewPostgresRepo(db)
		runService = run.NewService(runRepo)
		opts = append(opts, answer.WithRecorder(runService))
	}

	// Feature: Answer
	answerService := answer.NewService(res, extract.NewRegistry(), searchService, gen, opts...)
	answerHandler := answer.NewHandler(answerService)
	mcpHandler := mcp.NewHandler(answerService)

	// Middleware: CORS
	enableCORS := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", "*")
			w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-API-Key")

			if r.Method == "OPTIONS" {
				w.WriteHeader(http.StatusOK)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
	requireKey := middleware.APIKey(cfg.APIKey)
	protected := func(h http.HandlerFunc) http.Handler {
		return middleware.CorrelationID(enableCORS(requireKey(h)))
	}

	// Routes
	mux := http.NewServeMux()

	mux.Handle("POST /hackrx/run", protected(answerHandler.Run))
	mux.Handle("POST /api/v1/hackrx/run", protected(answerHandler.Run))
	mux.Handle("POST /mcp", middleware.CorrelationID(enableCORS(requireKey(mcpHandler))))

	if runService != nil {
		runHandler := run.NewHandler(runService)
		statsHandler := stats.NewHandler(runRepo)

		mux.Handle("GET /runs", protected(runHandler.List))
		mux.Handle("GET /runs/{id}", protected(runHandler.Get))
		mux.Handle("GET /stats", protected(statsHandler.GetStats))
	}

	// Preflight requests carry no API key and are answered by enableCORS.
	mux.Handle("OPTIONS /", middleware.CorrelationID(enableCORS(http.NotFoundHandler())))

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = fmt.Fprintf(w, `{"message":%q}`, bannerMessage)
	})

	logger.Info("routes mounted", "run_log", runService != nil, "provider", cfg.LLMProvider)

	return &App{
		Handler:       mux,
		AnswerService: answerService,
		RunService:    runService,
		queryLogger:   queryLogger,
		port:          cfg.ServerPort,
	}, nil
}

func (a *App) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", a.port),
		Handler:           a.Handler,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	go func() {
		<-ctx.Done()
		slog.Info("shutting down server...")
		if err := srv.Shutdown(context.Background()); err != nil {
			slog.Error("server shutdown failed", "error", err)
		}
	}()

	slog.Info("server starting", "port", a.port)
	if err := srv.ListenAndServe(); err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Close flushes the query log file.
func (a *App) Close() error {
	return a.queryLogger.Close()
}
