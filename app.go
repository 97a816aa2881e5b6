// Package amblue wires the reasoning loop, the SQL toolkit and the document
// retrieval index into an HTTP service.
package amblue

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alanpramil7/agent-v1/agent"
	"github.com/alanpramil7/agent-v1/handlers"
	"github.com/alanpramil7/agent-v1/llm"
	"github.com/alanpramil7/agent-v1/retrieval"
	"github.com/alanpramil7/agent-v1/sqltool"
)

// Server is the main service instance. Create one with New(), then call
// Start() to run the HTTP server until shutdown.
type Server struct {
	host       string
	port       int
	configFile string
	logger     *slog.Logger

	db      *sqltool.Database
	vectors *retrieval.Store
	saver   *agent.MemorySaver
	srv     *http.Server
}

// Option configures a Server.
type Option func(*Server)

// WithHost sets the listen host (default "0.0.0.0").
func WithHost(host string) Option {
	return func(s *Server) { s.host = host }
}

// WithPort sets the listen port (default 8000).
func WithPort(port int) Option {
	return func(s *Server) { s.port = port }
}

// WithConfigFile sets the path to the yaml config file.
func WithConfigFile(path string) Option {
	return func(s *Server) { s.configFile = path }
}

// WithLogger sets the server logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) { s.logger = logger }
}

// New creates a new Server with the given options.
func New(opts ...Option) *Server {
	s := &Server{
		host:       "0.0.0.0",
		port:       8000,
		configFile: "config.yaml",
		logger:     slog.Default(),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Start loads configuration, opens the database and the vector store,
// builds the orchestrator and runs the HTTP server. It blocks until the
// server is shut down via signal or Shutdown().
func (s *Server) Start() error {
	cfg, err := LoadFileConfig(s.configFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	client, modelName, err := llm.Resolve(cfg.Model)
	if err != nil {
		return fmt.Errorf("resolve model: %w", err)
	}
	embedder, err := llm.ResolveEmbedder(cfg.Embedding)
	if err != nil {
		return fmt.Errorf("resolve embedder: %w", err)
	}

	s.db, err = sqltool.Open(cfg.Database)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	s.vectors, err = retrieval.Open(cfg.VectorStore, embedder, cfg.Embedding.Dimensions)
	if err != nil {
		s.db.Close()
		return fmt.Errorf("open vector store: %w", err)
	}

	tools := append(sqltool.NewToolkit(s.db).Tools(), retrieval.Tool(s.vectors))

	s.saver = agent.NewMemorySaver()
	orchestrator, err := agent.New(agent.Config{
		Client:       client,
		Tools:        tools,
		Checkpointer: s.saver,
		SystemPrompt: cfg.SystemPrompt,
		StepBudget:   cfg.StepBudget,
		MaxTokens:    cfg.MaxTokens,
		Logger:       s.logger,
	})
	if err != nil {
		return err
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintln(w, `{"status":"ok"}`)
	})
	handlers.RegisterRoutes(mux, &handlers.Deps{
		Orchestrator: orchestrator,
		Logger:       s.logger,
	})

	addr := fmt.Sprintf("%s:%d", s.host, s.port)
	s.srv = &http.Server{
		Addr:         addr,
		Handler:      corsMiddleware(mux),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 0, // disabled for SSE and WebSocket streaming
		IdleTimeout:  120 * time.Second,
	}

	// Graceful shutdown on signal.
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		s.logger.Info("shutting down")
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		s.srv.Shutdown(ctx)
	}()

	s.logger.Info("server starting", "addr", addr, "model", modelName)
	err = s.srv.ListenAndServe()
	s.close()
	if err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown() error {
	if s.srv == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return s.srv.Shutdown(ctx)
}

func (s *Server) close() {
	if s.saver != nil {
		s.saver.Close()
	}
	if s.vectors != nil {
		s.vectors.Close()
	}
	if s.db != nil {
		s.db.Close()
	}
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
