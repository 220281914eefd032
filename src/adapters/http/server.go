package http

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"botstore/src/domain"
	"botstore/src/domain/entities"

	"github.com/rcrowley/go-metrics"
)

type Database interface {
	GetPlayer(ctx context.Context, userID string) (*entities.Player, error)
	GetGuildData(ctx context.Context, guildID string) (*entities.GuildData, error)
}

type Reminders interface {
	Schedule(ctx context.Context, ownerID string, destinationID *string, payload string, in time.Duration) (domain.Reminder, error)
	Cancel(ctx context.Context, ownerID string, itemID string) error
	List(ctx context.Context, ownerID string) ([]domain.Reminder, error)
}

// HealthCheck pings one backend.
type HealthCheck func(ctx context.Context) error

// Server representa o servidor HTTP de operação
type Server struct {
	logger    *slog.Logger
	server    *http.Server
	mux       *http.ServeMux
	port      int
	database  Database
	reminders Reminders
	registry  metrics.Registry
	checks    map[string]HealthCheck
}

// NewServer cria uma nova instância do servidor
func NewServer(
	logger *slog.Logger,
	port int,
	database Database,
	reminders Reminders,
	registry metrics.Registry,
	checks map[string]HealthCheck,
) *Server {
	server := &Server{
		mux:       http.NewServeMux(),
		port:      port,
		logger:    logger,
		database:  database,
		reminders: reminders,
		registry:  registry,
		checks:    checks,
	}

	server.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      server.mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// Rotas de Leitura
	server.mux.HandleFunc("GET /v1/players/{id}", server.GetPlayer)
	server.mux.HandleFunc("GET /v1/guilds/{id}", server.GetGuild)
	server.mux.HandleFunc("GET /v1/users/{id}/reminders", server.ListReminders)

	// Rotas de Escritas
	server.mux.HandleFunc("POST /v1/users/{id}/reminders", server.ScheduleReminder)
	server.mux.HandleFunc("DELETE /v1/users/{id}/reminders/{reminderId}", server.CancelReminder)

	server.mux.HandleFunc("GET /debug/metrics", server.Metrics)
	server.mux.HandleFunc("GET /healthz", server.Health)

	return server
}

func (s *Server) Handler() http.Handler {
	return s.mux
}

// Start inicia o servidor HTTP
func (s *Server) Start() error {
	s.logger.Info("Server started", "port", s.port)

	return s.server.ListenAndServe()
}

// Shutdown encerra o servidor HTTP de forma graciosa
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down server...")
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}
