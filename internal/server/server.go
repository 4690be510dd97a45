// Package server exposes the mission control HTTP API.
package server

import (
	"context"
	"log/slog"

	"github.com/openclaw/missionctl/internal/events"
	"github.com/openclaw/missionctl/internal/model"
	"github.com/openclaw/missionctl/internal/presence"
	"github.com/openclaw/missionctl/internal/store"
	"github.com/openclaw/missionctl/internal/sync"
)

// SyncRunner runs a gateway template synchronization. *sync.Syncer satisfies it.
type SyncRunner interface {
	Sync(ctx context.Context, gw *model.Gateway, opts sync.Options) (*sync.Result, error)
}

// Server implements the mission control HTTP API over a store, an event
// publisher, a presence tracker, and a gateway syncer.
type Server struct {
	store     store.Store
	publisher events.Publisher
	syncer    SyncRunner
	Presence  *presence.Tracker
	logger    *slog.Logger
}

// NewServer returns a Server backed by the given store and collaborators.
func NewServer(s store.Store, p events.Publisher, syncer SyncRunner, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		store:     s,
		publisher: p,
		syncer:    syncer,
		Presence:  presence.New(),
		logger:    logger,
	}
}

// publish emits an event to the bus. Best-effort: failures are logged and
// never block the caller.
func (s *Server) publish(ctx context.Context, topic string, event any) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, topic, event); err != nil {
		s.logger.Warn("failed to publish event", "topic", topic, "error", err)
	}
}

// inputError indicates invalid user input. The transport layer maps it to 400.
type inputError string

func (e inputError) Error() string { return string(e) }
