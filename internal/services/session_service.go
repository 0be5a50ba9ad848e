package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/killuadb/schemamap/internal/models"
)

// ErrSessionNotFound is returned for unknown or deleted session ids.
var ErrSessionNotFound = errors.New("session not found")

// SessionService owns one Visualizer per viewer session.
type SessionService struct {
	source       SchemaSource
	layouts      LayoutStore
	layoutKey    string
	fetchTimeout time.Duration
	logger       *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu       sync.RWMutex
	sessions map[uuid.UUID]*Visualizer
}

// NewSessionService creates the registry. layoutKey names the saved layout
// shared by all sessions of this schema endpoint.
func NewSessionService(
	source SchemaSource,
	layouts LayoutStore,
	layoutKey string,
	fetchTimeout time.Duration,
	logger *slog.Logger,
) *SessionService {
	ctx, cancel := context.WithCancel(context.Background())
	return &SessionService{
		source:       source,
		layouts:      layouts,
		layoutKey:    layoutKey,
		fetchTimeout: fetchTimeout,
		logger:       logger,
		ctx:          ctx,
		cancel:       cancel,
		sessions:     make(map[uuid.UUID]*Visualizer),
	}
}

// Create registers a new session and starts its initial load in the
// background. The session is returned in the loading state.
func (s *SessionService) Create() *Visualizer {
	v := NewVisualizer(uuid.New(), s.source, s.logger)

	s.mu.Lock()
	s.sessions[v.ID()] = v
	s.mu.Unlock()

	s.logger.Info("session created", "session", v.ID().String())

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer v.markFirstLoadDone()

		ctx, cancel := s.fetchContext(s.ctx)
		defer cancel()

		if err := v.Refresh(ctx); err != nil {
			return
		}
		s.restoreSaved(ctx, v)
	}()

	return v
}

func (s *SessionService) Get(id uuid.UUID) (*Visualizer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v, ok := s.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	v.touch(time.Now())
	return v, nil
}

func (s *SessionService) Delete(id uuid.UUID) error {
	s.mu.Lock()
	v, ok := s.sessions[id]
	delete(s.sessions, id)
	s.mu.Unlock()

	if !ok {
		return ErrSessionNotFound
	}
	v.Close()
	s.logger.Info("session deleted", "session", id.String())
	return nil
}

// Refresh re-fetches the schema of one session and waits for the result.
func (s *SessionService) Refresh(ctx context.Context, id uuid.UUID) (*Visualizer, error) {
	v, err := s.Get(id)
	if err != nil {
		return nil, err
	}

	ctx, cancel := s.fetchContext(ctx)
	defer cancel()

	return v, v.Refresh(ctx)
}

// SaveLayout stores the positions of a session under the shared layout key.
func (s *SessionService) SaveLayout(ctx context.Context, id uuid.UUID) (*models.SavedLayout, error) {
	v, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	return v.SaveLayout(ctx, s.layouts, s.layoutKey)
}

// RestoreLayout applies the saved layout to a session.
func (s *SessionService) RestoreLayout(ctx context.Context, id uuid.UUID) (int, error) {
	v, err := s.Get(id)
	if err != nil {
		return 0, err
	}
	return v.RestoreLayout(ctx, s.layouts, s.layoutKey)
}

// DeleteLayout forgets the saved layout. Positions shown by live sessions are
// left as they are.
func (s *SessionService) DeleteLayout(ctx context.Context, id uuid.UUID) error {
	if _, err := s.Get(id); err != nil {
		return err
	}
	if s.layouts == nil {
		return ErrNoLayoutStore
	}
	if err := s.layouts.Delete(ctx, s.layoutKey); err != nil {
		return fmt.Errorf("failed to delete layout: %w", err)
	}
	return nil
}

func (s *SessionService) LayoutKey() string {
	return s.layoutKey
}

func (s *SessionService) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// ExpireIdle deletes sessions that were not looked up for longer than ttl and
// have no live viewer. It returns how many were deleted.
func (s *SessionService) ExpireIdle(now time.Time, ttl time.Duration) int {
	s.mu.Lock()
	var expired []*Visualizer
	for id, v := range s.sessions {
		if v.Viewers() > 0 || now.Sub(v.LastActive()) <= ttl {
			continue
		}
		delete(s.sessions, id)
		expired = append(expired, v)
	}
	s.mu.Unlock()

	for _, v := range expired {
		v.Close()
		s.logger.Info("session expired", "session", v.ID().String(), "idle", now.Sub(v.LastActive()))
	}
	return len(expired)
}

// StartJanitor expires idle sessions in the background until Close.
// A ttl of zero disables expiry.
func (s *SessionService) StartJanitor(ttl time.Duration) {
	if ttl <= 0 {
		return
	}
	interval := ttl / 4
	if interval < time.Second {
		interval = time.Second
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-s.ctx.Done():
				return
			case now := <-ticker.C:
				s.ExpireIdle(now, ttl)
			}
		}
	}()
}

// Close stops pending initial loads and disconnects every session.
func (s *SessionService) Close() {
	s.cancel()
	s.wg.Wait()

	s.mu.Lock()
	defer s.mu.Unlock()
	for id, v := range s.sessions {
		v.Close()
		delete(s.sessions, id)
	}
}

func (s *SessionService) restoreSaved(ctx context.Context, v *Visualizer) {
	if s.layouts == nil {
		return
	}
	moved, err := v.RestoreLayout(ctx, s.layouts, s.layoutKey)
	switch {
	case IsLayoutNotFound(err):
	case err != nil:
		s.logger.Warn("failed to restore saved layout", "session", v.ID().String(), "error", err)
	case moved > 0:
		s.logger.Debug("restored saved layout", "session", v.ID().String(), "nodes", moved)
	}
}

func (s *SessionService) fetchContext(parent context.Context) (context.Context, context.CancelFunc) {
	if s.fetchTimeout <= 0 {
		return context.WithCancel(parent)
	}
	return context.WithTimeout(parent, s.fetchTimeout)
}
