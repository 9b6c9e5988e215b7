package session

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"bankassist/internal/onboarding/models"
)

// InMemoryStore is the default backend: process-wide session state, keyed by
// user identity. Values are copied in and out so callers mutate a snapshot
// and write back explicitly.
type InMemoryStore struct {
	mu       sync.RWMutex
	sessions map[uuid.UUID]models.Session
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{sessions: make(map[uuid.UUID]models.Session)}
}

func (s *InMemoryStore) GetOrCreate(_ context.Context, userID uuid.UUID) (*models.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sess, ok := s.sessions[userID]; ok {
		copied := sess
		return &copied, nil
	}
	sess := models.Session{UserID: userID, State: models.StateInitial}
	s.sessions[userID] = sess
	return &sess, nil
}

func (s *InMemoryStore) Save(_ context.Context, session *models.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[session.UserID] = *session
	return nil
}

func (s *InMemoryStore) Reset(_ context.Context, userID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, userID)
	return nil
}
