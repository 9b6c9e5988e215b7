// Package application persists the durable pending-application record the
// onboarding flow produces.
package application

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"bankassist/internal/onboarding/models"
	"bankassist/pkg/platform/sentinel"
)

// InMemoryStore keeps applications in memory for dev and tests.
type InMemoryStore struct {
	mu           sync.RWMutex
	byNationalID map[string]models.PendingApplication
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{byNationalID: make(map[string]models.PendingApplication)}
}

func (s *InMemoryStore) FindByNationalID(_ context.Context, nationalID string) (*models.PendingApplication, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if app, ok := s.byNationalID[nationalID]; ok {
		copied := app
		return &copied, nil
	}
	return nil, sentinel.ErrNotFound
}

func (s *InMemoryStore) Create(_ context.Context, app *models.PendingApplication) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byNationalID[app.NationalID]; ok {
		return sentinel.ErrConflict
	}
	if app.ID == uuid.Nil {
		app.ID = uuid.New()
	}
	if app.CreatedAt.IsZero() {
		app.CreatedAt = time.Now()
	}
	s.byNationalID[app.NationalID] = *app
	return nil
}
