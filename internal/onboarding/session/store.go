// Package session keeps per-user conversational state. The store is the
// authoritative source of "where is this user in the flow"; it carries no
// cross-process durability guarantee, and losing it forces a restart from
// the initial state.
package session

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"bankassist/internal/onboarding/models"
)

// Store abstracts the session backend. Implementations must guarantee that
// operations for different users never interfere; serialization of events
// for the same user is the KeyedLock's job, not the store's.
type Store interface {
	GetOrCreate(ctx context.Context, userID uuid.UUID) (*models.Session, error)
	Save(ctx context.Context, session *models.Session) error
	Reset(ctx context.Context, userID uuid.UUID) error
}

// KeyedLock serializes concurrent events for the same user. Two uploads
// racing for one session would otherwise corrupt the namespaced field merge
// or double-commit the application.
type KeyedLock struct {
	mu    sync.Mutex
	locks map[uuid.UUID]*userLock
}

type userLock struct {
	mu   sync.Mutex
	refs int
}

func NewKeyedLock() *KeyedLock {
	return &KeyedLock{locks: make(map[uuid.UUID]*userLock)}
}

// Lock acquires the per-user lock and returns the matching unlock. Entries
// are reference counted so the map does not grow with every user ever seen.
func (l *KeyedLock) Lock(userID uuid.UUID) (unlock func()) {
	l.mu.Lock()
	entry, ok := l.locks[userID]
	if !ok {
		entry = &userLock{}
		l.locks[userID] = entry
	}
	entry.refs++
	l.mu.Unlock()

	entry.mu.Lock()
	return func() {
		entry.mu.Unlock()
		l.mu.Lock()
		entry.refs--
		if entry.refs == 0 {
			delete(l.locks, userID)
		}
		l.mu.Unlock()
	}
}
