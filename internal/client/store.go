package client

import (
	"context"
	"sync"

	"github.com/mealgate/mealgate-api/internal/domain"
)

// SessionStore persists the device's single active session and its session
// history. Mutations are sequential on a device, so implementations only need
// atomic read-modify-write, not cross-writer coordination.
type SessionStore interface {
	// Active returns the active session, or nil when none exists.
	Active(ctx context.Context) (*domain.MealSession, error)

	// SaveActive stores the session in the active slot.
	SaveActive(ctx context.Context, session *domain.MealSession) error

	// ClearActive empties the active slot.
	ClearActive(ctx context.Context) error

	// AppendHistory adds an ended session to the history.
	AppendHistory(ctx context.Context, session domain.MealSession) error

	// History returns all ended sessions, oldest first.
	History(ctx context.Context) ([]domain.MealSession, error)
}

// MemorySessionStore is an in-memory SessionStore.
type MemorySessionStore struct {
	mu      sync.Mutex
	active  *domain.MealSession
	history []domain.MealSession
}

// Ensure MemorySessionStore implements SessionStore interface
var _ SessionStore = (*MemorySessionStore)(nil)

// NewMemorySessionStore creates an empty store.
func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{}
}

// Active implements SessionStore.Active.
func (s *MemorySessionStore) Active(_ context.Context) (*domain.MealSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.active == nil {
		return nil, nil
	}
	copied := *s.active
	return &copied, nil
}

// SaveActive implements SessionStore.SaveActive.
func (s *MemorySessionStore) SaveActive(_ context.Context, session *domain.MealSession) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	copied := *session
	s.active = &copied
	return nil
}

// ClearActive implements SessionStore.ClearActive.
func (s *MemorySessionStore) ClearActive(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.active = nil
	return nil
}

// AppendHistory implements SessionStore.AppendHistory.
func (s *MemorySessionStore) AppendHistory(_ context.Context, session domain.MealSession) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.history = append(s.history, session)
	return nil
}

// History implements SessionStore.History.
func (s *MemorySessionStore) History(_ context.Context) ([]domain.MealSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]domain.MealSession, len(s.history))
	copy(out, s.history)
	return out, nil
}
