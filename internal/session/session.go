// Package session keeps server-side login sessions with a fixed lifetime that
// slides forward while the session is in use.
package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

var (
	ErrNotFound = errors.New("session not found")
	ErrExpired  = errors.New("session expired")
)

type Session struct {
	ID          uuid.UUID `json:"id"`
	UserID      uuid.UUID `json:"user_id"`
	Username    string    `json:"username"`
	Role        string    `json:"role"`
	IssuedAt    time.Time `json:"issued_at"`
	ExpiresAt   time.Time `json:"expires_at"`
	RefreshedAt time.Time `json:"refreshed_at"`
}

// Store persists sessions until their ExpiresAt.
type Store interface {
	Save(ctx context.Context, s Session) error
	Get(ctx context.Context, id uuid.UUID) (Session, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type Manager struct {
	store        Store
	ttl          time.Duration
	refreshEvery time.Duration
	now          func() time.Time
}

// NewManager creates a Manager whose sessions last ttl and are extended at
// most once per refreshEvery while in use.
func NewManager(store Store, ttl, refreshEvery time.Duration) *Manager {
	return &Manager{store: store, ttl: ttl, refreshEvery: refreshEvery, now: time.Now}
}

// Init opens a session for a user who has just logged in.
func (m *Manager) Init(ctx context.Context, userID uuid.UUID, username, role string) (Session, error) {
	now := m.now()
	s := Session{
		ID:          uuid.New(),
		UserID:      userID,
		Username:    username,
		Role:        role,
		IssuedAt:    now,
		ExpiresAt:   now.Add(m.ttl),
		RefreshedAt: now,
	}
	if err := m.store.Save(ctx, s); err != nil {
		return Session{}, fmt.Errorf("save session: %w", err)
	}
	return s, nil
}

// Validate returns the live session for id. An expired session is torn down
// and reported as ErrExpired.
func (m *Manager) Validate(ctx context.Context, id uuid.UUID) (Session, error) {
	s, err := m.store.Get(ctx, id)
	if err != nil {
		return Session{}, err
	}
	if !m.now().Before(s.ExpiresAt) {
		if err := m.store.Delete(ctx, id); err != nil {
			return Session{}, fmt.Errorf("teardown expired session: %w", err)
		}
		return Session{}, ErrExpired
	}
	return s, nil
}

// Touch refreshes s when its last refresh is older than the refresh interval.
// The returned flag reports whether a refresh happened.
func (m *Manager) Touch(ctx context.Context, s Session) (Session, bool, error) {
	if m.now().Sub(s.RefreshedAt) < m.refreshEvery {
		return s, false, nil
	}
	s, err := m.extend(ctx, s)
	if err != nil {
		return Session{}, false, err
	}
	return s, true, nil
}

// Refresh extends a live session to a full lifetime from now.
func (m *Manager) Refresh(ctx context.Context, id uuid.UUID) (Session, error) {
	s, err := m.Validate(ctx, id)
	if err != nil {
		return Session{}, err
	}
	return m.extend(ctx, s)
}

// Teardown ends a session. Ending an unknown session is not an error.
func (m *Manager) Teardown(ctx context.Context, id uuid.UUID) error {
	if err := m.store.Delete(ctx, id); err != nil && !errors.Is(err, ErrNotFound) {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

func (m *Manager) extend(ctx context.Context, s Session) (Session, error) {
	now := m.now()
	s.RefreshedAt = now
	s.ExpiresAt = now.Add(m.ttl)
	if err := m.store.Save(ctx, s); err != nil {
		return Session{}, fmt.Errorf("save session: %w", err)
	}
	return s, nil
}
