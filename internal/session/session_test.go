package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
)

type clock struct{ t time.Time }

func (c *clock) now() time.Time { return c.t }

func newTestManager() (*Manager, *MemoryStore, *clock) {
	c := &clock{t: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
	store := NewMemoryStore()
	store.now = c.now
	m := NewManager(store, 24*time.Hour, time.Hour)
	m.now = c.now
	return m, store, c
}

func TestManager_InitAndValidate(t *testing.T) {
	m, _, c := newTestManager()
	ctx := context.Background()

	s, err := m.Init(ctx, uuid.New(), "sara", "manager")
	if err != nil {
		t.Fatalf("Init: %v", err)
	}
	if !s.ExpiresAt.Equal(c.t.Add(24 * time.Hour)) {
		t.Errorf("ExpiresAt = %v, want +24h", s.ExpiresAt)
	}

	got, err := m.Validate(ctx, s.ID)
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if got.Username != "sara" || got.Role != "manager" {
		t.Errorf("unexpected session: %+v", got)
	}
}

func TestManager_ValidateExpiredTearsDown(t *testing.T) {
	m, store, c := newTestManager()
	ctx := context.Background()

	s, _ := m.Init(ctx, uuid.New(), "sara", "user")
	c.t = c.t.Add(24*time.Hour + time.Second)

	if _, err := m.Validate(ctx, s.ID); !errors.Is(err, ErrExpired) {
		t.Fatalf("err = %v, want ErrExpired", err)
	}
	if _, err := store.Get(ctx, s.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("expired session should be removed, got %v", err)
	}
}

func TestManager_ValidateUnknown(t *testing.T) {
	m, _, _ := newTestManager()
	if _, err := m.Validate(context.Background(), uuid.New()); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestManager_TouchRefreshesAtMostHourly(t *testing.T) {
	m, _, c := newTestManager()
	ctx := context.Background()
	s, _ := m.Init(ctx, uuid.New(), "sara", "user")

	c.t = c.t.Add(30 * time.Minute)
	same, refreshed, err := m.Touch(ctx, s)
	if err != nil || refreshed {
		t.Fatalf("Touch after 30m: refreshed=%v err=%v", refreshed, err)
	}
	if !same.ExpiresAt.Equal(s.ExpiresAt) {
		t.Error("expiry should not move before the refresh interval")
	}

	c.t = c.t.Add(31 * time.Minute)
	next, refreshed, err := m.Touch(ctx, s)
	if err != nil || !refreshed {
		t.Fatalf("Touch after 61m: refreshed=%v err=%v", refreshed, err)
	}
	if !next.ExpiresAt.Equal(c.t.Add(24 * time.Hour)) {
		t.Errorf("ExpiresAt = %v, want now+24h", next.ExpiresAt)
	}
}

func TestManager_RefreshExtends(t *testing.T) {
	m, _, c := newTestManager()
	ctx := context.Background()
	s, _ := m.Init(ctx, uuid.New(), "sara", "user")

	c.t = c.t.Add(23 * time.Hour)
	r, err := m.Refresh(ctx, s.ID)
	if err != nil {
		t.Fatalf("Refresh: %v", err)
	}

	c.t = c.t.Add(2 * time.Hour)
	if _, err := m.Validate(ctx, r.ID); err != nil {
		t.Errorf("refreshed session should still be valid: %v", err)
	}
}

func TestManager_RefreshExpiredFails(t *testing.T) {
	m, _, c := newTestManager()
	ctx := context.Background()
	s, _ := m.Init(ctx, uuid.New(), "sara", "user")

	c.t = c.t.Add(25 * time.Hour)
	if _, err := m.Refresh(ctx, s.ID); !errors.Is(err, ErrExpired) {
		t.Fatalf("err = %v, want ErrExpired", err)
	}
}

func TestManager_Teardown(t *testing.T) {
	m, _, _ := newTestManager()
	ctx := context.Background()
	s, _ := m.Init(ctx, uuid.New(), "sara", "user")

	if err := m.Teardown(ctx, s.ID); err != nil {
		t.Fatalf("Teardown: %v", err)
	}
	if _, err := m.Validate(ctx, s.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
	if err := m.Teardown(ctx, s.ID); err != nil {
		t.Errorf("second Teardown should be a no-op, got %v", err)
	}
}

func TestMemoryStore_Sweep(t *testing.T) {
	m, store, c := newTestManager()
	ctx := context.Background()
	m.Init(ctx, uuid.New(), "a", "user")
	c.t = c.t.Add(12 * time.Hour)
	m.Init(ctx, uuid.New(), "b", "user")

	c.t = c.t.Add(13 * time.Hour)
	if n := store.Sweep(); n != 1 {
		t.Errorf("Sweep removed %d, want 1", n)
	}
}
