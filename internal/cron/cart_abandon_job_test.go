package cron

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/fieldtoyou/fieldtoyou-backend/pkg/db/models"
	"github.com/fieldtoyou/fieldtoyou-backend/pkg/enums"
	"github.com/fieldtoyou/fieldtoyou-backend/pkg/logger"
)

type fakeCartStore struct {
	stale      []models.Cart
	findErr    error
	updateErr  error
	cutoffSeen time.Time
	updated    map[uuid.UUID]map[string]any
}

func (f *fakeCartStore) FindStaleActive(_ context.Context, cutoff time.Time) ([]models.Cart, error) {
	f.cutoffSeen = cutoff
	if f.findErr != nil {
		return nil, f.findErr
	}
	return f.stale, nil
}

func (f *fakeCartStore) Update(_ context.Context, id uuid.UUID, updates map[string]any) error {
	if f.updateErr != nil {
		return f.updateErr
	}
	if f.updated == nil {
		f.updated = map[uuid.UUID]map[string]any{}
	}
	f.updated[id] = updates
	return nil
}

func TestCartAbandonJobMarksStaleCarts(t *testing.T) {
	first := uuid.New()
	second := uuid.New()
	store := &fakeCartStore{stale: []models.Cart{{ID: first}, {ID: second}}}

	job, err := NewCartAbandonJob(CartAbandonJobParams{
		Logger:  logger.New(logger.Options{ServiceName: "cron-test"}),
		Carts:   store,
		MaxIdle: 48 * time.Hour,
	})
	if err != nil {
		t.Fatalf("construct job: %v", err)
	}

	fixed := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	job.(*cartAbandonJob).now = func() time.Time { return fixed }

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}
	if got, want := store.cutoffSeen, fixed.Add(-48*time.Hour); !got.Equal(want) {
		t.Fatalf("cutoff = %v, want %v", got, want)
	}
	if len(store.updated) != 2 {
		t.Fatalf("expected 2 carts updated, got %d", len(store.updated))
	}
	if status := store.updated[first]["status"]; status != enums.CartStatusAbandoned {
		t.Fatalf("expected status %v, got %v", enums.CartStatusAbandoned, status)
	}
}

func TestCartAbandonJobDefaultsMaxIdle(t *testing.T) {
	store := &fakeCartStore{}
	job, err := NewCartAbandonJob(CartAbandonJobParams{
		Logger: logger.New(logger.Options{ServiceName: "cron-test"}),
		Carts:  store,
	})
	if err != nil {
		t.Fatalf("construct job: %v", err)
	}
	if got := job.(*cartAbandonJob).maxIdle; got != defaultCartMaxIdle {
		t.Fatalf("maxIdle = %v, want %v", got, defaultCartMaxIdle)
	}
}

func TestCartAbandonJobStopsOnUpdateError(t *testing.T) {
	store := &fakeCartStore{
		stale:     []models.Cart{{ID: uuid.New()}},
		updateErr: errors.New("db down"),
	}
	job, err := NewCartAbandonJob(CartAbandonJobParams{
		Logger: logger.New(logger.Options{ServiceName: "cron-test"}),
		Carts:  store,
	})
	if err != nil {
		t.Fatalf("construct job: %v", err)
	}
	if err := job.Run(context.Background()); err == nil {
		t.Fatal("expected error, got nil")
	}
}

func TestCartAbandonJobRequiresStore(t *testing.T) {
	_, err := NewCartAbandonJob(CartAbandonJobParams{
		Logger: logger.New(logger.Options{ServiceName: "cron-test"}),
	})
	if err == nil {
		t.Fatal("expected error, got nil")
	}
}
