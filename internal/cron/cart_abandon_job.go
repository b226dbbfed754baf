package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/fieldtoyou/fieldtoyou-backend/pkg/db/models"
	"github.com/fieldtoyou/fieldtoyou-backend/pkg/enums"
	"github.com/fieldtoyou/fieldtoyou-backend/pkg/logger"
)

const defaultCartMaxIdle = 72 * time.Hour

type staleCartStore interface {
	FindStaleActive(ctx context.Context, cutoff time.Time) ([]models.Cart, error)
	Update(ctx context.Context, id uuid.UUID, updates map[string]any) error
}

// CartAbandonJobParams configure the stale cart sweeper.
type CartAbandonJobParams struct {
	Logger  *logger.Logger
	Carts   staleCartStore
	MaxIdle time.Duration
}

// NewCartAbandonJob builds the cron job that flips carts nobody touched
// for MaxIdle from ACTIVE to ABANDONED. Abandoned carts hold no stock,
// so this is bookkeeping only; the session simply gets a fresh cart on
// its next add.
func NewCartAbandonJob(params CartAbandonJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Carts == nil {
		return nil, fmt.Errorf("cart store required")
	}
	maxIdle := params.MaxIdle
	if maxIdle <= 0 {
		maxIdle = defaultCartMaxIdle
	}
	return &cartAbandonJob{
		logg:    params.Logger,
		carts:   params.Carts,
		maxIdle: maxIdle,
		now:     time.Now,
	}, nil
}

type cartAbandonJob struct {
	logg    *logger.Logger
	carts   staleCartStore
	maxIdle time.Duration
	now     func() time.Time
}

func (j *cartAbandonJob) Name() string { return "cart-abandon" }

func (j *cartAbandonJob) Run(ctx context.Context) error {
	cutoff := j.now().UTC().Add(-j.maxIdle)
	stale, err := j.carts.FindStaleActive(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("query stale carts: %w", err)
	}

	count := 0
	for _, basket := range stale {
		if err := j.carts.Update(ctx, basket.ID, map[string]any{"status": enums.CartStatusAbandoned}); err != nil {
			return fmt.Errorf("abandon cart %s: %w", basket.ID, err)
		}
		count++
	}

	logCtx := j.logg.WithFields(ctx, map[string]any{"count": count})
	j.logg.Info(logCtx, "cart abandonment sweep complete")
	return nil
}
