package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"

	"github.com/fieldtoyou/fieldtoyou-backend/internal/orders"
	"github.com/fieldtoyou/fieldtoyou-backend/pkg/db/models"
	"github.com/fieldtoyou/fieldtoyou-backend/pkg/enums"
	"github.com/fieldtoyou/fieldtoyou-backend/pkg/logger"
)

const (
	defaultPaymentTTL       = 24 * time.Hour
	pendingPaymentBatchSize = 100
)

type pendingOrderLister interface {
	List(ctx context.Context, filter orders.ListFilter) ([]models.Order, error)
}

type orderCanceller interface {
	Cancel(ctx context.Context, id uuid.UUID) (*models.Order, error)
}

// PendingPaymentTTLJobParams configure the stalled payment expirer.
type PendingPaymentTTLJobParams struct {
	Logger *logger.Logger
	Orders pendingOrderLister
	Cancel orderCanceller
	TTL    time.Duration
}

// NewPendingPaymentTTLJob builds the cron job that cancels orders stuck
// in PENDING_PAYMENT for longer than TTL. Cancelling restores the
// reserved stock, so abandoned checkouts stop starving inventory.
func NewPendingPaymentTTLJob(params PendingPaymentTTLJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Orders == nil {
		return nil, fmt.Errorf("order lister required")
	}
	if params.Cancel == nil {
		return nil, fmt.Errorf("order canceller required")
	}
	ttl := params.TTL
	if ttl <= 0 {
		ttl = defaultPaymentTTL
	}
	return &pendingPaymentTTLJob{
		logg:   params.Logger,
		orders: params.Orders,
		cancel: params.Cancel,
		ttl:    ttl,
		now:    time.Now,
	}, nil
}

type pendingPaymentTTLJob struct {
	logg   *logger.Logger
	orders pendingOrderLister
	cancel orderCanceller
	ttl    time.Duration
	now    func() time.Time
}

func (j *pendingPaymentTTLJob) Name() string { return "pending-payment-ttl" }

func (j *pendingPaymentTTLJob) Run(ctx context.Context) error {
	cutoff := j.now().UTC().Add(-j.ttl)
	status := enums.OrderStatusPendingPayment
	stale, err := j.orders.List(ctx, orders.ListFilter{
		Status:        &status,
		CreatedBefore: &cutoff,
		Limit:         pendingPaymentBatchSize,
	})
	if err != nil {
		return fmt.Errorf("query stalled orders: %w", err)
	}

	var errs error
	cancelled := 0
	for _, order := range stale {
		if _, err := j.cancel.Cancel(ctx, order.ID); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("cancel order %s: %w", order.ID, err))
			continue
		}
		cancelled++
	}

	logCtx := j.logg.WithFields(ctx, map[string]any{"count": cancelled})
	j.logg.Info(logCtx, "stalled payment sweep complete")
	return errs
}
