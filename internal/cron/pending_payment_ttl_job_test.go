package cron

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/fieldtoyou/fieldtoyou-backend/internal/orders"
	"github.com/fieldtoyou/fieldtoyou-backend/pkg/db/models"
	"github.com/fieldtoyou/fieldtoyou-backend/pkg/enums"
	"github.com/fieldtoyou/fieldtoyou-backend/pkg/logger"
)

type fakeOrderLister struct {
	orders     []models.Order
	err        error
	filterSeen orders.ListFilter
}

func (f *fakeOrderLister) List(_ context.Context, filter orders.ListFilter) ([]models.Order, error) {
	f.filterSeen = filter
	if f.err != nil {
		return nil, f.err
	}
	return f.orders, nil
}

type fakeOrderCanceller struct {
	cancelled []uuid.UUID
	failOn    uuid.UUID
}

func (f *fakeOrderCanceller) Cancel(_ context.Context, id uuid.UUID) (*models.Order, error) {
	if id == f.failOn {
		return nil, errors.New("cancel rejected")
	}
	f.cancelled = append(f.cancelled, id)
	return &models.Order{ID: id, Status: enums.OrderStatusCancelled}, nil
}

func newPendingPaymentJob(t *testing.T, lister *fakeOrderLister, canceller *fakeOrderCanceller, ttl time.Duration) *pendingPaymentTTLJob {
	t.Helper()
	job, err := NewPendingPaymentTTLJob(PendingPaymentTTLJobParams{
		Logger: logger.New(logger.Options{ServiceName: "cron-test"}),
		Orders: lister,
		Cancel: canceller,
		TTL:    ttl,
	})
	if err != nil {
		t.Fatalf("construct job: %v", err)
	}
	return job.(*pendingPaymentTTLJob)
}

func TestPendingPaymentTTLJobCancelsStalledOrders(t *testing.T) {
	first := uuid.New()
	second := uuid.New()
	lister := &fakeOrderLister{orders: []models.Order{{ID: first}, {ID: second}}}
	canceller := &fakeOrderCanceller{}

	job := newPendingPaymentJob(t, lister, canceller, 6*time.Hour)
	fixed := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	job.now = func() time.Time { return fixed }

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}

	if lister.filterSeen.Status == nil || *lister.filterSeen.Status != enums.OrderStatusPendingPayment {
		t.Fatalf("expected PENDING_PAYMENT filter, got %v", lister.filterSeen.Status)
	}
	if lister.filterSeen.CreatedBefore == nil || !lister.filterSeen.CreatedBefore.Equal(fixed.Add(-6*time.Hour)) {
		t.Fatalf("unexpected cutoff %v", lister.filterSeen.CreatedBefore)
	}
	if len(canceller.cancelled) != 2 {
		t.Fatalf("expected 2 cancellations, got %d", len(canceller.cancelled))
	}
}

func TestPendingPaymentTTLJobContinuesPastCancelFailure(t *testing.T) {
	broken := uuid.New()
	healthy := uuid.New()
	lister := &fakeOrderLister{orders: []models.Order{{ID: broken}, {ID: healthy}}}
	canceller := &fakeOrderCanceller{failOn: broken}

	job := newPendingPaymentJob(t, lister, canceller, 0)

	err := job.Run(context.Background())
	if err == nil {
		t.Fatal("expected combined error, got nil")
	}
	if len(canceller.cancelled) != 1 || canceller.cancelled[0] != healthy {
		t.Fatalf("expected the healthy order to still be cancelled, got %v", canceller.cancelled)
	}
}

func TestPendingPaymentTTLJobDefaultsTTL(t *testing.T) {
	job := newPendingPaymentJob(t, &fakeOrderLister{}, &fakeOrderCanceller{}, 0)
	if job.ttl != defaultPaymentTTL {
		t.Fatalf("ttl = %v, want %v", job.ttl, defaultPaymentTTL)
	}
}

func TestPendingPaymentTTLJobPropagatesListError(t *testing.T) {
	lister := &fakeOrderLister{err: errors.New("db down")}
	job := newPendingPaymentJob(t, lister, &fakeOrderCanceller{}, time.Hour)
	if err := job.Run(context.Background()); err == nil {
		t.Fatal("expected error, got nil")
	}
}
