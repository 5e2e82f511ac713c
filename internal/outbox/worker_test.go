package outbox

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"inkwell/internal/models"
	"inkwell/internal/repositories"
)

type MockOutboxRepository struct {
	mock.Mock
}

func (m *MockOutboxRepository) Enqueue(ctx context.Context, db repositories.DB, tenantID uuid.UUID, eventType string, payload any) (uuid.UUID, error) {
	args := m.Called(ctx, db, tenantID, eventType, payload)
	return args.Get(0).(uuid.UUID), args.Error(1)
}

func (m *MockOutboxRepository) ClaimDue(ctx context.Context, db repositories.DB, limit int) ([]models.OutboxEvent, error) {
	args := m.Called(ctx, db, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.OutboxEvent), args.Error(1)
}

func (m *MockOutboxRepository) MarkSent(ctx context.Context, db repositories.DB, id uuid.UUID) error {
	args := m.Called(ctx, db, id)
	return args.Error(0)
}

func (m *MockOutboxRepository) MarkFailed(ctx context.Context, db repositories.DB, id uuid.UUID, deliveryErr string, nextAttempt time.Time) error {
	args := m.Called(ctx, db, id, deliveryErr, nextAttempt)
	return args.Error(0)
}

func (m *MockOutboxRepository) MarkDead(ctx context.Context, db repositories.DB, id uuid.UUID, deliveryErr string) error {
	args := m.Called(ctx, db, id, deliveryErr)
	return args.Error(0)
}

type stubSender struct {
	mu   sync.Mutex
	err  error
	seen []uuid.UUID
}

func (s *stubSender) Send(ctx context.Context, event models.OutboxEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seen = append(s.seen, event.ID)
	return s.err
}

func newTestWorker(repo repositories.OutboxRepository, sender Sender, now time.Time) *Worker {
	return &Worker{
		outboxRepo: repo,
		sender:     sender,
		now:        func() time.Time { return now },
	}
}

func TestBackoffProgression(t *testing.T) {
	// 1m, 2m, 4m, 8m, ... capped at 1h.
	assert.Equal(t, time.Minute, Backoff(0))
	assert.Equal(t, 2*time.Minute, Backoff(1))
	assert.Equal(t, 4*time.Minute, Backoff(2))
	assert.Equal(t, 8*time.Minute, Backoff(3))
	assert.Equal(t, 32*time.Minute, Backoff(5))
	assert.Equal(t, time.Hour, Backoff(6))
	assert.Equal(t, time.Hour, Backoff(40))
}

func TestDeliverSuccessMarksSent(t *testing.T) {
	repo := new(MockOutboxRepository)
	sender := &stubSender{}
	w := newTestWorker(repo, sender, time.Now())

	event := models.OutboxEvent{ID: uuid.New(), EventType: models.EventInvitationSent}
	repo.On("MarkSent", mock.Anything, mock.Anything, event.ID).Return(nil)

	w.deliver(context.Background(), event)

	assert.Equal(t, []uuid.UUID{event.ID}, sender.seen)
	repo.AssertExpectations(t)
}

func TestDeliverFailureSchedulesRetryWithBackoff(t *testing.T) {
	repo := new(MockOutboxRepository)
	sender := &stubSender{err: errors.New("relay down")}
	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	w := newTestWorker(repo, sender, now)

	event := models.OutboxEvent{ID: uuid.New(), EventType: models.EventInvitationSent, Attempts: 2}
	repo.On("MarkFailed", mock.Anything, mock.Anything, event.ID, "relay down", now.Add(4*time.Minute)).
		Return(nil)

	w.deliver(context.Background(), event)

	repo.AssertExpectations(t)
	repo.AssertNotCalled(t, "MarkDead", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestDeliverDeadLettersAfterMaxAttempts(t *testing.T) {
	repo := new(MockOutboxRepository)
	sender := &stubSender{err: errors.New("relay down")}
	w := newTestWorker(repo, sender, time.Now())

	tenantID := uuid.New()
	event := models.OutboxEvent{
		ID:        uuid.New(),
		TenantID:  tenantID,
		EventType: models.EventInvitationSent,
		Attempts:  maxAttempts - 1,
	}
	repo.On("MarkDead", mock.Anything, mock.Anything, event.ID, "relay down").Return(nil)
	repo.On("Enqueue", mock.Anything, mock.Anything, tenantID,
		models.EventInvitationDeliveryFailed, mock.Anything).Return(uuid.New(), nil)

	w.deliver(context.Background(), event)

	repo.AssertExpectations(t)
	repo.AssertNotCalled(t, "MarkFailed", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestSweepDeliversClaimedBatch(t *testing.T) {
	repo := new(MockOutboxRepository)
	sender := &stubSender{}
	w := newTestWorker(repo, sender, time.Now())

	events := []models.OutboxEvent{
		{ID: uuid.New(), EventType: models.EventInvitationSent},
		{ID: uuid.New(), EventType: models.EventInvitationSent},
	}
	repo.On("ClaimDue", mock.Anything, mock.Anything, claimBatchSize).Return(events, nil)
	repo.On("MarkSent", mock.Anything, mock.Anything, mock.Anything).Return(nil)

	w.Sweep(context.Background())

	assert.Len(t, sender.seen, 2)
	repo.AssertExpectations(t)
}
