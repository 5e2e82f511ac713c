package outbox

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"

	"inkwell/internal/models"
	"inkwell/internal/repositories"
)

const (
	sweepInterval  = 30 * time.Second
	claimBatchSize = 50
	maxAttempts    = 5
	maxConcurrent  = 8

	baseBackoff = time.Minute
	maxBackoff  = time.Hour
)

// Worker sweeps the outbox on a fixed interval and delivers due
// events. Failures back off exponentially; after maxAttempts the event
// is marked failed and a dead-letter row is recorded for operators.
type Worker struct {
	scheduler  gocron.Scheduler
	pool       repositories.DB
	outboxRepo repositories.OutboxRepository
	sender     Sender
	now        func() time.Time
}

func NewWorker(pool repositories.DB, outboxRepo repositories.OutboxRepository, sender Sender) (*Worker, error) {
	scheduler, err := gocron.NewScheduler()
	if err != nil {
		return nil, err
	}

	w := &Worker{
		scheduler:  scheduler,
		pool:       pool,
		outboxRepo: outboxRepo,
		sender:     sender,
		now:        time.Now,
	}

	_, err = scheduler.NewJob(
		gocron.DurationJob(sweepInterval),
		gocron.NewTask(w.Sweep, context.Background()),
		gocron.WithName("outbox-delivery"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return nil, err
	}
	return w, nil
}

func (w *Worker) Start() {
	log.Printf("starting outbox delivery worker (every %s)", sweepInterval)
	w.scheduler.Start()
}

func (w *Worker) Stop() error {
	log.Printf("stopping outbox delivery worker")
	return w.scheduler.Shutdown()
}

// Sweep claims one batch of due events and delivers them with bounded
// concurrency.
func (w *Worker) Sweep(ctx context.Context) {
	events, err := w.outboxRepo.ClaimDue(ctx, w.pool, claimBatchSize)
	if err != nil {
		log.Printf("ERROR: outbox claim failed: %v", err)
		return
	}
	if len(events) == 0 {
		return
	}

	sem := make(chan struct{}, maxConcurrent)
	var wg sync.WaitGroup
	for _, event := range events {
		wg.Add(1)
		sem <- struct{}{}
		go func(ev models.OutboxEvent) {
			defer wg.Done()
			defer func() { <-sem }()
			w.deliver(ctx, ev)
		}(event)
	}
	wg.Wait()
}

func (w *Worker) deliver(ctx context.Context, event models.OutboxEvent) {
	err := w.sender.Send(ctx, event)
	if err == nil {
		if markErr := w.outboxRepo.MarkSent(ctx, w.pool, event.ID); markErr != nil {
			log.Printf("ERROR: mark outbox event %s sent: %v", event.ID, markErr)
		}
		return
	}

	attempts := event.Attempts + 1
	if attempts >= maxAttempts {
		log.Printf("outbox event %s (%s) dead after %d attempts: %v", event.ID, event.EventType, attempts, err)
		if markErr := w.outboxRepo.MarkDead(ctx, w.pool, event.ID, err.Error()); markErr != nil {
			log.Printf("ERROR: mark outbox event %s dead: %v", event.ID, markErr)
			return
		}
		// Dead-letter row so operators can see undelivered invitations.
		if event.EventType == models.EventInvitationSent {
			if _, dlErr := w.outboxRepo.Enqueue(ctx, w.pool, event.TenantID,
				models.EventInvitationDeliveryFailed, map[string]string{
					"original_event_id": event.ID.String(),
					"error":             err.Error(),
				}); dlErr != nil {
				log.Printf("ERROR: record dead letter for %s: %v", event.ID, dlErr)
			}
		}
		return
	}

	next := w.now().Add(Backoff(event.Attempts))
	log.Printf("outbox event %s delivery failed (attempt %d/%d), retrying at %s: %v",
		event.ID, attempts, maxAttempts, next.Format(time.RFC3339), err)
	if markErr := w.outboxRepo.MarkFailed(ctx, w.pool, event.ID, err.Error(), next); markErr != nil {
		log.Printf("ERROR: mark outbox event %s failed: %v", event.ID, markErr)
	}
}

// Backoff returns the delay before the next attempt: one minute
// doubled per prior attempt, capped at an hour.
func Backoff(attempts int) time.Duration {
	if attempts >= 6 {
		return maxBackoff
	}
	d := baseBackoff << attempts
	if d > maxBackoff {
		return maxBackoff
	}
	return d
}
