// Package notifxqueue provides durable, asynchronous email delivery on top
// of notifx. Producers enqueue messages into an Outbox; a Worker drains the
// outbox and hands messages to a notifx provider, retrying failed sends with
// exponential backoff.
package notifxqueue

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/gestionsaas/identity/pkg/errx"
	"github.com/gestionsaas/identity/pkg/notifx"
)

var queueErrors = errx.NewRegistry("NOTIF_QUEUE")

var (
	ErrEnqueue        = queueErrors.Register("ENQUEUE", errx.TypeExternal, 500, "Failed to enqueue email")
	ErrDequeue        = queueErrors.Register("DEQUEUE", errx.TypeExternal, 500, "Failed to dequeue email")
	ErrRequeue        = queueErrors.Register("REQUEUE", errx.TypeExternal, 500, "Failed to requeue email")
	ErrPromote        = queueErrors.Register("PROMOTE", errx.TypeExternal, 500, "Failed to promote scheduled emails")
	ErrDecode         = queueErrors.Register("DECODE", errx.TypeInternal, 500, "Failed to decode queued email")
	ErrAlreadyRunning = queueErrors.Register("ALREADY_RUNNING", errx.TypeConflict, 409, "Worker is already running")
)

// Envelope wraps an email message with delivery bookkeeping.
type Envelope struct {
	ID          string              `json:"id"`
	Message     notifx.EmailMessage `json:"message"`
	Attempts    int                 `json:"attempts"`
	MaxAttempts int                 `json:"max_attempts"`
	EnqueuedAt  time.Time           `json:"enqueued_at"`
}

// Outbox is the storage backend for queued mail.
type Outbox interface {
	// Enqueue makes the envelope immediately available for delivery.
	Enqueue(ctx context.Context, env Envelope) error
	// Dequeue blocks until an envelope is ready or the timeout expires.
	// Returns (nil, nil) on timeout.
	Dequeue(ctx context.Context, timeout time.Duration) (*Envelope, error)
	// Requeue schedules the envelope for redelivery after delay.
	Requeue(ctx context.Context, env Envelope, delay time.Duration) error
	// Promote moves envelopes whose scheduled time has passed back into
	// the ready queue.
	Promote(ctx context.Context) error
}

// Dispatcher is the producer half of the queue. It satisfies
// notifx.EmailSender so services can enqueue mail through the same
// interface they would use for a direct provider.
type Dispatcher struct {
	outbox      Outbox
	maxAttempts int
}

// NewDispatcher creates a dispatcher that enqueues into outbox.
func NewDispatcher(outbox Outbox, maxAttempts int) *Dispatcher {
	if maxAttempts <= 0 {
		maxAttempts = 3
	}
	return &Dispatcher{outbox: outbox, maxAttempts: maxAttempts}
}

// SendEmail enqueues the message for asynchronous delivery.
func (d *Dispatcher) SendEmail(ctx context.Context, msg notifx.EmailMessage) error {
	env := Envelope{
		ID:          uuid.New().String(),
		Message:     msg,
		Attempts:    0,
		MaxAttempts: d.maxAttempts,
		EnqueuedAt:  time.Now().UTC(),
	}
	return d.outbox.Enqueue(ctx, env)
}
