package notifxqueue

import (
	"context"
	"sync"
	"time"

	"github.com/gestionsaas/identity/pkg/logx"
	"github.com/gestionsaas/identity/pkg/notifx"
)

// WorkerOptions configures the delivery worker.
type WorkerOptions struct {
	Concurrency     int
	PollInterval    time.Duration
	DequeueTimeout  time.Duration
	RetryDelay      time.Duration
	ShutdownTimeout time.Duration
}

func defaultWorkerOptions() WorkerOptions {
	return WorkerOptions{
		Concurrency:     2,
		PollInterval:    time.Second,
		DequeueTimeout:  5 * time.Second,
		RetryDelay:      30 * time.Second,
		ShutdownTimeout: 30 * time.Second,
	}
}

// WorkerOption is a functional option for configuring the worker.
type WorkerOption func(*WorkerOptions)

// WithConcurrency sets the number of delivery goroutines.
func WithConcurrency(n int) WorkerOption {
	return func(o *WorkerOptions) {
		if n > 0 {
			o.Concurrency = n
		}
	}
}

// WithPollInterval sets how often scheduled retries are promoted.
func WithPollInterval(d time.Duration) WorkerOption {
	return func(o *WorkerOptions) {
		o.PollInterval = d
	}
}

// WithRetryDelay sets the base delay before a failed send is retried.
// The delay doubles with each further attempt.
func WithRetryDelay(d time.Duration) WorkerOption {
	return func(o *WorkerOptions) {
		o.RetryDelay = d
	}
}

// WithShutdownTimeout sets the maximum time to wait for in-flight
// deliveries on shutdown.
func WithShutdownTimeout(d time.Duration) WorkerOption {
	return func(o *WorkerOptions) {
		o.ShutdownTimeout = d
	}
}

// Worker drains the outbox and delivers mail through a notifx provider.
type Worker struct {
	outbox Outbox
	sender notifx.EmailSender
	opts   WorkerOptions

	mu      sync.Mutex
	running bool
}

// NewWorker creates a delivery worker.
func NewWorker(outbox Outbox, sender notifx.EmailSender, options ...WorkerOption) *Worker {
	opts := defaultWorkerOptions()
	for _, o := range options {
		o(&opts)
	}
	return &Worker{outbox: outbox, sender: sender, opts: opts}
}

// Run processes queued mail until ctx is cancelled.
func (w *Worker) Run(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return queueErrors.New(ErrAlreadyRunning)
	}
	w.running = true
	w.mu.Unlock()

	defer func() {
		w.mu.Lock()
		w.running = false
		w.mu.Unlock()
	}()

	logx.Infof("mail worker: starting %d delivery goroutines", w.opts.Concurrency)

	var wg sync.WaitGroup

	// Scheduler goroutine: promotes retries whose delay has elapsed.
	wg.Add(1)
	go func() {
		defer wg.Done()
		w.promoteLoop(ctx)
	}()

	for i := 0; i < w.opts.Concurrency; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			w.deliveryLoop(ctx, id)
		}(i)
	}

	<-ctx.Done()
	logx.Info("mail worker: shutting down...")

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		logx.Info("mail worker: stopped")
	case <-time.After(w.opts.ShutdownTimeout):
		logx.Warn("mail worker: shutdown timed out, some deliveries may be incomplete")
	}

	return nil
}

func (w *Worker) promoteLoop(ctx context.Context) {
	ticker := time.NewTicker(w.opts.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := w.outbox.Promote(ctx); err != nil {
				if ctx.Err() != nil {
					return
				}
				logx.WithError(err).Warn("mail worker: failed to promote scheduled retries")
			}
		}
	}
}

func (w *Worker) deliveryLoop(ctx context.Context, id int) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		env, err := w.outbox.Dequeue(ctx, w.opts.DequeueTimeout)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			logx.WithError(err).Warnf("mail worker: goroutine %d dequeue error", id)
			time.Sleep(w.opts.PollInterval)
			continue
		}
		if env == nil {
			continue
		}

		w.deliver(ctx, env)
	}
}

// deliver attempts a single send. Failures are requeued with exponential
// backoff until MaxAttempts is exhausted, then dropped with a log entry.
func (w *Worker) deliver(ctx context.Context, env *Envelope) {
	err := w.sender.SendEmail(ctx, env.Message)
	if err == nil {
		return
	}

	env.Attempts++
	if env.Attempts >= env.MaxAttempts {
		logx.WithFields(logx.Fields{
			"envelope_id": env.ID,
			"attempts":    env.Attempts,
		}).WithError(err).Error("mail worker: dropping email after exhausting retries")
		return
	}

	delay := w.opts.RetryDelay << (env.Attempts - 1)
	logx.WithFields(logx.Fields{
		"envelope_id": env.ID,
		"attempt":     env.Attempts,
		"retry_in":    delay.String(),
	}).WithError(err).Warn("mail worker: send failed, scheduling retry")

	if rqErr := w.outbox.Requeue(ctx, *env, delay); rqErr != nil {
		logx.WithError(rqErr).Errorf("mail worker: failed to requeue envelope %s", env.ID)
	}
}
