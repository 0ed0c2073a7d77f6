package notifxqueue_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/gestionsaas/identity/pkg/notifx"
	"github.com/gestionsaas/identity/pkg/notifx/notifxqueue"
)

// fakeOutbox feeds envelopes from a channel and records requeues.
type fakeOutbox struct {
	ready chan notifxqueue.Envelope

	mu       sync.Mutex
	requeued []requeueCall
}

type requeueCall struct {
	env   notifxqueue.Envelope
	delay time.Duration
}

func newFakeOutbox() *fakeOutbox {
	return &fakeOutbox{ready: make(chan notifxqueue.Envelope, 16)}
}

func (o *fakeOutbox) Enqueue(ctx context.Context, env notifxqueue.Envelope) error {
	o.ready <- env
	return nil
}

func (o *fakeOutbox) Dequeue(ctx context.Context, timeout time.Duration) (*notifxqueue.Envelope, error) {
	select {
	case env := <-o.ready:
		return &env, nil
	case <-ctx.Done():
		return nil, nil
	case <-time.After(timeout):
		return nil, nil
	}
}

func (o *fakeOutbox) Requeue(ctx context.Context, env notifxqueue.Envelope, delay time.Duration) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.requeued = append(o.requeued, requeueCall{env: env, delay: delay})
	return nil
}

func (o *fakeOutbox) Promote(ctx context.Context) error { return nil }

func (o *fakeOutbox) requeues() []requeueCall {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]requeueCall, len(o.requeued))
	copy(out, o.requeued)
	return out
}

// fakeSender fails the first failures sends, then succeeds.
type fakeSender struct {
	mu       sync.Mutex
	failures int
	sent     []notifx.EmailMessage
	done     chan struct{}
}

func newFakeSender(failures int) *fakeSender {
	return &fakeSender{failures: failures, done: make(chan struct{}, 16)}
}

func (s *fakeSender) SendEmail(ctx context.Context, msg notifx.EmailMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	defer func() { s.done <- struct{}{} }()
	if s.failures > 0 {
		s.failures--
		return errors.New("smtp unavailable")
	}
	s.sent = append(s.sent, msg)
	return nil
}

func (s *fakeSender) delivered() []notifx.EmailMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]notifx.EmailMessage, len(s.sent))
	copy(out, s.sent)
	return out
}

func runWorker(t *testing.T, outbox notifxqueue.Outbox, sender notifx.EmailSender) (cancel func()) {
	t.Helper()
	ctx, cancelCtx := context.WithCancel(context.Background())
	worker := notifxqueue.NewWorker(outbox, sender,
		notifxqueue.WithConcurrency(1),
		notifxqueue.WithPollInterval(10*time.Millisecond),
		notifxqueue.WithRetryDelay(time.Minute),
		notifxqueue.WithShutdownTimeout(time.Second),
	)

	stopped := make(chan struct{})
	go func() {
		_ = worker.Run(ctx)
		close(stopped)
	}()

	return func() {
		cancelCtx()
		select {
		case <-stopped:
		case <-time.After(5 * time.Second):
			t.Fatal("worker did not stop")
		}
	}
}

func waitForSend(t *testing.T, sender *fakeSender) {
	t.Helper()
	select {
	case <-sender.done:
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for send attempt")
	}
}

func TestWorkerDeliversQueuedMail(t *testing.T) {
	outbox := newFakeOutbox()
	sender := newFakeSender(0)
	stop := runWorker(t, outbox, sender)
	defer stop()

	dispatcher := notifxqueue.NewDispatcher(outbox, 3)
	msg := notifx.EmailMessage{
		To:      []string{"invitee@example.com"},
		Subject: "You have been invited",
	}
	if err := dispatcher.SendEmail(context.Background(), msg); err != nil {
		t.Fatalf("SendEmail: %v", err)
	}

	waitForSend(t, sender)

	got := sender.delivered()
	if len(got) != 1 {
		t.Fatalf("delivered = %d messages, want 1", len(got))
	}
	if got[0].To[0] != "invitee@example.com" {
		t.Errorf("To = %q, want invitee@example.com", got[0].To[0])
	}
	if len(outbox.requeues()) != 0 {
		t.Errorf("successful delivery should not requeue, got %d", len(outbox.requeues()))
	}
}

func TestWorkerRetriesWithBackoff(t *testing.T) {
	outbox := newFakeOutbox()
	sender := newFakeSender(2)
	stop := runWorker(t, outbox, sender)
	defer stop()

	dispatcher := notifxqueue.NewDispatcher(outbox, 3)
	if err := dispatcher.SendEmail(context.Background(), notifx.EmailMessage{
		To:      []string{"a@example.com"},
		Subject: "hi",
	}); err != nil {
		t.Fatalf("SendEmail: %v", err)
	}

	// First attempt fails and is requeued.
	waitForSend(t, sender)
	var first requeueCall
	deadline := time.Now().Add(5 * time.Second)
	for {
		if rq := outbox.requeues(); len(rq) >= 1 {
			first = rq[0]
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("envelope was not requeued after failure")
		}
		time.Sleep(5 * time.Millisecond)
	}
	if first.env.Attempts != 1 {
		t.Errorf("attempts after first failure = %d, want 1", first.env.Attempts)
	}
	if first.delay != time.Minute {
		t.Errorf("first retry delay = %v, want 1m", first.delay)
	}

	// Feed the retry back in; second failure doubles the delay.
	outbox.ready <- first.env
	waitForSend(t, sender)
	deadline = time.Now().Add(5 * time.Second)
	var second requeueCall
	for {
		if rq := outbox.requeues(); len(rq) >= 2 {
			second = rq[1]
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("envelope was not requeued after second failure")
		}
		time.Sleep(5 * time.Millisecond)
	}
	if second.env.Attempts != 2 {
		t.Errorf("attempts after second failure = %d, want 2", second.env.Attempts)
	}
	if second.delay != 2*time.Minute {
		t.Errorf("second retry delay = %v, want 2m", second.delay)
	}

	// Third attempt succeeds.
	outbox.ready <- second.env
	waitForSend(t, sender)
	if len(sender.delivered()) != 1 {
		t.Fatalf("delivered = %d, want 1", len(sender.delivered()))
	}
}

func TestWorkerDropsAfterMaxAttempts(t *testing.T) {
	outbox := newFakeOutbox()
	sender := newFakeSender(10)
	stop := runWorker(t, outbox, sender)
	defer stop()

	env := notifxqueue.Envelope{
		ID:          "env-1",
		Message:     notifx.EmailMessage{To: []string{"a@example.com"}, Subject: "hi"},
		Attempts:    2,
		MaxAttempts: 3,
	}
	outbox.ready <- env

	waitForSend(t, sender)

	// Give the worker a moment to (incorrectly) requeue.
	time.Sleep(50 * time.Millisecond)
	if len(outbox.requeues()) != 0 {
		t.Errorf("exhausted envelope should be dropped, got %d requeues", len(outbox.requeues()))
	}
	if len(sender.delivered()) != 0 {
		t.Errorf("delivered = %d, want 0", len(sender.delivered()))
	}
}
