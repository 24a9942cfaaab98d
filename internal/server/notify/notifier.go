// Package notify delivers account emails (verification and password reset
// links). Delivery is best effort: failures are logged, never returned to the
// request that triggered them.
package notify

import (
	"context"
	"sync"
	"time"

	"github.com/dmitrijs2005/authkeeper/internal/logging"
)

// Transport hands one plain-text message to an outbound mail system.
type Transport interface {
	Send(ctx context.Context, to, subject, body string) error
}

// DefaultTimeout bounds a single delivery attempt when none is configured.
const DefaultTimeout = 30 * time.Second

// Notifier dispatches messages to a Transport in background goroutines.
type Notifier struct {
	transport Transport
	logger    logging.Logger
	timeout   time.Duration

	mu     sync.Mutex
	closed bool
	wg     sync.WaitGroup
}

// New returns a Notifier delivering through transport.
func New(transport Transport, logger logging.Logger, timeout time.Duration) *Notifier {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Notifier{
		transport: transport,
		logger:    logger.With("module", "notify"),
		timeout:   timeout,
	}
}

// Send queues a message and returns immediately. The delivery outlives ctx's
// cancellation but keeps its values (request id) for logging.
func (n *Notifier) Send(ctx context.Context, to, subject, body string) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.closed {
		n.logger.Warn(ctx, "notifier closed, message dropped", "to", to, "subject", subject)
		return
	}

	n.wg.Add(1)
	go func() {
		defer n.wg.Done()

		dctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), n.timeout)
		defer cancel()

		if err := n.transport.Send(dctx, to, subject, body); err != nil {
			n.logger.Error(dctx, "mail delivery failed", "to", to, "subject", subject, "error", err)
			return
		}
		n.logger.Debug(dctx, "mail delivered", "to", to, "subject", subject)
	}()
}

// Close stops accepting messages and waits for in-flight deliveries or for
// ctx to end, whichever comes first.
func (n *Notifier) Close(ctx context.Context) error {
	n.mu.Lock()
	n.closed = true
	n.mu.Unlock()

	done := make(chan struct{})
	go func() {
		n.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
