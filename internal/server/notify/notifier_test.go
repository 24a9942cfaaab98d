package notify

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/authkeeper/internal/common"
	"github.com/dmitrijs2005/authkeeper/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockTransport struct {
	mock.Mock
}

func (m *mockTransport) Send(ctx context.Context, to, subject, body string) error {
	args := m.Called(ctx, to, subject, body)
	return args.Error(0)
}

// syncBuffer lets delivery goroutines log while the test reads.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestNotifier_DeliversAndCloseWaits(t *testing.T) {
	tr := &mockTransport{}
	tr.On("Send", mock.Anything, "a@example.com", "Verify your email", "Link: x").
		After(20*time.Millisecond).
		Return(nil).
		Once()

	n := New(tr, logging.Discard(), time.Second)
	n.Send(context.Background(), "a@example.com", "Verify your email", "Link: x")

	require.NoError(t, n.Close(context.Background()))
	tr.AssertExpectations(t)
}

func TestNotifier_FailureIsLoggedNotReturned(t *testing.T) {
	out := &syncBuffer{}
	logger := logging.New("debug", "json", out)

	tr := &mockTransport{}
	tr.On("Send", mock.Anything, "b@example.com", "Password reset", mock.Anything).
		Return(errors.Join(common.ErrTransportFailure, errors.New("relay refused"))).
		Once()

	n := New(tr, logger, time.Second)
	n.Send(context.Background(), "b@example.com", "Password reset", "Reset link: y")
	require.NoError(t, n.Close(context.Background()))

	assert.Contains(t, out.String(), "mail delivery failed")
	assert.Contains(t, out.String(), "relay refused")
	tr.AssertExpectations(t)
}

func TestNotifier_OutlivesRequestContext(t *testing.T) {
	tr := &mockTransport{}
	tr.On("Send", mock.Anything, "c@example.com", "s", "b").
		Run(func(args mock.Arguments) {
			ctx := args.Get(0).(context.Context)
			assert.NoError(t, ctx.Err())
			_, hasDeadline := ctx.Deadline()
			assert.True(t, hasDeadline)
		}).
		After(10 * time.Millisecond).
		Return(nil)

	n := New(tr, logging.Discard(), time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	n.Send(ctx, "c@example.com", "s", "b")
	cancel()

	require.NoError(t, n.Close(context.Background()))
	tr.AssertExpectations(t)
}

type blockingTransport struct{}

func (blockingTransport) Send(ctx context.Context, to, subject, body string) error {
	<-ctx.Done()
	return ctx.Err()
}

func TestNotifier_TimeoutBoundsDelivery(t *testing.T) {
	out := &syncBuffer{}
	n := New(blockingTransport{}, logging.New("info", "json", out), 20*time.Millisecond)

	n.Send(context.Background(), "d@example.com", "s", "b")

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, n.Close(ctx))
	assert.Contains(t, out.String(), "deadline exceeded")
}

func TestNotifier_CloseHonoursContext(t *testing.T) {
	n := New(blockingTransport{}, logging.Discard(), 500*time.Millisecond)
	n.Send(context.Background(), "e@example.com", "s", "b")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, n.Close(ctx), context.DeadlineExceeded)
}

func TestNotifier_DropsAfterClose(t *testing.T) {
	tr := &mockTransport{}
	n := New(tr, logging.Discard(), time.Second)
	require.NoError(t, n.Close(context.Background()))

	n.Send(context.Background(), "f@example.com", "s", "b")
	require.NoError(t, n.Close(context.Background()))

	tr.AssertNotCalled(t, "Send", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestNew_DefaultTimeout(t *testing.T) {
	n := New(&mockTransport{}, logging.Discard(), 0)
	assert.Equal(t, DefaultTimeout, n.timeout)
}

func TestLogTransport(t *testing.T) {
	out := &syncBuffer{}
	tr := NewLogTransport(logging.New("info", "json", out))

	require.NoError(t, tr.Send(context.Background(), "g@example.com", "Verify your email", "Link: http://x/verify-email?token=abc"))
	assert.Contains(t, out.String(), "g@example.com")
	assert.Contains(t, out.String(), "verify-email?token=abc")
}
