package tiramisu

import (
	"context"
	"io"
	"sync"
	"testing"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/snow884/tiramisu-wallet-client/internal/testserver"
)

// fakeClock records the requested pauses and fires immediately.
type fakeClock struct {
	mu     sync.Mutex
	sleeps []time.Duration
}

func (f *fakeClock) After(d time.Duration) <-chan time.Time {
	f.mu.Lock()
	f.sleeps = append(f.sleeps, d)
	f.mu.Unlock()
	ch := make(chan time.Time, 1)
	ch <- time.Time{}
	return ch
}

func (f *fakeClock) Sleeps() []time.Duration {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]time.Duration(nil), f.sleeps...)
}

// stoppedClock never fires.
type stoppedClock struct{}

func (stoppedClock) After(time.Duration) <-chan time.Time {
	return make(chan time.Time)
}

func quietLogger() *log.Logger {
	logger := log.New()
	logger.SetOutput(io.Discard)
	return logger
}

func newTestClient(t *testing.T, opts ...Option) (*Client, *testserver.Server, *fakeClock) {
	t.Helper()
	srv := testserver.New()
	t.Cleanup(srv.Close)
	clock := &fakeClock{}
	c, err := NewClient(context.Background(), testserver.Username, testserver.Password, append([]Option{
		WithServerURL(srv.RootURL()),
		WithLogger(quietLogger()),
		WithPolling(WithClock(clock)),
	}, opts...)...)
	require.NoError(t, err)
	return c, srv, clock
}
