package tiramisu

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	log "github.com/sirupsen/logrus"
)

const (
	DefaultMaxAttempts  = 1000
	DefaultPollInterval = time.Second
)

// PollState is the state of a WaitForStatus call.
type PollState int

const (
	// PollPending: the last observed status is neither the target nor error.
	PollPending PollState = iota
	PollReached
	PollFailed
	PollTimedOut
	// PollAborted: a status fetch failed or the context ended.
	PollAborted
)

var pollStateNames = map[PollState]string{
	PollPending:  "pending",
	PollReached:  "reached",
	PollFailed:   "failed",
	PollTimedOut: "timed_out",
	PollAborted:  "aborted",
}

func (s PollState) String() string {
	return pollStateNames[s]
}

// Clock paces the attempts of WaitForStatus.
type Clock interface {
	After(d time.Duration) <-chan time.Time
}

type realClock struct{}

func (realClock) After(d time.Duration) <-chan time.Time {
	return time.After(d)
}

type pollConfig struct {
	maxAttempts int
	interval    time.Duration
	newBackOff  func() backoff.BackOff
	clock       Clock
	observers   []func(*Transaction)
	strict      bool
}

type PollOption func(*pollConfig)

// MaxAttempts bounds the number of status fetches.
func MaxAttempts(n int) PollOption {
	return func(c *pollConfig) {
		c.maxAttempts = n
	}
}

// Interval sets the fixed pause between two fetches.
func Interval(d time.Duration) PollOption {
	return func(c *pollConfig) {
		c.interval = d
	}
}

// WithBackOff replaces the fixed interval by a backoff policy. newBackOff is
// called once per wait, so concurrent waits never share a policy. A policy
// returning backoff.Stop ends the wait as a timeout.
func WithBackOff(newBackOff func() backoff.BackOff) PollOption {
	return func(c *pollConfig) {
		c.newBackOff = newBackOff
	}
}

func WithClock(clock Clock) PollOption {
	return func(c *pollConfig) {
		c.clock = clock
	}
}

// OnStatus registers f to be called with every non-terminal record observed.
// It is informational only.
func OnStatus(f func(*Transaction)) PollOption {
	return func(c *pollConfig) {
		c.observers = append(c.observers, f)
	}
}

// StrictStatus rejects targets that are not one of the named statuses instead
// of polling for them until the attempts run out.
func StrictStatus() PollOption {
	return func(c *pollConfig) {
		c.strict = true
	}
}

func (c *Client) newPollConfig(opts []PollOption) pollConfig {
	cfg := pollConfig{
		maxAttempts: DefaultMaxAttempts,
		interval:    DefaultPollInterval,
		clock:       realClock{},
	}
	for _, opt := range c.pollOptions {
		opt(&cfg)
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

// backOff returns a fresh policy for one wait.
func (cfg pollConfig) backOff() backoff.BackOff {
	if cfg.newBackOff == nil {
		return backoff.NewConstantBackOff(cfg.interval)
	}
	return cfg.newBackOff()
}

// poller runs the wait for a single transaction.
type poller struct {
	client   *Client
	cfg      pollConfig
	backOff  backoff.BackOff
	id       int64
	target   Status
	state    PollState
	attempts int
	last     Status
	log      log.FieldLogger
}

// WaitForStatus fetches transaction id until its status equals target. It
// returns the record that reached target, an *Error of type TransactionError
// when the backend reports the status error, or an *Error of type
// PollingTimeoutError after MaxAttempts fetches. Every other status is
// treated as pending, including statuses unknown to this package.
func (c *Client) WaitForStatus(ctx context.Context, id int64, target Status, opts ...PollOption) (*Transaction, error) {
	cfg := c.newPollConfig(opts)
	if cfg.maxAttempts < 1 {
		return nil, newConfigurationError("max attempts must be positive, got %d", cfg.maxAttempts)
	}
	if cfg.strict && !target.Known() {
		return nil, newConfigurationError("unknown target status %q", target)
	}
	p := &poller{
		client:  c,
		cfg:     cfg,
		backOff: cfg.backOff(),
		id:      id,
		target:  target,
		state:   PollPending,
		log:     c.log.WithField("transaction", id),
	}
	tx, err := p.run(ctx)
	c.metrics.observePoll(p.state, p.attempts)
	return tx, err
}

func (p *poller) run(ctx context.Context) (*Transaction, error) {
	p.backOff.Reset()
	for {
		tx, err := p.client.Transaction(ctx, p.id)
		if err != nil {
			p.state = PollAborted
			p.log.Errorf("[Poll] Could not fetch transaction %d: %v", p.id, err)
			return nil, err
		}
		p.attempts++
		p.last = tx.Status
		if done, err := p.transition(tx); done {
			if err != nil {
				return nil, err
			}
			return tx, nil
		}

		p.log.Infof("[Poll] Transaction %d status: %s (attempt %d/%d)", p.id, tx.Status, p.attempts, p.cfg.maxAttempts)
		for _, observe := range p.cfg.observers {
			observe(tx)
		}

		if p.attempts >= p.cfg.maxAttempts {
			return nil, p.timeout()
		}
		wait := p.backOff.NextBackOff()
		if wait == backoff.Stop {
			return nil, p.timeout()
		}
		select {
		case <-ctx.Done():
			p.state = PollAborted
			return nil, fmt.Errorf("waiting for transaction %d: %w", p.id, ctx.Err())
		case <-p.cfg.clock.After(wait):
		}
	}
}

// transition moves the poller out of PollPending when tx is terminal.
func (p *poller) transition(tx *Transaction) (bool, error) {
	switch tx.Status {
	case p.target:
		p.state = PollReached
		p.log.Infof("[Poll] Transaction %d reached %s after %d attempts", p.id, p.target, p.attempts)
		return true, nil
	case StatusError:
		p.state = PollFailed
		p.log.Errorf("[Poll] Transaction %d failed: %s", p.id, tx.StatusDescription)
		return true, &Error{
			Type:          TransactionError,
			TransactionID: p.id,
			Status:        tx.Status,
			Description:   tx.StatusDescription,
		}
	}
	return false, nil
}

func (p *poller) timeout() error {
	p.state = PollTimedOut
	p.log.Errorf("[Poll] Transaction %d did not reach %s after %d attempts", p.id, p.target, p.attempts)
	return &Error{
		Type:          PollingTimeoutError,
		TransactionID: p.id,
		Status:        p.last,
		Attempts:      p.attempts,
		Message:       fmt.Sprintf("waiting for %s", p.target),
	}
}
