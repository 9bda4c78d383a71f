package sweeper

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"resale-store/internal/clock"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

type countingSweep struct {
	reservations atomic.Int64
	offers       atomic.Int64
	settles      atomic.Int64
}

func (c *countingSweep) SweepExpired(context.Context, time.Time) (int, error) {
	c.reservations.Add(1)
	return 0, nil
}

func (c *countingSweep) SweepExpiredAcceptances(context.Context, time.Time) (int, error) {
	c.offers.Add(1)
	return 0, nil
}

func (c *countingSweep) SettleDue(context.Context, time.Time) (int, error) {
	c.settles.Add(1)
	return 0, nil
}

func TestRun_FiresEachSweep(t *testing.T) {
	counts := &countingSweep{}
	s := New(counts, counts, counts,
		clock.NewSystem(),
		5*time.Millisecond, 5*time.Millisecond, 5*time.Millisecond,
		zap.NewNop(),
	)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()

	<-done
	assert.Positive(t, counts.reservations.Load())
	assert.Positive(t, counts.offers.Load())
	assert.Positive(t, counts.settles.Load())
}

func TestRun_StopsOnCancel(t *testing.T) {
	counts := &countingSweep{}
	s := New(counts, counts, counts,
		clock.NewSystem(),
		time.Hour, time.Hour, time.Hour,
		zap.NewNop(),
	)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("sweeper did not stop on cancel")
	}
	assert.Zero(t, counts.reservations.Load())
}
