package notification

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"
)

const (
	pollBatchSize = 100
	pollTimeout   = 5 * time.Second
)

type Outbox interface {
	Due(ctx context.Context, now time.Time, limit int) ([]OutboxEntry, error)
}

type Deliverer interface {
	Deliver(ctx context.Context, entry OutboxEntry) error
}

// ClaimChecker tells whether a reminder key is still claimed. A released claim means the
// reminder was withdrawn after it was scheduled.
type ClaimChecker interface {
	IsClaimed(ctx context.Context, key string) (bool, error)
}

// DeliveryPoller periodically moves due outbox entries to the deliverer.
//
// Call Start() once, and Stop() during graceful shutdown.
type DeliveryPoller struct {
	outbox    Outbox
	deliverer Deliverer
	claims    ClaimChecker
	log       *logrus.Logger
	interval  time.Duration
	now       func() time.Time

	stopChan chan struct{}
	wg       sync.WaitGroup
	started  atomic.Bool
	stopped  atomic.Bool
}

// NewDeliveryPoller builds a poller. claims may be nil, in which case every due entry
// is delivered.
func NewDeliveryPoller(outbox Outbox, deliverer Deliverer, claims ClaimChecker, log *logrus.Logger, interval time.Duration) *DeliveryPoller {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &DeliveryPoller{
		outbox:    outbox,
		deliverer: deliverer,
		claims:    claims,
		log:       log,
		interval:  interval,
		now:       time.Now,
		stopChan:  make(chan struct{}),
	}
}

func (p *DeliveryPoller) Start() {
	if !p.started.CompareAndSwap(false, true) {
		return
	}
	p.wg.Add(1)
	go p.pollLoop()
}

// Stop waits for the loop to exit. Safe to call multiple times.
func (p *DeliveryPoller) Stop() {
	if p.stopped.CompareAndSwap(false, true) {
		close(p.stopChan)
		p.wg.Wait()
		p.log.Info("Delivery poller stopped")
	}
}

func (p *DeliveryPoller) pollLoop() {
	defer p.wg.Done()

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-p.stopChan:
			p.log.Debug("Delivery poller goroutine stopping")
			return
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), pollTimeout)
			p.PollOnce(ctx)
			cancel()
		}
	}
}

// PollOnce delivers the entries due now and returns how many were delivered
func (p *DeliveryPoller) PollOnce(ctx context.Context) int {
	entries, err := p.outbox.Due(ctx, p.now(), pollBatchSize)
	if err != nil {
		p.log.Warnf("Failed to read reminder outbox: %+v", err)
		return 0
	}

	delivered := 0
	for _, entry := range entries {
		if p.withdrawn(ctx, entry) {
			p.log.Debugf("Dropping withdrawn push %s for %s", entry.Key, entry.Recipient)
			continue
		}
		if err := p.deliverer.Deliver(ctx, entry); err != nil {
			p.log.Warnf("Failed to deliver push %s to %s: %+v", entry.ID, entry.Recipient, err)
			continue
		}
		delivered++
	}

	if delivered > 0 {
		p.log.Debugf("Delivered %d due pushes", delivered)
	}
	return delivered
}

// withdrawn reports whether the entry's reminder claim is gone. Entries without a key and
// failed lookups count as live.
func (p *DeliveryPoller) withdrawn(ctx context.Context, entry OutboxEntry) bool {
	if p.claims == nil || entry.Key == "" {
		return false
	}
	claimed, err := p.claims.IsClaimed(ctx, entry.Key)
	if err != nil {
		p.log.Warnf("Failed to check reminder %s, delivering anyway: %+v", entry.Key, err)
		return false
	}
	return !claimed
}
