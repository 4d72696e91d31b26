package gamedata

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// PollInterval is how often the segment is read.
const PollInterval = 100 * time.Millisecond

// Poller reads the segment periodically and feeds each record to a
// Reader.
type Poller struct {
	segment      Segment
	reader       *Reader
	timeProvider TimeProvider

	mu      sync.Mutex
	cancel  context.CancelFunc
	done    chan struct{}
	running bool
}

// NewPoller creates a stopped poller. A nil tp uses the package default.
func NewPoller(segment Segment, reader *Reader, tp TimeProvider) *Poller {
	return &Poller{
		segment:      segment,
		reader:       reader,
		timeProvider: getTimeProvider(tp),
	}
}

// Start polls in a new goroutine until ctx is cancelled or Stop is called.
func (p *Poller) Start(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.running {
		return ErrPollerRunning
	}
	ctx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	p.done = make(chan struct{})
	p.running = true

	go p.run(ctx, p.done)
	return nil
}

func (p *Poller) run(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := p.timeProvider.NewTicker(PollInterval)
	defer ticker.Stop()

	logrus.WithFields(logrus.Fields{
		"function": "Poller.run",
		"interval": PollInterval,
	}).Debug("Game data polling started")

	for {
		select {
		case <-ctx.Done():
			logrus.WithFields(logrus.Fields{
				"function": "Poller.run",
			}).Debug("Game data polling stopped")
			return
		case <-ticker.C:
			p.Poll()
		}
	}
}

// Poll reads the segment once. A record that fails to parse is skipped.
func (p *Poller) Poll() {
	rec, err := ParseRecord(p.segment.Snapshot())
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"function": "Poller.Poll",
			"error":    err.Error(),
		}).Debug("Skipping unreadable game data")
		return
	}
	p.reader.Update(rec)
}

// Stop ends polling and waits for the polling goroutine to exit.
func (p *Poller) Stop() {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return
	}
	p.running = false
	cancel, done := p.cancel, p.done
	p.mu.Unlock()

	cancel()
	<-done
}
