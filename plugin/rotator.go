package plugin

import (
	"context"
	"math"
	"sync"
	"time"

	"github.com/tessumod/tsplugin/entity"
	"github.com/tessumod/tsplugin/gamedata"
)

// Test sound rotation defaults.
const (
	RotationInterval = 100 * time.Millisecond
	RotationDuration = 10 * time.Second
	RotationRadius   = 10.0
)

// PositionRotator moves a point once around the listener on a horizontal
// circle.
type PositionRotator struct {
	// Interval and Duration may be changed before Start.
	Interval time.Duration
	Duration time.Duration

	timeProvider gamedata.TimeProvider
	onPosition   func(entity.Vector)
	onFinished   func()

	mu      sync.Mutex
	step    int
	cancel  context.CancelFunc
	done    chan struct{}
	running bool
}

// NewPositionRotator creates a stopped rotator. onPosition receives every
// position and onFinished is called after a full circle. A nil tp uses
// the real clock.
func NewPositionRotator(tp gamedata.TimeProvider, onPosition func(entity.Vector), onFinished func()) *PositionRotator {
	if tp == nil {
		tp = gamedata.RealTimeProvider{}
	}
	return &PositionRotator{
		Interval:     RotationInterval,
		Duration:     RotationDuration,
		timeProvider: tp,
		onPosition:   onPosition,
		onFinished:   onFinished,
	}
}

// RotationPosition returns the point at angle degrees on the rotation
// circle.
func RotationPosition(angle float64) entity.Vector {
	rad := angle * math.Pi / 180
	return entity.Vector{
		X: RotationRadius * math.Cos(rad),
		Z: RotationRadius * math.Sin(rad),
	}
}

// Start emits the starting position and rotates in the background. It is
// a no-op while running.
func (r *PositionRotator) Start(ctx context.Context) {
	r.mu.Lock()
	if r.running {
		r.mu.Unlock()
		return
	}
	r.step = 0
	ctx, r.cancel = context.WithCancel(ctx)
	r.done = make(chan struct{})
	r.running = true
	done := r.done
	r.mu.Unlock()

	r.onPosition(RotationPosition(0))
	go r.run(ctx, done)
}

func (r *PositionRotator) run(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := r.timeProvider.NewTicker(r.Interval)
	defer ticker.Stop()

	steps := int(r.Duration / r.Interval)
	if steps < 1 {
		steps = 1
	}
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		r.mu.Lock()
		if !r.running {
			r.mu.Unlock()
			return
		}
		if r.step >= steps {
			r.running = false
			r.mu.Unlock()
			r.onFinished()
			return
		}
		r.step++
		angle := 360 * float64(r.step) / float64(steps)
		r.mu.Unlock()

		r.onPosition(RotationPosition(angle))
	}
}

// Running reports whether a rotation is in progress.
func (r *PositionRotator) Running() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.running
}

// Stop ends the rotation without calling onFinished.
func (r *PositionRotator) Stop() {
	r.mu.Lock()
	if !r.running {
		r.mu.Unlock()
		return
	}
	r.running = false
	cancel, done := r.cancel, r.done
	r.mu.Unlock()

	cancel()
	<-done
}
