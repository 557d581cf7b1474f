// Package dispatch serializes per-frame intents into an outbound command
// stream. Delivery is fire and forget over a best-effort channel: failures
// are logged and the next frame's intent supersedes them. The control loop
// never waits on network I/O.
package dispatch

import (
	"context"
	"fmt"
	"sync"
	"time"

	"smartcar/logger"
	"smartcar/monitor"
)

type kind int

const (
	kindGesture kind = iota
	kindAction
	kindCount
)

type command struct {
	kind kind
	name string
}

// Dispatcher rate-limits and deduplicates outbound commands and hands them
// to a worker goroutine so sends never stall frame processing. Suppression
// is a traffic optimization only; the protocol is level-triggered and is
// re-derived from live state every cycle.
type Dispatcher struct {
	tr          Transport
	minInterval time.Duration
	sendTimeout time.Duration
	queue       chan command
	closeOnce   sync.Once

	mu       sync.Mutex
	lastName [kindCount]string
	lastAt   [kindCount]time.Time
	now      func() time.Time
}

// New builds a dispatcher. minInterval suppresses duplicate commands sent
// back to back; sendTimeout bounds each delivery attempt.
func New(tr Transport, minInterval, sendTimeout time.Duration) *Dispatcher {
	if sendTimeout <= 0 {
		sendTimeout = 2 * time.Second
	}
	return &Dispatcher{
		tr:          tr,
		minInterval: minInterval,
		sendTimeout: sendTimeout,
		queue:       make(chan command, 8),
		now:         time.Now,
	}
}

// Start launches the send worker. It exits when ctx is cancelled.
func (d *Dispatcher) Start(ctx context.Context) {
	go d.run(ctx)
}

func (d *Dispatcher) run(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			logger.Log().Error(fmt.Sprintf("dispatch worker panic recovered: %v", r))
		}
	}()
	for {
		select {
		case <-ctx.Done():
			return
		case cmd := <-d.queue:
			d.deliver(cmd)
		}
	}
}

func (d *Dispatcher) deliver(cmd command) {
	ctx, cancel := context.WithTimeout(context.Background(), d.sendTimeout)
	defer cancel()
	var err error
	switch cmd.kind {
	case kindGesture:
		err = d.tr.SendGesture(ctx, cmd.name)
	case kindAction:
		err = d.tr.SendAction(ctx, cmd.name)
	}
	if err != nil {
		monitor.CommandFailed()
		logger.S().Warnw("command send failed", "kind", int(cmd.kind), "command", cmd.name, "error", err)
		return
	}
	monitor.CommandSent()
}

// Gesture queues the frame's gesture command.
func (d *Dispatcher) Gesture(name string) {
	d.enqueue(kindGesture, name, false)
}

// Action queues the frame's tracking adjustment command.
func (d *Dispatcher) Action(name string) {
	d.enqueue(kindAction, name, false)
}

// EmergencyStop delivers the both-hands stop synchronously, bypassing
// suppression and the queue. Used at startup, shutdown and on the
// emergency gesture.
func (d *Dispatcher) EmergencyStop() {
	d.record(kindGesture, "both")
	logger.Log().Warn("sending emergency stop")
	d.deliver(command{kind: kindGesture, name: "both"})
	d.deliver(command{kind: kindAction, name: "track_center"})
}

func (d *Dispatcher) enqueue(k kind, name string, urgent bool) {
	if !urgent && d.suppressed(k, name) {
		return
	}
	// Record only after the command actually lands in the queue; a dropped
	// intent must not suppress its own retry next frame.
	if d.offer(command{kind: k, name: name}) {
		d.record(k, name)
	}
}

func (d *Dispatcher) offer(cmd command) bool {
	select {
	case d.queue <- cmd:
		return true
	default:
	}
	// Full queue: drop the oldest entry so the freshest intent wins.
	select {
	case <-d.queue:
	default:
	}
	select {
	case d.queue <- cmd:
		return true
	default:
		return false
	}
}

// suppressed reports whether this command repeats the previous one within
// the minimum interval.
func (d *Dispatcher) suppressed(k kind, name string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return name == d.lastName[k] && d.now().Sub(d.lastAt[k]) < d.minInterval
}

func (d *Dispatcher) record(k kind, name string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.lastName[k] = name
	d.lastAt[k] = d.now()
}

// Probe checks vehicle reachability.
func (d *Dispatcher) Probe(ctx context.Context) error {
	return d.tr.Probe(ctx)
}

// Close shuts the transport down.
func (d *Dispatcher) Close() error {
	var err error
	d.closeOnce.Do(func() {
		err = d.tr.Close()
	})
	return err
}
