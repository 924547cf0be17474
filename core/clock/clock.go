// Package clock provides the fixed-frequency tick source driving the
// simulation. It carries no simulation semantics of its own.
package clock

import (
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/kilianp07/roadsim/internal/eventbus"
)

var (
	ErrAlreadyRunning   = errors.New("clock already running")
	ErrNotRunning       = errors.New("clock not running")
	ErrInvalidFrequency = errors.New("clock frequency must be positive")
)

// EventKind tells start, tick and stop notifications apart.
type EventKind int

const (
	EventStart EventKind = iota
	EventTick
	EventStop
)

func (k EventKind) String() string {
	switch k {
	case EventStart:
		return "start"
	case EventTick:
		return "tick"
	case EventStop:
		return "stop"
	}
	return fmt.Sprintf("EventKind(%d)", int(k))
}

// Event is a clock notification. Seq numbers ticks from 1 within one run.
type Event struct {
	Kind EventKind
	Time time.Time
	Seq  uint64
}

// Clock emits ticks at a fixed frequency while running.
type Clock struct {
	mu        sync.Mutex
	frequency float64
	running   bool
	quit      chan struct{}
	done      chan struct{}

	bus *eventbus.TypedBus[Event]
}

// New creates a stopped clock ticking frequency times per second.
func New(frequency float64) (*Clock, error) {
	if err := checkFrequency(frequency); err != nil {
		return nil, err
	}
	return &Clock{frequency: frequency, bus: eventbus.NewTyped[Event]()}, nil
}

func checkFrequency(f float64) error {
	_, err := PeriodFor(f)
	return err
}

// PeriodFor returns the tick interval for frequency f. Frequencies whose
// interval does not fit a positive time.Duration are rejected.
func PeriodFor(f float64) (time.Duration, error) {
	if !(f > 0) || math.IsInf(f, 1) {
		return 0, fmt.Errorf("%w: %v", ErrInvalidFrequency, f)
	}
	p := float64(time.Second) / f
	if p >= math.MaxInt64 || time.Duration(p) <= 0 {
		return 0, fmt.Errorf("%w: %v", ErrInvalidFrequency, f)
	}
	return time.Duration(p), nil
}

// Subscribe returns a channel receiving clock events. Ticks are dropped for
// a subscriber that falls behind.
func (c *Clock) Subscribe() <-chan Event { return c.bus.Subscribe() }

// Unsubscribe releases a channel returned by Subscribe.
func (c *Clock) Unsubscribe(ch <-chan Event) { c.bus.Unsubscribe(ch) }

// Start emits a start event and begins ticking.
func (c *Clock) Start() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.running {
		return ErrAlreadyRunning
	}
	c.startLocked()
	return nil
}

func (c *Clock) startLocked() {
	c.running = true
	c.quit = make(chan struct{})
	c.done = make(chan struct{})
	c.bus.Publish(Event{Kind: EventStart, Time: time.Now()})
	go c.loop(c.period(), c.quit, c.done)
}

// Stop cancels future ticks and emits a stop event. No tick is published
// after Stop returns.
func (c *Clock) Stop() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.running {
		return ErrNotRunning
	}
	c.stopLocked()
	return nil
}

func (c *Clock) stopLocked() {
	close(c.quit)
	<-c.done
	c.running = false
	c.bus.Publish(Event{Kind: EventStop, Time: time.Now()})
}

// SetFrequency changes the tick frequency. A running clock is stopped and
// restarted so ticks realign on the new period.
func (c *Clock) SetFrequency(f float64) error {
	if err := checkFrequency(f); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.frequency = f
	if c.running {
		c.stopLocked()
		c.startLocked()
	}
	return nil
}

func (c *Clock) Frequency() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.frequency
}

// Period returns the interval between two ticks.
func (c *Clock) Period() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.period()
}

func (c *Clock) period() time.Duration {
	return time.Duration(float64(time.Second) / c.frequency)
}

func (c *Clock) Running() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.running
}

// Close stops the clock if needed and closes all subscriptions.
func (c *Clock) Close() {
	c.mu.Lock()
	if c.running {
		c.stopLocked()
	}
	c.mu.Unlock()
	c.bus.Close()
}

func (c *Clock) loop(period time.Duration, quit <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	ticker := time.NewTicker(period)
	defer ticker.Stop()
	var seq uint64
	for {
		select {
		case t := <-ticker.C:
			seq++
			c.bus.Publish(Event{Kind: EventTick, Time: t, Seq: seq})
		case <-quit:
			return
		}
	}
}
