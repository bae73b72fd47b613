// Package watchdog detects stalled simulations. Session drivers report their
// frame counter after every step through a lock-free probe; a single monitor
// goroutine samples all probes on a fixed period and raises a diagnostic when
// one has stopped advancing. The watchdog never mutates simulation state and
// never terminates anything.
package watchdog

import (
	"log"
	"sync"
	"sync/atomic"
	"time"
)

// DefaultPeriod is how often the monitor samples the probes.
const DefaultPeriod = 10 * time.Second

// Probe is the per-session progress counter. Observe is safe to call from
// any goroutine.
type Probe struct {
	frame atomic.Uint64

	// monitor-goroutine state
	lastSeen uint64
	stalled  bool
}

// Observe records the latest completed frame number.
func (p *Probe) Observe(frame uint64) {
	p.frame.Store(frame)
}

// Watchdog owns the monitor goroutine and the probe registry.
type Watchdog struct {
	period time.Duration
	logf   func(format string, args ...any)

	mu     sync.Mutex
	probes map[string]*Probe

	stop chan struct{}
	done chan struct{}
}

// New builds a watchdog sampling at the given period; zero or negative means
// DefaultPeriod.
func New(period time.Duration) *Watchdog {
	if period <= 0 {
		period = DefaultPeriod
	}
	return &Watchdog{
		period: period,
		logf:   log.Printf,
		probes: make(map[string]*Probe),
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
	}
}

// SetLogf redirects diagnostics, for tests.
func (w *Watchdog) SetLogf(logf func(format string, args ...any)) {
	if logf != nil {
		w.logf = logf
	}
}

// Register adds a probe under the given session name and returns it.
func (w *Watchdog) Register(name string) *Probe {
	p := &Probe{}
	w.mu.Lock()
	w.probes[name] = p
	w.mu.Unlock()
	return p
}

// Unregister drops a session's probe. Safe to call for unknown names.
func (w *Watchdog) Unregister(name string) {
	w.mu.Lock()
	delete(w.probes, name)
	w.mu.Unlock()
}

// Start launches the monitor goroutine.
func (w *Watchdog) Start() {
	go w.run()
}

// Stop shuts the monitor down and waits for it to exit.
func (w *Watchdog) Stop() {
	close(w.stop)
	<-w.done
}

func (w *Watchdog) run() {
	defer close(w.done)
	ticker := time.NewTicker(w.period)
	defer ticker.Stop()

	for {
		select {
		case <-w.stop:
			return
		case <-ticker.C:
			w.sample()
		}
	}
}

// sample compares every probe against its value at the previous wake. A
// counter that has not advanced means no physics step completed in a full
// period; the diagnostic is advisory and the session is left alone.
func (w *Watchdog) sample() {
	w.mu.Lock()
	defer w.mu.Unlock()

	for name, p := range w.probes {
		current := p.frame.Load()
		if current == p.lastSeen {
			p.stalled = true
			w.logf("WATCHDOG: session %s may be hung: no frame progress in %s (stuck at frame %d)",
				name, w.period, current)
		} else {
			if p.stalled {
				w.logf("WATCHDOG: session %s recovered at frame %d", name, current)
			}
			p.stalled = false
			p.lastSeen = current
		}
	}
}
