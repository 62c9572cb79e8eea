package netstate

import (
	"context"
	"log/slog"
	"net"
	"sync"
	"time"
)

// Probe derives reachability by periodically dialing a known address.
// It is a fallback for platforms without a native connectivity signal.
type Probe struct {
	address  string
	interval time.Duration
	timeout  time.Duration
	dialer   *net.Dialer
	logger   *slog.Logger

	mu     sync.Mutex
	online bool
	hub    *hub

	stopCh chan struct{}
	wg     sync.WaitGroup
	once   sync.Once
}

// ProbeOption configures a Probe.
type ProbeOption func(*Probe)

// WithProbeInterval sets how often the probe dials. Default 15s.
func WithProbeInterval(d time.Duration) ProbeOption {
	return func(p *Probe) { p.interval = d }
}

// WithProbeTimeout sets the per-dial timeout. Default 5s.
func WithProbeTimeout(d time.Duration) ProbeOption {
	return func(p *Probe) { p.timeout = d }
}

// WithProbeLogger sets the logger for probe state transitions.
func WithProbeLogger(l *slog.Logger) ProbeOption {
	return func(p *Probe) { p.logger = l }
}

// NewProbe creates a Probe that dials the given TCP address
// (e.g. "backend.example.com:443"). Call Start to begin probing.
// The probe reports offline until the first successful dial.
func NewProbe(address string, opts ...ProbeOption) *Probe {
	p := &Probe{
		address:  address,
		interval: 15 * time.Second,
		timeout:  5 * time.Second,
		dialer:   &net.Dialer{},
		logger:   slog.Default(),
		hub:      newHub(),
		stopCh:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Online implements Provider.
func (p *Probe) Online() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.online
}

// Subscribe implements Provider.
func (p *Probe) Subscribe() (<-chan struct{}, func()) {
	return p.hub.subscribe()
}

// Start launches the probe loop. It returns immediately; the first dial
// happens right away rather than after the first interval.
func (p *Probe) Start() {
	p.wg.Add(1)
	go p.loop()
}

// Stop halts probing and waits for the loop to exit.
func (p *Probe) Stop() {
	p.once.Do(func() { close(p.stopCh) })
	p.wg.Wait()
}

func (p *Probe) loop() {
	defer p.wg.Done()

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.check()
	for {
		select {
		case <-p.stopCh:
			return
		case <-ticker.C:
			p.check()
		}
	}
}

func (p *Probe) check() {
	ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
	defer cancel()

	conn, err := p.dialer.DialContext(ctx, "tcp", p.address)
	online := err == nil
	if conn != nil {
		_ = conn.Close()
	}

	p.mu.Lock()
	changed := p.online != online
	p.online = online
	p.mu.Unlock()

	if changed {
		p.logger.Info("network state changed",
			slog.Bool("online", online),
			slog.String("probe_address", p.address),
		)
		p.hub.broadcast()
	}
}
