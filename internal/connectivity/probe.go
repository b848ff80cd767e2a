package connectivity

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

const DefaultProbeSchedule = "* * * * *"

type ProbeConfig struct {
	URL      string
	Schedule string
	Timeout  time.Duration
}

// Prober periodically checks reachability of URL with a HEAD request and
// feeds the result into the monitor.
type Prober struct {
	monitor *Monitor
	cfg     ProbeConfig
	client  *http.Client

	cron      *cron.Cron
	entryID   cron.EntryID
	mu        sync.RWMutex
	isRunning bool
}

// NewProber attaches a prober to the monitor.
func NewProber(monitor *Monitor, cfg ProbeConfig) *Prober {
	if cfg.Schedule == "" {
		cfg.Schedule = DefaultProbeSchedule
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}
	p := &Prober{
		monitor: monitor,
		cfg:     cfg,
		client:  &http.Client{Timeout: cfg.Timeout},
		cron:    cron.New(cron.WithParser(cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow))),
	}

	monitor.mu.Lock()
	monitor.prober = p
	monitor.mu.Unlock()
	return p
}

// Start schedules the probe and runs one check immediately.
func (p *Prober) Start(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.isRunning {
		return nil
	}
	if err := ValidateCronSchedule(p.cfg.Schedule); err != nil {
		return fmt.Errorf("invalid cron schedule '%s': %w", p.cfg.Schedule, err)
	}

	entryID, err := p.cron.AddFunc(p.cfg.Schedule, func() {
		p.Check(ctx)
	})
	if err != nil {
		return fmt.Errorf("failed to schedule probe: %w", err)
	}
	p.entryID = entryID
	p.cron.Start()
	p.isRunning = true

	log.Printf("[CONNECTIVITY] Probe started for %s (%s)", p.cfg.URL, GetCronDescription(p.cfg.Schedule))

	go p.Check(ctx)
	go func() {
		<-ctx.Done()
		p.Stop()
	}()
	return nil
}

// Stop stops scheduling and waits for a running check to finish.
func (p *Prober) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.isRunning {
		return
	}
	stopped := p.cron.Stop()
	<-stopped.Done()
	p.cron.Remove(p.entryID)
	p.isRunning = false

	log.Println("[CONNECTIVITY] Probe stopped")
}

func (p *Prober) IsRunning() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.isRunning
}

// NextRun returns when the next probe is scheduled, if running.
func (p *Prober) NextRun() *time.Time {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if !p.isRunning {
		return nil
	}
	next := p.cron.Entry(p.entryID).Next
	if next.IsZero() {
		return nil
	}
	return &next
}

// Check probes once and reports the result to the monitor. Any HTTP
// response, whatever its status, counts as reachable.
func (p *Prober) Check(ctx context.Context) bool {
	reqCtx, cancel := context.WithTimeout(ctx, p.cfg.Timeout)
	defer cancel()

	online := false
	req, err := http.NewRequestWithContext(reqCtx, http.MethodHead, p.cfg.URL, nil)
	if err == nil {
		var resp *http.Response
		resp, err = p.client.Do(req)
		if err == nil {
			resp.Body.Close()
			online = true
		}
	}
	if err != nil && p.monitor.IsOnline() {
		log.Printf("[CONNECTIVITY] Probe failed: %v", err)
	}

	p.monitor.SetOnline(ctx, online)
	return online
}
