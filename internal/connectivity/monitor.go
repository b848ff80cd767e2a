// Package connectivity turns network reachability into drain triggers.
//
// The Monitor tracks whether the device is online. Going from offline to
// online, or a manual "sync now", fires the trigger with a session context
// that is cancelled as soon as the device goes offline again, so a drain in
// progress stops after the item it is working on.
package connectivity

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/mrlokans/khelo/internal/entities"
)

// ErrOffline is returned by SyncNow when syncing is not possible.
var ErrOffline = errors.New("device is offline")

// Trigger starts a drain. It must not block on the drain itself.
type Trigger func(ctx context.Context)

// SettingsReader exposes the offlineMode switch.
type SettingsReader interface {
	Get(ctx context.Context) (entities.Settings, error)
}

type Status struct {
	Online      bool       `json:"online"`
	OfflineMode bool       `json:"offline_mode"`
	ChangedAt   time.Time  `json:"changed_at"`
	Probing     bool       `json:"probing"`
	NextProbe   *time.Time `json:"next_probe,omitempty"`
}

type Monitor struct {
	trigger  Trigger
	settings SettingsReader
	now      func() time.Time

	mu        sync.Mutex
	online    bool
	changedAt time.Time
	session   context.Context
	cancel    context.CancelFunc

	prober *Prober
}

type Option func(*Monitor)

// WithInitialState sets the state assumed before the first signal.
func WithInitialState(online bool) Option {
	return func(m *Monitor) { m.online = online }
}

func WithClock(now func() time.Time) Option {
	return func(m *Monitor) { m.now = now }
}

func New(trigger Trigger, settings SettingsReader, opts ...Option) *Monitor {
	m := &Monitor{
		trigger:  trigger,
		settings: settings,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.changedAt = m.now()
	m.session, m.cancel = context.WithCancel(context.Background())
	if !m.online {
		m.cancel()
	}
	return m
}

// SetOnline records a connectivity signal. An offline to online transition
// triggers a drain unless offline mode is on. Going offline cancels the
// session handed to running drains.
func (m *Monitor) SetOnline(ctx context.Context, online bool) {
	m.mu.Lock()
	if m.online == online {
		m.mu.Unlock()
		return
	}
	m.online = online
	m.changedAt = m.now()

	if !online {
		m.cancel()
		m.mu.Unlock()
		log.Println("[CONNECTIVITY] Offline, stopping any running sync after the current item")
		return
	}

	m.session, m.cancel = context.WithCancel(context.Background())
	session := m.session
	m.mu.Unlock()

	log.Println("[CONNECTIVITY] Back online")
	if m.offlineMode(ctx) {
		log.Println("[CONNECTIVITY] Offline mode is on, not syncing")
		return
	}
	m.trigger(session)
}

// SyncNow is the manual sync action.
func (m *Monitor) SyncNow(ctx context.Context) error {
	if err := m.CheckOnline(ctx); err != nil {
		return err
	}
	m.trigger(m.Session())
	return nil
}

// CheckOnline reports whether a drain may start now: ErrOffline when the
// device is offline or offline mode is on.
func (m *Monitor) CheckOnline(ctx context.Context) error {
	if !m.IsOnline() {
		return ErrOffline
	}
	settings, err := m.settings.Get(ctx)
	if err != nil {
		return fmt.Errorf("read settings: %w", err)
	}
	if settings.OfflineMode {
		return fmt.Errorf("%w: offline mode is on", ErrOffline)
	}
	return nil
}

// Bind derives a context from ctx that is also cancelled when the current
// online period ends.
func (m *Monitor) Bind(ctx context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(ctx)
	stop := context.AfterFunc(m.Session(), cancel)
	return ctx, func() {
		stop()
		cancel()
	}
}

// SettingsChanged lets a queue built up under offline mode drain as soon as
// offline mode is switched off while connected.
func (m *Monitor) SettingsChanged(before, after entities.Settings) {
	if !before.OfflineMode || after.OfflineMode {
		return
	}
	m.mu.Lock()
	online := m.online
	session := m.session
	m.mu.Unlock()

	if online {
		log.Println("[CONNECTIVITY] Offline mode switched off, syncing")
		m.trigger(session)
	}
}

// Session returns the context of the current online period. It is already
// cancelled while offline.
func (m *Monitor) Session() context.Context {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.session
}

func (m *Monitor) IsOnline() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.online
}

func (m *Monitor) Status(ctx context.Context) Status {
	m.mu.Lock()
	status := Status{Online: m.online, ChangedAt: m.changedAt}
	prober := m.prober
	m.mu.Unlock()

	status.OfflineMode = m.offlineMode(ctx)
	if prober != nil && prober.IsRunning() {
		status.Probing = true
		status.NextProbe = prober.NextRun()
	}
	return status
}

// offlineMode reads the setting, treating an unreadable record as "on" so a
// broken settings store never causes an unexpected upload.
func (m *Monitor) offlineMode(ctx context.Context) bool {
	settings, err := m.settings.Get(ctx)
	if err != nil {
		log.Printf("[CONNECTIVITY] Failed to read settings: %v", err)
		return true
	}
	return settings.OfflineMode
}
