// Package cooldown tracks the one-scan-per-interval token. The authority is
// the single source of truth; the local 1-second countdown only keeps the
// displayed remaining time moving between reconciliations.
package cooldown

import (
	"context"
	"sync"
	"time"

	"github.com/rohanhumai/qr-attendance-client/models"
)

// StatusClient fetches the authoritative cooldown state.
type StatusClient interface {
	TokenStatus(ctx context.Context) (models.TokenStatus, error)
}

// Tracker owns the client-side CooldownState. The authoritative overwrite
// (Sync, ApplyServerRejection) and the local tick are deliberately separate
// mutators.
type Tracker struct {
	mu     sync.Mutex
	state  models.CooldownState
	client StatusClient

	ticking  bool
	stopTick chan struct{}
	interval time.Duration
}

func NewTracker(client StatusClient) *Tracker {
	return &Tracker{
		client:   client,
		state:    models.CooldownState{HasToken: true},
		interval: time.Second,
	}
}

// State returns the current snapshot.
func (t *Tracker) State() models.CooldownState {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// Sync fetches the authoritative state and overwrites the local one
// unconditionally. The response always wins over any concurrent local tick.
func (t *Tracker) Sync(ctx context.Context) error {
	status, err := t.client.TokenStatus(ctx)
	if err != nil {
		return err
	}
	t.setAuthoritative(status.CooldownRemaining)
	return nil
}

// ApplyServerRejection records a server-side cooldown rejection. The server
// may issue more cooldown than the local prediction expected, so its value
// replaces ours outright.
func (t *Tracker) ApplyServerRejection(remainingSeconds int) {
	if remainingSeconds < 1 {
		remainingSeconds = 1
	}
	t.setAuthoritative(remainingSeconds)
}

// Close cancels the countdown. Further ticks never fire.
func (t *Tracker) Close() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stopTickingLocked()
}

// setAuthoritative is the single authoritative setter. It normalizes to the
// HasToken == (Remaining == 0) invariant and restarts the countdown as
// needed.
func (t *Tracker) setAuthoritative(remaining int) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if remaining < 0 {
		remaining = 0
	}
	t.state = models.CooldownState{HasToken: remaining == 0, Remaining: remaining}

	t.stopTickingLocked()
	t.startTickingLocked()
}

func (t *Tracker) startTickingLocked() {
	if t.ticking || t.state.Remaining <= 0 {
		return
	}
	t.ticking = true
	t.stopTick = make(chan struct{})
	go t.loop(t.stopTick)
}

func (t *Tracker) stopTickingLocked() {
	if t.ticking {
		close(t.stopTick)
		t.ticking = false
	}
}

func (t *Tracker) loop(stop chan struct{}) {
	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			if !t.tick(stop) {
				return
			}
		}
	}
}

// tick is the local-only mutator: one second off the countdown. The instant
// the remaining time reaches zero the token flips available and the countdown
// stops. Returns false once this loop should cease. A loop whose stop channel
// has been superseded by a reconciliation never mutates the fresh state.
func (t *Tracker) tick(stop chan struct{}) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.ticking || t.stopTick != stop {
		return false
	}
	if t.state.Remaining <= 0 {
		t.ticking = false
		return false
	}
	t.state.Remaining--
	if t.state.Remaining == 0 {
		t.state.HasToken = true
		t.ticking = false
		return false
	}
	return true
}
