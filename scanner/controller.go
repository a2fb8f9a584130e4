// Package scanner owns the capture device feeding decoded QR payloads into
// the redemption flow. At most one capture is open at a time and it is
// released on every exit path.
package scanner

import (
	"context"
	"log"
	"sync"

	"github.com/rohanhumai/qr-attendance-client/models"
)

// Gate exposes the token precondition for starting a scan.
type Gate interface {
	State() models.CooldownState
}

// Redeemer consumes the first decoded payload.
type Redeemer interface {
	RedeemScan(ctx context.Context, raw []byte) (models.AttendanceRecord, error)
}

// Controller drives a Source with single-shot semantics: the first decode is
// handed to the redeemer and the capture stops before a second decode can be
// processed.
type Controller struct {
	mu      sync.Mutex
	running bool
	sub     Subscription

	source   Source
	gate     Gate
	redeemer Redeemer

	// onResult receives the outcome of the redemption triggered by a decode.
	// Optional; runs after the capture has already stopped.
	onResult func(models.AttendanceRecord, error)
}

func NewController(source Source, gate Gate, redeemer Redeemer, onResult func(models.AttendanceRecord, error)) *Controller {
	return &Controller{source: source, gate: gate, redeemer: redeemer, onResult: onResult}
}

// Running reports whether a capture is currently open.
func (c *Controller) Running() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.running
}

// Start opens the capture. Refused without opening anything when a capture
// is already running or no token is available; an initialization failure is
// reported as ResourceUnavailable and leaves the pre-scan state untouched.
func (c *Controller) Start(ctx context.Context) error {
	c.mu.Lock()
	if c.running {
		c.mu.Unlock()
		return models.NewFailure(models.KindAttemptInFlight, "scanner already running")
	}
	if !c.gate.State().HasToken {
		c.mu.Unlock()
		return models.NewFailure(models.KindNoTokenAvailable, "no token available, wait for cooldown")
	}
	c.mu.Unlock()

	inner, err := c.source.Open(ctx)
	if err != nil {
		return &models.Failure{Kind: models.KindResourceUnavailable, Message: "could not open capture device: " + err.Error()}
	}

	c.mu.Lock()
	if c.running {
		// Lost the race to another Start; release the extra handle.
		c.mu.Unlock()
		inner.Close()
		return models.NewFailure(models.KindAttemptInFlight, "scanner already running")
	}
	sub := newSingleShot(inner)
	c.sub = sub
	c.running = true
	c.mu.Unlock()

	go c.watch(ctx, sub)
	return nil
}

// Stop releases the capture. A no-op when already stopped. Stopping never
// cancels a redemption already in flight for the last decode.
func (c *Controller) Stop() {
	c.mu.Lock()
	if !c.running {
		c.mu.Unlock()
		return
	}
	sub := c.sub
	c.running = false
	c.sub = nil
	c.mu.Unlock()

	if err := sub.Close(); err != nil {
		log.Println("Failed to close capture:", err)
	}
}

func (c *Controller) watch(ctx context.Context, sub *singleShot) {
	payload, ok := <-sub.Payloads()
	if !ok {
		// Source closed without a decode (user stop or feed ended).
		c.stopSub(sub)
		return
	}

	// The single-shot wrapper has already released the capture; stopSub
	// settles the controller state before the redemption result is surfaced.
	record, err := c.redeemer.RedeemScan(ctx, payload)
	c.stopSub(sub)
	if c.onResult != nil {
		c.onResult(record, err)
	}
}

// stopSub stops the controller only if sub is still the active capture, so a
// watcher from a previous run can never tear down a restarted scanner.
func (c *Controller) stopSub(sub *singleShot) {
	c.mu.Lock()
	if !c.running || c.sub != sub {
		c.mu.Unlock()
		sub.Close()
		return
	}
	c.running = false
	c.sub = nil
	c.mu.Unlock()

	if err := sub.Close(); err != nil {
		log.Println("Failed to close capture:", err)
	}
}
