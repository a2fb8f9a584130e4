// Package student wires the four core components together behind the facade
// a student-facing front end drives.
package student

import (
	"context"
	"fmt"
	"log"

	"github.com/rohanhumai/qr-attendance-client/api"
	"github.com/rohanhumai/qr-attendance-client/auth"
	"github.com/rohanhumai/qr-attendance-client/config"
	"github.com/rohanhumai/qr-attendance-client/cooldown"
	"github.com/rohanhumai/qr-attendance-client/database"
	"github.com/rohanhumai/qr-attendance-client/device"
	"github.com/rohanhumai/qr-attendance-client/models"
	"github.com/rohanhumai/qr-attendance-client/scanner"
	"github.com/rohanhumai/qr-attendance-client/sessions"
)

// Client owns the cooldown state and the capture handle; nothing outside it
// mutates either.
type Client struct {
	cfg      config.Client
	api      *api.Client
	db       *database.DB
	resolver *device.Resolver
	manager  *auth.Manager
	tracker  *cooldown.Tracker
	redeemer *sessions.Redeemer
	capture  *scanner.Controller
}

// Options carry the injectable seams. Zero values pick the host defaults.
type Options struct {
	// FingerprintSource is the high-entropy "library" path; nil means
	// fallback-only resolution.
	FingerprintSource device.Source
	// CaptureSource produces decoded QR payloads; nil wires the authority's
	// websocket feed lazily per StartScanning call.
	CaptureSource scanner.Source
	// OnScanResult observes the outcome of scanner-triggered redemptions.
	OnScanResult func(models.AttendanceRecord, error)
}

func New(cfg config.Client, opts Options) (*Client, error) {
	db, err := database.Open(cfg.StateDir)
	if err != nil {
		return nil, fmt.Errorf("open local state: %w", err)
	}

	apiClient := api.New(cfg)
	resolver := device.NewResolver(opts.FingerprintSource, db, device.HostSignals())
	tracker := cooldown.NewTracker(apiClient)

	c := &Client{
		cfg:      cfg,
		api:      apiClient,
		db:       db,
		resolver: resolver,
		manager:  auth.NewManager(apiClient, db, resolver),
		tracker:  tracker,
	}
	c.redeemer = sessions.NewRedeemer(apiClient, tracker, c.refreshHistory)

	source := opts.CaptureSource
	if source == nil {
		source = feedSourcePlaceholder{}
	}
	c.capture = scanner.NewController(source, tracker, c.redeemer, opts.OnScanResult)
	return c, nil
}

// feedSourcePlaceholder refuses to open until a session feed URL is known.
type feedSourcePlaceholder struct{}

func (feedSourcePlaceholder) Open(context.Context) (scanner.Subscription, error) {
	return nil, fmt.Errorf("no capture source configured")
}

// Register binds this device to a new student identity and primes the
// cooldown state.
func (c *Client) Register(ctx context.Context, req models.RegisterRequest) (models.Student, error) {
	student, err := c.manager.Register(ctx, req)
	if err != nil {
		return models.Student{}, err
	}
	if err := c.tracker.Sync(ctx); err != nil {
		log.Println("Failed to fetch initial token status:", err)
	}
	return student, nil
}

// Restore resumes a previously registered identity from the local store.
func (c *Client) Restore(ctx context.Context) (models.Student, bool, error) {
	student, ok, err := c.manager.Restore(ctx)
	if err != nil || !ok {
		return models.Student{}, ok, err
	}
	if err := c.tracker.Sync(ctx); err != nil {
		log.Println("Failed to fetch token status:", err)
	}
	return student, true, nil
}

// TokenState returns the current cooldown snapshot.
func (c *Client) TokenState() models.CooldownState {
	return c.tracker.State()
}

// StartScanning opens the capture device. Refused when no token is
// available or a capture is already open.
func (c *Client) StartScanning(ctx context.Context) error {
	return c.capture.Start(ctx)
}

// StopScanning releases the capture device. Safe to call when stopped.
func (c *Client) StopScanning() {
	c.capture.Stop()
}

// SubmitCode redeems a manually entered session code.
func (c *Client) SubmitCode(ctx context.Context, code string) (models.AttendanceRecord, error) {
	return c.redeemer.RedeemCode(ctx, code)
}

// History returns the cached attendance history, refreshing the cache from
// the authority first when possible.
func (c *Client) History(ctx context.Context) ([]models.AttendanceRecord, error) {
	c.refreshHistory(ctx)
	return c.db.History()
}

func (c *Client) refreshHistory(ctx context.Context) {
	records, err := c.api.MyAttendance(ctx)
	if err != nil {
		log.Println("Failed to refresh attendance history:", err)
		return
	}
	if err := c.db.ReplaceHistory(records); err != nil {
		log.Println("Failed to cache attendance history:", err)
	}
}

// Logout tears the session down: the capture is stopped synchronously
// before any identity state is cleared.
func (c *Client) Logout() error {
	c.capture.Stop()
	c.tracker.Close()
	return c.manager.Clear()
}

// Close releases the local stores. Stops any open capture first.
func (c *Client) Close() error {
	c.capture.Stop()
	c.tracker.Close()
	return c.db.Close()
}
