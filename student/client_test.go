package student_test

import (
	"context"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rohanhumai/qr-attendance-client/authority"
	"github.com/rohanhumai/qr-attendance-client/config"
	"github.com/rohanhumai/qr-attendance-client/models"
	"github.com/rohanhumai/qr-attendance-client/scanner"
	"github.com/rohanhumai/qr-attendance-client/student"
)

type clock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

type fixture struct {
	authority *authority.Authority
	clock     *clock
	server    *httptest.Server
	client    *student.Client
}

func newFixture(t *testing.T, opts student.Options) *fixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	// The api client pre-checks the credential's exp claim against wall
	// time, so the injected clock starts at wall time rather than a fixed
	// instant.
	clk := &clock{t: time.Now()}
	auth := authority.New(config.Authority{
		JWTSecret:     "test-secret",
		TokenTTL:      24 * time.Hour,
		Cooldown:      time.Hour,
		FeedInterval:  20 * time.Millisecond,
		MinExpiry:     2,
		MaxExpiry:     60,
		DefaultExpiry: 5,
	})
	auth.Now = clk.Now

	ts := httptest.NewServer(auth.Router())
	t.Cleanup(ts.Close)

	client, err := student.New(config.Client{
		APIBaseURL:  ts.URL + "/api",
		StateDir:    t.TempDir(),
		HTTPTimeout: 5 * time.Second,
	}, opts)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { client.Close() })

	return &fixture{authority: auth, clock: clk, server: ts, client: client}
}

func (f *fixture) register(t *testing.T) models.Student {
	t.Helper()
	student, err := f.client.Register(context.Background(), models.RegisterRequest{
		Name:       "Asha Rao",
		RollNumber: "CS2024001",
		Department: "Physics",
		Year:       2,
	})
	if err != nil {
		t.Fatal(err)
	}
	return student
}

func TestManualRedemptionFlow(t *testing.T) {
	f := newFixture(t, student.Options{})
	f.register(t)

	if state := f.client.TokenState(); !state.HasToken {
		t.Fatalf("fresh identity has no token: %+v", state)
	}

	session := f.authority.CreateSession("Dr. Iyer", "Physics", "Physics", 5)
	record, err := f.client.SubmitCode(context.Background(), session.SessionCode)
	if err != nil {
		t.Fatal(err)
	}
	if record.Subject != "Physics" || record.MarkedAt.IsZero() {
		t.Fatalf("unexpected record: %+v", record)
	}

	// The cooldown state was re-fetched from the authority after success.
	state := f.client.TokenState()
	if state.HasToken || state.Remaining != 3600 {
		t.Fatalf("cooldown not reconciled: %+v", state)
	}

	history, err := f.client.History(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(history) != 1 || history[0].Subject != "Physics" {
		t.Fatalf("history not cached: %+v", history)
	}
}

func TestSecondRedemptionRefusedLocally(t *testing.T) {
	f := newFixture(t, student.Options{})
	f.register(t)

	session := f.authority.CreateSession("Dr. Iyer", "Physics", "", 5)
	if _, err := f.client.SubmitCode(context.Background(), session.SessionCode); err != nil {
		t.Fatal(err)
	}

	// The local token gate now refuses before any network call.
	_, err := f.client.SubmitCode(context.Background(), session.SessionCode)
	if !models.IsKind(err, models.KindNoTokenAvailable) {
		t.Fatalf("expected NoTokenAvailable, got %v", err)
	}
}

func TestExpiredSessionLeavesCooldownUntouched(t *testing.T) {
	f := newFixture(t, student.Options{})
	f.register(t)

	session := f.authority.CreateSession("Dr. Iyer", "Physics", "", 2)
	f.clock.Advance(3 * time.Minute)

	_, err := f.client.SubmitCode(context.Background(), session.SessionCode)
	if !models.IsKind(err, models.KindSessionUnavailable) {
		t.Fatalf("expected SessionUnavailable, got %v", err)
	}
	if state := f.client.TokenState(); !state.HasToken {
		t.Fatalf("failed redemption consumed the token: %+v", state)
	}
}

func TestDeviceLockedSurfacedAtRegistration(t *testing.T) {
	f := newFixture(t, student.Options{})
	f.register(t)

	// A second client (another device, its own installation id) tries to
	// register the same roll number.
	other, err := student.New(config.Client{
		APIBaseURL:  f.server.URL + "/api",
		StateDir:    t.TempDir(),
		HTTPTimeout: 5 * time.Second,
	}, student.Options{})
	if err != nil {
		t.Fatal(err)
	}
	defer other.Close()

	_, err = other.Register(context.Background(), models.RegisterRequest{
		Name:       "Proxy",
		RollNumber: "CS2024001",
	})
	if !models.IsKind(err, models.KindDeviceLocked) {
		t.Fatalf("expected DeviceLocked, got %v", err)
	}
}

func TestRestoreAfterRestart(t *testing.T) {
	dir := t.TempDir()
	f := newFixture(t, student.Options{})

	// Rebuild a client over a fixed state dir to survive the "restart".
	first, err := student.New(config.Client{
		APIBaseURL:  f.server.URL + "/api",
		StateDir:    dir,
		HTTPTimeout: 5 * time.Second,
	}, student.Options{})
	if err != nil {
		t.Fatal(err)
	}
	registered, err := first.Register(context.Background(), models.RegisterRequest{
		Name:       "Asha Rao",
		RollNumber: "CS2024900",
	})
	if err != nil {
		t.Fatal(err)
	}
	first.Close()

	second, err := student.New(config.Client{
		APIBaseURL:  f.server.URL + "/api",
		StateDir:    dir,
		HTTPTimeout: 5 * time.Second,
	}, student.Options{})
	if err != nil {
		t.Fatal(err)
	}
	defer second.Close()

	restored, ok, err := second.Restore(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if !ok || restored.RollNumber != registered.RollNumber {
		t.Fatalf("restore failed: ok=%v student=%+v", ok, restored)
	}
}

func TestLogoutClearsIdentity(t *testing.T) {
	f := newFixture(t, student.Options{})
	f.register(t)

	if err := f.client.Logout(); err != nil {
		t.Fatal(err)
	}
	_, ok, err := f.client.Restore(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Fatal("identity survived logout")
	}
}

func TestScannerFeedEndToEnd(t *testing.T) {
	results := make(chan error, 1)
	records := make(chan models.AttendanceRecord, 1)

	f := newFixture(t, student.Options{})
	f.register(t)
	session := f.authority.CreateSession("Dr. Iyer", "Physics", "", 5)

	feedURL := "ws" + strings.TrimPrefix(f.server.URL, "http") + "/api/session/" + session.SessionCode + "/feed"

	// Wire a fresh client around the live feed source for the scan path.
	scanClient, err := student.New(config.Client{
		APIBaseURL:  f.server.URL + "/api",
		StateDir:    t.TempDir(),
		HTTPTimeout: 5 * time.Second,
	}, student.Options{
		CaptureSource: scanner.NewFeedSource(feedURL),
		OnScanResult: func(record models.AttendanceRecord, err error) {
			records <- record
			results <- err
		},
	})
	if err != nil {
		t.Fatal(err)
	}
	defer scanClient.Close()

	if _, err := scanClient.Register(context.Background(), models.RegisterRequest{
		Name:       "Ravi Kumar",
		RollNumber: "CS2024002",
	}); err != nil {
		t.Fatal(err)
	}

	if err := scanClient.StartScanning(context.Background()); err != nil {
		t.Fatal(err)
	}

	select {
	case err := <-results:
		if err != nil {
			t.Fatalf("scan redemption failed: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("scan never completed")
	}
	if record := <-records; record.Subject != "Physics" {
		t.Fatalf("unexpected record: %+v", record)
	}

	state := scanClient.TokenState()
	if state.HasToken || state.Remaining != 3600 {
		t.Fatalf("cooldown not reconciled after scan: %+v", state)
	}
}
