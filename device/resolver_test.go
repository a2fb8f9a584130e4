package device_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rohanhumai/qr-attendance-client/device"
	"github.com/rohanhumai/qr-attendance-client/models"
)

type fakeSource struct {
	value string
	err   error
	calls int32
	delay time.Duration
}

func (f *fakeSource) Fingerprint(ctx context.Context) (string, error) {
	atomic.AddInt32(&f.calls, 1)
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	return f.value, f.err
}

type fakeStore struct {
	id    string
	err   error
	calls int32
}

func (f *fakeStore) InstallationID() (string, error) {
	atomic.AddInt32(&f.calls, 1)
	return f.id, f.err
}

func testSignals() device.Signals {
	return device.Signals{
		UserAgent:             "Mozilla/5.0 (X11; Linux x86_64)",
		ScreenWidth:           1920,
		ScreenHeight:          1080,
		TimezoneOffsetMinutes: -330,
	}
}

func TestResolveLibraryPath(t *testing.T) {
	source := &fakeSource{value: "visitor-abc123"}
	r := device.NewResolver(source, &fakeStore{id: "install-1"}, testSignals())

	fp := r.Resolve(context.Background())
	if fp.Value != "visitor-abc123" {
		t.Fatalf("expected library value, got %q", fp.Value)
	}
	if fp.Source != models.FingerprintLibrary {
		t.Fatalf("expected library source, got %q", fp.Source)
	}
}

func TestResolveFallbackOnSourceFailure(t *testing.T) {
	source := &fakeSource{err: errors.New("unsupported environment")}
	r := device.NewResolver(source, &fakeStore{id: "install-1"}, testSignals())

	fp := r.Resolve(context.Background())
	if fp.Source != models.FingerprintFallback {
		t.Fatalf("expected fallback source, got %q", fp.Source)
	}
	if !strings.HasPrefix(fp.Value, "fallback_") {
		t.Fatalf("fallback value %q missing tag", fp.Value)
	}
}

func TestResolveDeterministicAcrossInstances(t *testing.T) {
	first := device.NewResolver(nil, &fakeStore{id: "install-1"}, testSignals())
	second := device.NewResolver(nil, &fakeStore{id: "install-1"}, testSignals())

	a := first.Resolve(context.Background())
	b := second.Resolve(context.Background())
	if a.Value != b.Value {
		t.Fatalf("same installation produced different fingerprints: %q vs %q", a.Value, b.Value)
	}
}

func TestResolveDistinctInstallations(t *testing.T) {
	first := device.NewResolver(nil, &fakeStore{id: "install-1"}, testSignals())
	second := device.NewResolver(nil, &fakeStore{id: "install-2"}, testSignals())

	a := first.Resolve(context.Background())
	b := second.Resolve(context.Background())
	if a.Value == b.Value {
		t.Fatalf("distinct installations collided on %q", a.Value)
	}
}

func TestResolveMemoized(t *testing.T) {
	source := &fakeSource{err: errors.New("nope")}
	store := &fakeStore{id: "install-1"}
	r := device.NewResolver(source, store, testSignals())

	first := r.Resolve(context.Background())
	second := r.Resolve(context.Background())
	if first != second {
		t.Fatalf("repeated resolves disagree: %+v vs %+v", first, second)
	}
	if got := atomic.LoadInt32(&source.calls); got != 1 {
		t.Fatalf("source consulted %d times, want 1", got)
	}
	if got := atomic.LoadInt32(&store.calls); got != 1 {
		t.Fatalf("store consulted %d times, want 1", got)
	}
}

func TestResolveConcurrentCallersShareComputation(t *testing.T) {
	source := &fakeSource{value: "visitor-xyz", delay: 20 * time.Millisecond}
	r := device.NewResolver(source, &fakeStore{id: "install-1"}, testSignals())

	var wg sync.WaitGroup
	values := make([]string, 10)
	for i := range values {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			values[i] = r.Resolve(context.Background()).Value
		}(i)
	}
	wg.Wait()

	for i, v := range values {
		if v != values[0] {
			t.Fatalf("caller %d observed %q, others observed %q", i, v, values[0])
		}
	}
	if got := atomic.LoadInt32(&source.calls); got != 1 {
		t.Fatalf("source computed %d times, want 1", got)
	}
}

func TestResolveNeverFailsWithoutStore(t *testing.T) {
	r := device.NewResolver(nil, &fakeStore{err: errors.New("disk gone")}, testSignals())
	fp := r.Resolve(context.Background())
	if fp.Value == "" {
		t.Fatal("resolver returned empty fingerprint")
	}
	if fp.Source != models.FingerprintFallback {
		t.Fatalf("expected fallback source, got %q", fp.Source)
	}
}
