// Package device derives the stable fingerprint that binds a student
// identity to a single physical device.
package device

import (
	"context"
	"fmt"
	"hash/fnv"
	"log"
	"strconv"
	"sync"

	"github.com/rohanhumai/qr-attendance-client/models"
)

// Source is the high-entropy fingerprint provider, the equivalent of a
// dedicated fingerprinting library. Any error makes the resolver fall back
// to the deterministic digest path.
type Source interface {
	Fingerprint(ctx context.Context) (string, error)
}

// Store persists the random installation identifier. *database.DB satisfies
// it.
type Store interface {
	InstallationID() (string, error)
}

// Resolver computes the device fingerprint once per process lifetime. All
// concurrent callers observe the same computation or its cached result.
type Resolver struct {
	mu      sync.Mutex
	cached  *models.DeviceFingerprint
	source  Source
	store   Store
	signals Signals
}

func NewResolver(source Source, store Store, signals Signals) *Resolver {
	return &Resolver{source: source, store: store, signals: signals}
}

// Resolve returns the device fingerprint. It never fails: the fallback path
// always produces a value, even when the installation store is unreachable.
func (r *Resolver) Resolve(ctx context.Context) models.DeviceFingerprint {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.cached != nil {
		return *r.cached
	}

	if r.source != nil {
		value, err := r.source.Fingerprint(ctx)
		if err == nil && value != "" {
			r.cached = &models.DeviceFingerprint{Value: value, Source: models.FingerprintLibrary}
			return *r.cached
		}
		if err != nil {
			log.Println("Fingerprint source failed, using fallback:", err)
		}
	}

	fp := models.DeviceFingerprint{Value: r.fallback(), Source: models.FingerprintFallback}
	r.cached = &fp
	return fp
}

// fallback concatenates the persisted installation id with the stable
// environment signals and digests the result with FNV-1a. The same
// installation always reproduces the same value across restarts.
func (r *Resolver) fallback() string {
	installationID := ""
	if r.store != nil {
		id, err := r.store.InstallationID()
		if err != nil {
			log.Println("Failed to read installation id:", err)
		} else {
			installationID = id
		}
	}

	h := fnv.New64a()
	fmt.Fprintf(h, "%s|%s|%dx%d|%d",
		installationID,
		r.signals.UserAgent,
		r.signals.ScreenWidth, r.signals.ScreenHeight,
		r.signals.TimezoneOffsetMinutes,
	)
	return "fallback_" + strconv.FormatUint(h.Sum64(), 36)
}
