// Package sessions mediates redemption attempts against a teacher-issued
// attendance session, whether they arrive from the scanner or from manual
// code entry.
package sessions

import (
	"context"
	"encoding/json"
	"log"
	"strings"
	"sync"

	"github.com/rohanhumai/qr-attendance-client/models"
)

// Marker submits a redemption to the authority.
type Marker interface {
	MarkAttendance(ctx context.Context, sessionCode string) (models.AttendanceRecord, error)
}

// Gate exposes the cooldown state guarding redemption attempts.
type Gate interface {
	State() models.CooldownState
	ApplyServerRejection(remainingSeconds int)
	Sync(ctx context.Context) error
}

// Redeemer serializes redemption attempts for one identity. A second attempt
// while one is outstanding is rejected, never queued.
type Redeemer struct {
	mu       sync.Mutex
	inFlight bool

	marker Marker
	gate   Gate

	// afterSuccess refreshes dependent state (attendance history) once the
	// authority has accepted a redemption. Optional.
	afterSuccess func(ctx context.Context)
}

func NewRedeemer(marker Marker, gate Gate, afterSuccess func(ctx context.Context)) *Redeemer {
	return &Redeemer{marker: marker, gate: gate, afterSuccess: afterSuccess}
}

// ParseScanPayload normalizes a raw scanner payload. Anything that is not a
// JSON object carrying a sessionCode is rejected without a network call.
func ParseScanPayload(raw []byte) (models.ScanPayload, error) {
	var payload models.ScanPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return models.ScanPayload{}, models.NewFailure(models.KindInvalidPayload, "scan payload is not valid JSON")
	}
	if strings.TrimSpace(payload.SessionCode) == "" {
		return models.ScanPayload{}, models.NewFailure(models.KindInvalidPayload, "scan payload has no sessionCode")
	}
	return payload, nil
}

// RedeemScan redeems a raw scanner payload.
func (r *Redeemer) RedeemScan(ctx context.Context, raw []byte) (models.AttendanceRecord, error) {
	payload, err := ParseScanPayload(raw)
	if err != nil {
		return models.AttendanceRecord{}, err
	}
	return r.RedeemCode(ctx, payload.SessionCode)
}

// RedeemCode redeems a session code entered verbatim.
func (r *Redeemer) RedeemCode(ctx context.Context, sessionCode string) (models.AttendanceRecord, error) {
	sessionCode = strings.TrimSpace(sessionCode)
	if sessionCode == "" {
		return models.AttendanceRecord{}, models.NewFailure(models.KindInvalidPayload, "empty session code")
	}
	if !r.gate.State().HasToken {
		return models.AttendanceRecord{}, models.NewFailure(models.KindNoTokenAvailable, "no token available, wait for cooldown")
	}

	r.mu.Lock()
	if r.inFlight {
		r.mu.Unlock()
		return models.AttendanceRecord{}, models.NewFailure(models.KindAttemptInFlight, "a redemption attempt is already in flight")
	}
	r.inFlight = true
	r.mu.Unlock()

	defer func() {
		r.mu.Lock()
		r.inFlight = false
		r.mu.Unlock()
	}()

	record, err := r.marker.MarkAttendance(ctx, sessionCode)
	if err != nil {
		if failure, ok := models.FailureOf(err); ok && failure.Kind == models.KindCooldownActive {
			r.gate.ApplyServerRejection(failure.CooldownRemaining)
		}
		return models.AttendanceRecord{}, err
	}

	// The record is relayed, never constructed here. Both the cooldown state
	// and the history are re-fetched from the authority after a success.
	if err := r.gate.Sync(ctx); err != nil {
		log.Println("Failed to refresh cooldown state after redemption:", err)
	}
	if r.afterSuccess != nil {
		r.afterSuccess(ctx)
	}
	return record, nil
}
