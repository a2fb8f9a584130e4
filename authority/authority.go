// Package authority is the in-memory reference implementation of the
// external system the client core consults: it binds identities to devices,
// grants one redemption token per cooldown interval, issues teacher sessions
// and arbitrates redemption. It backs the dev server and the package tests.
package authority

import (
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rohanhumai/qr-attendance-client/config"
	"github.com/rohanhumai/qr-attendance-client/models"
)

type identity struct {
	student     models.Student
	fingerprint string
}

type issuedSession struct {
	session  models.AttendanceSession
	teacher  string
	redeemed map[string]bool
	records  []models.AttendanceRecord
}

// Authority holds all state behind one mutex. There is deliberately no
// storage schema: the maps are the whole truth.
type Authority struct {
	mu  sync.Mutex
	cfg config.Authority

	// Now is the time source, replaceable in tests.
	Now func() time.Time

	identities    map[string]*identity // by identity id
	byRoll        map[string]string    // roll number -> identity id
	cooldownUntil map[string]time.Time // identity id -> next token instant
	sessions      map[string]*issuedSession
	history       map[string][]models.AttendanceRecord
}

func New(cfg config.Authority) *Authority {
	return &Authority{
		cfg:           cfg,
		Now:           time.Now,
		identities:    make(map[string]*identity),
		byRoll:        make(map[string]string),
		cooldownUntil: make(map[string]time.Time),
		sessions:      make(map[string]*issuedSession),
		history:       make(map[string][]models.AttendanceRecord),
	}
}

// RegisterStudent binds a profile to the presented fingerprint. The binding
// happens on first use; a different fingerprint for a known roll number is
// the proxy-attendance signal and is rejected as device_locked.
func (a *Authority) RegisterStudent(req models.RegisterRequest, fingerprint string) (string, models.Student, error) {
	if fingerprint == "" {
		return "", models.Student{}, models.NewFailure(models.KindInvalidPayload, "missing device fingerprint")
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if id, ok := a.byRoll[req.RollNumber]; ok {
		ident := a.identities[id]
		if ident.fingerprint != fingerprint {
			log.Println("Register rejected:", req.RollNumber, "is bound to another device")
			return "", models.Student{}, models.NewFailure(models.KindDeviceLocked, "this account is locked to another device")
		}
		token, err := a.issueToken(id)
		if err != nil {
			return "", models.Student{}, err
		}
		return token, ident.student, nil
	}

	student := models.Student{
		ID:         uuid.NewString(),
		Name:       req.Name,
		RollNumber: req.RollNumber,
		Email:      req.Email,
		Department: req.Department,
		Year:       req.Year,
		Section:    req.Section,
	}
	a.identities[student.ID] = &identity{student: student, fingerprint: fingerprint}
	a.byRoll[req.RollNumber] = student.ID
	log.Println("Registered", student.RollNumber, "bound to", fingerprint)

	token, err := a.issueToken(student.ID)
	if err != nil {
		return "", models.Student{}, err
	}
	return token, student, nil
}

// TokenStatus answers "can this identity redeem now".
func (a *Authority) TokenStatus(identityID string) models.TokenStatus {
	a.mu.Lock()
	defer a.mu.Unlock()

	remaining := a.cooldownRemainingLocked(identityID)
	return models.TokenStatus{HasToken: remaining == 0, CooldownRemaining: remaining}
}

func (a *Authority) cooldownRemainingLocked(identityID string) int {
	until, ok := a.cooldownUntil[identityID]
	if !ok {
		return 0
	}
	remaining := until.Sub(a.Now())
	if remaining <= 0 {
		return 0
	}
	return int(remaining.Round(time.Second) / time.Second)
}

// CreateSession issues a session with the requested expiry window, clamped
// to the configured bounds. The expiry is configuration, not a constant.
func (a *Authority) CreateSession(teacher, subject, department string, expiryMinutes int) models.AttendanceSession {
	if expiryMinutes == 0 {
		expiryMinutes = a.cfg.DefaultExpiry
	}
	if expiryMinutes < a.cfg.MinExpiry {
		expiryMinutes = a.cfg.MinExpiry
	}
	if expiryMinutes > a.cfg.MaxExpiry {
		expiryMinutes = a.cfg.MaxExpiry
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	session := models.AttendanceSession{
		SessionCode:   uuid.NewString(),
		Subject:       subject,
		Department:    department,
		ExpiryMinutes: expiryMinutes,
		ExpiresAt:     a.Now().Add(time.Duration(expiryMinutes) * time.Minute),
		IsActive:      true,
	}
	a.sessions[session.SessionCode] = &issuedSession{
		session:  session,
		teacher:  teacher,
		redeemed: make(map[string]bool),
	}
	log.Println("Created session", session.SessionCode, "for", subject)
	return session
}

// EndSession deactivates a session. Ending is terminal for redeemers.
func (a *Authority) EndSession(code string) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	issued, ok := a.sessions[code]
	if !ok {
		return models.NewFailure(models.KindSessionUnavailable, "session not found")
	}
	issued.session.IsActive = false
	return nil
}

// Session returns a snapshot of an issued session.
func (a *Authority) Session(code string) (models.AttendanceSession, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	issued, ok := a.sessions[code]
	if !ok {
		return models.AttendanceSession{}, false
	}
	return issued.session, true
}

// Redeem arbitrates one redemption attempt. Check order: the session must
// exist, the device must match the identity's binding, the session must be
// active, the identity must not have redeemed it before, and a token must be
// available. Only then is the cooldown consumed and the record written.
func (a *Authority) Redeem(identityID, fingerprint, code string) (models.AttendanceRecord, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	ident, ok := a.identities[identityID]
	if !ok {
		return models.AttendanceRecord{}, models.NewFailure(models.KindAuthExpired, "unknown identity")
	}
	if ident.fingerprint != fingerprint {
		log.Println("Device mismatch for", ident.student.RollNumber)
		return models.AttendanceRecord{}, models.NewFailure(models.KindDeviceMismatch, "device fingerprint does not match the registered device")
	}

	issued, ok := a.sessions[code]
	if !ok {
		return models.AttendanceRecord{}, models.NewFailure(models.KindSessionUnavailable, "session not found")
	}
	if issued.redeemed[identityID] {
		return models.AttendanceRecord{}, models.NewFailure(models.KindAlreadyRedeemed, "attendance already marked for this session")
	}
	switch issued.session.State(a.Now()) {
	case models.SessionExpired:
		return models.AttendanceRecord{}, models.NewFailure(models.KindSessionUnavailable, "session has expired")
	case models.SessionEnded:
		return models.AttendanceRecord{}, models.NewFailure(models.KindSessionUnavailable, "session has ended")
	}

	if remaining := a.cooldownRemainingLocked(identityID); remaining > 0 {
		return models.AttendanceRecord{}, &models.Failure{
			Kind:              models.KindCooldownActive,
			Message:           "token cooldown active",
			CooldownRemaining: remaining,
		}
	}

	record := models.AttendanceRecord{
		ID:       uuid.NewString(),
		Subject:  issued.session.Subject,
		Teacher:  issued.teacher,
		MarkedAt: a.Now(),
		Status:   "present",
	}
	issued.redeemed[identityID] = true
	issued.records = append(issued.records, record)
	a.history[identityID] = append([]models.AttendanceRecord{record}, a.history[identityID]...)
	a.cooldownUntil[identityID] = a.Now().Add(a.cfg.Cooldown)
	log.Println(ident.student.RollNumber, "marked present for", issued.session.Subject)
	return record, nil
}

// SessionAttendance lists the records redeemed against one session.
func (a *Authority) SessionAttendance(code string) ([]models.AttendanceRecord, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	issued, ok := a.sessions[code]
	if !ok {
		return nil, models.NewFailure(models.KindSessionUnavailable, "session not found")
	}
	records := make([]models.AttendanceRecord, len(issued.records))
	copy(records, issued.records)
	return records, nil
}

// History lists an identity's past redemptions, newest first.
func (a *Authority) History(identityID string) []models.AttendanceRecord {
	a.mu.Lock()
	defer a.mu.Unlock()
	records := make([]models.AttendanceRecord, len(a.history[identityID]))
	copy(records, a.history[identityID])
	return records
}
