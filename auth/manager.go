// Package auth handles the register/bind flow: one student identity, one
// physical device.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/rohanhumai/qr-attendance-client/database"
	"github.com/rohanhumai/qr-attendance-client/device"
	"github.com/rohanhumai/qr-attendance-client/models"
)

// Registrar is the slice of the API client registration needs.
type Registrar interface {
	Register(ctx context.Context, req models.RegisterRequest) (models.RegisterResponse, error)
	SetCredential(token string)
	SetFingerprint(fp string)
}

// Store persists the issued credential and profile locally.
type Store interface {
	SaveIdentity(token string, student models.Student, fingerprint string) error
	LoadIdentity() (token string, student models.Student, fingerprint string, err error)
	ClearIdentity() error
}

// Manager runs registration and credential restore against the authority.
type Manager struct {
	api      Registrar
	store    Store
	resolver *device.Resolver
}

func NewManager(api Registrar, store Store, resolver *device.Resolver) *Manager {
	return &Manager{api: api, store: store, resolver: resolver}
}

// Register binds the profile to this device's fingerprint. A DeviceLocked
// failure means the roll number is already bound to another device and must
// be surfaced as such, never as a generic error.
func (m *Manager) Register(ctx context.Context, req models.RegisterRequest) (models.Student, error) {
	fp := m.resolver.Resolve(ctx)
	m.api.SetFingerprint(fp.Value)

	resp, err := m.api.Register(ctx, req)
	if err != nil {
		return models.Student{}, err
	}
	if resp.Token == "" {
		return models.Student{}, models.NewFailure(models.KindTransient, "authority returned no credential")
	}

	if err := m.store.SaveIdentity(resp.Token, resp.Student, fp.Value); err != nil {
		return models.Student{}, fmt.Errorf("persist identity: %w", err)
	}
	m.api.SetCredential(resp.Token)
	log.Println("Registered", resp.Student.RollNumber, "bound to device", fp.Value)
	return resp.Student, nil
}

// Restore loads a previously issued credential from the local store and
// installs it on the API client. Returns false when no identity is stored.
func (m *Manager) Restore(ctx context.Context) (models.Student, bool, error) {
	token, student, fingerprint, err := m.store.LoadIdentity()
	if err != nil {
		if errors.Is(err, database.ErrNoIdentity) {
			return models.Student{}, false, nil
		}
		return models.Student{}, false, err
	}
	m.api.SetCredential(token)
	if fingerprint != "" {
		m.api.SetFingerprint(fingerprint)
	} else {
		m.api.SetFingerprint(m.resolver.Resolve(ctx).Value)
	}
	return student, true, nil
}

// Clear removes the stored identity and the installed credential. The
// installation id is untouched.
func (m *Manager) Clear() error {
	m.api.SetCredential("")
	return m.store.ClearIdentity()
}
