package database

import (
	"errors"

	"github.com/rohanhumai/qr-attendance-client/models"
	"gorm.io/gorm"
)

// ErrNoIdentity is returned when no identity has been persisted yet.
var ErrNoIdentity = errors.New("no stored identity")

// SaveIdentity replaces the stored credential and profile. Exactly one
// identity row exists at a time.
func (d *DB) SaveIdentity(token string, student models.Student, fingerprint string) error {
	d.stateMutex.Lock()
	defer d.stateMutex.Unlock()

	if err := d.state.Where("1 = 1").Delete(&Identity{}).Error; err != nil {
		return err
	}
	identity := Identity{
		Token:       token,
		StudentID:   student.ID,
		Name:        student.Name,
		RollNumber:  student.RollNumber,
		Email:       student.Email,
		Department:  student.Department,
		Year:        student.Year,
		Section:     student.Section,
		Fingerprint: fingerprint,
	}
	return d.state.Create(&identity).Error
}

// LoadIdentity returns the stored credential, profile and bound fingerprint.
func (d *DB) LoadIdentity() (token string, student models.Student, fingerprint string, err error) {
	d.stateMutex.Lock()
	defer d.stateMutex.Unlock()

	var identity Identity
	if err = d.state.First(&identity).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			err = ErrNoIdentity
		}
		return
	}
	token = identity.Token
	fingerprint = identity.Fingerprint
	student = models.Student{
		ID:         identity.StudentID,
		Name:       identity.Name,
		RollNumber: identity.RollNumber,
		Email:      identity.Email,
		Department: identity.Department,
		Year:       identity.Year,
		Section:    identity.Section,
	}
	return
}

// ClearIdentity removes the stored identity. The installation id survives, a
// logout never resets the device.
func (d *DB) ClearIdentity() error {
	d.stateMutex.Lock()
	defer d.stateMutex.Unlock()
	return d.state.Where("1 = 1").Delete(&Identity{}).Error
}
