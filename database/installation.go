package database

import (
	"errors"
	"log"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// InstallationID returns the persisted installation identifier, creating it
// on first use. The identifier is generated exactly once per installation.
func (d *DB) InstallationID() (string, error) {
	d.stateMutex.Lock()
	defer d.stateMutex.Unlock()

	var installation Installation
	err := d.state.First(&installation).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			installation = Installation{Value: uuid.NewString()}
			log.Println("Creating new installation id:", installation.Value)
			if err := d.state.Create(&installation).Error; err != nil {
				return "", err
			}
			return installation.Value, nil
		}
		return "", err
	}
	return installation.Value, nil
}
