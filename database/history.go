package database

import (
	"fmt"
	"log"

	"github.com/rohanhumai/qr-attendance-client/models"
)

// ReplaceHistory overwrites the cached attendance history with the
// authority's latest answer. The cache is a replaceable copy, never merged.
func (d *DB) ReplaceHistory(records []models.AttendanceRecord) error {
	d.historyMutex.Lock()
	defer d.historyMutex.Unlock()

	tx, err := d.history.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM attendance_history"); err != nil {
		return err
	}
	stmt, err := tx.Prepare("INSERT INTO attendance_history (id, subject, teacher, marked_at, status) VALUES (?, ?, ?, ?, ?)")
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, r := range records {
		if _, err := stmt.Exec(r.ID, r.Subject, r.Teacher, r.MarkedAt, r.Status); err != nil {
			return fmt.Errorf("insert history row %s: %w", r.ID, err)
		}
	}
	return tx.Commit()
}

// History returns the cached attendance records, newest first.
func (d *DB) History() ([]models.AttendanceRecord, error) {
	d.historyMutex.Lock()
	defer d.historyMutex.Unlock()

	rows, err := d.history.Query("SELECT id, subject, teacher, marked_at, status FROM attendance_history ORDER BY marked_at DESC")
	if err != nil {
		log.Println("Failed to query attendance history:", err)
		return nil, err
	}
	defer rows.Close()

	var records []models.AttendanceRecord
	for rows.Next() {
		var r models.AttendanceRecord
		if err := rows.Scan(&r.ID, &r.Subject, &r.Teacher, &r.MarkedAt, &r.Status); err != nil {
			log.Println("Failed to scan history row:", err)
			return nil, err
		}
		records = append(records, r)
	}
	return records, rows.Err()
}
