package model

import "time"

// MedStatus is the outcome recorded for a single medication occurrence.
type MedStatus string

const (
	MedTaken   MedStatus = "taken"
	MedSkipped MedStatus = "skipped"
	MedMissed  MedStatus = "missed"
)

// Medication is a daily recurring medication reminder. ScheduleTime is a
// clock time ("HH:MM") with no date component; the reminder fires every day.
type Medication struct {
	ID           uint      `gorm:"primaryKey"`
	UserID       int64     `gorm:"index;not null"`
	ChannelID    int64     `gorm:"not null"`
	Name         string    `gorm:"type:text;not null"`
	Dosage       string    `gorm:"type:text"`
	ScheduleTime string    `gorm:"not null"`
	Repeat       Repeat    `gorm:"type:text;not null;default:daily"`
	Active       bool      `gorm:"not null;default:true"`
	CreatedAt    time.Time `gorm:"autoCreateTime"`
}

// MedicationLog is an append-only record of a taken/skipped/missed event.
// Rows are never updated or deleted and outlive the medication's active flag.
type MedicationLog struct {
	ID           uint      `gorm:"primaryKey"`
	MedicationID uint      `gorm:"index;not null"`
	UserID       int64     `gorm:"index;not null"`
	Status       MedStatus `gorm:"type:text;not null"`
	CreatedAt    time.Time `gorm:"autoCreateTime"`
}
