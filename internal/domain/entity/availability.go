package entity

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// DateLayout is the wire and storage format of calendar dates.
const DateLayout = "2006-01-02"

// AvailabilitySlot is one generated slot of a doctor's day at a clinic.
type AvailabilitySlot struct {
	SlotIndex   int    `json:"slot_index"`
	StartTime   string `json:"start_time"`
	EndTime     string `json:"end_time"`
	IsAvailable bool   `json:"is_available"`
	Capacity    int    `json:"capacity"`
}

// Slots is stored as a JSONB array ordered by slot index.
type Slots []AvailabilitySlot

// Value implements driver.Valuer
func (s Slots) Value() (driver.Value, error) {
	if s == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(s)
}

// Scan implements sql.Scanner
func (s *Slots) Scan(value interface{}) error {
	if value == nil {
		*s = Slots{}
		return nil
	}
	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return errors.New(fmt.Sprint("Failed to unmarshal JSONB slots:", value))
	}

	result := Slots{}
	err := json.Unmarshal(bytes, &result)
	*s = result
	return err
}

// Availability holds the generated slot list for a (doctor, clinic, date).
type Availability struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	DoctorID  uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uq_availabilities_doctor_clinic_date,priority:1" json:"doctor_id"`
	ClinicID  uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uq_availabilities_doctor_clinic_date,priority:2" json:"clinic_id"`
	Date      time.Time `gorm:"type:date;not null;uniqueIndex:uq_availabilities_doctor_clinic_date,priority:3" json:"date"`
	Slots     Slots     `gorm:"type:jsonb;not null" json:"slots"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Availability) TableName() string {
	return "availabilities"
}

// FindSlot returns the position of slotIndex in the slot list, or -1.
func (a *Availability) FindSlot(slotIndex int) int {
	for i := range a.Slots {
		if a.Slots[i].SlotIndex == slotIndex {
			return i
		}
	}
	return -1
}

// OpenSlots returns the slots that are not manually blocked and whose index is
// not in booked. This is the effective-open view used for bookability.
func (a *Availability) OpenSlots(booked map[int]bool) []AvailabilitySlot {
	open := make([]AvailabilitySlot, 0, len(a.Slots))
	for _, s := range a.Slots {
		if s.IsAvailable && !booked[s.SlotIndex] {
			open = append(open, s)
		}
	}
	return open
}
