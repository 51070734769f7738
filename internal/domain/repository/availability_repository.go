package repository

import (
	"time"

	"clinic-appointment-engine/internal/domain/entity"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type AvailabilityRepository interface {
	// Upsert replaces the slot list of the (doctor, clinic, date) row, creating it if needed.
	Upsert(db *gorm.DB, availability *entity.Availability) error
	FindByDoctorClinicDate(db *gorm.DB, doctorID, clinicID uuid.UUID, date time.Time) (*entity.Availability, error)
	UpdateSlots(db *gorm.DB, availability *entity.Availability) error
}
