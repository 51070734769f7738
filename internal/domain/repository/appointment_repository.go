package repository

import (
	"time"

	"clinic-appointment-engine/internal/domain/entity"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// SlotMove carries the new coordinates of a rescheduled appointment.
type SlotMove struct {
	Date      time.Time
	SlotIndex int
	StartTime string
	EndTime   string
}

type AppointmentRepository interface {
	// Create inserts a booked appointment. Returns ErrSlotConflict when the slot
	// is already held by another booked appointment.
	Create(db *gorm.DB, appointment *entity.Appointment) error
	FindByID(db *gorm.DB, id uuid.UUID) (*entity.Appointment, error)
	FindByPatientID(db *gorm.DB, patientID uuid.UUID) ([]entity.Appointment, error)
	FindByDoctorID(db *gorm.DB, doctorID uuid.UUID) ([]entity.Appointment, error)
	// FindBookedSlotIndexes returns the slot indexes held by booked appointments.
	FindBookedSlotIndexes(db *gorm.DB, doctorID, clinicID uuid.UUID, date time.Time) ([]int, error)
	// ExistsBookedForPatient reports whether the patient already has a booked
	// appointment with the doctor on the date.
	ExistsBookedForPatient(db *gorm.DB, patientID, doctorID uuid.UUID, date time.Time) (bool, error)
	// UpdateStatusFrom atomically moves the appointment from one status to another,
	// applying the extra column updates. Returns affected rows: 0 means the
	// appointment was no longer in the from status.
	UpdateStatusFrom(db *gorm.DB, id uuid.UUID, from, to entity.AppointmentStatus, updates map[string]interface{}) (int64, error)
	// Reschedule moves a booked appointment in place. Returns affected rows, or
	// ErrSlotConflict when the target slot is taken.
	Reschedule(db *gorm.DB, id uuid.UUID, move SlotMove) (int64, error)
}
