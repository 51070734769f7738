package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

// AppointmentStatus represents the lifecycle state of an appointment
type AppointmentStatus string

const (
	AppointmentStatusBooked    AppointmentStatus = "booked"
	AppointmentStatusCanceled  AppointmentStatus = "canceled"
	AppointmentStatusCompleted AppointmentStatus = "completed"
	AppointmentStatusNoShow    AppointmentStatus = "no_show"
)

// BookedSlotConstraint is the partial unique index that allows at most one
// booked appointment per (doctor, clinic, date, slot).
const BookedSlotConstraint = "uq_appointments_booked_slot"

// appointmentTransitions lists the states reachable from each state.
var appointmentTransitions = map[AppointmentStatus][]AppointmentStatus{
	AppointmentStatusBooked: {
		AppointmentStatusCompleted,
		AppointmentStatusNoShow,
		AppointmentStatusCanceled,
	},
	AppointmentStatusCanceled:  {},
	AppointmentStatusCompleted: {},
	AppointmentStatusNoShow:    {},
}

// ParseAppointmentStatus returns the status for a known value.
func ParseAppointmentStatus(s string) (AppointmentStatus, bool) {
	status := AppointmentStatus(s)
	_, ok := appointmentTransitions[status]
	return status, ok
}

// CanTransitionTo reports whether the state machine allows moving to next.
func (s AppointmentStatus) CanTransitionTo(next AppointmentStatus) bool {
	for _, allowed := range appointmentTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Appointment is a patient's reservation of one slot.
type Appointment struct {
	ID             uuid.UUID         `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	PatientID      uuid.UUID         `gorm:"type:uuid;not null;index" json:"patient_id"`
	DoctorID       uuid.UUID         `gorm:"type:uuid;not null;index" json:"doctor_id"`
	ClinicID       uuid.UUID         `gorm:"type:uuid;not null;index" json:"clinic_id"`
	Date           time.Time         `gorm:"type:date;not null;index" json:"date"`
	SlotIndex      int               `gorm:"not null" json:"slot_index"`
	StartTime      string            `gorm:"type:varchar(8);not null" json:"start_time"`
	EndTime        string            `gorm:"type:varchar(8);not null" json:"end_time"`
	Status         AppointmentStatus `gorm:"type:varchar(20);not null;default:'booked';index" json:"status"`
	Fee            decimal.Decimal   `gorm:"type:numeric(10,2);not null" json:"fee"`
	ReasonForVisit string            `gorm:"type:text" json:"reason_for_visit,omitempty"`
	Symptoms       pq.StringArray    `gorm:"type:text[]" json:"symptoms,omitempty"`
	Notes          string            `gorm:"type:text" json:"notes,omitempty"`
	CancelReason   string            `gorm:"type:text" json:"cancel_reason,omitempty"`
	CanceledBy     *uuid.UUID        `gorm:"type:uuid" json:"canceled_by,omitempty"`
	CanceledAt     *time.Time        `json:"canceled_at,omitempty"`
	CompletedAt    *time.Time        `json:"completed_at,omitempty"`
	RescheduledAt  *time.Time        `json:"rescheduled_at,omitempty"`
	CreatedAt      time.Time         `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time         `gorm:"autoUpdateTime" json:"updated_at"`

	// Relationships
	Doctor Doctor `gorm:"foreignKey:DoctorID" json:"doctor,omitempty"`
	Clinic Clinic `gorm:"foreignKey:ClinicID" json:"clinic,omitempty"`
}

func (Appointment) TableName() string {
	return "appointments"
}

// IsBooked checks if the appointment still holds its slot
func (a *Appointment) IsBooked() bool {
	return a.Status == AppointmentStatusBooked
}

// IsOwnedBy checks if the patient owns the appointment
func (a *Appointment) IsOwnedBy(patientID uuid.UUID) bool {
	return a.PatientID == patientID
}
