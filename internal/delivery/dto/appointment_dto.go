package dto

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Request DTOs

type BookAutoRequest struct {
	ClinicID       uuid.UUID `json:"clinic_id" validate:"required"`
	Date           string    `json:"date" validate:"required,date"`
	SlotIndex      int       `json:"slot_index" validate:"gte=0"`
	Specialization string    `json:"specialization,omitempty" validate:"max=100"`
	ReasonForVisit string    `json:"reason_for_visit,omitempty" validate:"max=1000"`
	Symptoms       []string  `json:"symptoms,omitempty" validate:"max=20,dive,max=100"`
}

type BookSpecificRequest struct {
	DoctorID       uuid.UUID `json:"doctor_id" validate:"required"`
	ClinicID       uuid.UUID `json:"clinic_id" validate:"required"`
	Date           string    `json:"date" validate:"required,date"`
	SlotIndex      int       `json:"slot_index" validate:"gte=0"`
	ReasonForVisit string    `json:"reason_for_visit,omitempty" validate:"max=1000"`
	Symptoms       []string  `json:"symptoms,omitempty" validate:"max=20,dive,max=100"`
}

type CancelAppointmentRequest struct {
	Reason string `json:"reason,omitempty" validate:"max=500"`
}

type UpdateAppointmentStatusRequest struct {
	Status string `json:"status" validate:"required"`
	Notes  string `json:"notes,omitempty" validate:"max=2000"`
}

type RescheduleAppointmentRequest struct {
	Date      string `json:"date" validate:"required,date"`
	SlotIndex int    `json:"slot_index" validate:"gte=0"`
}

// Response DTOs

type AppointmentDoctorResponse struct {
	ID       uuid.UUID `json:"id"`
	FullName string    `json:"full_name"`
}

type AppointmentClinicResponse struct {
	ID      uuid.UUID `json:"id"`
	Name    string    `json:"name"`
	Address string    `json:"address"`
}

type AppointmentResponse struct {
	ID             uuid.UUID                  `json:"id"`
	PatientID      uuid.UUID                  `json:"patient_id"`
	DoctorID       uuid.UUID                  `json:"doctor_id"`
	ClinicID       uuid.UUID                  `json:"clinic_id"`
	Date           string                     `json:"date"`
	SlotIndex      int                        `json:"slot_index"`
	StartTime      string                     `json:"start_time"`
	EndTime        string                     `json:"end_time"`
	Status         string                     `json:"status"`
	Fee            decimal.Decimal            `json:"fee"`
	ReasonForVisit string                     `json:"reason_for_visit,omitempty"`
	Symptoms       []string                   `json:"symptoms,omitempty"`
	Notes          string                     `json:"notes,omitempty"`
	CancelReason   string                     `json:"cancel_reason,omitempty"`
	CanceledBy     *uuid.UUID                 `json:"canceled_by,omitempty"`
	CanceledAt     *time.Time                 `json:"canceled_at,omitempty"`
	CompletedAt    *time.Time                 `json:"completed_at,omitempty"`
	RescheduledAt  *time.Time                 `json:"rescheduled_at,omitempty"`
	Doctor         *AppointmentDoctorResponse `json:"doctor,omitempty"`
	Clinic         *AppointmentClinicResponse `json:"clinic,omitempty"`
	CreatedAt      time.Time                  `json:"created_at"`
	UpdatedAt      time.Time                  `json:"updated_at"`
}

type AppointmentListResponse struct {
	Appointments []AppointmentResponse `json:"appointments"`
	Total        int                   `json:"total"`
}
