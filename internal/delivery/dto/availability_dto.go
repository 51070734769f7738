package dto

import (
	"time"

	"github.com/google/uuid"
)

// Request DTOs

type GenerateAvailabilityRequest struct {
	DoctorID uuid.UUID `json:"doctor_id" validate:"required"`
	ClinicID uuid.UUID `json:"clinic_id" validate:"required"`
	Date     string    `json:"date" validate:"required,date"`
}

type BulkGenerateAvailabilityRequest struct {
	DoctorID uuid.UUID `json:"doctor_id" validate:"required"`
	ClinicID uuid.UUID `json:"clinic_id" validate:"required"`
	Dates    []string  `json:"dates" validate:"required,min=1,max=62,dive,date"`
}

// SlotToggleRequest blocks or unblocks one generated slot.
type SlotToggleRequest struct {
	DoctorID  uuid.UUID `json:"doctor_id" validate:"required"`
	ClinicID  uuid.UUID `json:"clinic_id" validate:"required"`
	Date      string    `json:"date" validate:"required,date"`
	SlotIndex int       `json:"slot_index" validate:"gte=0"`
}

// Response DTOs

type SlotResponse struct {
	SlotIndex   int    `json:"slot_index"`
	StartTime   string `json:"start_time"`
	EndTime     string `json:"end_time"`
	IsAvailable bool   `json:"is_available"`
	Capacity    int    `json:"capacity"`
}

type AvailabilityResponse struct {
	ID        uuid.UUID      `json:"id"`
	DoctorID  uuid.UUID      `json:"doctor_id"`
	ClinicID  uuid.UUID      `json:"clinic_id"`
	Date      string         `json:"date"`
	Slots     []SlotResponse `json:"slots"`
	UpdatedAt time.Time      `json:"updated_at"`
}

type BulkGenerateResult struct {
	Date         string                `json:"date"`
	Success      bool                  `json:"success"`
	Availability *AvailabilityResponse `json:"availability,omitempty"`
	Error        string                `json:"error,omitempty"`
}

type BulkGenerateResponse struct {
	Results   []BulkGenerateResult `json:"results"`
	Succeeded int                  `json:"succeeded"`
	Failed    int                  `json:"failed"`
}

type AvailableSlotsResponse struct {
	DoctorID uuid.UUID      `json:"doctor_id"`
	ClinicID uuid.UUID      `json:"clinic_id"`
	Date     string         `json:"date"`
	Slots    []SlotResponse `json:"slots"`
	Total    int            `json:"total"`
}
