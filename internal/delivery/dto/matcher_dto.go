package dto

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// FindFreeDoctorsQuery is bound from query parameters.
type FindFreeDoctorsQuery struct {
	ClinicID       uuid.UUID `validate:"required"`
	Date           string    `validate:"required,date"`
	SlotIndex      int       `validate:"gte=0"`
	Specialization string    `validate:"max=100"`
}

type FreeDoctorResponse struct {
	DoctorID        uuid.UUID       `json:"doctor_id"`
	FullName        string          `json:"full_name"`
	Specializations []string        `json:"specializations"`
	Fee             decimal.Decimal `json:"fee"`
	Rating          float64         `json:"rating"`
	TotalReviews    int             `json:"total_reviews"`
	Slot            SlotResponse    `json:"slot"`
}

type FreeDoctorListResponse struct {
	ClinicID  uuid.UUID            `json:"clinic_id"`
	Date      string               `json:"date"`
	SlotIndex int                  `json:"slot_index"`
	Doctors   []FreeDoctorResponse `json:"doctors"`
	Total     int                  `json:"total"`
}
