package entity

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

type AffiliationStatus string

const (
	AffiliationStatusActive   AffiliationStatus = "active"
	AffiliationStatusInactive AffiliationStatus = "inactive"
)

// Affiliation grants a doctor the right to hold slots at a clinic. At most one
// active row exists per (doctor, clinic); the database enforces it with a
// partial unique index.
type Affiliation struct {
	ID              uuid.UUID         `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	DoctorID        uuid.UUID         `gorm:"type:uuid;not null;index" json:"doctor_id"`
	ClinicID        uuid.UUID         `gorm:"type:uuid;not null;index" json:"clinic_id"`
	Status          AffiliationStatus `gorm:"type:varchar(20);not null;default:'active'" json:"status"`
	ConsultationFee decimal.Decimal   `gorm:"type:numeric(10,2);not null" json:"consultation_fee"`
	WorkingDays     pq.StringArray    `gorm:"type:text[];not null" json:"working_days"` // lowercase weekday names
	StartTime       string            `gorm:"type:varchar(8);not null" json:"start_time"`
	EndTime         string            `gorm:"type:varchar(8);not null" json:"end_time"`
	CreatedAt       time.Time         `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time         `gorm:"autoUpdateTime" json:"updated_at"`

	// Relationships
	Doctor Doctor `gorm:"foreignKey:DoctorID" json:"doctor,omitempty"`
	Clinic Clinic `gorm:"foreignKey:ClinicID" json:"clinic,omitempty"`
}

func (Affiliation) TableName() string {
	return "doctor_clinic_affiliations"
}

func (a *Affiliation) IsActive() bool {
	return a.Status == AffiliationStatusActive
}

// WorksOn reports whether the weekday is one of the affiliation's working days.
func (a *Affiliation) WorksOn(day time.Weekday) bool {
	name := day.String()
	for _, d := range a.WorkingDays {
		if strings.EqualFold(strings.TrimSpace(d), name) {
			return true
		}
	}
	return false
}
