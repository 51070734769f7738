package entity

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// Doctor mirrors the doctor record kept by the identity/profile service. The
// engine reads rating, specializations and the activity flags.
type Doctor struct {
	ID              uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	FullName        string         `gorm:"type:varchar(255);not null" json:"full_name"`
	Specializations pq.StringArray `gorm:"type:text[];not null;default:'{}'" json:"specializations"`
	IsVerified      bool           `gorm:"not null;default:false" json:"is_verified"`
	IsActive        bool           `gorm:"not null;default:true;index" json:"is_active"`
	Rating          float64        `gorm:"type:numeric(3,2);not null;default:0" json:"rating"`
	TotalReviews    int            `gorm:"not null;default:0" json:"total_reviews"`
	ExperienceYears int            `gorm:"not null;default:0" json:"experience_years"`
	CreatedAt       time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Doctor) TableName() string {
	return "doctors"
}

// HasSpecialization reports whether the doctor lists the given specialization,
// ignoring case. An empty filter matches everyone.
func (d *Doctor) HasSpecialization(specialization string) bool {
	specialization = strings.TrimSpace(specialization)
	if specialization == "" {
		return true
	}
	for _, s := range d.Specializations {
		if strings.EqualFold(s, specialization) {
			return true
		}
	}
	return false
}

// IsBookable reports whether the doctor may receive new appointments.
func (d *Doctor) IsBookable() bool {
	return d.IsActive && d.IsVerified
}
