package entity

import (
	"time"

	"github.com/google/uuid"
)

// Clinic is owned by the clinic-management service; the engine only reads it.
type Clinic struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	Name        string    `gorm:"type:varchar(255);not null" json:"name"`
	Address     string    `gorm:"type:text" json:"address,omitempty"`
	Latitude    float64   `gorm:"type:double precision" json:"latitude"`
	Longitude   float64   `gorm:"type:double precision" json:"longitude"`
	OpeningTime string    `gorm:"type:varchar(8)" json:"opening_time"`
	ClosingTime string    `gorm:"type:varchar(8)" json:"closing_time"`
	IsActive    bool      `gorm:"not null;default:true;index" json:"is_active"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Clinic) TableName() string {
	return "clinics"
}
