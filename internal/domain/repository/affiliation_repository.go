package repository

import (
	"clinic-appointment-engine/internal/domain/entity"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type AffiliationRepository interface {
	// FindActive returns the active affiliation for the pair, or nil.
	FindActive(db *gorm.DB, doctorID, clinicID uuid.UUID) (*entity.Affiliation, error)
	// FindActiveByClinic returns active affiliations of the clinic whose doctor is
	// active and verified, with Doctor preloaded, in discovery order.
	FindActiveByClinic(db *gorm.DB, clinicID uuid.UUID) ([]entity.Affiliation, error)
}
