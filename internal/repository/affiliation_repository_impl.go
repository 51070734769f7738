package repository

import (
	"errors"

	"clinic-appointment-engine/internal/domain/entity"
	domainRepo "clinic-appointment-engine/internal/domain/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type affiliationRepository struct{}

func NewAffiliationRepository() domainRepo.AffiliationRepository {
	return &affiliationRepository{}
}

func (r *affiliationRepository) FindActive(db *gorm.DB, doctorID, clinicID uuid.UUID) (*entity.Affiliation, error) {
	var affiliation entity.Affiliation
	err := db.Where("doctor_id = ? AND clinic_id = ? AND status = ?", doctorID, clinicID, entity.AffiliationStatusActive).
		First(&affiliation).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &affiliation, nil
}

// FindActiveByClinic returns affiliations only for doctors who are active and verified.
func (r *affiliationRepository) FindActiveByClinic(db *gorm.DB, clinicID uuid.UUID) ([]entity.Affiliation, error) {
	var affiliations []entity.Affiliation
	err := db.
		Joins("JOIN doctors ON doctors.id = doctor_clinic_affiliations.doctor_id").
		Where("doctor_clinic_affiliations.clinic_id = ? AND doctor_clinic_affiliations.status = ?", clinicID, entity.AffiliationStatusActive).
		Where("doctors.is_active = ? AND doctors.is_verified = ?", true, true).
		Preload("Doctor").
		Order("doctor_clinic_affiliations.created_at ASC").
		Find(&affiliations).Error
	if err != nil {
		return nil, err
	}
	return affiliations, nil
}
