package repository

import (
	"errors"
	"time"

	"clinic-appointment-engine/internal/domain/entity"
	domainRepo "clinic-appointment-engine/internal/domain/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type availabilityRepository struct{}

func NewAvailabilityRepository() domainRepo.AvailabilityRepository {
	return &availabilityRepository{}
}

// Upsert relies on uq_availabilities_doctor_clinic_date, so concurrent generations
// for the same day converge on a single row.
func (r *availabilityRepository) Upsert(db *gorm.DB, availability *entity.Availability) error {
	return db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "doctor_id"}, {Name: "clinic_id"}, {Name: "date"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"slots":      availability.Slots,
			"updated_at": time.Now(),
		}),
	}).Create(availability).Error
}

func (r *availabilityRepository) FindByDoctorClinicDate(db *gorm.DB, doctorID, clinicID uuid.UUID, date time.Time) (*entity.Availability, error) {
	var availability entity.Availability
	err := db.Where("doctor_id = ? AND clinic_id = ? AND date = ?", doctorID, clinicID, date.Format(entity.DateLayout)).
		First(&availability).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &availability, nil
}

func (r *availabilityRepository) UpdateSlots(db *gorm.DB, availability *entity.Availability) error {
	return db.Model(&entity.Availability{}).
		Where("id = ?", availability.ID).
		Updates(map[string]interface{}{
			"slots":      availability.Slots,
			"updated_at": time.Now(),
		}).Error
}
