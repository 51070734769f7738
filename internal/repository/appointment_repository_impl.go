package repository

import (
	"errors"
	"time"

	"clinic-appointment-engine/internal/domain/entity"
	domainRepo "clinic-appointment-engine/internal/domain/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type appointmentRepository struct{}

func NewAppointmentRepository() domainRepo.AppointmentRepository {
	return &appointmentRepository{}
}

// Create is a single INSERT; uq_appointments_booked_slot decides the winner when
// two requests race for the same slot.
func (r *appointmentRepository) Create(db *gorm.DB, appointment *entity.Appointment) error {
	if appointment.ID == uuid.Nil {
		appointment.ID = uuid.New()
	}
	err := db.Omit("Doctor", "Clinic").Create(appointment).Error
	if err != nil && isDuplicateKeyError(err, entity.BookedSlotConstraint) {
		return domainRepo.ErrSlotConflict
	}
	return err
}

func (r *appointmentRepository) FindByID(db *gorm.DB, id uuid.UUID) (*entity.Appointment, error) {
	var appointment entity.Appointment
	err := db.Where("id = ?", id).First(&appointment).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &appointment, nil
}

func (r *appointmentRepository) FindByPatientID(db *gorm.DB, patientID uuid.UUID) ([]entity.Appointment, error) {
	var appointments []entity.Appointment
	err := db.Where("patient_id = ?", patientID).
		Order("date DESC, slot_index ASC").
		Find(&appointments).Error
	if err != nil {
		return nil, err
	}
	return appointments, nil
}

func (r *appointmentRepository) FindByDoctorID(db *gorm.DB, doctorID uuid.UUID) ([]entity.Appointment, error) {
	var appointments []entity.Appointment
	err := db.Where("doctor_id = ?", doctorID).
		Order("date DESC, slot_index ASC").
		Find(&appointments).Error
	if err != nil {
		return nil, err
	}
	return appointments, nil
}

func (r *appointmentRepository) FindBookedSlotIndexes(db *gorm.DB, doctorID, clinicID uuid.UUID, date time.Time) ([]int, error) {
	var indexes []int
	err := db.Model(&entity.Appointment{}).
		Where("doctor_id = ? AND clinic_id = ? AND date = ? AND status = ?",
			doctorID, clinicID, date.Format(entity.DateLayout), entity.AppointmentStatusBooked).
		Pluck("slot_index", &indexes).Error
	if err != nil {
		return nil, err
	}
	return indexes, nil
}

func (r *appointmentRepository) ExistsBookedForPatient(db *gorm.DB, patientID, doctorID uuid.UUID, date time.Time) (bool, error) {
	var count int64
	err := db.Model(&entity.Appointment{}).
		Where("patient_id = ? AND doctor_id = ? AND date = ? AND status = ?",
			patientID, doctorID, date.Format(entity.DateLayout), entity.AppointmentStatusBooked).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// UpdateStatusFrom only touches the row while it is still in the from status,
// so two concurrent transitions cannot both succeed.
func (r *appointmentRepository) UpdateStatusFrom(db *gorm.DB, id uuid.UUID, from, to entity.AppointmentStatus, updates map[string]interface{}) (int64, error) {
	values := map[string]interface{}{
		"status":     to,
		"updated_at": time.Now(),
	}
	for k, v := range updates {
		values[k] = v
	}

	result := db.Model(&entity.Appointment{}).
		Where("id = ? AND status = ?", id, from).
		Updates(values)
	return result.RowsAffected, result.Error
}

// Reschedule is checked against the same partial unique index as Create.
func (r *appointmentRepository) Reschedule(db *gorm.DB, id uuid.UUID, move domainRepo.SlotMove) (int64, error) {
	result := db.Model(&entity.Appointment{}).
		Where("id = ? AND status = ?", id, entity.AppointmentStatusBooked).
		Updates(map[string]interface{}{
			"date":           move.Date.Format(entity.DateLayout),
			"slot_index":     move.SlotIndex,
			"start_time":     move.StartTime,
			"end_time":       move.EndTime,
			"rescheduled_at": time.Now(),
			"updated_at":     time.Now(),
		})
	if result.Error != nil {
		if isDuplicateKeyError(result.Error, entity.BookedSlotConstraint) {
			return 0, domainRepo.ErrSlotConflict
		}
		return 0, result.Error
	}
	return result.RowsAffected, nil
}
