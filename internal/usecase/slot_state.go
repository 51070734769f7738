package usecase

import (
	"fmt"
	"time"

	"clinic-appointment-engine/internal/domain/entity"
	"clinic-appointment-engine/internal/domain/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// slotState is a snapshot of one doctor's day at a clinic: the generated slots
// and the indexes held by booked appointments.
type slotState struct {
	availability *entity.Availability
	booked       map[int]bool
}

func loadSlotState(
	db *gorm.DB,
	availabilityRepo repository.AvailabilityRepository,
	appointmentRepo repository.AppointmentRepository,
	doctorID, clinicID uuid.UUID,
	date time.Time,
) (*slotState, error) {
	availability, err := availabilityRepo.FindByDoctorClinicDate(db, doctorID, clinicID, date)
	if err != nil {
		return nil, fmt.Errorf("find availability: %w", err)
	}

	state := &slotState{availability: availability, booked: map[int]bool{}}
	if availability == nil {
		return state, nil
	}

	indexes, err := appointmentRepo.FindBookedSlotIndexes(db, doctorID, clinicID, date)
	if err != nil {
		return nil, fmt.Errorf("find booked slots: %w", err)
	}
	for _, idx := range indexes {
		state.booked[idx] = true
	}
	return state, nil
}

// open returns the effective-open slots, or nil when nothing was generated.
func (s *slotState) open() []entity.AvailabilitySlot {
	if s.availability == nil {
		return nil
	}
	return s.availability.OpenSlots(s.booked)
}

// check returns the slot when it is effectively open. A missing or blocked slot is
// ErrSlotUnavailable; a slot held by a booked appointment is ErrSlotAlreadyBooked.
func (s *slotState) check(slotIndex int) (entity.AvailabilitySlot, error) {
	if s.availability == nil {
		return entity.AvailabilitySlot{}, ErrSlotUnavailable
	}
	i := s.availability.FindSlot(slotIndex)
	if i < 0 || !s.availability.Slots[i].IsAvailable {
		return entity.AvailabilitySlot{}, ErrSlotUnavailable
	}
	if s.booked[slotIndex] {
		return entity.AvailabilitySlot{}, ErrSlotAlreadyBooked
	}
	return s.availability.Slots[i], nil
}
