package converter

import (
	"clinic-appointment-engine/internal/delivery/dto"
	"clinic-appointment-engine/internal/domain/entity"
	"clinic-appointment-engine/pkg/slot"
)

// SlotToResponse converts an AvailabilitySlot to SlotResponse DTO
func SlotToResponse(s entity.AvailabilitySlot) dto.SlotResponse {
	return dto.SlotResponse{
		SlotIndex:   s.SlotIndex,
		StartTime:   s.StartTime,
		EndTime:     s.EndTime,
		IsAvailable: s.IsAvailable,
		Capacity:    s.Capacity,
	}
}

func SlotsToResponses(slots []entity.AvailabilitySlot) []dto.SlotResponse {
	responses := make([]dto.SlotResponse, len(slots))
	for i, s := range slots {
		responses[i] = SlotToResponse(s)
	}
	return responses
}

// AvailabilityToResponse converts an Availability entity to AvailabilityResponse DTO
func AvailabilityToResponse(availability *entity.Availability) *dto.AvailabilityResponse {
	if availability == nil {
		return nil
	}

	return &dto.AvailabilityResponse{
		ID:        availability.ID,
		DoctorID:  availability.DoctorID,
		ClinicID:  availability.ClinicID,
		Date:      availability.Date.Format(entity.DateLayout),
		Slots:     SlotsToResponses(availability.Slots),
		UpdatedAt: availability.UpdatedAt,
	}
}

// CalculatedSlotsToAvailability turns freshly tiled slots into open, single-capacity
// availability slots.
func CalculatedSlotsToAvailability(slots []slot.Slot) entity.Slots {
	result := make(entity.Slots, len(slots))
	for i, s := range slots {
		result[i] = entity.AvailabilitySlot{
			SlotIndex:   s.Index,
			StartTime:   s.StartTime,
			EndTime:     s.EndTime,
			IsAvailable: true,
			Capacity:    1,
		}
	}
	return result
}
