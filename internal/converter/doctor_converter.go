package converter

import (
	"clinic-appointment-engine/internal/delivery/dto"
	"clinic-appointment-engine/internal/domain/entity"
)

// FreeDoctorToResponse converts a matched affiliation and its open slot to FreeDoctorResponse DTO
func FreeDoctorToResponse(affiliation *entity.Affiliation, s entity.AvailabilitySlot) dto.FreeDoctorResponse {
	specializations := []string(affiliation.Doctor.Specializations)
	if specializations == nil {
		specializations = []string{}
	}

	return dto.FreeDoctorResponse{
		DoctorID:        affiliation.DoctorID,
		FullName:        affiliation.Doctor.FullName,
		Specializations: specializations,
		Fee:             affiliation.ConsultationFee,
		Rating:          affiliation.Doctor.Rating,
		TotalReviews:    affiliation.Doctor.TotalReviews,
		Slot:            SlotToResponse(s),
	}
}
