package converter

import (
	"clinic-appointment-engine/internal/delivery/dto"
	"clinic-appointment-engine/internal/domain/entity"

	"github.com/google/uuid"
)

// AppointmentToResponse converts an Appointment entity to AppointmentResponse DTO
func AppointmentToResponse(appointment *entity.Appointment) *dto.AppointmentResponse {
	if appointment == nil {
		return nil
	}

	response := &dto.AppointmentResponse{
		ID:             appointment.ID,
		PatientID:      appointment.PatientID,
		DoctorID:       appointment.DoctorID,
		ClinicID:       appointment.ClinicID,
		Date:           appointment.Date.Format(entity.DateLayout),
		SlotIndex:      appointment.SlotIndex,
		StartTime:      appointment.StartTime,
		EndTime:        appointment.EndTime,
		Status:         string(appointment.Status),
		Fee:            appointment.Fee,
		ReasonForVisit: appointment.ReasonForVisit,
		Symptoms:       []string(appointment.Symptoms),
		Notes:          appointment.Notes,
		CancelReason:   appointment.CancelReason,
		CanceledBy:     appointment.CanceledBy,
		CanceledAt:     appointment.CanceledAt,
		CompletedAt:    appointment.CompletedAt,
		RescheduledAt:  appointment.RescheduledAt,
		CreatedAt:      appointment.CreatedAt,
		UpdatedAt:      appointment.UpdatedAt,
	}

	// Include relations if preloaded
	if appointment.Doctor.ID != uuid.Nil {
		response.Doctor = &dto.AppointmentDoctorResponse{
			ID:       appointment.Doctor.ID,
			FullName: appointment.Doctor.FullName,
		}
	}
	if appointment.Clinic.ID != uuid.Nil {
		response.Clinic = &dto.AppointmentClinicResponse{
			ID:      appointment.Clinic.ID,
			Name:    appointment.Clinic.Name,
			Address: appointment.Clinic.Address,
		}
	}

	return response
}

// AppointmentsToResponses converts a slice of Appointment entities to slice of AppointmentResponse DTOs
func AppointmentsToResponses(appointments []entity.Appointment) []dto.AppointmentResponse {
	responses := make([]dto.AppointmentResponse, len(appointments))
	for i := range appointments {
		if resp := AppointmentToResponse(&appointments[i]); resp != nil {
			responses[i] = *resp
		}
	}
	return responses
}
