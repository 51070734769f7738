package handler

import (
	"encoding/json"
	"net/http"

	"clinic-appointment-engine/internal/delivery/dto"
	"clinic-appointment-engine/internal/usecase"
	"clinic-appointment-engine/pkg/response"
	"clinic-appointment-engine/pkg/validator"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

type AvailabilityHandler struct {
	availabilityUsecase usecase.AvailabilityUsecase
	validator           *validator.CustomValidator
}

func NewAvailabilityHandler(availabilityUsecase usecase.AvailabilityUsecase, validator *validator.CustomValidator) *AvailabilityHandler {
	return &AvailabilityHandler{
		availabilityUsecase: availabilityUsecase,
		validator:           validator,
	}
}

func (h *AvailabilityHandler) Generate(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorOrUnauthorized(w, r)
	if !ok {
		return
	}

	var req dto.GenerateAvailabilityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}

	if err := h.validator.Validate(&req); err != nil {
		response.ValidationError(w, h.validator.FormatValidationErrors(err))
		return
	}

	availability, err := h.availabilityUsecase.GenerateAvailability(r.Context(), actor, &req)
	if err != nil {
		writeError(w, err, "Failed to generate availability")
		return
	}

	response.Success(w, http.StatusOK, "Availability generated successfully", availability)
}

func (h *AvailabilityHandler) BulkGenerate(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorOrUnauthorized(w, r)
	if !ok {
		return
	}

	var req dto.BulkGenerateAvailabilityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}

	if err := h.validator.Validate(&req); err != nil {
		response.ValidationError(w, h.validator.FormatValidationErrors(err))
		return
	}

	result, err := h.availabilityUsecase.BulkGenerateAvailability(r.Context(), actor, &req)
	if err != nil {
		writeError(w, err, "Failed to generate availability")
		return
	}

	response.Success(w, http.StatusOK, "Bulk generation finished", result)
}

func (h *AvailabilityHandler) Block(w http.ResponseWriter, r *http.Request) {
	h.toggle(w, r, false)
}

func (h *AvailabilityHandler) Unblock(w http.ResponseWriter, r *http.Request) {
	h.toggle(w, r, true)
}

func (h *AvailabilityHandler) toggle(w http.ResponseWriter, r *http.Request, available bool) {
	actor, ok := actorOrUnauthorized(w, r)
	if !ok {
		return
	}

	var req dto.SlotToggleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}

	if err := h.validator.Validate(&req); err != nil {
		response.ValidationError(w, h.validator.FormatValidationErrors(err))
		return
	}

	var (
		availability *dto.AvailabilityResponse
		err          error
		message      string
	)
	if available {
		availability, err = h.availabilityUsecase.MarkSlotAvailable(r.Context(), actor, &req)
		message = "Slot unblocked successfully"
	} else {
		availability, err = h.availabilityUsecase.MarkSlotUnavailable(r.Context(), actor, &req)
		message = "Slot blocked successfully"
	}
	if err != nil {
		writeError(w, err, "Failed to update slot")
		return
	}

	response.Success(w, http.StatusOK, message, availability)
}

func (h *AvailabilityHandler) GetAvailableSlots(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	doctorID, err := uuid.Parse(vars["doctorId"])
	if err != nil {
		response.BadRequest(w, "Invalid doctor ID")
		return
	}
	clinicID, err := uuid.Parse(vars["clinicId"])
	if err != nil {
		response.BadRequest(w, "Invalid clinic ID")
		return
	}

	date := r.URL.Query().Get("date")
	if date == "" {
		response.ValidationError(w, map[string]string{"date": "date is required"})
		return
	}

	slots, err := h.availabilityUsecase.GetAvailableSlots(r.Context(), doctorID, clinicID, date)
	if err != nil {
		writeError(w, err, "Failed to get available slots")
		return
	}

	response.Success(w, http.StatusOK, "Available slots retrieved successfully", slots)
}
