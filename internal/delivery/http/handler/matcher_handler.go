package handler

import (
	"net/http"
	"strconv"

	"clinic-appointment-engine/internal/delivery/dto"
	"clinic-appointment-engine/internal/usecase"
	"clinic-appointment-engine/pkg/response"
	"clinic-appointment-engine/pkg/validator"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

type MatcherHandler struct {
	matcherUsecase usecase.MatcherUsecase
	validator      *validator.CustomValidator
}

func NewMatcherHandler(matcherUsecase usecase.MatcherUsecase, validator *validator.CustomValidator) *MatcherHandler {
	return &MatcherHandler{
		matcherUsecase: matcherUsecase,
		validator:      validator,
	}
}

func (h *MatcherHandler) FindFreeDoctors(w http.ResponseWriter, r *http.Request) {
	clinicID, err := uuid.Parse(mux.Vars(r)["clinicId"])
	if err != nil {
		response.BadRequest(w, "Invalid clinic ID")
		return
	}

	q := r.URL.Query()
	slotIndex, err := strconv.Atoi(q.Get("slot_index"))
	if err != nil {
		response.ValidationError(w, map[string]string{"slot_index": "slot_index must be an integer"})
		return
	}

	query := dto.FindFreeDoctorsQuery{
		ClinicID:       clinicID,
		Date:           q.Get("date"),
		SlotIndex:      slotIndex,
		Specialization: q.Get("specialization"),
	}
	if err := h.validator.Validate(&query); err != nil {
		response.ValidationError(w, h.validator.FormatValidationErrors(err))
		return
	}

	doctors, err := h.matcherUsecase.FindFreeDoctors(r.Context(), &query)
	if err != nil {
		writeError(w, err, "Failed to find free doctors")
		return
	}

	response.Success(w, http.StatusOK, "Free doctors retrieved successfully", doctors)
}
