package handler

import (
	"errors"
	"net/http"

	"clinic-appointment-engine/internal/delivery/http/middleware"
	"clinic-appointment-engine/internal/domain/entity"
	"clinic-appointment-engine/internal/usecase"
	"clinic-appointment-engine/pkg/response"
)

// usecaseErrorStatus maps usecase sentinels to HTTP status codes.
var usecaseErrorStatus = []struct {
	err    error
	status int
}{
	{usecase.ErrAppointmentNotFound, http.StatusNotFound},
	{usecase.ErrAvailabilityNotFound, http.StatusNotFound},
	{usecase.ErrSlotNotFound, http.StatusNotFound},
	{usecase.ErrNotAuthorized, http.StatusForbidden},
	{usecase.ErrSlotAlreadyBooked, http.StatusConflict},
	{usecase.ErrDuplicateBooking, http.StatusConflict},
	{usecase.ErrInvalidTransition, http.StatusConflict},
	{usecase.ErrNotAffiliated, http.StatusUnprocessableEntity},
	{usecase.ErrNoWorkingDay, http.StatusUnprocessableEntity},
	{usecase.ErrSlotUnavailable, http.StatusUnprocessableEntity},
	{usecase.ErrNoDoctorAvailable, http.StatusUnprocessableEntity},
	{usecase.ErrInvalidStatus, http.StatusBadRequest},
	{usecase.ErrInvalidDate, http.StatusBadRequest},
}

// writeError renders a usecase error. Unknown errors become a 500 with the
// fallback message so storage details never leak.
func writeError(w http.ResponseWriter, err error, fallback string) {
	for _, m := range usecaseErrorStatus {
		if errors.Is(err, m.err) {
			response.Error(w, m.status, m.err.Error(), nil)
			return
		}
	}
	response.InternalServerError(w, fallback)
}

func actorOrUnauthorized(w http.ResponseWriter, r *http.Request) (entity.Actor, bool) {
	actor, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		response.Unauthorized(w, "User not found in context")
		return entity.Actor{}, false
	}
	return actor, true
}
