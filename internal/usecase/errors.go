package usecase

import (
	"errors"
	"strings"
	"time"

	"clinic-appointment-engine/internal/domain/entity"
)

var (
	ErrNotAffiliated        = errors.New("doctor has no active affiliation with this clinic")
	ErrNoWorkingDay         = errors.New("doctor does not work at this clinic on that day")
	ErrSlotUnavailable      = errors.New("slot is not open for booking")
	ErrSlotAlreadyBooked    = errors.New("slot is already booked")
	ErrSlotNotFound         = errors.New("slot not found")
	ErrNoDoctorAvailable    = errors.New("no doctor is free for this slot")
	ErrAppointmentNotFound  = errors.New("appointment not found")
	ErrAvailabilityNotFound = errors.New("no availability generated for this date")
	ErrNotAuthorized        = errors.New("not authorized to perform this action")
	ErrInvalidTransition    = errors.New("appointment status does not allow this change")
	ErrInvalidStatus        = errors.New("unknown appointment status")
	ErrDuplicateBooking     = errors.New("you already have a booking with this doctor on this date")
	ErrInvalidDate          = errors.New("invalid date, use YYYY-MM-DD")
)

// parseDate parses a calendar date in UTC.
func parseDate(s string) (time.Time, error) {
	date, err := time.ParseInLocation(entity.DateLayout, strings.TrimSpace(s), time.UTC)
	if err != nil {
		return time.Time{}, ErrInvalidDate
	}
	return date, nil
}
