package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"clinic-appointment-engine/internal/converter"
	"clinic-appointment-engine/internal/delivery/dto"
	"clinic-appointment-engine/internal/domain/entity"
	"clinic-appointment-engine/internal/domain/repository"
	"clinic-appointment-engine/internal/observability/metrics"
	"clinic-appointment-engine/internal/service"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"gorm.io/gorm"
)

var bookingTracer = otel.Tracer("clinic.internal.usecase.booking")

const (
	bookingModeAuto     = "auto"
	bookingModeSpecific = "specific"
)

type BookingUsecase interface {
	BookAppointmentAuto(ctx context.Context, patientID uuid.UUID, req *dto.BookAutoRequest) (*dto.AppointmentResponse, error)
	BookAppointmentSpecific(ctx context.Context, patientID uuid.UUID, req *dto.BookSpecificRequest) (*dto.AppointmentResponse, error)
}

type bookingUsecase struct {
	db               *gorm.DB
	log              *logrus.Logger
	matcher          MatcherUsecase
	affiliationRepo  repository.AffiliationRepository
	availabilityRepo repository.AvailabilityRepository
	appointmentRepo  repository.AppointmentRepository
	cache            *service.AvailabilityCacheService
	auditService     service.AuditService
	metrics          *metrics.BookingMetrics
	autoAttempts     int
}

func NewBookingUsecase(
	db *gorm.DB,
	log *logrus.Logger,
	matcher MatcherUsecase,
	affiliationRepo repository.AffiliationRepository,
	availabilityRepo repository.AvailabilityRepository,
	appointmentRepo repository.AppointmentRepository,
	cache *service.AvailabilityCacheService,
	auditService service.AuditService,
	bookingMetrics *metrics.BookingMetrics,
	autoAttempts int,
) BookingUsecase {
	if autoAttempts < 1 {
		autoAttempts = 1
	}
	return &bookingUsecase{
		db:               db,
		log:              log,
		matcher:          matcher,
		affiliationRepo:  affiliationRepo,
		availabilityRepo: availabilityRepo,
		appointmentRepo:  appointmentRepo,
		cache:            cache,
		auditService:     auditService,
		metrics:          bookingMetrics,
		autoAttempts:     autoAttempts,
	}
}

// BookAppointmentAuto books the best-rated free doctor at the clinic.
//
// Flow:
// 1. Rank free doctors through the matcher
// 2. Insert for the top candidate
// 3. On a slot conflict move to the next candidate, up to autoAttempts inserts
// 4. Out of attempts or candidates -> ErrSlotAlreadyBooked, the caller may retry
func (u *bookingUsecase) BookAppointmentAuto(ctx context.Context, patientID uuid.UUID, req *dto.BookAutoRequest) (*dto.AppointmentResponse, error) {
	ctx, span := bookingTracer.Start(ctx, "booking.auto")
	defer span.End()
	span.SetAttributes(
		attribute.String("clinic.clinic_id", req.ClinicID.String()),
		attribute.String("clinic.date", req.Date),
		attribute.Int("clinic.slot_index", req.SlotIndex),
	)

	date, err := parseDate(req.Date)
	if err != nil {
		u.metrics.ObserveBooking(bookingModeAuto, metrics.OutcomeRejected)
		return nil, err
	}

	candidates, err := u.matcher.Match(ctx, req.ClinicID, date, req.SlotIndex, req.Specialization)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "match failed")
		u.metrics.ObserveBooking(bookingModeAuto, metrics.OutcomeError)
		return nil, err
	}
	if len(candidates) == 0 {
		u.metrics.ObserveBooking(bookingModeAuto, metrics.OutcomeNoDoctor)
		return nil, ErrNoDoctorAvailable
	}

	attempts := u.autoAttempts
	if attempts > len(candidates) {
		attempts = len(candidates)
	}

	db := u.db.WithContext(ctx)
	for i := 0; i < attempts; i++ {
		candidate := candidates[i]
		appointment := newAppointment(patientID, &candidate.Affiliation, candidate.Slot, date, req.ReasonForVisit, req.Symptoms)

		err := u.appointmentRepo.Create(db, appointment)
		if err == nil {
			appointment.Doctor = candidate.Affiliation.Doctor
			span.SetAttributes(attribute.String("clinic.doctor_id", candidate.Affiliation.DoctorID.String()))
			u.afterBooked(ctx, bookingModeAuto, appointment)
			return converter.AppointmentToResponse(appointment), nil
		}
		if !errors.Is(err, repository.ErrSlotConflict) {
			span.RecordError(err)
			span.SetStatus(codes.Error, "insert failed")
			u.log.Warnf("Failed to insert appointment for doctor %s: %+v", candidate.Affiliation.DoctorID, err)
			u.metrics.ObserveBooking(bookingModeAuto, metrics.OutcomeError)
			return nil, fmt.Errorf("create appointment: %w", err)
		}

		u.metrics.ObserveSlotConflict("create")
		u.log.Infof("Slot %d of doctor %s taken concurrently, trying next candidate (%d/%d)",
			req.SlotIndex, candidate.Affiliation.DoctorID, i+1, attempts)
	}

	u.metrics.ObserveBooking(bookingModeAuto, metrics.OutcomeConflict)
	return nil, ErrSlotAlreadyBooked
}

// BookAppointmentSpecific books the given doctor.
//
// The pre-checks only produce friendlier errors. The single INSERT and the
// booked-slot unique index decide the race: exactly one concurrent caller wins.
func (u *bookingUsecase) BookAppointmentSpecific(ctx context.Context, patientID uuid.UUID, req *dto.BookSpecificRequest) (*dto.AppointmentResponse, error) {
	ctx, span := bookingTracer.Start(ctx, "booking.specific")
	defer span.End()
	span.SetAttributes(
		attribute.String("clinic.doctor_id", req.DoctorID.String()),
		attribute.String("clinic.clinic_id", req.ClinicID.String()),
		attribute.String("clinic.date", req.Date),
		attribute.Int("clinic.slot_index", req.SlotIndex),
	)

	appointment, err := u.bookSpecific(ctx, patientID, req)
	if err != nil {
		switch {
		case errors.Is(err, ErrSlotAlreadyBooked):
			u.metrics.ObserveBooking(bookingModeSpecific, metrics.OutcomeConflict)
		case errors.Is(err, ErrSlotUnavailable):
			u.metrics.ObserveBooking(bookingModeSpecific, metrics.OutcomeUnavailable)
		case errors.Is(err, ErrNotAffiliated), errors.Is(err, ErrDuplicateBooking), errors.Is(err, ErrInvalidDate):
			u.metrics.ObserveBooking(bookingModeSpecific, metrics.OutcomeRejected)
		default:
			span.RecordError(err)
			span.SetStatus(codes.Error, "booking failed")
			u.metrics.ObserveBooking(bookingModeSpecific, metrics.OutcomeError)
		}
		return nil, err
	}

	u.afterBooked(ctx, bookingModeSpecific, appointment)
	return converter.AppointmentToResponse(appointment), nil
}

func (u *bookingUsecase) bookSpecific(ctx context.Context, patientID uuid.UUID, req *dto.BookSpecificRequest) (*entity.Appointment, error) {
	date, err := parseDate(req.Date)
	if err != nil {
		return nil, err
	}

	db := u.db.WithContext(ctx)

	affiliation, err := u.affiliationRepo.FindActive(db, req.DoctorID, req.ClinicID)
	if err != nil {
		u.log.Warnf("Failed to find affiliation doctor=%s clinic=%s: %+v", req.DoctorID, req.ClinicID, err)
		return nil, fmt.Errorf("find affiliation: %w", err)
	}
	if affiliation == nil {
		return nil, ErrNotAffiliated
	}

	exists, err := u.appointmentRepo.ExistsBookedForPatient(db, patientID, req.DoctorID, date)
	if err != nil {
		u.log.Warnf("Failed to check existing booking: %+v", err)
		return nil, fmt.Errorf("check existing booking: %w", err)
	}
	if exists {
		return nil, ErrDuplicateBooking
	}

	state, err := loadSlotState(db, u.availabilityRepo, u.appointmentRepo, req.DoctorID, req.ClinicID, date)
	if err != nil {
		u.log.Warnf("Failed to load slots doctor=%s clinic=%s date=%s: %+v", req.DoctorID, req.ClinicID, req.Date, err)
		return nil, err
	}
	s, err := state.check(req.SlotIndex)
	if err != nil {
		return nil, err
	}

	appointment := newAppointment(patientID, affiliation, s, date, req.ReasonForVisit, req.Symptoms)
	if err := u.appointmentRepo.Create(db, appointment); err != nil {
		if errors.Is(err, repository.ErrSlotConflict) {
			u.metrics.ObserveSlotConflict("create")
			return nil, ErrSlotAlreadyBooked
		}
		u.log.Warnf("Failed to insert appointment: %+v", err)
		return nil, fmt.Errorf("create appointment: %w", err)
	}
	return appointment, nil
}

func (u *bookingUsecase) afterBooked(ctx context.Context, mode string, appointment *entity.Appointment) {
	u.metrics.ObserveBooking(mode, metrics.OutcomeBooked)
	u.cache.Invalidate(ctx, appointment.DoctorID, appointment.ClinicID, appointment.Date)
	u.auditService.Record(ctx, appointment.PatientID, entity.AuditActionAppointmentBook, "appointment", appointment.ID.String(), entity.JSON{
		"mode":       mode,
		"doctor_id":  appointment.DoctorID.String(),
		"clinic_id":  appointment.ClinicID.String(),
		"date":       appointment.Date.Format(entity.DateLayout),
		"slot_index": appointment.SlotIndex,
	})
	u.log.Infof("Appointment booked (%s): id=%s, doctor=%s, clinic=%s, date=%s, slot=%d",
		mode, appointment.ID, appointment.DoctorID, appointment.ClinicID,
		appointment.Date.Format(entity.DateLayout), appointment.SlotIndex)
}

// newAppointment builds a booked appointment; the fee is frozen from the affiliation.
func newAppointment(patientID uuid.UUID, affiliation *entity.Affiliation, s entity.AvailabilitySlot, date time.Time, reason string, symptoms []string) *entity.Appointment {
	return &entity.Appointment{
		ID:             uuid.New(),
		PatientID:      patientID,
		DoctorID:       affiliation.DoctorID,
		ClinicID:       affiliation.ClinicID,
		Date:           date,
		SlotIndex:      s.SlotIndex,
		StartTime:      s.StartTime,
		EndTime:        s.EndTime,
		Status:         entity.AppointmentStatusBooked,
		Fee:            affiliation.ConsultationFee,
		ReasonForVisit: reason,
		Symptoms:       pq.StringArray(symptoms),
	}
}
