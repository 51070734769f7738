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
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"gorm.io/gorm"
)

var appointmentTracer = otel.Tracer("clinic.internal.usecase.appointment")

type AppointmentUsecase interface {
	GetAppointment(ctx context.Context, actor entity.Actor, appointmentID uuid.UUID) (*dto.AppointmentResponse, error)
	ListMyAppointments(ctx context.Context, actor entity.Actor) (*dto.AppointmentListResponse, error)
	CancelAppointment(ctx context.Context, actor entity.Actor, appointmentID uuid.UUID, req *dto.CancelAppointmentRequest) (*dto.AppointmentResponse, error)
	UpdateAppointmentStatus(ctx context.Context, actor entity.Actor, appointmentID uuid.UUID, req *dto.UpdateAppointmentStatusRequest) (*dto.AppointmentResponse, error)
	RescheduleAppointment(ctx context.Context, actor entity.Actor, appointmentID uuid.UUID, req *dto.RescheduleAppointmentRequest) (*dto.AppointmentResponse, error)
}

type appointmentUsecase struct {
	db               *gorm.DB
	log              *logrus.Logger
	availabilityRepo repository.AvailabilityRepository
	appointmentRepo  repository.AppointmentRepository
	cache            *service.AvailabilityCacheService
	auditService     service.AuditService
	metrics          *metrics.BookingMetrics
}

func NewAppointmentUsecase(
	db *gorm.DB,
	log *logrus.Logger,
	availabilityRepo repository.AvailabilityRepository,
	appointmentRepo repository.AppointmentRepository,
	cache *service.AvailabilityCacheService,
	auditService service.AuditService,
	bookingMetrics *metrics.BookingMetrics,
) AppointmentUsecase {
	return &appointmentUsecase{
		db:               db,
		log:              log,
		availabilityRepo: availabilityRepo,
		appointmentRepo:  appointmentRepo,
		cache:            cache,
		auditService:     auditService,
		metrics:          bookingMetrics,
	}
}

func (u *appointmentUsecase) findAppointment(ctx context.Context, appointmentID uuid.UUID) (*entity.Appointment, error) {
	appointment, err := u.appointmentRepo.FindByID(u.db.WithContext(ctx), appointmentID)
	if err != nil {
		u.log.Warnf("Failed to find appointment %s: %+v", appointmentID, err)
		return nil, fmt.Errorf("find appointment: %w", err)
	}
	if appointment == nil {
		return nil, ErrAppointmentNotFound
	}
	return appointment, nil
}

// GetAppointment is visible to the patient, the doctor and admins.
func (u *appointmentUsecase) GetAppointment(ctx context.Context, actor entity.Actor, appointmentID uuid.UUID) (*dto.AppointmentResponse, error) {
	appointment, err := u.findAppointment(ctx, appointmentID)
	if err != nil {
		return nil, err
	}

	switch {
	case actor.IsAdmin():
	case actor.IsPatient() && appointment.IsOwnedBy(actor.ID):
	case actor.IsDoctor() && appointment.DoctorID == actor.ID:
	default:
		return nil, ErrNotAuthorized
	}

	return converter.AppointmentToResponse(appointment), nil
}

func (u *appointmentUsecase) ListMyAppointments(ctx context.Context, actor entity.Actor) (*dto.AppointmentListResponse, error) {
	var (
		appointments []entity.Appointment
		err          error
	)

	db := u.db.WithContext(ctx)
	switch {
	case actor.IsPatient():
		appointments, err = u.appointmentRepo.FindByPatientID(db, actor.ID)
	case actor.IsDoctor():
		appointments, err = u.appointmentRepo.FindByDoctorID(db, actor.ID)
	default:
		return nil, ErrNotAuthorized
	}
	if err != nil {
		u.log.Warnf("Failed to list appointments of %s: %+v", actor.ID, err)
		return nil, fmt.Errorf("list appointments: %w", err)
	}

	return &dto.AppointmentListResponse{
		Appointments: converter.AppointmentsToResponses(appointments),
		Total:        len(appointments),
	}, nil
}

// CancelAppointment frees the slot. Only the owning patient or an admin may cancel.
func (u *appointmentUsecase) CancelAppointment(ctx context.Context, actor entity.Actor, appointmentID uuid.UUID, req *dto.CancelAppointmentRequest) (*dto.AppointmentResponse, error) {
	ctx, span := appointmentTracer.Start(ctx, "appointment.cancel")
	defer span.End()
	span.SetAttributes(attribute.String("clinic.appointment_id", appointmentID.String()))

	appointment, err := u.findAppointment(ctx, appointmentID)
	if err != nil {
		return nil, err
	}

	if !actor.IsAdmin() && !(actor.IsPatient() && appointment.IsOwnedBy(actor.ID)) {
		return nil, ErrNotAuthorized
	}
	if !appointment.IsBooked() {
		return nil, ErrInvalidTransition
	}

	now := time.Now()
	canceledBy := actor.ID
	updates := map[string]interface{}{
		"canceled_at":   now,
		"cancel_reason": req.Reason,
		"canceled_by":   canceledBy,
	}

	if err := u.transition(ctx, appointment, entity.AppointmentStatusCanceled, updates); err != nil {
		span.RecordError(err)
		return nil, err
	}

	appointment.CanceledAt = &now
	appointment.CancelReason = req.Reason
	appointment.CanceledBy = &canceledBy

	u.auditService.Record(ctx, actor.ID, entity.AuditActionAppointmentCancel, "appointment", appointment.ID.String(), entity.JSON{
		"reason": req.Reason,
	})
	u.log.Infof("Appointment canceled: id=%s, by=%s", appointment.ID, actor.ID)
	return converter.AppointmentToResponse(appointment), nil
}

// UpdateAppointmentStatus moves a booked appointment to a terminal status.
// Doctors may only update their own appointments; patients never.
func (u *appointmentUsecase) UpdateAppointmentStatus(ctx context.Context, actor entity.Actor, appointmentID uuid.UUID, req *dto.UpdateAppointmentStatusRequest) (*dto.AppointmentResponse, error) {
	ctx, span := appointmentTracer.Start(ctx, "appointment.update_status")
	defer span.End()
	span.SetAttributes(
		attribute.String("clinic.appointment_id", appointmentID.String()),
		attribute.String("clinic.status", req.Status),
	)

	next, ok := entity.ParseAppointmentStatus(req.Status)
	if !ok {
		return nil, ErrInvalidStatus
	}

	appointment, err := u.findAppointment(ctx, appointmentID)
	if err != nil {
		return nil, err
	}

	if !actor.IsAdmin() && !(actor.IsDoctor() && appointment.DoctorID == actor.ID) {
		return nil, ErrNotAuthorized
	}
	if !appointment.Status.CanTransitionTo(next) {
		return nil, ErrInvalidTransition
	}

	previous := appointment.Status
	now := time.Now()
	updates := map[string]interface{}{}
	if req.Notes != "" {
		updates["notes"] = req.Notes
	}
	switch next {
	case entity.AppointmentStatusCompleted:
		updates["completed_at"] = now
	case entity.AppointmentStatusCanceled:
		updates["canceled_at"] = now
		updates["canceled_by"] = actor.ID
	}

	if err := u.transition(ctx, appointment, next, updates); err != nil {
		span.RecordError(err)
		return nil, err
	}

	if req.Notes != "" {
		appointment.Notes = req.Notes
	}
	switch next {
	case entity.AppointmentStatusCompleted:
		appointment.CompletedAt = &now
	case entity.AppointmentStatusCanceled:
		canceledBy := actor.ID
		appointment.CanceledAt = &now
		appointment.CanceledBy = &canceledBy
	}

	u.auditService.Record(ctx, actor.ID, entity.AuditActionAppointmentStatus, "appointment", appointment.ID.String(), entity.JSON{
		"old_status": string(previous),
		"new_status": string(next),
	})
	u.log.Infof("Appointment status updated: id=%s, %s -> %s, by=%s", appointment.ID, previous, next, actor.ID)
	return converter.AppointmentToResponse(appointment), nil
}

// transition applies a conditional status update. Losing a race against another
// transition surfaces as ErrInvalidTransition.
func (u *appointmentUsecase) transition(ctx context.Context, appointment *entity.Appointment, next entity.AppointmentStatus, updates map[string]interface{}) error {
	from := appointment.Status

	rows, err := u.appointmentRepo.UpdateStatusFrom(u.db.WithContext(ctx), appointment.ID, from, next, updates)
	if err != nil {
		u.log.Warnf("Failed to update status of appointment %s: %+v", appointment.ID, err)
		return fmt.Errorf("update appointment status: %w", err)
	}
	if rows == 0 {
		return ErrInvalidTransition
	}

	appointment.Status = next
	u.metrics.ObserveTransition(string(from), string(next))
	if from == entity.AppointmentStatusBooked {
		u.cache.Invalidate(ctx, appointment.DoctorID, appointment.ClinicID, appointment.Date)
	}
	return nil
}

// RescheduleAppointment moves a booked appointment to another slot of the same
// doctor and clinic, keeping its identity. The old slot is released by the same
// UPDATE that claims the new one.
func (u *appointmentUsecase) RescheduleAppointment(ctx context.Context, actor entity.Actor, appointmentID uuid.UUID, req *dto.RescheduleAppointmentRequest) (*dto.AppointmentResponse, error) {
	ctx, span := appointmentTracer.Start(ctx, "appointment.reschedule")
	defer span.End()
	span.SetAttributes(
		attribute.String("clinic.appointment_id", appointmentID.String()),
		attribute.String("clinic.date", req.Date),
		attribute.Int("clinic.slot_index", req.SlotIndex),
	)

	newDate, err := parseDate(req.Date)
	if err != nil {
		return nil, err
	}

	appointment, err := u.findAppointment(ctx, appointmentID)
	if err != nil {
		return nil, err
	}

	if !actor.IsAdmin() && !(actor.IsPatient() && appointment.IsOwnedBy(actor.ID)) {
		return nil, ErrNotAuthorized
	}
	if !appointment.IsBooked() {
		return nil, ErrInvalidTransition
	}

	db := u.db.WithContext(ctx)

	state, err := loadSlotState(db, u.availabilityRepo, u.appointmentRepo, appointment.DoctorID, appointment.ClinicID, newDate)
	if err != nil {
		u.log.Warnf("Failed to load slots for reschedule of %s: %+v", appointment.ID, err)
		return nil, err
	}
	target, err := state.check(req.SlotIndex)
	if err != nil {
		return nil, err
	}

	rows, err := u.appointmentRepo.Reschedule(db, appointment.ID, repository.SlotMove{
		Date:      newDate,
		SlotIndex: target.SlotIndex,
		StartTime: target.StartTime,
		EndTime:   target.EndTime,
	})
	if err != nil {
		if errors.Is(err, repository.ErrSlotConflict) {
			u.metrics.ObserveSlotConflict("reschedule")
			return nil, ErrSlotAlreadyBooked
		}
		span.RecordError(err)
		u.log.Warnf("Failed to reschedule appointment %s: %+v", appointment.ID, err)
		return nil, fmt.Errorf("reschedule appointment: %w", err)
	}
	if rows == 0 {
		return nil, ErrInvalidTransition
	}

	oldDate, oldSlot := appointment.Date, appointment.SlotIndex
	now := time.Now()
	appointment.Date = newDate
	appointment.SlotIndex = target.SlotIndex
	appointment.StartTime = target.StartTime
	appointment.EndTime = target.EndTime
	appointment.RescheduledAt = &now

	u.cache.Invalidate(ctx, appointment.DoctorID, appointment.ClinicID, oldDate)
	u.cache.Invalidate(ctx, appointment.DoctorID, appointment.ClinicID, newDate)
	u.auditService.Record(ctx, actor.ID, entity.AuditActionAppointmentReschedule, "appointment", appointment.ID.String(), entity.JSON{
		"old_date":       oldDate.Format(entity.DateLayout),
		"old_slot_index": oldSlot,
		"new_date":       newDate.Format(entity.DateLayout),
		"new_slot_index": target.SlotIndex,
	})
	u.log.Infof("Appointment rescheduled: id=%s, %s#%d -> %s#%d",
		appointment.ID, oldDate.Format(entity.DateLayout), oldSlot, newDate.Format(entity.DateLayout), target.SlotIndex)
	return converter.AppointmentToResponse(appointment), nil
}
