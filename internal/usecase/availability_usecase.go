package usecase

import (
	"context"
	"fmt"

	"clinic-appointment-engine/internal/converter"
	"clinic-appointment-engine/internal/delivery/dto"
	"clinic-appointment-engine/internal/domain/entity"
	"clinic-appointment-engine/internal/domain/repository"
	"clinic-appointment-engine/internal/service"
	"clinic-appointment-engine/pkg/slot"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

type AvailabilityUsecase interface {
	GenerateAvailability(ctx context.Context, actor entity.Actor, req *dto.GenerateAvailabilityRequest) (*dto.AvailabilityResponse, error)
	BulkGenerateAvailability(ctx context.Context, actor entity.Actor, req *dto.BulkGenerateAvailabilityRequest) (*dto.BulkGenerateResponse, error)
	GetAvailableSlots(ctx context.Context, doctorID, clinicID uuid.UUID, date string) (*dto.AvailableSlotsResponse, error)
	MarkSlotUnavailable(ctx context.Context, actor entity.Actor, req *dto.SlotToggleRequest) (*dto.AvailabilityResponse, error)
	MarkSlotAvailable(ctx context.Context, actor entity.Actor, req *dto.SlotToggleRequest) (*dto.AvailabilityResponse, error)
}

type availabilityUsecase struct {
	db               *gorm.DB
	log              *logrus.Logger
	calculator       *slot.Calculator
	affiliationRepo  repository.AffiliationRepository
	availabilityRepo repository.AvailabilityRepository
	appointmentRepo  repository.AppointmentRepository
	cache            *service.AvailabilityCacheService
	auditService     service.AuditService
}

func NewAvailabilityUsecase(
	db *gorm.DB,
	log *logrus.Logger,
	calculator *slot.Calculator,
	affiliationRepo repository.AffiliationRepository,
	availabilityRepo repository.AvailabilityRepository,
	appointmentRepo repository.AppointmentRepository,
	cache *service.AvailabilityCacheService,
	auditService service.AuditService,
) AvailabilityUsecase {
	return &availabilityUsecase{
		db:               db,
		log:              log,
		calculator:       calculator,
		affiliationRepo:  affiliationRepo,
		availabilityRepo: availabilityRepo,
		appointmentRepo:  appointmentRepo,
		cache:            cache,
		auditService:     auditService,
	}
}

// canManage: admins manage every doctor, doctors only themselves.
func canManage(actor entity.Actor, doctorID uuid.UUID) bool {
	return actor.IsAdmin() || (actor.IsDoctor() && actor.ID == doctorID)
}

// GenerateAvailability (re)creates the slot list of a doctor's day at a clinic.
// Regenerating resets every slot to available, dropping manual blocks.
func (u *availabilityUsecase) GenerateAvailability(ctx context.Context, actor entity.Actor, req *dto.GenerateAvailabilityRequest) (*dto.AvailabilityResponse, error) {
	if !canManage(actor, req.DoctorID) {
		return nil, ErrNotAuthorized
	}

	availability, err := u.generate(ctx, actor, req.DoctorID, req.ClinicID, req.Date)
	if err != nil {
		return nil, err
	}
	return converter.AvailabilityToResponse(availability), nil
}

// BulkGenerateAvailability generates dates one after another. A failing date is
// reported in its result and does not stop the batch.
func (u *availabilityUsecase) BulkGenerateAvailability(ctx context.Context, actor entity.Actor, req *dto.BulkGenerateAvailabilityRequest) (*dto.BulkGenerateResponse, error) {
	if !canManage(actor, req.DoctorID) {
		return nil, ErrNotAuthorized
	}

	response := &dto.BulkGenerateResponse{
		Results: make([]dto.BulkGenerateResult, 0, len(req.Dates)),
	}

	for _, date := range req.Dates {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		availability, err := u.generate(ctx, actor, req.DoctorID, req.ClinicID, date)
		if err != nil {
			response.Results = append(response.Results, dto.BulkGenerateResult{
				Date:    date,
				Success: false,
				Error:   err.Error(),
			})
			response.Failed++
			continue
		}

		response.Results = append(response.Results, dto.BulkGenerateResult{
			Date:         date,
			Success:      true,
			Availability: converter.AvailabilityToResponse(availability),
		})
		response.Succeeded++
	}

	u.log.Infof("Bulk availability generated: doctor=%s, clinic=%s, ok=%d, failed=%d",
		req.DoctorID, req.ClinicID, response.Succeeded, response.Failed)
	return response, nil
}

func (u *availabilityUsecase) generate(ctx context.Context, actor entity.Actor, doctorID, clinicID uuid.UUID, dateStr string) (*entity.Availability, error) {
	date, err := parseDate(dateStr)
	if err != nil {
		return nil, err
	}

	db := u.db.WithContext(ctx)

	affiliation, err := u.affiliationRepo.FindActive(db, doctorID, clinicID)
	if err != nil {
		u.log.Warnf("Failed to find affiliation doctor=%s clinic=%s: %+v", doctorID, clinicID, err)
		return nil, fmt.Errorf("find affiliation: %w", err)
	}
	if affiliation == nil {
		return nil, ErrNotAffiliated
	}
	if !affiliation.WorksOn(date.Weekday()) {
		return nil, ErrNoWorkingDay
	}

	slots, err := u.calculator.SlotsFor(affiliation.StartTime, affiliation.EndTime)
	if err != nil {
		u.log.Warnf("Affiliation %s has invalid working hours %s-%s: %+v",
			affiliation.ID, affiliation.StartTime, affiliation.EndTime, err)
		return nil, fmt.Errorf("compute slots: %w", err)
	}

	availability := &entity.Availability{
		DoctorID: doctorID,
		ClinicID: clinicID,
		Date:     date,
		Slots:    converter.CalculatedSlotsToAvailability(slots),
	}

	if err := u.availabilityRepo.Upsert(db, availability); err != nil {
		u.log.Warnf("Failed to upsert availability doctor=%s clinic=%s date=%s: %+v",
			doctorID, clinicID, dateStr, err)
		return nil, fmt.Errorf("upsert availability: %w", err)
	}

	u.cache.Invalidate(ctx, doctorID, clinicID, date)
	u.auditService.Record(ctx, actor.ID, entity.AuditActionAvailabilityGenerate, "availability", availability.ID.String(), entity.JSON{
		"doctor_id": doctorID.String(),
		"clinic_id": clinicID.String(),
		"date":      date.Format(entity.DateLayout),
		"slots":     len(availability.Slots),
	})

	u.log.Infof("Availability generated: doctor=%s, clinic=%s, date=%s, slots=%d",
		doctorID, clinicID, date.Format(entity.DateLayout), len(availability.Slots))
	return availability, nil
}

// GetAvailableSlots returns the effective-open slots: not blocked and not held
// by a booked appointment.
func (u *availabilityUsecase) GetAvailableSlots(ctx context.Context, doctorID, clinicID uuid.UUID, dateStr string) (*dto.AvailableSlotsResponse, error) {
	date, err := parseDate(dateStr)
	if err != nil {
		return nil, err
	}

	open, version, ok := u.cache.Get(ctx, doctorID, clinicID, date)
	if !ok {
		state, err := loadSlotState(u.db.WithContext(ctx), u.availabilityRepo, u.appointmentRepo, doctorID, clinicID, date)
		if err != nil {
			u.log.Warnf("Failed to load slots doctor=%s clinic=%s date=%s: %+v", doctorID, clinicID, dateStr, err)
			return nil, err
		}
		if state.availability == nil {
			return nil, ErrAvailabilityNotFound
		}
		open = state.open()
		u.cache.Set(ctx, doctorID, clinicID, date, version, open)
	}

	return &dto.AvailableSlotsResponse{
		DoctorID: doctorID,
		ClinicID: clinicID,
		Date:     date.Format(entity.DateLayout),
		Slots:    converter.SlotsToResponses(open),
		Total:    len(open),
	}, nil
}

func (u *availabilityUsecase) MarkSlotUnavailable(ctx context.Context, actor entity.Actor, req *dto.SlotToggleRequest) (*dto.AvailabilityResponse, error) {
	return u.setSlotAvailability(ctx, actor, req, false)
}

func (u *availabilityUsecase) MarkSlotAvailable(ctx context.Context, actor entity.Actor, req *dto.SlotToggleRequest) (*dto.AvailabilityResponse, error) {
	return u.setSlotAvailability(ctx, actor, req, true)
}

// setSlotAvailability toggles the manual block flag. It never touches appointments:
// blocking a booked slot leaves the booking in place.
func (u *availabilityUsecase) setSlotAvailability(ctx context.Context, actor entity.Actor, req *dto.SlotToggleRequest, available bool) (*dto.AvailabilityResponse, error) {
	if !canManage(actor, req.DoctorID) {
		return nil, ErrNotAuthorized
	}

	date, err := parseDate(req.Date)
	if err != nil {
		return nil, err
	}

	db := u.db.WithContext(ctx)

	availability, err := u.availabilityRepo.FindByDoctorClinicDate(db, req.DoctorID, req.ClinicID, date)
	if err != nil {
		u.log.Warnf("Failed to find availability doctor=%s clinic=%s date=%s: %+v", req.DoctorID, req.ClinicID, req.Date, err)
		return nil, fmt.Errorf("find availability: %w", err)
	}
	if availability == nil {
		return nil, ErrSlotNotFound
	}

	i := availability.FindSlot(req.SlotIndex)
	if i < 0 {
		return nil, ErrSlotNotFound
	}
	availability.Slots[i].IsAvailable = available

	if err := u.availabilityRepo.UpdateSlots(db, availability); err != nil {
		u.log.Warnf("Failed to update slots of availability %s: %+v", availability.ID, err)
		return nil, fmt.Errorf("update availability: %w", err)
	}

	u.cache.Invalidate(ctx, req.DoctorID, req.ClinicID, date)

	action := entity.AuditActionSlotBlock
	if available {
		action = entity.AuditActionSlotUnblock
	}
	u.auditService.Record(ctx, actor.ID, action, "availability", availability.ID.String(), entity.JSON{
		"date":       date.Format(entity.DateLayout),
		"slot_index": req.SlotIndex,
	})

	u.log.Infof("Slot %d of availability %s set available=%t", req.SlotIndex, availability.ID, available)
	return converter.AvailabilityToResponse(availability), nil
}
