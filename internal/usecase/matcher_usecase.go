package usecase

import (
	"context"
	"fmt"
	"sort"
	"time"

	"clinic-appointment-engine/internal/converter"
	"clinic-appointment-engine/internal/delivery/dto"
	"clinic-appointment-engine/internal/domain/entity"
	"clinic-appointment-engine/internal/domain/repository"
	"clinic-appointment-engine/internal/observability/metrics"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/sourcegraph/conc/iter"
	"gorm.io/gorm"
)

// Candidate is a doctor who is free at the requested slot.
type Candidate struct {
	Affiliation entity.Affiliation
	Slot        entity.AvailabilitySlot
}

type MatcherUsecase interface {
	FindFreeDoctors(ctx context.Context, query *dto.FindFreeDoctorsQuery) (*dto.FreeDoctorListResponse, error)
	// Match returns the free candidates ranked by rating, best first. Ties keep
	// the order in which affiliations were discovered.
	Match(ctx context.Context, clinicID uuid.UUID, date time.Time, slotIndex int, specialization string) ([]Candidate, error)
}

type matcherUsecase struct {
	db               *gorm.DB
	log              *logrus.Logger
	affiliationRepo  repository.AffiliationRepository
	availabilityRepo repository.AvailabilityRepository
	appointmentRepo  repository.AppointmentRepository
	metrics          *metrics.BookingMetrics
}

func NewMatcherUsecase(
	db *gorm.DB,
	log *logrus.Logger,
	affiliationRepo repository.AffiliationRepository,
	availabilityRepo repository.AvailabilityRepository,
	appointmentRepo repository.AppointmentRepository,
	bookingMetrics *metrics.BookingMetrics,
) MatcherUsecase {
	return &matcherUsecase{
		db:               db,
		log:              log,
		affiliationRepo:  affiliationRepo,
		availabilityRepo: availabilityRepo,
		appointmentRepo:  appointmentRepo,
		metrics:          bookingMetrics,
	}
}

func (u *matcherUsecase) FindFreeDoctors(ctx context.Context, query *dto.FindFreeDoctorsQuery) (*dto.FreeDoctorListResponse, error) {
	date, err := parseDate(query.Date)
	if err != nil {
		return nil, err
	}

	candidates, err := u.Match(ctx, query.ClinicID, date, query.SlotIndex, query.Specialization)
	if err != nil {
		return nil, err
	}

	doctors := make([]dto.FreeDoctorResponse, len(candidates))
	for i := range candidates {
		doctors[i] = converter.FreeDoctorToResponse(&candidates[i].Affiliation, candidates[i].Slot)
	}

	return &dto.FreeDoctorListResponse{
		ClinicID:  query.ClinicID,
		Date:      date.Format(entity.DateLayout),
		SlotIndex: query.SlotIndex,
		Doctors:   doctors,
		Total:     len(doctors),
	}, nil
}

func (u *matcherUsecase) Match(ctx context.Context, clinicID uuid.UUID, date time.Time, slotIndex int, specialization string) ([]Candidate, error) {
	started := time.Now()
	db := u.db.WithContext(ctx)

	affiliations, err := u.affiliationRepo.FindActiveByClinic(db, clinicID)
	if err != nil {
		u.log.Warnf("Failed to find affiliations for clinic %s: %+v", clinicID, err)
		return nil, fmt.Errorf("find affiliations: %w", err)
	}

	eligible := make([]entity.Affiliation, 0, len(affiliations))
	for _, affiliation := range affiliations {
		if !affiliation.Doctor.IsBookable() {
			continue
		}
		if !affiliation.Doctor.HasSpecialization(specialization) {
			continue
		}
		if !affiliation.WorksOn(date.Weekday()) {
			continue
		}
		eligible = append(eligible, affiliation)
	}

	// Evaluated concurrently; MapErr keeps input order in its output.
	evaluated, err := iter.MapErr(eligible, func(affiliation *entity.Affiliation) (*Candidate, error) {
		state, err := loadSlotState(db, u.availabilityRepo, u.appointmentRepo, affiliation.DoctorID, clinicID, date)
		if err != nil {
			return nil, err
		}
		s, err := state.check(slotIndex)
		if err != nil {
			return nil, nil
		}
		return &Candidate{Affiliation: *affiliation, Slot: s}, nil
	})
	if err != nil {
		u.log.Warnf("Failed to evaluate candidates for clinic %s on %s: %+v", clinicID, date.Format(entity.DateLayout), err)
		return nil, err
	}

	candidates := make([]Candidate, 0, len(evaluated))
	for _, c := range evaluated {
		if c != nil {
			candidates = append(candidates, *c)
		}
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Affiliation.Doctor.Rating > candidates[j].Affiliation.Doctor.Rating
	})

	u.metrics.ObserveMatch(len(candidates) > 0, time.Since(started).Seconds())
	u.log.Debugf("Matched %d/%d doctors at clinic %s, date=%s, slot=%d",
		len(candidates), len(eligible), clinicID, date.Format(entity.DateLayout), slotIndex)
	return candidates, nil
}
