package usecase

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"clinic-appointment-engine/internal/domain/entity"
	"clinic-appointment-engine/internal/domain/repository"
	"clinic-appointment-engine/internal/service"
	"clinic-appointment-engine/pkg/slot"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// Fixture dates: 2026-11-02 is a Monday, 2026-11-01 a Sunday.
const (
	monday   = "2026-11-02"
	tuesday  = "2026-11-03"
	sunday   = "2026-11-01"
	badDate  = "02/11/2026"
	slotNine = 18 // 09:00 on a 30 minute grid from midnight
)

var errStorage = errors.New("connection reset by peer")

// newTestDB returns a gorm handle the fakes ignore; no statement reaches sqlmock.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	sqlDB, _, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{})
	require.NoError(t, err)
	return db
}

func newTestLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func newTestCalculator(t *testing.T) *slot.Calculator {
	t.Helper()
	calc, err := slot.NewCalculator(30, "00:00")
	require.NoError(t, err)
	return calc
}

func mustDate(s string) time.Time {
	d, err := time.ParseInLocation(entity.DateLayout, s, time.UTC)
	if err != nil {
		panic(err)
	}
	return d
}

func dateKey(d time.Time) string {
	return d.Format(entity.DateLayout)
}

// ---- affiliations ----

type fakeAffiliationRepo struct {
	mu           sync.Mutex
	affiliations []entity.Affiliation
	err          error
}

func (r *fakeAffiliationRepo) add(doctor entity.Doctor, clinicID uuid.UUID, fee string, days ...string) entity.Affiliation {
	r.mu.Lock()
	defer r.mu.Unlock()
	a := entity.Affiliation{
		ID:              uuid.New(),
		DoctorID:        doctor.ID,
		ClinicID:        clinicID,
		Status:          entity.AffiliationStatusActive,
		ConsultationFee: decimal.RequireFromString(fee),
		WorkingDays:     pq.StringArray(days),
		StartTime:       "09:00",
		EndTime:         "12:00",
		Doctor:          doctor,
	}
	r.affiliations = append(r.affiliations, a)
	return a
}

func (r *fakeAffiliationRepo) FindActive(db *gorm.DB, doctorID, clinicID uuid.UUID) (*entity.Affiliation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	for i := range r.affiliations {
		a := r.affiliations[i]
		if a.DoctorID == doctorID && a.ClinicID == clinicID && a.IsActive() {
			return &a, nil
		}
	}
	return nil, nil
}

func (r *fakeAffiliationRepo) FindActiveByClinic(db *gorm.DB, clinicID uuid.UUID) ([]entity.Affiliation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	var result []entity.Affiliation
	for _, a := range r.affiliations {
		if a.ClinicID == clinicID && a.IsActive() && a.Doctor.IsBookable() {
			result = append(result, a)
		}
	}
	return result, nil
}

// ---- availabilities ----

type fakeAvailabilityRepo struct {
	mu      sync.Mutex
	rows    map[string]*entity.Availability
	upserts int
	err     error
}

func newFakeAvailabilityRepo() *fakeAvailabilityRepo {
	return &fakeAvailabilityRepo{rows: map[string]*entity.Availability{}}
}

func availabilityKey(doctorID, clinicID uuid.UUID, date time.Time) string {
	return doctorID.String() + "|" + clinicID.String() + "|" + dateKey(date)
}

func cloneAvailability(a *entity.Availability) *entity.Availability {
	c := *a
	c.Slots = append(entity.Slots(nil), a.Slots...)
	return &c
}

func (r *fakeAvailabilityRepo) Upsert(db *gorm.DB, availability *entity.Availability) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.upserts++
	key := availabilityKey(availability.DoctorID, availability.ClinicID, availability.Date)
	if existing, ok := r.rows[key]; ok {
		availability.ID = existing.ID
	} else if availability.ID == uuid.Nil {
		availability.ID = uuid.New()
	}
	r.rows[key] = cloneAvailability(availability)
	return nil
}

func (r *fakeAvailabilityRepo) FindByDoctorClinicDate(db *gorm.DB, doctorID, clinicID uuid.UUID, date time.Time) (*entity.Availability, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	row, ok := r.rows[availabilityKey(doctorID, clinicID, date)]
	if !ok {
		return nil, nil
	}
	return cloneAvailability(row), nil
}

func (r *fakeAvailabilityRepo) UpdateSlots(db *gorm.DB, availability *entity.Availability) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.rows[availabilityKey(availability.DoctorID, availability.ClinicID, availability.Date)] = cloneAvailability(availability)
	return nil
}

func (r *fakeAvailabilityRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.rows)
}

// ---- appointments ----

// fakeAppointmentRepo enforces the booked-slot uniqueness rule under its mutex,
// the way the partial unique index does in PostgreSQL.
type fakeAppointmentRepo struct {
	mu           sync.Mutex
	appointments map[uuid.UUID]*entity.Appointment
	createErr    error
	// conflictFor makes Create report a conflict for the listed doctors.
	conflictFor map[uuid.UUID]bool
	creates     int

	// afterBookedRead runs once, outside the mutex, after FindBookedSlotIndexes
	// has taken its snapshot.
	afterBookedRead func()
}

func newFakeAppointmentRepo() *fakeAppointmentRepo {
	return &fakeAppointmentRepo{
		appointments: map[uuid.UUID]*entity.Appointment{},
		conflictFor:  map[uuid.UUID]bool{},
	}
}

func (r *fakeAppointmentRepo) heldBy(doctorID, clinicID uuid.UUID, date time.Time, slotIndex int, except uuid.UUID) bool {
	for id, a := range r.appointments {
		if id == except {
			continue
		}
		if a.IsBooked() && a.DoctorID == doctorID && a.ClinicID == clinicID &&
			dateKey(a.Date) == dateKey(date) && a.SlotIndex == slotIndex {
			return true
		}
	}
	return false
}

func (r *fakeAppointmentRepo) Create(db *gorm.DB, appointment *entity.Appointment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.creates++
	if r.createErr != nil {
		return r.createErr
	}
	if r.conflictFor[appointment.DoctorID] {
		return repository.ErrSlotConflict
	}
	if appointment.IsBooked() && r.heldBy(appointment.DoctorID, appointment.ClinicID, appointment.Date, appointment.SlotIndex, uuid.Nil) {
		return repository.ErrSlotConflict
	}
	if appointment.ID == uuid.Nil {
		appointment.ID = uuid.New()
	}
	c := *appointment
	r.appointments[c.ID] = &c
	return nil
}

func (r *fakeAppointmentRepo) FindByID(db *gorm.DB, id uuid.UUID) (*entity.Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.appointments[id]
	if !ok {
		return nil, nil
	}
	c := *a
	return &c, nil
}

func (r *fakeAppointmentRepo) FindByPatientID(db *gorm.DB, patientID uuid.UUID) ([]entity.Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []entity.Appointment
	for _, a := range r.appointments {
		if a.PatientID == patientID {
			result = append(result, *a)
		}
	}
	return result, nil
}

func (r *fakeAppointmentRepo) FindByDoctorID(db *gorm.DB, doctorID uuid.UUID) ([]entity.Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []entity.Appointment
	for _, a := range r.appointments {
		if a.DoctorID == doctorID {
			result = append(result, *a)
		}
	}
	return result, nil
}

func (r *fakeAppointmentRepo) FindBookedSlotIndexes(db *gorm.DB, doctorID, clinicID uuid.UUID, date time.Time) ([]int, error) {
	r.mu.Lock()
	var result []int
	for _, a := range r.appointments {
		if a.IsBooked() && a.DoctorID == doctorID && a.ClinicID == clinicID && dateKey(a.Date) == dateKey(date) {
			result = append(result, a.SlotIndex)
		}
	}
	hook := r.afterBookedRead
	r.afterBookedRead = nil
	r.mu.Unlock()

	if hook != nil {
		hook()
	}
	return result, nil
}

func (r *fakeAppointmentRepo) ExistsBookedForPatient(db *gorm.DB, patientID, doctorID uuid.UUID, date time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.appointments {
		if a.IsBooked() && a.PatientID == patientID && a.DoctorID == doctorID && dateKey(a.Date) == dateKey(date) {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeAppointmentRepo) UpdateStatusFrom(db *gorm.DB, id uuid.UUID, from, to entity.AppointmentStatus, updates map[string]interface{}) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.appointments[id]
	if !ok || a.Status != from {
		return 0, nil
	}
	a.Status = to
	if v, ok := updates["notes"].(string); ok {
		a.Notes = v
	}
	if v, ok := updates["cancel_reason"].(string); ok {
		a.CancelReason = v
	}
	if v, ok := updates["canceled_by"].(uuid.UUID); ok {
		a.CanceledBy = &v
	}
	if v, ok := updates["canceled_at"].(time.Time); ok {
		a.CanceledAt = &v
	}
	if v, ok := updates["completed_at"].(time.Time); ok {
		a.CompletedAt = &v
	}
	return 1, nil
}

func (r *fakeAppointmentRepo) Reschedule(db *gorm.DB, id uuid.UUID, move repository.SlotMove) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.appointments[id]
	if !ok || !a.IsBooked() {
		return 0, nil
	}
	if r.heldBy(a.DoctorID, a.ClinicID, move.Date, move.SlotIndex, id) {
		return 0, repository.ErrSlotConflict
	}
	now := time.Now()
	a.Date = move.Date
	a.SlotIndex = move.SlotIndex
	a.StartTime = move.StartTime
	a.EndTime = move.EndTime
	a.RescheduledAt = &now
	return 1, nil
}

func (r *fakeAppointmentRepo) bookedCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, a := range r.appointments {
		if a.IsBooked() {
			n++
		}
	}
	return n
}

// ---- audit ----

type fakeAuditService struct {
	mu      sync.Mutex
	actions []string
}

func (s *fakeAuditService) Record(ctx context.Context, actorID uuid.UUID, action string, entityName string, entityID string, changes entity.JSON) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.actions = append(s.actions, action)
}

func (s *fakeAuditService) recorded() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.actions...)
}

// ---- fixture ----

type fixture struct {
	db             *gorm.DB
	log            *logrus.Logger
	affiliations   *fakeAffiliationRepo
	availabilities *fakeAvailabilityRepo
	appointments   *fakeAppointmentRepo
	audit          *fakeAuditService
	cache          *service.AvailabilityCacheService
	clinicID       uuid.UUID
	admin          entity.Actor
	availability   AvailabilityUsecase
	matcher        MatcherUsecase
	booking        BookingUsecase
	appointment    AppointmentUsecase
	calculator     *slot.Calculator
	autoAttempts   int
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		db:             newTestDB(t),
		log:            newTestLogger(),
		affiliations:   &fakeAffiliationRepo{},
		availabilities: newFakeAvailabilityRepo(),
		appointments:   newFakeAppointmentRepo(),
		audit:          &fakeAuditService{},
		clinicID:       uuid.New(),
		admin:          entity.Actor{ID: uuid.New(), RoleID: entity.RoleIDAdmin},
		calculator:     newTestCalculator(t),
		autoAttempts:   3,
	}
	f.cache = service.NewAvailabilityCacheService(nil, f.log)
	f.build()
	return f
}

func (f *fixture) build() {
	f.availability = NewAvailabilityUsecase(f.db, f.log, f.calculator, f.affiliations, f.availabilities, f.appointments, f.cache, f.audit)
	f.matcher = NewMatcherUsecase(f.db, f.log, f.affiliations, f.availabilities, f.appointments, nil)
	f.booking = NewBookingUsecase(f.db, f.log, f.matcher, f.affiliations, f.availabilities, f.appointments, f.cache, f.audit, nil, f.autoAttempts)
	f.appointment = NewAppointmentUsecase(f.db, f.log, f.availabilities, f.appointments, f.cache, f.audit, nil)
}

func newDoctor(name string, rating float64, specializations ...string) entity.Doctor {
	return entity.Doctor{
		ID:              uuid.New(),
		FullName:        name,
		Specializations: pq.StringArray(specializations),
		IsVerified:      true,
		IsActive:        true,
		Rating:          rating,
	}
}

func patient() entity.Actor {
	return entity.Actor{ID: uuid.New(), RoleID: entity.RoleIDPatient}
}

func doctorActor(d entity.Doctor) entity.Actor {
	return entity.Actor{ID: d.ID, RoleID: entity.RoleIDDoctor}
}
