package http

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"clinic-appointment-engine/config"
	"clinic-appointment-engine/internal/delivery/dto"
	"clinic-appointment-engine/internal/delivery/http/handler"
	"clinic-appointment-engine/internal/delivery/http/middleware"
	"clinic-appointment-engine/internal/domain/entity"
	"clinic-appointment-engine/internal/usecase"
	"clinic-appointment-engine/pkg/jwt"
	"clinic-appointment-engine/pkg/response"
	"clinic-appointment-engine/pkg/validator"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubAvailability struct {
	lastActor entity.Actor
	err       error
}

func (s *stubAvailability) GenerateAvailability(ctx context.Context, actor entity.Actor, req *dto.GenerateAvailabilityRequest) (*dto.AvailabilityResponse, error) {
	s.lastActor = actor
	if s.err != nil {
		return nil, s.err
	}
	return &dto.AvailabilityResponse{DoctorID: req.DoctorID, ClinicID: req.ClinicID, Date: req.Date}, nil
}

func (s *stubAvailability) BulkGenerateAvailability(ctx context.Context, actor entity.Actor, req *dto.BulkGenerateAvailabilityRequest) (*dto.BulkGenerateResponse, error) {
	return &dto.BulkGenerateResponse{Succeeded: len(req.Dates)}, s.err
}

func (s *stubAvailability) GetAvailableSlots(ctx context.Context, doctorID, clinicID uuid.UUID, date string) (*dto.AvailableSlotsResponse, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &dto.AvailableSlotsResponse{DoctorID: doctorID, ClinicID: clinicID, Date: date}, nil
}

func (s *stubAvailability) MarkSlotUnavailable(ctx context.Context, actor entity.Actor, req *dto.SlotToggleRequest) (*dto.AvailabilityResponse, error) {
	return &dto.AvailabilityResponse{}, s.err
}

func (s *stubAvailability) MarkSlotAvailable(ctx context.Context, actor entity.Actor, req *dto.SlotToggleRequest) (*dto.AvailabilityResponse, error) {
	return &dto.AvailabilityResponse{}, s.err
}

type stubMatcher struct {
	lastQuery dto.FindFreeDoctorsQuery
}

func (s *stubMatcher) FindFreeDoctors(ctx context.Context, query *dto.FindFreeDoctorsQuery) (*dto.FreeDoctorListResponse, error) {
	s.lastQuery = *query
	return &dto.FreeDoctorListResponse{ClinicID: query.ClinicID, Doctors: []dto.FreeDoctorResponse{}}, nil
}

func (s *stubMatcher) Match(ctx context.Context, clinicID uuid.UUID, date time.Time, slotIndex int, specialization string) ([]usecase.Candidate, error) {
	return nil, nil
}

type stubBooking struct {
	lastPatient uuid.UUID
	err         error
}

func (s *stubBooking) BookAppointmentAuto(ctx context.Context, patientID uuid.UUID, req *dto.BookAutoRequest) (*dto.AppointmentResponse, error) {
	s.lastPatient = patientID
	if s.err != nil {
		return nil, s.err
	}
	return &dto.AppointmentResponse{ID: uuid.New(), PatientID: patientID, Status: "booked"}, nil
}

func (s *stubBooking) BookAppointmentSpecific(ctx context.Context, patientID uuid.UUID, req *dto.BookSpecificRequest) (*dto.AppointmentResponse, error) {
	s.lastPatient = patientID
	if s.err != nil {
		return nil, s.err
	}
	return &dto.AppointmentResponse{ID: uuid.New(), PatientID: patientID, DoctorID: req.DoctorID, Status: "booked"}, nil
}

type stubAppointments struct {
	err error
}

func (s *stubAppointments) GetAppointment(ctx context.Context, actor entity.Actor, id uuid.UUID) (*dto.AppointmentResponse, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &dto.AppointmentResponse{ID: id}, nil
}

func (s *stubAppointments) ListMyAppointments(ctx context.Context, actor entity.Actor) (*dto.AppointmentListResponse, error) {
	return &dto.AppointmentListResponse{Appointments: []dto.AppointmentResponse{}}, s.err
}

func (s *stubAppointments) CancelAppointment(ctx context.Context, actor entity.Actor, id uuid.UUID, req *dto.CancelAppointmentRequest) (*dto.AppointmentResponse, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &dto.AppointmentResponse{ID: id, Status: "canceled", CancelReason: req.Reason}, nil
}

func (s *stubAppointments) UpdateAppointmentStatus(ctx context.Context, actor entity.Actor, id uuid.UUID, req *dto.UpdateAppointmentStatusRequest) (*dto.AppointmentResponse, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &dto.AppointmentResponse{ID: id, Status: req.Status}, nil
}

func (s *stubAppointments) RescheduleAppointment(ctx context.Context, actor entity.Actor, id uuid.UUID, req *dto.RescheduleAppointmentRequest) (*dto.AppointmentResponse, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &dto.AppointmentResponse{ID: id, Date: req.Date, SlotIndex: req.SlotIndex}, nil
}

type testServer struct {
	handler      http.Handler
	jwt          *jwt.JWTService
	availability *stubAvailability
	matcher      *stubMatcher
	booking      *stubBooking
	appointments *stubAppointments
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	log := logrus.New()
	log.SetOutput(io.Discard)

	ts := &testServer{
		jwt:          jwt.NewJWTService(config.JWTConfig{Secret: "test-secret", AccessExpiry: time.Minute}),
		availability: &stubAvailability{},
		matcher:      &stubMatcher{},
		booking:      &stubBooking{},
		appointments: &stubAppointments{},
	}
	v := validator.NewValidator()

	router := NewRouter(
		handler.NewAvailabilityHandler(ts.availability, v),
		handler.NewMatcherHandler(ts.matcher, v),
		handler.NewAppointmentHandler(ts.booking, ts.appointments, v),
		middleware.NewAuthMiddleware(ts.jwt, nil, false, log),
		middleware.NewCORSMiddleware(),
		promhttp.HandlerFor(prometheus.NewRegistry(), promhttp.HandlerOpts{}),
	)
	ts.handler = router.Setup()
	return ts
}

func (ts *testServer) do(t *testing.T, method, path string, actor *entity.Actor, body string) (*httptest.ResponseRecorder, response.Response) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if actor != nil {
		token, _, err := ts.jwt.GenerateAccessToken(actor.ID, "user@example.com", actor.RoleID)
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)

	var resp response.Response
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		_ = json.Unmarshal(rec.Body.Bytes(), &resp)
	}
	return rec, resp
}

var (
	adminActor   = entity.Actor{ID: uuid.New(), RoleID: entity.RoleIDAdmin}
	doctorActor  = entity.Actor{ID: uuid.New(), RoleID: entity.RoleIDDoctor}
	patientActor = entity.Actor{ID: uuid.New(), RoleID: entity.RoleIDPatient}
)

func TestRouter_PublicEndpoints(t *testing.T) {
	ts := newTestServer(t)

	rec, _ := ts.do(t, http.MethodGet, "/api/v1/health", nil, "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, _ = ts.do(t, http.MethodGet, "/api/v1/metrics", nil, "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRouter_Authentication(t *testing.T) {
	ts := newTestServer(t)
	path := "/api/v1/appointments/me"

	rec, _ := ts.do(t, http.MethodGet, path, nil, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest(http.MethodGet, path, nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	bad := httptest.NewRecorder()
	ts.handler.ServeHTTP(bad, req)
	assert.Equal(t, http.StatusUnauthorized, bad.Code)

	unknownRole := entity.Actor{ID: uuid.New(), RoleID: 42}
	rec, _ = ts.do(t, http.MethodGet, path, &unknownRole, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec, _ = ts.do(t, http.MethodGet, path, &patientActor, "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRouter_RoleGuards(t *testing.T) {
	ts := newTestServer(t)
	id := uuid.New()

	tests := []struct {
		name   string
		method string
		path   string
		actor  entity.Actor
		body   string
		want   int
	}{
		{"patient cannot generate", http.MethodPost, "/api/v1/availability/generate", patientActor, `{}`, http.StatusForbidden},
		{"doctor cannot book", http.MethodPost, "/api/v1/appointments", doctorActor, `{}`, http.StatusForbidden},
		{"admin cannot auto book", http.MethodPost, "/api/v1/appointments/auto", adminActor, `{}`, http.StatusForbidden},
		{"patient cannot set status", http.MethodPatch, "/api/v1/appointments/" + id.String() + "/status", patientActor, `{"status":"completed"}`, http.StatusForbidden},
		{"doctor cannot cancel", http.MethodPost, "/api/v1/appointments/" + id.String() + "/cancel", doctorActor, "", http.StatusForbidden},
		{"doctor cannot reschedule", http.MethodPost, "/api/v1/appointments/" + id.String() + "/reschedule", doctorActor, `{}`, http.StatusForbidden},
		{"admin has no own list", http.MethodGet, "/api/v1/appointments/me", adminActor, "", http.StatusForbidden},
		{"doctor sets status", http.MethodPatch, "/api/v1/appointments/" + id.String() + "/status", doctorActor, `{"status":"completed"}`, http.StatusOK},
		{"admin cancels", http.MethodPost, "/api/v1/appointments/" + id.String() + "/cancel", adminActor, "", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			actor := tt.actor
			rec, _ := ts.do(t, tt.method, tt.path, &actor, tt.body)
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}

func TestRouter_BookSpecific(t *testing.T) {
	ts := newTestServer(t)
	doctorID, clinicID := uuid.New(), uuid.New()
	body := `{"doctor_id":"` + doctorID.String() + `","clinic_id":"` + clinicID.String() + `","date":"2026-11-02","slot_index":18}`

	rec, resp := ts.do(t, http.MethodPost, "/api/v1/appointments", &patientActor, body)
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.True(t, resp.Success)
	assert.Equal(t, patientActor.ID, ts.booking.lastPatient)
}

func TestRouter_BookSpecific_Validation(t *testing.T) {
	ts := newTestServer(t)

	rec, resp := ts.do(t, http.MethodPost, "/api/v1/appointments", &patientActor,
		`{"doctor_id":"`+uuid.NewString()+`","clinic_id":"`+uuid.NewString()+`","date":"02-11-2026","slot_index":-1}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.False(t, resp.Success)

	errs, ok := resp.Error.(map[string]interface{})
	require.True(t, ok)
	assert.Contains(t, errs, "Date")
	assert.Contains(t, errs, "SlotIndex")

	rec, _ = ts.do(t, http.MethodPost, "/api/v1/appointments", &patientActor, `{not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRouter_ErrorMapping(t *testing.T) {
	body := `{"doctor_id":"` + uuid.NewString() + `","clinic_id":"` + uuid.NewString() + `","date":"2026-11-02","slot_index":18}`

	tests := []struct {
		err  error
		want int
	}{
		{usecase.ErrSlotAlreadyBooked, http.StatusConflict},
		{usecase.ErrDuplicateBooking, http.StatusConflict},
		{usecase.ErrSlotUnavailable, http.StatusUnprocessableEntity},
		{usecase.ErrNotAffiliated, http.StatusUnprocessableEntity},
		{usecase.ErrNoDoctorAvailable, http.StatusUnprocessableEntity},
		{usecase.ErrInvalidDate, http.StatusBadRequest},
		{assert.AnError, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			ts := newTestServer(t)
			ts.booking.err = tt.err
			rec, resp := ts.do(t, http.MethodPost, "/api/v1/appointments", &patientActor, body)
			assert.Equal(t, tt.want, rec.Code)
			assert.False(t, resp.Success)
			if tt.want == http.StatusInternalServerError {
				assert.NotContains(t, resp.Message, assert.AnError.Error())
			}
		})
	}
}

func TestRouter_AppointmentErrors(t *testing.T) {
	ts := newTestServer(t)

	rec, _ := ts.do(t, http.MethodGet, "/api/v1/appointments/not-a-uuid", &patientActor, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	ts.appointments.err = usecase.ErrAppointmentNotFound
	rec, _ = ts.do(t, http.MethodGet, "/api/v1/appointments/"+uuid.NewString(), &patientActor, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	ts.appointments.err = usecase.ErrNotAuthorized
	rec, _ = ts.do(t, http.MethodPost, "/api/v1/appointments/"+uuid.NewString()+"/cancel", &patientActor, `{"reason":"x"}`)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	ts.appointments.err = usecase.ErrInvalidTransition
	rec, _ = ts.do(t, http.MethodPatch, "/api/v1/appointments/"+uuid.NewString()+"/status", &adminActor, `{"status":"completed"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)

	ts.appointments.err = usecase.ErrInvalidStatus
	rec, _ = ts.do(t, http.MethodPatch, "/api/v1/appointments/"+uuid.NewString()+"/status", &adminActor, `{"status":"archived"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRouter_Availability(t *testing.T) {
	ts := newTestServer(t)
	doctorID, clinicID := uuid.New(), uuid.New()

	rec, _ := ts.do(t, http.MethodPost, "/api/v1/availability/generate", &doctorActor,
		`{"doctor_id":"`+doctorID.String()+`","clinic_id":"`+clinicID.String()+`","date":"2026-11-02"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, doctorActor, ts.availability.lastActor)

	rec, _ = ts.do(t, http.MethodPost, "/api/v1/availability/bulk-generate", &adminActor,
		`{"doctor_id":"`+doctorID.String()+`","clinic_id":"`+clinicID.String()+`","dates":[]}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	slotsPath := "/api/v1/doctors/" + doctorID.String() + "/clinics/" + clinicID.String() + "/slots"
	rec, _ = ts.do(t, http.MethodGet, slotsPath, &patientActor, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = ts.do(t, http.MethodGet, slotsPath+"?date=2026-11-02", &patientActor, "")
	assert.Equal(t, http.StatusOK, rec.Code)

	ts.availability.err = usecase.ErrAvailabilityNotFound
	rec, _ = ts.do(t, http.MethodGet, slotsPath+"?date=2026-11-02", &patientActor, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRouter_FreeDoctors(t *testing.T) {
	ts := newTestServer(t)
	clinicID := uuid.New()
	base := "/api/v1/clinics/" + clinicID.String() + "/free-doctors"

	rec, _ := ts.do(t, http.MethodGet, base+"?date=2026-11-02&slot_index=18&specialization=cardiology", &patientActor, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, dto.FindFreeDoctorsQuery{
		ClinicID: clinicID, Date: "2026-11-02", SlotIndex: 18, Specialization: "cardiology",
	}, ts.matcher.lastQuery)

	rec, _ = ts.do(t, http.MethodGet, base+"?date=2026-11-02&slot_index=abc", &patientActor, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = ts.do(t, http.MethodGet, base+"?slot_index=3", &patientActor, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
