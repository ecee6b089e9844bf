package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"wellness-appointments/internal/delivery/http/middleware"
	"wellness-appointments/internal/domain/entity"
	"wellness-appointments/internal/usecase"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var handlerNow = time.Date(2026, 10, 16, 10, 0, 0, 0, time.UTC)

type memoryAppointmentRepository struct {
	mu   sync.Mutex
	rows []entity.Appointment
}

func (r *memoryAppointmentRepository) Create(ctx context.Context, apt *entity.Appointment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rows = append(r.rows, *apt)
	return nil
}

func (r *memoryAppointmentRepository) Update(ctx context.Context, apt *entity.Appointment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.rows {
		if r.rows[i].ID == apt.ID {
			r.rows[i] = *apt
		}
	}
	return nil
}

func (r *memoryAppointmentRepository) FindByID(ctx context.Context, id string) (*entity.Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, apt := range r.rows {
		if apt.ID == id {
			return &apt, nil
		}
	}
	return nil, nil
}

func (r *memoryAppointmentRepository) FindByUserID(ctx context.Context, userID uuid.UUID) ([]entity.Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []entity.Appointment
	for _, apt := range r.rows {
		if apt.UserID == userID {
			out = append(out, apt)
		}
	}
	return out, nil
}

type staticCatalogRepository struct{}

func (staticCatalogRepository) FindAllAppointmentTypes(ctx context.Context) ([]entity.AppointmentType, error) {
	return []entity.AppointmentType{
		{ID: 1, Name: "Dental Cleaning", Category: "dental", RecommendedIntervalMonths: 6, Copay: decimal.NewFromInt(15)},
		{ID: 2, Name: "Flu Shot", Category: "preventive"},
	}, nil
}

func (staticCatalogRepository) FindAllDoctors(ctx context.Context) ([]entity.Doctor, error) {
	return []entity.Doctor{
		{ID: 1, Name: "Dr. Sarah Wilson", Specialty: "Dentist", Location: "Bright Smile Dental"},
		{ID: 2, Name: "Dr. Emily Chen", Specialty: "Primary Care", Location: "Downtown Medical Center"},
	}, nil
}

func (staticCatalogRepository) CountAppointmentTypes(ctx context.Context) (int64, error) {
	return 2, nil
}

func (staticCatalogRepository) CreateAppointmentTypes(ctx context.Context, types []entity.AppointmentType) error {
	return nil
}

func (staticCatalogRepository) CreateDoctors(ctx context.Context, doctors []entity.Doctor) error {
	return nil
}

// singleStoreProvider serves one preloaded store, or err when set
type singleStoreProvider struct {
	store *usecase.AppointmentStore
	err   error
}

func (p *singleStoreProvider) ForSession(ctx context.Context, session *entity.Session) (*usecase.AppointmentStore, error) {
	if p.err != nil {
		return nil, p.err
	}
	return p.store, nil
}

type envelope struct {
	Success bool              `json:"success"`
	Message string            `json:"message"`
	Data    json.RawMessage   `json:"data"`
	Error   map[string]string `json:"error"`
}

type appointmentFixture struct {
	handler *AppointmentHandler
	catalog *CatalogHandler
	session entity.Session
}

func newAppointmentFixture(t *testing.T) *appointmentFixture {
	t.Helper()
	log, _ := logtest.NewNullLogger()
	session := entity.Session{UserID: uuid.New(), Email: "jane@example.com", RoleID: entity.RoleIDEmployee}

	store, err := usecase.NewAppointmentStore(&session, usecase.StoreDependencies{
		Log:             log,
		AppointmentRepo: &memoryAppointmentRepository{},
		CatalogRepo:     staticCatalogRepository{},
		Location:        time.UTC,
		Now:             func() time.Time { return handlerNow },
	})
	require.NoError(t, err)
	require.NoError(t, store.Load(context.Background()))

	provider := &singleStoreProvider{store: store}
	return &appointmentFixture{
		handler: NewAppointmentHandler(provider, log),
		catalog: NewCatalogHandler(provider, log),
		session: session,
	}
}

func (f *appointmentFixture) do(t *testing.T, h http.HandlerFunc, method, target string, body interface{}, vars map[string]string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, target, reader)
	req = req.WithContext(middleware.WithSession(req.Context(), f.session))
	if vars != nil {
		req = mux.SetURLVars(req, vars)
	}

	rec := httptest.NewRecorder()
	h(rec, req)

	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return rec, env
}

func (f *appointmentFixture) schedule(t *testing.T) map[string]interface{} {
	t.Helper()
	rec, env := f.do(t, f.handler.ScheduleAppointment, http.MethodPost, "/api/v1/appointments", map[string]string{
		"type_name":     "Dental Cleaning",
		"provider_name": "Dr. Sarah Wilson",
		"date":          "2026-10-20",
		"time":          "2:00 PM",
	}, nil)
	require.Equal(t, http.StatusCreated, rec.Code)

	var apt map[string]interface{}
	require.NoError(t, json.Unmarshal(env.Data, &apt))
	return apt
}

func TestAppointmentHandler_ScheduleAndGet(t *testing.T) {
	f := newAppointmentFixture(t)
	apt := f.schedule(t)

	assert.Equal(t, "scheduled", apt["status"])
	assert.Equal(t, "2:00 PM", apt["time"])
	assert.Equal(t, "Bright Smile Dental", apt["location"])

	id := apt["id"].(string)
	rec, env := f.do(t, f.handler.GetAppointment, http.MethodGet, "/api/v1/appointments/"+id, nil, map[string]string{"id": id})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, env.Success)

	rec, env = f.do(t, f.handler.ListUpcomingAppointments, http.MethodGet, "/api/v1/appointments/upcoming", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var list struct {
		Total int `json:"total"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &list))
	assert.Equal(t, 1, list.Total)
}

func TestAppointmentHandler_ScheduleValidation(t *testing.T) {
	f := newAppointmentFixture(t)

	rec, env := f.do(t, f.handler.ScheduleAppointment, http.MethodPost, "/api/v1/appointments", map[string]string{
		"type_name": "Dental Cleaning",
		"date":      "2026-10-20",
		"time":      "25:99",
	}, nil)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.False(t, env.Success)
	assert.Contains(t, env.Error, "time")
}

func TestAppointmentHandler_InvalidBody(t *testing.T) {
	f := newAppointmentFixture(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/appointments", bytes.NewBufferString("{"))
	req = req.WithContext(middleware.WithSession(req.Context(), f.session))
	rec := httptest.NewRecorder()
	f.handler.ScheduleAppointment(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAppointmentHandler_NotFound(t *testing.T) {
	f := newAppointmentFixture(t)

	rec, _ := f.do(t, f.handler.GetAppointment, http.MethodGet, "/api/v1/appointments/missing", nil, map[string]string{"id": "missing"})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec, _ = f.do(t, f.handler.ConfirmAppointment, http.MethodPost, "/api/v1/appointments/missing/confirm", nil, map[string]string{"id": "missing"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAppointmentHandler_CancelThenConfirmConflicts(t *testing.T) {
	f := newAppointmentFixture(t)
	id := f.schedule(t)["id"].(string)
	vars := map[string]string{"id": id}

	rec, env := f.do(t, f.handler.CancelAppointment, http.MethodPost, "/api/v1/appointments/"+id+"/cancel", nil, vars)
	require.Equal(t, http.StatusOK, rec.Code)

	var apt map[string]interface{}
	require.NoError(t, json.Unmarshal(env.Data, &apt))
	assert.Equal(t, "cancelled", apt["status"])
	assert.Equal(t, entity.DefaultCancellationReason, apt["cancellation_reason"])

	rec, _ = f.do(t, f.handler.ConfirmAppointment, http.MethodPost, "/api/v1/appointments/"+id+"/confirm", nil, vars)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec, _ = f.do(t, f.handler.RescheduleAppointment, http.MethodPost, "/api/v1/appointments/"+id+"/reschedule",
		map[string]string{"date": "2026-11-02", "time": "9:00 AM"}, vars)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestAppointmentHandler_ConfirmAndReschedule(t *testing.T) {
	f := newAppointmentFixture(t)
	id := f.schedule(t)["id"].(string)
	vars := map[string]string{"id": id}

	rec, _ := f.do(t, f.handler.ConfirmAppointment, http.MethodPost, "/api/v1/appointments/"+id+"/confirm", nil, vars)
	require.Equal(t, http.StatusOK, rec.Code)

	rec, env := f.do(t, f.handler.RescheduleAppointment, http.MethodPost, "/api/v1/appointments/"+id+"/reschedule",
		map[string]string{"date": "2026-11-02", "time": "9:00 AM"}, vars)
	require.Equal(t, http.StatusOK, rec.Code)

	var apt map[string]interface{}
	require.NoError(t, json.Unmarshal(env.Data, &apt))
	assert.Equal(t, "2026-11-02", apt["date"])
	assert.Equal(t, "9:00 AM", apt["time"])
	assert.Equal(t, "confirmed", apt["status"])
}

func TestAppointmentHandler_UpdateNotes(t *testing.T) {
	f := newAppointmentFixture(t)
	id := f.schedule(t)["id"].(string)

	rec, env := f.do(t, f.handler.UpdateAppointment, http.MethodPatch, "/api/v1/appointments/"+id,
		map[string]string{"notes": "Bring insurance card"}, map[string]string{"id": id})
	require.Equal(t, http.StatusOK, rec.Code)

	var apt map[string]interface{}
	require.NoError(t, json.Unmarshal(env.Data, &apt))
	assert.Equal(t, "Bring insurance card", apt["notes"])
	assert.Equal(t, "2:00 PM", apt["time"])
}

func TestAppointmentHandler_Status(t *testing.T) {
	f := newAppointmentFixture(t)

	rec, env := f.do(t, f.handler.GetStatus, http.MethodGet, "/api/v1/appointments/status", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"is_loading":false}`, string(env.Data))
}

func TestAppointmentHandler_RequiresSession(t *testing.T) {
	f := newAppointmentFixture(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/appointments", nil)
	rec := httptest.NewRecorder()
	f.handler.ListAppointments(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAppointmentHandler_StoreLoadFailure(t *testing.T) {
	log, _ := logtest.NewNullLogger()
	h := NewAppointmentHandler(&singleStoreProvider{err: errors.New("connection refused")}, log)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/appointments", nil)
	req = req.WithContext(middleware.WithSession(req.Context(), entity.Session{UserID: uuid.New()}))
	rec := httptest.NewRecorder()
	h.ListAppointments(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestCatalogHandler_DoctorsBySpecialty(t *testing.T) {
	f := newAppointmentFixture(t)

	rec, env := f.do(t, f.catalog.ListDoctors, http.MethodGet, "/api/v1/catalog/doctors?specialty=dent", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var list struct {
		Doctors []struct {
			Name string `json:"name"`
		} `json:"doctors"`
		Total int `json:"total"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &list))
	require.Equal(t, 1, list.Total)
	assert.Equal(t, "Dr. Sarah Wilson", list.Doctors[0].Name)
}

func TestCatalogHandler_TypesAndRecommended(t *testing.T) {
	f := newAppointmentFixture(t)

	rec, env := f.do(t, f.catalog.ListAppointmentTypes, http.MethodGet, "/api/v1/catalog/appointment-types", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var types struct {
		Total int `json:"total"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &types))
	assert.Equal(t, 2, types.Total)

	rec, env = f.do(t, f.catalog.ListRecommended, http.MethodGet, "/api/v1/appointments/recommended", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var recs struct {
		Recommendations []struct {
			Type struct {
				Name string `json:"name"`
			} `json:"type"`
		} `json:"recommendations"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &recs))
	require.Len(t, recs.Recommendations, 1)
	assert.Equal(t, "Dental Cleaning", recs.Recommendations[0].Type.Name)

	// Booking the recommended type removes it
	f.schedule(t)
	_, env = f.do(t, f.catalog.ListRecommended, http.MethodGet, "/api/v1/appointments/recommended", nil, nil)
	require.NoError(t, json.Unmarshal(env.Data, &recs))
	assert.Empty(t, recs.Recommendations)
}
