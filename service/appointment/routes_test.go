package appointment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gerenciacar/gerenciacar-server/cmd/models"
	"github.com/gerenciacar/gerenciacar-server/cmd/utils"
	"github.com/gerenciacar/gerenciacar-server/service/scheduling"
)

const testSecret = "test-secret"

type stubCatalog struct{}

func (stubCatalog) GetService(_ context.Context, serviceID uint) (scheduling.CatalogEntry, error) {
	if serviceID != 1 {
		return scheduling.CatalogEntry{}, scheduling.ErrNotFound
	}
	return scheduling.CatalogEntry{DurationMinutes: 60, Price: 50.00}, nil
}

type stubRepo struct {
	appts  map[uint]models.Appointment
	nextID uint
}

func newStubRepo() *stubRepo {
	return &stubRepo{appts: make(map[uint]models.Appointment), nextID: 1}
}

func (r *stubRepo) InTransaction(ctx context.Context, fn func(ctx context.Context, tx scheduling.Tx) error) error {
	return fn(ctx, r)
}

func (r *stubRepo) FindOverlapping(_ context.Context, startAt, endAt time.Time, excludeID uint) ([]models.Appointment, error) {
	var out []models.Appointment
	for _, appt := range r.appts {
		if appt.ID == excludeID || appt.Status == models.StatusCancelled {
			continue
		}
		if appt.StartAt.Before(endAt) && appt.EndAt.After(startAt) {
			out = append(out, appt)
		}
	}
	return out, nil
}

func (r *stubRepo) FindByID(_ context.Context, id uint) (models.Appointment, error) {
	appt, ok := r.appts[id]
	if !ok {
		return models.Appointment{}, scheduling.ErrNotFound
	}
	return appt, nil
}

func (r *stubRepo) Insert(_ context.Context, appt *models.Appointment) error {
	appt.ID = r.nextID
	r.nextID++
	r.appts[appt.ID] = *appt
	return nil
}

func (r *stubRepo) Update(_ context.Context, appt *models.Appointment) error {
	r.appts[appt.ID] = *appt
	return nil
}

func (r *stubRepo) ListByRange(_ context.Context, startAt, endAt time.Time) ([]models.Appointment, error) {
	var out []models.Appointment
	for _, appt := range r.appts {
		if appt.StartAt.Before(endAt) && appt.EndAt.After(startAt) {
			out = append(out, appt)
		}
	}
	return out, nil
}

func (r *stubRepo) ListAll(_ context.Context, page, pageSize int) ([]models.Appointment, int64, error) {
	var out []models.Appointment
	for _, appt := range r.appts {
		out = append(out, appt)
	}
	return out, int64(len(out)), nil
}

func newTestRouter(t *testing.T) (*mux.Router, *stubRepo) {
	t.Helper()

	repo := newStubRepo()
	svc := scheduling.NewService(repo, stubCatalog{})
	handler := NewAppointmentHandler(svc, slog.New(slog.NewTextHandler(io.Discard, nil)))

	router := mux.NewRouter()
	protected := router.PathPrefix("/api/v1").Subrouter()
	protected.Use(utils.AuthMiddleware(testSecret))
	handler.RegisterRoutes(protected)
	return router, repo
}

func signToken(t *testing.T, userID uint, role string) string {
	t.Helper()
	claims := &utils.Claims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatUint(uint64(userID), 10),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return token
}

func doRequest(t *testing.T, router *mux.Router, method, path, role string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	}
	req := httptest.NewRequest(method, path, reader)
	if role != "" {
		req.Header.Set("Authorization", "Bearer "+signToken(t, 1, role))
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func createBody(clock string) map[string]interface{} {
	return map[string]interface{}{
		"client_id":  10,
		"service_id": 1,
		"date":       "2025-06-14",
		"time":       clock,
	}
}

func TestCreateAppointmentEndpoint(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := doRequest(t, router, http.MethodPost, "/api/v1/appointments", models.RoleFrontDesk, createBody("09:00"))
	require.Equal(t, http.StatusCreated, rec.Code)

	var appt models.Appointment
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &appt))
	assert.Equal(t, models.StatusPending, appt.Status)
	assert.Equal(t, 60, appt.DurationMinutes)
	assert.Equal(t, "2025-06-14T09:00:00Z", appt.StartAt.Format(time.RFC3339))
	assert.Equal(t, "2025-06-14T10:00:00Z", appt.EndAt.Format(time.RFC3339))
}

func TestCreateAppointmentStatusCodes(t *testing.T) {
	router, _ := newTestRouter(t)

	// Seed one appointment at [09:00, 10:00).
	rec := doRequest(t, router, http.MethodPost, "/api/v1/appointments", models.RoleFrontDesk, createBody("09:00"))
	require.Equal(t, http.StatusCreated, rec.Code)

	cases := []struct {
		name string
		role string
		body map[string]interface{}
		want int
	}{
		{"overlap", models.RoleFrontDesk, createBody("09:30"), http.StatusConflict},
		{"back to back", models.RoleFrontDesk, createBody("10:00"), http.StatusCreated},
		{"forbidden role", models.RoleTechnician, createBody("13:00"), http.StatusForbidden},
		{"missing fields", models.RoleFrontDesk, map[string]interface{}{"client_id": 10}, http.StatusBadRequest},
		{"unknown service", models.RoleFrontDesk, map[string]interface{}{
			"client_id": 10, "service_id": 99, "date": "2025-06-14", "time": "15:00",
		}, http.StatusBadRequest},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := doRequest(t, router, http.MethodPost, "/api/v1/appointments", tc.role, tc.body)
			assert.Equal(t, tc.want, rec.Code)
		})
	}
}

func TestCreateAppointmentRequiresAuth(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := doRequest(t, router, http.MethodPost, "/api/v1/appointments", "", createBody("09:00"))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestGetAppointmentEndpoint(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := doRequest(t, router, http.MethodPost, "/api/v1/appointments", models.RoleFrontDesk, createBody("09:00"))
	require.Equal(t, http.StatusCreated, rec.Code)
	var created models.Appointment
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))

	rec = doRequest(t, router, http.MethodGet, fmt.Sprintf("/api/v1/appointments/%d", created.ID), models.RoleTechnician, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doRequest(t, router, http.MethodGet, "/api/v1/appointments/999", models.RoleFrontDesk, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = doRequest(t, router, http.MethodGet, "/api/v1/appointments/abc", models.RoleFrontDesk, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUpdateAppointmentEndpoint(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := doRequest(t, router, http.MethodPost, "/api/v1/appointments", models.RoleFrontDesk, createBody("09:00"))
	require.Equal(t, http.StatusCreated, rec.Code)
	var created models.Appointment
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))

	path := fmt.Sprintf("/api/v1/appointments/%d", created.ID)

	rec = doRequest(t, router, http.MethodPut, path, models.RoleFrontDesk, map[string]interface{}{"time": "11:00"})
	require.Equal(t, http.StatusOK, rec.Code)
	var updated models.Appointment
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &updated))
	assert.Equal(t, "2025-06-14T11:00:00Z", updated.StartAt.Format(time.RFC3339))

	// An empty patch is an input error.
	rec = doRequest(t, router, http.MethodPut, path, models.RoleFrontDesk, map[string]interface{}{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCancelAppointmentEndpoint(t *testing.T) {
	router, repo := newTestRouter(t)

	rec := doRequest(t, router, http.MethodPost, "/api/v1/appointments", models.RoleFrontDesk, createBody("09:00"))
	require.Equal(t, http.StatusCreated, rec.Code)
	var created models.Appointment
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))

	path := fmt.Sprintf("/api/v1/appointments/%d/cancel", created.ID)

	rec = doRequest(t, router, http.MethodPatch, path, models.RoleFrontDesk, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = doRequest(t, router, http.MethodPatch, path, models.RoleManager, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	stored, err := repo.FindByID(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCancelled, stored.Status)
}

func TestListAppointmentsByDateEndpoint(t *testing.T) {
	router, _ := newTestRouter(t)

	for _, clock := range []string{"09:00", "11:00"} {
		rec := doRequest(t, router, http.MethodPost, "/api/v1/appointments", models.RoleFrontDesk, createBody(clock))
		require.Equal(t, http.StatusCreated, rec.Code)
	}

	rec := doRequest(t, router, http.MethodGet, "/api/v1/appointments?date=2025-06-14", models.RoleFrontDesk, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var appointments []models.Appointment
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &appointments))
	assert.Len(t, appointments, 2)

	rec = doRequest(t, router, http.MethodGet, "/api/v1/appointments?date=bogus", models.RoleFrontDesk, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListAppointmentsByRangeEndpoint(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := doRequest(t, router, http.MethodPost, "/api/v1/appointments", models.RoleFrontDesk, createBody("09:00"))
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doRequest(t, router, http.MethodGet,
		"/api/v1/appointments/range?start=2025-06-14T00:00:00Z&end=2025-06-15T00:00:00Z",
		models.RoleFrontDesk, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doRequest(t, router, http.MethodGet, "/api/v1/appointments/range?start=2025-06-14T00:00:00Z", models.RoleFrontDesk, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
