package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"iheartcare/internal/domain"
	"iheartcare/internal/ingest"
	"iheartcare/internal/repository"
	"iheartcare/internal/service"
	"iheartcare/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

type testAPI struct {
	t        *testing.T
	handler  http.Handler
	repos    repository.Repositories
	services *service.Services
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	logger := zap.NewNop()
	repos := repository.NewMemoryRepositories()
	recorder := ingest.NewRecorder(repos.Devices, repos.Measurements, ingest.NewEvaluator(), service.NoopEventPublisher{}, logger)
	services := service.NewServices(service.Dependencies{
		Repos:    repos,
		Sessions: store.NewKVSessionStore(store.NewMemoryKV(), time.Hour),
		Hasher:   service.NewPasswordHasher(bcrypt.MinCost),
		Events:   service.NoopEventPublisher{},
		Fetcher:  ingest.NewDeviceClient(2*time.Second, logger),
		Recorder: recorder,
		Logger:   logger,
	})
	_, err := services.Registration.EnsureAdmin(context.Background(), "admin", "admin-pass")
	require.NoError(t, err)

	return &testAPI{t: t, handler: NewAPI(services, logger), repos: repos, services: services}
}

func (a *testAPI) do(method, path, token string, body any) *httptest.ResponseRecorder {
	a.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(a.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	a.handler.ServeHTTP(w, req)
	return w
}

func (a *testAPI) login(username, password string) string {
	a.t.Helper()
	w := a.do(http.MethodPost, "/auth/api/v1/login", "", map[string]string{"username": username, "password": password})
	require.Equal(a.t, http.StatusOK, w.Code, w.Body.String())
	res := decode[map[string]any](a.t, w)
	token, _ := res.Result["token"].(string)
	require.NotEmpty(a.t, token)
	return token
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) Result[T] {
	t.Helper()
	var out Result[T]
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func patientBody(curp, email string) map[string]any {
	return map[string]any{
		"nombre":           "Ana",
		"apellido_paterno": "Lopez",
		"apellido_materno": "Garcia",
		"fecha_nacimiento": "1985-03-14",
		"curp":             curp,
		"sexo":             domain.SexFemale,
		"email":            email,
		"telefono":         "5512345678",
		"domicilio":        "Av. Reforma 100",
	}
}

func TestLogin_FailuresLookTheSame(t *testing.T) {
	api := newTestAPI(t)

	wrong := api.do(http.MethodPost, "/auth/api/v1/login", "", map[string]string{"username": "admin", "password": "bad"})
	unknown := api.do(http.MethodPost, "/auth/api/v1/login", "", map[string]string{"username": "ghost", "password": "bad"})

	assert.Equal(t, http.StatusUnauthorized, wrong.Code)
	assert.Equal(t, wrong.Code, unknown.Code)
	assert.JSONEq(t, wrong.Body.String(), unknown.Body.String())

	bad := api.do(http.MethodPost, "/auth/api/v1/login", "", nil)
	assert.Equal(t, http.StatusBadRequest, bad.Code)

	get := api.do(http.MethodGet, "/auth/api/v1/login", "", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, get.Code)
}

func TestSession_LifecycleAndTokenExpired(t *testing.T) {
	api := newTestAPI(t)

	w := api.do(http.MethodGet, "/auth/api/v1/session", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, ResultTokenExpired, decode[any](t, w).Code)

	token := api.login("admin", "admin-pass")
	w = api.do(http.MethodGet, "/auth/api/v1/session", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	res := decode[map[string]any](t, w)
	assert.Equal(t, ResultSuccess, res.Code)
	assert.Equal(t, string(domain.RoleAdministrator), res.Result["role"])
	assert.NotContains(t, res.Result, "token")

	w = api.do(http.MethodPost, "/auth/api/v1/logout", token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = api.do(http.MethodGet, "/admin/api/v1/patients", token, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestLogout_IsIdempotent(t *testing.T) {
	api := newTestAPI(t)
	token := api.login("admin", "admin-pass")

	for i := 0; i < 2; i++ {
		w := api.do(http.MethodPost, "/auth/api/v1/logout", token, nil)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		assert.Equal(t, ResultSuccess, decode[any](t, w).Code)
	}

	w := api.do(http.MethodPost, "/auth/api/v1/logout", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = api.do(http.MethodGet, "/auth/api/v1/session", token, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRoleEnforcement(t *testing.T) {
	api := newTestAPI(t)

	w := api.do(http.MethodPost, "/auth/api/v1/register", "", map[string]any{
		"nombre": "Ana", "apellido_paterno": "Lopez", "apellido_materno": "Garcia",
		"fecha_nacimiento": "1985-03-14", "curp": "LOPA850314MDFPNN01", "sexo": domain.SexFemale,
		"email": "ana@example.com", "telefono": "5512345678", "domicilio": "Av. Reforma 100",
		"username": "ana", "password": "secret1", "password_confirm": "secret1",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	patientToken := api.login("ana", "secret1")

	for _, path := range []string{
		"/admin/api/v1/patients",
		"/monitoring/api/v1/active",
		"/clinician/api/v1/patients",
	} {
		w := api.do(http.MethodGet, path, patientToken, nil)
		assert.Equal(t, http.StatusForbidden, w.Code, path)
	}

	adminToken := api.login("admin", "admin-pass")
	w = api.do(http.MethodGet, "/me/api/v1/profile", adminToken, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = api.do(http.MethodGet, "/me/api/v1/profile", patientToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	profile := decode[domain.PatientProfile](t, w)
	assert.Equal(t, "LOPA850314MDFPNN01", profile.Result.Patient.CURP)
}

func TestAdminMonitoringFlow(t *testing.T) {
	api := newTestAPI(t)
	admin := api.login("admin", "admin-pass")

	w := api.do(http.MethodPost, "/admin/api/v1/patients", admin, patientBody("LOPA850314MDFPNN01", "ana@example.com"))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	patient := decode[domain.Patient](t, w).Result

	w = api.do(http.MethodPost, "/admin/api/v1/patients", admin, patientBody("LOPA850314MDFPNN01", "other@example.com"))
	assert.Equal(t, http.StatusConflict, w.Code)

	w = api.do(http.MethodPost, "/admin/api/v1/patients", admin, map[string]any{"nombre": "Sin curp"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = api.do(http.MethodPost, "/admin/api/v1/devices", admin, map[string]any{"paciente_id": patient.ID, "modelo": "Pulse X1"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	device := decode[domain.Device](t, w).Result

	w = api.do(http.MethodGet, "/monitoring/api/v1/candidates", admin, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]domain.PatientRef](t, w).Result, 1)

	w = api.do(http.MethodPost, "/monitoring/api/v1/sessions", admin, map[string]any{"paciente_id": patient.ID, "motivo": "control"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	session := decode[domain.MonitoringSession](t, w).Result
	assert.True(t, session.Active)

	w = api.do(http.MethodPost, "/monitoring/api/v1/sessions", admin, map[string]any{"paciente_id": patient.ID})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = api.do(http.MethodPost, "/monitoring/api/v1/sessions", admin, map[string]any{"paciente_id": 999})
	assert.Equal(t, http.StatusNotFound, w.Code)

	recorder := ingest.NewRecorder(api.repos.Devices, api.repos.Measurements, ingest.NewEvaluator(), service.NoopEventPublisher{}, zap.NewNop())
	_, err := recorder.Record(context.Background(), device.ID, domain.Reading{Kind: domain.KindHeartRate, Value: 150})
	require.NoError(t, err)

	w = api.do(http.MethodGet, fmt.Sprintf("/monitoring/api/v1/sessions/%d/dashboard", session.ID), admin, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	dash := decode[domain.Dashboard](t, w).Result
	assert.Len(t, dash.Measurements[domain.KindHeartRate], 1)
	assert.Len(t, dash.UnreadAlerts, 1)

	w = api.do(http.MethodGet, fmt.Sprintf("/monitoring/api/v1/patients/%d/analysis?window=week", patient.ID), admin, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	analysis := decode[domain.Analysis](t, w).Result
	require.Len(t, analysis.KPIs, 1)
	assert.Equal(t, domain.LevelCritical, analysis.KPIs[0].Level)

	w = api.do(http.MethodGet, fmt.Sprintf("/monitoring/api/v1/patients/%d/analysis?window=decade", patient.ID), admin, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	stopPath := fmt.Sprintf("/monitoring/api/v1/sessions/%d/stop", session.ID)
	require.Equal(t, http.StatusOK, api.do(http.MethodPost, stopPath, admin, nil).Code)
	require.Equal(t, http.StatusOK, api.do(http.MethodPost, stopPath, admin, nil).Code)

	w = api.do(http.MethodGet, "/monitoring/api/v1/active", admin, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, decode[[]domain.ActiveMonitoring](t, w).Result)

	w = api.do(http.MethodGet, "/monitoring/api/v1/sessions", admin, nil)
	require.Equal(t, http.StatusOK, w.Code)
	history := decode[[]domain.MonitoringRecord](t, w).Result
	require.Len(t, history, 1)
	assert.False(t, history[0].Active)

	w = api.do(http.MethodGet, "/monitoring/api/v1/history/export", admin, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, xlsxContentType, w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "historial_monitoreo_")
	assert.NotZero(t, w.Body.Len())

	w = api.do(http.MethodPost, "/monitoring/api/v1/sessions/abc/stop", admin, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestClinicianScope(t *testing.T) {
	api := newTestAPI(t)
	admin := api.login("admin", "admin-pass")
	ctx := context.Background()

	mine, err := api.services.Registration.RegisterPatient(ctx, service.PatientInput{
		FirstName: "Ana", PaternalSurname: "Lopez", BirthDate: "1985-03-14",
		CURP: "LOPA850314MDFPNN01", Sex: domain.SexFemale, Email: "ana@example.com",
	})
	require.NoError(t, err)
	other, err := api.services.Registration.RegisterPatient(ctx, service.PatientInput{
		FirstName: "Luis", PaternalSurname: "Perez", BirthDate: "1979-07-02",
		CURP: "PERL790702HDFRSS02", Sex: domain.SexMale, Email: "luis@example.com",
	})
	require.NoError(t, err)

	w := api.do(http.MethodPost, "/admin/api/v1/clinicians", admin, map[string]any{
		"nombre": "Carmen", "apellido_paterno": "Medina", "especialidad": "Cardiología",
		"cedula_profesional": "1234567", "email": "carmen@hospital.mx",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	doc := decode[domain.Clinician](t, w).Result

	w = api.do(http.MethodPost, fmt.Sprintf("/admin/api/v1/clinicians/%d/user", doc.ID), admin, map[string]any{
		"username": "carmen", "password": "secret1", "password_confirm": "secret1",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = api.do(http.MethodPost, fmt.Sprintf("/admin/api/v1/patients/%d/clinicians", mine.ID), admin, map[string]any{"medico_id": doc.ID})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	recorder := ingest.NewRecorder(api.repos.Devices, api.repos.Measurements, ingest.NewEvaluator(), service.NoopEventPublisher{}, zap.NewNop())
	alertFor := func(patientID int64) int64 {
		d, err := api.services.Devices.AssignDevice(ctx, service.DeviceInput{PatientID: patientID, Model: "Pulse"})
		require.NoError(t, err)
		alert, err := recorder.Record(ctx, d.ID, domain.Reading{Kind: domain.KindOxygen, Value: 85})
		require.NoError(t, err)
		require.NotNil(t, alert)
		return alert.ID
	}
	mineAlert := alertFor(mine.ID)
	otherAlert := alertFor(other.ID)

	clinician := api.login("carmen", "secret1")

	w = api.do(http.MethodGet, "/clinician/api/v1/patients?q=lopez", clinician, nil)
	require.Equal(t, http.StatusOK, w.Code)
	patients := decode[[]domain.AssignedPatient](t, w).Result
	require.Len(t, patients, 1)
	assert.Equal(t, mine.ID, patients[0].PatientID)

	w = api.do(http.MethodGet, "/clinician/api/v1/alerts", clinician, nil)
	require.Equal(t, http.StatusOK, w.Code)
	alerts := decode[[]domain.AlertDetail](t, w).Result
	require.Len(t, alerts, 1)
	assert.Equal(t, mineAlert, alerts[0].ID)

	w = api.do(http.MethodPost, fmt.Sprintf("/clinician/api/v1/alerts/%d/read", otherAlert), clinician, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	w = api.do(http.MethodPost, fmt.Sprintf("/clinician/api/v1/alerts/%d/read", mineAlert), clinician, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = api.do(http.MethodGet, fmt.Sprintf("/monitoring/api/v1/patients/%d/analysis", other.ID), clinician, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	w = api.do(http.MethodGet, fmt.Sprintf("/monitoring/api/v1/patients/%d/measurements/export", mine.ID), clinician, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestPatientSelfService(t *testing.T) {
	api := newTestAPI(t)
	ctx := context.Background()

	reg, err := api.services.Registration.SelfRegisterPatient(ctx, service.SelfRegistrationInput{
		PatientInput: service.PatientInput{
			FirstName: "Ana", PaternalSurname: "Lopez", MaternalSurname: strPtr("Garcia"), BirthDate: "1985-03-14",
			CURP: "LOPA850314MDFPNN01", Sex: domain.SexFemale, Email: "ana@example.com",
			Phone: strPtr("5512345678"), Address: strPtr("Av. Reforma 100"),
		},
		Username: "ana", Password: "secret1", PasswordConfirm: "secret1",
	})
	require.NoError(t, err)

	d, err := api.services.Devices.AssignDevice(ctx, service.DeviceInput{PatientID: reg.PatientID, Model: "Pulse"})
	require.NoError(t, err)
	recorder := ingest.NewRecorder(api.repos.Devices, api.repos.Measurements, ingest.NewEvaluator(), service.NoopEventPublisher{}, zap.NewNop())
	now := time.Now().UTC().Add(-time.Minute)
	for i, v := range []float64{72, 150, 35} {
		_, err := recorder.Record(ctx, d.ID, domain.Reading{Timestamp: now.Add(time.Duration(i) * time.Second), Kind: domain.KindHeartRate, Value: v})
		require.NoError(t, err)
	}

	token := api.login("ana", "secret1")

	w := api.do(http.MethodGet, "/me/api/v1/measurements?tipo="+"Ritmo%20Card%C3%ADaco", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	list := decode[service.MeasurementList](t, w).Result
	assert.Len(t, list.Measurements, 3)
	assert.Equal(t, []string{domain.KindHeartRate}, list.Kinds)

	w = api.do(http.MethodGet, "/me/api/v1/alerts?status=unread", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	alerts := decode[[]domain.AlertDetail](t, w).Result
	require.Len(t, alerts, 2)

	w = api.do(http.MethodPost, fmt.Sprintf("/me/api/v1/alerts/%d/read", alerts[0].ID), token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = api.do(http.MethodPost, "/me/api/v1/alerts/read-all", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, int64(1), decode[map[string]int64](t, w).Result["updated"])

	w = api.do(http.MethodPost, "/me/api/v1/alerts/read-all", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, int64(0), decode[map[string]int64](t, w).Result["updated"])

	w = api.do(http.MethodPost, "/me/api/v1/alerts/9999/read", token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = api.do(http.MethodGet, "/me/api/v1/alerts?status=bogus", token, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = api.do(http.MethodGet, "/me/api/v1/measurements/export", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, xlsxContentType, w.Header().Get("Content-Type"))
}

func TestSyncDevice(t *testing.T) {
	api := newTestAPI(t)
	admin := api.login("admin", "admin-pass")
	ctx := context.Background()

	deviceSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"tipo_medicion":"Ritmo Cardíaco","valor":71},{"tipo_medicion":"Presión Sistólica","valor":160}]`))
	}))
	defer deviceSrv.Close()

	p, err := api.services.Registration.RegisterPatient(ctx, service.PatientInput{
		FirstName: "Ana", PaternalSurname: "Lopez", BirthDate: "1985-03-14",
		CURP: "LOPA850314MDFPNN01", Sex: domain.SexFemale, Email: "ana@example.com",
	})
	require.NoError(t, err)

	w := api.do(http.MethodPost, "/admin/api/v1/devices", admin, map[string]any{
		"paciente_id": p.ID, "modelo": "Pulse", "direccion_url": deviceSrv.URL,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	d := decode[domain.Device](t, w).Result

	w = api.do(http.MethodPost, fmt.Sprintf("/admin/api/v1/devices/%d/sync", d.ID), admin, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	res := decode[service.SyncResult](t, w).Result
	assert.Equal(t, 2, res.Recorded)
	assert.Equal(t, 1, res.Alerts)

	w = api.do(http.MethodGet, "/admin/api/v1/devices", admin, nil)
	require.Equal(t, http.StatusOK, w.Code)
	devices := decode[[]domain.Device](t, w).Result
	require.Len(t, devices, 1)
	assert.Equal(t, "Ana Lopez", devices[0].PatientName)
}

func TestHealth(t *testing.T) {
	api := newTestAPI(t)
	w := api.do(http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func strPtr(s string) *string { return &s }
