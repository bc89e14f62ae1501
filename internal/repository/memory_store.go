package repository

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"iheartcare/internal/domain"
)

// MemoryStore in-memory implementation of every repository, guarded by one mutex.
// Used when PostgreSQL is unavailable and by tests.
type MemoryStore struct {
	mu sync.Mutex

	nextID      map[string]int64
	users       map[int64]*domain.User
	patients    map[int64]*domain.Patient
	clinicians  map[int64]*domain.Clinician
	assignments map[[2]int64]struct{} // {patientID, clinicianID}
	devices     map[int64]*domain.Device
	monitoring  map[int64]*domain.MonitoringSession
	measurement map[int64]*domain.Measurement
	alerts      map[int64]*domain.Alert
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		nextID:      map[string]int64{},
		users:       map[int64]*domain.User{},
		patients:    map[int64]*domain.Patient{},
		clinicians:  map[int64]*domain.Clinician{},
		assignments: map[[2]int64]struct{}{},
		devices:     map[int64]*domain.Device{},
		monitoring:  map[int64]*domain.MonitoringSession{},
		measurement: map[int64]*domain.Measurement{},
		alerts:      map[int64]*domain.Alert{},
	}
}

// Repositories exposes the store through every repository interface.
func (s *MemoryStore) Repositories() Repositories {
	return Repositories{
		Users:        s,
		Patients:     s,
		Clinicians:   s,
		Devices:      s,
		Monitoring:   s,
		Measurements: s,
		Alerts:       s,
	}
}

var (
	_ UsersRepository        = (*MemoryStore)(nil)
	_ PatientsRepository     = (*MemoryStore)(nil)
	_ CliniciansRepository   = (*MemoryStore)(nil)
	_ DevicesRepository      = (*MemoryStore)(nil)
	_ MonitoringRepository   = (*MemoryStore)(nil)
	_ MeasurementsRepository = (*MemoryStore)(nil)
	_ AlertsRepository       = (*MemoryStore)(nil)
)

func (s *MemoryStore) next(table string) int64 {
	s.nextID[table]++
	return s.nextID[table]
}

// ---- users ----

func (s *MemoryStore) GetUserForLogin(_ context.Context, username string) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if u.Username != username {
			continue
		}
		out := *u
		out.PatientID, out.ClinicianID = nil, nil
		for _, p := range s.patients {
			if p.UserID != nil && *p.UserID == u.ID {
				id := p.ID
				out.PatientID = &id
			}
		}
		for _, c := range s.clinicians {
			if c.UserID != nil && *c.UserID == u.ID {
				id := c.ID
				out.ClinicianID = &id
			}
		}
		return &out, nil
	}
	return nil, ErrNotFound
}

func (s *MemoryStore) UsernameExists(_ context.Context, username string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.usernameTaken(username), nil
}

func (s *MemoryStore) usernameTaken(username string) bool {
	for _, u := range s.users {
		if u.Username == username {
			return true
		}
	}
	return false
}

func (s *MemoryStore) insertUser(u domain.NewUser) (int64, error) {
	if s.usernameTaken(u.Username) {
		return 0, fmt.Errorf("%w: username %s", ErrDuplicate, u.Username)
	}
	id := s.next("users")
	s.users[id] = &domain.User{ID: id, Username: u.Username, PasswordHash: u.PasswordHash, Role: u.Role, Active: true}
	return id, nil
}

func (s *MemoryStore) CreateUser(_ context.Context, u domain.NewUser) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.insertUser(u)
}

func (s *MemoryStore) CreatePatientUser(_ context.Context, patientID int64, u domain.NewUser) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.patients[patientID]
	if !ok {
		return 0, ErrNotFound
	}
	if p.UserID != nil {
		return 0, fmt.Errorf("%w: pacientes %d already has a user", ErrDuplicate, patientID)
	}
	id, err := s.insertUser(u)
	if err != nil {
		return 0, err
	}
	p.UserID = &id
	return id, nil
}

func (s *MemoryStore) CreateClinicianUser(_ context.Context, clinicianID int64, u domain.NewUser) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.clinicians[clinicianID]
	if !ok {
		return 0, ErrNotFound
	}
	if c.UserID != nil {
		return 0, fmt.Errorf("%w: personal_medico %d already has a user", ErrDuplicate, clinicianID)
	}
	id, err := s.insertUser(u)
	if err != nil {
		return 0, err
	}
	c.UserID = &id
	return id, nil
}

// ---- patients ----

func (s *MemoryStore) insertPatient(p *domain.Patient) (int64, error) {
	for _, existing := range s.patients {
		if existing.CURP == p.CURP {
			return 0, fmt.Errorf("%w: curp %s", ErrDuplicate, p.CURP)
		}
	}
	cp := *p
	cp.ID = s.next("pacientes")
	s.patients[cp.ID] = &cp
	return cp.ID, nil
}

func (s *MemoryStore) CreatePatient(_ context.Context, p *domain.Patient) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.insertPatient(p)
}

func (s *MemoryStore) RegisterPatientWithUser(_ context.Context, p *domain.Patient, u domain.NewUser) (int64, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// validate both sides before writing either
	if s.usernameTaken(u.Username) {
		return 0, 0, fmt.Errorf("%w: username %s", ErrDuplicate, u.Username)
	}
	for _, existing := range s.patients {
		if existing.CURP == p.CURP {
			return 0, 0, fmt.Errorf("%w: curp %s", ErrDuplicate, p.CURP)
		}
	}
	userID, err := s.insertUser(u)
	if err != nil {
		return 0, 0, err
	}
	linked := *p
	linked.UserID = &userID
	patientID, err := s.insertPatient(&linked)
	if err != nil {
		return 0, 0, err
	}
	return patientID, userID, nil
}

func (s *MemoryStore) GetPatient(_ context.Context, id int64) (*domain.Patient, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.patients[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (s *MemoryStore) ListPatients(_ context.Context) ([]domain.Patient, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Patient, 0, len(s.patients))
	for _, p := range s.patients {
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *MemoryStore) AssignClinician(_ context.Context, patientID, clinicianID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.patients[patientID]; !ok {
		return ErrNotFound
	}
	if _, ok := s.clinicians[clinicianID]; !ok {
		return ErrNotFound
	}
	s.assignments[[2]int64{patientID, clinicianID}] = struct{}{}
	return nil
}

func (s *MemoryStore) IsClinicianAssigned(_ context.Context, patientID, clinicianID int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.assignments[[2]int64{patientID, clinicianID}]
	return ok, nil
}

func (s *MemoryStore) ListAssignedPatients(_ context.Context, clinicianID int64, search string) ([]domain.AssignedPatient, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	needle := strings.ToLower(strings.TrimSpace(search))
	var patients []*domain.Patient
	for key := range s.assignments {
		if key[1] != clinicianID {
			continue
		}
		p := s.patients[key[0]]
		if needle != "" &&
			!strings.Contains(strings.ToLower(p.FullName()), needle) &&
			!strings.Contains(strings.ToLower(p.CURP), needle) {
			continue
		}
		patients = append(patients, p)
	}
	sortPatientsBySurname(patients)

	out := make([]domain.AssignedPatient, 0, len(patients))
	for _, p := range patients {
		ap := domain.AssignedPatient{
			PatientID:        p.ID,
			Name:             p.FullName(),
			CURP:             p.CURP,
			Email:            p.Email,
			Phone:            p.Phone,
			ActiveMonitoring: s.activeSessionFor(p.ID) != nil,
		}
		if devs := s.devicesFor(p.ID); len(devs) > 0 {
			model := devs[0].Model
			ap.DeviceModel = &model
		}
		out = append(out, ap)
	}
	return out, nil
}

func (s *MemoryStore) ListPatientClinicianNames(_ context.Context, patientID int64) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var clinicians []*domain.Clinician
	for key := range s.assignments {
		if key[0] == patientID {
			clinicians = append(clinicians, s.clinicians[key[1]])
		}
	}
	sort.Slice(clinicians, func(i, j int) bool {
		if clinicians[i].PaternalSurname != clinicians[j].PaternalSurname {
			return clinicians[i].PaternalSurname < clinicians[j].PaternalSurname
		}
		return clinicians[i].FirstName < clinicians[j].FirstName
	})
	out := make([]string, 0, len(clinicians))
	for _, c := range clinicians {
		out = append(out, c.FullName())
	}
	return out, nil
}

func sortPatientsBySurname(ps []*domain.Patient) {
	materno := func(p *domain.Patient) string {
		if p.MaternalSurname == nil {
			return ""
		}
		return *p.MaternalSurname
	}
	sort.Slice(ps, func(i, j int) bool {
		a, b := ps[i], ps[j]
		if a.PaternalSurname != b.PaternalSurname {
			return a.PaternalSurname < b.PaternalSurname
		}
		if materno(a) != materno(b) {
			return materno(a) < materno(b)
		}
		if a.FirstName != b.FirstName {
			return a.FirstName < b.FirstName
		}
		return a.ID < b.ID
	})
}

// ---- clinicians ----

func (s *MemoryStore) CreateClinician(_ context.Context, c *domain.Clinician) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *c
	cp.ID = s.next("personal_medico")
	cp.UserID = nil
	s.clinicians[cp.ID] = &cp
	return cp.ID, nil
}

func (s *MemoryStore) GetClinician(_ context.Context, id int64) (*domain.Clinician, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.clinicians[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (s *MemoryStore) ListClinicians(_ context.Context) ([]domain.Clinician, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Clinician, 0, len(s.clinicians))
	for _, c := range s.clinicians {
		out = append(out, *c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// ---- devices ----

func (s *MemoryStore) CreateDevice(_ context.Context, d *domain.Device) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.patients[d.PatientID]; !ok {
		return 0, ErrNotFound
	}
	cp := *d
	cp.ID = s.next("dispositivos")
	cp.PatientName = ""
	s.devices[cp.ID] = &cp
	return cp.ID, nil
}

func (s *MemoryStore) withPatientName(d *domain.Device) domain.Device {
	out := *d
	if p, ok := s.patients[d.PatientID]; ok {
		out.PatientName = p.FullName()
	}
	return out
}

func (s *MemoryStore) GetDevice(_ context.Context, id int64) (*domain.Device, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.devices[id]
	if !ok {
		return nil, ErrNotFound
	}
	out := s.withPatientName(d)
	return &out, nil
}

func (s *MemoryStore) ListDevices(_ context.Context) ([]domain.Device, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Device, 0, len(s.devices))
	for _, d := range s.devices {
		out = append(out, s.withPatientName(d))
	}
	sortDevicesNewestFirst(out)
	return out, nil
}

func (s *MemoryStore) ListDevicesForPatient(_ context.Context, patientID int64) ([]domain.Device, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.devicesFor(patientID), nil
}

func (s *MemoryStore) devicesFor(patientID int64) []domain.Device {
	out := []domain.Device{}
	for _, d := range s.devices {
		if d.PatientID == patientID {
			out = append(out, s.withPatientName(d))
		}
	}
	sortDevicesNewestFirst(out)
	return out
}

func sortDevicesNewestFirst(ds []domain.Device) {
	sort.Slice(ds, func(i, j int) bool {
		if !ds[i].AssignedAt.Equal(ds[j].AssignedAt) {
			return ds[i].AssignedAt.After(ds[j].AssignedAt)
		}
		return ds[i].ID > ds[j].ID
	})
}

// ---- monitoring ----

func (s *MemoryStore) activeSessionFor(patientID int64) *domain.MonitoringSession {
	for _, m := range s.monitoring {
		if m.PatientID == patientID && m.Active {
			return m
		}
	}
	return nil
}

func (s *MemoryStore) StartMonitoring(_ context.Context, patientID int64, reason string, now time.Time) (*domain.MonitoringSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.patients[patientID]; !ok {
		return nil, ErrNotFound
	}
	if s.activeSessionFor(patientID) != nil {
		return nil, ErrActiveMonitoringExists
	}
	m := &domain.MonitoringSession{
		ID:        s.next("monitoreos"),
		PatientID: patientID,
		StartedAt: now,
		Active:    true,
		Reason:    reason,
	}
	s.monitoring[m.ID] = m
	out := *m
	return &out, nil
}

func (s *MemoryStore) StopMonitoring(_ context.Context, sessionID int64, now time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, ok := s.monitoring[sessionID]
	if !ok {
		return false, ErrNotFound
	}
	if !m.Active {
		return false, nil
	}
	end := now
	m.Active = false
	m.EndedAt = &end
	return true, nil
}

func (s *MemoryStore) GetMonitoring(_ context.Context, sessionID int64) (*domain.MonitoringSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.monitoring[sessionID]
	if !ok {
		return nil, ErrNotFound
	}
	out := *m
	return &out, nil
}

func (s *MemoryStore) ListActiveMonitoring(_ context.Context) ([]domain.ActiveMonitoring, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []domain.ActiveMonitoring{}
	for _, m := range s.monitoring {
		if !m.Active {
			continue
		}
		out = append(out, domain.ActiveMonitoring{
			SessionID:   m.ID,
			PatientID:   m.PatientID,
			PatientName: s.patients[m.PatientID].FullName(),
			StartedAt:   m.StartedAt,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].PatientName != out[j].PatientName {
			return out[i].PatientName < out[j].PatientName
		}
		return out[i].SessionID < out[j].SessionID
	})
	return out, nil
}

func (s *MemoryStore) ListMonitoringHistory(_ context.Context) ([]domain.MonitoringRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.MonitoringRecord, 0, len(s.monitoring))
	for _, m := range s.monitoring {
		out = append(out, domain.MonitoringRecord{
			MonitoringSession: *m,
			PatientName:       s.patients[m.PatientID].FullName(),
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].StartedAt.Equal(out[j].StartedAt) {
			return out[i].StartedAt.After(out[j].StartedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

func (s *MemoryStore) ListPatientsWithoutMonitoring(_ context.Context) ([]domain.PatientRef, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var patients []*domain.Patient
	for _, p := range s.patients {
		if s.activeSessionFor(p.ID) == nil {
			patients = append(patients, p)
		}
	}
	sortPatientsBySurname(patients)
	out := make([]domain.PatientRef, 0, len(patients))
	for _, p := range patients {
		out = append(out, domain.PatientRef{ID: p.ID, Name: p.FullName(), CURP: p.CURP})
	}
	return out, nil
}

// ---- measurements ----

func (s *MemoryStore) InsertMeasurement(_ context.Context, m *domain.Measurement, alert *domain.Alert) (int64, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.devices[m.DeviceID]; !ok {
		return 0, 0, ErrNotFound
	}
	cp := *m
	cp.ID = s.next("mediciones")
	s.measurement[cp.ID] = &cp

	if alert == nil {
		return cp.ID, 0, nil
	}
	a := *alert
	a.ID = s.next("alertas")
	a.MeasurementID = cp.ID
	a.Read = false
	s.alerts[a.ID] = &a
	return cp.ID, a.ID, nil
}

func (s *MemoryStore) patientOfMeasurement(measurementID int64) (int64, bool) {
	m, ok := s.measurement[measurementID]
	if !ok {
		return 0, false
	}
	d, ok := s.devices[m.DeviceID]
	if !ok {
		return 0, false
	}
	return d.PatientID, true
}

func (s *MemoryStore) ListMeasurements(_ context.Context, q domain.MeasurementQuery) ([]domain.Measurement, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := []domain.Measurement{}
	for _, m := range s.measurement {
		if pid, ok := s.patientOfMeasurement(m.ID); !ok || pid != q.PatientID {
			continue
		}
		if q.Kind != "" && m.Kind != q.Kind {
			continue
		}
		if q.Since != nil && m.Timestamp.Before(*q.Since) {
			continue
		}
		out = append(out, *m)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Timestamp.Equal(out[j].Timestamp) {
			if q.Ascending {
				return out[i].Timestamp.Before(out[j].Timestamp)
			}
			return out[i].Timestamp.After(out[j].Timestamp)
		}
		if q.Ascending {
			return out[i].ID < out[j].ID
		}
		return out[i].ID > out[j].ID
	})
	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out, nil
}

func (s *MemoryStore) ListMeasurementKinds(_ context.Context, patientID int64) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	seen := map[string]struct{}{}
	for _, m := range s.measurement {
		if pid, ok := s.patientOfMeasurement(m.ID); ok && pid == patientID {
			seen[m.Kind] = struct{}{}
		}
	}
	out := make([]string, 0, len(seen))
	for k := range seen {
		out = append(out, k)
	}
	sort.Strings(out)
	return out, nil
}

// ---- alerts ----

func (s *MemoryStore) MarkAlertRead(_ context.Context, alertID int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.alerts[alertID]
	if !ok {
		return false, ErrNotFound
	}
	if a.Read {
		return false, nil
	}
	a.Read = true
	return true, nil
}

func (s *MemoryStore) MarkAllAlertsReadForPatient(_ context.Context, patientID int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for _, a := range s.alerts {
		if a.Read {
			continue
		}
		if pid, ok := s.patientOfMeasurement(a.MeasurementID); ok && pid == patientID {
			a.Read = true
			n++
		}
	}
	return n, nil
}

func (s *MemoryStore) alertDetail(a *domain.Alert) domain.AlertDetail {
	d := domain.AlertDetail{Alert: *a}
	if m, ok := s.measurement[a.MeasurementID]; ok {
		d.Kind, d.Value, d.Unit = m.Kind, m.Value, m.Unit
	}
	if pid, ok := s.patientOfMeasurement(a.MeasurementID); ok {
		d.PatientID = pid
		d.PatientName = s.patients[pid].FullName()
	}
	return d
}

func sortAlertsNewestFirst(as []domain.AlertDetail) {
	sort.Slice(as, func(i, j int) bool {
		if !as[i].Timestamp.Equal(as[j].Timestamp) {
			return as[i].Timestamp.After(as[j].Timestamp)
		}
		return as[i].ID > as[j].ID
	})
}

func (s *MemoryStore) ListAlertsForPatient(_ context.Context, patientID int64, f domain.AlertFilter) ([]domain.AlertDetail, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []domain.AlertDetail{}
	for _, a := range s.alerts {
		if pid, ok := s.patientOfMeasurement(a.MeasurementID); !ok || pid != patientID {
			continue
		}
		if (f.Status == domain.AlertStatusUnread && a.Read) || (f.Status == domain.AlertStatusRead && !a.Read) {
			continue
		}
		if f.Type != "" && a.Type != f.Type {
			continue
		}
		out = append(out, s.alertDetail(a))
	}
	sortAlertsNewestFirst(out)
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

func (s *MemoryStore) ListUnreadAlertsForClinician(_ context.Context, clinicianID int64) ([]domain.AlertDetail, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []domain.AlertDetail{}
	for _, a := range s.alerts {
		if a.Read {
			continue
		}
		pid, ok := s.patientOfMeasurement(a.MeasurementID)
		if !ok {
			continue
		}
		if _, assigned := s.assignments[[2]int64{pid, clinicianID}]; !assigned {
			continue
		}
		out = append(out, s.alertDetail(a))
	}
	sortAlertsNewestFirst(out)
	return out, nil
}

func (s *MemoryStore) GetAlertPatientID(_ context.Context, alertID int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.alerts[alertID]
	if !ok {
		return 0, ErrNotFound
	}
	pid, ok := s.patientOfMeasurement(a.MeasurementID)
	if !ok {
		return 0, ErrNotFound
	}
	return pid, nil
}
