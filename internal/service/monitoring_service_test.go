package service

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"iheartcare/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMonitoringService(f *fixture, events EventPublisher, now time.Time) *monitoringService {
	svc := NewMonitoringService(f.repos, f.access, events, f.logger).(*monitoringService)
	svc.now = func() time.Time { return now }
	return svc
}

func TestMonitoring_Scenario(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	events := &recordingPublisher{}
	start := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	svc := newMonitoringService(f, events, start)

	patientID := f.patient(t, "Ana", "Lopez", "LOPA800101MDFPNN01")

	active, err := svc.ListActive(ctx)
	require.NoError(t, err)
	assert.Empty(t, active)

	candidates, err := svc.ListCandidates(ctx)
	require.NoError(t, err)
	require.Len(t, candidates, 1)
	assert.Equal(t, patientID, candidates[0].ID)

	session, err := svc.Start(ctx, patientID, "  post-op control  ")
	require.NoError(t, err)
	assert.True(t, session.Active)
	assert.Equal(t, "post-op control", session.Reason)
	assert.Equal(t, start, session.StartedAt)

	active, err = svc.ListActive(ctx)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, "Ana Lopez", active[0].PatientName)

	candidates, err = svc.ListCandidates(ctx)
	require.NoError(t, err)
	assert.Empty(t, candidates)

	_, err = svc.Start(ctx, patientID, "")
	assert.ErrorIs(t, err, ErrMonitoringActive)

	svc.now = func() time.Time { return start.Add(2 * time.Hour) }
	require.NoError(t, svc.Stop(ctx, session.ID))

	active, err = svc.ListActive(ctx)
	require.NoError(t, err)
	assert.Empty(t, active)

	history, err := svc.History(ctx)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.False(t, history[0].Active)
	require.NotNil(t, history[0].EndedAt)
	assert.Equal(t, start.Add(2*time.Hour), *history[0].EndedAt)

	require.Len(t, events.events, 2)
	assert.Equal(t, EventMonitoringStarted, events.events[0].eventType)
	assert.Equal(t, EventMonitoringStopped, events.events[1].eventType)
	stopped := events.events[1].payload.(monitoringEvent)
	assert.Equal(t, patientID, stopped.PatientID)

	// a new session can start once the previous one ended
	_, err = svc.Start(ctx, patientID, "")
	require.NoError(t, err)
}

func TestMonitoring_StopIsIdempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	events := &recordingPublisher{}
	start := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	svc := newMonitoringService(f, events, start)
	patientID := f.patient(t, "Ana", "Lopez", "LOPA800101MDFPNN01")

	session, err := svc.Start(ctx, patientID, "")
	require.NoError(t, err)

	firstEnd := start.Add(time.Hour)
	svc.now = func() time.Time { return firstEnd }
	require.NoError(t, svc.Stop(ctx, session.ID))

	svc.now = func() time.Time { return start.Add(5 * time.Hour) }
	require.NoError(t, svc.Stop(ctx, session.ID))

	got, err := f.repos.Monitoring.GetMonitoring(ctx, session.ID)
	require.NoError(t, err)
	require.NotNil(t, got.EndedAt)
	assert.Equal(t, firstEnd, *got.EndedAt)
	assert.Len(t, events.events, 2)

	assert.ErrorIs(t, svc.Stop(ctx, 9999), ErrNotFound)
}

func TestMonitoring_StartValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	svc := newMonitoringService(f, NoopEventPublisher{}, time.Now())

	_, err := svc.Start(ctx, 0, "")
	assert.True(t, IsValidation(err))

	_, err = svc.Start(ctx, 42, "")
	assert.ErrorIs(t, err, ErrNotFound)

	patientID := f.patient(t, "Ana", "Lopez", "LOPA800101MDFPNN01")
	_, err = svc.Start(ctx, patientID, strings.Repeat("x", maxReasonLength+1))
	assert.True(t, IsValidation(err))
}

func TestMonitoring_ConcurrentStartSingleWinner(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	svc := newMonitoringService(f, NoopEventPublisher{}, time.Now())
	patientID := f.patient(t, "Ana", "Lopez", "LOPA800101MDFPNN01")

	const workers = 16
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		ok       int
		rejected int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Start(ctx, patientID, "")
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				ok++
			} else if assert.ErrorIs(t, err, ErrMonitoringActive) {
				rejected++
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, ok)
	assert.Equal(t, workers-1, rejected)
}

func TestMonitoring_Dashboard(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	svc := newMonitoringService(f, NoopEventPublisher{}, time.Now())

	patientID := f.patient(t, "Ana", "Lopez", "LOPA800101MDFPNN01")
	other := f.patient(t, "Luis", "Perez", "PERL800101HDFRSS02")
	doc := f.clinician(t, "Carmen")
	require.NoError(t, f.repos.Patients.AssignClinician(ctx, other, doc))
	deviceID := f.device(t, patientID)

	base := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	f.measurement(t, deviceID, domain.KindHeartRate, 72, base.Add(2*time.Minute))
	f.measurement(t, deviceID, domain.KindHeartRate, 70, base)
	_, firstAlert := f.measurement(t, deviceID, domain.KindOxygen, 93, base.Add(time.Minute))
	_, secondAlert := f.measurement(t, deviceID, domain.KindHeartRate, 150, base.Add(3*time.Minute))

	session, err := svc.Start(ctx, patientID, "")
	require.NoError(t, err)

	dash, err := svc.Dashboard(ctx, adminSession(), session.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ana Lopez", dash.Patient.Name)

	hr := dash.Measurements[domain.KindHeartRate]
	require.Len(t, hr, 3)
	assert.Equal(t, 70.0, hr[0].Value)
	assert.Equal(t, 72.0, hr[1].Value)
	assert.Equal(t, 150.0, hr[2].Value)
	assert.Len(t, dash.Measurements[domain.KindOxygen], 1)

	require.Len(t, dash.UnreadAlerts, 2)
	assert.Equal(t, secondAlert, dash.UnreadAlerts[0].ID)
	assert.Equal(t, firstAlert, dash.UnreadAlerts[1].ID)

	_, err = svc.Dashboard(ctx, clinicianSession(doc), session.ID)
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = svc.Dashboard(ctx, adminSession(), 12345)
	assert.ErrorIs(t, err, ErrNotFound)
}
