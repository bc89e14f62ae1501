package service

import (
	"context"
	"testing"
	"time"

	"iheartcare/internal/domain"
	"iheartcare/internal/repository"
	"iheartcare/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthenticate_AdminAndRequire(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	created, err := f.registrationService().EnsureAdmin(ctx, "admin", "S3cret!!")
	require.NoError(t, err)
	require.True(t, created)

	auth := f.authService()
	session, err := auth.Authenticate(ctx, "admin", "S3cret!!")
	require.NoError(t, err)
	assert.Equal(t, domain.RoleAdministrator, session.Role)
	assert.NotEmpty(t, session.Token)
	assert.Nil(t, session.PatientID)

	assert.NoError(t, Require(session, domain.RoleAdministrator))
	assert.NoError(t, Require(session, domain.RoleAdministrator, domain.RoleClinician))
	assert.ErrorIs(t, Require(session, domain.RolePatient), ErrForbidden)

	resolved, err := auth.Resolve(ctx, session.Token)
	require.NoError(t, err)
	assert.Equal(t, session.UserID, resolved.UserID)
	assert.Equal(t, domain.RoleAdministrator, resolved.Role)

	require.NoError(t, auth.Logout(ctx, session.Token))
	_, err = auth.Resolve(ctx, session.Token)
	assert.ErrorIs(t, err, ErrUnauthenticated)
	require.NoError(t, auth.Logout(ctx, session.Token))
}

func TestAuthenticate_FailuresAreIndistinguishable(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.registrationService().EnsureAdmin(ctx, "admin", "S3cret!!")
	require.NoError(t, err)
	auth := f.authService()

	_, wrongPassword := auth.Authenticate(ctx, "admin", "nope")
	_, unknownUser := auth.Authenticate(ctx, "ghost", "S3cret!!")

	require.Error(t, wrongPassword)
	require.Error(t, unknownUser)
	assert.ErrorIs(t, wrongPassword, ErrInvalidCredentials)
	assert.ErrorIs(t, unknownUser, ErrInvalidCredentials)
	assert.Equal(t, wrongPassword.Error(), unknownUser.Error())
}

func TestAuthenticate_InactiveUser(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.registrationService().EnsureAdmin(ctx, "admin", "S3cret!!")
	require.NoError(t, err)

	auth := NewAuthService(deactivatedUsers{f.repos.Users}, store.NewKVSessionStore(store.NewMemoryKV(), time.Hour), f.hasher, f.logger)
	_, err = auth.Authenticate(ctx, "admin", "S3cret!!")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestEnsureAdmin_Idempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	reg := f.registrationService()

	created, err := reg.EnsureAdmin(ctx, "admin", "first-pass")
	require.NoError(t, err)
	assert.True(t, created)

	created, err = reg.EnsureAdmin(ctx, "admin", "second-pass")
	require.NoError(t, err)
	assert.False(t, created)

	_, err = f.authService().Authenticate(ctx, "admin", "first-pass")
	assert.NoError(t, err)
}

func TestRequire_NoSession(t *testing.T) {
	assert.ErrorIs(t, Require(nil, domain.RoleAdministrator), ErrUnauthenticated)
}

func TestPatientAccess(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p1 := f.patient(t, "Ana", "Lopez", "LOPA800101MDFPNN01")
	p2 := f.patient(t, "Luis", "Perez", "PERL800101HDFRSS02")
	doc := f.clinician(t, "Carmen")
	require.NoError(t, f.repos.Patients.AssignClinician(ctx, p1, doc))

	assert.NoError(t, f.access.Check(ctx, adminSession(), p2))
	assert.NoError(t, f.access.Check(ctx, patientSession(p1), p1))
	assert.ErrorIs(t, f.access.Check(ctx, patientSession(p1), p2), ErrForbidden)
	assert.NoError(t, f.access.Check(ctx, clinicianSession(doc), p1))
	assert.ErrorIs(t, f.access.Check(ctx, clinicianSession(doc), p2), ErrForbidden)
	assert.ErrorIs(t, f.access.Check(ctx, nil, p1), ErrUnauthenticated)

	unlinked := &domain.Session{UserID: 9, Role: domain.RolePatient}
	assert.ErrorIs(t, f.access.Check(ctx, unlinked, p1), ErrForbidden)
}

// deactivatedUsers reports every stored user as inactive.
type deactivatedUsers struct {
	repository.UsersRepository
}

func (u deactivatedUsers) GetUserForLogin(ctx context.Context, username string) (*domain.User, error) {
	usr, err := u.UsersRepository.GetUserForLogin(ctx, username)
	if usr == nil {
		return usr, err
	}
	cp := *usr
	cp.Active = false
	return &cp, err
}
