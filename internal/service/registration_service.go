package service

import (
	"context"
	"strings"
	"time"

	"iheartcare/internal/domain"
	"iheartcare/internal/repository"

	"go.uber.org/zap"
)

const minPasswordLength = 6

// PatientInput admin patient form.
type PatientInput struct {
	FirstName       string  `json:"nombre"`
	PaternalSurname string  `json:"apellido_paterno"`
	MaternalSurname *string `json:"apellido_materno"`
	BirthDate       string  `json:"fecha_nacimiento"`
	CURP            string  `json:"curp"`
	NSS             *string `json:"nss"`
	Sex             string  `json:"sexo"`
	MaritalStatus   *string `json:"estado_civil"`
	Address         *string `json:"domicilio"`
	Email           string  `json:"email"`
	Phone           *string `json:"telefono"`
}

// SelfRegistrationInput public patient sign-up; creates patient, user and link together.
type SelfRegistrationInput struct {
	PatientInput
	Username        string `json:"username"`
	Password        string `json:"password"`
	PasswordConfirm string `json:"password_confirm"`
}

// ClinicianInput admin clinician form.
type ClinicianInput struct {
	FirstName           string  `json:"nombre"`
	PaternalSurname     string  `json:"apellido_paterno"`
	MaternalSurname     *string `json:"apellido_materno"`
	Specialty           string  `json:"especialidad"`
	ProfessionalLicense string  `json:"cedula_profesional"`
	SpecialtyLicense    *string `json:"cedula_especialidad"`
	University          *string `json:"universidad"`
	Email               string  `json:"email"`
}

// CredentialsInput username/password pair for a linked user.
type CredentialsInput struct {
	Username        string `json:"username"`
	Password        string `json:"password"`
	PasswordConfirm string `json:"password_confirm"`
}

// Registration result of a self-registration.
type Registration struct {
	PatientID int64 `json:"patient_id"`
	UserID    int64 `json:"user_id"`
}

// RegistrationService patient/clinician records and the users linked to them.
type RegistrationService interface {
	RegisterPatient(ctx context.Context, in PatientInput) (*domain.Patient, error)
	SelfRegisterPatient(ctx context.Context, in SelfRegistrationInput) (*Registration, error)
	CreatePatientUser(ctx context.Context, patientID int64, in CredentialsInput) (int64, error)
	RegisterClinician(ctx context.Context, in ClinicianInput) (*domain.Clinician, error)
	CreateClinicianUser(ctx context.Context, clinicianID int64, in CredentialsInput) (int64, error)
	ListPatients(ctx context.Context) ([]domain.Patient, error)
	ListClinicians(ctx context.Context) ([]domain.Clinician, error)
	AssignClinician(ctx context.Context, patientID, clinicianID int64) error
	// EnsureAdmin creates an administrator unless the username already exists.
	EnsureAdmin(ctx context.Context, username, password string) (bool, error)
}

type registrationService struct {
	users      repository.UsersRepository
	patients   repository.PatientsRepository
	clinicians repository.CliniciansRepository
	hasher     *PasswordHasher
	logger     *zap.Logger
	now        func() time.Time
}

func NewRegistrationService(
	users repository.UsersRepository,
	patients repository.PatientsRepository,
	clinicians repository.CliniciansRepository,
	hasher *PasswordHasher,
	logger *zap.Logger,
) RegistrationService {
	return &registrationService{
		users:      users,
		patients:   patients,
		clinicians: clinicians,
		hasher:     hasher,
		logger:     logger,
		now:        time.Now,
	}
}

func (s *registrationService) buildPatient(in PatientInput) (*domain.Patient, error) {
	curp := strings.ToUpper(strings.TrimSpace(in.CURP))
	if err := firstError(
		required("nombre", in.FirstName),
		maxLen("nombre", in.FirstName, 100),
		required("apellido_paterno", in.PaternalSurname),
		maxLen("apellido_paterno", in.PaternalSurname, 100),
		required("curp", curp),
		required("sexo", in.Sex),
		validEmail("email", strings.TrimSpace(in.Email)),
	); err != nil {
		return nil, err
	}
	birth, err := parseDate("fecha_nacimiento", in.BirthDate, s.now())
	if err != nil {
		return nil, err
	}
	if !curpPattern.MatchString(curp) {
		return nil, invalid("curp", "must be 18 letters or digits")
	}
	if in.Sex != domain.SexMale && in.Sex != domain.SexFemale {
		return nil, invalid("sexo", "must be Masculino or Femenino")
	}
	nss := optional(in.NSS)
	if nss != nil && !nssPattern.MatchString(*nss) {
		return nil, invalid("nss", "must be 11 digits")
	}
	phone := optional(in.Phone)
	if phone != nil {
		if err := maxLen("telefono", *phone, 20); err != nil {
			return nil, err
		}
	}

	return &domain.Patient{
		FirstName:       strings.TrimSpace(in.FirstName),
		PaternalSurname: strings.TrimSpace(in.PaternalSurname),
		MaternalSurname: optional(in.MaternalSurname),
		BirthDate:       birth,
		CURP:            curp,
		NSS:             nss,
		Sex:             in.Sex,
		MaritalStatus:   optional(in.MaritalStatus),
		Address:         optional(in.Address),
		Email:           strings.TrimSpace(in.Email),
		Phone:           phone,
	}, nil
}

func (s *registrationService) hashCredentials(in CredentialsInput) (string, string, error) {
	username := strings.TrimSpace(in.Username)
	if err := firstError(required("username", username), maxLen("username", username, 100)); err != nil {
		return "", "", err
	}
	if strings.ContainsAny(username, " \t\n") {
		return "", "", invalid("username", "cannot contain spaces")
	}
	if len(in.Password) < minPasswordLength {
		return "", "", invalid("password", "must be at least 6 characters")
	}
	if len(in.Password) > MaxPasswordBytes {
		return "", "", invalid("password", "is too long")
	}
	if in.Password != in.PasswordConfirm {
		return "", "", invalid("password_confirm", "passwords do not match")
	}
	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return "", "", invalid("password", "cannot be hashed")
	}
	return username, hash, nil
}

func (s *registrationService) RegisterPatient(ctx context.Context, in PatientInput) (*domain.Patient, error) {
	p, err := s.buildPatient(in)
	if err != nil {
		return nil, err
	}
	id, err := s.patients.CreatePatient(ctx, p)
	if err != nil {
		return nil, storeError(s.logger, "create patient", err)
	}
	p.ID = id
	s.logger.Info("Patient registered", zap.Int64("patient_id", id))
	return p, nil
}

func (s *registrationService) SelfRegisterPatient(ctx context.Context, in SelfRegistrationInput) (*Registration, error) {
	p, err := s.buildPatient(in.PatientInput)
	if err != nil {
		return nil, err
	}
	if p.MaternalSurname == nil {
		return nil, invalid("apellido_materno", "is required")
	}
	if p.Phone == nil {
		return nil, invalid("telefono", "is required")
	}
	if p.Address == nil {
		return nil, invalid("domicilio", "is required")
	}
	username, hash, err := s.hashCredentials(CredentialsInput{
		Username: in.Username, Password: in.Password, PasswordConfirm: in.PasswordConfirm,
	})
	if err != nil {
		return nil, err
	}

	patientID, userID, err := s.patients.RegisterPatientWithUser(ctx, p, domain.NewUser{
		Username:     username,
		PasswordHash: hash,
		Role:         domain.RolePatient,
	})
	if err != nil {
		return nil, storeError(s.logger, "register patient with user", err)
	}
	s.logger.Info("Patient self-registered",
		zap.Int64("patient_id", patientID),
		zap.Int64("user_id", userID),
	)
	return &Registration{PatientID: patientID, UserID: userID}, nil
}

func (s *registrationService) CreatePatientUser(ctx context.Context, patientID int64, in CredentialsInput) (int64, error) {
	username, hash, err := s.hashCredentials(in)
	if err != nil {
		return 0, err
	}
	id, err := s.users.CreatePatientUser(ctx, patientID, domain.NewUser{Username: username, PasswordHash: hash, Role: domain.RolePatient})
	if err != nil {
		return 0, storeError(s.logger, "create patient user", err)
	}
	s.logger.Info("Patient user created", zap.Int64("patient_id", patientID), zap.Int64("user_id", id))
	return id, nil
}

func (s *registrationService) RegisterClinician(ctx context.Context, in ClinicianInput) (*domain.Clinician, error) {
	if err := firstError(
		required("nombre", in.FirstName),
		maxLen("nombre", in.FirstName, 100),
		required("apellido_paterno", in.PaternalSurname),
		maxLen("apellido_paterno", in.PaternalSurname, 100),
		required("especialidad", in.Specialty),
		maxLen("especialidad", in.Specialty, 100),
		required("cedula_profesional", in.ProfessionalLicense),
		maxLen("cedula_profesional", in.ProfessionalLicense, 20),
		validEmail("email", strings.TrimSpace(in.Email)),
	); err != nil {
		return nil, err
	}
	c := &domain.Clinician{
		FirstName:           strings.TrimSpace(in.FirstName),
		PaternalSurname:     strings.TrimSpace(in.PaternalSurname),
		MaternalSurname:     optional(in.MaternalSurname),
		Specialty:           strings.TrimSpace(in.Specialty),
		ProfessionalLicense: strings.TrimSpace(in.ProfessionalLicense),
		SpecialtyLicense:    optional(in.SpecialtyLicense),
		University:          optional(in.University),
		Email:               strings.TrimSpace(in.Email),
	}
	id, err := s.clinicians.CreateClinician(ctx, c)
	if err != nil {
		return nil, storeError(s.logger, "create clinician", err)
	}
	c.ID = id
	s.logger.Info("Clinician registered", zap.Int64("clinician_id", id))
	return c, nil
}

func (s *registrationService) CreateClinicianUser(ctx context.Context, clinicianID int64, in CredentialsInput) (int64, error) {
	username, hash, err := s.hashCredentials(in)
	if err != nil {
		return 0, err
	}
	id, err := s.users.CreateClinicianUser(ctx, clinicianID, domain.NewUser{Username: username, PasswordHash: hash, Role: domain.RoleClinician})
	if err != nil {
		return 0, storeError(s.logger, "create clinician user", err)
	}
	s.logger.Info("Clinician user created", zap.Int64("clinician_id", clinicianID), zap.Int64("user_id", id))
	return id, nil
}

func (s *registrationService) ListPatients(ctx context.Context) ([]domain.Patient, error) {
	out, err := s.patients.ListPatients(ctx)
	if err != nil {
		return nil, storeError(s.logger, "list patients", err)
	}
	return out, nil
}

func (s *registrationService) ListClinicians(ctx context.Context) ([]domain.Clinician, error) {
	out, err := s.clinicians.ListClinicians(ctx)
	if err != nil {
		return nil, storeError(s.logger, "list clinicians", err)
	}
	return out, nil
}

func (s *registrationService) AssignClinician(ctx context.Context, patientID, clinicianID int64) error {
	if err := s.patients.AssignClinician(ctx, patientID, clinicianID); err != nil {
		return storeError(s.logger, "assign clinician", err)
	}
	s.logger.Info("Clinician assigned",
		zap.Int64("patient_id", patientID),
		zap.Int64("clinician_id", clinicianID),
	)
	return nil
}

func (s *registrationService) EnsureAdmin(ctx context.Context, username, password string) (bool, error) {
	exists, err := s.users.UsernameExists(ctx, username)
	if err != nil {
		return false, storeError(s.logger, "check admin username", err)
	}
	if exists {
		return false, nil
	}
	hash, err := s.hasher.Hash(password)
	if err != nil {
		return false, invalid("password", "cannot be hashed")
	}
	if _, err := s.users.CreateUser(ctx, domain.NewUser{Username: username, PasswordHash: hash, Role: domain.RoleAdministrator}); err != nil {
		return false, storeError(s.logger, "create admin", err)
	}
	s.logger.Info("Administrator seeded", zap.String("username", username))
	return true, nil
}
