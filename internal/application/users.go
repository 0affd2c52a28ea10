package application

import (
	"context"
	"strings"
	"time"

	"github.com/viray-carlos-miguel/center-patient/internal/domain"
)

const (
	tableUsers    = "users"
	tableDoctors  = "doctors"
	tablePatients = "patients"
)

type CreateUserInput struct {
	Email        string
	PasswordHash string
	Role         domain.Role
	FirstName    string
	LastName     string
	DateOfBirth  *time.Time
	Phone        string
	Address      string
}

func (s *ClinicStore) CreateUser(ctx context.Context, in CreateUserInput) (domain.User, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))
	var out domain.User
	err := s.mutate(ctx, "create user", func(ctx context.Context, tx domain.ClinicRepository, now time.Time) (change, error) {
		if email == "" || !strings.Contains(email, "@") {
			return change{}, domain.Validationf("a valid email is required")
		}
		if !in.Role.Valid() {
			return change{}, domain.Validationf("role %q is not one of patient, doctor, admin", in.Role)
		}
		if strings.TrimSpace(in.FirstName) == "" || strings.TrimSpace(in.LastName) == "" {
			return change{}, domain.Validationf("first and last name are required")
		}
		if in.PasswordHash == "" {
			return change{}, domain.Validationf("password hash is required")
		}

		u := domain.User{
			ID:           s.newID(),
			Email:        email,
			PasswordHash: in.PasswordHash,
			Role:         in.Role,
			FirstName:    strings.TrimSpace(in.FirstName),
			LastName:     strings.TrimSpace(in.LastName),
			DateOfBirth:  in.DateOfBirth,
			Phone:        in.Phone,
			Address:      in.Address,
			IsActive:     true,
		}
		beforeCommit(&u, now)

		var err error
		out, err = tx.CreateUser(ctx, u)
		if err != nil {
			return change{}, err
		}
		return created(tableUsers, out.ID, out), nil
	})
	return out, err
}

// RecordLogin stamps the user's last successful sign-in.
func (s *ClinicStore) RecordLogin(ctx context.Context, userID string) (domain.User, error) {
	return s.updateUser(ctx, "record login", userID, func(u *domain.User, now time.Time) error {
		if !u.IsActive {
			return domain.Preconditionf("user %s is inactive", u.ID)
		}
		u.LastLoginAt = &now
		return nil
	})
}

func (s *ClinicStore) SetUserActive(ctx context.Context, userID string, active bool) (domain.User, error) {
	return s.updateUser(ctx, "set user active", userID, func(u *domain.User, _ time.Time) error {
		u.IsActive = active
		return nil
	})
}

func (s *ClinicStore) updateUser(ctx context.Context, op, userID string, apply func(u *domain.User, now time.Time) error) (domain.User, error) {
	var out domain.User
	err := s.mutate(ctx, op, func(ctx context.Context, tx domain.ClinicRepository, now time.Time) (change, error) {
		before, err := tx.GetUserByID(ctx, userID)
		if err != nil {
			return change{}, err
		}
		u := before
		if err := apply(&u, now); err != nil {
			return change{}, err
		}
		beforeCommit(&u, now)
		out, err = tx.UpdateUser(ctx, u)
		if err != nil {
			return change{}, err
		}
		return updated(tableUsers, out.ID, before, out), nil
	})
	return out, err
}

// DeleteUser removes the user and everything the user owns. A patient takes
// their cases, appointments and prescriptions along; a doctor is detached from
// the records that merely reference them. Users still recorded as the verifier
// of a doctor profile cannot be deleted.
func (s *ClinicStore) DeleteUser(ctx context.Context, userID string) error {
	return s.mutate(ctx, "delete user", func(ctx context.Context, tx domain.ClinicRepository, now time.Time) (change, error) {
		before, err := tx.GetUserByID(ctx, userID)
		if err != nil {
			return change{}, err
		}
		verified, err := tx.CountVerifiedBy(ctx, userID)
		if err != nil {
			return change{}, err
		}
		if verified > 0 {
			return change{}, domain.Preconditionf("user %s verified %d doctor profile(s); reassign verification first", userID, verified)
		}

		if _, err := tx.DeleteCasesByPatient(ctx, userID); err != nil {
			return change{}, err
		}
		if _, err := tx.DeleteAppointmentsByPatient(ctx, userID); err != nil {
			return change{}, err
		}
		if _, err := tx.DeletePrescriptionsByPatient(ctx, userID); err != nil {
			return change{}, err
		}
		if err := tx.DetachDoctor(ctx, userID, now); err != nil {
			return change{}, err
		}
		if err := tx.DeletePatientProfile(ctx, userID); err != nil {
			return change{}, err
		}
		if err := tx.DeleteDoctorProfile(ctx, userID); err != nil {
			return change{}, err
		}
		if err := tx.DeleteUser(ctx, userID); err != nil {
			return change{}, err
		}
		return deleted(tableUsers, userID, before), nil
	})
}

func (s *ClinicStore) GetUser(ctx context.Context, userID string) (domain.User, error) {
	return read(ctx, s, "get user", func(ctx context.Context) (domain.User, error) {
		return s.repo.GetUserByID(ctx, userID)
	})
}

func (s *ClinicStore) GetUserByEmail(ctx context.Context, email string) (domain.User, error) {
	return read(ctx, s, "get user by email", func(ctx context.Context) (domain.User, error) {
		return s.repo.GetUserByEmail(ctx, email)
	})
}

func (s *ClinicStore) ListUsers(ctx context.Context, filter domain.UserFilter) ([]domain.User, error) {
	if filter.Role != "" && !filter.Role.Valid() {
		return nil, domain.WithOp("list users", domain.Validationf("unknown role %q", filter.Role))
	}
	filter.Limit = clampLimit(filter.Limit, 100, 1000)
	return read(ctx, s, "list users", func(ctx context.Context) ([]domain.User, error) {
		return s.repo.ListUsers(ctx, filter)
	})
}

type DoctorProfileInput struct {
	UserID            string
	LicenseNumber     string
	Specialization    string
	YearsOfExperience int
}

func (s *ClinicStore) AttachDoctorProfile(ctx context.Context, in DoctorProfileInput) (domain.DoctorProfile, error) {
	var out domain.DoctorProfile
	err := s.mutate(ctx, "attach doctor profile", func(ctx context.Context, tx domain.ClinicRepository, now time.Time) (change, error) {
		if strings.TrimSpace(in.LicenseNumber) == "" || strings.TrimSpace(in.Specialization) == "" {
			return change{}, domain.Validationf("license number and specialization are required")
		}
		if in.YearsOfExperience < 0 {
			return change{}, domain.Validationf("years of experience cannot be negative")
		}
		if _, err := requireRole(ctx, tx, in.UserID, domain.RoleDoctor); err != nil {
			return change{}, err
		}

		p := domain.DoctorProfile{
			ID:                s.newID(),
			UserID:            in.UserID,
			LicenseNumber:     strings.TrimSpace(in.LicenseNumber),
			Specialization:    strings.TrimSpace(in.Specialization),
			YearsOfExperience: in.YearsOfExperience,
		}
		beforeCommit(&p, now)

		var err error
		out, err = tx.CreateDoctorProfile(ctx, p)
		if err != nil {
			return change{}, err
		}
		return created(tableDoctors, out.ID, out), nil
	})
	return out, err
}

// VerifyDoctor marks the doctor's profile as verified by an active admin.
func (s *ClinicStore) VerifyDoctor(ctx context.Context, doctorID, verifierID string) (domain.DoctorProfile, error) {
	var out domain.DoctorProfile
	err := s.mutate(ctx, "verify doctor", func(ctx context.Context, tx domain.ClinicRepository, now time.Time) (change, error) {
		verifier, err := requireRole(ctx, tx, verifierID, domain.RoleAdmin)
		if err != nil {
			return change{}, err
		}
		if !verifier.IsActive {
			return change{}, domain.Preconditionf("verifier %s is inactive", verifierID)
		}
		before, err := tx.GetDoctorProfile(ctx, doctorID)
		if err != nil {
			return change{}, err
		}

		p := before
		p.IsVerified = true
		p.VerifiedBy = &verifier.ID
		p.VerifiedAt = &now
		beforeCommit(&p, now)

		out, err = tx.UpdateDoctorProfile(ctx, p)
		if err != nil {
			return change{}, err
		}
		return updated(tableDoctors, out.ID, before, out), nil
	})
	return out, err
}

type PatientProfileInput struct {
	UserID           string
	BloodType        string
	Allergies        string
	EmergencyContact string
	InsuranceInfo    string
}

func (s *ClinicStore) AttachPatientProfile(ctx context.Context, in PatientProfileInput) (domain.PatientProfile, error) {
	var out domain.PatientProfile
	err := s.mutate(ctx, "attach patient profile", func(ctx context.Context, tx domain.ClinicRepository, now time.Time) (change, error) {
		bloodType := strings.ToUpper(strings.TrimSpace(in.BloodType))
		if !domain.ValidBloodType(bloodType) {
			return change{}, domain.Validationf("blood type %q is not recognised", in.BloodType)
		}
		if _, err := requireRole(ctx, tx, in.UserID, domain.RolePatient); err != nil {
			return change{}, err
		}

		p := domain.PatientProfile{
			ID:               s.newID(),
			UserID:           in.UserID,
			BloodType:        bloodType,
			Allergies:        in.Allergies,
			EmergencyContact: in.EmergencyContact,
			InsuranceInfo:    in.InsuranceInfo,
		}
		beforeCommit(&p, now)

		var err error
		out, err = tx.CreatePatientProfile(ctx, p)
		if err != nil {
			return change{}, err
		}
		return created(tablePatients, out.ID, out), nil
	})
	return out, err
}

func (s *ClinicStore) GetDoctorProfile(ctx context.Context, userID string) (domain.DoctorProfile, error) {
	return read(ctx, s, "get doctor profile", func(ctx context.Context) (domain.DoctorProfile, error) {
		return s.repo.GetDoctorProfile(ctx, userID)
	})
}

func (s *ClinicStore) GetPatientProfile(ctx context.Context, userID string) (domain.PatientProfile, error) {
	return read(ctx, s, "get patient profile", func(ctx context.Context) (domain.PatientProfile, error) {
		return s.repo.GetPatientProfile(ctx, userID)
	})
}

// requireRole loads the user and fails with PreconditionFailed when the role
// does not match. A blank id resolves to no user.
func requireRole(ctx context.Context, tx domain.ClinicRepository, userID string, role domain.Role) (domain.User, error) {
	if strings.TrimSpace(userID) == "" {
		return domain.User{}, domain.NotFoundf("%s id is empty", role)
	}
	u, err := tx.GetUserByID(ctx, userID)
	if err != nil {
		return domain.User{}, err
	}
	if u.Role != role {
		return domain.User{}, domain.Preconditionf("user %s is a %s, not a %s", userID, u.Role, role)
	}
	return u, nil
}
