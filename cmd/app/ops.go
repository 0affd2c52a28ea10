package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/viray-carlos-miguel/center-patient/internal/adapters/db/gormdb"
	"github.com/viray-carlos-miguel/center-patient/internal/application"
	"github.com/viray-carlos-miguel/center-patient/internal/config"
	"github.com/viray-carlos-miguel/center-patient/internal/domain"
)

// openStore connects to the configured database and wires the record store
// with the log audit sink. The returned func closes the connection pool.
func openStore(ctx context.Context, cfg config.Config, log zerolog.Logger, migrate bool) (*application.ClinicStore, func() error, error) {
	db, err := gormdb.Open(cfg.DatabaseDriver, cfg.DatabaseURL)
	if err != nil {
		return nil, nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, nil, err
	}
	if migrate {
		if err := gormdb.RunMigrations(ctx, db); err != nil {
			_ = sqlDB.Close()
			return nil, nil, fmt.Errorf("run migrations: %w", err)
		}
	}

	store := application.NewClinicStore(
		gormdb.NewClinicRepository(db),
		application.WithAuditSink(application.NewLogSink(log)),
		application.WithLogger(log),
		application.WithTimeout(cfg.OperationTimeout),
	)
	return store, sqlDB.Close, nil
}

// checkDatabase reports whether the configured database is there and answers.
// A SQLite file that does not exist yet counts as unreachable; opening it
// would silently create an empty database.
func checkDatabase(ctx context.Context, cfg config.Config, log zerolog.Logger) error {
	if cfg.DatabaseDriver == gormdb.DriverSQLite {
		if path := gormdb.SQLiteFile(cfg.DatabaseURL); path != "" {
			if _, err := os.Stat(path); err != nil {
				return fmt.Errorf("sqlite database %s: %w (run migrate to create it)", path, err)
			}
		}
	}
	store, closeStore, err := openStore(ctx, cfg, log, false)
	if err != nil {
		return err
	}
	defer func() { _ = closeStore() }()
	return store.Ping(ctx)
}

type demoUser struct {
	email     string
	password  string
	role      domain.Role
	firstName string
	lastName  string
}

var demoUsers = []demoUser{
	{"admin@medical.com", "admin123", domain.RoleAdmin, "System", "Admin"},
	{"dr.smith@medical.com", "doctor123", domain.RoleDoctor, "John", "Smith"},
	{"dr.jones@medical.com", "neurology123", domain.RoleDoctor, "Sarah", "Jones"},
	{"patient.demo@medical.com", "patient123", domain.RolePatient, "Demo", "Patient"},
	{"john.doe@example.com", "password123", domain.RolePatient, "John", "Doe"},
}

var demoDoctors = map[string]application.DoctorProfileInput{
	"dr.smith@medical.com": {LicenseNumber: "MD-100234", Specialization: "General Medicine", YearsOfExperience: 12},
	"dr.jones@medical.com": {LicenseNumber: "MD-200871", Specialization: "Neurology", YearsOfExperience: 8},
}

var demoPatients = map[string]application.PatientProfileInput{
	"patient.demo@medical.com": {BloodType: "O+", Allergies: "Penicillin", EmergencyContact: "Jane Patient, 555-0101"},
	"john.doe@example.com":     {BloodType: "A-", EmergencyContact: "Mary Doe, 555-0199"},
}

var demoCases = map[string]application.CreateCaseInput{
	"patient.demo@medical.com": {
		Title:    "Persistent Headache with Fever",
		Symptoms: "Headache for 3 days, fever 38.5C, fatigue, mild dizziness",
		Severity: domain.SeverityMedium,
	},
	"john.doe@example.com": {
		Title:    "Seasonal Allergy Symptoms",
		Symptoms: "Sneezing, runny nose, itchy eyes, congestion for 2 weeks",
		Severity: domain.SeverityLow,
	},
}

type seedResult struct {
	Users int
	Cases int
}

// seedDemo inserts the demo accounts. Existing emails are left alone, so the
// command can be re-run against a populated database.
func seedDemo(ctx context.Context, store *application.ClinicStore) (seedResult, error) {
	var res seedResult
	ids := make(map[string]string, len(demoUsers))
	fresh := make(map[string]bool, len(demoUsers))

	for _, du := range demoUsers {
		existing, err := store.GetUserByEmail(ctx, du.email)
		if err == nil {
			ids[du.email] = existing.ID
			continue
		}
		if !errors.Is(err, domain.ErrReferenceNotFound) {
			return res, err
		}

		hash, err := application.HashPassword(du.password)
		if err != nil {
			return res, err
		}
		u, err := store.CreateUser(ctx, application.CreateUserInput{
			Email:        du.email,
			PasswordHash: hash,
			Role:         du.role,
			FirstName:    du.firstName,
			LastName:     du.lastName,
		})
		if err != nil {
			return res, fmt.Errorf("seed %s: %w", du.email, err)
		}
		ids[du.email] = u.ID
		fresh[du.email] = true
		res.Users++
	}

	adminID := ids["admin@medical.com"]
	for email, in := range demoDoctors {
		if !fresh[email] {
			continue
		}
		in.UserID = ids[email]
		if _, err := store.AttachDoctorProfile(ctx, in); err != nil {
			return res, fmt.Errorf("seed doctor %s: %w", email, err)
		}
		if _, err := store.VerifyDoctor(ctx, in.UserID, adminID); err != nil {
			return res, fmt.Errorf("verify doctor %s: %w", email, err)
		}
	}

	for email, in := range demoPatients {
		if !fresh[email] {
			continue
		}
		in.UserID = ids[email]
		if _, err := store.AttachPatientProfile(ctx, in); err != nil {
			return res, fmt.Errorf("seed patient %s: %w", email, err)
		}

		caseIn, ok := demoCases[email]
		if !ok {
			continue
		}
		caseIn.PatientID = in.UserID
		mc, err := store.CreateMedicalCase(ctx, caseIn)
		if err != nil {
			return res, fmt.Errorf("seed case for %s: %w", email, err)
		}
		res.Cases++
		if caseIn.Severity == domain.SeverityMedium {
			if _, err := store.AddAssessment(ctx, mc.ID, "symptom-triage-v1", "Likely viral infection; rule out meningitis if neck stiffness develops.", 0.72); err != nil {
				return res, fmt.Errorf("seed assessment: %w", err)
			}
		}
	}

	return res, nil
}

type caseDetail struct {
	Case        domain.MedicalCase      `json:"case"`
	Assessments []domain.CaseAssessment `json:"assessments"`
	Diagnoses   []domain.CaseDiagnosis  `json:"diagnoses"`
}

func loadCaseDetail(ctx context.Context, store *application.ClinicStore, caseID string) (caseDetail, error) {
	mc, err := store.GetCase(ctx, caseID)
	if err != nil {
		return caseDetail{}, err
	}
	assessments, err := store.ListAssessments(ctx, caseID)
	if err != nil {
		return caseDetail{}, err
	}
	diagnoses, err := store.ListDiagnoses(ctx, caseID)
	if err != nil {
		return caseDetail{}, err
	}
	return caseDetail{Case: mc, Assessments: assessments, Diagnoses: diagnoses}, nil
}
