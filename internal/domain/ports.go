package domain

import (
	"context"
	"time"
)

// ClinicRepository is the persistence port of the record store. Implementations
// must enforce uniqueness, foreign-key and check constraints themselves and
// report violations with the sentinel kinds in errors.go.
type ClinicRepository interface {
	// InTx runs fn inside one transaction. fn receives a repository bound to it.
	InTx(ctx context.Context, fn func(tx ClinicRepository) error) error
	Ping(ctx context.Context) error

	CreateUser(ctx context.Context, value User) (User, error)
	GetUserByID(ctx context.Context, id string) (User, error)
	GetUserByEmail(ctx context.Context, email string) (User, error)
	// LockUser reads the user row and holds a write lock on it until the
	// surrounding transaction ends.
	LockUser(ctx context.Context, id string) (User, error)
	UpdateUser(ctx context.Context, value User) (User, error)
	DeleteUser(ctx context.Context, id string) error
	ListUsers(ctx context.Context, filter UserFilter) ([]User, error)

	CreateDoctorProfile(ctx context.Context, value DoctorProfile) (DoctorProfile, error)
	GetDoctorProfile(ctx context.Context, userID string) (DoctorProfile, error)
	UpdateDoctorProfile(ctx context.Context, value DoctorProfile) (DoctorProfile, error)
	DeleteDoctorProfile(ctx context.Context, userID string) error
	CountVerifiedBy(ctx context.Context, userID string) (int64, error)

	CreatePatientProfile(ctx context.Context, value PatientProfile) (PatientProfile, error)
	GetPatientProfile(ctx context.Context, userID string) (PatientProfile, error)
	DeletePatientProfile(ctx context.Context, userID string) error

	CreateCase(ctx context.Context, value MedicalCase) (MedicalCase, error)
	GetCase(ctx context.Context, id string) (MedicalCase, error)
	UpdateCase(ctx context.Context, value MedicalCase) (MedicalCase, error)
	ListCases(ctx context.Context, filter CaseFilter) ([]MedicalCase, error)
	ReviewQueue(ctx context.Context, limit int) ([]MedicalCase, error)
	// DeleteCasesByPatient removes the patient's cases with their assessments
	// and diagnoses. Appointments and prescriptions that pointed at those cases
	// lose the link.
	DeleteCasesByPatient(ctx context.Context, patientID string) (int64, error)

	CreateAssessment(ctx context.Context, value CaseAssessment) (CaseAssessment, error)
	ListAssessments(ctx context.Context, caseID string) ([]CaseAssessment, error)
	CreateDiagnosis(ctx context.Context, value CaseDiagnosis) (CaseDiagnosis, error)
	ListDiagnoses(ctx context.Context, caseID string) ([]CaseDiagnosis, error)

	CreateAppointment(ctx context.Context, value Appointment) (Appointment, error)
	GetAppointment(ctx context.Context, id string) (Appointment, error)
	UpdateAppointment(ctx context.Context, value Appointment) (Appointment, error)
	ListDoctorAppointments(ctx context.Context, doctorID, date string, statuses []AppointmentStatus) ([]Appointment, error)
	DeleteAppointmentsByPatient(ctx context.Context, patientID string) (int64, error)

	CreatePrescription(ctx context.Context, value Prescription) (Prescription, error)
	GetPrescription(ctx context.Context, id string) (Prescription, error)
	UpdatePrescription(ctx context.Context, value Prescription) (Prescription, error)
	ListPrescriptions(ctx context.Context, patientID string) ([]Prescription, error)
	DeletePrescriptionsByPatient(ctx context.Context, patientID string) (int64, error)

	// DetachDoctor nulls every non-owning reference to the doctor on cases,
	// diagnoses, appointments and prescriptions, stamping updated_at with at.
	DetachDoctor(ctx context.Context, doctorID string, at time.Time) error

	CreateAuditLog(ctx context.Context, value AuditLog) error
	ListAuditLogs(ctx context.Context, filter AuditFilter) ([]AuditLog, error)

	CountCasesByStatus(ctx context.Context) (map[CaseStatus]int64, error)
	CountUsersByRole(ctx context.Context) (map[Role]int64, error)
}

// AuditSink is told about every committed audit entry.
type AuditSink interface {
	Record(ctx context.Context, entry AuditLog)
}
