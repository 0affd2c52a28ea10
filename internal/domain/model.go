package domain

import (
	"encoding/json"
	"time"
)

type Role string

const (
	RolePatient Role = "patient"
	RoleDoctor  Role = "doctor"
	RoleAdmin   Role = "admin"
)

func (r Role) Valid() bool {
	switch r {
	case RolePatient, RoleDoctor, RoleAdmin:
		return true
	}
	return false
}

type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

func (s Severity) Valid() bool {
	switch s {
	case SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical:
		return true
	}
	return false
}

type CaseStatus string

const (
	CasePending     CaseStatus = "pending"
	CaseUnderReview CaseStatus = "under_review"
	CaseDiagnosed   CaseStatus = "diagnosed"
	CaseTreated     CaseStatus = "treated"
	CaseClosed      CaseStatus = "closed"
)

type AppointmentStatus string

const (
	AppointmentScheduled  AppointmentStatus = "scheduled"
	AppointmentConfirmed  AppointmentStatus = "confirmed"
	AppointmentInProgress AppointmentStatus = "in_progress"
	AppointmentCompleted  AppointmentStatus = "completed"
	AppointmentCancelled  AppointmentStatus = "cancelled"
	AppointmentNoShow     AppointmentStatus = "no_show"
)

type PrescriptionStatus string

const (
	PrescriptionActive    PrescriptionStatus = "active"
	PrescriptionCompleted PrescriptionStatus = "completed"
	PrescriptionCancelled PrescriptionStatus = "cancelled"
)

const (
	MinPriority     = 1
	MaxPriority     = 10
	DefaultPriority = 5

	DefaultAppointmentMinutes = 30
	MaxAppointmentMinutes     = 480
)

type User struct {
	ID           string     `json:"id"`
	Email        string     `json:"email"`
	PasswordHash string     `json:"-"`
	Role         Role       `json:"role"`
	FirstName    string     `json:"first_name"`
	LastName     string     `json:"last_name"`
	DateOfBirth  *time.Time `json:"date_of_birth,omitempty"`
	Phone        string     `json:"phone,omitempty"`
	Address      string     `json:"address,omitempty"`
	IsActive     bool       `json:"is_active"`
	LastLoginAt  *time.Time `json:"last_login_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

func (u User) FullName() string {
	if u.LastName == "" {
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}

type DoctorProfile struct {
	ID                string     `json:"id"`
	UserID            string     `json:"user_id"`
	LicenseNumber     string     `json:"license_number"`
	Specialization    string     `json:"specialization"`
	YearsOfExperience int        `json:"years_of_experience"`
	IsVerified        bool       `json:"is_verified"`
	VerifiedBy        *string    `json:"verified_by,omitempty"`
	VerifiedAt        *time.Time `json:"verified_at,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

type PatientProfile struct {
	ID               string    `json:"id"`
	UserID           string    `json:"user_id"`
	BloodType        string    `json:"blood_type,omitempty"`
	Allergies        string    `json:"allergies,omitempty"`
	EmergencyContact string    `json:"emergency_contact,omitempty"`
	InsuranceInfo    string    `json:"insurance_info,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

type MedicalCase struct {
	ID        string     `json:"id"`
	PatientID string     `json:"patient_id"`
	DoctorID  *string    `json:"doctor_id,omitempty"`
	Title     string     `json:"title"`
	Symptoms  string     `json:"symptoms"`
	Severity  Severity   `json:"severity"`
	Status    CaseStatus `json:"status"`
	Priority  int        `json:"priority"`
	ClosedAt  *time.Time `json:"closed_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

type CaseAssessment struct {
	ID              string    `json:"id"`
	CaseID          string    `json:"case_id"`
	AIModel         string    `json:"ai_model"`
	Assessment      string    `json:"assessment"`
	ConfidenceScore float64   `json:"confidence_score"`
	CreatedAt       time.Time `json:"created_at"`
}

type CaseDiagnosis struct {
	ID                    string          `json:"id"`
	CaseID                string          `json:"case_id"`
	DoctorID              *string         `json:"doctor_id,omitempty"`
	Diagnosis             string          `json:"diagnosis"`
	Notes                 string          `json:"notes,omitempty"`
	PrescribedMedications json.RawMessage `json:"prescribed_medications,omitempty"`
	FollowUpDate          *time.Time      `json:"follow_up_date,omitempty"`
	CreatedAt             time.Time       `json:"created_at"`
}

type Appointment struct {
	ID              string            `json:"id"`
	PatientID       string            `json:"patient_id"`
	DoctorID        *string           `json:"doctor_id,omitempty"`
	CaseID          *string           `json:"case_id,omitempty"`
	Date            string            `json:"appointment_date"`
	StartTime       string            `json:"start_time"`
	DurationMinutes int               `json:"duration_minutes"`
	Reason          string            `json:"reason,omitempty"`
	Notes           string            `json:"notes,omitempty"`
	Status          AppointmentStatus `json:"status"`
	CreatedAt       time.Time         `json:"created_at"`
	UpdatedAt       time.Time         `json:"updated_at"`
}

type Prescription struct {
	ID               string             `json:"id"`
	PatientID        string             `json:"patient_id"`
	DoctorID         *string            `json:"doctor_id,omitempty"`
	CaseID           *string            `json:"case_id,omitempty"`
	MedicationName   string             `json:"medication_name"`
	Dosage           string             `json:"dosage"`
	Frequency        string             `json:"frequency"`
	Duration         string             `json:"duration,omitempty"`
	Instructions     string             `json:"instructions,omitempty"`
	RefillsRemaining int                `json:"refills_remaining"`
	Status           PrescriptionStatus `json:"status"`
	CreatedAt        time.Time          `json:"created_at"`
	UpdatedAt        time.Time          `json:"updated_at"`
}

type AuditAction string

const (
	AuditCreate AuditAction = "create"
	AuditUpdate AuditAction = "update"
	AuditDelete AuditAction = "delete"
)

type AuditLog struct {
	ID        string          `json:"id"`
	UserID    *string         `json:"user_id,omitempty"`
	Action    AuditAction     `json:"action"`
	TableName string          `json:"table_name"`
	RecordID  string          `json:"record_id"`
	OldValues json.RawMessage `json:"old_values,omitempty"`
	NewValues json.RawMessage `json:"new_values,omitempty"`
	IPAddress string          `json:"ip_address,omitempty"`
	UserAgent string          `json:"user_agent,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}

type AuditFilter struct {
	TableName string
	RecordID  string
	UserID    string
	Limit     int
}

type CaseFilter struct {
	PatientID string
	DoctorID  string
	Statuses  []CaseStatus
	Limit     int
}

type UserFilter struct {
	Role  Role
	Query string
	Limit int
}

type Stats struct {
	CasesByStatus map[CaseStatus]int64 `json:"cases_by_status"`
	UsersByRole   map[Role]int64       `json:"users_by_role"`
	TotalCases    int64                `json:"total_cases"`
	TotalUsers    int64                `json:"total_users"`
}
