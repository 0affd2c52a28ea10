package gormdb

import (
	"time"

	"gorm.io/datatypes"
)

// Timestamps are written by the record store, never by gorm.

type UserModel struct {
	ID           string `gorm:"primaryKey"`
	Email        string `gorm:"not null;uniqueIndex"`
	PasswordHash string `gorm:"not null"`
	Role         string `gorm:"not null;index"`
	FirstName    string `gorm:"not null"`
	LastName     string `gorm:"not null"`
	DateOfBirth  *time.Time
	Phone        string
	Address      string
	IsActive     bool `gorm:"not null"`
	LastLoginAt  *time.Time
	CreatedAt    time.Time `gorm:"autoCreateTime:false"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime:false"`
}

func (UserModel) TableName() string { return "users" }

type DoctorModel struct {
	ID                string `gorm:"primaryKey"`
	UserID            string `gorm:"not null;uniqueIndex"`
	LicenseNumber     string `gorm:"not null;uniqueIndex"`
	Specialization    string `gorm:"not null"`
	YearsOfExperience int    `gorm:"not null"`
	IsVerified        bool   `gorm:"not null"`
	VerifiedBy        *string
	VerifiedAt        *time.Time
	CreatedAt         time.Time `gorm:"autoCreateTime:false"`
	UpdatedAt         time.Time `gorm:"autoUpdateTime:false"`
}

func (DoctorModel) TableName() string { return "doctors" }

type PatientModel struct {
	ID               string `gorm:"primaryKey"`
	UserID           string `gorm:"not null;uniqueIndex"`
	BloodType        string
	Allergies        string
	EmergencyContact string
	InsuranceInfo    string
	CreatedAt        time.Time `gorm:"autoCreateTime:false"`
	UpdatedAt        time.Time `gorm:"autoUpdateTime:false"`
}

func (PatientModel) TableName() string { return "patients" }

type CaseModel struct {
	ID        string  `gorm:"primaryKey"`
	PatientID string  `gorm:"not null;index"`
	DoctorID  *string `gorm:"index"`
	Title     string
	Symptoms  string `gorm:"not null"`
	Severity  string `gorm:"not null"`
	Status    string `gorm:"not null;index"`
	Priority  int    `gorm:"not null"`
	ClosedAt  *time.Time
	CreatedAt time.Time `gorm:"autoCreateTime:false"`
	UpdatedAt time.Time `gorm:"autoUpdateTime:false"`
}

func (CaseModel) TableName() string { return "medical_cases" }

type AssessmentModel struct {
	ID              string    `gorm:"primaryKey"`
	CaseID          string    `gorm:"not null;index"`
	AIModel         string    `gorm:"column:ai_model;not null"`
	Assessment      string    `gorm:"not null"`
	ConfidenceScore float64   `gorm:"not null"`
	CreatedAt       time.Time `gorm:"autoCreateTime:false"`
}

func (AssessmentModel) TableName() string { return "case_assessments" }

type DiagnosisModel struct {
	ID                    string  `gorm:"primaryKey"`
	CaseID                string  `gorm:"not null;index"`
	DoctorID              *string `gorm:"index"`
	Diagnosis             string  `gorm:"not null"`
	Notes                 string
	PrescribedMedications datatypes.JSON
	FollowUpDate          *time.Time
	CreatedAt             time.Time `gorm:"autoCreateTime:false"`
}

func (DiagnosisModel) TableName() string { return "case_diagnosis" }

type AppointmentModel struct {
	ID              string  `gorm:"primaryKey"`
	PatientID       string  `gorm:"not null;index"`
	DoctorID        *string `gorm:"index:idx_appointments_doctor_date"`
	CaseID          *string
	AppointmentDate string `gorm:"not null;index:idx_appointments_doctor_date"`
	StartTime       string `gorm:"not null"`
	DurationMinutes int    `gorm:"not null"`
	Reason          string
	Notes           string
	Status          string    `gorm:"not null"`
	CreatedAt       time.Time `gorm:"autoCreateTime:false"`
	UpdatedAt       time.Time `gorm:"autoUpdateTime:false"`
}

func (AppointmentModel) TableName() string { return "appointments" }

type PrescriptionModel struct {
	ID               string  `gorm:"primaryKey"`
	PatientID        string  `gorm:"not null;index"`
	DoctorID         *string `gorm:"index"`
	CaseID           *string
	MedicationName   string `gorm:"not null"`
	Dosage           string `gorm:"not null"`
	Frequency        string `gorm:"not null"`
	Duration         string
	Instructions     string
	RefillsRemaining int       `gorm:"not null"`
	Status           string    `gorm:"not null"`
	CreatedAt        time.Time `gorm:"autoCreateTime:false"`
	UpdatedAt        time.Time `gorm:"autoUpdateTime:false"`
}

func (PrescriptionModel) TableName() string { return "prescriptions" }

type AuditLogModel struct {
	ID        string  `gorm:"primaryKey"`
	UserID    *string `gorm:"index"`
	Action    string  `gorm:"not null"`
	Table     string  `gorm:"column:table_name;not null;index:idx_audit_record"`
	RecordID  string  `gorm:"not null;index:idx_audit_record"`
	OldValues datatypes.JSON
	NewValues datatypes.JSON
	IPAddress string    `gorm:"column:ip_address"`
	UserAgent string    `gorm:"column:user_agent"`
	CreatedAt time.Time `gorm:"autoCreateTime:false"`
}

func (AuditLogModel) TableName() string { return "audit_logs" }
