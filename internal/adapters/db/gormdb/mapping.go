package gormdb

import (
	"encoding/json"

	"github.com/viray-carlos-miguel/center-patient/internal/domain"
	"gorm.io/datatypes"
)

func jsonColumn(raw json.RawMessage) datatypes.JSON {
	if len(raw) == 0 {
		return nil
	}
	return datatypes.JSON(raw)
}

func jsonValue(col datatypes.JSON) json.RawMessage {
	if len(col) == 0 {
		return nil
	}
	return json.RawMessage(col)
}

func userModel(v domain.User) UserModel {
	return UserModel{
		ID:           v.ID,
		Email:        v.Email,
		PasswordHash: v.PasswordHash,
		Role:         string(v.Role),
		FirstName:    v.FirstName,
		LastName:     v.LastName,
		DateOfBirth:  v.DateOfBirth,
		Phone:        v.Phone,
		Address:      v.Address,
		IsActive:     v.IsActive,
		LastLoginAt:  v.LastLoginAt,
		CreatedAt:    v.CreatedAt,
		UpdatedAt:    v.UpdatedAt,
	}
}

func userDomain(m UserModel) domain.User {
	return domain.User{
		ID:           m.ID,
		Email:        m.Email,
		PasswordHash: m.PasswordHash,
		Role:         domain.Role(m.Role),
		FirstName:    m.FirstName,
		LastName:     m.LastName,
		DateOfBirth:  m.DateOfBirth,
		Phone:        m.Phone,
		Address:      m.Address,
		IsActive:     m.IsActive,
		LastLoginAt:  m.LastLoginAt,
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
}

func doctorModel(v domain.DoctorProfile) DoctorModel {
	return DoctorModel{
		ID:                v.ID,
		UserID:            v.UserID,
		LicenseNumber:     v.LicenseNumber,
		Specialization:    v.Specialization,
		YearsOfExperience: v.YearsOfExperience,
		IsVerified:        v.IsVerified,
		VerifiedBy:        v.VerifiedBy,
		VerifiedAt:        v.VerifiedAt,
		CreatedAt:         v.CreatedAt,
		UpdatedAt:         v.UpdatedAt,
	}
}

func doctorDomain(m DoctorModel) domain.DoctorProfile {
	return domain.DoctorProfile{
		ID:                m.ID,
		UserID:            m.UserID,
		LicenseNumber:     m.LicenseNumber,
		Specialization:    m.Specialization,
		YearsOfExperience: m.YearsOfExperience,
		IsVerified:        m.IsVerified,
		VerifiedBy:        m.VerifiedBy,
		VerifiedAt:        m.VerifiedAt,
		CreatedAt:         m.CreatedAt,
		UpdatedAt:         m.UpdatedAt,
	}
}

func patientModel(v domain.PatientProfile) PatientModel {
	return PatientModel{
		ID:               v.ID,
		UserID:           v.UserID,
		BloodType:        v.BloodType,
		Allergies:        v.Allergies,
		EmergencyContact: v.EmergencyContact,
		InsuranceInfo:    v.InsuranceInfo,
		CreatedAt:        v.CreatedAt,
		UpdatedAt:        v.UpdatedAt,
	}
}

func patientDomain(m PatientModel) domain.PatientProfile {
	return domain.PatientProfile{
		ID:               m.ID,
		UserID:           m.UserID,
		BloodType:        m.BloodType,
		Allergies:        m.Allergies,
		EmergencyContact: m.EmergencyContact,
		InsuranceInfo:    m.InsuranceInfo,
		CreatedAt:        m.CreatedAt,
		UpdatedAt:        m.UpdatedAt,
	}
}

func caseModel(v domain.MedicalCase) CaseModel {
	return CaseModel{
		ID:        v.ID,
		PatientID: v.PatientID,
		DoctorID:  v.DoctorID,
		Title:     v.Title,
		Symptoms:  v.Symptoms,
		Severity:  string(v.Severity),
		Status:    string(v.Status),
		Priority:  v.Priority,
		ClosedAt:  v.ClosedAt,
		CreatedAt: v.CreatedAt,
		UpdatedAt: v.UpdatedAt,
	}
}

func caseDomain(m CaseModel) domain.MedicalCase {
	return domain.MedicalCase{
		ID:        m.ID,
		PatientID: m.PatientID,
		DoctorID:  m.DoctorID,
		Title:     m.Title,
		Symptoms:  m.Symptoms,
		Severity:  domain.Severity(m.Severity),
		Status:    domain.CaseStatus(m.Status),
		Priority:  m.Priority,
		ClosedAt:  m.ClosedAt,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

func casesDomain(rows []CaseModel) []domain.MedicalCase {
	result := make([]domain.MedicalCase, 0, len(rows))
	for _, m := range rows {
		result = append(result, caseDomain(m))
	}
	return result
}

func assessmentDomain(m AssessmentModel) domain.CaseAssessment {
	return domain.CaseAssessment{
		ID:              m.ID,
		CaseID:          m.CaseID,
		AIModel:         m.AIModel,
		Assessment:      m.Assessment,
		ConfidenceScore: m.ConfidenceScore,
		CreatedAt:       m.CreatedAt,
	}
}

func diagnosisDomain(m DiagnosisModel) domain.CaseDiagnosis {
	return domain.CaseDiagnosis{
		ID:                    m.ID,
		CaseID:                m.CaseID,
		DoctorID:              m.DoctorID,
		Diagnosis:             m.Diagnosis,
		Notes:                 m.Notes,
		PrescribedMedications: jsonValue(m.PrescribedMedications),
		FollowUpDate:          m.FollowUpDate,
		CreatedAt:             m.CreatedAt,
	}
}

func appointmentModel(v domain.Appointment) AppointmentModel {
	return AppointmentModel{
		ID:              v.ID,
		PatientID:       v.PatientID,
		DoctorID:        v.DoctorID,
		CaseID:          v.CaseID,
		AppointmentDate: v.Date,
		StartTime:       v.StartTime,
		DurationMinutes: v.DurationMinutes,
		Reason:          v.Reason,
		Notes:           v.Notes,
		Status:          string(v.Status),
		CreatedAt:       v.CreatedAt,
		UpdatedAt:       v.UpdatedAt,
	}
}

func appointmentDomain(m AppointmentModel) domain.Appointment {
	return domain.Appointment{
		ID:              m.ID,
		PatientID:       m.PatientID,
		DoctorID:        m.DoctorID,
		CaseID:          m.CaseID,
		Date:            m.AppointmentDate,
		StartTime:       m.StartTime,
		DurationMinutes: m.DurationMinutes,
		Reason:          m.Reason,
		Notes:           m.Notes,
		Status:          domain.AppointmentStatus(m.Status),
		CreatedAt:       m.CreatedAt,
		UpdatedAt:       m.UpdatedAt,
	}
}

func prescriptionModel(v domain.Prescription) PrescriptionModel {
	return PrescriptionModel{
		ID:               v.ID,
		PatientID:        v.PatientID,
		DoctorID:         v.DoctorID,
		CaseID:           v.CaseID,
		MedicationName:   v.MedicationName,
		Dosage:           v.Dosage,
		Frequency:        v.Frequency,
		Duration:         v.Duration,
		Instructions:     v.Instructions,
		RefillsRemaining: v.RefillsRemaining,
		Status:           string(v.Status),
		CreatedAt:        v.CreatedAt,
		UpdatedAt:        v.UpdatedAt,
	}
}

func prescriptionDomain(m PrescriptionModel) domain.Prescription {
	return domain.Prescription{
		ID:               m.ID,
		PatientID:        m.PatientID,
		DoctorID:         m.DoctorID,
		CaseID:           m.CaseID,
		MedicationName:   m.MedicationName,
		Dosage:           m.Dosage,
		Frequency:        m.Frequency,
		Duration:         m.Duration,
		Instructions:     m.Instructions,
		RefillsRemaining: m.RefillsRemaining,
		Status:           domain.PrescriptionStatus(m.Status),
		CreatedAt:        m.CreatedAt,
		UpdatedAt:        m.UpdatedAt,
	}
}

func auditDomain(m AuditLogModel) domain.AuditLog {
	return domain.AuditLog{
		ID:        m.ID,
		UserID:    m.UserID,
		Action:    domain.AuditAction(m.Action),
		TableName: m.Table,
		RecordID:  m.RecordID,
		OldValues: jsonValue(m.OldValues),
		NewValues: jsonValue(m.NewValues),
		IPAddress: m.IPAddress,
		UserAgent: m.UserAgent,
		CreatedAt: m.CreatedAt,
	}
}
