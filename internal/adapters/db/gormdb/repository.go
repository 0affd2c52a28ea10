package gormdb

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/viray-carlos-miguel/center-patient/internal/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ClinicRepository struct {
	db *gorm.DB
}

func NewClinicRepository(db *gorm.DB) *ClinicRepository {
	return &ClinicRepository{db: db}
}

func (r *ClinicRepository) InTx(ctx context.Context, fn func(tx domain.ClinicRepository) error) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&ClinicRepository{db: tx})
	})
	return classify(err)
}

func (r *ClinicRepository) Ping(ctx context.Context) error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return domain.Unavailable(err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return domain.Unavailable(err)
	}
	return nil
}

// resolvable reports whether id can name a row. PostgreSQL keys are UUID
// typed, so any other string can never match and would fail the cast.
func (r *ClinicRepository) resolvable(ids ...string) bool {
	if r.db.Dialector.Name() != DriverPostgres {
		return true
	}
	for _, id := range ids {
		if _, err := uuid.Parse(id); err != nil {
			return false
		}
	}
	return true
}

// update writes every column of m except the primary key and created_at, and
// reports a missing row as not found.
func (r *ClinicRepository) update(ctx context.Context, m any, entity, id string) error {
	res := r.db.WithContext(ctx).Model(m).Select("*").Omit("ID", "CreatedAt").Updates(m)
	if res.Error != nil {
		return classify(res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.NotFoundf("%s %s not found", entity, id)
	}
	return nil
}

func (r *ClinicRepository) CreateUser(ctx context.Context, value domain.User) (domain.User, error) {
	m := userModel(value)
	m.Email = strings.ToLower(strings.TrimSpace(m.Email))
	if err := r.db.WithContext(ctx).Create(&m).Error; err != nil {
		return domain.User{}, classify(err)
	}
	return userDomain(m), nil
}

func (r *ClinicRepository) GetUserByID(ctx context.Context, id string) (domain.User, error) {
	if !r.resolvable(id) {
		return domain.User{}, domain.NotFoundf("user %s not found", id)
	}
	var m UserModel
	if err := r.db.WithContext(ctx).First(&m, "id = ?", id).Error; err != nil {
		return domain.User{}, notFound(err, "user", id)
	}
	return userDomain(m), nil
}

func (r *ClinicRepository) GetUserByEmail(ctx context.Context, email string) (domain.User, error) {
	var m UserModel
	email = strings.ToLower(strings.TrimSpace(email))
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&m).Error; err != nil {
		return domain.User{}, notFound(err, "user", email)
	}
	return userDomain(m), nil
}

func (r *ClinicRepository) LockUser(ctx context.Context, id string) (domain.User, error) {
	if !r.resolvable(id) {
		return domain.User{}, domain.NotFoundf("user %s not found", id)
	}
	q := r.db.WithContext(ctx)
	if q.Dialector.Name() != DriverSQLite {
		// SQLite has no row locks; its transactions already hold the write lock.
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var m UserModel
	if err := q.First(&m, "id = ?", id).Error; err != nil {
		return domain.User{}, notFound(err, "user", id)
	}
	return userDomain(m), nil
}

func (r *ClinicRepository) UpdateUser(ctx context.Context, value domain.User) (domain.User, error) {
	m := userModel(value)
	if err := r.update(ctx, &m, "user", m.ID); err != nil {
		return domain.User{}, err
	}
	return r.GetUserByID(ctx, m.ID)
}

func (r *ClinicRepository) DeleteUser(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&UserModel{})
	if res.Error != nil {
		return classify(res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.NotFoundf("user %s not found", id)
	}
	return nil
}

func (r *ClinicRepository) ListUsers(ctx context.Context, filter domain.UserFilter) ([]domain.User, error) {
	q := r.db.WithContext(ctx).Model(&UserModel{})
	if filter.Role != "" {
		q = q.Where("role = ?", string(filter.Role))
	}
	if strings.TrimSpace(filter.Query) != "" {
		like := "%" + strings.ToLower(strings.TrimSpace(filter.Query)) + "%"
		q = q.Where("LOWER(email) LIKE ? OR LOWER(first_name) LIKE ? OR LOWER(last_name) LIKE ?", like, like, like)
	}
	rows := make([]UserModel, 0)
	if err := q.Order("created_at DESC").Scopes(limit(filter.Limit)).Find(&rows).Error; err != nil {
		return nil, classify(err)
	}
	result := make([]domain.User, 0, len(rows))
	for _, m := range rows {
		result = append(result, userDomain(m))
	}
	return result, nil
}

func (r *ClinicRepository) CreateDoctorProfile(ctx context.Context, value domain.DoctorProfile) (domain.DoctorProfile, error) {
	m := doctorModel(value)
	if err := r.db.WithContext(ctx).Create(&m).Error; err != nil {
		return domain.DoctorProfile{}, classify(err)
	}
	return doctorDomain(m), nil
}

func (r *ClinicRepository) GetDoctorProfile(ctx context.Context, userID string) (domain.DoctorProfile, error) {
	if !r.resolvable(userID) {
		return domain.DoctorProfile{}, domain.NotFoundf("doctor profile for user %s not found", userID)
	}
	var m DoctorModel
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&m).Error; err != nil {
		return domain.DoctorProfile{}, notFound(err, "doctor profile for user", userID)
	}
	return doctorDomain(m), nil
}

func (r *ClinicRepository) UpdateDoctorProfile(ctx context.Context, value domain.DoctorProfile) (domain.DoctorProfile, error) {
	m := doctorModel(value)
	if err := r.update(ctx, &m, "doctor profile", m.ID); err != nil {
		return domain.DoctorProfile{}, err
	}
	return r.GetDoctorProfile(ctx, m.UserID)
}

func (r *ClinicRepository) DeleteDoctorProfile(ctx context.Context, userID string) error {
	return classify(r.db.WithContext(ctx).Where("user_id = ?", userID).Delete(&DoctorModel{}).Error)
}

func (r *ClinicRepository) CountVerifiedBy(ctx context.Context, userID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&DoctorModel{}).Where("verified_by = ?", userID).Count(&count).Error
	return count, classify(err)
}

func (r *ClinicRepository) CreatePatientProfile(ctx context.Context, value domain.PatientProfile) (domain.PatientProfile, error) {
	m := patientModel(value)
	if err := r.db.WithContext(ctx).Create(&m).Error; err != nil {
		return domain.PatientProfile{}, classify(err)
	}
	return patientDomain(m), nil
}

func (r *ClinicRepository) GetPatientProfile(ctx context.Context, userID string) (domain.PatientProfile, error) {
	if !r.resolvable(userID) {
		return domain.PatientProfile{}, domain.NotFoundf("patient profile for user %s not found", userID)
	}
	var m PatientModel
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&m).Error; err != nil {
		return domain.PatientProfile{}, notFound(err, "patient profile for user", userID)
	}
	return patientDomain(m), nil
}

func (r *ClinicRepository) DeletePatientProfile(ctx context.Context, userID string) error {
	return classify(r.db.WithContext(ctx).Where("user_id = ?", userID).Delete(&PatientModel{}).Error)
}

func (r *ClinicRepository) CreateCase(ctx context.Context, value domain.MedicalCase) (domain.MedicalCase, error) {
	m := caseModel(value)
	if err := r.db.WithContext(ctx).Create(&m).Error; err != nil {
		return domain.MedicalCase{}, classify(err)
	}
	return caseDomain(m), nil
}

func (r *ClinicRepository) GetCase(ctx context.Context, id string) (domain.MedicalCase, error) {
	if !r.resolvable(id) {
		return domain.MedicalCase{}, domain.NotFoundf("case %s not found", id)
	}
	var m CaseModel
	if err := r.db.WithContext(ctx).First(&m, "id = ?", id).Error; err != nil {
		return domain.MedicalCase{}, notFound(err, "case", id)
	}
	return caseDomain(m), nil
}

func (r *ClinicRepository) UpdateCase(ctx context.Context, value domain.MedicalCase) (domain.MedicalCase, error) {
	m := caseModel(value)
	if err := r.update(ctx, &m, "case", m.ID); err != nil {
		return domain.MedicalCase{}, err
	}
	return r.GetCase(ctx, m.ID)
}

func (r *ClinicRepository) ListCases(ctx context.Context, filter domain.CaseFilter) ([]domain.MedicalCase, error) {
	for _, id := range []string{filter.PatientID, filter.DoctorID} {
		if id != "" && !r.resolvable(id) {
			return []domain.MedicalCase{}, nil
		}
	}
	q := r.db.WithContext(ctx).Model(&CaseModel{})
	if filter.PatientID != "" {
		q = q.Where("patient_id = ?", filter.PatientID)
	}
	if filter.DoctorID != "" {
		q = q.Where("doctor_id = ?", filter.DoctorID)
	}
	if len(filter.Statuses) > 0 {
		q = q.Where("status IN ?", caseStatusStrings(filter.Statuses))
	}
	rows := make([]CaseModel, 0)
	if err := q.Order("created_at DESC").Scopes(limit(filter.Limit)).Find(&rows).Error; err != nil {
		return nil, classify(err)
	}
	return casesDomain(rows), nil
}

func (r *ClinicRepository) ReviewQueue(ctx context.Context, n int) ([]domain.MedicalCase, error) {
	rows := make([]CaseModel, 0)
	err := r.db.WithContext(ctx).
		Where("status IN ?", []string{string(domain.CasePending), string(domain.CaseUnderReview)}).
		Order("CASE status WHEN 'pending' THEN 0 ELSE 1 END").
		Order("priority ASC").
		Order("created_at ASC").
		Scopes(limit(n)).
		Find(&rows).Error
	if err != nil {
		return nil, classify(err)
	}
	return casesDomain(rows), nil
}

func (r *ClinicRepository) DeleteCasesByPatient(ctx context.Context, patientID string) (int64, error) {
	db := r.db.WithContext(ctx)
	caseIDs := db.Session(&gorm.Session{NewDB: true}).Model(&CaseModel{}).Select("id").Where("patient_id = ?", patientID)

	if err := db.Where("case_id IN (?)", caseIDs).Delete(&AssessmentModel{}).Error; err != nil {
		return 0, classify(err)
	}
	if err := db.Where("case_id IN (?)", caseIDs).Delete(&DiagnosisModel{}).Error; err != nil {
		return 0, classify(err)
	}
	if err := db.Model(&AppointmentModel{}).Where("case_id IN (?)", caseIDs).Update("case_id", nil).Error; err != nil {
		return 0, classify(err)
	}
	if err := db.Model(&PrescriptionModel{}).Where("case_id IN (?)", caseIDs).Update("case_id", nil).Error; err != nil {
		return 0, classify(err)
	}
	res := db.Where("patient_id = ?", patientID).Delete(&CaseModel{})
	if res.Error != nil {
		return 0, classify(res.Error)
	}
	return res.RowsAffected, nil
}

func (r *ClinicRepository) CreateAssessment(ctx context.Context, value domain.CaseAssessment) (domain.CaseAssessment, error) {
	m := AssessmentModel{
		ID:              value.ID,
		CaseID:          value.CaseID,
		AIModel:         value.AIModel,
		Assessment:      value.Assessment,
		ConfidenceScore: value.ConfidenceScore,
		CreatedAt:       value.CreatedAt,
	}
	if err := r.db.WithContext(ctx).Create(&m).Error; err != nil {
		return domain.CaseAssessment{}, classify(err)
	}
	return assessmentDomain(m), nil
}

func (r *ClinicRepository) ListAssessments(ctx context.Context, caseID string) ([]domain.CaseAssessment, error) {
	if !r.resolvable(caseID) {
		return []domain.CaseAssessment{}, nil
	}
	rows := make([]AssessmentModel, 0)
	if err := r.db.WithContext(ctx).Where("case_id = ?", caseID).Order("created_at ASC").Find(&rows).Error; err != nil {
		return nil, classify(err)
	}
	result := make([]domain.CaseAssessment, 0, len(rows))
	for _, m := range rows {
		result = append(result, assessmentDomain(m))
	}
	return result, nil
}

func (r *ClinicRepository) CreateDiagnosis(ctx context.Context, value domain.CaseDiagnosis) (domain.CaseDiagnosis, error) {
	m := DiagnosisModel{
		ID:                    value.ID,
		CaseID:                value.CaseID,
		DoctorID:              value.DoctorID,
		Diagnosis:             value.Diagnosis,
		Notes:                 value.Notes,
		PrescribedMedications: jsonColumn(value.PrescribedMedications),
		FollowUpDate:          value.FollowUpDate,
		CreatedAt:             value.CreatedAt,
	}
	if err := r.db.WithContext(ctx).Create(&m).Error; err != nil {
		return domain.CaseDiagnosis{}, classify(err)
	}
	return diagnosisDomain(m), nil
}

func (r *ClinicRepository) ListDiagnoses(ctx context.Context, caseID string) ([]domain.CaseDiagnosis, error) {
	if !r.resolvable(caseID) {
		return []domain.CaseDiagnosis{}, nil
	}
	rows := make([]DiagnosisModel, 0)
	if err := r.db.WithContext(ctx).Where("case_id = ?", caseID).Order("created_at ASC").Find(&rows).Error; err != nil {
		return nil, classify(err)
	}
	result := make([]domain.CaseDiagnosis, 0, len(rows))
	for _, m := range rows {
		result = append(result, diagnosisDomain(m))
	}
	return result, nil
}

func (r *ClinicRepository) CreateAppointment(ctx context.Context, value domain.Appointment) (domain.Appointment, error) {
	m := appointmentModel(value)
	if err := r.db.WithContext(ctx).Create(&m).Error; err != nil {
		return domain.Appointment{}, classify(err)
	}
	return appointmentDomain(m), nil
}

func (r *ClinicRepository) GetAppointment(ctx context.Context, id string) (domain.Appointment, error) {
	if !r.resolvable(id) {
		return domain.Appointment{}, domain.NotFoundf("appointment %s not found", id)
	}
	var m AppointmentModel
	if err := r.db.WithContext(ctx).First(&m, "id = ?", id).Error; err != nil {
		return domain.Appointment{}, notFound(err, "appointment", id)
	}
	return appointmentDomain(m), nil
}

func (r *ClinicRepository) UpdateAppointment(ctx context.Context, value domain.Appointment) (domain.Appointment, error) {
	m := appointmentModel(value)
	if err := r.update(ctx, &m, "appointment", m.ID); err != nil {
		return domain.Appointment{}, err
	}
	return r.GetAppointment(ctx, m.ID)
}

func (r *ClinicRepository) ListDoctorAppointments(ctx context.Context, doctorID, date string, statuses []domain.AppointmentStatus) ([]domain.Appointment, error) {
	if !r.resolvable(doctorID) {
		return []domain.Appointment{}, nil
	}
	q := r.db.WithContext(ctx).Where("doctor_id = ?", doctorID)
	if date != "" {
		q = q.Where("appointment_date = ?", date)
	}
	if len(statuses) > 0 {
		values := make([]string, 0, len(statuses))
		for _, s := range statuses {
			values = append(values, string(s))
		}
		q = q.Where("status IN ?", values)
	}
	rows := make([]AppointmentModel, 0)
	if err := q.Order("appointment_date ASC").Order("start_time ASC").Find(&rows).Error; err != nil {
		return nil, classify(err)
	}
	result := make([]domain.Appointment, 0, len(rows))
	for _, m := range rows {
		result = append(result, appointmentDomain(m))
	}
	return result, nil
}

func (r *ClinicRepository) DeleteAppointmentsByPatient(ctx context.Context, patientID string) (int64, error) {
	res := r.db.WithContext(ctx).Where("patient_id = ?", patientID).Delete(&AppointmentModel{})
	return res.RowsAffected, classify(res.Error)
}

func (r *ClinicRepository) CreatePrescription(ctx context.Context, value domain.Prescription) (domain.Prescription, error) {
	m := prescriptionModel(value)
	if err := r.db.WithContext(ctx).Create(&m).Error; err != nil {
		return domain.Prescription{}, classify(err)
	}
	return prescriptionDomain(m), nil
}

func (r *ClinicRepository) GetPrescription(ctx context.Context, id string) (domain.Prescription, error) {
	if !r.resolvable(id) {
		return domain.Prescription{}, domain.NotFoundf("prescription %s not found", id)
	}
	var m PrescriptionModel
	if err := r.db.WithContext(ctx).First(&m, "id = ?", id).Error; err != nil {
		return domain.Prescription{}, notFound(err, "prescription", id)
	}
	return prescriptionDomain(m), nil
}

func (r *ClinicRepository) UpdatePrescription(ctx context.Context, value domain.Prescription) (domain.Prescription, error) {
	m := prescriptionModel(value)
	if err := r.update(ctx, &m, "prescription", m.ID); err != nil {
		return domain.Prescription{}, err
	}
	return r.GetPrescription(ctx, m.ID)
}

func (r *ClinicRepository) ListPrescriptions(ctx context.Context, patientID string) ([]domain.Prescription, error) {
	if !r.resolvable(patientID) {
		return []domain.Prescription{}, nil
	}
	rows := make([]PrescriptionModel, 0)
	if err := r.db.WithContext(ctx).Where("patient_id = ?", patientID).Order("created_at DESC").Find(&rows).Error; err != nil {
		return nil, classify(err)
	}
	result := make([]domain.Prescription, 0, len(rows))
	for _, m := range rows {
		result = append(result, prescriptionDomain(m))
	}
	return result, nil
}

func (r *ClinicRepository) DeletePrescriptionsByPatient(ctx context.Context, patientID string) (int64, error) {
	res := r.db.WithContext(ctx).Where("patient_id = ?", patientID).Delete(&PrescriptionModel{})
	return res.RowsAffected, classify(res.Error)
}

func (r *ClinicRepository) DetachDoctor(ctx context.Context, doctorID string, at time.Time) error {
	db := r.db.WithContext(ctx)
	detach := map[string]any{"doctor_id": nil, "updated_at": at}
	if err := db.Model(&CaseModel{}).Where("doctor_id = ?", doctorID).Updates(detach).Error; err != nil {
		return classify(err)
	}
	if err := db.Model(&AppointmentModel{}).Where("doctor_id = ?", doctorID).Updates(detach).Error; err != nil {
		return classify(err)
	}
	if err := db.Model(&PrescriptionModel{}).Where("doctor_id = ?", doctorID).Updates(detach).Error; err != nil {
		return classify(err)
	}
	// Diagnoses are append-only and carry no updated_at.
	return classify(db.Model(&DiagnosisModel{}).Where("doctor_id = ?", doctorID).Update("doctor_id", nil).Error)
}

func (r *ClinicRepository) CreateAuditLog(ctx context.Context, value domain.AuditLog) error {
	m := AuditLogModel{
		ID:        value.ID,
		UserID:    value.UserID,
		Action:    string(value.Action),
		Table:     value.TableName,
		RecordID:  value.RecordID,
		OldValues: jsonColumn(value.OldValues),
		NewValues: jsonColumn(value.NewValues),
		IPAddress: value.IPAddress,
		UserAgent: value.UserAgent,
		CreatedAt: value.CreatedAt,
	}
	return classify(r.db.WithContext(ctx).Create(&m).Error)
}

func (r *ClinicRepository) ListAuditLogs(ctx context.Context, filter domain.AuditFilter) ([]domain.AuditLog, error) {
	q := r.db.WithContext(ctx).Model(&AuditLogModel{})
	if filter.TableName != "" {
		q = q.Where("table_name = ?", filter.TableName)
	}
	if filter.RecordID != "" {
		q = q.Where("record_id = ?", filter.RecordID)
	}
	if filter.UserID != "" {
		q = q.Where("user_id = ?", filter.UserID)
	}
	rows := make([]AuditLogModel, 0)
	if err := q.Order("created_at DESC").Scopes(limit(filter.Limit)).Find(&rows).Error; err != nil {
		return nil, classify(err)
	}
	result := make([]domain.AuditLog, 0, len(rows))
	for _, m := range rows {
		result = append(result, auditDomain(m))
	}
	return result, nil
}

func (r *ClinicRepository) CountCasesByStatus(ctx context.Context) (map[domain.CaseStatus]int64, error) {
	type row struct {
		Status string
		Total  int64
	}
	rows := make([]row, 0)
	err := r.db.WithContext(ctx).Model(&CaseModel{}).
		Select("status, COUNT(*) AS total").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, classify(err)
	}
	result := make(map[domain.CaseStatus]int64, len(rows))
	for _, row := range rows {
		result[domain.CaseStatus(row.Status)] = row.Total
	}
	return result, nil
}

func (r *ClinicRepository) CountUsersByRole(ctx context.Context) (map[domain.Role]int64, error) {
	type row struct {
		Role  string
		Total int64
	}
	rows := make([]row, 0)
	err := r.db.WithContext(ctx).Model(&UserModel{}).
		Select("role, COUNT(*) AS total").
		Group("role").
		Scan(&rows).Error
	if err != nil {
		return nil, classify(err)
	}
	result := make(map[domain.Role]int64, len(rows))
	for _, row := range rows {
		result[domain.Role(row.Role)] = row.Total
	}
	return result, nil
}

// limit applies n only when positive; gorm would otherwise emit LIMIT 0.
func limit(n int) func(*gorm.DB) *gorm.DB {
	return func(q *gorm.DB) *gorm.DB {
		if n <= 0 {
			return q
		}
		return q.Limit(n)
	}
}

func caseStatusStrings(statuses []domain.CaseStatus) []string {
	out := make([]string, 0, len(statuses))
	for _, s := range statuses {
		out = append(out, string(s))
	}
	return out
}
