package gormdb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/viray-carlos-miguel/center-patient/internal/domain"
)

func newTestRepo(t *testing.T) *ClinicRepository {
	t.Helper()
	ctx := context.Background()
	dbPath := filepath.Join(t.TempDir(), "clinic_test.db")

	db, err := Open(DriverSQLite, dbPath)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := RunMigrations(ctx, db); err != nil {
		t.Fatalf("run migrations: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return NewClinicRepository(db)
}

var testClock = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

func seedUser(t *testing.T, repo *ClinicRepository, email string, role domain.Role) domain.User {
	t.Helper()
	u := domain.User{
		ID:           fmt.Sprintf("user-%s", email),
		Email:        email,
		PasswordHash: "hash",
		Role:         role,
		FirstName:    "Test",
		LastName:     string(role),
		IsActive:     true,
	}
	u.Touch(testClock)
	created, err := repo.CreateUser(context.Background(), u)
	if err != nil {
		t.Fatalf("create user %s: %v", email, err)
	}
	return created
}

func seedCase(t *testing.T, repo *ClinicRepository, id, patientID string, status domain.CaseStatus, priority int, createdAt time.Time) domain.MedicalCase {
	t.Helper()
	c := domain.MedicalCase{
		ID:        id,
		PatientID: patientID,
		Symptoms:  "cough",
		Severity:  domain.SeverityLow,
		Status:    status,
		Priority:  priority,
	}
	c.Touch(createdAt)
	created, err := repo.CreateCase(context.Background(), c)
	if err != nil {
		t.Fatalf("create case %s: %v", id, err)
	}
	return created
}

func TestCreateUserRejectsDuplicateEmail(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	first := seedUser(t, repo, "ana@clinic.test", domain.RolePatient)
	if first.Email != "ana@clinic.test" {
		t.Fatalf("unexpected email: %s", first.Email)
	}

	dup := domain.User{ID: "other", Email: "ANA@clinic.test", PasswordHash: "x", Role: domain.RoleDoctor, FirstName: "A", LastName: "B", IsActive: true}
	dup.Touch(testClock)
	_, err := repo.CreateUser(ctx, dup)
	if !errors.Is(err, domain.ErrDuplicateKey) {
		t.Fatalf("expected duplicate key, got %v", err)
	}
}

func TestConstraintViolationsAreClassified(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)
	patient := seedUser(t, repo, "p@clinic.test", domain.RolePatient)

	orphan := domain.MedicalCase{ID: "c-orphan", PatientID: "missing", Symptoms: "x", Severity: domain.SeverityLow, Status: domain.CasePending, Priority: 5}
	orphan.Touch(testClock)
	if _, err := repo.CreateCase(ctx, orphan); !errors.Is(err, domain.ErrReferenceNotFound) {
		t.Fatalf("expected reference not found, got %v", err)
	}

	bad := domain.MedicalCase{ID: "c-bad", PatientID: patient.ID, Symptoms: "x", Severity: domain.SeverityLow, Status: domain.CasePending, Priority: 11}
	bad.Touch(testClock)
	if _, err := repo.CreateCase(ctx, bad); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected validation error from check constraint, got %v", err)
	}

	c := seedCase(t, repo, "c-1", patient.ID, domain.CasePending, 5, testClock)
	_, err := repo.CreateAssessment(ctx, domain.CaseAssessment{ID: "a-1", CaseID: c.ID, AIModel: "m", Assessment: "t", ConfidenceScore: 1.5, CreatedAt: testClock})
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected validation error for score, got %v", err)
	}
}

func TestUpdateMissingRowIsNotFound(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	ghost := domain.MedicalCase{ID: "nope", PatientID: "x", Symptoms: "x", Severity: domain.SeverityLow, Status: domain.CasePending, Priority: 5}
	ghost.Touch(testClock)
	if _, err := repo.UpdateCase(ctx, ghost); !errors.Is(err, domain.ErrReferenceNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if _, err := repo.GetUserByID(ctx, "nope"); !errors.Is(err, domain.ErrReferenceNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestUpdateWritesZeroValues(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)
	u := seedUser(t, repo, "z@clinic.test", domain.RoleAdmin)

	u.IsActive = false
	u.Touch(testClock.Add(time.Hour))
	saved, err := repo.UpdateUser(ctx, u)
	if err != nil {
		t.Fatalf("update user: %v", err)
	}
	if saved.IsActive {
		t.Fatalf("expected user to be inactive after update")
	}
	if !saved.UpdatedAt.Equal(testClock.Add(time.Hour)) {
		t.Fatalf("unexpected updated_at: %v", saved.UpdatedAt)
	}
	if !saved.CreatedAt.Equal(testClock) {
		t.Fatalf("created_at changed: %v", saved.CreatedAt)
	}
}

func TestReviewQueueOrdersPendingThenPriorityThenAge(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)
	patient := seedUser(t, repo, "q@clinic.test", domain.RolePatient)

	seedCase(t, repo, "review-urgent", patient.ID, domain.CaseUnderReview, 1, testClock)
	seedCase(t, repo, "pending-low", patient.ID, domain.CasePending, 8, testClock)
	seedCase(t, repo, "pending-high-new", patient.ID, domain.CasePending, 2, testClock.Add(time.Hour))
	seedCase(t, repo, "pending-high-old", patient.ID, domain.CasePending, 2, testClock)
	seedCase(t, repo, "diagnosed", patient.ID, domain.CaseDiagnosed, 1, testClock)

	queue, err := repo.ReviewQueue(ctx, 0)
	if err != nil {
		t.Fatalf("review queue: %v", err)
	}
	want := []string{"pending-high-old", "pending-high-new", "pending-low", "review-urgent"}
	if len(queue) != len(want) {
		t.Fatalf("expected %d cases, got %d", len(want), len(queue))
	}
	for i, id := range want {
		if queue[i].ID != id {
			t.Fatalf("position %d: expected %s, got %s", i, id, queue[i].ID)
		}
	}

	limited, err := repo.ReviewQueue(ctx, 2)
	if err != nil {
		t.Fatalf("review queue limited: %v", err)
	}
	if len(limited) != 2 {
		t.Fatalf("expected 2 cases, got %d", len(limited))
	}
}

func TestDeleteCasesByPatientRemovesChildren(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)
	patient := seedUser(t, repo, "del@clinic.test", domain.RolePatient)
	doctor := seedUser(t, repo, "doc@clinic.test", domain.RoleDoctor)

	c := seedCase(t, repo, "case-del", patient.ID, domain.CasePending, 5, testClock)
	if _, err := repo.CreateAssessment(ctx, domain.CaseAssessment{ID: "as-1", CaseID: c.ID, AIModel: "m", Assessment: "t", ConfidenceScore: 0.4, CreatedAt: testClock}); err != nil {
		t.Fatalf("create assessment: %v", err)
	}
	meds := json.RawMessage(`[{"name":"ibuprofen"}]`)
	if _, err := repo.CreateDiagnosis(ctx, domain.CaseDiagnosis{ID: "dx-1", CaseID: c.ID, DoctorID: &doctor.ID, Diagnosis: "flu", PrescribedMedications: meds, CreatedAt: testClock}); err != nil {
		t.Fatalf("create diagnosis: %v", err)
	}

	n, err := repo.DeleteCasesByPatient(ctx, patient.ID)
	if err != nil {
		t.Fatalf("delete cases: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected 1 deleted case, got %d", n)
	}
	if _, err := repo.GetCase(ctx, c.ID); !errors.Is(err, domain.ErrReferenceNotFound) {
		t.Fatalf("expected case gone, got %v", err)
	}
	assessments, _ := repo.ListAssessments(ctx, c.ID)
	diagnoses, _ := repo.ListDiagnoses(ctx, c.ID)
	if len(assessments) != 0 || len(diagnoses) != 0 {
		t.Fatalf("children survived: %d assessments, %d diagnoses", len(assessments), len(diagnoses))
	}
}

func TestDetachDoctorNullsReferences(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)
	patient := seedUser(t, repo, "pp@clinic.test", domain.RolePatient)
	doctor := seedUser(t, repo, "dd@clinic.test", domain.RoleDoctor)

	c := domain.MedicalCase{ID: "case-d", PatientID: patient.ID, DoctorID: &doctor.ID, Symptoms: "x", Severity: domain.SeverityHigh, Status: domain.CasePending, Priority: 5}
	c.Touch(testClock)
	if _, err := repo.CreateCase(ctx, c); err != nil {
		t.Fatalf("create case: %v", err)
	}

	later := testClock.Add(2 * time.Hour)
	if err := repo.DetachDoctor(ctx, doctor.ID, later); err != nil {
		t.Fatalf("detach doctor: %v", err)
	}
	got, err := repo.GetCase(ctx, c.ID)
	if err != nil {
		t.Fatalf("get case: %v", err)
	}
	if got.DoctorID != nil {
		t.Fatalf("expected doctor reference cleared, got %v", *got.DoctorID)
	}
	if !got.UpdatedAt.Equal(later) {
		t.Fatalf("expected updated_at %v, got %v", later, got.UpdatedAt)
	}
}

func TestAuditLogRoundTripsSnapshots(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	actor := "admin-1"
	entry := domain.AuditLog{
		ID:        "audit-1",
		UserID:    &actor,
		Action:    domain.AuditUpdate,
		TableName: "medical_cases",
		RecordID:  "case-1",
		OldValues: json.RawMessage(`{"status":"pending"}`),
		NewValues: json.RawMessage(`{"status":"under_review"}`),
		IPAddress: "10.0.0.1",
		CreatedAt: testClock,
	}
	if err := repo.CreateAuditLog(ctx, entry); err != nil {
		t.Fatalf("create audit log: %v", err)
	}
	if err := repo.CreateAuditLog(ctx, domain.AuditLog{ID: "audit-2", Action: domain.AuditCreate, TableName: "users", RecordID: "u-1", NewValues: json.RawMessage(`{}`), CreatedAt: testClock.Add(time.Minute)}); err != nil {
		t.Fatalf("create audit log: %v", err)
	}

	logs, err := repo.ListAuditLogs(ctx, domain.AuditFilter{TableName: "medical_cases", RecordID: "case-1"})
	if err != nil {
		t.Fatalf("list audit logs: %v", err)
	}
	if len(logs) != 1 {
		t.Fatalf("expected 1 audit entry, got %d", len(logs))
	}
	var after map[string]string
	if err := json.Unmarshal(logs[0].NewValues, &after); err != nil {
		t.Fatalf("decode new values: %v", err)
	}
	if after["status"] != "under_review" || logs[0].UserID == nil || *logs[0].UserID != actor {
		t.Fatalf("unexpected audit entry: %+v", logs[0])
	}

	all, err := repo.ListAuditLogs(ctx, domain.AuditFilter{})
	if err != nil {
		t.Fatalf("list all audit logs: %v", err)
	}
	if len(all) != 2 || all[0].ID != "audit-2" {
		t.Fatalf("expected newest first, got %+v", all)
	}
}

func TestStatsCounts(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)
	patient := seedUser(t, repo, "s1@clinic.test", domain.RolePatient)
	seedUser(t, repo, "s2@clinic.test", domain.RoleDoctor)
	seedCase(t, repo, "s-c1", patient.ID, domain.CasePending, 5, testClock)
	seedCase(t, repo, "s-c2", patient.ID, domain.CasePending, 5, testClock)
	seedCase(t, repo, "s-c3", patient.ID, domain.CaseClosed, 5, testClock)

	cases, err := repo.CountCasesByStatus(ctx)
	if err != nil {
		t.Fatalf("count cases: %v", err)
	}
	if cases[domain.CasePending] != 2 || cases[domain.CaseClosed] != 1 {
		t.Fatalf("unexpected case counts: %v", cases)
	}
	users, err := repo.CountUsersByRole(ctx)
	if err != nil {
		t.Fatalf("count users: %v", err)
	}
	if users[domain.RolePatient] != 1 || users[domain.RoleDoctor] != 1 {
		t.Fatalf("unexpected user counts: %v", users)
	}
}

func TestSQLiteDSN(t *testing.T) {
	if got := SQLiteDSN("/tmp/a.db"); got != "file:/tmp/a.db?"+sqlitePragmas {
		t.Fatalf("unexpected dsn: %s", got)
	}
	if got := SQLiteDSN("file:x.db?mode=memory"); got != "file:x.db?mode=memory" {
		t.Fatalf("dsn with params should be untouched: %s", got)
	}
}

func TestSQLiteFile(t *testing.T) {
	cases := map[string]string{
		"clinic.db":                  "clinic.db",
		"/var/lib/clinic/clinic.db":  "/var/lib/clinic/clinic.db",
		SQLiteDSN("data/clinic.db"):  "data/clinic.db",
		"file:x.db?mode=memory":      "",
		":memory:":                   "",
		"file::memory:?cache=shared": "",
	}
	for dsn, want := range cases {
		if got := SQLiteFile(dsn); got != want {
			t.Fatalf("%s: expected %q, got %q", dsn, want, got)
		}
	}
}
