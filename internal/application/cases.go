package application

import (
	"context"
	"encoding/json"
	"math"
	"strings"
	"time"

	"github.com/viray-carlos-miguel/center-patient/internal/domain"
)

const (
	tableCases       = "medical_cases"
	tableAssessments = "case_assessments"
	tableDiagnoses   = "case_diagnosis"
)

type CreateCaseInput struct {
	PatientID string
	DoctorID  *string
	Title     string
	Symptoms  string
	Severity  domain.Severity
	// Priority 0 means DefaultPriority.
	Priority int
}

func (s *ClinicStore) CreateMedicalCase(ctx context.Context, in CreateCaseInput) (domain.MedicalCase, error) {
	var out domain.MedicalCase
	err := s.mutate(ctx, "create medical case", func(ctx context.Context, tx domain.ClinicRepository, now time.Time) (change, error) {
		priority := in.Priority
		if priority == 0 {
			priority = domain.DefaultPriority
		}
		if priority < domain.MinPriority || priority > domain.MaxPriority {
			return change{}, domain.Validationf("priority must be between %d and %d", domain.MinPriority, domain.MaxPriority)
		}
		if !in.Severity.Valid() {
			return change{}, domain.Validationf("severity %q is not one of low, medium, high, critical", in.Severity)
		}
		if strings.TrimSpace(in.Symptoms) == "" {
			return change{}, domain.Validationf("symptoms are required")
		}
		if _, err := requireRole(ctx, tx, in.PatientID, domain.RolePatient); err != nil {
			return change{}, err
		}
		if in.DoctorID != nil {
			if _, err := requireRole(ctx, tx, *in.DoctorID, domain.RoleDoctor); err != nil {
				return change{}, err
			}
		}

		c := domain.MedicalCase{
			ID:        s.newID(),
			PatientID: in.PatientID,
			DoctorID:  in.DoctorID,
			Title:     strings.TrimSpace(in.Title),
			Symptoms:  strings.TrimSpace(in.Symptoms),
			Severity:  in.Severity,
			Status:    domain.CasePending,
			Priority:  priority,
		}
		beforeCommit(&c, now)

		var err error
		out, err = tx.CreateCase(ctx, c)
		if err != nil {
			return change{}, err
		}
		return created(tableCases, out.ID, out), nil
	})
	return out, err
}

// TransitionCaseStatus moves the case one step forward. Closing stamps
// closed_at; any other status clears it.
func (s *ClinicStore) TransitionCaseStatus(ctx context.Context, caseID string, next domain.CaseStatus) (domain.MedicalCase, error) {
	return s.updateCase(ctx, "transition case status", caseID, func(c *domain.MedicalCase, now time.Time) error {
		if !next.Valid() {
			return domain.Validationf("case status %q is not recognised", next)
		}
		if !c.Status.CanMoveTo(next) {
			return domain.Errorf(domain.ErrInvalidTransition, "case %s cannot move from %s to %s", c.ID, c.Status, next)
		}
		c.Status = next
		if next == domain.CaseClosed {
			c.ClosedAt = &now
		} else {
			c.ClosedAt = nil
		}
		return nil
	})
}

func (s *ClinicStore) AssignCaseDoctor(ctx context.Context, caseID, doctorID string) (domain.MedicalCase, error) {
	return s.updateCaseTx(ctx, "assign case doctor", caseID, func(ctx context.Context, tx domain.ClinicRepository, c *domain.MedicalCase, _ time.Time) error {
		if c.Status == domain.CaseClosed {
			return domain.Preconditionf("case %s is closed", c.ID)
		}
		doctor, err := requireRole(ctx, tx, doctorID, domain.RoleDoctor)
		if err != nil {
			return err
		}
		c.DoctorID = &doctor.ID
		return nil
	})
}

func (s *ClinicStore) updateCase(ctx context.Context, op, caseID string, apply func(c *domain.MedicalCase, now time.Time) error) (domain.MedicalCase, error) {
	return s.updateCaseTx(ctx, op, caseID, func(_ context.Context, _ domain.ClinicRepository, c *domain.MedicalCase, now time.Time) error {
		return apply(c, now)
	})
}

func (s *ClinicStore) updateCaseTx(ctx context.Context, op, caseID string, apply func(ctx context.Context, tx domain.ClinicRepository, c *domain.MedicalCase, now time.Time) error) (domain.MedicalCase, error) {
	var out domain.MedicalCase
	err := s.mutate(ctx, op, func(ctx context.Context, tx domain.ClinicRepository, now time.Time) (change, error) {
		before, err := tx.GetCase(ctx, caseID)
		if err != nil {
			return change{}, err
		}
		c := before
		if err := apply(ctx, tx, &c, now); err != nil {
			return change{}, err
		}
		beforeCommit(&c, now)
		out, err = tx.UpdateCase(ctx, c)
		if err != nil {
			return change{}, err
		}
		return updated(tableCases, out.ID, before, out), nil
	})
	return out, err
}

// AddAssessment appends an AI assessment to the case. Earlier assessments are
// never touched.
func (s *ClinicStore) AddAssessment(ctx context.Context, caseID, aiModel, text string, confidence float64) (domain.CaseAssessment, error) {
	var out domain.CaseAssessment
	err := s.mutate(ctx, "add assessment", func(ctx context.Context, tx domain.ClinicRepository, now time.Time) (change, error) {
		if math.IsNaN(confidence) || confidence < 0 || confidence > 1 {
			return change{}, domain.Validationf("confidence score %v is outside [0,1]", confidence)
		}
		if strings.TrimSpace(aiModel) == "" || strings.TrimSpace(text) == "" {
			return change{}, domain.Validationf("ai model and assessment text are required")
		}
		if _, err := tx.GetCase(ctx, caseID); err != nil {
			return change{}, err
		}

		var err error
		out, err = tx.CreateAssessment(ctx, domain.CaseAssessment{
			ID:              s.newID(),
			CaseID:          caseID,
			AIModel:         strings.TrimSpace(aiModel),
			Assessment:      text,
			ConfidenceScore: confidence,
			CreatedAt:       now,
		})
		if err != nil {
			return change{}, err
		}
		return created(tableAssessments, out.ID, out), nil
	})
	return out, err
}

type DiagnosisInput struct {
	CaseID                string
	DoctorID              string
	Diagnosis             string
	Notes                 string
	PrescribedMedications json.RawMessage
	FollowUpDate          *time.Time
}

// AddDiagnosis appends a diagnosis written by a verified doctor to an open case.
func (s *ClinicStore) AddDiagnosis(ctx context.Context, in DiagnosisInput) (domain.CaseDiagnosis, error) {
	var out domain.CaseDiagnosis
	err := s.mutate(ctx, "add diagnosis", func(ctx context.Context, tx domain.ClinicRepository, now time.Time) (change, error) {
		if strings.TrimSpace(in.Diagnosis) == "" {
			return change{}, domain.Validationf("diagnosis text is required")
		}
		if len(in.PrescribedMedications) > 0 && !json.Valid(in.PrescribedMedications) {
			return change{}, domain.Validationf("prescribed medications must be valid JSON")
		}
		doctor, err := requireRole(ctx, tx, in.DoctorID, domain.RoleDoctor)
		if err != nil {
			return change{}, err
		}
		profile, err := tx.GetDoctorProfile(ctx, doctor.ID)
		if err != nil {
			if domain.KindOf(err) == domain.ErrReferenceNotFound {
				return change{}, domain.Preconditionf("doctor %s has no profile", doctor.ID)
			}
			return change{}, err
		}
		if !profile.IsVerified {
			return change{}, domain.Preconditionf("doctor %s is not verified", doctor.ID)
		}
		c, err := tx.GetCase(ctx, in.CaseID)
		if err != nil {
			return change{}, err
		}
		if c.Status == domain.CaseClosed {
			return change{}, domain.Preconditionf("case %s is closed", c.ID)
		}

		out, err = tx.CreateDiagnosis(ctx, domain.CaseDiagnosis{
			ID:                    s.newID(),
			CaseID:                c.ID,
			DoctorID:              &doctor.ID,
			Diagnosis:             strings.TrimSpace(in.Diagnosis),
			Notes:                 in.Notes,
			PrescribedMedications: in.PrescribedMedications,
			FollowUpDate:          in.FollowUpDate,
			CreatedAt:             now,
		})
		if err != nil {
			return change{}, err
		}
		return created(tableDiagnoses, out.ID, out), nil
	})
	return out, err
}

func (s *ClinicStore) GetCase(ctx context.Context, caseID string) (domain.MedicalCase, error) {
	return read(ctx, s, "get case", func(ctx context.Context) (domain.MedicalCase, error) {
		return s.repo.GetCase(ctx, caseID)
	})
}

func (s *ClinicStore) ListCases(ctx context.Context, filter domain.CaseFilter) ([]domain.MedicalCase, error) {
	for _, st := range filter.Statuses {
		if !st.Valid() {
			return nil, domain.WithOp("list cases", domain.Validationf("case status %q is not recognised", st))
		}
	}
	filter.Limit = clampLimit(filter.Limit, 100, 1000)
	return read(ctx, s, "list cases", func(ctx context.Context) ([]domain.MedicalCase, error) {
		return s.repo.ListCases(ctx, filter)
	})
}

// ReviewQueue lists the cases waiting for a doctor: pending ones first, then
// by priority and age.
func (s *ClinicStore) ReviewQueue(ctx context.Context, limit int) ([]domain.MedicalCase, error) {
	limit = clampLimit(limit, 50, 500)
	return read(ctx, s, "review queue", func(ctx context.Context) ([]domain.MedicalCase, error) {
		return s.repo.ReviewQueue(ctx, limit)
	})
}

func (s *ClinicStore) ListAssessments(ctx context.Context, caseID string) ([]domain.CaseAssessment, error) {
	return read(ctx, s, "list assessments", func(ctx context.Context) ([]domain.CaseAssessment, error) {
		return s.repo.ListAssessments(ctx, caseID)
	})
}

func (s *ClinicStore) ListDiagnoses(ctx context.Context, caseID string) ([]domain.CaseDiagnosis, error) {
	return read(ctx, s, "list diagnoses", func(ctx context.Context) ([]domain.CaseDiagnosis, error) {
		return s.repo.ListDiagnoses(ctx, caseID)
	})
}
