package application

import (
	"context"
	"strings"
	"time"

	"github.com/viray-carlos-miguel/center-patient/internal/domain"
)

const tablePrescriptions = "prescriptions"

type PrescriptionInput struct {
	PatientID        string
	DoctorID         string
	CaseID           *string
	MedicationName   string
	Dosage           string
	Frequency        string
	Duration         string
	Instructions     string
	RefillsRemaining int
}

func (s *ClinicStore) IssuePrescription(ctx context.Context, in PrescriptionInput) (domain.Prescription, error) {
	var out domain.Prescription
	err := s.mutate(ctx, "issue prescription", func(ctx context.Context, tx domain.ClinicRepository, now time.Time) (change, error) {
		if strings.TrimSpace(in.MedicationName) == "" || strings.TrimSpace(in.Dosage) == "" || strings.TrimSpace(in.Frequency) == "" {
			return change{}, domain.Validationf("medication name, dosage and frequency are required")
		}
		if in.RefillsRemaining < 0 {
			return change{}, domain.Validationf("refills cannot be negative")
		}
		doctor, err := requireRole(ctx, tx, in.DoctorID, domain.RoleDoctor)
		if err != nil {
			return change{}, err
		}
		if _, err := requireRole(ctx, tx, in.PatientID, domain.RolePatient); err != nil {
			return change{}, err
		}
		if err := requireCaseOf(ctx, tx, in.CaseID, in.PatientID); err != nil {
			return change{}, err
		}

		p := domain.Prescription{
			ID:               s.newID(),
			PatientID:        in.PatientID,
			DoctorID:         &doctor.ID,
			CaseID:           in.CaseID,
			MedicationName:   strings.TrimSpace(in.MedicationName),
			Dosage:           strings.TrimSpace(in.Dosage),
			Frequency:        strings.TrimSpace(in.Frequency),
			Duration:         in.Duration,
			Instructions:     in.Instructions,
			RefillsRemaining: in.RefillsRemaining,
			Status:           domain.PrescriptionActive,
		}
		beforeCommit(&p, now)
		out, err = tx.CreatePrescription(ctx, p)
		if err != nil {
			return change{}, err
		}
		return created(tablePrescriptions, out.ID, out), nil
	})
	return out, err
}

// RefillPrescription consumes one refill of an active prescription.
func (s *ClinicStore) RefillPrescription(ctx context.Context, prescriptionID string) (domain.Prescription, error) {
	return s.updatePrescription(ctx, "refill prescription", prescriptionID, func(p *domain.Prescription) error {
		if p.Status != domain.PrescriptionActive {
			return domain.Preconditionf("prescription %s is %s", p.ID, p.Status)
		}
		if p.RefillsRemaining == 0 {
			return domain.Preconditionf("prescription %s has no refills left", p.ID)
		}
		p.RefillsRemaining--
		return nil
	})
}

// SetPrescriptionStatus finishes an active prescription as completed or cancelled.
func (s *ClinicStore) SetPrescriptionStatus(ctx context.Context, prescriptionID string, next domain.PrescriptionStatus) (domain.Prescription, error) {
	return s.updatePrescription(ctx, "set prescription status", prescriptionID, func(p *domain.Prescription) error {
		if !next.Valid() {
			return domain.Validationf("prescription status %q is not recognised", next)
		}
		if p.Status != domain.PrescriptionActive || next == domain.PrescriptionActive {
			return domain.Errorf(domain.ErrInvalidTransition, "prescription %s cannot move from %s to %s", p.ID, p.Status, next)
		}
		p.Status = next
		return nil
	})
}

func (s *ClinicStore) updatePrescription(ctx context.Context, op, prescriptionID string, apply func(p *domain.Prescription) error) (domain.Prescription, error) {
	var out domain.Prescription
	err := s.mutate(ctx, op, func(ctx context.Context, tx domain.ClinicRepository, now time.Time) (change, error) {
		before, err := tx.GetPrescription(ctx, prescriptionID)
		if err != nil {
			return change{}, err
		}
		p := before
		if err := apply(&p); err != nil {
			return change{}, err
		}
		beforeCommit(&p, now)
		out, err = tx.UpdatePrescription(ctx, p)
		if err != nil {
			return change{}, err
		}
		return updated(tablePrescriptions, out.ID, before, out), nil
	})
	return out, err
}

func (s *ClinicStore) GetPrescription(ctx context.Context, prescriptionID string) (domain.Prescription, error) {
	return read(ctx, s, "get prescription", func(ctx context.Context) (domain.Prescription, error) {
		return s.repo.GetPrescription(ctx, prescriptionID)
	})
}

func (s *ClinicStore) ListPrescriptions(ctx context.Context, patientID string) ([]domain.Prescription, error) {
	return read(ctx, s, "list prescriptions", func(ctx context.Context) ([]domain.Prescription, error) {
		return s.repo.ListPrescriptions(ctx, patientID)
	})
}
