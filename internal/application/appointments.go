package application

import (
	"context"
	"strings"
	"time"

	"github.com/viray-carlos-miguel/center-patient/internal/domain"
)

const tableAppointments = "appointments"

type ScheduleInput struct {
	PatientID string
	DoctorID  string
	CaseID    *string
	Date      string
	StartTime string
	// DurationMinutes 0 means DefaultAppointmentMinutes.
	DurationMinutes int
	Reason          string
	Notes           string
}

// ScheduleAppointment books a slot with the doctor. The overlap check and the
// insert happen while the doctor's row is locked, so two bookings for the same
// doctor cannot both pass the check.
func (s *ClinicStore) ScheduleAppointment(ctx context.Context, in ScheduleInput) (domain.Appointment, error) {
	var out domain.Appointment
	err := s.mutate(ctx, "schedule appointment", func(ctx context.Context, tx domain.ClinicRepository, now time.Time) (change, error) {
		a := domain.Appointment{
			ID:              s.newID(),
			PatientID:       in.PatientID,
			CaseID:          in.CaseID,
			Date:            strings.TrimSpace(in.Date),
			StartTime:       strings.TrimSpace(in.StartTime),
			DurationMinutes: in.DurationMinutes,
			Reason:          in.Reason,
			Notes:           in.Notes,
			Status:          domain.AppointmentScheduled,
		}
		if clock, err := time.Parse(domain.ClockLayout, a.StartTime); err == nil {
			a.StartTime = clock.Format(domain.ClockLayout)
		}
		if a.DurationMinutes == 0 {
			a.DurationMinutes = domain.DefaultAppointmentMinutes
		}
		if _, _, err := a.Window(); err != nil {
			return change{}, domain.Validationf("%v", err)
		}
		if strings.TrimSpace(in.DoctorID) == "" {
			return change{}, domain.NotFoundf("doctor id is empty")
		}

		doctor, err := tx.LockUser(ctx, in.DoctorID)
		if err != nil {
			return change{}, err
		}
		if doctor.Role != domain.RoleDoctor {
			return change{}, domain.Preconditionf("user %s is a %s, not a doctor", doctor.ID, doctor.Role)
		}
		if _, err := requireRole(ctx, tx, in.PatientID, domain.RolePatient); err != nil {
			return change{}, err
		}
		if err := requireCaseOf(ctx, tx, in.CaseID, in.PatientID); err != nil {
			return change{}, err
		}

		booked, err := tx.ListDoctorAppointments(ctx, doctor.ID, a.Date, domain.BlockingAppointmentStatuses())
		if err != nil {
			return change{}, err
		}
		for _, other := range booked {
			if a.Overlaps(other) {
				return change{}, domain.Errorf(domain.ErrSchedulingConflict,
					"doctor %s already has appointment %s at %s on %s", doctor.ID, other.ID, other.StartTime, other.Date)
			}
		}

		a.DoctorID = &doctor.ID
		beforeCommit(&a, now)
		out, err = tx.CreateAppointment(ctx, a)
		if err != nil {
			return change{}, err
		}
		return created(tableAppointments, out.ID, out), nil
	})
	return out, err
}

func (s *ClinicStore) TransitionAppointmentStatus(ctx context.Context, appointmentID string, next domain.AppointmentStatus) (domain.Appointment, error) {
	var out domain.Appointment
	err := s.mutate(ctx, "transition appointment status", func(ctx context.Context, tx domain.ClinicRepository, now time.Time) (change, error) {
		if !next.Valid() {
			return change{}, domain.Validationf("appointment status %q is not recognised", next)
		}
		before, err := tx.GetAppointment(ctx, appointmentID)
		if err != nil {
			return change{}, err
		}
		if before.Status.Terminal() {
			return change{}, domain.Errorf(domain.ErrInvalidTransition, "appointment %s is already %s", before.ID, before.Status)
		}
		if !before.Status.CanMoveTo(next) {
			return change{}, domain.Errorf(domain.ErrInvalidTransition, "appointment %s cannot move from %s to %s", before.ID, before.Status, next)
		}

		a := before
		a.Status = next
		beforeCommit(&a, now)
		out, err = tx.UpdateAppointment(ctx, a)
		if err != nil {
			return change{}, err
		}
		return updated(tableAppointments, out.ID, before, out), nil
	})
	return out, err
}

func (s *ClinicStore) GetAppointment(ctx context.Context, appointmentID string) (domain.Appointment, error) {
	return read(ctx, s, "get appointment", func(ctx context.Context) (domain.Appointment, error) {
		return s.repo.GetAppointment(ctx, appointmentID)
	})
}

// ListDoctorAppointments returns the doctor's appointments ordered by date and
// start time. An empty date lists every day.
func (s *ClinicStore) ListDoctorAppointments(ctx context.Context, doctorID, date string) ([]domain.Appointment, error) {
	if date != "" {
		if _, err := time.Parse(domain.DateLayout, date); err != nil {
			return nil, domain.WithOp("list doctor appointments", domain.Validationf("date %q must be YYYY-MM-DD", date))
		}
	}
	return read(ctx, s, "list doctor appointments", func(ctx context.Context) ([]domain.Appointment, error) {
		return s.repo.ListDoctorAppointments(ctx, doctorID, date, nil)
	})
}

// requireCaseOf checks that an optional case link points at one of the
// patient's cases.
func requireCaseOf(ctx context.Context, tx domain.ClinicRepository, caseID *string, patientID string) error {
	if caseID == nil {
		return nil
	}
	c, err := tx.GetCase(ctx, *caseID)
	if err != nil {
		return err
	}
	if c.PatientID != patientID {
		return domain.Preconditionf("case %s belongs to another patient", c.ID)
	}
	return nil
}
