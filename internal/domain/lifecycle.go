package domain

import (
	"fmt"
	"strings"
	"time"
)

// caseFlow is the only path a case may take. There is no reopen edge: a closed
// case stays closed.
var caseFlow = map[CaseStatus]CaseStatus{
	CasePending:     CaseUnderReview,
	CaseUnderReview: CaseDiagnosed,
	CaseDiagnosed:   CaseTreated,
	CaseTreated:     CaseClosed,
}

func (s CaseStatus) Valid() bool {
	switch s {
	case CasePending, CaseUnderReview, CaseDiagnosed, CaseTreated, CaseClosed:
		return true
	}
	return false
}

// CanMoveTo reports whether next is the single forward step after s.
func (s CaseStatus) CanMoveTo(next CaseStatus) bool {
	want, ok := caseFlow[s]
	return ok && want == next
}

var appointmentFlow = map[AppointmentStatus][]AppointmentStatus{
	AppointmentScheduled:  {AppointmentConfirmed, AppointmentCancelled, AppointmentNoShow},
	AppointmentConfirmed:  {AppointmentInProgress, AppointmentCancelled, AppointmentNoShow},
	AppointmentInProgress: {AppointmentCompleted, AppointmentCancelled},
}

func (s AppointmentStatus) Valid() bool {
	switch s {
	case AppointmentScheduled, AppointmentConfirmed, AppointmentInProgress,
		AppointmentCompleted, AppointmentCancelled, AppointmentNoShow:
		return true
	}
	return false
}

func (s AppointmentStatus) Terminal() bool {
	return s == AppointmentCompleted || s == AppointmentCancelled || s == AppointmentNoShow
}

// Blocking reports whether an appointment in this status occupies the doctor's time.
func (s AppointmentStatus) Blocking() bool {
	return s == AppointmentScheduled || s == AppointmentConfirmed || s == AppointmentInProgress
}

func (s AppointmentStatus) CanMoveTo(next AppointmentStatus) bool {
	for _, allowed := range appointmentFlow[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// BlockingAppointmentStatuses lists the statuses considered by the overlap check.
func BlockingAppointmentStatuses() []AppointmentStatus {
	return []AppointmentStatus{AppointmentScheduled, AppointmentConfirmed, AppointmentInProgress}
}

func (s PrescriptionStatus) Valid() bool {
	switch s {
	case PrescriptionActive, PrescriptionCompleted, PrescriptionCancelled:
		return true
	}
	return false
}

const (
	DateLayout      = "2006-01-02"
	ClockLayout     = "15:04"
	minutesInADay   = 24 * 60
	validBloodTypes = "A+ A- B+ B- AB+ AB- O+ O-"
)

// Window returns the appointment's [start, end) in minutes since midnight.
func (a Appointment) Window() (int, int, error) {
	if _, err := time.Parse(DateLayout, a.Date); err != nil {
		return 0, 0, fmt.Errorf("appointment date %q must be YYYY-MM-DD", a.Date)
	}
	clock, err := time.Parse(ClockLayout, a.StartTime)
	if err != nil {
		return 0, 0, fmt.Errorf("start time %q must be HH:MM", a.StartTime)
	}
	if a.DurationMinutes < 1 || a.DurationMinutes > MaxAppointmentMinutes {
		return 0, 0, fmt.Errorf("duration must be between 1 and %d minutes", MaxAppointmentMinutes)
	}
	start := clock.Hour()*60 + clock.Minute()
	end := start + a.DurationMinutes
	if end > minutesInADay {
		return 0, 0, fmt.Errorf("appointment must end by 24:00")
	}
	return start, end, nil
}

// Overlaps reports whether two appointments on the same date intersect.
func (a Appointment) Overlaps(other Appointment) bool {
	if a.Date != other.Date {
		return false
	}
	aStart, aEnd, err := a.Window()
	if err != nil {
		return false
	}
	bStart, bEnd, err := other.Window()
	if err != nil {
		return false
	}
	return aStart < bEnd && bStart < aEnd
}

func ValidBloodType(v string) bool {
	if v == "" {
		return true
	}
	for _, t := range strings.Fields(validBloodTypes) {
		if t == v {
			return true
		}
	}
	return false
}

// Timestamped is implemented by every mutable entity. The store calls Touch
// right before a write is committed.
type Timestamped interface {
	Touch(now time.Time)
}

func touch(created, updated *time.Time, now time.Time) {
	if created.IsZero() {
		*created = now
	}
	*updated = now
}

func (u *User) Touch(now time.Time)           { touch(&u.CreatedAt, &u.UpdatedAt, now) }
func (d *DoctorProfile) Touch(now time.Time)  { touch(&d.CreatedAt, &d.UpdatedAt, now) }
func (p *PatientProfile) Touch(now time.Time) { touch(&p.CreatedAt, &p.UpdatedAt, now) }
func (c *MedicalCase) Touch(now time.Time)    { touch(&c.CreatedAt, &c.UpdatedAt, now) }
func (a *Appointment) Touch(now time.Time)    { touch(&a.CreatedAt, &a.UpdatedAt, now) }
func (p *Prescription) Touch(now time.Time)   { touch(&p.CreatedAt, &p.UpdatedAt, now) }
