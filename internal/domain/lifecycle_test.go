package domain

import (
	"errors"
	"fmt"
	"testing"
	"time"
)

func TestCaseStatusMovesOneStepForward(t *testing.T) {
	order := []CaseStatus{CasePending, CaseUnderReview, CaseDiagnosed, CaseTreated, CaseClosed}
	for i, from := range order {
		for j, to := range order {
			want := j == i+1
			if got := from.CanMoveTo(to); got != want {
				t.Fatalf("%s -> %s: expected %v, got %v", from, to, want, got)
			}
		}
	}
}

func TestAppointmentTerminalStatuses(t *testing.T) {
	all := []AppointmentStatus{AppointmentScheduled, AppointmentConfirmed, AppointmentInProgress, AppointmentCompleted, AppointmentCancelled, AppointmentNoShow}
	for _, from := range all {
		if !from.Terminal() {
			continue
		}
		for _, to := range all {
			if from.CanMoveTo(to) {
				t.Fatalf("terminal %s must not move to %s", from, to)
			}
		}
	}
	if !AppointmentScheduled.CanMoveTo(AppointmentConfirmed) || AppointmentScheduled.CanMoveTo(AppointmentCompleted) {
		t.Fatalf("unexpected scheduled transitions")
	}
	for _, s := range BlockingAppointmentStatuses() {
		if !s.Blocking() || s.Terminal() {
			t.Fatalf("%s should block and not be terminal", s)
		}
	}
}

func TestAppointmentWindowAndOverlap(t *testing.T) {
	a := Appointment{Date: "2026-05-04", StartTime: "10:00", DurationMinutes: 30}
	start, end, err := a.Window()
	if err != nil {
		t.Fatalf("window: %v", err)
	}
	if start != 600 || end != 630 {
		t.Fatalf("unexpected window [%d,%d)", start, end)
	}

	cases := []struct {
		other Appointment
		want  bool
	}{
		{Appointment{Date: "2026-05-04", StartTime: "10:29", DurationMinutes: 10}, true},
		{Appointment{Date: "2026-05-04", StartTime: "09:30", DurationMinutes: 31}, true},
		{Appointment{Date: "2026-05-04", StartTime: "10:30", DurationMinutes: 30}, false},
		{Appointment{Date: "2026-05-04", StartTime: "09:30", DurationMinutes: 30}, false},
		{Appointment{Date: "2026-05-05", StartTime: "10:00", DurationMinutes: 30}, false},
	}
	for _, tc := range cases {
		if got := a.Overlaps(tc.other); got != tc.want {
			t.Fatalf("%s %s+%d: expected overlap=%v", tc.other.Date, tc.other.StartTime, tc.other.DurationMinutes, tc.want)
		}
	}

	for _, bad := range []Appointment{
		{Date: "2026-13-01", StartTime: "10:00", DurationMinutes: 30},
		{Date: "2026-05-04", StartTime: "7pm", DurationMinutes: 30},
		{Date: "2026-05-04", StartTime: "10:00", DurationMinutes: 0},
		{Date: "2026-05-04", StartTime: "10:00", DurationMinutes: MaxAppointmentMinutes + 1},
		{Date: "2026-05-04", StartTime: "23:59", DurationMinutes: 2},
	} {
		if _, _, err := bad.Window(); err == nil {
			t.Fatalf("expected window error for %+v", bad)
		}
	}
}

func TestValidBloodType(t *testing.T) {
	for _, v := range []string{"", "A+", "AB-", "O+"} {
		if !ValidBloodType(v) {
			t.Fatalf("%q should be valid", v)
		}
	}
	for _, v := range []string{"C+", "a+", "AB"} {
		if ValidBloodType(v) {
			t.Fatalf("%q should be invalid", v)
		}
	}
}

func TestTouchKeepsCreatedAt(t *testing.T) {
	first := time.Date(2026, 1, 1, 8, 0, 0, 0, time.UTC)
	later := first.Add(time.Hour)

	var c MedicalCase
	c.Touch(first)
	c.Touch(later)
	if !c.CreatedAt.Equal(first) || !c.UpdatedAt.Equal(later) {
		t.Fatalf("unexpected timestamps: created=%v updated=%v", c.CreatedAt, c.UpdatedAt)
	}
}

func TestErrorMatchesKindAndCause(t *testing.T) {
	cause := fmt.Errorf("disk on fire")
	err := WithOp("create user", Unavailable(cause))

	if !errors.Is(err, ErrStoreUnavailable) || !errors.Is(err, cause) {
		t.Fatalf("expected kind and cause to match: %v", err)
	}
	if KindOf(err) != ErrStoreUnavailable {
		t.Fatalf("unexpected kind: %v", KindOf(err))
	}
	if got := err.Error(); got != "create user: store unavailable: disk on fire" {
		t.Fatalf("unexpected message: %s", got)
	}

	foreign := WithOp("get case", errors.New("boom"))
	if !errors.Is(foreign, ErrStoreUnavailable) {
		t.Fatalf("foreign errors should become store unavailable: %v", foreign)
	}
	if KindOf(Preconditionf("nope")) != ErrPreconditionFailed {
		t.Fatalf("unexpected kind for precondition")
	}
}

func TestActorTravelsOnContext(t *testing.T) {
	id := "u-1"
	ctx := WithActor(t.Context(), Actor{UserID: &id, IPAddress: "127.0.0.1"})
	got := ActorFrom(ctx)
	if got.UserID == nil || *got.UserID != id || got.IPAddress != "127.0.0.1" {
		t.Fatalf("unexpected actor: %+v", got)
	}
	if empty := ActorFrom(t.Context()); empty.UserID != nil {
		t.Fatalf("expected no actor on bare context")
	}
}
