package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/viray-carlos-miguel/center-patient/internal/domain"
)

type fakeStatus struct {
	pingErr  error
	stats    domain.Stats
	statsErr error
}

func (f fakeStatus) Ping(context.Context) error { return f.pingErr }

func (f fakeStatus) Stats(context.Context) (domain.Stats, error) { return f.stats, f.statsErr }

func TestHealthReportsDatabaseState(t *testing.T) {
	router := NewRouter(fakeStatus{}, zerolog.Nop())

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/health", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body["status"] != "healthy" || body["database"] != "connected" {
		t.Fatalf("unexpected body: %v", body)
	}

	down := NewRouter(fakeStatus{pingErr: domain.Unavailable(errors.New("connection refused"))}, zerolog.Nop())
	rec = httptest.NewRecorder()
	down.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/health", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}
}

func TestStatsEndpoint(t *testing.T) {
	stats := domain.Stats{
		CasesByStatus: map[domain.CaseStatus]int64{domain.CasePending: 2},
		UsersByRole:   map[domain.Role]int64{domain.RolePatient: 3},
		TotalCases:    2,
		TotalUsers:    3,
	}
	router := NewRouter(fakeStatus{stats: stats}, zerolog.Nop())

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/stats", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var got domain.Stats
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode stats: %v", err)
	}
	if got.TotalCases != 2 || got.UsersByRole[domain.RolePatient] != 3 {
		t.Fatalf("unexpected stats: %+v", got)
	}
}

func TestWithActorReadsRequestOrigin(t *testing.T) {
	var seen domain.Actor
	handler := withActor(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = domain.ActorFrom(r.Context())
	}))

	req := httptest.NewRequest(http.MethodPost, "/", nil)
	req.RemoteAddr = "203.0.113.9:51234"
	req.Header.Set(ActorHeader, "user-42")
	req.Header.Set("User-Agent", "clinic-portal/1.0")
	handler.ServeHTTP(httptest.NewRecorder(), req)

	if seen.UserID == nil || *seen.UserID != "user-42" {
		t.Fatalf("expected actor id, got %+v", seen)
	}
	if seen.IPAddress != "203.0.113.9" || seen.UserAgent != "clinic-portal/1.0" {
		t.Fatalf("unexpected origin: %+v", seen)
	}

	req = httptest.NewRequest(http.MethodPost, "/", nil)
	req.Header.Set("X-Forwarded-For", "198.51.100.1, 10.0.0.1")
	handler.ServeHTTP(httptest.NewRecorder(), req)
	if seen.IPAddress != "198.51.100.1" || seen.UserID != nil {
		t.Fatalf("unexpected forwarded origin: %+v", seen)
	}
}

func TestStatusForErrorKinds(t *testing.T) {
	cases := map[error]int{
		domain.Validationf("bad"):                            http.StatusBadRequest,
		domain.NotFoundf("gone"):                             http.StatusNotFound,
		domain.Errorf(domain.ErrSchedulingConflict, "busy"): http.StatusConflict,
		domain.Preconditionf("nope"):                         http.StatusUnprocessableEntity,
		errors.New("boom"):                                   http.StatusServiceUnavailable,
	}
	for err, want := range cases {
		if got := statusFor(err); got != want {
			t.Fatalf("%v: expected %d, got %d", err, want, got)
		}
	}
}
