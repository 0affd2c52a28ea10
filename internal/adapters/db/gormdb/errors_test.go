package gormdb

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/viray-carlos-miguel/center-patient/internal/domain"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func TestClassifyPostgresErrorCodes(t *testing.T) {
	cases := []struct {
		code string
		want error
	}{
		{"23505", domain.ErrDuplicateKey},
		{"23503", domain.ErrReferenceNotFound},
		{"23514", domain.ErrValidation},
		{"23502", domain.ErrValidation},
		{"22P02", domain.ErrReferenceNotFound},
		{"08006", domain.ErrStoreUnavailable},
		{"40P01", domain.ErrStoreUnavailable},
	}
	for _, tc := range cases {
		pgErr := &pgconn.PgError{Code: tc.code, ConstraintName: "users_email_key", Message: "boom"}
		err := classify(fmt.Errorf("exec: %w", pgErr))
		if !errors.Is(err, tc.want) {
			t.Fatalf("%s: expected %v, got %v", tc.code, tc.want, err)
		}
		var target *pgconn.PgError
		if !errors.As(err, &target) {
			t.Fatalf("%s: expected driver cause to be kept: %v", tc.code, err)
		}
	}
}

// openUnreachablePostgres returns a postgres-dialect handle whose server does
// not exist, so any statement that reaches the driver fails.
func openUnreachablePostgres(t *testing.T) *ClinicRepository {
	t.Helper()
	db, err := gorm.Open(postgres.New(postgres.Config{
		DSN: "host=127.0.0.1 port=1 user=clinic dbname=clinic sslmode=disable connect_timeout=1",
	}), &gorm.Config{DisableAutomaticPing: true, Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatalf("open postgres handle: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return NewClinicRepository(db)
}

func TestPostgresMalformedIDsResolveToNothing(t *testing.T) {
	ctx := context.Background()
	repo := openUnreachablePostgres(t)

	if _, err := repo.GetUserByID(ctx, "missing"); !errors.Is(err, domain.ErrReferenceNotFound) {
		t.Fatalf("get user: expected reference not found, got %v", err)
	}
	if _, err := repo.LockUser(ctx, "missing"); !errors.Is(err, domain.ErrReferenceNotFound) {
		t.Fatalf("lock user: expected reference not found, got %v", err)
	}
	if _, err := repo.GetCase(ctx, "case-1"); !errors.Is(err, domain.ErrReferenceNotFound) {
		t.Fatalf("get case: expected reference not found, got %v", err)
	}
	if _, err := repo.GetDoctorProfile(ctx, ""); !errors.Is(err, domain.ErrReferenceNotFound) {
		t.Fatalf("get doctor profile: expected reference not found, got %v", err)
	}

	cases, err := repo.ListCases(ctx, domain.CaseFilter{PatientID: "not-a-uuid"})
	if err != nil || len(cases) != 0 {
		t.Fatalf("list cases: expected empty result, got %v %v", cases, err)
	}
	appts, err := repo.ListDoctorAppointments(ctx, "not-a-uuid", "2026-05-04", nil)
	if err != nil || len(appts) != 0 {
		t.Fatalf("list appointments: expected empty result, got %v %v", appts, err)
	}

	// A well-formed id does reach the driver, which here is unreachable.
	if _, err := repo.GetUserByID(ctx, "7b0c1f5e-8d0a-4c57-9a53-0e4b8f6d2a11"); !errors.Is(err, domain.ErrStoreUnavailable) {
		t.Fatalf("expected store unavailable for a valid id, got %v", err)
	}
}
