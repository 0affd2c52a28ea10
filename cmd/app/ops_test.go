package main

import (
	"errors"
	"io"
	"io/fs"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/urfave/cli/v3"
	httpadapter "github.com/viray-carlos-miguel/center-patient/internal/adapters/http"
	"github.com/viray-carlos-miguel/center-patient/internal/application"
	"github.com/viray-carlos-miguel/center-patient/internal/config"
	"github.com/viray-carlos-miguel/center-patient/internal/domain"
)

func openTestStore(t *testing.T) *application.ClinicStore {
	t.Helper()
	cfg := config.Config{
		DatabaseDriver:   "sqlite",
		DatabaseURL:      filepath.Join(t.TempDir(), "clinic.db"),
		OperationTimeout: 5 * time.Second,
	}
	store, closeStore, err := openStore(t.Context(), cfg, zerolog.Nop(), true)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = closeStore() })
	return store
}

func TestSeedDemoIsIdempotent(t *testing.T) {
	store := openTestStore(t)
	ctx := t.Context()

	first, err := seedDemo(ctx, store)
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	if first.Users != len(demoUsers) || first.Cases != len(demoCases) {
		t.Fatalf("unexpected first seed: %+v", first)
	}

	again, err := seedDemo(ctx, store)
	if err != nil {
		t.Fatalf("reseed: %v", err)
	}
	if again.Users != 0 || again.Cases != 0 {
		t.Fatalf("expected reseed to be a no-op, got %+v", again)
	}

	smith, err := store.GetUserByEmail(ctx, "dr.smith@medical.com")
	if err != nil {
		t.Fatalf("get doctor: %v", err)
	}
	profile, err := store.GetDoctorProfile(ctx, smith.ID)
	if err != nil {
		t.Fatalf("get profile: %v", err)
	}
	if !profile.IsVerified {
		t.Fatalf("expected seeded doctor to be verified")
	}

	queue, err := store.ReviewQueue(ctx, 0)
	if err != nil {
		t.Fatalf("queue: %v", err)
	}
	if len(queue) != 2 || queue[0].Status != domain.CasePending {
		t.Fatalf("unexpected queue: %+v", queue)
	}

	admin, err := store.GetUserByEmail(ctx, "admin@medical.com")
	if err != nil {
		t.Fatalf("get admin: %v", err)
	}
	if !application.CheckPassword(admin.PasswordHash, "admin123") {
		t.Fatalf("expected seeded password to verify")
	}
}

func TestFetchStatusReadsHealthAndStats(t *testing.T) {
	store := openTestStore(t)
	if _, err := seedDemo(t.Context(), store); err != nil {
		t.Fatalf("seed: %v", err)
	}

	srv := httptest.NewServer(httpadapter.NewRouter(store, zerolog.Nop()))
	defer srv.Close()

	out, err := fetchStatus(t.Context(), newAPIClient(srv.URL+"/", "cli-test"))
	if err != nil {
		t.Fatalf("fetch status: %v", err)
	}
	if out.Health.Status != "healthy" || out.Health.Database != "connected" {
		t.Fatalf("unexpected health: %+v", out.Health)
	}
	if out.Stats.TotalUsers != int64(len(demoUsers)) || out.Stats.UsersByRole[domain.RoleDoctor] != 2 {
		t.Fatalf("unexpected stats: %+v", out.Stats)
	}
}

func TestCheckDatabaseRequiresExistingSQLiteFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "clinic.db")
	cfg := config.Config{DatabaseDriver: "sqlite", DatabaseURL: path, OperationTimeout: time.Second}

	if err := checkDatabase(t.Context(), cfg, zerolog.Nop()); err == nil {
		t.Fatalf("expected check to fail for missing file")
	}
	if _, err := os.Stat(path); !errors.Is(err, fs.ErrNotExist) {
		t.Fatalf("check must not create the database file: %v", err)
	}

	_, closeStore, err := openStore(t.Context(), cfg, zerolog.Nop(), true)
	if err != nil {
		t.Fatalf("migrate: %v", err)
	}
	_ = closeStore()

	if err := checkDatabase(t.Context(), cfg, zerolog.Nop()); err != nil {
		t.Fatalf("expected check to pass after migrate: %v", err)
	}
}

func TestUsersCreateRequiresLastName(t *testing.T) {
	root := &cli.Command{
		Name:      "center-patient",
		Writer:    io.Discard,
		ErrWriter: io.Discard,
		Commands:  []*cli.Command{usersCommand()},
	}
	err := root.Run(t.Context(), []string{"center-patient", "users", "create",
		"--email", "ana@clinic.test", "--password", "longenough", "--first-name", "Ana"})
	if err == nil || !strings.Contains(err.Error(), "last-name") {
		t.Fatalf("expected missing last-name error, got %v", err)
	}
}
