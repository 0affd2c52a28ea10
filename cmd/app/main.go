package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/urfave/cli/v3"
	httpadapter "github.com/viray-carlos-miguel/center-patient/internal/adapters/http"
	"github.com/viray-carlos-miguel/center-patient/internal/application"
	"github.com/viray-carlos-miguel/center-patient/internal/config"
	"github.com/viray-carlos-miguel/center-patient/internal/domain"
)

func main() {
	args := os.Args
	if len(args) == 1 {
		args = append(args, "--help")
	}

	root := &cli.Command{
		Name:  "center-patient",
		Usage: "Clinic record store server and admin CLI",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "env-file", Value: ".env", Usage: "dotenv file read before the environment"},
			&cli.StringFlag{Name: "db-driver", Usage: "sqlite or postgres (overrides DATABASE_DRIVER)"},
			&cli.StringFlag{Name: "database-url", Usage: "database path or DSN (overrides DATABASE_URL)"},
			&cli.StringFlag{Name: "log-level", Usage: "zerolog level (overrides LOG_LEVEL)"},
			&cli.DurationFlag{Name: "timeout", Usage: "per-operation timeout (overrides OPERATION_TIMEOUT)"},
			&cli.StringFlag{Name: "actor", Usage: "user id recorded in audit entries for CLI changes"},
		},
		Commands: []*cli.Command{
			serverCommand(),
			checkCommand(),
			migrateCommand(),
			seedCommand(),
			usersCommand(),
			casesCommand(),
			auditCommand(),
			statsCommand(),
			statusCommand(),
		},
	}

	if err := root.Run(context.Background(), args); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// loadSettings merges .env, the environment and explicit flags, in that order.
func loadSettings(c *cli.Command) (config.Config, zerolog.Logger, error) {
	cfg, err := config.Load(c.String("env-file"))
	if err != nil {
		return config.Config{}, zerolog.Nop(), err
	}
	if c.IsSet("db-driver") {
		cfg.DatabaseDriver = c.String("db-driver")
	}
	if c.IsSet("database-url") {
		cfg.DatabaseURL = c.String("database-url")
	}
	if c.IsSet("log-level") {
		cfg.LogLevel = c.String("log-level")
	}
	if c.IsSet("timeout") {
		cfg.OperationTimeout = c.Duration("timeout")
	}
	if err := cfg.Validate(); err != nil {
		return config.Config{}, zerolog.Nop(), err
	}
	return cfg, newLogger(cfg), nil
}

func newLogger(cfg config.Config) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	log := zerolog.New(os.Stderr).With().Timestamp().Logger()
	if cfg.Development() {
		log = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}
	return log.Level(level)
}

// cliActor tags CLI-driven changes so they are distinguishable in the audit trail.
func cliActor(ctx context.Context, c *cli.Command) context.Context {
	actor := domain.Actor{UserAgent: "center-patient-cli"}
	if id := c.String("actor"); id != "" {
		actor.UserID = &id
	}
	return domain.WithActor(ctx, actor)
}

// withStore opens the store (running migrations) for the duration of fn.
func withStore(ctx context.Context, c *cli.Command, fn func(ctx context.Context, store *application.ClinicStore) error) error {
	cfg, log, err := loadSettings(c)
	if err != nil {
		return err
	}
	store, closeStore, err := openStore(ctx, cfg, log, true)
	if err != nil {
		return err
	}
	defer func() { _ = closeStore() }()
	return fn(cliActor(ctx, c), store)
}

func serverCommand() *cli.Command {
	return &cli.Command{
		Name:  "server",
		Usage: "Run HTTP server",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "host", Usage: "listen host (overrides HOST)"},
			&cli.IntFlag{Name: "port", Usage: "listen port (overrides PORT)"},
			&cli.BoolFlag{Name: "seed-demo", Usage: "insert demo users and cases on start (overrides SEED_DEMO)"},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			cfg, log, err := loadSettings(c)
			if err != nil {
				return err
			}
			if c.IsSet("host") {
				cfg.Host = c.String("host")
			}
			if c.IsSet("port") {
				cfg.Port = c.Int("port")
			}
			if c.IsSet("seed-demo") {
				cfg.SeedDemo = c.Bool("seed-demo")
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			return runServer(ctx, cfg, log)
		},
	}
}

func runServer(ctx context.Context, cfg config.Config, log zerolog.Logger) error {
	store, closeStore, err := openStore(ctx, cfg, log, true)
	if err != nil {
		return err
	}
	defer func() { _ = closeStore() }()

	if cfg.SeedDemo {
		res, err := seedDemo(domain.WithActor(ctx, domain.Actor{UserAgent: "center-patient-seed"}), store)
		if err != nil {
			return err
		}
		log.Info().Int("users", res.Users).Int("cases", res.Cases).Msg("demo data seeded")
	}

	router := httpadapter.NewRouter(store, log)
	srv := &http.Server{Addr: cfg.Addr(), Handler: router, ReadHeaderTimeout: 5 * time.Second}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", srv.Addr).Str("driver", cfg.DatabaseDriver).Msg("server listening")
		errCh <- srv.ListenAndServe()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Info().Str("signal", sig.String()).Msg("shutting down")
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func checkCommand() *cli.Command {
	return &cli.Command{
		Name:  "check",
		Usage: "Verify the database is reachable",
		Action: func(ctx context.Context, c *cli.Command) error {
			cfg, log, err := loadSettings(c)
			if err != nil {
				return err
			}
			if err := checkDatabase(ctx, cfg, log); err != nil {
				return fmt.Errorf("database check failed: %w", err)
			}
			fmt.Printf("database ok (%s)\n", cfg.DatabaseDriver)
			return nil
		},
	}
}

func migrateCommand() *cli.Command {
	return &cli.Command{
		Name:  "migrate",
		Usage: "Apply pending schema migrations",
		Action: func(ctx context.Context, c *cli.Command) error {
			return withStore(ctx, c, func(context.Context, *application.ClinicStore) error {
				fmt.Println("migrations applied")
				return nil
			})
		},
	}
}

func seedCommand() *cli.Command {
	return &cli.Command{
		Name:  "seed",
		Usage: "Insert demo users, profiles and cases",
		Action: func(ctx context.Context, c *cli.Command) error {
			return withStore(ctx, c, func(ctx context.Context, store *application.ClinicStore) error {
				res, err := seedDemo(ctx, store)
				if err != nil {
					return err
				}
				printKV([][2]string{{"users_created", fmt.Sprint(res.Users)}, {"cases_created", fmt.Sprint(res.Cases)}})
				return nil
			})
		},
	}
}

func usersCommand() *cli.Command {
	return &cli.Command{
		Name:  "users",
		Usage: "Manage users",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List users",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "role"},
					&cli.StringFlag{Name: "q", Usage: "match email or name"},
					&cli.IntFlag{Name: "limit", Value: 100},
					&cli.BoolFlag{Name: "json", Usage: "output raw JSON"},
				},
				Action: func(ctx context.Context, c *cli.Command) error {
					return withStore(ctx, c, func(ctx context.Context, store *application.ClinicStore) error {
						out, err := store.ListUsers(ctx, domain.UserFilter{Role: domain.Role(c.String("role")), Query: c.String("q"), Limit: c.Int("limit")})
						if err != nil {
							return err
						}
						if c.Bool("json") {
							return printJSON(out)
						}
						printUsers(out)
						return nil
					})
				},
			},
			{
				Name:  "create",
				Usage: "Create user",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "email", Required: true},
					&cli.StringFlag{Name: "password", Required: true},
					&cli.StringFlag{Name: "role", Value: string(domain.RolePatient)},
					&cli.StringFlag{Name: "first-name", Required: true},
					&cli.StringFlag{Name: "last-name", Required: true},
					&cli.BoolFlag{Name: "json", Usage: "output raw JSON"},
				},
				Action: func(ctx context.Context, c *cli.Command) error {
					hash, err := application.HashPassword(c.String("password"))
					if err != nil {
						return err
					}
					return withStore(ctx, c, func(ctx context.Context, store *application.ClinicStore) error {
						out, err := store.CreateUser(ctx, application.CreateUserInput{
							Email:        c.String("email"),
							PasswordHash: hash,
							Role:         domain.Role(c.String("role")),
							FirstName:    c.String("first-name"),
							LastName:     c.String("last-name"),
						})
						if err != nil {
							return err
						}
						if c.Bool("json") {
							return printJSON(out)
						}
						printUser(out)
						return nil
					})
				},
			},
			userActiveCommand("activate", "Re-enable a user", true),
			userActiveCommand("deactivate", "Disable a user without deleting records", false),
			{
				Name:  "delete",
				Usage: "Delete a user and the records that depend on them",
				Flags: []cli.Flag{&cli.StringFlag{Name: "id", Required: true}},
				Action: func(ctx context.Context, c *cli.Command) error {
					return withStore(ctx, c, func(ctx context.Context, store *application.ClinicStore) error {
						if err := store.DeleteUser(ctx, c.String("id")); err != nil {
							return err
						}
						fmt.Printf("deleted user %s\n", c.String("id"))
						return nil
					})
				},
			},
		},
	}
}

func userActiveCommand(name, usage string, active bool) *cli.Command {
	return &cli.Command{
		Name:  name,
		Usage: usage,
		Flags: []cli.Flag{&cli.StringFlag{Name: "id", Required: true}, &cli.BoolFlag{Name: "json", Usage: "output raw JSON"}},
		Action: func(ctx context.Context, c *cli.Command) error {
			return withStore(ctx, c, func(ctx context.Context, store *application.ClinicStore) error {
				out, err := store.SetUserActive(ctx, c.String("id"), active)
				if err != nil {
					return err
				}
				if c.Bool("json") {
					return printJSON(out)
				}
				printUser(out)
				return nil
			})
		},
	}
}

func casesCommand() *cli.Command {
	return &cli.Command{
		Name:  "cases",
		Usage: "Inspect and move medical cases",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List cases",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "patient"},
					&cli.StringFlag{Name: "doctor"},
					&cli.StringSliceFlag{Name: "status"},
					&cli.IntFlag{Name: "limit", Value: 100},
					&cli.BoolFlag{Name: "json", Usage: "output raw JSON"},
				},
				Action: func(ctx context.Context, c *cli.Command) error {
					statuses := make([]domain.CaseStatus, 0, len(c.StringSlice("status")))
					for _, s := range c.StringSlice("status") {
						statuses = append(statuses, domain.CaseStatus(s))
					}
					return withStore(ctx, c, func(ctx context.Context, store *application.ClinicStore) error {
						out, err := store.ListCases(ctx, domain.CaseFilter{
							PatientID: c.String("patient"),
							DoctorID:  c.String("doctor"),
							Statuses:  statuses,
							Limit:     c.Int("limit"),
						})
						if err != nil {
							return err
						}
						if c.Bool("json") {
							return printJSON(out)
						}
						printCases(out)
						return nil
					})
				},
			},
			{
				Name:  "queue",
				Usage: "Show the doctor review queue",
				Flags: []cli.Flag{&cli.IntFlag{Name: "limit"}, &cli.BoolFlag{Name: "json", Usage: "output raw JSON"}},
				Action: func(ctx context.Context, c *cli.Command) error {
					return withStore(ctx, c, func(ctx context.Context, store *application.ClinicStore) error {
						out, err := store.ReviewQueue(ctx, c.Int("limit"))
						if err != nil {
							return err
						}
						if c.Bool("json") {
							return printJSON(out)
						}
						printCases(out)
						return nil
					})
				},
			},
			{
				Name:  "show",
				Usage: "Show a case with its assessments and diagnoses",
				Flags: []cli.Flag{&cli.StringFlag{Name: "id", Required: true}, &cli.BoolFlag{Name: "json", Usage: "output raw JSON"}},
				Action: func(ctx context.Context, c *cli.Command) error {
					return withStore(ctx, c, func(ctx context.Context, store *application.ClinicStore) error {
						out, err := loadCaseDetail(ctx, store, c.String("id"))
						if err != nil {
							return err
						}
						if c.Bool("json") {
							return printJSON(out)
						}
						printCaseDetail(out)
						return nil
					})
				},
			},
			{
				Name:  "transition",
				Usage: "Move a case to the next status",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "id", Required: true},
					&cli.StringFlag{Name: "status", Required: true},
					&cli.BoolFlag{Name: "json", Usage: "output raw JSON"},
				},
				Action: func(ctx context.Context, c *cli.Command) error {
					return withStore(ctx, c, func(ctx context.Context, store *application.ClinicStore) error {
						out, err := store.TransitionCaseStatus(ctx, c.String("id"), domain.CaseStatus(c.String("status")))
						if err != nil {
							return err
						}
						if c.Bool("json") {
							return printJSON(out)
						}
						printCases([]domain.MedicalCase{out})
						return nil
					})
				},
			},
		},
	}
}

func auditCommand() *cli.Command {
	return &cli.Command{
		Name:  "audit",
		Usage: "Audit log commands",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List audit logs, newest first",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "table"},
					&cli.StringFlag{Name: "record"},
					&cli.StringFlag{Name: "user"},
					&cli.IntFlag{Name: "limit", Value: 100},
					&cli.BoolFlag{Name: "json", Usage: "output raw JSON"},
				},
				Action: func(ctx context.Context, c *cli.Command) error {
					return withStore(ctx, c, func(ctx context.Context, store *application.ClinicStore) error {
						out, err := store.ListAuditLogs(ctx, domain.AuditFilter{
							TableName: c.String("table"),
							RecordID:  c.String("record"),
							UserID:    c.String("user"),
							Limit:     c.Int("limit"),
						})
						if err != nil {
							return err
						}
						if c.Bool("json") {
							return printJSON(out)
						}
						printAuditLogs(out)
						return nil
					})
				},
			},
		},
	}
}

func statsCommand() *cli.Command {
	return &cli.Command{
		Name:  "stats",
		Usage: "Show case and user counts",
		Flags: []cli.Flag{&cli.BoolFlag{Name: "json", Usage: "output raw JSON"}},
		Action: func(ctx context.Context, c *cli.Command) error {
			return withStore(ctx, c, func(ctx context.Context, store *application.ClinicStore) error {
				out, err := store.Stats(ctx)
				if err != nil {
					return err
				}
				if c.Bool("json") {
					return printJSON(out)
				}
				printStats(out)
				return nil
			})
		},
	}
}

func statusCommand() *cli.Command {
	return &cli.Command{
		Name:  "status",
		Usage: "Query a running server's health and stats",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "server", Value: "http://127.0.0.1:8000"},
			&cli.BoolFlag{Name: "json", Usage: "output raw JSON"},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			client := newAPIClient(c.String("server"), c.String("actor"))
			out, err := fetchStatus(ctx, client)
			if err != nil {
				return err
			}
			if c.Bool("json") {
				return printJSON(out)
			}
			printKV([][2]string{{"status", out.Health.Status}, {"database", out.Health.Database}, {"uptime", out.Health.Uptime}})
			printStats(out.Stats)
			return nil
		},
	}
}

func jsonMarshal(v any) ([]byte, error) {
	return json.MarshalIndent(v, "", "  ")
}
