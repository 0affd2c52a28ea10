package application

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/viray-carlos-miguel/center-patient/internal/domain"
	"golang.org/x/crypto/bcrypt"
)

const DefaultOperationTimeout = 5 * time.Second

// ClinicStore is the only write path into the clinic records. Each mutating
// call is one transaction that also writes exactly one audit entry.
type ClinicStore struct {
	repo    domain.ClinicRepository
	sink    domain.AuditSink
	log     zerolog.Logger
	now     func() time.Time
	newID   func() string
	timeout time.Duration
}

type Option func(*ClinicStore)

func WithAuditSink(sink domain.AuditSink) Option {
	return func(s *ClinicStore) { s.sink = sink }
}

func WithLogger(log zerolog.Logger) Option {
	return func(s *ClinicStore) { s.log = log }
}

func WithClock(now func() time.Time) Option {
	return func(s *ClinicStore) { s.now = now }
}

func WithIDGenerator(newID func() string) Option {
	return func(s *ClinicStore) { s.newID = newID }
}

// WithTimeout bounds every operation. Zero or negative disables the bound.
func WithTimeout(d time.Duration) Option {
	return func(s *ClinicStore) { s.timeout = d }
}

func NewClinicStore(repo domain.ClinicRepository, opts ...Option) *ClinicStore {
	s := &ClinicStore{
		repo:    repo,
		log:     zerolog.Nop(),
		now:     func() time.Time { return time.Now().UTC().Truncate(time.Microsecond) },
		newID:   uuid.NewString,
		timeout: DefaultOperationTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// change describes the single row a mutation touched.
type change struct {
	action domain.AuditAction
	table  string
	id     string
	before any
	after  any
}

func created(table, id string, after any) change {
	return change{action: domain.AuditCreate, table: table, id: id, after: after}
}

func updated(table, id string, before, after any) change {
	return change{action: domain.AuditUpdate, table: table, id: id, before: before, after: after}
}

func deleted(table, id string, before any) change {
	return change{action: domain.AuditDelete, table: table, id: id, before: before}
}

// beforeCommit refreshes the entity's timestamps with the operation time. Every
// write of a mutable entity goes through it.
func beforeCommit(entity domain.Timestamped, now time.Time) {
	entity.Touch(now)
}

func (s *ClinicStore) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.timeout)
}

// mutate runs fn in one transaction, records its change in the audit log
// inside the same transaction and notifies the sink once committed.
func (s *ClinicStore) mutate(ctx context.Context, op string, fn func(ctx context.Context, tx domain.ClinicRepository, now time.Time) (change, error)) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	now := s.now()
	actor := domain.ActorFrom(ctx)

	var entry domain.AuditLog
	err := s.repo.InTx(ctx, func(tx domain.ClinicRepository) error {
		c, err := fn(ctx, tx, now)
		if err != nil {
			return err
		}
		entry, err = s.auditEntry(actor, now, c)
		if err != nil {
			return err
		}
		return tx.CreateAuditLog(ctx, entry)
	})
	if err != nil {
		return s.fail(op, err)
	}

	if s.sink != nil {
		s.sink.Record(ctx, entry)
	}
	return nil
}

func (s *ClinicStore) auditEntry(actor domain.Actor, now time.Time, c change) (domain.AuditLog, error) {
	before, err := snapshot(c.before)
	if err != nil {
		return domain.AuditLog{}, err
	}
	after, err := snapshot(c.after)
	if err != nil {
		return domain.AuditLog{}, err
	}
	return domain.AuditLog{
		ID:        s.newID(),
		UserID:    actor.UserID,
		Action:    c.action,
		TableName: c.table,
		RecordID:  c.id,
		OldValues: before,
		NewValues: after,
		IPAddress: actor.IPAddress,
		UserAgent: actor.UserAgent,
		CreatedAt: now,
	}, nil
}

func snapshot(v any) (json.RawMessage, error) {
	if v == nil {
		return nil, nil
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, domain.Unavailable(err)
	}
	return raw, nil
}

// fail stamps op on err and logs failures that are not the caller's fault.
func (s *ClinicStore) fail(op string, err error) error {
	err = domain.WithOp(op, err)
	if errors.Is(err, domain.ErrStoreUnavailable) {
		s.log.Error().Err(err).Str("op", op).Msg("store operation failed")
	} else {
		s.log.Debug().Err(err).Str("op", op).Msg("store operation rejected")
	}
	return err
}

// read runs a query under the operation timeout.
func read[T any](ctx context.Context, s *ClinicStore, op string, fn func(ctx context.Context) (T, error)) (T, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	v, err := fn(ctx)
	if err != nil {
		var zero T
		return zero, s.fail(op, err)
	}
	return v, nil
}

func (s *ClinicStore) Ping(ctx context.Context) error {
	_, err := read(ctx, s, "ping", func(ctx context.Context) (struct{}, error) {
		return struct{}{}, s.repo.Ping(ctx)
	})
	return err
}

func (s *ClinicStore) Stats(ctx context.Context) (domain.Stats, error) {
	return read(ctx, s, "stats", func(ctx context.Context) (domain.Stats, error) {
		cases, err := s.repo.CountCasesByStatus(ctx)
		if err != nil {
			return domain.Stats{}, err
		}
		users, err := s.repo.CountUsersByRole(ctx)
		if err != nil {
			return domain.Stats{}, err
		}
		stats := domain.Stats{CasesByStatus: cases, UsersByRole: users}
		for _, n := range cases {
			stats.TotalCases += n
		}
		for _, n := range users {
			stats.TotalUsers += n
		}
		return stats, nil
	})
}

func (s *ClinicStore) ListAuditLogs(ctx context.Context, filter domain.AuditFilter) ([]domain.AuditLog, error) {
	filter.Limit = clampLimit(filter.Limit, 100, 1000)
	return read(ctx, s, "list audit logs", func(ctx context.Context) ([]domain.AuditLog, error) {
		return s.repo.ListAuditLogs(ctx, filter)
	})
}

func clampLimit(limit, fallback, max int) int {
	if limit <= 0 {
		return fallback
	}
	if limit > max {
		return max
	}
	return limit
}

// HashPassword produces the hash CreateUser expects.
func HashPassword(password string) (string, error) {
	if len(password) < 8 {
		return "", domain.Validationf("password must be at least 8 characters")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func CheckPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
