package gormdb

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/viray-carlos-miguel/center-patient/internal/domain"
	"gorm.io/gorm"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// classify maps driver and gorm errors onto the domain error kinds. Anything
// unrecognised is a store failure.
func classify(err error) error {
	if err == nil {
		return nil
	}
	var de *domain.Error
	if errors.As(err, &de) {
		return err
	}

	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return &domain.Error{Kind: domain.ErrReferenceNotFound, Msg: "record not found"}
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return &domain.Error{Kind: domain.ErrDuplicateKey, Err: err}
	case errors.Is(err, gorm.ErrForeignKeyViolated):
		return &domain.Error{Kind: domain.ErrReferenceNotFound, Err: err}
	case errors.Is(err, gorm.ErrCheckConstraintViolated):
		return &domain.Error{Kind: domain.ErrValidation, Err: err}
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505":
			return &domain.Error{Kind: domain.ErrDuplicateKey, Msg: pgErr.ConstraintName, Err: err}
		case "23503":
			return &domain.Error{Kind: domain.ErrReferenceNotFound, Msg: pgErr.ConstraintName, Err: err}
		case "23514", "23502":
			return &domain.Error{Kind: domain.ErrValidation, Msg: pgErr.ConstraintName, Err: err}
		case "22P02":
			// A malformed UUID in a key or reference column cannot point at a row.
			return &domain.Error{Kind: domain.ErrReferenceNotFound, Msg: "malformed identifier", Err: err}
		}
		return domain.Unavailable(err)
	}

	var sqErr *sqlite.Error
	if errors.As(err, &sqErr) {
		switch sqErr.Code() {
		case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
			return &domain.Error{Kind: domain.ErrDuplicateKey, Err: err}
		case sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY:
			return &domain.Error{Kind: domain.ErrReferenceNotFound, Err: err}
		case sqlite3.SQLITE_CONSTRAINT_CHECK, sqlite3.SQLITE_CONSTRAINT_NOTNULL:
			return &domain.Error{Kind: domain.ErrValidation, Err: err}
		case sqlite3.SQLITE_CONSTRAINT:
			return classifyConstraintMessage(err)
		}
	}

	return domain.Unavailable(err)
}

// classifyConstraintMessage is the fallback when only the primary result code
// is reported.
func classifyConstraintMessage(err error) error {
	msg := err.Error()
	switch {
	case strings.Contains(msg, "UNIQUE constraint failed"):
		return &domain.Error{Kind: domain.ErrDuplicateKey, Err: err}
	case strings.Contains(msg, "FOREIGN KEY constraint failed"):
		return &domain.Error{Kind: domain.ErrReferenceNotFound, Err: err}
	case strings.Contains(msg, "CHECK constraint failed"), strings.Contains(msg, "NOT NULL constraint failed"):
		return &domain.Error{Kind: domain.ErrValidation, Err: err}
	}
	return domain.Unavailable(err)
}

func notFound(err error, entity, id string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.NotFoundf("%s %s not found", entity, id)
	}
	return classify(err)
}
