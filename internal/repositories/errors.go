package repositories

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

var (
	ErrNotFound         = errors.New("not found")
	ErrDuplicateEmail   = errors.New("email already registered")
	ErrInvalidReference = errors.New("invalid reference")
	ErrStorage          = errors.New("storage error")
)

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

// classify maps driver and gorm errors onto the package sentinels.
func classify(err error) error {
	if err == nil {
		return nil
	}

	switch {
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrDuplicateEmail),
		errors.Is(err, ErrInvalidReference), errors.Is(err, ErrStorage):
		return err
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return ErrDuplicateEmail
	case errors.Is(err, gorm.ErrForeignKeyViolated):
		return ErrInvalidReference
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation:
			return ErrDuplicateEmail
		case pgForeignKeyViolation:
			return ErrInvalidReference
		}
	}

	return fmt.Errorf("%w: %v", ErrStorage, err)
}
