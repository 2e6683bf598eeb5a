package datastore

import (
	"context"
	"errors"
	"fmt"

	"github.com/coreybb/ikizamini/models"
)

// Sentinel errors shared by every backend. Each implementation translates its
// engine's native failure into one of these so handlers never see driver types.
var (
	// ErrDuplicateEmail is returned by CreateUser when the email is already
	// registered. Enforced by a storage-level uniqueness constraint, never by
	// a check-then-insert.
	ErrDuplicateEmail = errors.New("email already registered")

	// ErrNotFound is returned by lookups that match no record.
	ErrNotFound = errors.New("record not found")
)

// Store abstracts persistence for users, marks, and contact messages. Four
// interchangeable implementations exist (Postgres, SQLite, MongoDB, GORM);
// the active one is chosen at startup via Open.
type Store interface {
	FindUserByEmail(ctx context.Context, email string) (*models.User, error)
	FindUserByName(ctx context.Context, name string) (*models.User, error)

	// CreateUser inserts the user atomically. The caller provides ID, Name,
	// Email, PasswordHash, and OTPCode; the store stamps CreatedAt.
	CreateUser(ctx context.Context, user *models.User) error

	// MarkVerified sets the verified flag and clears the stored OTP code.
	// A no-op (nil error) when no user matches the email.
	MarkVerified(ctx context.Context, email string) error

	// CreateMark records one quiz attempt. The store assigns ID and the UTC
	// creation timestamp.
	CreateMark(ctx context.Context, userID string, score, total int) (*models.Mark, error)

	// ListMarksByUser returns the user's marks ordered newest first.
	ListMarksByUser(ctx context.Context, userID string) ([]models.Mark, error)

	CreateContactMessage(ctx context.Context, msg *models.ContactMessage) error

	Close(ctx context.Context) error
}

// Supported storage drivers.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
	DriverMongo    = "mongo"
	DriverGorm     = "gorm"
)

// Open connects the backend named by driver and runs its schema setup.
func Open(ctx context.Context, driver, dsn string) (Store, error) {
	switch driver {
	case DriverPostgres:
		return OpenPostgres(ctx, dsn)
	case DriverSQLite:
		return OpenSQLite(ctx, dsn)
	case DriverMongo:
		return OpenMongo(ctx, dsn)
	case DriverGorm:
		return OpenGorm(ctx, dsn)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", driver)
	}
}
