package datastore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/coreybb/ikizamini/datastore/migrations"
	"github.com/coreybb/ikizamini/models"
	"github.com/google/uuid"
	"github.com/pressly/goose/v3"
	msqlite "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"
)

const sqliteMigrationsSubpath = "sqlite"

// SQLiteStore is the embedded file-database backend over modernc.org/sqlite.
// Timestamps are persisted as UTC Unix milliseconds.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens (or creates) the database file and applies the embedded
// schema migrations. SQLite has a single writer, so the pool is capped at one
// connection; this also keeps ":memory:" databases coherent in tests.
func OpenSQLite(ctx context.Context, path string) (*SQLiteStore, error) {
	dsn := path + "?_pragma=journal_mode(WAL)&_pragma=foreign_keys(ON)&_pragma=busy_timeout(5000)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite db: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping sqlite db: %w", err)
	}

	goose.SetBaseFS(migrations.FS)
	if err := goose.SetDialect("sqlite3"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set migration dialect: %w", err)
	}
	if err := goose.UpContext(ctx, db, sqliteMigrationsSubpath); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

func isSQLiteUniqueViolation(err error) bool {
	var sqliteErr *msqlite.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code() {
		case sqlite3lib.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3lib.SQLITE_CONSTRAINT_UNIQUE:
			return true
		}
	}
	return false
}

func (s *SQLiteStore) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `
		SELECT id, name, email, password_hash, is_verified, otp_code, created_at
		FROM users
		WHERE email = ?
	`
	return s.scanUser(s.db.QueryRowContext(ctx, query, email))
}

func (s *SQLiteStore) FindUserByName(ctx context.Context, name string) (*models.User, error) {
	query := `
		SELECT id, name, email, password_hash, is_verified, otp_code, created_at
		FROM users
		WHERE name = ?
	`
	return s.scanUser(s.db.QueryRowContext(ctx, query, name))
}

func (s *SQLiteStore) scanUser(row *sql.Row) (*models.User, error) {
	var user models.User
	var verified int64
	var otp sql.NullString
	var createdAt int64
	err := row.Scan(&user.ID, &user.Name, &user.Email, &user.PasswordHash, &verified, &otp, &createdAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to scan user row: %w", err)
	}
	user.Verified = verified != 0
	user.OTPCode = otp.String
	user.CreatedAt = fromMillis(createdAt)
	return &user, nil
}

func (s *SQLiteStore) CreateUser(ctx context.Context, user *models.User) error {
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	user.CreatedAt = time.Now().UTC()

	verified := 0
	if user.Verified {
		verified = 1
	}

	query := `
		INSERT INTO users (id, name, email, password_hash, is_verified, otp_code, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	_, err := s.db.ExecContext(ctx, query,
		user.ID, user.Name, user.Email, user.PasswordHash, verified, user.OTPCode, toMillis(user.CreatedAt))
	if err != nil {
		if isSQLiteUniqueViolation(err) {
			return ErrDuplicateEmail
		}
		return fmt.Errorf("failed to insert user: %w", err)
	}
	return nil
}

func (s *SQLiteStore) MarkVerified(ctx context.Context, email string) error {
	query := `
		UPDATE users
		SET is_verified = 1, otp_code = NULL
		WHERE email = ?
	`
	if _, err := s.db.ExecContext(ctx, query, email); err != nil {
		return fmt.Errorf("failed to mark user verified: %w", err)
	}
	return nil
}

func (s *SQLiteStore) CreateMark(ctx context.Context, userID string, score, total int) (*models.Mark, error) {
	mark := models.Mark{
		ID:        uuid.NewString(),
		UserID:    userID,
		Score:     score,
		Total:     total,
		CreatedAt: time.Now().UTC(),
	}

	query := `
		INSERT INTO marks (id, user_id, score, total, created_at)
		VALUES (?, ?, ?, ?, ?)
	`
	_, err := s.db.ExecContext(ctx, query, mark.ID, mark.UserID, mark.Score, mark.Total, toMillis(mark.CreatedAt))
	if err != nil {
		return nil, fmt.Errorf("failed to insert mark: %w", err)
	}
	return &mark, nil
}

func (s *SQLiteStore) ListMarksByUser(ctx context.Context, userID string) ([]models.Mark, error) {
	query := `
		SELECT id, user_id, score, total, created_at
		FROM marks
		WHERE user_id = ?
		ORDER BY created_at DESC, rowid DESC
	`
	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query marks: %w", err)
	}
	defer rows.Close()

	var marks []models.Mark
	for rows.Next() {
		var mark models.Mark
		var createdAt int64
		if err := rows.Scan(&mark.ID, &mark.UserID, &mark.Score, &mark.Total, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan mark row: %w", err)
		}
		mark.CreatedAt = fromMillis(createdAt)
		marks = append(marks, mark)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating mark rows: %w", err)
	}
	return marks, nil
}

func (s *SQLiteStore) CreateContactMessage(ctx context.Context, msg *models.ContactMessage) error {
	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}
	msg.CreatedAt = time.Now().UTC()

	query := `
		INSERT INTO contacts (id, name, email, phone, message, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	_, err := s.db.ExecContext(ctx, query,
		msg.ID, msg.Name, msg.Email, msg.Phone, msg.Message, toMillis(msg.CreatedAt))
	if err != nil {
		return fmt.Errorf("failed to insert contact message: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Close(_ context.Context) error {
	return s.db.Close()
}
