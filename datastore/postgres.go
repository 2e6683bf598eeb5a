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
	"github.com/lib/pq"
	"github.com/pressly/goose/v3"
)

const (
	pgPingTimeout       = 5 * time.Second
	pgMaxOpenConns      = 25
	pgMaxIdleConns      = 25
	pgConnMaxLifetime   = 5 * time.Minute
	pqUniqueViolation   = "23505"
	pgMigrationsSubpath = "postgres"
)

// PostgresStore is the raw-SQL relational backend over lib/pq.
type PostgresStore struct {
	db *sql.DB
}

// OpenPostgres opens a connection pool, verifies it, and applies the embedded
// schema migrations.
func OpenPostgres(ctx context.Context, dsn string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}

	db.SetMaxOpenConns(pgMaxOpenConns)
	db.SetMaxIdleConns(pgMaxIdleConns)
	db.SetConnMaxLifetime(pgConnMaxLifetime)

	pingCtx, cancel := context.WithTimeout(ctx, pgPingTimeout)
	defer cancel()

	if err = db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	goose.SetBaseFS(migrations.FS)
	if err := goose.SetDialect("postgres"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set migration dialect: %w", err)
	}
	if err := goose.UpContext(ctx, db, pgMigrationsSubpath); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &PostgresStore{db: db}, nil
}

func (s *PostgresStore) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `
		SELECT id, name, email, password_hash, is_verified, otp_code, created_at
		FROM users
		WHERE email = $1
	`
	return s.scanUser(s.db.QueryRowContext(ctx, query, email))
}

func (s *PostgresStore) FindUserByName(ctx context.Context, name string) (*models.User, error) {
	query := `
		SELECT id, name, email, password_hash, is_verified, otp_code, created_at
		FROM users
		WHERE name = $1
	`
	return s.scanUser(s.db.QueryRowContext(ctx, query, name))
}

func (s *PostgresStore) scanUser(row *sql.Row) (*models.User, error) {
	var user models.User
	var otp sql.NullString
	err := row.Scan(&user.ID, &user.Name, &user.Email, &user.PasswordHash, &user.Verified, &otp, &user.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to scan user row: %w", err)
	}
	user.OTPCode = otp.String
	return &user, nil
}

func (s *PostgresStore) CreateUser(ctx context.Context, user *models.User) error {
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	user.CreatedAt = time.Now().UTC()

	query := `
		INSERT INTO users (id, name, email, password_hash, is_verified, otp_code, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := s.db.ExecContext(ctx, query,
		user.ID, user.Name, user.Email, user.PasswordHash, user.Verified, user.OTPCode, user.CreatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == pqUniqueViolation {
			return ErrDuplicateEmail
		}
		return fmt.Errorf("failed to insert user: %w", err)
	}
	return nil
}

func (s *PostgresStore) MarkVerified(ctx context.Context, email string) error {
	query := `
		UPDATE users
		SET is_verified = TRUE, otp_code = NULL
		WHERE email = $1
	`
	if _, err := s.db.ExecContext(ctx, query, email); err != nil {
		return fmt.Errorf("failed to mark user verified: %w", err)
	}
	return nil
}

func (s *PostgresStore) CreateMark(ctx context.Context, userID string, score, total int) (*models.Mark, error) {
	mark := models.Mark{
		ID:        uuid.NewString(),
		UserID:    userID,
		Score:     score,
		Total:     total,
		CreatedAt: time.Now().UTC(),
	}

	query := `
		INSERT INTO marks (id, user_id, score, total, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := s.db.ExecContext(ctx, query, mark.ID, mark.UserID, mark.Score, mark.Total, mark.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to insert mark: %w", err)
	}
	return &mark, nil
}

func (s *PostgresStore) ListMarksByUser(ctx context.Context, userID string) ([]models.Mark, error) {
	query := `
		SELECT id, user_id, score, total, created_at
		FROM marks
		WHERE user_id = $1
		ORDER BY created_at DESC
	`
	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query marks: %w", err)
	}
	defer rows.Close()

	var marks []models.Mark
	for rows.Next() {
		var mark models.Mark
		if err := rows.Scan(&mark.ID, &mark.UserID, &mark.Score, &mark.Total, &mark.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan mark row: %w", err)
		}
		marks = append(marks, mark)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating mark rows: %w", err)
	}
	return marks, nil
}

func (s *PostgresStore) CreateContactMessage(ctx context.Context, msg *models.ContactMessage) error {
	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}
	msg.CreatedAt = time.Now().UTC()

	query := `
		INSERT INTO contacts (id, name, email, phone, message, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := s.db.ExecContext(ctx, query, msg.ID, msg.Name, msg.Email, msg.Phone, msg.Message, msg.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert contact message: %w", err)
	}
	return nil
}

func (s *PostgresStore) Close(_ context.Context) error {
	return s.db.Close()
}
