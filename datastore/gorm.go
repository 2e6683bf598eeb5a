package datastore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/coreybb/ikizamini/models"
	"github.com/google/uuid"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// GormStore is the ORM-over-relational backend. TranslateError lets the
// postgres driver surface unique violations as gorm.ErrDuplicatedKey.
type GormStore struct {
	db *gorm.DB
}

// OpenGorm connects via the GORM postgres driver and auto-migrates the schema.
func OpenGorm(ctx context.Context, dsn string) (*GormStore, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		return nil, fmt.Errorf("failed to open gorm connection: %w", err)
	}

	if err := db.WithContext(ctx).AutoMigrate(&models.User{}, &models.Mark{}, &models.ContactMessage{}); err != nil {
		return nil, fmt.Errorf("failed to auto-migrate schema: %w", err)
	}

	return &GormStore{db: db}, nil
}

func (s *GormStore) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.findUser(ctx, "email = ?", email)
}

func (s *GormStore) FindUserByName(ctx context.Context, name string) (*models.User, error) {
	return s.findUser(ctx, "name = ?", name)
}

func (s *GormStore) findUser(ctx context.Context, query string, arg any) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).Where(query, arg).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	return &user, nil
}

func (s *GormStore) CreateUser(ctx context.Context, user *models.User) error {
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	user.CreatedAt = time.Now().UTC()

	if err := s.db.WithContext(ctx).Create(user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrDuplicateEmail
		}
		return fmt.Errorf("failed to insert user: %w", err)
	}
	return nil
}

func (s *GormStore) MarkVerified(ctx context.Context, email string) error {
	err := s.db.WithContext(ctx).
		Model(&models.User{}).
		Where("email = ?", email).
		Updates(map[string]any{"verified": true, "otp_code": ""}).Error
	if err != nil {
		return fmt.Errorf("failed to mark user verified: %w", err)
	}
	return nil
}

func (s *GormStore) CreateMark(ctx context.Context, userID string, score, total int) (*models.Mark, error) {
	mark := models.Mark{
		ID:        uuid.NewString(),
		UserID:    userID,
		Score:     score,
		Total:     total,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.db.WithContext(ctx).Create(&mark).Error; err != nil {
		return nil, fmt.Errorf("failed to insert mark: %w", err)
	}
	return &mark, nil
}

func (s *GormStore) ListMarksByUser(ctx context.Context, userID string) ([]models.Mark, error) {
	var marks []models.Mark
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&marks).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query marks: %w", err)
	}
	return marks, nil
}

func (s *GormStore) CreateContactMessage(ctx context.Context, msg *models.ContactMessage) error {
	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}
	msg.CreatedAt = time.Now().UTC()

	if err := s.db.WithContext(ctx).Create(msg).Error; err != nil {
		return fmt.Errorf("failed to insert contact message: %w", err)
	}
	return nil
}

func (s *GormStore) Close(_ context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
