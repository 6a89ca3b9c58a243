package store

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"HealthAssist/models"
	"HealthAssist/pkg/logger"
)

type UserStore interface {
	Create(ctx context.Context, user *models.User) error
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByID(ctx context.Context, id string) (*models.User, error)
}

type userStore struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewUserStore(db *gorm.DB, log *logger.Logger) UserStore {
	return &userStore{db: db, log: log.With("store", "UserStore")}
}

// Create relies on the unique email index, so concurrent registrations of
// one address yield exactly one row and ErrDuplicate for the rest.
func (s *userStore) Create(ctx context.Context, user *models.User) error {
	if err := s.db.WithContext(ctx).Create(user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrDuplicate
		}
		s.log.Error("failed to create user", "error", err)
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

func (s *userStore) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	if err := s.db.WithContext(ctx).Where("email = ?", email).First(&u).Error; err != nil {
		return nil, translate(err)
	}
	return &u, nil
}

func (s *userStore) GetByID(ctx context.Context, id string) (*models.User, error) {
	var u models.User
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&u).Error; err != nil {
		return nil, translate(err)
	}
	return &u, nil
}
