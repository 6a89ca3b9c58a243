package store

import (
	"context"
	"fmt"
	"slices"

	"gorm.io/gorm"

	"HealthAssist/models"
	"HealthAssist/pkg/logger"
)

type ConversationStore interface {
	Append(ctx context.Context, msg *models.ConversationMessage) error
	AppendMany(ctx context.Context, msgs []*models.ConversationMessage) error
	// ListByUser returns the newest limit messages in chronological order.
	ListByUser(ctx context.Context, userID string, limit int) ([]models.ConversationMessage, error)
}

type conversationStore struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewConversationStore(db *gorm.DB, log *logger.Logger) ConversationStore {
	return &conversationStore{db: db, log: log.With("store", "ConversationStore")}
}

func (s *conversationStore) Append(ctx context.Context, msg *models.ConversationMessage) error {
	if err := s.db.WithContext(ctx).Create(msg).Error; err != nil {
		s.log.Error("failed to append conversation message", "userID", msg.UserID, "role", msg.Role, "error", err)
		return fmt.Errorf("append %s message: %w", msg.Role, err)
	}
	return nil
}

func (s *conversationStore) AppendMany(ctx context.Context, msgs []*models.ConversationMessage) error {
	if len(msgs) == 0 {
		return nil
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// rows keep slice order through their seq
		for _, m := range msgs {
			if err := tx.Create(m).Error; err != nil {
				return fmt.Errorf("append %s message: %w", m.Role, err)
			}
		}
		return nil
	})
}

func (s *conversationStore) ListByUser(ctx context.Context, userID string, limit int) ([]models.ConversationMessage, error) {
	var msgs []models.ConversationMessage
	if err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("seq DESC").
		Limit(limit).
		Find(&msgs).Error; err != nil {
		return nil, fmt.Errorf("list conversation: %w", err)
	}
	slices.Reverse(msgs)
	return msgs, nil
}
