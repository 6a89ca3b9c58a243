package models

import (
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ConversationMessage is one append-only turn of a user's chat history.
type ConversationMessage struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	UserID    string    `gorm:"size:36;not null;index:idx_conversations_user_seq" json:"user_id"`
	Role      string    `gorm:"size:20;not null" json:"role"` // "user" or "assistant"
	Content   string    `gorm:"type:text;not null" json:"content"`
	CreatedAt time.Time `json:"created_at"`
	// Seq orders messages when created_at ties at the column's precision.
	Seq int64 `gorm:"not null;index:idx_conversations_user_seq" json:"-"`
}

func (ConversationMessage) TableName() string {
	return "conversations"
}

func (m *ConversationMessage) BeforeCreate(tx *gorm.DB) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	if m.Seq == 0 {
		m.Seq = nextSeq()
	}
	return nil
}

var lastSeq atomic.Int64

// nextSeq is the wall clock in nanoseconds, bumped so that it never repeats
// or goes backwards within the process.
func nextSeq() int64 {
	for {
		last := lastSeq.Load()
		next := max(time.Now().UnixNano(), last+1)
		if lastSeq.CompareAndSwap(last, next) {
			return next
		}
	}
}
