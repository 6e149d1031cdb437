package types

import (
	"time"

	"github.com/google/uuid"
)

// ProgressRecord accumulates one user's measure against one content item.
// Upserts are keyed (user_id, content_item_id) and monotonic: a replayed
// or stale ping never lowers the stored measure.
type ProgressRecord struct {
	ID               uuid.UUID    `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	UserID           uuid.UUID    `gorm:"type:uuid;not null;uniqueIndex:idx_user_item_progress;column:user_id" json:"user_id"`
	User             *User        `gorm:"constraint:OnDelete:CASCADE;foreignKey:UserID;references:ID" json:"user,omitempty"`
	ContentItemID    uuid.UUID    `gorm:"type:uuid;not null;uniqueIndex:idx_user_item_progress;column:content_item_id" json:"content_item_id"`
	ContentItem      *ContentItem `gorm:"constraint:OnDelete:CASCADE;foreignKey:ContentItemID;references:ID" json:"content_item,omitempty"`
	WatchTimeSeconds int          `gorm:"column:watch_time_seconds;not null;default:0" json:"watch_time_seconds"`
	LastPageViewed   int          `gorm:"column:last_page_viewed;not null;default:0" json:"last_page_viewed"`
	Progress         float64      `gorm:"column:progress;not null;default:0" json:"progress"`
	Completed        bool         `gorm:"column:completed;not null;default:false" json:"completed"`
	LastActivityAt   time.Time    `gorm:"column:last_activity_at;not null;default:now()" json:"last_activity_at"`
	CreatedAt        time.Time    `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt        time.Time    `gorm:"not null;default:now()" json:"updated_at"`
}

func (ProgressRecord) TableName() string { return "progress_record" }
