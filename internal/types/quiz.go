package types

import (
	"time"

	"github.com/google/uuid"
)

// Quiz backs a TEST content item. Scores live in [0,1].
type Quiz struct {
	ID             uuid.UUID    `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	ContentItemID  uuid.UUID    `gorm:"type:uuid;not null;uniqueIndex;column:content_item_id" json:"content_item_id"`
	ContentItem    *ContentItem `gorm:"constraint:OnDelete:CASCADE;foreignKey:ContentItemID;references:ID" json:"content_item,omitempty"`
	PassingScore   float64      `gorm:"column:passing_score;not null;default:0.7" json:"passing_score"`
	UseBestAttempt bool         `gorm:"column:use_best_attempt;not null;default:true" json:"use_best_attempt"`
	CreatedAt      time.Time    `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt      time.Time    `gorm:"not null;default:now()" json:"updated_at"`
}

func (Quiz) TableName() string { return "quiz" }

type QuizAttempt struct {
	ID          uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	QuizID      uuid.UUID `gorm:"type:uuid;not null;index;column:quiz_id" json:"quiz_id"`
	Quiz        *Quiz     `gorm:"constraint:OnDelete:CASCADE;foreignKey:QuizID;references:ID" json:"quiz,omitempty"`
	UserID      uuid.UUID `gorm:"type:uuid;not null;index;column:user_id" json:"user_id"`
	User        *User     `gorm:"constraint:OnDelete:CASCADE;foreignKey:UserID;references:ID" json:"user,omitempty"`
	Score       float64   `gorm:"column:score;not null" json:"score"`
	Passed      bool      `gorm:"column:passed;not null;default:false" json:"passed"`
	AttemptedAt time.Time `gorm:"column:attempted_at;not null;default:now()" json:"attempted_at"`
	CreatedAt   time.Time `gorm:"not null;default:now()" json:"created_at"`
}

func (QuizAttempt) TableName() string { return "quiz_attempt" }
