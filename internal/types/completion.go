package types

import (
	"time"

	"github.com/google/uuid"
)

// Completion is the terminal record for a completed item, course or plan.
// Its existence is authoritative over any live progress value, which is
// what lets an administrator complete something manually.
type Completion struct {
	ID             uuid.UUID  `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	UserID         uuid.UUID  `gorm:"type:uuid;not null;index;column:user_id" json:"user_id"`
	User           *User      `gorm:"constraint:OnDelete:CASCADE;foreignKey:UserID;references:ID" json:"user,omitempty"`
	ContentItemID  *uuid.UUID `gorm:"type:uuid;uniqueIndex:idx_user_item_completion;column:content_item_id" json:"content_item_id,omitempty"`
	CourseID       *uuid.UUID `gorm:"type:uuid;uniqueIndex:idx_user_course_completion;column:course_id" json:"course_id,omitempty"`
	LearningPlanID *uuid.UUID `gorm:"type:uuid;uniqueIndex:idx_user_plan_completion;column:learning_plan_id" json:"learning_plan_id,omitempty"`
	CompletedAt    time.Time  `gorm:"column:completed_at;not null;default:now()" json:"completed_at"`
	CreatedAt      time.Time  `gorm:"not null;default:now()" json:"created_at"`
}

func (Completion) TableName() string { return "completion" }
