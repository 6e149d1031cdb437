package types

import (
	"time"

	"github.com/google/uuid"
)

// InstructorAssignment grants instructor rights on a course or a plan
// independent of creation. A plan assignment extends to every course the
// plan contains.
type InstructorAssignment struct {
	ID             uuid.UUID     `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	UserID         uuid.UUID     `gorm:"type:uuid;not null;index;column:user_id" json:"user_id"`
	User           *User         `gorm:"constraint:OnDelete:CASCADE;foreignKey:UserID;references:ID" json:"user,omitempty"`
	CourseID       *uuid.UUID    `gorm:"type:uuid;index;column:course_id" json:"course_id,omitempty"`
	Course         *Course       `gorm:"constraint:OnDelete:CASCADE;foreignKey:CourseID;references:ID" json:"course,omitempty"`
	LearningPlanID *uuid.UUID    `gorm:"type:uuid;index;column:learning_plan_id" json:"learning_plan_id,omitempty"`
	LearningPlan   *LearningPlan `gorm:"constraint:OnDelete:CASCADE;foreignKey:LearningPlanID;references:ID" json:"learning_plan,omitempty"`
	CreatedAt      time.Time     `gorm:"not null;default:now()" json:"created_at"`
}

func (InstructorAssignment) TableName() string { return "instructor_assignment" }
