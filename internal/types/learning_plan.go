package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type LearningPlan struct {
	ID               uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	CreatorID        uuid.UUID      `gorm:"type:uuid;not null;index;column:creator_id" json:"creator_id"`
	Creator          *User          `gorm:"constraint:OnDelete:CASCADE;foreignKey:CreatorID;references:ID" json:"creator,omitempty"`
	Title            string         `gorm:"column:title;not null" json:"title"`
	Description      string         `gorm:"column:description" json:"description"`
	PublicAccess     bool           `gorm:"column:public_access;not null;default:false" json:"public_access"`
	SelfEnrollment   bool           `gorm:"column:self_enrollment;not null;default:false" json:"self_enrollment"`
	RequiresApproval bool           `gorm:"column:requires_approval;not null;default:false" json:"requires_approval"`
	MaxEnrollments   *int           `gorm:"column:max_enrollments" json:"max_enrollments,omitempty"`
	Metadata         datatypes.JSON `gorm:"column:metadata;type:jsonb" json:"metadata,omitempty"`
	CreatedAt        time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt        time.Time      `gorm:"not null;default:now()" json:"updated_at"`
	DeletedAt        gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (LearningPlan) TableName() string { return "learning_plan" }

// LearningPlanCourse is the ordered containment join between a plan and
// its courses.
type LearningPlanCourse struct {
	ID             uuid.UUID     `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	LearningPlanID uuid.UUID     `gorm:"type:uuid;not null;uniqueIndex:idx_plan_course;column:learning_plan_id" json:"learning_plan_id"`
	LearningPlan   *LearningPlan `gorm:"constraint:OnDelete:CASCADE;foreignKey:LearningPlanID;references:ID" json:"learning_plan,omitempty"`
	CourseID       uuid.UUID     `gorm:"type:uuid;not null;uniqueIndex:idx_plan_course;column:course_id" json:"course_id"`
	Course         *Course       `gorm:"constraint:OnDelete:CASCADE;foreignKey:CourseID;references:ID" json:"course,omitempty"`
	Position       int           `gorm:"column:position;not null;default:0" json:"position"`
	CreatedAt      time.Time     `gorm:"not null;default:now()" json:"created_at"`
}

func (LearningPlanCourse) TableName() string { return "learning_plan_course" }
