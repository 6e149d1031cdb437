package types

import (
	"time"

	"github.com/google/uuid"
)

const (
	EnrollmentPendingApproval = "PENDING_APPROVAL"
	EnrollmentEnrolled        = "ENROLLED"
	EnrollmentInProgress      = "IN_PROGRESS"
	EnrollmentCompleted       = "COMPLETED"
	EnrollmentDropped         = "DROPPED"
)

// OccupyingStatuses are the enrollment states that count against a
// capacity ceiling. PENDING_APPROVAL and DROPPED do not hold a slot.
var OccupyingStatuses = []string{
	EnrollmentEnrolled,
	EnrollmentInProgress,
	EnrollmentCompleted,
}

// Enrollment ties one user to exactly one course or one learning plan.
// Partial unique indexes keep at most one row per (user, course) and per
// (user, learning_plan).
type Enrollment struct {
	ID             uuid.UUID     `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	UserID         uuid.UUID     `gorm:"type:uuid;not null;index;column:user_id" json:"user_id"`
	User           *User         `gorm:"constraint:OnDelete:CASCADE;foreignKey:UserID;references:ID" json:"user,omitempty"`
	CourseID       *uuid.UUID    `gorm:"type:uuid;index;column:course_id" json:"course_id,omitempty"`
	Course         *Course       `gorm:"constraint:OnDelete:CASCADE;foreignKey:CourseID;references:ID" json:"course,omitempty"`
	LearningPlanID *uuid.UUID    `gorm:"type:uuid;index;column:learning_plan_id" json:"learning_plan_id,omitempty"`
	LearningPlan   *LearningPlan `gorm:"constraint:OnDelete:CASCADE;foreignKey:LearningPlanID;references:ID" json:"learning_plan,omitempty"`
	Status         string        `gorm:"column:status;not null;default:'ENROLLED'" json:"status"`
	EnrolledAt     time.Time     `gorm:"column:enrolled_at;not null;default:now()" json:"enrolled_at"`
	StartedAt      *time.Time    `gorm:"column:started_at" json:"started_at,omitempty"`
	CompletedAt    *time.Time    `gorm:"column:completed_at" json:"completed_at,omitempty"`
	DueDate        *time.Time    `gorm:"column:due_date" json:"due_date,omitempty"`
	ApprovedByID   *uuid.UUID    `gorm:"type:uuid;column:approved_by_id" json:"approved_by_id,omitempty"`
	ApprovedAt     *time.Time    `gorm:"column:approved_at" json:"approved_at,omitempty"`
	CreatedAt      time.Time     `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt      time.Time     `gorm:"not null;default:now()" json:"updated_at"`
}

func (Enrollment) TableName() string { return "enrollment" }

// Occupying reports whether this enrollment holds a capacity slot.
func (e *Enrollment) Occupying() bool {
	switch e.Status {
	case EnrollmentEnrolled, EnrollmentInProgress, EnrollmentCompleted:
		return true
	}
	return false
}

// Terminal reports whether the lifecycle can still move.
func (e *Enrollment) Terminal() bool {
	return e.Status == EnrollmentCompleted || e.Status == EnrollmentDropped
}
