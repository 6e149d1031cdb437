package types

import (
	"time"

	"github.com/google/uuid"
)

type Group struct {
	ID        uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	Name      string    `gorm:"column:name;not null" json:"name"`
	CreatorID uuid.UUID `gorm:"type:uuid;not null;index;column:creator_id" json:"creator_id"`
	Creator   *User     `gorm:"constraint:OnDelete:CASCADE;foreignKey:CreatorID;references:ID" json:"creator,omitempty"`
	CreatedAt time.Time `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:now()" json:"updated_at"`
}

func (Group) TableName() string { return "group" }

// GroupMembership is the join between users and groups, one row per
// (group, user) pair.
type GroupMembership struct {
	ID        uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	GroupID   uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_group_member;column:group_id" json:"group_id"`
	Group     *Group    `gorm:"constraint:OnDelete:CASCADE;foreignKey:GroupID;references:ID" json:"group,omitempty"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_group_member;column:user_id" json:"user_id"`
	User      *User     `gorm:"constraint:OnDelete:CASCADE;foreignKey:UserID;references:ID" json:"user,omitempty"`
	CreatedAt time.Time `gorm:"not null;default:now()" json:"created_at"`
}

func (GroupMembership) TableName() string { return "group_membership" }

// GroupAccess grants a whole group read access to a course or a plan.
type GroupAccess struct {
	ID             uuid.UUID     `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	GroupID        uuid.UUID     `gorm:"type:uuid;not null;index;column:group_id" json:"group_id"`
	Group          *Group        `gorm:"constraint:OnDelete:CASCADE;foreignKey:GroupID;references:ID" json:"group,omitempty"`
	CourseID       *uuid.UUID    `gorm:"type:uuid;index;column:course_id" json:"course_id,omitempty"`
	Course         *Course       `gorm:"constraint:OnDelete:CASCADE;foreignKey:CourseID;references:ID" json:"course,omitempty"`
	LearningPlanID *uuid.UUID    `gorm:"type:uuid;index;column:learning_plan_id" json:"learning_plan_id,omitempty"`
	LearningPlan   *LearningPlan `gorm:"constraint:OnDelete:CASCADE;foreignKey:LearningPlanID;references:ID" json:"learning_plan,omitempty"`
	CreatedAt      time.Time     `gorm:"not null;default:now()" json:"created_at"`
}

func (GroupAccess) TableName() string { return "group_access" }
