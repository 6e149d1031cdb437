package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Course struct {
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

func (Course) TableName() string { return "course" }
