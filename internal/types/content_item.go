package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	ContentTypeVideo    = "VIDEO"
	ContentTypeYouTube  = "YOUTUBE"
	ContentTypePDF      = "PDF"
	ContentTypePPT      = "PPT"
	ContentTypeHTML     = "HTML"
	ContentTypeExternal = "EXTERNAL"
	ContentTypeTest     = "TEST"
)

// DefaultCompletionThreshold is the watched share of a video that counts
// as completion when the item does not set its own threshold.
const DefaultCompletionThreshold = 0.8

type ContentItem struct {
	ID                  uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	CourseID            uuid.UUID      `gorm:"type:uuid;not null;index;column:course_id" json:"course_id"`
	Course              *Course        `gorm:"constraint:OnDelete:CASCADE;foreignKey:CourseID;references:ID" json:"course,omitempty"`
	Title               string         `gorm:"column:title;not null" json:"title"`
	Type                string         `gorm:"column:type;not null" json:"type"`
	Position            int            `gorm:"column:position;not null;default:0" json:"position"`
	Required            bool           `gorm:"column:required;not null;default:true" json:"required"`
	DurationSeconds     int            `gorm:"column:duration_seconds;not null;default:0" json:"duration_seconds"`
	TotalPages          int            `gorm:"column:total_pages;not null;default:0" json:"total_pages"`
	CompletionThreshold float64        `gorm:"column:completion_threshold;not null;default:0.8" json:"completion_threshold"`
	DisallowSeeking     bool           `gorm:"column:disallow_seeking;not null;default:false" json:"disallow_seeking"`
	ExternalURL         string         `gorm:"column:external_url" json:"external_url,omitempty"`
	StorageKey          string         `gorm:"column:storage_key" json:"storage_key,omitempty"`
	Metadata            datatypes.JSON `gorm:"column:metadata;type:jsonb" json:"metadata,omitempty"`
	CreatedAt           time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt           time.Time      `gorm:"not null;default:now()" json:"updated_at"`
	DeletedAt           gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (ContentItem) TableName() string { return "content_item" }

// ContentPrerequisite is one edge of the prerequisite DAG: PrerequisiteID
// must be completed before ContentItemID unlocks.
type ContentPrerequisite struct {
	ID             uuid.UUID    `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	ContentItemID  uuid.UUID    `gorm:"type:uuid;not null;uniqueIndex:idx_item_prereq;column:content_item_id" json:"content_item_id"`
	ContentItem    *ContentItem `gorm:"constraint:OnDelete:CASCADE;foreignKey:ContentItemID;references:ID" json:"content_item,omitempty"`
	PrerequisiteID uuid.UUID    `gorm:"type:uuid;not null;uniqueIndex:idx_item_prereq;column:prerequisite_id" json:"prerequisite_id"`
	Prerequisite   *ContentItem `gorm:"constraint:OnDelete:CASCADE;foreignKey:PrerequisiteID;references:ID" json:"prerequisite,omitempty"`
	CreatedAt      time.Time    `gorm:"not null;default:now()" json:"created_at"`
}

func (ContentPrerequisite) TableName() string { return "content_prerequisite" }
