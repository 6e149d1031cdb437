package types

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

const (
	RoleAdmin      = "ADMIN"
	RoleInstructor = "INSTRUCTOR"
	RoleLearner    = "LEARNER"
)

type User struct {
	ID        uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	Email     string         `gorm:"uniqueIndex;not null;column:email" json:"email"`
	Password  string         `gorm:"not null;column:password" json:"-"`
	FirstName string         `gorm:"not null;column:first_name" json:"first_name"`
	LastName  string         `gorm:"not null;column:last_name" json:"last_name"`
	Roles     datatypes.JSON `gorm:"column:roles;type:jsonb;not null;default:'[\"LEARNER\"]'" json:"roles"`
	CreatedAt time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null;default:now()" json:"updated_at"`
}

func (User) TableName() string {
	return "user"
}

// RoleNames decodes the jsonb roles column. A row with an unreadable
// column behaves as a plain learner.
func (u *User) RoleNames() []string {
	var roles []string
	if err := json.Unmarshal(u.Roles, &roles); err != nil || len(roles) == 0 {
		return []string{RoleLearner}
	}
	return roles
}

func RolesJSON(roles ...string) datatypes.JSON {
	if len(roles) == 0 {
		roles = []string{RoleLearner}
	}
	b, _ := json.Marshal(roles)
	return datatypes.JSON(b)
}
