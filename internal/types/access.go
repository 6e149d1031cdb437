package types

import (
	"github.com/google/uuid"
)

type ScopeKind string

const (
	ScopeCourse       ScopeKind = "course"
	ScopeLearningPlan ScopeKind = "learning_plan"
	ScopeContentItem  ScopeKind = "content_item"
)

// ScopeRef names one protected resource.
type ScopeRef struct {
	Kind ScopeKind `json:"kind"`
	ID   uuid.UUID `json:"id"`
}

// Access reasons, one per predicate that can grant on its own.
const (
	AccessReasonAdminRole     = "admin_role"
	AccessReasonCreator       = "creator"
	AccessReasonInstructor    = "instructor_assignment"
	AccessReasonPublicAccess  = "public_access"
	AccessReasonEnrollment    = "enrollment"
	AccessReasonGroupAccess   = "group_access"
	AccessReasonDenied        = "denied"
	AccessReasonLockedContent = "prerequisites_not_met"
)

// AccessDecision is a resolved grant/deny. Ordinary denial is a value,
// never an error.
type AccessDecision struct {
	Granted bool   `json:"granted"`
	Reason  string `json:"reason"`
}

func Granted(reason string) AccessDecision {
	return AccessDecision{Granted: true, Reason: reason}
}

func Denied() AccessDecision {
	return AccessDecision{Granted: false, Reason: AccessReasonDenied}
}
