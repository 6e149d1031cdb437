package services

import (
  "context"
  "fmt"

  "github.com/google/uuid"
  "gorm.io/gorm"

  "github.com/coursedeck/coursedeck-backend/internal/apperr"
  "github.com/coursedeck/coursedeck-backend/internal/clients/redis"
  "github.com/coursedeck/coursedeck-backend/internal/logger"
  "github.com/coursedeck/coursedeck-backend/internal/repos"
  "github.com/coursedeck/coursedeck-backend/internal/requestdata"
  "github.com/coursedeck/coursedeck-backend/internal/types"
)

// AccessService is the single authorization gate. Every handler, and the
// file-streaming collaborator, asks it before touching a resource.
//
// Read access is an ordered OR over six predicates; any one suffices.
// Manage access narrows to admin role, creator, and instructor
// assignment. Denial is a decision value, never an error; errors mean the
// resource is missing or the store failed.
type AccessService interface {
  Resolve(ctx context.Context, tx *gorm.DB, actor *requestdata.RequestData, ref types.ScopeRef) (types.AccessDecision, error)
  ResolveManage(ctx context.Context, tx *gorm.DB, actor *requestdata.RequestData, ref types.ScopeRef) (types.AccessDecision, error)
  // ResolveEnrollmentCreate gates enrollment creation: the self-service
  // path needs the resource's self_enrollment flag, the administrative
  // path needs manage access.
  ResolveEnrollmentCreate(ctx context.Context, tx *gorm.DB, actor *requestdata.RequestData, ref types.ScopeRef, self bool) (types.AccessDecision, error)
  // ContainingScopes expands a ref to the scopes whose grants extend to
  // it: a course is contained by every plan that lists it. All traversal
  // of the containment graph funnels through here.
  ContainingScopes(ctx context.Context, tx *gorm.DB, ref types.ScopeRef) ([]types.ScopeRef, error)
}

type accessService struct {
  db             *gorm.DB
  log            *logger.Logger
  courseRepo     repos.CourseRepo
  planRepo       repos.LearningPlanRepo
  contentRepo    repos.ContentItemRepo
  assignmentRepo repos.InstructorAssignmentRepo
  enrollmentRepo repos.EnrollmentRepo
  groupRepo      repos.GroupRepo
  groupCache     redis.GroupCache
}

func NewAccessService(
  db *gorm.DB,
  baseLog *logger.Logger,
  courseRepo repos.CourseRepo,
  planRepo repos.LearningPlanRepo,
  contentRepo repos.ContentItemRepo,
  assignmentRepo repos.InstructorAssignmentRepo,
  enrollmentRepo repos.EnrollmentRepo,
  groupRepo repos.GroupRepo,
  groupCache redis.GroupCache,
) AccessService {
  serviceLog := baseLog.With("service", "AccessService")
  return &accessService{
    db:             db,
    log:            serviceLog,
    courseRepo:     courseRepo,
    planRepo:       planRepo,
    contentRepo:    contentRepo,
    assignmentRepo: assignmentRepo,
    enrollmentRepo: enrollmentRepo,
    groupRepo:      groupRepo,
    groupCache:     groupCache,
  }
}

// scopeTarget is the course or plan the predicates actually run against,
// plus the plans containing it. A content item resolves to its course.
type scopeTarget struct {
  kind         types.ScopeKind
  id           uuid.UUID
  creatorID    uuid.UUID
  publicAccess bool
  selfEnroll   bool
  planIDs      []uuid.UUID
}

// loadTarget resolves existence before any predicate runs. A missing row
// is NOT_FOUND for everyone; existence leaks nothing about access.
func (as *accessService) loadTarget(ctx context.Context, tx *gorm.DB, ref types.ScopeRef) (*scopeTarget, error) {
  transaction := tx
  if transaction == nil {
    transaction = as.db
  }

  switch ref.Kind {
  case types.ScopeContentItem:
    item, err := as.contentRepo.GetByID(ctx, transaction, ref.ID)
    if err != nil {
      return nil, apperr.Map(err)
    }
    return as.loadTarget(ctx, transaction, types.ScopeRef{Kind: types.ScopeCourse, ID: item.CourseID})
  case types.ScopeCourse:
    course, err := as.courseRepo.GetByID(ctx, transaction, ref.ID)
    if err != nil {
      return nil, apperr.Map(err)
    }
    planIDs, err := as.planRepo.GetPlanIDsContainingCourse(ctx, transaction, course.ID)
    if err != nil {
      return nil, err
    }
    return &scopeTarget{
      kind:         types.ScopeCourse,
      id:           course.ID,
      creatorID:    course.CreatorID,
      publicAccess: course.PublicAccess,
      selfEnroll:   course.SelfEnrollment,
      planIDs:      planIDs,
    }, nil
  case types.ScopeLearningPlan:
    plan, err := as.planRepo.GetByID(ctx, transaction, ref.ID)
    if err != nil {
      return nil, apperr.Map(err)
    }
    return &scopeTarget{
      kind:         types.ScopeLearningPlan,
      id:           plan.ID,
      creatorID:    plan.CreatorID,
      publicAccess: plan.PublicAccess,
      selfEnroll:   plan.SelfEnrollment,
    }, nil
  }
  return nil, apperr.Validation(fmt.Sprintf("unknown scope kind %q", ref.Kind))
}

func (as *accessService) ContainingScopes(ctx context.Context, tx *gorm.DB, ref types.ScopeRef) ([]types.ScopeRef, error) {
  target, err := as.loadTarget(ctx, tx, ref)
  if err != nil {
    return nil, err
  }
  scopes := make([]types.ScopeRef, 0, len(target.planIDs))
  for _, planID := range target.planIDs {
    scopes = append(scopes, types.ScopeRef{Kind: types.ScopeLearningPlan, ID: planID})
  }
  return scopes, nil
}

func (as *accessService) Resolve(ctx context.Context, tx *gorm.DB, actor *requestdata.RequestData, ref types.ScopeRef) (types.AccessDecision, error) {
  if actor == nil || actor.UserID == uuid.Nil {
    return types.Denied(), apperr.Unauthenticated("no actor in request")
  }

  target, err := as.loadTarget(ctx, tx, ref)
  if err != nil {
    return types.Denied(), err
  }

  if decision, err := as.resolveManageTarget(ctx, tx, actor, target); err != nil || decision.Granted {
    return decision, err
  }

  if target.publicAccess {
    return types.Granted(types.AccessReasonPublicAccess), nil
  }

  enrolled, err := as.hasEnrollment(ctx, tx, actor.UserID, target)
  if err != nil {
    return types.Denied(), err
  }
  if enrolled {
    return types.Granted(types.AccessReasonEnrollment), nil
  }

  viaGroup, err := as.hasGroupAccess(ctx, tx, actor.UserID, target)
  if err != nil {
    return types.Denied(), err
  }
  if viaGroup {
    return types.Granted(types.AccessReasonGroupAccess), nil
  }

  return types.Denied(), nil
}

func (as *accessService) ResolveManage(ctx context.Context, tx *gorm.DB, actor *requestdata.RequestData, ref types.ScopeRef) (types.AccessDecision, error) {
  if actor == nil || actor.UserID == uuid.Nil {
    return types.Denied(), apperr.Unauthenticated("no actor in request")
  }

  target, err := as.loadTarget(ctx, tx, ref)
  if err != nil {
    return types.Denied(), err
  }
  return as.resolveManageTarget(ctx, tx, actor, target)
}

func (as *accessService) ResolveEnrollmentCreate(ctx context.Context, tx *gorm.DB, actor *requestdata.RequestData, ref types.ScopeRef, self bool) (types.AccessDecision, error) {
  if actor == nil || actor.UserID == uuid.Nil {
    return types.Denied(), apperr.Unauthenticated("no actor in request")
  }

  target, err := as.loadTarget(ctx, tx, ref)
  if err != nil {
    return types.Denied(), err
  }

  if self {
    if target.selfEnroll {
      return types.Granted(types.AccessReasonEnrollment), nil
    }
    return types.Denied(), nil
  }
  return as.resolveManageTarget(ctx, tx, actor, target)
}

// resolveManageTarget evaluates the three mutation-grade predicates.
func (as *accessService) resolveManageTarget(ctx context.Context, tx *gorm.DB, actor *requestdata.RequestData, target *scopeTarget) (types.AccessDecision, error) {
  if actor.HasRole(types.RoleAdmin) {
    return types.Granted(types.AccessReasonAdminRole), nil
  }
  if target.creatorID == actor.UserID {
    return types.Granted(types.AccessReasonCreator), nil
  }

  assigned, err := as.hasInstructorAssignment(ctx, tx, actor.UserID, target)
  if err != nil {
    return types.Denied(), err
  }
  if assigned {
    return types.Granted(types.AccessReasonInstructor), nil
  }
  return types.Denied(), nil
}

func (as *accessService) hasInstructorAssignment(ctx context.Context, tx *gorm.DB, userID uuid.UUID, target *scopeTarget) (bool, error) {
  if target.kind == types.ScopeCourse {
    ok, err := as.assignmentRepo.ExistsForCourses(ctx, tx, userID, []uuid.UUID{target.id})
    if err != nil || ok {
      return ok, err
    }
    return as.assignmentRepo.ExistsForPlans(ctx, tx, userID, target.planIDs)
  }
  return as.assignmentRepo.ExistsForPlans(ctx, tx, userID, []uuid.UUID{target.id})
}

func (as *accessService) hasEnrollment(ctx context.Context, tx *gorm.DB, userID uuid.UUID, target *scopeTarget) (bool, error) {
  if target.kind == types.ScopeCourse {
    rows, err := as.enrollmentRepo.GetByUserAndCourseIDs(ctx, tx, userID, []uuid.UUID{target.id})
    if err != nil {
      return false, err
    }
    if activeEnrollment(rows) {
      return true, nil
    }
    planRows, err := as.enrollmentRepo.GetByUserAndPlanIDs(ctx, tx, userID, target.planIDs)
    if err != nil {
      return false, err
    }
    return activeEnrollment(planRows), nil
  }

  rows, err := as.enrollmentRepo.GetByUserAndPlanIDs(ctx, tx, userID, []uuid.UUID{target.id})
  if err != nil {
    return false, err
  }
  return activeEnrollment(rows), nil
}

// activeEnrollment: pending and dropped rows grant nothing.
func activeEnrollment(rows []*types.Enrollment) bool {
  for _, row := range rows {
    if row == nil {
      continue
    }
    if row.Occupying() {
      return true
    }
  }
  return false
}

func (as *accessService) hasGroupAccess(ctx context.Context, tx *gorm.DB, userID uuid.UUID, target *scopeTarget) (bool, error) {
  groupIDs, err := as.groupIDsForUser(ctx, tx, userID)
  if err != nil {
    return false, err
  }
  if len(groupIDs) == 0 {
    return false, nil
  }

  if target.kind == types.ScopeCourse {
    ok, err := as.groupRepo.AccessExistsForCourses(ctx, tx, groupIDs, []uuid.UUID{target.id})
    if err != nil || ok {
      return ok, err
    }
    return as.groupRepo.AccessExistsForPlans(ctx, tx, groupIDs, target.planIDs)
  }
  return as.groupRepo.AccessExistsForPlans(ctx, tx, groupIDs, []uuid.UUID{target.id})
}

// groupIDsForUser consults the short-TTL cache first. Reads tolerate the
// cache's staleness window; grants land on the next expiry.
func (as *accessService) groupIDsForUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]uuid.UUID, error) {
  if as.groupCache != nil {
    if ids, ok := as.groupCache.GetGroupIDs(ctx, userID); ok {
      return ids, nil
    }
  }
  ids, err := as.groupRepo.GetGroupIDsByUserID(ctx, tx, userID)
  if err != nil {
    return nil, err
  }
  if as.groupCache != nil {
    as.groupCache.SetGroupIDs(ctx, userID, ids)
  }
  return ids, nil
}
