package services

import (
  "context"
  "errors"
  "time"

  "github.com/google/uuid"
  "gorm.io/gorm"

  "github.com/coursedeck/coursedeck-backend/internal/apperr"
  "github.com/coursedeck/coursedeck-backend/internal/logger"
  "github.com/coursedeck/coursedeck-backend/internal/repos"
  "github.com/coursedeck/coursedeck-backend/internal/requestdata"
  "github.com/coursedeck/coursedeck-backend/internal/types"
)

const (
  EnrollModeSelf  = "self"
  EnrollModeAdmin = "admin"
)

type CreateEnrollmentInput struct {
  UserID         uuid.UUID
  CourseID       *uuid.UUID
  LearningPlanID *uuid.UUID
  Mode           string
  DueDate        *time.Time
}

// EnrollmentService owns the lifecycle state machine
// PENDING_APPROVAL -> ENROLLED -> IN_PROGRESS -> COMPLETED, with DROPPED
// reachable from any non-terminal state, and the capacity guard that
// keeps occupying enrollments under a resource's ceiling.
type EnrollmentService interface {
  Create(ctx context.Context, actor *requestdata.RequestData, input CreateEnrollmentInput) (*types.Enrollment, error)
  Approve(ctx context.Context, actor *requestdata.RequestData, enrollmentID uuid.UUID) (*types.Enrollment, error)
  Drop(ctx context.Context, actor *requestdata.RequestData, enrollmentID uuid.UUID) error
  Delete(ctx context.Context, actor *requestdata.RequestData, enrollmentID uuid.UUID) error
  ListForScope(ctx context.Context, actor *requestdata.RequestData, ref types.ScopeRef) ([]*types.Enrollment, error)
  // RegisterActivity flips ENROLLED -> IN_PROGRESS on the first
  // qualifying learner event. No-op on any later state.
  RegisterActivity(ctx context.Context, tx *gorm.DB, userID, courseID uuid.UUID) error
  // RegisterCourseCompletion / RegisterPlanCompletion move the matching
  // enrollment to COMPLETED. Both are idempotent.
  RegisterCourseCompletion(ctx context.Context, tx *gorm.DB, userID, courseID uuid.UUID) error
  RegisterPlanCompletion(ctx context.Context, tx *gorm.DB, userID, planID uuid.UUID) error
}

type enrollmentService struct {
  db             *gorm.DB
  log            *logger.Logger
  accessService  AccessService
  enrollmentRepo repos.EnrollmentRepo
  courseRepo     repos.CourseRepo
  planRepo       repos.LearningPlanRepo
  contentRepo    repos.ContentItemRepo
  progressRepo   repos.ProgressRepo
  userRepo       repos.UserRepo
}

func NewEnrollmentService(
  db *gorm.DB,
  baseLog *logger.Logger,
  accessService AccessService,
  enrollmentRepo repos.EnrollmentRepo,
  courseRepo repos.CourseRepo,
  planRepo repos.LearningPlanRepo,
  contentRepo repos.ContentItemRepo,
  progressRepo repos.ProgressRepo,
  userRepo repos.UserRepo,
) EnrollmentService {
  serviceLog := baseLog.With("service", "EnrollmentService")
  return &enrollmentService{
    db:             db,
    log:            serviceLog,
    accessService:  accessService,
    enrollmentRepo: enrollmentRepo,
    courseRepo:     courseRepo,
    planRepo:       planRepo,
    contentRepo:    contentRepo,
    progressRepo:   progressRepo,
    userRepo:       userRepo,
  }
}

func scopeFromInput(input CreateEnrollmentInput) (types.ScopeRef, error) {
  switch {
  case input.CourseID != nil && input.LearningPlanID != nil:
    return types.ScopeRef{}, apperr.Validation("enrollment targets a course or a plan, not both")
  case input.CourseID != nil:
    return types.ScopeRef{Kind: types.ScopeCourse, ID: *input.CourseID}, nil
  case input.LearningPlanID != nil:
    return types.ScopeRef{Kind: types.ScopeLearningPlan, ID: *input.LearningPlanID}, nil
  }
  return types.ScopeRef{}, apperr.Validation("courseId or learningPlanId is required")
}

func (es *enrollmentService) Create(ctx context.Context, actor *requestdata.RequestData, input CreateEnrollmentInput) (*types.Enrollment, error) {
  if actor == nil || actor.UserID == uuid.Nil {
    return nil, apperr.Unauthenticated("no actor in request")
  }

  ref, err := scopeFromInput(input)
  if err != nil {
    return nil, err
  }

  if input.UserID == uuid.Nil {
    input.UserID = actor.UserID
  }
  self := input.Mode != EnrollModeAdmin
  if self && input.UserID != actor.UserID {
    return nil, apperr.Validation("self-enrollment can only target the requesting user")
  }

  decision, err := es.accessService.ResolveEnrollmentCreate(ctx, nil, actor, ref, self)
  if err != nil {
    return nil, err
  }
  if !decision.Granted {
    return nil, apperr.Forbidden("enrollment not permitted for this resource")
  }

  if users, err := es.userRepo.GetByIDs(ctx, nil, []uuid.UUID{input.UserID}); err != nil {
    return nil, err
  } else if len(users) == 0 {
    return nil, apperr.NotFound("user not found")
  }

  var created *types.Enrollment
  err = es.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
    requiresApproval, capErr := es.scopeRequiresApproval(ctx, tx, ref)
    if capErr != nil {
      return capErr
    }

    if dupErr := es.checkDuplicate(ctx, tx, input.UserID, ref); dupErr != nil {
      return dupErr
    }

    status := types.EnrollmentEnrolled
    if requiresApproval {
      status = types.EnrollmentPendingApproval
    } else {
      // Direct enrollment occupies a slot immediately, so the ceiling
      // applies here as well as at approval time.
      if reserveErr := es.reserveSlot(ctx, tx, ref); reserveErr != nil {
        return reserveErr
      }
    }

    row := &types.Enrollment{
      ID:             uuid.New(),
      UserID:         input.UserID,
      CourseID:       input.CourseID,
      LearningPlanID: input.LearningPlanID,
      Status:         status,
      EnrolledAt:     time.Now(),
      DueDate:        input.DueDate,
    }
    if _, createErr := es.enrollmentRepo.Create(ctx, tx, row); createErr != nil {
      return apperr.Map(createErr)
    }
    created = row
    return nil
  })
  if err != nil {
    return nil, apperr.Map(err)
  }
  return created, nil
}

func (es *enrollmentService) checkDuplicate(ctx context.Context, tx *gorm.DB, userID uuid.UUID, ref types.ScopeRef) error {
  var err error
  if ref.Kind == types.ScopeCourse {
    _, err = es.enrollmentRepo.GetByUserAndCourse(ctx, tx, userID, ref.ID)
  } else {
    _, err = es.enrollmentRepo.GetByUserAndPlan(ctx, tx, userID, ref.ID)
  }
  if err == nil {
    return apperr.Conflict("enrollment already exists for this user and resource")
  }
  if errors.Is(err, gorm.ErrRecordNotFound) {
    return nil
  }
  return err
}

func (es *enrollmentService) scopeRequiresApproval(ctx context.Context, tx *gorm.DB, ref types.ScopeRef) (bool, error) {
  if ref.Kind == types.ScopeCourse {
    course, err := es.courseRepo.GetByID(ctx, tx, ref.ID)
    if err != nil {
      return false, apperr.Map(err)
    }
    return course.RequiresApproval, nil
  }
  plan, err := es.planRepo.GetByID(ctx, tx, ref.ID)
  if err != nil {
    return false, apperr.Map(err)
  }
  return plan.RequiresApproval, nil
}

// reserveSlot is the capacity guard. It takes the parent row lock and
// counts occupying enrollments inside the caller's transaction, so two
// racers against the last slot resolve deterministically: the second
// blocks on the lock, recounts, and fails.
func (es *enrollmentService) reserveSlot(ctx context.Context, tx *gorm.DB, ref types.ScopeRef) error {
  var max *int
  var count int64
  var err error

  if ref.Kind == types.ScopeCourse {
    course, lockErr := es.courseRepo.GetByIDForUpdate(ctx, tx, ref.ID)
    if lockErr != nil {
      return apperr.Map(lockErr)
    }
    max = course.MaxEnrollments
    if max == nil {
      return nil
    }
    count, err = es.enrollmentRepo.CountOccupyingByCourse(ctx, tx, ref.ID)
  } else {
    plan, lockErr := es.planRepo.GetByIDForUpdate(ctx, tx, ref.ID)
    if lockErr != nil {
      return apperr.Map(lockErr)
    }
    max = plan.MaxEnrollments
    if max == nil {
      return nil
    }
    count, err = es.enrollmentRepo.CountOccupyingByPlan(ctx, tx, ref.ID)
  }
  if err != nil {
    return err
  }
  if count >= int64(*max) {
    return apperr.Forbidden("Enrollment limit reached")
  }
  return nil
}

func enrollmentScope(row *types.Enrollment) types.ScopeRef {
  if row.CourseID != nil {
    return types.ScopeRef{Kind: types.ScopeCourse, ID: *row.CourseID}
  }
  return types.ScopeRef{Kind: types.ScopeLearningPlan, ID: *row.LearningPlanID}
}

func (es *enrollmentService) Approve(ctx context.Context, actor *requestdata.RequestData, enrollmentID uuid.UUID) (*types.Enrollment, error) {
  if actor == nil || actor.UserID == uuid.Nil {
    return nil, apperr.Unauthenticated("no actor in request")
  }

  row, err := es.enrollmentRepo.GetByID(ctx, nil, enrollmentID)
  if err != nil {
    return nil, apperr.Map(err)
  }
  ref := enrollmentScope(row)

  decision, err := es.accessService.ResolveManage(ctx, nil, actor, ref)
  if err != nil {
    return nil, err
  }
  if !decision.Granted {
    return nil, apperr.Forbidden("no permission to approve enrollments here")
  }

  var approved *types.Enrollment
  err = es.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
    // Re-read inside the transaction; the pre-check above may be stale.
    current, txErr := es.enrollmentRepo.GetByID(ctx, tx, enrollmentID)
    if txErr != nil {
      return apperr.Map(txErr)
    }
    if current.Status != types.EnrollmentPendingApproval {
      return apperr.Conflict("only a PENDING_APPROVAL enrollment can be approved")
    }

    if reserveErr := es.reserveSlot(ctx, tx, ref); reserveErr != nil {
      return reserveErr
    }

    now := time.Now()
    updates := map[string]any{
      "status":         types.EnrollmentEnrolled,
      "approved_by_id": actor.UserID,
      "approved_at":    now,
    }
    if upErr := es.enrollmentRepo.UpdateFields(ctx, tx, enrollmentID, updates); upErr != nil {
      return upErr
    }
    current.Status = types.EnrollmentEnrolled
    current.ApprovedByID = &actor.UserID
    current.ApprovedAt = &now
    approved = current
    return nil
  })
  if err != nil {
    return nil, err
  }
  return approved, nil
}

func (es *enrollmentService) Drop(ctx context.Context, actor *requestdata.RequestData, enrollmentID uuid.UUID) error {
  if actor == nil || actor.UserID == uuid.Nil {
    return apperr.Unauthenticated("no actor in request")
  }

  row, err := es.enrollmentRepo.GetByID(ctx, nil, enrollmentID)
  if err != nil {
    return apperr.Map(err)
  }

  if row.UserID != actor.UserID {
    decision, accErr := es.accessService.ResolveManage(ctx, nil, actor, enrollmentScope(row))
    if accErr != nil {
      return accErr
    }
    if !decision.Granted {
      return apperr.Forbidden("no permission to drop this enrollment")
    }
  }

  if row.Terminal() {
    return apperr.Conflict("enrollment is already in a terminal state")
  }

  return es.enrollmentRepo.UpdateFields(ctx, nil, enrollmentID, map[string]any{
    "status": types.EnrollmentDropped,
  })
}

// Delete removes the row outright. It is the only way back in after
// DROPPED: the uniqueness invariant forbids a second row for the pair.
// Item progress within a deleted course enrollment's scope goes with it.
func (es *enrollmentService) Delete(ctx context.Context, actor *requestdata.RequestData, enrollmentID uuid.UUID) error {
  if actor == nil || actor.UserID == uuid.Nil {
    return apperr.Unauthenticated("no actor in request")
  }

  row, err := es.enrollmentRepo.GetByID(ctx, nil, enrollmentID)
  if err != nil {
    return apperr.Map(err)
  }

  decision, err := es.accessService.ResolveManage(ctx, nil, actor, enrollmentScope(row))
  if err != nil {
    return err
  }
  if !decision.Granted {
    return apperr.Forbidden("no permission to delete this enrollment")
  }

  return es.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
    if row.CourseID != nil {
      items, itemsErr := es.contentRepo.GetByCourseID(ctx, tx, *row.CourseID)
      if itemsErr != nil {
        return itemsErr
      }
      itemIDs := make([]uuid.UUID, 0, len(items))
      for _, item := range items {
        itemIDs = append(itemIDs, item.ID)
      }
      if delErr := es.progressRepo.FullDeleteByUserAndItemIDs(ctx, tx, row.UserID, itemIDs); delErr != nil {
        return delErr
      }
    }
    return es.enrollmentRepo.FullDelete(ctx, tx, enrollmentID)
  })
}

func (es *enrollmentService) ListForScope(ctx context.Context, actor *requestdata.RequestData, ref types.ScopeRef) ([]*types.Enrollment, error) {
  if actor == nil || actor.UserID == uuid.Nil {
    return nil, apperr.Unauthenticated("no actor in request")
  }

  decision, err := es.accessService.ResolveManage(ctx, nil, actor, ref)
  if err != nil {
    return nil, err
  }
  if !decision.Granted {
    return nil, apperr.Forbidden("no permission to list enrollments here")
  }

  if ref.Kind == types.ScopeCourse {
    return es.enrollmentRepo.ListByCourse(ctx, nil, ref.ID)
  }
  return es.enrollmentRepo.ListByPlan(ctx, nil, ref.ID)
}

func (es *enrollmentService) RegisterActivity(ctx context.Context, tx *gorm.DB, userID, courseID uuid.UUID) error {
  row, err := es.enrollmentRepo.GetByUserAndCourse(ctx, tx, userID, courseID)
  if err != nil {
    if errors.Is(err, gorm.ErrRecordNotFound) {
      // Access may have come through a plan enrollment or a group grant;
      // only a direct course enrollment carries course lifecycle state.
      return es.registerPlanActivity(ctx, tx, userID, courseID)
    }
    return err
  }
  if row.Status != types.EnrollmentEnrolled {
    return es.registerPlanActivity(ctx, tx, userID, courseID)
  }

  now := time.Now()
  if err := es.enrollmentRepo.UpdateFields(ctx, tx, row.ID, map[string]any{
    "status":     types.EnrollmentInProgress,
    "started_at": now,
  }); err != nil {
    return err
  }
  return es.registerPlanActivity(ctx, tx, userID, courseID)
}

func (es *enrollmentService) registerPlanActivity(ctx context.Context, tx *gorm.DB, userID, courseID uuid.UUID) error {
  planIDs, err := es.planRepo.GetPlanIDsContainingCourse(ctx, tx, courseID)
  if err != nil {
    return err
  }
  rows, err := es.enrollmentRepo.GetByUserAndPlanIDs(ctx, tx, userID, planIDs)
  if err != nil {
    return err
  }
  now := time.Now()
  for _, row := range rows {
    if row.Status != types.EnrollmentEnrolled {
      continue
    }
    if err := es.enrollmentRepo.UpdateFields(ctx, tx, row.ID, map[string]any{
      "status":     types.EnrollmentInProgress,
      "started_at": now,
    }); err != nil {
      return err
    }
  }
  return nil
}

func (es *enrollmentService) RegisterCourseCompletion(ctx context.Context, tx *gorm.DB, userID, courseID uuid.UUID) error {
  row, err := es.enrollmentRepo.GetByUserAndCourse(ctx, tx, userID, courseID)
  if err != nil {
    if errors.Is(err, gorm.ErrRecordNotFound) {
      return nil
    }
    return err
  }
  if row.Status == types.EnrollmentCompleted || row.Status == types.EnrollmentDropped {
    return nil
  }
  return es.enrollmentRepo.UpdateFields(ctx, tx, row.ID, map[string]any{
    "status":       types.EnrollmentCompleted,
    "completed_at": time.Now(),
  })
}

func (es *enrollmentService) RegisterPlanCompletion(ctx context.Context, tx *gorm.DB, userID, planID uuid.UUID) error {
  row, err := es.enrollmentRepo.GetByUserAndPlan(ctx, tx, userID, planID)
  if err != nil {
    if errors.Is(err, gorm.ErrRecordNotFound) {
      return nil
    }
    return err
  }
  if row.Status == types.EnrollmentCompleted || row.Status == types.EnrollmentDropped {
    return nil
  }
  return es.enrollmentRepo.UpdateFields(ctx, tx, row.ID, map[string]any{
    "status":       types.EnrollmentCompleted,
    "completed_at": time.Now(),
  })
}
