package services

import (
  "context"

  "github.com/google/uuid"
  "gorm.io/gorm"

  "github.com/coursedeck/coursedeck-backend/internal/apperr"
  "github.com/coursedeck/coursedeck-backend/internal/logger"
  "github.com/coursedeck/coursedeck-backend/internal/repos"
  "github.com/coursedeck/coursedeck-backend/internal/requestdata"
  "github.com/coursedeck/coursedeck-backend/internal/types"
)

type CreateLearningPlanInput struct {
  Title            string `json:"title" binding:"required"`
  Description      string `json:"description"`
  PublicAccess     bool   `json:"public_access"`
  SelfEnrollment   bool   `json:"self_enrollment"`
  RequiresApproval bool   `json:"requires_approval"`
  MaxEnrollments   *int   `json:"max_enrollments"`
}

type LearningPlanView struct {
  Plan     *types.LearningPlan `json:"plan"`
  Courses  []*types.Course     `json:"courses"`
  Progress *ScopeProgress      `json:"progress,omitempty"`
}

type LearningPlanService interface {
  Create(ctx context.Context, actor *requestdata.RequestData, input CreateLearningPlanInput) (*types.LearningPlan, error)
  Get(ctx context.Context, actor *requestdata.RequestData, id uuid.UUID) (*LearningPlanView, error)
  List(ctx context.Context, actor *requestdata.RequestData) ([]*types.LearningPlan, error)
  // AddCourse appends a course to the plan's ordered containment list.
  // Grants on the plan extend to the course from this moment on.
  AddCourse(ctx context.Context, actor *requestdata.RequestData, planID, courseID uuid.UUID, position int) error
  RemoveCourse(ctx context.Context, actor *requestdata.RequestData, planID, courseID uuid.UUID) error
}

type learningPlanService struct {
  db              *gorm.DB
  log             *logger.Logger
  accessService   AccessService
  progressService ProgressService
  planRepo        repos.LearningPlanRepo
  courseRepo      repos.CourseRepo
}

func NewLearningPlanService(
  db *gorm.DB,
  baseLog *logger.Logger,
  accessService AccessService,
  progressService ProgressService,
  planRepo repos.LearningPlanRepo,
  courseRepo repos.CourseRepo,
) LearningPlanService {
  serviceLog := baseLog.With("service", "LearningPlanService")
  return &learningPlanService{
    db:              db,
    log:             serviceLog,
    accessService:   accessService,
    progressService: progressService,
    planRepo:        planRepo,
    courseRepo:      courseRepo,
  }
}

func (ls *learningPlanService) Create(ctx context.Context, actor *requestdata.RequestData, input CreateLearningPlanInput) (*types.LearningPlan, error) {
  if actor == nil || actor.UserID == uuid.Nil {
    return nil, apperr.Unauthenticated("no actor in request")
  }
  if !actor.HasRole(types.RoleAdmin) && !actor.HasRole(types.RoleInstructor) {
    return nil, apperr.Forbidden("only instructors can create learning plans")
  }
  if input.MaxEnrollments != nil && *input.MaxEnrollments < 0 {
    return nil, apperr.Validation("max enrollments cannot be negative")
  }

  plan := &types.LearningPlan{
    ID:               uuid.New(),
    CreatorID:        actor.UserID,
    Title:            input.Title,
    Description:      input.Description,
    PublicAccess:     input.PublicAccess,
    SelfEnrollment:   input.SelfEnrollment,
    RequiresApproval: input.RequiresApproval,
    MaxEnrollments:   input.MaxEnrollments,
  }
  if _, err := ls.planRepo.Create(ctx, nil, []*types.LearningPlan{plan}); err != nil {
    return nil, apperr.Map(err)
  }
  ls.log.Info("Learning plan created", "plan_id", plan.ID, "creator_id", actor.UserID)
  return plan, nil
}

func (ls *learningPlanService) Get(ctx context.Context, actor *requestdata.RequestData, id uuid.UUID) (*LearningPlanView, error) {
  if actor == nil || actor.UserID == uuid.Nil {
    return nil, apperr.Unauthenticated("no actor in request")
  }

  decision, err := ls.accessService.Resolve(ctx, nil, actor, types.ScopeRef{Kind: types.ScopeLearningPlan, ID: id})
  if err != nil {
    return nil, err
  }
  if !decision.Granted {
    return nil, apperr.Forbidden("no access to this learning plan")
  }

  plan, err := ls.planRepo.GetByID(ctx, nil, id)
  if err != nil {
    return nil, apperr.Map(err)
  }
  courseIDs, err := ls.planRepo.GetCourseIDs(ctx, nil, id)
  if err != nil {
    return nil, err
  }
  courses, err := ls.courseRepo.GetByIDs(ctx, nil, courseIDs)
  if err != nil {
    return nil, err
  }
  progress, err := ls.progressService.PlanProgressFor(ctx, nil, actor.UserID, id)
  if err != nil {
    return nil, err
  }
  return &LearningPlanView{Plan: plan, Courses: courses, Progress: progress}, nil
}

func (ls *learningPlanService) List(ctx context.Context, actor *requestdata.RequestData) ([]*types.LearningPlan, error) {
  if actor == nil || actor.UserID == uuid.Nil {
    return nil, apperr.Unauthenticated("no actor in request")
  }

  plans, err := ls.planRepo.List(ctx, nil)
  if err != nil {
    return nil, err
  }
  if actor.HasRole(types.RoleAdmin) {
    return plans, nil
  }

  visible := make([]*types.LearningPlan, 0, len(plans))
  for _, plan := range plans {
    if plan.PublicAccess || plan.CreatorID == actor.UserID {
      visible = append(visible, plan)
    }
  }
  return visible, nil
}

func (ls *learningPlanService) AddCourse(ctx context.Context, actor *requestdata.RequestData, planID, courseID uuid.UUID, position int) error {
  if actor == nil || actor.UserID == uuid.Nil {
    return apperr.Unauthenticated("no actor in request")
  }

  decision, err := ls.accessService.ResolveManage(ctx, nil, actor, types.ScopeRef{Kind: types.ScopeLearningPlan, ID: planID})
  if err != nil {
    return err
  }
  if !decision.Granted {
    return apperr.Forbidden("no permission to edit this learning plan")
  }

  if _, err := ls.courseRepo.GetByID(ctx, nil, courseID); err != nil {
    return apperr.Map(err)
  }

  addErr := ls.planRepo.AddCourse(ctx, nil, &types.LearningPlanCourse{
    ID:             uuid.New(),
    LearningPlanID: planID,
    CourseID:       courseID,
    Position:       position,
  })
  return apperr.Map(addErr)
}

func (ls *learningPlanService) RemoveCourse(ctx context.Context, actor *requestdata.RequestData, planID, courseID uuid.UUID) error {
  if actor == nil || actor.UserID == uuid.Nil {
    return apperr.Unauthenticated("no actor in request")
  }

  decision, err := ls.accessService.ResolveManage(ctx, nil, actor, types.ScopeRef{Kind: types.ScopeLearningPlan, ID: planID})
  if err != nil {
    return err
  }
  if !decision.Granted {
    return apperr.Forbidden("no permission to edit this learning plan")
  }
  return apperr.Map(ls.planRepo.RemoveCourse(ctx, nil, planID, courseID))
}
