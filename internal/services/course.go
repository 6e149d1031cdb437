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

type CreateCourseInput struct {
  Title            string `json:"title" binding:"required"`
  Description      string `json:"description"`
  PublicAccess     bool   `json:"public_access"`
  SelfEnrollment   bool   `json:"self_enrollment"`
  RequiresApproval bool   `json:"requires_approval"`
  MaxEnrollments   *int   `json:"max_enrollments"`
}

// CourseView is a course plus the caller's rollup, for detail responses.
type CourseView struct {
  Course   *types.Course  `json:"course"`
  Progress *ScopeProgress `json:"progress,omitempty"`
}

type CourseService interface {
  Create(ctx context.Context, actor *requestdata.RequestData, input CreateCourseInput) (*types.Course, error)
  Get(ctx context.Context, actor *requestdata.RequestData, id uuid.UUID) (*CourseView, error)
  // List returns the catalog slice the actor can see without a per-row
  // access resolution: public courses plus the actor's own.
  List(ctx context.Context, actor *requestdata.RequestData) ([]*types.Course, error)
  Update(ctx context.Context, actor *requestdata.RequestData, id uuid.UUID, updates map[string]any) error
  AssignInstructor(ctx context.Context, actor *requestdata.RequestData, userID uuid.UUID, ref types.ScopeRef) error
}

type courseService struct {
  db              *gorm.DB
  log             *logger.Logger
  accessService   AccessService
  progressService ProgressService
  courseRepo      repos.CourseRepo
  assignmentRepo  repos.InstructorAssignmentRepo
}

func NewCourseService(
  db *gorm.DB,
  baseLog *logger.Logger,
  accessService AccessService,
  progressService ProgressService,
  courseRepo repos.CourseRepo,
  assignmentRepo repos.InstructorAssignmentRepo,
) CourseService {
  serviceLog := baseLog.With("service", "CourseService")
  return &courseService{
    db:              db,
    log:             serviceLog,
    accessService:   accessService,
    progressService: progressService,
    courseRepo:      courseRepo,
    assignmentRepo:  assignmentRepo,
  }
}

func (cs *courseService) Create(ctx context.Context, actor *requestdata.RequestData, input CreateCourseInput) (*types.Course, error) {
  if actor == nil || actor.UserID == uuid.Nil {
    return nil, apperr.Unauthenticated("no actor in request")
  }
  if !actor.HasRole(types.RoleAdmin) && !actor.HasRole(types.RoleInstructor) {
    return nil, apperr.Forbidden("only instructors can create courses")
  }
  if input.MaxEnrollments != nil && *input.MaxEnrollments < 0 {
    return nil, apperr.Validation("max enrollments cannot be negative")
  }

  course := &types.Course{
    ID:               uuid.New(),
    CreatorID:        actor.UserID,
    Title:            input.Title,
    Description:      input.Description,
    PublicAccess:     input.PublicAccess,
    SelfEnrollment:   input.SelfEnrollment,
    RequiresApproval: input.RequiresApproval,
    MaxEnrollments:   input.MaxEnrollments,
  }
  if _, err := cs.courseRepo.Create(ctx, nil, []*types.Course{course}); err != nil {
    return nil, apperr.Map(err)
  }
  cs.log.Info("Course created", "course_id", course.ID, "creator_id", actor.UserID)
  return course, nil
}

func (cs *courseService) Get(ctx context.Context, actor *requestdata.RequestData, id uuid.UUID) (*CourseView, error) {
  if actor == nil || actor.UserID == uuid.Nil {
    return nil, apperr.Unauthenticated("no actor in request")
  }

  decision, err := cs.accessService.Resolve(ctx, nil, actor, types.ScopeRef{Kind: types.ScopeCourse, ID: id})
  if err != nil {
    return nil, err
  }
  if !decision.Granted {
    return nil, apperr.Forbidden("no access to this course")
  }

  course, err := cs.courseRepo.GetByID(ctx, nil, id)
  if err != nil {
    return nil, apperr.Map(err)
  }
  progress, err := cs.progressService.CourseProgressFor(ctx, nil, actor.UserID, id)
  if err != nil {
    return nil, err
  }
  return &CourseView{Course: course, Progress: progress}, nil
}

func (cs *courseService) List(ctx context.Context, actor *requestdata.RequestData) ([]*types.Course, error) {
  if actor == nil || actor.UserID == uuid.Nil {
    return nil, apperr.Unauthenticated("no actor in request")
  }

  courses, err := cs.courseRepo.List(ctx, nil)
  if err != nil {
    return nil, err
  }
  if actor.HasRole(types.RoleAdmin) {
    return courses, nil
  }

  visible := make([]*types.Course, 0, len(courses))
  for _, course := range courses {
    if course.PublicAccess || course.CreatorID == actor.UserID {
      visible = append(visible, course)
    }
  }
  return visible, nil
}

func (cs *courseService) Update(ctx context.Context, actor *requestdata.RequestData, id uuid.UUID, updates map[string]any) error {
  if actor == nil || actor.UserID == uuid.Nil {
    return apperr.Unauthenticated("no actor in request")
  }

  decision, err := cs.accessService.ResolveManage(ctx, nil, actor, types.ScopeRef{Kind: types.ScopeCourse, ID: id})
  if err != nil {
    return err
  }
  if !decision.Granted {
    return apperr.Forbidden("no permission to edit this course")
  }

  allowed := map[string]bool{
    "title":             true,
    "description":       true,
    "public_access":     true,
    "self_enrollment":   true,
    "requires_approval": true,
    "max_enrollments":   true,
  }
  filtered := make(map[string]any, len(updates))
  for key, value := range updates {
    if !allowed[key] {
      return apperr.Validation("field " + key + " is not updatable")
    }
    filtered[key] = value
  }
  return apperr.Map(cs.courseRepo.UpdateFields(ctx, nil, id, filtered))
}

func (cs *courseService) AssignInstructor(ctx context.Context, actor *requestdata.RequestData, userID uuid.UUID, ref types.ScopeRef) error {
  if actor == nil || actor.UserID == uuid.Nil {
    return apperr.Unauthenticated("no actor in request")
  }
  if ref.Kind == types.ScopeContentItem {
    return apperr.Validation("instructors are assigned to courses or plans")
  }

  decision, err := cs.accessService.ResolveManage(ctx, nil, actor, ref)
  if err != nil {
    return err
  }
  if !decision.Granted {
    return apperr.Forbidden("no permission to assign instructors here")
  }

  assignment := &types.InstructorAssignment{
    ID:     uuid.New(),
    UserID: userID,
  }
  if ref.Kind == types.ScopeCourse {
    assignment.CourseID = &ref.ID
  } else {
    assignment.LearningPlanID = &ref.ID
  }
  _, err = cs.assignmentRepo.Create(ctx, nil, assignment)
  return apperr.Map(err)
}
