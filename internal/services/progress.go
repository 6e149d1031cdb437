package services

import (
  "context"
  "errors"
  "math"
  "time"

  "github.com/google/uuid"
  "gorm.io/gorm"

  "github.com/coursedeck/coursedeck-backend/internal/apperr"
  "github.com/coursedeck/coursedeck-backend/internal/logger"
  "github.com/coursedeck/coursedeck-backend/internal/repos"
  "github.com/coursedeck/coursedeck-backend/internal/requestdata"
  "github.com/coursedeck/coursedeck-backend/internal/types"
)

// ProgressMeasure is one learner activity ping. Watch time feeds video
// items, page views feed paged items, and ViewerCompleted is the
// explicit completion signal from the document viewer.
type ProgressMeasure struct {
  WatchTimeSeconds *int  `json:"watch_time_seconds,omitempty"`
  PageViewed       *int  `json:"page_viewed,omitempty"`
  ViewerCompleted  bool  `json:"viewer_completed,omitempty"`
}

// ItemProgress is the derived view of one (user, item) pair: a percentage
// in [0,100] and a completed flag.
type ItemProgress struct {
  Progress  float64 `json:"progress"`
  Completed bool    `json:"completed"`
}

// ScopeProgress is the rollup for a course or a plan.
type ScopeProgress struct {
  Progress  float64 `json:"progress"`
  Completed bool    `json:"completed"`
}

// ProgressService accumulates learner activity, derives completion per
// item type, rolls progress up to courses and plans, and gates locked
// content behind its prerequisites. A Completion row always wins over
// any live computation.
type ProgressService interface {
  RecordProgress(ctx context.Context, actor *requestdata.RequestData, itemID uuid.UUID, measure ProgressMeasure) (*types.ProgressRecord, error)
  RecordQuizAttempt(ctx context.Context, actor *requestdata.RequestData, itemID uuid.UUID, score float64) (*types.QuizAttempt, error)
  // CompleteItem is the administrative manual-completion short circuit.
  CompleteItem(ctx context.Context, actor *requestdata.RequestData, userID, itemID uuid.UUID) error
  // IsUnlocked implements the prerequisite gate: unlocked iff every
  // prerequisite of the item is completed for this user.
  IsUnlocked(ctx context.Context, tx *gorm.DB, userID uuid.UUID, item *types.ContentItem) (bool, error)
  ItemProgressFor(ctx context.Context, tx *gorm.DB, userID uuid.UUID, items []*types.ContentItem) (map[uuid.UUID]ItemProgress, error)
  CourseProgressFor(ctx context.Context, tx *gorm.DB, userID, courseID uuid.UUID) (*ScopeProgress, error)
  PlanProgressFor(ctx context.Context, tx *gorm.DB, userID, planID uuid.UUID) (*ScopeProgress, error)
}

type progressService struct {
  db                *gorm.DB
  log               *logger.Logger
  accessService     AccessService
  enrollmentService EnrollmentService
  contentRepo       repos.ContentItemRepo
  progressRepo      repos.ProgressRepo
  completionRepo    repos.CompletionRepo
  quizRepo          repos.QuizRepo
  planRepo          repos.LearningPlanRepo
}

func NewProgressService(
  db *gorm.DB,
  baseLog *logger.Logger,
  accessService AccessService,
  enrollmentService EnrollmentService,
  contentRepo repos.ContentItemRepo,
  progressRepo repos.ProgressRepo,
  completionRepo repos.CompletionRepo,
  quizRepo repos.QuizRepo,
  planRepo repos.LearningPlanRepo,
) ProgressService {
  serviceLog := baseLog.With("service", "ProgressService")
  return &progressService{
    db:                db,
    log:               serviceLog,
    accessService:     accessService,
    enrollmentService: enrollmentService,
    contentRepo:       contentRepo,
    progressRepo:      progressRepo,
    completionRepo:    completionRepo,
    quizRepo:          quizRepo,
    planRepo:          planRepo,
  }
}

func (ps *progressService) RecordProgress(ctx context.Context, actor *requestdata.RequestData, itemID uuid.UUID, measure ProgressMeasure) (*types.ProgressRecord, error) {
  if actor == nil || actor.UserID == uuid.Nil {
    return nil, apperr.Unauthenticated("no actor in request")
  }

  item, err := ps.contentRepo.GetByID(ctx, nil, itemID)
  if err != nil {
    return nil, apperr.Map(err)
  }
  if item.Type == types.ContentTypeTest {
    return nil, apperr.Validation("TEST items track progress through quiz attempts")
  }

  decision, err := ps.accessService.Resolve(ctx, nil, actor, types.ScopeRef{Kind: types.ScopeContentItem, ID: itemID})
  if err != nil {
    return nil, err
  }
  if !decision.Granted {
    return nil, apperr.Forbidden("no access to this content item")
  }

  unlocked, err := ps.IsUnlocked(ctx, nil, actor.UserID, item)
  if err != nil {
    return nil, err
  }
  if !unlocked {
    return nil, apperr.Forbidden("prerequisites not met for this content item")
  }

  var saved *types.ProgressRecord
  err = ps.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
    existing, getErr := ps.progressRepo.GetByUserAndItemForUpdate(ctx, tx, actor.UserID, itemID)
    if getErr != nil && !errors.Is(getErr, gorm.ErrRecordNotFound) {
      return getErr
    }

    row := &types.ProgressRecord{
      ID:            uuid.New(),
      UserID:        actor.UserID,
      ContentItemID: itemID,
    }
    wasCompleted := false
    if existing != nil {
      row = existing
      wasCompleted = existing.Completed
    }

    // Monotonic: replayed or out-of-order pings never lower a measure.
    if measure.WatchTimeSeconds != nil && *measure.WatchTimeSeconds > row.WatchTimeSeconds {
      row.WatchTimeSeconds = *measure.WatchTimeSeconds
    }
    if measure.PageViewed != nil && *measure.PageViewed > row.LastPageViewed {
      row.LastPageViewed = *measure.PageViewed
    }

    progress, completed := deriveItemProgress(item, row, measure.ViewerCompleted)
    if wasCompleted {
      completed = true
    }
    row.Progress = progress
    row.Completed = completed
    row.LastActivityAt = time.Now()

    if upErr := ps.progressRepo.Upsert(ctx, tx, row); upErr != nil {
      return upErr
    }

    if actErr := ps.enrollmentService.RegisterActivity(ctx, tx, actor.UserID, item.CourseID); actErr != nil {
      return actErr
    }

    if row.Completed {
      if cascErr := ps.completeItem(ctx, tx, actor.UserID, item); cascErr != nil {
        return cascErr
      }
    }

    // A pre-existing Completion row overrides whatever was derived.
    overridden, ovErr := ps.applyCompletionOverride(ctx, tx, actor.UserID, row)
    if ovErr != nil {
      return ovErr
    }
    saved = overridden
    return nil
  })
  if err != nil {
    return nil, err
  }
  return saved, nil
}

// deriveItemProgress computes the live percentage and completed flag for
// a non-TEST item from the accumulated measures.
func deriveItemProgress(item *types.ContentItem, row *types.ProgressRecord, viewerCompleted bool) (float64, bool) {
  switch item.Type {
  case types.ContentTypeVideo, types.ContentTypeYouTube:
    if item.DurationSeconds <= 0 {
      return 0, false
    }
    progress := math.Min(100, float64(row.WatchTimeSeconds)/float64(item.DurationSeconds)*100)
    threshold := item.CompletionThreshold
    if threshold <= 0 {
      threshold = types.DefaultCompletionThreshold
    }
    return progress, progress/100 >= threshold
  default:
    // PDF/PPT/HTML/EXTERNAL: position-based, completion comes from the
    // viewer's explicit event, not from reaching the last page.
    completed := viewerCompleted || row.Completed
    if item.TotalPages <= 0 {
      if completed {
        return 100, true
      }
      return 0, false
    }
    progress := math.Min(100, float64(row.LastPageViewed)/float64(item.TotalPages)*100)
    if completed && progress < 100 {
      // keep reported progress consistent with the completed flag
      return progress, true
    }
    return progress, completed
  }
}

func (ps *progressService) applyCompletionOverride(ctx context.Context, tx *gorm.DB, userID uuid.UUID, row *types.ProgressRecord) (*types.ProgressRecord, error) {
  completions, err := ps.completionRepo.GetByUserAndItemIDs(ctx, tx, userID, []uuid.UUID{row.ContentItemID})
  if err != nil {
    return nil, err
  }
  if len(completions) > 0 {
    row.Progress = 100
    row.Completed = true
  }
  return row, nil
}

func (ps *progressService) RecordQuizAttempt(ctx context.Context, actor *requestdata.RequestData, itemID uuid.UUID, score float64) (*types.QuizAttempt, error) {
  if actor == nil || actor.UserID == uuid.Nil {
    return nil, apperr.Unauthenticated("no actor in request")
  }
  if score < 0 || score > 1 {
    return nil, apperr.Validation("score must be within [0,1]")
  }

  item, err := ps.contentRepo.GetByID(ctx, nil, itemID)
  if err != nil {
    return nil, apperr.Map(err)
  }
  if item.Type != types.ContentTypeTest {
    return nil, apperr.Validation("quiz attempts apply to TEST items only")
  }

  decision, err := ps.accessService.Resolve(ctx, nil, actor, types.ScopeRef{Kind: types.ScopeContentItem, ID: itemID})
  if err != nil {
    return nil, err
  }
  if !decision.Granted {
    return nil, apperr.Forbidden("no access to this content item")
  }

  unlocked, err := ps.IsUnlocked(ctx, nil, actor.UserID, item)
  if err != nil {
    return nil, err
  }
  if !unlocked {
    return nil, apperr.Forbidden("prerequisites not met for this content item")
  }

  quiz, err := ps.quizRepo.GetByContentItemID(ctx, nil, itemID)
  if err != nil {
    return nil, apperr.Map(err)
  }

  attempt := &types.QuizAttempt{
    ID:          uuid.New(),
    QuizID:      quiz.ID,
    UserID:      actor.UserID,
    Score:       score,
    Passed:      score >= quiz.PassingScore,
    AttemptedAt: time.Now(),
  }

  err = ps.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
    if _, createErr := ps.quizRepo.CreateAttempt(ctx, tx, attempt); createErr != nil {
      return createErr
    }
    if actErr := ps.enrollmentService.RegisterActivity(ctx, tx, actor.UserID, item.CourseID); actErr != nil {
      return actErr
    }
    if attempt.Passed {
      return ps.completeItem(ctx, tx, actor.UserID, item)
    }
    return nil
  })
  if err != nil {
    return nil, err
  }
  return attempt, nil
}

func (ps *progressService) CompleteItem(ctx context.Context, actor *requestdata.RequestData, userID, itemID uuid.UUID) error {
  if actor == nil || actor.UserID == uuid.Nil {
    return apperr.Unauthenticated("no actor in request")
  }

  item, err := ps.contentRepo.GetByID(ctx, nil, itemID)
  if err != nil {
    return apperr.Map(err)
  }

  decision, err := ps.accessService.ResolveManage(ctx, nil, actor, types.ScopeRef{Kind: types.ScopeCourse, ID: item.CourseID})
  if err != nil {
    return err
  }
  if !decision.Granted {
    return apperr.Forbidden("no permission to complete items manually")
  }

  return ps.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
    return ps.completeItem(ctx, tx, userID, item)
  })
}

// completeItem writes the item Completion and cascades: course complete
// when every required item is done, plan complete when every contained
// course is done. Each write is idempotent.
func (ps *progressService) completeItem(ctx context.Context, tx *gorm.DB, userID uuid.UUID, item *types.ContentItem) error {
  if _, err := ps.completionRepo.CreateForItem(ctx, tx, userID, item.ID); err != nil {
    return err
  }

  courseDone, err := ps.courseComplete(ctx, tx, userID, item.CourseID)
  if err != nil {
    return err
  }
  if !courseDone {
    return nil
  }

  if _, err := ps.completionRepo.CreateForCourse(ctx, tx, userID, item.CourseID); err != nil {
    return err
  }
  if err := ps.enrollmentService.RegisterCourseCompletion(ctx, tx, userID, item.CourseID); err != nil {
    return err
  }

  planIDs, err := ps.planRepo.GetPlanIDsContainingCourse(ctx, tx, item.CourseID)
  if err != nil {
    return err
  }
  for _, planID := range planIDs {
    planDone, planErr := ps.planComplete(ctx, tx, userID, planID)
    if planErr != nil {
      return planErr
    }
    if !planDone {
      continue
    }
    if _, planErr := ps.completionRepo.CreateForPlan(ctx, tx, userID, planID); planErr != nil {
      return planErr
    }
    if planErr := ps.enrollmentService.RegisterPlanCompletion(ctx, tx, userID, planID); planErr != nil {
      return planErr
    }
  }
  return nil
}

// courseComplete: all required items completed. Optional items report
// progress but never block.
func (ps *progressService) courseComplete(ctx context.Context, tx *gorm.DB, userID, courseID uuid.UUID) (bool, error) {
  items, err := ps.contentRepo.GetByCourseID(ctx, tx, courseID)
  if err != nil {
    return false, err
  }
  progressMap, err := ps.ItemProgressFor(ctx, tx, userID, items)
  if err != nil {
    return false, err
  }
  for _, item := range items {
    if !item.Required {
      continue
    }
    if !progressMap[item.ID].Completed {
      return false, nil
    }
  }
  return true, nil
}

func (ps *progressService) planComplete(ctx context.Context, tx *gorm.DB, userID, planID uuid.UUID) (bool, error) {
  courseIDs, err := ps.planRepo.GetCourseIDs(ctx, tx, planID)
  if err != nil {
    return false, err
  }
  for _, courseID := range courseIDs {
    done, exErr := ps.completionRepo.ExistsForCourse(ctx, tx, userID, courseID)
    if exErr != nil {
      return false, exErr
    }
    if !done {
      return false, nil
    }
  }
  return true, nil
}

func (ps *progressService) IsUnlocked(ctx context.Context, tx *gorm.DB, userID uuid.UUID, item *types.ContentItem) (bool, error) {
  prereqIDs, err := ps.contentRepo.GetPrerequisiteIDs(ctx, tx, item.ID)
  if err != nil {
    return false, err
  }
  if len(prereqIDs) == 0 {
    return true, nil
  }

  prereqs, err := ps.contentRepo.GetByIDs(ctx, tx, prereqIDs)
  if err != nil {
    return false, err
  }
  progressMap, err := ps.ItemProgressFor(ctx, tx, userID, prereqs)
  if err != nil {
    return false, err
  }
  for _, id := range prereqIDs {
    if !progressMap[id].Completed {
      return false, nil
    }
  }
  return true, nil
}

// ItemProgressFor derives the reported progress for each item. Priority:
// Completion row, then quiz attempts for TEST items, then the stored
// progress record, then zero.
func (ps *progressService) ItemProgressFor(ctx context.Context, tx *gorm.DB, userID uuid.UUID, items []*types.ContentItem) (map[uuid.UUID]ItemProgress, error) {
  result := make(map[uuid.UUID]ItemProgress, len(items))
  if len(items) == 0 {
    return result, nil
  }

  itemIDs := make([]uuid.UUID, 0, len(items))
  testItemIDs := make([]uuid.UUID, 0)
  for _, item := range items {
    itemIDs = append(itemIDs, item.ID)
    result[item.ID] = ItemProgress{}
    if item.Type == types.ContentTypeTest {
      testItemIDs = append(testItemIDs, item.ID)
    }
  }

  completions, err := ps.completionRepo.GetByUserAndItemIDs(ctx, tx, userID, itemIDs)
  if err != nil {
    return nil, err
  }
  completedSet := make(map[uuid.UUID]bool, len(completions))
  for _, completion := range completions {
    if completion.ContentItemID != nil {
      completedSet[*completion.ContentItemID] = true
    }
  }

  records, err := ps.progressRepo.GetByUserAndItemIDs(ctx, tx, userID, itemIDs)
  if err != nil {
    return nil, err
  }
  for _, record := range records {
    result[record.ContentItemID] = ItemProgress{Progress: record.Progress, Completed: record.Completed}
  }

  if len(testItemIDs) > 0 {
    quizzes, quizErr := ps.quizRepo.GetByContentItemIDs(ctx, tx, testItemIDs)
    if quizErr != nil {
      return nil, quizErr
    }
    quizIDs := make([]uuid.UUID, 0, len(quizzes))
    quizByID := make(map[uuid.UUID]*types.Quiz, len(quizzes))
    for _, quiz := range quizzes {
      quizIDs = append(quizIDs, quiz.ID)
      quizByID[quiz.ID] = quiz
    }
    attempts, attErr := ps.quizRepo.GetAttemptsByUserAndQuizIDs(ctx, tx, userID, quizIDs)
    if attErr != nil {
      return nil, attErr
    }
    chosen := make(map[uuid.UUID]*types.QuizAttempt, len(quizzes))
    for _, attempt := range attempts {
      quiz := quizByID[attempt.QuizID]
      if quiz == nil {
        continue
      }
      current := chosen[attempt.QuizID]
      if current == nil {
        chosen[attempt.QuizID] = attempt
        continue
      }
      if quiz.UseBestAttempt {
        if attempt.Score > current.Score {
          chosen[attempt.QuizID] = attempt
        }
      } else if attempt.AttemptedAt.After(current.AttemptedAt) {
        chosen[attempt.QuizID] = attempt
      }
    }
    for quizID, attempt := range chosen {
      quiz := quizByID[quizID]
      result[quiz.ContentItemID] = ItemProgress{
        Progress:  attempt.Score * 100,
        Completed: attempt.Passed,
      }
    }
  }

  for itemID := range completedSet {
    result[itemID] = ItemProgress{Progress: 100, Completed: true}
  }
  return result, nil
}

func (ps *progressService) CourseProgressFor(ctx context.Context, tx *gorm.DB, userID, courseID uuid.UUID) (*ScopeProgress, error) {
  done, err := ps.completionRepo.ExistsForCourse(ctx, tx, userID, courseID)
  if err != nil {
    return nil, err
  }
  if done {
    return &ScopeProgress{Progress: 100, Completed: true}, nil
  }

  items, err := ps.contentRepo.GetByCourseID(ctx, tx, courseID)
  if err != nil {
    return nil, err
  }
  if len(items) == 0 {
    return &ScopeProgress{}, nil
  }
  progressMap, err := ps.ItemProgressFor(ctx, tx, userID, items)
  if err != nil {
    return nil, err
  }

  var sum float64
  allRequiredDone := true
  for _, item := range items {
    ip := progressMap[item.ID]
    sum += ip.Progress
    if item.Required && !ip.Completed {
      allRequiredDone = false
    }
  }
  return &ScopeProgress{
    Progress:  sum / float64(len(items)),
    Completed: allRequiredDone,
  }, nil
}

func (ps *progressService) PlanProgressFor(ctx context.Context, tx *gorm.DB, userID, planID uuid.UUID) (*ScopeProgress, error) {
  done, err := ps.completionRepo.ExistsForPlan(ctx, tx, userID, planID)
  if err != nil {
    return nil, err
  }
  if done {
    return &ScopeProgress{Progress: 100, Completed: true}, nil
  }

  courseIDs, err := ps.planRepo.GetCourseIDs(ctx, tx, planID)
  if err != nil {
    return nil, err
  }
  if len(courseIDs) == 0 {
    return &ScopeProgress{}, nil
  }

  var sum float64
  allDone := true
  for _, courseID := range courseIDs {
    cp, cpErr := ps.CourseProgressFor(ctx, tx, userID, courseID)
    if cpErr != nil {
      return nil, cpErr
    }
    sum += cp.Progress
    if !cp.Completed {
      allDone = false
    }
  }
  return &ScopeProgress{
    Progress:  sum / float64(len(courseIDs)),
    Completed: allDone,
  }, nil
}
