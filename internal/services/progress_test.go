package services

import (
  "context"
  "errors"
  "testing"

  "github.com/google/uuid"

  "github.com/coursedeck/coursedeck-backend/internal/apperr"
  "github.com/coursedeck/coursedeck-backend/internal/types"
)

type progressFixture struct {
  store       *memStore
  enrollments EnrollmentService
  service     ProgressService
}

func newProgressFixture(t *testing.T) *progressFixture {
  t.Helper()
  store := newMemStore()
  log := newTestLogger(t)
  db := newTestDB(t)

  access := NewAccessService(
    db, log,
    &fakeCourseRepo{s: store},
    &fakePlanRepo{s: store},
    &fakeContentRepo{s: store},
    &fakeAssignmentRepo{s: store},
    &fakeEnrollmentRepo{s: store},
    &fakeGroupRepo{s: store},
    nil,
  )
  enrollments := NewEnrollmentService(
    db, log, access,
    &fakeEnrollmentRepo{s: store},
    &fakeCourseRepo{s: store},
    &fakePlanRepo{s: store},
    &fakeContentRepo{s: store},
    &fakeProgressRepo{s: store},
    &fakeUserRepo{s: store},
  )
  service := NewProgressService(
    db, log, access, enrollments,
    &fakeContentRepo{s: store},
    &fakeProgressRepo{s: store},
    &fakeCompletionRepo{s: store},
    &fakeQuizRepo{s: store},
    &fakePlanRepo{s: store},
  )
  return &progressFixture{store: store, enrollments: enrollments, service: service}
}

func (fx *progressFixture) addPublicCourse() *types.Course {
  course := &types.Course{ID: uuid.New(), CreatorID: uuid.New(), PublicAccess: true}
  fx.store.courses[course.ID] = course
  return course
}

func (fx *progressFixture) addItem(item *types.ContentItem) *types.ContentItem {
  if item.ID == uuid.Nil {
    item.ID = uuid.New()
  }
  fx.store.items[item.ID] = item
  return item
}

func (fx *progressFixture) enrollIn(userID uuid.UUID, courseID *uuid.UUID, planID *uuid.UUID) *types.Enrollment {
  row := &types.Enrollment{
    ID:             uuid.New(),
    UserID:         userID,
    CourseID:       courseID,
    LearningPlanID: planID,
    Status:         types.EnrollmentEnrolled,
  }
  fx.store.enrollments[row.ID] = row
  return row
}

func (fx *progressFixture) itemCompleted(userID, itemID uuid.UUID) bool {
  for _, c := range fx.store.completions {
    if c.UserID == userID && c.ContentItemID != nil && *c.ContentItemID == itemID {
      return true
    }
  }
  return false
}

func (fx *progressFixture) courseCompleted(userID, courseID uuid.UUID) bool {
  for _, c := range fx.store.completions {
    if c.UserID == userID && c.CourseID != nil && *c.CourseID == courseID {
      return true
    }
  }
  return false
}

func (fx *progressFixture) planCompleted(userID, planID uuid.UUID) bool {
  for _, c := range fx.store.completions {
    if c.UserID == userID && c.LearningPlanID != nil && *c.LearningPlanID == planID {
      return true
    }
  }
  return false
}

func TestVideoProgressThreshold(t *testing.T) {
  fx := newProgressFixture(t)
  course := fx.addPublicCourse()
  item := fx.addItem(&types.ContentItem{CourseID: course.ID, Type: types.ContentTypeVideo, DurationSeconds: 100})
  userID := uuid.New()

  row, err := fx.service.RecordProgress(context.Background(), testActor(userID), item.ID, ProgressMeasure{WatchTimeSeconds: intPtr(79)})
  if err != nil {
    t.Fatalf("record: %v", err)
  }
  if row.Completed {
    t.Fatalf("79s of 100s must not complete at the default threshold")
  }
  if row.Progress != 79 {
    t.Fatalf("expected progress 79, got %v", row.Progress)
  }

  row, err = fx.service.RecordProgress(context.Background(), testActor(userID), item.ID, ProgressMeasure{WatchTimeSeconds: intPtr(80)})
  if err != nil {
    t.Fatalf("record: %v", err)
  }
  if !row.Completed {
    t.Fatalf("80s of 100s must complete at the default threshold")
  }
  if !fx.itemCompleted(userID, item.ID) {
    t.Fatalf("expected a completion row for the item")
  }
}

func TestVideoWithoutDurationNeverCompletes(t *testing.T) {
  fx := newProgressFixture(t)
  course := fx.addPublicCourse()
  item := fx.addItem(&types.ContentItem{CourseID: course.ID, Type: types.ContentTypeVideo})
  userID := uuid.New()

  row, err := fx.service.RecordProgress(context.Background(), testActor(userID), item.ID, ProgressMeasure{WatchTimeSeconds: intPtr(500)})
  if err != nil {
    t.Fatalf("record: %v", err)
  }
  if row.Progress != 0 || row.Completed {
    t.Fatalf("unknown duration must report zero, got %+v", row)
  }
}

func TestProgressIsMonotonic(t *testing.T) {
  fx := newProgressFixture(t)
  course := fx.addPublicCourse()
  item := fx.addItem(&types.ContentItem{CourseID: course.ID, Type: types.ContentTypeVideo, DurationSeconds: 100})
  userID := uuid.New()

  if _, err := fx.service.RecordProgress(context.Background(), testActor(userID), item.ID, ProgressMeasure{WatchTimeSeconds: intPtr(50)}); err != nil {
    t.Fatalf("record: %v", err)
  }
  // A stale ping must not lower the stored measure.
  row, err := fx.service.RecordProgress(context.Background(), testActor(userID), item.ID, ProgressMeasure{WatchTimeSeconds: intPtr(30)})
  if err != nil {
    t.Fatalf("record: %v", err)
  }
  if row.WatchTimeSeconds != 50 || row.Progress != 50 {
    t.Fatalf("expected watch time to stay at 50, got %+v", row)
  }
}

func TestPagedItemViewerCompletion(t *testing.T) {
  fx := newProgressFixture(t)
  course := fx.addPublicCourse()
  item := fx.addItem(&types.ContentItem{CourseID: course.ID, Type: types.ContentTypePDF, TotalPages: 10})
  userID := uuid.New()

  row, err := fx.service.RecordProgress(context.Background(), testActor(userID), item.ID, ProgressMeasure{PageViewed: intPtr(10)})
  if err != nil {
    t.Fatalf("record: %v", err)
  }
  // Reaching the last page is not the completion signal.
  if row.Completed {
    t.Fatalf("paged items complete on the viewer event, not the last page")
  }
  if row.Progress != 100 {
    t.Fatalf("expected progress 100, got %v", row.Progress)
  }

  row, err = fx.service.RecordProgress(context.Background(), testActor(userID), item.ID, ProgressMeasure{ViewerCompleted: true})
  if err != nil {
    t.Fatalf("record: %v", err)
  }
  if !row.Completed {
    t.Fatalf("viewer completion event must complete the item")
  }
}

func TestRecordProgressRejectsTestItems(t *testing.T) {
  fx := newProgressFixture(t)
  course := fx.addPublicCourse()
  item := fx.addItem(&types.ContentItem{CourseID: course.ID, Type: types.ContentTypeTest})

  _, err := fx.service.RecordProgress(context.Background(), testActor(uuid.New()), item.ID, ProgressMeasure{ViewerCompleted: true})
  if !errors.Is(err, apperr.ErrValidation) {
    t.Fatalf("expected validation error, got %v", err)
  }
}

func TestRecordProgressLockedItem(t *testing.T) {
  fx := newProgressFixture(t)
  course := fx.addPublicCourse()
  first := fx.addItem(&types.ContentItem{CourseID: course.ID, Type: types.ContentTypeVideo, DurationSeconds: 100})
  second := fx.addItem(&types.ContentItem{CourseID: course.ID, Type: types.ContentTypeVideo, DurationSeconds: 100})
  fx.store.prereqs = append(fx.store.prereqs, &types.ContentPrerequisite{
    ID: uuid.New(), ContentItemID: second.ID, PrerequisiteID: first.ID,
  })
  userID := uuid.New()

  _, err := fx.service.RecordProgress(context.Background(), testActor(userID), second.ID, ProgressMeasure{WatchTimeSeconds: intPtr(10)})
  if !errors.Is(err, apperr.ErrForbidden) {
    t.Fatalf("expected forbidden on locked item, got %v", err)
  }

  // Completing the prerequisite unlocks it.
  if _, err := fx.service.RecordProgress(context.Background(), testActor(userID), first.ID, ProgressMeasure{WatchTimeSeconds: intPtr(100)}); err != nil {
    t.Fatalf("complete prerequisite: %v", err)
  }
  if _, err := fx.service.RecordProgress(context.Background(), testActor(userID), second.ID, ProgressMeasure{WatchTimeSeconds: intPtr(10)}); err != nil {
    t.Fatalf("expected unlocked item to accept progress: %v", err)
  }
}

func TestQuizAttemptPassFail(t *testing.T) {
  fx := newProgressFixture(t)
  course := fx.addPublicCourse()
  item := fx.addItem(&types.ContentItem{CourseID: course.ID, Type: types.ContentTypeTest, Required: true})
  fx.store.quizzes[item.ID] = &types.Quiz{ID: uuid.New(), ContentItemID: item.ID, PassingScore: 0.7, UseBestAttempt: true}
  userID := uuid.New()

  attempt, err := fx.service.RecordQuizAttempt(context.Background(), testActor(userID), item.ID, 0.65)
  if err != nil {
    t.Fatalf("attempt: %v", err)
  }
  if attempt.Passed {
    t.Fatalf("0.65 must not pass a 0.7 threshold")
  }
  if fx.itemCompleted(userID, item.ID) {
    t.Fatalf("failed attempt must not complete the item")
  }

  attempt, err = fx.service.RecordQuizAttempt(context.Background(), testActor(userID), item.ID, 0.75)
  if err != nil {
    t.Fatalf("attempt: %v", err)
  }
  if !attempt.Passed {
    t.Fatalf("0.75 must pass a 0.7 threshold")
  }
  if !fx.itemCompleted(userID, item.ID) {
    t.Fatalf("passing attempt must complete the item")
  }
}

func TestQuizAttemptScoreRange(t *testing.T) {
  fx := newProgressFixture(t)
  course := fx.addPublicCourse()
  item := fx.addItem(&types.ContentItem{CourseID: course.ID, Type: types.ContentTypeTest})
  fx.store.quizzes[item.ID] = &types.Quiz{ID: uuid.New(), ContentItemID: item.ID, PassingScore: 0.7}

  if _, err := fx.service.RecordQuizAttempt(context.Background(), testActor(uuid.New()), item.ID, 1.2); !errors.Is(err, apperr.ErrValidation) {
    t.Fatalf("expected validation error, got %v", err)
  }
  if _, err := fx.service.RecordQuizAttempt(context.Background(), testActor(uuid.New()), item.ID, -0.1); !errors.Is(err, apperr.ErrValidation) {
    t.Fatalf("expected validation error, got %v", err)
  }
}

func TestQuizAttemptOnNonTestItem(t *testing.T) {
  fx := newProgressFixture(t)
  course := fx.addPublicCourse()
  item := fx.addItem(&types.ContentItem{CourseID: course.ID, Type: types.ContentTypeVideo, DurationSeconds: 60})

  if _, err := fx.service.RecordQuizAttempt(context.Background(), testActor(uuid.New()), item.ID, 0.9); !errors.Is(err, apperr.ErrValidation) {
    t.Fatalf("expected validation error, got %v", err)
  }
}

func TestCompletionRowOverridesDerivedProgress(t *testing.T) {
  fx := newProgressFixture(t)
  course := fx.addPublicCourse()
  item := fx.addItem(&types.ContentItem{CourseID: course.ID, Type: types.ContentTypeVideo, DurationSeconds: 100})
  userID := uuid.New()
  itemID := item.ID
  fx.store.completions = append(fx.store.completions, &types.Completion{
    ID: uuid.New(), UserID: userID, ContentItemID: &itemID,
  })

  row, err := fx.service.RecordProgress(context.Background(), testActor(userID), item.ID, ProgressMeasure{WatchTimeSeconds: intPtr(10)})
  if err != nil {
    t.Fatalf("record: %v", err)
  }
  if row.Progress != 100 || !row.Completed {
    t.Fatalf("completion row must override derived progress, got %+v", row)
  }
}

func TestCourseProgressOptionalItemsNeverBlock(t *testing.T) {
  fx := newProgressFixture(t)
  course := fx.addPublicCourse()
  required := fx.addItem(&types.ContentItem{CourseID: course.ID, Type: types.ContentTypeVideo, DurationSeconds: 100, Required: true})
  fx.addItem(&types.ContentItem{CourseID: course.ID, Type: types.ContentTypeVideo, DurationSeconds: 100, Required: false})
  userID := uuid.New()
  requiredID := required.ID
  fx.store.completions = append(fx.store.completions, &types.Completion{
    ID: uuid.New(), UserID: userID, ContentItemID: &requiredID,
  })

  progress, err := fx.service.CourseProgressFor(context.Background(), nil, userID, course.ID)
  if err != nil {
    t.Fatalf("course progress: %v", err)
  }
  if !progress.Completed {
    t.Fatalf("untouched optional item must not block completion, got %+v", progress)
  }
  // Both items still count toward the percentage.
  if progress.Progress != 50 {
    t.Fatalf("expected 50%% rollup, got %v", progress.Progress)
  }
}

func TestItemCompletionCascadesToCourseAndPlan(t *testing.T) {
  fx := newProgressFixture(t)
  course := fx.addPublicCourse()
  item := fx.addItem(&types.ContentItem{CourseID: course.ID, Type: types.ContentTypeVideo, DurationSeconds: 100, Required: true})

  plan := &types.LearningPlan{ID: uuid.New(), CreatorID: uuid.New()}
  fx.store.plans[plan.ID] = plan
  fx.store.planCourses = append(fx.store.planCourses, &types.LearningPlanCourse{
    ID: uuid.New(), LearningPlanID: plan.ID, CourseID: course.ID,
  })

  userID := uuid.New()
  courseEnrollment := fx.enrollIn(userID, &course.ID, nil)
  planEnrollment := fx.enrollIn(userID, nil, &plan.ID)

  if _, err := fx.service.RecordProgress(context.Background(), testActor(userID), item.ID, ProgressMeasure{WatchTimeSeconds: intPtr(100)}); err != nil {
    t.Fatalf("record: %v", err)
  }

  if !fx.itemCompleted(userID, item.ID) {
    t.Fatalf("expected item completion")
  }
  if !fx.courseCompleted(userID, course.ID) {
    t.Fatalf("expected course completion cascade")
  }
  if !fx.planCompleted(userID, plan.ID) {
    t.Fatalf("expected plan completion cascade")
  }
  if courseEnrollment.Status != types.EnrollmentCompleted {
    t.Fatalf("expected course enrollment COMPLETED, got %s", courseEnrollment.Status)
  }
  if planEnrollment.Status != types.EnrollmentCompleted {
    t.Fatalf("expected plan enrollment COMPLETED, got %s", planEnrollment.Status)
  }
}

func TestManualCompleteRequiresManage(t *testing.T) {
  fx := newProgressFixture(t)
  course := fx.addPublicCourse()
  item := fx.addItem(&types.ContentItem{CourseID: course.ID, Type: types.ContentTypeVideo, DurationSeconds: 100})
  learner := uuid.New()

  if err := fx.service.CompleteItem(context.Background(), testActor(learner), learner, item.ID); !errors.Is(err, apperr.ErrForbidden) {
    t.Fatalf("expected forbidden for non-manager, got %v", err)
  }

  admin := testActor(uuid.New(), types.RoleAdmin)
  if err := fx.service.CompleteItem(context.Background(), admin, learner, item.ID); err != nil {
    t.Fatalf("manual complete: %v", err)
  }
  if !fx.itemCompleted(learner, item.ID) {
    t.Fatalf("expected completion row after manual completion")
  }
}

func TestPlanProgressAveragesCourses(t *testing.T) {
  fx := newProgressFixture(t)
  done := fx.addPublicCourse()
  doneItem := fx.addItem(&types.ContentItem{CourseID: done.ID, Type: types.ContentTypeVideo, DurationSeconds: 100, Required: true})
  open := fx.addPublicCourse()
  fx.addItem(&types.ContentItem{CourseID: open.ID, Type: types.ContentTypeVideo, DurationSeconds: 100, Required: true})

  plan := &types.LearningPlan{ID: uuid.New(), CreatorID: uuid.New()}
  fx.store.plans[plan.ID] = plan
  fx.store.planCourses = append(fx.store.planCourses,
    &types.LearningPlanCourse{ID: uuid.New(), LearningPlanID: plan.ID, CourseID: done.ID},
    &types.LearningPlanCourse{ID: uuid.New(), LearningPlanID: plan.ID, CourseID: open.ID},
  )

  userID := uuid.New()
  if _, err := fx.service.RecordProgress(context.Background(), testActor(userID), doneItem.ID, ProgressMeasure{WatchTimeSeconds: intPtr(100)}); err != nil {
    t.Fatalf("record: %v", err)
  }

  progress, err := fx.service.PlanProgressFor(context.Background(), nil, userID, plan.ID)
  if err != nil {
    t.Fatalf("plan progress: %v", err)
  }
  if progress.Completed {
    t.Fatalf("one open course must keep the plan incomplete")
  }
  if progress.Progress != 50 {
    t.Fatalf("expected 50%% plan rollup, got %v", progress.Progress)
  }
}
