package services

import (
  "context"
  "errors"
  "testing"

  "github.com/google/uuid"

  "github.com/coursedeck/coursedeck-backend/internal/apperr"
  "github.com/coursedeck/coursedeck-backend/internal/types"
)

type contentFixture struct {
  store   *memStore
  service ContentService
}

func newContentFixture(t *testing.T) *contentFixture {
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
  progress := NewProgressService(
    db, log, access, enrollments,
    &fakeContentRepo{s: store},
    &fakeProgressRepo{s: store},
    &fakeCompletionRepo{s: store},
    &fakeQuizRepo{s: store},
    &fakePlanRepo{s: store},
  )
  service := NewContentService(
    db, log, access, progress,
    &fakeContentRepo{s: store},
    &fakeQuizRepo{s: store},
  )
  return &contentFixture{store: store, service: service}
}

func (fx *contentFixture) addCourse(course *types.Course) *types.Course {
  if course.ID == uuid.Nil {
    course.ID = uuid.New()
  }
  fx.store.courses[course.ID] = course
  return course
}

func (fx *contentFixture) addItem(item *types.ContentItem) *types.ContentItem {
  if item.ID == uuid.Nil {
    item.ID = uuid.New()
  }
  fx.store.items[item.ID] = item
  return item
}

func (fx *contentFixture) addEdge(itemID, prereqID uuid.UUID) {
  fx.store.prereqs = append(fx.store.prereqs, &types.ContentPrerequisite{
    ID: uuid.New(), ContentItemID: itemID, PrerequisiteID: prereqID,
  })
}

func TestCreateItemsRequiresManage(t *testing.T) {
  fx := newContentFixture(t)
  course := fx.addCourse(&types.Course{CreatorID: uuid.New(), PublicAccess: true})

  // Public read access is not enough to author content.
  _, err := fx.service.CreateItems(context.Background(), testActor(uuid.New()), course.ID, []CreateContentItemInput{
    {Title: "Intro", Type: types.ContentTypeVideo},
  })
  if !errors.Is(err, apperr.ErrForbidden) {
    t.Fatalf("expected forbidden, got %v", err)
  }
}

func TestCreateItemsValidatesType(t *testing.T) {
  fx := newContentFixture(t)
  creatorID := uuid.New()
  course := fx.addCourse(&types.Course{CreatorID: creatorID})

  _, err := fx.service.CreateItems(context.Background(), testActor(creatorID), course.ID, []CreateContentItemInput{
    {Title: "Intro", Type: "AUDIOBOOK"},
  })
  if !errors.Is(err, apperr.ErrValidation) {
    t.Fatalf("expected validation error, got %v", err)
  }
}

func TestCreateTestItemNeedsPassingScore(t *testing.T) {
  fx := newContentFixture(t)
  creatorID := uuid.New()
  course := fx.addCourse(&types.Course{CreatorID: creatorID})

  _, err := fx.service.CreateItems(context.Background(), testActor(creatorID), course.ID, []CreateContentItemInput{
    {Title: "Final", Type: types.ContentTypeTest},
  })
  if !errors.Is(err, apperr.ErrValidation) {
    t.Fatalf("expected validation error, got %v", err)
  }

  rows, err := fx.service.CreateItems(context.Background(), testActor(creatorID), course.ID, []CreateContentItemInput{
    {Title: "Final", Type: types.ContentTypeTest, PassingScore: 0.7, UseBestAttempt: true},
  })
  if err != nil {
    t.Fatalf("create: %v", err)
  }
  quiz, ok := fx.store.quizzes[rows[0].ID]
  if !ok {
    t.Fatalf("expected a quiz row alongside the TEST item")
  }
  if quiz.PassingScore != 0.7 || !quiz.UseBestAttempt {
    t.Fatalf("quiz fields not carried over: %+v", quiz)
  }
}

func TestAddPrerequisiteRejectsSelfEdge(t *testing.T) {
  fx := newContentFixture(t)
  creatorID := uuid.New()
  course := fx.addCourse(&types.Course{CreatorID: creatorID})
  item := fx.addItem(&types.ContentItem{CourseID: course.ID, Type: types.ContentTypeVideo})

  err := fx.service.AddPrerequisite(context.Background(), testActor(creatorID), item.ID, item.ID)
  if !errors.Is(err, apperr.ErrValidation) {
    t.Fatalf("expected validation error, got %v", err)
  }
}

func TestAddPrerequisiteRejectsCrossCourseEdge(t *testing.T) {
  fx := newContentFixture(t)
  creatorID := uuid.New()
  first := fx.addCourse(&types.Course{CreatorID: creatorID})
  second := fx.addCourse(&types.Course{CreatorID: creatorID})
  a := fx.addItem(&types.ContentItem{CourseID: first.ID, Type: types.ContentTypeVideo})
  b := fx.addItem(&types.ContentItem{CourseID: second.ID, Type: types.ContentTypeVideo})

  err := fx.service.AddPrerequisite(context.Background(), testActor(creatorID), a.ID, b.ID)
  if !errors.Is(err, apperr.ErrValidation) {
    t.Fatalf("expected validation error, got %v", err)
  }
}

func TestAddPrerequisiteRejectsCycle(t *testing.T) {
  fx := newContentFixture(t)
  creatorID := uuid.New()
  course := fx.addCourse(&types.Course{CreatorID: creatorID})
  a := fx.addItem(&types.ContentItem{CourseID: course.ID, Type: types.ContentTypeVideo})
  b := fx.addItem(&types.ContentItem{CourseID: course.ID, Type: types.ContentTypeVideo})
  c := fx.addItem(&types.ContentItem{CourseID: course.ID, Type: types.ContentTypeVideo})

  if err := fx.service.AddPrerequisite(context.Background(), testActor(creatorID), b.ID, a.ID); err != nil {
    t.Fatalf("add a->b: %v", err)
  }
  if err := fx.service.AddPrerequisite(context.Background(), testActor(creatorID), c.ID, b.ID); err != nil {
    t.Fatalf("add b->c: %v", err)
  }
  // a already reaches c through b; closing the loop must fail.
  err := fx.service.AddPrerequisite(context.Background(), testActor(creatorID), a.ID, c.ID)
  if !errors.Is(err, apperr.ErrValidation) {
    t.Fatalf("expected cycle rejection, got %v", err)
  }
}

func TestListForCourseMarksLockedItems(t *testing.T) {
  fx := newContentFixture(t)
  course := fx.addCourse(&types.Course{CreatorID: uuid.New(), PublicAccess: true})
  first := fx.addItem(&types.ContentItem{CourseID: course.ID, Type: types.ContentTypeVideo, DurationSeconds: 100})
  second := fx.addItem(&types.ContentItem{CourseID: course.ID, Type: types.ContentTypeVideo, DurationSeconds: 100})
  fx.addEdge(second.ID, first.ID)
  userID := uuid.New()

  views, err := fx.service.ListForCourse(context.Background(), testActor(userID), course.ID)
  if err != nil {
    t.Fatalf("list: %v", err)
  }
  byID := map[uuid.UUID]*ContentItemView{}
  for _, view := range views {
    byID[view.Item.ID] = view
  }
  if byID[first.ID].Locked {
    t.Fatalf("item without prerequisites must be unlocked")
  }
  if !byID[second.ID].Locked {
    t.Fatalf("item with an incomplete prerequisite must be locked")
  }

  // Locked items stay visible in the listing.
  if len(views) != 2 {
    t.Fatalf("expected both items listed, got %d", len(views))
  }
}

func TestResolveBodyWithholdsLockedItems(t *testing.T) {
  fx := newContentFixture(t)
  course := fx.addCourse(&types.Course{CreatorID: uuid.New(), PublicAccess: true})
  first := fx.addItem(&types.ContentItem{CourseID: course.ID, Type: types.ContentTypeVideo, DurationSeconds: 100})
  second := fx.addItem(&types.ContentItem{CourseID: course.ID, Type: types.ContentTypePDF, StorageKey: "courses/second.pdf"})
  fx.addEdge(second.ID, first.ID)
  userID := uuid.New()

  if _, err := fx.service.ResolveBody(context.Background(), testActor(userID), second.ID); !errors.Is(err, apperr.ErrForbidden) {
    t.Fatalf("expected forbidden for locked item, got %v", err)
  }

  // Completing the prerequisite releases the body.
  firstID := first.ID
  fx.store.completions = append(fx.store.completions, &types.Completion{
    ID: uuid.New(), UserID: userID, ContentItemID: &firstID,
  })
  item, err := fx.service.ResolveBody(context.Background(), testActor(userID), second.ID)
  if err != nil {
    t.Fatalf("resolve body: %v", err)
  }
  if item.StorageKey != "courses/second.pdf" {
    t.Fatalf("expected body fields on the resolved item, got %+v", item)
  }
}

func TestResolveBodyRequiresReadAccess(t *testing.T) {
  fx := newContentFixture(t)
  course := fx.addCourse(&types.Course{CreatorID: uuid.New()})
  item := fx.addItem(&types.ContentItem{CourseID: course.ID, Type: types.ContentTypeVideo})

  _, err := fx.service.ResolveBody(context.Background(), testActor(uuid.New()), item.ID)
  if !errors.Is(err, apperr.ErrForbidden) {
    t.Fatalf("expected forbidden, got %v", err)
  }
}
