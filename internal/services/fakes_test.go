package services

import (
  "context"
  "testing"
  "time"

  "github.com/google/uuid"
  "gorm.io/driver/sqlite"
  "gorm.io/gorm"

  "github.com/coursedeck/coursedeck-backend/internal/logger"
  "github.com/coursedeck/coursedeck-backend/internal/requestdata"
  "github.com/coursedeck/coursedeck-backend/internal/types"
)

// memStore backs the fake repos. One store per test, shared by all fakes
// so cross-repo flows (enroll, progress, complete) see each other's
// writes. The *gorm.DB passed around is only a transaction carrier; the
// fakes ignore it.
type memStore struct {
  users       map[uuid.UUID]*types.User
  courses     map[uuid.UUID]*types.Course
  plans       map[uuid.UUID]*types.LearningPlan
  planCourses []*types.LearningPlanCourse
  items       map[uuid.UUID]*types.ContentItem
  prereqs     []*types.ContentPrerequisite
  assignments []*types.InstructorAssignment
  groups      map[uuid.UUID]*types.Group
  memberships []*types.GroupMembership
  grants      []*types.GroupAccess
  enrollments map[uuid.UUID]*types.Enrollment
  progress    map[string]*types.ProgressRecord
  completions []*types.Completion
  quizzes     map[uuid.UUID]*types.Quiz
  attempts    []*types.QuizAttempt
}

func newMemStore() *memStore {
  return &memStore{
    users:       map[uuid.UUID]*types.User{},
    courses:     map[uuid.UUID]*types.Course{},
    plans:       map[uuid.UUID]*types.LearningPlan{},
    items:       map[uuid.UUID]*types.ContentItem{},
    groups:      map[uuid.UUID]*types.Group{},
    enrollments: map[uuid.UUID]*types.Enrollment{},
    progress:    map[string]*types.ProgressRecord{},
    quizzes:     map[uuid.UUID]*types.Quiz{},
  }
}

func progressKey(userID, itemID uuid.UUID) string {
  return userID.String() + "|" + itemID.String()
}

func newTestLogger(t *testing.T) *logger.Logger {
  t.Helper()
  log, err := logger.New("test")
  if err != nil {
    t.Fatalf("logger init: %v", err)
  }
  return log
}

// newTestDB opens an in-memory sqlite handle. The services only use it
// to open transactions; all reads and writes go through the fakes.
func newTestDB(t *testing.T) *gorm.DB {
  t.Helper()
  db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
  if err != nil {
    t.Fatalf("sqlite open: %v", err)
  }
  return db
}

func testActor(userID uuid.UUID, roles ...string) *requestdata.RequestData {
  return &requestdata.RequestData{UserID: userID, Roles: roles}
}

// --- user ---

type fakeUserRepo struct{ s *memStore }

func (f *fakeUserRepo) Create(_ context.Context, _ *gorm.DB, rows []*types.User) ([]*types.User, error) {
  for _, row := range rows {
    f.s.users[row.ID] = row
  }
  return rows, nil
}

func (f *fakeUserRepo) GetByIDs(_ context.Context, _ *gorm.DB, ids []uuid.UUID) ([]*types.User, error) {
  var out []*types.User
  for _, id := range ids {
    if u, ok := f.s.users[id]; ok {
      out = append(out, u)
    }
  }
  return out, nil
}

func (f *fakeUserRepo) GetByEmails(_ context.Context, _ *gorm.DB, emails []string) ([]*types.User, error) {
  var out []*types.User
  for _, u := range f.s.users {
    for _, email := range emails {
      if u.Email == email {
        out = append(out, u)
      }
    }
  }
  return out, nil
}

func (f *fakeUserRepo) EmailExists(_ context.Context, _ *gorm.DB, email string) (bool, error) {
  for _, u := range f.s.users {
    if u.Email == email {
      return true, nil
    }
  }
  return false, nil
}

// --- course ---

type fakeCourseRepo struct{ s *memStore }

func (f *fakeCourseRepo) Create(_ context.Context, _ *gorm.DB, rows []*types.Course) ([]*types.Course, error) {
  for _, row := range rows {
    f.s.courses[row.ID] = row
  }
  return rows, nil
}

func (f *fakeCourseRepo) GetByID(_ context.Context, _ *gorm.DB, id uuid.UUID) (*types.Course, error) {
  if c, ok := f.s.courses[id]; ok {
    return c, nil
  }
  return nil, gorm.ErrRecordNotFound
}

func (f *fakeCourseRepo) GetByIDs(_ context.Context, _ *gorm.DB, ids []uuid.UUID) ([]*types.Course, error) {
  var out []*types.Course
  for _, id := range ids {
    if c, ok := f.s.courses[id]; ok {
      out = append(out, c)
    }
  }
  return out, nil
}

func (f *fakeCourseRepo) GetByIDForUpdate(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Course, error) {
  return f.GetByID(ctx, tx, id)
}

func (f *fakeCourseRepo) List(_ context.Context, _ *gorm.DB) ([]*types.Course, error) {
  var out []*types.Course
  for _, c := range f.s.courses {
    out = append(out, c)
  }
  return out, nil
}

func (f *fakeCourseRepo) UpdateFields(_ context.Context, _ *gorm.DB, id uuid.UUID, updates map[string]any) error {
  c, ok := f.s.courses[id]
  if !ok {
    return gorm.ErrRecordNotFound
  }
  for key, value := range updates {
    switch key {
    case "title":
      c.Title = value.(string)
    case "public_access":
      c.PublicAccess = value.(bool)
    case "self_enrollment":
      c.SelfEnrollment = value.(bool)
    case "requires_approval":
      c.RequiresApproval = value.(bool)
    }
  }
  return nil
}

// --- learning plan ---

type fakePlanRepo struct{ s *memStore }

func (f *fakePlanRepo) Create(_ context.Context, _ *gorm.DB, rows []*types.LearningPlan) ([]*types.LearningPlan, error) {
  for _, row := range rows {
    f.s.plans[row.ID] = row
  }
  return rows, nil
}

func (f *fakePlanRepo) GetByID(_ context.Context, _ *gorm.DB, id uuid.UUID) (*types.LearningPlan, error) {
  if p, ok := f.s.plans[id]; ok {
    return p, nil
  }
  return nil, gorm.ErrRecordNotFound
}

func (f *fakePlanRepo) GetByIDs(_ context.Context, _ *gorm.DB, ids []uuid.UUID) ([]*types.LearningPlan, error) {
  var out []*types.LearningPlan
  for _, id := range ids {
    if p, ok := f.s.plans[id]; ok {
      out = append(out, p)
    }
  }
  return out, nil
}

func (f *fakePlanRepo) GetByIDForUpdate(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.LearningPlan, error) {
  return f.GetByID(ctx, tx, id)
}

func (f *fakePlanRepo) List(_ context.Context, _ *gorm.DB) ([]*types.LearningPlan, error) {
  var out []*types.LearningPlan
  for _, p := range f.s.plans {
    out = append(out, p)
  }
  return out, nil
}

func (f *fakePlanRepo) AddCourse(_ context.Context, _ *gorm.DB, row *types.LearningPlanCourse) error {
  for _, pc := range f.s.planCourses {
    if pc.LearningPlanID == row.LearningPlanID && pc.CourseID == row.CourseID {
      return gorm.ErrDuplicatedKey
    }
  }
  f.s.planCourses = append(f.s.planCourses, row)
  return nil
}

func (f *fakePlanRepo) RemoveCourse(_ context.Context, _ *gorm.DB, planID, courseID uuid.UUID) error {
  kept := f.s.planCourses[:0]
  for _, pc := range f.s.planCourses {
    if !(pc.LearningPlanID == planID && pc.CourseID == courseID) {
      kept = append(kept, pc)
    }
  }
  f.s.planCourses = kept
  return nil
}

func (f *fakePlanRepo) GetCourseIDs(_ context.Context, _ *gorm.DB, planID uuid.UUID) ([]uuid.UUID, error) {
  var out []uuid.UUID
  for _, pc := range f.s.planCourses {
    if pc.LearningPlanID == planID {
      out = append(out, pc.CourseID)
    }
  }
  return out, nil
}

func (f *fakePlanRepo) GetPlanIDsContainingCourse(_ context.Context, _ *gorm.DB, courseID uuid.UUID) ([]uuid.UUID, error) {
  var out []uuid.UUID
  for _, pc := range f.s.planCourses {
    if pc.CourseID == courseID {
      out = append(out, pc.LearningPlanID)
    }
  }
  return out, nil
}

// --- content ---

type fakeContentRepo struct{ s *memStore }

func (f *fakeContentRepo) Create(_ context.Context, _ *gorm.DB, rows []*types.ContentItem) ([]*types.ContentItem, error) {
  for _, row := range rows {
    f.s.items[row.ID] = row
  }
  return rows, nil
}

func (f *fakeContentRepo) GetByID(_ context.Context, _ *gorm.DB, id uuid.UUID) (*types.ContentItem, error) {
  if item, ok := f.s.items[id]; ok {
    return item, nil
  }
  return nil, gorm.ErrRecordNotFound
}

func (f *fakeContentRepo) GetByIDs(_ context.Context, _ *gorm.DB, ids []uuid.UUID) ([]*types.ContentItem, error) {
  var out []*types.ContentItem
  for _, id := range ids {
    if item, ok := f.s.items[id]; ok {
      out = append(out, item)
    }
  }
  return out, nil
}

func (f *fakeContentRepo) GetByCourseID(_ context.Context, _ *gorm.DB, courseID uuid.UUID) ([]*types.ContentItem, error) {
  var out []*types.ContentItem
  for _, item := range f.s.items {
    if item.CourseID == courseID {
      out = append(out, item)
    }
  }
  return out, nil
}

func (f *fakeContentRepo) UpdateFields(_ context.Context, _ *gorm.DB, id uuid.UUID, updates map[string]any) error {
  if _, ok := f.s.items[id]; !ok {
    return gorm.ErrRecordNotFound
  }
  return nil
}

func (f *fakeContentRepo) AddPrerequisite(_ context.Context, _ *gorm.DB, row *types.ContentPrerequisite) error {
  for _, edge := range f.s.prereqs {
    if edge.ContentItemID == row.ContentItemID && edge.PrerequisiteID == row.PrerequisiteID {
      return gorm.ErrDuplicatedKey
    }
  }
  f.s.prereqs = append(f.s.prereqs, row)
  return nil
}

func (f *fakeContentRepo) GetPrerequisiteIDs(_ context.Context, _ *gorm.DB, itemID uuid.UUID) ([]uuid.UUID, error) {
  var out []uuid.UUID
  for _, edge := range f.s.prereqs {
    if edge.ContentItemID == itemID {
      out = append(out, edge.PrerequisiteID)
    }
  }
  return out, nil
}

func (f *fakeContentRepo) GetPrerequisiteIDsForItems(_ context.Context, _ *gorm.DB, itemIDs []uuid.UUID) (map[uuid.UUID][]uuid.UUID, error) {
  out := map[uuid.UUID][]uuid.UUID{}
  for _, edge := range f.s.prereqs {
    for _, id := range itemIDs {
      if edge.ContentItemID == id {
        out[id] = append(out[id], edge.PrerequisiteID)
      }
    }
  }
  return out, nil
}

// --- instructor assignment ---

type fakeAssignmentRepo struct{ s *memStore }

func (f *fakeAssignmentRepo) Create(_ context.Context, _ *gorm.DB, row *types.InstructorAssignment) (*types.InstructorAssignment, error) {
  f.s.assignments = append(f.s.assignments, row)
  return row, nil
}

func (f *fakeAssignmentRepo) ExistsForCourses(_ context.Context, _ *gorm.DB, userID uuid.UUID, courseIDs []uuid.UUID) (bool, error) {
  for _, a := range f.s.assignments {
    if a.UserID != userID || a.CourseID == nil {
      continue
    }
    for _, id := range courseIDs {
      if *a.CourseID == id {
        return true, nil
      }
    }
  }
  return false, nil
}

func (f *fakeAssignmentRepo) ExistsForPlans(_ context.Context, _ *gorm.DB, userID uuid.UUID, planIDs []uuid.UUID) (bool, error) {
  for _, a := range f.s.assignments {
    if a.UserID != userID || a.LearningPlanID == nil {
      continue
    }
    for _, id := range planIDs {
      if *a.LearningPlanID == id {
        return true, nil
      }
    }
  }
  return false, nil
}

func (f *fakeAssignmentRepo) FullDelete(_ context.Context, _ *gorm.DB, id uuid.UUID) error {
  kept := f.s.assignments[:0]
  for _, a := range f.s.assignments {
    if a.ID != id {
      kept = append(kept, a)
    }
  }
  f.s.assignments = kept
  return nil
}

// --- group ---

type fakeGroupRepo struct{ s *memStore }

func (f *fakeGroupRepo) Create(_ context.Context, _ *gorm.DB, row *types.Group) (*types.Group, error) {
  f.s.groups[row.ID] = row
  return row, nil
}

func (f *fakeGroupRepo) GetByID(_ context.Context, _ *gorm.DB, id uuid.UUID) (*types.Group, error) {
  if g, ok := f.s.groups[id]; ok {
    return g, nil
  }
  return nil, gorm.ErrRecordNotFound
}

func (f *fakeGroupRepo) AddMember(_ context.Context, _ *gorm.DB, row *types.GroupMembership) error {
  f.s.memberships = append(f.s.memberships, row)
  return nil
}

func (f *fakeGroupRepo) RemoveMember(_ context.Context, _ *gorm.DB, groupID, userID uuid.UUID) error {
  kept := f.s.memberships[:0]
  for _, m := range f.s.memberships {
    if !(m.GroupID == groupID && m.UserID == userID) {
      kept = append(kept, m)
    }
  }
  f.s.memberships = kept
  return nil
}

func (f *fakeGroupRepo) GrantAccess(_ context.Context, _ *gorm.DB, row *types.GroupAccess) error {
  f.s.grants = append(f.s.grants, row)
  return nil
}

func (f *fakeGroupRepo) GetGroupIDsByUserID(_ context.Context, _ *gorm.DB, userID uuid.UUID) ([]uuid.UUID, error) {
  var out []uuid.UUID
  for _, m := range f.s.memberships {
    if m.UserID == userID {
      out = append(out, m.GroupID)
    }
  }
  return out, nil
}

func (f *fakeGroupRepo) AccessExistsForCourses(_ context.Context, _ *gorm.DB, groupIDs []uuid.UUID, courseIDs []uuid.UUID) (bool, error) {
  for _, g := range f.s.grants {
    if g.CourseID == nil {
      continue
    }
    for _, gid := range groupIDs {
      if g.GroupID != gid {
        continue
      }
      for _, cid := range courseIDs {
        if *g.CourseID == cid {
          return true, nil
        }
      }
    }
  }
  return false, nil
}

func (f *fakeGroupRepo) AccessExistsForPlans(_ context.Context, _ *gorm.DB, groupIDs []uuid.UUID, planIDs []uuid.UUID) (bool, error) {
  for _, g := range f.s.grants {
    if g.LearningPlanID == nil {
      continue
    }
    for _, gid := range groupIDs {
      if g.GroupID != gid {
        continue
      }
      for _, pid := range planIDs {
        if *g.LearningPlanID == pid {
          return true, nil
        }
      }
    }
  }
  return false, nil
}

// --- enrollment ---

type fakeEnrollmentRepo struct{ s *memStore }

func (f *fakeEnrollmentRepo) Create(_ context.Context, _ *gorm.DB, row *types.Enrollment) (*types.Enrollment, error) {
  for _, existing := range f.s.enrollments {
    if existing.UserID != row.UserID {
      continue
    }
    if row.CourseID != nil && existing.CourseID != nil && *row.CourseID == *existing.CourseID {
      return nil, gorm.ErrDuplicatedKey
    }
    if row.LearningPlanID != nil && existing.LearningPlanID != nil && *row.LearningPlanID == *existing.LearningPlanID {
      return nil, gorm.ErrDuplicatedKey
    }
  }
  f.s.enrollments[row.ID] = row
  return row, nil
}

func (f *fakeEnrollmentRepo) GetByID(_ context.Context, _ *gorm.DB, id uuid.UUID) (*types.Enrollment, error) {
  if e, ok := f.s.enrollments[id]; ok {
    return e, nil
  }
  return nil, gorm.ErrRecordNotFound
}

func (f *fakeEnrollmentRepo) GetByUserAndCourse(_ context.Context, _ *gorm.DB, userID, courseID uuid.UUID) (*types.Enrollment, error) {
  for _, e := range f.s.enrollments {
    if e.UserID == userID && e.CourseID != nil && *e.CourseID == courseID {
      return e, nil
    }
  }
  return nil, gorm.ErrRecordNotFound
}

func (f *fakeEnrollmentRepo) GetByUserAndPlan(_ context.Context, _ *gorm.DB, userID, planID uuid.UUID) (*types.Enrollment, error) {
  for _, e := range f.s.enrollments {
    if e.UserID == userID && e.LearningPlanID != nil && *e.LearningPlanID == planID {
      return e, nil
    }
  }
  return nil, gorm.ErrRecordNotFound
}

func (f *fakeEnrollmentRepo) GetByUserAndCourseIDs(_ context.Context, _ *gorm.DB, userID uuid.UUID, courseIDs []uuid.UUID) ([]*types.Enrollment, error) {
  var out []*types.Enrollment
  for _, e := range f.s.enrollments {
    if e.UserID != userID || e.CourseID == nil {
      continue
    }
    for _, id := range courseIDs {
      if *e.CourseID == id {
        out = append(out, e)
      }
    }
  }
  return out, nil
}

func (f *fakeEnrollmentRepo) GetByUserAndPlanIDs(_ context.Context, _ *gorm.DB, userID uuid.UUID, planIDs []uuid.UUID) ([]*types.Enrollment, error) {
  var out []*types.Enrollment
  for _, e := range f.s.enrollments {
    if e.UserID != userID || e.LearningPlanID == nil {
      continue
    }
    for _, id := range planIDs {
      if *e.LearningPlanID == id {
        out = append(out, e)
      }
    }
  }
  return out, nil
}

func (f *fakeEnrollmentRepo) ListByCourse(_ context.Context, _ *gorm.DB, courseID uuid.UUID) ([]*types.Enrollment, error) {
  var out []*types.Enrollment
  for _, e := range f.s.enrollments {
    if e.CourseID != nil && *e.CourseID == courseID {
      out = append(out, e)
    }
  }
  return out, nil
}

func (f *fakeEnrollmentRepo) ListByPlan(_ context.Context, _ *gorm.DB, planID uuid.UUID) ([]*types.Enrollment, error) {
  var out []*types.Enrollment
  for _, e := range f.s.enrollments {
    if e.LearningPlanID != nil && *e.LearningPlanID == planID {
      out = append(out, e)
    }
  }
  return out, nil
}

func (f *fakeEnrollmentRepo) CountOccupyingByCourse(_ context.Context, _ *gorm.DB, courseID uuid.UUID) (int64, error) {
  var count int64
  for _, e := range f.s.enrollments {
    if e.CourseID != nil && *e.CourseID == courseID && e.Occupying() {
      count++
    }
  }
  return count, nil
}

func (f *fakeEnrollmentRepo) CountOccupyingByPlan(_ context.Context, _ *gorm.DB, planID uuid.UUID) (int64, error) {
  var count int64
  for _, e := range f.s.enrollments {
    if e.LearningPlanID != nil && *e.LearningPlanID == planID && e.Occupying() {
      count++
    }
  }
  return count, nil
}

func (f *fakeEnrollmentRepo) UpdateFields(_ context.Context, _ *gorm.DB, id uuid.UUID, updates map[string]any) error {
  e, ok := f.s.enrollments[id]
  if !ok {
    return gorm.ErrRecordNotFound
  }
  for key, value := range updates {
    switch key {
    case "status":
      e.Status = value.(string)
    case "started_at":
      ts := value.(time.Time)
      e.StartedAt = &ts
    case "completed_at":
      ts := value.(time.Time)
      e.CompletedAt = &ts
    case "approved_by_id":
      id := value.(uuid.UUID)
      e.ApprovedByID = &id
    case "approved_at":
      ts := value.(time.Time)
      e.ApprovedAt = &ts
    }
  }
  return nil
}

func (f *fakeEnrollmentRepo) FullDelete(_ context.Context, _ *gorm.DB, id uuid.UUID) error {
  delete(f.s.enrollments, id)
  return nil
}

// --- progress ---

type fakeProgressRepo struct{ s *memStore }

func (f *fakeProgressRepo) GetByUserAndItem(_ context.Context, _ *gorm.DB, userID, itemID uuid.UUID) (*types.ProgressRecord, error) {
  if r, ok := f.s.progress[progressKey(userID, itemID)]; ok {
    return r, nil
  }
  return nil, gorm.ErrRecordNotFound
}

func (f *fakeProgressRepo) GetByUserAndItemForUpdate(ctx context.Context, tx *gorm.DB, userID, itemID uuid.UUID) (*types.ProgressRecord, error) {
  return f.GetByUserAndItem(ctx, tx, userID, itemID)
}

func (f *fakeProgressRepo) GetByUserAndItemIDs(_ context.Context, _ *gorm.DB, userID uuid.UUID, itemIDs []uuid.UUID) ([]*types.ProgressRecord, error) {
  var out []*types.ProgressRecord
  for _, id := range itemIDs {
    if r, ok := f.s.progress[progressKey(userID, id)]; ok {
      out = append(out, r)
    }
  }
  return out, nil
}

func (f *fakeProgressRepo) Upsert(_ context.Context, _ *gorm.DB, row *types.ProgressRecord) error {
  copied := *row
  f.s.progress[progressKey(row.UserID, row.ContentItemID)] = &copied
  return nil
}

func (f *fakeProgressRepo) FullDeleteByUserAndItemIDs(_ context.Context, _ *gorm.DB, userID uuid.UUID, itemIDs []uuid.UUID) error {
  for _, id := range itemIDs {
    delete(f.s.progress, progressKey(userID, id))
  }
  return nil
}

// --- completion ---

type fakeCompletionRepo struct{ s *memStore }

func (f *fakeCompletionRepo) CreateForItem(_ context.Context, _ *gorm.DB, userID, itemID uuid.UUID) (*types.Completion, error) {
  for _, c := range f.s.completions {
    if c.UserID == userID && c.ContentItemID != nil && *c.ContentItemID == itemID {
      return c, nil
    }
  }
  row := &types.Completion{ID: uuid.New(), UserID: userID, ContentItemID: &itemID}
  f.s.completions = append(f.s.completions, row)
  return row, nil
}

func (f *fakeCompletionRepo) CreateForCourse(_ context.Context, _ *gorm.DB, userID, courseID uuid.UUID) (*types.Completion, error) {
  for _, c := range f.s.completions {
    if c.UserID == userID && c.CourseID != nil && *c.CourseID == courseID {
      return c, nil
    }
  }
  row := &types.Completion{ID: uuid.New(), UserID: userID, CourseID: &courseID}
  f.s.completions = append(f.s.completions, row)
  return row, nil
}

func (f *fakeCompletionRepo) CreateForPlan(_ context.Context, _ *gorm.DB, userID, planID uuid.UUID) (*types.Completion, error) {
  for _, c := range f.s.completions {
    if c.UserID == userID && c.LearningPlanID != nil && *c.LearningPlanID == planID {
      return c, nil
    }
  }
  row := &types.Completion{ID: uuid.New(), UserID: userID, LearningPlanID: &planID}
  f.s.completions = append(f.s.completions, row)
  return row, nil
}

func (f *fakeCompletionRepo) GetByUserAndItemIDs(_ context.Context, _ *gorm.DB, userID uuid.UUID, itemIDs []uuid.UUID) ([]*types.Completion, error) {
  var out []*types.Completion
  for _, c := range f.s.completions {
    if c.UserID != userID || c.ContentItemID == nil {
      continue
    }
    for _, id := range itemIDs {
      if *c.ContentItemID == id {
        out = append(out, c)
      }
    }
  }
  return out, nil
}

func (f *fakeCompletionRepo) ExistsForCourse(_ context.Context, _ *gorm.DB, userID, courseID uuid.UUID) (bool, error) {
  for _, c := range f.s.completions {
    if c.UserID == userID && c.CourseID != nil && *c.CourseID == courseID {
      return true, nil
    }
  }
  return false, nil
}

func (f *fakeCompletionRepo) ExistsForPlan(_ context.Context, _ *gorm.DB, userID, planID uuid.UUID) (bool, error) {
  for _, c := range f.s.completions {
    if c.UserID == userID && c.LearningPlanID != nil && *c.LearningPlanID == planID {
      return true, nil
    }
  }
  return false, nil
}

// --- quiz ---

type fakeQuizRepo struct{ s *memStore }

func (f *fakeQuizRepo) Create(_ context.Context, _ *gorm.DB, row *types.Quiz) (*types.Quiz, error) {
  f.s.quizzes[row.ContentItemID] = row
  return row, nil
}

func (f *fakeQuizRepo) GetByContentItemID(_ context.Context, _ *gorm.DB, itemID uuid.UUID) (*types.Quiz, error) {
  if q, ok := f.s.quizzes[itemID]; ok {
    return q, nil
  }
  return nil, gorm.ErrRecordNotFound
}

func (f *fakeQuizRepo) GetByContentItemIDs(_ context.Context, _ *gorm.DB, itemIDs []uuid.UUID) ([]*types.Quiz, error) {
  var out []*types.Quiz
  for _, id := range itemIDs {
    if q, ok := f.s.quizzes[id]; ok {
      out = append(out, q)
    }
  }
  return out, nil
}

func (f *fakeQuizRepo) CreateAttempt(_ context.Context, _ *gorm.DB, row *types.QuizAttempt) (*types.QuizAttempt, error) {
  f.s.attempts = append(f.s.attempts, row)
  return row, nil
}

func (f *fakeQuizRepo) GetAttemptsByUserAndQuiz(_ context.Context, _ *gorm.DB, userID, quizID uuid.UUID) ([]*types.QuizAttempt, error) {
  var out []*types.QuizAttempt
  for _, a := range f.s.attempts {
    if a.UserID == userID && a.QuizID == quizID {
      out = append(out, a)
    }
  }
  return out, nil
}

func (f *fakeQuizRepo) GetAttemptsByUserAndQuizIDs(_ context.Context, _ *gorm.DB, userID uuid.UUID, quizIDs []uuid.UUID) ([]*types.QuizAttempt, error) {
  var out []*types.QuizAttempt
  for _, a := range f.s.attempts {
    if a.UserID != userID {
      continue
    }
    for _, id := range quizIDs {
      if a.QuizID == id {
        out = append(out, a)
      }
    }
  }
  return out, nil
}
