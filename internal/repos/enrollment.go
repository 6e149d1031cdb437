package repos

import (
  "context"
  "github.com/google/uuid"
  "gorm.io/gorm"
  "github.com/coursedeck/coursedeck-backend/internal/logger"
  "github.com/coursedeck/coursedeck-backend/internal/types"
)

type EnrollmentRepo interface {
  Create(ctx context.Context, tx *gorm.DB, row *types.Enrollment) (*types.Enrollment, error)
  GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Enrollment, error)
  GetByUserAndCourse(ctx context.Context, tx *gorm.DB, userID, courseID uuid.UUID) (*types.Enrollment, error)
  GetByUserAndPlan(ctx context.Context, tx *gorm.DB, userID, planID uuid.UUID) (*types.Enrollment, error)
  GetByUserAndCourseIDs(ctx context.Context, tx *gorm.DB, userID uuid.UUID, courseIDs []uuid.UUID) ([]*types.Enrollment, error)
  GetByUserAndPlanIDs(ctx context.Context, tx *gorm.DB, userID uuid.UUID, planIDs []uuid.UUID) ([]*types.Enrollment, error)
  ListByCourse(ctx context.Context, tx *gorm.DB, courseID uuid.UUID) ([]*types.Enrollment, error)
  ListByPlan(ctx context.Context, tx *gorm.DB, planID uuid.UUID) ([]*types.Enrollment, error)
  // CountOccupyingByCourse counts enrollments in a slot-holding state.
  // Call it after taking the parent row lock when guarding capacity.
  CountOccupyingByCourse(ctx context.Context, tx *gorm.DB, courseID uuid.UUID) (int64, error)
  CountOccupyingByPlan(ctx context.Context, tx *gorm.DB, planID uuid.UUID) (int64, error)
  UpdateFields(ctx context.Context, tx *gorm.DB, id uuid.UUID, updates map[string]any) error
  FullDelete(ctx context.Context, tx *gorm.DB, id uuid.UUID) error
}

type enrollmentRepo struct {
  db  *gorm.DB
  log *logger.Logger
}

func NewEnrollmentRepo(db *gorm.DB, baseLog *logger.Logger) EnrollmentRepo {
  repoLog := baseLog.With("repo", "EnrollmentRepo")
  return &enrollmentRepo{db: db, log: repoLog}
}

func (r *enrollmentRepo) Create(ctx context.Context, tx *gorm.DB, row *types.Enrollment) (*types.Enrollment, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }

  if row == nil {
    return nil, nil
  }

  if err := transaction.WithContext(ctx).Create(row).Error; err != nil {
    return nil, err
  }
  return row, nil
}

func (r *enrollmentRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Enrollment, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }

  var result types.Enrollment
  if err := transaction.WithContext(ctx).
    Where("id = ?", id).
    First(&result).Error; err != nil {
    return nil, err
  }
  return &result, nil
}

func (r *enrollmentRepo) GetByUserAndCourse(ctx context.Context, tx *gorm.DB, userID, courseID uuid.UUID) (*types.Enrollment, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }

  var result types.Enrollment
  if err := transaction.WithContext(ctx).
    Where("user_id = ? AND course_id = ?", userID, courseID).
    First(&result).Error; err != nil {
    return nil, err
  }
  return &result, nil
}

func (r *enrollmentRepo) GetByUserAndPlan(ctx context.Context, tx *gorm.DB, userID, planID uuid.UUID) (*types.Enrollment, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }

  var result types.Enrollment
  if err := transaction.WithContext(ctx).
    Where("user_id = ? AND learning_plan_id = ?", userID, planID).
    First(&result).Error; err != nil {
    return nil, err
  }
  return &result, nil
}

func (r *enrollmentRepo) GetByUserAndCourseIDs(ctx context.Context, tx *gorm.DB, userID uuid.UUID, courseIDs []uuid.UUID) ([]*types.Enrollment, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }

  var results []*types.Enrollment
  if userID == uuid.Nil || len(courseIDs) == 0 {
    return results, nil
  }

  if err := transaction.WithContext(ctx).
    Where("user_id = ? AND course_id IN ?", userID, courseIDs).
    Find(&results).Error; err != nil {
    return nil, err
  }
  return results, nil
}

func (r *enrollmentRepo) GetByUserAndPlanIDs(ctx context.Context, tx *gorm.DB, userID uuid.UUID, planIDs []uuid.UUID) ([]*types.Enrollment, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }

  var results []*types.Enrollment
  if userID == uuid.Nil || len(planIDs) == 0 {
    return results, nil
  }

  if err := transaction.WithContext(ctx).
    Where("user_id = ? AND learning_plan_id IN ?", userID, planIDs).
    Find(&results).Error; err != nil {
    return nil, err
  }
  return results, nil
}

func (r *enrollmentRepo) ListByCourse(ctx context.Context, tx *gorm.DB, courseID uuid.UUID) ([]*types.Enrollment, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }

  var results []*types.Enrollment
  if err := transaction.WithContext(ctx).
    Where("course_id = ?", courseID).
    Order("enrolled_at ASC").
    Find(&results).Error; err != nil {
    return nil, err
  }
  return results, nil
}

func (r *enrollmentRepo) ListByPlan(ctx context.Context, tx *gorm.DB, planID uuid.UUID) ([]*types.Enrollment, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }

  var results []*types.Enrollment
  if err := transaction.WithContext(ctx).
    Where("learning_plan_id = ?", planID).
    Order("enrolled_at ASC").
    Find(&results).Error; err != nil {
    return nil, err
  }
  return results, nil
}

func (r *enrollmentRepo) CountOccupyingByCourse(ctx context.Context, tx *gorm.DB, courseID uuid.UUID) (int64, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }

  var count int64
  if err := transaction.WithContext(ctx).
    Model(&types.Enrollment{}).
    Where("course_id = ? AND status IN ?", courseID, types.OccupyingStatuses).
    Count(&count).Error; err != nil {
    return 0, err
  }
  return count, nil
}

func (r *enrollmentRepo) CountOccupyingByPlan(ctx context.Context, tx *gorm.DB, planID uuid.UUID) (int64, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }

  var count int64
  if err := transaction.WithContext(ctx).
    Model(&types.Enrollment{}).
    Where("learning_plan_id = ? AND status IN ?", planID, types.OccupyingStatuses).
    Count(&count).Error; err != nil {
    return 0, err
  }
  return count, nil
}

func (r *enrollmentRepo) UpdateFields(ctx context.Context, tx *gorm.DB, id uuid.UUID, updates map[string]any) error {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }

  if len(updates) == 0 {
    return nil
  }

  if err := transaction.WithContext(ctx).
    Model(&types.Enrollment{}).
    Where("id = ?", id).
    Updates(updates).Error; err != nil {
    return err
  }
  return nil
}

func (r *enrollmentRepo) FullDelete(ctx context.Context, tx *gorm.DB, id uuid.UUID) error {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }

  if err := transaction.WithContext(ctx).
    Unscoped().
    Where("id = ?", id).
    Delete(&types.Enrollment{}).Error; err != nil {
    return err
  }
  return nil
}
