package repos

import (
  "context"
  "github.com/google/uuid"
  "gorm.io/gorm"
  "github.com/coursedeck/coursedeck-backend/internal/logger"
  "github.com/coursedeck/coursedeck-backend/internal/types"
)

type InstructorAssignmentRepo interface {
  Create(ctx context.Context, tx *gorm.DB, row *types.InstructorAssignment) (*types.InstructorAssignment, error)
  ExistsForCourses(ctx context.Context, tx *gorm.DB, userID uuid.UUID, courseIDs []uuid.UUID) (bool, error)
  ExistsForPlans(ctx context.Context, tx *gorm.DB, userID uuid.UUID, planIDs []uuid.UUID) (bool, error)
  FullDelete(ctx context.Context, tx *gorm.DB, id uuid.UUID) error
}

type instructorAssignmentRepo struct {
  db  *gorm.DB
  log *logger.Logger
}

func NewInstructorAssignmentRepo(db *gorm.DB, baseLog *logger.Logger) InstructorAssignmentRepo {
  repoLog := baseLog.With("repo", "InstructorAssignmentRepo")
  return &instructorAssignmentRepo{db: db, log: repoLog}
}

func (r *instructorAssignmentRepo) Create(ctx context.Context, tx *gorm.DB, row *types.InstructorAssignment) (*types.InstructorAssignment, error) {
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

func (r *instructorAssignmentRepo) ExistsForCourses(ctx context.Context, tx *gorm.DB, userID uuid.UUID, courseIDs []uuid.UUID) (bool, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }

  if userID == uuid.Nil || len(courseIDs) == 0 {
    return false, nil
  }

  var count int64
  if err := transaction.WithContext(ctx).
    Model(&types.InstructorAssignment{}).
    Where("user_id = ? AND course_id IN ?", userID, courseIDs).
    Count(&count).Error; err != nil {
    return false, err
  }
  return count > 0, nil
}

func (r *instructorAssignmentRepo) ExistsForPlans(ctx context.Context, tx *gorm.DB, userID uuid.UUID, planIDs []uuid.UUID) (bool, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }

  if userID == uuid.Nil || len(planIDs) == 0 {
    return false, nil
  }

  var count int64
  if err := transaction.WithContext(ctx).
    Model(&types.InstructorAssignment{}).
    Where("user_id = ? AND learning_plan_id IN ?", userID, planIDs).
    Count(&count).Error; err != nil {
    return false, err
  }
  return count > 0, nil
}

func (r *instructorAssignmentRepo) FullDelete(ctx context.Context, tx *gorm.DB, id uuid.UUID) error {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }

  if err := transaction.WithContext(ctx).
    Unscoped().
    Where("id = ?", id).
    Delete(&types.InstructorAssignment{}).Error; err != nil {
    return err
  }
  return nil
}
