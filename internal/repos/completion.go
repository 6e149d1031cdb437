package repos

import (
  "context"
  "github.com/google/uuid"
  "gorm.io/gorm"
  "github.com/coursedeck/coursedeck-backend/internal/logger"
  "github.com/coursedeck/coursedeck-backend/internal/types"
)

type CompletionRepo interface {
  // CreateForItem/Course/Plan are idempotent: a second completion of the
  // same scope is a no-op, never a duplicate row.
  CreateForItem(ctx context.Context, tx *gorm.DB, userID, itemID uuid.UUID) (*types.Completion, error)
  CreateForCourse(ctx context.Context, tx *gorm.DB, userID, courseID uuid.UUID) (*types.Completion, error)
  CreateForPlan(ctx context.Context, tx *gorm.DB, userID, planID uuid.UUID) (*types.Completion, error)
  GetByUserAndItemIDs(ctx context.Context, tx *gorm.DB, userID uuid.UUID, itemIDs []uuid.UUID) ([]*types.Completion, error)
  ExistsForCourse(ctx context.Context, tx *gorm.DB, userID, courseID uuid.UUID) (bool, error)
  ExistsForPlan(ctx context.Context, tx *gorm.DB, userID, planID uuid.UUID) (bool, error)
}

type completionRepo struct {
  db  *gorm.DB
  log *logger.Logger
}

func NewCompletionRepo(db *gorm.DB, baseLog *logger.Logger) CompletionRepo {
  repoLog := baseLog.With("repo", "CompletionRepo")
  return &completionRepo{db: db, log: repoLog}
}

func (r *completionRepo) CreateForItem(ctx context.Context, tx *gorm.DB, userID, itemID uuid.UUID) (*types.Completion, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }

  row := &types.Completion{UserID: userID, ContentItemID: &itemID}
  if err := transaction.WithContext(ctx).
    Where("user_id = ? AND content_item_id = ?", userID, itemID).
    FirstOrCreate(row).Error; err != nil {
    return nil, err
  }
  return row, nil
}

func (r *completionRepo) CreateForCourse(ctx context.Context, tx *gorm.DB, userID, courseID uuid.UUID) (*types.Completion, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }

  row := &types.Completion{UserID: userID, CourseID: &courseID}
  if err := transaction.WithContext(ctx).
    Where("user_id = ? AND course_id = ?", userID, courseID).
    FirstOrCreate(row).Error; err != nil {
    return nil, err
  }
  return row, nil
}

func (r *completionRepo) CreateForPlan(ctx context.Context, tx *gorm.DB, userID, planID uuid.UUID) (*types.Completion, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }

  row := &types.Completion{UserID: userID, LearningPlanID: &planID}
  if err := transaction.WithContext(ctx).
    Where("user_id = ? AND learning_plan_id = ?", userID, planID).
    FirstOrCreate(row).Error; err != nil {
    return nil, err
  }
  return row, nil
}

func (r *completionRepo) GetByUserAndItemIDs(ctx context.Context, tx *gorm.DB, userID uuid.UUID, itemIDs []uuid.UUID) ([]*types.Completion, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }

  var results []*types.Completion
  if userID == uuid.Nil || len(itemIDs) == 0 {
    return results, nil
  }

  if err := transaction.WithContext(ctx).
    Where("user_id = ? AND content_item_id IN ?", userID, itemIDs).
    Find(&results).Error; err != nil {
    return nil, err
  }
  return results, nil
}

func (r *completionRepo) ExistsForCourse(ctx context.Context, tx *gorm.DB, userID, courseID uuid.UUID) (bool, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }

  var count int64
  if err := transaction.WithContext(ctx).
    Model(&types.Completion{}).
    Where("user_id = ? AND course_id = ?", userID, courseID).
    Count(&count).Error; err != nil {
    return false, err
  }
  return count > 0, nil
}

func (r *completionRepo) ExistsForPlan(ctx context.Context, tx *gorm.DB, userID, planID uuid.UUID) (bool, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }

  var count int64
  if err := transaction.WithContext(ctx).
    Model(&types.Completion{}).
    Where("user_id = ? AND learning_plan_id = ?", userID, planID).
    Count(&count).Error; err != nil {
    return false, err
  }
  return count > 0, nil
}
