package repos

import (
  "context"
  "github.com/google/uuid"
  "gorm.io/gorm"
  "gorm.io/gorm/clause"
  "github.com/coursedeck/coursedeck-backend/internal/logger"
  "github.com/coursedeck/coursedeck-backend/internal/types"
)

type CourseRepo interface {
  Create(ctx context.Context, tx *gorm.DB, rows []*types.Course) ([]*types.Course, error)
  GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Course, error)
  GetByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) ([]*types.Course, error)
  // GetByIDForUpdate locks the course row for the remainder of the
  // surrounding transaction. The capacity guard serializes on this lock.
  GetByIDForUpdate(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Course, error)
  List(ctx context.Context, tx *gorm.DB) ([]*types.Course, error)
  UpdateFields(ctx context.Context, tx *gorm.DB, id uuid.UUID, updates map[string]any) error
}

type courseRepo struct {
  db  *gorm.DB
  log *logger.Logger
}

func NewCourseRepo(db *gorm.DB, baseLog *logger.Logger) CourseRepo {
  repoLog := baseLog.With("repo", "CourseRepo")
  return &courseRepo{db: db, log: repoLog}
}

func (r *courseRepo) Create(ctx context.Context, tx *gorm.DB, rows []*types.Course) ([]*types.Course, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }

  if len(rows) == 0 {
    return []*types.Course{}, nil
  }

  if err := transaction.WithContext(ctx).Create(&rows).Error; err != nil {
    return nil, err
  }
  return rows, nil
}

func (r *courseRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Course, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }

  var result types.Course
  if err := transaction.WithContext(ctx).
    Where("id = ?", id).
    First(&result).Error; err != nil {
    return nil, err
  }
  return &result, nil
}

func (r *courseRepo) GetByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) ([]*types.Course, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }

  var results []*types.Course
  if len(ids) == 0 {
    return results, nil
  }

  if err := transaction.WithContext(ctx).
    Where("id IN ?", ids).
    Find(&results).Error; err != nil {
    return nil, err
  }
  return results, nil
}

func (r *courseRepo) GetByIDForUpdate(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Course, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }

  var result types.Course
  if err := transaction.WithContext(ctx).
    Clauses(clause.Locking{Strength: "UPDATE"}).
    Where("id = ?", id).
    First(&result).Error; err != nil {
    return nil, err
  }
  return &result, nil
}

func (r *courseRepo) List(ctx context.Context, tx *gorm.DB) ([]*types.Course, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }

  var results []*types.Course
  if err := transaction.WithContext(ctx).
    Order("created_at DESC").
    Find(&results).Error; err != nil {
    return nil, err
  }
  return results, nil
}

func (r *courseRepo) UpdateFields(ctx context.Context, tx *gorm.DB, id uuid.UUID, updates map[string]any) error {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }

  if len(updates) == 0 {
    return nil
  }

  if err := transaction.WithContext(ctx).
    Model(&types.Course{}).
    Where("id = ?", id).
    Updates(updates).Error; err != nil {
    return err
  }
  return nil
}
