package repos

import (
  "context"
  "github.com/google/uuid"
  "gorm.io/gorm"
  "gorm.io/gorm/clause"
  "github.com/coursedeck/coursedeck-backend/internal/logger"
  "github.com/coursedeck/coursedeck-backend/internal/types"
)

type LearningPlanRepo interface {
  Create(ctx context.Context, tx *gorm.DB, rows []*types.LearningPlan) ([]*types.LearningPlan, error)
  GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.LearningPlan, error)
  GetByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) ([]*types.LearningPlan, error)
  GetByIDForUpdate(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.LearningPlan, error)
  List(ctx context.Context, tx *gorm.DB) ([]*types.LearningPlan, error)
  AddCourse(ctx context.Context, tx *gorm.DB, row *types.LearningPlanCourse) error
  RemoveCourse(ctx context.Context, tx *gorm.DB, planID, courseID uuid.UUID) error
  GetCourseIDs(ctx context.Context, tx *gorm.DB, planID uuid.UUID) ([]uuid.UUID, error)
  GetPlanIDsContainingCourse(ctx context.Context, tx *gorm.DB, courseID uuid.UUID) ([]uuid.UUID, error)
}

type learningPlanRepo struct {
  db  *gorm.DB
  log *logger.Logger
}

func NewLearningPlanRepo(db *gorm.DB, baseLog *logger.Logger) LearningPlanRepo {
  repoLog := baseLog.With("repo", "LearningPlanRepo")
  return &learningPlanRepo{db: db, log: repoLog}
}

func (r *learningPlanRepo) Create(ctx context.Context, tx *gorm.DB, rows []*types.LearningPlan) ([]*types.LearningPlan, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }

  if len(rows) == 0 {
    return []*types.LearningPlan{}, nil
  }

  if err := transaction.WithContext(ctx).Create(&rows).Error; err != nil {
    return nil, err
  }
  return rows, nil
}

func (r *learningPlanRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.LearningPlan, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }

  var result types.LearningPlan
  if err := transaction.WithContext(ctx).
    Where("id = ?", id).
    First(&result).Error; err != nil {
    return nil, err
  }
  return &result, nil
}

func (r *learningPlanRepo) GetByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) ([]*types.LearningPlan, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }

  var results []*types.LearningPlan
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

func (r *learningPlanRepo) GetByIDForUpdate(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.LearningPlan, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }

  var result types.LearningPlan
  if err := transaction.WithContext(ctx).
    Clauses(clause.Locking{Strength: "UPDATE"}).
    Where("id = ?", id).
    First(&result).Error; err != nil {
    return nil, err
  }
  return &result, nil
}

func (r *learningPlanRepo) List(ctx context.Context, tx *gorm.DB) ([]*types.LearningPlan, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }

  var results []*types.LearningPlan
  if err := transaction.WithContext(ctx).
    Order("created_at DESC").
    Find(&results).Error; err != nil {
    return nil, err
  }
  return results, nil
}

func (r *learningPlanRepo) AddCourse(ctx context.Context, tx *gorm.DB, row *types.LearningPlanCourse) error {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }

  if row == nil {
    return nil
  }

  if err := transaction.WithContext(ctx).Create(row).Error; err != nil {
    return err
  }
  return nil
}

func (r *learningPlanRepo) RemoveCourse(ctx context.Context, tx *gorm.DB, planID, courseID uuid.UUID) error {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }

  if err := transaction.WithContext(ctx).
    Where("learning_plan_id = ? AND course_id = ?", planID, courseID).
    Delete(&types.LearningPlanCourse{}).Error; err != nil {
    return err
  }
  return nil
}

func (r *learningPlanRepo) GetCourseIDs(ctx context.Context, tx *gorm.DB, planID uuid.UUID) ([]uuid.UUID, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }

  var ids []uuid.UUID
  if err := transaction.WithContext(ctx).
    Model(&types.LearningPlanCourse{}).
    Where("learning_plan_id = ?", planID).
    Order("position ASC").
    Pluck("course_id", &ids).Error; err != nil {
    return nil, err
  }
  return ids, nil
}

func (r *learningPlanRepo) GetPlanIDsContainingCourse(ctx context.Context, tx *gorm.DB, courseID uuid.UUID) ([]uuid.UUID, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }

  var ids []uuid.UUID
  if err := transaction.WithContext(ctx).
    Model(&types.LearningPlanCourse{}).
    Where("course_id = ?", courseID).
    Pluck("learning_plan_id", &ids).Error; err != nil {
    return nil, err
  }
  return ids, nil
}
