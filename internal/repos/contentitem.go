package repos

import (
  "context"
  "github.com/google/uuid"
  "gorm.io/gorm"
  "github.com/coursedeck/coursedeck-backend/internal/logger"
  "github.com/coursedeck/coursedeck-backend/internal/types"
)

type ContentItemRepo interface {
  Create(ctx context.Context, tx *gorm.DB, rows []*types.ContentItem) ([]*types.ContentItem, error)
  GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.ContentItem, error)
  GetByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) ([]*types.ContentItem, error)
  GetByCourseID(ctx context.Context, tx *gorm.DB, courseID uuid.UUID) ([]*types.ContentItem, error)
  UpdateFields(ctx context.Context, tx *gorm.DB, id uuid.UUID, updates map[string]any) error
  AddPrerequisite(ctx context.Context, tx *gorm.DB, row *types.ContentPrerequisite) error
  GetPrerequisiteIDs(ctx context.Context, tx *gorm.DB, itemID uuid.UUID) ([]uuid.UUID, error)
  GetPrerequisiteIDsForItems(ctx context.Context, tx *gorm.DB, itemIDs []uuid.UUID) (map[uuid.UUID][]uuid.UUID, error)
}

type contentItemRepo struct {
  db  *gorm.DB
  log *logger.Logger
}

func NewContentItemRepo(db *gorm.DB, baseLog *logger.Logger) ContentItemRepo {
  repoLog := baseLog.With("repo", "ContentItemRepo")
  return &contentItemRepo{db: db, log: repoLog}
}

func (r *contentItemRepo) Create(ctx context.Context, tx *gorm.DB, rows []*types.ContentItem) ([]*types.ContentItem, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }

  if len(rows) == 0 {
    return []*types.ContentItem{}, nil
  }

  if err := transaction.WithContext(ctx).Create(&rows).Error; err != nil {
    return nil, err
  }
  return rows, nil
}

func (r *contentItemRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.ContentItem, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }

  var result types.ContentItem
  if err := transaction.WithContext(ctx).
    Where("id = ?", id).
    First(&result).Error; err != nil {
    return nil, err
  }
  return &result, nil
}

func (r *contentItemRepo) GetByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) ([]*types.ContentItem, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }

  var results []*types.ContentItem
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

func (r *contentItemRepo) GetByCourseID(ctx context.Context, tx *gorm.DB, courseID uuid.UUID) ([]*types.ContentItem, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }

  var results []*types.ContentItem
  if err := transaction.WithContext(ctx).
    Where("course_id = ?", courseID).
    Order("position ASC").
    Find(&results).Error; err != nil {
    return nil, err
  }
  return results, nil
}

func (r *contentItemRepo) UpdateFields(ctx context.Context, tx *gorm.DB, id uuid.UUID, updates map[string]any) error {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }

  if len(updates) == 0 {
    return nil
  }

  if err := transaction.WithContext(ctx).
    Model(&types.ContentItem{}).
    Where("id = ?", id).
    Updates(updates).Error; err != nil {
    return err
  }
  return nil
}

func (r *contentItemRepo) AddPrerequisite(ctx context.Context, tx *gorm.DB, row *types.ContentPrerequisite) error {
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

func (r *contentItemRepo) GetPrerequisiteIDs(ctx context.Context, tx *gorm.DB, itemID uuid.UUID) ([]uuid.UUID, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }

  var ids []uuid.UUID
  if err := transaction.WithContext(ctx).
    Model(&types.ContentPrerequisite{}).
    Where("content_item_id = ?", itemID).
    Pluck("prerequisite_id", &ids).Error; err != nil {
    return nil, err
  }
  return ids, nil
}

func (r *contentItemRepo) GetPrerequisiteIDsForItems(ctx context.Context, tx *gorm.DB, itemIDs []uuid.UUID) (map[uuid.UUID][]uuid.UUID, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }

  result := make(map[uuid.UUID][]uuid.UUID, len(itemIDs))
  if len(itemIDs) == 0 {
    return result, nil
  }

  var edges []*types.ContentPrerequisite
  if err := transaction.WithContext(ctx).
    Where("content_item_id IN ?", itemIDs).
    Find(&edges).Error; err != nil {
    return nil, err
  }
  for _, edge := range edges {
    result[edge.ContentItemID] = append(result[edge.ContentItemID], edge.PrerequisiteID)
  }
  return result, nil
}
