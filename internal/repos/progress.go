package repos

import (
  "context"
  "github.com/google/uuid"
  "gorm.io/gorm"
  "gorm.io/gorm/clause"
  "github.com/coursedeck/coursedeck-backend/internal/logger"
  "github.com/coursedeck/coursedeck-backend/internal/types"
)

type ProgressRepo interface {
  GetByUserAndItem(ctx context.Context, tx *gorm.DB, userID, itemID uuid.UUID) (*types.ProgressRecord, error)
  // GetByUserAndItemForUpdate locks the row so that concurrent pings for
  // the same (user, item) pair serialize inside the caller's transaction.
  GetByUserAndItemForUpdate(ctx context.Context, tx *gorm.DB, userID, itemID uuid.UUID) (*types.ProgressRecord, error)
  GetByUserAndItemIDs(ctx context.Context, tx *gorm.DB, userID uuid.UUID, itemIDs []uuid.UUID) ([]*types.ProgressRecord, error)
  Upsert(ctx context.Context, tx *gorm.DB, row *types.ProgressRecord) error
  FullDeleteByUserAndItemIDs(ctx context.Context, tx *gorm.DB, userID uuid.UUID, itemIDs []uuid.UUID) error
}

type progressRepo struct {
  db  *gorm.DB
  log *logger.Logger
}

func NewProgressRepo(db *gorm.DB, baseLog *logger.Logger) ProgressRepo {
  repoLog := baseLog.With("repo", "ProgressRepo")
  return &progressRepo{db: db, log: repoLog}
}

func (r *progressRepo) GetByUserAndItem(ctx context.Context, tx *gorm.DB, userID, itemID uuid.UUID) (*types.ProgressRecord, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }

  var result types.ProgressRecord
  if err := transaction.WithContext(ctx).
    Where("user_id = ? AND content_item_id = ?", userID, itemID).
    First(&result).Error; err != nil {
    return nil, err
  }
  return &result, nil
}

func (r *progressRepo) GetByUserAndItemForUpdate(ctx context.Context, tx *gorm.DB, userID, itemID uuid.UUID) (*types.ProgressRecord, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }

  var result types.ProgressRecord
  if err := transaction.WithContext(ctx).
    Clauses(clause.Locking{Strength: "UPDATE"}).
    Where("user_id = ? AND content_item_id = ?", userID, itemID).
    First(&result).Error; err != nil {
    return nil, err
  }
  return &result, nil
}

func (r *progressRepo) GetByUserAndItemIDs(ctx context.Context, tx *gorm.DB, userID uuid.UUID, itemIDs []uuid.UUID) ([]*types.ProgressRecord, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }

  var results []*types.ProgressRecord
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

func (r *progressRepo) Upsert(ctx context.Context, tx *gorm.DB, row *types.ProgressRecord) error {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }

  if row == nil {
    return nil
  }

  // Upsert by unique user_id + content_item_id
  if err := transaction.WithContext(ctx).
    Where("user_id = ? AND content_item_id = ?", row.UserID, row.ContentItemID).
    Assign(map[string]any{
      "watch_time_seconds": row.WatchTimeSeconds,
      "last_page_viewed":   row.LastPageViewed,
      "progress":           row.Progress,
      "completed":          row.Completed,
      "last_activity_at":   row.LastActivityAt,
    }).
    FirstOrCreate(row).Error; err != nil {
    return err
  }
  return nil
}

func (r *progressRepo) FullDeleteByUserAndItemIDs(ctx context.Context, tx *gorm.DB, userID uuid.UUID, itemIDs []uuid.UUID) error {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }

  if userID == uuid.Nil || len(itemIDs) == 0 {
    return nil
  }

  if err := transaction.WithContext(ctx).
    Unscoped().
    Where("user_id = ? AND content_item_id IN ?", userID, itemIDs).
    Delete(&types.ProgressRecord{}).Error; err != nil {
    return err
  }
  return nil
}
