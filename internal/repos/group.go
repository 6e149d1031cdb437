package repos

import (
  "context"
  "github.com/google/uuid"
  "gorm.io/gorm"
  "github.com/coursedeck/coursedeck-backend/internal/logger"
  "github.com/coursedeck/coursedeck-backend/internal/types"
)

type GroupRepo interface {
  Create(ctx context.Context, tx *gorm.DB, row *types.Group) (*types.Group, error)
  GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Group, error)
  AddMember(ctx context.Context, tx *gorm.DB, row *types.GroupMembership) error
  RemoveMember(ctx context.Context, tx *gorm.DB, groupID, userID uuid.UUID) error
  GrantAccess(ctx context.Context, tx *gorm.DB, row *types.GroupAccess) error
  GetGroupIDsByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]uuid.UUID, error)
  AccessExistsForCourses(ctx context.Context, tx *gorm.DB, groupIDs []uuid.UUID, courseIDs []uuid.UUID) (bool, error)
  AccessExistsForPlans(ctx context.Context, tx *gorm.DB, groupIDs []uuid.UUID, planIDs []uuid.UUID) (bool, error)
}

type groupRepo struct {
  db  *gorm.DB
  log *logger.Logger
}

func NewGroupRepo(db *gorm.DB, baseLog *logger.Logger) GroupRepo {
  repoLog := baseLog.With("repo", "GroupRepo")
  return &groupRepo{db: db, log: repoLog}
}

func (r *groupRepo) Create(ctx context.Context, tx *gorm.DB, row *types.Group) (*types.Group, error) {
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

func (r *groupRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Group, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }

  var result types.Group
  if err := transaction.WithContext(ctx).
    Where("id = ?", id).
    First(&result).Error; err != nil {
    return nil, err
  }
  return &result, nil
}

func (r *groupRepo) AddMember(ctx context.Context, tx *gorm.DB, row *types.GroupMembership) error {
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

func (r *groupRepo) RemoveMember(ctx context.Context, tx *gorm.DB, groupID, userID uuid.UUID) error {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }

  if err := transaction.WithContext(ctx).
    Unscoped().
    Where("group_id = ? AND user_id = ?", groupID, userID).
    Delete(&types.GroupMembership{}).Error; err != nil {
    return err
  }
  return nil
}

func (r *groupRepo) GrantAccess(ctx context.Context, tx *gorm.DB, row *types.GroupAccess) error {
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

func (r *groupRepo) GetGroupIDsByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]uuid.UUID, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }

  var ids []uuid.UUID
  if userID == uuid.Nil {
    return ids, nil
  }

  if err := transaction.WithContext(ctx).
    Model(&types.GroupMembership{}).
    Where("user_id = ?", userID).
    Pluck("group_id", &ids).Error; err != nil {
    return nil, err
  }
  return ids, nil
}

func (r *groupRepo) AccessExistsForCourses(ctx context.Context, tx *gorm.DB, groupIDs []uuid.UUID, courseIDs []uuid.UUID) (bool, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }

  if len(groupIDs) == 0 || len(courseIDs) == 0 {
    return false, nil
  }

  var count int64
  if err := transaction.WithContext(ctx).
    Model(&types.GroupAccess{}).
    Where("group_id IN ? AND course_id IN ?", groupIDs, courseIDs).
    Count(&count).Error; err != nil {
    return false, err
  }
  return count > 0, nil
}

func (r *groupRepo) AccessExistsForPlans(ctx context.Context, tx *gorm.DB, groupIDs []uuid.UUID, planIDs []uuid.UUID) (bool, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }

  if len(groupIDs) == 0 || len(planIDs) == 0 {
    return false, nil
  }

  var count int64
  if err := transaction.WithContext(ctx).
    Model(&types.GroupAccess{}).
    Where("group_id IN ? AND learning_plan_id IN ?", groupIDs, planIDs).
    Count(&count).Error; err != nil {
    return false, err
  }
  return count > 0, nil
}
