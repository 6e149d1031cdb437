package repos

import (
  "context"
  "github.com/google/uuid"
  "gorm.io/gorm"
  "github.com/coursedeck/coursedeck-backend/internal/logger"
  "github.com/coursedeck/coursedeck-backend/internal/types"
)

type QuizRepo interface {
  Create(ctx context.Context, tx *gorm.DB, row *types.Quiz) (*types.Quiz, error)
  GetByContentItemID(ctx context.Context, tx *gorm.DB, itemID uuid.UUID) (*types.Quiz, error)
  GetByContentItemIDs(ctx context.Context, tx *gorm.DB, itemIDs []uuid.UUID) ([]*types.Quiz, error)
  CreateAttempt(ctx context.Context, tx *gorm.DB, row *types.QuizAttempt) (*types.QuizAttempt, error)
  GetAttemptsByUserAndQuiz(ctx context.Context, tx *gorm.DB, userID, quizID uuid.UUID) ([]*types.QuizAttempt, error)
  GetAttemptsByUserAndQuizIDs(ctx context.Context, tx *gorm.DB, userID uuid.UUID, quizIDs []uuid.UUID) ([]*types.QuizAttempt, error)
}

type quizRepo struct {
  db  *gorm.DB
  log *logger.Logger
}

func NewQuizRepo(db *gorm.DB, baseLog *logger.Logger) QuizRepo {
  repoLog := baseLog.With("repo", "QuizRepo")
  return &quizRepo{db: db, log: repoLog}
}

func (r *quizRepo) Create(ctx context.Context, tx *gorm.DB, row *types.Quiz) (*types.Quiz, error) {
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

func (r *quizRepo) GetByContentItemID(ctx context.Context, tx *gorm.DB, itemID uuid.UUID) (*types.Quiz, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }

  var result types.Quiz
  if err := transaction.WithContext(ctx).
    Where("content_item_id = ?", itemID).
    First(&result).Error; err != nil {
    return nil, err
  }
  return &result, nil
}

func (r *quizRepo) GetByContentItemIDs(ctx context.Context, tx *gorm.DB, itemIDs []uuid.UUID) ([]*types.Quiz, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }

  var results []*types.Quiz
  if len(itemIDs) == 0 {
    return results, nil
  }

  if err := transaction.WithContext(ctx).
    Where("content_item_id IN ?", itemIDs).
    Find(&results).Error; err != nil {
    return nil, err
  }
  return results, nil
}

func (r *quizRepo) CreateAttempt(ctx context.Context, tx *gorm.DB, row *types.QuizAttempt) (*types.QuizAttempt, error) {
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

func (r *quizRepo) GetAttemptsByUserAndQuiz(ctx context.Context, tx *gorm.DB, userID, quizID uuid.UUID) ([]*types.QuizAttempt, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }

  var results []*types.QuizAttempt
  if err := transaction.WithContext(ctx).
    Where("user_id = ? AND quiz_id = ?", userID, quizID).
    Order("attempted_at ASC").
    Find(&results).Error; err != nil {
    return nil, err
  }
  return results, nil
}

func (r *quizRepo) GetAttemptsByUserAndQuizIDs(ctx context.Context, tx *gorm.DB, userID uuid.UUID, quizIDs []uuid.UUID) ([]*types.QuizAttempt, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }

  var results []*types.QuizAttempt
  if userID == uuid.Nil || len(quizIDs) == 0 {
    return results, nil
  }

  if err := transaction.WithContext(ctx).
    Where("user_id = ? AND quiz_id IN ?", userID, quizIDs).
    Order("attempted_at ASC").
    Find(&results).Error; err != nil {
    return nil, err
  }
  return results, nil
}
