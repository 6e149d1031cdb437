package services

import (
  "context"

  "github.com/google/uuid"
  "golang.org/x/sync/errgroup"
  "gorm.io/gorm"

  "github.com/coursedeck/coursedeck-backend/internal/apperr"
  "github.com/coursedeck/coursedeck-backend/internal/logger"
  "github.com/coursedeck/coursedeck-backend/internal/repos"
  "github.com/coursedeck/coursedeck-backend/internal/requestdata"
  "github.com/coursedeck/coursedeck-backend/internal/types"
)

// CreateContentItemInput carries one new item. Quiz fields only apply to
// TEST items.
type CreateContentItemInput struct {
  Title               string  `json:"title" binding:"required"`
  Type                string  `json:"type" binding:"required"`
  Position            int     `json:"position"`
  ExternalURL         string  `json:"external_url"`
  StorageKey          string  `json:"storage_key"`
  DurationSeconds     int     `json:"duration_seconds"`
  TotalPages          int     `json:"total_pages"`
  CompletionThreshold float64 `json:"completion_threshold"`
  DisallowSeeking     bool    `json:"disallow_seeking"`
  Required            *bool   `json:"required"`
  PassingScore        float64 `json:"passing_score"`
  UseBestAttempt      bool    `json:"use_best_attempt"`
}

// ContentItemView is one listing row: the item plus the caller's derived
// progress and whether the prerequisite gate still holds it locked.
// Locked items stay visible; only their body is withheld.
type ContentItemView struct {
  Item     *types.ContentItem `json:"item"`
  Progress ItemProgress       `json:"progress"`
  Locked   bool               `json:"locked"`
}

// ContentService manages course content and the prerequisite graph, and
// serves the locked-aware listing and body resolution paths.
type ContentService interface {
  CreateItems(ctx context.Context, actor *requestdata.RequestData, courseID uuid.UUID, inputs []CreateContentItemInput) ([]*types.ContentItem, error)
  // AddPrerequisite inserts one edge into the prerequisite DAG. An edge
  // that would close a cycle is rejected outright.
  AddPrerequisite(ctx context.Context, actor *requestdata.RequestData, itemID, prerequisiteID uuid.UUID) error
  ListForCourse(ctx context.Context, actor *requestdata.RequestData, courseID uuid.UUID) ([]*ContentItemView, error)
  // ResolveBody returns the item with its playable/downloadable fields,
  // only when the actor has read access and the item is unlocked.
  ResolveBody(ctx context.Context, actor *requestdata.RequestData, itemID uuid.UUID) (*types.ContentItem, error)
}

type contentService struct {
  db              *gorm.DB
  log             *logger.Logger
  accessService   AccessService
  progressService ProgressService
  contentRepo     repos.ContentItemRepo
  quizRepo        repos.QuizRepo
}

func NewContentService(
  db *gorm.DB,
  baseLog *logger.Logger,
  accessService AccessService,
  progressService ProgressService,
  contentRepo repos.ContentItemRepo,
  quizRepo repos.QuizRepo,
) ContentService {
  serviceLog := baseLog.With("service", "ContentService")
  return &contentService{
    db:              db,
    log:             serviceLog,
    accessService:   accessService,
    progressService: progressService,
    contentRepo:     contentRepo,
    quizRepo:        quizRepo,
  }
}

func validContentType(t string) bool {
  switch t {
  case types.ContentTypeVideo, types.ContentTypeYouTube, types.ContentTypePDF,
    types.ContentTypePPT, types.ContentTypeHTML, types.ContentTypeExternal,
    types.ContentTypeTest:
    return true
  }
  return false
}

func (cs *contentService) CreateItems(ctx context.Context, actor *requestdata.RequestData, courseID uuid.UUID, inputs []CreateContentItemInput) ([]*types.ContentItem, error) {
  if actor == nil || actor.UserID == uuid.Nil {
    return nil, apperr.Unauthenticated("no actor in request")
  }
  if len(inputs) == 0 {
    return nil, apperr.Validation("no content items given")
  }

  decision, err := cs.accessService.ResolveManage(ctx, nil, actor, types.ScopeRef{Kind: types.ScopeCourse, ID: courseID})
  if err != nil {
    return nil, err
  }
  if !decision.Granted {
    return nil, apperr.Forbidden("no permission to add content to this course")
  }

  rows := make([]*types.ContentItem, 0, len(inputs))
  for _, input := range inputs {
    if !validContentType(input.Type) {
      return nil, apperr.Validation("unknown content type " + input.Type)
    }
    if input.Type == types.ContentTypeTest && (input.PassingScore <= 0 || input.PassingScore > 1) {
      return nil, apperr.Validation("TEST items need a passing score within (0,1]")
    }
    required := true
    if input.Required != nil {
      required = *input.Required
    }
    rows = append(rows, &types.ContentItem{
      ID:                  uuid.New(),
      CourseID:            courseID,
      Title:               input.Title,
      Type:                input.Type,
      Position:            input.Position,
      ExternalURL:         input.ExternalURL,
      StorageKey:          input.StorageKey,
      DurationSeconds:     input.DurationSeconds,
      TotalPages:          input.TotalPages,
      CompletionThreshold: input.CompletionThreshold,
      DisallowSeeking:     input.DisallowSeeking,
      Required:            required,
    })
  }

  err = cs.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
    if _, createErr := cs.contentRepo.Create(ctx, tx, rows); createErr != nil {
      return createErr
    }
    for i, input := range inputs {
      if input.Type != types.ContentTypeTest {
        continue
      }
      quiz := &types.Quiz{
        ID:             uuid.New(),
        ContentItemID:  rows[i].ID,
        PassingScore:   input.PassingScore,
        UseBestAttempt: input.UseBestAttempt,
      }
      if _, quizErr := cs.quizRepo.Create(ctx, tx, quiz); quizErr != nil {
        return quizErr
      }
    }
    return nil
  })
  if err != nil {
    return nil, apperr.Map(err)
  }
  return rows, nil
}

func (cs *contentService) AddPrerequisite(ctx context.Context, actor *requestdata.RequestData, itemID, prerequisiteID uuid.UUID) error {
  if actor == nil || actor.UserID == uuid.Nil {
    return apperr.Unauthenticated("no actor in request")
  }
  if itemID == prerequisiteID {
    return apperr.Validation("an item cannot be its own prerequisite")
  }

  item, err := cs.contentRepo.GetByID(ctx, nil, itemID)
  if err != nil {
    return apperr.Map(err)
  }
  prereq, err := cs.contentRepo.GetByID(ctx, nil, prerequisiteID)
  if err != nil {
    return apperr.Map(err)
  }
  if item.CourseID != prereq.CourseID {
    return apperr.Validation("prerequisites must belong to the same course")
  }

  decision, err := cs.accessService.ResolveManage(ctx, nil, actor, types.ScopeRef{Kind: types.ScopeCourse, ID: item.CourseID})
  if err != nil {
    return err
  }
  if !decision.Granted {
    return apperr.Forbidden("no permission to edit this course")
  }

  return cs.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
    cyclic, walkErr := cs.reachable(ctx, tx, prerequisiteID, itemID)
    if walkErr != nil {
      return walkErr
    }
    if cyclic {
      return apperr.Validation("prerequisite edge would create a cycle")
    }
    addErr := cs.contentRepo.AddPrerequisite(ctx, tx, &types.ContentPrerequisite{
      ID:             uuid.New(),
      ContentItemID:  itemID,
      PrerequisiteID: prerequisiteID,
    })
    return apperr.Map(addErr)
  })
}

// reachable walks the prerequisite closure from start looking for goal.
// The graph is per-course and shallow, a plain BFS is plenty.
func (cs *contentService) reachable(ctx context.Context, tx *gorm.DB, start, goal uuid.UUID) (bool, error) {
  visited := map[uuid.UUID]bool{start: true}
  frontier := []uuid.UUID{start}
  for len(frontier) > 0 {
    edges, err := cs.contentRepo.GetPrerequisiteIDsForItems(ctx, tx, frontier)
    if err != nil {
      return false, err
    }
    next := make([]uuid.UUID, 0)
    for _, ids := range edges {
      for _, id := range ids {
        if id == goal {
          return true, nil
        }
        if !visited[id] {
          visited[id] = true
          next = append(next, id)
        }
      }
    }
    frontier = next
  }
  return false, nil
}

func (cs *contentService) ListForCourse(ctx context.Context, actor *requestdata.RequestData, courseID uuid.UUID) ([]*ContentItemView, error) {
  if actor == nil || actor.UserID == uuid.Nil {
    return nil, apperr.Unauthenticated("no actor in request")
  }

  decision, err := cs.accessService.Resolve(ctx, nil, actor, types.ScopeRef{Kind: types.ScopeCourse, ID: courseID})
  if err != nil {
    return nil, err
  }
  if !decision.Granted {
    return nil, apperr.Forbidden("no access to this course")
  }

  items, err := cs.contentRepo.GetByCourseID(ctx, nil, courseID)
  if err != nil {
    return nil, err
  }

  itemIDs := make([]uuid.UUID, 0, len(items))
  for _, item := range items {
    itemIDs = append(itemIDs, item.ID)
  }

  var (
    progressMap map[uuid.UUID]ItemProgress
    prereqMap   map[uuid.UUID][]uuid.UUID
  )
  group, groupCtx := errgroup.WithContext(ctx)
  group.Go(func() error {
    var gErr error
    progressMap, gErr = cs.progressService.ItemProgressFor(groupCtx, nil, actor.UserID, items)
    return gErr
  })
  group.Go(func() error {
    var gErr error
    prereqMap, gErr = cs.contentRepo.GetPrerequisiteIDsForItems(groupCtx, nil, itemIDs)
    return gErr
  })
  if err := group.Wait(); err != nil {
    return nil, err
  }

  views := make([]*ContentItemView, 0, len(items))
  for _, item := range items {
    locked := false
    for _, prereqID := range prereqMap[item.ID] {
      if !progressMap[prereqID].Completed {
        locked = true
        break
      }
    }
    views = append(views, &ContentItemView{
      Item:     item,
      Progress: progressMap[item.ID],
      Locked:   locked,
    })
  }
  return views, nil
}

func (cs *contentService) ResolveBody(ctx context.Context, actor *requestdata.RequestData, itemID uuid.UUID) (*types.ContentItem, error) {
  if actor == nil || actor.UserID == uuid.Nil {
    return nil, apperr.Unauthenticated("no actor in request")
  }

  item, err := cs.contentRepo.GetByID(ctx, nil, itemID)
  if err != nil {
    return nil, apperr.Map(err)
  }

  decision, err := cs.accessService.Resolve(ctx, nil, actor, types.ScopeRef{Kind: types.ScopeContentItem, ID: itemID})
  if err != nil {
    return nil, err
  }
  if !decision.Granted {
    return nil, apperr.Forbidden("no access to this content item")
  }

  unlocked, err := cs.progressService.IsUnlocked(ctx, nil, actor.UserID, item)
  if err != nil {
    return nil, err
  }
  if !unlocked {
    return nil, apperr.Forbidden("prerequisites not met for this content item")
  }
  return item, nil
}
