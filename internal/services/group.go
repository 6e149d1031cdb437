package services

import (
  "context"

  "github.com/google/uuid"
  "gorm.io/gorm"

  "github.com/coursedeck/coursedeck-backend/internal/apperr"
  "github.com/coursedeck/coursedeck-backend/internal/clients/redis"
  "github.com/coursedeck/coursedeck-backend/internal/logger"
  "github.com/coursedeck/coursedeck-backend/internal/repos"
  "github.com/coursedeck/coursedeck-backend/internal/requestdata"
  "github.com/coursedeck/coursedeck-backend/internal/types"
)

// GroupService manages groups, their membership, and group-level access
// grants. Membership mutations invalidate the per-user cache so the
// change lands within the cache's staleness window at worst.
type GroupService interface {
  Create(ctx context.Context, actor *requestdata.RequestData, name string) (*types.Group, error)
  AddMember(ctx context.Context, actor *requestdata.RequestData, groupID, userID uuid.UUID) error
  RemoveMember(ctx context.Context, actor *requestdata.RequestData, groupID, userID uuid.UUID) error
  GrantAccess(ctx context.Context, actor *requestdata.RequestData, groupID uuid.UUID, ref types.ScopeRef) error
}

type groupService struct {
  db            *gorm.DB
  log           *logger.Logger
  accessService AccessService
  groupRepo     repos.GroupRepo
  groupCache    redis.GroupCache
}

func NewGroupService(
  db *gorm.DB,
  baseLog *logger.Logger,
  accessService AccessService,
  groupRepo repos.GroupRepo,
  groupCache redis.GroupCache,
) GroupService {
  serviceLog := baseLog.With("service", "GroupService")
  return &groupService{
    db:            db,
    log:           serviceLog,
    accessService: accessService,
    groupRepo:     groupRepo,
    groupCache:    groupCache,
  }
}

func (gs *groupService) Create(ctx context.Context, actor *requestdata.RequestData, name string) (*types.Group, error) {
  if actor == nil || actor.UserID == uuid.Nil {
    return nil, apperr.Unauthenticated("no actor in request")
  }
  if name == "" {
    return nil, apperr.Validation("group name is required")
  }
  if !actor.HasRole(types.RoleAdmin) && !actor.HasRole(types.RoleInstructor) {
    return nil, apperr.Forbidden("only instructors can create groups")
  }

  group := &types.Group{
    ID:        uuid.New(),
    Name:      name,
    CreatorID: actor.UserID,
  }
  if _, err := gs.groupRepo.Create(ctx, nil, group); err != nil {
    return nil, apperr.Map(err)
  }
  return group, nil
}

// canManageGroup: group mutations belong to the group's creator and to
// admins. Group management is not scope management, so this check stays
// local instead of going through the resolver.
func (gs *groupService) canManageGroup(ctx context.Context, actor *requestdata.RequestData, groupID uuid.UUID) error {
  group, err := gs.groupRepo.GetByID(ctx, nil, groupID)
  if err != nil {
    return apperr.Map(err)
  }
  if actor.HasRole(types.RoleAdmin) || group.CreatorID == actor.UserID {
    return nil
  }
  return apperr.Forbidden("no permission to manage this group")
}

func (gs *groupService) AddMember(ctx context.Context, actor *requestdata.RequestData, groupID, userID uuid.UUID) error {
  if actor == nil || actor.UserID == uuid.Nil {
    return apperr.Unauthenticated("no actor in request")
  }
  if err := gs.canManageGroup(ctx, actor, groupID); err != nil {
    return err
  }

  err := gs.groupRepo.AddMember(ctx, nil, &types.GroupMembership{
    ID:      uuid.New(),
    GroupID: groupID,
    UserID:  userID,
  })
  if err != nil {
    return apperr.Map(err)
  }
  if gs.groupCache != nil {
    gs.groupCache.Invalidate(ctx, userID)
  }
  return nil
}

func (gs *groupService) RemoveMember(ctx context.Context, actor *requestdata.RequestData, groupID, userID uuid.UUID) error {
  if actor == nil || actor.UserID == uuid.Nil {
    return apperr.Unauthenticated("no actor in request")
  }
  if err := gs.canManageGroup(ctx, actor, groupID); err != nil {
    return err
  }

  if err := gs.groupRepo.RemoveMember(ctx, nil, groupID, userID); err != nil {
    return apperr.Map(err)
  }
  if gs.groupCache != nil {
    gs.groupCache.Invalidate(ctx, userID)
  }
  return nil
}

func (gs *groupService) GrantAccess(ctx context.Context, actor *requestdata.RequestData, groupID uuid.UUID, ref types.ScopeRef) error {
  if actor == nil || actor.UserID == uuid.Nil {
    return apperr.Unauthenticated("no actor in request")
  }
  if ref.Kind == types.ScopeContentItem {
    return apperr.Validation("group access is granted on courses or plans")
  }

  // The grantor needs manage rights on the target scope, not on the
  // group itself.
  decision, err := gs.accessService.ResolveManage(ctx, nil, actor, ref)
  if err != nil {
    return err
  }
  if !decision.Granted {
    return apperr.Forbidden("no permission to grant access to this scope")
  }
  if _, err := gs.groupRepo.GetByID(ctx, nil, groupID); err != nil {
    return apperr.Map(err)
  }

  grant := &types.GroupAccess{
    ID:      uuid.New(),
    GroupID: groupID,
  }
  if ref.Kind == types.ScopeCourse {
    grant.CourseID = &ref.ID
  } else {
    grant.LearningPlanID = &ref.ID
  }
  return apperr.Map(gs.groupRepo.GrantAccess(ctx, nil, grant))
}
