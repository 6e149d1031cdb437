package services

import (
  "context"
  "fmt"
  "strings"
  "time"

  "github.com/golang-jwt/jwt/v5"
  "github.com/google/uuid"
  "gorm.io/gorm"

  "github.com/coursedeck/coursedeck-backend/internal/apperr"
  "github.com/coursedeck/coursedeck-backend/internal/logger"
  "github.com/coursedeck/coursedeck-backend/internal/repos"
  "github.com/coursedeck/coursedeck-backend/internal/requestdata"
  "github.com/coursedeck/coursedeck-backend/internal/types"
  "github.com/coursedeck/coursedeck-backend/internal/utils"
)

type JWTClaims struct {
  Roles []string `json:"roles"`
  jwt.RegisteredClaims
}

type RegisterUserInput struct {
  Email     string `json:"email" binding:"required"`
  Password  string `json:"password" binding:"required"`
  FirstName string `json:"first_name" binding:"required"`
  LastName  string `json:"last_name" binding:"required"`
}

type AuthService interface {
  RegisterUser(ctx context.Context, input RegisterUserInput) (*types.User, error)
  LoginUser(ctx context.Context, email, password string) (string, string, error)
  RefreshUser(ctx context.Context, refreshToken string) (string, string, error)
  LogoutUser(ctx context.Context) error
  // SetContextFromToken validates the bearer token and attaches the
  // actor (user id + roles) to the context for the rest of the request.
  SetContextFromToken(ctx context.Context, tokenString string) (context.Context, error)
}

type authService struct {
  db            *gorm.DB
  log           *logger.Logger
  userRepo      repos.UserRepo
  userTokenRepo repos.UserTokenRepo
  jwtSecretKey  string
  accessTTL     time.Duration
  refreshTTL    time.Duration
}

func NewAuthService(
  db *gorm.DB,
  baseLog *logger.Logger,
  userRepo repos.UserRepo,
  userTokenRepo repos.UserTokenRepo,
  jwtSecretKey string,
  accessTTL time.Duration,
  refreshTTL time.Duration,
) AuthService {
  serviceLog := baseLog.With("service", "AuthService")
  return &authService{
    db:            db,
    log:           serviceLog,
    userRepo:      userRepo,
    userTokenRepo: userTokenRepo,
    jwtSecretKey:  jwtSecretKey,
    accessTTL:     accessTTL,
    refreshTTL:    refreshTTL,
  }
}

func (as *authService) RegisterUser(ctx context.Context, input RegisterUserInput) (*types.User, error) {
  email := strings.ToLower(strings.TrimSpace(input.Email))
  if email == "" || !strings.Contains(email, "@") {
    return nil, apperr.Validation("a valid email is required")
  }
  if len(input.Password) < 8 {
    return nil, apperr.Validation("password must be at least 8 characters")
  }

  hashed, err := utils.HashPassword(input.Password)
  if err != nil {
    as.log.Warn("Failed to hash password", "error", err)
    return nil, err
  }

  user := &types.User{
    ID:        uuid.New(),
    Email:     email,
    Password:  hashed,
    FirstName: strings.TrimSpace(input.FirstName),
    LastName:  strings.TrimSpace(input.LastName),
    Roles:     types.RolesJSON(types.RoleLearner),
  }
  err = as.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
    _, createErr := as.userRepo.Create(ctx, tx, []*types.User{user})
    return createErr
  })
  if err != nil {
    return nil, apperr.Map(err)
  }
  return user, nil
}

func (as *authService) LoginUser(ctx context.Context, email, password string) (string, string, error) {
  email = strings.ToLower(strings.TrimSpace(email))

  users, err := as.userRepo.GetByEmails(ctx, nil, []string{email})
  if err != nil {
    return "", "", fmt.Errorf("error retrieving user by email: %w", err)
  }
  if len(users) == 0 {
    return "", "", apperr.Unauthenticated("invalid credentials")
  }
  user := users[0]
  if !utils.CheckPassword(user.Password, password) {
    return "", "", apperr.Unauthenticated("invalid credentials")
  }

  var accessToken, refreshToken string
  err = as.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
    tok, genErr := as.generateAccessToken(user)
    if genErr != nil {
      return fmt.Errorf("generate access token: %w", genErr)
    }
    accessToken = tok
    refreshToken = uuid.New().String()
    userToken := &types.UserToken{
      ID:           uuid.New(),
      UserID:       user.ID,
      RefreshToken: refreshToken,
      ExpiresAt:    time.Now().Add(as.refreshTTL),
    }
    _, createErr := as.userTokenRepo.Create(ctx, tx, userToken)
    return createErr
  })
  if err != nil {
    return "", "", err
  }
  return accessToken, refreshToken, nil
}

func (as *authService) RefreshUser(ctx context.Context, refreshToken string) (string, string, error) {
  if refreshToken == "" {
    return "", "", apperr.Unauthenticated("no refresh token given")
  }

  var accessToken, newRefreshToken string
  err := as.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
    existing, getErr := as.userTokenRepo.GetByRefreshToken(ctx, tx, refreshToken)
    if getErr != nil {
      return apperr.Unauthenticated("unknown refresh token")
    }
    if existing.ExpiresAt.Before(time.Now()) {
      if delErr := as.userTokenRepo.FullDeleteByUserIDs(ctx, tx, []uuid.UUID{existing.UserID}); delErr != nil {
        return delErr
      }
      return apperr.Unauthenticated("refresh token expired")
    }
    users, uErr := as.userRepo.GetByIDs(ctx, tx, []uuid.UUID{existing.UserID})
    if uErr != nil {
      return uErr
    }
    if len(users) == 0 {
      return apperr.Unauthenticated("no user for refresh token")
    }
    user := users[0]

    // Rotation: the old refresh token dies with this exchange.
    if delErr := as.userTokenRepo.FullDeleteByUserIDs(ctx, tx, []uuid.UUID{user.ID}); delErr != nil {
      return delErr
    }

    tok, genErr := as.generateAccessToken(user)
    if genErr != nil {
      return fmt.Errorf("generate access token: %w", genErr)
    }
    accessToken = tok
    newRefreshToken = uuid.New().String()
    newUserToken := &types.UserToken{
      ID:           uuid.New(),
      UserID:       user.ID,
      RefreshToken: newRefreshToken,
      ExpiresAt:    time.Now().Add(as.refreshTTL),
    }
    _, createErr := as.userTokenRepo.Create(ctx, tx, newUserToken)
    return createErr
  })
  if err != nil {
    return "", "", err
  }
  return accessToken, newRefreshToken, nil
}

func (as *authService) LogoutUser(ctx context.Context) error {
  rd := requestdata.GetRequestData(ctx)
  if rd == nil || rd.UserID == uuid.Nil {
    return apperr.Unauthenticated("no actor in request")
  }
  return as.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
    return as.userTokenRepo.FullDeleteByUserIDs(ctx, tx, []uuid.UUID{rd.UserID})
  })
}

func (as *authService) generateAccessToken(user *types.User) (string, error) {
  claims := JWTClaims{
    Roles: user.RoleNames(),
    RegisteredClaims: jwt.RegisteredClaims{
      Subject:   user.ID.String(),
      ExpiresAt: jwt.NewNumericDate(time.Now().Add(as.accessTTL)),
      IssuedAt:  jwt.NewNumericDate(time.Now()),
    },
  }
  token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
  return token.SignedString([]byte(as.jwtSecretKey))
}

func (as *authService) SetContextFromToken(ctx context.Context, tokenString string) (context.Context, error) {
  if tokenString == "" {
    return ctx, apperr.Unauthenticated("no bearer token")
  }
  parsedToken, err := jwt.ParseWithClaims(tokenString, &JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
    return []byte(as.jwtSecretKey), nil
  })
  if err != nil {
    return ctx, apperr.Unauthenticated("failed to parse token")
  }
  claims, ok := parsedToken.Claims.(*JWTClaims)
  if !ok || !parsedToken.Valid {
    return ctx, apperr.Unauthenticated("invalid or expired token")
  }
  userID, err := uuid.Parse(claims.Subject)
  if err != nil {
    return ctx, apperr.Unauthenticated("invalid user id in token")
  }
  rd := &requestdata.RequestData{
    TokenString: tokenString,
    UserID:      userID,
    Roles:       claims.Roles,
  }
  return requestdata.WithRequestData(ctx, rd), nil
}
