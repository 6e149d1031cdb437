package main

import (
  "context"
  "fmt"
  "os"
  "strings"
  "time"

  "github.com/coursedeck/coursedeck-backend/internal/clients/redis"
  "github.com/coursedeck/coursedeck-backend/internal/db"
  "github.com/coursedeck/coursedeck-backend/internal/handlers"
  "github.com/coursedeck/coursedeck-backend/internal/logger"
  "github.com/coursedeck/coursedeck-backend/internal/middleware"
  "github.com/coursedeck/coursedeck-backend/internal/observability"
  "github.com/coursedeck/coursedeck-backend/internal/repos"
  "github.com/coursedeck/coursedeck-backend/internal/server"
  "github.com/coursedeck/coursedeck-backend/internal/services"
  "github.com/coursedeck/coursedeck-backend/internal/utils"
)

func main() {
  // Logger
  logMode := os.Getenv("LOG_MODE")
  if logMode == "" {
    logMode = "development"
  }
  log, err := logger.New(logMode)
  if err != nil {
    fmt.Printf("Failed to init logger: %v\n", err)
    os.Exit(1)
  }
  defer log.Sync()

  // Env
  log.Info("Loading environment variables from main...")
  jwtSecretKey := utils.GetEnv("JWT_SECRET_KEY", "defaultsecret", log)
  accessTokenTTL := utils.GetEnvAsInt("ACCESS_TOKEN_TTL", 3600, log)
  refreshTokenTTL := utils.GetEnvAsInt("REFRESH_TOKEN_TTL", 86400, log)
  allowOrigins := utils.GetEnv("CORS_ALLOW_ORIGINS", "http://localhost:3000", log)

  // Tracing
  otelShutdown := observability.InitOTel(context.Background(), log, observability.OtelConfig{
    ServiceName: "coursedeck-backend",
    Environment: utils.GetEnv("ENVIRONMENT", "development", log),
    Version:     utils.GetEnv("SERVICE_VERSION", "dev", log),
  })
  if otelShutdown != nil {
    defer func() {
      shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
      defer cancel()
      _ = otelShutdown(shutdownCtx)
    }()
  }

  // Postgres
  postgresService, err := db.NewPostgresService(log)
  if err != nil {
    log.Error("Postgres init failed", "error", err)
    os.Exit(1)
  }
  if err = postgresService.AutoMigrateAll(); err != nil {
    log.Warn("Postgres auto migration failed", "error", err)
  }
  thePG := postgresService.DB()

  // Redis
  groupCache, err := redis.NewGroupCache(log)
  if err != nil {
    log.Warn("Redis init failed, group lookups go straight to postgres", "error", err)
    groupCache = nil
  }

  // Repos
  log.Info("Setting up Repos from main...")
  userRepo := repos.NewUserRepo(thePG, log)
  userTokenRepo := repos.NewUserTokenRepo(thePG, log)
  courseRepo := repos.NewCourseRepo(thePG, log)
  planRepo := repos.NewLearningPlanRepo(thePG, log)
  contentRepo := repos.NewContentItemRepo(thePG, log)
  assignmentRepo := repos.NewInstructorAssignmentRepo(thePG, log)
  groupRepo := repos.NewGroupRepo(thePG, log)
  enrollmentRepo := repos.NewEnrollmentRepo(thePG, log)
  progressRepo := repos.NewProgressRepo(thePG, log)
  completionRepo := repos.NewCompletionRepo(thePG, log)
  quizRepo := repos.NewQuizRepo(thePG, log)

  // Services
  log.Info("Setting up Services from main...")
  authService := services.NewAuthService(thePG, log, userRepo, userTokenRepo, jwtSecretKey, time.Duration(accessTokenTTL)*time.Second, time.Duration(refreshTokenTTL)*time.Second)
  accessService := services.NewAccessService(thePG, log, courseRepo, planRepo, contentRepo, assignmentRepo, enrollmentRepo, groupRepo, groupCache)
  enrollmentService := services.NewEnrollmentService(thePG, log, accessService, enrollmentRepo, courseRepo, planRepo, contentRepo, progressRepo, userRepo)
  progressService := services.NewProgressService(thePG, log, accessService, enrollmentService, contentRepo, progressRepo, completionRepo, quizRepo, planRepo)
  contentService := services.NewContentService(thePG, log, accessService, progressService, contentRepo, quizRepo)
  courseService := services.NewCourseService(thePG, log, accessService, progressService, courseRepo, assignmentRepo)
  planService := services.NewLearningPlanService(thePG, log, accessService, progressService, planRepo, courseRepo)
  groupService := services.NewGroupService(thePG, log, accessService, groupRepo, groupCache)

  // Handlers
  log.Info("Setting up handlers from main...")
  authHandler := handlers.NewAuthHandler(log, authService)
  accessHandler := handlers.NewAccessHandler(log, accessService)
  courseHandler := handlers.NewCourseHandler(log, courseService)
  planHandler := handlers.NewLearningPlanHandler(log, planService)
  contentHandler := handlers.NewContentHandler(log, contentService)
  enrollmentHandler := handlers.NewEnrollmentHandler(log, enrollmentService)
  progressHandler := handlers.NewProgressHandler(log, progressService)
  groupHandler := handlers.NewGroupHandler(log, groupService)

  // Middleware
  log.Info("Setting up middleware from main...")
  authMiddleware := middleware.NewAuthMiddleware(log, authService)

  // Router
  log.Info("Setting up router from main...")
  router := server.NewRouter(server.RouterConfig{
    ServiceName:       "coursedeck-backend",
    AllowOrigins:      strings.Split(allowOrigins, ","),
    AuthMiddleware:    authMiddleware,
    AuthHandler:       authHandler,
    AccessHandler:     accessHandler,
    CourseHandler:     courseHandler,
    PlanHandler:       planHandler,
    ContentHandler:    contentHandler,
    EnrollmentHandler: enrollmentHandler,
    ProgressHandler:   progressHandler,
    GroupHandler:      groupHandler,
  })

  port := utils.GetEnv("PORT", "8080", log)
  fmt.Printf("Server listening on :%s\n", port)
  if err := router.Run(":" + port); err != nil {
    log.Warn("Server failed", "error", err)
  }
}
