package db

import (
  "fmt"
  "gorm.io/driver/postgres"
  "gorm.io/gorm"
  "github.com/coursedeck/coursedeck-backend/internal/types"
  "github.com/coursedeck/coursedeck-backend/internal/utils"
  "github.com/coursedeck/coursedeck-backend/internal/logger"
)

type PostgresService struct {
  db *gorm.DB
  log *logger.Logger
}

func NewPostgresService(log *logger.Logger) (*PostgresService, error) {
  serviceLog := log.With("service", "PostgresService")

  log.Info("Loading environment variables...")
  postgresHost := utils.GetEnv("POSTGRES_HOST", "localhost", log)
  postgresPort := utils.GetEnv("POSTGRES_PORT", "5432", log)
  postgresUser := utils.GetEnv("POSTGRES_USER", "postgres", log)
  postgresPassword := utils.GetEnv("POSTGRES_PASSWORD", "", log)
  postgresName := utils.GetEnv("POSTGRES_NAME", "coursedeck", log)
  log.Debug("Environment variables loaded")

  dsn := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable", postgresUser, postgresPassword, postgresHost, postgresPort, postgresName)

  log.Info("Connecting to Postgres...")
  db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
    DisableForeignKeyConstraintWhenMigrating: true,
    TranslateError:                           true,
  })
  if err != nil {
    log.Error("Failed to connect to Postgres", "error", err)
    return nil, fmt.Errorf("Failed to connect to Postgres: %w", err)
  }

  if err := db.Exec(`CREATE EXTENSION IF NOT EXISTS "uuid-ossp";`).Error; err != nil {
    log.Error("Failed to enable uuid-ossp extension", "error", err)
    return nil, fmt.Errorf("Failed to enable uuid-ossp extension: %w", err)
  }
  log.Info("uuid-ossp extension enabled")

  return &PostgresService{db: db, log: serviceLog}, nil
}

func (s *PostgresService) AutoMigrateAll() error {
  s.log.Info("Auto migrating postgres tables...")
  err := s.db.AutoMigrate(
    &types.User{},
    &types.UserToken{},
    &types.Course{},
    &types.LearningPlan{},
    &types.LearningPlanCourse{},
    &types.InstructorAssignment{},
    &types.Group{},
    &types.GroupMembership{},
    &types.GroupAccess{},
    &types.Enrollment{},
    &types.ContentItem{},
    &types.ContentPrerequisite{},
    &types.ProgressRecord{},
    &types.Completion{},
    &types.Quiz{},
    &types.QuizAttempt{},
  )
  if err != nil {
    s.log.Error("Auto migration failed for postgres tables", "error", err)
    return err
  }
  // One enrollment row per (user, course) and per (user, plan). Partial
  // indexes because course_id/learning_plan_id are mutually exclusive
  // nullables.
  if err := s.db.Exec(`
    CREATE UNIQUE INDEX IF NOT EXISTS idx_enrollment_user_course
    ON "enrollment" ("user_id", "course_id")
    WHERE "course_id" IS NOT NULL
  `).Error; err != nil {
    return fmt.Errorf("Failed to create idx_enrollment_user_course: %w", err)
  }
  if err := s.db.Exec(`
    CREATE UNIQUE INDEX IF NOT EXISTS idx_enrollment_user_plan
    ON "enrollment" ("user_id", "learning_plan_id")
    WHERE "learning_plan_id" IS NOT NULL
  `).Error; err != nil {
    return fmt.Errorf("Failed to create idx_enrollment_user_plan: %w", err)
  }
  return nil
}

func (s *PostgresService) DB() *gorm.DB {
  return s.db
}
