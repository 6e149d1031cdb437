package server

import (
  "github.com/gin-contrib/cors"
  "github.com/gin-gonic/gin"
  "go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

  "github.com/coursedeck/coursedeck-backend/internal/handlers"
  "github.com/coursedeck/coursedeck-backend/internal/middleware"
)

type RouterConfig struct {
  ServiceName       string
  AllowOrigins      []string
  AuthMiddleware    *middleware.AuthMiddleware
  AuthHandler       *handlers.AuthHandler
  AccessHandler     *handlers.AccessHandler
  CourseHandler     *handlers.CourseHandler
  PlanHandler       *handlers.LearningPlanHandler
  ContentHandler    *handlers.ContentHandler
  EnrollmentHandler *handlers.EnrollmentHandler
  ProgressHandler   *handlers.ProgressHandler
  GroupHandler      *handlers.GroupHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
  router := gin.Default()
  router.Use(otelgin.Middleware(cfg.ServiceName))

  origins := cfg.AllowOrigins
  if len(origins) == 0 {
    origins = []string{"http://localhost:3000"}
  }
  router.Use(cors.New(cors.Config{
    AllowOrigins:     origins,
    AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
    AllowHeaders:     []string{"Authorization", "Content-Type", "X-Requested-With"},
    AllowCredentials: true,
  }))

// ===============
// || Public    ||
// ===============
  router.GET("/healthcheck", handlers.HealthCheck)
  router.POST("/register", cfg.AuthHandler.Register)
  router.POST("/login", cfg.AuthHandler.Login)
  router.POST("/refresh", cfg.AuthHandler.Refresh)

// ===============
// || Protected ||
// ===============
  protected := router.Group("/")
  protected.Use(cfg.AuthMiddleware.RequireAuth())
  // Auth
  protected.POST("/logout", cfg.AuthHandler.Logout)
  // Access decisions
  protected.GET("/access", cfg.AccessHandler.Check)
  // Courses
  protected.POST("/courses", cfg.CourseHandler.Create)
  protected.GET("/courses", cfg.CourseHandler.List)
  protected.GET("/courses/:id", cfg.CourseHandler.Get)
  protected.PATCH("/courses/:id", cfg.CourseHandler.Update)
  protected.GET("/courses/:id/progress", cfg.ProgressHandler.CourseProgress)
  protected.GET("/courses/:id/enrollments", cfg.EnrollmentHandler.ListForCourse)
  protected.POST("/courses/:id/items", cfg.ContentHandler.Create)
  protected.GET("/courses/:id/items", cfg.ContentHandler.ListForCourse)
  // Learning plans
  protected.POST("/plans", cfg.PlanHandler.Create)
  protected.GET("/plans", cfg.PlanHandler.List)
  protected.GET("/plans/:id", cfg.PlanHandler.Get)
  protected.POST("/plans/:id/courses", cfg.PlanHandler.AddCourse)
  protected.DELETE("/plans/:id/courses/:courseId", cfg.PlanHandler.RemoveCourse)
  protected.GET("/plans/:id/progress", cfg.ProgressHandler.PlanProgress)
  protected.GET("/plans/:id/enrollments", cfg.EnrollmentHandler.ListForPlan)
  // Content items
  protected.GET("/items/:id/body", cfg.ContentHandler.Body)
  protected.POST("/items/:id/prerequisites", cfg.ContentHandler.AddPrerequisite)
  protected.POST("/items/:id/progress", cfg.ProgressHandler.Record)
  protected.POST("/items/:id/attempts", cfg.ProgressHandler.RecordQuizAttempt)
  protected.POST("/items/:id/complete", cfg.ProgressHandler.CompleteItem)
  // Enrollments
  protected.POST("/enrollments", cfg.EnrollmentHandler.Create)
  protected.POST("/enrollments/:id/approve", cfg.EnrollmentHandler.Approve)
  protected.POST("/enrollments/:id/drop", cfg.EnrollmentHandler.Drop)
  protected.DELETE("/enrollments/:id", cfg.EnrollmentHandler.Delete)
  // Instructor assignment
  protected.POST("/instructors", cfg.CourseHandler.AssignInstructor)
  // Groups
  protected.POST("/groups", cfg.GroupHandler.Create)
  protected.POST("/groups/:id/members", cfg.GroupHandler.AddMember)
  protected.DELETE("/groups/:id/members/:userId", cfg.GroupHandler.RemoveMember)
  protected.POST("/groups/:id/access", cfg.GroupHandler.GrantAccess)

  return router
}
