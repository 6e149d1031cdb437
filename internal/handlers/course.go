package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/coursedeck/coursedeck-backend/internal/logger"
	"github.com/coursedeck/coursedeck-backend/internal/requestdata"
	"github.com/coursedeck/coursedeck-backend/internal/services"
	"github.com/coursedeck/coursedeck-backend/internal/types"
)

type CourseHandler struct {
	log           *logger.Logger
	courseService services.CourseService
}

func NewCourseHandler(log *logger.Logger, courseService services.CourseService) *CourseHandler {
	return &CourseHandler{
		log:           log.With("handler", "CourseHandler"),
		courseService: courseService,
	}
}

func (h *CourseHandler) Create(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	var input services.CreateCourseInput
	if err := c.ShouldBindJSON(&input); err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}
	course, err := h.courseService.Create(c.Request.Context(), rd, input)
	if err != nil {
		h.log.Warn("Create course failed", "error", err)
		RespondAppError(c, err)
		return
	}
	RespondCreated(c, gin.H{"course": course})
}

func (h *CourseHandler) Get(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}
	view, err := h.courseService.Get(c.Request.Context(), rd, id)
	if err != nil {
		RespondAppError(c, err)
		return
	}
	RespondOK(c, view)
}

func (h *CourseHandler) List(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	courses, err := h.courseService.List(c.Request.Context(), rd)
	if err != nil {
		h.log.Error("List courses failed", "error", err)
		RespondAppError(c, err)
		return
	}
	RespondOK(c, gin.H{"courses": courses})
}

func (h *CourseHandler) Update(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}
	var updates map[string]any
	if err := c.ShouldBindJSON(&updates); err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}
	if err := h.courseService.Update(c.Request.Context(), rd, id, updates); err != nil {
		RespondAppError(c, err)
		return
	}
	RespondOK(c, gin.H{"status": "updated"})
}

type assignInstructorRequest struct {
	UserID         uuid.UUID  `json:"user_id" binding:"required"`
	CourseID       *uuid.UUID `json:"course_id"`
	LearningPlanID *uuid.UUID `json:"learning_plan_id"`
}

func (h *CourseHandler) AssignInstructor(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	var req assignInstructorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}
	var ref types.ScopeRef
	switch {
	case req.CourseID != nil:
		ref = types.ScopeRef{Kind: types.ScopeCourse, ID: *req.CourseID}
	case req.LearningPlanID != nil:
		ref = types.ScopeRef{Kind: types.ScopeLearningPlan, ID: *req.LearningPlanID}
	default:
		RespondError(c, http.StatusBadRequest, "bad_request", nil)
		return
	}
	if err := h.courseService.AssignInstructor(c.Request.Context(), rd, req.UserID, ref); err != nil {
		RespondAppError(c, err)
		return
	}
	RespondCreated(c, gin.H{"status": "assigned"})
}
