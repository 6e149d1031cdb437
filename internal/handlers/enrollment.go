package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/coursedeck/coursedeck-backend/internal/logger"
	"github.com/coursedeck/coursedeck-backend/internal/requestdata"
	"github.com/coursedeck/coursedeck-backend/internal/services"
	"github.com/coursedeck/coursedeck-backend/internal/types"
)

type EnrollmentHandler struct {
	log               *logger.Logger
	enrollmentService services.EnrollmentService
}

func NewEnrollmentHandler(log *logger.Logger, enrollmentService services.EnrollmentService) *EnrollmentHandler {
	return &EnrollmentHandler{
		log:               log.With("handler", "EnrollmentHandler"),
		enrollmentService: enrollmentService,
	}
}

type createEnrollmentRequest struct {
	UserID         *uuid.UUID `json:"user_id"`
	CourseID       *uuid.UUID `json:"course_id"`
	LearningPlanID *uuid.UUID `json:"learning_plan_id"`
	Mode           string     `json:"mode"`
	DueDate        *time.Time `json:"due_date"`
}

func (h *EnrollmentHandler) Create(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	var req createEnrollmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}
	input := services.CreateEnrollmentInput{
		CourseID:       req.CourseID,
		LearningPlanID: req.LearningPlanID,
		Mode:           req.Mode,
		DueDate:        req.DueDate,
	}
	if req.UserID != nil {
		input.UserID = *req.UserID
	}
	enrollment, err := h.enrollmentService.Create(c.Request.Context(), rd, input)
	if err != nil {
		h.log.Warn("Create enrollment failed", "error", err)
		RespondAppError(c, err)
		return
	}
	RespondCreated(c, gin.H{"enrollment": enrollment})
}

func (h *EnrollmentHandler) Approve(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}
	enrollment, err := h.enrollmentService.Approve(c.Request.Context(), rd, id)
	if err != nil {
		RespondAppError(c, err)
		return
	}
	RespondOK(c, gin.H{"enrollment": enrollment})
}

func (h *EnrollmentHandler) Drop(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}
	if err := h.enrollmentService.Drop(c.Request.Context(), rd, id); err != nil {
		RespondAppError(c, err)
		return
	}
	RespondOK(c, gin.H{"status": "dropped"})
}

func (h *EnrollmentHandler) Delete(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}
	if err := h.enrollmentService.Delete(c.Request.Context(), rd, id); err != nil {
		RespondAppError(c, err)
		return
	}
	RespondOK(c, gin.H{"status": "deleted"})
}

func (h *EnrollmentHandler) ListForCourse(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	courseID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}
	rows, err := h.enrollmentService.ListForScope(c.Request.Context(), rd, types.ScopeRef{Kind: types.ScopeCourse, ID: courseID})
	if err != nil {
		RespondAppError(c, err)
		return
	}
	RespondOK(c, gin.H{"enrollments": rows})
}

func (h *EnrollmentHandler) ListForPlan(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	planID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}
	rows, err := h.enrollmentService.ListForScope(c.Request.Context(), rd, types.ScopeRef{Kind: types.ScopeLearningPlan, ID: planID})
	if err != nil {
		RespondAppError(c, err)
		return
	}
	RespondOK(c, gin.H{"enrollments": rows})
}
