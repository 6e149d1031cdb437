package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/coursedeck/coursedeck-backend/internal/logger"
	"github.com/coursedeck/coursedeck-backend/internal/requestdata"
	"github.com/coursedeck/coursedeck-backend/internal/services"
)

type LearningPlanHandler struct {
	log         *logger.Logger
	planService services.LearningPlanService
}

func NewLearningPlanHandler(log *logger.Logger, planService services.LearningPlanService) *LearningPlanHandler {
	return &LearningPlanHandler{
		log:         log.With("handler", "LearningPlanHandler"),
		planService: planService,
	}
}

func (h *LearningPlanHandler) Create(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	var input services.CreateLearningPlanInput
	if err := c.ShouldBindJSON(&input); err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}
	plan, err := h.planService.Create(c.Request.Context(), rd, input)
	if err != nil {
		h.log.Warn("Create plan failed", "error", err)
		RespondAppError(c, err)
		return
	}
	RespondCreated(c, gin.H{"plan": plan})
}

func (h *LearningPlanHandler) Get(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}
	view, err := h.planService.Get(c.Request.Context(), rd, id)
	if err != nil {
		RespondAppError(c, err)
		return
	}
	RespondOK(c, view)
}

func (h *LearningPlanHandler) List(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	plans, err := h.planService.List(c.Request.Context(), rd)
	if err != nil {
		h.log.Error("List plans failed", "error", err)
		RespondAppError(c, err)
		return
	}
	RespondOK(c, gin.H{"plans": plans})
}

type addPlanCourseRequest struct {
	CourseID uuid.UUID `json:"course_id" binding:"required"`
	Position int       `json:"position"`
}

func (h *LearningPlanHandler) AddCourse(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	planID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}
	var req addPlanCourseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}
	if err := h.planService.AddCourse(c.Request.Context(), rd, planID, req.CourseID, req.Position); err != nil {
		RespondAppError(c, err)
		return
	}
	RespondCreated(c, gin.H{"status": "added"})
}

func (h *LearningPlanHandler) RemoveCourse(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	planID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}
	courseID, err := uuid.Parse(c.Param("courseId"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}
	if err := h.planService.RemoveCourse(c.Request.Context(), rd, planID, courseID); err != nil {
		RespondAppError(c, err)
		return
	}
	RespondOK(c, gin.H{"status": "removed"})
}
