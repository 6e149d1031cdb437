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

type GroupHandler struct {
	log          *logger.Logger
	groupService services.GroupService
}

func NewGroupHandler(log *logger.Logger, groupService services.GroupService) *GroupHandler {
	return &GroupHandler{
		log:          log.With("handler", "GroupHandler"),
		groupService: groupService,
	}
}

type createGroupRequest struct {
	Name string `json:"name" binding:"required"`
}

func (h *GroupHandler) Create(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	var req createGroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}
	group, err := h.groupService.Create(c.Request.Context(), rd, req.Name)
	if err != nil {
		RespondAppError(c, err)
		return
	}
	RespondCreated(c, gin.H{"group": group})
}

type groupMemberRequest struct {
	UserID uuid.UUID `json:"user_id" binding:"required"`
}

func (h *GroupHandler) AddMember(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	groupID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}
	var req groupMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}
	if err := h.groupService.AddMember(c.Request.Context(), rd, groupID, req.UserID); err != nil {
		RespondAppError(c, err)
		return
	}
	RespondCreated(c, gin.H{"status": "added"})
}

func (h *GroupHandler) RemoveMember(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	groupID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}
	userID, err := uuid.Parse(c.Param("userId"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}
	if err := h.groupService.RemoveMember(c.Request.Context(), rd, groupID, userID); err != nil {
		RespondAppError(c, err)
		return
	}
	RespondOK(c, gin.H{"status": "removed"})
}

type grantAccessRequest struct {
	CourseID       *uuid.UUID `json:"course_id"`
	LearningPlanID *uuid.UUID `json:"learning_plan_id"`
}

func (h *GroupHandler) GrantAccess(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	groupID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}
	var req grantAccessRequest
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
	if err := h.groupService.GrantAccess(c.Request.Context(), rd, groupID, ref); err != nil {
		RespondAppError(c, err)
		return
	}
	RespondCreated(c, gin.H{"status": "granted"})
}
