package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"team_chat/internal/service"
	"team_chat/pkg/logger"
)

type ChannelHandler struct {
	channelService    service.ChannelService
	membershipService service.MembershipService
	log               logger.Logger
}

func NewChannelHandler(channelService service.ChannelService, membershipService service.MembershipService, log logger.Logger) *ChannelHandler {
	return &ChannelHandler{
		channelService:    channelService,
		membershipService: membershipService,
		log:               log,
	}
}

func (h *ChannelHandler) List(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}

	channels, err := h.channelService.List(c.Request.Context(), user)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, channels)
}

type CreateChannelRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
	Kind        string `json:"kind"`
}

func (h *ChannelHandler) Create(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}

	var req CreateChannelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	channel, err := h.channelService.Create(c.Request.Context(), user, req.Name, req.Description, req.Kind)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, channel)
}

func (h *ChannelHandler) Get(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}

	channel, err := h.channelService.Get(c.Request.Context(), user, c.Param("channelId"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, channel)
}

type UpdateChannelRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
	Kind        string `json:"kind"`
}

func (h *ChannelHandler) Update(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}

	var req UpdateChannelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	channel, err := h.channelService.Update(c.Request.Context(), user, c.Param("channelId"), req.Name, req.Description, req.Kind)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, channel)
}

func (h *ChannelHandler) ListDMs(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}

	dms, err := h.channelService.ListDMs(c.Request.Context(), user)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dms)
}

type CreateDMRequest struct {
	TargetUserID string `json:"target_user_id" binding:"required"`
}

func (h *ChannelHandler) CreateDM(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}

	var req CreateDMRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	targetUserID, err := uuid.Parse(req.TargetUserID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid target user ID"})
		return
	}

	dm, err := h.channelService.CreateOrGetDM(c.Request.Context(), user, targetUserID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dm)
}

type AddMemberRequest struct {
	UserID string `json:"user_id" binding:"required"`
}

func (h *ChannelHandler) AddMember(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}

	var req AddMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	memberID, err := uuid.Parse(req.UserID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user ID"})
		return
	}

	if err := h.membershipService.Add(c.Request.Context(), user, c.Param("channelId"), memberID); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *ChannelHandler) RemoveMember(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}

	memberID, err := uuid.Parse(c.Param("userId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user ID"})
		return
	}

	if err := h.membershipService.Remove(c.Request.Context(), user, c.Param("channelId"), memberID); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}
