package handlers

import (
	nethttp "net/http"
	"strconv"

	"github.com/dhanasekaranr/screensync/internal/domain/entity"
	"github.com/dhanasekaranr/screensync/internal/transport/http/response"
	"github.com/gin-gonic/gin"
)

type menuItemRequest struct {
	ScreenID int64  `json:"screen_id" binding:"required"`
	Label    string `json:"label" binding:"required"`
	Icon     string `json:"icon"`
	Position int    `json:"position"`
}

func (req menuItemRequest) toEntity() entity.MenuItem {
	return entity.MenuItem{
		ScreenID: req.ScreenID,
		Label:    req.Label,
		Icon:     req.Icon,
		Position: req.Position,
	}
}

func (h *Handler) createMenuItem(c *gin.Context) {
	var req menuItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, nethttp.StatusBadRequest, err.Error())
		return
	}

	item, err := h.menus.Create(c.Request.Context(), req.toEntity())
	if err != nil {
		response.RespondError(c, nethttp.StatusInternalServerError, "create failed")
		return
	}
	response.RespondOK(c, nethttp.StatusCreated, item, nil)
}

func (h *Handler) getMenuItem(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		response.RespondError(c, nethttp.StatusBadRequest, "invalid id")
		return
	}

	item, err := h.menus.GetByID(c.Request.Context(), id)
	if err != nil {
		response.RespondError(c, nethttp.StatusNotFound, "not found")
		return
	}
	response.RespondOK(c, nethttp.StatusOK, item, nil)
}

func (h *Handler) updateMenuItem(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		response.RespondError(c, nethttp.StatusBadRequest, "invalid id")
		return
	}
	var req menuItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, nethttp.StatusBadRequest, err.Error())
		return
	}

	item, err := h.menus.Update(c.Request.Context(), id, req.toEntity())
	if err != nil {
		response.RespondError(c, nethttp.StatusInternalServerError, "update failed")
		return
	}
	response.RespondOK(c, nethttp.StatusOK, item, nil)
}

func (h *Handler) deleteMenuItem(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		response.RespondError(c, nethttp.StatusBadRequest, "invalid id")
		return
	}

	if err := h.menus.DeleteByID(c.Request.Context(), id); err != nil {
		response.RespondError(c, nethttp.StatusInternalServerError, "delete failed")
		return
	}
	response.RespondOK(c, nethttp.StatusOK, gin.H{"status": "deleted"}, nil)
}

func (h *Handler) listMenuItems(c *gin.Context) {
	screenID, err := strconv.ParseInt(c.Query("screen_id"), 10, 64)
	if err != nil || screenID <= 0 {
		response.RespondError(c, nethttp.StatusBadRequest, "screen_id is required")
		return
	}

	items, err := h.menus.ListByScreen(c.Request.Context(), screenID)
	if err != nil {
		response.RespondError(c, nethttp.StatusInternalServerError, "list failed")
		return
	}
	response.RespondOK(c, nethttp.StatusOK, items, nil)
}
