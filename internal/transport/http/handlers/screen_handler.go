package handlers

import (
	"context"
	"encoding/json"
	"errors"
	nethttp "net/http"
	"strconv"

	"github.com/dhanasekaranr/screensync/internal/domain/entity"
	"github.com/dhanasekaranr/screensync/internal/domain/repository"
	"github.com/dhanasekaranr/screensync/internal/domain/service"
	"github.com/dhanasekaranr/screensync/internal/transport/http/middleware"
	"github.com/dhanasekaranr/screensync/internal/transport/http/response"
	"github.com/gin-gonic/gin"
	"gorm.io/datatypes"
)

// ScreenReplicaReader reads a screen from the router-resolved database, used
// when the request carries a routing hint for the secondary.
type ScreenReplicaReader interface {
	Get(ctx context.Context, target string, id int64) (entity.ScreenDefinition, bool, error)
}

type Handler struct {
	screens  service.ScreenService
	menus    service.MenuItemService
	replicas ScreenReplicaReader
	store    repository.Store
}

func NewHandler(screens service.ScreenService, menus service.MenuItemService, replicas ScreenReplicaReader, store repository.Store) *Handler {
	return &Handler{
		screens:  screens,
		menus:    menus,
		replicas: replicas,
		store:    store,
	}
}

type screenRequest struct {
	Name         string          `json:"name" binding:"required"`
	Route        string          `json:"route" binding:"required"`
	Layout       json.RawMessage `json:"layout"`
	DisplayOrder int             `json:"display_order"`
}

func (req screenRequest) toEntity() entity.ScreenDefinition {
	return entity.ScreenDefinition{
		Name:         req.Name,
		Route:        req.Route,
		Layout:       datatypes.JSON(req.Layout),
		DisplayOrder: req.DisplayOrder,
	}
}

func (h *Handler) createScreen(c *gin.Context) {
	var req screenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, nethttp.StatusBadRequest, err.Error())
		return
	}

	idempotencyKey := c.GetString(middleware.IdempotencyKeyCtx)
	requestHash := c.GetString(middleware.IdempotencyHashCtx)

	screen, alreadyExist, err := h.screens.Create(c.Request.Context(), req.toEntity(), idempotencyKey, requestHash)
	if err != nil {
		if errors.Is(err, repository.ErrIdempotencyKeyConflict) {
			response.RespondError(c, nethttp.StatusConflict, "idempotency key conflicts with request")
			return
		}
		response.RespondError(c, nethttp.StatusInternalServerError, "create failed")
		return
	}
	if alreadyExist {
		response.RespondOK(c, nethttp.StatusOK, screen, nil)
		return
	}
	response.RespondOK(c, nethttp.StatusCreated, screen, nil)
}

func (h *Handler) getScreen(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		response.RespondError(c, nethttp.StatusBadRequest, "invalid id")
		return
	}

	// A secondary hint reads through the database router, letting operators
	// verify what has replicated.
	if hint := middleware.Hint(c); hint == "secondary" {
		screen, found, err := h.replicas.Get(c.Request.Context(), hint, id)
		if err != nil {
			response.RespondError(c, nethttp.StatusInternalServerError, "read failed")
			return
		}
		if !found {
			response.RespondError(c, nethttp.StatusNotFound, "not found")
			return
		}
		response.RespondOK(c, nethttp.StatusOK, screen, &response.Meta{SourceDB: hint})
		return
	}

	screen, err := h.screens.GetByID(c.Request.Context(), id)
	if err != nil {
		response.RespondError(c, nethttp.StatusNotFound, "not found")
		return
	}
	response.RespondOK(c, nethttp.StatusOK, screen, nil)
}

func (h *Handler) updateScreen(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		response.RespondError(c, nethttp.StatusBadRequest, "invalid id")
		return
	}
	var req screenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, nethttp.StatusBadRequest, err.Error())
		return
	}

	screen, err := h.screens.Update(c.Request.Context(), id, req.toEntity())
	if err != nil {
		response.RespondError(c, nethttp.StatusInternalServerError, "update failed")
		return
	}
	response.RespondOK(c, nethttp.StatusOK, screen, nil)
}

func (h *Handler) deleteScreen(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		response.RespondError(c, nethttp.StatusBadRequest, "invalid id")
		return
	}

	if err := h.screens.DeleteByID(c.Request.Context(), id); err != nil {
		response.RespondError(c, nethttp.StatusInternalServerError, "delete failed")
		return
	}
	response.RespondOK(c, nethttp.StatusOK, gin.H{"status": "deleted"}, nil)
}

func (h *Handler) listScreens(c *gin.Context) {
	limit, _ := strconv.Atoi(c.Query("limit"))
	cursor := c.Query("cursor")

	screens, nextCursor, err := h.screens.List(c.Request.Context(), limit, cursor)
	if err != nil {
		if errors.Is(err, repository.ErrInvalidCursor) {
			response.RespondError(c, nethttp.StatusBadRequest, "invalid cursor")
			return
		}
		response.RespondError(c, nethttp.StatusInternalServerError, "list failed")
		return
	}
	meta := &response.Meta{NextCursor: nextCursor}
	response.RespondOK(c, nethttp.StatusOK, screens, meta)
}

func (h *Handler) health(c *gin.Context) {
	if err := h.store.Ping(c.Request.Context()); err != nil {
		response.RespondOK(c, nethttp.StatusServiceUnavailable, gin.H{"status": "down"}, nil)
		return
	}
	response.RespondOK(c, nethttp.StatusOK, gin.H{"status": "ok"}, nil)
}
