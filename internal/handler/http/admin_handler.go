package http

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/AhmetDemiroglu/GGHub-sub001/internal/domain/errors"
	"github.com/AhmetDemiroglu/GGHub-sub001/internal/domain/models"
	"github.com/AhmetDemiroglu/GGHub-sub001/internal/service"
)

// AdminHandler serves the /admin endpoints. The router guards them with the
// admin role middleware.
type AdminHandler struct {
	admin *service.AdminService
	log   *zap.Logger
}

// NewAdminHandler wires the admin handler.
func NewAdminHandler(admin *service.AdminService, log *zap.Logger) *AdminHandler {
	return &AdminHandler{admin: admin, log: log}
}

// ListUsers handles GET /admin/users.
func (h *AdminHandler) ListUsers(c *gin.Context) {
	params := models.ListUsersParams{
		Status:           models.UserStatus(c.Query("status")),
		UsernameContains: c.Query("username"),
		EmailContains:    c.Query("email"),
	}
	params.Page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	params.PageSize, _ = strconv.Atoi(c.DefaultQuery("page_size", "20"))

	resp, err := h.admin.ListUsers(c.Request.Context(), params)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// BlockUser handles POST /admin/users/:id/block.
func (h *AdminHandler) BlockUser(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, h.log, errors.ErrInvalidRequest)
		return
	}

	if err := h.admin.BlockUser(c.Request.Context(), id); err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, MessageResponse{Message: "user blocked"})
}

// UnblockUser handles POST /admin/users/:id/unblock.
func (h *AdminHandler) UnblockUser(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, h.log, errors.ErrInvalidRequest)
		return
	}

	if err := h.admin.UnblockUser(c.Request.Context(), id); err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, MessageResponse{Message: "user unblocked"})
}
