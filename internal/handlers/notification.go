package handlers

import (
	"net/http"

	"cityideas/internal/middleware"
	"cityideas/internal/services"
	"cityideas/internal/utils"

	"github.com/gin-gonic/gin"
)

type NotificationHandler struct {
	notifications *services.NotificationService
}

func NewNotificationHandler(notifications *services.NotificationService) *NotificationHandler {
	return &NotificationHandler{notifications: notifications}
}

func (h *NotificationHandler) List(c *gin.Context) {
	notifications, err := h.notifications.List(c.Request.Context(), middleware.CurrentIdentity(c), 50)
	if err != nil {
		handleError(c, err)
		return
	}
	Render(c, http.StatusOK, "notification/list.html", gin.H{
		"Title":         "Уведомления",
		"Notifications": notifications,
	})
}

// Read answers HTMX with an empty 200; the client restyles the row.
func (h *NotificationHandler) Read(c *gin.Context) {
	id, ok := utils.ParseID(c.Param("id"))
	if !ok {
		c.Status(http.StatusNotFound)
		return
	}
	if err := h.notifications.MarkRead(c.Request.Context(), middleware.CurrentIdentity(c), id); err != nil {
		c.Status(failureStatus(c, err))
		return
	}
	if c.GetHeader("HX-Request") == "true" {
		c.Status(http.StatusOK)
		return
	}
	c.Redirect(http.StatusFound, "/notifications")
}

// Delete returns an empty body so HTMX removes the row.
func (h *NotificationHandler) Delete(c *gin.Context) {
	id, ok := utils.ParseID(c.Param("id"))
	if !ok {
		c.Status(http.StatusNotFound)
		return
	}
	if err := h.notifications.Delete(c.Request.Context(), middleware.CurrentIdentity(c), id); err != nil {
		c.Status(failureStatus(c, err))
		return
	}
	c.Status(http.StatusOK)
}

func (h *NotificationHandler) ReadAll(c *gin.Context) {
	if _, err := h.notifications.MarkAllRead(c.Request.Context(), middleware.CurrentIdentity(c)); err != nil {
		handleError(c, err)
		return
	}
	c.Redirect(http.StatusFound, "/notifications")
}
