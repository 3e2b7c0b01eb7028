package handlers

import (
	"net/http"

	"cityideas/internal/middleware"
	"cityideas/internal/services"

	"github.com/gin-gonic/gin"
)

type UserHandler struct {
	ideas         *services.IdeaService
	stats         *services.StatsService
	notifications *services.NotificationService
}

func NewUserHandler(ideas *services.IdeaService, stats *services.StatsService, notifications *services.NotificationService) *UserHandler {
	return &UserHandler{ideas: ideas, stats: stats, notifications: notifications}
}

// Profile lists the caller's own ideas in every status with activity counters.
func (h *UserHandler) Profile(c *gin.Context) {
	identity := middleware.CurrentIdentity(c)
	ctx := c.Request.Context()

	ideas, err := h.ideas.IdeasByAuthor(ctx, identity.UserID)
	if err != nil {
		handleError(c, err)
		return
	}
	stats, err := h.stats.ForUser(ctx, identity.UserID)
	if err != nil {
		handleError(c, err)
		return
	}
	unread, err := h.notifications.UnreadCount(ctx, identity)
	if err != nil {
		handleError(c, err)
		return
	}

	Render(c, http.StatusOK, "user/profile.html", gin.H{
		"Title":  "Профиль",
		"Ideas":  ideas,
		"Stats":  stats,
		"Unread": unread,
	})
}
