package handlers

import (
	"fmt"
	"net/http"

	"cityideas/internal/middleware"
	"cityideas/internal/models"
	"cityideas/internal/services"
	"cityideas/internal/utils"

	"github.com/gin-gonic/gin"
)

type AdminHandler struct {
	ideas  *services.IdeaService
	cities *services.CityService
	stats  *services.StatsService
	mail   *services.MailService
}

func NewAdminHandler(ideas *services.IdeaService, cities *services.CityService, stats *services.StatsService, mail *services.MailService) *AdminHandler {
	return &AdminHandler{ideas: ideas, cities: cities, stats: stats, mail: mail}
}

// Panel shows the moderation queue and the approved ideas awaiting
// implementation.
func (h *AdminHandler) Panel(c *gin.Context) {
	ctx := c.Request.Context()
	oldestFirst := services.IdeaOrder{Field: services.SortCreatedAt}

	pending, err := h.ideas.ListIdeas(ctx, services.IdeaFilter{Status: models.StatusPending}, oldestFirst, 0, 0)
	if err != nil {
		handleError(c, err)
		return
	}
	approved, err := h.ideas.ListIdeas(ctx, services.IdeaFilter{Status: models.StatusApproved}, services.IdeaOrder{Field: services.SortVotes, Descending: true}, 50, 0)
	if err != nil {
		handleError(c, err)
		return
	}
	stats, err := h.stats.Global(ctx, middleware.CurrentIdentity(c))
	if err != nil {
		handleError(c, err)
		return
	}

	Render(c, http.StatusOK, "admin/panel.html", gin.H{
		"Title":    "Модерация",
		"Pending":  pending,
		"Approved": approved,
		"Stats":    stats,
	})
}

// UpdateStatus applies a moderation decision and notifies the author.
func (h *AdminHandler) UpdateStatus(c *gin.Context) {
	id, ok := ideaID(c)
	if !ok {
		return
	}
	status := models.IdeaStatus(c.PostForm("status"))
	idea, err := h.ideas.TransitionStatus(c.Request.Context(), middleware.CurrentIdentity(c), id, status)
	if err != nil {
		handleError(c, err)
		return
	}
	h.mail.SendStatusChanged(idea)

	setFlash(c, fmt.Sprintf("Идея «%s» %s", idea.Title, services.StatusTitle(idea.Status)))
	if c.GetHeader("HX-Request") == "true" {
		HtmxRedirect(c, "/admin")
		return
	}
	c.Redirect(http.StatusFound, "/admin")
}

func (h *AdminHandler) Stats(c *gin.Context) {
	stats, err := h.stats.Global(c.Request.Context(), middleware.CurrentIdentity(c))
	if err != nil {
		handleError(c, err)
		return
	}
	Render(c, http.StatusOK, "admin/stats.html", gin.H{
		"Title": "Статистика",
		"Stats": stats,
	})
}

func (h *AdminHandler) Cities(c *gin.Context) {
	cities, err := h.cities.List(c.Request.Context(), false)
	if err != nil {
		handleError(c, err)
		return
	}
	Render(c, http.StatusOK, "admin/cities.html", gin.H{
		"Title":  "Города",
		"Cities": cities,
	})
}

func renderCityForm(c *gin.Context, code int, action string, form gin.H, problems []string) {
	Render(c, code, "admin/city_form.html", gin.H{
		"Title":    "Город",
		"Action":   action,
		"Form":     form,
		"Problems": problems,
	})
}

func cityForm(c *gin.Context) (services.CityInput, gin.H) {
	in := services.CityInput{
		Name:        c.PostForm("name"),
		Description: c.PostForm("description"),
		Latitude:    c.PostForm("latitude"),
		Longitude:   c.PostForm("longitude"),
		Zoom:        c.PostForm("zoom"),
		IsActive:    c.PostForm("is_active") != "",
	}
	return in, gin.H{
		"Name":        in.Name,
		"Description": in.Description,
		"Latitude":    in.Latitude,
		"Longitude":   in.Longitude,
		"Zoom":        in.Zoom,
		"IsActive":    in.IsActive,
	}
}

// cityFailure re-renders the form for input problems and shows the error
// page otherwise.
func cityFailure(c *gin.Context, action string, form gin.H, err error) {
	code := statusFor(err)
	if code == http.StatusBadRequest || code == http.StatusConflict {
		problems := problemsOf(err)
		if problems == nil {
			problems = []string{"Город с таким названием уже существует"}
		}
		renderCityForm(c, code, action, form, problems)
		return
	}
	handleError(c, err)
}

func (h *AdminHandler) ShowCreateCity(c *gin.Context) {
	renderCityForm(c, http.StatusOK, "/admin/cities/new", gin.H{"Zoom": models.DefaultZoom, "IsActive": true}, nil)
}

func (h *AdminHandler) CreateCity(c *gin.Context) {
	in, form := cityForm(c)
	city, err := h.cities.Create(c.Request.Context(), middleware.CurrentIdentity(c), in)
	if err != nil {
		cityFailure(c, "/admin/cities/new", form, err)
		return
	}
	setFlash(c, "Город «"+city.Name+"» добавлен")
	c.Redirect(http.StatusFound, "/admin/cities")
}

func (h *AdminHandler) ShowEditCity(c *gin.Context) {
	id, ok := utils.ParseID(c.Param("id"))
	if !ok {
		RenderError(c, http.StatusNotFound, "Город не найден")
		return
	}
	city, err := h.cities.Get(c.Request.Context(), id)
	if err != nil {
		handleError(c, err)
		return
	}
	renderCityForm(c, http.StatusOK, fmt.Sprintf("/admin/cities/%d/edit", city.ID), gin.H{
		"Name":        city.Name,
		"Description": city.Description,
		"Latitude":    city.Latitude,
		"Longitude":   city.Longitude,
		"Zoom":        city.Zoom,
		"IsActive":    city.IsActive,
	}, nil)
}

func (h *AdminHandler) UpdateCity(c *gin.Context) {
	id, ok := utils.ParseID(c.Param("id"))
	if !ok {
		RenderError(c, http.StatusNotFound, "Город не найден")
		return
	}
	in, form := cityForm(c)
	city, err := h.cities.Update(c.Request.Context(), middleware.CurrentIdentity(c), id, in)
	if err != nil {
		cityFailure(c, fmt.Sprintf("/admin/cities/%d/edit", id), form, err)
		return
	}
	setFlash(c, "Город «"+city.Name+"» обновлён")
	c.Redirect(http.StatusFound, "/admin/cities")
}

func (h *AdminHandler) DeleteCity(c *gin.Context) {
	id, ok := utils.ParseID(c.Param("id"))
	if !ok {
		RenderError(c, http.StatusNotFound, "Город не найден")
		return
	}
	if err := h.cities.Delete(c.Request.Context(), middleware.CurrentIdentity(c), id); err != nil {
		handleError(c, err)
		return
	}
	setFlash(c, "Город удалён")
	c.Redirect(http.StatusFound, "/admin/cities")
}
