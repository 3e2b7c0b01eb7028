package handlers

import (
	"fmt"
	"html/template"
	"net/http"
	"strconv"

	"cityideas/internal/middleware"
	"cityideas/internal/models"
	"cityideas/internal/services"
	"cityideas/internal/utils"

	"github.com/gin-gonic/gin"
)

type IdeaHandler struct {
	ideas  *services.IdeaService
	cities *services.CityService
}

func NewIdeaHandler(ideas *services.IdeaService, cities *services.CityService) *IdeaHandler {
	return &IdeaHandler{ideas: ideas, cities: cities}
}

// commentView pairs a comment with its rendered body.
type commentView struct {
	models.Comment
	HTML template.HTML
}

// ideaID reads the :id path parameter; anything that is not a positive id
// gets a 404.
func ideaID(c *gin.Context) (uint, bool) {
	id, ok := utils.ParseID(c.Param("id"))
	if !ok {
		RenderError(c, http.StatusNotFound, "Идея не найдена")
	}
	return id, ok
}

func (h *IdeaHandler) Home(c *gin.Context) {
	ctx := c.Request.Context()
	latest, err := h.ideas.LatestIdeas(ctx, 6)
	if err != nil {
		handleError(c, err)
		return
	}
	popular, err := h.ideas.PopularIdeas(ctx, 6)
	if err != nil {
		handleError(c, err)
		return
	}
	implemented, err := h.ideas.ImplementedIdeas(ctx, 6)
	if err != nil {
		handleError(c, err)
		return
	}
	cities, err := h.cities.List(ctx, true)
	if err != nil {
		handleError(c, err)
		return
	}

	Render(c, http.StatusOK, "index.html", gin.H{
		"Title":       "Город идей",
		"Latest":      latest,
		"Popular":     popular,
		"Implemented": implemented,
		"Cities":      cities,
	})
}

// Map renders the map shell; markers come from /api/ideas.
func (h *IdeaHandler) Map(c *gin.Context) {
	cities, err := h.cities.List(c.Request.Context(), true)
	if err != nil {
		handleError(c, err)
		return
	}
	var selected *models.City
	if id, ok := utils.ParseID(c.Query("city_id")); ok {
		for i := range cities {
			if cities[i].ID == id {
				selected = &cities[i]
			}
		}
	}
	if selected == nil && len(cities) > 0 {
		selected = &cities[0]
	}

	Render(c, http.StatusOK, "map.html", gin.H{
		"Title":      "Карта идей",
		"Cities":     cities,
		"City":       selected,
		"Categories": models.Categories,
	})
}

// List shows public ideas with filters, ordering and pagination.
func (h *IdeaHandler) List(c *gin.Context) {
	h.list(c, "idea/list.html", "Все идеи", c.Query("status"))
}

func (h *IdeaHandler) Implemented(c *gin.Context) {
	h.list(c, "idea/implemented.html", "Реализованные идеи", string(models.StatusImplemented))
}

func (h *IdeaHandler) list(c *gin.Context, view, title, status string) {
	ctx := c.Request.Context()
	order, err := services.ParseOrder(c.Query("sort"), c.Query("order"))
	if err != nil {
		handleError(c, err)
		return
	}

	filter := services.IdeaFilter{Category: c.Query("category")}
	switch models.IdeaStatus(status) {
	case models.StatusApproved, models.StatusImplemented:
		filter.Status = models.IdeaStatus(status)
	default:
		filter.Statuses = []models.IdeaStatus{models.StatusApproved, models.StatusImplemented}
	}
	if id, ok := utils.ParseID(c.Query("city_id")); ok {
		filter.CityID = id
	}

	page := pageParam(c)
	total, err := h.ideas.CountIdeas(ctx, filter)
	if err != nil {
		handleError(c, err)
		return
	}
	ideas, err := h.ideas.ListIdeas(ctx, filter, order, perPage, (page-1)*perPage)
	if err != nil {
		handleError(c, err)
		return
	}
	cities, err := h.cities.List(ctx, true)
	if err != nil {
		handleError(c, err)
		return
	}

	Render(c, http.StatusOK, view, gin.H{
		"Title":       title,
		"Ideas":       ideas,
		"Total":       total,
		"CurrentPage": page,
		"TotalPages":  totalPages(total),
		"Categories":  models.Categories,
		"Cities":      cities,
		"Status":      string(filter.Status),
		"Category":    filter.Category,
		"CityID":      filter.CityID,
		"Sort":        string(order.Field),
		"Desc":        order.Descending,
	})
}

func (h *IdeaHandler) ShowCreate(c *gin.Context) {
	h.renderCreate(c, http.StatusOK, gin.H{
		"Title":       "",
		"Description": "",
		"Category":    "",
		"Latitude":    c.Query("lat"),
		"Longitude":   c.Query("lng"),
		"CityID":      c.Query("city_id"),
	}, nil)
}

func (h *IdeaHandler) renderCreate(c *gin.Context, code int, form gin.H, problems []string) {
	cities, err := h.cities.List(c.Request.Context(), true)
	if err != nil {
		handleError(c, err)
		return
	}
	Render(c, code, "idea/create.html", gin.H{
		"Title":      "Предложить идею",
		"Categories": models.Categories,
		"Cities":     cities,
		"Form":       form,
		"Problems":   problems,
	})
}

// Create accepts the multipart submission form.
func (h *IdeaHandler) Create(c *gin.Context) {
	// FormFile parses the whole multipart body first.
	header, err := c.FormFile("image")
	if tooLarge(err) {
		RenderError(c, http.StatusRequestEntityTooLarge, "Файл слишком большой")
		return
	}

	in := services.IdeaInput{
		Title:       c.PostForm("title"),
		Description: c.PostForm("description"),
		Category:    c.PostForm("category"),
		Latitude:    c.PostForm("latitude"),
		Longitude:   c.PostForm("longitude"),
		CityID:      utils.OptionalID(c.PostForm("city_id")),
	}
	if err == nil && header.Filename != "" {
		file, err := header.Open()
		if err != nil {
			handleError(c, err)
			return
		}
		defer file.Close()
		in.ImageName = header.Filename
		in.Image = file
	}

	id, err := h.ideas.SubmitIdea(c.Request.Context(), middleware.CurrentIdentity(c), in)
	if err != nil {
		if problems := problemsOf(err); problems != nil {
			h.renderCreate(c, http.StatusBadRequest, gin.H{
				"Title":       in.Title,
				"Description": in.Description,
				"Category":    in.Category,
				"Latitude":    in.Latitude,
				"Longitude":   in.Longitude,
				"CityID":      c.PostForm("city_id"),
			}, problems)
			return
		}
		handleError(c, err)
		return
	}

	setFlash(c, "Идея отправлена на модерацию")
	c.Redirect(http.StatusFound, fmt.Sprintf("/ideas/%d", id))
}

func (h *IdeaHandler) Detail(c *gin.Context) {
	id, ok := ideaID(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	identity := middleware.CurrentIdentity(c)

	idea, err := h.ideas.ViewIdea(ctx, identity, id)
	if err != nil {
		handleError(c, err)
		return
	}
	voted, err := h.ideas.HasVoted(ctx, identity.UserID, idea.ID)
	if err != nil {
		handleError(c, err)
		return
	}

	comments := make([]commentView, len(idea.Comments))
	for i, cm := range idea.Comments {
		comments[i] = commentView{Comment: cm, HTML: utils.RenderMarkdown(cm.Text)}
	}

	Render(c, http.StatusOK, "idea/detail.html", gin.H{
		"Title":           idea.Title,
		"Idea":            idea,
		"DescriptionHTML": utils.RenderMarkdown(idea.Description),
		"Comments":        comments,
		"ImageURL":        services.ImageURL(idea.ImagePath),
		"HasVoted":        voted,
		"CanVote":         identity.IsAuthenticated() && idea.Status == models.StatusApproved && !voted,
		"CanComment":      identity.IsAuthenticated() && idea.Status.Public(),
		"CanDelete":       identity.HasAdminCapability() || identity.Owns(idea.UserID),
		"CanModerate":     identity.HasAdminCapability(),
	})
}

// Vote answers HTMX with the new count, plain forms with a redirect.
func (h *IdeaHandler) Vote(c *gin.Context) {
	id, ok := utils.ParseID(c.Param("id"))
	if !ok {
		c.Status(http.StatusNotFound)
		return
	}
	res, err := h.ideas.CastVote(c.Request.Context(), middleware.CurrentIdentity(c), id)
	if c.GetHeader("HX-Request") == "true" {
		if err != nil {
			code := failureStatus(c, err)
			c.String(code, publicMessage(err, code))
			return
		}
		c.String(http.StatusOK, strconv.Itoa(res.VotesCount))
		return
	}
	if err != nil {
		handleError(c, err)
		return
	}
	if !res.Accepted {
		setFlash(c, "Вы уже голосовали за эту идею")
	}
	c.Redirect(http.StatusFound, fmt.Sprintf("/ideas/%d", id))
}

func (h *IdeaHandler) Comment(c *gin.Context) {
	id, ok := ideaID(c)
	if !ok {
		return
	}
	_, err := h.ideas.PostComment(c.Request.Context(), middleware.CurrentIdentity(c), id, c.PostForm("text"))
	if err != nil {
		if problems := problemsOf(err); problems != nil {
			setFlash(c, problems[0])
			c.Redirect(http.StatusFound, fmt.Sprintf("/ideas/%d#comments", id))
			return
		}
		handleError(c, err)
		return
	}
	c.Redirect(http.StatusFound, fmt.Sprintf("/ideas/%d#comments", id))
}

func (h *IdeaHandler) Delete(c *gin.Context) {
	id, ok := ideaID(c)
	if !ok {
		return
	}
	identity := middleware.CurrentIdentity(c)
	if err := h.ideas.DeleteIdea(c.Request.Context(), identity, id); err != nil {
		handleError(c, err)
		return
	}

	target := "/profile"
	if identity.HasAdminCapability() {
		target = "/admin"
	}
	setFlash(c, "Идея удалена")
	if c.GetHeader("HX-Request") == "true" {
		HtmxRedirect(c, target)
		return
	}
	c.Redirect(http.StatusFound, target)
}
