package handlers

import (
	"net/http"
	"strconv"

	"cityideas/internal/middleware"
	"cityideas/internal/models"
	"cityideas/internal/services"
	"cityideas/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"
)

type APIHandler struct {
	auth   *services.AuthService
	tokens *services.TokenService
	ideas  *services.IdeaService
	cities *services.CityService
}

func NewAPIHandler(auth *services.AuthService, tokens *services.TokenService, ideas *services.IdeaService, cities *services.CityService) *APIHandler {
	return &APIHandler{auth: auth, tokens: tokens, ideas: ideas, cities: cities}
}

// ideaJSON is the marker payload consumed by the map.
type ideaJSON struct {
	ID          uint              `json:"id"`
	Title       string            `json:"title"`
	Description string            `json:"description"`
	Category    string            `json:"category"`
	Lat         float64           `json:"lat"`
	Lng         float64           `json:"lng"`
	Votes       int               `json:"votes"`
	User        string            `json:"user"`
	CreatedAt   string            `json:"created_at"`
	Status      models.IdeaStatus `json:"status"`
	CityID      *uint             `json:"city_id,omitempty"`
	ImageURL    string            `json:"image_url,omitempty"`
}

type cityJSON struct {
	ID        uint    `json:"id"`
	Name      string  `json:"name"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Zoom      int     `json:"zoom"`
}

func toIdeaJSON(idea models.Idea) ideaJSON {
	return ideaJSON{
		ID:          idea.ID,
		Title:       idea.Title,
		Description: idea.Description,
		Category:    idea.Category,
		Lat:         idea.Latitude,
		Lng:         idea.Longitude,
		Votes:       idea.VotesCount,
		User:        idea.User.Username,
		CreatedAt:   idea.CreatedAt.Format("02.01.2006"),
		Status:      idea.Status,
		CityID:      idea.CityID,
		ImageURL:    services.ImageURL(idea.ImagePath),
	}
}

// Ideas returns approved and implemented ideas, optionally filtered by
// status and city.
func (h *APIHandler) Ideas(c *gin.Context) {
	var cityID uint
	if raw := c.Query("city_id"); raw != "" {
		id, ok := utils.ParseID(raw)
		if !ok {
			writeJSON(c, http.StatusBadRequest, gin.H{"error": "invalid city_id"})
			return
		}
		cityID = id
	}

	ideas, err := h.ideas.MapIdeas(c.Request.Context(), models.IdeaStatus(c.Query("status")), cityID)
	if err != nil {
		jsonError(c, err)
		return
	}
	out := make([]ideaJSON, len(ideas))
	for i, idea := range ideas {
		out[i] = toIdeaJSON(idea)
	}
	writeJSON(c, http.StatusOK, out)
}

func (h *APIHandler) Cities(c *gin.Context) {
	cities, err := h.cities.List(c.Request.Context(), true)
	if err != nil {
		jsonError(c, err)
		return
	}
	out := make([]cityJSON, len(cities))
	for i, city := range cities {
		out[i] = cityJSON{ID: city.ID, Name: city.Name, Latitude: city.Latitude, Longitude: city.Longitude, Zoom: city.Zoom}
	}
	writeJSON(c, http.StatusOK, out)
}

type tokenRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Token exchanges credentials for a bearer token.
func (h *APIHandler) Token(c *gin.Context) {
	var req tokenRequest
	if !decodeJSON(c, &req) {
		return
	}
	user, err := h.auth.Authenticate(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		jsonError(c, err)
		return
	}
	token, err := h.tokens.Issue(user.ID)
	if err != nil {
		jsonError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, gin.H{
		"token":      token,
		"token_type": "Bearer",
		"expires_in": int(services.TokenTTL.Seconds()),
	})
}

type ideaRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Category    string `json:"category"`
	Lat         any    `json:"lat"`
	Lng         any    `json:"lng"`
	CityID      *uint  `json:"city_id"`
}

// coordString keeps numbers and strings alike so the service reports
// unparsable coordinates the same way as the HTML form.
func coordString(v any) string {
	switch x := v.(type) {
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case string:
		return x
	case json.Number:
		return x.String()
	}
	return ""
}

// CreateIdea accepts an idea placed on the map.
func (h *APIHandler) CreateIdea(c *gin.Context) {
	var req ideaRequest
	if !decodeJSON(c, &req) {
		return
	}
	id, err := h.ideas.SubmitIdea(c.Request.Context(), middleware.CurrentIdentity(c), services.IdeaInput{
		Title:       req.Title,
		Description: req.Description,
		Category:    req.Category,
		Latitude:    coordString(req.Lat),
		Longitude:   coordString(req.Lng),
		CityID:      req.CityID,
	})
	if err != nil {
		jsonError(c, err)
		return
	}
	writeJSON(c, http.StatusCreated, gin.H{
		"id":      id,
		"status":  models.StatusPending,
		"message": "Идея отправлена на модерацию",
	})
}

func (h *APIHandler) Vote(c *gin.Context) {
	id, ok := utils.ParseID(c.Param("id"))
	if !ok {
		writeJSON(c, http.StatusNotFound, gin.H{"error": "idea not found"})
		return
	}
	res, err := h.ideas.CastVote(c.Request.Context(), middleware.CurrentIdentity(c), id)
	if err != nil {
		jsonError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, res)
}
