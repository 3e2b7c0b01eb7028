package handlers

import (
	"io"
	"net/http"
	"strconv"

	"cityideas/internal/middleware"
	"cityideas/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

const perPage = 20

// Render helper to inject common variables like 'current user'
func Render(c *gin.Context, code int, name string, obj gin.H) {
	if obj == nil {
		obj = gin.H{}
	}
	if user := middleware.CurrentUser(c); user != nil {
		obj["CurrentUser"] = user
	}
	if flash := popFlash(c); flash != "" {
		obj["Flash"] = flash
	}
	obj["CurrentPath"] = c.Request.URL.Path
	c.HTML(code, name, obj)
}

// HtmxRedirect lets HTMX navigate on the client side.
func HtmxRedirect(c *gin.Context, path string) {
	c.Header("HX-Redirect", path)
	c.Status(http.StatusOK)
}

func RenderError(c *gin.Context, code int, message string) {
	Render(c, code, "error.html", gin.H{"Error": message, "Code": code})
}

// statusFor maps service errors onto HTTP status codes.
func statusFor(err error) int {
	var verr *services.ValidationError
	switch {
	case errors.As(err, &verr):
		return http.StatusBadRequest
	case errors.Is(err, services.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, services.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, services.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, services.ErrInvalidCredentials):
		return http.StatusUnauthorized
	}
	return http.StatusInternalServerError
}

var publicMessages = map[int]string{
	http.StatusNotFound:     "Страница не найдена",
	http.StatusForbidden:    "Недостаточно прав",
	http.StatusConflict:     "Запись уже существует",
	http.StatusUnauthorized: "Неверное имя пользователя или пароль",
}

// publicMessage is the text shown to users; store failures stay vague.
func publicMessage(err error, code int) string {
	var verr *services.ValidationError
	if errors.As(err, &verr) {
		return verr.Error()
	}
	if m, ok := publicMessages[code]; ok {
		return m
	}
	return "Внутренняя ошибка сервера"
}

// problemsOf returns validation messages, or nil for other errors.
func problemsOf(err error) []string {
	var verr *services.ValidationError
	if errors.As(err, &verr) {
		return verr.Problems
	}
	return nil
}

// failureStatus maps err to a status code, logging server-side failures
// with their stack.
func failureStatus(c *gin.Context, err error) int {
	code := statusFor(err)
	if code >= http.StatusInternalServerError {
		log.Error().Stack().Err(err).Str("path", c.Request.URL.Path).Msg("request failed")
	}
	_ = c.Error(err)
	return code
}

// handleError renders the error page for err.
func handleError(c *gin.Context, err error) {
	code := failureStatus(c, err)
	RenderError(c, code, publicMessage(err, code))
}

// writeJSON encodes with goccy/go-json.
func writeJSON(c *gin.Context, code int, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Msg("Failed to encode JSON response")
		c.Data(http.StatusInternalServerError, "application/json; charset=utf-8", []byte(`{"error":"encoding failed"}`))
		return
	}
	c.Data(code, "application/json; charset=utf-8", body)
}

func jsonError(c *gin.Context, err error) {
	code := failureStatus(c, err)
	body := gin.H{"error": publicMessage(err, code)}
	if problems := problemsOf(err); problems != nil {
		body["problems"] = problems
	}
	writeJSON(c, code, body)
}

// tooLarge reports whether err came from reading past the body limit.
func tooLarge(err error) bool {
	var maxErr *http.MaxBytesError
	return errors.As(err, &maxErr)
}

// decodeJSON reads the request body with goccy/go-json, answering 413 or
// 400 itself when the body is unusable.
func decodeJSON(c *gin.Context, v any) bool {
	body, err := io.ReadAll(c.Request.Body)
	if tooLarge(err) {
		writeJSON(c, http.StatusRequestEntityTooLarge, gin.H{"error": "request body too large"})
		return false
	}
	if err != nil || json.Unmarshal(body, v) != nil {
		writeJSON(c, http.StatusBadRequest, gin.H{"error": "invalid JSON body"})
		return false
	}
	return true
}

// pageParam reads ?page=, defaulting to 1.
func pageParam(c *gin.Context) int {
	if n, err := strconv.Atoi(c.Query("page")); err == nil && n > 0 {
		return n
	}
	return 1
}

func totalPages(total int64) int {
	pages := int((total + perPage - 1) / perPage)
	if pages == 0 {
		return 1
	}
	return pages
}
