package handlers

import (
	"net/http"

	"cityideas/internal/middleware"
	"cityideas/internal/services"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
)

const captchaKey = "captcha_answer"

type AuthHandler struct {
	auth    *services.AuthService
	captcha *services.CaptchaService
}

func NewAuthHandler(auth *services.AuthService, captcha *services.CaptchaService) *AuthHandler {
	return &AuthHandler{auth: auth, captcha: captcha}
}

// newCaptcha stores a fresh answer in the session and returns the question.
func (h *AuthHandler) newCaptcha(c *gin.Context) string {
	question, answer := h.captcha.GenerateMathProblem()
	session := sessions.Default(c)
	session.Set(captchaKey, answer)
	session.Save()
	return question
}

func (h *AuthHandler) ShowRegister(c *gin.Context) {
	Render(c, http.StatusOK, "auth/register.html", gin.H{
		"Title":   "Регистрация",
		"Captcha": h.newCaptcha(c),
	})
}

func (h *AuthHandler) Register(c *gin.Context) {
	in := services.RegisterInput{
		Username: c.PostForm("username"),
		Email:    c.PostForm("email"),
		Password: c.PostForm("password"),
		Confirm:  c.PostForm("confirm_password"),
	}
	form := gin.H{"Username": in.Username, "Email": in.Email}

	session := sessions.Default(c)
	expected := session.Get(captchaKey)
	session.Delete(captchaKey)
	session.Save()
	if !services.CheckAnswer(c.PostForm("captcha"), expected) {
		Render(c, http.StatusBadRequest, "auth/register.html", gin.H{
			"Title":    "Регистрация",
			"Problems": []string{"Неверный ответ на проверочный вопрос"},
			"Form":     form,
			"Captcha":  h.newCaptcha(c),
		})
		return
	}

	if _, err := h.auth.Register(c.Request.Context(), in); err != nil {
		problems := problemsOf(err)
		if problems == nil && errors.Is(err, services.ErrConflict) {
			problems = []string{"Имя пользователя или email уже заняты"}
		}
		if problems == nil {
			handleError(c, err)
			return
		}
		Render(c, statusFor(err), "auth/register.html", gin.H{
			"Title":    "Регистрация",
			"Problems": problems,
			"Form":     form,
			"Captcha":  h.newCaptcha(c),
		})
		return
	}

	Render(c, http.StatusOK, "auth/login.html", gin.H{
		"Title":   "Вход",
		"Success": "Регистрация прошла успешно! Теперь вы можете войти.",
	})
}

func (h *AuthHandler) ShowLogin(c *gin.Context) {
	if middleware.CurrentIdentity(c).IsAuthenticated() {
		c.Redirect(http.StatusFound, "/")
		return
	}
	Render(c, http.StatusOK, "auth/login.html", gin.H{"Title": "Вход"})
}

func (h *AuthHandler) Login(c *gin.Context) {
	username := c.PostForm("username")
	user, err := h.auth.Authenticate(c.Request.Context(), username, c.PostForm("password"))
	if err != nil {
		if !errors.Is(err, services.ErrInvalidCredentials) {
			handleError(c, err)
			return
		}
		Render(c, http.StatusUnauthorized, "auth/login.html", gin.H{
			"Title":    "Вход",
			"Error":    "Неверное имя пользователя или пароль",
			"Username": username,
		})
		return
	}

	session := sessions.Default(c)
	session.Set(middleware.SessionUser, user.ID)
	session.Save()

	setFlash(c, "Добро пожаловать, "+user.Username+"!")
	c.Redirect(http.StatusFound, "/")
}

func (h *AuthHandler) Logout(c *gin.Context) {
	session := sessions.Default(c)
	session.Clear()
	session.Save()
	c.Redirect(http.StatusFound, "/")
}
