package services

import (
	"net/smtp"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"cityideas/internal/config"
	"cityideas/internal/models"
)

func TestMailServiceDisabledWithoutConfig(t *testing.T) {
	svc := NewMailService(config.SMTPConfig{Host: "smtp.example.com"}, "http://localhost", "web/templates")
	if svc.Enabled {
		t.Fatal("Expected mail to be disabled")
	}
	called := false
	svc.sendMail = func(string, smtp.Auth, string, []string, []byte) error {
		called = true
		return nil
	}
	svc.SendStatusChanged(&models.Idea{ID: 1, User: models.User{Email: "a@example.com"}})
	if called {
		t.Error("Disabled service must not send")
	}
}

func TestSendStatusChanged(t *testing.T) {
	dir := t.TempDir()
	os.MkdirAll(filepath.Join(dir, "email"), 0o755)
	os.WriteFile(filepath.Join(dir, "email", "status.html"),
		[]byte(`{{.Username}}: «{{.Title}}» {{.Status}} {{.Link}}`), 0o644)

	cfg := config.SMTPConfig{Host: "smtp.example.com", Port: "587", Username: "u", Password: "p", From: "noreply@example.com"}
	svc := NewMailService(cfg, "https://ideas.example.com/", dir)

	sent := make(chan string, 1)
	svc.sendMail = func(addr string, _ smtp.Auth, from string, to []string, msg []byte) error {
		if addr != "smtp.example.com:587" || from != cfg.From || to[0] != "anna@example.com" {
			t.Errorf("Unexpected envelope %s %s %v", addr, from, to)
		}
		sent <- string(msg)
		return nil
	}

	svc.SendStatusChanged(&models.Idea{
		ID:     5,
		Title:  "Сквер",
		Status: models.StatusApproved,
		User:   models.User{Username: "anna", Email: "anna@example.com"},
	})

	select {
	case msg := <-sent:
		if !strings.Contains(msg, "anna: «Сквер» одобрена https://ideas.example.com/ideas/5") {
			t.Errorf("Unexpected body: %s", msg)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Expected an email to be sent")
	}
}

func TestCaptcha(t *testing.T) {
	svc := NewCaptchaService()
	for i := 0; i < 50; i++ {
		q, answer := svc.GenerateMathProblem()
		if answer < 0 || answer > 18 {
			t.Fatalf("Answer out of range for %q: %d", q, answer)
		}
	}
	if !CheckAnswer(" 7 ", 7) {
		t.Error("Expected trimmed correct answer to pass")
	}
	if CheckAnswer("7", nil) || CheckAnswer("x", 7) || CheckAnswer("8", 7) {
		t.Error("Expected wrong answers to fail")
	}
}
