package services

import (
	"bytes"
	"fmt"
	"html/template"
	"net/smtp"
	"path/filepath"
	"strings"

	"cityideas/internal/config"
	"cityideas/internal/models"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

var statusTitles = map[models.IdeaStatus]string{
	models.StatusPending:     "на модерации",
	models.StatusApproved:    "одобрена",
	models.StatusRejected:    "отклонена",
	models.StatusImplemented: "реализована",
}

// StatusTitle is the human-readable name of a status.
func StatusTitle(s models.IdeaStatus) string {
	if t, ok := statusTitles[s]; ok {
		return t
	}
	return string(s)
}

type MailService struct {
	cfg          config.SMTPConfig
	siteURL      string
	templatesDir string
	Enabled      bool

	// sendMail is smtp.SendMail outside of tests.
	sendMail func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

func NewMailService(cfg config.SMTPConfig, siteURL, templatesDir string) *MailService {
	enabled := cfg.Complete()
	if !enabled {
		log.Warn().Msg("MailService disabled: missing SMTP environment variables")
	}
	return &MailService{
		cfg:          cfg,
		siteURL:      strings.TrimRight(siteURL, "/"),
		templatesDir: templatesDir,
		Enabled:      enabled,
		sendMail:     smtp.SendMail,
	}
}

func (s *MailService) message(to []string, subject, body string) []byte {
	mime := "MIME-version: 1.0;\nContent-Type: text/html; charset=\"UTF-8\";\n\n"
	return []byte(fmt.Sprintf("To: %s\r\n"+
		"From: Город идей <%s>\r\n"+
		"Subject: %s\r\n"+
		"%s\r\n%s", strings.Join(to, ","), s.cfg.From, subject, mime, body))
}

func (s *MailService) send(to []string, subject, body string) error {
	auth := smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Host)
	addr := s.cfg.Host + ":" + s.cfg.Port
	if err := s.sendMail(addr, auth, s.cfg.From, to, s.message(to, subject, body)); err != nil {
		return errors.Wrapf(err, "send mail to %v", to)
	}
	return nil
}

func (s *MailService) sendAsync(to []string, subject, body string) {
	if !s.Enabled {
		return
	}
	go func() {
		if err := s.send(to, subject, body); err != nil {
			log.Error().Err(err).Strs("to", to).Msg("Failed to send email")
			return
		}
		log.Info().Strs("to", to).Str("subject", subject).Msg("Email sent")
	}()
}

func (s *MailService) render(name string, data any) (string, error) {
	t, err := template.ParseFiles(filepath.Join(s.templatesDir, "email", name))
	if err != nil {
		return "", errors.Wrapf(err, "parse template %s", name)
	}
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", errors.Wrapf(err, "execute template %s", name)
	}
	return buf.String(), nil
}

// SendStatusChanged tells the author about a moderation decision. The idea
// must have its User loaded.
func (s *MailService) SendStatusChanged(idea *models.Idea) {
	if !s.Enabled || idea == nil || idea.User.Email == "" {
		return
	}
	body, err := s.render("status.html", map[string]any{
		"Username": idea.User.Username,
		"Title":    idea.Title,
		"Status":   StatusTitle(idea.Status),
		"Link":     fmt.Sprintf("%s/ideas/%d", s.siteURL, idea.ID),
	})
	if err != nil {
		log.Error().Err(err).Uint("idea_id", idea.ID).Msg("Error rendering status email")
		return
	}
	subject := fmt.Sprintf("Ваша идея «%s» %s", idea.Title, StatusTitle(idea.Status))
	s.sendAsync([]string{idea.User.Email}, subject, body)
}
