package services

import (
	"context"
	"net/mail"
	"strings"
	"unicode/utf8"

	"cityideas/internal/models"
	"cityideas/internal/utils"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type AuthService struct {
	db *gorm.DB
}

func NewAuthService(db *gorm.DB) *AuthService {
	return &AuthService{db: db}
}

type RegisterInput struct {
	Username string
	Email    string
	Password string
	Confirm  string
}

// Register creates a regular user. Every problem with the input is reported
// at once.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	var p problems
	username := strings.TrimSpace(in.Username)
	email := strings.TrimSpace(strings.ToLower(in.Email))

	if n := utf8.RuneCountInString(username); n < 3 || n > 80 {
		p.add("Имя пользователя должно быть от 3 до 80 символов")
	}
	if _, err := mail.ParseAddress(email); err != nil || !strings.Contains(email, "@") {
		p.add("Некорректный email")
	}
	if len(in.Password) < 6 {
		p.add("Пароль должен быть не короче 6 символов")
	}
	if in.Password != in.Confirm {
		p.add("Пароли не совпадают")
	}

	if username != "" {
		taken, err := s.exists(ctx, "username = ?", username)
		if err != nil {
			return nil, err
		}
		if taken {
			p.add("Имя пользователя уже занято")
		}
	}
	if email != "" {
		taken, err := s.exists(ctx, "email = ?", email)
		if err != nil {
			return nil, err
		}
		if taken {
			p.add("Email уже зарегистрирован")
		}
	}
	if err := p.err(); err != nil {
		return nil, err
	}

	return s.create(ctx, username, email, in.Password, false)
}

func (s *AuthService) exists(ctx context.Context, query string, arg any) (bool, error) {
	var count int64
	if err := s.db.WithContext(ctx).Model(&models.User{}).Where(query, arg).Count(&count).Error; err != nil {
		return false, storeErr("check user", err)
	}
	return count > 0, nil
}

func (s *AuthService) create(ctx context.Context, username, email, password string, admin bool) (*models.User, error) {
	hash, err := utils.HashPassword(password)
	if err != nil {
		return nil, errors.Wrap(err, "hash password")
	}
	user := models.User{
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		IsAdmin:      admin,
	}
	// The unique indexes still decide when two sign-ups race.
	if err := s.db.WithContext(ctx).Omit(clause.Associations).Create(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, errors.Wrap(ErrConflict, "username or email taken")
		}
		return nil, storeErr("create user", err)
	}
	log.Info().Uint("user_id", user.ID).Str("username", user.Username).Bool("admin", admin).Msg("user registered")
	return &user, nil
}

// Authenticate checks credentials. Unknown user and wrong password are the
// same error.
func (s *AuthService) Authenticate(ctx context.Context, username, password string) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).Where("username = ?", strings.TrimSpace(username)).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.WithStack(ErrInvalidCredentials)
		}
		return nil, storeErr("load user", err)
	}
	if !utils.CheckPasswordHash(password, user.PasswordHash) {
		return nil, errors.WithStack(ErrInvalidCredentials)
	}
	return &user, nil
}

func (s *AuthService) GetUser(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, id).Error; err != nil {
		return nil, lookupErr("load user", err)
	}
	return &user, nil
}

// EnsureAdmin creates the account as admin, or promotes it when it already
// exists. It reports whether a new account was created.
func (s *AuthService) EnsureAdmin(ctx context.Context, username, email, password string) (bool, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return false, &ValidationError{Problems: []string{"username and password are required"}}
	}

	var user models.User
	err := s.db.WithContext(ctx).Where("username = ?", username).First(&user).Error
	switch {
	case err == nil:
		if user.IsAdmin {
			return false, nil
		}
		if err := s.db.WithContext(ctx).Model(&user).Update("is_admin", true).Error; err != nil {
			return false, storeErr("promote user", err)
		}
		log.Info().Str("username", username).Msg("user promoted to admin")
		return false, nil
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return false, storeErr("load user", err)
	}

	if email == "" {
		email = username + "@localhost"
	}
	if _, err := s.create(ctx, username, strings.ToLower(email), password, true); err != nil {
		return false, err
	}
	return true, nil
}
