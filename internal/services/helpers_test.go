package services

import (
	"io"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"cityideas/internal/db"
	"cityideas/internal/models"

	"github.com/pkg/errors"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	conn, err := db.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := conn.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return conn
}

func createUser(t *testing.T, conn *gorm.DB, username string, admin bool) Identity {
	t.Helper()
	user := models.User{
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: "not-a-real-hash",
		IsAdmin:      admin,
	}
	if err := conn.Create(&user).Error; err != nil {
		t.Fatalf("Failed to create user %s: %v", username, err)
	}
	return IdentityOf(&user)
}

func createIdea(t *testing.T, conn *gorm.DB, author Identity, title string, status models.IdeaStatus) *models.Idea {
	t.Helper()
	idea := models.Idea{
		Title:       title,
		Description: "Описание " + title,
		Category:    "экология",
		Latitude:    54.0,
		Longitude:   86.58,
		UserID:      author.UserID,
		Status:      status,
	}
	if err := conn.Omit("User", "City").Create(&idea).Error; err != nil {
		t.Fatalf("Failed to create idea %s: %v", title, err)
	}
	return &idea
}

func validIdeaInput() IdeaInput {
	return IdeaInput{
		Title:       "Новый сквер",
		Description: "Посадить деревья у школы",
		Category:    "благоустройство",
		Latitude:    "54.0",
		Longitude:   "86.58",
	}
}

// fakeArtifacts records what the service saved and removed.
type fakeArtifacts struct {
	mu       sync.Mutex
	saved    []string
	removed  []string
	failSave bool
}

func (f *fakeArtifacts) Allowed(filename string) bool {
	return allowedImageExt[strings.ToLower(filepath.Ext(filename))]
}

func (f *fakeArtifacts) Save(filename string, r io.Reader) (string, error) {
	if f.failSave {
		return "", errors.New("disk full")
	}
	if _, err := io.Copy(io.Discard, r); err != nil {
		return "", err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	name := "stored_" + filename
	f.saved = append(f.saved, name)
	return name, nil
}

func (f *fakeArtifacts) Remove(name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.removed = append(f.removed, name)
	return nil
}

func assertIs(t *testing.T, err, target error) {
	t.Helper()
	if !errors.Is(err, target) {
		t.Fatalf("Expected %v, got %v", target, err)
	}
}

func assertValidation(t *testing.T, err error, wantProblems int) *ValidationError {
	t.Helper()
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("Expected ValidationError, got %v", err)
	}
	if wantProblems > 0 && len(verr.Problems) != wantProblems {
		t.Fatalf("Expected %d problems, got %d: %v", wantProblems, len(verr.Problems), verr.Problems)
	}
	return verr
}
