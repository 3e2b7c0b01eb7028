package services

import (
	"context"
	"strings"
	"testing"

	"cityideas/internal/models"
)

func TestRegisterAndAuthenticate(t *testing.T) {
	conn := newTestDB(t)
	svc := NewAuthService(conn)
	ctx := context.Background()

	user, err := svc.Register(ctx, RegisterInput{
		Username: "  ivan ",
		Email:    "Ivan@Example.com",
		Password: "secret1",
		Confirm:  "secret1",
	})
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if user.Username != "ivan" || user.Email != "ivan@example.com" || user.IsAdmin {
		t.Errorf("Unexpected user: %+v", user)
	}
	if user.PasswordHash == "secret1" {
		t.Error("Password must be hashed")
	}

	got, err := svc.Authenticate(ctx, "ivan", "secret1")
	if err != nil || got.ID != user.ID {
		t.Fatalf("Authenticate failed: %v", err)
	}

	_, err = svc.Authenticate(ctx, "ivan", "wrong")
	assertIs(t, err, ErrInvalidCredentials)
	_, err = svc.Authenticate(ctx, "nobody", "secret1")
	assertIs(t, err, ErrInvalidCredentials)
}

func TestRegisterCollectsProblems(t *testing.T) {
	conn := newTestDB(t)
	svc := NewAuthService(conn)
	ctx := context.Background()

	_, err := svc.Register(ctx, RegisterInput{Username: "ab", Email: "not-an-email", Password: "123", Confirm: "321"})
	assertValidation(t, err, 4)

	if _, err := svc.Register(ctx, RegisterInput{Username: "maria", Email: "maria@example.com", Password: "secret1", Confirm: "secret1"}); err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	_, err = svc.Register(ctx, RegisterInput{Username: "maria", Email: "maria@example.com", Password: "secret1", Confirm: "secret1"})
	verr := assertValidation(t, err, 2)
	if !strings.Contains(verr.Problems[0], "занято") {
		t.Errorf("Expected username-taken problem first, got %v", verr.Problems)
	}
}

func TestEnsureAdmin(t *testing.T) {
	conn := newTestDB(t)
	svc := NewAuthService(conn)
	ctx := context.Background()

	created, err := svc.EnsureAdmin(ctx, "root", "", "rootpass")
	if err != nil || !created {
		t.Fatalf("Expected admin to be created, got %v, %v", created, err)
	}
	created, err = svc.EnsureAdmin(ctx, "root", "", "rootpass")
	if err != nil || created {
		t.Fatalf("Expected second call to be a no-op, got %v, %v", created, err)
	}

	regular := createUser(t, conn, "petr", false)
	if _, err := svc.EnsureAdmin(ctx, "petr", "", "whatever"); err != nil {
		t.Fatalf("Promote failed: %v", err)
	}
	var u models.User
	conn.First(&u, regular.UserID)
	if !u.IsAdmin {
		t.Error("Expected existing user to be promoted")
	}

	_, err = svc.EnsureAdmin(ctx, "", "", "")
	assertValidation(t, err, 1)
}

func TestGetUser(t *testing.T) {
	conn := newTestDB(t)
	svc := NewAuthService(conn)
	id := createUser(t, conn, "olga", false)

	u, err := svc.GetUser(context.Background(), id.UserID)
	if err != nil || u.Username != "olga" {
		t.Fatalf("GetUser failed: %v", err)
	}
	_, err = svc.GetUser(context.Background(), 777)
	assertIs(t, err, ErrNotFound)
}
