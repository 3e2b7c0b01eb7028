package services

import (
	"context"
	"testing"

	"cityideas/internal/models"
	"cityideas/internal/utils"
)

func cityInput(name string) CityInput {
	return CityInput{Name: name, Latitude: "55.35", Longitude: "86.08", Zoom: "11", IsActive: true}
}

func TestCityCRUD(t *testing.T) {
	conn := newTestDB(t)
	svc := NewCityService(conn, utils.NewCache(16))
	ctx := context.Background()
	admin := createUser(t, conn, "admin", true)
	user := createUser(t, conn, "user", false)

	_, err := svc.Create(ctx, user, cityInput("Белово"))
	assertIs(t, err, ErrForbidden)

	city, err := svc.Create(ctx, admin, cityInput("Белово"))
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if city.Zoom != 11 || city.Latitude != 55.35 {
		t.Errorf("Unexpected city: %+v", city)
	}

	_, err = svc.Create(ctx, admin, cityInput("Белово"))
	assertIs(t, err, ErrConflict)

	active, err := svc.List(ctx, true)
	if err != nil || len(active) != 1 {
		t.Fatalf("Expected 1 active city, got %d, %v", len(active), err)
	}

	in := cityInput("Белово")
	in.IsActive = false
	in.Zoom = ""
	updated, err := svc.Update(ctx, admin, city.ID, in)
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if updated.IsActive || updated.Zoom != models.DefaultZoom {
		t.Errorf("Expected inactive city with default zoom, got %+v", updated)
	}

	active, _ = svc.List(ctx, true)
	if len(active) != 0 {
		t.Errorf("Expected cache to be invalidated after update, got %d active", len(active))
	}
	all, _ := svc.List(ctx, false)
	if len(all) != 1 {
		t.Errorf("Expected 1 city overall, got %d", len(all))
	}
}

func TestCityValidation(t *testing.T) {
	conn := newTestDB(t)
	svc := NewCityService(conn, nil)
	admin := createUser(t, conn, "admin", true)

	_, err := svc.Create(context.Background(), admin, CityInput{Name: "", Latitude: "north", Longitude: "1", Zoom: "big"})
	assertValidation(t, err, 3)
}

func TestDeleteCityDetachesIdeas(t *testing.T) {
	conn := newTestDB(t)
	svc := NewCityService(conn, nil)
	ctx := context.Background()
	admin := createUser(t, conn, "admin", true)

	city, err := svc.Create(ctx, admin, cityInput("Прокопьевск"))
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	idea := createIdea(t, conn, admin, "Стадион", models.StatusApproved)
	conn.Model(idea).Update("city_id", city.ID)

	if err := svc.Delete(ctx, admin, city.ID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}

	var stored models.Idea
	if err := conn.First(&stored, idea.ID).Error; err != nil {
		t.Fatalf("Idea should survive city deletion: %v", err)
	}
	if stored.CityID != nil {
		t.Errorf("Expected city_id to be cleared, got %v", *stored.CityID)
	}

	assertIs(t, svc.Delete(ctx, admin, city.ID), ErrNotFound)
	_, err = svc.Get(ctx, city.ID)
	assertIs(t, err, ErrNotFound)
}
