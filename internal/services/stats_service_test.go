package services

import (
	"context"
	"testing"

	"cityideas/internal/models"
)

func TestGlobalStats(t *testing.T) {
	conn := newTestDB(t)
	ideas := NewIdeaService(conn, nil)
	stats := NewStatsService(conn, nil)
	ctx := context.Background()

	admin := createUser(t, conn, "admin", true)
	alice := createUser(t, conn, "alice", false)
	bob := createUser(t, conn, "bob", false)

	city := models.City{Name: "Кемерово", Latitude: 55.35, Longitude: 86.08, Zoom: 12, IsActive: true}
	conn.Create(&city)
	empty := models.City{Name: "Юрга", Latitude: 55.7, Longitude: 84.9, Zoom: 12, IsActive: true}
	conn.Create(&empty)

	a := createIdea(t, conn, alice, "Каток", models.StatusApproved)
	conn.Model(a).Update("city_id", city.ID)
	createIdea(t, conn, alice, "Парковка", models.StatusPending)
	createIdea(t, conn, bob, "Библиотека", models.StatusRejected)

	if _, err := ideas.CastVote(ctx, bob, a.ID); err != nil {
		t.Fatalf("CastVote failed: %v", err)
	}
	if _, err := ideas.PostComment(ctx, bob, a.ID, "Нужен!"); err != nil {
		t.Fatalf("PostComment failed: %v", err)
	}

	_, err := stats.Global(ctx, alice)
	assertIs(t, err, ErrForbidden)

	g, err := stats.Global(ctx, admin)
	if err != nil {
		t.Fatalf("Global failed: %v", err)
	}
	if g.TotalIdeas != 3 || g.TotalUsers != 3 || g.TotalVotes != 1 || g.TotalComments != 1 {
		t.Errorf("Unexpected totals: %+v", g)
	}
	if g.ActiveCities != 2 || g.RecentIdeas != 3 {
		t.Errorf("Expected 2 active cities and 3 recent ideas, got %d and %d", g.ActiveCities, g.RecentIdeas)
	}
	if g.ByStatus[models.StatusApproved] != 1 || g.ByStatus[models.StatusImplemented] != 0 {
		t.Errorf("Unexpected status counts: %v", g.ByStatus)
	}
	if len(g.ByCategory) != 1 || g.ByCategory[0].Total != 1 {
		t.Errorf("Expected one approved category bucket, got %+v", g.ByCategory)
	}
	if len(g.ByCity) != 2 || g.ByCity[0].Label != "Кемерово" || g.ByCity[1].Total != 0 {
		t.Errorf("Expected cities with zero ideas included, got %+v", g.ByCity)
	}
	if len(g.TopUsers) != 2 || g.TopUsers[0].Username != "alice" || g.TopUsers[0].IdeaCount != 2 {
		t.Errorf("Unexpected top users: %+v", g.TopUsers)
	}
	if len(g.TopIdeas) != 1 || g.TopIdeas[0].ID != a.ID {
		t.Errorf("Unexpected top ideas: %+v", g.TopIdeas)
	}
}

func TestUserStats(t *testing.T) {
	conn := newTestDB(t)
	ideas := NewIdeaService(conn, nil)
	stats := NewStatsService(conn, nil)
	ctx := context.Background()

	alice := createUser(t, conn, "alice", false)
	bob := createUser(t, conn, "bob", false)
	a := createIdea(t, conn, bob, "Сквер", models.StatusApproved)
	createIdea(t, conn, alice, "Мост", models.StatusPending)

	ideas.CastVote(ctx, alice, a.ID)
	ideas.PostComment(ctx, alice, a.ID, "Хорошо")
	ideas.PostComment(ctx, alice, a.ID, "Очень хорошо")

	s, err := stats.ForUser(ctx, alice.UserID)
	if err != nil {
		t.Fatalf("ForUser failed: %v", err)
	}
	if s.Ideas != 1 || s.VotesCast != 1 || s.Comments != 2 {
		t.Errorf("Unexpected user stats: %+v", s)
	}
	if s.ByStatus[models.StatusPending] != 1 || len(s.ByStatus) != 4 {
		t.Errorf("Unexpected status breakdown: %v", s.ByStatus)
	}
}
