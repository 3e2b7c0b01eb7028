package services

import (
	"context"
	"time"

	"cityideas/internal/models"
	"cityideas/internal/utils"

	"github.com/pkg/errors"
	"gorm.io/gorm"
)

const (
	statsCachePrefix = "stats:"
	statsCacheTTL    = 30 * time.Second
	recentWindow     = 7 * 24 * time.Hour
	topN             = 10
)

// CountRow is one bucket of a grouped count.
type CountRow struct {
	Label string `json:"label"`
	Total int64  `json:"total"`
}

type UserActivity struct {
	UserID    uint   `json:"user_id"`
	Username  string `json:"username"`
	IdeaCount int64  `json:"idea_count"`
}

type GlobalStats struct {
	TotalIdeas    int64                       `json:"total_ideas"`
	TotalUsers    int64                       `json:"total_users"`
	TotalVotes    int64                       `json:"total_votes"`
	TotalComments int64                       `json:"total_comments"`
	ActiveCities  int64                       `json:"active_cities"`
	ByStatus      map[models.IdeaStatus]int64 `json:"by_status"`
	ByCategory    []CountRow                  `json:"by_category"` // approved ideas only
	ByCity        []CountRow                  `json:"by_city"`
	RecentIdeas   int64                       `json:"recent_ideas"`
	TopUsers      []UserActivity              `json:"top_users"`
	TopIdeas      []models.Idea               `json:"top_ideas"`
}

type UserStats struct {
	Ideas     int64                       `json:"ideas"`
	VotesCast int64                       `json:"votes_cast"`
	Comments  int64                       `json:"comments"`
	ByStatus  map[models.IdeaStatus]int64 `json:"by_status"`
}

type StatsService struct {
	db    *gorm.DB
	cache *utils.Cache
	now   func() time.Time
}

func NewStatsService(db *gorm.DB, cache *utils.Cache) *StatsService {
	return &StatsService{db: db, cache: cache, now: time.Now}
}

// Global aggregates counters for the admin dashboard.
func (s *StatsService) Global(ctx context.Context, admin Identity) (*GlobalStats, error) {
	if !admin.HasAdminCapability() {
		return nil, errors.Wrap(ErrForbidden, "admin capability required")
	}
	key := statsCachePrefix + "global"
	if s.cache != nil {
		if cached, ok := s.cache.Get(key).(*GlobalStats); ok {
			return cached, nil
		}
	}

	db := s.db.WithContext(ctx)
	stats := &GlobalStats{}

	counts := []struct {
		dst   *int64
		model any
		where []any
	}{
		{&stats.TotalIdeas, &models.Idea{}, nil},
		{&stats.TotalUsers, &models.User{}, nil},
		{&stats.TotalVotes, &models.Vote{}, nil},
		{&stats.TotalComments, &models.Comment{}, nil},
		{&stats.ActiveCities, &models.City{}, []any{"is_active = ?", true}},
		{&stats.RecentIdeas, &models.Idea{}, []any{"created_at >= ?", s.now().Add(-recentWindow)}},
	}
	for _, c := range counts {
		q := db.Model(c.model)
		if c.where != nil {
			q = q.Where(c.where[0], c.where[1:]...)
		}
		if err := q.Count(c.dst).Error; err != nil {
			return nil, storeErr("count", err)
		}
	}

	var err error
	if stats.ByStatus, err = statusCounts(db.Model(&models.Idea{})); err != nil {
		return nil, err
	}

	if err := db.Model(&models.Idea{}).
		Select("category AS label, COUNT(*) AS total").
		Where("status = ?", models.StatusApproved).
		Group("category").
		Order("total DESC, category ASC").
		Scan(&stats.ByCategory).Error; err != nil {
		return nil, storeErr("count by category", err)
	}

	if err := db.Table("cities").
		Select("cities.name AS label, COUNT(ideas.id) AS total").
		Joins("LEFT JOIN ideas ON ideas.city_id = cities.id").
		Group("cities.id, cities.name").
		Order("total DESC, cities.name ASC").
		Scan(&stats.ByCity).Error; err != nil {
		return nil, storeErr("count by city", err)
	}

	if err := db.Table("users").
		Select("users.id AS user_id, users.username AS username, COUNT(ideas.id) AS idea_count").
		Joins("JOIN ideas ON ideas.user_id = users.id").
		Group("users.id, users.username").
		Order("idea_count DESC, users.username ASC").
		Limit(topN).
		Scan(&stats.TopUsers).Error; err != nil {
		return nil, storeErr("top users", err)
	}

	if err := db.Preload("User").
		Where("status = ?", models.StatusApproved).
		Order("votes_count DESC, id ASC").
		Limit(topN).
		Find(&stats.TopIdeas).Error; err != nil {
		return nil, storeErr("top ideas", err)
	}

	if s.cache != nil {
		s.cache.Set(key, stats, statsCacheTTL)
	}
	return stats, nil
}

// ForUser returns the activity counters shown on a profile.
func (s *StatsService) ForUser(ctx context.Context, userID uint) (*UserStats, error) {
	db := s.db.WithContext(ctx)
	stats := &UserStats{}

	if err := db.Model(&models.Idea{}).Where("user_id = ?", userID).Count(&stats.Ideas).Error; err != nil {
		return nil, storeErr("count ideas", err)
	}
	if err := db.Model(&models.Vote{}).Where("user_id = ?", userID).Count(&stats.VotesCast).Error; err != nil {
		return nil, storeErr("count votes", err)
	}
	if err := db.Model(&models.Comment{}).Where("user_id = ?", userID).Count(&stats.Comments).Error; err != nil {
		return nil, storeErr("count comments", err)
	}

	var err error
	if stats.ByStatus, err = statusCounts(db.Model(&models.Idea{}).Where("user_id = ?", userID)); err != nil {
		return nil, err
	}
	return stats, nil
}

// statusCounts groups the scoped ideas by status; every status is present.
func statusCounts(scope *gorm.DB) (map[models.IdeaStatus]int64, error) {
	var rows []CountRow
	if err := scope.Select("status AS label, COUNT(*) AS total").Group("status").Scan(&rows).Error; err != nil {
		return nil, storeErr("count by status", err)
	}
	out := map[models.IdeaStatus]int64{
		models.StatusPending:     0,
		models.StatusApproved:    0,
		models.StatusRejected:    0,
		models.StatusImplemented: 0,
	}
	for _, r := range rows {
		out[models.IdeaStatus(r.Label)] = r.Total
	}
	return out, nil
}
