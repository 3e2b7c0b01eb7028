package services

import (
	"context"
	"strings"

	"cityideas/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// IdeaFilter holds equality filters; zero fields are ignored.
type IdeaFilter struct {
	Status   models.IdeaStatus
	Statuses []models.IdeaStatus
	Category string
	CityID   uint
	AuthorID uint
}

type SortField string

const (
	SortCreatedAt SortField = "created_at"
	SortVotes     SortField = "votes_count"
	SortViews     SortField = "views_count"
	SortTitle     SortField = "title"
)

var sortable = map[SortField]bool{
	SortCreatedAt: true,
	SortVotes:     true,
	SortViews:     true,
	SortTitle:     true,
}

type IdeaOrder struct {
	Field      SortField
	Descending bool
}

// DefaultOrder lists newest ideas first.
var DefaultOrder = IdeaOrder{Field: SortCreatedAt, Descending: true}

// ParseOrder turns query-string values into an IdeaOrder. Empty values fall
// back to DefaultOrder.
func ParseOrder(field, direction string) (IdeaOrder, error) {
	order := DefaultOrder
	if field != "" {
		order.Field = SortField(field)
	}
	switch strings.ToLower(direction) {
	case "":
	case "asc":
		order.Descending = false
	case "desc":
		order.Descending = true
	default:
		return IdeaOrder{}, &ValidationError{Problems: []string{"Неизвестное направление сортировки: " + direction}}
	}
	if !sortable[order.Field] {
		return IdeaOrder{}, &ValidationError{Problems: []string{"Неизвестное поле сортировки: " + field}}
	}
	return order, nil
}

func (f IdeaFilter) apply(db *gorm.DB) *gorm.DB {
	if f.Status != "" {
		db = db.Where("status = ?", f.Status)
	}
	if len(f.Statuses) > 0 {
		db = db.Where("status IN ?", f.Statuses)
	}
	if f.Category != "" {
		db = db.Where("category = ?", f.Category)
	}
	if f.CityID != 0 {
		db = db.Where("city_id = ?", f.CityID)
	}
	if f.AuthorID != 0 {
		db = db.Where("user_id = ?", f.AuthorID)
	}
	return db
}

// ListIdeas returns ideas matching every filter in the requested order.
// A limit of 0 means no limit.
func (s *IdeaService) ListIdeas(ctx context.Context, filter IdeaFilter, order IdeaOrder, limit, offset int) ([]models.Idea, error) {
	if !sortable[order.Field] {
		return nil, &ValidationError{Problems: []string{"Неизвестное поле сортировки: " + string(order.Field)}}
	}

	query := filter.apply(s.db.WithContext(ctx).Model(&models.Idea{})).
		Preload("User").
		Preload("City").
		Order(clause.OrderByColumn{Column: clause.Column{Name: string(order.Field)}, Desc: order.Descending}).
		Order(clause.OrderByColumn{Column: clause.Column{Name: "id"}, Desc: order.Descending})
	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}

	var ideas []models.Idea
	if err := query.Find(&ideas).Error; err != nil {
		return nil, storeErr("list ideas", err)
	}
	return ideas, nil
}

// CountIdeas counts ideas matching the filter, for pagination.
func (s *IdeaService) CountIdeas(ctx context.Context, filter IdeaFilter) (int64, error) {
	var total int64
	if err := filter.apply(s.db.WithContext(ctx).Model(&models.Idea{})).Count(&total).Error; err != nil {
		return 0, storeErr("count ideas", err)
	}
	return total, nil
}

// LatestIdeas returns the newest approved ideas.
func (s *IdeaService) LatestIdeas(ctx context.Context, n int) ([]models.Idea, error) {
	return s.ListIdeas(ctx, IdeaFilter{Status: models.StatusApproved}, DefaultOrder, n, 0)
}

// PopularIdeas returns approved ideas with the most votes.
func (s *IdeaService) PopularIdeas(ctx context.Context, n int) ([]models.Idea, error) {
	return s.ListIdeas(ctx, IdeaFilter{Status: models.StatusApproved}, IdeaOrder{Field: SortVotes, Descending: true}, n, 0)
}

// ImplementedIdeas returns implemented ideas, newest first.
func (s *IdeaService) ImplementedIdeas(ctx context.Context, n int) ([]models.Idea, error) {
	return s.ListIdeas(ctx, IdeaFilter{Status: models.StatusImplemented}, DefaultOrder, n, 0)
}

// IdeasByAuthor returns every idea of one user regardless of status.
func (s *IdeaService) IdeasByAuthor(ctx context.Context, userID uint) ([]models.Idea, error) {
	return s.ListIdeas(ctx, IdeaFilter{AuthorID: userID}, DefaultOrder, 0, 0)
}

// MapIdeas returns approved and implemented ideas, optionally in one city.
func (s *IdeaService) MapIdeas(ctx context.Context, status models.IdeaStatus, cityID uint) ([]models.Idea, error) {
	filter := IdeaFilter{CityID: cityID}
	if status != "" {
		if !status.Public() {
			return nil, &ValidationError{Problems: []string{"Недопустимый статус для карты: " + string(status)}}
		}
		filter.Status = status
	} else {
		filter.Statuses = []models.IdeaStatus{models.StatusApproved, models.StatusImplemented}
	}
	return s.ListIdeas(ctx, filter, DefaultOrder, 0, 0)
}

// SitemapIdeas returns id and created_at of public ideas, newest first.
func (s *IdeaService) SitemapIdeas(ctx context.Context, limit int) ([]models.Idea, error) {
	var ideas []models.Idea
	err := s.db.WithContext(ctx).Model(&models.Idea{}).
		Select("id", "created_at").
		Where("status IN ?", []models.IdeaStatus{models.StatusApproved, models.StatusImplemented}).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&ideas).Error
	if err != nil {
		return nil, storeErr("list sitemap ideas", err)
	}
	return ideas, nil
}

// HasVoted reports whether the user already voted for the idea.
func (s *IdeaService) HasVoted(ctx context.Context, userID, ideaID uint) (bool, error) {
	if userID == 0 {
		return false, nil
	}
	var count int64
	err := s.db.WithContext(ctx).Model(&models.Vote{}).
		Where("user_id = ? AND idea_id = ?", userID, ideaID).
		Count(&count).Error
	if err != nil {
		return false, storeErr("check vote", err)
	}
	return count > 0, nil
}
