package services

import (
	"context"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"cityideas/internal/models"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ArtifactStore keeps uploaded images outside the database. Ideas only hold
// the returned name.
type ArtifactStore interface {
	Allowed(filename string) bool
	Save(filename string, r io.Reader) (string, error)
	Remove(name string) error
}

// IdeaService owns the idea lifecycle: submission, visibility, voting,
// commenting, moderation and deletion.
type IdeaService struct {
	db        *gorm.DB
	artifacts ArtifactStore
}

func NewIdeaService(db *gorm.DB, artifacts ArtifactStore) *IdeaService {
	return &IdeaService{db: db, artifacts: artifacts}
}

// IdeaInput is the raw submission as typed by the author. Coordinates stay
// strings so parsing problems are reported with the other problems.
type IdeaInput struct {
	Title       string
	Description string
	Category    string
	Latitude    string
	Longitude   string
	CityID      *uint
	ImageName   string
	Image       io.Reader // nil when no image was attached
}

// VoteResult reports whether a vote was recorded. A repeated vote is not an
// error: Accepted is false and the count is unchanged.
type VoteResult struct {
	Accepted   bool `json:"accepted"`
	VotesCount int  `json:"votes_count"`
}

// SubmitIdea validates the input, stores the optional image and creates the
// idea in pending status.
func (s *IdeaService) SubmitIdea(ctx context.Context, author Identity, in IdeaInput) (uint, error) {
	if !author.IsAuthenticated() {
		return 0, errors.Wrap(ErrForbidden, "login required to submit ideas")
	}

	idea, err := s.validateIdea(ctx, in)
	if err != nil {
		return 0, err
	}
	idea.UserID = author.UserID
	idea.Status = models.StatusPending

	// The artifact is written before the row, and removed again if the row
	// cannot be committed.
	if in.Image != nil && s.artifacts != nil {
		name, err := s.artifacts.Save(in.ImageName, in.Image)
		if err != nil {
			return 0, err
		}
		idea.ImagePath = name
	}

	if err := s.db.WithContext(ctx).Omit(clause.Associations).Create(idea).Error; err != nil {
		if idea.ImagePath != "" {
			if rmErr := s.artifacts.Remove(idea.ImagePath); rmErr != nil {
				log.Warn().Err(rmErr).Str("image", idea.ImagePath).Msg("failed to remove orphaned image")
			}
		}
		return 0, storeErr("create idea", err)
	}

	log.Info().Uint("idea_id", idea.ID).Uint("user_id", author.UserID).Msg("idea submitted")
	return idea.ID, nil
}

func (s *IdeaService) validateIdea(ctx context.Context, in IdeaInput) (*models.Idea, error) {
	var p problems
	idea := &models.Idea{
		Title:       strings.TrimSpace(in.Title),
		Description: strings.TrimSpace(in.Description),
		Category:    strings.TrimSpace(in.Category),
		CityID:      in.CityID,
	}

	if idea.Title == "" {
		p.add("Название обязательно")
	}
	if idea.Description == "" {
		p.add("Описание обязательно")
	}
	if idea.Category == "" {
		p.add("Категория обязательна")
	}

	lat, latErr := parseCoordinate(in.Latitude)
	lng, lngErr := parseCoordinate(in.Longitude)
	switch {
	case latErr != nil:
		p.add("Широта должна быть числом")
	case lat < -90 || lat > 90:
		p.add("Широта должна быть в диапазоне от -90 до 90")
	}
	switch {
	case lngErr != nil:
		p.add("Долгота должна быть числом")
	case lng < -180 || lng > 180:
		p.add("Долгота должна быть в диапазоне от -180 до 180")
	}
	idea.Latitude, idea.Longitude = lat, lng

	if in.CityID != nil {
		var count int64
		if err := s.db.WithContext(ctx).Model(&models.City{}).Where("id = ?", *in.CityID).Count(&count).Error; err != nil {
			return nil, storeErr("check city", err)
		}
		if count == 0 {
			p.add("Выбранный город не найден")
		}
	}

	if in.Image != nil && s.artifacts != nil && !s.artifacts.Allowed(in.ImageName) {
		p.add("Недопустимый формат изображения (разрешены png, jpg, jpeg, gif)")
	}

	if err := p.err(); err != nil {
		return nil, err
	}
	return idea, nil
}

func parseCoordinate(raw string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, strconv.ErrSyntax
	}
	return v, nil
}

// canSee applies the visibility rule: public statuses for everyone, the rest
// for the author and admins.
func canSee(viewer Identity, idea *models.Idea) bool {
	return idea.Status.Public() || viewer.HasAdminCapability() || viewer.Owns(idea.UserID)
}

// ViewIdea loads an idea with its author, city and comments. Each successful
// view by a logged-in viewer bumps views_count by one.
func (s *IdeaService) ViewIdea(ctx context.Context, viewer Identity, ideaID uint) (*models.Idea, error) {
	var idea models.Idea
	err := s.db.WithContext(ctx).
		Preload("User").
		Preload("City").
		Preload("Comments", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC, id ASC")
		}).
		Preload("Comments.User").
		First(&idea, ideaID).Error
	if err != nil {
		return nil, lookupErr("load idea", err)
	}

	if !canSee(viewer, &idea) {
		return nil, errors.Wrapf(ErrForbidden, "idea %d is %s", idea.ID, idea.Status)
	}

	if viewer.IsAuthenticated() {
		if err := s.db.WithContext(ctx).Model(&models.Idea{}).
			Where("id = ?", idea.ID).
			UpdateColumn("views_count", gorm.Expr("views_count + ?", 1)).Error; err != nil {
			return nil, storeErr("count view", err)
		}
		idea.ViewsCount++
	}
	return &idea, nil
}

// CastVote records one vote per user and idea. The unique index on
// (user_id, idea_id) decides races; the counter moves in the same transaction.
func (s *IdeaService) CastVote(ctx context.Context, voter Identity, ideaID uint) (VoteResult, error) {
	if !voter.IsAuthenticated() {
		return VoteResult{}, errors.Wrap(ErrForbidden, "login required to vote")
	}

	var result VoteResult
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var idea models.Idea
		if err := tx.Select("id", "status", "votes_count").First(&idea, ideaID).Error; err != nil {
			return lookupErr("load idea", err)
		}
		if idea.Status != models.StatusApproved {
			return errors.Wrapf(ErrForbidden, "voting is closed for %s ideas", idea.Status)
		}

		vote := models.Vote{UserID: voter.UserID, IdeaID: ideaID}
		res := tx.Omit(clause.Associations).
			Clauses(clause.OnConflict{DoNothing: true}).
			Create(&vote)
		if res.Error != nil {
			return storeErr("insert vote", res.Error)
		}
		if res.RowsAffected == 0 {
			result = VoteResult{Accepted: false, VotesCount: idea.VotesCount}
			return nil
		}

		if err := tx.Model(&models.Idea{}).
			Where("id = ?", ideaID).
			UpdateColumn("votes_count", gorm.Expr("votes_count + ?", 1)).Error; err != nil {
			return storeErr("increment votes", err)
		}

		var counts []int
		if err := tx.Model(&models.Idea{}).Where("id = ?", ideaID).Pluck("votes_count", &counts).Error; err != nil {
			return storeErr("read votes", err)
		}
		result.Accepted = true
		if len(counts) > 0 {
			result.VotesCount = counts[0]
		}
		return nil
	})
	if err != nil {
		return VoteResult{}, err
	}

	if result.Accepted {
		log.Debug().Uint("idea_id", ideaID).Uint("user_id", voter.UserID).Int("votes", result.VotesCount).Msg("vote cast")
	}
	return result, nil
}

// PostComment appends a comment to an approved or implemented idea.
func (s *IdeaService) PostComment(ctx context.Context, author Identity, ideaID uint, text string) (uint, error) {
	if !author.IsAuthenticated() {
		return 0, errors.Wrap(ErrForbidden, "login required to comment")
	}

	var idea models.Idea
	if err := s.db.WithContext(ctx).Select("id", "title", "status", "user_id").First(&idea, ideaID).Error; err != nil {
		return 0, lookupErr("load idea", err)
	}
	if !idea.Status.Public() {
		return 0, errors.Wrapf(ErrForbidden, "comments are closed for %s ideas", idea.Status)
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return 0, &ValidationError{Problems: []string{"Комментарий не может быть пустым"}}
	}

	comment := models.Comment{Text: text, UserID: author.UserID, IdeaID: ideaID}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(&comment).Error; err != nil {
			return storeErr("create comment", err)
		}
		return notify(tx, models.Notification{
			UserID:  idea.UserID,
			ActorID: &author.UserID,
			IdeaID:  idea.ID,
			Type:    models.NotificationNewComment,
			Message: fmt.Sprintf("%s оставил(а) комментарий к идее «%s»", author.Username, idea.Title),
		})
	})
	if err != nil {
		return 0, err
	}
	return comment.ID, nil
}

// Comments returns an idea's comments oldest first.
func (s *IdeaService) Comments(ctx context.Context, ideaID uint) ([]models.Comment, error) {
	var comments []models.Comment
	err := s.db.WithContext(ctx).Preload("User").
		Where("idea_id = ?", ideaID).
		Order("created_at ASC, id ASC").
		Find(&comments).Error
	if err != nil {
		return nil, storeErr("list comments", err)
	}
	return comments, nil
}

var transitions = map[models.IdeaStatus][]models.IdeaStatus{
	models.StatusPending:  {models.StatusApproved, models.StatusRejected},
	models.StatusApproved: {models.StatusImplemented},
}

// CanTransition reports whether moderation may move an idea from one status
// to another.
func CanTransition(from, to models.IdeaStatus) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// TransitionStatus moves an idea along the moderation lifecycle. Only admins
// may call it and only the legal transitions are accepted.
func (s *IdeaService) TransitionStatus(ctx context.Context, admin Identity, ideaID uint, to models.IdeaStatus) (*models.Idea, error) {
	if !admin.HasAdminCapability() {
		return nil, errors.Wrap(ErrForbidden, "admin capability required")
	}
	if !to.Valid() {
		return nil, &ValidationError{Problems: []string{"Неизвестный статус: " + string(to)}}
	}

	var idea models.Idea
	if err := s.db.WithContext(ctx).Preload("User").First(&idea, ideaID).Error; err != nil {
		return nil, lookupErr("load idea", err)
	}
	from := idea.Status
	if !CanTransition(from, to) {
		return nil, errors.Wrapf(ErrForbidden, "cannot move idea from %s to %s", from, to)
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Conditional on the status we checked, so two admins racing cannot both win.
		res := tx.Model(&models.Idea{}).
			Where("id = ? AND status = ?", idea.ID, from).
			Update("status", to)
		if res.Error != nil {
			return storeErr("update status", res.Error)
		}
		if res.RowsAffected == 0 {
			return errors.Wrapf(ErrConflict, "idea %d changed status concurrently", idea.ID)
		}
		return notify(tx, models.Notification{
			UserID:  idea.UserID,
			ActorID: &admin.UserID,
			IdeaID:  idea.ID,
			Type:    models.NotificationStatusChanged,
			Message: fmt.Sprintf("Ваша идея «%s» %s", idea.Title, StatusTitle(to)),
		})
	})
	if err != nil {
		return nil, err
	}

	idea.Status = to
	log.Info().Uint("idea_id", idea.ID).Str("from", string(from)).Str("to", string(to)).Uint("admin_id", admin.UserID).Msg("idea status changed")
	return &idea, nil
}

// DeleteIdea removes an idea together with its comments and votes. The image
// is released after the rows are gone; failing to release it is only logged.
func (s *IdeaService) DeleteIdea(ctx context.Context, caller Identity, ideaID uint) error {
	if !caller.IsAuthenticated() {
		return errors.Wrap(ErrForbidden, "login required to delete ideas")
	}

	var idea models.Idea
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Select("id", "user_id", "image_path").First(&idea, ideaID).Error; err != nil {
			return lookupErr("load idea", err)
		}
		if !caller.HasAdminCapability() && !caller.Owns(idea.UserID) {
			return errors.Wrapf(ErrForbidden, "user %d cannot delete idea %d", caller.UserID, idea.ID)
		}
		if err := tx.Where("idea_id = ?", idea.ID).Delete(&models.Comment{}).Error; err != nil {
			return storeErr("delete comments", err)
		}
		if err := tx.Where("idea_id = ?", idea.ID).Delete(&models.Vote{}).Error; err != nil {
			return storeErr("delete votes", err)
		}
		if err := tx.Where("idea_id = ?", idea.ID).Delete(&models.Notification{}).Error; err != nil {
			return storeErr("delete notifications", err)
		}
		if err := tx.Delete(&models.Idea{}, idea.ID).Error; err != nil {
			return storeErr("delete idea", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	if idea.ImagePath != "" && s.artifacts != nil {
		if err := s.artifacts.Remove(idea.ImagePath); err != nil {
			log.Warn().Err(err).Str("image", idea.ImagePath).Uint("idea_id", idea.ID).Msg("failed to remove idea image")
		}
	}
	log.Info().Uint("idea_id", idea.ID).Uint("by", caller.UserID).Msg("idea deleted")
	return nil
}
