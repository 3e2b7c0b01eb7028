package services

import (
	"context"

	"cityideas/internal/models"

	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// NotificationService is the author's inbox: moderation decisions and new
// comments on their ideas.
type NotificationService struct {
	db *gorm.DB
}

func NewNotificationService(db *gorm.DB) *NotificationService {
	return &NotificationService{db: db}
}

// notify stores n inside the caller's transaction. Nobody is told about
// their own actions.
func notify(tx *gorm.DB, n models.Notification) error {
	if n.ActorID != nil && *n.ActorID == n.UserID {
		return nil
	}
	if err := tx.Omit(clause.Associations).Create(&n).Error; err != nil {
		return storeErr("create notification", err)
	}
	return nil
}

// List returns the newest notifications of the caller, unread first.
func (s *NotificationService) List(ctx context.Context, who Identity, limit int) ([]models.Notification, error) {
	if !who.IsAuthenticated() {
		return nil, errors.Wrap(ErrForbidden, "login required")
	}
	q := s.db.WithContext(ctx).Preload("Actor").
		Where("user_id = ?", who.UserID).
		Order("is_read ASC, created_at DESC, id DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	var notifications []models.Notification
	if err := q.Find(&notifications).Error; err != nil {
		return nil, storeErr("list notifications", err)
	}
	return notifications, nil
}

func (s *NotificationService) UnreadCount(ctx context.Context, who Identity) (int64, error) {
	if !who.IsAuthenticated() {
		return 0, nil
	}
	var n int64
	err := s.db.WithContext(ctx).Model(&models.Notification{}).
		Where("user_id = ? AND is_read = ?", who.UserID, false).
		Count(&n).Error
	if err != nil {
		return 0, storeErr("count notifications", err)
	}
	return n, nil
}

// MarkRead flags one of the caller's notifications. Someone else's id is
// reported as not found.
func (s *NotificationService) MarkRead(ctx context.Context, who Identity, id uint) error {
	if !who.IsAuthenticated() {
		return errors.Wrap(ErrForbidden, "login required")
	}
	res := s.db.WithContext(ctx).Model(&models.Notification{}).
		Where("id = ? AND user_id = ?", id, who.UserID).
		Update("is_read", true)
	if res.Error != nil {
		return storeErr("mark notification read", res.Error)
	}
	if res.RowsAffected == 0 {
		return errors.Wrapf(ErrNotFound, "notification %d", id)
	}
	return nil
}

// MarkAllRead returns how many notifications changed.
func (s *NotificationService) MarkAllRead(ctx context.Context, who Identity) (int64, error) {
	if !who.IsAuthenticated() {
		return 0, errors.Wrap(ErrForbidden, "login required")
	}
	res := s.db.WithContext(ctx).Model(&models.Notification{}).
		Where("user_id = ? AND is_read = ?", who.UserID, false).
		Update("is_read", true)
	if res.Error != nil {
		return 0, storeErr("mark notifications read", res.Error)
	}
	return res.RowsAffected, nil
}

func (s *NotificationService) Delete(ctx context.Context, who Identity, id uint) error {
	if !who.IsAuthenticated() {
		return errors.Wrap(ErrForbidden, "login required")
	}
	res := s.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, who.UserID).
		Delete(&models.Notification{})
	if res.Error != nil {
		return storeErr("delete notification", res.Error)
	}
	if res.RowsAffected == 0 {
		return errors.Wrapf(ErrNotFound, "notification %d", id)
	}
	return nil
}
