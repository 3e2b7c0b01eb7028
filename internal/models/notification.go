package models

import (
	"time"
)

type NotificationType string

const (
	NotificationStatusChanged NotificationType = "status_changed"
	NotificationNewComment    NotificationType = "new_comment"
)

// Notification tells an idea's author that something happened to it.
type Notification struct {
	ID        uint             `gorm:"primaryKey" json:"id"`
	UserID    uint             `gorm:"not null;index" json:"user_id"` // receiver
	User      User             `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	ActorID   *uint            `gorm:"index" json:"actor_id"`
	Actor     *User            `gorm:"foreignKey:ActorID;constraint:OnUpdate:CASCADE,OnDelete:SET NULL;" json:"actor,omitempty"`
	IdeaID    uint             `gorm:"not null;index" json:"idea_id"`
	Idea      Idea             `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	Type      NotificationType `gorm:"type:varchar(20);not null" json:"type"`
	Message   string           `gorm:"type:text;not null" json:"message"`
	IsRead    bool             `gorm:"default:false;not null;index" json:"is_read"`
	CreatedAt time.Time        `gorm:"index" json:"created_at"`
}
