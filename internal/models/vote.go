package models

import (
	"time"
)

// Vote is unique per (user_id, idea_id); the unique index is what makes
// concurrent duplicate votes collapse into one row.
type Vote struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_vote_user_idea" json:"user_id"`
	User      User      `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	IdeaID    uint      `gorm:"not null;index;uniqueIndex:idx_vote_user_idea" json:"idea_id"`
	Idea      Idea      `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	CreatedAt time.Time `json:"created_at"`
}
