package models

import (
	"time"
)

type IdeaStatus string

const (
	StatusPending     IdeaStatus = "pending"
	StatusApproved    IdeaStatus = "approved"
	StatusRejected    IdeaStatus = "rejected"
	StatusImplemented IdeaStatus = "implemented"
)

// Valid reports whether s is one of the four lifecycle states.
func (s IdeaStatus) Valid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected, StatusImplemented:
		return true
	}
	return false
}

// Public statuses are visible to everyone and accept comments.
func (s IdeaStatus) Public() bool {
	return s == StatusApproved || s == StatusImplemented
}

// Categories offered on the submission form.
var Categories = []string{
	"спорт",
	"культура",
	"детский досуг",
	"экология",
	"транспорт",
	"благоустройство",
	"образование",
	"здравоохранение",
}

type Idea struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	Title       string     `gorm:"size:200;not null" json:"title"`
	Description string     `gorm:"type:text;not null" json:"description"`
	Category    string     `gorm:"size:50;not null;index" json:"category"`
	Latitude    float64    `gorm:"not null" json:"latitude"`
	Longitude   float64    `gorm:"not null" json:"longitude"`
	UserID      uint       `gorm:"not null;index" json:"user_id"`
	User        User       `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"user"`
	CityID      *uint      `gorm:"index" json:"city_id"`
	City        *City      `gorm:"constraint:OnUpdate:CASCADE,OnDelete:SET NULL;" json:"city,omitempty"`
	Status      IdeaStatus `gorm:"type:varchar(20);default:'pending';not null;index" json:"status"`
	VotesCount  int        `gorm:"default:0;not null" json:"votes_count"`
	ViewsCount  int        `gorm:"default:0;not null" json:"views_count"`
	ImagePath   string     `gorm:"size:255" json:"image_path,omitempty"` // file name under the upload dir
	CreatedAt   time.Time  `gorm:"index" json:"created_at"`

	Comments []Comment `gorm:"foreignKey:IdeaID" json:"comments,omitempty"`
}
