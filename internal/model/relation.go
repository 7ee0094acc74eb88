package model

import "time"

type Comment struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	ImageID     uint      `gorm:"not null;index" json:"image"`
	Image       *Image    `gorm:"foreignKey:ImageID;constraint:OnDelete:CASCADE" json:"-"`
	UserID      uint      `gorm:"not null;index" json:"user"`
	User        *User     `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	CommentText string    `gorm:"type:text;not null" json:"comment_text"`
	CreatedAt   time.Time `json:"created_at"`
}

// Vote is unique per (image, user).
type Vote struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	ImageID   uint      `gorm:"not null;uniqueIndex:idx_vote_image_user" json:"image"`
	Image     *Image    `gorm:"foreignKey:ImageID;constraint:OnDelete:CASCADE" json:"-"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_vote_image_user;index" json:"user"`
	User      *User     `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	Upvote    bool      `gorm:"not null" json:"upvote"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
}

// Favourite is unique per (image, user).
type Favourite struct {
	ID      uint   `gorm:"primaryKey" json:"id"`
	ImageID uint   `gorm:"not null;uniqueIndex:idx_favourite_image_user" json:"image"`
	Image   *Image `gorm:"foreignKey:ImageID;constraint:OnDelete:CASCADE" json:"-"`
	UserID  uint   `gorm:"not null;uniqueIndex:idx_favourite_image_user;index" json:"user"`
	User    *User  `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
}

type Report struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	ImageID   uint      `gorm:"not null;index" json:"image"`
	Image     *Image    `gorm:"foreignKey:ImageID;constraint:OnDelete:CASCADE" json:"-"`
	UserID    *uint     `gorm:"index" json:"user"` // nil for anonymous reporters
	User      *User     `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	Comment   string    `gorm:"type:text;not null;default:''" json:"comment"`
	CreatedAt time.Time `json:"created_at"`
}

// All lists every persisted model in migration order.
func All() []any {
	return []any{&User{}, &Image{}, &Comment{}, &Vote{}, &Favourite{}, &Report{}}
}
