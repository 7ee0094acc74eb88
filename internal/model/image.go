package model

import "time"

type Image struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	UserID      *uint     `gorm:"index" json:"user"` // nil for images uploaded anonymously
	User        *User     `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	Title       string    `gorm:"size:100;not null;default:''" json:"title"`
	Description string    `gorm:"size:255;not null;default:''" json:"description"`
	Public      bool      `gorm:"not null" json:"public"`
	File        string    `gorm:"size:255;not null" json:"file"` // storage key of the payload
	CreatedAt   time.Time `gorm:"index" json:"created_at"`
}

// OwnedBy reports whether userID is the image owner. Anonymous images have no owner.
func (i *Image) OwnedBy(userID uint) bool {
	return i.UserID != nil && userID != 0 && *i.UserID == userID
}

func (i *Image) Anonymous() bool {
	return i.UserID == nil
}
