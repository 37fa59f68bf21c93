package entities

import "time"

type Book struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Title       string    `gorm:"index;size:512;not null" json:"title"`
	Author      string    `gorm:"index;size:256;not null" json:"author"`
	ISBN        string    `gorm:"uniqueIndex;size:32;not null" json:"isbn"`
	Genre       string    `gorm:"index;size:100;not null" json:"genre"`
	Description string    `gorm:"type:text" json:"description"`
	CoverURL    string    `gorm:"size:1024" json:"coverUrl"` // Path of the stored cover image
	UserID      uint      `gorm:"index;not null" json:"userId"`
	User        User      `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	Reviews     []Review  `gorm:"foreignKey:BookID;constraint:OnDelete:CASCADE" json:"reviews,omitempty"`
	CreatedAt   time.Time `gorm:"index" json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

type Review struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Text      string    `gorm:"type:text;not null" json:"text"`
	Rating    int       `gorm:"not null;check:chk_reviews_rating,rating BETWEEN 1 AND 5" json:"rating"`
	UserID    uint      `gorm:"index;not null" json:"userId"`
	User      User      `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	BookID    uint      `gorm:"index;not null" json:"bookId"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

const (
	MinRating = 1
	MaxRating = 5
)

// BookDetails is a book with its reviews and the derived average rating,
// formatted with one decimal ("4.5", "0.0"). Reviews is always serialised,
// even when empty.
type BookDetails struct {
	Book
	Reviews       []Review `json:"reviews"`
	AverageRating string   `json:"averageRating"`
}
