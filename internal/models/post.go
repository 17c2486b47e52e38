package models

import "time"

// PostPreviewLength is how many characters of text String() shows.
const PostPreviewLength = 15

// Post represents a user-authored text entry, optionally grouped and illustrated.
type Post struct {
	ID       uint   `gorm:"primaryKey" json:"id"`
	Text     string `gorm:"type:text;not null" json:"text"`
	Image    string `json:"image,omitempty"`
	GroupID  *uint  `gorm:"index" json:"group_id,omitempty"`
	Group    *Group `gorm:"foreignKey:GroupID;constraint:OnDelete:RESTRICT" json:"group,omitempty"`
	AuthorID uint   `gorm:"not null;index" json:"author_id"`
	Author   User   `gorm:"foreignKey:AuthorID;constraint:OnDelete:RESTRICT" json:"author"`
	// CreatedAt is set once on insert; updates never touch it.
	CreatedAt time.Time `gorm:"index;autoCreateTime;<-:create" json:"created_at"`
}

// String returns a short preview of the post text.
func (p Post) String() string {
	runes := []rune(p.Text)
	if len(runes) <= PostPreviewLength {
		return p.Text
	}
	return string(runes[:PostPreviewLength])
}
