// Package models contains data structures for the application's domain models.
package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Thread is a post or a reply. Replies carry a ParentID and are listed in
// their parent's Children.
type Thread struct {
	ID          string    `gorm:"primaryKey;type:varchar(36)" bson:"_id" json:"id"`
	Text        string    `gorm:"type:text;not null" bson:"text" json:"text"`
	AuthorID    string    `gorm:"type:varchar(36);not null;index" bson:"author" json:"author_id"`
	CommunityID *string   `gorm:"type:varchar(36);index" bson:"community,omitempty" json:"community_id,omitempty"`
	ParentID    *string   `gorm:"type:varchar(36);index" bson:"parentId,omitempty" json:"parent_id,omitempty"`
	Children    []string  `gorm:"type:text;serializer:json" bson:"children" json:"children"`
	CreatedAt   time.Time `gorm:"index" bson:"createdAt" json:"created_at"`
	UpdatedAt   time.Time `bson:"updatedAt" json:"updated_at"`
}

// BeforeCreate assigns a UUID when the caller did not.
func (t *Thread) BeforeCreate(_ *gorm.DB) error {
	t.EnsureID()
	return nil
}

// EnsureID fills in a new UUID and non-nil reference slices.
func (t *Thread) EnsureID() {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	if t.Children == nil {
		t.Children = []string{}
	}
}

// IsTopLevel reports whether the thread is a post rather than a reply.
func (t *Thread) IsTopLevel() bool {
	return t.ParentID == nil || *t.ParentID == ""
}
