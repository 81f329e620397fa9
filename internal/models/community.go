package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Community is a named group threads can be posted under.
type Community struct {
	ID         string    `gorm:"primaryKey;type:varchar(36)" bson:"_id" json:"id"`
	ExternalID string    `gorm:"type:varchar(255);uniqueIndex;not null" bson:"id" json:"external_id"`
	Username   string    `gorm:"type:varchar(64)" bson:"username" json:"username"`
	Name       string    `gorm:"type:varchar(255);not null" bson:"name" json:"name"`
	Image      string    `gorm:"type:text" bson:"image" json:"image"`
	Bio        string    `gorm:"type:text" bson:"bio" json:"bio"`
	CreatedBy  string    `gorm:"type:varchar(36)" bson:"createdBy" json:"created_by"`
	Threads    []string  `gorm:"type:text;serializer:json" bson:"threads" json:"threads"`
	Members    []string  `gorm:"type:text;serializer:json" bson:"members" json:"members"`
	CreatedAt  time.Time `gorm:"index" bson:"createdAt" json:"created_at"`
	UpdatedAt  time.Time `bson:"updatedAt" json:"updated_at"`
}

// BeforeCreate assigns a UUID when the caller did not.
func (c *Community) BeforeCreate(_ *gorm.DB) error {
	c.EnsureID()
	return nil
}

// EnsureID fills in a new UUID and non-nil reference slices.
func (c *Community) EnsureID() {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if c.Threads == nil {
		c.Threads = []string{}
	}
	if c.Members == nil {
		c.Members = []string{}
	}
}

// CommunitySummary is the community projection embedded in thread views.
type CommunitySummary struct {
	ID         string `json:"id"`
	ExternalID string `json:"external_id"`
	Name       string `json:"name"`
	Image      string `json:"image"`
}

// Summary projects the community onto the fields a thread view shows.
func (c *Community) Summary() *CommunitySummary {
	if c == nil {
		return nil
	}
	return &CommunitySummary{
		ID:         c.ID,
		ExternalID: c.ExternalID,
		Name:       c.Name,
		Image:      c.Image,
	}
}
