package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User is a profile keyed internally by ID and externally by the auth
// provider's identifier.
type User struct {
	ID          string    `gorm:"primaryKey;type:varchar(36)" bson:"_id" json:"id"`
	ExternalID  string    `gorm:"type:varchar(255);uniqueIndex;not null" bson:"id" json:"auth_id"`
	Username    string    `gorm:"type:varchar(64);uniqueIndex;not null" bson:"username" json:"username"`
	Name        string    `gorm:"type:varchar(255);not null" bson:"name" json:"name"`
	Bio         string    `gorm:"type:text" bson:"bio" json:"bio"`
	Image       string    `gorm:"type:text" bson:"image" json:"image"`
	Onboarded   bool      `gorm:"not null;default:false" bson:"onboarded" json:"onboarded"`
	Threads     []string  `gorm:"type:text;serializer:json" bson:"threads" json:"threads"`
	Communities []string  `gorm:"type:text;serializer:json" bson:"communities" json:"communities"`
	CreatedAt   time.Time `gorm:"index" bson:"createdAt" json:"created_at"`
	UpdatedAt   time.Time `bson:"updatedAt" json:"updated_at"`
}

// BeforeCreate assigns a UUID when the caller did not.
func (u *User) BeforeCreate(_ *gorm.DB) error {
	u.EnsureID()
	return nil
}

// EnsureID fills in a new UUID and non-nil reference slices.
func (u *User) EnsureID() {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	if u.Threads == nil {
		u.Threads = []string{}
	}
	if u.Communities == nil {
		u.Communities = []string{}
	}
}

// UserSummary is the author projection embedded in thread views.
type UserSummary struct {
	ID         string `json:"id"`
	ExternalID string `json:"auth_id"`
	Username   string `json:"username"`
	Name       string `json:"name"`
	Image      string `json:"image"`
}

// Summary projects the user onto the fields a thread view shows.
func (u *User) Summary() *UserSummary {
	if u == nil {
		return nil
	}
	return &UserSummary{
		ID:         u.ID,
		ExternalID: u.ExternalID,
		Username:   u.Username,
		Name:       u.Name,
		Image:      u.Image,
	}
}
