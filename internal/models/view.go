package models

import "time"

// ThreadView is a thread with its references resolved for display.
type ThreadView struct {
	ID        string            `json:"id"`
	Text      string            `json:"text"`
	ParentID  string            `json:"parent_id,omitempty"`
	Author    *UserSummary      `json:"author"`
	Community *CommunitySummary `json:"community"`
	Children  []*ThreadView     `json:"children"`
	CreatedAt time.Time         `json:"created_at"`
}

// Page is one offset-paginated slice of a result set.
type Page[T any] struct {
	Items  []T  `json:"items"`
	IsNext bool `json:"is_next"`
}

// UserThreads is a user together with the threads they authored.
type UserThreads struct {
	User    *User         `json:"user"`
	Threads []*ThreadView `json:"threads"`
}

// CommunityThreads is a community together with the threads posted under it.
type CommunityThreads struct {
	Community *Community    `json:"community"`
	Threads   []*ThreadView `json:"threads"`
}
