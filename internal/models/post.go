package models

import "time"

// Post represents a post row in the database
type Post struct {
	ID        int64     `json:"id" db:"id"`                 // Primary key, monotonically assigned
	Title     string    `json:"title" db:"title"`           // Post title
	Body      string    `json:"body" db:"body"`             // Post content
	CreatedAt time.Time `json:"created_at" db:"created_at"` // Creation timestamp, UTC
	UserID    int64     `json:"user_id" db:"user_id"`       // Owner, immutable after creation

	AuthorName  string `json:"author_name" db:"author_name"`   // Joined from users.username
	AuthorPhoto string `json:"author_photo" db:"author_photo"` // Joined from users.photo
}
