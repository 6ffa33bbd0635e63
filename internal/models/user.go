package models

import (
	"strings"
	"time"
)

// DefaultPhoto is the sentinel photo name of a user who never uploaded one.
const DefaultPhoto = "default.jpg"

// CoursesDelimiter separates course labels in User.Courses.
const CoursesDelimiter = ";"

// User represents a user record in the database
type User struct {
	ID           int64     `json:"id" db:"id"`                 // Primary key
	Username     string    `json:"username" db:"username"`     // Display name
	Email        string    `json:"email" db:"email"`           // Unique email
	PasswordHash string    `json:"-" db:"password_hash"`       // bcrypt hash
	Photo        string    `json:"photo" db:"photo"`           // Stored photo name or DefaultPhoto
	Courses      string    `json:"courses" db:"courses"`       // Selected course labels joined by CoursesDelimiter
	CreatedAt    time.Time `json:"created_at" db:"created_at"` // Creation timestamp
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"` // Last update timestamp
}

// CourseList splits the stored courses string into labels.
func (u *User) CourseList() []string {
	if u.Courses == "" {
		return nil
	}
	return strings.Split(u.Courses, CoursesDelimiter)
}

// HasCourse reports whether label is one of the user's selected courses.
func (u *User) HasCourse(label string) bool {
	for _, c := range u.CourseList() {
		if c == label {
			return true
		}
	}
	return false
}

// JoinCourses encodes course labels the way they are stored on the user record.
func JoinCourses(labels []string) string {
	return strings.Join(labels, CoursesDelimiter)
}
