package models

import (
	"time"
)

// User defines the user model based on the 'users' table
type User struct {
	ID        int64     `json:"id" db:"id" example:"1"`
	Username  string    `json:"username" db:"username" example:"alice"`
	Password  string    `json:"-" db:"password"`
	RoleType  RoleType  `json:"role" db:"role_type" example:"user"`
	CreatedAt time.Time `json:"createdAt" db:"created_at" example:"2024-01-01T10:00:00Z"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at" example:"2024-01-02T15:30:00Z"`
}

// StudentRegistration is the one-time student profile captured before applying.
type StudentRegistration struct {
	ID          int64      `json:"id" db:"id"`
	UserID      int64      `json:"userId" db:"user_id"`
	FullName    string     `json:"fullName" db:"full_name"`
	DateOfBirth *time.Time `json:"dateOfBirth,omitempty" db:"date_of_birth"`
	Gender      string     `json:"gender" db:"gender"`
	Phone       string     `json:"phone" db:"phone"`
	Address     string     `json:"address" db:"address"`
	College     string     `json:"college" db:"college"`
	Course      string     `json:"course" db:"course"`
	Caste       string     `json:"caste" db:"caste"`
	IsOrphan    bool       `json:"isOrphan" db:"is_orphan"`
	IsDisabled  bool       `json:"isDisabled" db:"is_disabled"`
	CreatedAt   time.Time  `json:"createdAt" db:"created_at"`
	UpdatedAt   time.Time  `json:"updatedAt" db:"updated_at"`
}
