package models

import "time"

type User struct {
	ID        uint       `json:"id" gorm:"primaryKey"`
	Username  string     `json:"username" gorm:"size:150;uniqueIndex;not null"`
	Email     string     `json:"email" gorm:"size:254;index"`
	FirstName string     `json:"first_name" gorm:"size:150"`
	LastName  string     `json:"last_name" gorm:"size:150"`
	Password  string     `json:"-" gorm:"not null"`
	Role      Role       `json:"role" gorm:"size:20;not null"`
	IsActive  bool       `json:"is_active"`
	LastLogin *time.Time `json:"last_login,omitempty"`
	CreatedAt time.Time  `json:"date_joined"`
	UpdatedAt time.Time  `json:"updated_at"`
}

func (u User) IsAdmin() bool { return u.Role == RoleAdmin }
