package models

import (
	"time"
)

type User struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Username     string    `gorm:"uniqueIndex;size:50;not null" json:"username"`
	PasswordHash string    `gorm:"not null" json:"-"`
	Role         string    `gorm:"size:20;default:'user';not null" json:"role"` // user, admin
	Avatar       string    `json:"avatar"`
	Bio          string    `gorm:"size:200" json:"bio"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
	// 用户不做硬删除
}

func (u *User) IsAdmin() bool {
	return u.Role == "admin"
}
