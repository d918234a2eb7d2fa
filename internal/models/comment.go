package models

import (
	"time"
)

type Comment struct {
	ID            uint       `gorm:"primaryKey" json:"id"`
	PostID        uint       `gorm:"not null;index" json:"post_id"`
	Post          Post       `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	AuthorID      uint       `gorm:"not null;index" json:"author_id"`
	Author        User       `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	ParentID      *uint      `gorm:"index" json:"parent_id"` // 顶级评论为 NULL
	ReplyToUserID *uint      `json:"reply_to_user_id"`
	Content       string     `gorm:"type:text;not null" json:"content"`
	LikeCount     int        `gorm:"default:0" json:"like_count"`
	IsFeatured    bool       `gorm:"default:false" json:"is_featured"` // 仅顶级评论可精选
	FeaturedAt    *time.Time `json:"featured_at"`                      // 同时是精选区的排序键
	IsDeleted     bool       `gorm:"default:false;index" json:"is_deleted"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}
