package models

import (
	"time"
)

// PostLike 点赞边，(post_id, user_id) 唯一，每人每帖最多一条
type PostLike struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	PostID    uint      `gorm:"not null;uniqueIndex:idx_post_user" json:"post_id"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_post_user" json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}

// CommentLike 评论点赞边，(comment_id, user_id) 唯一
type CommentLike struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CommentID uint      `gorm:"not null;uniqueIndex:idx_comment_user" json:"comment_id"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_comment_user" json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}
