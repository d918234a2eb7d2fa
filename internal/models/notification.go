package models

import (
	"time"
)

type NotificationType string

const (
	NotificationTypePostComment  NotificationType = "post_comment"
	NotificationTypeCommentReply NotificationType = "comment_reply"
	NotificationTypeLikePost     NotificationType = "like_post"
	NotificationTypeLikeComment  NotificationType = "like_comment"
)

// Notification 行为产生的附带事件，创建后只会翻转 is_read
type Notification struct {
	ID          uint             `gorm:"primaryKey" json:"id"`
	RecipientID uint             `gorm:"not null;index" json:"recipient_id"`
	Recipient   User             `gorm:"foreignKey:RecipientID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	SenderID    *uint            `gorm:"index" json:"sender_id"`
	Sender      User             `gorm:"foreignKey:SenderID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	Type        NotificationType `gorm:"type:varchar(20);not null" json:"type"`
	PostID      *uint            `json:"post_id"`
	CommentID   *uint            `json:"comment_id"`
	IsRead      bool             `gorm:"default:false;index" json:"is_read"`
	CreatedAt   time.Time        `json:"created_at"`
}
