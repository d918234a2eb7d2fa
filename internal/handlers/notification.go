package handlers

import (
	"net/http"

	"forumhub/internal/middleware"
	"forumhub/internal/models"
	"forumhub/internal/utils"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type NotificationHandler struct {
	db *gorm.DB
}

func NewNotificationHandler(db *gorm.DB) *NotificationHandler {
	return &NotificationHandler{db: db}
}

// notificationView 通知行附带发送者信息和帖子标题
type notificationView struct {
	models.Notification
	SenderUsername *string `json:"sender_username"`
	SenderAvatar   *string `json:"sender_avatar"`
	PostTitle      *string `json:"post_title"`
}

// List 获取通知列表 GET /api/notifications?page&limit&unread
func (h *NotificationHandler) List(c *gin.Context) {
	user := c.MustGet(middleware.CheckUserKey).(*models.User)
	page, limit, offset := utils.ParsePage(c.Query("page"), c.Query("limit"), 20)

	query := h.db.Model(&models.Notification{}).Where("notifications.recipient_id = ?", user.ID)
	if c.Query("unread") == "true" {
		query = query.Where("notifications.is_read = ?", false)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		FailServer(c, err)
		return
	}

	var unreadCount int64
	if err := h.db.Model(&models.Notification{}).
		Where("recipient_id = ? AND is_read = ?", user.ID, false).
		Count(&unreadCount).Error; err != nil {
		FailServer(c, err)
		return
	}

	var notifications []notificationView
	err := query.
		Select("notifications.*, users.username AS sender_username, users.avatar AS sender_avatar, posts.title AS post_title").
		Joins("LEFT JOIN users ON notifications.sender_id = users.id").
		Joins("LEFT JOIN posts ON notifications.post_id = posts.id").
		Order("notifications.created_at DESC").
		Limit(limit).Offset(offset).
		Scan(&notifications).Error
	if err != nil {
		FailServer(c, err)
		return
	}
	if notifications == nil {
		notifications = []notificationView{}
	}

	OK(c, gin.H{
		"notifications": notifications,
		"total":         total,
		"unreadCount":   unreadCount,
		"page":          page,
		"limit":         limit,
	})
}

// UnreadCount 获取未读数量
func (h *NotificationHandler) UnreadCount(c *gin.Context) {
	user := c.MustGet(middleware.CheckUserKey).(*models.User)

	var count int64
	if err := h.db.Model(&models.Notification{}).
		Where("recipient_id = ? AND is_read = ?", user.ID, false).
		Count(&count).Error; err != nil {
		FailServer(c, err)
		return
	}
	OK(c, gin.H{"count": count})
}

// ReadAll 全部标记已读
func (h *NotificationHandler) ReadAll(c *gin.Context) {
	user := c.MustGet(middleware.CheckUserKey).(*models.User)

	err := h.db.Model(&models.Notification{}).
		Where("recipient_id = ?", user.ID).
		Update("is_read", true).Error
	if err != nil {
		FailServer(c, err)
		return
	}
	OKMessage(c, "已全部标记为已读")
}

// Read 标记单条已读，只能操作自己的通知
func (h *NotificationHandler) Read(c *gin.Context) {
	user := c.MustGet(middleware.CheckUserKey).(*models.User)

	err := h.db.Model(&models.Notification{}).
		Where("id = ? AND recipient_id = ?", c.Param("id"), user.ID).
		Update("is_read", true).Error
	if err != nil {
		FailServer(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}
