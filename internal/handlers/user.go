package handlers

import (
	"net/http"

	"forumhub/internal/middleware"
	"forumhub/internal/models"
	"forumhub/internal/utils"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type UserHandler struct {
	db *gorm.DB
}

func NewUserHandler(db *gorm.DB) *UserHandler {
	return &UserHandler{db: db}
}

// Profile 获取用户公开信息 GET /api/users/:id
func (h *UserHandler) Profile(c *gin.Context) {
	var user models.User
	if err := h.db.First(&user, "id = ?", c.Param("id")).Error; err != nil {
		Fail(c, http.StatusNotFound, "用户不存在")
		return
	}
	OK(c, user)
}

type updateProfileRequest struct {
	Username *string `json:"username"`
	Bio      *string `json:"bio"`
	Avatar   *string `json:"avatar"`
}

// UpdateProfile 更新个人信息，传了哪个字段就更新哪个字段
func (h *UserHandler) UpdateProfile(c *gin.Context) {
	user := c.MustGet(middleware.CheckUserKey).(*models.User)

	var req updateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Fail(c, http.StatusBadRequest, "请求格式错误")
		return
	}

	if req.Username != nil && *req.Username != "" {
		var count int64
		if err := h.db.Model(&models.User{}).
			Where("username = ? AND id != ?", *req.Username, user.ID).
			Count(&count).Error; err != nil {
			FailServer(c, err)
			return
		}
		if count > 0 {
			Fail(c, http.StatusBadRequest, "用户名已被占用")
			return
		}
		user.Username = *req.Username
	}
	if req.Bio != nil {
		user.Bio = *req.Bio
	}
	if req.Avatar != nil && *req.Avatar != "" {
		user.Avatar = *req.Avatar
	}

	if err := h.db.Save(user).Error; err != nil {
		FailServer(c, err)
		return
	}
	OK(c, user)
}

type changePasswordRequest struct {
	OldPassword string `json:"oldPassword"`
	NewPassword string `json:"newPassword"`
}

// ChangePassword 修改密码，需要先校验原密码
func (h *UserHandler) ChangePassword(c *gin.Context) {
	user := c.MustGet(middleware.CheckUserKey).(*models.User)

	var req changePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Fail(c, http.StatusBadRequest, "请求格式错误")
		return
	}
	if len(req.NewPassword) < 6 {
		Fail(c, http.StatusBadRequest, "新密码至少6位")
		return
	}

	if !utils.CheckPasswordHash(req.OldPassword, user.PasswordHash) {
		Fail(c, http.StatusBadRequest, "原密码错误")
		return
	}

	hash, err := utils.HashPassword(req.NewPassword)
	if err != nil {
		FailServer(c, err)
		return
	}
	if err := h.db.Model(user).Update("password_hash", hash).Error; err != nil {
		FailServer(c, err)
		return
	}
	OKMessage(c, "密码修改成功")
}

// Posts 获取用户的帖子列表 GET /api/users/:id/posts
func (h *UserHandler) Posts(c *gin.Context) {
	page, limit, offset := utils.ParsePage(c.Query("page"), c.Query("limit"), 10)
	authorID := c.Param("id")

	var total int64
	if err := h.db.Model(&models.Post{}).
		Where("author_id = ? AND is_deleted = ?", authorID, false).
		Count(&total).Error; err != nil {
		FailServer(c, err)
		return
	}

	var posts []postRow
	err := h.db.Model(&models.Post{}).
		Select("posts.*, users.username, users.avatar").
		Joins("JOIN users ON posts.author_id = users.id").
		Where("posts.author_id = ? AND posts.is_deleted = ?", authorID, false).
		Order("posts.created_at DESC").
		Limit(limit).Offset(offset).
		Scan(&posts).Error
	if err != nil {
		FailServer(c, err)
		return
	}

	OK(c, gin.H{"posts": posts, "total": total, "page": page, "limit": limit})
}

// AdminList 管理员：获取所有用户 GET /api/users/admin/list
func (h *UserHandler) AdminList(c *gin.Context) {
	var users []models.User
	if err := h.db.Order("created_at DESC").Find(&users).Error; err != nil {
		FailServer(c, err)
		return
	}
	OK(c, gin.H{"users": users})
}
