package handlers

import (
	"net/http"
	"strings"

	"forumhub/internal/auth"
	"forumhub/internal/config"
	"forumhub/internal/middleware"
	"forumhub/internal/models"
	"forumhub/internal/utils"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type AuthHandler struct {
	db  *gorm.DB
	cfg *config.Config
}

func NewAuthHandler(db *gorm.DB, cfg *config.Config) *AuthHandler {
	return &AuthHandler{db: db, cfg: cfg}
}

type registerRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Register 注册（仅用户名 + 密码）
func (h *AuthHandler) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Fail(c, http.StatusBadRequest, "请求格式错误")
		return
	}

	req.Username = strings.TrimSpace(req.Username)
	nameLen := len([]rune(req.Username))
	if nameLen < 2 || nameLen > 50 {
		Fail(c, http.StatusBadRequest, "用户名长度为2-50字符")
		return
	}
	if len(req.Password) < 6 {
		Fail(c, http.StatusBadRequest, "密码至少6位")
		return
	}

	var count int64
	if err := h.db.Model(&models.User{}).Where("username = ?", req.Username).Count(&count).Error; err != nil {
		FailServer(c, err)
		return
	}
	if count > 0 {
		Fail(c, http.StatusBadRequest, "用户名已存在")
		return
	}

	hash, err := utils.HashPassword(req.Password)
	if err != nil {
		FailServer(c, err)
		return
	}

	user := models.User{
		Username:     req.Username,
		PasswordHash: hash,
		Role:         config.RoleUser,
	}
	if err := h.db.Create(&user).Error; err != nil {
		FailServer(c, err)
		return
	}

	token, err := auth.MakeToken(h.cfg, user.ID)
	if err != nil {
		FailServer(c, err)
		return
	}

	Created(c, gin.H{"user": user, "token": token})
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Login 登录。用户不存在和密码错误返回同一条消息，不泄露账号是否存在。
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Fail(c, http.StatusBadRequest, "请求格式错误")
		return
	}
	req.Username = strings.TrimSpace(req.Username)
	if req.Username == "" {
		Fail(c, http.StatusBadRequest, "请输入用户名")
		return
	}
	if req.Password == "" {
		Fail(c, http.StatusBadRequest, "请输入密码")
		return
	}

	var user models.User
	if err := h.db.Where("username = ?", req.Username).First(&user).Error; err != nil {
		Fail(c, http.StatusBadRequest, "用户名或密码错误")
		return
	}
	if !utils.CheckPasswordHash(req.Password, user.PasswordHash) {
		Fail(c, http.StatusBadRequest, "用户名或密码错误")
		return
	}

	token, err := auth.MakeToken(h.cfg, user.ID)
	if err != nil {
		FailServer(c, err)
		return
	}

	OK(c, gin.H{"user": user, "token": token})
}

// Me 获取当前用户信息
func (h *AuthHandler) Me(c *gin.Context) {
	user := c.MustGet(middleware.CheckUserKey).(*models.User)
	OK(c, user)
}
