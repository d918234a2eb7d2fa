package auth

import (
	"errors"
	"strings"
	"time"

	"forumhub/internal/config"
	"forumhub/internal/models"

	"github.com/golang-jwt/jwt/v5"
	"gorm.io/gorm"
)

var (
	ErrNoToken      = errors.New("missing token")
	ErrInvalidToken = errors.New("invalid token")
)

// MakeToken 签发 HS256 令牌，sub 存用户 ID
func MakeToken(cfg *config.Config, userID uint) (string, error) {
	claims := jwt.MapClaims{
		"sub": float64(userID),
		"iat": time.Now().Unix(),
		"exp": time.Now().Add(cfg.JWTExpires).Unix(),
	}
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return tok.SignedString(cfg.JWTSecret)
}

// ParseToken 校验令牌并返回用户 ID。过期和篡改一律返回 ErrInvalidToken。
func ParseToken(cfg *config.Config, tokenStr string) (uint, error) {
	tok, err := jwt.Parse(tokenStr, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return cfg.JWTSecret, nil
	})
	if err != nil || !tok.Valid {
		return 0, ErrInvalidToken
	}
	mc, ok := tok.Claims.(jwt.MapClaims)
	if !ok {
		return 0, ErrInvalidToken
	}
	// JSON 数字经解析后是 float64
	sub, ok := mc["sub"].(float64)
	if !ok || sub <= 0 {
		return 0, ErrInvalidToken
	}
	return uint(sub), nil
}

// FromHeader 从 Authorization 头中取出 Bearer 令牌
func FromHeader(authz string) (string, error) {
	if authz == "" || !strings.HasPrefix(authz, "Bearer ") {
		return "", ErrNoToken
	}
	return strings.TrimPrefix(authz, "Bearer "), nil
}

// Authenticate 解析令牌并重新加载完整用户记录，每次请求都查库，不做缓存
func Authenticate(conn *gorm.DB, cfg *config.Config, tokenStr string) (*models.User, error) {
	userID, err := ParseToken(cfg, tokenStr)
	if err != nil {
		return nil, err
	}
	var user models.User
	if err := conn.First(&user, userID).Error; err != nil {
		return nil, ErrInvalidToken
	}
	return &user, nil
}
