package db

import (
	"log"
	"strings"

	"forumhub/internal/models"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Init 建立数据库连接并执行迁移。
// DATABASE_URL 以 sqlite:// 开头时使用纯 Go 的 SQLite 驱动，便于本地开发和测试。
func Init(dsn string) (*gorm.DB, error) {
	if dsn == "" {
		dsn = "host=localhost user=postgres password=postgres dbname=forumhub port=5432 sslmode=disable TimeZone=Asia/Shanghai"
	}

	var dialector gorm.Dialector
	if strings.HasPrefix(dsn, "sqlite://") {
		dialector = sqlite.Open(strings.TrimPrefix(dsn, "sqlite://"))
	} else {
		dialector = postgres.Open(dsn)
	}

	conn, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}

	if err := Migrate(conn); err != nil {
		return nil, err
	}
	log.Println("Database connection established")

	return conn, nil
}

// Migrate 同步全部表结构
func Migrate(conn *gorm.DB) error {
	return conn.AutoMigrate(
		&models.User{},
		&models.Post{},
		&models.Comment{},
		&models.PostLike{},
		&models.CommentLike{},
		&models.Notification{},
	)
}
