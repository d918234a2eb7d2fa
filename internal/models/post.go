package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"
)

// TagList 以 JSON 文本存储标签数组，Postgres 和 SQLite 通用
type TagList []string

func (t TagList) Value() (driver.Value, error) {
	if t == nil {
		t = TagList{}
	}
	b, err := json.Marshal(t)
	return string(b), err
}

func (t *TagList) Scan(value interface{}) error {
	if value == nil {
		*t = TagList{}
		return nil
	}
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, t)
	case string:
		return json.Unmarshal([]byte(v), t)
	default:
		return errors.New("unsupported tag list source type")
	}
}

type Post struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	AuthorID     uint      `gorm:"not null;index" json:"author_id"`
	Author       User      `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	Title        string    `gorm:"size:200;not null" json:"title"`
	Content      string    `gorm:"type:text;not null" json:"content"`
	Tags         TagList   `gorm:"type:text" json:"tags"`
	ViewCount    int       `gorm:"default:0" json:"view_count"`
	LikeCount    int       `gorm:"default:0" json:"like_count"`    // 冗余计数，与 post_likes 行数同步更新
	CommentCount int       `gorm:"default:0" json:"comment_count"` // 冗余计数，与未删除评论同步更新
	IsDeleted    bool      `gorm:"default:false;index" json:"is_deleted"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
