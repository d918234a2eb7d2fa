package handlers

import (
	"net/http"
	"strings"
	"time"

	"forumhub/internal/config"
	"forumhub/internal/middleware"
	"forumhub/internal/models"
	"forumhub/internal/utils"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// postListCachePrefix 帖子列表缓存键的公共前缀，
// 任何影响列表内容或排序的写操作都按此前缀失效
const postListCachePrefix = "posts:list:"

type PostHandler struct {
	db    *gorm.DB
	cache *utils.Cache
}

func NewPostHandler(db *gorm.DB, cache *utils.Cache) *PostHandler {
	return &PostHandler{db: db, cache: cache}
}

// postRow 帖子行附带作者信息
type postRow struct {
	models.Post
	Username string `json:"username"`
	Avatar   string `json:"avatar"`
}

// postListItem 列表项，正文截断为摘要
type postListItem struct {
	ID           uint           `json:"id"`
	Title        string         `json:"title"`
	Excerpt      string         `json:"excerpt"`
	ViewCount    int            `json:"view_count"`
	LikeCount    int            `json:"like_count"`
	CommentCount int            `json:"comment_count"`
	Tags         models.TagList `json:"tags"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	AuthorID     uint           `json:"author_id"`
	Username     string         `json:"username"`
	Avatar       string         `json:"avatar"`
}

type postDetail struct {
	models.Post
	Username    string `json:"username"`
	Avatar      string `json:"avatar"`
	AuthorBio   string `json:"author_bio"`
	Liked       bool   `json:"liked"`
	ContentHTML string `json:"content_html"`
}

// List 获取帖子列表 GET /api/posts?page&limit&search&sort&tag
func (h *PostHandler) List(c *gin.Context) {
	page, limit, offset := utils.ParsePage(c.Query("page"), c.Query("limit"), 15)
	search := c.Query("search")
	sort := c.DefaultQuery("sort", "latest")
	tag := c.Query("tag")

	// 列表不含用户私有状态，可以按查询参数共享缓存
	cacheKey := postListCachePrefix + c.Request.URL.RawQuery
	if cached := h.cache.Get(cacheKey); cached != nil {
		if data, ok := cached.(gin.H); ok {
			OK(c, data)
			return
		}
	}

	query := h.db.Model(&models.Post{}).Where("posts.is_deleted = ?", false)
	if search != "" {
		pattern := "%" + strings.ToLower(search) + "%"
		query = query.Where("LOWER(posts.title) LIKE ? OR LOWER(posts.content) LIKE ?", pattern, pattern)
	}
	if tag != "" && config.IsValidTag(tag) {
		// 标签以 JSON 文本存储，白名单值带引号匹配即可定位
		query = query.Where("posts.tags LIKE ?", `%"`+tag+`"%`)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		FailServer(c, err)
		return
	}

	orderClause := "posts.updated_at DESC"
	if sort == "hot" {
		orderClause = "posts.like_count DESC, posts.comment_count DESC"
	}

	var posts []postListItem
	err := query.
		Select("posts.id, posts.title, substr(posts.content, 1, 200) AS excerpt, " +
			"posts.view_count, posts.like_count, posts.comment_count, " +
			"posts.tags, posts.created_at, posts.updated_at, " +
			"posts.author_id, users.username, users.avatar").
		Joins("JOIN users ON posts.author_id = users.id").
		Order(orderClause).
		Limit(limit).Offset(offset).
		Scan(&posts).Error
	if err != nil {
		FailServer(c, err)
		return
	}
	if posts == nil {
		posts = []postListItem{}
	}

	data := gin.H{"posts": posts, "total": total, "page": page, "limit": limit}
	h.cache.Set(cacheKey, data, time.Minute)
	OK(c, data)
}

// Detail 获取帖子详情 GET /api/posts/:id
// 每次访问都计一次浏览量，同一用户重复访问也计数
func (h *PostHandler) Detail(c *gin.Context) {
	id := c.Param("id")

	if err := h.db.Model(&models.Post{}).Where("id = ?", id).
		UpdateColumn("view_count", gorm.Expr("view_count + 1")).Error; err != nil {
		FailServer(c, err)
		return
	}

	var detail postDetail
	err := h.db.Model(&models.Post{}).
		Select("posts.*, users.username, users.avatar, users.bio AS author_bio").
		Joins("JOIN users ON posts.author_id = users.id").
		Where("posts.id = ? AND posts.is_deleted = ?", id, false).
		Scan(&detail).Error
	if err != nil {
		FailServer(c, err)
		return
	}
	if detail.ID == 0 {
		Fail(c, http.StatusNotFound, "帖子不存在")
		return
	}

	if user := middleware.CurrentUser(c); user != nil {
		var count int64
		if err := h.db.Model(&models.PostLike{}).
			Where("post_id = ? AND user_id = ?", detail.ID, user.ID).
			Count(&count).Error; err != nil {
			FailServer(c, err)
			return
		}
		detail.Liked = count > 0
	}
	detail.ContentHTML = utils.RenderMarkdown(detail.Content)

	OK(c, detail)
}

type createPostRequest struct {
	Title   string   `json:"title"`
	Content string   `json:"content"`
	Tags    []string `json:"tags"`
}

// Create 创建帖子
func (h *PostHandler) Create(c *gin.Context) {
	user := c.MustGet(middleware.CheckUserKey).(*models.User)

	var req createPostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Fail(c, http.StatusBadRequest, "请求格式错误")
		return
	}
	if req.Title == "" || req.Content == "" {
		Fail(c, http.StatusBadRequest, "标题和内容不能为空")
		return
	}
	if len([]rune(req.Title)) > 200 {
		Fail(c, http.StatusBadRequest, "标题不能超过200字符")
		return
	}

	post := models.Post{
		AuthorID: user.ID,
		Title:    req.Title,
		Content:  req.Content,
		Tags:     config.FilterTags(req.Tags),
	}
	if err := h.db.Create(&post).Error; err != nil {
		FailServer(c, err)
		return
	}
	h.cache.DeletePrefix(postListCachePrefix)
	Created(c, post)
}

type updatePostRequest struct {
	Title   *string  `json:"title"`
	Content *string  `json:"content"`
	Tags    []string `json:"tags"`
}

// Update 更新帖子，作者或管理员可操作
func (h *PostHandler) Update(c *gin.Context) {
	user := c.MustGet(middleware.CheckUserKey).(*models.User)

	var post models.Post
	if err := h.db.Where("id = ? AND is_deleted = ?", c.Param("id"), false).First(&post).Error; err != nil {
		Fail(c, http.StatusNotFound, "帖子不存在")
		return
	}
	if post.AuthorID != user.ID && !user.IsAdmin() {
		Fail(c, http.StatusForbidden, "无权操作此帖子")
		return
	}

	var req updatePostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Fail(c, http.StatusBadRequest, "请求格式错误")
		return
	}

	if req.Title != nil && *req.Title != "" {
		if len([]rune(*req.Title)) > 200 {
			Fail(c, http.StatusBadRequest, "标题不能超过200字符")
			return
		}
		post.Title = *req.Title
	}
	if req.Content != nil && *req.Content != "" {
		post.Content = *req.Content
	}
	if req.Tags != nil {
		post.Tags = config.FilterTags(req.Tags)
	}

	if err := h.db.Save(&post).Error; err != nil {
		FailServer(c, err)
		return
	}
	h.cache.DeletePrefix(postListCachePrefix)
	OK(c, post)
}

// Delete 软删除帖子，作者或管理员可操作
func (h *PostHandler) Delete(c *gin.Context) {
	user := c.MustGet(middleware.CheckUserKey).(*models.User)

	var post models.Post
	if err := h.db.First(&post, "id = ?", c.Param("id")).Error; err != nil {
		Fail(c, http.StatusNotFound, "帖子不存在")
		return
	}
	if post.AuthorID != user.ID && !user.IsAdmin() {
		Fail(c, http.StatusForbidden, "无权操作此帖子")
		return
	}

	if err := h.db.Model(&post).Update("is_deleted", true).Error; err != nil {
		FailServer(c, err)
		return
	}
	h.cache.DeletePrefix(postListCachePrefix)
	OKMessage(c, "帖子已删除")
}

// Like 点赞/取消点赞 POST /api/posts/:id/like
// 点赞边、计数和通知在同一事务内完成，计数始终等于边行数
func (h *PostHandler) Like(c *gin.Context) {
	user := c.MustGet(middleware.CheckUserKey).(*models.User)

	var post models.Post
	if err := h.db.First(&post, "id = ?", c.Param("id")).Error; err != nil {
		Fail(c, http.StatusNotFound, "帖子不存在")
		return
	}

	liked := false
	err := h.db.Transaction(func(tx *gorm.DB) error {
		var existing models.PostLike
		if err := tx.Where("post_id = ? AND user_id = ?", post.ID, user.ID).
			First(&existing).Error; err == nil {
			if err := tx.Delete(&existing).Error; err != nil {
				return err
			}
			return tx.Model(&models.Post{}).Where("id = ?", post.ID).
				UpdateColumn("like_count", gorm.Expr("like_count - 1")).Error
		}

		like := models.PostLike{PostID: post.ID, UserID: user.ID}
		if err := tx.Create(&like).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.Post{}).Where("id = ?", post.ID).
			UpdateColumn("like_count", gorm.Expr("like_count + 1")).Error; err != nil {
			return err
		}
		liked = true

		// 给自己点赞不发通知
		if post.AuthorID != user.ID {
			notification := models.Notification{
				RecipientID: post.AuthorID,
				SenderID:    &user.ID,
				Type:        models.NotificationTypeLikePost,
				PostID:      &post.ID,
			}
			return tx.Create(&notification).Error
		}
		return nil
	})
	if err != nil {
		FailServer(c, err)
		return
	}

	// 点赞数影响 hot 排序
	h.cache.DeletePrefix(postListCachePrefix)
	c.JSON(http.StatusOK, gin.H{"success": true, "liked": liked})
}
