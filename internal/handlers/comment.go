package handlers

import (
	"net/http"
	"time"

	"forumhub/internal/middleware"
	"forumhub/internal/models"
	"forumhub/internal/utils"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type CommentHandler struct {
	db    *gorm.DB
	cache *utils.Cache
}

func NewCommentHandler(db *gorm.DB, cache *utils.Cache) *CommentHandler {
	return &CommentHandler{db: db, cache: cache}
}

// commentView 评论行附带作者信息、点赞状态和平铺后的回复
type commentView struct {
	models.Comment
	Username        string        `json:"username"`
	Avatar          string        `json:"avatar"`
	ReplyToUsername *string       `json:"reply_to_username,omitempty"`
	ReplyCount      int           `json:"reply_count"`
	Liked           bool          `json:"liked"`
	Replies         []commentView `json:"replies" gorm:"-"`
}

// ListByPost 获取帖子评论 GET /api/comments/post/:postId?page&limit
// 精选评论全部置顶（按精选时间正序），普通评论分页（按创建时间正序），
// 回复不再嵌套，统一平铺在各自顶级评论之下。
func (h *CommentHandler) ListByPost(c *gin.Context) {
	page, limit, offset := utils.ParsePage(c.Query("page"), c.Query("limit"), 10)
	postID := c.Param("postId")

	replyCountSelect := "comments.*, users.username, users.avatar, " +
		"(SELECT COUNT(*) FROM comments r WHERE r.parent_id = comments.id AND r.is_deleted = ?) AS reply_count"

	// 精选评论（不分页，全部显示在顶部）
	var featured []commentView
	err := h.db.Model(&models.Comment{}).
		Select(replyCountSelect, false).
		Joins("JOIN users ON comments.author_id = users.id").
		Where("comments.post_id = ? AND comments.parent_id IS NULL AND comments.is_deleted = ? AND comments.is_featured = ?",
			postID, false, true).
		Order("comments.featured_at ASC").
		Scan(&featured).Error
	if err != nil {
		FailServer(c, err)
		return
	}

	// 普通评论总数（排除精选）
	var total int64
	err = h.db.Model(&models.Comment{}).
		Where("post_id = ? AND parent_id IS NULL AND is_deleted = ? AND is_featured = ?", postID, false, false).
		Count(&total).Error
	if err != nil {
		FailServer(c, err)
		return
	}

	// 普通评论分页
	var normal []commentView
	err = h.db.Model(&models.Comment{}).
		Select(replyCountSelect, false).
		Joins("JOIN users ON comments.author_id = users.id").
		Where("comments.post_id = ? AND comments.parent_id IS NULL AND comments.is_deleted = ? AND comments.is_featured = ?",
			postID, false, false).
		Order("comments.created_at ASC").
		Limit(limit).Offset(offset).
		Scan(&normal).Error
	if err != nil {
		FailServer(c, err)
		return
	}

	topIDs := make([]uint, 0, len(featured)+len(normal))
	for _, cm := range featured {
		topIDs = append(topIDs, cm.ID)
	}
	for _, cm := range normal {
		topIDs = append(topIDs, cm.ID)
	}

	// 子评论
	var replies []commentView
	if len(topIDs) > 0 {
		err = h.db.Model(&models.Comment{}).
			Select("comments.*, users.username, users.avatar, ru.username AS reply_to_username").
			Joins("JOIN users ON comments.author_id = users.id").
			Joins("LEFT JOIN users ru ON comments.reply_to_user_id = ru.id").
			Where("comments.parent_id IN ? AND comments.is_deleted = ?", topIDs, false).
			Order("comments.created_at ASC").
			Scan(&replies).Error
		if err != nil {
			FailServer(c, err)
			return
		}
	}

	// 当前用户的点赞状态，未登录不查询
	likedIDs := make(map[uint]bool)
	if user := middleware.CurrentUser(c); user != nil {
		allIDs := make([]uint, 0, len(topIDs)+len(replies))
		allIDs = append(allIDs, topIDs...)
		for _, r := range replies {
			allIDs = append(allIDs, r.ID)
		}
		if len(allIDs) > 0 {
			var likes []models.CommentLike
			if err := h.db.Where("user_id = ? AND comment_id IN ?", user.ID, allIDs).
				Find(&likes).Error; err != nil {
				FailServer(c, err)
				return
			}
			for _, l := range likes {
				likedIDs[l.CommentID] = true
			}
		}
	}

	replyMap := make(map[uint][]commentView)
	for _, r := range replies {
		r.Liked = likedIDs[r.ID]
		r.Replies = []commentView{}
		replyMap[*r.ParentID] = append(replyMap[*r.ParentID], r)
	}

	attach := func(items []commentView) []commentView {
		out := make([]commentView, 0, len(items))
		for _, cm := range items {
			cm.Liked = likedIDs[cm.ID]
			cm.Replies = replyMap[cm.ID]
			if cm.Replies == nil {
				cm.Replies = []commentView{}
			}
			out = append(out, cm)
		}
		return out
	}

	OK(c, gin.H{
		"featured":      attach(featured),
		"comments":      attach(normal),
		"total":         total,
		"featuredTotal": len(featured),
		"page":          page,
		"limit":         limit,
	})
}

type createCommentRequest struct {
	PostID        uint   `json:"postId"`
	Content       string `json:"content"`
	ParentID      *uint  `json:"parentId"`
	ReplyToUserID *uint  `json:"replyToUserId"`
}

// Create 创建评论。评论行、帖子计数和通知在同一事务内落库。
// parent_id 原样入库，不在写入时限制层级，读取时统一平铺到顶级评论下。
func (h *CommentHandler) Create(c *gin.Context) {
	user := c.MustGet(middleware.CheckUserKey).(*models.User)

	var req createCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Fail(c, http.StatusBadRequest, "请求格式错误")
		return
	}
	if utils.StripHTML(req.Content) == "" {
		Fail(c, http.StatusBadRequest, "评论内容不能为空")
		return
	}

	var post models.Post
	if err := h.db.Where("id = ? AND is_deleted = ?", req.PostID, false).First(&post).Error; err != nil {
		Fail(c, http.StatusNotFound, "帖子不存在")
		return
	}

	comment := models.Comment{
		PostID:        post.ID,
		AuthorID:      user.ID,
		Content:       req.Content,
		ParentID:      req.ParentID,
		ReplyToUserID: req.ReplyToUserID,
	}

	err := h.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&comment).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.Post{}).Where("id = ?", post.ID).
			Updates(map[string]interface{}{
				"comment_count": gorm.Expr("comment_count + 1"),
				"updated_at":    time.Now(),
			}).Error; err != nil {
			return err
		}

		// 回复评论通知被回复者，直接评论通知帖子作者，不通知自己
		notifyUserID := post.AuthorID
		notifType := models.NotificationTypePostComment
		if req.ReplyToUserID != nil {
			notifyUserID = *req.ReplyToUserID
			notifType = models.NotificationTypeCommentReply
		}
		if notifyUserID != user.ID {
			notification := models.Notification{
				RecipientID: notifyUserID,
				SenderID:    &user.ID,
				Type:        notifType,
				PostID:      &post.ID,
				CommentID:   &comment.ID,
			}
			return tx.Create(&notification).Error
		}
		return nil
	})
	if err != nil {
		FailServer(c, err)
		return
	}

	// 评论数和更新时间影响帖子列表
	h.cache.DeletePrefix(postListCachePrefix)
	Created(c, commentView{
		Comment:  comment,
		Username: user.Username,
		Avatar:   user.Avatar,
		Liked:    false,
		Replies:  []commentView{},
	})
}

// Feature 设置/取消精选 PUT /api/comments/:id/feature
// 仅帖子作者或管理员可操作，且只能精选顶级评论
func (h *CommentHandler) Feature(c *gin.Context) {
	user := c.MustGet(middleware.CheckUserKey).(*models.User)

	var comment models.Comment
	if err := h.db.Where("id = ? AND is_deleted = ?", c.Param("id"), false).First(&comment).Error; err != nil {
		Fail(c, http.StatusNotFound, "评论不存在")
		return
	}

	var post models.Post
	if err := h.db.First(&post, "id = ?", comment.PostID).Error; err != nil {
		FailServer(c, err)
		return
	}
	if post.AuthorID != user.ID && !user.IsAdmin() {
		Fail(c, http.StatusForbidden, "只有帖子作者才能设置精选")
		return
	}
	if comment.ParentID != nil {
		Fail(c, http.StatusBadRequest, "只能对顶级评论设置精选")
		return
	}

	featured := !comment.IsFeatured
	var featuredAt *time.Time
	if featured {
		now := time.Now()
		featuredAt = &now
	}
	err := h.db.Model(&comment).Updates(map[string]interface{}{
		"is_featured": featured,
		"featured_at": featuredAt,
	}).Error
	if err != nil {
		FailServer(c, err)
		return
	}

	message := "已取消精选"
	if featured {
		message = "已设为精选"
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "is_featured": featured, "message": message})
}

// Delete 软删除评论，作者或管理员可操作，同事务内回收帖子计数
func (h *CommentHandler) Delete(c *gin.Context) {
	user := c.MustGet(middleware.CheckUserKey).(*models.User)

	var comment models.Comment
	if err := h.db.Where("id = ? AND is_deleted = ?", c.Param("id"), false).First(&comment).Error; err != nil {
		Fail(c, http.StatusNotFound, "评论不存在")
		return
	}
	if comment.AuthorID != user.ID && !user.IsAdmin() {
		Fail(c, http.StatusForbidden, "无权操作此评论")
		return
	}

	err := h.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&comment).Update("is_deleted", true).Error; err != nil {
			return err
		}
		// 计数保底不为负
		return tx.Model(&models.Post{}).
			Where("id = ? AND comment_count > 0", comment.PostID).
			UpdateColumn("comment_count", gorm.Expr("comment_count - 1")).Error
	})
	if err != nil {
		FailServer(c, err)
		return
	}
	h.cache.DeletePrefix(postListCachePrefix)
	OKMessage(c, "评论已删除")
}

// Like 点赞/取消点赞评论 POST /api/comments/:id/like
func (h *CommentHandler) Like(c *gin.Context) {
	user := c.MustGet(middleware.CheckUserKey).(*models.User)

	var comment models.Comment
	if err := h.db.First(&comment, "id = ?", c.Param("id")).Error; err != nil {
		Fail(c, http.StatusNotFound, "评论不存在")
		return
	}

	liked := false
	err := h.db.Transaction(func(tx *gorm.DB) error {
		var existing models.CommentLike
		if err := tx.Where("comment_id = ? AND user_id = ?", comment.ID, user.ID).
			First(&existing).Error; err == nil {
			if err := tx.Delete(&existing).Error; err != nil {
				return err
			}
			return tx.Model(&models.Comment{}).Where("id = ?", comment.ID).
				UpdateColumn("like_count", gorm.Expr("like_count - 1")).Error
		}

		like := models.CommentLike{CommentID: comment.ID, UserID: user.ID}
		if err := tx.Create(&like).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.Comment{}).Where("id = ?", comment.ID).
			UpdateColumn("like_count", gorm.Expr("like_count + 1")).Error; err != nil {
			return err
		}
		liked = true

		if comment.AuthorID != user.ID {
			notification := models.Notification{
				RecipientID: comment.AuthorID,
				SenderID:    &user.ID,
				Type:        models.NotificationTypeLikeComment,
				CommentID:   &comment.ID,
			}
			return tx.Create(&notification).Error
		}
		return nil
	})
	if err != nil {
		FailServer(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "liked": liked})
}

// AdminList 管理员：分页获取所有评论 GET /api/comments/admin/list
func (h *CommentHandler) AdminList(c *gin.Context) {
	page, limit, offset := utils.ParsePage(c.Query("page"), c.Query("limit"), 20)

	var total int64
	if err := h.db.Model(&models.Comment{}).Where("is_deleted = ?", false).Count(&total).Error; err != nil {
		FailServer(c, err)
		return
	}

	var comments []commentView
	err := h.db.Model(&models.Comment{}).
		Select("comments.*, users.username, users.avatar").
		Joins("JOIN users ON comments.author_id = users.id").
		Where("comments.is_deleted = ?", false).
		Order("comments.created_at DESC").
		Limit(limit).Offset(offset).
		Scan(&comments).Error
	if err != nil {
		FailServer(c, err)
		return
	}
	if comments == nil {
		comments = []commentView{}
	}

	OK(c, gin.H{"comments": comments, "total": total, "page": page, "limit": limit})
}
