package handlers_test

import (
	"fmt"
	"net/http"
	"testing"

	"forumhub/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreatePost(t *testing.T) {
	app := newTestApp(t)
	_, token := app.createUser(t, "alice", "user")

	w := app.request(t, http.MethodPost, "/api/posts", token, map[string]interface{}{
		"title":   "第一帖",
		"content": "帖子正文",
		"tags":    []string{"开发", "不存在的标签", "其他"},
	})
	requireStatus(t, w, http.StatusCreated)

	var post models.Post
	decodeData(t, w, &post)
	assert.Equal(t, "第一帖", post.Title)
	// 白名单外的标签被静默过滤
	assert.Equal(t, models.TagList{"开发", "其他"}, post.Tags)

	w = app.request(t, http.MethodPost, "/api/posts", token, map[string]interface{}{
		"title": "", "content": "正文",
	})
	requireStatus(t, w, http.StatusBadRequest)
	assert.Equal(t, "标题和内容不能为空", decode(t, w).Message)
}

func TestPostListSearchAndSort(t *testing.T) {
	app := newTestApp(t)
	author, _ := app.createUser(t, "alice", "user")

	p1 := app.createPost(t, author, "Golang 入门")
	p2 := app.createPost(t, author, "稽核流程说明")
	require.NoError(t, app.db.Model(p2).Updates(map[string]interface{}{
		"tags": models.TagList{"稽核"}, "like_count": 5,
	}).Error)
	require.NoError(t, app.db.Model(p1).Update("like_count", 2).Error)

	type listResp struct {
		Posts []struct {
			ID      uint   `json:"id"`
			Title   string `json:"title"`
			Excerpt string `json:"excerpt"`
		} `json:"posts"`
		Total int `json:"total"`
		Page  int `json:"page"`
		Limit int `json:"limit"`
	}

	var resp listResp
	w := app.request(t, http.MethodGet, "/api/posts", "", nil)
	requireStatus(t, w, http.StatusOK)
	decodeData(t, w, &resp)
	assert.Equal(t, 2, resp.Total)
	assert.Len(t, resp.Posts, 2)

	// 搜索匹配标题或正文
	w = app.request(t, http.MethodGet, "/api/posts?search=golang", "", nil)
	decodeData(t, w, &resp)
	require.Len(t, resp.Posts, 1)
	assert.Equal(t, p1.ID, resp.Posts[0].ID)

	// 标签筛选只认白名单值
	w = app.request(t, http.MethodGet, "/api/posts?tag=稽核", "", nil)
	decodeData(t, w, &resp)
	require.Len(t, resp.Posts, 1)
	assert.Equal(t, p2.ID, resp.Posts[0].ID)

	w = app.request(t, http.MethodGet, "/api/posts?tag=乱写的", "", nil)
	decodeData(t, w, &resp)
	assert.Equal(t, 2, resp.Total)

	// hot 按点赞数排序
	w = app.request(t, http.MethodGet, "/api/posts?sort=hot", "", nil)
	decodeData(t, w, &resp)
	require.Len(t, resp.Posts, 2)
	assert.Equal(t, p2.ID, resp.Posts[0].ID)

	// 软删除后不再出现（换分页参数绕过列表缓存）
	require.NoError(t, app.db.Model(p1).Update("is_deleted", true).Error)
	w = app.request(t, http.MethodGet, "/api/posts?page=1&limit=50", "", nil)
	decodeData(t, w, &resp)
	assert.Equal(t, 1, resp.Total)
}

func TestPostListCacheInvalidatedOnWrite(t *testing.T) {
	app := newTestApp(t)
	author, token := app.createUser(t, "alice", "user")
	post := app.createPost(t, author, "待删除帖")

	type listResp struct {
		Posts []struct {
			ID    uint   `json:"id"`
			Title string `json:"title"`
		} `json:"posts"`
		Total int `json:"total"`
	}

	// 预热缓存
	var resp listResp
	w := app.request(t, http.MethodGet, "/api/posts", "", nil)
	requireStatus(t, w, http.StatusOK)
	decodeData(t, w, &resp)
	assert.Equal(t, 1, resp.Total)

	// 删除后同样的查询不能再吐出缓存里的旧列表
	w = app.request(t, http.MethodDelete, fmt.Sprintf("/api/posts/%d", post.ID), token, nil)
	requireStatus(t, w, http.StatusOK)

	w = app.request(t, http.MethodGet, "/api/posts", "", nil)
	decodeData(t, w, &resp)
	assert.Equal(t, 0, resp.Total)
	assert.Empty(t, resp.Posts)

	// 新帖立即可见
	w = app.request(t, http.MethodPost, "/api/posts", token, map[string]interface{}{
		"title": "新帖", "content": "正文",
	})
	requireStatus(t, w, http.StatusCreated)

	w = app.request(t, http.MethodGet, "/api/posts", "", nil)
	decodeData(t, w, &resp)
	require.Len(t, resp.Posts, 1)
	assert.Equal(t, "新帖", resp.Posts[0].Title)
}

func TestPostListCacheInvalidatedOnLikeAndComment(t *testing.T) {
	app := newTestApp(t)
	author, _ := app.createUser(t, "alice", "user")
	_, token := app.createUser(t, "bob", "user")
	p1 := app.createPost(t, author, "冷帖")
	p2 := app.createPost(t, author, "热帖")

	type listResp struct {
		Posts []struct {
			ID           uint `json:"id"`
			CommentCount int  `json:"comment_count"`
		} `json:"posts"`
	}

	var resp listResp
	w := app.request(t, http.MethodGet, "/api/posts?sort=hot", "", nil)
	requireStatus(t, w, http.StatusOK)
	decodeData(t, w, &resp)
	require.Len(t, resp.Posts, 2)

	// 点赞改变 hot 排序，缓存必须跟着失效
	w = app.request(t, http.MethodPost, fmt.Sprintf("/api/posts/%d/like", p2.ID), token, nil)
	requireStatus(t, w, http.StatusOK)

	w = app.request(t, http.MethodGet, "/api/posts?sort=hot", "", nil)
	decodeData(t, w, &resp)
	assert.Equal(t, p2.ID, resp.Posts[0].ID)

	// 评论改变评论数，同理
	w = app.request(t, http.MethodPost, "/api/comments", token, map[string]interface{}{
		"postId": p1.ID, "content": "评一句",
	})
	requireStatus(t, w, http.StatusCreated)

	w = app.request(t, http.MethodGet, "/api/posts?sort=hot", "", nil)
	decodeData(t, w, &resp)
	for _, p := range resp.Posts {
		if p.ID == p1.ID {
			assert.Equal(t, 1, p.CommentCount)
		}
	}
}

func TestPostDetailCountsEveryView(t *testing.T) {
	app := newTestApp(t)
	author, _ := app.createUser(t, "alice", "user")
	post := app.createPost(t, author, "浏览计数")

	var detail struct {
		ID        uint `json:"id"`
		ViewCount int  `json:"view_count"`
		Liked     bool `json:"liked"`
	}

	w := app.request(t, http.MethodGet, fmt.Sprintf("/api/posts/%d", post.ID), "", nil)
	requireStatus(t, w, http.StatusOK)
	decodeData(t, w, &detail)
	assert.Equal(t, 1, detail.ViewCount)
	assert.False(t, detail.Liked)

	// 同一来源重复访问照样计数
	w = app.request(t, http.MethodGet, fmt.Sprintf("/api/posts/%d", post.ID), "", nil)
	decodeData(t, w, &detail)
	assert.Equal(t, 2, detail.ViewCount)
}

func TestPostDeleteOwnership(t *testing.T) {
	app := newTestApp(t)
	author, authorToken := app.createUser(t, "alice", "user")
	_, otherToken := app.createUser(t, "bob", "user")
	_, adminToken := app.createUser(t, "root", "admin")

	post := app.createPost(t, author, "待删除")

	// 非作者非管理员删除被拒
	w := app.request(t, http.MethodDelete, fmt.Sprintf("/api/posts/%d", post.ID), otherToken, nil)
	requireStatus(t, w, http.StatusForbidden)

	w = app.request(t, http.MethodDelete, fmt.Sprintf("/api/posts/%d", post.ID), authorToken, nil)
	requireStatus(t, w, http.StatusOK)

	// 软删除后详情 404
	w = app.request(t, http.MethodGet, fmt.Sprintf("/api/posts/%d", post.ID), "", nil)
	requireStatus(t, w, http.StatusNotFound)

	// 行还在库里，只是打了删除标记
	var fromDB models.Post
	require.NoError(t, app.db.First(&fromDB, post.ID).Error)
	assert.True(t, fromDB.IsDeleted)

	// 管理员可以删除他人帖子
	post2 := app.createPost(t, author, "管理员删除")
	w = app.request(t, http.MethodDelete, fmt.Sprintf("/api/posts/%d", post2.ID), adminToken, nil)
	requireStatus(t, w, http.StatusOK)
}

func TestPostUpdateOwnership(t *testing.T) {
	app := newTestApp(t)
	author, authorToken := app.createUser(t, "alice", "user")
	_, otherToken := app.createUser(t, "bob", "user")

	post := app.createPost(t, author, "原标题")

	w := app.request(t, http.MethodPut, fmt.Sprintf("/api/posts/%d", post.ID), otherToken,
		map[string]string{"title": "改不了"})
	requireStatus(t, w, http.StatusForbidden)

	w = app.request(t, http.MethodPut, fmt.Sprintf("/api/posts/%d", post.ID), authorToken,
		map[string]string{"title": "新标题"})
	requireStatus(t, w, http.StatusOK)

	var updated models.Post
	decodeData(t, w, &updated)
	assert.Equal(t, "新标题", updated.Title)
	assert.Equal(t, post.Content, updated.Content)
}

func TestPostLikeToggle(t *testing.T) {
	app := newTestApp(t)
	author, _ := app.createUser(t, "alice", "user")
	liker, likerToken := app.createUser(t, "bob", "user")

	post := app.createPost(t, author, "点赞对象")
	path := fmt.Sprintf("/api/posts/%d/like", post.ID)

	likeCount := func() int {
		var p models.Post
		require.NoError(t, app.db.First(&p, post.ID).Error)
		return p.LikeCount
	}
	edgeCount := func() int64 {
		var n int64
		require.NoError(t, app.db.Model(&models.PostLike{}).
			Where("post_id = ? AND user_id = ?", post.ID, liker.ID).Count(&n).Error)
		return n
	}

	// 第一次点赞
	w := app.request(t, http.MethodPost, path, likerToken, nil)
	requireStatus(t, w, http.StatusOK)
	env := decode(t, w)
	require.NotNil(t, env.Liked)
	assert.True(t, *env.Liked)
	assert.Equal(t, 1, likeCount())
	assert.EqualValues(t, 1, edgeCount())

	// 作者收到通知
	var notif models.Notification
	require.NoError(t, app.db.Where("recipient_id = ? AND type = ?",
		author.ID, models.NotificationTypeLikePost).First(&notif).Error)
	assert.Equal(t, liker.ID, *notif.SenderID)

	// 第二次取消，计数回落到点赞边行数
	w = app.request(t, http.MethodPost, path, likerToken, nil)
	env = decode(t, w)
	assert.False(t, *env.Liked)
	assert.Equal(t, 0, likeCount())
	assert.EqualValues(t, 0, edgeCount())

	// 第三次重新点赞，开关不粘滞
	w = app.request(t, http.MethodPost, path, likerToken, nil)
	env = decode(t, w)
	assert.True(t, *env.Liked)
	assert.Equal(t, 1, likeCount())
}

func TestPostSelfLikeNoNotification(t *testing.T) {
	app := newTestApp(t)
	author, token := app.createUser(t, "alice", "user")
	post := app.createPost(t, author, "自赞")

	w := app.request(t, http.MethodPost, fmt.Sprintf("/api/posts/%d/like", post.ID), token, nil)
	requireStatus(t, w, http.StatusOK)

	var count int64
	require.NoError(t, app.db.Model(&models.Notification{}).Count(&count).Error)
	assert.EqualValues(t, 0, count)
}
