package handlers

import (
	"fmt"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"

	"forumhub/internal/config"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type UploadHandler struct {
	cfg *config.Config
}

func NewUploadHandler(cfg *config.Config) *UploadHandler {
	return &UploadHandler{cfg: cfg}
}

// validateImage 检查上传文件的类型和大小
func (h *UploadHandler) validateImage(header *multipart.FileHeader) error {
	contentType := header.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "image/") {
		return fmt.Errorf("只允许上传图片文件")
	}
	if header.Size > h.cfg.MaxFileSize {
		return fmt.Errorf("图片大小不能超过 %dMB", h.cfg.MaxFileSize/(1024*1024))
	}
	return nil
}

// saveImage 以随机文件名落盘，原始文件名只保留扩展名
func (h *UploadHandler) saveImage(c *gin.Context, header *multipart.FileHeader) (string, error) {
	ext := strings.ToLower(filepath.Ext(header.Filename))
	filename := uuid.NewString() + ext
	if err := c.SaveUploadedFile(header, filepath.Join(h.cfg.UploadDir, filename)); err != nil {
		return "", err
	}
	return filename, nil
}

// Image 上传单张图片 POST /api/upload/image（multipart 字段 image）
func (h *UploadHandler) Image(c *gin.Context) {
	header, err := c.FormFile("image")
	if err != nil {
		Fail(c, http.StatusBadRequest, "请选择图片")
		return
	}
	if err := h.validateImage(header); err != nil {
		Fail(c, http.StatusBadRequest, err.Error())
		return
	}

	filename, err := h.saveImage(c, header)
	if err != nil {
		FailServer(c, err)
		return
	}

	OK(c, gin.H{
		"url":      h.cfg.BaseURL + "/uploads/" + filename,
		"filename": filename,
	})
}

// Images 批量上传图片 POST /api/upload/images（multipart 字段 images，最多 10 张）
func (h *UploadHandler) Images(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil || len(form.File["images"]) == 0 {
		Fail(c, http.StatusBadRequest, "请选择图片")
		return
	}
	files := form.File["images"]
	if len(files) > 10 {
		Fail(c, http.StatusBadRequest, "一次最多上传10张图片")
		return
	}

	results := make([]gin.H, 0, len(files))
	for _, header := range files {
		if err := h.validateImage(header); err != nil {
			Fail(c, http.StatusBadRequest, err.Error())
			return
		}
		filename, err := h.saveImage(c, header)
		if err != nil {
			FailServer(c, err)
			return
		}
		results = append(results, gin.H{
			"url":      h.cfg.BaseURL + "/uploads/" + filename,
			"filename": filename,
		})
	}

	OK(c, results)
}
