package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// 统一响应包为 {success, data|message}

func OK(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, gin.H{"success": true, "data": data})
}

func Created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, gin.H{"success": true, "data": data})
}

func OKMessage(c *gin.Context, message string) {
	c.JSON(http.StatusOK, gin.H{"success": true, "message": message})
}

func Fail(c *gin.Context, code int, message string) {
	c.JSON(code, gin.H{"success": false, "message": message})
}

// FailServer 存储层或其他意外错误，错误信息原样透出
func FailServer(c *gin.Context, err error) {
	c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": err.Error()})
}
