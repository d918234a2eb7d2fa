package utils

import (
	"strconv"
)

// StringToInt converts string to int, returns 0 if error
func StringToInt(s string) int {
	i, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return i
}

// ParsePage 解析分页参数，非法值回退到默认值
func ParsePage(pageStr, limitStr string, defaultLimit int) (page, limit, offset int) {
	page = StringToInt(pageStr)
	if page < 1 {
		page = 1
	}
	limit = StringToInt(limitStr)
	if limit < 1 || limit > 100 {
		limit = defaultLimit
	}
	return page, limit, (page - 1) * limit
}
