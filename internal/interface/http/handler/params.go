package handler

import (
	"errors"
	"io"
	"strconv"

	"github.com/gin-gonic/gin"

	apperrors "github.com/xiebiao/mediastore/pkg/errors"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// pathID 解析路径中的正整数ID
func pathID(c *gin.Context, name string) (uint, error) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		return 0, apperrors.Newf(apperrors.ErrCodeBindError, "无效的%s: %q", name, c.Param(name))
	}
	return uint(id), nil
}

// pageQuery page从1开始，page_size限制在[1, 100]
func pageQuery(c *gin.Context) (int, int) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	size, _ := strconv.Atoi(c.DefaultQuery("page_size", strconv.Itoa(defaultPageSize)))
	if page < 1 {
		page = 1
	}
	if size < 1 {
		size = defaultPageSize
	}
	if size > maxPageSize {
		size = maxPageSize
	}
	return page, size
}

// bindAttributes 请求体解析为JSON对象，空请求体视为{}
func bindAttributes(c *gin.Context) (map[string]any, error) {
	raw := map[string]any{}
	if c.Request.Body == nil || c.Request.ContentLength == 0 {
		return raw, nil
	}
	if err := c.ShouldBindJSON(&raw); err != nil {
		if errors.Is(err, io.EOF) {
			return raw, nil
		}
		return nil, apperrors.ErrBindError.WithCause(err)
	}
	return raw, nil
}
